// Package config_test tests the configuration loading for the podcast-service.
package config_test

import (
	"testing"

	"github.com/book-expert/podcast-service/internal/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalConfig(t *testing.T) {
	t.Parallel()

	tomlData := `
[nats]
url = "nats://127.0.0.1:4222"
text_processed_subject = "text.processed"
audio_chunk_created_subject = "audio.chunk.created"
audio_object_store_bucket = "AUDIO_FILES"

[tts]
base_url = "http://localhost:8001"
model = "tts-1"
timeout_seconds = 120
max_chunk_chars = 4000
default_voice = "alba"
default_speed = 1.0
default_format = "mp3"

[retry]
attempts = 3
initial_backoff_ms = 500

[paths]
voices_dir = "voices"
base_logs_dir = "/tmp/podcast-service/logs"
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "text.processed", cfg.NATS.TextProcessedSubject)
	assert.Equal(t, "audio.chunk.created", cfg.NATS.AudioChunkCreatedSubject)
	assert.Equal(t, "AUDIO_FILES", cfg.NATS.AudioObjectStoreBucket)
	assert.Equal(t, "http://localhost:8001", cfg.TTS.BaseURL)
	assert.Equal(t, "tts-1", cfg.TTS.Model)
	assert.Equal(t, 120, cfg.TTS.TimeoutSeconds)
	assert.Equal(t, 4000, cfg.TTS.MaxChunkChars)
	assert.Equal(t, "alba", cfg.TTS.DefaultVoice)
	assert.InEpsilon(t, 1.0, cfg.TTS.DefaultSpeed, 0.001)
	assert.Equal(t, "mp3", cfg.TTS.DefaultFormat)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, 500, cfg.Retry.InitialBackoffMS)
	assert.Equal(t, "voices", cfg.Paths.VoicesDir)
	assert.Equal(t, "/tmp/podcast-service/logs", cfg.Paths.BaseLogsDir)
}

func TestApplyDefaultsFillsUnsetFields(t *testing.T) {
	var cfg config.Config

	cfg.ApplyDefaults()

	assert.Equal(t, "http://localhost:8001", cfg.TTS.BaseURL)
	assert.Equal(t, "tts-1", cfg.TTS.Model)
	assert.Equal(t, 120, cfg.TTS.TimeoutSeconds)
	assert.Equal(t, 4000, cfg.TTS.MaxChunkChars)
	assert.Equal(t, "alba", cfg.TTS.DefaultVoice)
	assert.InEpsilon(t, 1.0, cfg.TTS.DefaultSpeed, 0.001)
	assert.Equal(t, "mp3", cfg.TTS.DefaultFormat)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, 500, cfg.Retry.InitialBackoffMS)
	assert.Equal(t, "voices", cfg.Paths.VoicesDir)
}

func TestApplyDefaultsHonorsEnvironmentOverrides(t *testing.T) {
	t.Setenv(config.EnvDefaultVoice, "morgan")
	t.Setenv(config.EnvDefaultSpeed, "1.5")

	var cfg config.Config

	cfg.ApplyDefaults()

	assert.Equal(t, "morgan", cfg.TTS.DefaultVoice)
	assert.InEpsilon(t, 1.5, cfg.TTS.DefaultSpeed, 0.001)
}

func TestApplyDefaultsIgnoresMalformedSpeedOverride(t *testing.T) {
	t.Setenv(config.EnvDefaultSpeed, "not-a-number")

	var cfg config.Config

	cfg.ApplyDefaults()

	assert.InEpsilon(t, 1.0, cfg.TTS.DefaultSpeed, 0.001)
}
