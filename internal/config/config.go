// Package config provides the configuration structure for the podcast-service.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Environment variables that override configured defaults when set. They
// mirror the knobs the CLI exposes as flags.
const (
	EnvDefaultVoice = "TTS_DEFAULT_VOICE"
	EnvDefaultSpeed = "TTS_DEFAULT_SPEED"
)

// Fallback values applied when the configuration file leaves a field unset.
const (
	defaultBaseURL        = "http://localhost:8001"
	defaultModel          = "tts-1"
	defaultTimeoutSeconds = 120
	defaultMaxChunkChars  = 4000
	defaultVoice          = "alba"
	defaultSpeed          = 1.0
	defaultFormat         = "mp3"
	defaultRetryAttempts  = 3
	defaultBackoffMS      = 500
	defaultVoicesDir      = "voices"
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                      string `toml:"url"`
	TextProcessedSubject     string `toml:"text_processed_subject"`
	AudioChunkCreatedSubject string `toml:"audio_chunk_created_subject"`
	AudioObjectStoreBucket   string `toml:"audio_object_store_bucket"`
}

// TTSConfig holds the connection settings for the local speech server and
// the chunking contract derived from its input limit.
type TTSConfig struct {
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	MaxChunkChars  int     `toml:"max_chunk_chars"`
	DefaultVoice   string  `toml:"default_voice"`
	DefaultSpeed   float64 `toml:"default_speed"`
	DefaultFormat  string  `toml:"default_format"`
}

// RetryConfig bounds the stitcher's retry loop for unreachable-server errors.
type RetryConfig struct {
	Attempts         int `toml:"attempts"`
	InitialBackoffMS int `toml:"initial_backoff_ms"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	VoicesDir   string `toml:"voices_dir"`
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS  NATSConfig  `toml:"nats"`
	TTS   TTSConfig   `toml:"tts"`
	Retry RetryConfig `toml:"retry"`
	Paths PathsConfig `toml:"paths"`
}

// Load loads the configuration for the podcast-service, fills in defaults
// for unset fields, and applies environment overrides.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults fills unset fields with fallback values and then applies
// the TTS_DEFAULT_VOICE and TTS_DEFAULT_SPEED environment overrides.
func (c *Config) ApplyDefaults() {
	if c.TTS.BaseURL == "" {
		c.TTS.BaseURL = defaultBaseURL
	}

	if c.TTS.Model == "" {
		c.TTS.Model = defaultModel
	}

	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultTimeoutSeconds
	}

	if c.TTS.MaxChunkChars <= 0 {
		c.TTS.MaxChunkChars = defaultMaxChunkChars
	}

	if c.TTS.DefaultVoice == "" {
		c.TTS.DefaultVoice = defaultVoice
	}

	if c.TTS.DefaultSpeed <= 0 {
		c.TTS.DefaultSpeed = defaultSpeed
	}

	if c.TTS.DefaultFormat == "" {
		c.TTS.DefaultFormat = defaultFormat
	}

	if c.Retry.Attempts <= 0 {
		c.Retry.Attempts = defaultRetryAttempts
	}

	if c.Retry.InitialBackoffMS <= 0 {
		c.Retry.InitialBackoffMS = defaultBackoffMS
	}

	if c.Paths.VoicesDir == "" {
		c.Paths.VoicesDir = defaultVoicesDir
	}

	c.applyEnvironmentOverrides()
}

func (c *Config) applyEnvironmentOverrides() {
	if voice := os.Getenv(EnvDefaultVoice); voice != "" {
		c.TTS.DefaultVoice = voice
	}

	speedValue := os.Getenv(EnvDefaultSpeed)
	if speedValue == "" {
		return
	}

	speed, err := strconv.ParseFloat(speedValue, 64)
	if err != nil || speed <= 0 {
		// Malformed overrides are ignored; the configured default stands.
		return
	}

	c.TTS.DefaultSpeed = speed
}
