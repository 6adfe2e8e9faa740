package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOutputFormat covers the flag > extension > default precedence.
func TestOutputFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		flagValue  string
		outputPath string
		fallback   string
		want       string
	}{
		{
			name:       "explicit flag wins over extension",
			flagValue:  "opus",
			outputPath: "episode.mp3",
			fallback:   "mp3",
			want:       "opus",
		},
		{
			name:       "extension used when flag omitted",
			flagValue:  "",
			outputPath: "episode.flac",
			fallback:   "mp3",
			want:       "flac",
		},
		{
			name:       "fallback when neither is given",
			flagValue:  "",
			outputPath: "episode",
			fallback:   "mp3",
			want:       "mp3",
		},
		{
			name:       "uppercase extension is normalized",
			flagValue:  "",
			outputPath: "EPISODE.WAV",
			fallback:   "mp3",
			want:       "wav",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := outputFormat(testCase.flagValue, testCase.outputPath, testCase.fallback)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestLoadScriptFromFile(t *testing.T) {
	t.Parallel()

	scriptPath := filepath.Join(t.TempDir(), "script.txt")
	require.NoError(t, os.WriteFile(scriptPath, []byte("A script."), 0o600))

	script, err := loadScript(scriptPath, false)
	require.NoError(t, err)
	assert.Equal(t, "A script.", script)
}

func TestLoadScriptLiteral(t *testing.T) {
	t.Parallel()

	script, err := loadScript("Spoken directly.", true)
	require.NoError(t, err)
	assert.Equal(t, "Spoken directly.", script)
}

func TestLoadScriptMissingFile(t *testing.T) {
	t.Parallel()

	_, err := loadScript(filepath.Join(t.TempDir(), "missing.txt"), false)
	require.Error(t, err)
}

func TestResolveVoiceMapsAliases(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	name, err := resolveVoice(dir, "alloy")
	require.NoError(t, err)
	assert.Equal(t, "alba", name)

	name, err = resolveVoice(dir, "jean")
	require.NoError(t, err)
	assert.Equal(t, "jean", name)

	_, err = resolveVoice(dir, "nonexistent")
	require.Error(t, err)
}
