// Package transcode_test tests the ffmpeg transcoder adapter.
package transcode_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/podcast-service/internal/core"
	"github.com/book-expert/podcast-service/internal/transcode"
	"github.com/book-expert/podcast-service/internal/wavutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "transcode-test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = log.Close() })

	return log
}

func testWAV(t *testing.T) []byte {
	t.Helper()

	return wavutil.Encode(&wavutil.Segment{
		Format: wavutil.Format{
			AudioFormat:   1,
			Channels:      1,
			SampleRate:    24000,
			BitsPerSample: 16,
		},
		Data: []byte{1, 2, 3, 4, 5, 6, 7, 8},
	})
}

// stubBinary writes a shell script that emits a byte to its last argument,
// standing in for a successful ffmpeg run.
func stubBinary(t *testing.T, exitZero bool) string {
	t.Helper()

	script := "#!/bin/sh\nfor last; do :; done\nprintf x > \"$last\"\n"
	if !exitZero {
		script = "#!/bin/sh\necho 'stub: conversion error' >&2\nexit 1\n"
	}

	path := filepath.Join(t.TempDir(), "fake-ffmpeg")
	err := os.WriteFile(path, []byte(script), 0o700)
	require.NoError(t, err)

	return path
}

func TestTranscodeWAVBypassesFFmpeg(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "out.wav")
	wavData := testWAV(t)

	// Binary that always fails proves the wav path never invokes it.
	adapter := transcode.NewWithBinary(stubBinary(t, false), testLogger(t))

	err := adapter.Transcode(context.Background(), wavData, core.FormatWAV, dest)
	require.NoError(t, err)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, wavData, written)
}

func TestTranscodePCMStripsHeader(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "out.pcm")
	adapter := transcode.NewWithBinary(stubBinary(t, false), testLogger(t))

	err := adapter.Transcode(context.Background(), testWAV(t), core.FormatPCM, dest)
	require.NoError(t, err)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, written)
}

func TestTranscodeInvokesBinaryForMP3(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "out.mp3")
	adapter := transcode.NewWithBinary(stubBinary(t, true), testLogger(t))

	err := adapter.Transcode(context.Background(), testWAV(t), core.FormatMP3, dest)
	require.NoError(t, err)

	_, err = os.Stat(dest)
	require.NoError(t, err)
}

func TestTranscodeFailureLeavesNoFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.mp3")
	adapter := transcode.NewWithBinary(stubBinary(t, false), testLogger(t))

	err := adapter.Transcode(context.Background(), testWAV(t), core.FormatMP3, dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConversionFailed)
	assert.Contains(t, err.Error(), "stub: conversion error")

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "destination must not exist after a failed conversion")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no temp files may remain after a failed conversion")
}

func TestTranscodeUnknownFormat(t *testing.T) {
	t.Parallel()

	adapter := transcode.NewWithBinary(stubBinary(t, false), testLogger(t))

	err := adapter.Transcode(
		context.Background(), testWAV(t), "midi",
		filepath.Join(t.TempDir(), "out.midi"),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}
