// Package transcode converts concatenated WAV audio into the requested
// output container by invoking the external ffmpeg binary.
package transcode

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/book-expert/logger"
	"github.com/book-expert/podcast-service/internal/core"
	"github.com/book-expert/podcast-service/internal/wavutil"
)

// DefaultBinary is the transcoder executable looked up on PATH.
const DefaultBinary = "ffmpeg"

const (
	filePermissions = 0o600
	tempSuffix      = ".tmp"
)

// containerArgs maps an output format to the ffmpeg codec and muxer flags.
// WAV and PCM bypass ffmpeg entirely.
var containerArgs = map[string][]string{
	core.FormatMP3:  {"-codec:a", "libmp3lame", "-b:a", "192k", "-f", "mp3"},
	core.FormatOpus: {"-codec:a", "libopus", "-f", "ogg"},
	core.FormatAAC:  {"-codec:a", "aac", "-f", "adts"},
	core.FormatFLAC: {"-codec:a", "flac", "-f", "flac"},
}

// FFmpeg implements core.Transcoder by shelling out to ffmpeg.
type FFmpeg struct {
	binary string
	log    *logger.Logger
}

// New creates a transcoder using the ffmpeg binary from PATH.
func New(log *logger.Logger) *FFmpeg {
	return NewWithBinary(DefaultBinary, log)
}

// NewWithBinary creates a transcoder with an explicit executable path.
// Primarily for tests that substitute a stub binary.
func NewWithBinary(binary string, log *logger.Logger) *FFmpeg {
	return &FFmpeg{binary: binary, log: log}
}

// Transcode writes wavData to destPath in the given container format. The
// result appears atomically: data goes to a temporary path first and is
// renamed only on success, so a failed conversion leaves nothing behind.
func (f *FFmpeg) Transcode(ctx context.Context, wavData []byte, format, destPath string) error {
	switch format {
	case core.FormatWAV:
		return writeAtomic(destPath, wavData)
	case core.FormatPCM:
		return f.writePCM(destPath, wavData)
	}

	args, ok := containerArgs[format]
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, format)
	}

	return f.convert(ctx, wavData, args, destPath)
}

// writePCM strips the WAV container and writes the raw sample payload.
func (f *FFmpeg) writePCM(destPath string, wavData []byte) error {
	segment, err := wavutil.Decode(wavData)
	if err != nil {
		return fmt.Errorf("failed to decode wav for pcm output: %w", err)
	}

	return writeAtomic(destPath, segment.Data)
}

func (f *FFmpeg) convert(ctx context.Context, wavData []byte, args []string, destPath string) error {
	inputFile, err := os.CreateTemp(filepath.Dir(destPath), "transcode-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create temp input file: %w", err)
	}

	defer func() {
		removeErr := os.Remove(inputFile.Name())
		if removeErr != nil && !os.IsNotExist(removeErr) {
			f.log.Warn("Failed to remove temp file '%s': %v", inputFile.Name(), removeErr)
		}
	}()

	_, err = inputFile.Write(wavData)

	closeErr := inputFile.Close()

	if err != nil {
		return fmt.Errorf("failed to write temp input file: %w", err)
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close temp input file: %w", closeErr)
	}

	tempOutput := destPath + tempSuffix

	cmdArgs := []string{"-hide_banner", "-loglevel", "error", "-y", "-i", inputFile.Name()}
	cmdArgs = append(cmdArgs, args...)
	cmdArgs = append(cmdArgs, tempOutput)

	// #nosec G204 -- args come from the fixed container table above
	cmd := exec.CommandContext(ctx, f.binary, cmdArgs...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		removeErr := os.Remove(tempOutput)
		if removeErr != nil && !os.IsNotExist(removeErr) {
			f.log.Warn("Failed to remove temp output '%s': %v", tempOutput, removeErr)
		}

		return fmt.Errorf(
			"%w: %s exited: %w - output: %s",
			core.ErrConversionFailed, f.binary, err, string(output),
		)
	}

	err = os.Rename(tempOutput, destPath)
	if err != nil {
		return fmt.Errorf("failed to move converted audio into place: %w", err)
	}

	return nil
}

// writeAtomic writes data next to destPath and renames it into place.
func writeAtomic(destPath string, data []byte) error {
	tempPath := destPath + tempSuffix

	err := os.WriteFile(tempPath, data, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to write temp output: %w", err)
	}

	err = os.Rename(tempPath, destPath)
	if err != nil {
		removeErr := os.Remove(tempPath)
		if removeErr != nil && !os.IsNotExist(removeErr) {
			return fmt.Errorf("failed to move output into place: %w (cleanup: %w)", err, removeErr)
		}

		return fmt.Errorf("failed to move output into place: %w", err)
	}

	return nil
}
