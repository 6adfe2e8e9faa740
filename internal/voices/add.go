package voices

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/book-expert/logger"
)

// Defaults for voice clip extraction, matching what the speech model
// expects from a reference clip.
const (
	DefaultClipSeconds = 30
	clipSampleRate     = "24000"
	clipCodec          = "pcm_s16le"
	dirPermissions     = 0o750
)

// External tools used by Add.
const (
	DefaultDownloader = "yt-dlp"
	DefaultExtractor  = "ffmpeg"
)

// Static errors.
var (
	// ErrVoiceExists indicates the voice name is already taken and
	// Force was not set.
	ErrVoiceExists = errors.New("voice already exists")
	// ErrToolMissing indicates a required external tool is not on PATH.
	ErrToolMissing = errors.New("required tool not found")
	// ErrDownloadFailed indicates the audio download step failed.
	ErrDownloadFailed = errors.New("audio download failed")
	// ErrExtractFailed indicates the clip extraction step failed.
	ErrExtractFailed = errors.New("clip extraction failed")
	// ErrNoAudioDownloaded indicates the downloader produced no wav file.
	ErrNoAudioDownloaded = errors.New("no downloaded audio found")
)

// AddOptions tunes clip extraction for a new voice.
type AddOptions struct {
	// StartSeconds is the offset into the source audio.
	StartSeconds int
	// DurationSeconds is the clip length; zero means DefaultClipSeconds.
	DurationSeconds int
	// Force overwrites an existing voice of the same name.
	Force bool
}

// Cloner derives new voice reference clips from internet videos using the
// external downloader and extractor tools.
type Cloner struct {
	manager    *Manager
	downloader string
	extractor  string
	log        *logger.Logger
}

// NewCloner creates a Cloner with the default tools from PATH.
func NewCloner(manager *Manager, log *logger.Logger) *Cloner {
	return NewClonerWithTools(manager, DefaultDownloader, DefaultExtractor, log)
}

// NewClonerWithTools creates a Cloner with explicit tool paths. Primarily
// for tests that substitute stub binaries.
func NewClonerWithTools(manager *Manager, downloader, extractor string, log *logger.Logger) *Cloner {
	return &Cloner{
		manager:    manager,
		downloader: downloader,
		extractor:  extractor,
		log:        log,
	}
}

// Add downloads the audio track of the given video URL, cuts the requested
// segment, resamples it to the reference-clip format, and installs it as
// voices-dir/<name>.wav. The clip appears atomically; a failed run leaves
// no partial voice behind.
func (c *Cloner) Add(ctx context.Context, url, name string, opts AddOptions) (string, error) {
	err := validateName(name)
	if err != nil {
		return "", err
	}

	if opts.DurationSeconds <= 0 {
		opts.DurationSeconds = DefaultClipSeconds
	}

	destPath := filepath.Join(c.manager.Dir(), name+wavExtension)

	_, statErr := os.Stat(destPath)
	if statErr == nil && !opts.Force {
		return "", fmt.Errorf("%w: %q", ErrVoiceExists, name)
	}

	err = c.checkTools()
	if err != nil {
		return "", err
	}

	err = os.MkdirAll(c.manager.Dir(), dirPermissions)
	if err != nil {
		return "", fmt.Errorf("failed to create voices directory: %w", err)
	}

	workDir, err := os.MkdirTemp("", "voice-clone-*")
	if err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}

	defer func() {
		removeErr := os.RemoveAll(workDir)
		if removeErr != nil {
			c.log.Warn("Failed to remove work directory '%s': %v", workDir, removeErr)
		}
	}()

	sourcePath, err := c.download(ctx, url, workDir)
	if err != nil {
		return "", err
	}

	err = c.extract(ctx, sourcePath, destPath, opts)
	if err != nil {
		return "", err
	}

	c.log.Info("Voice %q saved to %s", name, destPath)

	return destPath, nil
}

func (c *Cloner) checkTools() error {
	for _, tool := range []string{c.downloader, c.extractor} {
		_, err := exec.LookPath(tool)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrToolMissing, tool, err)
		}
	}

	return nil
}

// download extracts the best-quality audio track as WAV into workDir and
// returns the path of the downloaded file.
func (c *Cloner) download(ctx context.Context, url, workDir string) (string, error) {
	c.log.Info("Downloading audio from %s", url)

	template := filepath.Join(workDir, "source.%(ext)s")

	// #nosec G204 -- url is user input to a downloader built for urls
	cmd := exec.CommandContext(ctx, c.downloader,
		"-x",
		"--audio-format", "wav",
		"--audio-quality", "0",
		"-o", template,
		url,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %w - output: %s", ErrDownloadFailed, err, string(output))
	}

	// The downloader decides the final extension, so find the wav it left.
	matches, err := filepath.Glob(filepath.Join(workDir, "*"+wavExtension))
	if err != nil || len(matches) == 0 {
		return "", ErrNoAudioDownloaded
	}

	return matches[0], nil
}

// extract cuts the configured segment and resamples it to the mono 24 kHz
// 16-bit PCM format the speech model expects from reference clips.
func (c *Cloner) extract(ctx context.Context, sourcePath, destPath string, opts AddOptions) error {
	c.log.Info(
		"Extracting %ds clip starting at %ds",
		opts.DurationSeconds, opts.StartSeconds,
	)

	tempPath := destPath + ".tmp" + wavExtension

	// #nosec G204 -- numeric options and controlled paths
	cmd := exec.CommandContext(ctx, c.extractor,
		"-y",
		"-i", sourcePath,
		"-ss", fmt.Sprintf("%d", opts.StartSeconds),
		"-t", fmt.Sprintf("%d", opts.DurationSeconds),
		"-ar", clipSampleRate,
		"-ac", "1",
		"-acodec", clipCodec,
		tempPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		removeErr := os.Remove(tempPath)
		if removeErr != nil && !os.IsNotExist(removeErr) {
			c.log.Warn("Failed to remove temp clip '%s': %v", tempPath, removeErr)
		}

		return fmt.Errorf("%w: %w - output: %s", ErrExtractFailed, err, string(output))
	}

	err = os.Rename(tempPath, destPath)
	if err != nil {
		return fmt.Errorf("failed to move voice clip into place: %w", err)
	}

	return nil
}
