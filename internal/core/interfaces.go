// Package core defines the core business logic and interfaces for the podcast service.
package core

import (
	"context"
	"errors"
	"fmt"
)

// Supported output container formats.
const (
	FormatWAV  = "wav"
	FormatMP3  = "mp3"
	FormatOpus = "opus"
	FormatAAC  = "aac"
	FormatFLAC = "flac"
	FormatPCM  = "pcm"
)

// Speed limits accepted by the speech endpoint.
const (
	MinSpeed = 0.25
	MaxSpeed = 4.0
)

// Static errors shared across components.
var (
	// ErrServerUnreachable indicates the TTS server could not be reached.
	// It is the only transient error in the pipeline; callers may retry.
	ErrServerUnreachable = errors.New("tts server unreachable")
	// ErrInvalidVoice indicates the server rejected the requested voice.
	ErrInvalidVoice = errors.New("invalid voice")
	// ErrInputTooLong indicates the server rejected the input text length.
	ErrInputTooLong = errors.New("input text too long")
	// ErrConversionFailed indicates the external transcoding tool failed.
	ErrConversionFailed = errors.New("audio conversion failed")
	// ErrUnsupportedFormat indicates an unknown output container format.
	ErrUnsupportedFormat = errors.New("unsupported output format")
	// ErrSpeedOutOfRange indicates a speed outside the accepted interval.
	ErrSpeedOutOfRange = errors.New("speed out of range")
)

// SpeechRequest describes a single synthesis call for one bounded-length
// text chunk. The field names mirror the OpenAI audio speech API payload.
type SpeechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// OutputSpec describes the target artifact of a generation run. It is built
// once from CLI arguments or a job event and is immutable for the run.
type OutputSpec struct {
	Path   string
	Format string
	Voice  string
	Speed  float64
}

// Validate checks the output spec against the supported formats and the
// speed interval accepted by the speech endpoint.
func (s OutputSpec) Validate() error {
	switch s.Format {
	case FormatWAV, FormatMP3, FormatOpus, FormatAAC, FormatFLAC, FormatPCM:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, s.Format)
	}

	if s.Speed < MinSpeed || s.Speed > MaxSpeed {
		return fmt.Errorf(
			"%w: %.2f not in [%.2f, %.2f]",
			ErrSpeedOutOfRange, s.Speed, MinSpeed, MaxSpeed,
		)
	}

	return nil
}

// Synthesizer defines the interface for a text-to-speech backend serving
// one bounded-length chunk per call.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error)
	Health(ctx context.Context) error
}

// Transcoder defines the interface for converting concatenated WAV audio
// into a final container and writing it to the destination path.
type Transcoder interface {
	Transcode(ctx context.Context, wavData []byte, format, destPath string) error
}

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}
