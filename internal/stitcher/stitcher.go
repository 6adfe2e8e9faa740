// Package stitcher drives the long-form generation pipeline: it chunks a
// script, synthesizes each chunk through the speech client, concatenates
// the audio seamlessly, and hands the result to the transcoder.
//
// Chunks are synthesized one at a time, in document order. The reference
// speech server handles a single request at a time, so there is nothing to
// gain from parallel calls here.
package stitcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/podcast-service/internal/chunker"
	"github.com/book-expert/podcast-service/internal/core"
	"github.com/book-expert/podcast-service/internal/wavutil"
)

// Defaults for unset options.
const (
	defaultRetryAttempts  = 3
	defaultInitialBackoff = 500 * time.Millisecond
)

// Log formats.
const (
	logFmtChunkPlan      = "Script split into %d chunk(s)"
	logFmtChunkProgress  = "Synthesizing chunk %d/%d (%d chars)"
	logFmtRetryBackoff   = "TTS server unreachable for chunk %d, retrying in %s (attempt %d/%d)"
	logFmtRunComplete    = "Generated %s: %d chunk(s), %s of audio"
	errFmtChunkFailed    = "chunk %d of %d failed: %w"
	errFmtChunkBadAudio  = "chunk %d returned undecodable audio: %w"
	errFmtTranscode      = "failed to write %s output: %w"
	errFmtInvalidOutput  = "invalid output spec: %w"
	errFmtConcatSegments = "failed to concatenate %d segments: %w"
)

// ErrEmptyScript indicates a script with no synthesizable text.
var ErrEmptyScript = errors.New("script contains no text")

// Options tunes the pipeline. Zero values fall back to sensible defaults.
type Options struct {
	// Model is the TTS model name passed through to the server.
	Model string
	// MaxChunkChars bounds chunk length; it must stay below the speech
	// server's input limit.
	MaxChunkChars int
	// RetryAttempts bounds synthesis attempts per chunk when the server
	// is unreachable (it may be mid-startup).
	RetryAttempts int
	// InitialBackoff is the first retry delay; it doubles per attempt.
	InitialBackoff time.Duration
	// PerChunkTimeout bounds a single synthesis call. Zero disables the
	// engine-level deadline and leaves only the client's HTTP timeout.
	PerChunkTimeout time.Duration
}

// Result summarizes a completed generation run.
type Result struct {
	Chunks   int
	Duration time.Duration
}

// Stitcher owns one generation run at a time. It holds no per-run state, so
// a single instance can serve consecutive runs.
type Stitcher struct {
	synthesizer core.Synthesizer
	transcoder  core.Transcoder
	splitter    *chunker.Chunker
	options     Options
	log         *logger.Logger
}

// New creates a Stitcher around a speech backend and a transcoder.
func New(
	synthesizer core.Synthesizer,
	transcoder core.Transcoder,
	options Options,
	log *logger.Logger,
) *Stitcher {
	if options.RetryAttempts <= 0 {
		options.RetryAttempts = defaultRetryAttempts
	}

	if options.InitialBackoff <= 0 {
		options.InitialBackoff = defaultInitialBackoff
	}

	return &Stitcher{
		synthesizer: synthesizer,
		transcoder:  transcoder,
		splitter:    chunker.New(options.MaxChunkChars),
		options:     options,
		log:         log,
	}
}

// Generate synthesizes the script into the file described by spec.
//
// Any non-transient failure aborts the whole run before anything reaches
// the destination path; an incomplete podcast is worse than no file. A
// produced file reflects every chunk in document order exactly once.
func (s *Stitcher) Generate(
	ctx context.Context,
	script string,
	spec core.OutputSpec,
) (*Result, error) {
	err := spec.Validate()
	if err != nil {
		return nil, fmt.Errorf(errFmtInvalidOutput, err)
	}

	chunks := s.splitter.Split(chunker.NormalizeScript(script))
	if len(chunks) == 0 {
		return nil, ErrEmptyScript
	}

	s.log.Info(logFmtChunkPlan, len(chunks))

	segments, err := s.synthesizeAll(ctx, chunks, spec)
	if err != nil {
		return nil, err
	}

	joined, err := wavutil.Concat(segments)
	if err != nil {
		return nil, fmt.Errorf(errFmtConcatSegments, len(segments), err)
	}

	err = s.transcoder.Transcode(ctx, wavutil.Encode(joined), spec.Format, spec.Path)
	if err != nil {
		return nil, fmt.Errorf(errFmtTranscode, spec.Format, err)
	}

	result := &Result{Chunks: len(chunks), Duration: joined.Duration()}
	s.log.Info(logFmtRunComplete, spec.Path, result.Chunks, result.Duration.Round(time.Millisecond))

	return result, nil
}

// synthesizeAll converts every chunk to a decoded audio segment, in order.
func (s *Stitcher) synthesizeAll(
	ctx context.Context,
	chunks []chunker.Chunk,
	spec core.OutputSpec,
) ([]*wavutil.Segment, error) {
	segments := make([]*wavutil.Segment, 0, len(chunks))

	for _, chunk := range chunks {
		s.log.Info(logFmtChunkProgress, chunk.Index, len(chunks), len(chunk.Text))

		audio, err := s.synthesizeWithRetry(ctx, chunk, spec)
		if err != nil {
			return nil, fmt.Errorf(errFmtChunkFailed, chunk.Index, len(chunks), err)
		}

		segment, err := wavutil.Decode(audio)
		if err != nil {
			return nil, fmt.Errorf(errFmtChunkBadAudio, chunk.Index, err)
		}

		segments = append(segments, segment)
	}

	return segments, nil
}

// synthesizeWithRetry calls the speech backend, retrying with exponential
// backoff while the server is unreachable. All other errors are final.
func (s *Stitcher) synthesizeWithRetry(
	ctx context.Context,
	chunk chunker.Chunk,
	spec core.OutputSpec,
) ([]byte, error) {
	request := core.SpeechRequest{
		Model: s.options.Model,
		Input: chunk.Text,
		Voice: spec.Voice,
		// Chunks are always requested as WAV so they can be
		// concatenated sample-for-sample before the final transcode.
		ResponseFormat: core.FormatWAV,
		Speed:          spec.Speed,
	}

	backoff := s.options.InitialBackoff

	var lastErr error

	for attempt := 1; attempt <= s.options.RetryAttempts; attempt++ {
		audio, err := s.synthesizeOnce(ctx, request)
		if err == nil {
			return audio, nil
		}

		if !errors.Is(err, core.ErrServerUnreachable) {
			return nil, err
		}

		lastErr = err

		if attempt == s.options.RetryAttempts {
			break
		}

		s.log.Warn(logFmtRetryBackoff, chunk.Index, backoff, attempt, s.options.RetryAttempts)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("generation cancelled: %w", ctx.Err())
		case <-time.After(backoff):
		}

		backoff *= 2
	}

	return nil, lastErr
}

func (s *Stitcher) synthesizeOnce(
	ctx context.Context,
	request core.SpeechRequest,
) ([]byte, error) {
	if s.options.PerChunkTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.options.PerChunkTimeout)
		defer cancel()
	}

	return s.synthesizer.Synthesize(ctx, request)
}
