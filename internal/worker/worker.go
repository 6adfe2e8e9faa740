// Package worker provides a NATS worker that serves long-form generation
// jobs from the book-expert event bus.
//
// A job arrives as a TextProcessedEvent whose TextKey names the script in
// the object store. The worker runs the full pipeline (chunk, synthesize,
// stitch, transcode), uploads the finished audio under a fresh key, and
// answers with an AudioChunkCreatedEvent.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/podcast-service/internal/core"
	"github.com/book-expert/podcast-service/internal/stitcher"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Long scripts synthesize serially, so a generous per-job bound applies.
const jobTimeout = 30 * time.Minute

// ScriptGenerator is the slice of the stitcher the worker depends on.
type ScriptGenerator interface {
	Generate(ctx context.Context, script string, spec core.OutputSpec) (*stitcher.Result, error)
}

// Settings supplies the per-job defaults a job event does not carry.
type Settings struct {
	// DefaultVoice is used when the event names no voice.
	DefaultVoice string
	// Speed is the playback speed for all jobs.
	Speed float64
	// OutputFormat is the container format for finished audio.
	OutputFormat string
}

// NatsWorker listens for generation jobs on a NATS subject and processes them.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	store          core.ObjectStore
	generator      ScriptGenerator
	settings       Settings
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	store core.ObjectStore,
	generator ScriptGenerator,
	settings Settings,
	log *logger.Logger,
) *NatsWorker {
	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		store:          store,
		generator:      generator,
		settings:       settings,
		log:            log,
	}
}

// Run starts the worker and blocks until the context is cancelled.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	var event events.TextProcessedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		w.log.Error("Failed to unmarshal job event: %v", err)

		return
	}

	audioKey, processErr := w.processJob(ctx, &event)
	if processErr != nil {
		w.log.Error(
			"Failed to process generation job for workflow %s: %v",
			event.Header.WorkflowID, processErr,
		)

		return
	}

	replyEvent := &events.AudioChunkCreatedEvent{
		Header:     event.Header,
		AudioKey:   audioKey,
		PageNumber: event.PageNumber,
		TotalPages: event.TotalPages,
	}

	err = w.publishReply(msg, replyEvent)
	if err != nil {
		w.log.Error(
			"Failed to publish reply event for workflow %s: %v",
			event.Header.WorkflowID, err,
		)
	}
}

// processJob downloads the script, generates the audio file, and uploads
// the result, returning the object-store key of the finished audio.
func (w *NatsWorker) processJob(ctx context.Context, event *events.TextProcessedEvent) (string, error) {
	scriptData, err := w.store.Download(ctx, event.TextKey)
	if err != nil {
		return "", fmt.Errorf("failed to download script for key '%s': %w", event.TextKey, err)
	}

	voice := event.Voice
	if voice == "" {
		voice = w.settings.DefaultVoice
	}

	workDir, err := os.MkdirTemp("", "podcast-job-*")
	if err != nil {
		return "", fmt.Errorf("failed to create job work directory: %w", err)
	}

	defer func() {
		removeErr := os.RemoveAll(workDir)
		if removeErr != nil {
			w.log.Warn("Failed to remove job work directory '%s': %v", workDir, removeErr)
		}
	}()

	outputPath := filepath.Join(workDir, "episode."+w.settings.OutputFormat)

	spec := core.OutputSpec{
		Path:   outputPath,
		Format: w.settings.OutputFormat,
		Voice:  voice,
		Speed:  w.settings.Speed,
	}

	result, err := w.generator.Generate(ctx, string(scriptData), spec)
	if err != nil {
		return "", fmt.Errorf("failed to generate audio: %w", err)
	}

	w.log.Info(
		"Workflow %s: generated %d chunk(s), %s of audio",
		event.Header.WorkflowID, result.Chunks, result.Duration.Round(time.Millisecond),
	)

	audioData, err := os.ReadFile(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to read generated audio: %w", err)
	}

	audioKey := uuid.NewString() + "." + w.settings.OutputFormat

	err = w.store.Upload(ctx, audioKey, audioData)
	if err != nil {
		return "", fmt.Errorf("failed to upload audio for key '%s': %w", audioKey, err)
	}

	return audioKey, nil
}

// publishReply marshals and responds with the AudioChunkCreatedEvent.
func (w *NatsWorker) publishReply(msg *nats.Msg, replyEvent *events.AudioChunkCreatedEvent) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}
