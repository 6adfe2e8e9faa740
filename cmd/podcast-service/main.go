// main package for the podcast-service worker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/podcast-service/internal/config"
	"github.com/book-expert/podcast-service/internal/objectstore"
	"github.com/book-expert/podcast-service/internal/speech"
	"github.com/book-expert/podcast-service/internal/stitcher"
	"github.com/book-expert/podcast-service/internal/transcode"
	"github.com/book-expert/podcast-service/internal/worker"
	"github.com/nats-io/nats.go"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "podcast-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func buildWorker(cfg *config.Config, log *logger.Logger) (*worker.NatsWorker, *nats.Conn, error) {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		natsConnection.Close()

		return nil, nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	store, err := objectstore.New(jetstreamContext, cfg.NATS.AudioObjectStoreBucket)
	if err != nil {
		natsConnection.Close()

		return nil, nil, fmt.Errorf("failed to initialize object store: %w", err)
	}

	client := speech.NewClient(
		cfg.TTS.BaseURL,
		time.Duration(cfg.TTS.TimeoutSeconds)*time.Second,
	)

	generator := stitcher.New(client, transcode.New(log), stitcher.Options{
		Model:           cfg.TTS.Model,
		MaxChunkChars:   cfg.TTS.MaxChunkChars,
		RetryAttempts:   cfg.Retry.Attempts,
		InitialBackoff:  time.Duration(cfg.Retry.InitialBackoffMS) * time.Millisecond,
		PerChunkTimeout: time.Duration(cfg.TTS.TimeoutSeconds) * time.Second,
	}, log)

	settings := worker.Settings{
		DefaultVoice: cfg.TTS.DefaultVoice,
		Speed:        cfg.TTS.DefaultSpeed,
		OutputFormat: cfg.TTS.DefaultFormat,
	}

	natsWorker := worker.NewNatsWorker(
		natsConnection,
		cfg.NATS.TextProcessedSubject,
		store,
		generator,
		settings,
		log,
	)

	return natsWorker, natsConnection, nil
}

func run() error {
	// Bootstrap logger in the temp dir until the configured log path is known.
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	natsWorker, natsConnection, err := buildWorker(cfg, finalLog)
	if err != nil {
		finalLog.Error("Failed to build worker: %v", err)

		return err
	}
	defer natsConnection.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finalLog.System(
		"Podcast-Service initialized. Listening for jobs on subject: %s",
		cfg.NATS.TextProcessedSubject,
	)

	err = natsWorker.Run(ctx)
	if err != nil {
		finalLog.Error("Worker stopped with error: %v", err)

		return fmt.Errorf("worker stopped: %w", err)
	}

	finalLog.System("Podcast-Service shut down cleanly.")

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
