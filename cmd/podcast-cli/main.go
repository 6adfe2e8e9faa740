// main package for the podcast-cli command-line client.
package main

import (
	"fmt"
	"os"

	"github.com/book-expert/logger"
	"github.com/book-expert/podcast-service/internal/config"
)

const logFileName = "podcast-cli.log"

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// The CLI works without a service configuration file: defaults plus
	// the TTS_DEFAULT_VOICE and TTS_DEFAULT_SPEED environment overrides.
	var cfg config.Config

	cfg.ApplyDefaults()

	log, err := logger.New(os.TempDir(), logFileName)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		_ = log.Close()
	}()

	rootCommand := newRootCommand(&cfg, log)

	err = rootCommand.Execute()
	if err != nil {
		return fmt.Errorf("command failed: %w", err)
	}

	return nil
}
