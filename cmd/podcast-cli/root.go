package main

import (
	"github.com/book-expert/logger"
	"github.com/book-expert/podcast-service/internal/config"
	"github.com/spf13/cobra"
)

// Flag names shared across subcommands.
const (
	flagServer    = "server"
	flagVoicesDir = "voices-dir"
)

func newRootCommand(cfg *config.Config, log *logger.Logger) *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "podcast-cli",
		Short: "Turn text scripts into finished audio files",
		Long: "podcast-cli drives a local OpenAI-compatible speech server: it splits a " +
			"script into synthesizable chunks, stitches the audio back together, and " +
			"writes a single output file in the requested format.",
		SilenceUsage: true,
	}

	rootCommand.PersistentFlags().String(
		flagServer, cfg.TTS.BaseURL, "Base URL of the speech server",
	)
	rootCommand.PersistentFlags().String(
		flagVoicesDir, cfg.Paths.VoicesDir, "Directory holding cloned voice clips",
	)

	rootCommand.AddCommand(
		newGenerateCommand(cfg, log),
		newAddVoiceCommand(log),
		newVoicesCommand(),
		newHealthCommand(),
	)

	return rootCommand
}
