package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/podcast-service/internal/config"
	"github.com/book-expert/podcast-service/internal/core"
	"github.com/book-expert/podcast-service/internal/speech"
	"github.com/book-expert/podcast-service/internal/stitcher"
	"github.com/book-expert/podcast-service/internal/transcode"
	"github.com/book-expert/podcast-service/internal/voices"
	"github.com/spf13/cobra"
)

const (
	flagOutput = "output"
	flagVoice  = "voice"
	flagSpeed  = "speed"
	flagFormat = "format"
	flagText   = "text"
	flagModel  = "model"
)

type generateFlags struct {
	output string
	voice  string
	speed  float64
	format string
	model  string
	text   bool
}

func newGenerateCommand(cfg *config.Config, log *logger.Logger) *cobra.Command {
	var flags generateFlags

	generateCommand := &cobra.Command{
		Use:   "generate <script>",
		Short: "Synthesize a script into a single audio file",
		Long: "generate reads a script from the given file (or treats the argument as " +
			"literal text with --text), synthesizes it chunk by chunk, and writes one " +
			"seamless audio file. The output format is taken from --format or, when " +
			"omitted, from the output file extension.",
		Args: cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			return runGenerate(command, args[0], flags, cfg, log)
		},
	}

	generateCommand.Flags().StringVarP(
		&flags.output, flagOutput, "o", "", "Output file path (required)",
	)
	generateCommand.Flags().StringVarP(
		&flags.voice, flagVoice, "v", cfg.TTS.DefaultVoice, "Voice name, alias, or cloned voice",
	)
	generateCommand.Flags().Float64VarP(
		&flags.speed, flagSpeed, "s", cfg.TTS.DefaultSpeed, "Playback speed (0.25 to 4.0)",
	)
	generateCommand.Flags().StringVarP(
		&flags.format, flagFormat, "f", "", "Output format (wav, mp3, opus, aac, flac, pcm)",
	)
	generateCommand.Flags().StringVar(
		&flags.model, flagModel, cfg.TTS.Model, "Model name sent to the server",
	)
	generateCommand.Flags().BoolVar(
		&flags.text, flagText, false, "Treat the argument as literal script text, not a path",
	)

	_ = generateCommand.MarkFlagRequired(flagOutput)

	return generateCommand
}

func runGenerate(
	command *cobra.Command,
	scriptArg string,
	flags generateFlags,
	cfg *config.Config,
	log *logger.Logger,
) error {
	script, err := loadScript(scriptArg, flags.text)
	if err != nil {
		return err
	}

	voicesDir, err := command.Flags().GetString(flagVoicesDir)
	if err != nil {
		return fmt.Errorf("failed to read %s flag: %w", flagVoicesDir, err)
	}

	voiceName, err := resolveVoice(voicesDir, flags.voice)
	if err != nil {
		return err
	}

	serverURL, err := command.Flags().GetString(flagServer)
	if err != nil {
		return fmt.Errorf("failed to read %s flag: %w", flagServer, err)
	}

	spec := core.OutputSpec{
		Path:   flags.output,
		Format: outputFormat(flags.format, flags.output, cfg.TTS.DefaultFormat),
		Voice:  voiceName,
		Speed:  flags.speed,
	}

	generator := buildStitcher(serverURL, flags.model, cfg, log)

	result, err := generator.Generate(command.Context(), script, spec)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	fmt.Printf(
		"Generated %s (%d chunks, %s of audio)\n",
		flags.output, result.Chunks, result.Duration.Round(time.Millisecond),
	)

	return nil
}

func loadScript(scriptArg string, literal bool) (string, error) {
	if literal {
		return scriptArg, nil
	}

	data, err := os.ReadFile(scriptArg)
	if err != nil {
		return "", fmt.Errorf("failed to read script file: %w", err)
	}

	return string(data), nil
}

// resolveVoice validates the name against the catalog and maps aliases to
// their native voice.
func resolveVoice(voicesDir, name string) (string, error) {
	manager := voices.NewManager(voicesDir)

	voice, err := manager.Resolve(name)
	if err != nil {
		return "", fmt.Errorf("invalid voice %q: %w", name, err)
	}

	if voice.Kind == voices.KindAlias {
		return voice.Target, nil
	}

	return voice.Name, nil
}

// outputFormat prefers the explicit flag, then the output file extension,
// then the configured default.
func outputFormat(flagValue, outputPath, fallback string) string {
	if flagValue != "" {
		return strings.ToLower(flagValue)
	}

	ext := strings.TrimPrefix(filepath.Ext(outputPath), ".")
	if ext != "" {
		return strings.ToLower(ext)
	}

	return fallback
}

func buildStitcher(
	serverURL, model string,
	cfg *config.Config,
	log *logger.Logger,
) *stitcher.Stitcher {
	timeout := time.Duration(cfg.TTS.TimeoutSeconds) * time.Second
	client := speech.NewClient(serverURL, timeout)

	return stitcher.New(client, transcode.New(log), stitcher.Options{
		Model:           model,
		MaxChunkChars:   cfg.TTS.MaxChunkChars,
		RetryAttempts:   cfg.Retry.Attempts,
		InitialBackoff:  time.Duration(cfg.Retry.InitialBackoffMS) * time.Millisecond,
		PerChunkTimeout: timeout,
	}, log)
}
