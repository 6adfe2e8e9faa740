package main

import (
	"fmt"
	"sort"

	"github.com/book-expert/logger"
	"github.com/book-expert/podcast-service/internal/voices"
	"github.com/spf13/cobra"
)

const (
	flagName     = "name"
	flagStart    = "start"
	flagDuration = "duration"
	flagForce    = "force"
)

type addVoiceFlags struct {
	name     string
	start    int
	duration int
	force    bool
}

func newAddVoiceCommand(log *logger.Logger) *cobra.Command {
	var flags addVoiceFlags

	addVoiceCommand := &cobra.Command{
		Use:   "add-voice <url>",
		Short: "Clone a voice from a YouTube video",
		Long: "add-voice downloads the audio track of the given video with yt-dlp and " +
			"cuts a reference clip with ffmpeg. The clip is stored in the voices " +
			"directory and the chosen name becomes usable with generate --voice.",
		Args: cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			return runAddVoice(command, args[0], flags, log)
		},
	}

	addVoiceCommand.Flags().StringVar(
		&flags.name, flagName, "", "Name for the new voice (required)",
	)
	addVoiceCommand.Flags().IntVar(
		&flags.start, flagStart, 0, "Offset into the video, in seconds",
	)
	addVoiceCommand.Flags().IntVar(
		&flags.duration, flagDuration, voices.DefaultClipSeconds, "Clip length, in seconds",
	)
	addVoiceCommand.Flags().BoolVar(
		&flags.force, flagForce, false, "Overwrite an existing voice of the same name",
	)

	_ = addVoiceCommand.MarkFlagRequired(flagName)

	return addVoiceCommand
}

func runAddVoice(
	command *cobra.Command,
	url string,
	flags addVoiceFlags,
	log *logger.Logger,
) error {
	voicesDir, err := command.Flags().GetString(flagVoicesDir)
	if err != nil {
		return fmt.Errorf("failed to read %s flag: %w", flagVoicesDir, err)
	}

	cloner := voices.NewCloner(voices.NewManager(voicesDir), log)

	clipPath, err := cloner.Add(command.Context(), url, flags.name, voices.AddOptions{
		StartSeconds:    flags.start,
		DurationSeconds: flags.duration,
		Force:           flags.force,
	})
	if err != nil {
		return fmt.Errorf("failed to add voice %q: %w", flags.name, err)
	}

	fmt.Printf("Voice %q added: %s\n", flags.name, clipPath)

	return nil
}

func newVoicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List built-in voices, aliases, and cloned voices",
		Args:  cobra.NoArgs,
		RunE:  runVoices,
	}
}

func runVoices(command *cobra.Command, _ []string) error {
	voicesDir, err := command.Flags().GetString(flagVoicesDir)
	if err != nil {
		return fmt.Errorf("failed to read %s flag: %w", flagVoicesDir, err)
	}

	catalog, err := voices.NewManager(voicesDir).List()
	if err != nil {
		return fmt.Errorf("failed to list voices: %w", err)
	}

	fmt.Println("Built-in voices:")

	for _, name := range catalog.Builtin {
		fmt.Printf("  %s\n", name)
	}

	aliasNames := make([]string, 0, len(catalog.Aliases))
	for alias := range catalog.Aliases {
		aliasNames = append(aliasNames, alias)
	}

	sort.Strings(aliasNames)

	fmt.Println("Aliases:")

	for _, alias := range aliasNames {
		fmt.Printf("  %s -> %s\n", alias, catalog.Aliases[alias])
	}

	if len(catalog.Custom) == 0 {
		return nil
	}

	fmt.Println("Cloned voices:")

	for _, name := range catalog.Custom {
		fmt.Printf("  %s\n", name)
	}

	return nil
}
