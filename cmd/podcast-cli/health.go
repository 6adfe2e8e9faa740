package main

import (
	"context"
	"fmt"
	"time"

	"github.com/book-expert/podcast-service/internal/speech"
	"github.com/spf13/cobra"
)

const healthCheckTimeout = 10 * time.Second

func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether the speech server is reachable",
		Args:  cobra.NoArgs,
		RunE:  runHealth,
	}
}

func runHealth(command *cobra.Command, _ []string) error {
	serverURL, err := command.Flags().GetString(flagServer)
	if err != nil {
		return fmt.Errorf("failed to read %s flag: %w", flagServer, err)
	}

	ctx, cancel := context.WithTimeout(command.Context(), healthCheckTimeout)
	defer cancel()

	client := speech.NewClient(serverURL, healthCheckTimeout)

	err = client.Health(ctx)
	if err != nil {
		return fmt.Errorf("speech server at %s is not healthy: %w", serverURL, err)
	}

	fmt.Printf("Speech server at %s is healthy\n", serverURL)

	return nil
}
