package main

import (
	"context"

	"github.com/spf13/cobra"

	"algocrafter/cmd/algocrafter/ui"
	"algocrafter/internal/presentation/navigation"
)

// runUI starts at the legal screens, or at the clean setup demo with --demo.
func runUI(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	c, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}
	defer c.Close()

	if c.Config.Schedule.Enabled {
		c.Scheduler.Start(ctx)
	}

	start := navigation.Legal
	if demo {
		start = navigation.Home
	}
	return ui.Run(ctx, c, start)
}
