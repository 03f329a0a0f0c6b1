package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stockwatch/internal/app"
)

var (
	sweepOlderThan time.Duration
	sweepDryRun    bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete trigger history older than a cutoff",
	RunE: func(cmd *cobra.Command, args []string) error {
		if sweepOlderThan <= 0 {
			return fmt.Errorf("--older-than must be a positive duration")
		}

		opts := app.SweepOptions{
			OlderThan: sweepOlderThan,
			DryRun:    sweepDryRun,
		}

		return getApp().Sweep(cmd.Context(), opts)
	},
}

func init() {
	sweepCmd.Flags().DurationVar(&sweepOlderThan, "older-than", 90*24*time.Hour, "Delete triggers older than this duration")
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "Report what would be deleted without deleting")
}
