package main

import (
	"fmt"

	"kitchen-ai/internal/session"

	"github.com/spf13/cobra"
)

var cleanupDays int

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 30, "Drop execution metrics older than this many days")
}

var cleanupCmd = &cobra.Command{
	Use:   "metrics-cleanup",
	Short: "Prune old execution metrics and expired bot sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cleanupDays < 1 {
			return fmt.Errorf("--days must be at least 1")
		}
		ctx := cmd.Context()
		d, err := setup(ctx, false)
		if err != nil {
			return err
		}
		defer d.Close()

		n, err := d.metrics.Cleanup(cleanupDays)
		if err != nil {
			return fmt.Errorf("failed to clean up metrics: %w", err)
		}
		expired, err := session.NewRepository(d.db.SQL, d.cfg.Session.TTL).CleanupExpired(ctx)
		if err != nil {
			return fmt.Errorf("failed to clean up sessions: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d metric rows and %d expired sessions.\n", n, expired)
		return nil
	},
}
