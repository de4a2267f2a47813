package main

import (
	"fmt"
	"path/filepath"

	"kitchen-ai/internal/metrics"

	"github.com/spf13/cobra"
)

var statsDays int

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVar(&statsDays, "days", 7, "Days of LLM usage to include")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show LLM usage and runtime health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := setup(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer d.Close()

		usage, err := d.metrics.GetDailyUsage(statsDays)
		if err != nil {
			return fmt.Errorf("failed to read usage: %w", err)
		}
		health := metrics.GetSysHealth(filepath.Dir(d.cfg.Database.Path))
		fmt.Fprint(cmd.OutOrStdout(), metrics.Report(usage, health))
		return nil
	},
}
