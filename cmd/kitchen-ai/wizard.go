package main

import (
	"fmt"
	"os"

	"kitchen-ai/internal/console"
	"kitchen-ai/internal/history"
	"kitchen-ai/internal/storage"
	"kitchen-ai/internal/workflow"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(wizardCmd)
}

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Run the interactive meal planning wizard",
	Long: `Run the meal planning wizard in the terminal. Progress is saved after
every step, so quitting and running the wizard again picks up where you left.

Examples:
  # Start or resume your week
  kitchen-ai wizard

  # Plan under a separate history
  kitchen-ai wizard --owner guest`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		d, err := setup(ctx, true)
		if err != nil {
			return err
		}
		defer d.Close()

		sessions, err := storage.NewFileStore(d.cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to open session storage: %w", err)
		}
		hist := history.NewRepository(d.db.SQL)
		engine := workflow.NewEngine(d.planner, sessions, hist, d.logger, workflow.Options{
			MaxMealsPerDay:  d.cfg.Planner.MaxMealsPerDay,
			TitleDateLayout: d.cfg.Planner.TitleDateLayout,
		})

		return console.New(engine, hist, owner, os.Stdin, cmd.OutOrStdout()).Run(ctx)
	},
}
