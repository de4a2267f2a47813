// Package main implements the kitchen-ai CLI: the planning wizard in a
// terminal plus maintenance commands against the local database.
package main

import (
	"context"
	"fmt"
	"os"

	"kitchen-ai/internal/config"
	"kitchen-ai/internal/database"
	"kitchen-ai/internal/llm"
	"kitchen-ai/internal/logger"
	"kitchen-ai/internal/metrics"
	"kitchen-ai/internal/planner"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// verbose switches the CLI logger from warnings to debug output.
	verbose bool
	// owner is the history partition the CLI reads and writes.
	owner   string
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kitchen-ai",
	Short: "Plan a week of meals from the terminal",
	Long: `kitchen-ai walks you through planning a week of meals: pick a theme,
review the generated menu, tick off the shopping list and rate each meal as
you cook it. Finished weeks are kept in your history.

Configuration comes from KITCHEN_* environment variables, optionally layered
over the YAML file named by KITCHEN_CONFIG_FILE.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&owner, "owner", "local", "History and session key")
}

// deps is what every subcommand builds before it runs. textGen and planner
// are nil unless the command asked for the model.
type deps struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *database.DB
	textGen *llm.RateLimited
	metrics *metrics.Store
	planner *planner.Planner
}

// setup loads configuration and opens the database. withModel also builds
// the LLM client, which needs an API key.
func setup(ctx context.Context, withModel bool) (*deps, error) {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if withModel {
		if err := cfg.RequireLLM(); err != nil {
			return nil, err
		}
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	zl := logger.New(logger.Config{Level: level, Format: "console", Development: verbose})

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	d := &deps{cfg: cfg, logger: zl, db: db, metrics: metrics.NewStore(db.SQL)}

	if withModel {
		d.textGen, err = llm.New(ctx, cfg.LLM)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		d.planner = planner.NewPlanner(d.textGen, zl, planner.Options{
			Timeout:  cfg.LLM.Timeout,
			Recorder: d.metrics,
		})
	}
	return d, nil
}

func (d *deps) Close() {
	d.db.Close()
	if d.textGen != nil {
		d.textGen.Close()
	}
	d.logger.Sync()
}
