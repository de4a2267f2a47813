package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"kitchen-ai/internal/history"

	"github.com/spf13/cobra"
)

var (
	histFavorites  bool
	histSearch     string
	histOutputJSON bool
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().BoolVar(&histFavorites, "favorites", false, "Only show favorite weeks")
	historyCmd.Flags().StringVar(&histSearch, "search", "", "Filter by title or meal")
	historyCmd.Flags().BoolVar(&histOutputJSON, "json", false, "Output results as JSON")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved weeks",
	Long: `List the weeks saved from the wizard, newest first.

Examples:
  kitchen-ai history
  kitchen-ai history --favorites
  kitchen-ai history --search carbonara`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		d, err := setup(ctx, false)
		if err != nil {
			return err
		}
		defer d.Close()

		repo := history.NewRepository(d.db.SQL)
		var entries []history.Entry
		switch {
		case histSearch != "":
			entries, err = repo.Search(ctx, owner, histSearch)
		case histFavorites:
			entries, err = repo.ListFavorites(ctx, owner)
		default:
			entries, err = repo.List(ctx, owner)
		}
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}

		out := cmd.OutOrStdout()
		if histOutputJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No saved weeks.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tMEALS\tFAVORITE\tSAVED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%t\t%s\n", e.ID, e.Title, len(e.Meals), e.Favorite, e.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}
