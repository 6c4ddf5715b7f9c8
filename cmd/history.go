package cmd

import (
	"fmt"

	"github.com/mj1618/dslr-remote/internal/journal"
	"github.com/mj1618/dslr-remote/internal/output"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent exposures from the journal",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int("limit", 20, "Number of exposures to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}
	if appConfig.Journal == "" {
		return fmt.Errorf("no journal configured")
	}
	store, err := journal.Open(appConfig.Journal)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	return output.Print(output.HistoryResult{Exposures: entries})
}
