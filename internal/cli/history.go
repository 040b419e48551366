package cli

import (
	"fmt"
	"time"

	"migrator/internal/config"
	"migrator/internal/history"
	"migrator/internal/ui"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyOp    string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past migrator runs",
	Long: `Display the runs recorded by migrator, newest first, with their counts.

Examples:
  migrator history                  # Show recent history
  migrator history -l 50 --op check # Last 50 routine checks
  migrator history prune 720h       # Forget runs older than 30 days
  migrator history clear            # Forget everything`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "number of entries to show")
	historyCmd.Flags().StringVar(&historyOp, "op", "", "only show one operation (scan, check, backup, ...)")
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyPruneCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open(config.HistoryPath())
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	var entries []history.Entry
	if historyOp != "" {
		entries, err = store.ListOperation(history.Operation(historyOp), historyLimit)
	} else {
		entries, err = store.List(historyLimit)
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if structured() {
		return ui.Emit(cfg.Output.Format, entries)
	}

	ui.HeaderMsg("Operation History")
	ui.PrintHistory(entries)
	for _, e := range entries {
		if e.Error != "" {
			ui.MutedMsg("  %s: %s", e.ID, e.Error)
		}
	}

	total, _ := store.Count()
	ui.MutedMsg("\nShowing %d of %d total entries", len(entries), total)
	return nil
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all history entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := confirm("Delete all history entries?"); err != nil {
			return err
		}
		store, err := history.Open(config.HistoryPath())
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer store.Close()

		if err := store.Clear(); err != nil {
			return err
		}
		ui.SuccessMsg("History cleared")
		return nil
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune <age>",
	Short: "Delete history entries older than a duration such as 720h",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		age, err := time.ParseDuration(args[0])
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", args[0], err)
		}

		store, err := history.Open(config.HistoryPath())
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer store.Close()

		n, err := store.Prune(age)
		if err != nil {
			return err
		}
		ui.SuccessMsg("Removed %d entries", n)
		return nil
	},
}
