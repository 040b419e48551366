package cli

import (
	"errors"
	"fmt"

	"migrator/internal/history"
	"migrator/internal/ui"
	"migrator/pkg/snapshot"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show what changed since the last scan",
	Long: `Scan the system, reconcile the result against the stored state and
print the differences. The stored state is then replaced by the new scan
unless --dry-run is given.

On the first run there is nothing to compare against; the scan is stored
and reported as the initial state.

Examples:
  migrator check                # Routine check
  migrator check -o json        # Differences as JSON`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

// checkReport is the machine-readable result of a check.
type checkReport struct {
	Initial bool                     `json:"initial" yaml:"initial"`
	Changes *snapshot.Reconciliation `json:"changes" yaml:"changes"`
}

func runCheck(cmd *cobra.Command, args []string) (err error) {
	entry := history.NewEntry(history.OpCheck, distro.ID, stateFilePath())
	defer func() { record(entry, err) }()

	stored, err := loadStoredState()
	initial := errors.Is(err, ErrNoStoredState)
	if err != nil && !initial {
		return fmt.Errorf("failed to load system state: %w", err)
	}

	current, err := buildSnapshot(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	changes := snapshot.ReconcileLists(nil, nil, nil, nil)
	if !initial {
		changes = snapshot.Reconcile(stored, current)
	}
	entry.Count("added", len(changes.AddedPackages)).
		Count("removed", len(changes.RemovedPackages)).
		Count("configs_changed", len(changes.ChangedConfigs))

	if !cfg.General.DryRun {
		if err := snapshot.NewStateFile(stateFilePath()).Save(current); err != nil {
			return fmt.Errorf("failed to save system state: %w", err)
		}
	}

	if structured() {
		return ui.Emit(cfg.Output.Format, checkReport{Initial: initial, Changes: changes})
	}

	if initial {
		ui.InfoMsg("No previous state; recorded the initial state (%s)", current.Summary())
		return nil
	}

	ui.HeaderMsg("Changes since %s", stored.FormatTime())
	ui.PrintReconciliation(changes)
	if !changes.IsEmpty() {
		ui.Println("")
		ui.InfoMsg("%s", changes.Summary())
	}
	return nil
}
