package cli

import (
	"fmt"

	"migrator/internal/history"
	"migrator/internal/ui"
	"migrator/pkg/snapshot"

	"github.com/spf13/cobra"
)

var (
	compareFlags  backupFlags
	compareStored bool
)

var compareCmd = &cobra.Command{
	Use:   "compare [backup]",
	Short: "Compare a backup with this system",
	Long: `Reconcile a backup against the current system. Packages are matched by
name and source; config files by path and checksum.

Without an argument the newest backup in the backup directory is used, then
any backup found under --search directories.

Examples:
  migrator compare                                  # Newest backup vs a fresh scan
  migrator compare --stored                         # Newest backup vs the stored state
  migrator compare ~/migrator_backups/old.json      # A specific backup
  migrator compare --search /media --passphrase     # Encrypted backup on removable media`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompare,
}

func init() {
	compareFlags.register(compareCmd)
	compareCmd.Flags().BoolVar(&compareStored, "stored", false, "compare against the stored state instead of a fresh scan")
}

// compareReport is the machine-readable result of a compare.
type compareReport struct {
	Backup  string                   `json:"backup" yaml:"backup"`
	Changes *snapshot.Reconciliation `json:"changes" yaml:"changes"`
}

func runCompare(cmd *cobra.Command, args []string) (err error) {
	entry := history.NewEntry(history.OpCompare, distro.ID, "")
	defer func() { record(entry, err) }()

	backup, path, err := compareFlags.load(args)
	if err != nil {
		return err
	}
	entry.Target = path

	current, err := currentState(cmd, compareStored)
	if err != nil {
		return err
	}

	changes := snapshot.Reconcile(backup, current)
	entry.Count("added", len(changes.AddedPackages)).
		Count("removed", len(changes.RemovedPackages)).
		Count("configs_changed", len(changes.ChangedConfigs))

	if structured() {
		return ui.Emit(cfg.Output.Format, compareReport{Backup: path, Changes: changes})
	}

	ui.PrintSnapshotInfo("Backup", backup)
	ui.MutedMsg("  %s", path)
	ui.PrintReconciliation(changes)
	if !changes.IsEmpty() {
		ui.Println("")
		ui.InfoMsg("%s (relative to the backup)", changes.Summary())
	}
	return nil
}

// currentState returns the stored state when stored is set, else a fresh scan.
func currentState(cmd *cobra.Command, stored bool) (*snapshot.Snapshot, error) {
	if stored {
		return loadStoredState()
	}
	snap, err := buildSnapshot(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return snap, nil
}
