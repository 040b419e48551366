package cli

import (
	"fmt"
	"path/filepath"

	"migrator/internal/config"
	"migrator/internal/executor"
	"migrator/internal/history"
	"migrator/internal/ui"
	"migrator/pkg/fstab"

	"github.com/spf13/cobra"
)

// fstabExportName is the default portable fragment inside the backup directory.
const fstabExportName = "migrator_fstab.portable"

var fstabPortableOnly bool

var fstabCmd = &cobra.Command{
	Use:   "fstab",
	Short: "Find and carry over portable mount table entries",
	Long: `Network mounts (NFS, CIFS/SMB, SSHFS) do not depend on the local disks
and can be carried to a new installation. Device, UUID and LABEL entries
cannot.

Examples:
  migrator fstab                            # Show /etc/fstab with portability
  migrator fstab list --portable            # Only portable entries
  migrator fstab export                     # Save portable entries with the backups
  migrator fstab append old-fstab -n        # Show what would be appended`,
	Args: cobra.NoArgs,
	RunE: runFstabList,
}

func init() {
	fstabCmd.PersistentFlags().BoolVarP(&fstabPortableOnly, "portable", "p", false, "only show portable entries")
	fstabCmd.AddCommand(fstabListCmd)
	fstabCmd.AddCommand(fstabExportCmd)
	fstabCmd.AddCommand(fstabAppendCmd)
}

var fstabListCmd = &cobra.Command{
	Use:   "list [file]",
	Short: "List mount table entries and whether they are portable",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFstabList,
}

func fstabSource(args []string) string {
	if len(args) > 0 {
		return config.ExpandHome(args[0])
	}
	if cfg.Fstab.Path != "" {
		return cfg.Fstab.Path
	}
	return fstab.DefaultPath
}

func runFstabList(cmd *cobra.Command, args []string) error {
	m, err := fstab.Load(fstabSource(args))
	if err != nil {
		return err
	}

	entries := m.Entries()
	if fstabPortableOnly {
		entries = m.Portable()
	}
	if structured() {
		return ui.Emit(cfg.Output.Format, entries)
	}

	ui.PrintFstab(entries)
	ui.MutedMsg("\n%d entries, %d portable", len(m.Entries()), len(m.Portable()))
	return nil
}

var fstabExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the portable entries to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest := filepath.Join(config.ExpandHome(cfg.General.BackupDir), fstabExportName)
		if len(args) > 0 {
			dest = config.ExpandHome(args[0])
		}
		n, err := exportPortableFstab(dest)
		if err != nil {
			return err
		}
		if n == 0 {
			ui.InfoMsg("No portable entries in %s", fstabSource(nil))
			return nil
		}
		ui.SuccessMsg("Wrote %d portable entries to %s", n, dest)
		return nil
	},
}

// exportPortableFstab writes the portable entries of the configured mount
// table to dest. Nothing is written when there are none or in dry-run mode.
func exportPortableFstab(dest string) (int, error) {
	m, err := fstab.Load(fstabSource(nil))
	if err != nil {
		return 0, err
	}
	if len(m.Portable()) == 0 {
		return 0, nil
	}
	if cfg.General.DryRun {
		ui.InfoMsg("Would write %d portable entries to %s", len(m.Portable()), dest)
		return len(m.Portable()), nil
	}
	return m.WritePortable(dest)
}

var fstabAppendTarget string

var fstabAppendCmd = &cobra.Command{
	Use:   "append <source>",
	Short: "Append the portable entries of another mount table to this one",
	Long: `Read a mount table from another installation and append its portable
entries to the local one. Mount points already present are skipped and the
target is copied to <target>.migrator.bak first. Writing /etc/fstab needs root.`,
	Args: cobra.ExactArgs(1),
	RunE: runFstabAppend,
}

func init() {
	fstabAppendCmd.Flags().StringVar(&fstabAppendTarget, "target", "", "mount table to append to (default from config)")
}

func runFstabAppend(cmd *cobra.Command, args []string) (err error) {
	target := fstabAppendTarget
	if target == "" {
		target = fstabSource(nil)
	}

	entry := history.NewEntry(history.OpFstabAppend, distro.ID, target)
	defer func() { record(entry, err) }()

	source, err := fstab.Load(config.ExpandHome(args[0]))
	if err != nil {
		return err
	}
	portable := source.Portable()
	if len(portable) == 0 {
		ui.InfoMsg("No portable entries in %s", source.Path())
		return nil
	}

	if cfg.General.DryRun {
		ui.InfoMsg("Would append to %s (existing mount points are skipped):", target)
		ui.PrintFstab(portable)
		entry.Count("portable", len(portable))
		return nil
	}

	if target == fstab.DefaultPath {
		if err := executor.RequireRoot("append to " + target); err != nil {
			return err
		}
	}
	if err := confirm(fmt.Sprintf("Append %d portable entries to %s?", len(portable), target)); err != nil {
		return err
	}

	n, err := source.AppendPortable(target)
	if err != nil {
		return err
	}
	entry.Count("appended", n)

	if n == 0 {
		ui.InfoMsg("All portable mount points are already present in %s", target)
		return nil
	}
	ui.SuccessMsg("Appended %d entries to %s (backup: %s.migrator.bak)", n, target, target)
	return nil
}
