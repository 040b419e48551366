package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"migrator/internal/config"
	"migrator/internal/history"
	"migrator/internal/logging"
	"migrator/internal/ui"
	"migrator/pkg/snapshot"

	"filippo.io/age"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create and inspect portable backups",
	Long: `Backups are copies of the system state written to the backup directory
as migrator_backup_<date>_<time>_<host>.json. They can be encrypted with age
recipients or a passphrase and carried to another machine.

Examples:
  migrator backup create                          # Back up the current system
  migrator backup create --recipient age1...      # Encrypt to an age key
  migrator backup create --passphrase             # Encrypt with a passphrase
  migrator backup list --search /media            # Include removable media
  migrator backup show old.json                   # Show backup metadata`,
}

func init() {
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupShowCmd)
}

var (
	backupDir            string
	backupRecipients     []string
	backupRecipientFiles []string
	backupPassphrase     bool
	backupFromState      bool
)

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a backup of the current system",
	Args:  cobra.NoArgs,
	RunE:  runBackupCreate,
}

func init() {
	backupCreateCmd.Flags().StringVarP(&backupDir, "dir", "d", "", "backup directory (default from config)")
	backupCreateCmd.Flags().StringSliceVarP(&backupRecipients, "recipient", "r", nil, "encrypt to this age recipient")
	backupCreateCmd.Flags().StringSliceVarP(&backupRecipientFiles, "recipients-file", "R", nil, "encrypt to the age recipients in this file")
	backupCreateCmd.Flags().BoolVar(&backupPassphrase, "passphrase", false, "encrypt with a passphrase")
	backupCreateCmd.Flags().BoolVar(&backupFromState, "from-state", false, "back up the stored state instead of scanning")
}

// backupReport is the machine-readable result of backup create.
type backupReport struct {
	Path      string `json:"path" yaml:"path"`
	Encrypted bool   `json:"encrypted" yaml:"encrypted"`
	Packages  int    `json:"packages" yaml:"packages"`
	Configs   int    `json:"config_files" yaml:"config_files"`
	Mounts    int    `json:"portable_mounts" yaml:"portable_mounts"`
}

func runBackupCreate(cmd *cobra.Command, args []string) (err error) {
	dir := backupDir
	if dir == "" {
		dir = cfg.General.BackupDir
	}
	dir = config.ExpandHome(dir)

	entry := history.NewEntry(history.OpBackup, distro.ID, dir)
	defer func() { record(entry, err) }()

	recipients, err := backupRecipientList()
	if err != nil {
		return err
	}

	snap, err := currentState(cmd, backupFromState)
	if err != nil {
		return err
	}
	entry.Count("packages", len(snap.Packages)).Count("configs", len(snap.ConfigFiles))

	hostname, _ := os.Hostname()
	if cfg.General.DryRun {
		name := snapshot.BackupFileName(time.Now(), hostname)
		ui.InfoMsg("Would write backup %s to %s", name, dir)
		return nil
	}

	path, err := snapshot.ExportBackup(snap, dir, snapshot.ExportOptions{
		Hostname:   hostname,
		Recipients: recipients,
	})
	if err != nil {
		return err
	}
	entry.Target = path

	mounts := 0
	if cfg.Fstab.IncludePortable {
		fstabPath := filepath.Join(dir, strings.TrimSuffix(strings.TrimSuffix(filepath.Base(path), snapshot.EncryptedSuffix), ".json")+".fstab")
		if n, err := exportPortableFstab(fstabPath); err != nil {
			logger := logging.GetLogger("cli")
			logger.Warn().Err(err).Msg("Portable fstab entries not saved")
		} else {
			mounts = n
			entry.Count("fstab", n)
		}
	}

	if structured() {
		return ui.Emit(cfg.Output.Format, backupReport{
			Path:      path,
			Encrypted: len(recipients) > 0,
			Packages:  len(snap.Packages),
			Configs:   len(snap.ConfigFiles),
			Mounts:    mounts,
		})
	}

	lines := []string{path, snap.Summary()}
	if len(recipients) > 0 {
		lines = append(lines, fmt.Sprintf("Encrypted to %d recipient(s)", len(recipients)))
	}
	if mounts > 0 {
		lines = append(lines, fmt.Sprintf("%d portable mount(s) saved beside it", mounts))
	}
	ui.PrintBox("Backup written", ui.LevelSuccess, lines...)
	return nil
}

// backupRecipientList gathers age recipients from flags, files and an optional passphrase.
func backupRecipientList() ([]age.Recipient, error) {
	var recipients []age.Recipient
	for _, r := range backupRecipients {
		parsed, err := age.ParseX25519Recipient(r)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", r, err)
		}
		recipients = append(recipients, parsed)
	}

	for _, path := range backupRecipientFiles {
		f, err := os.Open(config.ExpandHome(path))
		if err != nil {
			return nil, fmt.Errorf("failed to open recipients file: %w", err)
		}
		parsed, err := snapshot.ParseRecipients(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse recipients file %s: %w", path, err)
		}
		recipients = append(recipients, parsed...)
	}

	if backupPassphrase {
		if len(recipients) > 0 {
			return nil, fmt.Errorf("--passphrase cannot be combined with recipients")
		}
		pass, err := ui.Passphrase("Backup passphrase")
		if err != nil {
			return nil, err
		}
		r, err := snapshot.PassphraseRecipient(pass)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, r)
	}
	return recipients, nil
}

var backupListFlags backupFlags

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups in the backup directory and search paths",
	Args:  cobra.NoArgs,
	RunE:  runBackupList,
}

func init() {
	backupListFlags.register(backupListCmd)
}

func runBackupList(cmd *cobra.Command, args []string) error {
	roots := append([]string{config.ExpandHome(cfg.General.BackupDir)}, expand(backupListFlags.searchDirs)...)
	found := snapshot.FindBackups(backupSearchDepth, roots...)

	ids, err := backupListFlags.identities()
	if err != nil {
		return err
	}
	metas := readMetadata(found, ids)

	if structured() {
		return ui.Emit(cfg.Output.Format, metas)
	}
	ui.PrintBackups(metas)
	if skipped := len(found) - len(metas); skipped > 0 {
		ui.MutedMsg("%d backup(s) could not be read; encrypted ones need --identity or --passphrase", skipped)
	}
	return nil
}

var backupShowFlags backupFlags

var backupShowCmd = &cobra.Command{
	Use:   "show [backup]",
	Short: "Show the metadata of a backup",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBackupShow,
}

func init() {
	backupShowFlags.register(backupShowCmd)
}

func runBackupShow(cmd *cobra.Command, args []string) error {
	path, err := backupShowFlags.resolve(args)
	if err != nil {
		return err
	}
	ids, err := backupShowFlags.identities()
	if err != nil {
		return err
	}
	meta, err := snapshot.ReadMetadata(path, ids...)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}

	if structured() {
		return ui.Emit(cfg.Output.Format, meta)
	}

	ui.HeaderMsg("%s", meta.Filename)
	ui.Println("  %s: %s", ui.Cyan("Path"), meta.Path)
	ui.Println("  %s: %s", ui.Cyan("Host"), meta.Hostname)
	ui.Println("  %s: %s %s", ui.Cyan("Distribution"), meta.DistroName, meta.DistroVersion)
	ui.Println("  %s: %s", ui.Cyan("Created"), meta.Created.Local().Format("2006-01-02 15:04:05"))
	ui.Println("  %s: %d", ui.Cyan("Packages"), meta.PackageCount)
	ui.Println("  %s: %v", ui.Cyan("Sources"), meta.PackageSources)
	ui.Println("  %s: %d", ui.Cyan("Config files"), meta.ConfigCount)
	ui.Println("  %s: %s", ui.Cyan("Size"), ui.FormatSize(meta.FileSize))
	if meta.Encrypted {
		ui.Println("  %s: yes", ui.Cyan("Encrypted"))
	}
	return nil
}
