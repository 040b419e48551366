package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"migrator/internal/config"
	"migrator/internal/history"
	"migrator/internal/logging"
	"migrator/internal/ui"
	"migrator/pkg/manager"
	"migrator/pkg/snapshot"

	"filippo.io/age"
	"github.com/spf13/cobra"
)

// backupSearchDepth bounds the directory walk used to discover backups on extra roots.
const backupSearchDepth = 2

// backupFlags are shared by every command that reads a backup.
type backupFlags struct {
	identityFiles []string
	passphrase    bool
	searchDirs    []string

	ids    []age.Identity
	loaded bool
}

func (f *backupFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.identityFiles, "identity", "i", nil, "age identity file for encrypted backups")
	cmd.Flags().BoolVar(&f.passphrase, "passphrase", false, "prompt for the passphrase of an encrypted backup")
	cmd.Flags().StringSliceVar(&f.searchDirs, "search", nil, "extra directories to search for backups")
}

// identities returns the age identities selected by the flags. The passphrase
// is prompted for at most once.
func (f *backupFlags) identities() ([]age.Identity, error) {
	if f.loaded {
		return f.ids, nil
	}

	var ids []age.Identity
	for _, path := range f.identityFiles {
		file, err := os.Open(config.ExpandHome(path))
		if err != nil {
			return nil, fmt.Errorf("failed to open identity file: %w", err)
		}
		parsed, err := snapshot.ParseIdentities(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse identity file %s: %w", path, err)
		}
		ids = append(ids, parsed...)
	}

	if f.passphrase {
		pass, err := ui.Passphrase("Backup passphrase")
		if err != nil {
			return nil, err
		}
		id, err := snapshot.PassphraseIdentity(pass)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	f.ids, f.loaded = ids, true
	return ids, nil
}

// resolve returns the backup to use: the argument when given, else the newest
// backup in the configured directory, else one discovered under --search.
func (f *backupFlags) resolve(args []string) (string, error) {
	if len(args) > 0 {
		return config.ExpandHome(args[0]), nil
	}

	dir := config.ExpandHome(cfg.General.BackupDir)
	if path, err := snapshot.FindLatestBackup(dir); err == nil {
		return path, nil
	} else if !errors.Is(err, snapshot.ErrNotFound) {
		return "", err
	}

	found := snapshot.FindBackups(backupSearchDepth, expand(f.searchDirs)...)
	if len(found) == 0 {
		return "", ErrNoBackup
	}

	ids, err := f.identities()
	if err != nil {
		return "", err
	}
	metas := readMetadata(found, ids)
	if len(metas) == 0 {
		return "", ErrNoBackup
	}
	choice, err := ui.SelectBackup(metas, "Select a backup")
	if err != nil {
		return "", err
	}
	return choice.Path, nil
}

// load resolves and decodes the backup snapshot.
func (f *backupFlags) load(args []string) (*snapshot.Snapshot, string, error) {
	path, err := f.resolve(args)
	if err != nil {
		return nil, "", err
	}
	ids, err := f.identities()
	if err != nil {
		return nil, "", err
	}
	snap, err := snapshot.LoadBackup(path, ids...)
	if err != nil {
		return nil, path, fmt.Errorf("failed to load backup %s: %w", path, err)
	}
	return snap, path, nil
}

// readMetadata summarizes each readable backup; unreadable ones are logged and skipped.
func readMetadata(paths []string, ids []age.Identity) []snapshot.BackupMetadata {
	log := logging.GetLogger("cli")
	metas := make([]snapshot.BackupMetadata, 0, len(paths))
	for _, p := range paths {
		meta, err := snapshot.ReadMetadata(p, ids...)
		if err != nil {
			log.Warn().Err(err).Str("path", p).Msg("Skipping unreadable backup")
			continue
		}
		metas = append(metas, *meta)
	}
	return metas
}

// backends returns the available, enabled backends.
func backends() []manager.Backend {
	return registry.Available()
}

// trackers returns the config trackers selected by the configuration.
func trackers() []snapshot.Tracker {
	t := []snapshot.Tracker{
		snapshot.NewFileTracker("system", cfg.Tracking.SystemPaths, true),
		snapshot.NewFileTracker("user", cfg.Tracking.UserPaths, false),
	}
	if cfg.General.IncludeDesktop {
		t = append(t, snapshot.NewFileTracker("desktop", cfg.Tracking.DesktopPaths, false))
	}
	return t
}

// buildSnapshot captures the current system, showing a spinner on terminals.
func buildSnapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	available := backends()
	if len(available) == 0 {
		logger := logging.GetLogger("cli")
		logger.Warn().Err(ErrNoBackends).Msg("Only config files will be recorded")
	}

	builder := snapshot.NewBuilder(distro, available, trackers())
	if structured() || !ui.IsInteractive() {
		return builder.Build(ctx)
	}

	var snap *snapshot.Snapshot
	err := ui.WithSpinner("Scanning packages and config files", func() error {
		var err error
		snap, err = builder.Build(ctx)
		return err
	})
	return snap, err
}

// loadStoredState reads the state file, mapping a missing file to ErrNoStoredState.
func loadStoredState() (*snapshot.Snapshot, error) {
	snap, err := snapshot.NewStateFile(stateFilePath()).Load()
	if errors.Is(err, snapshot.ErrNotFound) {
		return nil, ErrNoStoredState
	}
	return snap, err
}

// record stores a history entry. History is best effort: failures are logged only.
func record(entry *history.Entry, err error) {
	entry.DryRun = cfg.General.DryRun
	entry.Finish(err)

	log := logging.GetLogger("history")
	store, openErr := history.Open(config.HistoryPath())
	if openErr != nil {
		log.Warn().Err(openErr).Msg("Failed to open history")
		return
	}
	defer store.Close()

	if recErr := store.Record(entry); recErr != nil {
		log.Warn().Err(recErr).Msg("Failed to record history entry")
	}
}

// confirm asks before a change unless auto-confirm is set.
func confirm(prompt string) error {
	if cfg.General.AutoConfirm {
		return nil
	}
	if !ui.IsInteractive() {
		return fmt.Errorf("%w: confirmation required, pass --yes", ErrAborted)
	}
	ok, err := ui.Confirm(prompt, false)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}
	return nil
}

func expand(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = config.ExpandHome(p)
	}
	return out
}
