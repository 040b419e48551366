package cli

import (
	"fmt"
	"path/filepath"

	"migrator/internal/config"
	"migrator/internal/executor"
	"migrator/internal/history"
	"migrator/internal/ui"
	"migrator/pkg/repository"

	"github.com/spf13/cobra"
)

// reposFileName is the default export file inside the backup directory.
const reposFileName = "migrator_repositories.json"

var reposCmd = &cobra.Command{
	Use:     "repos",
	Aliases: []string{"repositories"},
	Short:   "Export, check and restore package repositories",
	Long: `Work with the custom repositories of this machine: APT sources and PPAs,
DNF/YUM repos, pacman sections, Flatpak remotes and snap channels.

Repositories from another distribution are checked against this one first;
incompatible ones (a PPA on Fedora, a DNF repo on Ubuntu) are never restored.

Examples:
  migrator repos list                       # Repositories configured here
  migrator repos export                     # Save them next to the backups
  migrator repos check old-repos.json       # What would work on this distro
  migrator repos restore old-repos.json -n  # Show what restore would do`,
}

func init() {
	reposCmd.AddCommand(reposListCmd)
	reposCmd.AddCommand(reposExportCmd)
	reposCmd.AddCommand(reposCheckCmd)
	reposCmd.AddCommand(reposRestoreCmd)
}

func defaultReposFile(args []string) string {
	if len(args) > 0 {
		return config.ExpandHome(args[0])
	}
	return filepath.Join(config.ExpandHome(cfg.General.BackupDir), reposFileName)
}

var reposListCmd = &cobra.Command{
	Use:   "list",
	Short: "List repositories configured on this system",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repos := repository.NewScanner(runner, distro).Scan(cmd.Context())
		if structured() {
			return ui.Emit(cfg.Output.Format, repos)
		}
		ui.PrintRepositories(repos, nil)
		return nil
	},
}

var reposExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Save the repositories of this system",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReposExport,
}

func runReposExport(cmd *cobra.Command, args []string) (err error) {
	path := defaultReposFile(args)
	entry := history.NewEntry(history.OpRepoExport, distro.ID, path)
	defer func() { record(entry, err) }()

	repos := repository.NewScanner(runner, distro).Scan(cmd.Context())
	entry.Count("repositories", len(repos))

	if cfg.General.DryRun {
		ui.InfoMsg("Would export %d repositories to %s", len(repos), path)
		return nil
	}
	if err := repository.SaveExport(path, repository.NewExport(distro, repos)); err != nil {
		return err
	}

	if structured() {
		return ui.Emit(cfg.Output.Format, map[string]any{"path": path, "repositories": len(repos)})
	}
	ui.SuccessMsg("Exported %d repositories to %s", len(repos), path)
	return nil
}

var reposCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Check exported repositories against this distribution",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReposCheck,
}

func runReposCheck(cmd *cobra.Command, args []string) error {
	export, err := repository.LoadExport(defaultReposFile(args))
	if err != nil {
		return err
	}

	issues := repository.CheckCompatibility(export.Repositories, distro)
	if structured() {
		return ui.Emit(cfg.Output.Format, issues)
	}

	ui.HeaderMsg("Repositories from %s %s on %s %s",
		export.DistroInfo.DisplayName(), export.DistroInfo.Version, distro.DisplayName(), distro.Version)
	ui.PrintRepositories(export.Repositories, issues)
	ui.Println("")
	if len(issues) == 0 {
		ui.SuccessMsg("All %d repositories are compatible", len(export.Repositories))
	} else {
		ui.WarningMsg("%d of %d repositories are incompatible", len(issues), len(export.Repositories))
	}
	return nil
}

var reposRestoreCmd = &cobra.Command{
	Use:   "restore [file]",
	Short: "Add the compatible exported repositories to this system",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReposRestore,
}

// restoreReport is the machine-readable result of a repository restore.
type restoreReport struct {
	DryRun   bool               `json:"dry_run" yaml:"dry_run"`
	Restored []string           `json:"restored" yaml:"restored"`
	Issues   []repository.Issue `json:"issues" yaml:"issues"`
}

func runReposRestore(cmd *cobra.Command, args []string) (err error) {
	path := defaultReposFile(args)
	entry := history.NewEntry(history.OpRepoRestore, distro.ID, path)
	defer func() { record(entry, err) }()

	export, err := repository.LoadExport(path)
	if err != nil {
		return err
	}

	restorer := repository.NewRestorer()
	repository.RegisterDefaults(restorer, runner)

	dry := cfg.General.DryRun
	if !dry {
		if restorer.NeedsRoot(export.Repositories, distro) {
			err = executor.RequireRoot("restore repositories")
		} else {
			err = executor.CheckPrivileges(true)
		}
		if err != nil {
			return err
		}
		if err := confirm(fmt.Sprintf("Restore repositories from %s?", path)); err != nil {
			return err
		}
	}

	restored, issues := restorer.RestoreRepositories(cmd.Context(), export.Repositories, distro, dry)
	entry.Count("restored", len(restored)).Count("issues", len(issues))

	if structured() {
		return ui.Emit(cfg.Output.Format, restoreReport{DryRun: dry, Restored: restored, Issues: issues})
	}

	ui.PrintRestoreResult(restored, issues)
	ui.Println("")
	ui.InfoMsg("%d restored, %d issue(s)", len(restored), len(issues))
	return nil
}
