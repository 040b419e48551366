package cli

import (
	"fmt"
	"os"
	"sort"

	"migrator/internal/config"
	"migrator/internal/executor"
	"migrator/internal/history"
	"migrator/internal/logging"
	"migrator/internal/ui"
	"migrator/pkg/manager"
	"migrator/pkg/plan"
	"migrator/pkg/snapshot"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan bringing a backup onto this system",
	Long: `Plan how the packages and config files of a backup map onto this
machine. Plans are advice: commands are printed, not run, unless
'plan install --apply' is given.

Examples:
  migrator plan install                   # Packages from the newest backup
  migrator plan install --policy exact    # Pin apt packages to backup versions
  migrator plan install --apply -y        # Install what is available
  migrator plan config old.json           # Config files missing or modified`,
}

func init() {
	planCmd.AddCommand(planInstallCmd)
	planCmd.AddCommand(planConfigCmd)
}

var (
	planInstallFlags backupFlags
	planPolicy       string
	planApply        bool
)

var planInstallCmd = &cobra.Command{
	Use:   "install [backup]",
	Short: "Classify backup packages as available, upgradable or unavailable",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlanInstall,
}

func init() {
	planInstallFlags.register(planInstallCmd)
	planInstallCmd.Flags().StringVar(&planPolicy, "policy", "", "version policy: prefer-newer or exact (default from config)")
	planInstallCmd.Flags().BoolVar(&planApply, "apply", false, "install the available and upgradable packages")
}

func runPlanInstall(cmd *cobra.Command, args []string) (err error) {
	entry := history.NewEntry(history.OpPlan, distro.ID, "")
	defer func() { record(entry, err) }()

	policy := planPolicy
	if policy == "" {
		policy = cfg.Plan.VersionPolicy
	}
	if policy != config.PolicyPreferNewer && policy != config.PolicyExact {
		return fmt.Errorf("unknown version policy %q", policy)
	}

	backup, path, err := planInstallFlags.load(args)
	if err != nil {
		return err
	}
	entry.Target = path

	mappings, err := loadMappings()
	if err != nil {
		return err
	}

	available := backends()
	var p *plan.InstallPlan
	build := func() error {
		p = plan.PlanInstallation(cmd.Context(), backup.Packages, available, plan.Options{
			VersionPolicy: plan.VersionPolicy(policy),
			Mappings:      mappings,
		})
		return cmd.Context().Err()
	}
	if structured() || !ui.IsInteractive() {
		err = build()
	} else {
		err = ui.WithSpinner("Checking package availability", build)
	}
	if err != nil {
		return err
	}
	entry.Count("available", len(p.Available)).
		Count("upgradable", len(p.Upgradable)).
		Count("unavailable", len(p.Unavailable))

	if structured() {
		return ui.Emit(cfg.Output.Format, p)
	}

	ui.PrintInstallPlan(p)
	level := ui.LevelSuccess
	if len(p.Unavailable) > 0 {
		level = ui.LevelWarning
	}
	ui.PrintBox("Installation plan", level,
		fmt.Sprintf("From %s", backup.Summary()),
		fmt.Sprintf("Onto %s %s", distro.DisplayName(), distro.Version),
		p.Summary())

	if planApply {
		return applyInstallPlan(cmd, p, plan.VersionPolicy(policy), available)
	}
	return nil
}

// loadMappings returns the built-in package name mappings plus the configured file.
func loadMappings() (*plan.Mappings, error) {
	mappings := plan.DefaultMappings()
	if cfg.Plan.MappingsFile == "" {
		return mappings, nil
	}

	path := config.ExpandHome(cfg.Plan.MappingsFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mappings file: %w", err)
	}
	defer f.Close()

	extra, err := plan.LoadMappings(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	mappings.Add(extra...)
	return mappings, nil
}

// applyInstallPlan installs the installable packages through their backends,
// one backend at a time, rendering names as the printed commands do. A
// failing backend does not stop the others.
func applyInstallPlan(cmd *cobra.Command, p *plan.InstallPlan, policy plan.VersionPolicy, available []manager.Backend) error {
	installable := p.Installable()
	if len(installable) == 0 {
		ui.InfoMsg("Nothing to install")
		return nil
	}
	if !cfg.General.DryRun {
		if err := executor.CheckPrivileges(true); err != nil {
			return err
		}
		if err := confirm(fmt.Sprintf("Install %d package(s)?", len(installable))); err != nil {
			return err
		}
	}

	bySource := p.PackageSpecs(policy)
	order := make([]string, 0, len(bySource))
	for source := range bySource {
		order = append(order, source)
	}
	sort.Strings(order)

	idx := manager.Index(available)
	log := logging.GetLogger("cli")
	failed := 0
	for _, source := range order {
		b := idx[source]
		names := bySource[source]
		err := b.Install(cmd.Context(), names, manager.InstallOpts{
			AutoConfirm: cfg.General.AutoConfirm,
			DryRun:      cfg.General.DryRun,
		})
		if err != nil {
			log.Error().Err(err).Str("backend", source).Msg("Install failed")
			ui.ErrorMsg("%s: %v", b.DisplayName(), err)
			failed++
			continue
		}
		ui.SuccessMsg("%s: installed %d package(s)", b.DisplayName(), len(names))
	}

	if failed > 0 {
		return fmt.Errorf("installation failed for %d of %d source(s)", failed, len(order))
	}
	return nil
}

var (
	planConfigFlags  backupFlags
	planConfigStored bool
)

var planConfigCmd = &cobra.Command{
	Use:   "config [backup]",
	Short: "List backup config files that are missing or modified here",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlanConfig,
}

func init() {
	planConfigFlags.register(planConfigCmd)
	planConfigCmd.Flags().BoolVar(&planConfigStored, "stored", false, "compare against the stored state instead of the live files")
}

func runPlanConfig(cmd *cobra.Command, args []string) (err error) {
	entry := history.NewEntry(history.OpPlan, distro.ID, "")
	defer func() { record(entry, err) }()

	backup, path, err := planConfigFlags.load(args)
	if err != nil {
		return err
	}
	entry.Target = path

	var current *snapshot.Snapshot
	if planConfigStored {
		current, err = loadStoredState()
	} else {
		current, err = snapshot.NewBuilder(distro, nil, trackers()).Build(cmd.Context())
	}
	if err != nil {
		return err
	}

	p := plan.PlanConfigRestoration(backup.ConfigFiles, current.ConfigFiles)
	entry.Count("restorable", len(p.Restorable)).Count("problematic", len(p.Problematic))

	if structured() {
		return ui.Emit(cfg.Output.Format, p)
	}
	ui.PrintRestorePlan(p)
	return nil
}
