// Package cli implements the command-line interface for migrator.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"migrator/internal/config"
	"migrator/internal/executor"
	"migrator/internal/logging"
	"migrator/internal/ui"
	"migrator/pkg/manager"
	"migrator/pkg/manager/detector"
	"migrator/pkg/manager/native"
	"migrator/pkg/manager/universal"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	statePath string
	format    string
	dryRun    bool
	yes       bool
	verbosity int
	noColor   bool

	// Global state
	cfg      *config.Config
	runner   *executor.Executor
	registry *manager.Registry
	distro   *detector.DistroInfo
)

// Build metadata - set at build time via ldflags
var (
	Version   = "0.1.0-dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "migrator",
	Short: "Track system state and carry it across Linux distributions",
	Long: `Migrator records the packages and configuration files of this machine,
reports what changed since the last scan, and plans how to bring a backup
onto a new installation, even one running a different distribution.

Supported package sources:
  Native:    apt (nala), dnf, pacman
  Universal: flatpak, snap, appimage

Examples:
  migrator scan                         # Record the current system state
  migrator check                        # Show what changed since the last scan
  migrator backup create                # Write a portable backup
  migrator plan install                 # Plan installing the latest backup here
  migrator repos check repos.json       # Check repositories against this distro
  migrator fstab append old-fstab       # Carry network mounts over`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeApp()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "system state file path")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "o", "", "output format: table, json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would happen without changing anything")
	rootCmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "assume yes to all prompts")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v, -vv, -vvv)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(reposCmd)
	rootCmd.AddCommand(fstabCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(systemCmd)
}

// Execute runs the root command. The context is cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// initializeApp sets up the application state.
func initializeApp() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply global flag overrides
	if yes {
		cfg.General.AutoConfirm = true
	}
	if dryRun {
		cfg.General.DryRun = true
	}
	if noColor {
		cfg.Output.Color = false
	}
	if format != "" {
		cfg.Output.Format = format
	}
	if cfg.Output.Verbose && verbosity == 0 {
		verbosity = 1
	}
	if !ui.ValidFormat(cfg.Output.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidOutputFormat, cfg.Output.Format)
	}

	logging.SetupLogger(verbosity, config.LogPath())
	ui.Init(cfg.ShouldUseColor(), cfg.Output.Unicode)

	runner = executor.New(cfg.General.DryRun, verbosity > 0)

	distro, err = detector.Detect()
	if err != nil {
		return fmt.Errorf("failed to detect distribution: %w", err)
	}

	registry = manager.NewRegistry()
	registerBackends()

	return nil
}

// registerBackends registers every backend not disabled in the config.
func registerBackends() {
	backends := []manager.Backend{
		native.NewAPT(runner, cfg.GetManagerConfig("apt").UseNala),
		native.NewDNF(runner),
		native.NewPacman(runner),
		universal.NewFlatpak(runner, cfg.GetManagerConfig("flatpak").DefaultRemote),
		universal.NewSnap(runner, cfg.GetManagerConfig("snap").AllowClassic),
		universal.NewAppImage(cfg.GetManagerConfig("appimage").SearchDirs),
	}

	log := logging.GetLogger("cli")
	for _, b := range backends {
		if cfg.GetManagerConfig(b.Name()).Disabled {
			log.Debug().Str("backend", b.Name()).Msg("Backend disabled in config")
			continue
		}
		registry.Register(b)
	}
}

// structured reports whether output should be JSON or YAML instead of tables.
func structured() bool {
	return ui.IsStructured(cfg.Output.Format)
}

// stateFilePath returns the state file in use.
func stateFilePath() string {
	if statePath != "" {
		return statePath
	}
	return config.StatePath()
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print migrator version",
	Run: func(cmd *cobra.Command, args []string) {
		ui.InfoMsg("migrator version %s", Version)
		if Commit != "unknown" {
			ui.MutedMsg("  Commit: %s", Commit)
		}
		if BuildTime != "unknown" {
			ui.MutedMsg("  Built:  %s", BuildTime)
		}
	},
}
