package cli

import (
	"fmt"
	"sort"

	"migrator/internal/history"
	"migrator/internal/ui"
	"migrator/pkg/snapshot"

	"github.com/spf13/cobra"
)

var scanShowPackages bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Record the current system state",
	Long: `Query every available package source and checksum the tracked
configuration files, then store the result as the system state.

The previous state is kept next to the state file with a .bak suffix.

Examples:
  migrator scan                 # Record the current state
  migrator scan --packages      # Also list every package
  migrator scan -n              # Scan without saving`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVarP(&scanShowPackages, "packages", "p", false, "list every package found")
}

// scanReport is the machine-readable result of a scan.
type scanReport struct {
	StatePath string         `json:"state_path" yaml:"state_path"`
	Saved     bool           `json:"saved" yaml:"saved"`
	Distro    string         `json:"distro" yaml:"distro"`
	Packages  int            `json:"packages" yaml:"packages"`
	Manual    int            `json:"manual" yaml:"manual"`
	Configs   int            `json:"config_files" yaml:"config_files"`
	BySource  map[string]int `json:"by_source" yaml:"by_source"`
}

func newScanReport(snap *snapshot.Snapshot, saved bool) scanReport {
	bySource := make(map[string]int)
	for source, pkgs := range snap.PackagesBySource() {
		bySource[source] = len(pkgs)
	}
	return scanReport{
		StatePath: stateFilePath(),
		Saved:     saved,
		Distro:    snap.SystemInfo.DistroName + " " + snap.SystemInfo.DistroVersion,
		Packages:  len(snap.Packages),
		Manual:    snap.ManualCount(),
		Configs:   len(snap.ConfigFiles),
		BySource:  bySource,
	}
}

func runScan(cmd *cobra.Command, args []string) (err error) {
	entry := history.NewEntry(history.OpScan, distro.ID, stateFilePath())
	defer func() { record(entry, err) }()

	snap, err := buildSnapshot(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	entry.Count("packages", len(snap.Packages)).Count("configs", len(snap.ConfigFiles))

	saved := false
	if !cfg.General.DryRun {
		if err := snapshot.NewStateFile(stateFilePath()).Save(snap); err != nil {
			return fmt.Errorf("failed to save system state: %w", err)
		}
		saved = true
	}

	report := newScanReport(snap, saved)
	if structured() {
		return ui.Emit(cfg.Output.Format, report)
	}

	if scanShowPackages {
		ui.PrintPackages(snap.Packages)
	}
	printScanReport(report)
	return nil
}

func printScanReport(r scanReport) {
	sources := make([]string, 0, len(r.BySource))
	for s := range r.BySource {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	lines := []string{
		fmt.Sprintf("Distribution: %s", r.Distro),
		fmt.Sprintf("Packages:     %d (%d manual)", r.Packages, r.Manual),
	}
	for _, s := range sources {
		lines = append(lines, fmt.Sprintf("  %s %s: %d", ui.SymbolBullet, ui.SourceLabel(s), r.BySource[s]))
	}
	lines = append(lines, fmt.Sprintf("Config files: %d", r.Configs))

	if r.Saved {
		ui.PrintBox("System state saved", ui.LevelSuccess, append(lines, ui.Muted.Sprint(r.StatePath))...)
	} else {
		ui.PrintBox("System state (dry run, not saved)", ui.LevelInfo, lines...)
	}
}
