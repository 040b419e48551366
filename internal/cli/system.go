package cli

import (
	"strings"

	"migrator/internal/config"
	"migrator/internal/ui"

	"github.com/spf13/cobra"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Show system information",
	Long: `Display the detected distribution, its compatibility family and the
package sources migrator can read on this machine.

Examples:
  migrator system               # Show system info
  migrator system -o json       # Machine-readable`,
	RunE: runSystem,
}

type systemReport struct {
	Distro    any      `json:"distro" yaml:"distro"`
	Family    string   `json:"family" yaml:"family"`
	Backends  []string `json:"backends" yaml:"backends"`
	StatePath string   `json:"state_path" yaml:"state_path"`
	BackupDir string   `json:"backup_dir" yaml:"backup_dir"`
}

func runSystem(cmd *cobra.Command, args []string) error {
	var names []string
	for _, b := range registry.Available() {
		names = append(names, b.Name())
	}

	report := systemReport{
		Distro:    distro,
		Family:    string(distro.Family()),
		Backends:  names,
		StatePath: stateFilePath(),
		BackupDir: config.ExpandHome(cfg.General.BackupDir),
	}
	if structured() {
		return ui.Emit(cfg.Output.Format, report)
	}

	ui.HeaderMsg("System Information")
	ui.Println("  %s: %s", ui.Cyan("Distribution"), distro.DisplayName()+" "+distro.Version)
	ui.Println("  %s: %s", ui.Cyan("Family"), report.Family)
	if len(distro.IDLike) > 0 {
		ui.Println("  %s: %s", ui.Cyan("Based on"), strings.Join(distro.IDLike, ", "))
	}

	ui.HeaderMsg("Package Sources")
	for _, b := range registry.All() {
		if b.IsAvailable() {
			ui.SuccessMsg("%s", b.DisplayName())
		} else {
			ui.MutedMsg("  %s is not installed", b.DisplayName())
		}
	}

	ui.HeaderMsg("Paths")
	ui.Println("  %s: %s", ui.Cyan("State"), report.StatePath)
	ui.Println("  %s: %s", ui.Cyan("Backups"), report.BackupDir)
	ui.Println("  %s: %s", ui.Cyan("Config"), config.ConfigPath())
	return nil
}
