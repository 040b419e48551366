// Package config loads and saves the migrator configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Version policies understood by the installation planner.
const (
	PolicyPreferNewer = "prefer-newer"
	PolicyExact       = "exact"
)

// Config represents the complete migrator configuration.
type Config struct {
	General  GeneralConfig            `toml:"general"`
	Output   OutputConfig             `toml:"output"`
	Plan     PlanConfig               `toml:"plan"`
	Tracking TrackingConfig           `toml:"tracking"`
	Fstab    FstabConfig              `toml:"fstab"`
	Managers map[string]ManagerConfig `toml:"managers"`
}

// GeneralConfig contains general settings.
type GeneralConfig struct {
	// BackupDir is where backup snapshots are written and searched for.
	BackupDir string `toml:"backup_dir"`

	// IncludeDesktop controls whether desktop environment configs are tracked.
	IncludeDesktop bool `toml:"include_desktop"`

	// AutoConfirm skips confirmation prompts when true (like -y flag).
	AutoConfirm bool `toml:"auto_confirm"`

	// DryRun reports what a restore would do without running any handler.
	DryRun bool `toml:"dry_run"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	// Color enables colored output (respects NO_COLOR env var).
	Color bool `toml:"color"`

	// Unicode enables unicode symbols in output.
	Unicode bool `toml:"unicode"`

	// Verbose enables detailed output.
	Verbose bool `toml:"verbose"`

	// Format selects "table", "json" or "yaml" output.
	Format string `toml:"format"`
}

// PlanConfig controls installation planning.
type PlanConfig struct {
	// VersionPolicy is "prefer-newer" or "exact".
	VersionPolicy string `toml:"version_policy"`

	// MappingsFile is an optional YAML file of extra cross-source package names.
	MappingsFile string `toml:"mappings_file"`
}

// TrackingConfig lists the configuration files that are checksummed on every scan.
// Entries may be glob patterns; "~" expands to the user's home.
type TrackingConfig struct {
	SystemPaths  []string `toml:"system_paths"`
	UserPaths    []string `toml:"user_paths"`
	DesktopPaths []string `toml:"desktop_paths"`
}

// FstabConfig controls portable mount table handling.
type FstabConfig struct {
	Path            string `toml:"path"`
	IncludePortable bool   `toml:"include_portable"`
}

// ManagerConfig contains per-backend settings.
type ManagerConfig struct {
	// UseNala uses nala instead of apt if available. APT only.
	UseNala bool `toml:"use_nala"`

	// DefaultRemote specifies the default remote for Flatpak.
	DefaultRemote string `toml:"default_remote"`

	// AllowClassic allows classic confinement for Snap packages.
	AllowClassic bool `toml:"allow_classic"`

	// SearchDirs lists directories scanned for AppImages.
	SearchDirs []string `toml:"search_dirs"`

	// Disabled excludes the backend from scans and plans.
	Disabled bool `toml:"disabled"`
}

// Default returns the default configuration.
func Default() *Config {
	home, _ := os.UserHomeDir() //nolint:errcheck

	return &Config{
		General: GeneralConfig{
			BackupDir:      filepath.Join(home, "migrator_backups"),
			IncludeDesktop: true,
		},
		Output: OutputConfig{
			Color:   true,
			Unicode: true,
			Format:  "table",
		},
		Plan: PlanConfig{
			VersionPolicy: PolicyPreferNewer,
		},
		Tracking: TrackingConfig{
			SystemPaths: []string{
				"/etc/fstab",
				"/etc/hosts",
				"/etc/hostname",
				"/etc/environment",
				"/etc/profile",
				"/etc/bash.bashrc",
				"/etc/sudoers",
				"/etc/crontab",
				"/etc/apt/sources.list",
				"/etc/apt/sources.list.d/*.list",
				"/etc/yum.repos.d/*.repo",
				"/etc/pacman.conf",
				"/etc/NetworkManager/NetworkManager.conf",
				"/etc/systemd/system/*.service",
				"/etc/X11/xorg.conf",
			},
			UserPaths: []string{
				"~/.bashrc",
				"~/.profile",
				"~/.zshrc",
				"~/.gitconfig",
				"~/.ssh/config",
				"~/.config/starship.toml",
			},
			DesktopPaths: []string{
				"~/.config/kdeglobals",
				"~/.config/plasma-org.kde.plasma.desktop-appletsrc",
				"~/.config/xfce4/xfconf/xfce-perchannel-xml/*.xml",
				"~/.config/dconf/user",
				"~/.config/cinnamon/*.json",
			},
		},
		Fstab: FstabConfig{
			Path:            "/etc/fstab",
			IncludePortable: true,
		},
		Managers: map[string]ManagerConfig{
			"apt": {
				UseNala: false,
			},
			"flatpak": {
				DefaultRemote: "flathub",
			},
			"snap": {
				AllowClassic: false,
			},
			"appimage": {
				SearchDirs: []string{"~/Applications", "~/.local/bin", "/opt"},
			},
		},
	}
}

// Load loads the configuration from the default path.
// If the config file doesn't exist, it returns the default configuration.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom loads the configuration from a specific path.
// If the config file doesn't exist, it returns the default configuration.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(c)
}

// GetManagerConfig returns the configuration for a specific backend.
// Returns an empty config if no configuration exists for the backend.
func (c *Config) GetManagerConfig(name string) ManagerConfig {
	if cfg, ok := c.Managers[name]; ok {
		return cfg
	}
	return ManagerConfig{}
}

// ShouldUseColor returns true if colored output should be used.
// Respects the NO_COLOR environment variable.
func (c *Config) ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return c.Output.Color
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || (len(path) > 1 && path[:2] == "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
