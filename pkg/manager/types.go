// Package manager defines the capability interface every package-manager backend implements.
package manager

import "time"

// ManagerType represents the category of package manager.
type ManagerType string

const (
	// TypeNative represents distribution package managers (apt, dnf, pacman).
	TypeNative ManagerType = "native"
	// TypeUniversal represents cross-distribution formats (flatpak, snap, appimage).
	TypeUniversal ManagerType = "universal"
)

// Package is an installed package as reported by a backend.
type Package struct {
	Name              string     `json:"name" yaml:"name"`
	Version           string     `json:"version" yaml:"version"`
	Description       string     `json:"description" yaml:"description"`
	Source            string     `json:"source" yaml:"source"` // Backend name: "apt", "flatpak", etc.
	InstallDate       *time.Time `json:"install_date" yaml:"install_date"`
	ManuallyInstalled bool       `json:"manually_installed" yaml:"manually_installed"`
}

// InstallOpts contains options for package installation.
type InstallOpts struct {
	AutoConfirm bool // Automatically confirm prompts
	DryRun      bool // Show what would happen without executing
}

// Key returns the identity of a package: the same name from two sources is two packages.
func (p Package) Key() string {
	return p.Name + ":" + p.Source
}
