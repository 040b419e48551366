package manager

import "context"

// Backend is the capability set the engine needs from a package manager.
// Each variant (APT, DNF, Pacman, Flatpak, Snap, AppImage) implements it independently.
type Backend interface {
	// Name returns the short identifier that also appears as Package.Source.
	Name() string

	// DisplayName returns a human-readable name (e.g., "APT (Debian/Ubuntu)").
	DisplayName() string

	// Type returns the category of this backend.
	Type() ManagerType

	// IsAvailable returns true if the backend is installed and usable on this host.
	IsAvailable() bool

	// ListInstalled returns all installed packages, with ManuallyInstalled populated.
	ListInstalled(ctx context.Context) ([]Package, error)

	// IsPackageAvailable reports whether the backend's repositories offer the package.
	IsPackageAvailable(ctx context.Context, name string) (bool, error)

	// LatestVersion returns the newest installable version, or "" when unknown.
	LatestVersion(ctx context.Context, name string) (string, error)

	// IsUserInstalled reports whether the package was explicitly requested by the user.
	IsUserInstalled(ctx context.Context, name string) (bool, error)

	// Install installs one or more packages.
	Install(ctx context.Context, packages []string, opts InstallOpts) error
}
