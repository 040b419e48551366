// Package universal implements cross-distribution package managers.
package universal

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"migrator/internal/executor"
	"migrator/pkg/manager"
)

// Flatpak implements the Backend interface for Flatpak.
type Flatpak struct {
	name          string
	displayName   string
	binary        string
	defaultRemote string
	runner        executor.Runner
}

// NewFlatpak creates a new Flatpak backend.
func NewFlatpak(runner executor.Runner, defaultRemote string) *Flatpak {
	if defaultRemote == "" {
		defaultRemote = "flathub"
	}
	return &Flatpak{
		name:          "flatpak",
		displayName:   "Flatpak",
		binary:        "flatpak",
		defaultRemote: defaultRemote,
		runner:        runner,
	}
}

// Name returns the short identifier.
func (f *Flatpak) Name() string {
	return f.name
}

// DisplayName returns the human-readable name.
func (f *Flatpak) DisplayName() string {
	return f.displayName
}

// Type returns the manager type.
func (f *Flatpak) Type() manager.ManagerType {
	return manager.TypeUniversal
}

// IsAvailable returns true if Flatpak is installed.
func (f *Flatpak) IsAvailable() bool {
	return f.runner.LookPath(f.binary)
}

// ListInstalled returns installed applications. Runtimes are dependencies and are skipped.
// Every application counts as manually installed.
func (f *Flatpak) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := f.runner.Output(ctx, f.binary, "list", "--app", "--columns=application,version,name")
	if err != nil {
		return nil, fmt.Errorf("failed to list flatpak applications: %w", err)
	}

	var packages []manager.Package
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		appID := strings.TrimSpace(fields[0])
		if appID == "" || appID == "Application ID" {
			continue
		}

		pkg := manager.Package{
			Name:              appID,
			Source:            "flatpak",
			ManuallyInstalled: true,
		}
		if len(fields) > 1 {
			pkg.Version = strings.TrimSpace(fields[1])
		}
		if len(fields) > 2 {
			pkg.Description = strings.TrimSpace(fields[2])
		}
		packages = append(packages, pkg)
	}

	return packages, scanner.Err()
}

// IsPackageAvailable reports whether a configured remote offers the application ID.
func (f *Flatpak) IsPackageAvailable(ctx context.Context, name string) (bool, error) {
	output, err := f.runner.Output(ctx, f.binary, "search", "--columns=application", name)
	if err != nil {
		return false, fmt.Errorf("flatpak search %s: %w", name, err)
	}
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == name {
			return true, nil
		}
	}
	return false, nil
}

// LatestVersion returns the version published on the default remote.
func (f *Flatpak) LatestVersion(ctx context.Context, name string) (string, error) {
	output, err := f.runner.Output(ctx, f.binary, "remote-info", f.defaultRemote, name)
	if err != nil {
		return "", fmt.Errorf("flatpak remote-info %s: %w", name, err)
	}
	for _, line := range strings.Split(output, "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) == 2 && strings.TrimSpace(parts[0]) == "Version" {
			return strings.TrimSpace(parts[1]), nil
		}
	}
	return "", nil
}

// IsUserInstalled returns true for any installed application.
func (f *Flatpak) IsUserInstalled(ctx context.Context, name string) (bool, error) {
	output, err := f.runner.Output(ctx, f.binary, "info", name)
	if err != nil {
		return false, nil
	}
	return strings.TrimSpace(output) != "", nil
}

// Install installs one or more Flatpak applications, one at a time.
func (f *Flatpak) Install(ctx context.Context, packages []string, opts manager.InstallOpts) error {
	for _, pkg := range packages {
		args := []string{"install"}
		if opts.AutoConfirm {
			args = append(args, "-y")
		}
		args = append(args, f.defaultRemote, pkg)

		if opts.DryRun {
			logDryRun(f.name, f.binary, args)
			continue
		}
		if err := f.runner.Run(ctx, f.binary, args...); err != nil {
			return fmt.Errorf("failed to install %s: %w", pkg, err)
		}
	}
	return nil
}
