package universal

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"migrator/internal/executor"
	"migrator/internal/logging"
	"migrator/pkg/manager"
)

// Snap implements the Backend interface for Snap.
type Snap struct {
	name         string
	displayName  string
	binary       string
	allowClassic bool
	runner       executor.Runner
}

// NewSnap creates a new Snap backend.
func NewSnap(runner executor.Runner, allowClassic bool) *Snap {
	return &Snap{
		name:         "snap",
		displayName:  "Snap",
		binary:       "snap",
		allowClassic: allowClassic,
		runner:       runner,
	}
}

// Name returns the short identifier.
func (s *Snap) Name() string {
	return s.name
}

// DisplayName returns the human-readable name.
func (s *Snap) DisplayName() string {
	return s.displayName
}

// Type returns the manager type.
func (s *Snap) Type() manager.ManagerType {
	return manager.TypeUniversal
}

// IsAvailable returns true if Snap is installed.
func (s *Snap) IsAvailable() bool {
	return s.runner.LookPath(s.binary)
}

// ListInstalled returns installed snaps. Bases, core and snapd are infrastructure,
// so only the remaining snaps are marked manually installed.
func (s *Snap) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := s.runner.Output(ctx, s.binary, "list")
	if err != nil {
		return nil, fmt.Errorf("failed to list snaps: %w", err)
	}
	return parseSnapList(output), nil
}

// IsPackageAvailable reports whether the store knows the snap.
func (s *Snap) IsPackageAvailable(ctx context.Context, name string) (bool, error) {
	_, err := s.runner.Output(ctx, s.binary, "info", name)
	if err != nil {
		if strings.Contains(err.Error(), "no snap found") {
			return false, nil
		}
		return false, fmt.Errorf("snap info %s: %w", name, err)
	}
	return true, nil
}

// LatestVersion returns the latest/stable version from snap info.
func (s *Snap) LatestVersion(ctx context.Context, name string) (string, error) {
	output, err := s.runner.Output(ctx, s.binary, "info", name)
	if err != nil {
		return "", fmt.Errorf("snap info %s: %w", name, err)
	}
	return parseSnapChannelVersion(output), nil
}

// IsUserInstalled reports whether the snap is installed and not infrastructure.
func (s *Snap) IsUserInstalled(ctx context.Context, name string) (bool, error) {
	pkgs, err := s.ListInstalled(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range pkgs {
		if p.Name == name {
			return p.ManuallyInstalled, nil
		}
	}
	return false, nil
}

// Install installs snaps one at a time; snap has no batch install with per-snap options.
func (s *Snap) Install(ctx context.Context, packages []string, opts manager.InstallOpts) error {
	for _, pkg := range packages {
		args := []string{"install", pkg}
		if s.allowClassic {
			args = append(args, "--classic")
		}

		if opts.DryRun {
			logDryRun(s.name, s.binary, args)
			continue
		}
		if err := s.runner.RunSudo(ctx, s.binary, args...); err != nil {
			return fmt.Errorf("failed to install %s: %w", pkg, err)
		}
	}
	return nil
}

// parseSnapList parses the columns of `snap list`:
// Name  Version  Rev  Tracking  Publisher  Notes
func parseSnapList(output string) []manager.Package {
	var packages []manager.Package
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] == "Name" {
			continue
		}

		notes := ""
		if len(fields) >= 6 {
			notes = fields[5]
		}

		packages = append(packages, manager.Package{
			Name:              fields[0],
			Version:           fields[1],
			Source:            "snap",
			ManuallyInstalled: !isInfrastructureSnap(fields[0], notes),
		})
	}
	return packages
}

func isInfrastructureSnap(name, notes string) bool {
	for _, n := range strings.Split(notes, ",") {
		switch n {
		case "base", "core", "snapd":
			return true
		}
	}
	return name == "snapd" || name == "bare"
}

// parseSnapChannelVersion picks the version from the latest/stable channel line.
func parseSnapChannelVersion(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		for _, prefix := range []string{"latest/stable:", "stable:"} {
			if !strings.HasPrefix(line, prefix) {
				continue
			}
			fields := strings.Fields(strings.TrimPrefix(line, prefix))
			if len(fields) == 0 || fields[0] == "--" || fields[0] == "^" {
				return ""
			}
			return fields[0]
		}
	}
	return ""
}

func logDryRun(component, binary string, args []string) {
	logger := logging.GetLogger(component)
	logger.Info().
		Str("command", binary+" "+strings.Join(args, " ")).
		Msg("[dry-run] would execute")
}
