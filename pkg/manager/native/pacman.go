package native

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"migrator/internal/executor"
	"migrator/pkg/manager"
)

// pacmanDateLayout matches the "Install Date" field of pacman -Qi.
const pacmanDateLayout = "Mon 02 Jan 2006 03:04:05 PM MST"

// Pacman implements the Backend interface for Arch Linux's pacman.
type Pacman struct {
	*BaseManager
}

// NewPacman creates a new Pacman backend.
func NewPacman(runner executor.Runner) *Pacman {
	return &Pacman{
		BaseManager: NewBaseManager("pacman", "Pacman (Arch Linux)", "pacman", runner),
	}
}

// ListInstalled parses pacman -Qi, which carries the version, summary,
// install date and install reason of every local package in one call.
func (p *Pacman) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := p.Runner().Output(ctx, "pacman", "-Qi")
	if err != nil {
		return nil, fmt.Errorf("failed to list pacman packages: %w", err)
	}
	return parsePacmanInfo(output), nil
}

// IsPackageAvailable reports whether a sync database offers the package.
func (p *Pacman) IsPackageAvailable(ctx context.Context, name string) (bool, error) {
	_, err := p.Runner().Output(ctx, "pacman", "-Si", name)
	return availability("pacman", err)
}

// LatestVersion returns the sync database version of the package.
func (p *Pacman) LatestVersion(ctx context.Context, name string) (string, error) {
	output, err := p.Runner().Output(ctx, "pacman", "-Si", name)
	if err != nil {
		return "", ClassifyError("pacman", err)
	}
	return fieldValue(output, "Version"), nil
}

// IsUserInstalled reports whether the package was explicitly installed.
func (p *Pacman) IsUserInstalled(ctx context.Context, name string) (bool, error) {
	_, err := p.Runner().Output(ctx, "pacman", "-Qeq", name)
	if err != nil {
		// pacman exits non-zero for dependencies and unknown packages alike.
		return false, nil
	}
	return true, nil
}

// Install installs one or more packages, skipping ones already up to date.
func (p *Pacman) Install(ctx context.Context, packages []string, opts manager.InstallOpts) error {
	args := []string{"-S", "--needed"}
	if opts.AutoConfirm {
		args = append(args, "--noconfirm")
	}
	args = append(args, packages...)

	return p.runSudo(ctx, opts, p.Binary(), args...)
}

// parsePacmanInfo splits pacman -Qi output into blank-line separated records.
func parsePacmanInfo(output string) []manager.Package {
	var packages []manager.Package
	var current *manager.Package

	flush := func() {
		if current != nil && current.Name != "" {
			packages = append(packages, *current)
		}
		current = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		if current == nil {
			current = &manager.Package{Source: "pacman"}
		}

		value := strings.TrimSpace(parts[1])
		switch strings.TrimSpace(parts[0]) {
		case "Name":
			current.Name = value
		case "Version":
			current.Version = value
		case "Description":
			current.Description = value
		case "Install Date":
			current.InstallDate = parsePacmanDate(value)
		case "Install Reason":
			current.ManuallyInstalled = strings.HasPrefix(value, "Explicitly")
		}
	}
	flush()

	return packages
}

func parsePacmanDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{pacmanDateLayout, time.RFC1123, time.ANSIC} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
