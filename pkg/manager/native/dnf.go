package native

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"migrator/internal/executor"
	"migrator/internal/logging"
	"migrator/pkg/manager"
)

// DNF implements the Backend interface for Fedora/RHEL's DNF package manager.
type DNF struct {
	*BaseManager
}

// NewDNF creates a new DNF backend.
func NewDNF(runner executor.Runner) *DNF {
	return &DNF{
		BaseManager: NewBaseManager("dnf", "DNF (Fedora/RHEL)", "dnf", runner),
	}
}

// ListInstalled returns all installed packages with their user-installed flag.
func (d *DNF) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := d.Runner().Output(ctx, "rpm", "-qa", "--queryformat",
		"%{NAME}\\t%{VERSION}-%{RELEASE}\\t%{INSTALLTIME}\\t%{SUMMARY}\\n")
	if err != nil {
		return nil, fmt.Errorf("failed to list rpm packages: %w", err)
	}

	userInstalled, err := d.userInstalledSet(ctx)
	if err != nil {
		logger := logging.GetLogger("dnf")
		logger.Warn().Err(err).Msg("Could not read user-installed packages")
	}

	var packages []manager.Package
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.SplitN(scanner.Text(), "\t", 4)
		if len(fields) < 2 || fields[0] == "gpg-pubkey" {
			continue
		}

		pkg := manager.Package{
			Name:              fields[0],
			Version:           fields[1],
			Source:            "dnf",
			ManuallyInstalled: userInstalled[fields[0]],
		}
		if len(fields) > 2 {
			if secs, err := strconv.ParseInt(fields[2], 10, 64); err == nil {
				t := time.Unix(secs, 0).UTC()
				pkg.InstallDate = &t
			}
		}
		if len(fields) > 3 {
			pkg.Description = fields[3]
		}
		packages = append(packages, pkg)
	}

	return packages, scanner.Err()
}

// IsPackageAvailable reports whether the enabled repositories offer the package.
func (d *DNF) IsPackageAvailable(ctx context.Context, name string) (bool, error) {
	_, err := d.Runner().Output(ctx, "dnf", "info", "-q", name)
	return availability("dnf", err)
}

// LatestVersion returns the newest version-release the repositories offer.
func (d *DNF) LatestVersion(ctx context.Context, name string) (string, error) {
	output, err := d.Runner().Output(ctx, "dnf", "repoquery", "-q", "--latest-limit=1",
		"--qf", "%{version}-%{release}\\n", name)
	if err != nil {
		return "", ClassifyError("dnf", err)
	}
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}
	return "", nil
}

// IsUserInstalled checks dnf's user-installed list.
func (d *DNF) IsUserInstalled(ctx context.Context, name string) (bool, error) {
	set, err := d.userInstalledSet(ctx)
	if err != nil {
		return false, err
	}
	return set[name], nil
}

// Install installs one or more packages.
func (d *DNF) Install(ctx context.Context, packages []string, opts manager.InstallOpts) error {
	args := []string{"install"}
	if opts.AutoConfirm {
		args = append(args, "-y")
	}
	args = append(args, packages...)

	return d.runSudo(ctx, opts, d.Binary(), args...)
}

func (d *DNF) userInstalledSet(ctx context.Context) (map[string]bool, error) {
	output, err := d.Runner().Output(ctx, "dnf", "repoquery", "-q", "--userinstalled", "--qf", "%{name}\\n")
	if err != nil {
		return map[string]bool{}, err
	}
	return lineSet(output), nil
}
