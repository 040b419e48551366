package native

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"migrator/internal/executor"
	"migrator/internal/logging"
	"migrator/pkg/manager"
)

// dpkgInfoDir holds the per-package file lists whose mtime approximates install time.
const dpkgInfoDir = "/var/lib/dpkg/info"

// APT implements the Backend interface for Debian/Ubuntu's APT package manager.
type APT struct {
	*BaseManager
	infoDir string
}

// NewAPT creates a new APT backend. When useNala is set and nala is on PATH,
// installs go through nala; queries always use dpkg and apt-cache.
func NewAPT(runner executor.Runner, useNala bool) *APT {
	binary := "apt"
	displayName := "APT (Debian/Ubuntu)"

	if useNala && runner.LookPath("nala") {
		binary = "nala"
		displayName = "Nala (APT Frontend)"
	}

	return &APT{
		BaseManager: NewBaseManager("apt", displayName, binary, runner),
		infoDir:     dpkgInfoDir,
	}
}

// SetInfoDir overrides the dpkg info directory used for install dates.
func (a *APT) SetInfoDir(dir string) {
	a.infoDir = dir
}

// ListInstalled returns all installed packages with their manual-install flag.
func (a *APT) ListInstalled(ctx context.Context) ([]manager.Package, error) {
	output, err := a.Runner().Output(ctx, "dpkg-query", "-W",
		"-f=${Package}\\t${Version}\\t${Status}\\t${binary:Summary}\\n")
	if err != nil {
		return nil, fmt.Errorf("failed to list apt packages: %w", err)
	}

	manual, err := a.manualSet(ctx)
	if err != nil {
		logger := logging.GetLogger("apt")
		logger.Warn().Err(err).Msg("Could not read manually installed packages")
	}

	var packages []manager.Package
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 3 {
			continue
		}

		// Only fully installed packages
		if !strings.HasSuffix(fields[2], " installed") {
			continue
		}

		pkg := manager.Package{
			Name:              fields[0],
			Version:           fields[1],
			Source:            "apt",
			InstallDate:       a.installDate(fields[0]),
			ManuallyInstalled: manual[fields[0]],
		}
		if len(fields) > 3 {
			pkg.Description = fields[3]
		}
		packages = append(packages, pkg)
	}

	return packages, scanner.Err()
}

// IsPackageAvailable reports whether apt-cache knows the package.
func (a *APT) IsPackageAvailable(ctx context.Context, name string) (bool, error) {
	_, err := a.Runner().Output(ctx, "apt-cache", "show", name)
	return availability("apt", err)
}

// LatestVersion returns the candidate version from apt-cache policy.
func (a *APT) LatestVersion(ctx context.Context, name string) (string, error) {
	output, err := a.Runner().Output(ctx, "apt-cache", "policy", name)
	if err != nil {
		return "", ClassifyError("apt", err)
	}
	return parseCandidate(output), nil
}

// IsUserInstalled checks apt-mark's manual list.
func (a *APT) IsUserInstalled(ctx context.Context, name string) (bool, error) {
	manual, err := a.manualSet(ctx)
	if err != nil {
		return false, err
	}
	return manual[name], nil
}

// Install installs one or more packages.
func (a *APT) Install(ctx context.Context, packages []string, opts manager.InstallOpts) error {
	args := []string{"install"}
	if opts.AutoConfirm {
		args = append(args, "-y")
	}
	args = append(args, packages...)

	return a.runSudo(ctx, opts, a.Binary(), args...)
}

func (a *APT) manualSet(ctx context.Context) (map[string]bool, error) {
	output, err := a.Runner().Output(ctx, "apt-mark", "showmanual")
	if err != nil {
		return map[string]bool{}, err
	}
	return lineSet(output), nil
}

// installDate uses the mtime of the package's dpkg file list.
func (a *APT) installDate(name string) *time.Time {
	if a.infoDir == "" {
		return nil
	}
	candidates := []string{name + ".list"}
	if matches, err := filepath.Glob(filepath.Join(a.infoDir, name+":*.list")); err == nil {
		for _, m := range matches {
			candidates = append(candidates, filepath.Base(m))
		}
	}
	for _, c := range candidates {
		if info, err := os.Stat(filepath.Join(a.infoDir, c)); err == nil {
			t := info.ModTime().UTC()
			return &t
		}
	}
	return nil
}

// parseCandidate extracts the "Candidate:" line of apt-cache policy output.
func parseCandidate(output string) string {
	candidate := fieldValue(output, "Candidate")
	if candidate == "(none)" {
		return ""
	}
	return candidate
}
