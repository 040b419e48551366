package universal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"migrator/internal/config"
	"migrator/pkg/manager"
)

// ErrManualInstall is returned when a backend cannot install packages itself.
var ErrManualInstall = errors.New("AppImages must be downloaded manually")

// AppImage treats standalone AppImage files found in a set of directories as packages.
type AppImage struct {
	name        string
	displayName string
	searchDirs  []string
}

// NewAppImage creates a new AppImage backend. Entries may start with "~".
func NewAppImage(searchDirs []string) *AppImage {
	dirs := make([]string, 0, len(searchDirs))
	for _, d := range searchDirs {
		dirs = append(dirs, config.ExpandHome(d))
	}
	return &AppImage{
		name:        "appimage",
		displayName: "AppImage",
		searchDirs:  dirs,
	}
}

// Name returns the short identifier.
func (a *AppImage) Name() string {
	return a.name
}

// DisplayName returns the human-readable name.
func (a *AppImage) DisplayName() string {
	return a.displayName
}

// Type returns the manager type.
func (a *AppImage) Type() manager.ManagerType {
	return manager.TypeUniversal
}

// IsAvailable returns true when at least one search directory exists.
func (a *AppImage) IsAvailable() bool {
	for _, d := range a.searchDirs {
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// ListInstalled returns every AppImage directly in a search directory or one level below.
func (a *AppImage) ListInstalled(_ context.Context) ([]manager.Package, error) {
	seen := make(map[string]bool)
	var packages []manager.Package

	for _, path := range a.find() {
		if seen[path] {
			continue
		}
		seen[path] = true

		pkg := manager.Package{
			Name:              appImageName(path),
			Version:           appImageVersion(path),
			Description:       "AppImage found at " + path,
			Source:            "appimage",
			ManuallyInstalled: true,
		}
		if info, err := os.Stat(path); err == nil {
			t := info.ModTime().UTC()
			pkg.InstallDate = &t
		}
		packages = append(packages, pkg)
	}

	return packages, nil
}

// IsPackageAvailable reports whether the AppImage is present locally.
// There is no repository to query.
func (a *AppImage) IsPackageAvailable(ctx context.Context, name string) (bool, error) {
	_, ok := a.lookup(ctx, name)
	return ok, nil
}

// LatestVersion returns the version of the local AppImage.
func (a *AppImage) LatestVersion(ctx context.Context, name string) (string, error) {
	pkg, _ := a.lookup(ctx, name)
	return pkg.Version, nil
}

// IsUserInstalled returns true for any AppImage that is present.
func (a *AppImage) IsUserInstalled(ctx context.Context, name string) (bool, error) {
	_, ok := a.lookup(ctx, name)
	return ok, nil
}

// Install always fails: AppImages are downloaded by hand.
func (a *AppImage) Install(_ context.Context, _ []string, _ manager.InstallOpts) error {
	return ErrManualInstall
}

func (a *AppImage) lookup(ctx context.Context, name string) (manager.Package, bool) {
	pkgs, _ := a.ListInstalled(ctx)
	for _, p := range pkgs {
		if p.Name == name {
			return p, true
		}
	}
	return manager.Package{}, false
}

func (a *AppImage) find() []string {
	var found []string
	for _, dir := range a.searchDirs {
		for _, pattern := range []string{"*.AppImage", "*.appimage", "*/*.AppImage", "*/*.appimage"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				continue
			}
			found = append(found, matches...)
		}
	}
	sort.Strings(found)
	return found
}

// splitAppImageName splits "App-1.2.3.AppImage" into ("App", "1.2.3"),
// trying a dash separator first and then an underscore.
func splitAppImageName(path string) (string, string) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(strings.TrimSuffix(base, ".AppImage"), ".appimage")

	for _, sep := range []string{"-", "_"} {
		idx := strings.LastIndex(base, sep)
		if idx <= 0 {
			continue
		}
		tail := base[idx+1:]
		if !strings.ContainsFunc(tail, unicode.IsDigit) {
			continue
		}
		if len(tail) > 1 && tail[0] == 'v' && unicode.IsDigit(rune(tail[1])) {
			tail = tail[1:]
		}
		return base[:idx], tail
	}
	return base, ""
}

func appImageName(path string) string {
	name, _ := splitAppImageName(path)
	return name
}

func appImageVersion(path string) string {
	_, version := splitAppImageName(path)
	return version
}
