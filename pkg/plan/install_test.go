package plan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"migrator/pkg/manager"
	"migrator/pkg/manager/managertest"
	"migrator/pkg/snapshot"
)

func backupPackages() []snapshot.Package {
	return []snapshot.Package{
		{Name: "vim", Version: "9.0", Source: "apt", ManuallyInstalled: true},
		{Name: "git", Version: "2.40", Source: "apt", ManuallyInstalled: true},
		{Name: "foo", Version: "1.0", Source: "apt", ManuallyInstalled: true},
		{Name: "libc6", Version: "2.35", Source: "apt"},
		{Name: "spotify", Version: "1.2", Source: "snap", ManuallyInstalled: true},
		{Name: "org.gimp.GIMP", Version: "2.10", Source: "flatpak", ManuallyInstalled: true},
		{Name: "Obsidian", Version: "1.4", Source: "appimage", ManuallyInstalled: true},
		{Name: "yay", Version: "12", Source: "aur", ManuallyInstalled: true},
	}
}

func liveBackends() (*managertest.Backend, []manager.Backend) {
	apt := managertest.New("apt")
	apt.Offered = map[string]string{"vim": "9.1", "git": "2.40", "libc6": "2.36"}

	snap := managertest.New("snap")
	snap.Offered = map[string]string{"spotify": ""}

	flatpak := managertest.New("flatpak")
	flatpak.Offered = map[string]string{"org.gimp.GIMP": "2.10"}

	appimage := managertest.New("appimage")
	appimage.Offered = map[string]string{"Obsidian": "1.4"}

	return apt, []manager.Backend{snap, apt, flatpak, appimage}
}

func names(pkgs []PlannedPackage) []string {
	out := make([]string, len(pkgs))
	for i, p := range pkgs {
		out[i] = p.Name
	}
	return out
}

func TestPlanInstallation(t *testing.T) {
	apt, backends := liveBackends()

	plan := PlanInstallation(context.Background(), backupPackages(), backends, Options{})

	assert.Equal(t, []string{"git", "spotify", "org.gimp.GIMP", "Obsidian"}, names(plan.Available))
	assert.Equal(t, []string{"vim"}, names(plan.Upgradable))
	assert.Equal(t, "9.1", plan.Upgradable[0].LatestVersion)
	assert.Equal(t, []string{"foo", "yay"}, names(plan.Unavailable))
	assert.Equal(t, ReasonNotAvailable, plan.Unavailable[0].Reason)
	assert.Equal(t, ReasonNoBackend, plan.Unavailable[1].Reason)

	assert.NotContains(t, apt.QueriedNames(), "libc6", "dependency packages are never planned")

	assert.Equal(t, []string{
		"sudo apt install -y git vim",
		"flatpak install -y org.gimp.GIMP",
		"sudo snap install spotify",
	}, plan.InstallationCommands)

	for _, cmd := range plan.InstallationCommands {
		assert.NotContains(t, cmd, "foo")
		assert.NotContains(t, cmd, "Obsidian")
	}
	assert.Equal(t, "4 available, 1 upgradable, 2 unavailable", plan.Summary())
}

func TestPlanInstallationQueryFailure(t *testing.T) {
	dnf := managertest.New("dnf")
	dnf.QueryErr = errors.New("dnf: exit status 1: Cannot download repomd.xml")

	pacman := managertest.New("pacman")
	pacman.Offered = map[string]string{"htop": "3.3.0-1", "tmux": ""}

	plan := PlanInstallation(context.Background(), []snapshot.Package{
		{Name: "htop", Version: "3.2.2-1", Source: "pacman", ManuallyInstalled: true},
		{Name: "tmux", Version: "3.4-1", Source: "pacman", ManuallyInstalled: true},
		{Name: "vim", Version: "9.0", Source: "dnf", ManuallyInstalled: true},
	}, []manager.Backend{dnf, pacman}, Options{})

	require.Len(t, plan.Unavailable, 1)
	assert.Equal(t, ReasonQueryFailed, plan.Unavailable[0].Reason)
	assert.Equal(t, []string{"tmux"}, names(plan.Available))
	assert.Equal(t, []string{"htop"}, names(plan.Upgradable))
	assert.Equal(t, []string{"sudo pacman -S --needed tmux htop"}, plan.InstallationCommands)
}

func TestPlanInstallationExactPolicy(t *testing.T) {
	_, backends := liveBackends()

	plan := PlanInstallation(context.Background(), backupPackages(), backends, Options{VersionPolicy: Exact})

	require.NotEmpty(t, plan.InstallationCommands)
	assert.Equal(t, "sudo apt install -y git=2.40 vim", plan.InstallationCommands[0])
}

func TestPackageSpecsMatchCommands(t *testing.T) {
	_, backends := liveBackends()

	exact := PlanInstallation(context.Background(), backupPackages(), backends, Options{VersionPolicy: Exact})
	specs := exact.PackageSpecs(Exact)
	assert.Equal(t, []string{"git=2.40", "vim"}, specs["apt"])
	assert.Equal(t, []string{"spotify"}, specs["snap"])
	assert.Equal(t, "sudo apt install -y "+strings.Join(specs["apt"], " "), exact.InstallationCommands[0])

	newer := PlanInstallation(context.Background(), backupPackages(), backends, Options{})
	assert.Equal(t, []string{"git", "vim"}, newer.PackageSpecs(PreferNewer)["apt"])
}

func TestPlanInstallationEmpty(t *testing.T) {
	plan := PlanInstallation(context.Background(), nil, nil, Options{})

	assert.True(t, plan.IsEmpty())
	assert.NotNil(t, plan.Available)
	assert.NotNil(t, plan.InstallationCommands)
}

func TestPlanInstallationFromFile(t *testing.T) {
	_, backends := liveBackends()
	dir := t.TempDir()

	plan := PlanInstallationFromFile(context.Background(), filepath.Join(dir, "missing.json"), backends, Options{})
	assert.True(t, plan.IsEmpty())
	assert.Empty(t, plan.InstallationCommands)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"packages": []}`), 0644))
	assert.True(t, PlanInstallationFromFile(context.Background(), broken, backends, Options{}).IsEmpty())

	snap := snapshot.New(snapshot.SystemInfo{DistroID: "ubuntu"})
	for _, p := range backupPackages() {
		snap.AddPackage(p)
	}
	path := filepath.Join(dir, "system_state.json")
	require.NoError(t, snapshot.NewStateFile(path).Save(snap))

	plan = PlanInstallationFromFile(context.Background(), path, backends, Options{})
	assert.Len(t, plan.Installable(), 5)
	assert.True(t, strings.HasPrefix(plan.InstallationCommands[0], "sudo apt install -y"))
}
