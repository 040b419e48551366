package native

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"migrator/internal/executor/executortest"
	"migrator/pkg/manager"
)

// TestBackendInterface verifies all native backends implement manager.Backend
func TestBackendInterface(t *testing.T) {
	runner := executortest.New()
	backends := []manager.Backend{
		NewAPT(runner, false),
		NewDNF(runner),
		NewPacman(runner),
	}

	for _, b := range backends {
		t.Run(b.Name(), func(t *testing.T) {
			assert.NotEmpty(t, b.Name())
			assert.NotEmpty(t, b.DisplayName())
			assert.Equal(t, manager.TypeNative, b.Type())
			assert.False(t, b.IsAvailable(), "binary is not on PATH")
		})
	}
}

func TestAPTNala(t *testing.T) {
	apt := NewAPT(executortest.New(), true)
	assert.Equal(t, "apt", apt.Binary(), "falls back to apt without nala")

	nala := NewAPT(executortest.New().WithBinaries("nala"), true)
	assert.Equal(t, "nala", nala.Binary())
	assert.Equal(t, "apt", nala.Name(), "nala still reports source apt")
}

func TestAPTListInstalled(t *testing.T) {
	infoDir := t.TempDir()
	listFile := filepath.Join(infoDir, "vim.list")
	require.NoError(t, os.WriteFile(listFile, nil, 0644))
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(listFile, stamp, stamp))

	runner := executortest.New().
		On("dpkg-query -W -f=${Package}\\t${Version}\\t${Status}\\t${binary:Summary}\\n",
			"vim\t2:9.0.1378-2\tinstall ok installed\tVi IMproved\n"+
				"libc6\t2.36-9\tinstall ok installed\tGNU C Library\n"+
				"oldpkg\t1.0\tdeinstall ok config-files\tRemoved\n").
		On("apt-mark showmanual", "vim\n")

	apt := NewAPT(runner, false)
	apt.SetInfoDir(infoDir)

	pkgs, err := apt.ListInstalled(context.Background())
	require.NoError(t, err)
	require.Len(t, pkgs, 2)

	vim := pkgs[0]
	assert.Equal(t, "vim", vim.Name)
	assert.Equal(t, "2:9.0.1378-2", vim.Version)
	assert.Equal(t, "apt", vim.Source)
	assert.True(t, vim.ManuallyInstalled)
	assert.Equal(t, "Vi IMproved", vim.Description)
	require.NotNil(t, vim.InstallDate)
	assert.True(t, vim.InstallDate.Equal(stamp), "install date %v", vim.InstallDate)

	assert.False(t, pkgs[1].ManuallyInstalled)
	assert.Nil(t, pkgs[1].InstallDate, "libc6 has no dpkg list file")
}

func TestAPTListInstalledWithoutAptMark(t *testing.T) {
	runner := executortest.New().
		On("dpkg-query -W -f=${Package}\\t${Version}\\t${Status}\\t${binary:Summary}\\n",
			"vim\t9.0\tinstall ok installed\tVi IMproved\n")

	apt := NewAPT(runner, false)
	apt.SetInfoDir("")

	pkgs, err := apt.ListInstalled(context.Background())
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.False(t, pkgs[0].ManuallyInstalled)
}

func TestAPTQueries(t *testing.T) {
	runner := executortest.New().
		On("apt-cache show vim", "Package: vim\nVersion: 9.0\n").
		Fail("apt-cache show nosuch", errors.New("apt-cache: exit status 100: N: Unable to locate package nosuch\nE: No packages found")).
		Fail("apt-cache show broken", errors.New("apt-cache: exit status 100: E: Could not get lock /var/lib/dpkg/lock")).
		On("apt-cache policy vim", "vim:\n  Installed: 2:9.0.1378-2\n  Candidate: 2:9.1.0016-1\n  Version table:\n").
		On("apt-cache policy gone", "gone:\n  Installed: (none)\n  Candidate: (none)\n").
		On("apt-mark showmanual", "vim\ngit\n")

	apt := NewAPT(runner, false)
	ctx := context.Background()

	ok, err := apt.IsPackageAvailable(ctx, "vim")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = apt.IsPackageAvailable(ctx, "nosuch")
	assert.NoError(t, err, "not found is not a query error")
	assert.False(t, ok)

	ok, err = apt.IsPackageAvailable(ctx, "broken")
	assert.Error(t, err, "a locked database surfaces as a query error")
	assert.False(t, ok)

	v, _ := apt.LatestVersion(ctx, "vim")
	assert.Equal(t, "2:9.1.0016-1", v)
	v, _ = apt.LatestVersion(ctx, "gone")
	assert.Empty(t, v)

	ok, _ = apt.IsUserInstalled(ctx, "git")
	assert.True(t, ok)
	ok, _ = apt.IsUserInstalled(ctx, "libc6")
	assert.False(t, ok)
}

func TestAPTInstall(t *testing.T) {
	runner := executortest.New()
	apt := NewAPT(runner, false)
	ctx := context.Background()

	require.NoError(t, apt.Install(ctx, []string{"vim", "git"}, manager.InstallOpts{AutoConfirm: true}))
	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Sudo)
	assert.Equal(t, "apt install -y vim git", calls[0].Line)

	require.NoError(t, apt.Install(ctx, []string{"vim"}, manager.InstallOpts{DryRun: true}))
	assert.Len(t, runner.Calls(), 1, "dry-run install runs no command")
}

func TestDNFListInstalled(t *testing.T) {
	runner := executortest.New().
		On("rpm -qa --queryformat %{NAME}\\t%{VERSION}-%{RELEASE}\\t%{INSTALLTIME}\\t%{SUMMARY}\\n",
			"htop\t3.2.2-2.fc39\t1700000000\tInteractive process viewer\n"+
				"gpg-pubkey\tabc-def\t1700000000\tgpg key\n"+
				"glibc\t2.38-7.fc39\t1690000000\tThe GNU libc libraries\n").
		On("dnf repoquery -q --userinstalled --qf %{name}\\n", "htop\n")

	pkgs, err := NewDNF(runner).ListInstalled(context.Background())
	require.NoError(t, err)
	require.Len(t, pkgs, 2, "gpg-pubkey is skipped")

	assert.True(t, pkgs[0].ManuallyInstalled)
	assert.Equal(t, "dnf", pkgs[0].Source)
	require.NotNil(t, pkgs[0].InstallDate)
	assert.Equal(t, int64(1700000000), pkgs[0].InstallDate.Unix())
	assert.False(t, pkgs[1].ManuallyInstalled)
}

func TestDNFQueries(t *testing.T) {
	runner := executortest.New().
		On("dnf info -q htop", "Name : htop\n").
		Fail("dnf info -q nosuch", errors.New("dnf: exit status 1: Error: No matching Packages to list")).
		On("dnf repoquery -q --latest-limit=1 --qf %{version}-%{release}\\n htop", "3.3.0-1.fc39\n")

	dnf := NewDNF(runner)
	ctx := context.Background()

	ok, err := dnf.IsPackageAvailable(ctx, "htop")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = dnf.IsPackageAvailable(ctx, "nosuch")
	assert.NoError(t, err)
	assert.False(t, ok)

	v, _ := dnf.LatestVersion(ctx, "htop")
	assert.Equal(t, "3.3.0-1.fc39", v)
}

const pacmanQi = `Name            : firefox
Version         : 121.0-1
Description     : Standalone web browser from mozilla.org
Optional Deps   : networkmanager: Location detection via available WiFi networks
                  libnotify: Notification integration [installed]
Install Date    : Mon 18 Dec 2023 10:15:42 AM UTC
Install Reason  : Explicitly installed

Name            : glibc
Version         : 2.38-7
Description     : GNU C Library
Install Date    : Fri 01 Dec 2023 09:00:00 AM UTC
Install Reason  : Installed as a dependency for another package
`

func TestPacmanListInstalled(t *testing.T) {
	runner := executortest.New().On("pacman -Qi", pacmanQi)

	pkgs, err := NewPacman(runner).ListInstalled(context.Background())
	require.NoError(t, err)
	require.Len(t, pkgs, 2)

	firefox := pkgs[0]
	assert.Equal(t, "firefox", firefox.Name)
	assert.Equal(t, "121.0-1", firefox.Version)
	assert.True(t, firefox.ManuallyInstalled)
	require.NotNil(t, firefox.InstallDate)
	assert.Equal(t, 2023, firefox.InstallDate.Year())

	assert.False(t, pkgs[1].ManuallyInstalled, "glibc is a dependency")
}

func TestPacmanQueries(t *testing.T) {
	runner := executortest.New().
		On("pacman -Si firefox", "Repository      : extra\nName            : firefox\nVersion         : 122.0-1\n").
		Fail("pacman -Si nosuch", errors.New("pacman: exit status 1: error: package 'nosuch' was not found")).
		On("pacman -Qeq firefox", "firefox\n").
		Fail("pacman -Qeq glibc", errors.New("pacman: exit status 1"))

	pacman := NewPacman(runner)
	ctx := context.Background()

	ok, err := pacman.IsPackageAvailable(ctx, "nosuch")
	assert.NoError(t, err)
	assert.False(t, ok)

	v, _ := pacman.LatestVersion(ctx, "firefox")
	assert.Equal(t, "122.0-1", v)

	ok, _ = pacman.IsUserInstalled(ctx, "firefox")
	assert.True(t, ok)
	ok, _ = pacman.IsUserInstalled(ctx, "glibc")
	assert.False(t, ok)
}

func TestPacmanInstall(t *testing.T) {
	runner := executortest.New()
	err := NewPacman(runner).Install(context.Background(), []string{"firefox"}, manager.InstallOpts{AutoConfirm: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"pacman -S --needed --noconfirm firefox"}, runner.Lines())
}
