package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"migrator/internal/executor/executortest"
	"migrator/pkg/manager/detector"
)

func TestParseDebLine(t *testing.T) {
	tests := []struct {
		line     string
		ok       bool
		repoType string
		name     string
	}{
		{"deb http://archive.ubuntu.com/ubuntu jammy main restricted", false, "", ""},
		{"deb http://archive.ubuntu.com/ubuntu/ jammy-updates main", false, "", ""},
		{"# deb https://download.docker.com/linux/ubuntu jammy stable", false, "", ""},
		{"deb https://download.docker.com/linux/ubuntu", false, "", ""},
		{"deb https://download.docker.com/linux/ubuntu jammy stable", true, TypeAPT, "https://download.docker.com/linux/ubuntu"},
		{"deb [arch=amd64 signed-by=/usr/share/keyrings/ms.gpg] https://packages.microsoft.com/repos/code stable main", true, TypeAPT, "https://packages.microsoft.com/repos/code"},
		{"deb-src http://ppa.launchpad.net/graphics-drivers/ppa/ubuntu jammy main", true, TypePPA, "PPA: graphics-drivers/ppa"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			repo, ok := ParseDebLine(tt.line, "ubuntu")
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.repoType, repo.RepoType)
			assert.Equal(t, tt.name, repo.Name)
			assert.Equal(t, strings.TrimSpace(tt.line), repo.URL)
			assert.Equal(t, "ubuntu", repo.DistroType)
			assert.True(t, repo.Enabled)
			assert.True(t, strings.HasPrefix(repo.RepoID, "apt:"))
		})
	}
}

func TestParseRepoFile(t *testing.T) {
	content := `# RPM Fusion
[rpmfusion-free]
name=RPM Fusion for Fedora - Free
baseurl=http://download1.rpmfusion.org/free/fedora/releases/$releasever/Everything/$basearch/os/
enabled=1

[rpmfusion-free-debuginfo]
name=RPM Fusion for Fedora - Free - Debug
metalink=https://mirrors.rpmfusion.org/metalink?repo=free-fedora-debug
enabled=0

[code]
name=Visual Studio Code
baseurl=https://packages.microsoft.com/yumrepos/vscode
enabled=0
`
	repos := ParseRepoFile(strings.NewReader(content), "fedora")

	require.Len(t, repos, 2)
	assert.Equal(t, "dnf:rpmfusion-free", repos[0].RepoID)
	assert.Equal(t, "RPM Fusion for Fedora - Free", repos[0].Name)
	assert.True(t, repos[0].Enabled)
	assert.Equal(t, "dnf:code", repos[1].RepoID)
	assert.False(t, repos[1].Enabled)
	assert.Equal(t, TypeDNF, repos[1].RepoType)
}

func TestScanDebian(t *testing.T) {
	dir := t.TempDir()
	sources := filepath.Join(dir, "sources.list")
	require.NoError(t, os.WriteFile(sources, []byte("deb http://archive.ubuntu.com/ubuntu jammy main\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sources.list.d"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sources.list.d", "docker.list"),
		[]byte("deb https://download.docker.com/linux/ubuntu jammy stable\ndeb https://download.docker.com/linux/ubuntu jammy stable\n"), 0644))

	runner := executortest.New().WithBinaries("flatpak", "snap").
		On("flatpak remotes --system --columns=name,url", "flathub\thttps://dl.flathub.org/repo/\nkdeapps\thttps://distribute.kde.org/flatpak-apps/\n").
		On("flatpak remotes --user --columns=name,url", "").
		On("snap list", "Name     Version  Rev  Tracking       Publisher  Notes\n"+
			"core22   2024     1    latest/stable  canonical  base\n"+
			"firefox  120.0    3    latest/beta    mozilla    -\n")

	s := NewScanner(runner, &detector.DistroInfo{ID: "Ubuntu"})
	s.APTSources = []string{sources, filepath.Join(dir, "sources.list.d", "*.list")}

	repos := s.Scan(context.Background())

	require.Len(t, repos, 3)
	assert.Equal(t, TypeAPT, repos[0].RepoType)
	assert.Equal(t, "ubuntu", repos[0].DistroType)
	assert.Equal(t, "flatpak:kdeapps:system", repos[1].RepoID)
	assert.Equal(t, DistroCommon, repos[1].DistroType)
	assert.Equal(t, "snap:firefox:latest/beta", repos[2].RepoID)
	assert.Equal(t, "snap:latest/beta", repos[2].URL)
}

func TestScanRedHat(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "code.repo"),
		[]byte("[code]\nname=VS Code\nbaseurl=https://packages.microsoft.com/yumrepos/vscode\nenabled=1\n"), 0644))

	runner := executortest.New().WithBinaries("dnf").
		On("dnf repolist --enabled -q", "repo id        repo name\ncode           VS Code\nfedora         Fedora 39\n")

	s := NewScanner(runner, &detector.DistroInfo{ID: "fedora"})
	s.YumRepos = []string{filepath.Join(dir, "*.repo")}

	repos := s.Scan(context.Background())

	require.Len(t, repos, 2)
	assert.Equal(t, "dnf:code", repos[0].RepoID)
	assert.Equal(t, "https://packages.microsoft.com/yumrepos/vscode", repos[0].URL)
	assert.Equal(t, "dnf:fedora", repos[1].RepoID)
	assert.Equal(t, "repo:fedora", repos[1].URL)
}

func TestScanArch(t *testing.T) {
	conf := filepath.Join(t.TempDir(), "pacman.conf")
	require.NoError(t, os.WriteFile(conf, []byte(`[options]
HoldPkg = pacman glibc

[core]
Include = /etc/pacman.d/mirrorlist

[archlinuxcn]
Server = https://repo.archlinuxcn.org/$arch
`), 0644))

	s := NewScanner(executortest.New(), &detector.DistroInfo{ID: "endeavouros"})
	s.PacmanConf = conf

	repos := s.Scan(context.Background())
	require.Len(t, repos, 1)
	assert.Equal(t, Repository{
		RepoID:     "pacman:archlinuxcn",
		Name:       "archlinuxcn",
		Enabled:    true,
		URL:        "https://repo.archlinuxcn.org/$arch",
		DistroType: "endeavouros",
		RepoType:   TypePacman,
	}, repos[0])
}

func TestScanUnknownDistro(t *testing.T) {
	runner := executortest.New()
	repos := NewScanner(runner, &detector.DistroInfo{ID: "nixos"}).Scan(context.Background())
	assert.Empty(t, repos)
	assert.Empty(t, runner.Calls())
}
