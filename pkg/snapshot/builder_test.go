package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"migrator/pkg/manager"
	"migrator/pkg/manager/detector"
	"migrator/pkg/manager/managertest"
)

type stubTracker struct {
	name  string
	files []ConfigFile
	err   error
}

func (s stubTracker) Name() string { return s.name }

func (s stubTracker) Track(context.Context) ([]ConfigFile, error) {
	return s.files, s.err
}

func TestBuilderMergesBackendsAndTrackers(t *testing.T) {
	apt := managertest.New("apt")
	apt.Installed = []manager.Package{
		{Name: "vim", Version: "9.0", Source: "apt", ManuallyInstalled: true},
		{Name: "libc6", Version: "2.35", Source: "apt"},
	}
	snap := managertest.New("snap")
	snap.Kind = manager.TypeUniversal
	snap.Installed = []manager.Package{{Name: "spotify", Source: "snap", ManuallyInstalled: true}}

	broken := managertest.New("dnf")
	broken.ListErr = errors.New("rpm database locked")

	distro := &detector.DistroInfo{ID: "ubuntu", Name: "Ubuntu", Version: "22.04"}
	b := NewBuilder(distro, []manager.Backend{apt, broken, snap}, []Tracker{
		stubTracker{name: "system", files: []ConfigFile{{Path: "/etc/hosts", Checksum: "1"}}},
		stubTracker{name: "failing", err: errors.New("boom")},
		stubTracker{name: "user", files: []ConfigFile{{Path: "/etc/hosts", Checksum: "2"}}},
	})
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	got, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SystemInfo{DistroName: "Ubuntu", DistroVersion: "22.04", DistroID: "ubuntu", LastUpdated: fixed}, got.SystemInfo)
	require.Len(t, got.Packages, 3)
	assert.Equal(t, "vim", got.Packages[0].Name)
	assert.Equal(t, "spotify", got.Packages[2].Name)

	require.Len(t, got.ConfigFiles, 1)
	assert.Equal(t, "2", got.ConfigFiles[0].Checksum, "later trackers win")
}

func TestBuilderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuilder(&detector.DistroInfo{ID: "arch"}, []manager.Backend{managertest.New("pacman")}, nil)
	_, err := b.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
