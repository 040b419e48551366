package snapshot

import (
	"context"
	"sync"
	"time"

	"migrator/internal/logging"
	"migrator/pkg/manager"
	"migrator/pkg/manager/detector"
)

// Builder assembles a snapshot from package backends and config trackers.
type Builder struct {
	distro   *detector.DistroInfo
	backends []manager.Backend
	trackers []Tracker
	now      func() time.Time
}

// NewBuilder creates a Builder. Backends should already be filtered to the available ones.
func NewBuilder(distro *detector.DistroInfo, backends []manager.Backend, trackers []Tracker) *Builder {
	return &Builder{
		distro:   distro,
		backends: backends,
		trackers: trackers,
		now:      time.Now,
	}
}

// Build queries every backend and tracker concurrently and merges the results.
// A collaborator that fails is logged and contributes nothing; only
// cancellation of ctx fails the build.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	logger := logging.GetLogger("snapshot")
	done := logging.LogOperationStart(logger, "build")
	defer done()

	snap := New(SystemInfo{
		DistroName:    b.distro.DisplayName(),
		DistroVersion: b.distro.Version,
		DistroID:      b.distro.ID,
		LastUpdated:   b.now().UTC(),
	})

	// Each goroutine owns one slot, so results need no locking.
	var wg sync.WaitGroup
	pkgs := make([][]Package, len(b.backends))
	cfgs := make([][]ConfigFile, len(b.trackers))

	for i, backend := range b.backends {
		wg.Add(1)
		go func(i int, m manager.Backend) {
			defer wg.Done()

			list, err := m.ListInstalled(ctx)
			if err != nil {
				logger.Warn().Err(err).Str("backend", m.Name()).Msg("Failed to list installed packages")
				return
			}

			pkgs[i] = list
		}(i, backend)
	}

	for i, tracker := range b.trackers {
		wg.Add(1)
		go func(i int, t Tracker) {
			defer wg.Done()

			files, err := t.Track(ctx)
			if err != nil {
				logger.Warn().Err(err).Str("tracker", t.Name()).Msg("Failed to track config files")
				return
			}

			cfgs[i] = files
		}(i, tracker)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Merge in registration order so repeated keys resolve the same way every run.
	for _, list := range pkgs {
		for _, p := range list {
			snap.AddPackage(p)
		}
	}
	for _, files := range cfgs {
		for _, c := range files {
			snap.AddConfig(c)
		}
	}

	logger.Info().
		Int("packages", len(snap.Packages)).
		Int("configs", len(snap.ConfigFiles)).
		Msg("Snapshot built")

	return snap, nil
}
