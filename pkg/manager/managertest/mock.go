// Package managertest provides an in-memory manager.Backend for tests.
package managertest

import (
	"context"
	"sync"

	"migrator/pkg/manager"
)

// Backend is a scriptable manager.Backend.
type Backend struct {
	BackendName string
	Kind        manager.ManagerType
	Unavailable bool

	Installed []manager.Package
	ListErr   error

	// Offered maps package name to the latest version the repositories offer.
	// A name present with "" is available with no version information.
	Offered  map[string]string
	QueryErr error

	mu       sync.Mutex
	Installs [][]string
	Queries  []string
}

// New returns an available backend with the given name.
func New(name string) *Backend {
	return &Backend{
		BackendName: name,
		Kind:        manager.TypeNative,
		Offered:     map[string]string{},
	}
}

func (b *Backend) Name() string              { return b.BackendName }
func (b *Backend) DisplayName() string       { return b.BackendName }
func (b *Backend) Type() manager.ManagerType { return b.Kind }
func (b *Backend) IsAvailable() bool         { return !b.Unavailable }

func (b *Backend) ListInstalled(_ context.Context) ([]manager.Package, error) {
	if b.ListErr != nil {
		return nil, b.ListErr
	}
	out := make([]manager.Package, len(b.Installed))
	copy(out, b.Installed)
	return out, nil
}

func (b *Backend) IsPackageAvailable(_ context.Context, name string) (bool, error) {
	b.record(name)
	if b.QueryErr != nil {
		return false, b.QueryErr
	}
	_, ok := b.Offered[name]
	return ok, nil
}

func (b *Backend) LatestVersion(_ context.Context, name string) (string, error) {
	if b.QueryErr != nil {
		return "", b.QueryErr
	}
	return b.Offered[name], nil
}

func (b *Backend) IsUserInstalled(_ context.Context, name string) (bool, error) {
	for _, p := range b.Installed {
		if p.Name == name {
			return p.ManuallyInstalled, nil
		}
	}
	return false, nil
}

func (b *Backend) Install(_ context.Context, packages []string, _ manager.InstallOpts) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Installs = append(b.Installs, packages)
	return nil
}

// QueriedNames returns the names passed to IsPackageAvailable.
func (b *Backend) QueriedNames() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.Queries...)
}

func (b *Backend) record(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Queries = append(b.Queries, name)
}
