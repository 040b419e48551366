package manager

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds every known backend and hands out the ones available on this host.
type Registry struct {
	backends map[string]Backend
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Backend),
	}
}

// Register adds a backend to the registry. A later backend with the same name replaces the earlier one.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Name()] = b
}

// Get returns a specific backend by name.
func (r *Registry) Get(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	return b, ok
}

// Available returns the backends that report themselves usable, sorted by name.
func (r *Registry) Available() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var available []Backend
	for _, b := range r.backends {
		if b.IsAvailable() {
			available = append(available, b)
		}
	}

	sortByName(available)
	return available
}

// All returns all registered backends (including unavailable ones), sorted by name.
func (r *Registry) All() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Backend, 0, len(r.backends))
	for _, b := range r.backends {
		all = append(all, b)
	}

	sortByName(all)
	return all
}

// GetAvailable returns the named backend if it is registered and usable.
func (r *Registry) GetAvailable(name string) (Backend, error) {
	b, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown package source: %s", name)
	}
	if !b.IsAvailable() {
		return nil, fmt.Errorf("package manager '%s' is not available on this system", name)
	}
	return b, nil
}

// Index maps backends by name for source lookups.
func Index(backends []Backend) map[string]Backend {
	idx := make(map[string]Backend, len(backends))
	for _, b := range backends {
		idx[b.Name()] = b
	}
	return idx
}

func sortByName(backends []Backend) {
	sort.Slice(backends, func(i, j int) bool {
		return backends[i].Name() < backends[j].Name()
	})
}
