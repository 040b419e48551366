package manager_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"migrator/pkg/manager"
	"migrator/pkg/manager/managertest"
)

func names(backends []manager.Backend) []string {
	out := make([]string, len(backends))
	for i, b := range backends {
		out[i] = b.Name()
	}
	return out
}

func TestNewRegistry(t *testing.T) {
	registry := manager.NewRegistry()
	require.NotNil(t, registry)
	assert.Empty(t, registry.All())
}

func TestRegistryRegister(t *testing.T) {
	registry := manager.NewRegistry()
	registry.Register(managertest.New("apt"))

	b, ok := registry.Get("apt")
	require.True(t, ok)
	assert.Equal(t, "apt", b.Name())

	_, ok = registry.Get("nonexistent")
	assert.False(t, ok)
}

func TestRegistryRegisterReplaces(t *testing.T) {
	registry := manager.NewRegistry()

	first := managertest.New("snap")
	second := managertest.New("snap")
	second.Kind = manager.TypeUniversal

	registry.Register(first)
	registry.Register(second)

	require.Len(t, registry.All(), 1)
	b, _ := registry.Get("snap")
	assert.Equal(t, manager.TypeUniversal, b.Type(), "the later registration wins")
}

func TestRegistryAvailable(t *testing.T) {
	registry := manager.NewRegistry()

	missing := managertest.New("dnf")
	missing.Unavailable = true

	registry.Register(managertest.New("flatpak"))
	registry.Register(missing)
	registry.Register(managertest.New("apt"))

	assert.Equal(t, []string{"apt", "flatpak"}, names(registry.Available()))
	assert.Len(t, registry.All(), 3)
}

func TestRegistryGetAvailable(t *testing.T) {
	registry := manager.NewRegistry()

	missing := managertest.New("pacman")
	missing.Unavailable = true
	registry.Register(missing)
	registry.Register(managertest.New("apt"))

	_, err := registry.GetAvailable("apt")
	assert.NoError(t, err)
	_, err = registry.GetAvailable("pacman")
	assert.Error(t, err, "unavailable backend")
	_, err = registry.GetAvailable("brew")
	assert.Error(t, err, "unknown backend")
}

func TestIndex(t *testing.T) {
	idx := manager.Index([]manager.Backend{
		managertest.New("apt"),
		managertest.New("snap"),
	})

	require.Len(t, idx, 2)
	assert.Equal(t, "snap", idx["snap"].Name())
	assert.NotContains(t, idx, "flatpak")
}
