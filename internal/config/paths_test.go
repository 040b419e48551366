package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsUseXDG(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmpDir, "state"))
	Reload()
	t.Cleanup(Reload)

	assert.Equal(t, filepath.Join(tmpDir, "config", "migrator", "config.toml"), ConfigPath())
	assert.Equal(t, filepath.Join(tmpDir, "data", "migrator", "system_state.json"), StatePath())
	assert.Equal(t, filepath.Join(tmpDir, "data", "migrator", "history.db"), HistoryPath())
	assert.Equal(t, filepath.Join(tmpDir, "state", "migrator", "migrator.log"), LogPath())
}

func TestDataDir(t *testing.T) {
	assert.Contains(t, DataDir(), "migrator")
}

func TestEnsureDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	Reload()
	t.Cleanup(Reload)

	require.NoError(t, EnsureDataDir())

	info, err := os.Stat(DataDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
