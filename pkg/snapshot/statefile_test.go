package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateFileSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "system_state.json")
	sf := NewStateFile(path)

	snap := sampleSnapshot()
	snap.SystemInfo.LastUpdated = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, sf.Save(snap))

	loaded, err := sf.Load()
	require.NoError(t, err)
	assert.Equal(t, snap.SystemInfo, loaded.SystemInfo)
	assert.Equal(t, snap.Packages, loaded.Packages)
	assert.Equal(t, snap.ConfigFiles, loaded.ConfigFiles)
	assert.True(t, Reconcile(snap, loaded).IsEmpty())

	_, err = os.Stat(path + ".bak")
	assert.True(t, errors.Is(err, os.ErrNotExist), "first save has nothing to back up")
}

func TestStateFileKeepsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_state.json")
	sf := NewStateFile(path)

	first := sampleSnapshot()
	require.NoError(t, sf.Save(first))

	second := New(SystemInfo{DistroID: "fedora"})
	require.NoError(t, sf.Save(second))

	prev, err := Load(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "ubuntu", prev.SystemInfo.DistroID)

	cur, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fedora", cur.SystemInfo.DistroID)
	assert.Empty(t, cur.Packages)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrNotFound)

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("not json"), 0644))
	_, err = Load(garbage)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	partial := filepath.Join(dir, "partial.json")
	require.NoError(t, os.WriteFile(partial, []byte(`{"system_info":{},"packages":[]}`), 0644))
	_, err = Load(partial)
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.Contains(t, err.Error(), "config_files")
}

func TestValidateBackup(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"complete", `{"system_info":{},"packages":[],"config_files":[]}`, false},
		{"null lists", `{"system_info":{},"packages":null,"config_files":null}`, false},
		{"missing packages", `{"system_info":{},"config_files":[]}`, true},
		{"array", `[]`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBackup([]byte(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFormat)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodeNormalizesDuplicates(t *testing.T) {
	data := `{
		"system_info": {"distro_name": "Ubuntu", "distro_version": "22.04", "distro_id": "ubuntu"},
		"packages": [
			{"name": "vim", "version": "1", "source": "apt"},
			{"name": "vim", "version": "2", "source": "apt"}
		],
		"config_files": null
	}`

	snap, err := Decode([]byte(data))
	require.NoError(t, err)
	require.Len(t, snap.Packages, 1)
	assert.Equal(t, "2", snap.Packages[0].Version)
	assert.NotNil(t, snap.ConfigFiles)
}
