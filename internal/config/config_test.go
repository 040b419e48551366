package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, PolicyPreferNewer, cfg.Plan.VersionPolicy)
	assert.True(t, cfg.Output.Color)
	assert.Equal(t, "table", cfg.Output.Format)
	assert.False(t, cfg.General.DryRun)
	assert.True(t, cfg.General.IncludeDesktop)
	assert.NotEmpty(t, cfg.Tracking.SystemPaths)
	assert.Equal(t, "/etc/fstab", cfg.Fstab.Path)
}

func TestGetManagerConfig(t *testing.T) {
	cfg := &Config{
		Managers: map[string]ManagerConfig{
			"flatpak": {DefaultRemote: "flathub"},
			"apt":     {UseNala: true},
		},
	}

	assert.True(t, cfg.GetManagerConfig("apt").UseNala)
	assert.Equal(t, "flathub", cfg.GetManagerConfig("flatpak").DefaultRemote)

	// Unknown managers get the zero config.
	assert.Equal(t, ManagerConfig{}, cfg.GetManagerConfig("dnf"))
}

func TestShouldUseColor(t *testing.T) {
	cfg := &Config{Output: OutputConfig{Color: true}}

	t.Setenv("NO_COLOR", "")
	assert.True(t, cfg.ShouldUseColor())

	t.Setenv("NO_COLOR", "1")
	assert.False(t, cfg.ShouldUseColor(), "NO_COLOR disables color")

	t.Setenv("NO_COLOR", "")
	cfg.Output.Color = false
	assert.False(t, cfg.ShouldUseColor())
}

func TestLoadSaveConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Plan.VersionPolicy = PolicyExact
	cfg.Plan.MappingsFile = "~/.config/migrator/mappings.yaml"
	cfg.Managers["snap"] = ManagerConfig{AllowClassic: true}
	require.NoError(t, cfg.SaveTo(configPath))

	loaded, err := LoadFrom(configPath)
	require.NoError(t, err)
	assert.Equal(t, PolicyExact, loaded.Plan.VersionPolicy)
	assert.Equal(t, "~/.config/migrator/mappings.yaml", loaded.Plan.MappingsFile)
	assert.True(t, loaded.GetManagerConfig("snap").AllowClassic)
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[output]\nformat = \"yaml\"\n"), 0644))

	cfg, err := LoadFrom(configPath)
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, "/etc/fstab", cfg.Fstab.Path)
}

func TestLoadInvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[general\nbroken"), 0644))

	_, err := LoadFrom(configPath)
	assert.Error(t, err)
}

func TestLoadNonExistentConfig(t *testing.T) {
	cfg, err := LoadFrom("/non/existent/path/config.toml")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.True(t, cfg.Output.Color)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~/.bashrc", filepath.Join(home, ".bashrc")},
		{"~", home},
		{"/etc/hosts", "/etc/hosts"},
		{"~user/file", "~user/file"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandHome(tt.in))
		})
	}
}
