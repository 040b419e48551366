package plan

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"migrator/pkg/snapshot"
)

func TestPlanConfigRestoration(t *testing.T) {
	backup := []snapshot.ConfigFile{
		{Path: "/home/u/.zshrc", Checksum: "z1"},
		{Path: "/etc/hosts", Checksum: "h1"},
		{Path: "/etc/fstab", Checksum: "f1"},
		{Path: "/home/u/.config/starship.toml", Checksum: "s1"},
	}
	current := []snapshot.ConfigFile{
		{Path: "/etc/hosts", Checksum: "h1"},
		{Path: "/etc/fstab", Checksum: "f2"},
	}

	plan := PlanConfigRestoration(backup, current)

	require.Len(t, plan.Restorable, 2)
	assert.Equal(t, "/home/u/.config/starship.toml", plan.Restorable[0].Path)
	assert.Equal(t, "/home/u/.zshrc", plan.Restorable[1].Path)

	require.Len(t, plan.Problematic, 1)
	assert.Equal(t, "/etc/fstab", plan.Problematic[0].Path)
	assert.Equal(t, snapshot.StatusModified, plan.Problematic[0].Status)

	assert.Equal(t, []string{
		"mkdir -p '/home/u/.config'",
		"# Config file '/home/u/.config/starship.toml' needs to be restored manually",
		"mkdir -p '/home/u'",
		"# Config file '/home/u/.zshrc' needs to be restored manually",
	}, plan.Commands)
}

func TestPlanConfigRestorationQuotesPaths(t *testing.T) {
	backup := []snapshot.ConfigFile{{Path: "/home/u/it's here/app.conf", Checksum: "a1"}}

	plan := PlanConfigRestoration(backup, nil)

	require.NotEmpty(t, plan.Commands)
	assert.Equal(t, `mkdir -p '/home/u/it'\''s here'`, plan.Commands[0])
}

func TestPlanConfigRestorationUnchanged(t *testing.T) {
	configs := []snapshot.ConfigFile{{Path: "/etc/hosts", Checksum: "h1"}}

	plan := PlanConfigRestoration(configs, configs)
	assert.True(t, plan.IsEmpty())
	assert.Empty(t, plan.Commands)
}

func TestPlanConfigRestorationFromFile(t *testing.T) {
	plan := PlanConfigRestorationFromFile(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.True(t, plan.IsEmpty())
	assert.NotNil(t, plan.Commands)
}
