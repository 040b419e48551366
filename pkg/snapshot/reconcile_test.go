package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *Snapshot {
	snap := New(SystemInfo{DistroID: "ubuntu"})
	snap.AddPackage(Package{Name: "vim", Version: "9.0", Source: "apt", ManuallyInstalled: true})
	snap.AddPackage(Package{Name: "git", Version: "2.40", Source: "apt", ManuallyInstalled: true})
	snap.AddPackage(Package{Name: "spotify", Version: "1.2", Source: "snap", ManuallyInstalled: true})
	snap.AddConfig(ConfigFile{Path: "/etc/hosts", Checksum: "h1"})
	snap.AddConfig(ConfigFile{Path: "/etc/fstab", Checksum: "f1"})
	return snap
}

func TestReconcileIdentical(t *testing.T) {
	snap := sampleSnapshot()
	r := Reconcile(snap, snap)

	assert.True(t, r.IsEmpty())
	assert.Equal(t, "No changes", r.Summary())
}

func TestReconcileDetectsChanges(t *testing.T) {
	old := sampleSnapshot()

	cur := New(SystemInfo{DistroID: "ubuntu"})
	cur.AddPackage(Package{Name: "vim", Version: "9.1", Source: "apt"})
	cur.AddPackage(Package{Name: "spotify", Version: "1.2", Source: "flatpak"})
	cur.AddPackage(Package{Name: "htop", Version: "3.2", Source: "apt"})
	cur.AddConfig(ConfigFile{Path: "/etc/hosts", Checksum: "h2"})
	cur.AddConfig(ConfigFile{Path: "/etc/hostname", Checksum: "n1"})

	r := Reconcile(old, cur)

	require.Len(t, r.AddedPackages, 2)
	assert.Equal(t, "htop", r.AddedPackages[0].Name)
	assert.Equal(t, "flatpak", r.AddedPackages[1].Source)

	require.Len(t, r.RemovedPackages, 2)
	assert.Equal(t, "git", r.RemovedPackages[0].Name)
	assert.Equal(t, "snap", r.RemovedPackages[1].Source)

	require.Len(t, r.ChangedConfigs, 2)
	assert.Equal(t, "/etc/fstab", r.ChangedConfigs[0].Path)
	assert.Equal(t, StatusRemoved, r.ChangedConfigs[0].Status)
	assert.Equal(t, "/etc/hosts", r.ChangedConfigs[1].Path)
	assert.Equal(t, StatusChanged, r.ChangedConfigs[1].Status)
	assert.Equal(t, "h2", r.ChangedConfigs[1].Checksum)

	require.Len(t, r.AddedConfigs, 1)
	assert.Equal(t, "/etc/hostname", r.AddedConfigs[0].Path)

	assert.Equal(t, 4, r.PackageChangeCount())
	assert.Equal(t, "+2 added, -2 removed, ~2 configs changed, +1 configs tracked", r.Summary())
}

func TestReconcileVersionChangeIsNotADiff(t *testing.T) {
	old := New(SystemInfo{})
	old.AddPackage(Package{Name: "vim", Version: "9.0", Source: "apt"})
	cur := New(SystemInfo{})
	cur.AddPackage(Package{Name: "vim", Version: "9.1", Source: "apt"})

	assert.True(t, Reconcile(old, cur).IsEmpty())
}

func TestReconcileSymmetry(t *testing.T) {
	a := sampleSnapshot()
	b := New(SystemInfo{})
	b.AddPackage(Package{Name: "vim", Source: "apt"})
	b.AddPackage(Package{Name: "curl", Source: "apt"})
	b.AddPackage(Package{Name: "code", Source: "snap"})

	ab := Reconcile(a, b)
	ba := Reconcile(b, a)

	assert.Equal(t, ab.AddedPackages, ba.RemovedPackages)
	assert.Equal(t, ab.RemovedPackages, ba.AddedPackages)
}

func TestReconcileCaseSensitive(t *testing.T) {
	old := New(SystemInfo{})
	old.AddPackage(Package{Name: "Firefox", Source: "apt"})
	cur := New(SystemInfo{})
	cur.AddPackage(Package{Name: "firefox", Source: "apt"})

	r := Reconcile(old, cur)
	assert.Len(t, r.AddedPackages, 1)
	assert.Len(t, r.RemovedPackages, 1)
}

func TestConfigChangeString(t *testing.T) {
	c := ConfigChange{ConfigFile: ConfigFile{Path: "/etc/hosts", Category: "system"}, Status: StatusRemoved}
	assert.Equal(t, "- /etc/hosts [system]", c.String())

	c.Status = StatusChanged
	assert.Equal(t, "~ /etc/hosts [system]", c.String())
}
