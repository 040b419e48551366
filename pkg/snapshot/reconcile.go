package snapshot

import (
	"fmt"
	"sort"
	"strings"
)

// Config change statuses.
const (
	StatusChanged  = "changed"
	StatusRemoved  = "removed"
	StatusModified = "modified"
)

// ConfigChange is a config file tagged with how it differs between two snapshots.
type ConfigChange struct {
	ConfigFile
	Status string `json:"status" yaml:"status"`
}

// String returns a human-readable description of the change.
func (c ConfigChange) String() string {
	switch c.Status {
	case StatusRemoved:
		return fmt.Sprintf("- %s [%s]", c.Path, c.Category)
	default:
		return fmt.Sprintf("~ %s [%s]", c.Path, c.Category)
	}
}

// Reconciliation is the set difference between an old and a current snapshot.
// ChangedConfigs holds both checksum changes and removed configs, distinguished by Status.
type Reconciliation struct {
	AddedPackages   []Package      `json:"added_packages" yaml:"added_packages"`
	RemovedPackages []Package      `json:"removed_packages" yaml:"removed_packages"`
	ChangedConfigs  []ConfigChange `json:"changed_configs" yaml:"changed_configs"`
	AddedConfigs    []ConfigFile   `json:"added_configs" yaml:"added_configs"`
}

// IsEmpty returns true if there are no differences.
func (r *Reconciliation) IsEmpty() bool {
	return len(r.AddedPackages) == 0 &&
		len(r.RemovedPackages) == 0 &&
		len(r.ChangedConfigs) == 0 &&
		len(r.AddedConfigs) == 0
}

// PackageChangeCount returns the number of added plus removed packages.
func (r *Reconciliation) PackageChangeCount() int {
	return len(r.AddedPackages) + len(r.RemovedPackages)
}

// Summary returns a brief summary of the reconciliation.
func (r *Reconciliation) Summary() string {
	if r.IsEmpty() {
		return "No changes"
	}

	var parts []string
	if n := len(r.AddedPackages); n > 0 {
		parts = append(parts, fmt.Sprintf("+%d added", n))
	}
	if n := len(r.RemovedPackages); n > 0 {
		parts = append(parts, fmt.Sprintf("-%d removed", n))
	}
	if n := len(r.ChangedConfigs); n > 0 {
		parts = append(parts, fmt.Sprintf("~%d configs changed", n))
	}
	if n := len(r.AddedConfigs); n > 0 {
		parts = append(parts, fmt.Sprintf("+%d configs tracked", n))
	}
	return strings.Join(parts, ", ")
}

// Reconcile computes the difference between an old (stored or backup) snapshot
// and the current one. Identity is name+source for packages and path for configs;
// comparison is exact.
func Reconcile(old, current *Snapshot) *Reconciliation {
	return ReconcileLists(old.Packages, current.Packages, old.ConfigFiles, current.ConfigFiles)
}

// ReconcileLists is Reconcile over bare collections.
func ReconcileLists(oldPkgs, curPkgs []Package, oldCfgs, curCfgs []ConfigFile) *Reconciliation {
	r := &Reconciliation{
		AddedPackages:   []Package{},
		RemovedPackages: []Package{},
		ChangedConfigs:  []ConfigChange{},
		AddedConfigs:    []ConfigFile{},
	}

	// Build lookup maps; later entries win, as within a snapshot.
	oldPkgMap := make(map[string]Package, len(oldPkgs))
	for _, p := range oldPkgs {
		oldPkgMap[p.Key()] = p
	}
	curPkgMap := make(map[string]Package, len(curPkgs))
	for _, p := range curPkgs {
		curPkgMap[p.Key()] = p
	}

	for key, p := range curPkgMap {
		if _, ok := oldPkgMap[key]; !ok {
			r.AddedPackages = append(r.AddedPackages, p)
		}
	}
	for key, p := range oldPkgMap {
		if _, ok := curPkgMap[key]; !ok {
			r.RemovedPackages = append(r.RemovedPackages, p)
		}
	}

	oldCfgMap := make(map[string]ConfigFile, len(oldCfgs))
	for _, c := range oldCfgs {
		oldCfgMap[c.Path] = c
	}
	curCfgMap := make(map[string]ConfigFile, len(curCfgs))
	for _, c := range curCfgs {
		curCfgMap[c.Path] = c
	}

	for path, cur := range curCfgMap {
		prev, ok := oldCfgMap[path]
		switch {
		case !ok:
			r.AddedConfigs = append(r.AddedConfigs, cur)
		case prev.Checksum != cur.Checksum:
			r.ChangedConfigs = append(r.ChangedConfigs, ConfigChange{ConfigFile: cur, Status: StatusChanged})
		}
	}
	for path, prev := range oldCfgMap {
		if _, ok := curCfgMap[path]; !ok {
			r.ChangedConfigs = append(r.ChangedConfigs, ConfigChange{ConfigFile: prev, Status: StatusRemoved})
		}
	}

	sortPackages(r.AddedPackages)
	sortPackages(r.RemovedPackages)
	sort.Slice(r.ChangedConfigs, func(i, j int) bool {
		return r.ChangedConfigs[i].Path < r.ChangedConfigs[j].Path
	})
	sort.Slice(r.AddedConfigs, func(i, j int) bool {
		return r.AddedConfigs[i].Path < r.AddedConfigs[j].Path
	})

	return r
}

// sortPackages orders packages by source, then name.
func sortPackages(pkgs []Package) {
	sort.Slice(pkgs, func(i, j int) bool {
		if pkgs[i].Source != pkgs[j].Source {
			return pkgs[i].Source < pkgs[j].Source
		}
		return pkgs[i].Name < pkgs[j].Name
	})
}
