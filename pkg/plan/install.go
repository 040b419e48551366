// Package plan turns a backup snapshot into advice for the current machine:
// which packages can be installed, with what commands, and which config files
// need restoring.
package plan

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"migrator/internal/logging"
	"migrator/pkg/manager"
	"migrator/pkg/snapshot"
)

// VersionPolicy decides how recorded versions shape install commands.
type VersionPolicy string

// Version policies.
const (
	// PreferNewer installs by name and reports newer repository versions as upgradable.
	PreferNewer VersionPolicy = "prefer-newer"

	// Exact pins apt packages to the version recorded in the backup when it is still offered.
	Exact VersionPolicy = "exact"
)

// Reasons a package could not be planned.
const (
	ReasonNoBackend    = "no backend for source"
	ReasonNotAvailable = "not available"
	ReasonQueryFailed  = "query failed"
)

// PlannedPackage is a backup package together with what the target system offers.
type PlannedPackage struct {
	snapshot.Package
	LatestVersion string   `json:"latest_version,omitempty" yaml:"latest_version,omitempty"`
	Reason        string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Alternatives  []string `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
}

// InstallPlan classifies backup packages against the live backends.
type InstallPlan struct {
	Available            []PlannedPackage `json:"available" yaml:"available"`
	Upgradable           []PlannedPackage `json:"upgradable" yaml:"upgradable"`
	Unavailable          []PlannedPackage `json:"unavailable" yaml:"unavailable"`
	InstallationCommands []string         `json:"installation_commands" yaml:"installation_commands"`
}

// Options controls installation planning.
type Options struct {
	VersionPolicy VersionPolicy

	// Mappings, when set, fills Alternatives of unavailable packages with
	// the names the package has in the backends present here.
	Mappings *Mappings
}

// NewInstallPlan returns an empty plan with non-nil lists.
func NewInstallPlan() *InstallPlan {
	return &InstallPlan{
		Available:            []PlannedPackage{},
		Upgradable:           []PlannedPackage{},
		Unavailable:          []PlannedPackage{},
		InstallationCommands: []string{},
	}
}

// IsEmpty returns true if the plan has nothing to report.
func (p *InstallPlan) IsEmpty() bool {
	return len(p.Available) == 0 && len(p.Upgradable) == 0 && len(p.Unavailable) == 0
}

// Installable returns the available and upgradable packages.
func (p *InstallPlan) Installable() []PlannedPackage {
	out := make([]PlannedPackage, 0, len(p.Available)+len(p.Upgradable))
	out = append(out, p.Available...)
	return append(out, p.Upgradable...)
}

// Summary returns a one-line description of the plan.
func (p *InstallPlan) Summary() string {
	return fmt.Sprintf("%d available, %d upgradable, %d unavailable",
		len(p.Available), len(p.Upgradable), len(p.Unavailable))
}

// PlanInstallation classifies the manually installed packages of a backup.
// The backend is chosen by the package's source. A backend that is missing,
// does not offer the package, or fails to answer makes the package unavailable;
// one failure never aborts the plan.
func PlanInstallation(ctx context.Context, pkgs []snapshot.Package, backends []manager.Backend, opts Options) *InstallPlan {
	logger := logging.GetLogger("plan")
	done := logging.LogOperationStart(logger, "plan-installation")
	defer done()

	if opts.VersionPolicy == "" {
		opts.VersionPolicy = PreferNewer
	}

	byName := make(map[string]manager.Backend, len(backends))
	for _, b := range backends {
		byName[b.Name()] = b
	}

	plan := NewInstallPlan()
	for _, pkg := range pkgs {
		if !pkg.ManuallyInstalled {
			continue
		}
		if ctx.Err() != nil {
			plan.Unavailable = append(plan.Unavailable, PlannedPackage{Package: pkg, Reason: ReasonQueryFailed})
			continue
		}

		backend, ok := byName[pkg.Source]
		if !ok {
			plan.Unavailable = append(plan.Unavailable, PlannedPackage{Package: pkg, Reason: ReasonNoBackend})
			continue
		}

		available, err := backend.IsPackageAvailable(ctx, pkg.Name)
		if err != nil {
			logger.Warn().Err(err).Str("package", pkg.Name).Str("backend", pkg.Source).Msg("Availability query failed")
			plan.Unavailable = append(plan.Unavailable, PlannedPackage{Package: pkg, Reason: ReasonQueryFailed})
			continue
		}
		if !available {
			plan.Unavailable = append(plan.Unavailable, PlannedPackage{Package: pkg, Reason: ReasonNotAvailable})
			continue
		}

		latest, err := backend.LatestVersion(ctx, pkg.Name)
		if err != nil {
			logger.Debug().Err(err).Str("package", pkg.Name).Msg("No latest version, treating as available")
			latest = ""
		}

		if latest != "" && latest != pkg.Version {
			plan.Upgradable = append(plan.Upgradable, PlannedPackage{Package: pkg, LatestVersion: latest})
		} else {
			plan.Available = append(plan.Available, PlannedPackage{Package: pkg, LatestVersion: latest})
		}
	}

	if opts.Mappings != nil {
		present := make(map[string]bool, len(byName))
		for name := range byName {
			present[name] = true
		}
		for i := range plan.Unavailable {
			p := &plan.Unavailable[i]
			if p.Reason == ReasonQueryFailed {
				continue
			}
			p.Alternatives = opts.Mappings.alternatives(p.Source, p.Name, present)
		}
	}

	plan.InstallationCommands = installCommands(plan, opts.VersionPolicy)

	logger.Info().
		Int("available", len(plan.Available)).
		Int("upgradable", len(plan.Upgradable)).
		Int("unavailable", len(plan.Unavailable)).
		Msg("Installation plan ready")

	return plan
}

// PlanInstallationFromFile plans from a backup file. A missing, unreadable or
// malformed file is logged and yields an empty plan.
func PlanInstallationFromFile(ctx context.Context, path string, backends []manager.Backend, opts Options) *InstallPlan {
	snap, err := snapshot.Load(path)
	if err != nil {
		logger := logging.GetLogger("plan")
		logger.Error().Err(err).Str("path", path).Msg("Cannot read backup")
		return NewInstallPlan()
	}
	return PlanInstallation(ctx, snap.Packages, backends, opts)
}

// installCommands pools the installable packages per backend and renders one
// command per backend, or one per package where the tool has no batch form.
// Backends without a known command are skipped.
func installCommands(plan *InstallPlan, policy VersionPolicy) []string {
	pooled := plan.PackageSpecs(policy)
	commands := []string{}
	for _, src := range sortedKeys(pooled) {
		names := pooled[src]
		switch {
		case isAPTFamily(src):
			commands = append(commands, "sudo apt install -y "+strings.Join(names, " "))
		case src == "dnf":
			commands = append(commands, "sudo dnf install -y "+strings.Join(names, " "))
		case src == "pacman":
			commands = append(commands, "sudo pacman -S --needed "+strings.Join(names, " "))
		case src == "snap":
			for _, n := range names {
				commands = append(commands, "sudo snap install "+n)
			}
		case src == "flatpak":
			for _, n := range names {
				commands = append(commands, "flatpak install -y "+n)
			}
		}
	}
	return commands
}

// PackageSpecs returns the installable packages as arguments for their
// backend, keyed by source. Under Exact, available apt packages are pinned as
// name=version; everything else installs by name.
func (p *InstallPlan) PackageSpecs(policy VersionPolicy) map[string][]string {
	pooled := make(map[string][]string)
	for _, pkg := range p.Available {
		name := pkg.Name
		if policy == Exact && isAPTFamily(pkg.Source) && pkg.Version != "" {
			name = pkg.Name + "=" + pkg.Version
		}
		pooled[pkg.Source] = append(pooled[pkg.Source], name)
	}
	for _, pkg := range p.Upgradable {
		pooled[pkg.Source] = append(pooled[pkg.Source], pkg.Name)
	}
	return pooled
}

// sortedKeys returns the keys of specs in sorted order.
func sortedKeys(specs map[string][]string) []string {
	keys := make([]string, 0, len(specs))
	for k := range specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isAPTFamily(source string) bool {
	return source == "apt" || source == "nala"
}
