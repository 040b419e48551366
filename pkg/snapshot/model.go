// Package snapshot captures the installed software and tracked configuration
// files of a machine, persists them, and reconciles two captures.
package snapshot

import (
	"fmt"
	"sort"
	"time"

	"migrator/pkg/manager"
)

// Package is an installed package. Its identity is Key(): name plus source.
type Package = manager.Package

// ConfigFile is a tracked configuration file. Its identity is the absolute path.
type ConfigFile struct {
	Path           string     `json:"path" yaml:"path"`
	Description    string     `json:"description" yaml:"description"`
	Category       string     `json:"category" yaml:"category"`
	IsSystemConfig bool       `json:"is_system_config" yaml:"is_system_config"`
	Checksum       string     `json:"checksum" yaml:"checksum"`
	LastChecked    *time.Time `json:"last_checked" yaml:"last_checked"`
}

// Refresh records a newly computed checksum and reports whether it changed.
func (c *ConfigFile) Refresh(checksum string, now time.Time) bool {
	changed := c.Checksum != checksum
	c.Checksum = checksum
	c.LastChecked = &now
	return changed
}

// SystemInfo identifies the distribution a snapshot was taken on.
type SystemInfo struct {
	DistroName    string    `json:"distro_name" yaml:"distro_name"`
	DistroVersion string    `json:"distro_version" yaml:"distro_version"`
	DistroID      string    `json:"distro_id" yaml:"distro_id"`
	LastUpdated   time.Time `json:"last_updated" yaml:"last_updated"`
}

// BackupInfo describes the machine a backup was exported from.
type BackupInfo struct {
	Hostname      string    `json:"hostname" yaml:"hostname"`
	DistroName    string    `json:"distro_name" yaml:"distro_name"`
	DistroVersion string    `json:"distro_version" yaml:"distro_version"`
	DistroID      string    `json:"distro_id" yaml:"distro_id"`
	Created       time.Time `json:"created" yaml:"created"`
}

// Snapshot is a point-in-time record of packages and configuration files.
// Package keys and config paths are unique; later additions replace earlier ones.
type Snapshot struct {
	SystemInfo  SystemInfo   `json:"system_info" yaml:"system_info"`
	Packages    []Package    `json:"packages" yaml:"packages"`
	ConfigFiles []ConfigFile `json:"config_files" yaml:"config_files"`
	Backup      *BackupInfo  `json:"backup_metadata,omitempty" yaml:"backup_metadata,omitempty"`

	pkgIndex map[string]int
	cfgIndex map[string]int
}

// New creates an empty snapshot for the given system.
func New(info SystemInfo) *Snapshot {
	return &Snapshot{
		SystemInfo:  info,
		Packages:    []Package{},
		ConfigFiles: []ConfigFile{},
	}
}

// AddPackage inserts a package, replacing any package with the same key in place.
func (s *Snapshot) AddPackage(p Package) {
	s.ensureIndex()
	if i, ok := s.pkgIndex[p.Key()]; ok {
		s.Packages[i] = p
		return
	}
	s.pkgIndex[p.Key()] = len(s.Packages)
	s.Packages = append(s.Packages, p)
}

// AddConfig inserts a config file, replacing any entry with the same path in place.
func (s *Snapshot) AddConfig(c ConfigFile) {
	s.ensureIndex()
	if i, ok := s.cfgIndex[c.Path]; ok {
		s.ConfigFiles[i] = c
		return
	}
	s.cfgIndex[c.Path] = len(s.ConfigFiles)
	s.ConfigFiles = append(s.ConfigFiles, c)
}

// Normalize re-applies last-write-wins to data that did not go through Add*,
// such as a snapshot decoded from disk.
func (s *Snapshot) Normalize() {
	pkgs, cfgs := s.Packages, s.ConfigFiles
	s.Packages = make([]Package, 0, len(pkgs))
	s.ConfigFiles = make([]ConfigFile, 0, len(cfgs))
	s.pkgIndex = nil
	s.cfgIndex = nil
	for _, p := range pkgs {
		s.AddPackage(p)
	}
	for _, c := range cfgs {
		s.AddConfig(c)
	}
}

// FindPackage returns the package with the given name and source.
func (s *Snapshot) FindPackage(name, source string) (Package, bool) {
	s.ensureIndex()
	i, ok := s.pkgIndex[Package{Name: name, Source: source}.Key()]
	if !ok {
		return Package{}, false
	}
	return s.Packages[i], true
}

// FindConfig returns the config file tracked at path.
func (s *Snapshot) FindConfig(path string) (ConfigFile, bool) {
	s.ensureIndex()
	i, ok := s.cfgIndex[path]
	if !ok {
		return ConfigFile{}, false
	}
	return s.ConfigFiles[i], true
}

// PackagesBySource returns packages grouped by their source backend.
func (s *Snapshot) PackagesBySource() map[string][]Package {
	result := make(map[string][]Package)
	for _, pkg := range s.Packages {
		result[pkg.Source] = append(result[pkg.Source], pkg)
	}
	return result
}

// Sources returns the distinct package sources, sorted.
func (s *Snapshot) Sources() []string {
	var sources []string
	for src := range s.PackagesBySource() {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	return sources
}

// ManualCount returns the number of manually installed packages.
func (s *Snapshot) ManualCount() int {
	n := 0
	for _, p := range s.Packages {
		if p.ManuallyInstalled {
			n++
		}
	}
	return n
}

// FormatTime returns a human-readable last-updated timestamp.
func (s *Snapshot) FormatTime() string {
	return s.SystemInfo.LastUpdated.Local().Format("2006-01-02 15:04:05")
}

// Summary returns a brief description of the snapshot.
func (s *Snapshot) Summary() string {
	return fmt.Sprintf("%s %s (%d packages, %d config files)",
		s.SystemInfo.DistroName, s.SystemInfo.DistroVersion, len(s.Packages), len(s.ConfigFiles))
}

func (s *Snapshot) ensureIndex() {
	if s.pkgIndex != nil && s.cfgIndex != nil &&
		len(s.pkgIndex) == len(s.Packages) && len(s.cfgIndex) == len(s.ConfigFiles) {
		return
	}
	s.pkgIndex = make(map[string]int, len(s.Packages))
	for i, p := range s.Packages {
		s.pkgIndex[p.Key()] = i
	}
	s.cfgIndex = make(map[string]int, len(s.ConfigFiles))
	for i, c := range s.ConfigFiles {
		s.cfgIndex[c.Path] = i
	}
}
