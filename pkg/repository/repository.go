// Package repository records software repository definitions and decides
// whether they can be reused on another distribution.
package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"migrator/pkg/manager/detector"
)

// Repository types.
const (
	TypeAPT      = "apt"
	TypePPA      = "ppa"
	TypeDNF      = "dnf"
	TypeYUM      = "yum"
	TypePacman   = "pacman"
	TypeFlatpak  = "flatpak"
	TypeSnap     = "snap"
	TypeAppImage = "appimage"
)

// DistroCommon marks repositories that are not tied to a distribution.
const DistroCommon = "common"

// Repository is a software repository definition. Its identity is RepoID.
type Repository struct {
	RepoID     string `json:"repo_id" yaml:"repo_id"`
	Name       string `json:"name" yaml:"name"`
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	URL        string `json:"url" yaml:"url"`
	DistroType string `json:"distro_type" yaml:"distro_type"`
	RepoType   string `json:"repo_type" yaml:"repo_type"`
}

// UnmarshalJSON decodes a repository, treating a missing "enabled" as true.
func (r *Repository) UnmarshalJSON(data []byte) error {
	type plain Repository
	p := plain{Enabled: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Repository(p)
	return nil
}

func (r Repository) repoType() string {
	return strings.ToLower(r.RepoType)
}

func (r Repository) distroType() string {
	return strings.ToLower(r.DistroType)
}

// reservedPacmanSections are pacman.conf sections that hold settings, not repositories.
var reservedPacmanSections = map[string]bool{"options": true, "custom-options": true}

// pacmanSection returns the pacman.conf section name of a pacman repository.
func (r Repository) pacmanSection() string {
	return strings.TrimPrefix(r.RepoID, "pacman:")
}

// IsReserved reports whether the repository names a pacman.conf settings
// section rather than a repository. Reserved entries are never restored.
func (r Repository) IsReserved() bool {
	return r.repoType() == TypePacman && reservedPacmanSections[r.pacmanSection()]
}

// WritesSystemFiles reports whether restoring the repository type writes files
// under /etc directly, which needs the process itself to run as root.
func WritesSystemFiles(repoType string) bool {
	switch strings.ToLower(repoType) {
	case TypeAPT, TypeDNF, TypeYUM, TypePacman:
		return true
	}
	return false
}

// IsUniversal reports whether the repository type works on any distribution.
func (r Repository) IsUniversal() bool {
	switch r.repoType() {
	case TypeFlatpak, TypeSnap, TypeAppImage:
		return true
	}
	return false
}

// IsCompatibleWith reports whether the repository can be used on the target distribution.
func (r Repository) IsCompatibleWith(target *detector.DistroInfo) bool {
	if r.IsUniversal() {
		return true
	}
	switch r.repoType() {
	case TypePPA:
		return target.IsUbuntuDerivative()
	case TypeDNF, TypeYUM:
		return target.Family() == detector.FamilyRedHat
	case TypePacman:
		return target.Family() == detector.FamilyArch
	default:
		// apt and anything unrecognized need the same distribution or the
		// same known family on both sides.
		if r.distroType() != "" && r.distroType() == strings.ToLower(target.ID) {
			return true
		}
		origin := detector.FamilyOf(r.DistroType)
		return origin != detector.FamilyUnknown && origin == target.Family()
	}
}

// CompatibilityIssue explains why the repository cannot be used on the target.
// It returns "" when the repository is compatible.
func (r Repository) CompatibilityIssue(target *detector.DistroInfo) string {
	if r.IsCompatibleWith(target) {
		return ""
	}

	name := target.DisplayName()
	switch r.repoType() {
	case TypeAPT:
		return fmt.Sprintf("APT repository from %s cannot be used with %s", r.DistroType, name)
	case TypePPA:
		return fmt.Sprintf("Ubuntu PPA cannot be used with %s", name)
	case TypeDNF, TypeYUM:
		return fmt.Sprintf("DNF repository from %s cannot be used with %s", r.DistroType, name)
	case TypePacman:
		return fmt.Sprintf("Pacman repository from %s cannot be used with %s", r.DistroType, name)
	default:
		return fmt.Sprintf("Repository from %s is not compatible with %s", r.DistroType, name)
	}
}

// CompatibilityIssue is one incompatible repository in a backup.
type CompatibilityIssue struct {
	RepoID     string `json:"repo_id" yaml:"repo_id"`
	Name       string `json:"name" yaml:"name"`
	RepoType   string `json:"repo_type" yaml:"repo_type"`
	DistroType string `json:"distro_type" yaml:"distro_type"`
	Issue      string `json:"issue" yaml:"issue"`
}

// CheckCompatibility returns an entry for every repository that cannot be used
// on the target. Compatible repositories are omitted.
func CheckCompatibility(repos []Repository, target *detector.DistroInfo) []CompatibilityIssue {
	issues := []CompatibilityIssue{}
	for _, r := range repos {
		msg := r.CompatibilityIssue(target)
		if msg == "" {
			continue
		}
		issues = append(issues, CompatibilityIssue{
			RepoID:     r.RepoID,
			Name:       r.Name,
			RepoType:   r.RepoType,
			DistroType: r.DistroType,
			Issue:      msg,
		})
	}
	return issues
}
