// Package detector identifies the running Linux distribution and its compatibility family.
package detector

import (
	"bufio"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
)

// OSReleasePath is the file consulted first when detecting the distribution.
const OSReleasePath = "/etc/os-release"

// DistroInfo describes a Linux distribution.
type DistroInfo struct {
	ID         string   `json:"id" yaml:"id"`                                       // Distribution ID (e.g., "ubuntu", "arch")
	Name       string   `json:"name" yaml:"name"`                                   // Distribution name (e.g., "Ubuntu")
	Version    string   `json:"version" yaml:"version"`                             // Version number (e.g., "22.04", "39")
	IDLike     []string `json:"id_like,omitempty" yaml:"id_like,omitempty"`         // Related distributions
	PrettyName string   `json:"pretty_name,omitempty" yaml:"pretty_name,omitempty"` // Human-readable name
}

// Detect detects the Linux distribution of the running host.
func Detect() (*DistroInfo, error) {
	info, err := DetectFrom(OSReleasePath)
	if err == nil {
		return info, nil
	}

	info = &DistroInfo{}

	// Fall back to lsb_release command
	if err := parseLSBRelease(info); err == nil && info.ID != "" {
		return info, nil
	}

	// Fall back to checking specific release files
	if err := parseReleaseFiles(info); err == nil {
		return info, nil
	}

	info.ID = "unknown"
	info.Name = "Unknown Linux"
	return info, nil
}

// DetectFrom reads distribution information from an os-release formatted file.
func DetectFrom(path string) (*DistroInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := ParseOSRelease(file)
	if err != nil {
		return nil, err
	}
	if info.ID == "" {
		return nil, errors.New("os-release has no ID field")
	}
	return info, nil
}

// ParseOSRelease parses os-release KEY=value content.
func ParseOSRelease(r io.Reader) (*DistroInfo, error) {
	info := &DistroInfo{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), "\"'")

		switch key {
		case "ID":
			info.ID = strings.ToLower(value)
		case "ID_LIKE":
			info.IDLike = strings.Fields(strings.ToLower(value))
		case "VERSION_ID":
			info.Version = value
		case "PRETTY_NAME":
			info.PrettyName = value
		case "NAME":
			info.Name = value
		}
	}

	return info, scanner.Err()
}

// parseLSBRelease uses the lsb_release command as a fallback.
func parseLSBRelease(info *DistroInfo) error {
	output, err := exec.Command("lsb_release", "-a").Output()
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "Distributor ID":
			info.ID = strings.ToLower(value)
			info.Name = value
		case "Release":
			info.Version = value
		case "Description":
			info.PrettyName = value
		}
	}

	return nil
}

// parseReleaseFiles checks distribution-specific release files.
func parseReleaseFiles(info *DistroInfo) error {
	releaseFiles := []struct {
		path   string
		distro string
	}{
		{"/etc/arch-release", "arch"},
		{"/etc/debian_version", "debian"},
		{"/etc/fedora-release", "fedora"},
		{"/etc/centos-release", "centos"},
		{"/etc/redhat-release", "rhel"},
		{"/etc/SuSE-release", "opensuse"},
	}

	for _, rf := range releaseFiles {
		if _, err := os.Stat(rf.path); err == nil {
			info.ID = rf.distro
			info.Name = DisplayName(rf.distro)
			return nil
		}
	}

	return os.ErrNotExist
}

// MatchesDistro checks if the distribution matches any of the given identifiers,
// either directly or through its ID_LIKE list.
func (d *DistroInfo) MatchesDistro(distros ...string) bool {
	for _, want := range distros {
		if d.ID == want {
			return true
		}
		for _, like := range d.IDLike {
			if like == want {
				return true
			}
		}
	}
	return false
}

// Family returns the compatibility family of the distribution.
func (d *DistroInfo) Family() Family {
	return FamilyOfWithLike(d.ID, d.IDLike)
}

// DisplayName returns the distribution name, falling back to a title-cased ID.
func (d *DistroInfo) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return DisplayName(d.ID)
}

// IsUbuntuDerivative reports whether the distribution, or a distribution it
// declares itself like, can consume Ubuntu PPAs.
func (d *DistroInfo) IsUbuntuDerivative() bool {
	if IsUbuntuDerivative(d.ID) {
		return true
	}
	for _, like := range d.IDLike {
		if IsUbuntuDerivative(like) {
			return true
		}
	}
	return false
}
