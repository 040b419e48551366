package plan

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Mapping names one piece of software across package sources.
// For example "vim" is "vim" in apt but "vim-enhanced" in dnf.
type Mapping struct {
	// Canonical is the common name for the software.
	Canonical string `json:"canonical" yaml:"canonical"`

	// Sources maps source names to package names in that source.
	Sources map[string]string `json:"sources" yaml:"sources"`
}

// Mappings indexes mappings by canonical name and by source package.
type Mappings struct {
	mu       sync.RWMutex
	mappings map[string]*Mapping
	reverse  map[string]string // "source:name" -> canonical
}

// NewMappings creates an empty mapping set.
func NewMappings() *Mappings {
	return &Mappings{
		mappings: make(map[string]*Mapping),
		reverse:  make(map[string]string),
	}
}

// DefaultMappings returns the built-in mappings.
func DefaultMappings() *Mappings {
	m := NewMappings()
	m.Add(commonMappings()...)
	return m
}

// Add adds mappings. A mapping with an existing canonical name replaces it.
func (m *Mappings) Add(mappings ...*Mapping) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mp := range mappings {
		if old, ok := m.mappings[mp.Canonical]; ok {
			for source, name := range old.Sources {
				delete(m.reverse, reverseKey(source, name))
			}
		}
		m.mappings[mp.Canonical] = mp
		for source, name := range mp.Sources {
			m.reverse[reverseKey(source, name)] = mp.Canonical
		}
	}
}

// Len returns the number of mappings.
func (m *Mappings) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.mappings)
}

// Equivalents returns the names of the package in every other source, keyed
// by source. The lookup is case-insensitive; nil means no mapping is known.
func (m *Mappings) Equivalents(source, name string) map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	canonical, ok := m.reverse[reverseKey(source, name)]
	if !ok {
		return nil
	}
	out := make(map[string]string)
	for s, n := range m.mappings[canonical].Sources {
		if s != source {
			out[s] = n
		}
	}
	return out
}

// LoadMappings reads a YAML list of mappings, each with a canonical name and
// a sources map such as {apt: vim, dnf: vim-enhanced}.
func LoadMappings(r io.Reader) ([]*Mapping, error) {
	var list []*Mapping
	if err := yaml.NewDecoder(r).Decode(&list); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse mappings: %w", err)
	}
	for i, mp := range list {
		if mp == nil || mp.Canonical == "" || len(mp.Sources) == 0 {
			return nil, fmt.Errorf("mapping %d needs a canonical name and sources", i+1)
		}
	}
	return list, nil
}

// alternatives returns the equivalents of pkg restricted to the given sources,
// rendered as sorted "source:name" strings.
func (m *Mappings) alternatives(source, name string, present map[string]bool) []string {
	var out []string
	for s, n := range m.Equivalents(source, name) {
		if present[s] {
			out = append(out, s+":"+n)
		}
	}
	sort.Strings(out)
	return out
}

func reverseKey(source, name string) string {
	return source + ":" + strings.ToLower(name)
}

// commonMappings lists software whose package names differ between sources.
func commonMappings() []*Mapping {
	return []*Mapping{
		{Canonical: "firefox", Sources: map[string]string{
			"apt": "firefox", "dnf": "firefox", "pacman": "firefox",
			"flatpak": "org.mozilla.firefox", "snap": "firefox",
		}},
		{Canonical: "chromium", Sources: map[string]string{
			"apt": "chromium-browser", "dnf": "chromium", "pacman": "chromium",
			"flatpak": "org.chromium.Chromium", "snap": "chromium",
		}},
		{Canonical: "vscode", Sources: map[string]string{
			"apt": "code", "dnf": "code", "flatpak": "com.visualstudio.code", "snap": "code",
		}},
		{Canonical: "vim", Sources: map[string]string{
			"apt": "vim", "dnf": "vim-enhanced", "pacman": "vim",
		}},
		{Canonical: "neovim", Sources: map[string]string{
			"apt": "neovim", "dnf": "neovim", "pacman": "neovim", "flatpak": "io.neovim.nvim",
		}},
		{Canonical: "telegram", Sources: map[string]string{
			"apt": "telegram-desktop", "pacman": "telegram-desktop",
			"flatpak": "org.telegram.desktop", "snap": "telegram-desktop",
		}},
		{Canonical: "vlc", Sources: map[string]string{
			"apt": "vlc", "dnf": "vlc", "pacman": "vlc",
			"flatpak": "org.videolan.VLC", "snap": "vlc",
		}},
		{Canonical: "spotify", Sources: map[string]string{
			"apt": "spotify-client", "flatpak": "com.spotify.Client", "snap": "spotify",
		}},
		{Canonical: "discord", Sources: map[string]string{
			"pacman": "discord", "flatpak": "com.discordapp.Discord", "snap": "discord",
		}},
		{Canonical: "docker", Sources: map[string]string{
			"apt": "docker.io", "dnf": "moby-engine", "pacman": "docker",
		}},
		{Canonical: "python3-dev", Sources: map[string]string{
			"apt": "python3-dev", "dnf": "python3-devel", "pacman": "python",
		}},
		{Canonical: "build-essential", Sources: map[string]string{
			"apt": "build-essential", "pacman": "base-devel",
		}},
		{Canonical: "openssh-client", Sources: map[string]string{
			"apt": "openssh-client", "dnf": "openssh-clients", "pacman": "openssh",
		}},
		{Canonical: "fd", Sources: map[string]string{
			"apt": "fd-find", "dnf": "fd-find", "pacman": "fd",
		}},
	}
}
