package fstab

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"migrator/internal/logging"
)

// DefaultPath is the system mount table.
const DefaultPath = "/etc/fstab"

// appendHeader precedes entries appended to another mount table.
const appendHeader = "# Portable fstab entries added by migrator"

// Manager holds the parsed entries of one mount table.
type Manager struct {
	path     string
	entries  []Entry
	portable []Entry
}

// Load reads and parses the mount table at path.
func Load(path string) (*Manager, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	m.path = path

	logger := logging.GetLogger("fstab")
	logger.Debug().
		Str("path", path).
		Int("entries", len(m.entries)).
		Int("portable", len(m.portable)).
		Msg("Loaded mount table")
	return m, nil
}

// Parse reads a mount table. Comments and blank lines are skipped; every
// other line is kept, including invalid ones.
func Parse(r io.Reader) (*Manager, error) {
	m := &Manager{entries: []Entry{}, portable: []Entry{}}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		e := ParseEntry(line)
		m.entries = append(m.entries, e)
		if e.Portable {
			m.portable = append(m.portable, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Path returns the file the entries were loaded from.
func (m *Manager) Path() string {
	return m.path
}

// Entries returns every parsed entry.
func (m *Manager) Entries() []Entry {
	return m.entries
}

// Portable returns the portable entries.
func (m *Manager) Portable() []Entry {
	return m.portable
}

// AppendPortable appends the portable entries to target under a header,
// after copying target to "<target>.migrator.bak". Entries whose mount point
// target already uses are skipped. It returns the number of entries appended.
func (m *Manager) AppendPortable(target string) (int, error) {
	if len(m.portable) == 0 {
		return 0, nil
	}

	existing, err := Load(target)
	if err != nil {
		return 0, err
	}
	mounted := make(map[string]bool, len(existing.entries))
	for _, e := range existing.entries {
		mounted[e.MountPoint] = true
	}

	var lines []string
	for _, e := range m.portable {
		if mounted[e.MountPoint] {
			continue
		}
		lines = append(lines, e.Line())
	}
	if len(lines) == 0 {
		return 0, nil
	}

	if err := copyFile(target, target+".migrator.bak"); err != nil {
		return 0, fmt.Errorf("failed to back up %s: %w", target, err)
	}

	f, err := os.OpenFile(target, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", target, err)
	}
	if _, err := fmt.Fprintf(f, "\n%s\n%s\n", appendHeader, strings.Join(lines, "\n")); err != nil {
		f.Close()
		return 0, fmt.Errorf("failed to append to %s: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return 0, err
	}

	logger := logging.GetLogger("fstab")
	logger.Info().Str("target", target).Int("entries", len(lines)).Msg("Appended portable entries")
	return len(lines), nil
}

// WritePortable writes the portable entries to a new mount table fragment at
// path, replacing any existing file. It returns the number of entries written.
func (m *Manager) WritePortable(path string) (int, error) {
	var b strings.Builder
	b.WriteString(appendHeader + "\n")
	for _, e := range m.portable {
		b.WriteString(e.Line() + "\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return len(m.portable), nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, info.Mode().Perm())
}
