package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"migrator/internal/config"
	"migrator/internal/logging"
)

// Tracker produces the config files of one tracked area.
type Tracker interface {
	// Name identifies the tracker in logs.
	Name() string

	// Track returns the currently present config files with fresh checksums.
	Track(ctx context.Context) ([]ConfigFile, error)
}

// FileTracker checksums the regular files matched by a list of glob patterns.
type FileTracker struct {
	name     string
	patterns []string
	isSystem bool
	now      func() time.Time
}

// NewFileTracker creates a tracker over patterns. "~" in a pattern expands to
// the user's home directory.
func NewFileTracker(name string, patterns []string, isSystem bool) *FileTracker {
	return &FileTracker{
		name:     name,
		patterns: patterns,
		isSystem: isSystem,
		now:      time.Now,
	}
}

// Name returns the tracker name.
func (t *FileTracker) Name() string {
	return t.name
}

// Track expands the patterns and checksums every readable regular file.
// Unreadable files, such as /etc/shadow for a normal user, are skipped.
func (t *FileTracker) Track(ctx context.Context) ([]ConfigFile, error) {
	logger := logging.GetLogger("tracker")

	var files []ConfigFile
	for _, path := range t.expand() {
		if err := ctx.Err(); err != nil {
			return files, err
		}

		sum, err := Checksum(path)
		if err != nil {
			logger.Debug().Err(err).Str("path", path).Msg("Skipping config file")
			continue
		}

		now := t.now().UTC()
		files = append(files, ConfigFile{
			Path:           path,
			Description:    Describe(path, t.isSystem),
			Category:       Categorize(path, t.isSystem),
			IsSystemConfig: t.isSystem,
			Checksum:       sum,
			LastChecked:    &now,
		})
	}

	return files, nil
}

// expand resolves the patterns to a sorted, de-duplicated list of regular files.
func (t *FileTracker) expand() []string {
	seen := make(map[string]bool)
	var paths []string

	for _, pattern := range t.patterns {
		matches, err := filepath.Glob(config.ExpandHome(pattern))
		if err != nil {
			continue
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil || seen[abs] {
				continue
			}
			info, err := os.Stat(abs)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			seen[abs] = true
			paths = append(paths, abs)
		}
	}

	sort.Strings(paths)
	return paths
}

// Checksum returns the hex SHA-256 of a file's content.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
