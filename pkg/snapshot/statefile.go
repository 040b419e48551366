package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"migrator/internal/logging"
)

var (
	// ErrNotFound is returned when a snapshot file does not exist.
	ErrNotFound = errors.New("snapshot not found")

	// ErrInvalidFormat is returned for data that is not a snapshot.
	ErrInvalidFormat = errors.New("invalid snapshot format")
)

// requiredKeys must all be present at the top level of persisted data.
var requiredKeys = []string{"system_info", "packages", "config_files"}

// StateFile persists the current system snapshot at a fixed path.
type StateFile struct {
	path string
}

// NewStateFile returns a StateFile for path.
func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

// Path returns the location of the state file.
func (f *StateFile) Path() string {
	return f.path
}

// Load reads the stored snapshot.
func (f *StateFile) Load() (*Snapshot, error) {
	return Load(f.path)
}

// Save writes the snapshot atomically: the data goes to a temporary file in the
// same directory which is then renamed over the state file. The previous state
// is copied to "<path>.bak" first; failing to do so is logged, not fatal.
func (f *StateFile) Save(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	if _, err := os.Stat(f.path); err == nil {
		if err := copyFile(f.path, f.path+".bak"); err != nil {
			logger := logging.GetLogger("snapshot")
			logger.Warn().Err(err).Str("path", f.path).Msg("Could not back up previous state")
		}
	}

	if err := writeAtomic(f.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	logger := logging.GetLogger("snapshot")
	logger.Debug().Str("path", f.path).Int("packages", len(snap.Packages)).Msg("Saved state")
	return nil
}

// Load reads a snapshot from path.
// It returns ErrNotFound if the file is missing and ErrInvalidFormat if it is not a snapshot.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return Decode(data)
}

// Decode parses and validates snapshot JSON.
func Decode(data []byte) (*Snapshot, error) {
	if err := ValidateBackup(data); err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if snap.Packages == nil {
		snap.Packages = []Package{}
	}
	if snap.ConfigFiles == nil {
		snap.ConfigFiles = []ConfigFile{}
	}
	snap.Normalize()
	return &snap, nil
}

// ValidateBackup checks that data is a JSON object carrying every required
// top-level key. Data that fails is rejected as a whole.
func ValidateBackup(data []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	for _, key := range requiredKeys {
		if _, ok := top[key]; !ok {
			return fmt.Errorf("%w: missing %q", ErrInvalidFormat, key)
		}
	}
	return nil
}

// writeAtomic writes data to a temp file next to path and renames it into place.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
