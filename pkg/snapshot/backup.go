package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"filippo.io/age"
)

const (
	// BackupPrefix starts the file name of every exported backup.
	BackupPrefix = "migrator_backup_"

	// EncryptedSuffix is appended to age-encrypted backups.
	EncryptedSuffix = ".age"

	backupTimeLayout = "20060102_150405"
)

// ErrNoIdentity is returned when an encrypted backup is read without an identity.
var ErrNoIdentity = errors.New("backup is encrypted and no identity was provided")

// ExportOptions controls how a backup is written.
type ExportOptions struct {
	// Hostname is recorded in the metadata and the file name.
	Hostname string

	// Recipients encrypts the backup with age when non-empty.
	Recipients []age.Recipient

	// Now overrides the backup timestamp.
	Now time.Time
}

// BackupMetadata summarizes a backup file without loading it for reconciliation.
type BackupMetadata struct {
	Path           string    `json:"path" yaml:"path"`
	Filename       string    `json:"filename" yaml:"filename"`
	FileSize       int64     `json:"file_size" yaml:"file_size"`
	FileDate       time.Time `json:"file_date" yaml:"file_date"`
	Encrypted      bool      `json:"encrypted" yaml:"encrypted"`
	Hostname       string    `json:"hostname" yaml:"hostname"`
	DistroName     string    `json:"distro_name" yaml:"distro_name"`
	DistroVersion  string    `json:"distro_version" yaml:"distro_version"`
	DistroID       string    `json:"distro_id" yaml:"distro_id"`
	Created        time.Time `json:"created" yaml:"created"`
	PackageCount   int       `json:"package_count" yaml:"package_count"`
	ConfigCount    int       `json:"config_count" yaml:"config_count"`
	PackageSources []string  `json:"package_sources" yaml:"package_sources"`
}

// ExportBackup writes a copy of snap into dir as
// migrator_backup_<YYYYmmdd_HHMMSS>_<hostname>.json, age-encrypted when
// recipients are given. It returns the path written.
func ExportBackup(snap *Snapshot, dir string, opts ExportOptions) (string, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	backup := *snap
	backup.Backup = &BackupInfo{
		Hostname:      opts.Hostname,
		DistroName:    snap.SystemInfo.DistroName,
		DistroVersion: snap.SystemInfo.DistroVersion,
		DistroID:      snap.SystemInfo.DistroID,
		Created:       now.UTC(),
	}

	data, err := json.MarshalIndent(&backup, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal backup: %w", err)
	}

	path := filepath.Join(dir, BackupFileName(now, opts.Hostname))
	if len(opts.Recipients) > 0 {
		data, err = encrypt(data, opts.Recipients)
		if err != nil {
			return "", fmt.Errorf("failed to encrypt backup: %w", err)
		}
		path += EncryptedSuffix
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if err := writeAtomic(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return path, nil
}

// LoadBackup reads a plain or age-encrypted backup file.
func LoadBackup(path string, identities ...age.Identity) (*Snapshot, error) {
	data, err := readBackup(path, identities)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// BackupFileName returns the file name for a backup taken at t on hostname.
// Characters other than letters, digits, '-' and '_' in the hostname become '_'.
func BackupFileName(t time.Time, hostname string) string {
	name := BackupPrefix + t.Format(backupTimeLayout)
	if hostname != "" {
		name += "_" + sanitizeHostname(hostname)
	}
	return name + ".json"
}

// IsBackupFile reports whether a file name looks like an exported backup.
func IsBackupFile(name string) bool {
	return strings.HasPrefix(name, BackupPrefix) &&
		(strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json"+EncryptedSuffix))
}

// FindLatestBackup returns the most recently modified backup in dir.
func FindLatestBackup(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: no backup directory %s", ErrNotFound, dir)
		}
		return "", err
	}

	var latest string
	var latestTime time.Time
	for _, e := range entries {
		if e.IsDir() || !IsBackupFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestTime) {
			latest = filepath.Join(dir, e.Name())
			latestTime = info.ModTime()
		}
	}

	if latest == "" {
		return "", fmt.Errorf("%w: no backups in %s", ErrNotFound, dir)
	}
	return latest, nil
}

// FindBackups searches each root, descending at most maxDepth directory levels,
// and returns the backup files found in sorted order. Unreadable directories are skipped.
func FindBackups(maxDepth int, roots ...string) []string {
	seen := make(map[string]bool)
	var found []string

	var walk func(dir string, depth int)
	walk = func(dir string, depth int) {
		if depth <= 0 {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			if e.IsDir() {
				walk(path, depth-1)
				continue
			}
			if IsBackupFile(e.Name()) && !seen[path] {
				seen[path] = true
				found = append(found, path)
			}
		}
	}

	for _, root := range roots {
		walk(root, maxDepth)
	}

	sort.Strings(found)
	return found
}

// ReadMetadata loads a backup and summarizes it.
func ReadMetadata(path string, identities ...age.Identity) (*BackupMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	snap, err := LoadBackup(path, identities...)
	if err != nil {
		return nil, err
	}

	meta := &BackupMetadata{
		Path:           path,
		Filename:       filepath.Base(path),
		FileSize:       info.Size(),
		FileDate:       info.ModTime(),
		Encrypted:      strings.HasSuffix(path, EncryptedSuffix),
		DistroName:     snap.SystemInfo.DistroName,
		DistroVersion:  snap.SystemInfo.DistroVersion,
		DistroID:       snap.SystemInfo.DistroID,
		Created:        snap.SystemInfo.LastUpdated,
		PackageCount:   len(snap.Packages),
		ConfigCount:    len(snap.ConfigFiles),
		PackageSources: snap.Sources(),
	}
	if snap.Backup != nil {
		meta.Hostname = snap.Backup.Hostname
		meta.Created = snap.Backup.Created
	}
	return meta, nil
}

// ParseRecipients reads age recipients, one per line, from r.
func ParseRecipients(r io.Reader) ([]age.Recipient, error) {
	return age.ParseRecipients(r)
}

// ParseIdentities reads age identities from r, such as an age-keygen key file.
func ParseIdentities(r io.Reader) ([]age.Identity, error) {
	return age.ParseIdentities(r)
}

// PassphraseRecipient returns a recipient that encrypts with a passphrase.
func PassphraseRecipient(passphrase string) (age.Recipient, error) {
	return age.NewScryptRecipient(passphrase)
}

// PassphraseIdentity returns an identity that decrypts passphrase-encrypted backups.
func PassphraseIdentity(passphrase string) (age.Identity, error) {
	return age.NewScryptIdentity(passphrase)
}

func readBackup(path string, identities []age.Identity) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close()

	if !strings.HasSuffix(path, EncryptedSuffix) {
		return io.ReadAll(f)
	}

	if len(identities) == 0 {
		return nil, ErrNoIdentity
	}
	r, err := age.Decrypt(f, identities...)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt backup: %w", err)
	}
	return io.ReadAll(r)
}

func encrypt(data []byte, recipients []age.Recipient) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipients...)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sanitizeHostname(hostname string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, hostname)
}
