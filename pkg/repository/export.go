package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"migrator/pkg/manager/detector"
)

// ErrInvalidExport is returned for data that is not a repository export.
var ErrInvalidExport = errors.New("invalid repository export")

// Export is the persisted repository list of one machine.
type Export struct {
	DistroInfo   detector.DistroInfo `json:"distro_info" yaml:"distro_info"`
	Repositories []Repository        `json:"repositories" yaml:"repositories"`
}

// NewExport creates an export of repos taken on distro.
func NewExport(distro *detector.DistroInfo, repos []Repository) *Export {
	if repos == nil {
		repos = []Repository{}
	}
	return &Export{
		DistroInfo:   detector.DistroInfo{ID: distro.ID, Name: distro.Name, Version: distro.Version},
		Repositories: repos,
	}
}

// SaveExport writes an export as indented JSON.
func SaveExport(path string, export *Export) error {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal repositories: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write repositories: %w", err)
	}
	return nil
}

// LoadExport reads an export written by SaveExport. A file without a
// "repositories" list is rejected with ErrInvalidExport.
func LoadExport(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read repositories: %w", err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExport, err)
	}
	if _, ok := top["repositories"]; !ok {
		return nil, fmt.Errorf("%w: missing \"repositories\"", ErrInvalidExport)
	}

	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExport, err)
	}
	if export.Repositories == nil {
		export.Repositories = []Repository{}
	}
	return &export, nil
}
