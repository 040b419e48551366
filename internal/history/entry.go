// Package history records migrator runs in a BoltDB database.
package history

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Operation is the kind of run being recorded.
type Operation string

const (
	OpScan        Operation = "scan"
	OpCheck       Operation = "check"
	OpCompare     Operation = "compare"
	OpBackup      Operation = "backup"
	OpPlan        Operation = "plan"
	OpRepoExport  Operation = "repos-export"
	OpRepoRestore Operation = "repos-restore"
	OpFstabAppend Operation = "fstab-append"
)

// Entry is one recorded run.
type Entry struct {
	ID        string         `json:"id" yaml:"id"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Operation Operation      `json:"operation" yaml:"operation"`
	Distro    string         `json:"distro,omitempty" yaml:"distro,omitempty"`
	Target    string         `json:"target,omitempty" yaml:"target,omitempty"` // file read or written
	DryRun    bool           `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Counts    map[string]int `json:"counts,omitempty" yaml:"counts,omitempty"`
	Success   bool           `json:"success" yaml:"success"`
	Error     string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewEntry creates a new history entry.
func NewEntry(op Operation, distro, target string) *Entry {
	return &Entry{
		ID:        generateID(),
		Timestamp: time.Now(),
		Operation: op,
		Distro:    distro,
		Target:    target,
		Counts:    map[string]int{},
	}
}

// Count records a named figure of the run, such as "packages" or "added".
func (e *Entry) Count(name string, n int) *Entry {
	if e.Counts == nil {
		e.Counts = map[string]int{}
	}
	e.Counts[name] = n
	return e
}

// MarkSuccess marks the entry as successful.
func (e *Entry) MarkSuccess() {
	e.Success = true
	e.Error = ""
}

// MarkFailed marks the entry as failed with an error message.
func (e *Entry) MarkFailed(err error) {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
}

// Finish marks the entry by the outcome of the run.
func (e *Entry) Finish(err error) {
	if err != nil {
		e.MarkFailed(err)
		return
	}
	e.MarkSuccess()
}

// generateID generates a unique ID for the entry.
func generateID() string {
	return time.Now().Format("20060102150405.000000")
}

// FormatTime returns a human-readable timestamp.
func (e *Entry) FormatTime() string {
	return e.Timestamp.Format("2006-01-02 15:04:05")
}

// FormatCounts renders the counts as "name=n" pairs in name order.
func (e *Entry) FormatCounts() string {
	names := make([]string, 0, len(e.Counts))
	for name := range e.Counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, e.Counts[name])
	}
	return strings.Join(parts, " ")
}

// Summary returns a brief summary of the run.
func (e *Entry) Summary() string {
	status := "success"
	if !e.Success {
		status = "failed"
	}

	s := e.FormatTime() + " " + string(e.Operation)
	if e.DryRun {
		s += " [dry-run]"
	}
	if counts := e.FormatCounts(); counts != "" {
		s += " " + counts
	}
	return s + " (" + status + ")"
}
