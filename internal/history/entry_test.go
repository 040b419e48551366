package history

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewEntry(t *testing.T) {
	entry := NewEntry(OpBackup, "fedora", "/backups/migrator_backup_x.json")

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, OpBackup, entry.Operation)
	assert.Equal(t, "fedora", entry.Distro)
	assert.False(t, entry.Success)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestEntryFinish(t *testing.T) {
	entry := NewEntry(OpCheck, "", "")
	entry.Finish(errors.New("stored state missing"))
	assert.False(t, entry.Success)
	assert.Equal(t, "stored state missing", entry.Error)

	entry.Finish(nil)
	assert.True(t, entry.Success)
	assert.Empty(t, entry.Error)

	failed := NewEntry(OpCheck, "", "")
	failed.MarkFailed(nil)
	assert.Empty(t, failed.Error)
}

func TestFormatTime(t *testing.T) {
	entry := &Entry{Timestamp: time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)}
	assert.Equal(t, "2024-01-15 10:30:45", entry.FormatTime())
}

func TestSummary(t *testing.T) {
	entry := &Entry{
		Timestamp: time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC),
		Operation: OpRepoRestore,
		DryRun:    true,
	}
	entry.Count("restored", 3).Count("issues", 1)
	entry.MarkSuccess()

	assert.Equal(t, "2024-01-15 10:30:45 repos-restore [dry-run] issues=1 restored=3 (success)", entry.Summary())

	bare := &Entry{Operation: OpScan}
	assert.Contains(t, bare.Summary(), "scan (failed)")
}

func TestGenerateID(t *testing.T) {
	assert.Len(t, generateID(), len("20060102150405.000000"))
}
