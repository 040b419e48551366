package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "data", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func recordN(t *testing.T, store *Store, op Operation, n int) []*Entry {
	t.Helper()

	var entries []*Entry
	for i := 0; i < n; i++ {
		entry := NewEntry(op, "ubuntu", "")
		entry.Count("packages", i)
		entry.MarkSuccess()
		require.NoError(t, store.Record(entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestOpen(t *testing.T) {
	assert.NotNil(t, setupTestStore(t))
}

func TestRecord(t *testing.T) {
	store := setupTestStore(t)

	entry := NewEntry(OpScan, "ubuntu", "/var/lib/migrator/system_state.json")
	entry.Count("packages", 1200).Count("configs", 14)
	entry.MarkSuccess()
	require.NoError(t, store.Record(entry))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	last, err := store.Last()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 1200, last.Counts["packages"])
	assert.Equal(t, entry.Target, last.Target)
}

func TestList(t *testing.T) {
	store := setupTestStore(t)
	recordN(t, store, OpCheck, 5)

	entries, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	limited, err := store.List(3)
	require.NoError(t, err)
	assert.Len(t, limited, 3)

	// Newest first, even when timestamps collide.
	assert.Equal(t, 4, entries[0].Counts["packages"])
	assert.Equal(t, 0, entries[4].Counts["packages"])
}

func TestListOperation(t *testing.T) {
	store := setupTestStore(t)
	recordN(t, store, OpScan, 2)
	recordN(t, store, OpBackup, 1)
	recordN(t, store, OpScan, 1)

	scans, err := store.ListOperation(OpScan, 0)
	require.NoError(t, err)
	assert.Len(t, scans, 3)
	for _, e := range scans {
		assert.Equal(t, OpScan, e.Operation)
	}
}

func TestGet(t *testing.T) {
	store := setupTestStore(t)
	entry := recordN(t, store, OpBackup, 1)[0]

	retrieved, err := store.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, retrieved.ID)

	_, err = store.Get("nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLast(t *testing.T) {
	store := setupTestStore(t)

	entry, err := store.Last()
	require.NoError(t, err)
	assert.Nil(t, entry)

	recordN(t, store, OpScan, 1)
	second := recordN(t, store, OpCheck, 1)[0]

	last, err := store.Last()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, OpCheck, last.Operation)
	assert.Equal(t, second.ID, last.ID)
}

func TestLastSuccessful(t *testing.T) {
	store := setupTestStore(t)
	recordN(t, store, OpCheck, 1)

	failed := NewEntry(OpCheck, "ubuntu", "")
	failed.MarkFailed(errors.New("no stored state"))
	require.NoError(t, store.Record(failed))

	last, err := store.LastSuccessful(OpCheck)
	require.NoError(t, err)
	assert.True(t, last.Success)

	_, err = store.LastSuccessful(OpBackup)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClear(t *testing.T) {
	store := setupTestStore(t)
	recordN(t, store, OpScan, 3)

	require.NoError(t, store.Clear())

	count, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	last, err := store.Last()
	assert.NoError(t, err)
	assert.Nil(t, last)
}

func TestPrune(t *testing.T) {
	store := setupTestStore(t)

	old := NewEntry(OpScan, "ubuntu", "")
	old.Timestamp = time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.Record(old))
	recordN(t, store, OpScan, 2)

	deleted, err := store.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
