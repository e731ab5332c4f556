package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitfin/syncpipe/internal/domain/pipeline"
)

func newTestStore(t *testing.T) *FileStore {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestFileStore_LoadMissingReturnsNil(t *testing.T) {
	store := newTestStore(t)

	cp, err := store.Load("migration", "invoices")
	require.NoError(t, err)
	assert.Nil(t, cp, "missing checkpoint means start from the beginning")
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	saved := &pipeline.Checkpoint{
		PipelineID:     "migration",
		Collection:     "invoices",
		Cursor:         pipeline.Cursor{Page: 3, Offset: 1},
		ItemsProcessed: 401,
	}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load("migration", "invoices")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, saved.Cursor, loaded.Cursor)
	assert.Equal(t, 401, loaded.ItemsProcessed)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestFileStore_SaveIsMonotonic(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&pipeline.Checkpoint{
		PipelineID: "migration", Collection: "orders",
		Cursor: pipeline.Cursor{Page: 5}, ItemsProcessed: 1000,
	}))

	err := store.Save(&pipeline.Checkpoint{
		PipelineID: "migration", Collection: "orders",
		Cursor: pipeline.Cursor{Page: 2}, ItemsProcessed: 400,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrCheckpointRegression))

	// The stored checkpoint is untouched.
	loaded, err := store.Load("migration", "orders")
	require.NoError(t, err)
	assert.Equal(t, 1000, loaded.ItemsProcessed)
}

func TestFileStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Save(&pipeline.Checkpoint{
			PipelineID: "migration", Collection: "items",
			Cursor: pipeline.Cursor{Page: i}, ItemsProcessed: i * 100,
		}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "migration__items.json", entries[0].Name())
}

func TestFileStore_CorruptFileReported(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "migration__orders.json"), []byte("{torn"), 0o644))

	_, err = store.Load("migration", "orders")
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrCheckpointCorrupt))
}

func TestFileStore_IdentityMismatchIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	// A checkpoint body claiming a different collection than its filename.
	body := `{"pipeline_id":"migration","collection":"invoices","cursor":{"page":1,"offset":0},"items_processed":10}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "migration__orders.json"), []byte(body), 0o644))

	_, err = store.Load("migration", "orders")
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrCheckpointCorrupt))
}

func TestFileStore_Clear(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&pipeline.Checkpoint{
		PipelineID: "migration", Collection: "brands", ItemsProcessed: 12,
	}))
	require.NoError(t, store.Clear("migration", "brands"))

	cp, err := store.Load("migration", "brands")
	require.NoError(t, err)
	assert.Nil(t, cp)

	// Clearing again is a no-op.
	require.NoError(t, store.Clear("migration", "brands"))
}
