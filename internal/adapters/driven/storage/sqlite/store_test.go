package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/healthlens/internal/adapters/driven/storage/storetest"
	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) driven.ReportStore {
		return setupTestStore(t)
	})
}

func TestNewStore_CreatesDatabaseFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DBFileName), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_ReopenKeepsDataAndSeq(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	first := storetest.NewRecord("alice", "a.pdf", "first")
	require.NoError(t, store.Insert(ctx, first))
	require.NoError(t, store.Close())

	// Migrations must not re-run against an existing database.
	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	second := storetest.NewRecord("alice", "b.pdf", "second")
	require.NoError(t, reopened.Insert(ctx, second))
	assert.Greater(t, second.Seq, first.Seq)

	records, err := reopened.ListByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	var version int
	require.NoError(t, reopened.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestInsert_KeepsCallerID(t *testing.T) {
	store := setupTestStore(t)
	record := storetest.NewRecord("alice", "a.pdf", "text")
	record.ID = "fixed-id"
	require.NoError(t, store.Insert(context.Background(), record))

	got, err := store.Get(context.Background(), "alice", "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, record.Seq, got.Seq)
}

func TestInsert_DuplicateLeavesRecordUntouched(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Insert(ctx, storetest.NewRecord("alice", "a.pdf", "text")))

	dup := storetest.NewRecord("alice", "a.pdf", "text")
	err := store.Insert(ctx, dup)
	require.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Empty(t, dup.ID)
	assert.Zero(t, dup.Seq)
}
