// Package storetest holds behaviour tests shared by every ReportStore backend.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

// Factory returns a fresh, empty store. The test owns closing it.
type Factory func(t *testing.T) driven.ReportStore

// Run exercises the ReportStore contract against stores from newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("InsertAssignsSeqAndID", func(t *testing.T) { testInsert(t, newStore(t)) })
	t.Run("DuplicateHash", func(t *testing.T) { testDuplicate(t, newStore(t)) })
	t.Run("SameTextDifferentUsers", func(t *testing.T) { testSameTextDifferentUsers(t, newStore(t)) })
	t.Run("ListAndLatest", func(t *testing.T) { testListAndLatest(t, newStore(t)) })
	t.Run("UserIsolation", func(t *testing.T) { testIsolation(t, newStore(t)) })
	t.Run("UpdateSymptoms", func(t *testing.T) { testUpdateSymptoms(t, newStore(t)) })
	t.Run("ParsedDataRoundTrip", func(t *testing.T) { testParsedData(t, newStore(t)) })
	t.Run("ConcurrentInserts", func(t *testing.T) { testConcurrentInserts(t, newStore(t)) })
}

// NewRecord builds a record whose hash is derived from user and text.
func NewRecord(user, fileName, text string) *domain.ReportRecord {
	return &domain.ReportRecord{
		User:        user,
		FileName:    fileName,
		FileType:    "pdf",
		ContentHash: domain.ContentHash(user, text),
		RawText:     text,
	}
}

func testInsert(t *testing.T, store driven.ReportStore) {
	ctx := context.Background()

	first := NewRecord("alice", "a.pdf", "Glucose 110")
	require.NoError(t, store.Insert(ctx, first))
	assert.NotEmpty(t, first.ID)
	assert.Positive(t, first.Seq)
	assert.False(t, first.CreatedAt.IsZero())

	second := NewRecord("alice", "b.pdf", "Glucose 95")
	require.NoError(t, store.Insert(ctx, second))
	assert.Greater(t, second.Seq, first.Seq)
	assert.NotEqual(t, first.ID, second.ID)

	got, err := store.Get(ctx, "alice", first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Glucose 110", got.RawText)
	assert.Equal(t, first.Seq, got.Seq)
	assert.Nil(t, got.ParsedData)

	_, err = store.Get(ctx, "alice", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.Insert(ctx, NewRecord("", "x.pdf", "x")), domain.ErrInvalidInput)
}

func testDuplicate(t *testing.T, store driven.ReportStore) {
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, NewRecord("alice", "a.pdf", "TSH 2.1")))
	err := store.Insert(ctx, NewRecord("alice", "renamed.pdf", "TSH 2.1"))
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	records, err := store.ListByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	found, err := store.FindByHash(ctx, "alice", domain.ContentHash("alice", "TSH 2.1"))
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", found.FileName)

	_, err = store.FindByHash(ctx, "alice", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testSameTextDifferentUsers(t *testing.T, store driven.ReportStore) {
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, NewRecord("alice", "a.pdf", "Hemoglobin 13")))
	require.NoError(t, store.Insert(ctx, NewRecord("bob", "a.pdf", "Hemoglobin 13")))

	_, err := store.FindByHash(ctx, "bob", domain.ContentHash("alice", "Hemoglobin 13"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testListAndLatest(t *testing.T, store driven.ReportStore) {
	ctx := context.Background()

	records, err := store.ListByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = store.Latest(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for _, name := range []string{"1.pdf", "2.pdf", "3.pdf"} {
		require.NoError(t, store.Insert(ctx, NewRecord("alice", name, "text of "+name)))
	}

	records, err = store.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i := 1; i < len(records); i++ {
		assert.Greater(t, records[i].Seq, records[i-1].Seq)
	}
	assert.Equal(t, "1.pdf", records[0].FileName)

	latest, err := store.Latest(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "3.pdf", latest.FileName)
}

func testIsolation(t *testing.T, store driven.ReportStore) {
	ctx := context.Background()

	alice := NewRecord("alice", "a.pdf", "Cholesterol 240")
	require.NoError(t, store.Insert(ctx, alice))
	require.NoError(t, store.Insert(ctx, NewRecord("bob", "b.pdf", "Cholesterol 150")))

	_, err := store.Get(ctx, "bob", alice.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	records, err := store.ListByUser(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "bob", records[0].User)

	require.NoError(t, store.UpdateSymptoms(ctx, "bob", "headache"))
	got, err := store.Get(ctx, "alice", alice.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Symptoms)
}

func testUpdateSymptoms(t *testing.T, store driven.ReportStore) {
	ctx := context.Background()

	assert.ErrorIs(t, store.UpdateSymptoms(ctx, "alice", "tired"), domain.ErrNotFound)

	older := NewRecord("alice", "old.pdf", "old")
	require.NoError(t, store.Insert(ctx, older))
	newer := NewRecord("alice", "new.pdf", "new")
	require.NoError(t, store.Insert(ctx, newer))

	require.NoError(t, store.UpdateSymptoms(ctx, "alice", "tired and thirsty"))
	require.NoError(t, store.UpdateSymptoms(ctx, "alice", "only thirsty"))

	latest, err := store.Latest(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)
	assert.Equal(t, "only thirsty", latest.Symptoms)
	assert.Equal(t, "new", latest.RawText)

	got, err := store.Get(ctx, "alice", older.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Symptoms)
}

func testParsedData(t *testing.T, store driven.ReportStore) {
	ctx := context.Background()

	glucose, tsh := 126.0, 3.2
	notes := "fasting sample"
	record := NewRecord("alice", "labs.pdf", "Glucose 126 TSH 3.2")
	record.ParsedData = &domain.ParsedData{
		BloodSugarFasting: &glucose,
		TSH:               &tsh,
		AdditionalNotes:   &notes,
	}
	require.NoError(t, store.Insert(ctx, record))

	got, err := store.Get(ctx, "alice", record.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParsedData)
	assert.InDelta(t, 126.0, *got.ParsedData.BloodSugarFasting, 1e-9)
	assert.InDelta(t, 3.2, *got.ParsedData.TSH, 1e-9)
	assert.Nil(t, got.ParsedData.Hemoglobin)
	assert.Equal(t, "fasting sample", got.ParsedData.Notes())
}

func testConcurrentInserts(t *testing.T, store driven.ReportStore) {
	ctx := context.Background()
	const n = 8

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = store.Insert(ctx, NewRecord("alice", "same.pdf", "identical text"))
		}()
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrDuplicate):
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)
}
