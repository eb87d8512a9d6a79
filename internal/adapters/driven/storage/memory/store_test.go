package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/healthlens/internal/adapters/driven/storage/storetest"
	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(*testing.T) driven.ReportStore { return NewStore() })
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	v := 5.0
	record := storetest.NewRecord("alice", "a.pdf", "text")
	record.ParsedData = &domain.ParsedData{TSH: &v}
	require.NoError(t, store.Insert(ctx, record))

	// Mutating the caller's copy must not reach the store.
	*record.ParsedData.TSH = 99

	got, err := store.Latest(ctx, "alice")
	require.NoError(t, err)
	assert.InDelta(t, 5.0, *got.ParsedData.TSH, 1e-9)

	got.Symptoms = "changed"
	again, err := store.Latest(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, again.Symptoms)
}
