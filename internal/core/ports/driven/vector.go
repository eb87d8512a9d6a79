package driven

import (
	"context"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

// VectorIndex stores chunk embeddings tagged with their owner and searches them
// within one user's chunks only.
type VectorIndex interface {
	// EnsureIndex creates the collection and the keyword index on the user
	// metadata field if missing. Safe to call repeatedly.
	EnsureIndex(ctx context.Context) (domain.IndexOutcome, error)

	// Upsert writes chunks, replacing any with the same ID.
	// Every chunk must carry a non-empty user in its metadata.
	Upsert(ctx context.Context, chunks []domain.IndexedChunk) error

	// Search returns up to k chunks owned by user, most similar first.
	// Returns an empty slice when the user has no chunks. An empty user is ErrInvalidInput.
	Search(ctx context.Context, query []float32, k int, user string) ([]domain.ChunkHit, error)

	// Close releases resources.
	Close() error
}
