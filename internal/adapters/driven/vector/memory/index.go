// Package memory provides an in-process VectorIndex for tests and
// throwaway sessions.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/custodia-labs/healthlens/internal/adapters/driven/vector"
	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index keeps chunks grouped by owning user.
type Index struct {
	mu      sync.RWMutex
	ready   bool
	byUser  map[string]map[string]domain.IndexedChunk
	ownerOf map[string]string
}

// New creates an empty index.
func New() *Index {
	return &Index{
		byUser:  make(map[string]map[string]domain.IndexedChunk),
		ownerOf: make(map[string]string),
	}
}

// EnsureIndex marks the index ready.
func (ix *Index) EnsureIndex(context.Context) (domain.IndexOutcome, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.ready {
		return domain.IndexAlreadyPresent, nil
	}
	ix.ready = true
	return domain.IndexCreated, nil
}

// Upsert stores copies of the chunks, replacing any with the same ID.
func (ix *Index) Upsert(_ context.Context, chunks []domain.IndexedChunk) error {
	for _, c := range chunks {
		if c.Chunk.User() == "" {
			return fmt.Errorf("%w: chunk %s has no user", domain.ErrInvalidInput, c.Chunk.ID)
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, c := range chunks {
		user := c.Chunk.User()
		// A chunk ID moving between users must not stay visible to the old owner.
		if prev, ok := ix.ownerOf[c.Chunk.ID]; ok && prev != user {
			delete(ix.byUser[prev], c.Chunk.ID)
		}
		if ix.byUser[user] == nil {
			ix.byUser[user] = make(map[string]domain.IndexedChunk)
		}
		c.Chunk.Metadata = maps.Clone(c.Chunk.Metadata)
		ix.byUser[user][c.Chunk.ID] = c
		ix.ownerOf[c.Chunk.ID] = user
	}
	return nil
}

// Search scores only the user's chunks.
func (ix *Index) Search(_ context.Context, query []float32, k int, user string) ([]domain.ChunkHit, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: search requires a user", domain.ErrInvalidInput)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	owned := ix.byUser[user]
	hits := make([]domain.ChunkHit, 0, len(owned))
	for _, c := range owned {
		chunk := c.Chunk
		chunk.Metadata = maps.Clone(chunk.Metadata)
		hits = append(hits, domain.ChunkHit{Chunk: chunk, Score: vector.Cosine(query, c.Embedding)})
	}
	return vector.TopK(hits, k), nil
}

// Count returns the number of chunks stored for user.
func (ix *Index) Count(user string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byUser[user])
}

// Close releases resources.
func (ix *Index) Close() error { return nil }
