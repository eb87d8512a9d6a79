// Package bolt provides a VectorIndex stored in a local bbolt file.
//
// Chunks are kept in one nested bucket per user so a search only ever
// reads the requesting user's entries.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/healthlens/internal/adapters/driven/vector"
	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

var (
	usersBucket  = []byte("users")
	ownersBucket = []byte("owners")
)

// storedChunk is the JSON value written for each chunk.
type storedChunk struct {
	DocumentKey string         `json:"k"`
	Content     string         `json:"c"`
	Position    int            `json:"p"`
	Metadata    map[string]any `json:"m"`
	Vector      []float32      `json:"v"`
}

// Index is a brute-force cosine index persisted with bbolt.
type Index struct {
	db         *bbolt.DB
	dimensions int
}

// Open opens or creates the index file at path.
// Vectors whose length differs from dimensions are rejected.
func Open(path string, dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrVectorIndexUnavailable, path, err)
	}
	return &Index{db: db, dimensions: dimensions}, nil
}

// EnsureIndex creates the top-level buckets if missing.
func (ix *Index) EnsureIndex(context.Context) (domain.IndexOutcome, error) {
	outcome := domain.IndexAlreadyPresent
	err := ix.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(usersBucket) == nil {
			outcome = domain.IndexCreated
		}
		return createBuckets(tx)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
	}
	return outcome, nil
}

func createBuckets(tx *bbolt.Tx) error {
	if _, err := tx.CreateBucketIfNotExists(usersBucket); err != nil {
		return err
	}
	_, err := tx.CreateBucketIfNotExists(ownersBucket)
	return err
}

// Upsert writes all chunks in one transaction.
func (ix *Index) Upsert(_ context.Context, chunks []domain.IndexedChunk) error {
	for _, c := range chunks {
		if c.Chunk.User() == "" {
			return fmt.Errorf("%w: chunk %s has no user", domain.ErrInvalidInput, c.Chunk.ID)
		}
		if len(c.Embedding) != ix.dimensions {
			return fmt.Errorf("%w: chunk %s has %d dimensions, index expects %d",
				domain.ErrInvalidInput, c.Chunk.ID, len(c.Embedding), ix.dimensions)
		}
	}

	err := ix.db.Update(func(tx *bbolt.Tx) error {
		if err := createBuckets(tx); err != nil {
			return err
		}
		users := tx.Bucket(usersBucket)
		owners := tx.Bucket(ownersBucket)

		for _, c := range chunks {
			id := []byte(c.Chunk.ID)
			user := c.Chunk.User()

			if prev := owners.Get(id); prev != nil && string(prev) != user {
				if b := users.Bucket(prev); b != nil {
					if err := b.Delete(id); err != nil {
						return err
					}
				}
			}

			b, err := users.CreateBucketIfNotExists([]byte(user))
			if err != nil {
				return err
			}
			data, err := json.Marshal(storedChunk{
				DocumentKey: c.Chunk.DocumentKey,
				Content:     c.Chunk.Content,
				Position:    c.Chunk.Position,
				Metadata:    c.Chunk.Metadata,
				Vector:      c.Embedding,
			})
			if err != nil {
				return fmt.Errorf("marshal chunk %s: %w", c.Chunk.ID, err)
			}
			if err := b.Put(id, data); err != nil {
				return err
			}
			if err := owners.Put(id, []byte(user)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: upsert: %w", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// Search scans the user's bucket and returns the k closest chunks.
func (ix *Index) Search(ctx context.Context, query []float32, k int, user string) ([]domain.ChunkHit, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: search requires a user", domain.ErrInvalidInput)
	}

	var hits []domain.ChunkHit
	err := ix.db.View(func(tx *bbolt.Tx) error {
		users := tx.Bucket(usersBucket)
		if users == nil {
			return nil
		}
		b := users.Bucket([]byte(user))
		if b == nil {
			return nil
		}
		return b.ForEach(func(id, data []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var sc storedChunk
			if err := json.Unmarshal(data, &sc); err != nil {
				return fmt.Errorf("decode chunk %s: %w", id, err)
			}
			chunk := domain.Chunk{
				ID:          string(id),
				DocumentKey: sc.DocumentKey,
				Content:     sc.Content,
				Position:    sc.Position,
				Metadata:    normaliseNumbers(sc.Metadata),
			}
			hits = append(hits, domain.ChunkHit{Chunk: chunk, Score: vector.Cosine(query, sc.Vector)})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrVectorIndexUnavailable, err)
	}
	return vector.TopK(hits, k), nil
}

// normaliseNumbers turns whole JSON numbers back into ints.
func normaliseNumbers(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	for k, v := range meta {
		if f, ok := v.(float64); ok && f == float64(int(f)) {
			meta[k] = int(f)
		}
	}
	return meta
}

// Close closes the database file.
func (ix *Index) Close() error {
	return ix.db.Close()
}
