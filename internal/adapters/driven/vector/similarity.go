// Package vector holds the similarity helpers shared by the local vector
// index backends. Backends live in the bolt, memory and qdrant subpackages.
package vector

import (
	"cmp"
	"math"
	"slices"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TopK sorts hits by descending score, breaking ties by chunk ID, and keeps
// at most k. The result is never nil.
func TopK(hits []domain.ChunkHit, k int) []domain.ChunkHit {
	slices.SortFunc(hits, func(a, b domain.ChunkHit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Chunk.ID, b.Chunk.ID)
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	if hits == nil {
		return []domain.ChunkHit{}
	}
	return hits
}
