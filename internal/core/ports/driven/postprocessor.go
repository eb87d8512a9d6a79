package driven

import (
	"context"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

// Chunker splits extracted text into overlapping chunks.
type Chunker interface {
	// Name returns the chunker name for logging and configuration.
	Name() string

	// Process chunks every segment. Chunks never span segments.
	Process(ctx context.Context, text *domain.ExtractedText) ([]domain.Chunk, error)
}

// ChunkerSet resolves the chunker configured for a chunk profile.
type ChunkerSet interface {
	// For returns the chunker for the profile.
	For(profile domain.ChunkProfile) (Chunker, error)
}
