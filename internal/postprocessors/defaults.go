package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
	"github.com/custodia-labs/healthlens/internal/postprocessors/chunker"
)

// Ensure ChunkerSet implements the interface.
var _ driven.ChunkerSet = (*ChunkerSet)(nil)

// RegisterDefaults registers all built-in chunkers with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
}

// buildChunker creates a chunker from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 200)
func buildChunker(cfg map[string]any) (driven.Chunker, error) {
	var opts []chunker.Option

	if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if _, ok := cfg["overlap"]; ok {
		opts = append(opts, chunker.WithOverlap(getIntFromConfig(cfg, "overlap")))
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// ChunkerSet holds one chunker per chunk profile.
type ChunkerSet struct {
	byProfile map[domain.ChunkProfile]driven.Chunker
}

// NewChunkerSet builds the document and OCR chunkers from settings.
func NewChunkerSet(r *Registry, settings domain.ChunkingSettings) (*ChunkerSet, error) {
	set := &ChunkerSet{byProfile: make(map[domain.ChunkProfile]driven.Chunker)}

	for _, profile := range []domain.ChunkProfile{domain.ProfileDocument, domain.ProfileOCR} {
		size, overlap := settings.ForProfile(profile)
		c, err := r.Build("chunker", map[string]any{
			"chunk_size": size,
			"overlap":    overlap,
		})
		if err != nil {
			return nil, fmt.Errorf("build %s chunker: %w", profile, err)
		}
		set.byProfile[profile] = c
	}

	return set, nil
}

// DefaultChunkerSet returns the chunkers for the default chunking settings.
func DefaultChunkerSet() *ChunkerSet {
	r := NewRegistry()
	RegisterDefaults(r)
	set, _ := NewChunkerSet(r, domain.DefaultAppSettings().Chunking) //nolint:errcheck // Built-in chunker cannot fail.
	return set
}

// For returns the chunker for the profile.
func (s *ChunkerSet) For(profile domain.ChunkProfile) (driven.Chunker, error) {
	c, ok := s.byProfile[profile]
	if !ok {
		return nil, fmt.Errorf("%w: no chunker for profile %q", domain.ErrInvalidInput, profile)
	}
	return c, nil
}
