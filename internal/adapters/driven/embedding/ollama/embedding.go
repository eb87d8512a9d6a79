// Package ollama embeds text with a local Ollama model.
package ollama

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/healthlens/internal/adapters/driven/apiclient"
	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "nomic-embed-text"
	DefaultTimeout = 60 * time.Second

	// MaxBatchSize caps the inputs per /api/embed call.
	MaxBatchSize = 100

	fallbackDimensions = 768
)

// Config configures EmbeddingService. Zero fields take the defaults above.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions overrides the vector size known for Model.
	Dimensions int
}

// EmbeddingService calls the batch /api/embed endpoint.
type EmbeddingService struct {
	api        *apiclient.Client
	model      string
	dimensions int
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func NewEmbeddingService(cfg Config) *EmbeddingService {
	model := cmp.Or(cfg.Model, DefaultModel)
	dims := cfg.Dimensions
	if dims == 0 {
		dims = fallbackDimensions
		if known, ok := domain.EmbeddingDimensions()[model]; ok {
			dims = known
		}
	}

	return &EmbeddingService{
		api: apiclient.New(apiclient.Options{
			Provider:     "ollama",
			BaseURL:      cmp.Or(cfg.BaseURL, DefaultBaseURL),
			Timeout:      cmp.Or(cfg.Timeout, DefaultTimeout),
			Unavailable:  domain.ErrEmbeddingUnavailable,
			ErrorMessage: apiclient.OllamaError,
		}),
		model:      model,
		dimensions: dims,
	}
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors := make([][]float32, 0, len(texts))
	for len(texts) > 0 {
		n := min(MaxBatchSize, len(texts))
		var resp embedResponse
		if err := s.api.Post(ctx, "/api/embed", embedRequest{Model: s.model, Input: texts[:n]}, &resp); err != nil {
			return nil, err
		}
		if len(resp.Embeddings) != n {
			return nil, fmt.Errorf("%w: got %d embeddings for %d inputs",
				domain.ErrEmbeddingUnavailable, len(resp.Embeddings), n)
		}
		vectors = append(vectors, resp.Embeddings...)
		texts = texts[n:]
	}
	return vectors, nil
}

func (s *EmbeddingService) Dimensions() int   { return s.dimensions }
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping hits /api/tags, which needs no model loaded.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/api/tags")
}

func (s *EmbeddingService) Close() error { return nil }
