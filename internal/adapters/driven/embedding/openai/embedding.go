// Package openai embeds text through an OpenAI-compatible /embeddings API.
package openai

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/healthlens/internal/adapters/driven/apiclient"
	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// MaxBatchSize caps the inputs per request.
	MaxBatchSize = 100

	fallbackDimensions = 1536
)

// Config configures EmbeddingService. APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions overrides the size known for Model. It is only sent
	// to the API for text-embedding-3-* models, which support truncation.
	Dimensions int

	HTTPClient *http.Client
}

// EmbeddingService turns report chunks and queries into vectors.
type EmbeddingService struct {
	api        *apiclient.Client
	model      string
	dimensions int
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	model := cmp.Or(cfg.Model, DefaultModel)

	dims := cfg.Dimensions
	if dims == 0 {
		known, ok := domain.EmbeddingDimensions()[model]
		dims = fallbackDimensions
		if ok {
			dims = known
		}
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)

	return &EmbeddingService{
		api: apiclient.New(apiclient.Options{
			Provider:     "openai",
			BaseURL:      cmp.Or(cfg.BaseURL, DefaultBaseURL),
			Timeout:      cmp.Or(cfg.Timeout, DefaultTimeout),
			Header:       header,
			Unavailable:  domain.ErrEmbeddingUnavailable,
			ErrorMessage: apiclient.OpenAIError,
			HTTPClient:   cfg.HTTPClient,
		}),
		model:      model,
		dimensions: dims,
	}, nil
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch preserves input order across MaxBatchSize-sized requests.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxBatchSize {
		part, err := s.embed(ctx, texts[start:min(start+MaxBatchSize, len(texts))])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, part...)
	}
	return vectors, nil
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body := embeddingRequest{Model: s.model, Input: texts}
	if strings.HasPrefix(s.model, "text-embedding-3-") {
		body.Dimensions = s.dimensions
	}

	var resp embeddingResponse
	if err := s.api.Post(ctx, "/embeddings", body, &resp); err != nil {
		return nil, err
	}

	// Data may arrive out of order; Index is authoritative.
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", domain.ErrEmbeddingUnavailable, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("%w: no embedding for input %d", domain.ErrEmbeddingUnavailable, i)
		}
	}
	return vectors, nil
}

func (s *EmbeddingService) Dimensions() int   { return s.dimensions }
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping lists /models to verify the key.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/models")
}

func (s *EmbeddingService) Close() error { return nil }
