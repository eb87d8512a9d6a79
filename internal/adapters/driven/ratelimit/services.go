package ratelimit

import (
	"context"

	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

// Ensure decorators implement the interfaces.
var (
	_ driven.LLMService       = (*LLMService)(nil)
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
)

// LLMService limits calls to an inner LLM service.
type LLMService struct {
	inner   driven.LLMService
	limiter *Limiter
}

// NewLLMService wraps inner with limiter.
func NewLLMService(inner driven.LLMService, limiter *Limiter) *LLMService {
	return &LLMService{inner: inner, limiter: limiter}
}

// Complete waits for the limiter, then calls the inner service once.
func (s *LLMService) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	out, err := s.inner.Complete(ctx, req)
	s.limiter.Observe(err)
	return out, err
}

// ModelName returns the inner model name.
func (s *LLMService) ModelName() string { return s.inner.ModelName() }

// Ping is not rate limited.
func (s *LLMService) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }

// Close closes the inner service.
func (s *LLMService) Close() error { return s.inner.Close() }

// EmbeddingService limits calls to an inner embedding service.
type EmbeddingService struct {
	inner   driven.EmbeddingService
	limiter *Limiter
}

// NewEmbeddingService wraps inner with limiter.
func NewEmbeddingService(inner driven.EmbeddingService, limiter *Limiter) *EmbeddingService {
	return &EmbeddingService{inner: inner, limiter: limiter}
}

// Embed waits for the limiter, then embeds one text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := s.inner.Embed(ctx, text)
	s.limiter.Observe(err)
	return out, err
}

// EmbedBatch takes one token for the whole batch.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := s.inner.EmbedBatch(ctx, texts)
	s.limiter.Observe(err)
	return out, err
}

// Dimensions returns the inner vector size.
func (s *EmbeddingService) Dimensions() int { return s.inner.Dimensions() }

// ModelName returns the inner model name.
func (s *EmbeddingService) ModelName() string { return s.inner.ModelName() }

// Ping is not rate limited.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }

// Close closes the inner service.
func (s *EmbeddingService) Close() error { return s.inner.Close() }
