// Package ai provides factory functions for creating the model service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/healthlens/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/healthlens/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/custodia-labs/healthlens/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/healthlens/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/healthlens/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the embedding service for the configured provider.
// limiter may be nil.
func CreateEmbeddingService(settings domain.EmbeddingSettings, limiter *ratelimit.Limiter) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: provider %q is not configured. Run 'healthlens settings set-key embedding.api_key'",
			domain.ErrEmbeddingUnavailable, settings.Provider)
	}

	var svc driven.EmbeddingService
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderOpenAI:
		openai, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		svc = openai

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}

	if limiter != nil {
		svc = ratelimit.NewEmbeddingService(svc, limiter)
	}
	return svc, nil
}

// CreateLLMService creates the chat service for the configured provider,
// limited to settings.RequestsPerMinute. The query model is the default.
func CreateLLMService(settings domain.LLMSettings) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: provider %q is not configured. Run 'healthlens settings set-key llm.api_key'",
			domain.ErrLLMUnavailable, settings.Provider)
	}

	var svc driven.LLMService
	switch settings.Provider {
	case domain.AIProviderOllama:
		baseURL := settings.BaseURL
		if baseURL == domain.DefaultLLMBaseURL {
			baseURL = ""
		}
		svc = ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: baseURL,
			Model:   settings.QueryModel,
			Timeout: settings.Timeout,
		})

	case domain.AIProviderOpenAI:
		openai, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.QueryModel,
			Timeout: settings.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
		}
		svc = openai

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}

	return ratelimit.NewLLMService(svc, ratelimit.NewLimiter(settings.RequestsPerMinute)), nil
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
func ValidateEmbeddingConfig(ctx context.Context, settings domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig creates an LLM service and pings it.
func ValidateLLMConfig(ctx context.Context, settings domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
