package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/healthlens/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/healthlens/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name      string
		settings  domain.EmbeddingSettings
		wantModel string
		wantDims  int
		wantErr   error
	}{
		{
			name:      "ollama",
			settings:  domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"},
			wantModel: "nomic-embed-text",
			wantDims:  768,
		},
		{
			name: "openai compatible gateway",
			settings: domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI, APIKey: "k",
				Model: "sentence-transformers/all-mpnet-base-v2", BaseURL: "http://gateway/v1",
			},
			wantModel: "sentence-transformers/all-mpnet-base-v2",
			wantDims:  768,
		},
		{
			name:     "openai without key",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			wantErr:  domain.ErrEmbeddingUnavailable,
		},
		{
			name:     "unknown provider",
			settings: domain.EmbeddingSettings{Provider: "cohere", APIKey: "k"},
			wantErr:  domain.ErrEmbeddingUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings, ratelimit.NewLimiter(0))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.Equal(t, tt.wantDims, svc.Dimensions())
			assert.IsType(t, &ratelimit.EmbeddingService{}, svc)
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	svc, err := CreateLLMService(domain.LLMSettings{
		Provider:   domain.AIProviderOpenAI,
		APIKey:     "or-key",
		QueryModel: domain.DefaultQueryModel,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultQueryModel, svc.ModelName())
	assert.IsType(t, &ratelimit.LLMService{}, svc)

	svc, err = CreateLLMService(domain.LLMSettings{
		Provider:   domain.AIProviderOllama,
		BaseURL:    domain.DefaultLLMBaseURL,
		QueryModel: "llama3.2",
	})
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", svc.ModelName())

	_, err = CreateLLMService(domain.LLMSettings{Provider: domain.AIProviderOpenAI})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestValidateLLMConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" && r.Header.Get("Authorization") == "Bearer good" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	settings := domain.LLMSettings{Provider: domain.AIProviderOpenAI, BaseURL: server.URL, APIKey: "good"}
	assert.NoError(t, ValidateLLMConfig(context.Background(), settings))

	settings.APIKey = "bad"
	assert.ErrorIs(t, ValidateLLMConfig(context.Background(), settings), domain.ErrLLMUnavailable)
}

func TestValidateEmbeddingConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	settings := domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: server.URL}
	assert.NoError(t, ValidateEmbeddingConfig(context.Background(), settings))
}
