package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLLMSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings LLMSettings
		expected bool
	}{
		{"openai with key", LLMSettings{Provider: AIProviderOpenAI, APIKey: "sk-or-test"}, true},
		{"openai without key", LLMSettings{Provider: AIProviderOpenAI}, false},
		{"ollama without key", LLMSettings{Provider: AIProviderOllama}, true},
		{"invalid provider", LLMSettings{Provider: AIProvider("anthropic"), APIKey: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.True(t, EmbeddingSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "k"}.IsConfigured())
	assert.False(t, EmbeddingSettings{}.IsConfigured())
}

func TestChunkingSettings_ForProfile(t *testing.T) {
	c := DefaultAppSettings().Chunking

	size, overlap := c.ForProfile(ProfileDocument)
	assert.Equal(t, 1000, size)
	assert.Equal(t, 200, overlap)

	size, overlap = c.ForProfile(ProfileOCR)
	assert.Equal(t, 800, size)
	assert.Equal(t, 80, overlap)
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderOpenAI, s.LLM.Provider)
	assert.Equal(t, DefaultLLMBaseURL, s.LLM.BaseURL)
	assert.Equal(t, DefaultQueryModel, s.LLM.QueryModel)
	assert.Equal(t, DefaultSuggestionModel, s.LLM.SuggestionModel)
	assert.False(t, s.LLM.IsConfigured())
	assert.True(t, s.Embedding.IsConfigured())
	assert.Equal(t, VectorBackendBolt, s.Vector.Backend)
	assert.Equal(t, "ai_health_analysis", s.Vector.Collection)
	assert.Equal(t, StoreBackendSQLite, s.Store.Backend)
	assert.Equal(t, "health", s.Store.MongoDatabase)
	assert.Equal(t, "Sources", s.Store.MongoCollection)
}

func TestBackends_IsValid(t *testing.T) {
	assert.True(t, VectorBackendQdrant.IsValid())
	assert.False(t, VectorBackend("hnsw").IsValid())
	assert.True(t, StoreBackendMongo.IsValid())
	assert.False(t, StoreBackend("postgres").IsValid())
}
