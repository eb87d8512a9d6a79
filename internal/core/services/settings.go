package services

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
	"github.com/custodia-labs/healthlens/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider        = "llm.provider"
	keyLLMBaseURL         = "llm.base_url"
	keyLLMAPIKey          = "llm.api_key"
	keyLLMQueryModel      = "llm.query_model"
	keyLLMSuggestionModel = "llm.suggestion_model"
	keyLLMExtractionModel = "llm.extraction_model"
	keyLLMRPM             = "llm.requests_per_minute"
	keyLLMTimeout         = "llm.timeout"
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedBaseURL       = "embedding.base_url"
	keyEmbedAPIKey        = "embedding.api_key"
	keyEmbedDimensions    = "embedding.dimensions"
	keyVectorBackend      = "vector.backend"
	keyVectorURL          = "vector.url"
	keyVectorAPIKey       = "vector.api_key"
	keyVectorCollection   = "vector.collection"
	keyVectorPath         = "vector.path"
	keyStoreBackend       = "store.backend"
	keyStoreDataDir       = "store.data_dir"
	keyStoreMongoURI      = "store.mongo_uri"
	keyStoreMongoDatabase = "store.mongo_database"
	keyStoreMongoColl     = "store.mongo_collection"
	keyChunkDocSize       = "chunking.document_size"
	keyChunkDocOverlap    = "chunking.document_overlap"
	keyChunkOCRSize       = "chunking.ocr_size"
	keyChunkOCROverlap    = "chunking.ocr_overlap"
	keyServerAddr         = "server.addr"
)

// Environment variables that override stored configuration.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenRouterKey = "OPENROUTER_API_KEY"
	EnvVectorURL     = "VECTORDB_URL"
	EnvQdrantKey     = "QDRANT_API_KEY"
	EnvMongoURI      = "MONGO_URI"
	EnvUser          = "HEALTHLENS_USER"
)

var intKeys = []string{
	keyLLMRPM, keyEmbedDimensions,
	keyChunkDocSize, keyChunkDocOverlap, keyChunkOCRSize, keyChunkOCROverlap,
}

// SettingsService manages application settings.
// Stored values are read from the config store; environment variables win.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service reading the process environment.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
}

// WithEnv replaces the environment lookup. Used by tests.
func (s *SettingsService) WithEnv(lookup func(string) (string, bool)) *SettingsService {
	s.lookupEnv = lookup
	return s
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, d.LLM.Provider),
			BaseURL:           s.getString(keyLLMBaseURL, d.LLM.BaseURL),
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			QueryModel:        s.getString(keyLLMQueryModel, d.LLM.QueryModel),
			SuggestionModel:   s.getString(keyLLMSuggestionModel, d.LLM.SuggestionModel),
			ExtractionModel:   s.getString(keyLLMExtractionModel, d.LLM.ExtractionModel),
			RequestsPerMinute: s.getInt(keyLLMRPM, d.LLM.RequestsPerMinute),
			Timeout:           s.getDuration(keyLLMTimeout, d.LLM.Timeout),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty uses the provider default
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.configStore.GetInt(keyEmbedDimensions),
		},
		Vector: domain.VectorSettings{
			Backend:    domain.VectorBackend(s.getString(keyVectorBackend, string(d.Vector.Backend))),
			URL:        s.getString(keyVectorURL, d.Vector.URL),
			APIKey:     s.configStore.GetString(keyVectorAPIKey),
			Collection: s.getString(keyVectorCollection, d.Vector.Collection),
			Path:       s.configStore.GetString(keyVectorPath),
		},
		Store: domain.StoreSettings{
			Backend:         domain.StoreBackend(s.getString(keyStoreBackend, string(d.Store.Backend))),
			DataDir:         s.configStore.GetString(keyStoreDataDir),
			MongoURI:        s.configStore.GetString(keyStoreMongoURI),
			MongoDatabase:   s.getString(keyStoreMongoDatabase, d.Store.MongoDatabase),
			MongoCollection: s.getString(keyStoreMongoColl, d.Store.MongoCollection),
		},
		Chunking: domain.ChunkingSettings{
			DocumentSize:    s.getInt(keyChunkDocSize, d.Chunking.DocumentSize),
			DocumentOverlap: s.getInt(keyChunkDocOverlap, d.Chunking.DocumentOverlap),
			OCRSize:         s.getInt(keyChunkOCRSize, d.Chunking.OCRSize),
			OCROverlap:      s.getInt(keyChunkOCROverlap, d.Chunking.OCROverlap),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, d.Server.Addr),
		},
	}

	// Embedding model default depends on the chosen provider.
	settings.Embedding.Model = s.getString(keyEmbedModel,
		domain.DefaultEmbeddingModels()[settings.Embedding.Provider])

	s.applyEnv(settings)

	if !settings.Vector.Backend.IsValid() {
		return nil, fmt.Errorf("%w: vector.backend %q", domain.ErrInvalidInput, settings.Vector.Backend)
	}
	if !settings.Store.Backend.IsValid() {
		return nil, fmt.Errorf("%w: store.backend %q", domain.ErrInvalidInput, settings.Store.Backend)
	}

	return settings, nil
}

// applyEnv overlays environment variables onto settings.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if v, ok := s.env(EnvOpenRouterKey); ok {
		settings.LLM.APIKey = v
	}
	if v, ok := s.env(EnvOpenAIKey); ok {
		settings.LLM.APIKey = v
		if settings.Embedding.Provider == domain.AIProviderOpenAI && settings.Embedding.APIKey == "" {
			settings.Embedding.APIKey = v
		}
	}
	if v, ok := s.env(EnvVectorURL); ok {
		settings.Vector.URL = v
	}
	if v, ok := s.env(EnvQdrantKey); ok {
		settings.Vector.APIKey = v
	}
	if v, ok := s.env(EnvMongoURI); ok {
		settings.Store.MongoURI = v
	}
}

func (s *SettingsService) env(key string) (string, bool) {
	if s.lookupEnv == nil {
		return "", false
	}
	v, ok := s.lookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Set validates and stores a single configuration key.
func (s *SettingsService) Set(key, value string) error {
	if !slices.Contains(s.Keys(), key) {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	switch {
	case slices.Contains(intKeys, key):
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		return s.configStore.Set(key, int64(n))
	case key == keyLLMTimeout:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w: %s must be a duration: %w", domain.ErrInvalidInput, key, err)
		}
	case key == keyLLMProvider || key == keyEmbedProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
	case key == keyVectorBackend:
		if !domain.VectorBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown vector backend %q", domain.ErrInvalidInput, value)
		}
	case key == keyStoreBackend:
		if !domain.StoreBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, value)
		}
	}

	return s.configStore.Set(key, value)
}

// Keys returns every recognised configuration key in display order.
func (s *SettingsService) Keys() []string {
	return []string{
		keyLLMProvider, keyLLMBaseURL, keyLLMAPIKey,
		keyLLMQueryModel, keyLLMSuggestionModel, keyLLMExtractionModel,
		keyLLMRPM, keyLLMTimeout,
		keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey, keyEmbedDimensions,
		keyVectorBackend, keyVectorURL, keyVectorAPIKey, keyVectorCollection, keyVectorPath,
		keyStoreBackend, keyStoreDataDir, keyStoreMongoURI, keyStoreMongoDatabase, keyStoreMongoColl,
		keyChunkDocSize, keyChunkDocOverlap, keyChunkOCRSize, keyChunkOCROverlap,
		keyServerAddr,
	}
}

// IsSecretKey reports whether a key holds a credential that should be masked.
func IsSecretKey(key string) bool {
	return key == keyLLMAPIKey || key == keyEmbedAPIKey || key == keyVectorAPIKey || key == keyStoreMongoURI
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
