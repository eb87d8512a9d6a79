package domain

import "time"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is any OpenAI-compatible API, including OpenRouter.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	VectorBackendBolt   VectorBackend = "bolt"
	VectorBackendQdrant VectorBackend = "qdrant"
	VectorBackendMemory VectorBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendBolt, VectorBackendQdrant, VectorBackendMemory:
		return true
	default:
		return false
	}
}

// StoreBackend selects the report store implementation.
type StoreBackend string

// Available report store backends.
const (
	StoreBackendSQLite StoreBackend = "sqlite"
	StoreBackendMongo  StoreBackend = "mongo"
	StoreBackendMemory StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendSQLite, StoreBackendMongo, StoreBackendMemory:
		return true
	default:
		return false
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string
	APIKey  string

	// Dimensions overrides the known dimension for the model.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	return !e.Provider.RequiresAPIKey() || e.APIKey != ""
}

// LLMSettings holds chat model configuration.
// The query, suggestion and extraction calls may each use a different model.
type LLMSettings struct {
	Provider AIProvider
	BaseURL  string
	APIKey   string

	QueryModel      string
	SuggestionModel string
	ExtractionModel string

	// RequestsPerMinute throttles calls to the provider. Zero disables throttling.
	RequestsPerMinute int

	Timeout time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	return !l.Provider.RequiresAPIKey() || l.APIKey != ""
}

// VectorSettings holds vector index configuration.
type VectorSettings struct {
	Backend    VectorBackend
	URL        string
	APIKey     string
	Collection string

	// Path is the bbolt file. Empty places it in the data directory.
	Path string
}

// StoreSettings holds report store configuration.
type StoreSettings struct {
	Backend StoreBackend

	// DataDir holds the sqlite database, the bolt file and prompts.
	DataDir string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// ChunkingSettings holds chunk sizes in characters per profile.
type ChunkingSettings struct {
	DocumentSize    int
	DocumentOverlap int
	OCRSize         int
	OCROverlap      int
}

// ForProfile returns size and overlap for a chunk profile.
func (c ChunkingSettings) ForProfile(p ChunkProfile) (size, overlap int) {
	if p == ProfileOCR {
		return c.OCRSize, c.OCROverlap
	}
	return c.DocumentSize, c.DocumentOverlap
}

// ServerSettings holds the HTTP API configuration.
type ServerSettings struct {
	Addr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	LLM       LLMSettings
	Embedding EmbeddingSettings
	Vector    VectorSettings
	Store     StoreSettings
	Chunking  ChunkingSettings
	Server    ServerSettings
}

// Default model and endpoint values.
const (
	DefaultLLMBaseURL      = "https://openrouter.ai/api/v1"
	DefaultQueryModel      = "nvidia/nemotron-nano-12b-v2-vl:free"
	DefaultSuggestionModel = "meta-llama/llama-3.3-70b-instruct:free"
	DefaultExtractionModel = "meta-llama/llama-3.3-70b-instruct:free"
	DefaultQdrantURL       = "http://localhost:6333"
	DefaultCollection      = "ai_health_analysis"
	DefaultMongoDatabase   = "health"
	DefaultMongoCollection = "Sources"
)

// DefaultAppSettings returns settings with sensible defaults.
// The LLM API key is left empty and must come from config or environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Provider:          AIProviderOpenAI,
			BaseURL:           DefaultLLMBaseURL,
			QueryModel:        DefaultQueryModel,
			SuggestionModel:   DefaultSuggestionModel,
			ExtractionModel:   DefaultExtractionModel,
			RequestsPerMinute: 20,
			Timeout:           120 * time.Second,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    "nomic-embed-text",
		},
		Vector: VectorSettings{
			Backend:    VectorBackendBolt,
			URL:        DefaultQdrantURL,
			Collection: DefaultCollection,
		},
		Store: StoreSettings{
			Backend:         StoreBackendSQLite,
			MongoDatabase:   DefaultMongoDatabase,
			MongoCollection: DefaultMongoCollection,
		},
		Chunking: ChunkingSettings{
			DocumentSize:    DocumentChunkSize,
			DocumentOverlap: DocumentChunkOverlap,
			OCRSize:         OCRChunkSize,
			OCROverlap:      OCRChunkOverlap,
		},
		Server: ServerSettings{
			Addr: ":8080",
		},
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// sentence-transformers via an OpenAI-compatible gateway
		"sentence-transformers/all-mpnet-base-v2": 768,
	}
}
