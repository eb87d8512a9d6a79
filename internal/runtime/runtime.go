// Package runtime builds the clients and services for one command or
// server lifetime and releases them together.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/healthlens/internal/adapters/driven/ai"
	"github.com/custodia-labs/healthlens/internal/adapters/driven/config/file"
	"github.com/custodia-labs/healthlens/internal/adapters/driven/extraction"
	"github.com/custodia-labs/healthlens/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/healthlens/internal/adapters/driven/storage/mongodb"
	"github.com/custodia-labs/healthlens/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/healthlens/internal/adapters/driven/vector/bolt"
	memvector "github.com/custodia-labs/healthlens/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/healthlens/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
	"github.com/custodia-labs/healthlens/internal/core/ports/driving"
	"github.com/custodia-labs/healthlens/internal/core/services"
	"github.com/custodia-labs/healthlens/internal/logger"
	"github.com/custodia-labs/healthlens/internal/normalisers"
	"github.com/custodia-labs/healthlens/internal/postprocessors"
)

// VectorFileName is the bbolt file created in the data directory.
const VectorFileName = "vectors.db"

// Runtime holds the services for one lifetime. Close releases every client.
type Runtime struct {
	Settings domain.AppSettings

	Ingestion  driving.IngestionService
	Query      driving.QueryService
	Suggestion driving.SuggestionService
	Reports    driving.ReportService

	closers []func() error
}

// Option overrides a client that Open would otherwise build from settings.
type Option func(*options)

type options struct {
	embedder   driven.EmbeddingService
	llm        driven.LLMService
	extractors driven.ExtractorRegistry
	prompts    driven.PromptStore
}

// WithEmbedder uses e instead of the configured embedding provider.
func WithEmbedder(e driven.EmbeddingService) Option {
	return func(o *options) { o.embedder = e }
}

// WithLLM uses l instead of the configured chat provider.
func WithLLM(l driven.LLMService) Option {
	return func(o *options) { o.llm = l }
}

// WithExtractors uses r instead of the default extractor registry.
func WithExtractors(r driven.ExtractorRegistry) Option {
	return func(o *options) { o.extractors = r }
}

// WithPrompts uses p instead of the prompt files in the data directory.
func WithPrompts(p driven.PromptStore) Option {
	return func(o *options) { o.prompts = p }
}

// Open builds the report store, vector index, model clients and services.
// If any step fails, everything opened so far is closed.
func Open(ctx context.Context, settings domain.AppSettings, opts ...Option) (*Runtime, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	rt := &Runtime{Settings: settings}
	if err := rt.build(ctx, o); err != nil {
		if cerr := rt.Close(); cerr != nil {
			logger.Warn("closing partial runtime: %v", cerr)
		}
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) build(ctx context.Context, o options) error {
	settings := rt.Settings

	dataDir, err := DataDir(settings.Store)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, settings.Store, dataDir)
	if err != nil {
		return fmt.Errorf("open report store: %w", err)
	}
	rt.onClose(store.Close)

	embedder := o.embedder
	if embedder == nil {
		embedder, err = ai.CreateEmbeddingService(settings.Embedding, nil)
		if err != nil {
			return err
		}
		rt.onClose(embedder.Close)
	}

	vectors, err := openVectorIndex(settings.Vector, dataDir, embedder.Dimensions())
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}
	rt.onClose(vectors.Close)

	llm := o.llm
	if llm == nil {
		llm, err = ai.CreateLLMService(settings.LLM)
		if err != nil {
			return err
		}
		rt.onClose(llm.Close)
	}

	prompts := o.prompts
	if prompts == nil {
		prompts, err = openPrompts(settings.Store, dataDir)
		if err != nil {
			return err
		}
	}

	extractors := o.extractors
	if extractors == nil {
		extractors = normalisers.NewDefaultRegistry()
	}

	chunkerRegistry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(chunkerRegistry)
	chunkers, err := postprocessors.NewChunkerSet(chunkerRegistry, settings.Chunking)
	if err != nil {
		return err
	}

	structured, err := extraction.New(llm, prompts, settings.LLM.ExtractionModel)
	if err != nil {
		return err
	}

	rt.Ingestion = services.NewIngestionService(extractors, chunkers, embedder, vectors, structured, store)
	rt.Query = services.NewQueryService(embedder, vectors, llm, store, prompts, settings.LLM.QueryModel)
	rt.Suggestion = services.NewSuggestionService(llm, store, prompts, settings.LLM.SuggestionModel)
	rt.Reports = services.NewReportService(store)

	logger.Debug("Runtime open: store=%s vector=%s embedding=%s (%d dims)",
		settings.Store.Backend, settings.Vector.Backend, embedder.ModelName(), embedder.Dimensions())
	return nil
}

// Close releases clients in reverse order of opening.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

func (rt *Runtime) onClose(fn func() error) {
	rt.closers = append(rt.closers, fn)
}

// DataDir returns the configured data directory, or ~/.healthlens/data.
func DataDir(settings domain.StoreSettings) (string, error) {
	if settings.DataDir != "" {
		return settings.DataDir, nil
	}
	dir, err := file.DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

// openPrompts uses ~/.healthlens/prompts unless a data directory is configured,
// in which case prompts live beside the data.
func openPrompts(settings domain.StoreSettings, dataDir string) (driven.PromptStore, error) {
	if settings.DataDir == "" {
		return file.NewPromptStore("")
	}
	return file.NewPromptStore(filepath.Join(dataDir, "prompts"))
}

func openStore(ctx context.Context, settings domain.StoreSettings, dataDir string) (driven.ReportStore, error) {
	switch settings.Backend {
	case domain.StoreBackendSQLite, "":
		return sqlite.NewStore(dataDir)
	case domain.StoreBackendMongo:
		return mongodb.Open(ctx, mongodb.Config{
			URI:        settings.MongoURI,
			Database:   settings.MongoDatabase,
			Collection: settings.MongoCollection,
		})
	case domain.StoreBackendMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("%w: store backend %q", domain.ErrInvalidInput, settings.Backend)
	}
}

func openVectorIndex(settings domain.VectorSettings, dataDir string, dimensions int) (driven.VectorIndex, error) {
	switch settings.Backend {
	case domain.VectorBackendBolt, "":
		path := settings.Path
		if path == "" {
			path = filepath.Join(dataDir, VectorFileName)
		}
		return bolt.Open(path, dimensions)
	case domain.VectorBackendQdrant:
		return qdrant.New(qdrant.Config{
			URL:        settings.URL,
			APIKey:     settings.APIKey,
			Collection: settings.Collection,
			Dimensions: dimensions,
		})
	case domain.VectorBackendMemory:
		return memvector.New(), nil
	default:
		return nil, fmt.Errorf("%w: vector backend %q", domain.ErrInvalidInput, settings.Backend)
	}
}
