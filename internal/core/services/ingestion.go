package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
	"github.com/custodia-labs/healthlens/internal/core/ports/driving"
	"github.com/custodia-labs/healthlens/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// embedBatchSize is the number of chunks embedded per provider call.
const embedBatchSize = 32

// IngestionService turns an uploaded report into indexed chunks and a
// stored record. Nothing is committed until extraction, embedding and
// structured parsing have all succeeded.
type IngestionService struct {
	extractors driven.ExtractorRegistry
	chunkers   driven.ChunkerSet
	embedder   driven.EmbeddingService
	vectors    driven.VectorIndex
	structured driven.StructuredExtractor
	store      driven.ReportStore
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(
	extractors driven.ExtractorRegistry,
	chunkers driven.ChunkerSet,
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
	structured driven.StructuredExtractor,
	store driven.ReportStore,
) *IngestionService {
	return &IngestionService{
		extractors: extractors,
		chunkers:   chunkers,
		embedder:   embedder,
		vectors:    vectors,
		structured: structured,
		store:      store,
	}
}

// SupportedExtensions returns the extensions that can be ingested.
func (s *IngestionService) SupportedExtensions() []string {
	return s.extractors.Extensions()
}

// IngestFile reads path from disk and ingests it for user.
func (s *IngestionService) IngestFile(ctx context.Context, user, path string) (*domain.IngestResult, error) {
	if !domain.IsSupportedExtension(filepath.Ext(path)) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Base(path))
	}

	content, err := os.ReadFile(path) //nolint:gosec // Path is chosen by the user.
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return s.Ingest(ctx, domain.NewUpload(user, filepath.Base(path), content))
}

// Ingest extracts, chunks, embeds and parses the upload, then commits the
// chunks and the record. Re-ingesting identical text for the same user
// returns the existing record without writing anything.
//
//nolint:gocyclo // Sequential pipeline stages.
func (s *IngestionService) Ingest(ctx context.Context, upload *domain.Upload) (*domain.IngestResult, error) {
	if upload == nil {
		return nil, fmt.Errorf("%w: no upload", domain.ErrInvalidInput)
	}
	user := strings.TrimSpace(upload.User)
	if user == "" {
		return nil, fmt.Errorf("%w: user is required", domain.ErrInvalidInput)
	}

	logger.Section("Ingest " + upload.FileName)

	// 1. Extract
	extractor, err := s.extractors.Get(upload.Extension)
	if err != nil {
		return nil, err
	}
	logger.Debug("Extractor: %s", extractor.Name())

	extracted, err := extractor.Extract(ctx, upload)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", upload.FileName, err)
	}
	if strings.TrimSpace(extracted.FullText) == "" {
		return nil, fmt.Errorf("%w: no text found in %s", domain.ErrInvalidInput, upload.FileName)
	}

	// 2. Deduplicate on the content hash
	hash := domain.ContentHash(user, extracted.FullText)
	existing, err := s.store.FindByHash(ctx, user, hash)
	switch {
	case err == nil:
		logger.Info("Report %s already ingested as %s", upload.FileName, existing.ID)
		return &domain.IngestResult{Record: existing, Duplicate: true}, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("check existing report: %w", err)
	}

	// 3. Chunk
	for i := range extracted.Segments {
		seg := &extracted.Segments[i]
		if seg.Metadata == nil {
			seg.Metadata = make(map[string]any)
		}
		seg.Metadata[domain.MetaUser] = user
		seg.Metadata[domain.MetaDocumentKey] = hash
		seg.Metadata[domain.MetaFileType] = upload.Extension
		if _, ok := seg.Metadata[domain.MetaSource]; !ok {
			seg.Metadata[domain.MetaSource] = upload.FileName
		}
	}

	chunker, err := s.chunkers.For(extracted.Profile)
	if err != nil {
		return nil, err
	}
	chunks, err := chunker.Process(ctx, extracted)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", upload.FileName, err)
	}
	logger.Debug("Chunks: %d (profile %s)", len(chunks), extracted.Profile)

	// 4. Embed into a buffer
	indexed, err := s.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	// 5. Structured extraction
	parsed, err := s.structured.Extract(ctx, extracted.FullText)
	if err != nil {
		return nil, fmt.Errorf("structured extraction: %w", err)
	}

	// 6. Commit chunks
	outcome, err := s.vectors.EnsureIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("ensure index: %w", err)
	}
	if outcome == domain.IndexAlreadyPresent {
		logger.Debug("User index already present")
	} else {
		logger.Info("Created user index")
	}

	if err := s.vectors.Upsert(ctx, indexed); err != nil {
		return nil, fmt.Errorf("index chunks: %w", err)
	}

	// 7. Commit record
	record := &domain.ReportRecord{
		User:        user,
		FileName:    upload.FileName,
		FileType:    upload.Extension,
		ContentHash: hash,
		RawText:     extracted.FullText,
		ParsedData:  parsed,
	}
	if err := s.store.Insert(ctx, record); err != nil {
		// A concurrent ingestion of the same text won the insert.
		if errors.Is(err, domain.ErrDuplicate) {
			if existing, findErr := s.store.FindByHash(ctx, user, hash); findErr == nil {
				return &domain.IngestResult{Record: existing, Duplicate: true}, nil
			}
		}
		return nil, fmt.Errorf("store report: %w", err)
	}

	logger.Info("Ingested %s: %d chunks, record %s", upload.FileName, len(indexed), record.ID)

	return &domain.IngestResult{
		Record:       record,
		Chunks:       len(indexed),
		IndexOutcome: outcome,
	}, nil
}

// embed embeds chunks in batches, returning them paired with their vectors.
func (s *IngestionService) embed(ctx context.Context, chunks []domain.Chunk) ([]domain.IndexedChunk, error) {
	indexed := make([]domain.IndexedChunk, 0, len(chunks))

	for start := 0; start < len(chunks); start += embedBatchSize {
		batch := chunks[start:min(start+embedBatchSize, len(chunks))]
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d chunks",
				domain.ErrEmbeddingUnavailable, len(vectors), len(batch))
		}

		for i, c := range batch {
			indexed = append(indexed, domain.IndexedChunk{Chunk: c, Embedding: vectors[i]})
		}
	}

	return indexed, nil
}
