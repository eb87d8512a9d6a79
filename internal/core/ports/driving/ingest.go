package driving

import (
	"context"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

// IngestionService ingests uploaded report files for a user.
type IngestionService interface {
	// Ingest extracts, indexes and stores one uploaded file.
	Ingest(ctx context.Context, upload *domain.Upload) (*domain.IngestResult, error)

	// IngestFile reads a file from disk and ingests it for user.
	IngestFile(ctx context.Context, user, path string) (*domain.IngestResult, error)

	// SupportedExtensions returns the extensions that can be ingested.
	SupportedExtensions() []string
}
