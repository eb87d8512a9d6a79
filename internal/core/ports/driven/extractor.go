package driven

import (
	"context"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

// TextExtractor converts an uploaded file into plain text.
// Each extractor handles specific file extensions (e.g., pdf, png).
type TextExtractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// SupportedExtensions returns lower-case extensions without dots.
	SupportedExtensions() []string

	// Extract returns the full text and its provenance segments.
	Extract(ctx context.Context, upload *domain.Upload) (*domain.ExtractedText, error)
}

// ExtractorRegistry selects the extractor for a file extension.
type ExtractorRegistry interface {
	// Get returns the extractor for ext. Unknown extensions return ErrUnsupportedFormat.
	Get(ext string) (TextExtractor, error)

	// Extensions returns every registered extension.
	Extensions() []string
}

// StructuredExtractor turns raw report text into the closed lab parameter record.
type StructuredExtractor interface {
	// Extract returns the parsed record. A reply that is not a JSON object
	// matching the schema is ErrExtractionParse.
	Extract(ctx context.Context, rawText string) (*domain.ParsedData, error)
}
