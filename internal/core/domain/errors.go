package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a report with the same content already exists for the user.
	ErrDuplicate = errors.New("duplicate report")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Pipeline Errors.

	// ErrUnsupportedFormat indicates the file extension has no extractor.
	// Ingestion aborts before anything is persisted.
	ErrUnsupportedFormat = errors.New("file type not supported")

	// ErrExtractionParse indicates the structured extraction reply was not
	// a JSON object matching the lab parameter schema.
	ErrExtractionParse = errors.New("structured extraction parse error")

	// ErrGeneration indicates the chat model call failed during a query or suggestion.
	ErrGeneration = errors.New("generation failed")

	// ErrExtractorUnavailable indicates the external text extraction tool is missing.
	ErrExtractorUnavailable = errors.New("text extractor unavailable")

	// Provider Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index backend cannot be reached.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
