// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - TextExtractor: Turns an uploaded file into text (PDF, image OCR, plain text)
//   - ExtractorRegistry: Selects the extractor for a file extension
//   - Chunker: Splits extracted text into overlapping chunks
//   - EmbeddingService: Generates vector embeddings
//   - VectorIndex: User-scoped chunk storage and similarity search
//   - LLMService: Single-turn chat completions
//   - StructuredExtractor: Turns report text into lab parameters
//   - ReportStore: Report record persistence
//   - ConfigStore: Application configuration
//   - PromptStore: Prompt templates
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
