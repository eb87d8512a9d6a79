package domain

// ChunkProfile selects the chunk size and overlap for a kind of source text.
type ChunkProfile string

// Chunk profiles.
const (
	// ProfileDocument is used for text recovered from PDFs and plain text files.
	ProfileDocument ChunkProfile = "document"

	// ProfileOCR is used for text recognised in images.
	ProfileOCR ChunkProfile = "ocr"
)

// Default chunking parameters in characters.
const (
	DocumentChunkSize    = 1000
	DocumentChunkOverlap = 200
	OCRChunkSize         = 800
	OCRChunkOverlap      = 80
)

// Metadata keys attached to every indexed chunk.
const (
	MetaSource      = "source"
	MetaUser        = "user"
	MetaPage        = "page"
	MetaDocumentKey = "document_key"
	MetaFileType    = "file_type"
	MetaPosition    = "position"
)

// ExtractedText is the output of a format-specific extractor.
type ExtractedText struct {
	// FullText is the whole document text, stored on the report record.
	FullText string

	// Segments carry provenance. PDFs produce one segment per page;
	// other formats produce a single segment.
	Segments []Segment

	// Profile selects how segments are chunked.
	Profile ChunkProfile
}

// Segment is a span of extracted text sharing the same provenance.
type Segment struct {
	Text     string
	Metadata map[string]any
}

// Chunk is a bounded text fragment, the unit of embedding and retrieval.
type Chunk struct {
	// ID is deterministic for a given document key and position.
	ID string

	// DocumentKey is the content hash of the report the chunk came from.
	DocumentKey string

	Content  string
	Position int
	Metadata map[string]any
}

// User returns the owning user recorded in the chunk metadata.
func (c Chunk) User() string {
	s, _ := c.Metadata[MetaUser].(string)
	return s
}

// Source returns the file name recorded in the chunk metadata.
func (c Chunk) Source() string {
	s, _ := c.Metadata[MetaSource].(string)
	return s
}

// IndexedChunk pairs a chunk with its embedding.
type IndexedChunk struct {
	Chunk     Chunk
	Embedding []float32
}

// ChunkHit is a chunk returned by a similarity search.
type ChunkHit struct {
	Chunk Chunk

	// Score is the cosine similarity to the query, higher is closer.
	Score float64
}
