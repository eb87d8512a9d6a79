// Package chunker provides a sliding-window text chunker that prefers
// natural breakpoints over hard character cuts.
package chunker

import (
	"context"
	"iter"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DocumentChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DocumentChunkOverlap

// separators in order of preference. A chunk ends just after the separator.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune("! "),
	[]rune("? "),
	[]rune(" "),
}

// Processor splits text into chunks of at most chunkSize characters.
// Neighbouring chunks share exactly overlap characters.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the maximum chunk length in characters.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the number of characters shared by neighbouring chunks.
func (p *Processor) Overlap() int { return p.overlap }

// chunkNamespace scopes deterministic chunk IDs.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("healthlens:chunk"))

// ChunkID returns the stable ID of the chunk at position in the document.
func ChunkID(documentKey string, position int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(documentKey+"/"+strconv.Itoa(position))).String()
}

// Process chunks every non-blank segment of text.
// Positions run across segments; segment metadata is copied onto each chunk.
// Segments carrying a document key get deterministic chunk IDs, so
// re-chunking the same document reproduces the same IDs.
func (p *Processor) Process(ctx context.Context, text *domain.ExtractedText) ([]domain.Chunk, error) {
	if text == nil {
		return nil, nil
	}

	var chunks []domain.Chunk
	position := 0

	for _, seg := range text.Segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		for content := range p.Windows(seg.Text) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			meta := copyMetadata(seg.Metadata)
			meta[domain.MetaPosition] = position
			key, _ := meta[domain.MetaDocumentKey].(string)

			id := uuid.New().String()
			if key != "" {
				id = ChunkID(key, position)
			}

			chunks = append(chunks, domain.Chunk{
				ID:          id,
				DocumentKey: key,
				Content:     content,
				Position:    position,
				Metadata:    meta,
			})
			position++
		}
	}

	return chunks, nil
}

// Windows lazily yields the chunks of text.
// Concatenating the first chunk with every later chunk minus its first
// overlap characters reproduces text exactly.
func (p *Processor) Windows(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		runes := []rune(text)
		n := len(runes)
		start := 0

		for start < n {
			end := start + p.chunkSize
			if end >= n {
				end = n
			} else {
				end = p.breakpoint(runes, start, end)
			}

			if !yield(string(runes[start:end])) {
				return
			}
			if end == n {
				return
			}
			start = end - p.overlap
		}
	}
}

// breakpoint picks where a full window should end. Cuts are only accepted in
// the second half of the window and past the overlap, so every step advances.
func (p *Processor) breakpoint(runes []rune, start, end int) int {
	floor := max(start+p.chunkSize/2, start+p.overlap+1)

	for _, sep := range separators {
		if cut := lastCut(runes, floor, end, sep); cut > 0 {
			return cut
		}
	}

	// No breakpoint in range: hard cut.
	return end
}

// lastCut returns the largest i in [floor, end] where runes[:i] ends with sep, or -1.
func lastCut(runes []rune, floor, end int, sep []rune) int {
	for i := end; i >= floor && i >= len(sep); i-- {
		if slices.Equal(runes[i-len(sep):i], sep) {
			return i
		}
	}
	return -1
}

func copyMetadata(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src)+4)
	maps.Copy(dst, src)
	return dst
}
