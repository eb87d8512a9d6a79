package plaintext

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.TextExtractor = (*Normaliser)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normaliser handles plain text reports.
type Normaliser struct{}

// New creates a new plain text extractor.
func New() *Normaliser {
	return &Normaliser{}
}

// Name returns the extractor name.
func (n *Normaliser) Name() string { return "plaintext" }

// SupportedExtensions returns the extensions this extractor handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{"txt"}
}

// Extract passes the content through as a single segment.
// Line endings are normalised and invalid UTF-8 is replaced.
func (n *Normaliser) Extract(_ context.Context, upload *domain.Upload) (*domain.ExtractedText, error) {
	if upload == nil {
		return nil, domain.ErrInvalidInput
	}

	content := bytes.TrimPrefix(upload.Content, utf8BOM)
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	return &domain.ExtractedText{
		FullText: text,
		Profile:  domain.ProfileDocument,
		Segments: []domain.Segment{{
			Text:     text,
			Metadata: map[string]any{domain.MetaSource: upload.FileName},
		}},
	}, nil
}
