package normalisers

import (
	"fmt"
	"slices"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
	"github.com/custodia-labs/healthlens/internal/normalisers/image"
	"github.com/custodia-labs/healthlens/internal/normalisers/pdf"
	"github.com/custodia-labs/healthlens/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps file extensions to extractors.
type Registry struct {
	byExt map[string]driven.TextExtractor
}

// NewRegistry creates a registry holding the given extractors.
// A later extractor claiming the same extension replaces an earlier one.
func NewRegistry(extractors ...driven.TextExtractor) *Registry {
	r := &Registry{byExt: make(map[string]driven.TextExtractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// NewDefaultRegistry registers the PDF, OCR and plain text extractors.
func NewDefaultRegistry() *Registry {
	return NewRegistry(pdf.New(), image.New(), plaintext.New())
}

// Register adds an extractor for each of its extensions.
func (r *Registry) Register(e driven.TextExtractor) {
	for _, ext := range e.SupportedExtensions() {
		r.byExt[domain.NormaliseExtension(ext)] = e
	}
}

// Get returns the extractor for ext.
func (r *Registry) Get(ext string) (driven.TextExtractor, error) {
	e, ok := r.byExt[domain.NormaliseExtension(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
	return e, nil
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}
