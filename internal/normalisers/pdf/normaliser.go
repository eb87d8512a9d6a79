// Package pdf extracts report text from PDF files using pdftotext (poppler).
package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
	"github.com/custodia-labs/healthlens/internal/normalisers/command"
)

// Ensure Normaliser implements the interface.
var _ driven.TextExtractor = (*Normaliser)(nil)

const toolName = "pdftotext"

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// Normaliser extracts text page by page.
type Normaliser struct {
	runner    command.Runner
	lookupErr func() error
}

// New creates a PDF extractor that runs the real pdftotext binary.
func New() *Normaliser {
	return &Normaliser{runner: command.ExecRunner{}, lookupErr: CheckAvailable}
}

// NewWithRunner creates a PDF extractor with an injected runner.
// The PATH check is skipped; the runner stands in for the tool.
func NewWithRunner(runner command.Runner) *Normaliser {
	return &Normaliser{runner: runner, lookupErr: func() error { return nil }}
}

// Name returns the extractor name.
func (n *Normaliser) Name() string { return "pdf" }

// SupportedExtensions returns the extensions this extractor handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{"pdf"}
}

// CheckAvailable returns ErrPDFToolNotFound if pdftotext is missing.
func CheckAvailable() error {
	if !command.Available(toolName) {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions describes how to install pdftotext.
func InstallInstructions() string {
	return `pdftotext is required to read PDF reports.
  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils`
}

// Extract runs pdftotext and returns one segment per page.
// pdftotext separates pages with form feeds.
func (n *Normaliser) Extract(ctx context.Context, upload *domain.Upload) (*domain.ExtractedText, error) {
	if upload == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := n.lookupErr(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractorUnavailable, err)
	}

	var out []byte
	err := command.WithTempFile(upload.Content, "pdf", func(path string) error {
		var runErr error
		out, runErr = n.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", path, "-")
		return runErr
	})
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	return splitPages(string(out), upload.FileName), nil
}

func splitPages(out, fileName string) *domain.ExtractedText {
	pages := strings.Split(out, "\f")
	// A trailing form feed leaves an empty final element.
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}

	result := &domain.ExtractedText{Profile: domain.ProfileDocument}
	texts := make([]string, 0, len(pages))

	for i, page := range pages {
		page = strings.TrimRight(page, " \n")
		texts = append(texts, page)
		result.Segments = append(result.Segments, domain.Segment{
			Text: page,
			Metadata: map[string]any{
				domain.MetaSource: fileName,
				domain.MetaPage:   i + 1,
			},
		})
	}

	result.FullText = strings.Join(texts, "\n\n")
	return result
}
