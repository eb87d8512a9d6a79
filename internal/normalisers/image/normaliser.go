// Package image extracts report text from photographed or scanned reports
// using the tesseract OCR engine.
package image

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

const toolName = "tesseract"

// DefaultLanguage is the tesseract language pack used for recognition.
const DefaultLanguage = "eng"

// ErrOCRToolNotFound indicates tesseract is not installed.
var ErrOCRToolNotFound = errors.New("tesseract not found in PATH")

// Normaliser recognises text lines in an image.
type Normaliser struct {
	runner    command.Runner
	lookupErr func() error
	language  string
}

// New creates an OCR extractor that runs the real tesseract binary.
func New() *Normaliser {
	return &Normaliser{runner: command.ExecRunner{}, lookupErr: CheckAvailable, language: DefaultLanguage}
}

// NewWithRunner creates an OCR extractor with an injected runner.
func NewWithRunner(runner command.Runner) *Normaliser {
	return &Normaliser{runner: runner, lookupErr: func() error { return nil }, language: DefaultLanguage}
}

// Name returns the extractor name.
func (n *Normaliser) Name() string { return "ocr" }

// SupportedExtensions returns the extensions this extractor handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{"jpg", "jpeg", "png"}
}

// CheckAvailable returns ErrOCRToolNotFound if tesseract is missing.
func CheckAvailable() error {
	if !command.Available(toolName) {
		return ErrOCRToolNotFound
	}
	return nil
}

// InstallInstructions describes how to install tesseract.
func InstallInstructions() string {
	return `tesseract is required to read image reports.
  macOS:          brew install tesseract
  Debian/Ubuntu:  apt install tesseract-ocr`
}

// Extract runs OCR and joins the detected lines with newlines.
// Images carry no finer provenance than the file name.
func (n *Normaliser) Extract(ctx context.Context, upload *domain.Upload) (*domain.ExtractedText, error) {
	if upload == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := n.lookupErr(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractorUnavailable, err)
	}

	var out []byte
	err := command.WithTempFile(upload.Content, upload.Extension, func(path string) error {
		var runErr error
		out, runErr = n.runner.Run(ctx, toolName, path, "stdout", "-l", n.language)
		return runErr
	})
	if err != nil {
		return nil, fmt.Errorf("tesseract failed: %w", err)
	}

	text := strings.Join(lines(string(out)), "\n")

	return &domain.ExtractedText{
		FullText: text,
		Profile:  domain.ProfileOCR,
		Segments: []domain.Segment{{
			Text:     text,
			Metadata: map[string]any{domain.MetaSource: upload.FileName},
		}},
	}, nil
}

// lines returns the non-blank recognised lines, trimmed.
func lines(out string) []string {
	var result []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.ReplaceAll(line, "\f", ""))
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}
