// Package command runs the external text extraction tools (pdftotext,
// tesseract) that the PDF and image extractors shell out to.
package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Runner executes an external command and returns its standard output.
// Extractors accept a Runner so tests can replace the real tool.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes the command, including stderr in the error on failure.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", err, exitErr.Stderr)
		}
		return nil, err
	}
	return out, nil
}

// Available reports whether the named tool is on PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// WithTempFile writes content to a temporary file with the given extension,
// calls fn with its path and removes the file afterwards.
func WithTempFile(content []byte, ext string, fn func(path string) error) error {
	f, err := os.CreateTemp("", "healthlens-*."+ext)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path) //nolint:errcheck // Best-effort cleanup.

	if _, err := f.Write(content); err != nil {
		f.Close() //nolint:errcheck,gosec // Closing after a failed write.
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	return fn(path)
}
