// Package logger provides levelled logging for healthlens.
// Debug and Info messages, and section headers, are printed only in verbose
// mode. Warnings and errors are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects every level. The default is os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// TeeToFile duplicates log output into the file at path, appending.
// The returned closer restores the previous output and closes the file.
func TeeToFile(path string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	mu.Lock()
	prev := output
	output = io.MultiWriter(prev, f)
	mu.Unlock()

	return &tee{file: f, prev: prev}, nil
}

type tee struct {
	file *os.File
	prev io.Writer
	once sync.Once
}

func (t *tee) Close() error {
	var err error
	t.once.Do(func() {
		SetOutput(t.prev)
		err = t.file.Close()
	})
	return err
}

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

var prefixes = [...]string{
	levelDebug: "[DEBUG] ",
	levelInfo:  "[INFO] ",
	levelWarn:  "[WARN] ",
	levelError: "[ERROR] ",
}

// logf drops debug and info lines unless verbose is set.
func logf(lvl level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if lvl < levelWarn && !verbose {
		return
	}
	fmt.Fprintf(output, prefixes[lvl]+format+"\n", args...)
}

// Debug prints a diagnostic line in verbose mode.
func Debug(format string, args ...any) { logf(levelDebug, format, args...) }

// Info prints a progress line in verbose mode.
func Info(format string, args ...any) { logf(levelInfo, format, args...) }

// Warn prints a recoverable problem regardless of verbosity.
func Warn(format string, args ...any) { logf(levelWarn, format, args...) }

// Error prints a failure regardless of verbosity.
func Error(format string, args ...any) { logf(levelError, format, args...) }

// Section marks the start of a pipeline stage in verbose output.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
