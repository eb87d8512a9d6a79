package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults
var defaultFS embed.FS

const promptExt = ".txt"

// defaultPrompts maps prompt names to the shipped templates in defaults/.
var defaultPrompts = mustReadDefaults()

func mustReadDefaults() map[string]string {
	entries, err := defaultFS.ReadDir("defaults")
	if err != nil {
		panic(err)
	}
	prompts := make(map[string]string)
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), promptExt)
		if !ok {
			continue
		}
		raw, err := defaultFS.ReadFile(path.Join("defaults", e.Name()))
		if err != nil {
			panic(err)
		}
		prompts[name] = strings.TrimSpace(string(raw))
	}
	return prompts
}

// PromptStore serves prompt templates from a directory the user may edit.
// The directory is seeded with the shipped defaults on first Load, never in
// the constructor. Missing or unreadable files fall back to the defaults.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore uses ~/.healthlens/prompts when promptDir is empty.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		base, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(base, "prompts")
	}
	return &PromptStore{dir: promptDir, cache: make(map[string]string)}, nil
}

// Load returns the template called name, reading it from disk at most once
// between Reloads.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(func() { s.seedErr = s.seed() })

	s.mu.RLock()
	cached, hit := s.cache[name]
	s.mu.RUnlock()
	if hit {
		return cached, nil
	}

	var prompt string
	var err error
	if s.seedErr != nil {
		err = s.seedErr
	} else {
		prompt, err = s.read(name)
	}
	if err != nil {
		if def, ok := defaultPrompts[name]; ok {
			return def, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if winner, ok := s.cache[name]; ok {
		return winner, nil
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload drops cached templates so edits on disk are picked up.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

// Dir is where the editable templates live.
func (s *PromptStore) Dir() string {
	return s.dir
}

// seed copies every file under defaults/ into the prompt directory
// without overwriting existing ones.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	return fs.WalkDir(defaultFS, "defaults", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		dst := filepath.Join(s.dir, d.Name())
		if _, err := os.Stat(dst); !errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		raw, err := defaultFS.ReadFile(p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dst, raw, 0600); err != nil {
			return fmt.Errorf("seed %s: %w", d.Name(), err)
		}
		return nil
	})
}

func (s *PromptStore) read(name string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name+promptExt))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
