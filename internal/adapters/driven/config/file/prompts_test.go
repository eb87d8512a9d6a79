package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".healthlens", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	// Load triggers lazy init
	_, err = store.Load(driven.PromptQuerySystem)
	require.NoError(t, err)

	for _, f := range []string{"extraction.txt", "query_system.txt", "suggestion_system.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestDefaultPrompts(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	query, err := store.Load(driven.PromptQuerySystem)
	require.NoError(t, err)
	assert.Contains(t, query, driven.ContextPlaceholder)

	suggestion, err := store.Load(driven.PromptSuggestionSystem)
	require.NoError(t, err)
	assert.NotContains(t, suggestion, driven.ContextPlaceholder)
	assert.Contains(t, suggestion, `"medical_params"`)

	// The extraction prompt must name every schema key.
	extraction, err := store.Load(driven.PromptExtraction)
	require.NoError(t, err)
	for _, p := range domain.AllLabParameters() {
		assert.Contains(t, extraction, p.String())
		assert.Contains(t, suggestion, p.String())
	}
	assert.Contains(t, extraction, domain.AdditionalNotesKey)
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Answer briefly.\n{{context}}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "query_system.txt"), []byte(custom), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptQuerySystem)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)

	// Init must not overwrite the user's file.
	data, err := os.ReadFile(filepath.Join(dir, "query_system.txt"))
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptExtraction) // Trigger init
	require.NoError(t, os.Remove(filepath.Join(dir, "extraction.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptExtraction)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptExtraction], prompt)
}

func TestPromptStore_Load_FallsBackWhenDirUnwritable(t *testing.T) {
	// A file where the directory should be makes init fail.
	parent := t.TempDir()
	dir := filepath.Join(parent, "prompts")
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptSuggestionSystem)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptSuggestionSystem], prompt)

	_, err = store.Load("nonexistent_prompt")
	assert.Error(t, err)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_prompt")
}

func TestPromptStore_CacheAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptQuerySystem)
	require.NoError(t, err)

	modified := "modified {{context}}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "query_system.txt"), []byte("\n  "+modified+"  \n"), 0600))

	cached, err := store.Load(driven.PromptQuerySystem)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptQuerySystem)
	require.NoError(t, err)
	assert.Equal(t, modified, fresh)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	const goroutines = 50
	results := make([]string, goroutines)
	errs := make([]error, goroutines)

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = store.Load(driven.PromptQuerySystem)
		}()
	}
	wg.Wait()

	for i := range goroutines {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
}
