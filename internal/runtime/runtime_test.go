package runtime

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

// fakeEmbedder maps text to a two-dimensional vector by keyword.
type fakeEmbedder struct {
	closed bool
}

func (f *fakeEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	v := []float32{0.01, 0.01}
	if strings.Contains(lower, "glucose") || strings.Contains(lower, "thirsty") {
		v[0] = 1
	}
	if strings.Contains(lower, "tsh") || strings.Contains(lower, "tired") {
		v[1] = 1
	}
	return v
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return f.vector(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vector(t)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 2 }
func (f *fakeEmbedder) ModelName() string { return "fake" }
func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error {
	f.closed = true
	return nil
}

// fakeLLM returns a fixed JSON object for extraction and echoes chat prompts.
type fakeLLM struct {
	mu       sync.Mutex
	requests []driven.CompletionRequest
}

func (f *fakeLLM) Complete(_ context.Context, req driven.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if req.JSON {
		return `{"blood_sugar_fasting": 126, "tsh": null}`, nil
	}
	return "answer for: " + req.User, nil
}

func (f *fakeLLM) ModelName() string { return "fake-chat" }
func (f *fakeLLM) Ping(context.Context) error { return nil }
func (f *fakeLLM) Close() error { return nil }

func (f *fakeLLM) last() driven.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func testSettings(t *testing.T, store domain.StoreBackend, vector domain.VectorBackend) domain.AppSettings {
	t.Helper()
	settings := domain.DefaultAppSettings()
	settings.Store.Backend = store
	settings.Store.DataDir = t.TempDir()
	settings.Vector.Backend = vector
	return settings
}

func writeReport(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestOpen_EndToEnd(t *testing.T) {
	backends := []struct {
		name   string
		store  domain.StoreBackend
		vector domain.VectorBackend
	}{
		{"memory", domain.StoreBackendMemory, domain.VectorBackendMemory},
		{"sqlite+bolt", domain.StoreBackendSQLite, domain.VectorBackendBolt},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			llm := &fakeLLM{}
			rt, err := Open(ctx, testSettings(t, b.store, b.vector),
				WithEmbedder(&fakeEmbedder{}), WithLLM(llm))
			require.NoError(t, err)
			defer rt.Close()

			path := writeReport(t, "labs.txt", "Fasting glucose 126 mg/dL\n\nTSH normal")
			result, err := rt.Ingestion.IngestFile(ctx, "alice", path)
			require.NoError(t, err)
			assert.False(t, result.Duplicate)
			assert.Positive(t, result.Chunks)
			require.NotNil(t, result.Record.ParsedData)
			assert.InDelta(t, 126.0, *result.Record.ParsedData.BloodSugarFasting, 1e-9)

			again, err := rt.Ingestion.IngestFile(ctx, "alice", path)
			require.NoError(t, err)
			assert.True(t, again.Duplicate)

			answer, err := rt.Query.Ask(ctx, "alice", "always thirsty")
			require.NoError(t, err)
			assert.Equal(t, "answer for: always thirsty", answer.Text)
			require.NotEmpty(t, answer.Sources)
			assert.Contains(t, llm.last().System, "Fasting glucose 126")

			// Bob has nothing indexed and must not see alice's report.
			answer, err = rt.Query.Ask(ctx, "bob", "always thirsty")
			require.NoError(t, err)
			assert.Empty(t, answer.Sources)
			assert.NotContains(t, llm.last().System, "glucose")

			suggestion, err := rt.Suggestion.Suggest(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, result.Record.ID, suggestion.Record.ID)
			assert.Contains(t, llm.last().User, "always thirsty")

			records, err := rt.Reports.List(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "always thirsty", records[0].Symptoms)
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	settings := testSettings(t, "cassandra", domain.VectorBackendMemory)

	_, err := Open(context.Background(), settings, WithEmbedder(&fakeEmbedder{}), WithLLM(&fakeLLM{}))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOpen_FailureClosesOpenedClients(t *testing.T) {
	settings := testSettings(t, domain.StoreBackendMemory, "unknown")
	embedder := &fakeEmbedder{}

	_, err := Open(context.Background(), settings, WithEmbedder(embedder), WithLLM(&fakeLLM{}))
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	// Injected clients belong to the caller.
	assert.False(t, embedder.closed)
}

func TestOpen_UnconfiguredLLM(t *testing.T) {
	settings := testSettings(t, domain.StoreBackendMemory, domain.VectorBackendMemory)
	settings.LLM.APIKey = ""

	_, err := Open(context.Background(), settings, WithEmbedder(&fakeEmbedder{}))
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestDataDir(t *testing.T) {
	dir, err := DataDir(domain.StoreSettings{DataDir: "/srv/healthlens"})
	require.NoError(t, err)
	assert.Equal(t, "/srv/healthlens", dir)

	home := t.TempDir()
	t.Setenv("HOME", home)
	dir, err = DataDir(domain.StoreSettings{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".healthlens", "data"), dir)
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HEALTHLENS_TEST_FROM_DOTENV=loaded\n"), 0600))
	t.Setenv("HEALTHLENS_TEST_FROM_DOTENV", "")
	require.NoError(t, os.Unsetenv("HEALTHLENS_TEST_FROM_DOTENV"))

	require.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	assert.Equal(t, "loaded", os.Getenv("HEALTHLENS_TEST_FROM_DOTENV"))
}

func TestLoadEnv_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HEALTHLENS_TEST_KEEP=file\n"), 0600))
	t.Setenv("HEALTHLENS_TEST_KEEP", "process")

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "process", os.Getenv("HEALTHLENS_TEST_KEEP"))
}
