package services

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

// mockConfigStore is a map-backed ConfigStore.
type mockConfigStore struct {
	values map[string]any
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	s, _ := m.values[key].(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	switch v := m.values[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Save() error  { return nil }
func (m *mockConfigStore) Load() error  { return nil }
func (m *mockConfigStore) Path() string { return "mock://config.toml" }

// mockLLMService records every request and replies with a fixed response.
type mockLLMService struct {
	response string
	err      error
	requests []driven.CompletionRequest
}

func (m *mockLLMService) Complete(_ context.Context, req driven.CompletionRequest) (string, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string          { return "mock-model" }
func (m *mockLLMService) Ping(context.Context) error { return m.err }
func (m *mockLLMService) Close() error               { return nil }

func (m *mockLLMService) lastRequest() driven.CompletionRequest {
	if len(m.requests) == 0 {
		return driven.CompletionRequest{}
	}
	return m.requests[len(m.requests)-1]
}

// mockEmbeddingService embeds text as keyword counts so that similarity
// follows shared vocabulary.
type mockEmbeddingService struct {
	err   error
	calls int
}

var embeddingVocabulary = []string{"glucose", "sugar", "hemoglobin", "thyroid", "tsh", "cholesterol", "tired", "thirsty"}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return keywordVector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int            { return len(embeddingVocabulary) + 1 }
func (m *mockEmbeddingService) ModelName() string          { return "mock-embedding" }
func (m *mockEmbeddingService) Ping(context.Context) error { return m.err }
func (m *mockEmbeddingService) Close() error               { return nil }

func keywordVector(text string) []float32 {
	text = strings.ToLower(text)
	v := make([]float32, len(embeddingVocabulary)+1)
	for i, word := range embeddingVocabulary {
		v[i] = float32(strings.Count(text, word))
	}
	v[len(embeddingVocabulary)] = 0.01
	return v
}

// mockVectorIndex keeps chunks in memory and filters by user.
type mockVectorIndex struct {
	mu        sync.Mutex
	chunks    map[string]domain.IndexedChunk
	ensured   bool
	ensureErr error
	upsertErr error
	searchErr error
	searches  []string
}

func newMockVectorIndex() *mockVectorIndex {
	return &mockVectorIndex{chunks: make(map[string]domain.IndexedChunk)}
}

func (m *mockVectorIndex) EnsureIndex(context.Context) (domain.IndexOutcome, error) {
	if m.ensureErr != nil {
		return "", m.ensureErr
	}
	if m.ensured {
		return domain.IndexAlreadyPresent, nil
	}
	m.ensured = true
	return domain.IndexCreated, nil
}

func (m *mockVectorIndex) Upsert(_ context.Context, chunks []domain.IndexedChunk) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		m.chunks[c.Chunk.ID] = c
	}
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, query []float32, k int, user string) ([]domain.ChunkHit, error) {
	m.searches = append(m.searches, user)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if user == "" {
		return nil, domain.ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	hits := []domain.ChunkHit{}
	for _, c := range m.chunks {
		if c.Chunk.User() != user {
			continue
		}
		hits = append(hits, domain.ChunkHit{Chunk: c.Chunk, Score: cosine(query, c.Embedding)})
	}
	slices.SortFunc(hits, func(a, b domain.ChunkHit) int { return cmp.Compare(b.Score, a.Score) })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *mockVectorIndex) Close() error { return nil }

func (m *mockVectorIndex) chunksFor(user string) []domain.Chunk {
	var out []domain.Chunk
	for _, c := range m.chunks {
		if c.Chunk.User() == user {
			out = append(out, c.Chunk)
		}
	}
	return out
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range min(len(a), len(b)) {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// mockReportStore is an in-memory ReportStore.
type mockReportStore struct {
	records   []domain.ReportRecord
	seq       int64
	insertErr error
	findErr   error
	listErr   error
}

func newMockReportStore() *mockReportStore {
	return &mockReportStore{}
}

func (m *mockReportStore) Insert(_ context.Context, record *domain.ReportRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, r := range m.records {
		if r.User == record.User && r.ContentHash == record.ContentHash {
			return domain.ErrDuplicate
		}
	}
	m.seq++
	record.Seq = m.seq
	if record.ID == "" {
		record.ID = "rec-" + strconv.FormatInt(m.seq, 10)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Date(2026, 1, int(m.seq), 9, 0, 0, 0, time.UTC)
		record.UpdatedAt = record.CreatedAt
	}
	m.records = append(m.records, *record)
	return nil
}

func (m *mockReportStore) UpdateSymptoms(_ context.Context, user, symptoms string) error {
	idx := -1
	for i, r := range m.records {
		if r.User == user && (idx < 0 || r.Seq > m.records[idx].Seq) {
			idx = i
		}
	}
	if idx < 0 {
		return domain.ErrNotFound
	}
	m.records[idx].Symptoms = symptoms
	return nil
}

func (m *mockReportStore) ListByUser(_ context.Context, user string) ([]domain.ReportRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.ReportRecord
	for _, r := range m.records {
		if r.User == user {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b domain.ReportRecord) int { return cmp.Compare(a.Seq, b.Seq) })
	return out, nil
}

func (m *mockReportStore) Latest(ctx context.Context, user string) (*domain.ReportRecord, error) {
	records, err := m.ListByUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.ErrNotFound
	}
	return &records[len(records)-1], nil
}

func (m *mockReportStore) Get(_ context.Context, user, id string) (*domain.ReportRecord, error) {
	for _, r := range m.records {
		if r.User == user && r.ID == id {
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockReportStore) FindByHash(_ context.Context, user, hash string) (*domain.ReportRecord, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, r := range m.records {
		if r.User == user && r.ContentHash == hash {
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockReportStore) Close() error { return nil }

// mockStructuredExtractor returns fixed parsed data.
type mockStructuredExtractor struct {
	data  *domain.ParsedData
	err   error
	calls int
}

func (m *mockStructuredExtractor) Extract(_ context.Context, _ string) (*domain.ParsedData, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

// mockTextExtractor returns the upload content as a single segment.
type mockTextExtractor struct {
	profile domain.ChunkProfile
	err     error
}

func (m *mockTextExtractor) Name() string { return "mock" }

func (m *mockTextExtractor) SupportedExtensions() []string { return []string{"txt", "png"} }

func (m *mockTextExtractor) Extract(_ context.Context, upload *domain.Upload) (*domain.ExtractedText, error) {
	if m.err != nil {
		return nil, m.err
	}
	text := string(upload.Content)
	return &domain.ExtractedText{
		FullText: text,
		Profile:  m.profile,
		Segments: []domain.Segment{{
			Text:     text,
			Metadata: map[string]any{domain.MetaSource: upload.FileName},
		}},
	}, nil
}

// mockExtractorRegistry serves one extractor for its extensions.
type mockExtractorRegistry struct {
	extractor *mockTextExtractor
}

func (m *mockExtractorRegistry) Get(ext string) (driven.TextExtractor, error) {
	if slices.Contains(m.extractor.SupportedExtensions(), domain.NormaliseExtension(ext)) {
		return m.extractor, nil
	}
	return nil, domain.ErrUnsupportedFormat
}

func (m *mockExtractorRegistry) Extensions() []string { return m.extractor.SupportedExtensions() }

// mockChunker splits on blank lines.
type mockChunker struct {
	err error
}

func (m *mockChunker) Name() string { return "mock-chunker" }

func (m *mockChunker) Process(_ context.Context, text *domain.ExtractedText) ([]domain.Chunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	var chunks []domain.Chunk
	for _, seg := range text.Segments {
		for _, part := range strings.Split(seg.Text, "\n\n") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			meta := make(map[string]any, len(seg.Metadata)+1)
			for k, v := range seg.Metadata {
				meta[k] = v
			}
			pos := len(chunks)
			meta[domain.MetaPosition] = pos
			key, _ := meta[domain.MetaDocumentKey].(string)
			chunks = append(chunks, domain.Chunk{
				ID:          key + "-" + strconv.Itoa(pos),
				DocumentKey: key,
				Content:     part,
				Position:    pos,
				Metadata:    meta,
			})
		}
	}
	return chunks, nil
}

// mockChunkerSet returns the same chunker for every profile.
type mockChunkerSet struct {
	chunker  *mockChunker
	profiles []domain.ChunkProfile
}

func (m *mockChunkerSet) For(profile domain.ChunkProfile) (driven.Chunker, error) {
	m.profiles = append(m.profiles, profile)
	return m.chunker, nil
}

// mockPromptStore serves fixed templates.
type mockPromptStore struct {
	prompts map[string]string
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptQuerySystem:      "Medical assistant. Context:" + driven.ContextPlaceholder,
		driven.PromptSuggestionSystem: "Suggest from the payload.",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

func ptr(v float64) *float64 { return &v }
