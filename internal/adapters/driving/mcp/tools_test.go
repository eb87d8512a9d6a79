package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ingestion summary", func(t *testing.T) {
		ingestion := &mockIngestionService{result: &domain.IngestResult{
			Record: &domain.ReportRecord{
				ID:         "rec-1",
				FileName:   "labs.pdf",
				ParsedData: &domain.ParsedData{TSH: ptr(2.5), Hemoglobin: ptr(13.1)},
			},
			Chunks:       4,
			IndexOutcome: domain.IndexCreated,
		}}
		ports := testPorts()
		ports.Ingestion = ingestion
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleIngest(ctx, nil, IngestInput{User: "alice", Path: "/tmp/labs.pdf"})

		require.NoError(t, err)
		assert.Equal(t, "alice", ingestion.lastUser)
		assert.Equal(t, "/tmp/labs.pdf", ingestion.lastPath)
		assert.Equal(t, "rec-1", output.ReportID)
		assert.Equal(t, 4, output.Chunks)
		assert.Equal(t, "created", output.IndexOutcome)
		assert.False(t, output.Duplicate)
		// Canonical parameter order.
		assert.Equal(t, []string{"hemoglobin", "tsh"}, output.Parameters)
	})

	t.Run("passes errors through", func(t *testing.T) {
		ports := testPorts()
		ports.Ingestion = &mockIngestionService{err: domain.ErrUnsupportedFormat}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{User: "alice", Path: "x.docx"})
		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	})
}

func TestServer_handleQuery(t *testing.T) {
	ctx := context.Background()

	ports := testPorts()
	ports.Query = &mockQueryService{answer: &domain.Answer{
		Text: "Likely elevated blood sugar.",
		Sources: []domain.ChunkHit{{
			Chunk: domain.Chunk{
				Content:  "Fasting glucose 126",
				Metadata: map[string]any{domain.MetaSource: "labs.pdf", domain.MetaPage: 2},
			},
			Score: 0.91,
		}},
	}}
	server, err := NewServer(ports)
	require.NoError(t, err)

	_, output, err := server.handleQuery(ctx, nil, QueryInput{User: "alice", Symptoms: "thirsty"})

	require.NoError(t, err)
	assert.Equal(t, "Likely elevated blood sugar.", output.Answer)
	require.Len(t, output.Sources, 1)
	assert.Equal(t, "labs.pdf", output.Sources[0].FileName)
	assert.Equal(t, 2, output.Sources[0].Page)
	assert.InDelta(t, 0.91, output.Sources[0].Score, 1e-9)

	ports.Query = &mockQueryService{err: domain.ErrGeneration}
	_, _, err = server.handleQuery(ctx, nil, QueryInput{User: "alice", Symptoms: "thirsty"})
	assert.ErrorIs(t, err, domain.ErrGeneration)
}

func TestServer_handleQuery_EmptySourcesIsNotNil(t *testing.T) {
	ports := testPorts()
	ports.Query = &mockQueryService{answer: &domain.Answer{Text: "No reports on file."}}
	server, err := NewServer(ports)
	require.NoError(t, err)

	_, output, err := server.handleQuery(context.Background(), nil, QueryInput{User: "bob", Symptoms: "tired"})
	require.NoError(t, err)
	assert.NotNil(t, output.Sources)
	assert.Empty(t, output.Sources)
}

func TestServer_handleSuggest(t *testing.T) {
	ctx := context.Background()

	ports := testPorts()
	ports.Suggestion = &mockSuggestionService{suggestion: &domain.Suggestion{
		Text:   "Walk daily.",
		Record: &domain.ReportRecord{ID: "rec-9", FileName: "latest.png"},
	}}
	server, err := NewServer(ports)
	require.NoError(t, err)

	_, output, err := server.handleSuggest(ctx, nil, UserInput{User: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "Walk daily.", output.Suggestion)
	assert.Equal(t, "rec-9", output.ReportID)

	ports.Suggestion = &mockSuggestionService{err: domain.ErrNotFound}
	_, _, err = server.handleSuggest(ctx, nil, UserInput{User: "alice"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServer_handleListReports(t *testing.T) {
	ctx := context.Background()

	ports := testPorts()
	ports.Reports = &mockReportService{records: []domain.ReportRecord{
		{ID: "a1", Seq: 1, User: "alice", FileName: "a.pdf", ParsedData: &domain.ParsedData{LDL: ptr(130.0)}},
		{ID: "b1", Seq: 2, User: "bob", FileName: "b.pdf"},
		{ID: "a2", Seq: 3, User: "alice", FileName: "c.pdf"},
	}}
	server, err := NewServer(ports)
	require.NoError(t, err)

	_, output, err := server.handleListReports(ctx, nil, UserInput{User: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 2, output.Count)
	assert.Equal(t, "a1", output.Reports[0].ID)
	assert.InDelta(t, 130.0, output.Reports[0].Parameters["ldl"], 1e-9)
	assert.Nil(t, output.Reports[1].Parameters)

	ports.Reports = &mockReportService{err: errors.New("store offline")}
	_, _, err = server.handleListReports(ctx, nil, UserInput{User: "alice"})
	assert.EqualError(t, err, "store offline")
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/tmp/labs.pdf", "/tmp/labs.pdf"},
		{"labs.pdf", "labs.pdf"},
		{"file:///tmp/labs.pdf", "/tmp/labs.pdf"},
		{"file:///tmp/my%20labs.pdf", "/tmp/my labs.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, localPath(tt.in), tt.in)
	}
}
