package mcp

import (
	"context"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	result   *domain.IngestResult
	err      error
	lastUser string
	lastPath string
}

func (m *mockIngestionService) Ingest(_ context.Context, _ *domain.Upload) (*domain.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngestionService) IngestFile(_ context.Context, user, path string) (*domain.IngestResult, error) {
	m.lastUser, m.lastPath = user, path
	return m.result, m.err
}

func (m *mockIngestionService) SupportedExtensions() []string {
	return domain.SupportedExtensions()
}

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer *domain.Answer
	err    error
}

func (m *mockQueryService) Ask(_ context.Context, _, _ string) (*domain.Answer, error) {
	return m.answer, m.err
}

// mockSuggestionService is a mock implementation of driving.SuggestionService.
type mockSuggestionService struct {
	suggestion *domain.Suggestion
	err        error
}

func (m *mockSuggestionService) Suggest(_ context.Context, _ string) (*domain.Suggestion, error) {
	return m.suggestion, m.err
}

// mockReportService is a mock implementation of driving.ReportService.
// Records are returned only for their owner.
type mockReportService struct {
	records []domain.ReportRecord
	err     error
}

func (m *mockReportService) List(_ context.Context, user string) ([]domain.ReportRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.ReportRecord{}
	for _, r := range m.records {
		if r.User == user {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockReportService) Get(ctx context.Context, user, id string) (*domain.ReportRecord, error) {
	records, err := m.List(ctx, user)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockReportService) Latest(ctx context.Context, user string) (*domain.ReportRecord, error) {
	records, err := m.List(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.ErrNotFound
	}
	return &records[len(records)-1], nil
}

func (m *mockReportService) Trends(_ context.Context, _ string) ([]domain.ParameterTrend, error) {
	return nil, m.err
}

func ptr[T any](v T) *T { return &v }

func testPorts() *Ports {
	return &Ports{
		Ingestion:  &mockIngestionService{},
		Query:      &mockQueryService{},
		Suggestion: &mockSuggestionService{},
		Reports:    &mockReportService{},
	}
}
