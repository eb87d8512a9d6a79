package http

import (
	"context"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

type mockIngestionService struct {
	result *domain.IngestResult
	err    error
	last   *domain.Upload
}

func (m *mockIngestionService) Ingest(_ context.Context, upload *domain.Upload) (*domain.IngestResult, error) {
	m.last = upload
	return m.result, m.err
}

func (m *mockIngestionService) IngestFile(_ context.Context, _, _ string) (*domain.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngestionService) SupportedExtensions() []string {
	return domain.SupportedExtensions()
}

type mockQueryService struct {
	answer    *domain.Answer
	err       error
	lastUser  string
	lastQuery string
}

func (m *mockQueryService) Ask(_ context.Context, user, symptoms string) (*domain.Answer, error) {
	m.lastUser, m.lastQuery = user, symptoms
	return m.answer, m.err
}

type mockSuggestionService struct {
	suggestion *domain.Suggestion
	err        error
}

func (m *mockSuggestionService) Suggest(_ context.Context, _ string) (*domain.Suggestion, error) {
	return m.suggestion, m.err
}

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

func testPorts() *Ports {
	return &Ports{
		Ingestion:  &mockIngestionService{},
		Query:      &mockQueryService{},
		Suggestion: &mockSuggestionService{},
		Reports:    &mockReportService{},
	}
}
