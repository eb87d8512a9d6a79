package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/runtime"
)

type mockIngestionService struct {
	results map[string]*domain.IngestResult
	errs    map[string]error
	paths   []string
	user    string
}

func (m *mockIngestionService) Ingest(_ context.Context, _ *domain.Upload) (*domain.IngestResult, error) {
	return nil, domain.ErrInvalidInput
}

func (m *mockIngestionService) IngestFile(_ context.Context, user, path string) (*domain.IngestResult, error) {
	m.user = user
	m.paths = append(m.paths, path)
	if err := m.errs[path]; err != nil {
		return nil, err
	}
	if r, ok := m.results[path]; ok {
		return r, nil
	}
	return &domain.IngestResult{
		Record: &domain.ReportRecord{ID: "rec-" + path, FileName: path},
		Chunks: 1,
	}, nil
}

func (m *mockIngestionService) SupportedExtensions() []string {
	return domain.SupportedExtensions()
}

type mockQueryService struct {
	answer   *domain.Answer
	err      error
	user     string
	symptoms string
}

func (m *mockQueryService) Ask(_ context.Context, user, symptoms string) (*domain.Answer, error) {
	m.user, m.symptoms = user, symptoms
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
	trends  []domain.ParameterTrend
	err     error
}

func (m *mockReportService) List(_ context.Context, _ string) ([]domain.ReportRecord, error) {
	return m.records, m.err
}

func (m *mockReportService) Get(_ context.Context, _, id string) (*domain.ReportRecord, error) {
	for i := range m.records {
		if m.records[i].ID == id {
			return &m.records[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockReportService) Latest(_ context.Context, _ string) (*domain.ReportRecord, error) {
	if len(m.records) == 0 {
		return nil, domain.ErrNotFound
	}
	return &m.records[len(m.records)-1], nil
}

func (m *mockReportService) Trends(_ context.Context, _ string) ([]domain.ParameterTrend, error) {
	return m.trends, m.err
}

// mockSettingsService keeps settings in memory.
type mockSettingsService struct {
	settings domain.AppSettings
	set      map[string]string
	err      error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), set: make(map[string]string)}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"llm.provider", "llm.api_key", "vector.backend"}
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// testEnv holds the fakes behind one command run.
type testEnv struct {
	ingestion  *mockIngestionService
	query      *mockQueryService
	suggestion *mockSuggestionService
	reports    *mockReportService
	settings   *mockSettingsService
	opened     int
	lastOpen   domain.AppSettings
}

// setupTestServices swaps the runtime opener and settings service for
// fakes and restores them, and every flag, when the test ends.
func setupTestServices(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		ingestion:  &mockIngestionService{},
		query:      &mockQueryService{answer: &domain.Answer{Text: "mock answer"}},
		suggestion: &mockSuggestionService{},
		reports:    &mockReportService{},
		settings:   newMockSettingsService(),
	}

	oldOpen, oldSettings := openRuntime, settingsService
	openRuntime = func(_ context.Context, settings domain.AppSettings) (*runtime.Runtime, error) {
		env.opened++
		env.lastOpen = settings
		return &runtime.Runtime{
			Settings:   settings,
			Ingestion:  env.ingestion,
			Query:      env.query,
			Suggestion: env.suggestion,
			Reports:    env.reports,
		}, nil
	}
	settingsService = env.settings
	t.Setenv("HEALTHLENS_USER", "")

	t.Cleanup(func() {
		openRuntime, settingsService = oldOpen, oldSettings
		resetFlags()
	})
	return env
}

func resetFlags() {
	verbose, logFile, userFlag, configDir, dataDir = false, "", "", "", ""
	querySources, queryJSON = false, false
	reportsJSON, exportPath = false, ""
	serveAddr, mcpHTTPAddr = "", ""
	rootCmd.SetArgs(nil)
	rootCmd.SetIn(nil)
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// executeWithInput is execute with stdin set to input.
func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	rootCmd.SetIn(strings.NewReader(input))
	out, _, err := execute(t, args...)
	return out, err
}

func ptr[T any](v T) *T { return &v }
