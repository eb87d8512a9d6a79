package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
	"github.com/custodia-labs/healthlens/internal/core/ports/driving"
	"github.com/custodia-labs/healthlens/internal/logger"
)

// Ensure SuggestionService implements the interface.
var _ driving.SuggestionService = (*SuggestionService)(nil)

// suggestionPayload is the report context given to the model.
type suggestionPayload struct {
	Text          string             `json:"text"`
	MedicalParams *domain.ParsedData `json:"medical_params"`
	Symptoms      string             `json:"symptoms"`
}

// SuggestionService generates lifestyle suggestions from the latest report.
type SuggestionService struct {
	llm     driven.LLMService
	store   driven.ReportStore
	prompts driven.PromptStore
	model   string
}

// NewSuggestionService creates a new suggestion service.
func NewSuggestionService(
	llm driven.LLMService,
	store driven.ReportStore,
	prompts driven.PromptStore,
	model string,
) *SuggestionService {
	return &SuggestionService{llm: llm, store: store, prompts: prompts, model: model}
}

// Suggest grounds suggestions in the user's most recent report only.
// Returns ErrNotFound when the user has no reports.
func (s *SuggestionService) Suggest(ctx context.Context, user string) (*domain.Suggestion, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, fmt.Errorf("%w: user is required", domain.ErrInvalidInput)
	}

	logger.Section("Suggestions")

	record, err := s.store.Latest(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("latest report: %w", err)
	}
	logger.Debug("Grounding on report %s (seq %d)", record.ID, record.Seq)

	payload, err := json.Marshal(suggestionPayload{
		Text:          record.RawText,
		MedicalParams: record.ParsedData,
		Symptoms:      record.Symptoms,
	})
	if err != nil {
		return nil, fmt.Errorf("encode report context: %w", err)
	}

	template, err := s.prompts.Load(driven.PromptSuggestionSystem)
	if err != nil {
		return nil, fmt.Errorf("load suggestion prompt: %w", err)
	}

	text, err := s.llm.Complete(ctx, driven.CompletionRequest{
		System: template,
		User:   string(payload),
		Model:  s.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	return &domain.Suggestion{Text: text, Record: record}, nil
}
