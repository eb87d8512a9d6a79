package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
	"github.com/custodia-labs/healthlens/internal/core/ports/driving"
	"github.com/custodia-labs/healthlens/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// contextSeparator separates retrieved chunks in the prompt context.
const contextSeparator = "\n\n\n"

// QueryService answers symptom queries from a user's own report chunks.
type QueryService struct {
	embedder driven.EmbeddingService
	vectors  driven.VectorIndex
	llm      driven.LLMService
	store    driven.ReportStore
	prompts  driven.PromptStore
	model    string
	k        int
}

// NewQueryService creates a new query service.
// An empty model uses the LLM service default.
func NewQueryService(
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
	llm driven.LLMService,
	store driven.ReportStore,
	prompts driven.PromptStore,
	model string,
) *QueryService {
	return &QueryService{
		embedder: embedder,
		vectors:  vectors,
		llm:      llm,
		store:    store,
		prompts:  prompts,
		model:    model,
		k:        domain.DefaultRetrievalK,
	}
}

// Ask records the symptoms on the user's latest report, retrieves the
// closest chunks owned by the user and asks the model once.
// The model is called even when nothing is retrieved.
func (s *QueryService) Ask(ctx context.Context, user, symptoms string) (*domain.Answer, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, fmt.Errorf("%w: user is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(symptoms) == "" {
		return nil, fmt.Errorf("%w: symptoms are required", domain.ErrInvalidInput)
	}

	logger.Section("Query")
	logger.Debug("User: %s, symptoms: %q", user, symptoms)

	if err := s.store.UpdateSymptoms(ctx, user, symptoms); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("record symptoms: %w", err)
		}
		logger.Debug("No report for %s, symptoms not recorded", user)
	}

	vector, err := s.embedder.Embed(ctx, symptoms)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectors.Search(ctx, vector, s.k, user)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	hits = ownedBy(hits, user)
	logger.Debug("Retrieved %d chunks", len(hits))

	template, err := s.prompts.Load(driven.PromptQuerySystem)
	if err != nil {
		return nil, fmt.Errorf("load query prompt: %w", err)
	}

	text, err := s.llm.Complete(ctx, driven.CompletionRequest{
		System: fillContext(template, formatContext(hits)),
		User:   symptoms,
		Model:  s.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	return &domain.Answer{Text: text, Sources: hits}, nil
}

// ownedBy drops any hit not tagged with user.
func ownedBy(hits []domain.ChunkHit, user string) []domain.ChunkHit {
	owned := make([]domain.ChunkHit, 0, len(hits))
	for _, h := range hits {
		if h.Chunk.User() != user {
			logger.Warn("Discarding chunk %s owned by another user", h.Chunk.ID)
			continue
		}
		owned = append(owned, h)
	}
	return owned
}

// formatContext renders each hit's content and source for the prompt.
func formatContext(hits []domain.ChunkHit) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = "Page Content : " + h.Chunk.Content + "\nFile Location: " + h.Chunk.Source()
	}
	return strings.Join(parts, contextSeparator)
}

// fillContext substitutes the context placeholder, appending the context
// when the template has no placeholder.
func fillContext(template, reportContext string) string {
	if !strings.Contains(template, driven.ContextPlaceholder) {
		return template + "\n\nContext:\n" + reportContext
	}
	return strings.ReplaceAll(template, driven.ContextPlaceholder, reportContext)
}
