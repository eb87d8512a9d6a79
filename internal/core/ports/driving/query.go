package driving

import (
	"context"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

// QueryService answers free-text symptom queries against a user's reports.
type QueryService interface {
	// Ask records the symptoms on the user's latest report and answers from
	// the user's own indexed chunks.
	Ask(ctx context.Context, user, symptoms string) (*domain.Answer, error)
}

// SuggestionService produces lifestyle suggestions from a user's latest report.
type SuggestionService interface {
	// Suggest returns suggestions grounded in the latest report only.
	Suggest(ctx context.Context, user string) (*domain.Suggestion, error)
}
