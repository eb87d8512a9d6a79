package driving

import (
	"context"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

// ReportService exposes a user's stored report records.
type ReportService interface {
	// List returns the user's records, oldest first.
	List(ctx context.Context, user string) ([]domain.ReportRecord, error)

	// Get returns one record owned by the user.
	Get(ctx context.Context, user, id string) (*domain.ReportRecord, error)

	// Latest returns the user's most recent record.
	Latest(ctx context.Context, user string) (*domain.ReportRecord, error)

	// Trends returns one series per lab parameter that has at least one value.
	Trends(ctx context.Context, user string) ([]domain.ParameterTrend, error)
}
