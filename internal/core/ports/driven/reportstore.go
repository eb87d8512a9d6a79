package driven

import (
	"context"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

// ReportStore persists report records. Every operation is scoped to one user;
// records are never visible across users and are never deleted.
type ReportStore interface {
	// Insert appends a new record and assigns ID (if empty), Seq and timestamps.
	// A second record with the same user and content hash is ErrDuplicate.
	Insert(ctx context.Context, record *domain.ReportRecord) error

	// UpdateSymptoms overwrites the symptoms of the user's most recent record.
	// Returns ErrNotFound when the user has no records.
	UpdateSymptoms(ctx context.Context, user, symptoms string) error

	// ListByUser returns the user's records ordered by Seq ascending.
	ListByUser(ctx context.Context, user string) ([]domain.ReportRecord, error)

	// Latest returns the user's record with the highest Seq.
	Latest(ctx context.Context, user string) (*domain.ReportRecord, error)

	// Get returns one of the user's records by ID.
	Get(ctx context.Context, user, id string) (*domain.ReportRecord, error)

	// FindByHash returns the user's record with the given content hash.
	FindByHash(ctx context.Context, user, hash string) (*domain.ReportRecord, error)

	// Close releases resources.
	Close() error
}
