package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
	"github.com/custodia-labs/healthlens/internal/core/ports/driving"
)

// Ensure ReportService implements the interface.
var _ driving.ReportService = (*ReportService)(nil)

// ReportService reads a user's stored reports.
type ReportService struct {
	store driven.ReportStore
}

// NewReportService creates a new report service.
func NewReportService(store driven.ReportStore) *ReportService {
	return &ReportService{store: store}
}

// List returns the user's records, oldest first.
func (s *ReportService) List(ctx context.Context, user string) ([]domain.ReportRecord, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	return s.store.ListByUser(ctx, user)
}

// Get returns one record owned by the user.
func (s *ReportService) Get(ctx context.Context, user, id string) (*domain.ReportRecord, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, user, id)
}

// Latest returns the user's most recent record.
func (s *ReportService) Latest(ctx context.Context, user string) (*domain.ReportRecord, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	return s.store.Latest(ctx, user)
}

// Trends returns one series per lab parameter with at least one recorded
// value, in canonical parameter order. Points are oldest first.
func (s *ReportService) Trends(ctx context.Context, user string) ([]domain.ParameterTrend, error) {
	records, err := s.List(ctx, user)
	if err != nil {
		return nil, err
	}

	var trends []domain.ParameterTrend
	for _, p := range domain.AllLabParameters() {
		trend := domain.ParameterTrend{Parameter: p}
		for _, r := range records {
			v := r.ParsedData.Value(p)
			if v == nil {
				continue
			}
			trend.Points = append(trend.Points, domain.TrendPoint{
				Seq:       r.Seq,
				ReportID:  r.ID,
				FileName:  r.FileName,
				CreatedAt: r.CreatedAt,
				Value:     *v,
				Status:    p.NormalRange().Classify(*v),
			})
		}
		if len(trend.Points) > 0 {
			trends = append(trends, trend)
		}
	}

	return trends, nil
}

func requireUser(user string) error {
	if strings.TrimSpace(user) == "" {
		return fmt.Errorf("%w: user is required", domain.ErrInvalidInput)
	}
	return nil
}
