// Package memory provides an in-process ReportStore for tests and
// throwaway sessions. Nothing is persisted.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

var _ driven.ReportStore = (*Store)(nil)

type hashKey struct {
	user string
	hash string
}

// Store keeps records in insertion order.
type Store struct {
	mu      sync.RWMutex
	seq     int64
	records []domain.ReportRecord
	byHash  map[hashKey]int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{byHash: make(map[hashKey]int)}
}

// Insert appends a copy of record.
func (s *Store) Insert(_ context.Context, record *domain.ReportRecord) error {
	if record == nil || record.User == "" {
		return fmt.Errorf("%w: record requires a user", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := hashKey{record.User, record.ContentHash}
	if _, ok := s.byHash[key]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, record.FileName)
	}

	inserted := *record
	if inserted.ID == "" {
		inserted.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if inserted.CreatedAt.IsZero() {
		inserted.CreatedAt = now
	}
	inserted.UpdatedAt = now
	s.seq++
	inserted.Seq = s.seq

	s.byHash[key] = len(s.records)
	s.records = append(s.records, copyRecord(inserted))
	*record = inserted
	return nil
}

// UpdateSymptoms overwrites symptoms on the user's latest record.
func (s *Store) UpdateSymptoms(_ context.Context, user, symptoms string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.latestIndex(user)
	if i < 0 {
		return domain.ErrNotFound
	}
	s.records[i].Symptoms = symptoms
	s.records[i].UpdatedAt = time.Now().UTC()
	return nil
}

// ListByUser returns the user's records in insertion order.
func (s *Store) ListByUser(_ context.Context, user string) ([]domain.ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.ReportRecord{}
	for _, r := range s.records {
		if r.User == user {
			out = append(out, copyRecord(r))
		}
	}
	return out, nil
}

// Latest returns the user's most recent record.
func (s *Store) Latest(_ context.Context, user string) (*domain.ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.latestIndex(user)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	r := copyRecord(s.records[i])
	return &r, nil
}

// Get returns one of the user's records by ID.
func (s *Store) Get(_ context.Context, user, id string) (*domain.ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := slices.IndexFunc(s.records, func(r domain.ReportRecord) bool {
		return r.User == user && r.ID == id
	})
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	r := copyRecord(s.records[i])
	return &r, nil
}

// FindByHash returns the user's record with the given content hash.
func (s *Store) FindByHash(_ context.Context, user, hash string) (*domain.ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byHash[hashKey{user, hash}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r := copyRecord(s.records[i])
	return &r, nil
}

// Close releases resources.
func (s *Store) Close() error { return nil }

// latestIndex must be called with the lock held.
func (s *Store) latestIndex(user string) int {
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].User == user {
			return i
		}
	}
	return -1
}

func copyRecord(r domain.ReportRecord) domain.ReportRecord {
	r.ParsedData = cloneParsed(r.ParsedData)
	return r
}

func cloneParsed(d *domain.ParsedData) *domain.ParsedData {
	if d == nil {
		return nil
	}
	out := &domain.ParsedData{}
	for _, p := range domain.AllLabParameters() {
		if v := d.Value(p); v != nil {
			f := *v
			out.Set(p, &f)
		}
	}
	if d.AdditionalNotes != nil {
		notes := *d.AdditionalNotes
		out.AdditionalNotes = &notes
	}
	return out
}
