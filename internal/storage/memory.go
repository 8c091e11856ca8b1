package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

// MemoryStore is an in-memory ReportStore. Reports are copied on the way
// in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*domain.StoredReport
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]*domain.StoredReport)}
}

// Save stores a copy of report under a fresh identifier
func (s *MemoryStore) Save(_ context.Context, report *domain.StoredReport) (string, error) {
	stored := report.Clone()
	stored.ID = uuid.New().String()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[stored.ID] = stored
	return stored.ID, nil
}

// Get returns a copy of the report
func (s *MemoryStore) Get(_ context.Context, id string) (*domain.StoredReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return report.Clone(), nil
}

// List returns summaries, newest first
func (s *MemoryStore) List(_ context.Context, opts ListOptions) ([]domain.ReportSummary, error) {
	opts = opts.normalized()

	s.mu.RLock()
	summaries := make([]domain.ReportSummary, 0, len(s.reports))
	for _, report := range s.reports {
		summaries = append(summaries, report.Summary())
	}
	s.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].ID > summaries[j].ID
	})

	if opts.Offset >= len(summaries) {
		return []domain.ReportSummary{}, nil
	}
	end := opts.Offset + opts.Limit
	if end > len(summaries) {
		end = len(summaries)
	}
	return summaries[opts.Offset:end], nil
}

// Delete removes a report
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[id]; !ok {
		return ErrNotFound
	}
	delete(s.reports, id)
	return nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op
func (s *MemoryStore) Close() error { return nil }
