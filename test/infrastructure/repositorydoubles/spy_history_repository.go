//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// SpyHistoryRepository keeps appended entries in memory.
type SpyHistoryRepository struct {
	mu sync.Mutex

	Entries    []repositories.CycleEntry
	AppendErr  error
	ListErr    error
	ListLimit  int
	CloseCount int
}

var _ repositories.HistoryRepository = (*SpyHistoryRepository)(nil)

func (s *SpyHistoryRepository) Append(_ context.Context, entry repositories.CycleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppendErr != nil {
		return s.AppendErr
	}
	s.Entries = append(s.Entries, entry)
	return nil
}

// List returns the entries newest first.
func (s *SpyHistoryRepository) List(_ context.Context, limit int) ([]repositories.CycleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListLimit = limit
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := make([]repositories.CycleEntry, 0, len(s.Entries))
	for i := len(s.Entries) - 1; i >= 0; i-- {
		out = append(out, s.Entries[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *SpyHistoryRepository) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCount++
	return nil
}

// Outcomes returns the outcome of every appended entry, in order.
func (s *SpyHistoryRepository) Outcomes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.Entries))
	for _, entry := range s.Entries {
		out = append(out, string(entry.Outcome))
	}
	return out
}
