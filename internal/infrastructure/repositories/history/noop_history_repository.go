package history

import (
	"context"

	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// NoopHistoryRepository is used when no ledger database is configured.
type NoopHistoryRepository struct{}

// NewNoopHistoryRepository creates a ledger that keeps nothing.
func NewNoopHistoryRepository() *NoopHistoryRepository {
	return &NoopHistoryRepository{}
}

func (it *NoopHistoryRepository) Append(context.Context, repositories.CycleEntry) error { return nil }

func (it *NoopHistoryRepository) List(context.Context, int) ([]repositories.CycleEntry, error) {
	return []repositories.CycleEntry{}, nil
}

func (it *NoopHistoryRepository) Close() error { return nil }
