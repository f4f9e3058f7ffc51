package repositories

import (
	"context"
	"time"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// CycleEntry is one row of the deployment ledger, written for every cycle
// including skipped and no-op ones.
type CycleEntry struct {
	At       time.Time
	Mode     entities.Mode
	Outcome  entities.CycleOutcome
	Decision entities.Decision
	Reason   string
	Record   *entities.DeploymentRecord
}

// HistoryRepository keeps the unbounded deployment ledger.
type HistoryRepository interface {
	Append(ctx context.Context, entry CycleEntry) error
	List(ctx context.Context, limit int) ([]CycleEntry, error)
	Close() error
}
