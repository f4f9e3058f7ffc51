package repositories

import (
	"context"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// StateRepository persists the deployment state.
type StateRepository interface {
	// Load returns the persisted state, or a fresh state on first run. When the
	// stored state cannot be parsed it returns a fresh state together with an
	// error wrapping entities.ErrStateCorrupt.
	Load(ctx context.Context) (*entities.DeploymentState, error)

	// Quarantine moves an unparsable state file aside so its content is kept for
	// inspection, and returns the new location ("" when there was nothing to move).
	Quarantine(ctx context.Context) (string, error)

	// Save replaces the persisted state atomically.
	Save(ctx context.Context, state *entities.DeploymentState) error
}
