//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"
	"sync"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// FakeStateRepository keeps the state in memory. Load hands out a copy, so the
// stored state only changes through Save.
type FakeStateRepository struct {
	mu sync.Mutex

	State *entities.DeploymentState

	// --- Load ---
	LoadErr   error
	Corrupt   bool // Load returns a fresh state and ErrStateCorrupt
	LoadCount int

	// --- Quarantine ---
	QuarantineErr   error
	QuarantineCount int

	// --- Save ---
	SaveErr   error
	SaveCount int
}

var _ repositories.StateRepository = (*FakeStateRepository)(nil)

// NewFakeStateRepository creates a repository holding state (nil means first run).
func NewFakeStateRepository(state *entities.DeploymentState) *FakeStateRepository {
	return &FakeStateRepository{State: state}
}

func (r *FakeStateRepository) Load(_ context.Context) (*entities.DeploymentState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.LoadCount++

	if r.LoadErr != nil {
		return nil, r.LoadErr
	}
	if r.Corrupt {
		return entities.NewDeploymentState(), fmt.Errorf("%w: unexpected end of JSON input", entities.ErrStateCorrupt)
	}
	if r.State == nil {
		return entities.NewDeploymentState(), nil
	}
	return r.State.Clone(), nil
}

func (r *FakeStateRepository) Quarantine(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.QuarantineCount++

	if r.QuarantineErr != nil {
		return "", r.QuarantineErr
	}
	r.Corrupt = false
	r.State = nil
	return "state.json.corrupt-test", nil
}

func (r *FakeStateRepository) Save(_ context.Context, state *entities.DeploymentState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SaveCount++

	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.State = state.Clone()
	return nil
}

// Current returns a copy of the stored state.
func (r *FakeStateRepository) Current() *entities.DeploymentState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State == nil {
		return nil
	}
	return r.State.Clone()
}
