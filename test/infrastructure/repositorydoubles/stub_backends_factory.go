//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"sync"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// TestHost is the hostname reported by the default process stub.
const TestHost = "test-host"

// InMemoryBackends groups the doubles of one test, typed for inspection.
type InMemoryBackends struct {
	State     *FakeStateRepository
	Lock      *FakeLockRepository
	Process   *StubProcessRepository
	Workspace *FakeWorkspaceRepository
	Actions   *SpyActionRepository
	Publisher *SpyPublisherRepository
	History   *SpyHistoryRepository
	Metrics   *SpyMetricsRepository
	Notifier  *StubNotifierRepository
}

// NewInMemoryBackends creates doubles for a workspace holding files and a stored state.
func NewInMemoryBackends(files map[string]string, state *entities.DeploymentState) *InMemoryBackends {
	return &InMemoryBackends{
		State:     NewFakeStateRepository(state),
		Lock:      &FakeLockRepository{},
		Process:   &StubProcessRepository{Host: TestHost, AlivePIDs: map[int]bool{}},
		Workspace: NewFakeWorkspaceRepository(files),
		Actions:   &SpyActionRepository{},
		Publisher: &SpyPublisherRepository{Result: repositories.PublishResult{Published: true, Commit: "0123456789abcdef"}},
		History:   &SpyHistoryRepository{},
		Metrics:   &SpyMetricsRepository{},
		Notifier:  &StubNotifierRepository{},
	}
}

// Backends returns the domain view of the doubles.
func (b *InMemoryBackends) Backends() *repositories.Backends {
	return &repositories.Backends{
		State:     b.State,
		Lock:      b.Lock,
		Process:   b.Process,
		Workspace: b.Workspace,
		Actions:   b.Actions,
		Publisher: b.Publisher,
		History:   b.History,
		Metrics:   b.Metrics,
		Notifier:  b.Notifier,
	}
}

// StubBackendsFactory returns the same backends on every Open.
type StubBackendsFactory struct {
	mu sync.Mutex

	Backends  *InMemoryBackends
	OpenErr   error
	OpenCount int
}

var _ repositories.BackendsFactory = (*StubBackendsFactory)(nil)

func (f *StubBackendsFactory) Open(_ *entities.Settings) (*repositories.Backends, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.OpenCount++
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	return f.Backends.Backends(), nil
}
