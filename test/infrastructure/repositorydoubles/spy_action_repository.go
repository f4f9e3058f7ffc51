//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// SpyActionRepository records regenerations and optionally simulates their side effects.
type SpyActionRepository struct {
	mu sync.Mutex

	Err          error
	OnRegenerate func(kind entities.DeploymentKind)
	Calls        []entities.DeploymentKind
}

var _ repositories.ActionRepository = (*SpyActionRepository)(nil)

func (s *SpyActionRepository) Regenerate(_ context.Context, kind entities.DeploymentKind) error {
	s.mu.Lock()
	s.Calls = append(s.Calls, kind)
	hook := s.OnRegenerate
	s.mu.Unlock()

	if hook != nil {
		hook(kind)
	}
	return s.Err
}

// CallCount returns how many regenerations ran.
func (s *SpyActionRepository) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}
