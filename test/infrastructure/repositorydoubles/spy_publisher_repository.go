//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// SpyPublisherRepository records publishes.
type SpyPublisherRepository struct {
	mu sync.Mutex

	Result    repositories.PublishResult
	Err       error
	OnPublish func(kind entities.DeploymentKind)
	Kinds     []entities.DeploymentKind
	Messages  []string
}

var _ repositories.PublisherRepository = (*SpyPublisherRepository)(nil)

func (s *SpyPublisherRepository) Publish(
	_ context.Context, kind entities.DeploymentKind, message string,
) (repositories.PublishResult, error) {
	s.mu.Lock()
	hook := s.OnPublish
	s.mu.Unlock()
	if hook != nil {
		hook(kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Kinds = append(s.Kinds, kind)
	s.Messages = append(s.Messages, message)
	if s.Err != nil {
		return repositories.PublishResult{}, s.Err
	}
	return s.Result, nil
}
