//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// StubNotifierRepository hands out a channel the test feeds.
type StubNotifierRepository struct {
	Events   chan string
	WatchErr error
	Dirs     []string
}

var _ repositories.NotifierRepository = (*StubNotifierRepository)(nil)

func (s *StubNotifierRepository) Watch(_ context.Context, dirs []string) (<-chan string, error) {
	s.Dirs = dirs
	if s.WatchErr != nil {
		return nil, s.WatchErr
	}
	if s.Events == nil {
		s.Events = make(chan string)
	}
	return s.Events, nil
}
