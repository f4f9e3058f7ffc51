//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/sitedeploy/internal/domain/commands"
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// StubWatchCommand is a stub implementation of commands.Watch.
type StubWatchCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	LastOpts         commands.WatchOptions
}

var _ commands.Watch = (*StubWatchCommand)(nil)

func (s *StubWatchCommand) Execute(_ context.Context, _ *entities.Settings, opts commands.WatchOptions) error {
	s.ExecuteCallCount++
	s.LastOpts = opts
	return s.ExecuteErr
}
