//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/sitedeploy/internal/domain/commands"
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// StubHistoryCommand is a stub implementation of commands.History.
type StubHistoryCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	Entries          []repositories.CycleEntry
	LastOpts         commands.HistoryOptions
}

var _ commands.History = (*StubHistoryCommand)(nil)

func (s *StubHistoryCommand) Execute(
	_ context.Context,
	_ *entities.Settings,
	opts commands.HistoryOptions,
) ([]repositories.CycleEntry, error) {
	s.ExecuteCallCount++
	s.LastOpts = opts
	return s.Entries, s.ExecuteErr
}
