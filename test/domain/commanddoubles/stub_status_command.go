//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/sitedeploy/internal/domain/commands"
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// StubStatusCommand is a stub implementation of commands.Status.
type StubStatusCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	Report           *entities.StatusReport
	LastOpts         commands.StatusOptions
}

var _ commands.Status = (*StubStatusCommand)(nil)

func (s *StubStatusCommand) Execute(
	_ context.Context,
	_ *entities.Settings,
	opts commands.StatusOptions,
) (*entities.StatusReport, error) {
	s.ExecuteCallCount++
	s.LastOpts = opts
	if s.ExecuteErr != nil {
		return nil, s.ExecuteErr
	}
	return s.Report, nil
}
