//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/sitedeploy/internal/domain/commands"
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// StubUnlockCommand is a stub implementation of commands.Unlock.
type StubUnlockCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	Status           *entities.LockStatus
	LastOpts         commands.UnlockOptions
}

var _ commands.Unlock = (*StubUnlockCommand)(nil)

func (s *StubUnlockCommand) Execute(
	_ context.Context,
	_ *entities.Settings,
	opts commands.UnlockOptions,
) (*entities.LockStatus, error) {
	s.ExecuteCallCount++
	s.LastOpts = opts
	return s.Status, s.ExecuteErr
}
