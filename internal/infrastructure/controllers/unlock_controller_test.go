//go:build unit

package controllers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/sitedeploy/internal/domain/commands"
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/infrastructure/controllers"
	"github.com/rios0rios0/sitedeploy/test/domain/commanddoubles"
)

func TestUnlockControllerExecute(t *testing.T) {
	t.Parallel()

	t.Run("should pass the confirmation flags and report the cleared lock", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubUnlockCommand{Status: &entities.LockStatus{Held: true, Stale: true}}
		controller := controllers.NewUnlockController(stub)
		cmd, out := newCommand(t, controller, "-y", "--force")

		// when
		err := controller.Execute(cmd, nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, commands.UnlockOptions{Confirm: true, Force: true}, stub.LastOpts)
		assert.Contains(t, out.String(), "Deployment lock cleared")
	})

	t.Run("should stay quiet when the lock was free", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubUnlockCommand{Status: &entities.LockStatus{}}
		controller := controllers.NewUnlockController(stub)
		cmd, out := newCommand(t, controller)

		// when
		err := controller.Execute(cmd, nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, commands.UnlockOptions{}, stub.LastOpts)
		assert.Empty(t, out.String())
	})

	t.Run("should surface a missing confirmation", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubUnlockCommand{
			Status:     &entities.LockStatus{Held: true, Stale: true},
			ExecuteErr: commands.ErrUnlockNotConfirmed,
		}
		controller := controllers.NewUnlockController(stub)
		cmd, out := newCommand(t, controller)

		// when
		err := controller.Execute(cmd, nil)

		// then
		require.ErrorIs(t, err, commands.ErrUnlockNotConfirmed)
		assert.Empty(t, out.String())
	})
}
