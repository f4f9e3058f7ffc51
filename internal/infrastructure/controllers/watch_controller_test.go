//go:build unit

package controllers_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/sitedeploy/internal/infrastructure/controllers"
	"github.com/rios0rios0/sitedeploy/test/domain/commanddoubles"
)

func TestWatchControllerExecute(t *testing.T) {
	t.Parallel()

	t.Run("should start the watcher with the verbose flag", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubWatchCommand{}
		controller := controllers.NewWatchController(stub)
		cmd, _ := newCommand(t, controller, "--verbose")

		// when
		err := controller.Execute(cmd, nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, stub.ExecuteCallCount)
		assert.True(t, stub.LastOpts.Verbose)
	})

	t.Run("should wrap the watcher error", func(t *testing.T) {
		t.Parallel()

		// given
		boom := errors.New("boom")
		controller := controllers.NewWatchController(&commanddoubles.StubWatchCommand{ExecuteErr: boom})
		cmd, _ := newCommand(t, controller)

		// when
		err := controller.Execute(cmd, nil)

		// then
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "watch failed")
	})
}
