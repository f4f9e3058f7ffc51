//go:build unit

package controllers_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
	"github.com/rios0rios0/sitedeploy/internal/infrastructure/controllers"
	"github.com/rios0rios0/sitedeploy/test/domain/commanddoubles"
)

func TestHistoryControllerExecute(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []repositories.CycleEntry{
		{
			At:       at,
			Mode:     entities.ModeReports,
			Outcome:  entities.CycleFailed,
			Decision: entities.DecisionDeployReports,
			Record: &entities.DeploymentRecord{
				Kind:     entities.KindReports,
				Outcome:  entities.OutcomeFailure,
				Duration: 42 * time.Second,
				Error:    "generator exited with status 1",
			},
		},
		{
			At:       at.Add(-time.Hour),
			Mode:     entities.ModeAuto,
			Outcome:  entities.CycleNoop,
			Decision: entities.DecisionNone,
			Reason:   "3 more report changes needed",
		},
	}

	t.Run("should print the entries as a table", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubHistoryCommand{Entries: entries}
		controller := controllers.NewHistoryController(stub)
		cmd, out := newCommand(t, controller, "--limit", "2")

		// when
		err := controller.Execute(cmd, nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, stub.LastOpts.Limit)
		printed := out.String()
		assert.Contains(t, printed, "generator exited with status 1")
		assert.Contains(t, printed, "42s")
		assert.Contains(t, printed, "3 more report changes needed")
	})

	t.Run("should print the entries as JSON", func(t *testing.T) {
		t.Parallel()

		// given
		stub := &commanddoubles.StubHistoryCommand{Entries: entries}
		controller := controllers.NewHistoryController(stub)
		cmd, out := newCommand(t, controller, "--json")

		// when
		err := controller.Execute(cmd, nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, 20, stub.LastOpts.Limit)
		var decoded []map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		assert.Len(t, decoded, 2)
	})

	t.Run("should say so when there is no history", func(t *testing.T) {
		t.Parallel()

		// given
		controller := controllers.NewHistoryController(&commanddoubles.StubHistoryCommand{})
		cmd, out := newCommand(t, controller)

		// when
		err := controller.Execute(cmd, nil)

		// then
		require.NoError(t, err)
		assert.Contains(t, out.String(), "No history yet")
	})
}
