//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/sitedeploy/internal/domain/commands"
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	builders "github.com/rios0rios0/sitedeploy/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/sitedeploy/test/infrastructure/repositorydoubles"
)

func TestUnlockCommandExecute(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	settings := builders.NewSettingsBuilder().BuildSettings()

	setup := func(alive bool) (*doubles.InMemoryBackends, *commands.UnlockCommand) {
		backends := doubles.NewInMemoryBackends(siteFiles(), nil)
		backends.Lock.Holder = builders.NewLockInfoBuilder().WithAcquiredAt(now.Add(-time.Minute)).BuildLockInfo()
		backends.Process.AlivePIDs[4242] = alive
		command := commands.NewUnlockCommand(&doubles.StubBackendsFactory{Backends: backends})
		command.SetClock(func() time.Time { return now })
		return backends, command
	}

	t.Run("should do nothing when the lock is free", func(t *testing.T) {
		t.Parallel()

		// given
		backends, command := setup(false)
		backends.Lock.Holder = nil

		// when
		status, err := command.Execute(context.Background(), settings, commands.UnlockOptions{Confirm: true})

		// then
		require.NoError(t, err)
		assert.False(t, status.Held)
		assert.Empty(t, backends.Lock.Cleared)
	})

	t.Run("should require confirmation before clearing a stale lock", func(t *testing.T) {
		t.Parallel()

		// given
		backends, command := setup(false)

		// when
		status, err := command.Execute(context.Background(), settings, commands.UnlockOptions{})

		// then
		require.ErrorIs(t, err, commands.ErrUnlockNotConfirmed)
		assert.True(t, status.Stale)
		assert.True(t, backends.Lock.Held())
	})

	t.Run("should clear a stale lock once confirmed", func(t *testing.T) {
		t.Parallel()

		// given
		backends, command := setup(false)

		// when
		status, err := command.Execute(context.Background(), settings, commands.UnlockOptions{Confirm: true})

		// then
		require.NoError(t, err)
		assert.True(t, status.Stale)
		assert.Equal(t, []string{"other-run"}, backends.Lock.Cleared)
		assert.False(t, backends.Lock.Held())
	})

	t.Run("should refuse to clear a live lock without force", func(t *testing.T) {
		t.Parallel()

		// given
		backends, command := setup(true)

		// when
		_, err := command.Execute(context.Background(), settings, commands.UnlockOptions{Confirm: true})

		// then
		require.ErrorIs(t, err, commands.ErrLockStillAlive)
		assert.Contains(t, err.Error(), "pass --force")
		assert.True(t, backends.Lock.Held())
	})

	t.Run("should clear a live lock with force and confirmation", func(t *testing.T) {
		t.Parallel()

		// given
		backends, command := setup(true)

		// when
		_, err := command.Execute(context.Background(), settings, commands.UnlockOptions{Confirm: true, Force: true})

		// then
		require.NoError(t, err)
		assert.False(t, backends.Lock.Held())
	})
}

func TestUnlockCommandRecordsAbandonedRun(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	acquired := now.Add(-10 * time.Minute)
	settings := builders.NewSettingsBuilder().BuildSettings()

	setup := func(mode entities.Mode, alive bool) (*doubles.InMemoryBackends, *commands.UnlockCommand) {
		state := builders.NewDeploymentStateBuilder().
			WithChangeCount(3).
			WithFingerprint(homepagePath, "home-v1").
			BuildState()
		backends := doubles.NewInMemoryBackends(siteFiles(), state)
		backends.Lock.Holder = builders.NewLockInfoBuilder().WithMode(mode).WithAcquiredAt(acquired).BuildLockInfo()
		backends.Process.AlivePIDs[4242] = alive
		command := commands.NewUnlockCommand(&doubles.StubBackendsFactory{Backends: backends})
		command.SetClock(func() time.Time { return now })
		return backends, command
	}

	t.Run("should record the abandoned deployment as a failure", func(t *testing.T) {
		t.Parallel()

		// given
		backends, command := setup(entities.ModeReports, false)

		// when
		_, err := command.Execute(context.Background(), settings, commands.UnlockOptions{Confirm: true})

		// then
		require.NoError(t, err)
		state := backends.State.Current()
		require.Len(t, state.History, 1)
		record := state.History[0]
		assert.Equal(t, entities.KindReports, record.Kind)
		assert.Equal(t, entities.TriggerForced, record.Trigger)
		assert.Equal(t, entities.OutcomeFailure, record.Outcome)
		assert.Equal(t, acquired, record.Timestamp)
		assert.Equal(t, 10*time.Minute, record.Duration)
		assert.Contains(t, record.Error, "abandoned: ")
		assert.Equal(t, 3, state.ChangeCount)
		assert.Equal(t, "home-v1", state.FileFingerprints[homepagePath])
		assert.Nil(t, state.LastReportDeploy)

		require.Len(t, backends.History.Entries, 1)
		entry := backends.History.Entries[0]
		assert.Equal(t, entities.CycleFailed, entry.Outcome)
		assert.Equal(t, entities.DecisionDeployReports, entry.Decision)
		assert.Equal(t, record.Error, entry.Reason)
		assert.False(t, backends.Lock.Held())
	})

	t.Run("should record an abandoned automatic run with an unknown kind", func(t *testing.T) {
		t.Parallel()

		// given
		backends, command := setup(entities.ModeAuto, false)

		// when
		_, err := command.Execute(context.Background(), settings, commands.UnlockOptions{Confirm: true})

		// then
		require.NoError(t, err)
		state := backends.State.Current()
		require.Len(t, state.History, 1)
		assert.Equal(t, entities.KindUnknown, state.History[0].Kind)
		assert.Equal(t, entities.TriggerAuto, state.History[0].Trigger)
		require.Len(t, backends.History.Entries, 1)
		assert.Equal(t, entities.DecisionNone, backends.History.Entries[0].Decision)
	})

	t.Run("should say a live run was cleared with force", func(t *testing.T) {
		t.Parallel()

		// given
		backends, command := setup(entities.ModeHomepage, true)

		// when
		_, err := command.Execute(context.Background(), settings, commands.UnlockOptions{Confirm: true, Force: true})

		// then
		require.NoError(t, err)
		state := backends.State.Current()
		require.Len(t, state.History, 1)
		assert.Equal(t, entities.KindHomepage, state.History[0].Kind)
		assert.Contains(t, state.History[0].Error, "--force")
	})

	t.Run("should only write the ledger when the state is unreadable", func(t *testing.T) {
		t.Parallel()

		// given
		backends, command := setup(entities.ModeReports, false)
		backends.State.Corrupt = true

		// when
		_, err := command.Execute(context.Background(), settings, commands.UnlockOptions{Confirm: true})

		// then
		require.NoError(t, err)
		assert.Zero(t, backends.State.SaveCount)
		assert.Len(t, backends.History.Entries, 1)
		assert.False(t, backends.Lock.Held())
	})

	t.Run("should report a state write failure after clearing the lock", func(t *testing.T) {
		t.Parallel()

		// given
		backends, command := setup(entities.ModeReports, false)
		backends.State.SaveErr = errors.New("disk full")

		// when
		status, err := command.Execute(context.Background(), settings, commands.UnlockOptions{Confirm: true})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.True(t, status.Stale)
		assert.Equal(t, []string{"other-run"}, backends.Lock.Cleared)
		assert.False(t, backends.Lock.Held())
	})

	t.Run("should report when the lock cannot be taken to record the run", func(t *testing.T) {
		t.Parallel()

		// given
		backends, command := setup(entities.ModeReports, false)
		backends.Lock.AcquireErr = errors.New("guard unavailable")

		// when
		_, err := command.Execute(context.Background(), settings, commands.UnlockOptions{Confirm: true})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not recorded")
		assert.Empty(t, backends.History.Entries)
	})
}
