//go:build unit

package commands_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/sitedeploy/internal/domain/commands"
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	builders "github.com/rios0rios0/sitedeploy/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/sitedeploy/test/infrastructure/repositorydoubles"
)

func TestPlanFor(t *testing.T) {
	t.Parallel()

	cs := entities.NewChangeSet(
		entities.Change{Path: homepagePath, Category: entities.CategoryHomepage, Fingerprint: "h"},
		entities.Change{Path: "building_reports/a.html", Category: entities.CategoryReportData, Fingerprint: "a"},
		entities.Change{Path: generatorPath, Category: entities.CategoryCode, Fingerprint: "g"},
	)

	t.Run("should not plan anything for a none decision", func(t *testing.T) {
		t.Parallel()

		// given
		verdict := entities.Verdict{Decision: entities.DecisionNone}

		// when
		_, ok := commands.PlanFor(entities.ModeAuto, verdict, cs)

		// then
		assert.False(t, ok)
	})

	t.Run("should consume everything for a report deployment", func(t *testing.T) {
		t.Parallel()

		// given
		verdict := entities.Verdict{Decision: entities.DecisionDeployReports, ReportChanges: 1, ProjectedCount: 4}

		// when
		plan, ok := commands.PlanFor(entities.ModeAuto, verdict, cs)

		// then
		require.True(t, ok)
		assert.Equal(t, entities.KindReports, plan.Kind)
		assert.Equal(t, entities.TriggerAuto, plan.Trigger)
		assert.Len(t, plan.Consume.Changes, 3)
		assert.Zero(t, plan.Accumulate)
		assert.Equal(t, 4, plan.TriggeringChangeCount)
	})

	t.Run("should carry report changes along with an automatic homepage deployment", func(t *testing.T) {
		t.Parallel()

		// given
		verdict := entities.Verdict{Decision: entities.DecisionDeployHomepage, ReportChanges: 1}

		// when
		plan, ok := commands.PlanFor(entities.ModeAuto, verdict, cs)

		// then
		require.True(t, ok)
		assert.Equal(t, []string{homepagePath, "building_reports/a.html"}, plan.Consume.Paths())
		assert.Equal(t, 1, plan.Accumulate)
		assert.Equal(t, 1, plan.TriggeringChangeCount)
	})

	t.Run("should leave report changes alone for a forced homepage deployment", func(t *testing.T) {
		t.Parallel()

		// given
		verdict := entities.Verdict{Decision: entities.DecisionDeployHomepage, ReportChanges: 1}

		// when
		plan, ok := commands.PlanFor(entities.ModeHomepage, verdict, cs)

		// then
		require.True(t, ok)
		assert.Equal(t, entities.TriggerForced, plan.Trigger)
		assert.Equal(t, []string{homepagePath}, plan.Consume.Paths())
		assert.Zero(t, plan.Accumulate)
	})
}

func TestExecutorExecute(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("should regenerate publish and advance the state on success", func(t *testing.T) {
		t.Parallel()

		// given
		backends := doubles.NewInMemoryBackends(siteFiles(), nil)
		executor := commands.NewExecutor(backends.Actions, backends.Publisher, nil, 10)
		executor.SetClock(func() time.Time { return now })
		state := builders.NewDeploymentStateBuilder().WithChangeCount(6).BuildState()
		plan := commands.DeploymentPlan{
			Kind:    entities.KindReports,
			Trigger: entities.TriggerForced,
			Consume: entities.NewChangeSet(
				entities.Change{Path: "building_reports/a.html", Category: entities.CategoryReportData, Fingerprint: "a2"},
			),
			TriggeringChangeCount: 6,
		}

		// when
		record, err := executor.Execute(context.Background(), state, plan, now)

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.OutcomeSuccess, record.Outcome)
		assert.True(t, record.Published)
		assert.Equal(t, "0123456789abcdef", record.Commit)
		assert.Equal(t, 6, record.TriggeringChangeCount)
		assert.Equal(t, []entities.DeploymentKind{entities.KindReports}, backends.Actions.Calls)
		assert.Equal(t, []string{"Reports update: 2026-03-01 12:00:00"}, backends.Publisher.Messages)
		assert.Zero(t, state.ChangeCount)
		assert.Equal(t, "a2", state.FileFingerprints["building_reports/a.html"])
		require.NotNil(t, state.LastReportDeploy)
		assert.Equal(t, now, *state.LastReportDeploy)
		require.Len(t, state.History, 1)
	})

	t.Run("should only record the failure when an action fails", func(t *testing.T) {
		t.Parallel()

		// given
		backends := doubles.NewInMemoryBackends(siteFiles(), nil)
		backends.Actions.Err = fmt.Errorf("%w: bash deploy_reports.sh: exit status 2", entities.ErrExternalActionFailed)
		executor := commands.NewExecutor(backends.Actions, backends.Publisher, nil, 10)
		state := builders.NewDeploymentStateBuilder().WithChangeCount(6).WithFingerprint("building_reports/a.html", "a1").BuildState()
		plan := commands.DeploymentPlan{
			Kind: entities.KindReports,
			Consume: entities.NewChangeSet(
				entities.Change{Path: "building_reports/a.html", Category: entities.CategoryReportData, Fingerprint: "a2"},
			),
		}

		// when
		record, err := executor.Execute(context.Background(), state, plan, now)

		// then
		require.ErrorIs(t, err, entities.ErrExternalActionFailed)
		assert.Equal(t, entities.OutcomeFailure, record.Outcome)
		assert.Contains(t, record.Error, "exit status 2")
		assert.Empty(t, backends.Publisher.Kinds, "publish must not run after a failed regeneration")
		assert.Equal(t, 6, state.ChangeCount)
		assert.Equal(t, "a1", state.FileFingerprints["building_reports/a.html"])
		assert.Nil(t, state.LastReportDeploy)
		require.Len(t, state.History, 1)
	})

	t.Run("should fail the deployment when publishing fails", func(t *testing.T) {
		t.Parallel()

		// given
		backends := doubles.NewInMemoryBackends(siteFiles(), nil)
		backends.Publisher.Err = fmt.Errorf("%w: git push: connection reset", entities.ErrExternalActionFailed)
		executor := commands.NewExecutor(backends.Actions, backends.Publisher, nil, 10)
		state := entities.NewDeploymentState()
		plan := commands.DeploymentPlan{Kind: entities.KindHomepage}

		// when
		_, err := executor.Execute(context.Background(), state, plan, now)

		// then
		require.ErrorIs(t, err, entities.ErrExternalActionFailed)
		assert.Contains(t, err.Error(), "publish homepage")
		assert.Nil(t, state.LastHomepageDeploy)
	})

	t.Run("should record a deployment with nothing to publish as a success", func(t *testing.T) {
		t.Parallel()

		// given
		backends := doubles.NewInMemoryBackends(siteFiles(), nil)
		backends.Publisher.Result.Published = false
		backends.Publisher.Result.Commit = ""
		executor := commands.NewExecutor(backends.Actions, backends.Publisher, nil, 10)
		state := entities.NewDeploymentState()

		// when
		record, err := executor.Execute(context.Background(), state, commands.DeploymentPlan{Kind: entities.KindHomepage}, now)

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.OutcomeSuccess, record.Outcome)
		assert.False(t, record.Published)
		require.NotNil(t, state.LastHomepageDeploy)
	})
}

func TestCommitMessage(t *testing.T) {
	t.Parallel()

	t.Run("should label the message by kind", func(t *testing.T) {
		t.Parallel()

		// given
		now := time.Date(2026, 3, 1, 9, 5, 7, 0, time.UTC)

		// when, then
		assert.Equal(t, "Homepage update: 2026-03-01 09:05:07", commands.CommitMessage(entities.KindHomepage, now))
		assert.Equal(t, "Reports update: 2026-03-01 09:05:07", commands.CommitMessage(entities.KindReports, now))
	})

	t.Run("should shorten commit hashes", func(t *testing.T) {
		t.Parallel()

		// given, when, then
		assert.Equal(t, "01234567", commands.ShortHash("0123456789abcdef"))
		assert.Equal(t, "abc", commands.ShortHash("abc"))
	})
}
