package commands

import (
	"context"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// commitTimeLayout matches the timestamps the site's commit history already uses.
const commitTimeLayout = "2006-01-02 15:04:05"

// DeploymentPlan is what the executor needs to carry out a decision.
type DeploymentPlan struct {
	Kind    entities.DeploymentKind
	Trigger entities.Trigger
	// Consume holds the changes whose fingerprints advance on success.
	Consume entities.ChangeSet
	// Accumulate is added to the change count on success (report changes
	// that rode along with a homepage deployment).
	Accumulate            int
	TriggeringChangeCount int
}

// PlanFor turns a deploying verdict into a plan. Automatic homepage deployments
// also consume the report changes they count; forced homepage deployments leave
// them for the batching path; report deployments consume everything.
func PlanFor(mode entities.Mode, verdict entities.Verdict, cs entities.ChangeSet) (DeploymentPlan, bool) {
	kind, ok := verdict.Decision.Kind()
	if !ok {
		return DeploymentPlan{}, false
	}

	plan := DeploymentPlan{Kind: kind, Trigger: mode.Trigger()}
	switch {
	case kind == entities.KindReports:
		plan.Consume = cs
		plan.TriggeringChangeCount = verdict.ProjectedCount
	case mode.Forced():
		plan.Consume = cs.Filter(entities.CategoryHomepage)
		plan.TriggeringChangeCount = plan.Consume.Count(entities.CategoryHomepage)
	default:
		plan.Consume = cs.Filter(entities.CategoryHomepage, entities.CategoryReportData)
		plan.Accumulate = verdict.ReportChanges
		plan.TriggeringChangeCount = cs.Count(entities.CategoryHomepage)
	}
	return plan, true
}

// Executor runs the external actions of a plan and applies the outcome to the state.
type Executor struct {
	actions      repositories.ActionRepository
	publisher    repositories.PublisherRepository
	detector     *ChangeDetector
	historyLimit int
	clock        func() time.Time
}

// NewExecutor creates an executor.
func NewExecutor(
	actions repositories.ActionRepository,
	publisher repositories.PublisherRepository,
	detector *ChangeDetector,
	historyLimit int,
) *Executor {
	return &Executor{
		actions:      actions,
		publisher:    publisher,
		detector:     detector,
		historyLimit: historyLimit,
		clock:        time.Now,
	}
}

// Execute regenerates and publishes. On success it advances the consumed
// fingerprints, stamps the deployment time and, for reports, resets the change
// count. On failure the only mutation is the failure record, so the same
// changes are detected again by the next cycle.
func (it *Executor) Execute(
	ctx context.Context,
	state *entities.DeploymentState,
	plan DeploymentPlan,
	now time.Time,
) (entities.DeploymentRecord, error) {
	started := it.clock()
	record := entities.DeploymentRecord{
		Kind:                  plan.Kind,
		Trigger:               plan.Trigger,
		Timestamp:             now,
		TriggeringChangeCount: plan.TriggeringChangeCount,
	}

	log := logger.WithFields(logger.Fields{"kind": plan.Kind, "trigger": plan.Trigger})
	log.Infof("Deploying %s (%d change(s))", plan.Kind, len(plan.Consume.Changes))

	published, absorbed, err := it.run(ctx, state, plan, now)
	record.Duration = it.clock().Sub(started)
	if err != nil {
		record.Outcome = entities.OutcomeFailure
		record.Error = err.Error()
		state.AppendRecord(record, it.historyLimit)
		log.Errorf("Deployment failed after %s: %v", record.Duration.Round(time.Millisecond), err)
		return record, err
	}

	record.Outcome = entities.OutcomeSuccess
	record.Published = published.Published
	record.Commit = published.Commit

	state.Consume(plan.Consume)
	state.Accumulate(plan.Accumulate)
	state.MarkDeployed(plan.Kind, now)
	state.Consume(absorbed)
	state.AppendRecord(record, it.historyLimit)

	if published.Published {
		log.Infof("Deployed successfully in %s (commit %s)", record.Duration.Round(time.Millisecond), shortHash(published.Commit))
	} else {
		log.Infof("Deployed successfully in %s, nothing new to publish", record.Duration.Round(time.Millisecond))
	}
	return record, nil
}

// run regenerates, reads back the regenerated output and publishes. The
// output is read before publishing so edits landing after the push are left
// for the next cycle.
func (it *Executor) run(
	ctx context.Context, state *entities.DeploymentState, plan DeploymentPlan, now time.Time,
) (repositories.PublishResult, entities.ChangeSet, error) {
	if err := it.actions.Regenerate(ctx, plan.Kind); err != nil {
		return repositories.PublishResult{}, entities.ChangeSet{}, err
	}
	absorbed := it.regeneratedOutput(ctx, state, plan)
	result, err := it.publisher.Publish(ctx, plan.Kind, CommitMessage(plan.Kind, now))
	if err != nil {
		return repositories.PublishResult{}, entities.ChangeSet{}, fmt.Errorf("publish %s: %w", plan.Kind, err)
	}
	return result, absorbed, nil
}

// regeneratedOutput returns the files the deployment itself rewrote, relative
// to the fingerprints the plan will leave behind, so its own output is not
// counted as new changes. The state is not modified.
func (it *Executor) regeneratedOutput(
	ctx context.Context, state *entities.DeploymentState, plan DeploymentPlan,
) entities.ChangeSet {
	if it.detector == nil {
		return entities.ChangeSet{}
	}
	regenerated := []entities.Category{entities.CategoryHomepage}
	if plan.Kind == entities.KindReports {
		regenerated = append(regenerated, entities.CategoryReportData)
	}

	projected := state.Clone()
	projected.Consume(plan.Consume)
	after, err := it.detector.Detect(ctx, projected.FileFingerprints)
	if err != nil {
		logger.Warnf("Could not re-read regenerated output, it will be picked up next cycle: %v", err)
		return entities.ChangeSet{}
	}
	absorbed := after.Filter(regenerated...)
	if !absorbed.Empty() {
		logger.Debugf("Absorbing %d regenerated file(s)", len(absorbed.Changes))
	}
	return absorbed
}

// CommitMessage returns the publish commit message for a deployment kind.
func CommitMessage(kind entities.DeploymentKind, now time.Time) string {
	label := "Reports"
	if kind == entities.KindHomepage {
		label = "Homepage"
	}
	return fmt.Sprintf("%s update: %s", label, now.Format(commitTimeLayout))
}

func shortHash(hash string) string {
	const short = 8
	if len(hash) > short {
		return hash[:short]
	}
	return hash
}
