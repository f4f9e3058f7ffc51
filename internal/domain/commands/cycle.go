package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// DeployOptions holds runtime options for a single cycle.
type DeployOptions struct {
	Mode    entities.Mode
	DryRun  bool
	Verbose bool
}

// cycleRunner performs one lock -> load -> detect -> decide -> execute -> save pass.
type cycleRunner struct {
	settings *entities.Settings
	backends *repositories.Backends
	clock    func() time.Time
}

func (it *cycleRunner) run(
	ctx context.Context, opts DeployOptions,
) (*entities.CycleResult, *entities.DeploymentState, error) {
	now := it.clock()
	result := &entities.CycleResult{Mode: opts.Mode, StartedAt: now, DryRun: opts.DryRun}
	defer func() { result.Duration = it.clock().Sub(now) }()

	if opts.DryRun {
		state, err := it.preview(ctx, result, now)
		return result, state, err
	}

	owner := entities.NewLockInfo(opts.Mode, now)
	acquired, holder, err := it.backends.Lock.Acquire(ctx, owner)
	if err != nil {
		return result, nil, fmt.Errorf("acquire deployment lock: %w", err)
	}
	if !acquired {
		result.Outcome = entities.CycleSkipped
		result.Holder = holder
		return result, nil, it.lockUnavailable(opts.Mode, holder, now)
	}
	it.backends.Metrics.ObserveLock(true)
	defer it.release(ctx, owner.Owner)

	state, err := it.load(ctx)
	if err != nil {
		return result, nil, err
	}

	detector := it.detector()
	cs, err := detector.Detect(ctx, state.FileFingerprints)
	if err != nil {
		return result, state, fmt.Errorf("detect changes: %w", err)
	}

	verdict := it.decide(opts.Mode, cs, state, now)
	result.Verdict = verdict
	result.ChangeSet = cs
	logDecision(opts.Mode, cs, state, verdict)

	working := state.Clone()
	var execErr error
	if plan, deploying := PlanFor(opts.Mode, verdict, cs); deploying {
		executor := NewExecutor(it.backends.Actions, it.backends.Publisher, detector, it.settings.State.HistoryLimit)
		executor.clock = it.clock
		record, runErr := executor.Execute(ctx, working, plan, now)
		result.Record = &record
		result.Outcome = entities.CycleCompleted
		if runErr != nil {
			result.Outcome = entities.CycleFailed
			execErr = fmt.Errorf("%s deployment failed: %w", plan.Kind, runErr)
		}
	} else {
		result.Outcome = entities.CycleNoop
		if !opts.Mode.Forced() && verdict.ReportChanges > 0 {
			working.Consume(cs.Filter(entities.CategoryReportData))
			working.Accumulate(verdict.ReportChanges)
			logger.Infof("Accumulated %d report change(s), %d/%d towards regeneration",
				verdict.ReportChanges, working.ChangeCount, it.settings.Policy.ChangesThreshold)
		}
	}

	working.LastCycle = &entities.CycleSummary{
		At:       now,
		Mode:     opts.Mode,
		Decision: verdict.Decision,
		Reason:   verdict.Reason,
	}
	if saveErr := it.backends.State.Save(ctx, working); saveErr != nil {
		return result, working, errors.Join(execErr, fmt.Errorf("save deployment state: %w", saveErr))
	}
	return result, working, execErr
}

// preview evaluates the policy without taking the lock or writing anything.
func (it *cycleRunner) preview(
	ctx context.Context, result *entities.CycleResult, now time.Time,
) (*entities.DeploymentState, error) {
	if holder, err := it.backends.Lock.Inspect(ctx); err == nil && holder != nil {
		logger.Warnf("Deployment lock is held by %s (pid %d); a real run would skip", holder.Owner, holder.PID)
		result.Holder = holder
	}

	state, err := it.backends.State.Load(ctx)
	if err != nil && !errors.Is(err, entities.ErrStateCorrupt) {
		return nil, fmt.Errorf("load deployment state: %w", err)
	}
	cs, err := it.detector().Detect(ctx, state.FileFingerprints)
	if err != nil {
		return state, fmt.Errorf("detect changes: %w", err)
	}
	result.ChangeSet = cs
	result.Verdict = it.decide(result.Mode, cs, state, now)
	result.Outcome = entities.CycleNoop
	logDecision(result.Mode, cs, state, result.Verdict)
	logger.Info("Dry run: no deployment executed and no state written")
	return state, nil
}

func (it *cycleRunner) decide(
	mode entities.Mode, cs entities.ChangeSet, state *entities.DeploymentState, now time.Time,
) entities.Verdict {
	if mode.Forced() {
		return entities.DecideForced(mode, cs, state)
	}
	return entities.Decide(cs, state, it.settings.Policy, now)
}

func (it *cycleRunner) detector() *ChangeDetector {
	classifier := entities.NewClassifier(it.settings.Tracking.HomepagePath, it.settings.Tracking.ReportPath)
	return NewChangeDetector(it.backends.Workspace, classifier)
}

// load reads the state. A corrupt file is moved aside and the cycle continues
// from a fresh state; any other read failure aborts the cycle.
func (it *cycleRunner) load(ctx context.Context) (*entities.DeploymentState, error) {
	state, err := it.backends.State.Load(ctx)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, entities.ErrStateCorrupt) {
		return nil, fmt.Errorf("load deployment state: %w", err)
	}

	moved, quarantineErr := it.backends.State.Quarantine(ctx)
	if quarantineErr != nil {
		return nil, fmt.Errorf("%w; keeping it in place: %w", err, quarantineErr)
	}
	logger.Warnf("Deployment state was unreadable (%v); saved a copy to %q and reinitialized to defaults", err, moved)
	return state, nil
}

func (it *cycleRunner) release(ctx context.Context, owner string) {
	if err := it.backends.Lock.Release(context.WithoutCancel(ctx), owner); err != nil {
		logger.Errorf("Failed to release deployment lock: %v", err)
		return
	}
	it.backends.Metrics.ObserveLock(false)
}

// lockUnavailable turns a busy lock into the right outcome: a stale lock is an
// error that needs an operator, a live one is a normal skip in auto mode and
// an error when the operator forced a deployment.
func (it *cycleRunner) lockUnavailable(mode entities.Mode, holder *entities.LockInfo, now time.Time) error {
	status := entities.EvaluateLock(
		holder, now, it.settings.Lock.StaleAfter, it.backends.Process.Hostname(), it.backends.Process.Alive,
	)
	if holder == nil {
		holder = &entities.LockInfo{}
	}

	if status.Stale {
		return fmt.Errorf(
			"%w: %s (owner %s, pid %d on %s, since %s); confirm no deployment is running, then run 'sitedeploy unlock --yes'",
			entities.ErrLockStale, status.StaleReason, holder.Owner, holder.PID, holder.Hostname,
			holder.AcquiredAt.Format(time.RFC3339),
		)
	}

	msg := fmt.Sprintf("another %s run (pid %d on %s) has held the lock for %s",
		holder.Mode, holder.PID, holder.Hostname, holder.Age(now).Round(time.Second))
	if mode.Forced() {
		return fmt.Errorf("%w: %s", entities.ErrLockUnavailable, msg)
	}
	logger.Infof("Skipping cycle: %s", msg)
	return nil
}

func logDecision(mode entities.Mode, cs entities.ChangeSet, state *entities.DeploymentState, verdict entities.Verdict) {
	logger.WithFields(logger.Fields{
		"mode":         mode,
		"decision":     verdict.Decision,
		"homepage":     cs.Count(entities.CategoryHomepage),
		"report_data":  cs.Count(entities.CategoryReportData),
		"code":         cs.Count(entities.CategoryCode),
		"change_count": state.ChangeCount,
	}).Info(verdict.Reason)
}
