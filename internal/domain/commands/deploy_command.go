package commands

import (
	"context"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// Deploy is the interface for the one-shot deployment cycle (auto, homepage, reports).
type Deploy interface {
	Execute(ctx context.Context, settings *entities.Settings, opts DeployOptions) (*entities.CycleResult, error)
}

// DeployCommand runs a single cycle:
// lock -> load state -> detect -> decide -> execute -> save -> unlock.
type DeployCommand struct {
	factory repositories.BackendsFactory
	clock   func() time.Time
}

// NewDeployCommand creates a new DeployCommand.
func NewDeployCommand(factory repositories.BackendsFactory) *DeployCommand {
	return &DeployCommand{factory: factory, clock: time.Now}
}

// Execute runs one cycle in the requested mode. A nil error means the cycle
// completed, was a no-op, or (in auto mode) was skipped because another live
// run holds the lock.
func (it *DeployCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts DeployOptions,
) (*entities.CycleResult, error) {
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	backends, err := it.factory.Open(settings)
	if err != nil {
		return nil, fmt.Errorf("open backends: %w", err)
	}
	defer func() {
		if closeErr := backends.Close(); closeErr != nil {
			logger.Warnf("Failed to close backends: %v", closeErr)
		}
	}()

	runner := &cycleRunner{settings: settings, backends: backends, clock: it.clock}
	result, state, runErr := runner.run(ctx, opts)
	if !opts.DryRun {
		recordCycle(ctx, backends, result, state)
		if flushErr := backends.Metrics.Flush(); flushErr != nil {
			logger.Warnf("Failed to export metrics: %v", flushErr)
		}
	}
	return result, runErr
}

// recordCycle appends the cycle to the ledger and the metrics. Both are
// best-effort: a failure here never changes the outcome of the cycle.
func recordCycle(
	ctx context.Context,
	backends *repositories.Backends,
	result *entities.CycleResult,
	state *entities.DeploymentState,
) {
	if result == nil || result.Outcome == "" {
		return // aborted before a decision
	}
	backends.Metrics.ObserveCycle(result, state)

	entry := repositories.CycleEntry{
		At:       result.StartedAt,
		Mode:     result.Mode,
		Outcome:  result.Outcome,
		Decision: result.Verdict.Decision,
		Reason:   result.Verdict.Reason,
		Record:   result.Record,
	}
	if result.Outcome == entities.CycleSkipped && entry.Reason == "" {
		entry.Reason = "deployment lock held by another run"
		if result.Holder != nil {
			entry.Reason = fmt.Sprintf("deployment lock held by %s (pid %d)", result.Holder.Owner, result.Holder.PID)
		}
	}
	if err := backends.History.Append(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warnf("Failed to append to deployment history: %v", err)
	}
}
