package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// Status is the interface for the read-only status report.
type Status interface {
	Execute(ctx context.Context, settings *entities.Settings, opts StatusOptions) (*entities.StatusReport, error)
}

// StatusOptions holds runtime options for the status command.
type StatusOptions struct {
	HistoryLimit int
}

// StatusCommand builds a StatusReport. It never takes the lock and never writes.
type StatusCommand struct {
	factory repositories.BackendsFactory
	clock   func() time.Time
}

// NewStatusCommand creates a new StatusCommand.
func NewStatusCommand(factory repositories.BackendsFactory) *StatusCommand {
	return &StatusCommand{factory: factory, clock: time.Now}
}

// Execute reads the state and the lock marker and summarizes them.
func (it *StatusCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts StatusOptions,
) (*entities.StatusReport, error) {
	backends, err := it.factory.Open(settings)
	if err != nil {
		return nil, fmt.Errorf("open backends: %w", err)
	}
	defer func() { _ = backends.Close() }()

	now := it.clock()
	report := &entities.StatusReport{
		GeneratedAt:      now,
		ChangesThreshold: settings.Policy.ChangesThreshold,
	}

	state, err := backends.State.Load(ctx)
	if err != nil {
		if !errors.Is(err, entities.ErrStateCorrupt) {
			return nil, fmt.Errorf("load deployment state: %w", err)
		}
		report.StateWarning = fmt.Sprintf("%v; the next cycle will move it aside and start from defaults", err)
	}

	report.ChangeCount = state.ChangeCount
	report.LastHomepageDeploy = state.LastHomepageDeploy
	report.LastReportDeploy = state.LastReportDeploy
	report.ReportCooldownRemaining = entities.RemainingCooldown(
		state.LastReportDeploy, settings.Policy.ReportCooldown, now,
	)
	report.LastCycle = state.LastCycle
	report.TrackedFingerprints = len(state.FileFingerprints)

	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = len(state.History)
	}
	report.History = state.RecentHistory(limit)

	holder, err := backends.Lock.Inspect(ctx)
	if err != nil {
		return nil, fmt.Errorf("inspect deployment lock: %w", err)
	}
	report.Lock = entities.EvaluateLock(
		holder, now, settings.Lock.StaleAfter, backends.Process.Hostname(), backends.Process.Alive,
	)
	return report, nil
}
