package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// History is the interface for listing past cycles.
type History interface {
	Execute(ctx context.Context, settings *entities.Settings, opts HistoryOptions) ([]repositories.CycleEntry, error)
}

// HistoryOptions holds runtime options for the history command.
type HistoryOptions struct {
	Limit int
}

// HistoryCommand lists the deployment ledger, newest first. Without a ledger
// database it falls back to the bounded history kept in the state file.
type HistoryCommand struct {
	factory repositories.BackendsFactory
}

// NewHistoryCommand creates a new HistoryCommand.
func NewHistoryCommand(factory repositories.BackendsFactory) *HistoryCommand {
	return &HistoryCommand{factory: factory}
}

// Execute returns up to opts.Limit entries (all of them when the limit is not positive).
func (it *HistoryCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts HistoryOptions,
) ([]repositories.CycleEntry, error) {
	backends, err := it.factory.Open(settings)
	if err != nil {
		return nil, fmt.Errorf("open backends: %w", err)
	}
	defer func() { _ = backends.Close() }()

	if settings.History.Database != "" {
		entries, listErr := backends.History.List(ctx, opts.Limit)
		if listErr != nil {
			return nil, fmt.Errorf("read deployment history: %w", listErr)
		}
		return entries, nil
	}

	state, err := backends.State.Load(ctx)
	if err != nil && !errors.Is(err, entities.ErrStateCorrupt) {
		return nil, fmt.Errorf("load deployment state: %w", err)
	}

	records := state.RecentHistory(opts.Limit)
	entries := make([]repositories.CycleEntry, 0, len(records))
	for i := range records {
		record := records[i]
		entries = append(entries, repositories.CycleEntry{
			At:       record.Timestamp,
			Mode:     modeFor(record),
			Outcome:  outcomeFor(record),
			Decision: decisionFor(record.Kind),
			Reason:   record.Error,
			Record:   &record,
		})
	}
	return entries, nil
}

func modeFor(record entities.DeploymentRecord) entities.Mode {
	if record.Trigger == entities.TriggerAuto {
		return entities.ModeAuto
	}
	if record.Kind == entities.KindHomepage {
		return entities.ModeHomepage
	}
	return entities.ModeReports
}

func outcomeFor(record entities.DeploymentRecord) entities.CycleOutcome {
	if record.Succeeded() {
		return entities.CycleCompleted
	}
	return entities.CycleFailed
}

func decisionFor(kind entities.DeploymentKind) entities.Decision {
	switch kind {
	case entities.KindHomepage:
		return entities.DecisionDeployHomepage
	case entities.KindReports:
		return entities.DecisionDeployReports
	default:
		return entities.DecisionNone
	}
}
