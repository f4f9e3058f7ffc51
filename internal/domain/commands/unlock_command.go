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

// ErrUnlockNotConfirmed is returned when the operator did not confirm the unlock.
var ErrUnlockNotConfirmed = errors.New("unlock not confirmed")

// ErrLockStillAlive is returned when the lock holder is running and --force was not given.
var ErrLockStillAlive = errors.New("lock holder is still running")

// Unlock is the interface for operator lock recovery.
type Unlock interface {
	Execute(ctx context.Context, settings *entities.Settings, opts UnlockOptions) (*entities.LockStatus, error)
}

// UnlockOptions holds runtime options for the unlock command.
type UnlockOptions struct {
	Confirm bool // --yes
	Force   bool // clear a lock whose holder still looks alive
}

// UnlockCommand clears an abandoned deployment lock.
type UnlockCommand struct {
	factory repositories.BackendsFactory
	clock   func() time.Time
}

// NewUnlockCommand creates a new UnlockCommand.
func NewUnlockCommand(factory repositories.BackendsFactory) *UnlockCommand {
	return &UnlockCommand{factory: factory, clock: time.Now}
}

// Execute inspects the lock and clears it when allowed. It returns the status
// observed before clearing; a free lock is not an error.
func (it *UnlockCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts UnlockOptions,
) (*entities.LockStatus, error) {
	backends, err := it.factory.Open(settings)
	if err != nil {
		return nil, fmt.Errorf("open backends: %w", err)
	}
	defer func() { _ = backends.Close() }()

	holder, err := backends.Lock.Inspect(ctx)
	if err != nil {
		return nil, fmt.Errorf("inspect deployment lock: %w", err)
	}
	status := entities.EvaluateLock(
		holder, it.clock(), settings.Lock.StaleAfter, backends.Process.Hostname(), backends.Process.Alive,
	)
	if !status.Held {
		logger.Info("Deployment lock is not held, nothing to do")
		return &status, nil
	}

	if !status.Stale && !opts.Force {
		return &status, fmt.Errorf(
			"%w: %s (pid %d on %s); pass --force to clear it anyway",
			ErrLockStillAlive, holder.Owner, holder.PID, holder.Hostname,
		)
	}
	if !opts.Confirm {
		return &status, fmt.Errorf("%w: re-run with --yes to clear the lock held by %s", ErrUnlockNotConfirmed, holder.Owner)
	}

	cleared, err := backends.Lock.ForceClear(ctx, holder.Owner)
	if err != nil {
		return &status, fmt.Errorf("clear deployment lock: %w", err)
	}
	if cleared == nil {
		logger.Info("Deployment lock was released while unlocking, nothing to do")
		return &status, nil
	}

	fields := logger.Fields{
		"owner":    cleared.Owner,
		"pid":      cleared.PID,
		"hostname": cleared.Hostname,
		"mode":     cleared.Mode,
		"since":    cleared.AcquiredAt.Format(time.RFC3339),
	}
	reason := status.StaleReason
	if status.Stale {
		logger.WithFields(fields).Warnf("Cleared stale deployment lock: %s", status.StaleReason)
	} else {
		reason = "cleared with --force while the holder still looked alive"
		logger.WithFields(fields).Warn("Force-cleared a deployment lock whose holder still looked alive")
	}

	if err = it.recordAbandoned(ctx, settings, backends, cleared, reason); err != nil {
		return &status, fmt.Errorf("lock cleared but the abandoned run was not recorded: %w", err)
	}
	return &status, nil
}

// recordAbandoned appends a failure record for the run that held the cleared
// lock. It takes the lock itself so the state write cannot race a new cycle;
// fingerprints, counters and deploy timestamps are left untouched, so whatever
// that run was deploying is detected again.
func (it *UnlockCommand) recordAbandoned(
	ctx context.Context,
	settings *entities.Settings,
	backends *repositories.Backends,
	cleared *entities.LockInfo,
	reason string,
) error {
	now := it.clock()
	owner := entities.NewLockInfo(cleared.Mode, now)
	acquired, holder, err := backends.Lock.Acquire(ctx, owner)
	if err != nil {
		return fmt.Errorf("acquire deployment lock: %w", err)
	}
	if !acquired {
		if holder != nil {
			logger.Warnf("A new run (%s) took the lock before the abandoned run could be recorded", holder.Owner)
		}
		return nil
	}
	defer func() {
		if releaseErr := backends.Lock.Release(context.WithoutCancel(ctx), owner.Owner); releaseErr != nil {
			logger.Errorf("Failed to release deployment lock: %v", releaseErr)
		}
	}()

	record := entities.DeploymentRecord{
		Kind:      entities.KindForMode(cleared.Mode),
		Trigger:   cleared.Mode.Trigger(),
		Timestamp: cleared.AcquiredAt,
		Outcome:   entities.OutcomeFailure,
		Duration:  now.Sub(cleared.AcquiredAt),
		Error:     "abandoned: " + reason,
	}

	state, err := backends.State.Load(ctx)
	switch {
	case errors.Is(err, entities.ErrStateCorrupt):
		logger.Warnf("Deployment state is unreadable, the abandoned run is only recorded in the ledger: %v", err)
	case err != nil:
		return fmt.Errorf("load deployment state: %w", err)
	default:
		state.AppendRecord(record, settings.State.HistoryLimit)
		if err = backends.State.Save(ctx, state); err != nil {
			return fmt.Errorf("save deployment state: %w", err)
		}
	}

	entry := repositories.CycleEntry{
		At:       cleared.AcquiredAt,
		Mode:     cleared.Mode,
		Outcome:  entities.CycleFailed,
		Decision: decisionFor(record.Kind),
		Reason:   record.Error,
		Record:   &record,
	}
	if appendErr := backends.History.Append(context.WithoutCancel(ctx), entry); appendErr != nil {
		logger.Warnf("Failed to append to deployment history: %v", appendErr)
	}
	logger.Infof("Recorded the abandoned %s run as failed", cleared.Mode)
	return nil
}
