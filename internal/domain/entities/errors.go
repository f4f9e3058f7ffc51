package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrStateCorrupt is returned when the persisted state cannot be parsed.
	ErrStateCorrupt = errors.New("deployment state is corrupt")

	// ErrLockUnavailable means another run currently holds the deployment lock.
	ErrLockUnavailable = errors.New("deployment lock is held by another run")

	// ErrLockStale means the lock holder is no longer alive or exceeded the stale timeout.
	ErrLockStale = errors.New("deployment lock is stale")

	// ErrLockNotOwned is returned when releasing a lock held by a different owner.
	ErrLockNotOwned = errors.New("deployment lock is owned by another run")

	// ErrExternalActionFailed covers a failed regeneration step or publish.
	ErrExternalActionFailed = errors.New("external action failed")

	// ErrExternalActionTimeout is a failed action that exceeded its time budget.
	ErrExternalActionTimeout = fmt.Errorf("%w: timed out", ErrExternalActionFailed)
)

// ActionError describes which step of a deployment failed.
type ActionError struct {
	Kind   DeploymentKind
	Step   string
	Output string
	Err    error
}

func (e *ActionError) Error() string {
	msg := fmt.Sprintf("%s deployment step %q: %v", e.Kind, e.Step, e.Err)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
