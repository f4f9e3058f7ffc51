package repositories

import (
	"context"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// LockRepository guards deployments against concurrent runs, across processes.
type LockRepository interface {
	// Acquire atomically takes the lock for info.Owner. When the lock is already
	// held it returns false and the current holder, without side effects.
	Acquire(ctx context.Context, info entities.LockInfo) (bool, *entities.LockInfo, error)

	// Release removes the lock if it is held by owner.
	Release(ctx context.Context, owner string) error

	// Inspect returns the current holder, or nil when the lock is free. It never modifies the lock.
	Inspect(ctx context.Context) (*entities.LockInfo, error)

	// ForceClear removes a lock held by expectedOwner, whether or not that owner
	// is still running, and returns the removed holder. It fails with
	// entities.ErrLockNotOwned if the lock changed hands since it was inspected.
	ForceClear(ctx context.Context, expectedOwner string) (*entities.LockInfo, error)
}

// ProcessRepository answers liveness questions about lock owners.
type ProcessRepository interface {
	Hostname() string
	Alive(pid int) (bool, error)
}
