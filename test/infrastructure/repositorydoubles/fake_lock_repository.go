//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"
	"sync"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// FakeLockRepository is an in-memory lock with the same mutual exclusion as the real one.
type FakeLockRepository struct {
	mu sync.Mutex

	Holder *entities.LockInfo

	// --- Acquire ---
	AcquireErr   error
	AcquireCount int

	// --- Release ---
	ReleaseErr error
	Released   []string

	// --- ForceClear ---
	ForceClearErr error
	Cleared       []string

	// --- Inspect ---
	InspectErr error
}

var _ repositories.LockRepository = (*FakeLockRepository)(nil)

func (r *FakeLockRepository) Acquire(_ context.Context, info entities.LockInfo) (bool, *entities.LockInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.AcquireCount++

	if r.AcquireErr != nil {
		return false, nil, r.AcquireErr
	}
	if r.Holder != nil {
		holder := *r.Holder
		return false, &holder, nil
	}
	r.Holder = &info
	return true, &info, nil
}

func (r *FakeLockRepository) Release(_ context.Context, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ReleaseErr != nil {
		return r.ReleaseErr
	}
	if r.Holder == nil {
		return nil
	}
	if r.Holder.Owner != owner {
		return fmt.Errorf("%w: held by %s", entities.ErrLockNotOwned, r.Holder.Owner)
	}
	r.Released = append(r.Released, owner)
	r.Holder = nil
	return nil
}

func (r *FakeLockRepository) Inspect(_ context.Context) (*entities.LockInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.InspectErr != nil {
		return nil, r.InspectErr
	}
	if r.Holder == nil {
		return nil, nil //nolint:nilnil // free lock
	}
	holder := *r.Holder
	return &holder, nil
}

func (r *FakeLockRepository) ForceClear(_ context.Context, expectedOwner string) (*entities.LockInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ForceClearErr != nil {
		return nil, r.ForceClearErr
	}
	if r.Holder == nil {
		return nil, nil //nolint:nilnil // released meanwhile
	}
	if r.Holder.Owner != expectedOwner {
		return nil, fmt.Errorf("%w: now held by %s", entities.ErrLockNotOwned, r.Holder.Owner)
	}
	cleared := *r.Holder
	r.Cleared = append(r.Cleared, cleared.Owner)
	r.Holder = nil
	return &cleared, nil
}

// Held reports whether anyone holds the lock.
func (r *FakeLockRepository) Held() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Holder != nil
}
