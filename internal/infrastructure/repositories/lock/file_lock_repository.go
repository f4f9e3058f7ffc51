package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	guardRetryDelay = 50 * time.Millisecond
)

// FileLockRepository implements the deployment lock as a marker file created
// with O_EXCL. Every mutation of the marker happens while holding an flock on
// a sibling guard file, so acquire, release and force-clear never interleave.
// The flock is per open file, so goroutines sharing a repository also take mu.
type FileLockRepository struct {
	path  string
	mu    sync.Mutex
	guard *flock.Flock
}

// NewLockRepository creates a lock whose marker lives at path.
func NewLockRepository(path string) *FileLockRepository {
	return &FileLockRepository{path: path, guard: flock.New(path + ".guard")}
}

// Acquire creates the marker for info. When another owner holds it, the
// current holder is returned and nothing is written.
func (it *FileLockRepository) Acquire(
	ctx context.Context, info entities.LockInfo,
) (bool, *entities.LockInfo, error) {
	unlock, err := it.lockGuard(ctx)
	if err != nil {
		return false, nil, err
	}
	defer unlock()

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return false, nil, fmt.Errorf("failed to marshal lock info: %w", err)
	}

	file, err := os.OpenFile(it.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if errors.Is(err, os.ErrExist) {
		holder, readErr := it.read()
		if readErr != nil {
			return false, nil, readErr
		}
		return false, holder, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("failed to create lock marker: %w", err)
	}

	if _, err = file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(it.path)
		return false, nil, fmt.Errorf("failed to write lock marker: %w", err)
	}
	if err = file.Close(); err != nil {
		_ = os.Remove(it.path)
		return false, nil, fmt.Errorf("failed to close lock marker: %w", err)
	}
	return true, &info, nil
}

// Release removes the marker if owner still holds it. Releasing a lock that
// is already gone is not an error.
func (it *FileLockRepository) Release(ctx context.Context, owner string) error {
	unlock, err := it.lockGuard(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	holder, err := it.read()
	if err != nil {
		return err
	}
	if holder == nil {
		return nil
	}
	if holder.Owner != owner {
		return fmt.Errorf("%w: held by %s", entities.ErrLockNotOwned, holder.Owner)
	}
	return it.remove()
}

// Inspect reads the marker without taking the guard.
func (it *FileLockRepository) Inspect(_ context.Context) (*entities.LockInfo, error) {
	return it.read()
}

// ForceClear removes the marker if expectedOwner still holds it. It returns
// nil when the lock was released in the meantime.
func (it *FileLockRepository) ForceClear(ctx context.Context, expectedOwner string) (*entities.LockInfo, error) {
	unlock, err := it.lockGuard(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	holder, err := it.read()
	if err != nil || holder == nil {
		return nil, err
	}
	if holder.Owner != expectedOwner {
		return nil, fmt.Errorf("%w: now held by %s", entities.ErrLockNotOwned, holder.Owner)
	}
	if err = it.remove(); err != nil {
		return nil, err
	}
	return holder, nil
}

func (it *FileLockRepository) lockGuard(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(it.path), dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	it.mu.Lock()
	locked, err := it.guard.TryLockContext(ctx, guardRetryDelay)
	if err != nil || !locked {
		it.mu.Unlock()
		return nil, fmt.Errorf("failed to lock %q: %w", it.guard.Path(), errors.Join(err, ctx.Err()))
	}
	return func() {
		_ = it.guard.Unlock()
		it.mu.Unlock()
	}, nil
}

// read returns the current holder, or nil when there is no marker. A marker
// that cannot be parsed (e.g. left empty by a crash between create and write)
// is reported with its modification time, so it still ages into staleness.
func (it *FileLockRepository) read() (*entities.LockInfo, error) {
	data, err := os.ReadFile(it.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil //nolint:nilnil // no holder
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read lock marker: %w", err)
	}

	var info entities.LockInfo
	if jsonErr := json.Unmarshal(data, &info); jsonErr == nil {
		return &info, nil
	}
	stat, err := os.Stat(it.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil //nolint:nilnil // removed while reading
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat lock marker: %w", err)
	}
	return &entities.LockInfo{Owner: "unknown", AcquiredAt: stat.ModTime()}, nil
}

func (it *FileLockRepository) remove() error {
	if err := os.Remove(it.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove lock marker: %w", err)
	}
	return nil
}
