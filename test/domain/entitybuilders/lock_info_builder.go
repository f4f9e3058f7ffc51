//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"time"

	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// LockInfoBuilder helps create lock holders with a fluent interface.
type LockInfoBuilder struct {
	*testkit.BaseBuilder
	info entities.LockInfo
}

// NewLockInfoBuilder creates a builder for a holder on the test host.
func NewLockInfoBuilder() *LockInfoBuilder {
	return &LockInfoBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		info:        defaultLockInfo(),
	}
}

func defaultLockInfo() entities.LockInfo {
	return entities.LockInfo{
		Owner:      "other-run",
		PID:        4242,
		Hostname:   "test-host",
		Mode:       entities.ModeAuto,
		AcquiredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// WithOwner sets the owner identifier.
func (b *LockInfoBuilder) WithOwner(owner string) *LockInfoBuilder {
	b.info.Owner = owner
	return b
}

// WithPID sets the owner process id.
func (b *LockInfoBuilder) WithPID(pid int) *LockInfoBuilder {
	b.info.PID = pid
	return b
}

// WithHostname sets the owner host.
func (b *LockInfoBuilder) WithHostname(hostname string) *LockInfoBuilder {
	b.info.Hostname = hostname
	return b
}

// WithMode sets the owner mode.
func (b *LockInfoBuilder) WithMode(mode entities.Mode) *LockInfoBuilder {
	b.info.Mode = mode
	return b
}

// WithAcquiredAt sets when the lock was taken.
func (b *LockInfoBuilder) WithAcquiredAt(at time.Time) *LockInfoBuilder {
	b.info.AcquiredAt = at
	return b
}

// Build creates the holder (satisfies testkit.Builder interface).
func (b *LockInfoBuilder) Build() interface{} {
	return b.BuildLockInfo()
}

// BuildLockInfo creates the holder with a concrete return type.
func (b *LockInfoBuilder) BuildLockInfo() *entities.LockInfo {
	info := b.info
	return &info
}

// Reset clears the builder state, allowing it to be reused.
func (b *LockInfoBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.info = defaultLockInfo()
	return b
}

// Clone creates a deep copy of the LockInfoBuilder.
func (b *LockInfoBuilder) Clone() testkit.Builder {
	return &LockInfoBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		info:        b.info,
	}
}
