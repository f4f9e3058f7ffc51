package entities

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// DefaultLockStaleAfter is the age beyond which a held lock is considered abandoned.
const DefaultLockStaleAfter = 2 * time.Hour

// LockInfo is the content of the deployment lock marker.
type LockInfo struct {
	Owner      string    `json:"owner"`
	PID        int       `json:"pid"`
	Hostname   string    `json:"hostname"`
	Mode       Mode      `json:"mode"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// NewLockInfo identifies the current process as a lock owner.
func NewLockInfo(mode Mode, now time.Time) LockInfo {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return LockInfo{
		Owner:      uuid.NewString(),
		PID:        os.Getpid(),
		Hostname:   hostname,
		Mode:       mode,
		AcquiredAt: now,
	}
}

// Age returns how long the lock has been held.
func (l LockInfo) Age(now time.Time) time.Duration {
	if l.AcquiredAt.IsZero() {
		return 0
	}
	return now.Sub(l.AcquiredAt)
}

// LockStatus is the observed state of the deployment lock.
type LockStatus struct {
	Held        bool
	Info        *LockInfo
	Stale       bool
	StaleReason string
}

// LivenessFunc reports whether a process id is running on this host.
type LivenessFunc func(pid int) (bool, error)

// EvaluateLock decides whether a held lock is stale. The pid check is only
// meaningful on the host that wrote the marker; elsewhere only the age counts.
func EvaluateLock(
	info *LockInfo, now time.Time, staleAfter time.Duration, localHost string, alive LivenessFunc,
) LockStatus {
	if info == nil {
		return LockStatus{}
	}
	status := LockStatus{Held: true, Info: info}

	if info.PID > 0 && info.Hostname == localHost && alive != nil {
		running, err := alive(info.PID)
		if err == nil && !running {
			status.Stale = true
			status.StaleReason = fmt.Sprintf("owner process %d is no longer running", info.PID)
			return status
		}
	}

	if staleAfter <= 0 {
		staleAfter = DefaultLockStaleAfter
	}
	if age := info.Age(now); age >= staleAfter {
		status.Stale = true
		status.StaleReason = fmt.Sprintf(
			"held for %s, longer than %s", age.Round(time.Second), staleAfter,
		)
	}
	return status
}
