//go:build unix

package lock

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Alive sends signal 0 to pid. EPERM means the process exists but belongs to
// another user.
func (it *ProcessProbe) Alive(pid int) (bool, error) {
	if pid <= 0 {
		return false, nil
	}
	err := unix.Kill(pid, 0)
	switch {
	case err == nil, errors.Is(err, unix.EPERM):
		return true, nil
	case errors.Is(err, unix.ESRCH):
		return false, nil
	default:
		return false, err
	}
}
