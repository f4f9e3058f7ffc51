//go:build !unix

package lock

import "errors"

// Alive cannot probe processes on this platform; callers fall back to the lock age.
func (it *ProcessProbe) Alive(_ int) (bool, error) {
	return false, errors.New("process liveness is not supported on this platform")
}
