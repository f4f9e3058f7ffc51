package lock

import "os"

// ProcessProbe answers whether a lock owner is still running on this host.
type ProcessProbe struct {
	hostname string
}

// NewProcessProbe creates a probe for the local host.
func NewProcessProbe() *ProcessProbe {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return &ProcessProbe{hostname: hostname}
}

// Hostname returns the name lock owners on this host record.
func (it *ProcessProbe) Hostname() string {
	return it.hostname
}
