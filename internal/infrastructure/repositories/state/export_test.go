package state

import "time"

// SetClock replaces the clock used to name quarantined files.
func (it *JSONStateRepository) SetClock(clock func() time.Time) { it.clock = clock }
