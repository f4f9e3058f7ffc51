package publisher

import "time"

// SetClock replaces the clock used for commit signatures.
func (it *GitPublisherRepository) SetClock(clock func() time.Time) { it.clock = clock }
