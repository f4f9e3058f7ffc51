package commands

import "time"

// SetClock replaces the clock of a command for testing.
func (it *DeployCommand) SetClock(clock func() time.Time) { it.clock = clock }

// SetClock replaces the clock of a command for testing.
func (it *StatusCommand) SetClock(clock func() time.Time) { it.clock = clock }

// SetClock replaces the clock of a command for testing.
func (it *UnlockCommand) SetClock(clock func() time.Time) { it.clock = clock }

// SetClock replaces the clock of a command for testing.
func (it *WatchCommand) SetClock(clock func() time.Time) { it.clock = clock }

// SetClock replaces the clock of the executor for testing.
func (it *Executor) SetClock(clock func() time.Time) { it.clock = clock }

// ShortHash exports shortHash for testing.
var ShortHash = shortHash //nolint:gochecknoglobals // test export

// Debounce exports debounce for testing.
var Debounce = debounce //nolint:gochecknoglobals // test export
