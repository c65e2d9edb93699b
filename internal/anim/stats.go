package anim

import "sync/atomic"

// active counts engine instances that currently hold a live slot: it is
// incremented at construction and decremented exactly once per teardown
// (finish, stop or cancel), then re-armed if a finished animation is
// played again. Atomic because independent animations may run on
// different goroutines even though each one is single-threaded.
var active atomic.Int64

// ActiveCount reports the number of live animations, for diagnostics.
func ActiveCount() int64 { return active.Load() }
