// Package timeline provides an external tick source that can drive one
// or more animations in lockstep, replacing their internal drivers. The
// host advances the timeline (fixed-step simulation, render loop, or a
// scrub control) and every observer is sampled at the shared position.
package timeline

import "math"

// State enumerates playhead states.
type State string

const (
	Idle    State = "idle"
	Running State = "running"
	Paused  State = "paused"
)

// Timeline owns a playhead position in milliseconds and broadcasts it to
// registered observers. Rate scales host time, letting a whole program
// be slowed or reversed together.
type Timeline struct {
	state State
	nowMS float64
	rate  float64

	observers  map[int]func(timestamp float64)
	nextID     int
	broadcasts uint64
}

func New() *Timeline {
	return &Timeline{
		state:     Idle,
		rate:      1,
		observers: map[int]func(float64){},
	}
}

// Observe registers a tick callback and returns its unsubscribe func.
// New observers immediately receive the current position so late
// attachments render in sync.
func (tl *Timeline) Observe(tick func(timestamp float64)) (cancel func()) {
	id := tl.nextID
	tl.nextID++
	tl.observers[id] = tick
	tick(tl.nowMS)
	return func() {
		delete(tl.observers, id)
	}
}

// Start moves to Running without resetting the playhead.
func (tl *Timeline) Start() {
	if tl.state != Running {
		tl.state = Running
	}
}

// Pause freezes the playhead.
func (tl *Timeline) Pause() { tl.state = Paused }

// Resume continues a paused timeline.
func (tl *Timeline) Resume() {
	if tl.state == Paused {
		tl.state = Running
	}
}

// Stop resets the playhead to zero and broadcasts the reset.
func (tl *Timeline) Stop() {
	tl.state = Idle
	tl.nowMS = 0
	tl.broadcast()
}

// Seek jumps to an absolute position (ms, clamped at zero) and
// broadcasts it regardless of state, so paused observers re-render.
func (tl *Timeline) Seek(ms float64) {
	tl.nowMS = math.Max(ms, 0)
	tl.broadcast()
}

// Tick advances the playhead by dt milliseconds of host time, scaled by
// the rate, and broadcasts. No-op unless running.
func (tl *Timeline) Tick(dt float64) {
	if tl.state != Running || dt <= 0 {
		return
	}
	tl.nowMS = math.Max(tl.nowMS+dt*tl.rate, 0)
	tl.broadcast()
}

// Rate returns the host-time multiplier.
func (tl *Timeline) Rate() float64 { return tl.rate }

// SetRate changes the host-time multiplier; negative rates rewind.
func (tl *Timeline) SetRate(rate float64) { tl.rate = rate }

// Now returns the playhead position in milliseconds.
func (tl *Timeline) Now() float64 { return tl.nowMS }

// CurrentState reports the playhead state.
func (tl *Timeline) CurrentState() State { return tl.state }

// Broadcasts counts how many frames have been delivered, for the hub's
// frame ids.
func (tl *Timeline) Broadcasts() uint64 { return tl.broadcasts }

func (tl *Timeline) broadcast() {
	tl.broadcasts++
	for _, tick := range tl.observers {
		tick(tl.nowMS)
	}
}
