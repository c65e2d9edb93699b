package anim

import (
	"sync"
	"time"
)

// DefaultFPS is the frame rate of the default ticker driver.
const DefaultFPS = 60

// Driver supplies timestamps to an animation: a millisecond clock plus a
// start/stoppable frame loop. Start(false) re-syncs by delivering a
// single tick at the current time without resuming the loop, used after
// seeks so a paused animation still renders the new position.
type Driver interface {
	Now() float64
	Start(keepRunning bool)
	Stop()
}

// DriverFactory binds a per-frame tick callback to a new Driver.
type DriverFactory func(tick func(timestamp float64)) Driver

// Clock provides time for drivers. Tests can inject a fake clock to step
// animations deterministically.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// DefaultDriver is the DriverFactory used when Options.Driver is unset:
// a wall-clock ticker loop at DefaultFPS.
func DefaultDriver(tick func(timestamp float64)) Driver {
	return NewFrameDriver(tick, DefaultFPS, realClock{})
}

// frameDriver delivers ticks from a time.Ticker goroutine. Timestamps
// are milliseconds since the driver was created.
type frameDriver struct {
	tick     func(float64)
	clock    Clock
	interval time.Duration
	epoch    time.Time

	mu   sync.Mutex
	stop chan struct{}
}

// NewFrameDriver builds a ticker-based driver at the given frame rate.
func NewFrameDriver(tick func(timestamp float64), fps int, clock Clock) Driver {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &frameDriver{
		tick:     tick,
		clock:    clock,
		interval: time.Second / time.Duration(fps),
		epoch:    clock.Now(),
	}
}

func (d *frameDriver) Now() float64 {
	return float64(d.clock.Now().Sub(d.epoch)) / float64(time.Millisecond)
}

func (d *frameDriver) Start(keepRunning bool) {
	if !keepRunning {
		// One synchronous frame to render the current time.
		d.tick(d.Now())
		return
	}
	d.mu.Lock()
	if d.stop != nil {
		d.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	d.stop = stop
	d.mu.Unlock()

	go func() {
		t := time.NewTicker(d.interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				d.tick(d.Now())
			}
		}
	}()
}

func (d *frameDriver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
	}
}

// ManualDriver is a Driver advanced explicitly by the caller. It backs
// deterministic tests and externally clocked hosts (the websocket hub
// drives every track through one).
type ManualDriver struct {
	tick    func(float64)
	now     float64
	running bool
}

// Factory returns a DriverFactory that binds this driver to an
// animation's tick callback.
func (d *ManualDriver) Factory() DriverFactory {
	return func(tick func(timestamp float64)) Driver {
		d.tick = tick
		return d
	}
}

func (d *ManualDriver) Now() float64 { return d.now }

func (d *ManualDriver) Start(keepRunning bool) {
	if keepRunning {
		d.running = true
		return
	}
	if d.tick != nil {
		d.tick(d.now)
	}
}

func (d *ManualDriver) Stop() { d.running = false }

// Running reports whether the driver loop is nominally active.
func (d *ManualDriver) Running() bool { return d.running }

// Advance moves the clock forward by ms and, when running, delivers one
// tick at the new time.
func (d *ManualDriver) Advance(ms float64) {
	d.now += ms
	if d.running && d.tick != nil {
		d.tick(d.now)
	}
}
