package anim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/fogleman/ease"

	"github.com/coreman2200/funtimes-motion/internal/generator"
)

// Sample is one engine output: the current (possibly overridden) value
// and whether the animation considers itself complete at that time.
type Sample[T any] struct {
	Value T
	Done  bool
}

// Timeline is an external tick source an animation can be handed to via
// AttachTimeline. The returned cancel function detaches the observer.
type Timeline interface {
	Observe(tick func(timestamp float64)) (cancel func())
}

// Animation interpolates through a keyframe track over time, tracking
// play/pause/finish/cancel state with repeat, mirror and variable-speed
// playback.
//
// All state is advanced synchronously inside the driver's tick callback;
// the engine itself takes no locks. Control calls must be made from the
// goroutine that delivers ticks (or be externally serialized), as the
// websocket hub does with its frame loop mutex.
type Animation[T any] struct {
	opts Options[T]

	gen      generator.Generator
	mirrored generator.Generator // odd iterations under RepeatMirror
	genType  GeneratorType

	// mixKeyframes maps a 0..100 percent sample onto the real keyframe
	// values; nil when the keyframes are numeric.
	mixKeyframes func(float64) T

	calculatedDuration float64 // one cycle, ms
	resolvedDuration   float64 // cycle + repeat delay
	totalDuration      float64 // all cycles minus the trailing delay

	state       State
	startTime   *float64
	holdTime    *float64
	currentTime float64
	speed       float64

	driver      Driver
	stopped     bool // Stop was called; Play becomes a no-op
	released    bool // active-count slot given back
	completed   bool // finish already notified for this play cycle
	lastUpdated *float64 // timestamp of the latest tick; nil before the first

	done chan struct{}
}

// New builds an animation and, unless Options.Paused is set, starts
// playing it immediately.
func New[T any](opts Options[T]) (*Animation[T], error) {
	a := &Animation[T]{
		opts:  opts,
		state: StateIdle,
		speed: opts.Speed,
		done:  make(chan struct{}),
	}
	if a.speed == 0 {
		a.speed = 1
	}
	if err := a.initAnimation(); err != nil {
		return nil, err
	}
	active.Add(1)
	if opts.Paused {
		a.Pause()
	} else {
		a.Play()
	}
	return a, nil
}

// initAnimation selects the generator(s) and derives the duration trio.
// It runs once at construction and again only when AttachTimeline
// flattens the animation.
func (a *Animation[T]) initAnimation() error {
	opts := &a.opts
	if len(opts.Keyframes) == 0 {
		return errors.New("animation requires at least one keyframe")
	}

	factory := opts.Factory
	a.genType = opts.Type
	if factory == nil {
		switch opts.Type {
		case "", GeneratorKeyframes:
			factory = generator.NewKeyframes
			a.genType = GeneratorKeyframes
		case GeneratorSpring:
			factory = generator.NewSpring
		case GeneratorInertia:
			factory = generator.NewInertia
		default:
			return fmt.Errorf("unknown generator type %q", opts.Type)
		}
	}

	numeric, isNumeric := any(opts.Keyframes).([]float64)
	a.mixKeyframes = nil
	if !isNumeric {
		// Run the generator over 0..100 percent and map samples back
		// through the keyframe mixer.
		if opts.Mix == nil {
			return fmt.Errorf("keyframes of type %T need Options.Mix", opts.Keyframes)
		}
		if opts.Times != nil && len(opts.Times) != len(opts.Keyframes) {
			return fmt.Errorf("times length %d does not match %d keyframes", len(opts.Times), len(opts.Keyframes))
		}
		interp := generator.Interpolate(opts.Times, opts.Keyframes, opts.Mix)
		a.mixKeyframes = func(v float64) T { return interp(v / 100) }
		numeric = []float64{0, 100}
	}

	gopts := opts.generatorOptions(numeric)
	if a.mixKeyframes != nil {
		// Times and per-segment eases describe the real keyframes; the
		// percent track is a single 0..100 segment and takes neither.
		gopts.Times = nil
		gopts.Eases = nil
	}
	g, err := factory(gopts)
	if err != nil {
		return err
	}
	a.gen = g
	a.mirrored = nil
	if opts.RepeatType == RepeatMirror {
		mopts := gopts
		mopts.Keyframes = reversed(numeric)
		mopts.Velocity = -gopts.Velocity
		if a.mirrored, err = factory(mopts); err != nil {
			return err
		}
	}

	a.calculatedDuration = g.CalculatedDuration()
	a.resolvedDuration = a.calculatedDuration + opts.RepeatDelay
	a.totalDuration = a.resolvedDuration*float64(opts.Repeat+1) - opts.RepeatDelay
	return nil
}

// Play starts or resumes playback. It is a no-op once the animation has
// been permanently stopped.
func (a *Animation[T]) Play() {
	if a.stopped {
		return
	}
	if a.driver == nil {
		factory := a.opts.Driver
		if factory == nil {
			factory = DefaultDriver
		}
		a.driver = factory(func(timestamp float64) { a.tick(timestamp, false) })
	}
	if a.opts.OnPlay != nil {
		a.opts.OnPlay()
	}

	now := a.driver.Now()
	switch {
	case a.state == StateFinished:
		a.rearm()
		a.startTime = ptr(now)
	case a.holdTime != nil:
		a.startTime = ptr(now - *a.holdTime)
	case a.startTime == nil:
		if a.opts.StartTime != nil {
			a.startTime = ptr(*a.opts.StartTime)
		} else {
			a.startTime = ptr(now)
		}
	}
	// A reverse-speed restart begins from the end of the track.
	if a.state == StateFinished && a.speed < 0 {
		*a.startTime += a.totalDuration
	}

	a.holdTime = nil
	a.state = StateRunning
	a.driver.Start(true)
}

// Pause freezes playback at the current elapsed time.
func (a *Animation[T]) Pause() {
	a.state = StatePaused
	a.holdTime = ptr(a.currentTime)
}

// tick advances the animation to the driver timestamp (ms). With sample
// set the timestamp is taken as the elapsed time directly, bypassing the
// hold/startTime arithmetic; Sample and timeline observers use that.
func (a *Animation[T]) tick(timestamp float64, sample bool) Sample[T] {
	if a.startTime == nil {
		// Not started yet: probe the generator at t=0 without touching
		// any playback state.
		f := a.gen.Next(0)
		return Sample[T]{Value: a.toValue(f.Value), Done: f.Done}
	}

	// Absorb driver timestamp anomalies: going forward, startTime never
	// exceeds the incoming timestamp; going backward the bound shifts by
	// the total duration.
	if a.speed > 0 {
		*a.startTime = math.Min(*a.startTime, timestamp)
	} else if a.speed < 0 {
		*a.startTime = math.Min(timestamp-a.totalDuration/a.speed, *a.startTime)
	}

	if sample {
		a.currentTime = timestamp
	} else if a.holdTime != nil {
		a.currentTime = *a.holdTime
	} else {
		// Rounding avoids floating-point drift in the duration
		// comparisons below.
		a.currentTime = math.Round(timestamp-*a.startTime) * a.speed
	}

	direction := 1.0
	if a.speed < 0 {
		direction = -1
	}
	timeWithoutDelay := a.currentTime - a.opts.Delay*direction
	isInDelayPhase := timeWithoutDelay < 0
	if a.speed < 0 {
		isInDelayPhase = timeWithoutDelay > a.totalDuration
	}
	a.currentTime = math.Max(timeWithoutDelay, 0)

	if a.state == StateFinished && a.holdTime == nil {
		a.currentTime = a.totalDuration
	}

	elapsed := a.currentTime
	frameGenerator := a.gen

	if a.opts.Repeat > 0 {
		progress := math.Min(a.currentTime, a.totalDuration) / a.resolvedDuration
		iteration := math.Floor(progress)
		iterationProgress := math.Mod(progress, 1)
		if iterationProgress == 0 && progress >= 1 {
			iterationProgress = 1
		}
		// A whole-cycle boundary belongs to the cycle that just ended.
		if iterationProgress == 1 {
			iteration--
		}
		iteration = math.Min(iteration, float64(a.opts.Repeat+1))

		if int(iteration)%2 != 0 {
			switch a.opts.RepeatType {
			case RepeatReverse:
				iterationProgress = 1 - iterationProgress
				if a.opts.RepeatDelay > 0 {
					iterationProgress -= a.opts.RepeatDelay / a.resolvedDuration
				}
			case RepeatMirror:
				frameGenerator = a.mirrored
			}
		}
		elapsed = clamp01(iterationProgress) * a.resolvedDuration
	}

	var value T
	var done bool
	if isInDelayPhase {
		value = a.opts.Keyframes[0]
	} else {
		f := frameGenerator.Next(elapsed)
		value = a.toValue(f.Value)
		done = f.Done
	}

	// The generator's own done flag only covers a single cycle; once the
	// cumulative duration is known, completion is a time comparison.
	if !isInDelayPhase && !math.IsInf(a.calculatedDuration, 1) {
		if a.speed >= 0 {
			done = a.currentTime >= a.totalDuration
		} else {
			done = a.currentTime <= 0
		}
	}

	finished := a.holdTime == nil &&
		(a.state == StateFinished || (a.state == StateRunning && done))

	// Inertia settles wherever its physics land; everything else snaps
	// to the resolved final keyframe.
	if finished && a.genType != GeneratorInertia {
		value = FinalKeyframe(a.opts.Keyframes, a.opts.Repeat, a.opts.RepeatType, a.opts.FinalKeyframe, a.speed)
	}

	if a.opts.OnUpdate != nil {
		a.opts.OnUpdate(value)
	}
	a.lastUpdated = ptr(timestamp)

	if finished {
		a.finish()
	}

	return Sample[T]{Value: value, Done: done}
}

// finish resolves the completion signal and tears the animation down.
// Repeated ticks on an already-finished animation (e.g. from a timeline
// that keeps running) do not re-notify.
func (a *Animation[T]) finish() {
	if a.completed {
		return
	}
	a.completed = true
	a.closeDone()
	a.teardown()
	a.state = StateFinished
	if a.opts.OnComplete != nil {
		a.opts.OnComplete()
	}
}

// Stop halts the animation permanently. If the bound value has not been
// refreshed this frame, one last synchronous tick runs first so the
// final update is observed.
func (a *Animation[T]) Stop() {
	if a.driver != nil && (a.lastUpdated == nil || *a.lastUpdated != a.driver.Now()) {
		a.tick(a.driver.Now(), false)
	}
	a.stopped = true
	if a.state == StateIdle {
		return
	}
	a.teardown()
	if a.opts.OnStop != nil {
		a.opts.OnStop()
	}
}

// Complete fast-forwards to the finished state: the next tick renders
// the final keyframe without waiting for natural completion.
func (a *Animation[T]) Complete() {
	if a.state != StateRunning {
		a.Play()
	}
	a.state = StateFinished
	a.holdTime = nil
}

// Cancel drives the value back to the generator's t=0 sample and resets
// the animation to idle.
func (a *Animation[T]) Cancel() {
	a.holdTime = nil
	a.startTime = ptr(0.0)
	a.tick(0, false)
	a.teardown()
	if a.opts.OnCancel != nil {
		a.opts.OnCancel()
	}
}

// Sample synchronously evaluates the animation at an absolute time (ms)
// without involving the driver loop.
func (a *Animation[T]) Sample(sampleTime float64) Sample[T] {
	a.startTime = ptr(0.0)
	return a.tick(sampleTime, true)
}

// AttachTimeline hands tick-driving to an external timeline. When the
// options allow flattening, the animation is first re-initialized as a
// plain linear keyframes run so the timeline's scrubbing maps onto it
// directly. The internal driver is released either way.
func (a *Animation[T]) AttachTimeline(tl Timeline) (cancel func()) {
	if a.opts.AllowFlatten {
		a.opts.Type = GeneratorKeyframes
		a.opts.Factory = nil
		a.opts.Ease = ease.Linear
		a.opts.Eases = nil
		// Re-init cannot fail: the keyframes were validated at
		// construction and the linear factory adds no constraints.
		if err := a.initAnimation(); err != nil {
			a.opts.AllowFlatten = false
		}
	}
	if a.driver != nil {
		a.driver.Stop()
	}
	return tl.Observe(func(timestamp float64) {
		a.Sample(timestamp)
	})
}

// teardown releases the driver and the active-count slot. Safe to reach
// from multiple paths within one call stack; the slot is given back
// exactly once.
func (a *Animation[T]) teardown() {
	a.state = StateIdle
	if a.driver != nil {
		a.driver.Stop()
		a.driver = nil
	}
	a.startTime = nil
	a.holdTime = nil
	if !a.released {
		a.released = true
		active.Add(-1)
	}
}

// rearm reclaims the active slot and resets the completion signal when a
// finished animation is played again.
func (a *Animation[T]) rearm() {
	if a.released {
		a.released = false
		active.Add(1)
	}
	a.completed = false
	select {
	case <-a.done:
		a.done = make(chan struct{})
	default:
	}
}

func (a *Animation[T]) closeDone() {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
}

// Done returns a channel closed when the animation finishes naturally.
// Playing a finished animation again re-arms the signal; callers that
// need the next completion should re-fetch the channel after Play.
func (a *Animation[T]) Done() <-chan struct{} { return a.done }

// Wait blocks until the animation finishes or the context is cancelled.
func (a *Animation[T]) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-a.done:
		return nil
	}
}

// State reports the current engine state.
func (a *Animation[T]) State() State { return a.state }

// Duration returns the length of one cycle in seconds.
func (a *Animation[T]) Duration() float64 { return a.calculatedDuration / 1000 }

// Time returns the current playback position in seconds.
func (a *Animation[T]) Time() float64 { return a.currentTime / 1000 }

// SetTime seeks to an absolute position (seconds). While held, stopped
// or speed-zero the position is stored as hold time; otherwise the start
// time is rebased so the next driver tick lands exactly on the request.
// The driver is nudged to render the new position without resuming.
func (a *Animation[T]) SetTime(seconds float64) {
	t := seconds * 1000
	a.currentTime = t
	if a.startTime == nil || a.holdTime != nil || a.speed == 0 {
		a.holdTime = ptr(t)
	} else if a.driver != nil {
		a.startTime = ptr(a.driver.Now() - t/a.speed)
	}
	if a.driver != nil {
		a.driver.Start(false)
	}
}

// Speed returns the playback speed (1 = normal, negative = reverse).
func (a *Animation[T]) Speed() float64 { return a.speed }

// SetSpeed changes playback speed while preserving elapsed progress:
// the current time is snapshotted at the old speed, then re-applied
// through the seek path.
func (a *Animation[T]) SetSpeed(speed float64) {
	if a.driver != nil && a.holdTime == nil && a.startTime != nil {
		a.currentTime = math.Round(a.driver.Now()-*a.startTime) * a.speed
	}
	changed := a.speed != speed
	a.speed = speed
	if changed {
		a.SetTime(a.currentTime / 1000)
	}
}

// toValue maps a numeric generator sample onto the animation's value
// type, through the percent mixer when one is active.
func (a *Animation[T]) toValue(v float64) T {
	if a.mixKeyframes != nil {
		return a.mixKeyframes(v)
	}
	return any(v).(T)
}

func reversed(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[len(values)-1-i] = v
	}
	return out
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func ptr(v float64) *float64 { return &v }
