// Package generator provides the time-to-value sampling functions that
// drive animations: eased keyframe interpolation, spring physics and
// inertia (decay) physics. A generator maps elapsed milliseconds to a
// single sample and knows, or can discover, its own duration.
package generator

import "math"

// Frame is one sample produced by a Generator.
type Frame struct {
	Value float64
	Done  bool
}

// Generator maps elapsed time (milliseconds) to a sample. Callers are
// expected to feed mostly non-decreasing t, but a generator must tolerate
// being re-probed at t=0 (used for priming and cancel) and at arbitrary
// earlier times.
//
// CalculatedDuration returns the generator's duration in milliseconds.
// Generators without an analytic duration discover it once via
// CalcDuration and cache the result; it is never recomputed.
type Generator interface {
	Next(t float64) Frame
	CalculatedDuration() float64
}

// Factory builds a Generator from shared options.
type Factory func(Options) (Generator, error)

// EaseFunc shapes segment progress; fogleman/ease functions satisfy it.
type EaseFunc func(float64) float64

// Options is the shared tuning bag passed to generator factories. Each
// factory reads the fields it cares about and ignores the rest.
type Options struct {
	Keyframes []float64
	Velocity  float64 // units per second

	// Keyframe interpolation.
	Duration float64   // ms
	Times    []float64 // normalized 0..1 offsets, one per keyframe
	Ease     EaseFunc
	Eases    []EaseFunc // per-segment, overrides Ease

	// Spring.
	Stiffness float64
	Damping   float64
	Mass      float64

	// Inertia.
	Power           float64
	TimeConstant    float64 // ms
	BounceStiffness float64
	BounceDamping   float64
	Min             *float64
	Max             *float64
	ModifyTarget    func(float64) float64

	// Rest thresholds shared by the physics generators.
	RestDelta float64
	RestSpeed float64
}

const (
	// maxDuration caps duration discovery for generators that may never
	// settle. Beyond it the duration is reported as +Inf.
	maxDuration = 20_000.0

	// durationStep is the sampling stride used by CalcDuration.
	durationStep = 50.0
)

// CalcDuration discovers a generator's duration by sampling it at
// increasing times until it reports done or the safety ceiling is hit.
func CalcDuration(g Generator) float64 {
	duration := 0.0
	frame := g.Next(0)
	for !frame.Done && duration < maxDuration {
		duration += durationStep
		frame = g.Next(duration)
	}
	if duration >= maxDuration {
		return math.Inf(1)
	}
	return duration
}

// calcVelocity estimates the instantaneous velocity (units per second) of
// a resolvable curve at time t, given the already-computed current value.
func calcVelocity(resolve func(float64) float64, t, current float64) float64 {
	prevT := math.Max(t-5, 0)
	dt := t - prevT
	if dt <= 0 {
		return 0
	}
	return (current - resolve(prevT)) * (1000 / dt)
}

// clamp01 clamps x into [0,1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
