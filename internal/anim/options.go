// Package anim implements the animation engine: a state machine that
// owns playback time, repeat and mirror logic, and drives a generator
// through an injectable frame driver.
package anim

import "github.com/coreman2200/funtimes-motion/internal/generator"

// GeneratorType selects which generator factory an animation uses.
type GeneratorType string

const (
	GeneratorKeyframes GeneratorType = "keyframes"
	GeneratorSpring    GeneratorType = "spring"
	GeneratorInertia   GeneratorType = "inertia"
)

// RepeatType controls how playback continues past the end of a cycle.
type RepeatType string

const (
	// RepeatLoop restarts each cycle from the beginning.
	RepeatLoop RepeatType = "loop"
	// RepeatReverse flips the progress of every odd cycle.
	RepeatReverse RepeatType = "reverse"
	// RepeatMirror plays every odd cycle through a second generator
	// built from reversed keyframes and negated velocity. For springs
	// and inertia this differs from RepeatReverse: the mirrored physics
	// are re-simulated rather than the time axis being flipped.
	RepeatMirror RepeatType = "mirror"
)

// State enumerates the engine states.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StatePaused   State = "paused"
	StateFinished State = "finished"
)

// Options configures an Animation over values of type T. All durations
// and delays are in milliseconds.
type Options[T any] struct {
	// Keyframes is the ordered value track, length >= 1. []float64
	// keyframes feed the generator directly; any other type requires Mix.
	Keyframes []T

	// Type picks a built-in generator (default keyframes); Factory, when
	// set, overrides it.
	Type    GeneratorType
	Factory generator.Factory

	// Generator tuning, forwarded to the factory.
	Duration        float64 // ms, keyframes generator
	Ease            generator.EaseFunc
	Eases           []generator.EaseFunc
	Times           []float64
	Velocity        float64
	Stiffness       float64
	Damping         float64
	Mass            float64
	Power           float64
	TimeConstant    float64
	BounceStiffness float64
	BounceDamping   float64
	Min, Max        *float64
	ModifyTarget    func(float64) float64
	RestDelta       float64
	RestSpeed       float64

	// Playback.
	Repeat      int // extra cycles; 0 plays once
	RepeatType  RepeatType
	RepeatDelay float64 // ms between cycles
	Delay       float64 // ms; applied against the playback direction
	Paused      bool    // construct paused instead of playing immediately
	Speed       float64 // initial playback speed; 0 means 1
	StartTime   *float64
	// AllowFlatten lets AttachTimeline re-init the animation as a plain
	// linear keyframes run before handing ticking to the timeline.
	AllowFlatten bool

	// FinalKeyframe overrides the resting value whenever the resolved
	// endpoint is the last keyframe.
	FinalKeyframe *T

	// Mix interpolates non-numeric keyframes; required unless T is
	// float64. The generator then runs over 0..100 percent and samples
	// are mapped through the mixer.
	Mix generator.MixFunc[T]

	// Lifecycle callbacks, invoked synchronously.
	OnPlay     func()
	OnUpdate   func(T)
	OnComplete func()
	OnStop     func()
	OnCancel   func()

	// Driver supplies the clock and frame loop; defaults to a ticker
	// driver at DefaultFPS.
	Driver DriverFactory
}

// generatorOptions projects the tuning fields onto the factory options,
// substituting the resolved numeric keyframes.
func (o *Options[T]) generatorOptions(keyframes []float64) generator.Options {
	return generator.Options{
		Keyframes:       keyframes,
		Velocity:        o.Velocity,
		Duration:        o.Duration,
		Times:           o.Times,
		Ease:            o.Ease,
		Eases:           o.Eases,
		Stiffness:       o.Stiffness,
		Damping:         o.Damping,
		Mass:            o.Mass,
		Power:           o.Power,
		TimeConstant:    o.TimeConstant,
		BounceStiffness: o.BounceStiffness,
		BounceDamping:   o.BounceDamping,
		Min:             o.Min,
		Max:             o.Max,
		ModifyTarget:    o.ModifyTarget,
		RestDelta:       o.RestDelta,
		RestSpeed:       o.RestSpeed,
	}
}
