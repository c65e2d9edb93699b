package generator

import (
	"errors"
	"fmt"
	"math"
)

// Inertia defaults: a flick decays over roughly a third of a second.
const (
	defaultPower           = 0.8
	defaultTimeConstant    = 325.0
	defaultBounceStiffness = 500.0
	defaultBounceDamping   = 10.0
	defaultRestDelta       = 0.5
)

type inertiaGenerator struct {
	amplitude    float64
	target       float64
	timeConstant float64
	restDelta    float64

	min, max        *float64
	bounceStiffness float64
	bounceDamping   float64
	restSpeed       float64

	value float64
	done  bool

	// Once the decay curve leaves [min, max] the remainder of the
	// animation is handed to a boundary spring.
	boundarySpring Generator
	boundaryTime   *float64

	calculated *float64
}

// NewInertia builds an exponential-decay generator that projects the
// origin keyframe along its velocity, optionally retargeted via
// ModifyTarget (e.g. snapping to a grid), and catches overshoot past
// Min/Max with a spring.
func NewInertia(o Options) (Generator, error) {
	if len(o.Keyframes) == 0 {
		return nil, errors.New("inertia requires an origin keyframe")
	}
	if len(o.Keyframes) > 2 {
		return nil, fmt.Errorf("inertia supports at most two keyframes, got %v", o.Keyframes)
	}
	origin := o.Keyframes[0]

	power := defaultNonZero(o.Power, defaultPower)
	amplitude := power * o.Velocity
	ideal := origin + amplitude
	target := ideal
	if o.ModifyTarget != nil {
		target = o.ModifyTarget(ideal)
	}
	if target != ideal {
		amplitude = target - origin
	}

	g := &inertiaGenerator{
		amplitude:       amplitude,
		target:          target,
		timeConstant:    defaultNonZero(o.TimeConstant, defaultTimeConstant),
		restDelta:       defaultNonZero(o.RestDelta, defaultRestDelta),
		min:             o.Min,
		max:             o.Max,
		bounceStiffness: defaultNonZero(o.BounceStiffness, defaultBounceStiffness),
		bounceDamping:   defaultNonZero(o.BounceDamping, defaultBounceDamping),
		restSpeed:       o.RestSpeed,
		value:           origin,
	}
	g.catchBoundary(0)
	return g, nil
}

func (g *inertiaGenerator) delta(t float64) float64 {
	return -g.amplitude * math.Exp(-t/g.timeConstant)
}

func (g *inertiaGenerator) latest(t float64) float64 {
	return g.target + g.delta(t)
}

func (g *inertiaGenerator) applyFriction(t float64) {
	d := g.delta(t)
	g.done = math.Abs(d) <= g.restDelta
	if g.done {
		g.value = g.target
	} else {
		g.value = g.latest(t)
	}
}

func (g *inertiaGenerator) outOfBounds(v float64) bool {
	return (g.min != nil && v < *g.min) || (g.max != nil && v > *g.max)
}

func (g *inertiaGenerator) nearestBoundary(v float64) float64 {
	switch {
	case g.min == nil:
		return *g.max
	case g.max == nil:
		return *g.min
	case math.Abs(*g.min-v) < math.Abs(*g.max-v):
		return *g.min
	default:
		return *g.max
	}
}

// catchBoundary arms the boundary spring the moment the current value
// escapes [min, max], seeding it with the decay curve's velocity at t.
func (g *inertiaGenerator) catchBoundary(t float64) {
	if !g.outOfBounds(g.value) {
		return
	}
	at := t
	g.boundaryTime = &at
	g.boundarySpring = newSpringBetween(g.value, g.nearestBoundary(g.value), Options{
		Velocity:  calcVelocity(g.latest, t, g.value),
		Stiffness: g.bounceStiffness,
		Damping:   g.bounceDamping,
		RestDelta: g.restDelta,
		RestSpeed: g.restSpeed,
	})
}

func (g *inertiaGenerator) Next(t float64) Frame {
	updated := false
	if g.boundarySpring == nil {
		updated = true
		g.applyFriction(t)
		g.catchBoundary(t)
	}
	if g.boundaryTime != nil && t > *g.boundaryTime {
		return g.boundarySpring.Next(t - *g.boundaryTime)
	}
	if !updated {
		g.applyFriction(t)
	}
	return Frame{Value: g.value, Done: g.done}
}

func (g *inertiaGenerator) CalculatedDuration() float64 {
	if g.calculated == nil {
		d := CalcDuration(g)
		g.calculated = &d
	}
	return *g.calculated
}
