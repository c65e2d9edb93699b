package generator

import (
	"errors"
	"fmt"
	"math"

	"github.com/charmbracelet/harmonica"
)

// Spring defaults, matching a moderately damped UI spring.
const (
	defaultStiffness = 100.0
	defaultDamping   = 10.0
	defaultMass      = 1.0

	// springStep is the fixed integration sub-step in seconds.
	springStep = 1.0 / 240
)

type springGenerator struct {
	origin, target       float64
	restDelta, restSpeed float64
	v0                   float64

	spr harmonica.Spring

	// integration state, advanced in springStep increments
	pos, vel float64
	t        float64 // ms covered by the current state

	calculated *float64
}

// NewSpring builds a damped-harmonic-oscillator generator between two
// keyframes, integrated with harmonica at a fixed sub-step. Samples are
// cached forward; probing an earlier time restarts the integration.
func NewSpring(o Options) (Generator, error) {
	if len(o.Keyframes) == 0 {
		return nil, errors.New("spring requires at least one keyframe")
	}
	if len(o.Keyframes) > 2 {
		return nil, fmt.Errorf("springs support at most two keyframes, got %v", o.Keyframes)
	}
	origin := o.Keyframes[0]
	target := o.Keyframes[len(o.Keyframes)-1]
	return newSpringBetween(origin, target, o), nil
}

// newSpringBetween is the validated core of NewSpring, shared with the
// inertia generator's boundary spring.
func newSpringBetween(origin, target float64, o Options) *springGenerator {
	stiffness := defaultNonZero(o.Stiffness, defaultStiffness)
	damping := defaultNonZero(o.Damping, defaultDamping)
	mass := defaultNonZero(o.Mass, defaultMass)

	// harmonica wants angular frequency and damping ratio.
	omega := math.Sqrt(stiffness / mass)
	zeta := damping / (2 * math.Sqrt(stiffness*mass))

	// Rest thresholds scale with the travel distance: unit-range springs
	// (opacity, progress) need far finer settling than pixel-range ones.
	span := math.Abs(target - origin)
	restDelta := o.RestDelta
	restSpeed := o.RestSpeed
	if restDelta == 0 {
		if span <= 1 {
			restDelta = 0.005
		} else {
			restDelta = 0.5
		}
	}
	if restSpeed == 0 {
		if span <= 1 {
			restSpeed = 0.05
		} else {
			restSpeed = 2
		}
	}

	g := &springGenerator{
		origin:    origin,
		target:    target,
		restDelta: restDelta,
		restSpeed: restSpeed,
		v0:        o.Velocity,
		spr:       harmonica.NewSpring(springStep, omega, zeta),
	}
	g.reset()
	return g
}

func (g *springGenerator) reset() {
	g.pos = g.origin
	g.vel = g.v0
	g.t = 0
}

func (g *springGenerator) Next(t float64) Frame {
	if t < g.t {
		g.reset()
	}
	const stepMS = springStep * 1000
	for g.t+stepMS <= t {
		g.pos, g.vel = g.spr.Update(g.pos, g.vel, g.target)
		g.t += stepMS
	}
	done := math.Abs(g.target-g.pos) <= g.restDelta && math.Abs(g.vel) <= g.restSpeed
	v := g.pos
	if done {
		v = g.target
	}
	return Frame{Value: v, Done: done}
}

func (g *springGenerator) CalculatedDuration() float64 {
	if g.calculated == nil {
		d := CalcDuration(g)
		g.calculated = &d
	}
	return *g.calculated
}

func defaultNonZero(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
