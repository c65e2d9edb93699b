package generator

import (
	"errors"
	"fmt"

	"github.com/fogleman/ease"
)

// DefaultDuration is used by the keyframes generator when no explicit
// duration is configured (ms).
const DefaultDuration = 300.0

type keyframesGenerator struct {
	duration float64
	times    []float64 // absolute ms, ascending, one per keyframe
	values   []float64
	eases    []EaseFunc // one per segment
}

// NewKeyframes builds an eased piecewise-linear generator over one or more
// numeric keyframes. Times, when given, are normalized 0..1 offsets; by
// default keyframes are spread evenly across the duration.
func NewKeyframes(o Options) (Generator, error) {
	n := len(o.Keyframes)
	if n == 0 {
		return nil, errors.New("keyframes generator requires at least one keyframe")
	}
	duration := o.Duration
	if duration <= 0 {
		duration = DefaultDuration
	}

	offsets := o.Times
	if offsets == nil {
		offsets = defaultOffsets(n)
	}
	if len(offsets) != n {
		return nil, fmt.Errorf("times length %d does not match %d keyframes", len(offsets), n)
	}

	times := make([]float64, n)
	for i, off := range offsets {
		if i > 0 && off < offsets[i-1] {
			return nil, fmt.Errorf("times must be ascending, got %v", offsets)
		}
		times[i] = clamp01(off) * duration
	}

	segEase := o.Ease
	if segEase == nil {
		segEase = ease.InOutQuad
	}
	eases := o.Eases
	if eases == nil {
		eases = make([]EaseFunc, n-1)
		for i := range eases {
			eases[i] = segEase
		}
	} else if len(eases) != n-1 {
		return nil, fmt.Errorf("eases length %d does not match %d segments", len(eases), n-1)
	}

	values := make([]float64, n)
	copy(values, o.Keyframes)

	return &keyframesGenerator{
		duration: duration,
		times:    times,
		values:   values,
		eases:    eases,
	}, nil
}

func (g *keyframesGenerator) CalculatedDuration() float64 { return g.duration }

func (g *keyframesGenerator) Next(t float64) Frame {
	return Frame{Value: g.at(t), Done: t >= g.duration}
}

// at interpolates the keyframe track at time t (ms), holding the first
// value before the start and the last value past the end.
func (g *keyframesGenerator) at(t float64) float64 {
	n := len(g.values)
	if n == 1 {
		return g.values[0]
	}
	if t <= g.times[0] {
		return g.values[0]
	}
	if t >= g.times[n-1] {
		return g.values[n-1]
	}
	for i := 0; i < n-1; i++ {
		ta, tb := g.times[i], g.times[i+1]
		if t < ta || t > tb {
			continue
		}
		den := tb - ta
		if den <= 0 {
			return g.values[i+1]
		}
		u := clamp01((t - ta) / den)
		if e := g.eases[i]; e != nil {
			u = e(u)
		}
		return g.values[i] + (g.values[i+1]-g.values[i])*u
	}
	return g.values[n-1]
}

// defaultOffsets spreads n keyframes evenly across 0..1.
func defaultOffsets(n int) []float64 {
	if n == 1 {
		return []float64{0}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) / float64(n-1)
	}
	return out
}
