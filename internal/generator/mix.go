package generator

import "github.com/lucasb-eyer/go-colorful"

// Mixer blends two fixed endpoints at progress p (0..1).
type Mixer[T any] func(p float64) T

// MixFunc produces a Mixer between two values of the same type.
type MixFunc[T any] func(a, b T) Mixer[T]

// MixNumber linearly interpolates between two numbers.
func MixNumber(a, b float64) Mixer[float64] {
	return func(p float64) float64 {
		return a + (b-a)*p
	}
}

// MixColor blends two colors in Luv space, which keeps perceived
// lightness steady across the ramp.
func MixColor(a, b colorful.Color) Mixer[colorful.Color] {
	return func(p float64) colorful.Color {
		return a.BlendLuv(b, clamp01(p)).Clamped()
	}
}

// Interpolate maps progress 0..1 through a piecewise track of values.
// times, when given, are ascending normalized offsets (one per value);
// nil spreads the values evenly. Progress outside 0..1 clamps to the
// endpoints.
func Interpolate[T any](times []float64, values []T, mix MixFunc[T]) func(p float64) T {
	n := len(values)
	if times == nil {
		times = defaultOffsets(n)
	}
	// One mixer per segment, built up front.
	mixers := make([]Mixer[T], 0, n-1)
	for i := 0; i < n-1; i++ {
		mixers = append(mixers, mix(values[i], values[i+1]))
	}
	return func(p float64) T {
		if n == 1 || p <= times[0] {
			return values[0]
		}
		if p >= times[n-1] {
			return values[n-1]
		}
		for i := 0; i < n-1; i++ {
			if p > times[i+1] {
				continue
			}
			den := times[i+1] - times[i]
			if den <= 0 {
				return values[i+1]
			}
			return mixers[i](clamp01((p - times[i]) / den))
		}
		return values[n-1]
	}
}
