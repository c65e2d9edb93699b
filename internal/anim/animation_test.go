package anim

import (
	"testing"

	"github.com/fogleman/ease"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/coreman2200/funtimes-motion/internal/generator"
)

// newLinear builds a 0..100 linear keyframes animation on a manual
// driver so tests can step time explicitly.
func newLinear(t *testing.T, mutate func(*Options[float64])) (*Animation[float64], *ManualDriver, *float64) {
	t.Helper()
	drv := &ManualDriver{}
	var last float64
	opts := Options[float64]{
		Keyframes: []float64{0, 100},
		Duration:  1000,
		Ease:      ease.Linear,
		Driver:    drv.Factory(),
		OnUpdate:  func(v float64) { last = v },
	}
	if mutate != nil {
		mutate(&opts)
	}
	a, err := New(opts)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return a, drv, &last
}

func TestPlaysToCompletion(t *testing.T) {
	base := ActiveCount()
	completed := false
	a, drv, last := newLinear(t, func(o *Options[float64]) {
		o.OnComplete = func() { completed = true }
	})
	if got := ActiveCount(); got != base+1 {
		t.Fatalf("expected active count %d after play, got %d", base+1, got)
	}

	drv.Advance(500)
	if *last != 50 {
		t.Fatalf("expected 50 at t=500, got %v", *last)
	}
	drv.Advance(500)
	if *last != 100 {
		t.Fatalf("expected final value 100, got %v", *last)
	}
	if !completed {
		t.Fatal("expected OnComplete")
	}
	if a.State() != StateFinished {
		t.Fatalf("expected finished state, got %v", a.State())
	}
	select {
	case <-a.Done():
	default:
		t.Fatal("expected done channel closed")
	}
	if got := ActiveCount(); got != base {
		t.Fatalf("expected active count restored to %d, got %d", base, got)
	}
}

func TestDelayHoldsFirstKeyframe(t *testing.T) {
	_, drv, last := newLinear(t, func(o *Options[float64]) {
		o.Delay = 200
	})
	drv.Advance(100)
	if *last != 0 {
		t.Fatalf("expected first keyframe during delay, got %v", *last)
	}
	drv.Advance(150) // t=250, 50ms into the track
	if *last != 5 {
		t.Fatalf("expected 5 after delay, got %v", *last)
	}
	drv.Advance(950) // t=1200, track time 1000
	if *last != 100 {
		t.Fatalf("expected completion after delay+duration, got %v", *last)
	}
}

func TestRepeatLoopAndReverseProgress(t *testing.T) {
	_, drv, last := newLinear(t, func(o *Options[float64]) {
		o.Duration = 100
		o.Repeat = 1
		o.RepeatType = RepeatLoop
	})
	drv.Advance(125)
	if *last != 25 {
		t.Fatalf("loop: expected 25 a quarter into the second cycle, got %v", *last)
	}

	_, drv, last = newLinear(t, func(o *Options[float64]) {
		o.Duration = 100
		o.Repeat = 1
		o.RepeatType = RepeatReverse
	})
	drv.Advance(125)
	if *last != 75 {
		t.Fatalf("reverse: expected 75 a quarter into the second cycle, got %v", *last)
	}
}

func TestRepeatReverseFinalValue(t *testing.T) {
	a, drv, last := newLinear(t, func(o *Options[float64]) {
		o.Duration = 100
		o.Repeat = 1
		o.RepeatType = RepeatReverse
	})
	drv.Advance(300)
	if *last != 0 {
		t.Fatalf("odd repeat under reverse should rest on the first keyframe, got %v", *last)
	}
	if a.State() != StateFinished {
		t.Fatalf("expected finished, got %v", a.State())
	}

	_, drv, last = newLinear(t, func(o *Options[float64]) {
		o.Duration = 100
		o.Repeat = 2
		o.RepeatType = RepeatReverse
	})
	drv.Advance(400)
	if *last != 100 {
		t.Fatalf("even repeat under reverse should rest on the last keyframe, got %v", *last)
	}
}

func TestRepeatMirrorResamplesReversedTrack(t *testing.T) {
	// With an asymmetric ease, mirroring differs from reversing: the odd
	// cycle replays a reversed track rather than flipping its progress.
	_, drv, last := newLinear(t, func(o *Options[float64]) {
		o.Duration = 100
		o.Repeat = 1
		o.RepeatType = RepeatMirror
		o.Ease = ease.InQuad
	})
	drv.Advance(125) // quarter into the mirrored cycle: 100 -> 0 at InQuad(0.25)
	if *last != 93.75 {
		t.Fatalf("expected 93.75 from the mirrored generator, got %v", *last)
	}
}

func TestRepeatDelayExtendsTotalDuration(t *testing.T) {
	// duration 100, repeat 2, delay 50: cycles at 0, 150, 300; total 400.
	a, drv, last := newLinear(t, func(o *Options[float64]) {
		o.Duration = 100
		o.Repeat = 2
		o.RepeatType = RepeatLoop
		o.RepeatDelay = 50
	})
	drv.Advance(120) // inside the first repeat delay
	if *last != 100 {
		t.Fatalf("expected hold on last keyframe during repeat delay, got %v", *last)
	}
	drv.Advance(279) // t=399
	if a.State() == StateFinished {
		t.Fatal("finished before the delayed total duration")
	}
	drv.Advance(1) // t=400
	if a.State() != StateFinished || *last != 100 {
		t.Fatalf("expected finish at t=400 on 100, got state=%v value=%v", a.State(), *last)
	}
}

func TestPauseHoldsAndResumeContinues(t *testing.T) {
	a, drv, last := newLinear(t, nil)
	drv.Advance(500)
	a.Pause()
	if a.State() != StatePaused {
		t.Fatalf("expected paused, got %v", a.State())
	}
	drv.Advance(200)
	if *last != 50 {
		t.Fatalf("expected value held at 50 while paused, got %v", *last)
	}
	a.Play()
	drv.Advance(100)
	if *last != 60 {
		t.Fatalf("expected 60 after resume, got %v", *last)
	}
	if a.Time() != 0.6 {
		t.Fatalf("expected position 0.6s, got %v", a.Time())
	}
}

func TestSetTimeWhilePaused(t *testing.T) {
	a, _, last := newLinear(t, nil)
	a.Pause()
	a.SetTime(0.25)
	if *last != 25 {
		t.Fatalf("expected seek to render 25, got %v", *last)
	}
	if a.Time() != 0.25 {
		t.Fatalf("expected position 0.25s, got %v", a.Time())
	}
	if a.State() != StatePaused {
		t.Fatalf("seek should not resume, got %v", a.State())
	}
}

func TestSetSpeedPreservesProgress(t *testing.T) {
	a, drv, last := newLinear(t, nil)
	drv.Advance(400)
	a.SetSpeed(2)
	if *last != 40 {
		t.Fatalf("speed change moved the value: %v", *last)
	}
	drv.Advance(100)
	if *last != 60 {
		t.Fatalf("expected 60 after 100ms at double speed, got %v", *last)
	}
	if a.Speed() != 2 {
		t.Fatalf("expected speed 2, got %v", a.Speed())
	}
}

func TestNegativeSpeedRewindsToStart(t *testing.T) {
	a, drv, last := newLinear(t, nil)
	drv.Advance(400)
	a.SetSpeed(-1)
	drv.Advance(100)
	if *last != 30 {
		t.Fatalf("expected 30 after 100ms in reverse, got %v", *last)
	}
	drv.Advance(300) // playback time reaches 0
	if *last != 0 {
		t.Fatalf("expected rest on the first keyframe, got %v", *last)
	}
	if a.State() != StateFinished {
		t.Fatalf("expected finished, got %v", a.State())
	}
}

func TestStopIsPermanent(t *testing.T) {
	base := ActiveCount()
	stopped := false
	a, drv, last := newLinear(t, func(o *Options[float64]) {
		o.OnStop = func() { stopped = true }
	})
	drv.Advance(300)
	a.Stop()
	if !stopped {
		t.Fatal("expected OnStop")
	}
	if a.State() != StateIdle {
		t.Fatalf("expected idle after stop, got %v", a.State())
	}
	if got := ActiveCount(); got != base {
		t.Fatalf("expected active count restored, got %d want %d", got, base)
	}
	a.Play()
	if a.State() != StateIdle {
		t.Fatal("play after stop must be a no-op")
	}
	if *last != 30 {
		t.Fatalf("expected last rendered value kept at 30, got %v", *last)
	}
}

func TestCancelRendersInitialValue(t *testing.T) {
	base := ActiveCount()
	cancelled := false
	a, drv, last := newLinear(t, func(o *Options[float64]) {
		o.OnCancel = func() { cancelled = true }
	})
	drv.Advance(500)
	a.Cancel()
	if !cancelled {
		t.Fatal("expected OnCancel")
	}
	if *last != 0 {
		t.Fatalf("expected value reset to 0, got %v", *last)
	}
	if a.State() != StateIdle {
		t.Fatalf("expected idle, got %v", a.State())
	}
	if got := ActiveCount(); got != base {
		t.Fatalf("expected active count restored, got %d want %d", got, base)
	}
}

func TestCompleteJumpsToFinalKeyframe(t *testing.T) {
	a, drv, last := newLinear(t, nil)
	drv.Advance(100)
	a.Complete()
	drv.Advance(1)
	if *last != 100 {
		t.Fatalf("expected final keyframe after Complete, got %v", *last)
	}
	if a.State() != StateFinished {
		t.Fatalf("expected finished, got %v", a.State())
	}
	select {
	case <-a.Done():
	default:
		t.Fatal("expected done channel closed")
	}
}

func TestReplayRearmsCounterAndSignal(t *testing.T) {
	base := ActiveCount()
	a, drv, last := newLinear(t, func(o *Options[float64]) {
		o.Duration = 100
	})
	drv.Advance(100)
	if a.State() != StateFinished {
		t.Fatalf("expected finished, got %v", a.State())
	}
	if got := ActiveCount(); got != base {
		t.Fatalf("expected baseline after finish, got %d want %d", got, base)
	}

	a.Play()
	if got := ActiveCount(); got != base+1 {
		t.Fatalf("expected re-armed count, got %d want %d", got, base+1)
	}
	select {
	case <-a.Done():
		t.Fatal("done channel should be re-armed on replay")
	default:
	}
	drv.Advance(50)
	if *last != 50 {
		t.Fatalf("expected replay from the start, got %v", *last)
	}
	drv.Advance(50)
	if a.State() != StateFinished {
		t.Fatalf("expected second finish, got %v", a.State())
	}
	if got := ActiveCount(); got != base {
		t.Fatalf("expected baseline restored again, got %d want %d", got, base)
	}
}

func TestPausedConstruction(t *testing.T) {
	a, drv, last := newLinear(t, func(o *Options[float64]) {
		o.Paused = true
	})
	if a.State() != StatePaused {
		t.Fatalf("expected paused construction, got %v", a.State())
	}
	a.Play()
	drv.Advance(500)
	if *last != 50 {
		t.Fatalf("expected 50 after explicit play, got %v", *last)
	}
}

func TestFinalKeyframeOverride(t *testing.T) {
	bias := 42.0
	a, drv, last := newLinear(t, func(o *Options[float64]) {
		o.Duration = 100
		o.FinalKeyframe = &bias
	})
	drv.Advance(100)
	if *last != 42 {
		t.Fatalf("expected overridden resting value 42, got %v", *last)
	}
	if a.State() != StateFinished {
		t.Fatalf("expected finished, got %v", a.State())
	}
}

func TestInertiaKeepsPhysicsRestingValue(t *testing.T) {
	// Inertia must not snap to a resolved keyframe: it rests wherever the
	// decay lands, here the projected target 80.
	drv := &ManualDriver{}
	var last float64
	a, err := New(Options[float64]{
		Keyframes: []float64{0},
		Type:      GeneratorInertia,
		Velocity:  100,
		Driver:    drv.Factory(),
		OnUpdate:  func(v float64) { last = v },
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for i := 0; i < 100; i++ {
		drv.Advance(50)
	}
	if a.State() != StateFinished {
		t.Fatalf("expected inertia to settle, got %v", a.State())
	}
	if last != 80 {
		t.Fatalf("expected physics resting value 80, got %v", last)
	}
}

func TestColorTrackMixesThroughPercent(t *testing.T) {
	red := colorful.Color{R: 1, G: 0, B: 0}
	blue := colorful.Color{R: 0, G: 0, B: 1}
	drv := &ManualDriver{}
	var last colorful.Color
	a, err := New(Options[colorful.Color]{
		Keyframes: []colorful.Color{red, blue},
		Duration:  1000,
		Ease:      ease.Linear,
		Mix:       generator.MixColor,
		Driver:    drv.Factory(),
		OnUpdate:  func(c colorful.Color) { last = c },
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	drv.Advance(500)
	if last.DistanceRgb(red) < 0.1 || last.DistanceRgb(blue) < 0.1 {
		t.Fatalf("expected midpoint blend, got %v", last)
	}
	drv.Advance(500)
	if a.State() != StateFinished {
		t.Fatalf("expected finished, got %v", a.State())
	}
	if last != blue {
		t.Fatalf("expected exact final keyframe, got %v", last)
	}
}

func TestColorTrackWithCustomTimes(t *testing.T) {
	red := colorful.Color{R: 1, G: 0, B: 0}
	green := colorful.Color{R: 0, G: 1, B: 0}
	blue := colorful.Color{R: 0, G: 0, B: 1}
	drv := &ManualDriver{}
	var last colorful.Color
	_, err := New(Options[colorful.Color]{
		Keyframes: []colorful.Color{red, green, blue},
		Duration:  1000,
		Times:     []float64{0, 0.2, 1},
		Ease:      ease.Linear,
		Eases:     []generator.EaseFunc{ease.Linear, ease.Linear},
		Mix:       generator.MixColor,
		Driver:    drv.Factory(),
		OnUpdate:  func(c colorful.Color) { last = c },
	})
	if err != nil {
		t.Fatalf("expected custom times to build, got %v", err)
	}
	drv.Advance(200) // progress 0.2 lands exactly on the second keyframe
	if last.DistanceRgb(green) > 0.01 {
		t.Fatalf("expected green at the 0.2 offset, got %v", last)
	}
	drv.Advance(400) // progress 0.6, halfway through the long segment
	if last.DistanceRgb(green) < 0.1 || last.DistanceRgb(blue) < 0.1 {
		t.Fatalf("expected a blend between green and blue, got %v", last)
	}
}

func TestNonNumericTimesLengthMismatch(t *testing.T) {
	_, err := New(Options[colorful.Color]{
		Keyframes: []colorful.Color{{R: 1}, {G: 1}, {B: 1}},
		Times:     []float64{0, 1},
		Mix:       generator.MixColor,
	})
	if err == nil {
		t.Fatal("expected error for times length mismatch")
	}
}

func TestStopBeforeFirstTickRendersValue(t *testing.T) {
	updates := 0
	rendered := -1.0
	stopped := false
	a, _, _ := newLinear(t, func(o *Options[float64]) {
		o.OnUpdate = func(v float64) { updates++; rendered = v }
		o.OnStop = func() { stopped = true }
	})
	a.Stop()
	if updates != 1 || rendered != 0 {
		t.Fatalf("expected one final update at 0 on stop before any tick, got %d updates, value %v", updates, rendered)
	}
	if !stopped {
		t.Fatal("expected OnStop")
	}
	if a.State() != StateIdle {
		t.Fatalf("expected idle after stop, got %v", a.State())
	}
}

func TestNonNumericKeyframesRequireMix(t *testing.T) {
	_, err := New(Options[colorful.Color]{
		Keyframes: []colorful.Color{{R: 1}, {B: 1}},
	})
	if err == nil {
		t.Fatal("expected error for missing Mix")
	}
}

func TestUnknownGeneratorType(t *testing.T) {
	_, err := New(Options[float64]{
		Keyframes: []float64{0, 1},
		Type:      GeneratorType("bogus"),
	})
	if err == nil {
		t.Fatal("expected error for unknown generator type")
	}
}
