// Package config loads and saves motion programs and server settings
// from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/fogleman/ease"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-motion/internal/anim"
	"github.com/coreman2200/funtimes-motion/internal/generator"
)

// Track describes one animated value in a program.
type Track struct {
	Name      string    `yaml:"name"`
	Type      string    `yaml:"type,omitempty"` // keyframes | spring | inertia
	Keyframes []float64 `yaml:"keyframes"`

	DurationMS float64   `yaml:"duration_ms,omitempty"`
	Ease       string    `yaml:"ease,omitempty"`
	Times      []float64 `yaml:"times,omitempty"`
	Velocity   float64   `yaml:"velocity,omitempty"`

	Stiffness float64 `yaml:"stiffness,omitempty"`
	Damping   float64 `yaml:"damping,omitempty"`
	Mass      float64 `yaml:"mass,omitempty"`

	Power          float64  `yaml:"power,omitempty"`
	TimeConstantMS float64  `yaml:"time_constant_ms,omitempty"`
	Min            *float64 `yaml:"min,omitempty"`
	Max            *float64 `yaml:"max,omitempty"`

	Repeat        int     `yaml:"repeat,omitempty"`
	RepeatType    string  `yaml:"repeat_type,omitempty"` // loop | reverse | mirror
	RepeatDelayMS float64 `yaml:"repeat_delay_ms,omitempty"`
	DelayMS       float64 `yaml:"delay_ms,omitempty"`
	Speed         float64 `yaml:"speed,omitempty"`
	AllowFlatten  bool    `yaml:"allow_flatten,omitempty"`
}

// Program is a named set of tracks animated together.
type Program struct {
	Version string  `yaml:"version"` // e.g. "motion.v1"
	Name    string  `yaml:"name,omitempty"`
	Tracks  []Track `yaml:"tracks"`
}

// Server holds the hub settings.
type Server struct {
	Addr     string `yaml:"addr"`
	FPS      int    `yaml:"fps"`
	LogLevel string `yaml:"log_level,omitempty"`
}

// Config is the top-level file: server settings plus an optional
// startup program.
type Config struct {
	Server  Server  `yaml:"server"`
	Program Program `yaml:"program,omitempty"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// LoadProgram reads a standalone program file.
func LoadProgram(path string) (*Program, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Program
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(p.Tracks) == 0 {
		return nil, fmt.Errorf("%s: program has no tracks", path)
	}
	return &p, nil
}

// Options maps a track onto engine options. The caller still owns the
// driver and callbacks.
func (t Track) Options() (anim.Options[float64], error) {
	var opts anim.Options[float64]
	if t.Name == "" {
		return opts, fmt.Errorf("track needs a name")
	}
	if len(t.Keyframes) == 0 {
		return opts, fmt.Errorf("track %q has no keyframes", t.Name)
	}
	easeFn, err := EaseByName(t.Ease)
	if err != nil {
		return opts, fmt.Errorf("track %q: %w", t.Name, err)
	}
	switch t.RepeatType {
	case "", string(anim.RepeatLoop), string(anim.RepeatReverse), string(anim.RepeatMirror):
	default:
		return opts, fmt.Errorf("track %q: unknown repeat type %q", t.Name, t.RepeatType)
	}

	opts = anim.Options[float64]{
		Keyframes:    append([]float64(nil), t.Keyframes...),
		Type:         anim.GeneratorType(t.Type),
		Duration:     t.DurationMS,
		Ease:         easeFn,
		Times:        t.Times,
		Velocity:     t.Velocity,
		Stiffness:    t.Stiffness,
		Damping:      t.Damping,
		Mass:         t.Mass,
		Power:        t.Power,
		TimeConstant: t.TimeConstantMS,
		Min:          t.Min,
		Max:          t.Max,
		Repeat:       t.Repeat,
		RepeatType:   anim.RepeatType(t.RepeatType),
		RepeatDelay:  t.RepeatDelayMS,
		Delay:        t.DelayMS,
		Speed:        t.Speed,
		AllowFlatten: t.AllowFlatten,
	}
	return opts, nil
}

// eases names the curves a program file may reference.
var eases = map[string]generator.EaseFunc{
	"linear":         ease.Linear,
	"in-quad":        ease.InQuad,
	"out-quad":       ease.OutQuad,
	"in-out-quad":    ease.InOutQuad,
	"in-cubic":       ease.InCubic,
	"out-cubic":      ease.OutCubic,
	"in-out-cubic":   ease.InOutCubic,
	"in-sine":        ease.InSine,
	"out-sine":       ease.OutSine,
	"in-out-sine":    ease.InOutSine,
	"in-expo":        ease.InExpo,
	"out-expo":       ease.OutExpo,
	"in-out-expo":    ease.InOutExpo,
	"in-back":        ease.InBack,
	"out-back":       ease.OutBack,
	"in-out-back":    ease.InOutBack,
	"in-elastic":     ease.InElastic,
	"out-elastic":    ease.OutElastic,
	"in-out-elastic": ease.InOutElastic,
	"out-bounce":     ease.OutBounce,
}

// EaseByName resolves an easing curve; the empty name means the
// generator default.
func EaseByName(name string) (generator.EaseFunc, error) {
	if name == "" {
		return nil, nil
	}
	if fn, ok := eases[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown ease %q", name)
}
