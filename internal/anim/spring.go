package anim

import "math"

// SpringConfig parameterizes a damped harmonic oscillator.
type SpringConfig struct {
	Stiffness float64
	Damping   float64
	Mass      float64
	Velocity  float64 // initial velocity
}

// DefaultSpring returns a visibly wobbly spring.
func DefaultSpring() SpringConfig {
	return SpringConfig{Stiffness: 100, Damping: 10, Mass: 1}
}

const (
	springStep   = 1.0 / 60.0
	springMaxDur = 10.0 // hard cap for non-convergent configurations
	springEps    = 0.001
)

// Sample is one baked spring sample: value at a time offset from the start
// of the spring segment.
type Sample struct {
	Value float64
	Time  float64
}

// BakeSpring integrates the spring ODE from start to end at a fixed step
// until the oscillator settles within epsilon of the target with near-zero
// velocity. The first sample is the start value at offset 0. Configurations
// that never settle (e.g. near-zero damping) are truncated at the time cap;
// the last sample then becomes the held value. This truncation is
// intentional, not an error.
func BakeSpring(start, end float64, cfg SpringConfig) []Sample {
	mass := cfg.Mass
	if mass <= 0 {
		mass = 1
	}

	samples := []Sample{{Value: start, Time: 0}}
	current := start
	velocity := cfg.Velocity
	t := 0.0

	for {
		force := -cfg.Stiffness * (current - end)
		damping := -cfg.Damping * velocity
		accel := (force + damping) / mass

		velocity += accel * springStep
		current += velocity * springStep
		t += springStep

		samples = append(samples, Sample{Value: current, Time: t})

		if t > springMaxDur {
			break
		}
		if math.Abs(current-end) < springEps && math.Abs(velocity) < springEps {
			// Land exactly on the target.
			samples = append(samples, Sample{Value: end, Time: t + springStep})
			break
		}
	}
	return samples
}

// AddSpring appends a baked spring segment from the currently-resolved end
// value to target.
func (v *Value) AddSpring(target float64, cfg SpringConfig) {
	start := v.keys[len(v.keys)-1].value
	v.AddSpringWithStart(start, target, cfg)
}

// AddSpringWithStart appends a baked spring segment with an explicit start
// value. A zero-duration jump is inserted when start differs from the
// current end value.
func (v *Value) AddSpringWithStart(start, target float64, cfg SpringConfig) {
	last := v.keys[len(v.keys)-1].value
	if math.Abs(last-start) > 1e-9 {
		v.AddKeyframe(start, 0, Linear)
	}

	samples := BakeSpring(start, target, cfg)
	prev := 0.0
	// samples[0] duplicates the start value already at the end of the
	// timeline.
	for _, s := range samples[1:] {
		v.AddKeyframe(s.Value, s.Time-prev, Linear)
		prev = s.Time
	}
}
