package anim

import "math"

// Easing identifies one of the fixed interpolation curves. Each curve is a
// pure function of normalized progress [0,1] -> [0,1].
type Easing int

const (
	Linear Easing = iota
	EaseIn
	EaseOut
	EaseInOut
	BounceOut
)

// ParseEasing maps a request-level easing name to an Easing.
// Unknown names fall back to Linear.
func ParseEasing(name string) Easing {
	switch name {
	case "ease_in", "ease-in":
		return EaseIn
	case "ease_out", "ease-out":
		return EaseOut
	case "ease_in_out", "ease-in-out":
		return EaseInOut
	case "bounce_out", "bounce-out":
		return BounceOut
	default:
		return Linear
	}
}

// Eval applies the easing curve to normalized progress x.
func (e Easing) Eval(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	switch e {
	case EaseIn:
		return x * x * x
	case EaseOut:
		inv := 1 - x
		return 1 - inv*inv*inv
	case EaseInOut:
		if x < 0.5 {
			return 4 * x * x * x
		}
		inv := -2*x + 2
		return 1 - inv*inv*inv/2
	case BounceOut:
		const n, d = 7.5625, 2.75
		switch {
		case x < 1/d:
			return n * x * x
		case x < 2/d:
			x -= 1.5 / d
			return n*x*x + 0.75
		case x < 2.5/d:
			x -= 2.25 / d
			return n*x*x + 0.9375
		default:
			x -= 2.625 / d
			return n*x*x + 0.984375
		}
	default:
		return x
	}
}

type keyframe struct {
	value float64
	time  float64
	// easing of the segment leading into this keyframe
	easing Easing
}

// Value is a scalar property's time-domain model: an ordered keyframe list
// queried by time. Keyframes never overlap; times are strictly non-decreasing.
type Value struct {
	keys []keyframe
}

// New creates a constant Value holding initial at every time.
func New(initial float64) *Value {
	return &Value{keys: []keyframe{{value: initial, time: 0, easing: Linear}}}
}

// Duration returns the end time of the last keyframe.
func (v *Value) Duration() float64 {
	return v.keys[len(v.keys)-1].time
}

// AddKeyframe appends a segment easing to target over duration, starting at
// the current end of the timeline.
func (v *Value) AddKeyframe(target, duration float64, easing Easing) {
	if duration < 0 {
		duration = 0
	}
	end := v.Duration() + duration
	v.keys = append(v.keys, keyframe{value: target, time: end, easing: easing})
}

// AddSegment appends an eased segment from start to target. When start
// differs from the currently-resolved end value, a zero-duration jump is
// inserted first so the explicit override is honored; otherwise the segment
// continues from the current value without a discontinuity.
func (v *Value) AddSegment(start, target, duration float64, easing Easing) {
	last := v.keys[len(v.keys)-1].value
	if math.Abs(last-start) > 1e-9 {
		v.AddKeyframe(start, 0, Linear)
	}
	v.AddKeyframe(target, duration, easing)
}

// ValueAt resolves the value at time t. Queries before the first keyframe
// return the value held at t=0; queries past the last keyframe hold the
// final value. Repeated queries at the same t are deterministic.
func (v *Value) ValueAt(t float64) float64 {
	first := v.keys[0]
	if t < first.time {
		return first.value
	}
	last := v.keys[len(v.keys)-1]
	if t >= last.time {
		return last.value
	}
	for i := 0; i < len(v.keys)-1; i++ {
		a, b := v.keys[i], v.keys[i+1]
		if t < a.time || t >= b.time {
			continue
		}
		dt := b.time - a.time
		if dt <= 0 {
			return b.value
		}
		progress := b.easing.Eval((t - a.time) / dt)
		return a.value + (b.value-a.value)*progress
	}
	return last.value
}
