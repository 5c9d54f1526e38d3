package anim

import (
	"math"
	"testing"
)

func TestValueClampsOutsideRange(t *testing.T) {
	v := New(2.0)
	v.AddKeyframe(10.0, 1.0, Linear)

	if got := v.ValueAt(-5.0); got != 2.0 {
		t.Errorf("ValueAt(-5) = %f, want initial value 2.0", got)
	}
	if got := v.ValueAt(0.0); got != 2.0 {
		t.Errorf("ValueAt(0) = %f, want 2.0", got)
	}
	if got := v.ValueAt(100.0); got != 10.0 {
		t.Errorf("ValueAt(100) = %f, want final value 10.0", got)
	}
}

func TestValueInterpolatesLinear(t *testing.T) {
	v := New(0.0)
	v.AddKeyframe(10.0, 2.0, Linear)

	if got := v.ValueAt(1.0); math.Abs(got-5.0) > 1e-9 {
		t.Errorf("midpoint = %f, want 5.0", got)
	}
}

func TestAddSegmentContinuity(t *testing.T) {
	v := New(0.0)
	v.AddKeyframe(4.0, 1.0, EaseInOut)

	appendTime := v.Duration()
	before := v.ValueAt(appendTime)

	// No explicit start override: must continue from the resolved value.
	v.AddSegment(before, 9.0, 1.0, Linear)

	after := v.ValueAt(appendTime)
	if math.Abs(before-after) > 1e-9 {
		t.Errorf("discontinuity at append time: before=%f after=%f", before, after)
	}
}

func TestAddSegmentExplicitStartJumps(t *testing.T) {
	v := New(0.0)
	v.AddKeyframe(4.0, 1.0, Linear)
	v.AddSegment(100.0, 200.0, 1.0, Linear)

	// Just past the jump the value must track the new segment.
	got := v.ValueAt(1.0 + 1e-6)
	if got < 99.0 {
		t.Errorf("expected jump to explicit start, got %f", got)
	}
}

func TestSpringBakeEndpoints(t *testing.T) {
	cfg := SpringConfig{Stiffness: 100, Damping: 10, Mass: 1}
	samples := BakeSpring(1.0, 1.5, cfg)

	if len(samples) <= 1 {
		t.Fatalf("expected dense bake, got %d samples", len(samples))
	}
	if math.Abs(samples[0].Value-1.0) > 0.001 {
		t.Errorf("first sample = %f, want ~1.0", samples[0].Value)
	}
	last := samples[len(samples)-1]
	if math.Abs(last.Value-1.5) > 0.001 {
		t.Errorf("last sample = %f, want ~1.5", last.Value)
	}
}

func TestSpringTruncatesAtCap(t *testing.T) {
	// Near-zero damping never settles; the bake must stop at the cap.
	cfg := SpringConfig{Stiffness: 100, Damping: 0.0001, Mass: 1}
	samples := BakeSpring(0.0, 1.0, cfg)

	last := samples[len(samples)-1]
	if last.Time > springMaxDur+2*springStep {
		t.Errorf("bake ran past cap: last time %f", last.Time)
	}

	// The held value is whatever the final sample was.
	v := New(0.0)
	v.AddSpring(1.0, cfg)
	if got := v.ValueAt(1000.0); got != last.Value {
		t.Errorf("held value %f, want last baked sample %f", got, last.Value)
	}
}

func TestAddSpringContinuity(t *testing.T) {
	v := New(3.0)
	v.AddSpring(5.0, DefaultSpring())

	if got := v.ValueAt(0.0); got != 3.0 {
		t.Errorf("spring start = %f, want 3.0", got)
	}
	if got := v.ValueAt(1000.0); math.Abs(got-5.0) > 0.001 {
		t.Errorf("spring settle = %f, want ~5.0", got)
	}
}

func TestValueAtDeterministic(t *testing.T) {
	v := New(0.0)
	v.AddKeyframe(1.0, 1.0, BounceOut)
	v.AddSpring(0.5, DefaultSpring())

	for _, ts := range []float64{0.1, 0.77, 1.3, 2.9} {
		a := v.ValueAt(ts)
		b := v.ValueAt(ts)
		if a != b {
			t.Errorf("ValueAt(%f) not deterministic: %f vs %f", ts, a, b)
		}
	}
}

func TestEasingEndpoints(t *testing.T) {
	for _, e := range []Easing{Linear, EaseIn, EaseOut, EaseInOut, BounceOut} {
		if got := e.Eval(0); got != 0 {
			t.Errorf("easing %d at 0 = %f", e, got)
		}
		if got := e.Eval(1); got != 1 {
			t.Errorf("easing %d at 1 = %f", e, got)
		}
	}
}

func TestParseEasing(t *testing.T) {
	if ParseEasing("ease_in_out") != EaseInOut {
		t.Error("ease_in_out should parse")
	}
	if ParseEasing("bounce-out") != BounceOut {
		t.Error("bounce-out should parse")
	}
	if ParseEasing("wobble") != Linear {
		t.Error("unknown easing should fall back to linear")
	}
}
