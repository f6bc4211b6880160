package paint

import (
	"math"
	"testing"
)

func TestLogFrequencyMapping(t *testing.T) {
	m := newMapper()
	m.setRegion(CanvasRegionBounds{Left: 0, Right: 1, Bottom: 0, Top: 1})
	m.setFrequencyRange(100, 1600, true)

	if got := m.yToFrequency(0); math.Abs(got-100) > 1e-9 {
		t.Errorf("bottom edge: got %f, want 100", got)
	}
	if got := m.yToFrequency(1); math.Abs(got-1600) > 1e-9 {
		t.Errorf("top edge: got %f, want 1600", got)
	}
	// Log mapping: the midpoint is the geometric mean.
	if got := m.yToFrequency(0.5); math.Abs(got-400) > 1e-6 {
		t.Errorf("midpoint: got %f, want 400", got)
	}
}

func TestLinearFrequencyMapping(t *testing.T) {
	m := newMapper()
	m.setRegion(CanvasRegionBounds{Left: 0, Right: 1, Bottom: 0, Top: 1})
	m.setFrequencyRange(100, 1100, false)

	if got := m.yToFrequency(0.5); math.Abs(got-600) > 1e-9 {
		t.Errorf("midpoint: got %f, want 600", got)
	}
}

func TestMappingRoundTrip(t *testing.T) {
	m := newMapper()
	m.setRegion(CanvasRegionBounds{Left: -100, Right: 100, Bottom: -50, Top: 50})

	for _, logScale := range []bool{true, false} {
		m.setFrequencyRange(80, 8000, logScale)
		for y := -50.0; y <= 50.0; y += 12.5 {
			freq := m.yToFrequency(y)
			back := m.frequencyToY(freq)
			if math.Abs(back-y) > 1e-6 {
				t.Errorf("log=%v y=%f: round trip gave %f", logScale, y, back)
			}
		}
	}

	m.setTimeLength(4)
	for x := -100.0; x <= 100.0; x += 25 {
		sec := m.xToTime(x)
		back := m.timeToX(sec)
		if math.Abs(back-x) > 1e-6 {
			t.Errorf("x=%f: round trip gave %f", x, back)
		}
	}
}

func TestMappingClampsOutOfRange(t *testing.T) {
	m := newMapper()
	m.setRegion(CanvasRegionBounds{Left: 0, Right: 1, Bottom: 0, Top: 1})
	m.setFrequencyRange(100, 1000, true)

	if got := m.yToFrequency(-5); got != 100 {
		t.Errorf("below region: got %f, want clamp to 100", got)
	}
	if got := m.yToFrequency(5); got != 1000 {
		t.Errorf("above region: got %f, want clamp to 1000", got)
	}
	if got := m.frequencyToY(20000); got != 1 {
		t.Errorf("frequency above range: got %f, want clamp to top", got)
	}
	if got := m.yToFrequency(0.5); math.IsNaN(got) || math.IsInf(got, 0) {
		t.Errorf("mapping produced non-finite value %f", got)
	}
}

func TestMappingDefaultsToAudibleRange(t *testing.T) {
	m := newMapper()
	m.setRegion(CanvasRegionBounds{Left: 0, Right: 1, Bottom: 0, Top: 1})

	if got := m.yToFrequency(0); math.Abs(got-MinAudibleFrequency) > 1e-9 {
		t.Errorf("default bottom edge: got %f, want %f", got, MinAudibleFrequency)
	}
	if got := m.yToFrequency(1); math.Abs(got-MaxAudibleFrequency) > 1e-6 {
		t.Errorf("default top edge: got %f, want %f", got, MaxAudibleFrequency)
	}
}

func TestMappingRejectsInvalidConfig(t *testing.T) {
	m := newMapper()
	before := m.bounds()
	m.setRegion(CanvasRegionBounds{Left: 10, Right: 10, Bottom: 0, Top: 1})
	if m.bounds() != before {
		t.Error("zero-width region should be rejected")
	}
	m.setRegion(CanvasRegionBounds{Left: 0, Right: 1, Bottom: 0, Top: 1})

	// Negative bounds clamp to the floor of the allowed window.
	m.setFrequencyRange(-50, -10, true)
	if got := m.yToFrequency(0); math.Abs(got-1) > 1e-9 {
		t.Errorf("negative min: got %f, want clamp to 1", got)
	}
	if got := m.yToFrequency(1); math.Abs(got-2) > 1e-9 {
		t.Errorf("negative max: got %f, want clamp to min+1", got)
	}

	// Absurdly high bounds clamp to the ceiling.
	m.setFrequencyRange(1e6, 2e6, false)
	if got := m.yToFrequency(0); math.Abs(got-MaxAudibleFrequency) > 1e-9 {
		t.Errorf("huge min: got %f, want clamp to %f", got, MaxAudibleFrequency)
	}
	if got := m.yToFrequency(1); got > 22000 {
		t.Errorf("huge max: got %f, want at most 22000", got)
	}
}
