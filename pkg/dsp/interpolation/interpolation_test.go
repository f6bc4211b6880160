package interpolation

import "testing"

func TestLinearMidpoint(t *testing.T) {
	if got := Linear(0, 1, 0.5); got != 0.5 {
		t.Errorf("Linear(0,1,0.5) = %f, want 0.5", got)
	}
	if got := Linear(2, 2, 0.3); got != 2 {
		t.Errorf("Linear on flat segment = %f, want 2", got)
	}
}

func TestCubicPassesThroughKnots(t *testing.T) {
	if got := Cubic(0, 1, 2, 3, 0); got != 1 {
		t.Errorf("Cubic at frac 0 = %f, want 1", got)
	}
	if got := Cubic(0, 1, 2, 3, 1); got != 2 {
		t.Errorf("Cubic at frac 1 = %f, want 2", got)
	}
}

func TestCubicIsExactOnLines(t *testing.T) {
	// Catmull-Rom reproduces straight lines exactly.
	if got := Cubic(0, 1, 2, 3, 0.25); got != 1.25 {
		t.Errorf("Cubic on a line = %f, want 1.25", got)
	}
}

func TestAtFallsBackAtEdges(t *testing.T) {
	data := []float32{0, 1, 2, 3, 4}
	if got := At(data, 0.5); got != 0.5 {
		t.Errorf("At(0.5) = %f, want 0.5 (linear edge)", got)
	}
	if got := At(data, 2.5); got != 2.5 {
		t.Errorf("At(2.5) = %f, want 2.5", got)
	}
	if got := At(data, 3.5); got != 3.5 {
		t.Errorf("At(3.5) = %f, want 3.5 (linear edge)", got)
	}
}

func TestAtHandlesMinimalBuffer(t *testing.T) {
	// Two frames is the shortest playable sample; every position reads
	// the single linear span.
	data := []float32{1, 3}
	if got := At(data, 0); got != 1 {
		t.Errorf("At(0) = %f, want 1", got)
	}
	if got := At(data, 0.5); got != 2 {
		t.Errorf("At(0.5) = %f, want 2", got)
	}
	if got := At(data, 0.999); got < 2.99 || got > 3 {
		t.Errorf("At(0.999) = %f, want just under 3", got)
	}
}
