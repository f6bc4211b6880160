package sauce

import (
	"math"
	"testing"
)

func ramp(n int) ([]float32, []float32) {
	left := make([]float32, n)
	right := make([]float32, n)
	for i := range left {
		left[i] = float32(i%64)/64 - 0.5
		right[i] = 0.5 - float32(i%48)/48
	}
	return left, right
}

func TestBypassIsBitExact(t *testing.T) {
	c := NewEnhancer(44100)
	c.SetBypass(true)

	left, right := ramp(256)
	wantL := append([]float32(nil), left...)
	wantR := append([]float32(nil), right...)

	c.ProcessStereo(left, right)
	for i := range left {
		if left[i] != wantL[i] || right[i] != wantR[i] {
			t.Fatalf("sample %d changed under bypass", i)
		}
	}
}

func TestSaturatorIsBoundedAndOdd(t *testing.T) {
	s := NewSaturator(4)
	for _, in := range []float32{0, 0.1, 0.5, 1, 5, 100} {
		l := []float32{in}
		r := []float32{-in}
		s.ProcessStereo(l, r)
		if math.Abs(float64(l[0])) > 1.0001 {
			t.Errorf("saturator output %f exceeds unity for input %f", l[0], in)
		}
		if l[0] != -r[0] {
			t.Errorf("saturator not odd-symmetric: %f vs %f", l[0], r[0])
		}
	}
}

func TestSaturatorNearLinearForSmallSignals(t *testing.T) {
	s := NewSaturator(1)
	l := []float32{0.01}
	r := []float32{0.01}
	s.ProcessStereo(l, r)
	if math.Abs(float64(l[0])-0.01) > 0.0001 {
		t.Errorf("small-signal response %f, want roughly 0.01", l[0])
	}
}

func TestWidthUnityIsTransparent(t *testing.T) {
	w := NewWidth(1)
	left, right := ramp(64)
	wantL := append([]float32(nil), left...)
	wantR := append([]float32(nil), right...)
	w.ProcessStereo(left, right)
	for i := range left {
		if math.Abs(float64(left[i]-wantL[i])) > 1e-6 || math.Abs(float64(right[i]-wantR[i])) > 1e-6 {
			t.Fatalf("width 1 altered sample %d", i)
		}
	}
}

func TestWidthZeroCollapsesToMono(t *testing.T) {
	w := NewWidth(0)
	left := []float32{1, 0.5}
	right := []float32{0, -0.5}
	w.ProcessStereo(left, right)
	for i := range left {
		if left[i] != right[i] {
			t.Errorf("sample %d: %f vs %f, want identical channels", i, left[i], right[i])
		}
	}
}

func TestWidthClampsAmount(t *testing.T) {
	if w := NewWidth(10); w.Amount != 2 {
		t.Errorf("width amount %f, want clamp to 2", w.Amount)
	}
	if w := NewWidth(-1); w.Amount != 0 {
		t.Errorf("width amount %f, want clamp to 0", w.Amount)
	}
}

func TestPresenceBoostsHighs(t *testing.T) {
	const sr = 44100.0
	p := NewPresence(sr, 3000, 6)

	rms := func(freq float64) float64 {
		p.Reset()
		var sum float64
		n := 8192
		left := make([]float32, n)
		right := make([]float32, n)
		for i := range left {
			v := float32(math.Sin(2 * math.Pi * freq * float64(i) / sr))
			left[i] = v
			right[i] = v
		}
		p.ProcessStereo(left, right)
		for i := n / 2; i < n; i++ {
			sum += float64(left[i]) * float64(left[i])
		}
		return math.Sqrt(sum / float64(n/2))
	}

	low := rms(100)
	high := rms(12000)
	if high <= low*1.5 {
		t.Errorf("presence boost too weak: low %f, high %f", low, high)
	}
}

func TestDCBlockRemovesOffset(t *testing.T) {
	d := NewDCBlock(44100)
	n := 44100
	left := make([]float32, n)
	right := make([]float32, n)
	for i := range left {
		left[i] = 0.5
		right[i] = -0.5
	}
	d.ProcessStereo(left, right)

	var sum float64
	for i := n / 2; i < n; i++ {
		sum += float64(left[i])
	}
	if mean := sum / float64(n/2); math.Abs(mean) > 0.01 {
		t.Errorf("residual offset %f after DC blocking", mean)
	}
	// First sample passes through before the filter has state.
	if left[0] != 0.5 {
		t.Errorf("first sample = %f, want 0.5", left[0])
	}
}

func TestChainRunsStagesInOrder(t *testing.T) {
	var order []string
	mk := func(name string) Stage {
		return stageFunc(func() { order = append(order, name) })
	}
	c := NewChain().Add(mk("a")).Add(mk("b")).Add(mk("c"))
	c.ProcessStereo(make([]float32, 4), make([]float32, 4))
	if len(order) != 3 || order[0] != "a" || order[2] != "c" {
		t.Errorf("stage order = %v", order)
	}
	if c.Count() != 3 {
		t.Errorf("count = %d, want 3", c.Count())
	}
}

type stageFunc func()

func (f stageFunc) ProcessStereo(left, right []float32) { f() }
func (f stageFunc) Reset()                              {}
