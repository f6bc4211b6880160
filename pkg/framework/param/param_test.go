package param

import (
	"math"
	"sync"
	"testing"
)

func TestParameterPlainRange(t *testing.T) {
	p := New(1, "Frequency").Range(20, 20000).Default(440).Unit("Hz").Build()

	if got := p.GetPlainValue(); math.Abs(got-440) > 1e-9 {
		t.Errorf("default plain value = %v, want 440", got)
	}

	p.SetPlainValue(20000)
	if got := p.GetValue(); got != 1.0 {
		t.Errorf("plain max should normalize to 1.0, got %v", got)
	}

	p.SetPlainValue(-100)
	if got := p.GetValue(); got != 0 {
		t.Errorf("below-range plain value should clamp to 0, got %v", got)
	}
}

func TestParameterConcurrentAccess(t *testing.T) {
	p := New(1, "Gain").Range(0, 2).Default(1).Build()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			p.SetValue(float64(i%100) / 100)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			v := p.GetValue()
			if v < 0 || v > 1 {
				t.Errorf("read tore: %v", v)
				return
			}
		}
	}()
	wg.Wait()
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	r.Add(
		New(3, "C").Build(),
		New(1, "A").Build(),
		New(2, "B").Build(),
	)
	r.Add(New(1, "A-duplicate").Build())

	if r.Count() != 3 {
		t.Fatalf("expected 3 parameters, got %d", r.Count())
	}
	all := r.All()
	if all[0].ID != 3 || all[1].ID != 1 || all[2].ID != 2 {
		t.Error("registry should preserve registration order")
	}
	if r.Get(1).Name != "A" {
		t.Error("duplicate add must not replace the original")
	}
}

func TestLinearSmootherReachesTargetExactly(t *testing.T) {
	s := NewSmoother(LinearSmoothing, 100)
	s.Reset(0)
	s.SetTarget(1.0)

	var v float64
	for i := 0; i < 100; i++ {
		v = s.Next()
	}
	if v != 1.0 {
		t.Errorf("linear smoother should land on target after rate samples, got %v", v)
	}
	if s.IsSmoothing() {
		t.Error("smoother should report done at target")
	}
}

func TestLinearSmootherNoOvershoot(t *testing.T) {
	s := NewSmoother(LinearSmoothing, 64)
	s.Reset(1.0)
	s.SetTarget(0.25)

	prev := s.Current()
	for i := 0; i < 200; i++ {
		v := s.Next()
		if v > prev {
			t.Fatalf("downward ramp increased: %v -> %v", prev, v)
		}
		if v < 0.25 {
			t.Fatalf("ramp overshot target: %v", v)
		}
		prev = v
	}
}

func TestExponentialSmootherConverges(t *testing.T) {
	s := ForDuration(44100, 0.01) // 10ms
	s.Reset(0)
	s.SetTarget(0.7)

	for i := 0; i < 4410; i++ { // 100ms, far beyond the time constant
		s.Next()
	}
	if math.Abs(s.Current()-0.7) > 1e-3 {
		t.Errorf("exponential smoother should converge, got %v", s.Current())
	}
}

func TestSmootherResetStopsRamp(t *testing.T) {
	s := NewSmoother(ExponentialSmoothing, 0.99)
	s.SetTarget(1)
	s.Next()
	s.Reset(0.5)
	if s.IsSmoothing() || s.Next() != 0.5 {
		t.Error("reset should pin the value and stop smoothing")
	}
}
