package param

import "math"

// SmoothingType defines the parameter smoothing algorithm.
type SmoothingType int

const (
	// LinearSmoothing moves in equal steps toward the target.
	LinearSmoothing SmoothingType = iota
	// ExponentialSmoothing uses a one-pole filter; good default for gains.
	ExponentialSmoothing
)

// Smoother slides a value toward a target to prevent zipper noise. Owned by
// the render thread; targets may be pushed from anywhere via an atomic
// Parameter read at block boundaries.
type Smoother struct {
	smoothingType SmoothingType
	current       float64
	target        float64
	rate          float64
	threshold     float64
	isSmoothing   bool
	step          float64
}

// NewSmoother creates a smoother. For ExponentialSmoothing the rate is the
// pole (0.9-0.999); for LinearSmoothing it is the ramp length in samples.
func NewSmoother(smoothingType SmoothingType, rate float64) *Smoother {
	return &Smoother{
		smoothingType: smoothingType,
		rate:          rate,
		threshold:     0.0001,
	}
}

// ForDuration configures an exponential smoother that covers -60dB of
// distance in the given time, the usual audio convention.
func ForDuration(sampleRate, seconds float64) *Smoother {
	return NewSmoother(ExponentialSmoothing, math.Exp(-6.908/(sampleRate*seconds)))
}

// SetTarget sets the value the smoother slides toward.
func (s *Smoother) SetTarget(target float64) {
	if math.Abs(target-s.target) < s.threshold && s.isSmoothing {
		return
	}
	if target == s.current {
		s.target = target
		s.isSmoothing = false
		return
	}
	s.target = target
	s.isSmoothing = true
	if s.smoothingType == LinearSmoothing && s.rate > 0 {
		s.step = (target - s.current) / s.rate
	}
}

// Next returns the next smoothed value.
func (s *Smoother) Next() float64 {
	if !s.isSmoothing {
		return s.current
	}

	switch s.smoothingType {
	case LinearSmoothing:
		s.current += s.step
		if (s.step > 0 && s.current >= s.target) || (s.step < 0 && s.current <= s.target) {
			s.current = s.target
			s.isSmoothing = false
		}
	default:
		s.current += (s.target - s.current) * (1.0 - s.rate)
		if math.Abs(s.current-s.target) < s.threshold {
			s.current = s.target
			s.isSmoothing = false
		}
	}
	return s.current
}

// IsSmoothing reports whether the smoother has reached its target.
func (s *Smoother) IsSmoothing() bool { return s.isSmoothing }

// Reset jumps the smoother to a value with no ramp.
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
	s.isSmoothing = false
}

// Current returns the present value without advancing.
func (s *Smoother) Current() float64 { return s.current }
