// Package filter provides the per-voice filters used by the rompler and the
// output enhancement chain.
package filter

import "math"

// Mode selects which state variable output a voice filter produces.
type Mode int

const (
	Lowpass Mode = iota
	Highpass
	Bandpass
	Notch
)

// VoiceFilter is a mono state variable filter with zero-delay feedback
// topology. One instance lives inside each rompler voice; cutoff moves are
// smoothed internally so paint-driven modulation never steps.
type VoiceFilter struct {
	mode Mode

	sampleRate float64
	cutoff     float64
	target     float64
	smoothCoef float64
	q          float64

	g float32
	k float32

	ic1eq float32
	ic2eq float32
}

// NewVoiceFilter creates a lowpass voice filter at the given sample rate.
func NewVoiceFilter(sampleRate float64) *VoiceFilter {
	f := &VoiceFilter{mode: Lowpass}
	f.Configure(sampleRate)
	f.SetResonance(0.707)
	f.SetCutoff(8000)
	f.cutoff = f.target
	f.updateCoefficients()
	return f
}

// Configure sets the sample rate and the 5ms cutoff smoothing coefficient.
func (f *VoiceFilter) Configure(sampleRate float64) {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	f.sampleRate = sampleRate
	f.smoothCoef = 1.0 - math.Exp(-1.0/(0.005*sampleRate))
	f.updateCoefficients()
}

// SetMode selects the filter response.
func (f *VoiceFilter) SetMode(mode Mode) { f.mode = mode }

// SetCutoff sets the target cutoff in Hz, clamped below Nyquist.
func (f *VoiceFilter) SetCutoff(freq float64) {
	max := f.sampleRate * 0.49
	if freq < 20 {
		freq = 20
	}
	if freq > max {
		freq = max
	}
	f.target = freq
}

// SetResonance sets the Q factor, clamped to a stable range.
func (f *VoiceFilter) SetResonance(q float64) {
	if q < 0.1 {
		q = 0.1
	}
	if q > 20 {
		q = 20
	}
	f.q = q
	f.k = float32(1.0 / q)
}

// Cutoff returns the current smoothed cutoff in Hz.
func (f *VoiceFilter) Cutoff() float64 { return f.cutoff }

// Reset clears the integrator state and snaps the cutoff to its target.
func (f *VoiceFilter) Reset() {
	f.ic1eq = 0
	f.ic2eq = 0
	f.cutoff = f.target
	f.updateCoefficients()
}

func (f *VoiceFilter) updateCoefficients() {
	// Pre-warp for the bilinear transform.
	f.g = float32(math.Tan(math.Pi * f.cutoff / f.sampleRate))
}

// Process filters one sample.
func (f *VoiceFilter) Process(input float32) float32 {
	if f.cutoff != f.target {
		f.cutoff += (f.target - f.cutoff) * f.smoothCoef
		if math.Abs(f.cutoff-f.target) < 0.01 {
			f.cutoff = f.target
		}
		f.updateCoefficients()
	}

	g := f.g
	k := f.k
	a1 := 1.0 / (1.0 + g*(g+k))
	a2 := g * a1
	a3 := g * a2

	v3 := input - f.ic2eq
	v1 := a1*f.ic1eq + a2*v3
	v2 := f.ic2eq + a2*f.ic1eq + a3*v3

	f.ic1eq = 2.0*v1 - f.ic1eq
	f.ic2eq = 2.0*v2 - f.ic2eq

	switch f.mode {
	case Highpass:
		return input - k*v1 - v2
	case Bandpass:
		return v1
	case Notch:
		return input - k*v1
	default:
		return v2
	}
}

// ProcessBuffer filters a buffer in place.
func (f *VoiceFilter) ProcessBuffer(buffer []float32) {
	for i := range buffer {
		buffer[i] = f.Process(buffer[i])
	}
}
