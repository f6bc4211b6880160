// Package oscillator provides the paint-driven audio oscillators used by the
// canvas render core.
package oscillator

import "math"

// Wave selects the waveform rendered by an oscillator.
type Wave int

const (
	// WaveSine is the core contract waveform.
	WaveSine Wave = iota
	// WaveTriangle adds odd harmonics with fast rolloff.
	WaveTriangle
	// WaveSaw adds the full harmonic series.
	WaveSaw
	// WaveSquare adds odd harmonics.
	WaveSquare
)

// FromTimbre maps a normalized timbre amount (0-1, typically derived from
// paint color saturation) to a waveform. It is a pure function of its input
// so the render loop can call it without extra state.
func FromTimbre(t float64) Wave {
	switch {
	case t < 0.25:
		return WaveSine
	case t < 0.5:
		return WaveTriangle
	case t < 0.75:
		return WaveSaw
	default:
		return WaveSquare
	}
}

// Sample evaluates one waveform cycle at the given normalized phase (0-1).
// Stateless; the caller owns phase accumulation.
func Sample(w Wave, phase float64) float32 {
	switch w {
	case WaveTriangle:
		if phase < 0.5 {
			return float32(4.0*phase - 1.0)
		}
		return float32(3.0 - 4.0*phase)
	case WaveSaw:
		return float32(2.0*phase - 1.0)
	case WaveSquare:
		if phase < 0.5 {
			return 1.0
		}
		return -1.0
	default:
		return float32(math.Sin(2.0 * math.Pi * phase))
	}
}

// Oscillator is a single sample-generating unit: a phase accumulator with
// per-sample smoothed amplitude and pan. One oscillator occupies one slot of
// the fixed-capacity pool and is mutated only by the render thread.
type Oscillator struct {
	frequency float64
	phase     float64
	phaseInc  float64

	amplitude       float64
	targetAmplitude float64
	pan             float64
	targetPan       float64

	// One-pole smoothing coefficients. Amplitude moves faster than pan so
	// new target assignments never step either audibly.
	ampCoef float64
	panCoef float64

	sampleRate float64
}

// Default smoothing time constants.
const (
	ampSmoothingSeconds = 0.001
	panSmoothingSeconds = 0.003
)

// New creates an oscillator for the given sample rate.
func New(sampleRate float64) *Oscillator {
	o := &Oscillator{pan: 0.5, targetPan: 0.5}
	o.Configure(sampleRate)
	return o
}

// Configure sets the sample rate and recomputes smoothing coefficients.
// Callable again on sample-rate change; resets nothing else.
func (o *Oscillator) Configure(sampleRate float64) {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	o.sampleRate = sampleRate
	o.ampCoef = 1.0 - math.Exp(-1.0/(ampSmoothingSeconds*sampleRate))
	o.panCoef = 1.0 - math.Exp(-1.0/(panSmoothingSeconds*sampleRate))
	o.phaseInc = o.frequency / sampleRate
}

// SetFrequency sets the pitch in Hz. Phase stays continuous across frequency
// changes, so a retune never produces a waveform discontinuity.
func (o *Oscillator) SetFrequency(freq float64) {
	o.frequency = freq
	o.phaseInc = freq / o.sampleRate
}

// Frequency returns the current pitch in Hz.
func (o *Oscillator) Frequency() float64 { return o.frequency }

// SetTargets sets the amplitude and pan targets the per-sample smoothing
// slides toward. Inputs are clamped to [0,1].
func (o *Oscillator) SetTargets(amplitude, pan float64) {
	o.targetAmplitude = clamp01(amplitude)
	o.targetPan = clamp01(pan)
}

// SnapTargets jumps amplitude and pan directly to their targets. Used when a
// slot is recycled so the previous voice's trailing values never bleed in.
func (o *Oscillator) SnapTargets(amplitude, pan float64) {
	o.SetTargets(amplitude, pan)
	o.amplitude = o.targetAmplitude
	o.pan = o.targetPan
}

// SmoothParameters advances amplitude and pan one step toward their targets.
// Called once per sample by the render loop.
func (o *Oscillator) SmoothParameters() {
	o.amplitude += (o.targetAmplitude - o.amplitude) * o.ampCoef
	o.pan += (o.targetPan - o.pan) * o.panCoef
}

// Amplitude returns the currently smoothed amplitude.
func (o *Oscillator) Amplitude() float64 { return o.amplitude }

// Pan returns the currently smoothed pan position (0=left, 1=right).
func (o *Oscillator) Pan() float64 { return o.pan }

// Sample renders one raw sample of the given waveform scaled by the smoothed
// amplitude. Does not advance phase; call Advance afterwards.
func (o *Oscillator) Sample(w Wave) float32 {
	return Sample(w, o.phase) * float32(o.amplitude)
}

// Advance moves the phase accumulator forward one sample and wraps it back
// into [0, 1).
func (o *Oscillator) Advance() {
	o.phase += o.phaseInc
	if o.phase >= 1.0 {
		o.phase -= math.Floor(o.phase)
	}
}

// Phase returns the current normalized phase in [0, 1).
func (o *Oscillator) Phase() float64 { return o.phase }

// Reset returns the oscillator to its default silent state. The sample rate
// and smoothing coefficients are kept.
func (o *Oscillator) Reset() {
	o.frequency = 0
	o.phase = 0
	o.phaseInc = 0
	o.amplitude = 0
	o.targetAmplitude = 0
	o.pan = 0.5
	o.targetPan = 0.5
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
