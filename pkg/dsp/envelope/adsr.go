package envelope

import "math"

// Stage is the lifecycle stage of an ADSR envelope.
type Stage int

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

// ADSR is the classic four-segment amplitude envelope used by the sample
// voices. Exponential segments; one instance per voice, advanced by the
// render thread.
type ADSR struct {
	sampleRate float64

	attack  float64
	decay   float64
	sustain float64
	release float64

	attackCoef  float64
	decayCoef   float64
	releaseCoef float64

	stage  Stage
	value  float64
	target float64
}

// NewADSR creates an envelope with moderate defaults at the given sample
// rate.
func NewADSR(sampleRate float64) *ADSR {
	e := &ADSR{sustain: 0.7}
	e.Configure(sampleRate)
	e.SetADSR(0.01, 0.1, 0.7, 0.3)
	return e
}

// Configure sets the sample rate and recomputes segment coefficients.
func (e *ADSR) Configure(sampleRate float64) {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	e.sampleRate = sampleRate
	e.updateCoefficients()
}

// SetADSR sets all four segments: times in seconds, sustain as a 0-1 level.
func (e *ADSR) SetADSR(attack, decay, sustain, release float64) {
	e.attack = math.Max(0.001, attack)
	e.decay = math.Max(0.001, decay)
	e.sustain = math.Min(1, math.Max(0, sustain))
	e.release = math.Max(0.001, release)
	e.updateCoefficients()
}

func (e *ADSR) updateCoefficients() {
	e.attackCoef = calcCoef(e.attack, e.sampleRate)
	e.decayCoef = calcCoef(e.decay, e.sampleRate)
	e.releaseCoef = calcCoef(e.release, e.sampleRate)
}

// Trigger starts the attack segment. Retriggering ramps from the current
// value.
func (e *ADSR) Trigger() {
	e.stage = StageAttack
	e.target = 1.0
}

// Release starts the release segment. A no-op while idle.
func (e *ADSR) Release() {
	if e.stage != StageIdle {
		e.stage = StageRelease
		e.target = 0
	}
}

// Reset silences the envelope immediately.
func (e *ADSR) Reset() {
	e.stage = StageIdle
	e.value = 0
	e.target = 0
}

// IsActive reports whether the envelope is producing output.
func (e *ADSR) IsActive() bool { return e.stage != StageIdle }

// Stage returns the current segment.
func (e *ADSR) Stage() Stage { return e.stage }

// Value returns the current level without advancing.
func (e *ADSR) Value() float64 { return e.value }

// Next advances the envelope one sample and returns its level.
func (e *ADSR) Next() float64 {
	switch e.stage {
	case StageAttack:
		e.value = e.target + (e.value-e.target)*e.attackCoef
		if e.value >= 0.999 {
			e.value = 1.0
			e.stage = StageDecay
			e.target = e.sustain
		}
	case StageDecay:
		e.value = e.target + (e.value-e.target)*e.decayCoef
		if e.value <= e.sustain+0.001 {
			e.value = e.sustain
			e.stage = StageSustain
		}
	case StageSustain:
		e.value = e.sustain
	case StageRelease:
		e.value = e.target + (e.value-e.target)*e.releaseCoef
		if e.value <= ReclaimEpsilon {
			e.value = 0
			e.stage = StageIdle
		}
	default:
		e.value = 0
	}
	return e.value
}
