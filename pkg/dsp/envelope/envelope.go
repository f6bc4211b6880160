// Package envelope provides the per-slot lifecycle envelopes that fade
// oscillators in and out, preventing clicks on activation and release.
package envelope

import "math"

// Phase represents the lifecycle stage of a pool slot.
type Phase int

const (
	// PhaseInactive means the slot contributes nothing and may be reclaimed.
	PhaseInactive Phase = iota
	// PhaseAttack ramps the envelope toward full level after activation.
	PhaseAttack
	// PhaseSustain holds full level while the gesture keeps the slot alive.
	PhaseSustain
	// PhaseRelease decays toward silence after the gesture ends.
	PhaseRelease
)

// ReclaimEpsilon terminates the release phase deterministically: once the
// envelope value decays below it the slot goes Inactive, so a release can
// never leave an unbounded float tail.
const ReclaimEpsilon = 1e-3

// Slot is an attack/sustain/release envelope for one oscillator slot.
// It is owned by the render thread and advanced once per sample.
type Slot struct {
	sampleRate float64

	attack  float64
	release float64

	attackCoef  float64
	releaseCoef float64

	phase Phase
	value float64
}

// NewSlot creates a slot envelope with the given attack and release times in
// seconds.
func NewSlot(sampleRate, attack, release float64) *Slot {
	s := &Slot{}
	s.Configure(sampleRate, attack, release)
	return s
}

// Configure recomputes the exponential coefficients. Callable again on
// sample-rate or time changes; the current phase and value are preserved.
func (s *Slot) Configure(sampleRate, attack, release float64) {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	s.sampleRate = sampleRate
	s.attack = math.Max(0.001, attack)
	s.release = math.Max(0.001, release)
	s.attackCoef = calcCoef(s.attack, sampleRate)
	s.releaseCoef = calcCoef(s.release, sampleRate)
}

// calcCoef derives a one-pole coefficient from a time constant.
func calcCoef(timeSeconds, sampleRate float64) float64 {
	return math.Exp(-1.0 / (timeSeconds * sampleRate))
}

// Trigger starts the attack phase. The envelope ramps from its current value,
// so retriggering a releasing slot fades back up without a step.
func (s *Slot) Trigger() {
	s.phase = PhaseAttack
}

// Release starts the release phase. A no-op on an inactive slot.
func (s *Slot) Release() {
	if s.phase != PhaseInactive {
		s.phase = PhaseRelease
	}
}

// Reset forces the slot silent and inactive immediately.
func (s *Slot) Reset() {
	s.phase = PhaseInactive
	s.value = 0
}

// Phase returns the current lifecycle phase.
func (s *Slot) Phase() Phase { return s.phase }

// Value returns the current envelope value in [0,1].
func (s *Slot) Value() float64 { return s.value }

// IsActive reports whether the slot counts toward the mix: any phase other
// than Inactive.
func (s *Slot) IsActive() bool { return s.phase != PhaseInactive }

// Next advances the envelope one sample and returns the new value. When a
// release decays below ReclaimEpsilon the slot transitions to Inactive and
// the caller is expected to return the slot index to the free list.
func (s *Slot) Next() float64 {
	switch s.phase {
	case PhaseAttack:
		s.value = 1.0 + (s.value-1.0)*s.attackCoef
		if s.value >= 0.999 {
			s.value = 1.0
			s.phase = PhaseSustain
		}
	case PhaseSustain:
		s.value = 1.0
	case PhaseRelease:
		s.value *= s.releaseCoef
		if s.value <= ReclaimEpsilon {
			s.value = 0
			s.phase = PhaseInactive
		}
	default:
		s.value = 0
	}
	return s.value
}
