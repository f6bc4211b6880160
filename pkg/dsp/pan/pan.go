// Package pan provides stereo panning laws for the canvas mix bus.
//
// Pan positions are normalized to [0,1]: 0 is hard left, 1 is hard right.
// That matches the paint mapping, where pan comes straight from color hue.
package pan

import "math"

// Law represents different panning laws.
type Law int

const (
	// Linear is the minimum contract: left = 1-pan, right = pan.
	Linear Law = iota
	// ConstantPower uses sine/cosine gains so perceived loudness holds
	// steady across the stereo field.
	ConstantPower
)

// Gains returns the left and right channel gains for a pan position.
// Positions outside [0,1] are clamped.
func Gains(pan float64, law Law) (left, right float32) {
	if pan < 0 {
		pan = 0
	} else if pan > 1 {
		pan = 1
	}

	switch law {
	case ConstantPower:
		angle := pan * math.Pi / 2
		return float32(math.Cos(angle)), float32(math.Sin(angle))
	default:
		return float32(1 - pan), float32(pan)
	}
}

// Accumulate mixes one mono sample into stereo buses at the given position.
func Accumulate(sample float32, pan float64, law Law, left, right *float32) {
	lg, rg := Gains(pan, law)
	*left += sample * lg
	*right += sample * rg
}
