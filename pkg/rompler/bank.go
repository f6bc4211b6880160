// Package rompler provides polyphonic sample-playback voices with per-voice
// filter and ADSR, the "Vintage Vault" engine of the canvas synth. Samples
// arrive as decoded mono PCM and are resampled to the engine rate at load
// time, so the render path never rate-converts.
package rompler

import (
	"errors"
	"fmt"
	"math"

	"github.com/dh1tw/gosamplerate"
)

// Sample is one playable mono sample. RootNote is the MIDI note at which the
// sample plays back untransposed.
type Sample struct {
	Name       string
	Data       []float32
	SampleRate float64
	RootNote   uint8
	Loop       bool
}

var (
	errEmptySample = errors.New("rompler: sample has no data")
	errShortSample = errors.New("rompler: sample needs at least two frames")
	errBadRate     = errors.New("rompler: sample rate must be positive")
)

// Bank holds the loaded samples, already converted to the engine rate.
type Bank struct {
	rate      float64
	converter int
	samples   []*Sample
}

// NewBank creates a bank that converts added samples to engineRate using
// libsamplerate's fastest sinc converter.
func NewBank(engineRate float64) *Bank {
	return &Bank{rate: engineRate, converter: gosamplerate.SRC_SINC_FASTEST}
}

// SetConverter selects the libsamplerate converter used for subsequent Adds.
func (b *Bank) SetConverter(converter int) { b.converter = converter }

// Add validates a sample, resamples it to the engine rate if needed, and
// files it. The sample's Data and SampleRate are updated in place.
func (b *Bank) Add(s *Sample) error {
	if s == nil || len(s.Data) == 0 {
		return errEmptySample
	}
	// Interpolated playback reads a span of two frames, so one frame is
	// unplayable.
	if len(s.Data) < 2 {
		return errShortSample
	}
	if s.SampleRate <= 0 {
		return errBadRate
	}
	if s.RootNote > 127 {
		s.RootNote = 127
	}
	if s.SampleRate != b.rate {
		ratio := b.rate / s.SampleRate
		if !gosamplerate.IsValidRatio(ratio) {
			return fmt.Errorf("rompler: cannot convert %q: ratio %f out of range", s.Name, ratio)
		}
		converted, err := gosamplerate.Simple(s.Data, ratio, 1, b.converter)
		if err != nil {
			return fmt.Errorf("rompler: resample %q: %w", s.Name, err)
		}
		s.Data = converted
		s.SampleRate = b.rate
	}
	b.samples = append(b.samples, s)
	return nil
}

// Len returns the number of loaded samples.
func (b *Bank) Len() int { return len(b.samples) }

// At returns the sample at index i, or nil when out of range.
func (b *Bank) At(i int) *Sample {
	if i < 0 || i >= len(b.samples) {
		return nil
	}
	return b.samples[i]
}

// SineSample synthesizes a decaying sine as a built-in sample, used by the
// audition tool and tests so no audio file decoding is needed.
func SineSample(name string, freq, seconds, rate float64, root uint8) *Sample {
	n := int(seconds * rate)
	if n < 2 {
		n = 2
	}
	data := make([]float32, n)
	decay := 4.0 / float64(n)
	for i := range data {
		env := math.Exp(-decay * float64(i))
		data[i] = float32(math.Sin(2*math.Pi*freq*float64(i)/rate) * env)
	}
	return &Sample{Name: name, Data: data, SampleRate: rate, RootNote: root}
}
