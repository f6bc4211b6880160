package rompler

import (
	"math"

	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/dsp/envelope"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/dsp/filter"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/dsp/interpolation"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/dsp/pan"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/midi"
)

// voice plays one sample at a pitch ratio derived from the triggered note,
// through its own filter and amplitude envelope. Owned by the render thread.
type voice struct {
	smp       *Sample
	pos       float64
	baseRatio float64

	note      uint8
	level     float64
	pan       float64
	startAge  int64
	releasing bool

	env *envelope.ADSR
	flt *filter.VoiceFilter
}

func (v *voice) prepare(sampleRate float64) {
	if v.env == nil {
		v.env = envelope.NewADSR(sampleRate)
		v.flt = filter.NewVoiceFilter(sampleRate)
	} else {
		v.env.Configure(sampleRate)
		v.flt.Configure(sampleRate)
	}
	v.stop()
}

func (v *voice) isActive() bool {
	return v.smp != nil && v.env.IsActive()
}

// noteOn starts the voice on a sample. The pitch ratio transposes the sample
// from its root note in equal temperament.
func (v *voice) noteOn(note, velocity uint8, smp *Sample, age int64, panPos float64) {
	v.smp = smp
	v.pos = 0
	v.baseRatio = math.Pow(2, (float64(note)-float64(smp.RootNote))/12)
	v.note = note
	v.level = midi.VelocityToLevel(velocity)
	v.pan = panPos
	v.startAge = age
	v.releasing = false
	v.flt.Reset()
	v.env.Trigger()
}

func (v *voice) noteOff() {
	v.releasing = true
	v.env.Release()
}

func (v *voice) stop() {
	v.smp = nil
	v.releasing = false
	v.env.Reset()
}

// renderAccumulate mixes the voice into the stereo buffers. pitchMul bends
// the base ratio, levelMul scales the voice level; both are block constants
// from the engine's paint-control parameters.
func (v *voice) renderAccumulate(left, right []float32, law pan.Law, pitchMul, levelMul float64) {
	data := v.smp.Data
	last := float64(len(data) - 1)
	ratio := v.baseRatio * pitchMul
	gain := v.level * levelMul

	for i := range left {
		// A pitch ratio larger than the loop length can overshoot by more
		// than one pass, so wrap until the position is back in range.
		for v.pos >= last {
			if !v.smp.Loop {
				v.stop()
				return
			}
			v.pos -= last
		}
		raw := interpolation.At(data, v.pos)

		ev := v.env.Next()
		if !v.env.IsActive() {
			v.stop()
			return
		}
		out := v.flt.Process(raw) * float32(ev*gain)
		pan.Accumulate(out, v.pan, law, &left[i], &right[i])

		v.pos += ratio
	}
}
