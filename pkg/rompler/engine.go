package rompler

import (
	"math"
	"sync/atomic"

	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/dsp/filter"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/dsp/pan"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/framework/param"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/midi"
)

// Parameter IDs for the rompler's controllable parameters.
const (
	ParamCutoff uint32 = iota + 100
	ParamResonance
	ParamLevel
	ParamPitchOffset
)

// Config sets the rompler's voice characteristics. Zero values select the
// per-field defaults.
type Config struct {
	// Polyphony is the voice count, 1-64 (default 16).
	Polyphony int
	// ADSR segment times in seconds and sustain level.
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
	// FilterMode selects the per-voice filter response (default lowpass).
	FilterMode filter.Mode
	// PanLaw selects the stereo law (default linear).
	PanLaw pan.Law
}

func (c *Config) applyDefaults() {
	if c.Polyphony <= 0 {
		c.Polyphony = 16
	}
	if c.Polyphony > 64 {
		c.Polyphony = 64
	}
	if c.Attack <= 0 {
		c.Attack = 0.01
	}
	if c.Decay <= 0 {
		c.Decay = 0.1
	}
	if c.Sustain <= 0 {
		c.Sustain = 0.7
	}
	if c.Release <= 0 {
		c.Release = 0.3
	}
}

// Engine is the polyphonic sample-playback engine. Note events arrive with
// sample offsets and split the render block, so step-sequenced notes land
// sample-exact. Parameter setters are callable from any thread; note and
// render methods belong to the render thread.
type Engine struct {
	cfg  Config
	bank *Bank

	voices  []voice
	ageClk  int64
	sustain bool
	// deferred marks notes released while the sustain pedal was held.
	deferred [128]bool

	currentSample atomic.Int32
	activeCount   atomic.Int32

	cutoff      *param.Parameter
	resonance   *param.Parameter
	level       *param.Parameter
	pitchOffset *param.Parameter
	registry    *param.Registry

	sampleRate float64
}

// NewEngine creates a rompler over the given bank. Prepare must be called
// before rendering.
func NewEngine(cfg Config, bank *Bank) *Engine {
	cfg.applyDefaults()
	e := &Engine{
		cfg:    cfg,
		bank:   bank,
		voices: make([]voice, cfg.Polyphony),
		cutoff: param.New(ParamCutoff, "Filter Cutoff").
			Range(20, 20000).Default(8000).Unit("Hz").Build(),
		resonance: param.New(ParamResonance, "Filter Resonance").
			Range(0.1, 10).Default(0.707).Build(),
		level: param.New(ParamLevel, "Level").
			Range(0, 1).Default(1).Build(),
		pitchOffset: param.New(ParamPitchOffset, "Pitch Offset").
			Range(-12, 12).Default(0).Unit("st").Build(),
	}
	e.registry = param.NewRegistry()
	e.registry.Add(e.cutoff, e.resonance, e.level, e.pitchOffset)
	return e
}

// Params exposes the rompler's parameter registry for preset capture.
func (e *Engine) Params() *param.Registry { return e.registry }

// Prepare configures every voice for the sample rate and silences the
// engine. Call only while rendering is stopped.
func (e *Engine) Prepare(sampleRate float64) {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	e.sampleRate = sampleRate
	for i := range e.voices {
		v := &e.voices[i]
		v.prepare(sampleRate)
		v.env.SetADSR(e.cfg.Attack, e.cfg.Decay, e.cfg.Sustain, e.cfg.Release)
		v.flt.SetMode(e.cfg.FilterMode)
	}
	e.sustain = false
	e.deferred = [128]bool{}
	e.activeCount.Store(0)
}

// SelectSample chooses which bank sample new notes play.
func (e *Engine) SelectSample(index int) {
	if index >= 0 && index < e.bank.Len() {
		e.currentSample.Store(int32(index))
	}
}

/// SelectedSample returns the bank index new notes play from.
func (e *Engine) SelectedSample() int { return int(e.currentSample.Load()) }

// PaintControl maps a normalized brush position onto the rompler: X sweeps
// the filter cutoff logarithmically, Y bends pitch across two octaves, and
// pressure scales the output level.
func (e *Engine) PaintControl(x, y, pressure float64) {
	x = clamp01(x)
	y = clamp01(y)
	e.cutoff.SetPlainValue(200 * math.Pow(10, x*2))
	e.pitchOffset.SetPlainValue((y - 0.5) * 24)
	e.level.SetPlainValue(clamp01(pressure))
}

// SetCutoff sets the voice filter cutoff in Hz.
func (e *Engine) SetCutoff(hz float64) { e.cutoff.SetPlainValue(hz) }

// SetResonance sets the voice filter Q.
func (e *Engine) SetResonance(q float64) { e.resonance.SetPlainValue(q) }

// SetLevel sets the engine output level, 0-1.
func (e *Engine) SetLevel(level float64) { e.level.SetPlainValue(level) }

// ActiveVoiceCount reports the live voices after the last rendered block.
func (e *Engine) ActiveVoiceCount() int { return int(e.activeCount.Load()) }

// NoteOn starts a note on a free voice, stealing the oldest when all are
// busy. Render thread only.
func (e *Engine) NoteOn(note, velocity uint8) {
	if velocity == 0 {
		e.NoteOff(note)
		return
	}
	smp := e.bank.At(int(e.currentSample.Load()))
	if smp == nil {
		return
	}
	v := e.findFreeVoice()
	if v == nil {
		v = e.stealOldest()
	}
	if v == nil {
		return
	}
	e.ageClk++
	e.deferred[note&127] = false
	v.noteOn(note, velocity, smp, e.ageClk, 0.5)
}

// NoteOff releases the voices playing a note. While the sustain pedal is
// held the release is deferred until the pedal lifts.
func (e *Engine) NoteOff(note uint8) {
	if e.sustain {
		e.deferred[note&127] = true
		return
	}
	for i := range e.voices {
		v := &e.voices[i]
		if v.isActive() && v.note == note && !v.releasing {
			v.noteOff()
		}
	}
}

// SetSustainPedal holds releases while on; lifting it releases every note
// that was deferred in the meantime.
func (e *Engine) SetSustainPedal(on bool) {
	e.sustain = on
	if on {
		return
	}
	for note, held := range e.deferred {
		if held {
			e.deferred[note] = false
			e.NoteOff(uint8(note))
		}
	}
}

// AllNotesOff releases everything immediately, pedal or not.
func (e *Engine) AllNotesOff() {
	e.sustain = false
	e.deferred = [128]bool{}
	for i := range e.voices {
		if e.voices[i].isActive() {
			e.voices[i].noteOff()
		}
	}
}

func (e *Engine) findFreeVoice() *voice {
	for i := range e.voices {
		if !e.voices[i].isActive() {
			return &e.voices[i]
		}
	}
	return nil
}

func (e *Engine) stealOldest() *voice {
	var best *voice
	for i := range e.voices {
		v := &e.voices[i]
		if best == nil || v.startAge < best.startAge {
			best = v
		}
	}
	return best
}

// Process mixes the engine into the stereo buffers without clearing them.
// Events split the block at their sample offsets; they must be sorted, which
// midi.Sequence.Events guarantees.
func (e *Engine) Process(left, right []float32, events []midi.Event) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}

	cutoffHz := e.cutoff.GetPlainValue()
	q := e.resonance.GetPlainValue()
	levelMul := e.level.GetPlainValue()
	pitchMul := math.Pow(2, e.pitchOffset.GetPlainValue()/12)
	for i := range e.voices {
		if e.voices[i].isActive() {
			e.voices[i].flt.SetCutoff(cutoffHz)
			e.voices[i].flt.SetResonance(q)
		}
	}

	pos := 0
	for _, ev := range events {
		off := int(ev.Offset)
		if off < pos {
			off = pos
		}
		if off > n {
			off = n
		}
		if off > pos {
			e.renderSegment(left[pos:off], right[pos:off], pitchMul, levelMul)
			pos = off
		}
		e.handleEvent(ev)
	}
	if pos < n {
		e.renderSegment(left[pos:n], right[pos:n], pitchMul, levelMul)
	}

	active := int32(0)
	for i := range e.voices {
		if e.voices[i].isActive() {
			active++
		}
	}
	e.activeCount.Store(active)
}

func (e *Engine) renderSegment(left, right []float32, pitchMul, levelMul float64) {
	for i := range e.voices {
		if e.voices[i].isActive() {
			e.voices[i].renderAccumulate(left, right, e.cfg.PanLaw, pitchMul, levelMul)
		}
	}
}

func (e *Engine) handleEvent(ev midi.Event) {
	switch ev.Kind {
	case midi.NoteOn:
		e.NoteOn(ev.Note, ev.Velocity)
	case midi.NoteOff:
		e.NoteOff(ev.Note)
	case midi.ControlChange:
		if ev.Controller == midi.ControllerSustain {
			e.SetSustainPedal(ev.Value >= 64)
		}
	}
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
