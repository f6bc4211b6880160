package rompler

import (
	"errors"
	"math"
	"testing"

	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/dsp/envelope"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/midi"
)

const sr = 44100.0

func newTestEngine(t *testing.T, polyphony int) *Engine {
	t.Helper()
	bank := NewBank(sr)
	smp := SineSample("test", 440, 1.0, sr, 69)
	smp.Loop = true
	if err := bank.Add(smp); err != nil {
		t.Fatalf("add sample: %v", err)
	}
	e := NewEngine(Config{Polyphony: polyphony, Attack: 0.001, Release: 0.002}, bank)
	e.Prepare(sr)
	return e
}

func render(e *Engine, n int, events []midi.Event) ([]float32, []float32) {
	left := make([]float32, n)
	right := make([]float32, n)
	e.Process(left, right, events)
	return left, right
}

func maxAbs(buf []float32) float64 {
	var m float64
	for _, v := range buf {
		if a := math.Abs(float64(v)); a > m {
			m = a
		}
	}
	return m
}

func TestNoteOnProducesSound(t *testing.T) {
	e := newTestEngine(t, 4)
	left, right := render(e, 512, []midi.Event{midi.NewNoteOn(69, 100, 0)})

	if maxAbs(left) < 0.01 || maxAbs(right) < 0.01 {
		t.Error("note on produced no audio")
	}
	if e.ActiveVoiceCount() != 1 {
		t.Errorf("active voices = %d, want 1", e.ActiveVoiceCount())
	}
}

func TestEventOffsetSplitsBlock(t *testing.T) {
	e := newTestEngine(t, 4)
	left, _ := render(e, 256, []midi.Event{midi.NewNoteOn(69, 100, 128)})

	if got := maxAbs(left[:128]); got != 0 {
		t.Errorf("audio before the event offset: %f", got)
	}
	if got := maxAbs(left[128:]); got < 0.001 {
		t.Error("no audio after the event offset")
	}
}

func TestVoiceStealingPicksOldest(t *testing.T) {
	e := newTestEngine(t, 2)
	render(e, 64, []midi.Event{midi.NewNoteOn(60, 100, 0)})
	render(e, 64, []midi.Event{midi.NewNoteOn(64, 100, 0)})
	render(e, 64, []midi.Event{midi.NewNoteOn(67, 100, 0)})

	if e.ActiveVoiceCount() != 2 {
		t.Fatalf("active voices = %d, want polyphony limit 2", e.ActiveVoiceCount())
	}
	notes := map[uint8]bool{}
	for i := range e.voices {
		if e.voices[i].isActive() {
			notes[e.voices[i].note] = true
		}
	}
	if notes[60] {
		t.Error("oldest note 60 should have been stolen")
	}
	if !notes[64] || !notes[67] {
		t.Errorf("surviving notes = %v, want 64 and 67", notes)
	}
}

func TestNoteOffEntersRelease(t *testing.T) {
	e := newTestEngine(t, 4)
	render(e, 256, []midi.Event{midi.NewNoteOn(69, 100, 0)})
	render(e, 64, []midi.Event{midi.NewNoteOff(69, 0)})

	v := &e.voices[0]
	if !v.releasing {
		t.Error("voice should be releasing after note off")
	}
	st := v.env.Stage()
	if st != envelope.StageRelease && st != envelope.StageIdle {
		t.Errorf("envelope stage = %v, want release or idle", st)
	}

	for i := 0; i < 50 && e.ActiveVoiceCount() > 0; i++ {
		render(e, 256, nil)
	}
	if e.ActiveVoiceCount() != 0 {
		t.Error("released voice never went idle")
	}
}

func TestSustainPedalDefersRelease(t *testing.T) {
	e := newTestEngine(t, 4)
	render(e, 128, []midi.Event{
		midi.NewControlChange(midi.ControllerSustain, 127, 0),
		midi.NewNoteOn(69, 100, 0),
	})
	render(e, 128, []midi.Event{midi.NewNoteOff(69, 0)})

	if e.voices[0].releasing {
		t.Fatal("note released while the pedal was held")
	}

	render(e, 128, []midi.Event{midi.NewControlChange(midi.ControllerSustain, 0, 0)})
	if !e.voices[0].releasing {
		t.Error("deferred note not released when the pedal lifted")
	}
}

func TestVelocityZeroActsAsNoteOff(t *testing.T) {
	e := newTestEngine(t, 4)
	render(e, 128, []midi.Event{midi.NewNoteOn(69, 100, 0)})
	render(e, 128, []midi.Event{midi.NewNoteOn(69, 0, 0)})
	if !e.voices[0].releasing {
		t.Error("velocity-zero note on should release the note")
	}
}

func TestOneShotSampleStopsAtEnd(t *testing.T) {
	bank := NewBank(sr)
	short := SineSample("short", 440, 0.01, sr, 69) // 441 samples, no loop
	if err := bank.Add(short); err != nil {
		t.Fatalf("add sample: %v", err)
	}
	e := NewEngine(Config{Polyphony: 2, Attack: 0.001, Release: 1.0}, bank)
	e.Prepare(sr)

	render(e, 512, []midi.Event{midi.NewNoteOn(69, 100, 0)})
	if e.ActiveVoiceCount() != 0 {
		t.Error("one-shot voice should stop when the sample runs out")
	}
}

func TestPitchRatioFollowsNote(t *testing.T) {
	e := newTestEngine(t, 4)
	render(e, 16, []midi.Event{midi.NewNoteOn(81, 100, 0)}) // octave above root
	if got := e.voices[0].baseRatio; math.Abs(got-2) > 1e-9 {
		t.Errorf("pitch ratio = %f, want 2", got)
	}
}

func TestPaintControlMapsAxes(t *testing.T) {
	e := newTestEngine(t, 4)
	e.PaintControl(1, 1, 0.5)

	if got := e.cutoff.GetPlainValue(); math.Abs(got-20000) > 1 {
		t.Errorf("cutoff = %f, want 20000 at full X", got)
	}
	if got := e.pitchOffset.GetPlainValue(); math.Abs(got-12) > 1e-9 {
		t.Errorf("pitch offset = %f, want +12 at full Y", got)
	}
	if got := e.level.GetPlainValue(); got != 0.5 {
		t.Errorf("level = %f, want 0.5", got)
	}
}

func TestBankRejectsEmptySample(t *testing.T) {
	bank := NewBank(sr)
	if err := bank.Add(&Sample{Name: "empty", SampleRate: sr}); err == nil {
		t.Error("empty sample should be rejected")
	}
	if err := bank.Add(&Sample{Name: "norate", Data: []float32{0, 0}}); err == nil {
		t.Error("zero-rate sample should be rejected")
	}
	if err := bank.Add(&Sample{Name: "oneframe", Data: []float32{0}, SampleRate: sr}); !errors.Is(err, errShortSample) {
		t.Errorf("one-frame sample: got %v, want %v", err, errShortSample)
	}
}

// An extreme transposition can step past the end of a short loop by several
// full passes in a single sample, so the wrap has to keep subtracting until
// the read position is back in range.
func TestShortLoopSurvivesExtremeTransposition(t *testing.T) {
	bank := NewBank(sr)
	short := &Sample{Name: "grain", Data: make([]float32, 44), SampleRate: sr, RootNote: 0, Loop: true}
	for i := range short.Data {
		short.Data[i] = float32(math.Sin(2 * math.Pi * float64(i) / 44))
	}
	if err := bank.Add(short); err != nil {
		t.Fatalf("add sample: %v", err)
	}
	e := NewEngine(Config{Polyphony: 2, Attack: 0.001, Release: 0.002}, bank)
	e.Prepare(sr)

	// Note 127 against root 0 is a ratio of ~1534, far past the loop length.
	left, right := render(e, 256, []midi.Event{midi.NewNoteOn(127, 100, 0)})

	if e.ActiveVoiceCount() != 1 {
		t.Errorf("active voices = %d, want 1", e.ActiveVoiceCount())
	}
	for i := range left {
		if math.IsNaN(float64(left[i])) || math.IsNaN(float64(right[i])) {
			t.Fatalf("NaN output at sample %d", i)
		}
	}
	v := &e.voices[0]
	if last := float64(len(v.smp.Data) - 1); v.pos < 0 || v.pos >= last+v.baseRatio {
		t.Errorf("voice position %f drifted out of range", v.pos)
	}
}
