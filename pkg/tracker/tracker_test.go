package tracker

import (
	"testing"

	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/midi"
)

// Collect all events over a number of blocks, translated to absolute sample
// positions.
func collect(e *Engine, blockSize, blocks int) []midi.Event {
	var out []midi.Event
	seq := midi.NewSequence()
	for b := 0; b < blocks; b++ {
		seq.Clear()
		e.Advance(blockSize, seq)
		for _, ev := range seq.Events() {
			ev.Offset += int32(b * blockSize)
			out = append(out, ev)
		}
	}
	return out
}

func noteOns(events []midi.Event) []midi.Event {
	var ons []midi.Event
	for _, ev := range events {
		if ev.Kind == midi.NoteOn {
			ons = append(ons, ev)
		}
	}
	return ons
}

func TestStepTimingIsSampleExact(t *testing.T) {
	e := NewEngine()
	e.Prepare(48000)
	e.SetTempo(120) // 6000 samples per sixteenth at 48k
	for i := 0; i < StepCount; i++ {
		e.SetStep(i, Step{Enabled: true, Note: 60, Velocity: 100, Gate: 0.25})
	}
	e.SetRunning(true)

	ons := noteOns(collect(e, 512, 48))
	if len(ons) < 4 {
		t.Fatalf("got %d note-ons, want at least 4", len(ons))
	}
	for i, ev := range ons {
		want := int32(i * 6000)
		if ev.Offset != want {
			t.Errorf("step %d at sample %d, want %d", i, ev.Offset, want)
		}
	}
}

func TestGateEmitsMatchingNoteOffs(t *testing.T) {
	e := NewEngine()
	e.Prepare(48000)
	e.SetTempo(120)
	e.SetStep(0, Step{Enabled: true, Note: 62, Velocity: 90, Gate: 0.5})
	e.SetRunning(true)

	events := collect(e, 512, 12)
	var on, off *midi.Event
	for i := range events {
		switch events[i].Kind {
		case midi.NoteOn:
			if on == nil {
				on = &events[i]
			}
		case midi.NoteOff:
			if off == nil {
				off = &events[i]
			}
		}
	}
	if on == nil || off == nil {
		t.Fatal("expected a note-on and a note-off")
	}
	if off.Note != on.Note {
		t.Errorf("note-off note = %d, want %d", off.Note, on.Note)
	}
	if got, want := off.Offset-on.Offset, int32(3000); got != want {
		t.Errorf("gate length = %d samples, want %d", got, want)
	}
}

func TestDisabledStepsStaySilent(t *testing.T) {
	e := NewEngine()
	e.Prepare(48000)
	e.SetStep(0, Step{Enabled: true, Note: 60, Velocity: 100})
	// Steps 1..15 stay disabled.
	e.SetRunning(true)

	ons := noteOns(collect(e, 512, 200)) // just over one full pattern
	for i := 1; i < len(ons); i++ {
		if ons[i].Offset-ons[i-1].Offset < int32(16*5999) {
			t.Fatalf("unexpected trigger between pattern repeats at %d", ons[i].Offset)
		}
	}
}

func TestSwingAltersStepSpacing(t *testing.T) {
	e := NewEngine()
	e.Prepare(48000)
	e.SetTempo(120)
	e.SetSwing(1) // full swing: ratio 1/3
	for i := 0; i < StepCount; i++ {
		e.SetStep(i, Step{Enabled: true, Note: 60, Velocity: 100})
	}
	e.SetRunning(true)

	ons := noteOns(collect(e, 512, 48))
	if len(ons) < 3 {
		t.Fatalf("got %d note-ons, want at least 3", len(ons))
	}
	first := ons[1].Offset - ons[0].Offset
	second := ons[2].Offset - ons[1].Offset
	if first <= second {
		t.Errorf("swing should lengthen even steps: %d then %d", first, second)
	}
	if got, want := first+second, int32(12000); got != want {
		t.Errorf("swung pair spans %d samples, want %d", got, want)
	}
}

func TestStoppedTrackerEmitsNothing(t *testing.T) {
	e := NewEngine()
	e.Prepare(48000)
	e.SetStep(0, Step{Enabled: true, Note: 60, Velocity: 100})

	seq := midi.NewSequence()
	e.Advance(512, seq)
	if seq.Len() != 0 {
		t.Errorf("stopped tracker emitted %d events", seq.Len())
	}
}

func TestRestartRewindsToStepZero(t *testing.T) {
	e := NewEngine()
	e.Prepare(48000)
	e.SetStep(0, Step{Enabled: true, Note: 60, Velocity: 100})
	e.SetRunning(true)
	collect(e, 512, 20)
	e.SetRunning(false)
	e.SetRunning(true)

	if got := e.CurrentStep(); got != 0 {
		t.Errorf("restart left pattern at step %d, want 0", got)
	}
	seq := midi.NewSequence()
	e.Advance(512, seq)
	events := seq.Events()
	if len(events) == 0 || events[0].Offset != 0 {
		t.Error("restart should trigger step zero on the first sample")
	}
}

func TestTempoClamped(t *testing.T) {
	e := NewEngine()
	e.SetTempo(1)
	if got := e.Tempo(); got != 20 {
		t.Errorf("tempo = %f, want clamp to 20", got)
	}
	e.SetTempo(999)
	if got := e.Tempo(); got != 300 {
		t.Errorf("tempo = %f, want clamp to 300", got)
	}
}
