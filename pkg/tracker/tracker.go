// Package tracker is a 16-step pattern sequencer. It owns a sample clock and
// emits note events with exact block offsets, so the receiving engine places
// every step on its precise sample boundary regardless of block size.
package tracker

import (
	"math"
	"sync"

	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/midi"
)

// StepCount is the fixed pattern length.
const StepCount = 16

// Step is one pattern slot.
type Step struct {
	Enabled  bool
	Note     uint8
	Velocity uint8
	// Gate is the fraction of the step duration the note holds, (0,1].
	// Zero selects the default of 0.5.
	Gate float64
}

type pendingOff struct {
	note      uint8
	remaining float64 // samples from the start of the next block
}

// Engine walks the pattern. Advance runs on the render thread; setters take
// a short mutex and never touch the OS, so contention stays bounded to a few
// field writes.
type Engine struct {
	mu sync.Mutex

	sampleRate float64
	bpm        float64
	swing      float64
	steps      [StepCount]Step

	running   bool
	current   int
	untilNext float64
	offs      []pendingOff
}

// NewEngine creates a stopped tracker at 120 BPM.
func NewEngine() *Engine {
	return &Engine{bpm: 120, sampleRate: 44100, offs: make([]pendingOff, 0, StepCount)}
}

// Prepare sets the sample rate and rewinds the pattern.
func (e *Engine) Prepare(sampleRate float64) {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sampleRate = sampleRate
	e.current = 0
	e.untilNext = 0
	e.offs = e.offs[:0]
}

// SetTempo sets the pattern tempo, clamped to 20-300 BPM.
func (e *Engine) SetTempo(bpm float64) {
	if bpm < 20 {
		bpm = 20
	}
	if bpm > 300 {
		bpm = 300
	}
	e.mu.Lock()
	e.bpm = bpm
	e.mu.Unlock()
}

// Tempo returns the current BPM.
func (e *Engine) Tempo() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bpm
}

// SetSwing sets the shuffle amount, 0-1. Odd steps shorten and even steps
// lengthen by up to a third of the step duration.
func (e *Engine) SetSwing(amount float64) {
	if amount < 0 {
		amount = 0
	}
	if amount > 1 {
		amount = 1
	}
	e.mu.Lock()
	e.swing = amount
	e.mu.Unlock()
}

// Swing returns the shuffle amount.
func (e *Engine) Swing() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.swing
}

// SetStep replaces one pattern slot.
func (e *Engine) SetStep(index int, s Step) {
	if index < 0 || index >= StepCount {
		return
	}
	if s.Gate <= 0 || s.Gate > 1 {
		s.Gate = 0.5
	}
	e.mu.Lock()
	e.steps[index] = s
	e.mu.Unlock()
}

// StepAt returns a pattern slot.
func (e *Engine) StepAt(index int) Step {
	if index < 0 || index >= StepCount {
		return Step{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.steps[index]
}

// SetRunning starts or stops the pattern. Starting rewinds to step zero so
// the first trigger lands on the first sample of the next block.
func (e *Engine) SetRunning(running bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if running && !e.running {
		e.current = 0
		e.untilNext = 0
	}
	e.running = running
}

// IsRunning reports whether the pattern is playing.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// CurrentStep returns the next step index to trigger.
func (e *Engine) CurrentStep() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Advance moves the sample clock through one block, emitting note-ons at
// their step boundaries and note-offs at the end of each step's gate. The
// fractional clock carries across blocks, so timing never drifts.
func (e *Engine) Advance(blockSize int, seq *midi.Sequence) {
	if blockSize <= 0 || seq == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	block := float64(blockSize)

	// Gate-offs scheduled by earlier blocks.
	keep := e.offs[:0]
	for _, off := range e.offs {
		if off.remaining < block {
			seq.Add(midi.NewNoteOff(off.note, int32(off.remaining)))
		} else {
			off.remaining -= block
			keep = append(keep, off)
		}
	}
	e.offs = keep

	if !e.running {
		return
	}

	for e.untilNext < block {
		at := e.untilNext
		step := e.steps[e.current]
		if step.Enabled {
			seq.Add(midi.NewNoteOn(step.Note, step.Velocity, int32(at)))
			gateEnd := at + e.stepDuration(e.current)*step.Gate
			if gateEnd < block {
				seq.Add(midi.NewNoteOff(step.Note, int32(gateEnd)))
			} else {
				e.offs = append(e.offs, pendingOff{note: step.Note, remaining: gateEnd - block})
			}
		}
		e.untilNext += e.stepDuration(e.current)
		e.current = (e.current + 1) % StepCount
	}
	e.untilNext -= block
}

// stepDuration returns the step length in samples, sixteenth notes at the
// current tempo, with swing stretching even steps and shrinking odd ones.
func (e *Engine) stepDuration(index int) float64 {
	base := e.sampleRate * 60.0 / e.bpm / 4.0
	ratio := swingRatio(e.swing)
	if ratio <= 0 {
		return base
	}
	if index%2 == 0 {
		return base * (1 + ratio)
	}
	return base * (1 - ratio)
}

// swingRatio maps the 0-1 control to a 0-1/3 timing ratio with a gentle
// curve.
func swingRatio(swing float64) float64 {
	return (1.0 / 3.0) * math.Pow(swing, 1.6)
}
