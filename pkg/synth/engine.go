// Package synth is the composition root: it owns the paint, rompler, and
// tracker engines, mixes them into the output bus, runs the enhancement
// chain, and dispatches batched control commands on the render thread under
// a fixed time budget.
package synth

import (
	"sync/atomic"

	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/framework/command"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/framework/debug"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/midi"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/paint"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/rompler"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/sauce"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/tracker"
)

// Mode selects which engines contribute to the mix.
type Mode int32

const (
	// ModePaint renders paint gestures through the oscillator pool.
	ModePaint Mode = iota
	// ModeSpectral is the additive canvas-oscillator view of the same pool.
	ModeSpectral
	// ModeTracker sequences the rompler from the step pattern.
	ModeTracker
	// ModeSample plays the rompler from direct note events.
	ModeSample
	// ModeHybrid mixes every engine.
	ModeHybrid
)

// Command kinds dispatched on the render thread.
const (
	CmdSetMode command.Kind = iota + 1
	CmdSelectSample
	CmdTrackerRun
	CmdNoteOn
	CmdNoteOff
	CmdSustainPedal
	CmdSauceBypass
)

// Config assembles an Engine. Bank may be nil when only paint synthesis is
// used.
type Config struct {
	Paint   paint.Config
	Rompler rompler.Config
	Bank    *rompler.Bank

	// QueueCapacity sizes the command ring (default 256).
	QueueCapacity int

	// Logger receives drop warnings and lifecycle notes; nil uses the
	// package default.
	Logger *debug.Logger
}

// Engine is the top-level synthesizer.
type Engine struct {
	Paint   *paint.Engine
	Rompler *rompler.Engine
	Tracker *tracker.Engine
	Sauce   *sauce.Chain

	queue *command.Queue
	seq   *midi.Sequence
	log   *debug.Logger

	mode           atomic.Int32
	paintEnabled   atomic.Bool
	romplerEnabled atomic.Bool
	trackerEnabled atomic.Bool

	profiler *debug.RenderProfiler

	sampleRate float64
}

// NewEngine builds the full synthesizer. Prepare must run before Process.
func NewEngine(cfg Config) *Engine {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 256
	}
	if cfg.Logger == nil {
		cfg.Logger = debug.Default()
	}
	bank := cfg.Bank
	if bank == nil {
		bank = rompler.NewBank(44100)
	}
	e := &Engine{
		Paint:    paint.NewEngine(cfg.Paint),
		Rompler:  rompler.NewEngine(cfg.Rompler, bank),
		Tracker:  tracker.NewEngine(),
		Sauce:    sauce.NewChain(),
		queue:    command.NewQueue(cfg.QueueCapacity),
		seq:      midi.NewSequence(),
		log:      cfg.Logger,
		profiler: debug.NewRenderProfiler(44100, 512),
	}
	e.applyMode(ModePaint)
	return e
}

// Prepare configures every engine for the sample rate and block size and
// builds the default enhancement chain. Call only while rendering is
// stopped.
func (e *Engine) Prepare(sampleRate float64, blockSize int) {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	e.sampleRate = sampleRate
	e.Paint.Prepare(sampleRate, blockSize)
	e.Rompler.Prepare(sampleRate)
	e.Tracker.Prepare(sampleRate)
	bypassed := e.Sauce.IsBypassed()
	e.Sauce = sauce.NewEnhancer(sampleRate)
	e.Sauce.SetBypass(bypassed)
	e.profiler.Reconfigure(sampleRate, blockSize)
	e.log.Info("engine prepared: %.0f Hz, %d-sample blocks", sampleRate, blockSize)
}

// Mode returns the active synthesis mode.
func (e *Engine) Mode() Mode { return Mode(e.mode.Load()) }

// post pushes a command, logging when the ring is full. The command is
// dropped in that case; the control thread may retry.
func (e *Engine) post(cmd command.Command) bool {
	if !e.queue.Push(cmd) {
		e.log.Warn("command queue full, dropped kind %d", cmd.Kind)
		return false
	}
	return true
}

// SetMode switches the synthesis mode at the next block boundary.
func (e *Engine) SetMode(m Mode) bool {
	return e.post(command.Command{Kind: CmdSetMode, Slot: int32(m)})
}

// ClearCanvas drops all strokes and fades the paint pool out. It runs
// entirely on the control thread; the silencing reaches the render thread
// through the parameter swap, so rendering never locks or allocates for a
// clear.
func (e *Engine) ClearCanvas() {
	e.Paint.Clear()
}

// SelectSample chooses the rompler's bank sample.
func (e *Engine) SelectSample(index int) bool {
	return e.post(command.Command{Kind: CmdSelectSample, Slot: int32(index)})
}

// SetTrackerRunning starts or stops the step pattern.
func (e *Engine) SetTrackerRunning(on bool) bool {
	return e.post(command.Command{Kind: CmdTrackerRun, Value: boolValue(on)})
}

// NoteOn queues a direct note-on for the rompler.
func (e *Engine) NoteOn(note, velocity uint8) bool {
	return e.post(command.Command{Kind: CmdNoteOn, Slot: int32(note), Value: float64(velocity)})
}

// NoteOff queues a direct note-off for the rompler.
func (e *Engine) NoteOff(note uint8) bool {
	return e.post(command.Command{Kind: CmdNoteOff, Slot: int32(note)})
}

// SetSustainPedal queues a pedal change for the rompler.
func (e *Engine) SetSustainPedal(on bool) bool {
	return e.post(command.Command{Kind: CmdSustainPedal, Value: boolValue(on)})
}

// SetSauceBypass toggles the enhancement chain.
func (e *Engine) SetSauceBypass(bypass bool) bool {
	return e.post(command.Command{Kind: CmdSauceBypass, Value: boolValue(bypass)})
}

// EnablePaint overrides the mode's paint flag.
func (e *Engine) EnablePaint(on bool) { e.paintEnabled.Store(on) }

// EnableRompler overrides the mode's rompler flag.
func (e *Engine) EnableRompler(on bool) { e.romplerEnabled.Store(on) }

// EnableTracker overrides the mode's tracker flag.
func (e *Engine) EnableTracker(on bool) { e.trackerEnabled.Store(on) }

// Metrics is the performance snapshot reported to hosts and tools.
type Metrics struct {
	CPULoad           float64
	ActiveOscillators int
	ActiveVoices      int
	ActiveStrokes     int
	Mode              Mode
}

// Metrics aggregates the engines' performance counters.
func (e *Engine) Metrics() Metrics {
	return Metrics{
		CPULoad:           e.profiler.CPULoad(),
		ActiveOscillators: e.Paint.ActiveOscillatorCount(),
		ActiveVoices:      e.Rompler.ActiveVoiceCount(),
		ActiveStrokes:     e.Paint.StrokeCount(),
		Mode:              e.Mode(),
	}
}

// Profiler exposes the whole-chain render profiler.
func (e *Engine) Profiler() *debug.RenderProfiler { return e.profiler }

// Process renders one stereo block: drain commands, paint pool, tracker
// events into the rompler, then the enhancement chain. Render thread only.
func (e *Engine) Process(left, right []float32) {
	start := e.profiler.BlockStart()
	n := len(left)
	if len(right) < n {
		n = len(right)
	}

	e.queue.Drain(command.DefaultDrainBudget, e.dispatch)

	if e.paintEnabled.Load() {
		e.Paint.Process(left, right)
	} else {
		for i := 0; i < n; i++ {
			left[i] = 0
			right[i] = 0
		}
	}

	e.seq.Clear()
	if e.trackerEnabled.Load() {
		e.Tracker.Advance(n, e.seq)
	}
	if e.romplerEnabled.Load() {
		e.Rompler.Process(left[:n], right[:n], e.seq.Events())
	}

	e.Sauce.ProcessStereo(left[:n], right[:n])
	e.profiler.BlockEnd(start)
}

// dispatch executes one command on the render thread.
func (e *Engine) dispatch(cmd command.Command) {
	switch cmd.Kind {
	case CmdSetMode:
		e.applyMode(Mode(cmd.Slot))
	case CmdSelectSample:
		e.Rompler.SelectSample(int(cmd.Slot))
	case CmdTrackerRun:
		e.Tracker.SetRunning(cmd.Value != 0)
		if cmd.Value == 0 {
			e.Rompler.AllNotesOff()
		}
	case CmdNoteOn:
		e.Rompler.NoteOn(uint8(cmd.Slot), uint8(cmd.Value))
	case CmdNoteOff:
		e.Rompler.NoteOff(uint8(cmd.Slot))
	case CmdSustainPedal:
		e.Rompler.SetSustainPedal(cmd.Value != 0)
	case CmdSauceBypass:
		e.Sauce.SetBypass(cmd.Value != 0)
	}
}

// applyMode sets the engine enable flags for a mode. Engines that drop out
// of the mix release their notes so nothing hangs.
func (e *Engine) applyMode(m Mode) {
	e.mode.Store(int32(m))
	var paintOn, romplerOn, trackerOn bool
	switch m {
	case ModeTracker:
		romplerOn, trackerOn = true, true
	case ModeSample:
		romplerOn = true
	case ModeHybrid:
		paintOn, romplerOn, trackerOn = true, true, true
	default:
		paintOn = true
	}
	e.paintEnabled.Store(paintOn)
	e.romplerEnabled.Store(romplerOn)
	e.trackerEnabled.Store(trackerOn)
	if !romplerOn {
		e.Rompler.AllNotesOff()
	}
	if !trackerOn {
		e.Tracker.SetRunning(false)
	}
}

func boolValue(on bool) float64 {
	if on {
		return 1
	}
	return 0
}
