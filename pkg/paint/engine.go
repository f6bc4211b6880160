// Package paint implements the gesture-driven oscillator core: a fixed pool
// of oscillator slots allocated, steered, and released by paint gestures on
// a time/frequency canvas, rendered sample-accurately on the audio thread.
//
// Threading model: gesture methods run on the control thread and communicate
// with Process exclusively through the slot-parameter double buffer, the
// reclaim ring, and a handful of mirrored atomics. Neither side ever blocks
// the other.
package paint

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/dsp/envelope"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/dsp/oscillator"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/dsp/pan"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/framework/debug"
	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/framework/param"
)

// DefaultPoolSize is the number of oscillator slots when the config leaves
// it zero. Large enough for dense gestures, small enough that the per-sample
// scan stays cheap.
const DefaultPoolSize = 1024

// minInfluence is the cutoff below which a gesture point does not touch a
// neighboring oscillator at all.
const minInfluence = 0.01

// Config sets the compile-once characteristics of an Engine. Zero values
// select the defaults listed per field.
type Config struct {
	// PoolSize is the oscillator slot count (default DefaultPoolSize).
	PoolSize int
	// Attack and Release are envelope times in seconds (defaults 5ms, 60ms).
	Attack  float64
	Release float64
	// InfluenceRadius is the gesture falloff distance in canvas units
	// (default 10).
	InfluenceRadius float64
	// GridCols and GridRows size the spatial grid (defaults 32x16).
	GridCols int
	GridRows int
	// PanLaw selects the stereo law (default linear).
	PanLaw pan.Law
	// Wave is the initial slot waveform (default sine). Gesture color
	// saturation reselects it while painting.
	Wave oscillator.Wave
}

func (c *Config) applyDefaults() {
	if c.PoolSize <= 0 {
		c.PoolSize = DefaultPoolSize
	}
	if c.Attack <= 0 {
		c.Attack = 0.005
	}
	if c.Release <= 0 {
		c.Release = 0.060
	}
	if c.InfluenceRadius <= 0 {
		c.InfluenceRadius = 10
	}
	if c.GridCols <= 0 {
		c.GridCols = 32
	}
	if c.GridRows <= 0 {
		c.GridRows = 16
	}
}

type gestureRef struct {
	idx int
	gen uint16
}

// Engine is the paint synthesis core. Construct with NewEngine, call Prepare
// before rendering, then drive gestures from the control thread while the
// audio callback calls Process.
type Engine struct {
	cfg Config

	// Control-thread state, guarded by mu. Process never takes mu.
	mu           sync.Mutex
	pool         *slotPool
	grid         *spatialGrid
	store        *strokeStore
	current      *Stroke
	gestureSlots []gestureRef
	nearbyBuf    []int

	mapping *mapper
	buf     *doubleBuffer

	active      atomic.Bool
	masterGain  *param.Parameter
	activeCount atomic.Int32
	profiler    *debug.RenderProfiler

	// Render-thread state. Only Process and Prepare touch these.
	oscs      []oscillator.Oscillator
	envs      []envelope.Slot
	renderGen []uint16
	lastPhase []envelope.Phase
	gainSm    *param.Smoother

	sampleRate float64
	panLaw     pan.Law

	// waveSel holds the oscillator waveform as an atomic so gesture color
	// can retarget it while the render thread reads it per block.
	waveSel atomic.Int32
}

// NewEngine builds an engine with the given configuration. Prepare must be
// called before the first Process.
func NewEngine(cfg Config) *Engine {
	cfg.applyDefaults()
	e := &Engine{
		cfg:       cfg,
		pool:      newSlotPool(cfg.PoolSize),
		store:     newStrokeStore(),
		mapping:   newMapper(),
		buf:       newDoubleBuffer(cfg.PoolSize),
		oscs:      make([]oscillator.Oscillator, cfg.PoolSize),
		envs:      make([]envelope.Slot, cfg.PoolSize),
		renderGen: make([]uint16, cfg.PoolSize),
		lastPhase: make([]envelope.Phase, cfg.PoolSize),
		panLaw:    cfg.PanLaw,
		masterGain: param.New(0, "Master Gain").
			Range(0, 2).
			Default(0.7).
			Build(),
	}
	e.grid = newSpatialGrid(cfg.GridCols, cfg.GridRows, e.mapping.bounds())
	e.pool.onReclaim = func(idx int) {
		st := &e.pool.states[idx]
		if st.gridCell >= 0 {
			e.grid.remove(idx, st.gridCell)
			st.gridCell = -1
		}
	}
	e.active.Store(true)
	e.waveSel.Store(int32(cfg.Wave))
	e.profiler = debug.NewRenderProfiler(44100, 512)
	e.gainSm = param.ForDuration(44100, 0.02)
	return e
}

// Prepare configures the engine for a sample rate and block size and resets
// all voices to silence. Call only while the render thread is stopped; safe
// to call repeatedly. Painted strokes survive, sounding voices do not.
func (e *Engine) Prepare(sampleRate float64, blockSize int) {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	if blockSize <= 0 {
		blockSize = 512
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sampleRate = sampleRate
	e.profiler.Reconfigure(sampleRate, blockSize)
	e.gainSm = param.ForDuration(sampleRate, 0.02)
	e.gainSm.Reset(e.masterGain.GetPlainValue())

	for i := range e.oscs {
		e.oscs[i].Configure(sampleRate)
		e.oscs[i].Reset()
		e.envs[i].Configure(sampleRate, e.cfg.Attack, e.cfg.Release)
		e.envs[i].Reset()
		e.renderGen[i] = 0
		e.lastPhase[i] = envelope.PhaseInactive
	}
	e.pool.resetLocked()
	e.buf.reset()
	e.grid.clear()
	e.current = nil
	e.gestureSlots = e.gestureSlots[:0]
	e.activeCount.Store(0)
}

// SetActive enables or disables rendering. While inactive, Process outputs
// silence but gesture state is preserved.
func (e *Engine) SetActive(on bool) { e.active.Store(on) }

// IsActive reports whether the engine is rendering.
func (e *Engine) IsActive() bool { return e.active.Load() }

// SetMasterGain sets the output gain, clamped to [0, 2]. The render thread
// smooths toward it over 20ms.
func (e *Engine) SetMasterGain(gain float64) {
	e.masterGain.SetPlainValue(clampf(gain, 0, 2))
}

// MasterGain returns the current master gain target.
func (e *Engine) MasterGain() float64 { return e.masterGain.GetPlainValue() }

// SetFrequencyRange changes the pitch span of the canvas Y axis. Existing
// voices keep their frequencies; only new mapping changes.
func (e *Engine) SetFrequencyRange(min, max float64, logScale bool) {
	e.mapping.setFrequencyRange(min, max, logScale)
}

// SetCanvasRegion changes the canvas rectangle the mapper projects from and
// rebuilds the spatial grid over the new bounds.
func (e *Engine) SetCanvasRegion(bounds CanvasRegionBounds) {
	if bounds.Width() <= 0 || bounds.Height() <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mapping.setRegion(bounds)
	e.grid.configure(e.cfg.GridCols, e.cfg.GridRows, bounds)
	// Cell indices are stale under the new bounds; drop them and let future
	// allocations repopulate.
	for i := range e.pool.states {
		e.pool.states[i].gridCell = -1
	}
}

// SetTimeLength sets the seconds spanned by the canvas X axis.
func (e *Engine) SetTimeLength(seconds float64) { e.mapping.setTimeLength(seconds) }

// CanvasRegion returns the rectangle currently projected by the mapper.
func (e *Engine) CanvasRegion() CanvasRegionBounds { return e.mapping.bounds() }

// FrequencyRange returns the pitch span of the Y axis and whether the
// mapping is logarithmic.
func (e *Engine) FrequencyRange() (min, max float64, logScale bool) {
	c := e.mapping.cfg.Load()
	return c.minFreq, c.maxFreq, c.useLog
}

// TimeLength returns the seconds spanned by the canvas X axis.
func (e *Engine) TimeLength() float64 { return e.mapping.cfg.Load().timeLen }

// YToFrequency maps a canvas Y coordinate to Hz under the current range.
func (e *Engine) YToFrequency(y float64) float64 { return e.mapping.yToFrequency(y) }

// FrequencyToY maps a frequency back to a canvas Y coordinate.
func (e *Engine) FrequencyToY(freq float64) float64 { return e.mapping.frequencyToY(freq) }

// XToTime maps a canvas X coordinate to seconds.
func (e *Engine) XToTime(x float64) float64 { return e.mapping.xToTime(x) }

// TimeToX maps seconds back to a canvas X coordinate.
func (e *Engine) TimeToX(sec float64) float64 { return e.mapping.timeToX(sec) }

// ActiveOscillatorCount reports how many slots had a live envelope at the
// end of the last rendered block.
func (e *Engine) ActiveOscillatorCount() int { return int(e.activeCount.Load()) }

// FreeSlotCount reports how many pool slots are available, after draining
// any indices the render thread has handed back. Control thread only.
func (e *Engine) FreeSlotCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pool.freeCount()
}

// InUseSlotCount reports how many slots the gesture side considers owned.
func (e *Engine) InUseSlotCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pool.drainReclaimed()
	return e.pool.inUseCount()
}

// PoolSize returns the fixed slot capacity.
func (e *Engine) PoolSize() int { return e.pool.size() }

// RegionCount returns the number of populated canvas regions.
func (e *Engine) RegionCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.regionCount()
}

// StrokeCount returns the number of finished strokes on the canvas.
func (e *Engine) StrokeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.strokeCount()
}

// CPULoad returns the render thread's measured load as a fraction of the
// block budget.
func (e *Engine) CPULoad() float64 { return e.profiler.CPULoad() }

// Profiler exposes the render profiler for reporting.
func (e *Engine) Profiler() *debug.RenderProfiler { return e.profiler }

// BeginGesture starts a new paint stroke and sounds its first point.
func (e *Engine) BeginGesture(pos Position, pressure float64, color Color) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		e.endGestureLocked()
	}
	e.current = e.store.begin()
	e.gestureSlots = e.gestureSlots[:0]
	e.addPointLocked(pos, pressure, color)
}

// UpdateGesture extends the current stroke. An update without a preceding
// BeginGesture starts a stroke from the point, so hosts that deliver drags
// without a press event still sound.
func (e *Engine) UpdateGesture(pos Position, pressure float64, color Color) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		e.current = e.store.begin()
		e.gestureSlots = e.gestureSlots[:0]
	}
	e.addPointLocked(pos, pressure, color)
}

// EndGesture finalizes the current stroke into the canvas store and releases
// every oscillator the gesture allocated. Release is a fade, not a cut: the
// envelopes decay on the render thread and the slots return to the free list
// once silent.
func (e *Engine) EndGesture() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.endGestureLocked()
}

func (e *Engine) endGestureLocked() {
	if e.current == nil {
		return
	}
	e.store.finish(e.current)
	e.current = nil
	for _, ref := range e.gestureSlots {
		st := &e.pool.states[ref.idx]
		if st.inUse && st.generation == ref.gen {
			st.gateOpen = false
		}
	}
	e.gestureSlots = e.gestureSlots[:0]
	e.publishAllLocked()
}

// Wave returns the waveform the render thread currently plays.
func (e *Engine) Wave() oscillator.Wave {
	return oscillator.Wave(e.waveSel.Load())
}

// Erase removes finished strokes whose bounds intersect the given rectangle
// and drops any canvas regions emptied by the removal. Returns the number of
// strokes erased. Sounding voices are unaffected; erasing only edits the
// stored canvas content.
func (e *Engine) Erase(bounds CanvasRegionBounds) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.eraseIn(bounds)
}

// Clear drops all strokes and regions and fades every sounding oscillator
// out. Idempotent; calling it twice leaves the same silent state.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = nil
	e.gestureSlots = e.gestureSlots[:0]
	e.store.clear()
	e.grid.clear()
	for i := range e.pool.states {
		st := &e.pool.states[i]
		st.gateOpen = false
		st.gridCell = -1
	}
	e.publishAllLocked()
}

func (e *Engine) addPointLocked(pos Position, pressure float64, color Color) {
	pressure = clamp01(pressure)
	pt := StrokePoint{Pos: pos, Pressure: pressure, Color: color}
	e.current.addPoint(pt)
	e.waveSel.Store(int32(oscillator.FromTimbre(clamp01(color.Saturation))))

	e.nearbyBuf = e.grid.nearbyInto(pos.X, pos.Y, e.nearbyBuf[:0])
	if len(e.nearbyBuf) == 0 || e.pool.shouldAllocate(pressure) {
		e.allocateVoiceLocked(pt)
	} else {
		for _, idx := range e.nearbyBuf {
			e.influenceVoiceLocked(idx, pt)
		}
	}
	e.publishAllLocked()
}

func (e *Engine) allocateVoiceLocked(pt StrokePoint) {
	idx, evictedCell, ok := e.pool.allocate()
	if !ok {
		return
	}
	if evictedCell >= 0 {
		e.grid.remove(idx, evictedCell)
	}
	st := &e.pool.states[idx]
	st.targetFreq = e.mapping.yToFrequency(pt.Pos.Y)
	st.targetAmp = pt.Pressure
	st.targetPan = clamp01(pt.Color.Hue)
	st.gridCell = e.grid.assign(idx, pt.Pos.X, pt.Pos.Y)
	e.gestureSlots = append(e.gestureSlots, gestureRef{idx: idx, gen: st.generation})
}

// influenceVoiceLocked bends a neighboring oscillator toward the gesture
// point. Strength falls off with a Gaussian of the distance between the
// point and the slot's approximated canvas position; the slot's X is taken
// as the canvas left edge since published parameters keep no timeline slot.
func (e *Engine) influenceVoiceLocked(idx int, pt StrokePoint) {
	st := &e.pool.states[idx]
	if !st.inUse {
		return
	}
	bounds := e.mapping.bounds()
	oscY := e.mapping.frequencyToY(st.targetFreq)
	dx := pt.Pos.X - bounds.Left
	dy := pt.Pos.Y - oscY
	dist := math.Hypot(dx, dy)
	influence := pt.Pressure * math.Exp(-(dist*dist)/(e.cfg.InfluenceRadius*e.cfg.InfluenceRadius))
	if influence < minInfluence {
		return
	}
	wantFreq := e.mapping.yToFrequency(pt.Pos.Y)
	st.targetFreq = clampf(st.targetFreq+(wantFreq-st.targetFreq)*influence, MinAudibleFrequency, MaxAudibleFrequency)
	st.targetAmp = clamp01(st.targetAmp + (pt.Pressure-st.targetAmp)*influence)
	st.targetPan = clamp01(st.targetPan + (clamp01(pt.Color.Hue)-st.targetPan)*influence)
	e.pool.touch(idx)
}

// publishAllLocked writes every slot's control-side parameters into the back
// buffer and requests a swap. Writing the full pool each batch keeps both
// buffers converged, so a swap can never resurrect stale parameters.
func (e *Engine) publishAllLocked() {
	for i := range e.pool.states {
		st := &e.pool.states[i]
		e.buf.setBack(i, SlotParams{
			Frequency:  float32(st.targetFreq),
			Amplitude:  float32(st.targetAmp),
			Pan:        float32(st.targetPan),
			Gate:       st.gateOpen,
			Generation: st.generation,
		})
	}
	e.buf.tryPublish()
}

// Process renders one block of stereo audio. Audio thread only. The buffers
// are fully overwritten; left and right must be the same length.
func (e *Engine) Process(left, right []float32) {
	start := e.profiler.BlockStart()
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	for i := 0; i < n; i++ {
		left[i] = 0
		right[i] = 0
	}
	if !e.active.Load() {
		e.profiler.BlockEnd(start)
		return
	}

	e.buf.consumeSwap()
	e.gainSm.SetTarget(e.masterGain.GetPlainValue())
	e.syncSlots()
	wave := oscillator.Wave(e.waveSel.Load())

	for i := 0; i < n; i++ {
		gain := float32(e.gainSm.Next())
		var l, r float32
		for s := range e.oscs {
			env := &e.envs[s]
			if !env.IsActive() {
				continue
			}
			ev := float32(env.Next())
			osc := &e.oscs[s]
			osc.SmoothParameters()
			pan.Accumulate(osc.Sample(wave)*ev, osc.Pan(), e.panLaw, &l, &r)
			osc.Advance()
			if ph := env.Phase(); ph != e.lastPhase[s] {
				e.lastPhase[s] = ph
				e.pool.phases[s].Store(int32(ph))
				if ph == envelope.PhaseInactive {
					osc.Reset()
					e.pool.reclaim.push(packReclaim(s, e.renderGen[s]))
				}
			}
		}
		left[i] = l * gain
		right[i] = r * gain
	}

	active := int32(0)
	for s := range e.envs {
		if e.envs[s].IsActive() {
			active++
		}
	}
	e.activeCount.Store(active)
	e.profiler.BlockEnd(start)
}

// syncSlots folds the front buffer into render state at the block boundary:
// new generations trigger envelopes, open gates refresh targets, and closed
// gates move live envelopes into release.
func (e *Engine) syncSlots() {
	for s := range e.oscs {
		p := e.buf.frontSlot(s)
		env := &e.envs[s]
		osc := &e.oscs[s]
		genChanged := p.Generation != e.renderGen[s]
		e.renderGen[s] = p.Generation

		if p.Gate {
			osc.SetFrequency(float64(p.Frequency))
			if genChanged {
				// Recycled slot: jump straight to the new voice's values so
				// the previous occupant's trailing amplitude and pan never
				// bleed into the attack.
				osc.SnapTargets(float64(p.Amplitude), float64(p.Pan))
				env.Trigger()
				e.mirrorPhase(s, env.Phase())
			} else {
				osc.SetTargets(float64(p.Amplitude), float64(p.Pan))
			}
			continue
		}

		switch env.Phase() {
		case envelope.PhaseAttack, envelope.PhaseSustain:
			env.Release()
			e.mirrorPhase(s, envelope.PhaseRelease)
		case envelope.PhaseInactive:
			// A generation that arrives already gated off was allocated and
			// released between blocks and never sounded. Hand it straight
			// back so the slot cannot leak.
			if genChanged {
				e.pool.reclaim.push(packReclaim(s, p.Generation))
			}
		}
	}
}

func (e *Engine) mirrorPhase(s int, ph envelope.Phase) {
	if ph != e.lastPhase[s] {
		e.lastPhase[s] = ph
		e.pool.phases[s].Store(int32(ph))
	}
}
