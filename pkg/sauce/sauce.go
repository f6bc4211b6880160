// Package sauce is the output enhancement chain: a soft saturation stage, a
// presence tilt, and stereo widening applied to the mixed bus. Stages are
// composed through a stereo chain that can be bypassed atomically.
//
// Stage parameters are plain fields; mutate them from the render thread
// (command dispatch) or while rendering is stopped.
package sauce

import (
	"math"
	"sync/atomic"

	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/dsp/filter"
)

// Stage processes a stereo buffer pair in place.
type Stage interface {
	ProcessStereo(left, right []float32)
	Reset()
}

// Chain runs stages in order. Bypass skips all of them and leaves the
// buffers untouched, bit-exact.
type Chain struct {
	stages []Stage
	bypass atomic.Bool
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add appends a stage and returns the chain for fluent building.
func (c *Chain) Add(s Stage) *Chain {
	c.stages = append(c.stages, s)
	return c
}

// Count returns the number of stages.
func (c *Chain) Count() int { return len(c.stages) }

// SetBypass toggles the whole chain. Safe from any thread.
func (c *Chain) SetBypass(bypass bool) { c.bypass.Store(bypass) }

// IsBypassed reports the bypass state.
func (c *Chain) IsBypassed() bool { return c.bypass.Load() }

// ProcessStereo runs the buffers through every stage unless bypassed.
func (c *Chain) ProcessStereo(left, right []float32) {
	if c.bypass.Load() {
		return
	}
	for _, s := range c.stages {
		s.ProcessStereo(left, right)
	}
}

// Reset clears all stage state.
func (c *Chain) Reset() {
	for _, s := range c.stages {
		s.Reset()
	}
}

// Saturator is a soft waveshaper. Drive above 1 pushes the signal into the
// curve; the shaper is odd-symmetric and bounded, so output never exceeds
// roughly unity regardless of input.
type Saturator struct {
	Drive float64
}

// NewSaturator creates a saturator with the given drive (1 = gentle).
func NewSaturator(drive float64) *Saturator {
	if drive <= 0 {
		drive = 1
	}
	return &Saturator{Drive: drive}
}

func (s *Saturator) ProcessStereo(left, right []float32) {
	drive := float32(s.Drive)
	for i := range left {
		left[i] = shape(left[i] * drive)
	}
	for i := range right {
		right[i] = shape(right[i] * drive)
	}
}

// shape is a cubic soft clipper: near-linear for small input, flattening
// toward ±1 for large input.
func shape(x float32) float32 {
	if x > 3 {
		return 1
	}
	if x < -3 {
		return -1
	}
	return x * (27 + x*x) / (27 + 9*x*x)
}

func (s *Saturator) Reset() {}

// Presence is a high-shelf tilt that opens up the top end of the mix.
type Presence struct {
	left  *filter.Shelf
	right *filter.Shelf
}

// NewPresence creates a presence stage boosting above cornerHz by gainDB.
func NewPresence(sampleRate, cornerHz, gainDB float64) *Presence {
	p := &Presence{left: filter.NewShelf(), right: filter.NewShelf()}
	p.left.SetHighShelf(sampleRate, cornerHz, gainDB)
	p.right.SetHighShelf(sampleRate, cornerHz, gainDB)
	return p
}

func (p *Presence) ProcessStereo(left, right []float32) {
	p.left.ProcessBuffer(left)
	p.right.ProcessBuffer(right)
}

func (p *Presence) Reset() {
	p.left.Reset()
	p.right.Reset()
}

// Width rescales the side signal of a mid/side decomposition. 1 is
// unchanged, 0 collapses to mono, values up to 2 widen.
type Width struct {
	Amount float64
}

// NewWidth creates a width stage, clamping the amount to [0, 2].
func NewWidth(amount float64) *Width {
	if amount < 0 {
		amount = 0
	}
	if amount > 2 {
		amount = 2
	}
	return &Width{Amount: amount}
}

func (w *Width) ProcessStereo(left, right []float32) {
	amount := float32(w.Amount)
	for i := range left {
		mid := (left[i] + right[i]) * 0.5
		side := (left[i] - right[i]) * 0.5 * amount
		left[i] = mid + side
		right[i] = mid - side
	}
}

func (w *Width) Reset() {}

// DCBlock is a first-order highpass around 10Hz that strips any offset the
// saturation stage introduces: y[n] = x[n] - x[n-1] + R*y[n-1].
type DCBlock struct {
	coef           float32
	x1, y1, x2, y2 float32
}

// NewDCBlock creates a DC blocker for the given sample rate.
func NewDCBlock(sampleRate float64) *DCBlock {
	r := 1.0 - 2.0*math.Pi*10.0/sampleRate
	if r < 0.9 {
		r = 0.9
	}
	if r > 0.999 {
		r = 0.999
	}
	return &DCBlock{coef: float32(r)}
}

func (d *DCBlock) ProcessStereo(left, right []float32) {
	for i := range left {
		y := left[i] - d.x1 + d.coef*d.y1
		d.x1, d.y1 = left[i], y
		left[i] = y
	}
	for i := range right {
		y := right[i] - d.x2 + d.coef*d.y2
		d.x2, d.y2 = right[i], y
		right[i] = y
	}
}

func (d *DCBlock) Reset() {
	d.x1, d.y1, d.x2, d.y2 = 0, 0, 0, 0
}

// NewEnhancer wires the default chain: gentle saturation, a DC blocker to
// clean up after it, +3dB presence above 3kHz, and a slightly widened image.
func NewEnhancer(sampleRate float64) *Chain {
	return NewChain().
		Add(NewSaturator(1.2)).
		Add(NewDCBlock(sampleRate)).
		Add(NewPresence(sampleRate, 3000, 3)).
		Add(NewWidth(1.2))
}
