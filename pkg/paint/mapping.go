package paint

import (
	"math"
	"sync/atomic"
)

// Frequency clamp bounds for audible output, in Hz.
const (
	MinAudibleFrequency = 20.0
	MaxAudibleFrequency = 20000.0
)

// CanvasRegionBounds describes the rectangle of canvas coordinates the
// mapper projects onto the frequency and time axes.
type CanvasRegionBounds struct {
	Left, Right float64
	Bottom, Top float64
}

// Width returns the horizontal extent of the region.
func (r CanvasRegionBounds) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent of the region.
func (r CanvasRegionBounds) Height() float64 { return r.Top - r.Bottom }

type mappingConfig struct {
	region  CanvasRegionBounds
	minFreq float64
	maxFreq float64
	useLog  bool
	timeLen float64
}

// mapper converts canvas positions to synthesis parameters. The
// configuration is replaced wholesale through an atomic pointer so gesture
// handling never reads a half-updated region.
type mapper struct {
	cfg atomic.Pointer[mappingConfig]
}

func newMapper() *mapper {
	m := &mapper{}
	m.cfg.Store(&mappingConfig{
		region:  CanvasRegionBounds{Left: -100, Right: 100, Bottom: -50, Top: 50},
		minFreq: MinAudibleFrequency,
		maxFreq: MaxAudibleFrequency,
		useLog:  true,
		timeLen: 4.0,
	})
	return m
}

func (m *mapper) setRegion(r CanvasRegionBounds) {
	c := *m.cfg.Load()
	if r.Width() <= 0 || r.Height() <= 0 {
		return
	}
	c.region = r
	m.cfg.Store(&c)
}

// setFrequencyRange clamps the requested bounds so the mapped range can
// never leave the audible window: min lands in [1, 20000], max in
// [min+1, 22000].
func (m *mapper) setFrequencyRange(min, max float64, logScale bool) {
	c := *m.cfg.Load()
	min = clampf(min, 1, MaxAudibleFrequency)
	max = clampf(max, min+1, 22000)
	c.minFreq = min
	c.maxFreq = max
	c.useLog = logScale
	m.cfg.Store(&c)
}

func (m *mapper) setTimeLength(seconds float64) {
	if seconds <= 0 {
		return
	}
	c := *m.cfg.Load()
	c.timeLen = seconds
	m.cfg.Store(&c)
}

func (m *mapper) bounds() CanvasRegionBounds { return m.cfg.Load().region }

// yToFrequency maps a canvas Y coordinate to Hz. Bottom edge maps to the
// minimum frequency, top edge to the maximum. Out-of-range input clamps to
// the edges, so the result is always a finite value inside the range.
func (m *mapper) yToFrequency(y float64) float64 {
	c := m.cfg.Load()
	t := (y - c.region.Bottom) / c.region.Height()
	t = clamp01(t)
	if c.useLog {
		return c.minFreq * math.Pow(c.maxFreq/c.minFreq, t)
	}
	return c.minFreq + t*(c.maxFreq-c.minFreq)
}

// frequencyToY is the inverse of yToFrequency, used to approximate a slot's
// canvas position from its published frequency.
func (m *mapper) frequencyToY(freq float64) float64 {
	c := m.cfg.Load()
	if freq < c.minFreq {
		freq = c.minFreq
	}
	if freq > c.maxFreq {
		freq = c.maxFreq
	}
	var t float64
	if c.useLog {
		t = math.Log(freq/c.minFreq) / math.Log(c.maxFreq/c.minFreq)
	} else {
		t = (freq - c.minFreq) / (c.maxFreq - c.minFreq)
	}
	return c.region.Bottom + t*c.region.Height()
}

// xToTime maps a canvas X coordinate to seconds along the region's timeline.
func (m *mapper) xToTime(x float64) float64 {
	c := m.cfg.Load()
	t := clamp01((x - c.region.Left) / c.region.Width())
	return t * c.timeLen
}

// timeToX is the inverse of xToTime.
func (m *mapper) timeToX(sec float64) float64 {
	c := m.cfg.Load()
	if c.timeLen <= 0 {
		return c.region.Left
	}
	t := clamp01(sec / c.timeLen)
	return c.region.Left + t*c.region.Width()
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

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
