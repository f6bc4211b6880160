package debug

import (
	"fmt"
	"sync/atomic"
	"time"
)

// RenderProfiler tracks how much of each audio block's deadline the render
// loop consumes. The render thread calls BlockStart/BlockEnd; every stored
// statistic is atomic so UI threads can poll without locks.
type RenderProfiler struct {
	sampleRate float64
	blockSize  int

	blockCount  atomic.Uint64
	lastNanos   atomic.Int64
	totalNanos  atomic.Int64
	maxNanos    atomic.Int64
	cpuLoadBits atomic.Uint64 // fixed point, load * 1e4
}

// NewRenderProfiler creates a profiler for the given block geometry.
func NewRenderProfiler(sampleRate float64, blockSize int) *RenderProfiler {
	return &RenderProfiler{sampleRate: sampleRate, blockSize: blockSize}
}

// Reconfigure updates the block geometry (sample-rate change) and clears the
// accumulated statistics.
func (p *RenderProfiler) Reconfigure(sampleRate float64, blockSize int) {
	p.sampleRate = sampleRate
	p.blockSize = blockSize
	p.blockCount.Store(0)
	p.lastNanos.Store(0)
	p.totalNanos.Store(0)
	p.maxNanos.Store(0)
	p.cpuLoadBits.Store(0)
}

// BlockStart marks the beginning of a render block and returns the start
// time to be handed to BlockEnd.
func (p *RenderProfiler) BlockStart() time.Time {
	return time.Now()
}

// BlockEnd records the elapsed render time for one block and updates the
// CPU-load estimate (render time over block duration).
func (p *RenderProfiler) BlockEnd(start time.Time) {
	elapsed := time.Since(start).Nanoseconds()
	p.lastNanos.Store(elapsed)
	p.totalNanos.Add(elapsed)
	p.blockCount.Add(1)
	for {
		max := p.maxNanos.Load()
		if elapsed <= max || p.maxNanos.CompareAndSwap(max, elapsed) {
			break
		}
	}

	if p.sampleRate > 0 && p.blockSize > 0 {
		blockNanos := float64(p.blockSize) / p.sampleRate * float64(time.Second)
		load := float64(elapsed) / blockNanos
		p.cpuLoadBits.Store(uint64(load * 1e4))
	}
}

// CPULoad returns the most recent render-time over block-duration ratio.
// 1.0 means the deadline was fully consumed.
func (p *RenderProfiler) CPULoad() float64 {
	return float64(p.cpuLoadBits.Load()) / 1e4
}

// AverageBlockTime returns the mean render time per block.
func (p *RenderProfiler) AverageBlockTime() time.Duration {
	count := p.blockCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(p.totalNanos.Load() / int64(count))
}

// MaxBlockTime returns the worst observed render time.
func (p *RenderProfiler) MaxBlockTime() time.Duration {
	return time.Duration(p.maxNanos.Load())
}

// BlockCount returns the number of blocks rendered since configuration.
func (p *RenderProfiler) BlockCount() uint64 { return p.blockCount.Load() }

// Report summarizes the profiler state for diagnostics.
func (p *RenderProfiler) Report() string {
	return fmt.Sprintf("blocks=%d avg=%v max=%v load=%.2f%%",
		p.BlockCount(), p.AverageBlockTime(), p.MaxBlockTime(), p.CPULoad()*100)
}
