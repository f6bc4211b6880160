package paint

import (
	"sync/atomic"

	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/dsp/envelope"
)

// indexRing is a single-producer single-consumer ring the render thread uses
// to hand reclaimed slots back to the gesture thread. Entries carry the slot
// index and the generation that finished, so a reclaim that raced with a
// steal can be recognized as stale and dropped. Capacity is two entries per
// pool slot: at most one stale and one current generation can be in flight
// for the same index.
type indexRing struct {
	buf   []uint64
	mask  uint64
	read  atomic.Uint64
	write atomic.Uint64
}

func newIndexRing(capacity int) *indexRing {
	size := 1
	for size < 2*capacity+1 {
		size <<= 1
	}
	return &indexRing{buf: make([]uint64, size), mask: uint64(size - 1)}
}

// packReclaim combines a slot index with the generation being handed back.
func packReclaim(idx int, gen uint16) uint64 {
	return uint64(gen)<<32 | uint64(uint32(idx))
}

func unpackReclaim(v uint64) (idx int, gen uint16) {
	return int(uint32(v)), uint16(v >> 32)
}

// push enqueues an entry. Render thread only.
func (r *indexRing) push(v uint64) bool {
	w := r.write.Load()
	if w-r.read.Load() >= uint64(len(r.buf)) {
		return false
	}
	r.buf[w&r.mask] = v
	r.write.Store(w + 1)
	return true
}

// pop dequeues an entry. Gesture thread only.
func (r *indexRing) pop() (uint64, bool) {
	rd := r.read.Load()
	if rd == r.write.Load() {
		return 0, false
	}
	v := r.buf[rd&r.mask]
	r.read.Store(rd + 1)
	return v, true
}

// slotState is the gesture thread's bookkeeping for one pool entry. The
// render thread never touches it; the only cross-thread scalars are the
// mirrored envelope phases held by the pool.
type slotState struct {
	inUse      bool
	gateOpen   bool
	lastUsed   uint64
	generation uint16
	gridCell   int32
	targetFreq float64
	targetAmp  float64
	targetPan  float64
}

// slotPool manages allocation, stealing, and reclamation of oscillator
// slots. The free list is a LIFO stack so recently released slots are reused
// first and their warm render state stays cache-resident.
type slotPool struct {
	states  []slotState
	free    []int
	reclaim *indexRing
	// phases mirrors each slot's envelope phase. The render thread stores
	// on every transition; the gesture thread reads it to pick steal
	// victims.
	phases []atomic.Int32
	clock  uint64
	// onReclaim runs on the gesture thread for each slot drained from the
	// reclaim ring, before the slot rejoins the free list.
	onReclaim func(idx int)
}

func newSlotPool(size int) *slotPool {
	p := &slotPool{
		states:  make([]slotState, size),
		free:    make([]int, 0, size),
		reclaim: newIndexRing(size),
		phases:  make([]atomic.Int32, size),
	}
	p.resetLocked()
	return p
}

func (p *slotPool) size() int { return len(p.states) }

// resetLocked refills the free list and clears all slot state. Only safe
// while the render thread is stopped.
func (p *slotPool) resetLocked() {
	p.free = p.free[:0]
	// Push in reverse so slot 0 is on top of the LIFO stack.
	for i := len(p.states) - 1; i >= 0; i-- {
		p.free = append(p.free, i)
		p.states[i] = slotState{gridCell: -1}
		p.phases[i].Store(int32(envelope.PhaseInactive))
	}
	for {
		if _, ok := p.reclaim.pop(); !ok {
			break
		}
	}
	p.clock = 0
}

// drainReclaimed moves slots the render thread has finished with back onto
// the free stack. Called at the start of every gesture-thread interaction.
// A generation mismatch means the slot was stolen and reactivated after the
// render thread queued it; the entry is stale and the live voice keeps its
// slot.
func (p *slotPool) drainReclaimed() {
	for {
		v, ok := p.reclaim.pop()
		if !ok {
			return
		}
		idx, gen := unpackReclaim(v)
		st := &p.states[idx]
		if !st.inUse || st.generation != gen {
			continue
		}
		if p.onReclaim != nil {
			p.onReclaim(idx)
		}
		st.inUse = false
		st.gateOpen = false
		p.free = append(p.free, idx)
	}
}

func (p *slotPool) freeCount() int {
	p.drainReclaimed()
	return len(p.free)
}

func (p *slotPool) inUseCount() int {
	n := 0
	for i := range p.states {
		if p.states[i].inUse {
			n++
		}
	}
	return n
}

func (p *slotPool) touch(idx int) {
	p.clock++
	p.states[idx].lastUsed = p.clock
}

// allocate returns a slot index for a new voice, stealing if the pool is
// exhausted. Returns the index, the grid cell the evicted occupant was
// registered in (-1 when the slot was free), and ok=false only for an empty
// pool.
func (p *slotPool) allocate() (idx int, evictedCell int32, ok bool) {
	p.drainReclaimed()
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
		p.activate(idx)
		return idx, -1, true
	}
	idx = p.findBestForReplacement()
	if idx < 0 {
		return -1, -1, false
	}
	evictedCell = p.states[idx].gridCell
	p.activate(idx)
	return idx, evictedCell, true
}

func (p *slotPool) activate(idx int) {
	st := &p.states[idx]
	st.inUse = true
	st.gateOpen = true
	st.generation++
	if st.generation == 0 {
		st.generation = 1
	}
	st.gridCell = -1
	p.touch(idx)
}

// findBestForReplacement picks a steal victim: the first slot already
// releasing or silent, otherwise the least recently used voice.
func (p *slotPool) findBestForReplacement() int {
	if len(p.states) == 0 {
		return -1
	}
	best := -1
	var bestUsed uint64
	for i := range p.states {
		ph := envelope.Phase(p.phases[i].Load())
		// A freshly allocated slot still mirrors Inactive until the render
		// thread triggers it, so Inactive only counts when nothing owns it.
		if ph == envelope.PhaseRelease || (ph == envelope.PhaseInactive && !p.states[i].inUse) {
			return i
		}
		if best < 0 || p.states[i].lastUsed < bestUsed {
			best = i
			bestUsed = p.states[i].lastUsed
		}
	}
	return best
}

// shouldAllocate decides between spawning a new voice and steering existing
// neighbors. Light pressure only allocates while slots are free; firm
// pressure (above 0.5) allocates even when it forces a steal.
func (p *slotPool) shouldAllocate(pressure float64) bool {
	p.drainReclaimed()
	if pressure > 0.1 && len(p.free) > 0 {
		return true
	}
	return pressure > 0.5
}

// phase reports the render thread's last published envelope phase for a slot.
func (p *slotPool) phase(idx int) envelope.Phase {
	return envelope.Phase(p.phases[idx].Load())
}
