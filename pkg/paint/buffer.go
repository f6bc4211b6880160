package paint

import (
	"math"
	"sync/atomic"
)

// SlotParams is the per-slot parameter snapshot handed from the control
// thread to the render thread. Frequency is in Hz, amplitude and pan are
// normalized. Gate keeps the slot's envelope open; a Generation bump tells
// the render thread the slot was (re)activated for a new voice.
type SlotParams struct {
	Frequency  float32
	Amplitude  float32
	Pan        float32
	Gate       bool
	Generation uint16
}

// packedSlot stores one SlotParams in two atomic words so a concurrent read
// never observes a torn float. wordA holds frequency|amplitude, wordB holds
// pan|generation|gate.
type packedSlot struct {
	a atomic.Uint64
	b atomic.Uint64
}

func (s *packedSlot) store(p SlotParams) {
	s.a.Store(uint64(math.Float32bits(p.Frequency))<<32 | uint64(math.Float32bits(p.Amplitude)))
	var gate uint64
	if p.Gate {
		gate = 1
	}
	s.b.Store(uint64(math.Float32bits(p.Pan))<<32 | uint64(p.Generation)<<1 | gate)
}

func (s *packedSlot) load() SlotParams {
	a := s.a.Load()
	b := s.b.Load()
	return SlotParams{
		Frequency:  math.Float32frombits(uint32(a >> 32)),
		Amplitude:  math.Float32frombits(uint32(a)),
		Pan:        math.Float32frombits(uint32(b >> 32)),
		Generation: uint16(b >> 1),
		Gate:       b&1 == 1,
	}
}

// doubleBuffer is the lock-free bridge between the gesture thread and the
// render thread: two slot-parameter pools, an atomic front index, and a
// swap-pending flag. TryPublish and ConsumeSwap are the only two operations;
// the atomic choreography lives here and nowhere else.
//
// The render thread only ever reads the pool currently marked front, and the
// roles exchange only at a block boundary, never mid-block.
type doubleBuffer struct {
	pools [2][]packedSlot
	front atomic.Int32
	// pending is set by the control thread after a batch of back-buffer
	// writes and cleared by the render thread when it adopts the buffer.
	pending atomic.Bool
}

func newDoubleBuffer(slots int) *doubleBuffer {
	b := &doubleBuffer{}
	b.pools[0] = make([]packedSlot, slots)
	b.pools[1] = make([]packedSlot, slots)
	return b
}

func (b *doubleBuffer) len() int { return len(b.pools[0]) }

// setBack publishes one slot's parameters into the back pool. Control thread
// only.
func (b *doubleBuffer) setBack(i int, p SlotParams) {
	b.pools[1-b.front.Load()][i].store(p)
}

// back reads a slot from the back pool. Control thread only.
func (b *doubleBuffer) back(i int) SlotParams {
	return b.pools[1-b.front.Load()][i].load()
}

// frontSlot reads a slot from the front pool. Render thread only.
func (b *doubleBuffer) frontSlot(i int) SlotParams {
	return b.pools[b.front.Load()][i].load()
}

// tryPublish requests that the render thread adopt the back buffer at its
// next block boundary. When a swap is already queued the call is a silent
// no-op: this batch's writes ride along with the pending swap.
func (b *doubleBuffer) tryPublish() bool {
	return b.pending.CompareAndSwap(false, true)
}

// consumeSwap exchanges the buffer roles if a publish is pending. Called by
// the render thread at the start of a block, before any mixing. Returns true
// when a swap occurred.
func (b *doubleBuffer) consumeSwap() bool {
	if !b.pending.Load() {
		return false
	}
	b.front.Store(1 - b.front.Load())
	b.pending.Store(false)
	return true
}

// reset zeroes both pools. Only safe while the render thread is stopped
// (prepare-time).
func (b *doubleBuffer) reset() {
	for p := range b.pools {
		for i := range b.pools[p] {
			b.pools[p][i].store(SlotParams{})
		}
	}
	b.pending.Store(false)
}
