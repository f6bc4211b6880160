package paint

import (
	"math/rand"
	"testing"

	"github.com/1hoookkk/Sound-Canvas-Pro/pkg/dsp/envelope"
)

func TestPoolAllocatesLIFO(t *testing.T) {
	p := newSlotPool(4)
	idx, _, ok := p.allocate()
	if !ok || idx != 0 {
		t.Fatalf("first allocation: got %d, want 0", idx)
	}

	// Simulate the render thread finishing with the slot.
	p.phases[idx].Store(int32(envelope.PhaseInactive))
	p.reclaim.push(packReclaim(idx, p.states[idx].generation))

	idx2, _, ok := p.allocate()
	if !ok || idx2 != idx {
		t.Errorf("freed slot should be reused first: got %d, want %d", idx2, idx)
	}
}

func TestPoolStealsReleasingSlotFirst(t *testing.T) {
	p := newSlotPool(3)
	for i := 0; i < 3; i++ {
		if _, _, ok := p.allocate(); !ok {
			t.Fatal("allocation failed")
		}
		p.phases[i].Store(int32(envelope.PhaseSustain))
	}
	p.phases[1].Store(int32(envelope.PhaseRelease))

	idx, _, ok := p.allocate()
	if !ok || idx != 1 {
		t.Errorf("steal should pick the releasing slot: got %d, want 1", idx)
	}
}

func TestPoolStealsLeastRecentlyUsed(t *testing.T) {
	p := newSlotPool(3)
	for i := 0; i < 3; i++ {
		if _, _, ok := p.allocate(); !ok {
			t.Fatal("allocation failed")
		}
		p.phases[i].Store(int32(envelope.PhaseSustain))
	}
	// Refresh slots 0 and 2; slot 1 becomes the oldest.
	p.touch(0)
	p.touch(2)

	idx, _, ok := p.allocate()
	if !ok || idx != 1 {
		t.Errorf("steal should pick the oldest voice: got %d, want 1", idx)
	}
}

func TestShouldAllocateThresholds(t *testing.T) {
	p := newSlotPool(2)

	if p.shouldAllocate(0.05) {
		t.Error("featherweight pressure should never allocate")
	}
	if p.shouldAllocate(0.1) {
		t.Error("pressure exactly at the light threshold should not allocate")
	}
	if !p.shouldAllocate(0.2) {
		t.Error("light pressure with free slots should allocate")
	}

	p.allocate()
	p.allocate()
	p.phases[0].Store(int32(envelope.PhaseSustain))
	p.phases[1].Store(int32(envelope.PhaseSustain))

	if p.shouldAllocate(0.3) {
		t.Error("light pressure with a full pool should steer, not steal")
	}
	if !p.shouldAllocate(0.6) {
		t.Error("firm pressure should allocate even when it forces a steal")
	}
	if p.shouldAllocate(0.5) {
		t.Error("pressure exactly at the firm threshold should not force a steal")
	}
}

// A steal can race the render thread queuing the same slot: the old voice
// finishes its release after the gesture thread has already reactivated the
// slot. The stale ring entry carries the old generation and must be dropped,
// or the live voice's slot would land back on the free list.
func TestStaleReclaimKeepsStolenSlot(t *testing.T) {
	p := newSlotPool(1)

	idx, _, ok := p.allocate()
	if !ok {
		t.Fatal("allocation failed")
	}
	oldGen := p.states[idx].generation
	p.phases[idx].Store(int32(envelope.PhaseRelease))

	// Pool is exhausted, so the next allocation steals the releasing slot.
	idx2, _, ok := p.allocate()
	if !ok || idx2 != idx {
		t.Fatalf("steal: got %d, want %d", idx2, idx)
	}
	p.phases[idx].Store(int32(envelope.PhaseAttack))

	// Render thread finishes the OLD voice and hands the slot back.
	p.reclaim.push(packReclaim(idx, oldGen))
	p.drainReclaimed()
	if !p.states[idx].inUse {
		t.Fatal("stale reclaim freed a live slot")
	}
	if len(p.free) != 0 {
		t.Fatalf("free list has %d entries, want 0", len(p.free))
	}

	// The current generation still reclaims normally.
	p.phases[idx].Store(int32(envelope.PhaseInactive))
	p.reclaim.push(packReclaim(idx, p.states[idx].generation))
	p.drainReclaimed()
	if p.states[idx].inUse {
		t.Fatal("current-generation reclaim was dropped")
	}
	if len(p.free) != 1 {
		t.Fatalf("free list has %d entries, want 1", len(p.free))
	}
}

// Every slot index is either on the free list or marked in use, never both
// and never neither, across a random mix of allocations and reclaims.
func TestPoolPartitionInvariant(t *testing.T) {
	const size = 16
	p := newSlotPool(size)
	rng := rand.New(rand.NewSource(42))

	check := func(step int) {
		p.drainReclaimed()
		seen := make(map[int]bool, size)
		for _, idx := range p.free {
			if seen[idx] {
				t.Fatalf("step %d: slot %d on free list twice", step, idx)
			}
			seen[idx] = true
			if p.states[idx].inUse {
				t.Fatalf("step %d: slot %d free and in use", step, idx)
			}
		}
		inUse := 0
		for i := range p.states {
			if p.states[i].inUse {
				inUse++
			}
		}
		if len(p.free)+inUse != size {
			t.Fatalf("step %d: free=%d inUse=%d, want sum %d", step, len(p.free), inUse, size)
		}
	}

	var live []int
	for step := 0; step < 2000; step++ {
		if rng.Intn(2) == 0 {
			idx, _, ok := p.allocate()
			if !ok {
				t.Fatalf("step %d: allocation failed", step)
			}
			p.phases[idx].Store(int32(envelope.PhaseSustain))
			found := false
			for _, l := range live {
				if l == idx {
					found = true
					break
				}
			}
			if !found {
				live = append(live, idx)
			}
		} else if len(live) > 0 {
			pick := rng.Intn(len(live))
			idx := live[pick]
			live = append(live[:pick], live[pick+1:]...)
			p.phases[idx].Store(int32(envelope.PhaseInactive))
			p.reclaim.push(packReclaim(idx, p.states[idx].generation))
		}
		check(step)
	}
}
