package midi

// Sequence accumulates events for one audio block and hands them out in
// offset order. The producer (tracker or host adapter) fills it before the
// engines render; it is not safe for concurrent use.
type Sequence struct {
	events []Event
	sorted bool
}

// NewSequence creates an empty sequence with room for a block's worth of
// events.
func NewSequence() *Sequence {
	return &Sequence{events: make([]Event, 0, 64), sorted: true}
}

// Add appends an event.
func (s *Sequence) Add(e Event) {
	s.events = append(s.events, e)
	s.sorted = len(s.events) == 1
}

// Len returns the number of queued events.
func (s *Sequence) Len() int { return len(s.events) }

// Events returns all queued events sorted by offset. Equal offsets keep
// insertion order, so a note-off queued before a note-on at the same sample
// is processed first. Events are nearly sorted already, so an in-place
// insertion sort keeps this allocation-free on the render path.
func (s *Sequence) Events() []Event {
	if !s.sorted {
		ev := s.events
		for i := 1; i < len(ev); i++ {
			e := ev[i]
			j := i - 1
			for j >= 0 && ev[j].Offset > e.Offset {
				ev[j+1] = ev[j]
				j--
			}
			ev[j+1] = e
		}
		s.sorted = true
	}
	return s.events
}

// Clear empties the sequence for the next block, keeping capacity.
func (s *Sequence) Clear() {
	s.events = s.events[:0]
	s.sorted = true
}
