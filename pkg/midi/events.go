// Package midi carries the note events the tracker and host feed into the
// sample engines, stamped with sample offsets inside the current block.
package midi

import (
	"fmt"
	"math"
)

// EventKind identifies the event types the engines consume.
type EventKind uint8

const (
	NoteOff EventKind = iota
	NoteOn
	ControlChange
)

// ControllerSustain is the CC number of the sustain pedal.
const ControllerSustain = 64

// Event is one note or controller event. Offset is the sample position
// within the block being rendered.
type Event struct {
	Kind     EventKind
	Offset   int32
	Note     uint8
	Velocity uint8

	// Controller fields, used only for ControlChange.
	Controller uint8
	Value      uint8
}

// NewNoteOn builds a note-on at the given block offset.
func NewNoteOn(note, velocity uint8, offset int32) Event {
	return Event{Kind: NoteOn, Note: note, Velocity: velocity, Offset: offset}
}

// NewNoteOff builds a note-off at the given block offset.
func NewNoteOff(note uint8, offset int32) Event {
	return Event{Kind: NoteOff, Note: note, Offset: offset}
}

// NewControlChange builds a controller event at the given block offset.
func NewControlChange(controller, value uint8, offset int32) Event {
	return Event{Kind: ControlChange, Controller: controller, Value: value, Offset: offset}
}

func (e Event) String() string {
	switch e.Kind {
	case NoteOn:
		return fmt.Sprintf("NoteOn{note:%d vel:%d offset:%d}", e.Note, e.Velocity, e.Offset)
	case NoteOff:
		return fmt.Sprintf("NoteOff{note:%d offset:%d}", e.Note, e.Offset)
	default:
		return fmt.Sprintf("CC{ctl:%d val:%d offset:%d}", e.Controller, e.Value, e.Offset)
	}
}

// NoteToFrequency converts a MIDI note number to Hz, A4 = 440.
func NoteToFrequency(note uint8) float64 {
	return 440.0 * math.Pow(2, (float64(note)-69)/12)
}

// VelocityToLevel converts a 0-127 velocity to a normalized level.
func VelocityToLevel(velocity uint8) float64 {
	if velocity > 127 {
		velocity = 127
	}
	return float64(velocity) / 127.0
}
