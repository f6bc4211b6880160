// Package command provides the bounded command queue that carries batched
// control messages from the UI thread to the audio thread. The audio thread
// drains it at block start under an explicit time budget; whatever does not
// fit stays queued for the next block.
package command

import (
	"sync/atomic"
	"time"
)

// Kind tags a command with its meaning. The engine layers define their own
// kind constants; the queue only transports them.
type Kind uint32

// Command is one tagged control message. Value fields cover scalar updates;
// Data carries heavier payloads (sample buffers, preset blobs) allocated on
// the control thread.
type Command struct {
	Kind  Kind
	Slot  int32
	Value float64
	Data  interface{}
}

// Queue is a fixed-capacity single-producer single-consumer ring buffer.
// Push runs on the control thread, Drain on the audio thread; neither ever
// blocks or allocates.
type Queue struct {
	buf  []Command
	mask uint64

	// Read and write positions only ever advance. Capacity is a power of
	// two so positions wrap through the mask.
	read  atomic.Uint64
	write atomic.Uint64
}

// DefaultDrainBudget bounds command processing per audio block.
const DefaultDrainBudget = 500 * time.Microsecond

// NewQueue creates a queue holding at least the requested number of
// commands. Capacity is rounded up to a power of two.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &Queue{
		buf:  make([]Command, size),
		mask: uint64(size - 1),
	}
}

// Push enqueues a command. Returns false when the queue is full; the caller
// decides whether to retry, coalesce, or drop with a log line.
func (q *Queue) Push(cmd Command) bool {
	read := q.read.Load()
	write := q.write.Load()
	if write-read >= uint64(len(q.buf)) {
		return false
	}
	q.buf[write&q.mask] = cmd
	q.write.Store(write + 1)
	return true
}

// Drain applies fn to queued commands in FIFO order until the queue is empty
// or the budget elapses. The deadline is checked after every item, so one
// oversized handler can overrun by at most itself, never by the remaining
// queue. Returns the number of commands processed.
func (q *Queue) Drain(budget time.Duration, fn func(Command)) int {
	deadline := time.Now().Add(budget)
	processed := 0

	for {
		read := q.read.Load()
		if read == q.write.Load() {
			return processed
		}
		cmd := q.buf[read&q.mask]
		q.buf[read&q.mask] = Command{} // drop payload reference
		q.read.Store(read + 1)

		fn(cmd)
		processed++

		if !time.Now().Before(deadline) {
			return processed
		}
	}
}

// Len returns the number of queued commands.
func (q *Queue) Len() int {
	return int(q.write.Load() - q.read.Load())
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return len(q.buf) }
