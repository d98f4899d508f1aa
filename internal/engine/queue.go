package engine

import (
	"context"
	"io"
	"sync"

	"github.com/roach88/spread/internal/ir"
)

// Source delivers input events to Run one at a time.
// Next returns io.EOF when no more events will arrive.
type Source interface {
	Next(ctx context.Context) (ir.InputEvent, error)
}

// Queue is a thread-safe FIFO of input events and a Source.
//
// The queue is unbounded so producers (a terminal reader, a test) never
// block. The signal channel enables context-aware waiting in Next.
type Queue struct {
	mu     sync.Mutex
	events []ir.InputEvent
	closed bool
	signal chan struct{} // Signals event availability (buffered, size 1)
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		events: make([]ir.InputEvent, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *Queue) Enqueue(e ir.InputEvent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Non-blocking; the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front event without blocking.
// Returns false if the queue is empty.
func (q *Queue) TryDequeue() (ir.InputEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return ir.InputEvent{}, false
	}

	e := q.events[0]
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

// Next blocks until an event is available, the queue is closed and drained
// (io.EOF), or ctx is done.
func (q *Queue) Next(ctx context.Context) (ir.InputEvent, error) {
	for {
		if e, ok := q.TryDequeue(); ok {
			return e, nil
		}

		q.mu.Lock()
		drained := q.closed && len(q.events) == 0
		q.mu.Unlock()
		if drained {
			return ir.InputEvent{}, io.EOF
		}

		select {
		case <-ctx.Done():
			return ir.InputEvent{}, ctx.Err()
		case <-q.signal:
			// Closed signal channel fires immediately; loop re-checks.
		}
	}
}

// Len returns the current queue length.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close signals that no more events will be enqueued.
// Events already queued are still delivered.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal) // Wakes all waiters
}

// SliceSource replays a fixed list of events, then returns io.EOF.
type SliceSource struct {
	events []ir.InputEvent
	pos    int
}

// NewSliceSource creates a Source over events.
func NewSliceSource(events ...ir.InputEvent) *SliceSource {
	return &SliceSource{events: events}
}

// Next returns the next event or io.EOF.
func (s *SliceSource) Next(ctx context.Context) (ir.InputEvent, error) {
	if err := ctx.Err(); err != nil {
		return ir.InputEvent{}, err
	}
	if s.pos >= len(s.events) {
		return ir.InputEvent{}, io.EOF
	}
	e := s.events[s.pos]
	s.pos++
	return e, nil
}
