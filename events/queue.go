package events

import (
	"context"
	"sync"
)

// Publisher sends events to their consumers.
type Publisher interface {
	Publish(ctx context.Context, evt *Event) error
}

// Queue is a FIFO transport for events.
type Queue interface {
	Publisher

	// Pop blocks until an event is available or ctx is done.
	// A nil event with a nil error means the wait timed out.
	Pop(ctx context.Context) (*Event, error)
}

// DeadLetterSink receives events that failed permanently.
type DeadLetterSink interface {
	DeadLetter(ctx context.Context, evt *Event) error
}

// MemoryQueue is an in-process Queue and DeadLetterSink backed by a
// buffered channel. Used by tests and single-process runs.
type MemoryQueue struct {
	events chan *Event
	done   chan struct{}
	once   sync.Once

	mu   sync.Mutex
	dead []*Event
}

var (
	_ Queue          = (*MemoryQueue)(nil)
	_ DeadLetterSink = (*MemoryQueue)(nil)
)

// NewMemoryQueue creates a MemoryQueue holding up to capacity pending events.
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryQueue{
		events: make(chan *Event, capacity),
		done:   make(chan struct{}),
	}
}

// Publish enqueues evt, blocking while the queue is full.
func (q *MemoryQueue) Publish(ctx context.Context, evt *Event) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.events <- evt:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop dequeues the oldest event. Pending events are still delivered after
// Close; ErrQueueClosed is returned once the queue is drained.
func (q *MemoryQueue) Pop(ctx context.Context) (*Event, error) {
	select {
	case evt := <-q.events:
		return evt, nil
	default:
	}

	select {
	case evt := <-q.events:
		return evt, nil
	case <-q.done:
		return nil, ErrQueueClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of pending events.
func (q *MemoryQueue) Len() int {
	return len(q.events)
}

// DeadLetter records evt as permanently failed.
func (q *MemoryQueue) DeadLetter(ctx context.Context, evt *Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, evt)
	return nil
}

// DeadLetters returns the events recorded by DeadLetter.
func (q *MemoryQueue) DeadLetters() []*Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*Event(nil), q.dead...)
}

// Close stops accepting events.
func (q *MemoryQueue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}
