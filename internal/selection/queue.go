// Package selection carries dial selections from the event line to the
// playback line.
//
// The queue is unbounded and ordered: enqueue never blocks, dequeue blocks
// only its single consumer. Ready exposes a closed-channel signal so a long
// wait elsewhere (track playback) can abandon itself the moment a new
// selection arrives instead of sleeping out its remainder.
package selection

import (
	"context"
	"sync"
)

// Queue is a single-producer, single-consumer ordered queue of category
// selectors.
type Queue struct {
	mu    sync.Mutex
	items []int
	ready chan struct{}
}

// NewQueue constructs an empty queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{})}
}

// Enqueue appends a selection. It never blocks.
func (q *Queue) Enqueue(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, n)
	select {
	case <-q.ready:
		// Already signalled.
	default:
		close(q.ready)
	}
}

// Pending reports whether a selection is waiting.
func (q *Queue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) > 0
}

// PendingCount returns the number of selections waiting.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Ready returns a channel that is closed while the queue is non-empty.
// Waiters select on it to interrupt long operations; they must not consume
// from it in place of Dequeue.
func (q *Queue) Ready() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ready
}

// Dequeue removes and returns the oldest selection, blocking until one is
// available or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (int, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			n := q.items[0]
			q.items = q.items[1:]
			if len(q.items) == 0 {
				q.ready = make(chan struct{})
			}
			q.mu.Unlock()
			return n, nil
		}
		ready := q.ready
		q.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Debouncer wraps a queue and suppresses consecutive duplicate selections, so
// a stationary dial does not re-trigger the same category.
type Debouncer struct {
	queue *Queue
	last  int
	seen  bool
}

// NewDebouncer constructs a debouncing consumer over queue.
func NewDebouncer(queue *Queue) *Debouncer {
	return &Debouncer{queue: queue}
}

// Next returns the next selection that differs from the previously returned
// one, blocking until such a value arrives or ctx is done.
func (d *Debouncer) Next(ctx context.Context) (int, error) {
	for {
		n, err := d.queue.Dequeue(ctx)
		if err != nil {
			return 0, err
		}
		if d.seen && n == d.last {
			continue
		}
		d.last = n
		d.seen = true
		return n, nil
	}
}
