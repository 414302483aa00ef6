// Package queue buffers journal rows between the engine and the database writer.
package queue

import (
	"sync"
)

// DefaultLimit bounds a queue created with a non-positive limit. At one fix per
// second this holds well over a day of notifications.
const DefaultLimit = 100_000

// Queue is a bounded thread-safe FIFO. When full, the oldest rows are
// discarded and counted as dropped.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	limit   int
	dropped uint64
}

// New creates an empty queue holding at most limit items.
func New[T any](limit int) *Queue[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Queue[T]{
		items: make([]T, 0),
		limit: limit,
	}
}

// Push appends items, evicting the oldest ones beyond the limit.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
	q.trim()
}

// Requeue puts items back in front of the queue, keeping their order ahead of
// rows pushed since they were taken. Used after a failed write.
func (q *Queue[T]) Requeue(items []T) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	merged := make([]T, 0, len(items)+len(q.items))
	merged = append(merged, items...)
	q.items = append(merged, q.items...)
	q.trim()
}

func (q *Queue[T]) trim() {
	if over := len(q.items) - q.limit; over > 0 {
		var zero T
		for i := 0; i < over; i++ {
			q.items[i] = zero
		}
		q.items = q.items[over:]
		q.dropped += uint64(over)
	}
}

// Pop removes and returns the first item. Returns zero value if empty.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Empty returns true if the queue has no items.
func (q *Queue[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped returns how many items were evicted because the queue was full.
func (q *Queue[T]) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// GetAndEmpty returns all items and clears the queue.
func (q *Queue[T]) GetAndEmpty() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := q.items
	q.items = make([]T, 0, cap(q.items))
	return result
}
