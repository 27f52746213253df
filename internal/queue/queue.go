// Package queue holds pending rows between a recorder and its background writer.
package queue

import (
	"sync"
)

// Queue is a thread-safe FIFO that is drained in batches.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	limit int
	drops int
}

// New creates an unbounded queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{items: make([]T, 0)}
}

// NewBounded creates a queue that discards its oldest items beyond limit.
func NewBounded[T any](limit int) *Queue[T] {
	return &Queue[T]{items: make([]T, 0), limit: limit}
}

// Push appends items, evicting the oldest ones if the queue is bounded and full.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
	if q.limit > 0 && len(q.items) > q.limit {
		over := len(q.items) - q.limit
		q.drops += over
		q.items = append(q.items[:0], q.items[over:]...)
	}
}

// Len returns the number of pending items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped counts items evicted by the bound.
func (q *Queue[T]) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.drops
}

// Drain removes and returns up to max items in FIFO order; max <= 0 takes all.
func (q *Queue[T]) Drain(max int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	if max > 0 && max < n {
		n = max
	}
	out := make([]T, n)
	copy(out, q.items[:n])
	q.items = append(q.items[:0], q.items[n:]...)
	return out
}

// Requeue puts items back at the front, e.g. after a failed write.
func (q *Queue[T]) Requeue(items []T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(append(make([]T, 0, len(items)+len(q.items)), items...), q.items...)
}
