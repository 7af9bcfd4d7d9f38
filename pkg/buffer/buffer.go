// Package buffer provides a generic, thread-safe fixed-size ring buffer.
//
// The ring keeps the most recent items. When full, the overflow policy decides
// whether the oldest item is evicted or the new one is discarded. Dropped
// items are counted and can be observed through a callback.
package buffer

import (
	"sync"
)

// OverflowPolicy defines how the ring behaves when it reaches capacity.
type OverflowPolicy int

const (
	// DropOldest removes the oldest item to make room for new items.
	DropOldest OverflowPolicy = iota

	// DropNewest drops new items when the ring is full.
	DropNewest
)

// String returns a human-readable representation of the overflow policy.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	default:
		return "Unknown"
	}
}

// DropCallback is called with each item dropped by the overflow policy.
type DropCallback[T any] func(item T)

// Option configures a Ring.
type Option[T any] func(*Ring[T])

// WithOverflowPolicy sets the overflow behavior. Defaults to DropOldest.
func WithOverflowPolicy[T any](policy OverflowPolicy) Option[T] {
	return func(r *Ring[T]) {
		r.policy = policy
	}
}

// WithDropCallback sets a callback invoked outside the lock for every dropped item.
func WithDropCallback[T any](callback DropCallback[T]) Option[T] {
	return func(r *Ring[T]) {
		r.onDrop = callback
	}
}

// Ring is a fixed-capacity circular buffer.
type Ring[T any] struct {
	mu      sync.RWMutex
	items   []T
	head    int // next write position
	size    int
	dropped uint64
	policy  OverflowPolicy
	onDrop  DropCallback[T]
}

// NewRing creates a ring holding at most capacity items. A capacity below one
// is raised to one.
func NewRing[T any](capacity int, options ...Option[T]) *Ring[T] {
	if capacity <= 0 {
		capacity = 1 // Minimum capacity
	}
	r := &Ring[T]{items: make([]T, capacity)}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Push adds an item according to the overflow policy.
func (r *Ring[T]) Push(item T) {
	var (
		dropped T
		drop    bool
	)

	r.mu.Lock()
	if r.size == len(r.items) {
		drop = true
		r.dropped++
		if r.policy == DropNewest {
			dropped = item
			r.mu.Unlock()
			r.notifyDrop(dropped)
			return
		}
		// Oldest item sits at the write position once the ring is full
		dropped = r.items[r.head]
		r.size--
	}
	r.items[r.head] = item
	r.head = (r.head + 1) % len(r.items)
	r.size++
	r.mu.Unlock()

	if drop {
		r.notifyDrop(dropped)
	}
}

func (r *Ring[T]) notifyDrop(item T) {
	if r.onDrop != nil {
		r.onDrop(item)
	}
}

// Snapshot returns the buffered items from oldest to newest.
func (r *Ring[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, r.size)
	start := (r.head - r.size + len(r.items)) % len(r.items)
	for i := 0; i < r.size; i++ {
		out[i] = r.items[(start+i)%len(r.items)]
	}
	return out
}

// Last returns the newest item.
func (r *Ring[T]) Last() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	if r.size == 0 {
		return zero, false
	}
	return r.items[(r.head-1+len(r.items))%len(r.items)], true
}

// Len returns the current number of items.
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Capacity returns the maximum number of items.
func (r *Ring[T]) Capacity() int {
	return len(r.items)
}

// Dropped returns how many items the overflow policy discarded.
func (r *Ring[T]) Dropped() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dropped
}

// Clear removes all items. The drop counter is kept.
func (r *Ring[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head = 0
	r.size = 0
}
