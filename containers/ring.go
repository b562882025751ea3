// Package containers holds small generic data structures shared by the
// slab and resources packages.
package containers

import "errors"

var (
	ErrRingFull  = errors.New("containers: ring is full")
	ErrRingEmpty = errors.New("containers: ring is empty")
)

// Ring is a fixed-capacity FIFO circular buffer. The deferred-drop sink's
// retirement buckets use IndexedRing below, not Ring.
type Ring[T any] struct {
	data       []T
	size       int
	readIndex  int
	writeIndex int
	count      int
}

// NewRing creates a Ring with the given fixed capacity.
func NewRing[T any](size int) *Ring[T] {
	if size <= 0 {
		panic("containers: ring size must be > 0")
	}
	return &Ring[T]{
		data: make([]T, size),
		size: size,
	}
}

func (r *Ring[T]) Enqueue(value T) error {
	if r.IsFull() {
		return ErrRingFull
	}
	r.data[r.writeIndex] = value
	r.writeIndex = (r.writeIndex + 1) % r.size
	r.count++
	return nil
}

func (r *Ring[T]) Dequeue() (T, error) {
	var zero T
	if r.IsEmpty() {
		return zero, ErrRingEmpty
	}
	value := r.data[r.readIndex]
	r.data[r.readIndex] = zero
	r.readIndex = (r.readIndex + 1) % r.size
	r.count--
	return value, nil
}

func (r *Ring[T]) Peek() (T, error) {
	var zero T
	if r.IsEmpty() {
		return zero, ErrRingEmpty
	}
	return r.data[r.readIndex], nil
}

func (r *Ring[T]) IsEmpty() bool { return r.count == 0 }
func (r *Ring[T]) IsFull() bool  { return r.count == r.size }
func (r *Ring[T]) Len() int      { return r.count }
func (r *Ring[T]) Cap() int      { return r.size }

// IndexedRing is a fixed set of "buckets", addressed by an ever-advancing
// index modulo the bucket count — exactly the shape the deferred-drop
// sink needs: N+1 buckets, one "current" bucket written to each frame,
// one rotated out (and drained) each frame.
type IndexedRing[T any] struct {
	buckets []T
	current int
}

// NewIndexedRing creates an IndexedRing with bucketCount buckets, each
// initialized via newBucket.
func NewIndexedRing[T any](bucketCount int, newBucket func() T) *IndexedRing[T] {
	if bucketCount <= 0 {
		panic("containers: bucket count must be > 0")
	}
	buckets := make([]T, bucketCount)
	for i := range buckets {
		buckets[i] = newBucket()
	}
	return &IndexedRing[T]{buckets: buckets}
}

// Current returns the bucket new retirements should be appended to.
func (r *IndexedRing[T]) Current() *T {
	return &r.buckets[r.current]
}

// Advance rotates to the next bucket and returns a pointer to it. That
// bucket is now Current and still holds the oldest retirements, which are
// safe to finalize before new retirements are appended to it.
func (r *IndexedRing[T]) Advance() *T {
	r.current = (r.current + 1) % len(r.buckets)
	return &r.buckets[r.current]
}

func (r *IndexedRing[T]) Len() int { return len(r.buckets) }
