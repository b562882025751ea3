package slab

import "sync/atomic"

// rcState is the shared, heap-allocated refcount + key pair behind every
// clone of a Handle. It outlives the Handle values that point to it; the
// slot itself is only actually freed once ProcessDrops reclaims it.
type rcState struct {
	key      GenKey
	refcount int32
	dropCh   chan<- GenKey
}

// Handle is a strong, reference-counted reference into an RCSlab. Clone
// increments the refcount; Release decrements it, and on the last release
// enqueues the key onto the slab's drop channel rather than freeing the
// slot synchronously (spec §4.1: "last drop enqueues the key onto a drop
// channel; a process_drops pass reclaims them").
type Handle[T any] struct {
	state *rcState
}

// Key returns the generational key this handle addresses.
func (h Handle[T]) Key() GenKey { return h.state.key }

// Clone increments the refcount and returns a new strong handle aliasing
// the same slot.
func (h Handle[T]) Clone() Handle[T] {
	atomic.AddInt32(&h.state.refcount, 1)
	return Handle[T]{state: h.state}
}

// Release decrements the refcount. On reaching zero it enqueues the key
// for reclamation by the owning RCSlab's ProcessDrops. Calling Release
// more times than the handle was cloned (including the initial Allocate)
// is a programmer error and panics, mirroring the double-free panics of
// RawSlab/GenSlab.
func (h Handle[T]) Release() {
	remaining := atomic.AddInt32(&h.state.refcount, -1)
	if remaining < 0 {
		panic("slab: handle released more times than it was held")
	}
	if remaining == 0 {
		h.state.dropCh <- h.state.key
	}
}

// Downgrade returns a weak reference that does not keep the slot alive.
func (h Handle[T]) Downgrade() WeakHandle[T] {
	return WeakHandle[T]{state: h.state}
}

// WeakHandle does not prevent reclamation. Upgrade succeeds iff the
// underlying slot has not yet had its last strong reference released.
type WeakHandle[T any] struct {
	state *rcState
}

// Upgrade attempts to produce a new strong Handle, incrementing the
// refcount only if it was still greater than zero.
func (w WeakHandle[T]) Upgrade() (Handle[T], bool) {
	for {
		current := atomic.LoadInt32(&w.state.refcount)
		if current <= 0 {
			return Handle[T]{}, false
		}
		if atomic.CompareAndSwapInt32(&w.state.refcount, current, current+1) {
			return Handle[T]{state: w.state}, true
		}
	}
}

// RCSlab wraps a GenSlab with reference-counted handles. ProcessDrops
// must be called once per frame by the owning system (spec §4.1
// invariant) to reclaim slots whose last strong handle was released.
type RCSlab[T any] struct {
	slab   *GenSlab[T]
	dropCh chan GenKey
}

// NewRCSlab creates an RCSlab with a drop channel sized for bufferSize
// pending drops before Release would block. A generous buffer avoids
// Release blocking mid-frame on a consumer that hasn't yet called
// ProcessDrops.
func NewRCSlab[T any](bufferSize int) *RCSlab[T] {
	return &RCSlab[T]{
		slab:   NewGenSlab[T](),
		dropCh: make(chan GenKey, bufferSize),
	}
}

// Allocate stores value and returns a strong handle with refcount 1.
func (s *RCSlab[T]) Allocate(value T) Handle[T] {
	key := s.slab.Allocate(value)
	return Handle[T]{state: &rcState{key: key, refcount: 1, dropCh: s.dropCh}}
}

// Get returns the value addressed by handle. It is always present for a
// live handle — a handle only exists while its slot is allocated.
func (s *RCSlab[T]) Get(handle Handle[T]) (T, bool) {
	return s.slab.Get(handle.state.key)
}

func (s *RCSlab[T]) GetPtr(handle Handle[T]) *T {
	return s.slab.GetPtr(handle.state.key)
}

// ProcessDrops drains the drop channel, freeing every slot whose last
// strong handle was released since the previous call. Must be called
// once per frame.
func (s *RCSlab[T]) ProcessDrops() int {
	drained := 0
	for {
		select {
		case key := <-s.dropCh:
			s.slab.Free(key)
			drained++
		default:
			return drained
		}
	}
}

// Count returns the number of currently allocated slots.
func (s *RCSlab[T]) Count() int { return s.slab.Count() }

// PendingDrops returns the number of keys queued for the next
// ProcessDrops call, without consuming them.
func (s *RCSlab[T]) PendingDrops() int { return len(s.dropCh) }
