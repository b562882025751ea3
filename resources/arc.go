// Package resources implements the structural resource cache, the
// deferred-drop sink, the descriptor-set pool, the dynamic resource set,
// and the graphics-pipeline cache described in spec §4.2-§4.6.
package resources

import "sync/atomic"

// arcState is the heap-allocated, shared state behind every clone of an
// Arc. It survives past refcount reaching zero (the Arc's onRelease
// callback runs exactly once, at that point) so that outstanding
// WeakArcs can still observe the zero count.
type arcState[T any] struct {
	id        uint64
	value     T
	refcount  int32
	onRelease func()
}

// Arc is a shared, reference-counted handle to a live GPU object,
// spec §3's ResourceArc<T>. Equality is by id, not by the pointed-to
// value; while any Arc exists the backing object is alive and unchanged.
type Arc[T any] struct {
	id    uint64
	state *arcState[T]
}

// ID returns the 64-bit stable id assigned at insertion.
func (a Arc[T]) ID() uint64 { return a.id }

// Get dereferences the handle. Always safe for a live Arc.
func (a Arc[T]) Get() T { return a.state.value }

// Clone increments the refcount and returns a new strong handle.
func (a Arc[T]) Clone() Arc[T] {
	atomic.AddInt32(&a.state.refcount, 1)
	return Arc[T]{id: a.id, state: a.state}
}

// Release decrements the refcount. The last release fires the cache's
// back-channel exactly once, which is what moves the raw object into the
// deferred-drop sink (spec §3, §4.2).
func (a Arc[T]) Release() {
	remaining := atomic.AddInt32(&a.state.refcount, -1)
	if remaining < 0 {
		panic("resources: arc released more times than it was held")
	}
	if remaining == 0 && a.state.onRelease != nil {
		a.state.onRelease()
	}
}

// Downgrade returns a weak handle that does not keep the object alive.
func (a Arc[T]) Downgrade() WeakArc[T] {
	return WeakArc[T]{state: a.state}
}

// WeakArc does not prevent reclamation; Upgrade succeeds iff the last
// strong Arc has not yet been released.
type WeakArc[T any] struct {
	state *arcState[T]
}

func (w WeakArc[T]) Upgrade() (Arc[T], bool) {
	for {
		current := atomic.LoadInt32(&w.state.refcount)
		if current <= 0 {
			return Arc[T]{}, false
		}
		if atomic.CompareAndSwapInt32(&w.state.refcount, current, current+1) {
			return Arc[T]{id: w.state.id, state: w.state}, true
		}
	}
}

func newArc[T any](id uint64, value T, onRelease func()) Arc[T] {
	return Arc[T]{id: id, state: &arcState[T]{id: id, value: value, refcount: 1, onRelease: onRelease}}
}
