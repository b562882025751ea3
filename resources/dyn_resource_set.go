package resources

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DynResourceSet is a thread-safe lookup for resources that don't need
// structural interning — transient upload buffers, per-frame scratch
// images (spec §4.5). Its API shape mirrors Cache, minus Desc hashing:
// every Insert yields a new id unconditionally, so there is never
// deduplication, only sharing of the one handle a caller chooses to
// clone.
type DynResourceSet[T any] struct {
	mu      sync.Mutex
	byID    map[uint64]WeakArc[T]
	names   map[uint64]string
	nextID  uint64
	sink    *DeferredDropSink[T]
}

// NewDynResourceSet creates a set whose released entries retire into
// sink, the same drop path every other resource kind uses (spec §4.5:
// "Drop path identical: last strong ref enqueues a retire to the backing
// sink").
func NewDynResourceSet[T any](sink *DeferredDropSink[T]) *DynResourceSet[T] {
	return &DynResourceSet[T]{
		byID:  make(map[uint64]WeakArc[T]),
		names: make(map[uint64]string),
		sink:  sink,
	}
}

// Insert stores value and returns a fresh strong handle. Unlike Cache,
// there is no lookup-before-create step — every call allocates a new id.
// A uuid-based debug name is stamped alongside it, the same way the
// teacher names transient render-view attachments (engine/systems/
// renderview.go: "texture_name_uuid := uuid.New()") so a leaked transient
// resource is identifiable in logs instead of showing up as a bare
// integer id.
func (s *DynResourceSet[T]) Insert(value T) Arc[T] {
	id := atomic.AddUint64(&s.nextID, 1)
	arc := newArc(id, value, func() { s.onRelease(id) })

	s.mu.Lock()
	s.byID[id] = arc.Downgrade()
	s.names[id] = uuid.NewString()
	s.mu.Unlock()
	return arc
}

// DebugName returns the uuid stamped on id at Insert time, or "" if id is
// unknown.
func (s *DynResourceSet[T]) DebugName(id uint64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.names[id]
}

// Get looks up a still-live entry by id, upgrading its weak reference.
func (s *DynResourceSet[T]) Get(id uint64) (Arc[T], bool) {
	s.mu.Lock()
	weak, ok := s.byID[id]
	s.mu.Unlock()
	if !ok {
		return Arc[T]{}, false
	}
	return weak.Upgrade()
}

func (s *DynResourceSet[T]) onRelease(id uint64) {
	s.mu.Lock()
	weak, ok := s.byID[id]
	if ok {
		delete(s.byID, id)
		delete(s.names, id)
	}
	s.mu.Unlock()
	if ok {
		s.sink.Retire(weak.state.value)
	}
}

// OnFrameComplete ticks the backing sink.
func (s *DynResourceSet[T]) OnFrameComplete() error { return s.sink.OnFrameComplete() }

// Len reports the number of live entries.
func (s *DynResourceSet[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
