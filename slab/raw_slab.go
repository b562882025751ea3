// Package slab implements the three flavors of dense, index-addressed
// storage spec §4.1 describes: a raw slab (no reuse detection), a
// generational slab (stale-key detection), and an RC slab (refcounted,
// channel-driven reclamation on top of a generational slab).
package slab

// RawKey addresses a slot in a RawSlab. It carries no generation, so a
// stale key silently aliases whatever now occupies that slot — callers
// that need use-after-free detection should use a GenSlab instead.
type RawKey struct {
	index uint32
}

func (k RawKey) Index() uint32 { return k.index }

// RawSlab is a very simple, minimalist slab: O(1) allocate/free/get over a
// dense vector with a free list of vacated indices. Fails with
// StaleIndex-shaped absence (a false `ok`) on a freed slot — it does not
// panic on stale-but-in-range reads, only on freeing an already-free slot
// or double-freeing, which are unambiguous programmer errors.
type RawSlab[T any] struct {
	storage  []*T
	freeList []uint32
}

// NewRawSlab creates an empty raw slab.
func NewRawSlab[T any]() *RawSlab[T] {
	return NewRawSlabWithCapacity[T](32)
}

// NewRawSlabWithCapacity preallocates storage, avoiding reallocation
// churn for the common case of a known upper bound.
func NewRawSlabWithCapacity[T any](capacity int) *RawSlab[T] {
	return &RawSlab[T]{
		storage:  make([]*T, 0, capacity),
		freeList: make([]uint32, 0, capacity),
	}
}

// Allocate stores value and returns a key to retrieve it.
func (s *RawSlab[T]) Allocate(value T) RawKey {
	if n := len(s.freeList); n > 0 {
		idx := s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		s.storage[idx] = &value
		return RawKey{index: idx}
	}

	idx := uint32(len(s.storage))
	s.storage = append(s.storage, &value)
	return RawKey{index: idx}
}

// Free vacates the slot addressed by key. It panics if the slot is
// already empty — freeing a never-allocated or already-freed key is a
// programmer error, not a recoverable condition (spec §4.1).
func (s *RawSlab[T]) Free(key RawKey) {
	if int(key.index) >= len(s.storage) || s.storage[key.index] == nil {
		panic("slab: tried to free an empty raw slab slot")
	}
	s.storage[key.index] = nil
	s.freeList = append(s.freeList, key.index)
}

// Exists reports whether key currently addresses a live value.
func (s *RawSlab[T]) Exists(key RawKey) bool {
	return int(key.index) < len(s.storage) && s.storage[key.index] != nil
}

// Get returns the value at key, or ok=false if the slot is empty.
func (s *RawSlab[T]) Get(key RawKey) (value T, ok bool) {
	if int(key.index) >= len(s.storage) || s.storage[key.index] == nil {
		return value, false
	}
	return *s.storage[key.index], true
}

// GetPtr returns a mutable pointer to the value at key, or nil.
func (s *RawSlab[T]) GetPtr(key RawKey) *T {
	if int(key.index) >= len(s.storage) {
		return nil
	}
	return s.storage[key.index]
}

// Count returns the number of currently allocated slots.
func (s *RawSlab[T]) Count() int {
	return len(s.storage) - len(s.freeList)
}

// Iter calls fn for every live value, in index order.
func (s *RawSlab[T]) Iter(fn func(RawKey, T)) {
	for i, v := range s.storage {
		if v != nil {
			fn(RawKey{index: uint32(i)}, *v)
		}
	}
}
