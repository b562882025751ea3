package slab

// GenKey addresses a slot in a GenSlab by (index, generation). A key
// whose generation predates the slot's current generation is stale and
// misses — this is the primary difference from RawKey, and is the
// default key shape for scene-level handles (spec §4.1).
type GenKey struct {
	index      uint32
	generation uint32
}

func (k GenKey) Index() uint32      { return k.index }
func (k GenKey) Generation() uint32 { return k.generation }

type genSlot[T any] struct {
	value      *T
	generation uint32
}

// GenSlab is a RawSlab plus a per-slot monotonically increasing
// generation counter. Freeing a slot increments its generation, so any
// key minted before the free is detectably stale afterwards — this is
// what lets GenSlab answer "was this freed out from under me?" instead of
// silently aliasing whatever was allocated into the same slot next.
type GenSlab[T any] struct {
	storage  []genSlot[T]
	freeList []uint32
}

func NewGenSlab[T any]() *GenSlab[T] {
	return NewGenSlabWithCapacity[T](32)
}

func NewGenSlabWithCapacity[T any](capacity int) *GenSlab[T] {
	return &GenSlab[T]{
		storage:  make([]genSlot[T], 0, capacity),
		freeList: make([]uint32, 0, capacity),
	}
}

// Allocate stores value and returns a fresh generational key.
func (s *GenSlab[T]) Allocate(value T) GenKey {
	if n := len(s.freeList); n > 0 {
		idx := s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		slot := &s.storage[idx]
		slot.value = &value
		return GenKey{index: idx, generation: slot.generation}
	}

	idx := uint32(len(s.storage))
	s.storage = append(s.storage, genSlot[T]{value: &value})
	return GenKey{index: idx, generation: 0}
}

// Free vacates the slot addressed by key and bumps its generation.
// Panics if key is already stale or the slot was never allocated — as
// with RawSlab, this is an unambiguous programmer error.
func (s *GenSlab[T]) Free(key GenKey) {
	if int(key.index) >= len(s.storage) {
		panic("slab: tried to free an out-of-range generational key")
	}
	slot := &s.storage[key.index]
	if slot.value == nil || slot.generation != key.generation {
		panic("slab: tried to free a stale or already-freed generational key")
	}
	slot.value = nil
	slot.generation++
	s.freeList = append(s.freeList, key.index)
}

// Exists reports whether key is live (not stale, not freed).
func (s *GenSlab[T]) Exists(key GenKey) bool {
	if int(key.index) >= len(s.storage) {
		return false
	}
	slot := &s.storage[key.index]
	return slot.value != nil && slot.generation == key.generation
}

// Get returns the value addressed by key, or ok=false if key is stale or
// the slot is empty.
func (s *GenSlab[T]) Get(key GenKey) (value T, ok bool) {
	if int(key.index) >= len(s.storage) {
		return value, false
	}
	slot := &s.storage[key.index]
	if slot.value == nil || slot.generation != key.generation {
		return value, false
	}
	return *slot.value, true
}

// GetPtr returns a mutable pointer to the value addressed by key, or nil
// if key is stale.
func (s *GenSlab[T]) GetPtr(key GenKey) *T {
	if int(key.index) >= len(s.storage) {
		return nil
	}
	slot := &s.storage[key.index]
	if slot.value == nil || slot.generation != key.generation {
		return nil
	}
	return slot.value
}

// Count returns the number of currently allocated slots.
func (s *GenSlab[T]) Count() int {
	return len(s.storage) - len(s.freeList)
}

func (s *GenSlab[T]) Iter(fn func(GenKey, T)) {
	for i := range s.storage {
		slot := &s.storage[i]
		if slot.value != nil {
			fn(GenKey{index: uint32(i), generation: slot.generation}, *slot.value)
		}
	}
}
