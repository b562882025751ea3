package slab

import "testing"

func TestGenSlabRoundTrip(t *testing.T) {
	s := NewGenSlab[int]()
	key := s.Allocate(7)

	got, ok := s.Get(key)
	if !ok || got != 7 {
		t.Fatalf("Get = (%d, %v), want (7, true)", got, ok)
	}
}

func TestGenSlabStaleKeyAfterFreeMisses(t *testing.T) {
	s := NewGenSlab[int]()
	key := s.Allocate(1)
	s.Free(key)

	if s.Exists(key) {
		t.Fatal("Exists should be false for a freed key")
	}
	if _, ok := s.Get(key); ok {
		t.Fatal("Get should miss for a freed key")
	}
}

func TestGenSlabReallocatedSlotYieldsNonEqualGeneration(t *testing.T) {
	s := NewGenSlab[int]()
	first := s.Allocate(1)
	s.Free(first)
	second := s.Allocate(2)

	if first.Index() != second.Index() {
		t.Fatalf("expected slot reuse: first=%d second=%d", first.Index(), second.Index())
	}
	if first.Generation() == second.Generation() {
		t.Fatalf("expected distinct generations, both were %d", first.Generation())
	}

	// The stale key must still miss even though the index was reused.
	if _, ok := s.Get(first); ok {
		t.Fatal("stale key unexpectedly hit after slot reuse")
	}
	if got, ok := s.Get(second); !ok || got != 2 {
		t.Fatalf("Get(second) = (%d, %v), want (2, true)", got, ok)
	}
}

func TestGenSlabDoubleFreePanics(t *testing.T) {
	s := NewGenSlab[int]()
	key := s.Allocate(1)
	s.Free(key)

	defer func() {
		if recover() == nil {
			t.Fatal("expected double free to panic")
		}
	}()
	s.Free(key)
}
