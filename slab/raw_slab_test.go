package slab

import "testing"

func TestRawSlabAllocateFree(t *testing.T) {
	s := NewRawSlab[string]()
	key := s.Allocate("hello")

	if got, ok := s.Get(key); !ok || got != "hello" {
		t.Fatalf("Get = (%q, %v), want (hello, true)", got, ok)
	}
	if s.Count() != 1 {
		t.Fatalf("Count = %d, want 1", s.Count())
	}

	s.Free(key)
	if s.Count() != 0 {
		t.Fatalf("Count after Free = %d, want 0", s.Count())
	}
	if _, ok := s.Get(key); ok {
		t.Fatal("Get after Free should report ok=false")
	}
}

func TestRawSlabDoubleFreePanics(t *testing.T) {
	s := NewRawSlab[int]()
	key := s.Allocate(1)
	s.Free(key)

	defer func() {
		if recover() == nil {
			t.Fatal("expected double free to panic")
		}
	}()
	s.Free(key)
}

func TestRawSlabReusesFreedSlots(t *testing.T) {
	s := NewRawSlab[int]()
	var keys []RawKey
	for i := 0; i < 1000; i++ {
		keys = append(keys, s.Allocate(i))
	}
	if s.Count() != 1000 {
		t.Fatalf("Count = %d, want 1000", s.Count())
	}
	for _, k := range keys {
		s.Free(k)
	}
	if s.Count() != 0 {
		t.Fatalf("Count after freeing all = %d, want 0", s.Count())
	}

	// Reallocating should reuse the vacated indices rather than growing.
	reused := s.Allocate(42)
	if reused.Index() > keys[len(keys)-1].Index() {
		t.Errorf("expected a reused index, got a fresh one: %d", reused.Index())
	}
}

func TestRawSlabIterVisitsOnlyLiveEntries(t *testing.T) {
	s := NewRawSlab[int]()
	a := s.Allocate(1)
	s.Allocate(2)
	s.Free(a)

	seen := map[int]bool{}
	s.Iter(func(_ RawKey, v int) { seen[v] = true })

	if seen[1] {
		t.Error("Iter visited a freed slot")
	}
	if !seen[2] {
		t.Error("Iter did not visit a live slot")
	}
}
