package containers

import "testing"

func TestRingEnqueueDequeueFIFO(t *testing.T) {
	r := NewRing[int](3)
	for _, v := range []int{1, 2, 3} {
		if err := r.Enqueue(v); err != nil {
			t.Fatalf("Enqueue(%d): %v", v, err)
		}
	}
	if err := r.Enqueue(4); err != ErrRingFull {
		t.Fatalf("expected ErrRingFull, got %v", err)
	}

	for _, want := range []int{1, 2, 3} {
		got, err := r.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue: %v", err)
		}
		if got != want {
			t.Errorf("Dequeue = %d, want %d", got, want)
		}
	}
	if _, err := r.Dequeue(); err != ErrRingEmpty {
		t.Fatalf("expected ErrRingEmpty, got %v", err)
	}
}

func TestRingWrapsAroundAfterPartialDrain(t *testing.T) {
	r := NewRing[int](2)
	r.Enqueue(1)
	r.Enqueue(2)
	if v, _ := r.Dequeue(); v != 1 {
		t.Fatalf("got %d, want 1", v)
	}
	if err := r.Enqueue(3); err != nil {
		t.Fatalf("Enqueue after drain: %v", err)
	}
	if v, _ := r.Dequeue(); v != 2 {
		t.Fatalf("got %d, want 2", v)
	}
	if v, _ := r.Dequeue(); v != 3 {
		t.Fatalf("got %d, want 3", v)
	}
}

func TestIndexedRingAdvanceRotatesBuckets(t *testing.T) {
	r := NewIndexedRing[[]int](3, func() []int { return nil })

	*r.Current() = append(*r.Current(), 1)
	drained := r.Advance()
	if len(*drained) != 0 {
		t.Fatalf("expected freshly-rotated bucket to be empty, got %v", *drained)
	}

	*r.Current() = append(*r.Current(), 2)
	r.Advance()
	bucketWithOne := r.Advance()
	if len(*bucketWithOne) != 1 || (*bucketWithOne)[0] != 1 {
		t.Fatalf("expected to cycle back to bucket holding [1], got %v", *bucketWithOne)
	}
}
