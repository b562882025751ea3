package resources

import "testing"

type fakeRawSet struct{ id int }

type fakeDescriptorBackend struct {
	created    int
	flushCalls [][]WriteValue
}

func (b *fakeDescriptorBackend) AllocateChunk(layout any, chunkSize int) ([]fakeRawSet, error) {
	sets := make([]fakeRawSet, chunkSize)
	for i := range sets {
		b.created++
		sets[i] = fakeRawSet{id: b.created}
	}
	return sets, nil
}

func (b *fakeDescriptorBackend) FlushWrites(set fakeRawSet, writes []WriteValue) error {
	b.flushCalls = append(b.flushCalls, writes)
	return nil
}

func (b *fakeDescriptorBackend) DestroySet(set fakeRawSet) error { return nil }

func TestDescriptorSetPoolReusesAfterNFrames(t *testing.T) {
	backend := &fakeDescriptorBackend{}
	pool := NewDescriptorSetPool[fakeRawSet]("layout-a", backend, 4, 64, 2)

	arc, err := pool.Allocate()
	if err != nil {
		t.Fatal(err)
	}
	capacityAfterFirstAlloc := pool.Capacity()

	arc.Release()
	for i := 0; i < 3; i++ { // N+1 ticks
		pool.OnFrameComplete()
	}
	if got := pool.FreeCount(); got != 4 {
		t.Fatalf("expected the full chunk (4) back in the free list, got %d", got)
	}

	arc2, err := pool.Allocate()
	if err != nil {
		t.Fatal(err)
	}
	defer arc2.Release()

	if pool.Capacity() != capacityAfterFirstAlloc {
		t.Fatalf("second allocation grew the pool: capacity %d != %d", pool.Capacity(), capacityAfterFirstAlloc)
	}
	if backend.created != 4 {
		t.Fatalf("expected only the first chunk's 4 sets ever created, got %d", backend.created)
	}
}

func TestDescriptorSetPoolAssertsOnExhaustion(t *testing.T) {
	backend := &fakeDescriptorBackend{}
	pool := NewDescriptorSetPool[fakeRawSet]("layout-a", backend, 4, 4, 2)

	held := make([]Arc[*DescriptorSet[fakeRawSet]], 0, 4)
	for i := 0; i < 4; i++ {
		arc, err := pool.Allocate()
		if err != nil {
			t.Fatalf("unexpected error on allocation %d: %v", i, err)
		}
		held = append(held, arc)
	}

	if _, err := pool.Allocate(); err == nil {
		t.Fatal("expected PoolExhausted once maxCapacity is reached")
	}
	for _, h := range held {
		h.Release()
	}
}

func TestDynDescriptorSetFlushMakesWritesVisible(t *testing.T) {
	backend := &fakeDescriptorBackend{}
	pool := NewDescriptorSetPool[fakeRawSet]("layout-b", backend, 2, 16, 2)

	dyn, err := NewDynDescriptorSet[fakeRawSet](pool, true)
	if err != nil {
		t.Fatal(err)
	}

	dyn.Write(0, "texture-a")
	if len(backend.flushCalls) != 0 {
		t.Fatal("write before Flush must not reach the backend")
	}
	if err := dyn.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(backend.flushCalls) != 1 || len(backend.flushCalls[0]) != 1 || backend.flushCalls[0][0].Value != "texture-a" {
		t.Fatalf("expected exactly the flushed write to reach the backend, got %v", backend.flushCalls)
	}
}
