package resources

import (
	"sync"
	"sync/atomic"

	"github.com/renderframe/corepipeline/containers"
	"github.com/renderframe/corepipeline/core"
)

// WriteValue is a single pending descriptor-set write: an image view
// handle, a sampler, or raw bytes for a uniform buffer binding (spec
// §4.4 "image view handles or raw-bytes-for-uniform-buffers").
type WriteValue struct {
	Binding uint32
	Value   any
}

// DescriptorBackend is the slice of the backend trait surface (spec §6)
// the descriptor-set pool needs: allocate a chunk of raw descriptor sets
// from a backend pool, batch-apply pending writes, and destroy a raw set.
type DescriptorBackend[RawSet any] interface {
	AllocateChunk(layout any, chunkSize int) ([]RawSet, error)
	FlushWrites(set RawSet, writes []WriteValue) error
	DestroySet(set RawSet) error
}

// DescriptorSet is the strong handle a caller binds into a command
// buffer. Dropping its last Arc schedules the raw set for reuse after N
// frames (spec §4.4), exactly like any other deferred-drop resource.
type DescriptorSet[RawSet any] struct {
	Raw RawSet
}

// DescriptorSetPool is one pool per descriptor-set layout (spec §4.4). It
// owns a free list of raw sets, grows it in bounded chunks from the
// backend, and stages writes until FlushWrites, which makes one backend
// call per dirty set.
type DescriptorSetPool[RawSet any] struct {
	mu          sync.Mutex
	layout      any
	backend     DescriptorBackend[RawSet]
	chunkSize   int
	maxCapacity int
	capacity    int

	free []RawSet

	pendingMu sync.Mutex
	pending   map[*DescriptorSet[RawSet]][]WriteValue

	recycler *DeferredDropSink[RawSet]
	nextID   uint64
}

// NewDescriptorSetPool builds a pool for layout, growing the backend pool
// in chunkSize increments up to maxCapacity total sets, and recycling
// released sets after framesInFlight frame boundaries.
func NewDescriptorSetPool[RawSet any](layout any, backend DescriptorBackend[RawSet], chunkSize, maxCapacity, framesInFlight int) *DescriptorSetPool[RawSet] {
	p := &DescriptorSetPool[RawSet]{
		layout:      layout,
		backend:     backend,
		chunkSize:   containers.Clamp(chunkSize, 1, maxCapacity),
		maxCapacity: maxCapacity,
		pending:     make(map[*DescriptorSet[RawSet]][]WriteValue),
	}
	p.recycler = NewDeferredDropSink[RawSet](framesInFlight, func(raw RawSet) error {
		p.mu.Lock()
		p.free = append(p.free, raw)
		p.mu.Unlock()
		return nil
	})
	return p
}

// Allocate hands out a fresh set from the free list, or grows the backend
// pool by one chunk if the free list is empty. Returns
// core.ErrPoolExhausted, without panicking, if growing would exceed
// maxCapacity.
func (p *DescriptorSetPool[RawSet]) Allocate() (Arc[*DescriptorSet[RawSet]], error) {
	p.mu.Lock()
	if len(p.free) == 0 {
		if p.capacity+p.chunkSize > p.maxCapacity {
			p.mu.Unlock()
			return Arc[*DescriptorSet[RawSet]]{}, core.ErrPoolExhausted
		}
		chunk, err := p.backend.AllocateChunk(p.layout, p.chunkSize)
		if err != nil {
			p.mu.Unlock()
			return Arc[*DescriptorSet[RawSet]]{}, &core.ResourceCreateFailedError{Kind: "descriptor_set_chunk", Err: err}
		}
		p.capacity += p.chunkSize
		p.free = append(p.free, chunk...)
	}
	raw := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.mu.Unlock()

	set := &DescriptorSet[RawSet]{Raw: raw}
	id := atomic.AddUint64(&p.nextID, 1)
	arc := newArc(id, set, func() {
		p.pendingMu.Lock()
		delete(p.pending, set)
		p.pendingMu.Unlock()
		p.recycler.Retire(raw)
	})
	return arc, nil
}

// Write stages a binding write for set, to be applied on the next
// FlushWrites call for this pool (spec §4.4: "Writes are staged into the
// current frame's buffer").
func (p *DescriptorSetPool[RawSet]) Write(set *DescriptorSet[RawSet], binding uint32, value any) {
	p.pendingMu.Lock()
	p.pending[set] = append(p.pending[set], WriteValue{Binding: binding, Value: value})
	p.pendingMu.Unlock()
}

// FlushWrites applies every set's pending writes in one backend call per
// set (spec §4.4: "flushed in one backend call per pool per frame" — one
// call per dirty set is the granularity the backend trait surface
// exposes; pools with no dirty sets make zero backend calls).
func (p *DescriptorSetPool[RawSet]) FlushWrites() error {
	p.pendingMu.Lock()
	batch := p.pending
	p.pending = make(map[*DescriptorSet[RawSet]][]WriteValue)
	p.pendingMu.Unlock()

	for set, writes := range batch {
		if len(writes) == 0 {
			continue
		}
		if err := p.backend.FlushWrites(set.Raw, writes); err != nil {
			return err
		}
	}
	return nil
}

// OnFrameComplete flushes pending writes and ticks the recycler so sets
// released N frames ago return to the free list (spec §4.4).
func (p *DescriptorSetPool[RawSet]) OnFrameComplete() error {
	if err := p.FlushWrites(); err != nil {
		return err
	}
	return p.recycler.OnFrameComplete()
}

// Capacity and FreeCount report pool sizing, used by tests to assert a
// reused slot did not grow the pool (spec §8 scenario 5).
func (p *DescriptorSetPool[RawSet]) Capacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capacity
}

func (p *DescriptorSetPool[RawSet]) FreeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// PoolOfPools hands out per-thread borrow references to per-layout pools;
// flushing happens on return (spec §4.4). A borrow held across a frame
// boundary degrades recycling and logs a warning — never promoted to an
// error (spec §9 open question 1).
type PoolOfPools[RawSet any] struct {
	mu    sync.Mutex
	pools map[any]*DescriptorSetPool[RawSet]

	frame uint64
}

func NewPoolOfPools[RawSet any]() *PoolOfPools[RawSet] {
	return &PoolOfPools[RawSet]{pools: make(map[any]*DescriptorSetPool[RawSet])}
}

// RegisterPool associates a pool with its layout key, so Borrow can find
// it later. Called once per layout during static-resource initialization.
func (m *PoolOfPools[RawSet]) RegisterPool(layoutKey any, pool *DescriptorSetPool[RawSet]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools[layoutKey] = pool
}

// SetFrame updates the manager's notion of "current frame", used only to
// detect a borrow spanning a frame boundary.
func (m *PoolOfPools[RawSet]) SetFrame(frame uint64) {
	m.mu.Lock()
	m.frame = frame
	m.mu.Unlock()
}

// Borrow is a short-lived reference to one layout's pool. BorrowPool does
// not track outstanding borrows, so two borrows of the same layout can be
// held at once; exclusivity is not enforced.
type Borrow[RawSet any] struct {
	pool          *DescriptorSetPool[RawSet]
	manager       *PoolOfPools[RawSet]
	checkoutFrame uint64
}

// BorrowPool checks out the pool for layoutKey. Expected to be held for a
// small fraction of a frame (spec §4.4).
func (m *PoolOfPools[RawSet]) BorrowPool(layoutKey any) (*Borrow[RawSet], bool) {
	m.mu.Lock()
	pool, ok := m.pools[layoutKey]
	frame := m.frame
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	return &Borrow[RawSet]{pool: pool, manager: m, checkoutFrame: frame}, true
}

func (b *Borrow[RawSet]) Pool() *DescriptorSetPool[RawSet] { return b.pool }

// Return flushes the borrowed pool's writes. If the current frame has
// advanced since checkout, logs a warning per spec §4.4's invariant
// ("holding a borrow across a frame boundary degrades recycling and must
// log a warning") without otherwise failing.
func (b *Borrow[RawSet]) Return() error {
	b.manager.mu.Lock()
	current := b.manager.frame
	b.manager.mu.Unlock()
	if current != b.checkoutFrame {
		core.LogWarn("descriptor pool borrow held across a frame boundary (checked out at frame %d, returned at frame %d)", b.checkoutFrame, current)
	}
	return b.pool.FlushWrites()
}

// DynDescriptorSet wraps a descriptor-set handle plus a pending-write map
// (spec §4.4). Mutations append to the pending map; Flush either rebinds
// in place (if the backend reports it can, via canRebindInPlace) or
// allocates a fresh set and swaps the handle, letting the old one drop
// through the normal recycling path.
type DynDescriptorSet[RawSet any] struct {
	mu                sync.Mutex
	pool              *DescriptorSetPool[RawSet]
	current           Arc[*DescriptorSet[RawSet]]
	pending           []WriteValue
	canRebindInPlace  bool
}

// NewDynDescriptorSet allocates the initial set from pool.
func NewDynDescriptorSet[RawSet any](pool *DescriptorSetPool[RawSet], canRebindInPlace bool) (*DynDescriptorSet[RawSet], error) {
	arc, err := pool.Allocate()
	if err != nil {
		return nil, err
	}
	return &DynDescriptorSet[RawSet]{pool: pool, current: arc, canRebindInPlace: canRebindInPlace}, nil
}

// Write stages a binding update. Invisible until Flush is called (spec §8
// round-trip law).
func (d *DynDescriptorSet[RawSet]) Write(binding uint32, value any) {
	d.mu.Lock()
	d.pending = append(d.pending, WriteValue{Binding: binding, Value: value})
	d.mu.Unlock()
}

// Handle returns the current live Arc, safe to bind into a command
// buffer.
func (d *DynDescriptorSet[RawSet]) Handle() Arc[*DescriptorSet[RawSet]] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Flush applies staged writes. If the backend cannot rebind a live set in
// place, it allocates a new set, applies the writes there, and swaps the
// handle; the old Arc's Release() lets it drop through the pool's normal
// recycling path (spec §4.4).
func (d *DynDescriptorSet[RawSet]) Flush() error {
	d.mu.Lock()
	writes := d.pending
	d.pending = nil
	if len(writes) == 0 {
		d.mu.Unlock()
		return nil
	}

	if d.canRebindInPlace {
		set := d.current.Get()
		for _, w := range writes {
			d.pool.Write(set, w.Binding, w.Value)
		}
		d.mu.Unlock()
		return d.pool.FlushWrites()
	}

	old := d.current
	d.mu.Unlock()

	fresh, err := d.pool.Allocate()
	if err != nil {
		return err
	}
	for _, w := range writes {
		d.pool.Write(fresh.Get(), w.Binding, w.Value)
	}
	if err := d.pool.FlushWrites(); err != nil {
		fresh.Release()
		return err
	}

	d.mu.Lock()
	d.current = fresh
	d.mu.Unlock()
	old.Release()
	return nil
}
