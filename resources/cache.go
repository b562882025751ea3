package resources

import (
	"sync"
	"sync/atomic"

	"github.com/renderframe/corepipeline/core"
)

// Desc is a structural description of a GPU object: hashable, and
// equality-comparable by value (spec §3 "Desc"). Two equal Desc values
// must map to equivalent GPU objects.
type Desc interface {
	comparable
	Hash() uint64
}

// entry is the per-slot bookkeeping: the Desc that produced this
// object (kept around so a hash collision can be confirmed or rejected by
// value equality, per spec §4.2) and a weak handle to the cached object.
type entry[D Desc, T any] struct {
	desc D
	weak WeakArc[T]
}

// Cache is a hash-keyed intern table mapping Desc values to live GPU
// objects (spec §4.2). One Cache exists per resource kind (shader module,
// descriptor-set layout, pipeline layout, render pass, graphics pipeline,
// sampler, image, image view, buffer) — callers instantiate
// Cache[MyDesc, MyHandle] once per kind.
type Cache[D Desc, T any] struct {
	mu      sync.Mutex
	byHash  map[uint64][]*entry[D, T]
	nextID  uint64
	create  func(D) (T, error)
	destroy func(T) error
	sink    *DeferredDropSink[T]

	inflight map[uint64]*sync.WaitGroup
}

// NewCache builds a Cache whose create function asks the backend to build
// a fresh T from a Desc. Released resources are retired to sink, which
// destroys them with its own destroy function; destroy is called only on
// a value built by a creation that lost a race to an equal Desc.
// sink must tick once per frame via its own OnFrameComplete, driven by the
// same clock that drives Cache.OnFrameComplete.
func NewCache[D Desc, T any](create func(D) (T, error), destroy func(T) error, sink *DeferredDropSink[T]) *Cache[D, T] {
	return &Cache[D, T]{
		byHash:   make(map[uint64][]*entry[D, T]),
		create:   create,
		destroy:  destroy,
		sink:     sink,
		inflight: make(map[uint64]*sync.WaitGroup),
	}
}

// GetOrInsert returns a shared Arc for desc, creating the backing object
// on a miss. Concurrent calls for the same Desc coalesce around the
// hash's in-flight marker instead of racing the backend (spec §5:
// "concurrent get_or_insert on the same Desc must coalesce").
func (c *Cache[D, T]) GetOrInsert(desc D) (Arc[T], error) {
	h := desc.Hash()

	for {
		c.mu.Lock()
		if arc, ok := c.lookupLocked(h, desc); ok {
			c.mu.Unlock()
			return arc, nil
		}
		if wg, waiting := c.inflight[h]; waiting {
			c.mu.Unlock()
			wg.Wait()
			continue // re-check: the in-flight creator may have been for a different Desc at the same hash
		}
		wg := &sync.WaitGroup{}
		wg.Add(1)
		c.inflight[h] = wg
		c.mu.Unlock()

		value, err := c.create(desc)

		c.mu.Lock()
		delete(c.inflight, h)
		c.mu.Unlock()
		wg.Done()

		if err != nil {
			return Arc[T]{}, &core.ResourceCreateFailedError{Kind: "resource", Err: err}
		}

		c.mu.Lock()
		// Double-check: another goroutine may have inserted the same Desc
		// (at a different hash bucket slot) while we were creating.
		if arc, ok := c.lookupLocked(h, desc); ok {
			c.mu.Unlock()
			c.destroy(value) // lost the race; drop what we just built
			return arc, nil
		}
		id := atomic.AddUint64(&c.nextID, 1)
		e := &entry[D, T]{desc: desc}
		arc := newArc(id, value, func() { c.onRelease(h, desc) })
		e.weak = arc.Downgrade()
		c.byHash[h] = append(c.byHash[h], e)
		c.mu.Unlock()
		return arc, nil
	}
}

// lookupLocked must be called with c.mu held. It confirms a hash hit
// against Desc equality before returning a handle, so a hash collision
// never produces a false positive (spec §4.2).
func (c *Cache[D, T]) lookupLocked(h uint64, desc D) (Arc[T], bool) {
	for _, e := range c.byHash[h] {
		if e.desc == desc {
			if arc, ok := e.weak.Upgrade(); ok {
				return arc, true
			}
		}
	}
	return Arc[T]{}, false
}

// onRelease runs when the last strong Arc for desc drops. It moves the
// raw object into the deferred-drop sink and removes the map entry (spec
// §4.2's three-step receive-drop sequence).
func (c *Cache[D, T]) onRelease(h uint64, desc D) {
	c.mu.Lock()
	entries := c.byHash[h]
	var value T
	found := false
	for i, e := range entries {
		if e.desc == desc {
			if arc, ok := e.weak.Upgrade(); ok {
				// Someone re-acquired it between the refcount hitting zero
				// and us taking the lock; release back and do nothing.
				arc.Release()
				c.mu.Unlock()
				return
			}
			value = e.weak.state.value
			found = true
			c.byHash[h] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	if found {
		c.sink.Retire(value)
	}
}

// OnFrameComplete advances the cache's deferred-drop sink by one frame
// boundary (spec §4.2).
func (c *Cache[D, T]) OnFrameComplete() error {
	return c.sink.OnFrameComplete()
}

// Destroy drains the sink unconditionally. Must only be called on
// shutdown, after the device has gone idle (spec §4.2).
func (c *Cache[D, T]) Destroy() error {
	return c.sink.Destroy()
}

// Len reports the number of live (not-yet-released) entries, for tests
// and diagnostics.
func (c *Cache[D, T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, entries := range c.byHash {
		n += len(entries)
	}
	return n
}
