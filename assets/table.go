// Package assets implements the three-message asset load protocol spec §6
// describes — update/commit/error, later free — plus a dev-mode fsnotify
// watcher that drives it. Asset decoding itself (glTF, image, font) stays
// an external collaborator; this package only tracks committed vs.
// uncommitted state per handle.
package assets

import (
	"sync"

	"github.com/renderframe/corepipeline/core"
	"github.com/renderframe/corepipeline/slab"
)

// Handle addresses one load slot in a Table. It is a generational slab
// key, so a handle outliving its Free call is detectably stale rather
// than silently aliasing whatever loads into the same slot next.
type Handle = slab.GenKey

// Op identifies what kind of update payload is being applied — an
// application-defined tag (e.g. "image bytes", "material desc"); the
// table itself never interprets it.
type Op uint32

type assetSlot struct {
	uncommitted any
	committed   any
	err         error
}

// Table implements the per-asset protocol: Update(handle, op, data)
// followed by Commit(handle) or Error(handle, err); later Free(handle).
// GetCommitted always reads the committed slot, never the uncommitted
// one, so a feature never observes a half-applied update (spec §6).
type Table struct {
	mu   sync.RWMutex
	slab *slab.GenSlab[assetSlot]
}

func NewTable() *Table {
	return &Table{slab: slab.NewGenSlab[assetSlot]()}
}

// Alloc reserves a new load slot, with nothing committed yet.
func (t *Table) Alloc() Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.slab.Allocate(assetSlot{})
}

// Update stages data into the uncommitted slot. op is opaque to the
// table; callers use it to distinguish payload shapes (full replace vs.
// incremental patch) the way they see fit.
func (t *Table) Update(h Handle, op Op, data any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot := t.slab.GetPtr(h)
	if slot == nil {
		return core.ErrStaleHandle
	}
	slot.uncommitted = data
	slot.err = nil
	return nil
}

// Commit atomically swaps uncommitted into committed (spec §6:
// "set_uncommitted/commit allows atomic swaps"). GetCommitted observers
// see either the old or the new value, never a partial one.
func (t *Table) Commit(h Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot := t.slab.GetPtr(h)
	if slot == nil {
		return core.ErrStaleHandle
	}
	slot.committed = slot.uncommitted
	slot.err = nil
	return nil
}

// Error marks h's most recent Update as failed. The asset-layer error is
// recovered locally here: GetCommitted keeps returning whatever was last
// committed (spec §7: "asset-layer errors are recovered locally").
func (t *Table) Error(h Handle, err error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot := t.slab.GetPtr(h)
	if slot == nil {
		return core.ErrStaleHandle
	}
	slot.err = err
	core.LogWarn("asset table: load failed for handle %v: %v", h, err)
	return nil
}

// Free releases h. Any feature still holding the generational key will
// get a stale miss on its next lookup.
func (t *Table) Free(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slab.Free(h)
}

// GetCommitted is what a feature sees: the committed value, or (nil,
// false) if nothing has been committed yet.
func (t *Table) GetCommitted(h Handle) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	slot, ok := t.slab.Get(h)
	if !ok || slot.committed == nil {
		return nil, false
	}
	return slot.committed, true
}

// LastError returns the error from the most recent failed Update, if any.
func (t *Table) LastError(h Handle) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	slot, ok := t.slab.Get(h)
	if !ok {
		return core.ErrStaleHandle
	}
	return slot.err
}
