// Package renderfeatures implements the frame job pipeline (spec §4.7-4.10):
// the frame and submit packets, the Extract/Prepare/Submit/Write driver, the
// render view and render phase types, and the process-wide registry that
// assigns them stable indices.
package renderfeatures

import (
	"fmt"
	"sort"
	"sync"

	"github.com/renderframe/corepipeline/core"
)

// RenderFeatureIndex is a stable, process-wide index assigned to a render
// feature (Mesh, Sprite, Text, Debug3D, ...) at registry build time.
type RenderFeatureIndex uint8

// RenderPhaseIndex is a stable, process-wide index assigned to a render
// phase (Opaque, Transparent, Shadow, UI, ...) at registry build time.
type RenderPhaseIndex uint8

// MaxFeatures/MaxPhases bound the bitmasks View uses to declare which
// features and phases it cares about (spec §3 "a bitmask of relevant
// render-phases, a bitmask of relevant features").
const (
	MaxFeatures = 64
	MaxPhases   = 64
)

// Registry assigns RenderFeatureIndex and RenderPhaseIndex at startup,
// freezes before the first frame, and is never mutated again (spec §9
// "Global registry ... filled at startup ... frozen before first frame, no
// teardown"). It is the single source of truth the Submit phase consults
// for phase sort comparators.
type Registry struct {
	mu          sync.Mutex
	frozen      bool
	features    []string
	featureTags []uint32
	phases      []phaseEntry
}

type phaseEntry struct {
	name       string
	comparator SortComparator
	ownerTag   uint32
}

// NewRegistry creates an empty, unfrozen registry. Each plugin's
// configure_render_registry callback (spec §9) calls RegisterFeature /
// RegisterPhase against the same Registry before Freeze is called.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterFeature assigns name the next RenderFeatureIndex. Panics if the
// registry is already frozen or the feature budget is exhausted. The
// RenderFeatureIndex itself stays a dense slice position (it indexes
// straight into View's feature bitmask and the driver's per-feature
// maps), but each registration also stamps a process-wide owner tag via
// core.IdentifierAcquire, the same global slot table core/identifier.go
// keeps for debug-visible owner bookkeeping — FeatureOwnerTag surfaces it
// for logging/diagnostics.
func (r *Registry) RegisterFeature(name string) RenderFeatureIndex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		panic("renderfeatures: cannot register feature " + name + " after registry freeze")
	}
	if len(r.features) >= MaxFeatures {
		panic("renderfeatures: feature registry exhausted")
	}
	r.features = append(r.features, name)
	r.featureTags = append(r.featureTags, core.IdentifierAcquire(name))
	return RenderFeatureIndex(len(r.features) - 1)
}

// FeatureOwnerTag returns the core.IdentifierAcquire slot stamped on idx
// at registration time, for debug tooling.
func (r *Registry) FeatureOwnerTag(idx RenderFeatureIndex) uint32 {
	return r.featureTags[idx]
}

// RegisterPhase assigns name the next RenderPhaseIndex and binds it to the
// sort comparator the Submit phase uses for every submit-node block in this
// phase (spec §3 "Each phase provides a sort comparator over submit
// nodes"). Like RegisterFeature, it also stamps a core.IdentifierAcquire
// owner tag for debug tooling; the index itself remains the dense slice
// position other packages key off of.
func (r *Registry) RegisterPhase(name string, comparator SortComparator) RenderPhaseIndex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		panic("renderfeatures: cannot register phase " + name + " after registry freeze")
	}
	if len(r.phases) >= MaxPhases {
		panic("renderfeatures: phase registry exhausted")
	}
	r.phases = append(r.phases, phaseEntry{name: name, comparator: comparator, ownerTag: core.IdentifierAcquire(name)})
	return RenderPhaseIndex(len(r.phases) - 1)
}

// PhaseOwnerTag returns the core.IdentifierAcquire slot stamped on idx at
// registration time, for debug tooling.
func (r *Registry) PhaseOwnerTag(idx RenderPhaseIndex) uint32 {
	return r.phases[idx].ownerTag
}

// Freeze locks the registry against further registration. Must be called
// once, before the first frame.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// FeatureName returns the debug name registered for idx.
func (r *Registry) FeatureName(idx RenderFeatureIndex) string {
	if int(idx) >= len(r.features) {
		return fmt.Sprintf("feature#%d", idx)
	}
	return r.features[idx]
}

// PhaseName returns the debug name registered for idx.
func (r *Registry) PhaseName(idx RenderPhaseIndex) string {
	if int(idx) >= len(r.phases) {
		return fmt.Sprintf("phase#%d", idx)
	}
	return r.phases[idx].name
}

// NumFeatures and NumPhases report the registered counts, valid only after
// Freeze.
func (r *Registry) NumFeatures() int { return len(r.features) }
func (r *Registry) NumPhases() int   { return len(r.phases) }

// PhaseComparator returns the sort comparator registered for idx, used by
// the Submit phase (spec §4.8).
func (r *Registry) PhaseComparator(idx RenderPhaseIndex) SortComparator {
	if int(idx) >= len(r.phases) {
		panic("renderfeatures: phase index out of range")
	}
	return r.phases[idx].comparator
}

// RenderPhaseIndexFromName maps a human-readable phase name back to its
// index, for config files and debug tooling (spec §4.10).
func (r *Registry) RenderPhaseIndexFromName(name string) (RenderPhaseIndex, bool) {
	for i, p := range r.phases {
		if p.name == name {
			return RenderPhaseIndex(i), true
		}
	}
	return 0, false
}

// SortPhaseNames returns registered phase names sorted alphabetically, useful for
// deterministic iteration in tests and diagnostics.
func (r *Registry) SortPhaseNames() []string {
	names := make([]string, len(r.phases))
	for i, p := range r.phases {
		names[i] = p.name
	}
	sort.Strings(names)
	return names
}
