package renderfeatures

// ViewIndex is the stable index assigned to a View when it is registered,
// valid for the lifetime of the frame it was registered for (spec §3).
type ViewIndex uint32

// ViewFrameIndex is the opaque index a frame packet hands out for a view at
// packet-creation time; per-view sub-packets and lookups use it instead of
// ViewIndex so a packet never needs to know about every registered view,
// only the ones relevant to its feature (spec §3).
type ViewFrameIndex uint32

// View is a rendering viewpoint: a camera, a shadow map, a UI projection.
// Views are registered once per frame and last for that frame only (spec
// §3).
type View struct {
	Index ViewIndex
	Name  string

	ViewMatrix       [16]float32
	ProjectionMatrix [16]float32
	Extents          [2]uint32

	// RelevantPhases and RelevantFeatures are bitmasks over
	// RenderPhaseIndex/RenderFeatureIndex; a 1 bit means this view
	// participates in that phase/feature this frame.
	RelevantPhases   uint64
	RelevantFeatures uint64
}

// HasPhase reports whether idx is set in RelevantPhases.
func (v *View) HasPhase(idx RenderPhaseIndex) bool {
	return v.RelevantPhases&(uint64(1)<<uint(idx)) != 0
}

// HasFeature reports whether idx is set in RelevantFeatures.
func (v *View) HasFeature(idx RenderFeatureIndex) bool {
	return v.RelevantFeatures&(uint64(1)<<uint(idx)) != 0
}

// ObjectID identifies a world object; RenderObjectID identifies the
// specific renderable attached to it (an object may own more than one
// render object, e.g. multiple mesh parts).
type ObjectID uint64
type RenderObjectID uint64

// VisiblePair is one (object, render-object) instance the visibility
// system determined should be drawn in a given (feature, view) pair (spec
// §4.9).
type VisiblePair struct {
	Object      ObjectID
	RenderObj   RenderObjectID
}

// Visibility is the contract spec §4.9 owes the core: for each registered
// view and feature, an iterable of visible pairs, snapshotted before
// Extract and stable through Prepare. The core only calls this; it never
// implements it (visibility/view model is an external collaborator).
type Visibility interface {
	VisibleInstances(view ViewIndex, feature RenderFeatureIndex) []VisiblePair
}

// StaticVisibility is a Visibility built from a fixed map, useful for
// tests and for features with no real visibility query.
type StaticVisibility struct {
	byViewFeature map[ViewIndex]map[RenderFeatureIndex][]VisiblePair
}

func NewStaticVisibility() *StaticVisibility {
	return &StaticVisibility{byViewFeature: make(map[ViewIndex]map[RenderFeatureIndex][]VisiblePair)}
}

// Set records the visible pairs for a (view, feature). Pairs must already
// be unique within the (feature, view) list per spec §4.9.
func (s *StaticVisibility) Set(view ViewIndex, feature RenderFeatureIndex, pairs []VisiblePair) {
	m, ok := s.byViewFeature[view]
	if !ok {
		m = make(map[RenderFeatureIndex][]VisiblePair)
		s.byViewFeature[view] = m
	}
	m[feature] = pairs
}

func (s *StaticVisibility) VisibleInstances(view ViewIndex, feature RenderFeatureIndex) []VisiblePair {
	m, ok := s.byViewFeature[view]
	if !ok {
		return nil
	}
	return m[feature]
}
