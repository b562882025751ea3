package renderfeatures

// SubmitNode is a record referring back into a feature's submit packet:
// "enough for a later sort, and enough to look back into the submit packet
// to render it" (spec §3).
type SubmitNode struct {
	FeatureIndex RenderFeatureIndex
	SubmitNodeID int32
	SortKey      uint32
	Distance     float32
}

// SortComparator orders two submit nodes within one (view, phase) bucket.
// Returning true means a sorts before b. The contract in spec §4.8/§8 is
// that the merge+sort the Submit phase performs is stable under this
// comparator.
type SortComparator func(a, b SubmitNode) bool

// BackToFront sorts by decreasing distance — the phase comparator a
// Transparent pass registers (spec §3 "transparent sorts back-to-front by
// distance").
func BackToFront(a, b SubmitNode) bool {
	return a.Distance > b.Distance
}

// FrontToBack sorts by increasing distance — typical for an opaque or
// depth-prepass phase wanting early-z rejection.
func FrontToBack(a, b SubmitNode) bool {
	return a.Distance < b.Distance
}

// SortKeyAscending sorts by the feature-supplied batching key, ignoring
// distance entirely — the alternative spec §3 describes for opaque passes
// ("or by sort-key for batching").
func SortKeyAscending(a, b SubmitNode) bool {
	return a.SortKey < b.SortKey
}
