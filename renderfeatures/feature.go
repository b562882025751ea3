package renderfeatures

import "context"

// ExtractContext is what a feature's ExtractJob sees. World and Assets are
// opaque to the core (spec §1: "consumes ... opaque resource descriptions,
// a visibility query"); features type-assert them to whatever concrete
// world/asset-store type the embedding application uses.
type ExtractContext struct {
	Ctx        context.Context
	World      any
	Assets     any
	Visibility Visibility
	FrameIndex uint64
}

// PrepareContext is what a feature's PrepareJob sees. The world is no
// longer reachable (spec §4.8: "Prepare ... the world is no longer
// accessible"); only the frame packet (read) and submit packet (write).
type PrepareContext struct {
	Ctx        context.Context
	FrameIndex uint64
}

// WriteContext is what a feature's WriteJob sees during the Write phase.
// CommandBuffer is opaque to the core; the concrete backend defines its
// shape (spec §6).
type WriteContext struct {
	Ctx           context.Context
	CommandBuffer any
	View          *View
	Phase         RenderPhaseIndex
}

// ExtractJob is the per-feature, per-frame Extract driver (spec §4.8). The
// engine-wide call shape is:
//
//	BeginPerFrameExtract(ctx)
//	for i in instances: ExtractRenderObjectInstance(ctx, i)
//	for each view v:
//	  for i in v's instances: ExtractRenderObjectInstancePerView(ctx, v, i)
//	  EndPerViewExtract(ctx, v)
//	EndPerFrameExtract(ctx)
type ExtractJob interface {
	BeginPerFrameExtract(ctx *ExtractContext) error
	ExtractRenderObjectInstance(ctx *ExtractContext, instanceIndex int) error
	ExtractRenderObjectInstancePerView(ctx *ExtractContext, view *View, viewFrameIdx ViewFrameIndex, instanceIndex int) error
	EndPerViewExtract(ctx *ExtractContext, view *View, viewFrameIdx ViewFrameIndex) error
	EndPerFrameExtract(ctx *ExtractContext) error
}

// PrepareJob is the per-feature, per-frame Prepare driver; same call shape
// as ExtractJob, but resolving frame-packet data into submit-packet
// bindings and submit nodes instead of reading the world.
type PrepareJob interface {
	BeginPerFramePrepare(ctx *PrepareContext) error
	PrepareRenderObjectInstance(ctx *PrepareContext, instanceIndex int) error
	PrepareRenderObjectInstancePerView(ctx *PrepareContext, view *View, viewFrameIdx ViewFrameIndex, instanceIndex int) error
	EndPerViewPrepare(ctx *PrepareContext, view *View, viewFrameIdx ViewFrameIndex) error
	EndPerFramePrepare(ctx *PrepareContext) error
}

// WriteJob is the per-feature Write driver. For each contiguous run of
// submit nodes belonging to this feature within one (view, phase), the
// driver calls ApplySetup once then RenderSubmitNode once per node (spec
// §4.8: "implicit teardown is per-feature, per-run").
type WriteJob interface {
	ApplySetup(ctx *WriteContext) error
	RenderSubmitNode(ctx *WriteContext, submitNodeID int32) error
}

// FeaturePlugin is the compile-time-registered contributor surface (spec
// §6 "feature-plugin trait surface").
type FeaturePlugin interface {
	FeatureIndex() RenderFeatureIndex

	// IsViewRelevant reports whether this feature contributes anything to
	// view at all (spec §8: "for any view not included in
	// is_view_relevant, no extract/prepare/write callbacks for that view
	// fire").
	IsViewRelevant(view *View) bool

	// RequiresVisibleRenderObjects, if true, means the driver skips this
	// feature entirely for a view with zero visible instances (spec §8
	// "A feature marked as requiring visible objects is skipped for views
	// with none").
	RequiresVisibleRenderObjects() bool

	CalculateFramePacketSize(visibility Visibility, views []*View) FramePacketSize

	NewExtractJob(packet *FramePacket) ExtractJob
	NewSubmitPacket(packet *FramePacket) *SubmitPacket
	NewPrepareJob(framePacket *FramePacket, submitPacket *SubmitPacket) PrepareJob
	NewWriteJob(submitPacket *SubmitPacket) WriteJob

	// InitializeStaticResources is called once, outside the frame loop,
	// to let the feature build any pipelines/descriptor-set layouts it
	// needs from the resource cache (spec §6).
	InitializeStaticResources(cache any) error
}
