package renderfeatures

import (
	"context"
	"testing"

	"github.com/renderframe/corepipeline/jobqueue"
)

// requiresVisibleFeature never contributes any callbacks; it exists only
// to assert it gets skipped for a view with zero visible instances (spec
// §8 boundary behavior).
type requiresVisibleFeature struct {
	index   RenderFeatureIndex
	invoked *bool
}

func (f *requiresVisibleFeature) FeatureIndex() RenderFeatureIndex  { return f.index }
func (f *requiresVisibleFeature) IsViewRelevant(v *View) bool        { return true }
func (f *requiresVisibleFeature) RequiresVisibleRenderObjects() bool { return true }
func (f *requiresVisibleFeature) CalculateFramePacketSize(vis Visibility, views []*View) FramePacketSize {
	return FramePacketSize{}
}
func (f *requiresVisibleFeature) InitializeStaticResources(cache any) error { return nil }
func (f *requiresVisibleFeature) NewExtractJob(packet *FramePacket) ExtractJob {
	*f.invoked = true
	return noopExtractJob{}
}
func (f *requiresVisibleFeature) NewSubmitPacket(packet *FramePacket) *SubmitPacket {
	return NewSubmitPacket(packet)
}
func (f *requiresVisibleFeature) NewPrepareJob(fp *FramePacket, sp *SubmitPacket) PrepareJob {
	return &distancePrepareJob{sp: sp}
}
func (f *requiresVisibleFeature) NewWriteJob(sp *SubmitPacket) WriteJob {
	return &recordingWriteJob{}
}

func TestFeatureRequiringVisibleObjectsSkipsEmptyView(t *testing.T) {
	registry := NewRegistry()
	featureIdx := registry.RegisterFeature("needs-visible")
	registry.RegisterPhase("opaque", FrontToBack)
	registry.Freeze()

	invoked := false
	feature := &requiresVisibleFeature{index: featureIdx, invoked: &invoked}
	driver := NewDriver(registry, jobqueue.Inline{})

	// No view at all: feature has zero relevant views, RequiresVisibleRenderObjects
	// must short-circuit before NewExtractJob is ever called.
	if err := driver.RunFrame(context.Background(), nil, nil, NewStaticVisibility(), []FeaturePlugin{feature}, nil, 0); err != nil {
		t.Fatalf("RunFrame error: %v", err)
	}
	if invoked {
		t.Fatal("expected NewExtractJob not to be called for a feature with no relevant views")
	}

	// One view with zero visible instances: the view is dropped for this
	// feature, which again leaves it with no views and skips it.
	empty := &View{Index: 0, Name: "empty"}
	if err := driver.RunFrame(context.Background(), nil, nil, NewStaticVisibility(), []FeaturePlugin{feature}, []*View{empty}, 0); err != nil {
		t.Fatalf("RunFrame error: %v", err)
	}
	if invoked {
		t.Fatal("expected NewExtractJob not to be called for a view with zero visible instances")
	}
}

func TestZeroViewFrameCompletesAllPhases(t *testing.T) {
	registry := NewRegistry()
	featureIdx := registry.RegisterFeature("mesh")
	registry.RegisterPhase("opaque", FrontToBack)
	registry.Freeze()

	var log []string
	feature := &logFeature{index: featureIdx, log: &log}
	driver := NewDriver(registry, jobqueue.Inline{})

	if err := driver.RunFrame(context.Background(), nil, nil, NewStaticVisibility(), []FeaturePlugin{feature}, nil, 0); err != nil {
		t.Fatalf("RunFrame error on zero-view frame: %v", err)
	}
	// begin/end extract and prepare still fire; no per-view callbacks do
	// because there are no views.
	want := []string{"begin_extract", "extract_inst(0)", "end_extract", "begin_prepare", "prepare_inst(0)", "end_prepare"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
}
