package renderfeatures

import "testing"

func TestRegistryAssignsStableIndices(t *testing.T) {
	r := NewRegistry()
	mesh := r.RegisterFeature("mesh")
	sprite := r.RegisterFeature("sprite")
	if mesh == sprite {
		t.Fatalf("expected distinct indices, got %d and %d", mesh, sprite)
	}

	opaque := r.RegisterPhase("opaque", FrontToBack)
	transparent := r.RegisterPhase("transparent", BackToFront)
	r.Freeze()

	if got, _ := r.RenderPhaseIndexFromName("transparent"); got != transparent {
		t.Fatalf("RenderPhaseIndexFromName(transparent) = %d, want %d", got, transparent)
	}
	if r.PhaseName(opaque) != "opaque" {
		t.Fatalf("PhaseName(opaque) = %q", r.PhaseName(opaque))
	}
	if r.FeatureName(mesh) != "mesh" {
		t.Fatalf("FeatureName(mesh) = %q", r.FeatureName(mesh))
	}
}

func TestRegistryStampsDistinctOwnerTags(t *testing.T) {
	r := NewRegistry()
	mesh := r.RegisterFeature("mesh")
	sprite := r.RegisterFeature("sprite")
	opaque := r.RegisterPhase("opaque", FrontToBack)
	r.Freeze()

	if r.FeatureOwnerTag(mesh) == r.FeatureOwnerTag(sprite) {
		t.Fatalf("expected distinct owner tags, got %d for both", r.FeatureOwnerTag(mesh))
	}
	// Owner tags are drawn from the same process-wide table as features,
	// so a phase's tag must not collide with either feature's.
	if r.PhaseOwnerTag(opaque) == r.FeatureOwnerTag(mesh) || r.PhaseOwnerTag(opaque) == r.FeatureOwnerTag(sprite) {
		t.Fatalf("expected phase owner tag to be distinct from feature owner tags")
	}
}

func TestRegistryPanicsAfterFreeze(t *testing.T) {
	r := NewRegistry()
	r.Freeze()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic registering a feature after freeze")
		}
	}()
	r.RegisterFeature("too-late")
}

func TestViewBitmasks(t *testing.T) {
	r := NewRegistry()
	opaque := r.RegisterPhase("opaque", FrontToBack)
	shadow := r.RegisterPhase("shadow", FrontToBack)
	r.Freeze()

	v := &View{RelevantPhases: uint64(1) << uint(opaque)}
	if !v.HasPhase(opaque) {
		t.Fatal("expected opaque phase to be relevant")
	}
	if v.HasPhase(shadow) {
		t.Fatal("expected shadow phase to be irrelevant")
	}
}
