package resources

import "testing"

type fakePipeline struct{ id int }

func TestPipelineCacheBuildsEagerlyWhenBothSidesPresent(t *testing.T) {
	built := 0
	cache := NewPipelineCache[string, string, *fakePipeline](
		func(materialPass, renderPass string, phase uint8) (Arc[*fakePipeline], error) {
			built++
			return newArc(uint64(built), &fakePipeline{id: built}, func() {}), nil
		}, 3)

	if err := cache.RegisterMaterialToPhase("opaque-mat", 0); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.FindPipeline("opaque-mat", "main-pass"); ok {
		t.Fatal("expected no pipeline before the render-pass side is registered")
	}

	if err := cache.RegisterRenderPassToPhase("main-pass", 0); err != nil {
		t.Fatal(err)
	}
	arc, ok := cache.FindPipeline("opaque-mat", "main-pass")
	if !ok {
		t.Fatal("expected a pipeline once both sides are registered for the same phase")
	}
	arc.Release()
	if built != 1 {
		t.Fatalf("expected exactly 1 pipeline build, got %d", built)
	}
}

func TestPipelineCacheEvictsAfterKeepAliveExpires(t *testing.T) {
	cache := NewPipelineCache[string, string, *fakePipeline](
		func(materialPass, renderPass string, phase uint8) (Arc[*fakePipeline], error) {
			return newArc(1, &fakePipeline{}, func() {}), nil
		}, 2)

	cache.RegisterMaterialToPhase("mat", 0)
	cache.RegisterRenderPassToPhase("pass", 0)

	if _, ok := cache.FindPipeline("mat", "pass"); !ok {
		t.Fatal("expected pipeline immediately after registration")
	}

	for i := 0; i < 3; i++ { // outlive the 2-frame keep-alive without renewing it
		cache.OnFrameComplete()
	}
	if _, ok := cache.FindPipeline("mat", "pass"); ok {
		t.Fatal("expected pipeline to have been evicted once the render-pass keep-alive expired")
	}
}
