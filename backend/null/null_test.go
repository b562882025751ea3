package null

import (
	"testing"

	"github.com/renderframe/corepipeline/backend"
	"github.com/renderframe/corepipeline/resources"
)

// TestNullBackendRecordsCreateAndDestroy exercises the create/destroy
// trait surface directly: a render pass is reported alive right after
// creation and destroyed after DestroyRenderPass.
func TestNullBackendRecordsCreateAndDestroy(t *testing.T) {
	b := New()
	h, err := b.CreateRenderPass(backend.RenderPassDesc{ColorCount: 1})
	if err != nil {
		t.Fatal(err)
	}
	if b.IsDestroyed(h) {
		t.Fatal("expected render pass to be alive right after creation")
	}
	b.DestroyRenderPass(h)
	if !b.IsDestroyed(h) {
		t.Fatal("expected render pass to be destroyed")
	}
}

// TestNullBackendBehindDeferredDropSink drives a resources.DeferredDropSink
// whose destroy func calls into the null backend, confirming the deferred
// drop cycle and the backend trait surface compose correctly.
func TestNullBackendBehindDeferredDropSink(t *testing.T) {
	b := New()
	sink := resources.NewDeferredDropSink(2, func(h backend.Handle) error {
		b.DestroyRenderPass(h)
		return nil
	})

	h, err := b.CreateRenderPass(backend.RenderPassDesc{ColorCount: 1})
	if err != nil {
		t.Fatal(err)
	}
	sink.Retire(h)

	for i := 0; i < 3; i++ {
		if b.IsDestroyed(h) {
			t.Fatalf("render pass destroyed too early at tick %d", i)
		}
		sink.OnFrameComplete()
	}
	if !b.IsDestroyed(h) {
		t.Fatal("expected render pass destroyed after N+1 ticks")
	}
}
