package resources

import "testing"

func TestDynResourceSetNeverDedupes(t *testing.T) {
	sink := NewDeferredDropSink[string](1, func(string) error { return nil })
	set := NewDynResourceSet[string](sink)

	a := set.Insert("scratch-buffer")
	b := set.Insert("scratch-buffer")
	if a.ID() == b.ID() {
		t.Fatal("expected distinct ids for two separate Insert calls with equal values")
	}
	if set.Len() != 2 {
		t.Fatalf("expected 2 live entries, got %d", set.Len())
	}
}

func TestDynResourceSetGetAndRelease(t *testing.T) {
	var destroyed []string
	sink := NewDeferredDropSink[string](1, func(v string) error {
		destroyed = append(destroyed, v)
		return nil
	})
	set := NewDynResourceSet[string](sink)

	arc := set.Insert("frame-scratch")
	got, ok := set.Get(arc.ID())
	if !ok || got.Get() != "frame-scratch" {
		t.Fatalf("expected Get to find the inserted value, got %v ok=%v", got, ok)
	}
	got.Release()

	arc.Release()
	set.OnFrameComplete()
	set.OnFrameComplete()
	if len(destroyed) != 1 || destroyed[0] != "frame-scratch" {
		t.Fatalf("expected the retired value to be destroyed, got %v", destroyed)
	}
	if _, ok := set.Get(arc.ID()); ok {
		t.Fatal("expected Get to miss after release")
	}
}
