package resources

import (
	"sync"

	"github.com/renderframe/corepipeline/containers"
	"github.com/renderframe/corepipeline/core"
)

// DeferredDropSink keeps a retired object alive for N frame boundaries —
// the platform-required "max frames in flight" — before handing it to
// the backend destroy call. It is the component spec §4.3 describes and
// the single largest source of GPU use-after-free if its ordering is
// violated: an object retired in frame k is destroyed no earlier than
// the completion of frame k+N.
type DeferredDropSink[T any] struct {
	mu      sync.Mutex
	buckets *containers.IndexedRing[[]T]
	destroy func(T) error
}

// NewDeferredDropSink creates a sink with framesInFlight+1 buckets — one
// "current" bucket plus one per frame that may still be in flight on the
// GPU — and destroy as the backend teardown call for a retired object.
func NewDeferredDropSink[T any](framesInFlight int, destroy func(T) error) *DeferredDropSink[T] {
	if framesInFlight < 1 {
		panic("resources: framesInFlight must be >= 1")
	}
	return &DeferredDropSink[T]{
		buckets: containers.NewIndexedRing[[]T](framesInFlight+1, func() []T { return nil }),
		destroy: destroy,
	}
}

// Retire pushes obj into the current bucket. It will be destroyed no
// sooner than N calls to OnFrameComplete from now.
func (s *DeferredDropSink[T]) Retire(obj T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.buckets.Current()
	*bucket = append(*bucket, obj)
}

// OnFrameComplete advances the ring by one bucket and destroys everything
// in the bucket being overwritten. This is the only place in the sink
// that calls into the backend, and it runs once per frame boundary.
func (s *DeferredDropSink[T]) OnFrameComplete() error {
	s.mu.Lock()
	bucket := s.buckets.Advance()
	toDestroy := *bucket
	*bucket = nil
	s.mu.Unlock()

	for _, obj := range toDestroy {
		if err := s.destroy(obj); err != nil {
			core.LogError("deferred-drop sink: destroy failed: %v", err)
			return err
		}
	}
	return nil
}

// Destroy drains every bucket immediately, regardless of how many frame
// boundaries have passed. Must only be called on shutdown, after the
// device has gone idle (spec §4.2's destroy() contract) — calling it
// earlier breaks the N-frames-in-flight guarantee.
func (s *DeferredDropSink[T]) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < s.buckets.Len(); i++ {
		bucket := s.buckets.Advance()
		for _, obj := range *bucket {
			if err := s.destroy(obj); err != nil {
				return err
			}
		}
		*bucket = nil
	}
	return nil
}
