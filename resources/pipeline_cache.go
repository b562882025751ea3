package resources

import (
	"sync"
)

// pipelineKey identifies one built pipeline by the triple spec §4.6
// describes: (material-pass, render-pass, render-phase).
type pipelineKey[M, R comparable] struct {
	materialPass M
	renderPass   R
	phase        uint8
}

type renderPassEntry struct {
	phases          map[uint8]struct{}
	keepAliveUntil  uint64
}

// PipelineBuilder asks the backend (through whatever resource cache owns
// real graphics-pipeline objects) to build a pipeline for one
// (material-pass, render-pass, phase) triple.
type PipelineBuilder[M, R comparable, P any] func(materialPass M, renderPass R, phase uint8) (Arc[P], error)

// PipelineCache maps every (material-pass, render-pass, render-phase)
// triple in active use to a ready graphics-pipeline handle (spec §4.6).
// It holds the pipeline's Arc strongly — that's what keeps the backing
// object alive — but tracks its render-pass side only through a
// frame-bounded keep-alive, so "evictions drop naturally" the moment a
// render-pass stops renewing its registration (spec §4.6: "on_frame_
// complete() — drops entries whose ... weak references are gone or whose
// keep-alive has expired"): once the cache releases its Arc, the
// pipeline drops through the normal deferred-drop cycle if nothing else
// holds it.
type PipelineCache[M, R comparable, P any] struct {
	mu sync.Mutex

	build PipelineBuilder[M, R, P]

	materialPhases map[M]map[uint8]struct{}
	renderPasses   map[R]*renderPassEntry
	pipelines      map[pipelineKey[M, R]]Arc[P]

	framesToPersist uint64
	currentFrame    uint64
}

// NewPipelineCache builds a cache whose build func creates the backing
// pipeline object on demand; framesToPersist is the eviction horizon for
// a render-pass's keep-alive (spec §9 open question 2, default 3).
func NewPipelineCache[M, R comparable, P any](build PipelineBuilder[M, R, P], framesToPersist uint64) *PipelineCache[M, R, P] {
	return &PipelineCache[M, R, P]{
		build:           build,
		materialPhases:  make(map[M]map[uint8]struct{}),
		renderPasses:    make(map[R]*renderPassEntry),
		pipelines:       make(map[pipelineKey[M, R]]Arc[P]),
		framesToPersist: framesToPersist,
	}
}

// RegisterMaterialToPhase declares that materialPass should be usable in
// phase. If a render-pass already registered for the same phase exists,
// the pipeline is built eagerly (spec §4.6 invariant).
func (c *PipelineCache[M, R, P]) RegisterMaterialToPhase(materialPass M, phase uint8) error {
	c.mu.Lock()
	phases, ok := c.materialPhases[materialPass]
	if !ok {
		phases = make(map[uint8]struct{})
		c.materialPhases[materialPass] = phases
	}
	if _, already := phases[phase]; already {
		c.mu.Unlock()
		return nil
	}
	phases[phase] = struct{}{}

	var toBuild []R
	for rp, entry := range c.renderPasses {
		if _, has := entry.phases[phase]; has {
			toBuild = append(toBuild, rp)
		}
	}
	c.mu.Unlock()

	for _, rp := range toBuild {
		if err := c.buildAndStore(materialPass, rp, phase); err != nil {
			return err
		}
	}
	return nil
}

// RegisterRenderPassToPhase declares that renderPass participates in
// phase this frame, with a keep-alive bound to the current frame plus the
// configured retention window (spec §4.6: "a keep-alive bound to the
// current frame + retention window"). Eagerly builds any pipeline whose
// material side is already registered for phase.
func (c *PipelineCache[M, R, P]) RegisterRenderPassToPhase(renderPass R, phase uint8) error {
	c.mu.Lock()
	entry, ok := c.renderPasses[renderPass]
	if !ok {
		entry = &renderPassEntry{phases: make(map[uint8]struct{})}
		c.renderPasses[renderPass] = entry
	}
	entry.phases[phase] = struct{}{}
	entry.keepAliveUntil = c.currentFrame + c.framesToPersist

	var toBuild []M
	for mp, phases := range c.materialPhases {
		if _, has := phases[phase]; has {
			toBuild = append(toBuild, mp)
		}
	}
	c.mu.Unlock()

	for _, mp := range toBuild {
		if err := c.buildAndStore(mp, renderPass, phase); err != nil {
			return err
		}
	}
	return nil
}

func (c *PipelineCache[M, R, P]) buildAndStore(materialPass M, renderPass R, phase uint8) error {
	key := pipelineKey[M, R]{materialPass: materialPass, renderPass: renderPass, phase: phase}

	c.mu.Lock()
	if _, ok := c.pipelines[key]; ok {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	arc, err := c.build(materialPass, renderPass, phase)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.pipelines[key] = arc
	c.mu.Unlock()
	return nil
}

// FindPipeline succeeds iff a pipeline has been built for any phase
// common to both materialPass's and renderPass's registrations (spec
// §4.6). Returns a cloned Arc; the caller releases it like any other
// resource handle once the frame no longer needs it.
func (c *PipelineCache[M, R, P]) FindPipeline(materialPass M, renderPass R) (Arc[P], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	phases := c.materialPhases[materialPass]
	for phase := range phases {
		key := pipelineKey[M, R]{materialPass: materialPass, renderPass: renderPass, phase: phase}
		if arc, ok := c.pipelines[key]; ok {
			return arc.Clone(), true
		}
	}
	return Arc[P]{}, false
}

// OnFrameComplete advances the frame counter and drops cache entries whose
// render-pass keep-alive has expired (spec §4.6), releasing the cache's
// strong Arc so the pipeline falls into the normal deferred-drop cycle
// once nothing else references it.
func (c *PipelineCache[M, R, P]) OnFrameComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentFrame++

	for rp, entry := range c.renderPasses {
		if entry.keepAliveUntil < c.currentFrame {
			delete(c.renderPasses, rp)
		}
	}
	for key, arc := range c.pipelines {
		if entry, ok := c.renderPasses[key.renderPass]; !ok || entry.keepAliveUntil < c.currentFrame {
			arc.Release()
			delete(c.pipelines, key)
		}
	}
}

// Len reports the number of live pipeline entries, for tests.
func (c *PipelineCache[M, R, P]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pipelines)
}
