// Package testbed wires one concrete render feature and one frame's
// worth of resources together and runs it through the job pipeline
// driver, the way the teacher's testbed package exercises a game loop
// against the engine. It is not itself part of the spec's module
// surface; it exists to prove the pieces compose.
package testbed

import (
	"context"
	"fmt"

	"github.com/renderframe/corepipeline/backend"
	nullbackend "github.com/renderframe/corepipeline/backend/null"
	"github.com/renderframe/corepipeline/core"
	"github.com/renderframe/corepipeline/jobqueue"
	"github.com/renderframe/corepipeline/renderfeatures"
	"github.com/renderframe/corepipeline/resources"
)

// meshDesc is the structural key for a dedup'd triangle-mesh resource:
// two meshes with the same vertex count and stride are considered the
// same GPU resource (spec §4.2 Desc contract).
type meshDesc struct {
	VertexCount int
	Stride      uint32
}

func (d meshDesc) Hash() uint64 {
	h := uint64(14695981039346656037)
	for _, b := range []byte{byte(d.VertexCount), byte(d.VertexCount >> 8), byte(d.Stride)} {
		h ^= uint64(b)
		h *= 1099511628211
	}
	return h
}

type meshGPU struct {
	buffer backend.Handle
}

// opaqueFeature is a minimal FeaturePlugin: every visible instance draws
// one submit node in the "opaque" phase, back-to-front is irrelevant so
// it sorts by ascending sort key (material index).
type opaqueFeature struct {
	index     renderfeatures.RenderFeatureIndex
	phase     renderfeatures.RenderPhaseIndex
	device    *backend.Device
	meshCache *resources.Cache[meshDesc, meshGPU]
}

func newOpaqueFeature(index renderfeatures.RenderFeatureIndex, phase renderfeatures.RenderPhaseIndex, device *backend.Device, drops *resources.DeferredDropSink[meshGPU]) *opaqueFeature {
	f := &opaqueFeature{index: index, phase: phase, device: device}
	f.meshCache = resources.NewCache[meshDesc, meshGPU](
		func(d meshDesc) (meshGPU, error) {
			h, err := device.Backend().CreateBuffer(backend.BufferDesc{Size: uint64(d.VertexCount) * uint64(d.Stride)})
			if err != nil {
				return meshGPU{}, err
			}
			return meshGPU{buffer: h}, nil
		},
		func(m meshGPU) error {
			drops.Retire(m)
			return nil
		},
		drops,
	)
	return f
}

func (f *opaqueFeature) FeatureIndex() renderfeatures.RenderFeatureIndex { return f.index }
func (f *opaqueFeature) IsViewRelevant(v *renderfeatures.View) bool      { return v.HasFeature(f.index) }
func (f *opaqueFeature) RequiresVisibleRenderObjects() bool              { return true }

func (f *opaqueFeature) CalculateFramePacketSize(vis renderfeatures.Visibility, views []*renderfeatures.View) renderfeatures.FramePacketSize {
	counts := make([]int, len(views))
	total := 0
	seen := map[renderfeatures.RenderObjectID]bool{}
	for i, v := range views {
		pairs := vis.VisibleInstances(v.Index, f.index)
		counts[i] = len(pairs)
		for _, p := range pairs {
			if !seen[p.RenderObj] {
				seen[p.RenderObj] = true
				total++
			}
		}
	}
	return renderfeatures.FramePacketSize{NumRenderObjectInstances: total, PerViewInstanceCounts: counts}
}

func (f *opaqueFeature) InitializeStaticResources(cache any) error { return nil }

type opaqueExtract struct {
	feature *opaqueFeature
	packet  *renderfeatures.FramePacket
}

func (f *opaqueFeature) NewExtractJob(packet *renderfeatures.FramePacket) renderfeatures.ExtractJob {
	return &opaqueExtract{feature: f, packet: packet}
}

func (e *opaqueExtract) BeginPerFrameExtract(ctx *renderfeatures.ExtractContext) error { return nil }

func (e *opaqueExtract) ExtractRenderObjectInstance(ctx *renderfeatures.ExtractContext, i int) error {
	arc, err := e.feature.meshCache.GetOrInsert(meshDesc{VertexCount: 3, Stride: 12})
	if err != nil {
		return err
	}
	e.packet.RenderObjectInstances[i] = arc
	return nil
}

func (e *opaqueExtract) ExtractRenderObjectInstancePerView(ctx *renderfeatures.ExtractContext, view *renderfeatures.View, vfi renderfeatures.ViewFrameIndex, i int) error {
	vp := e.packet.ViewPacket(vfi)
	vp.PerInstanceData[i] = i
	return nil
}

func (e *opaqueExtract) EndPerViewExtract(ctx *renderfeatures.ExtractContext, view *renderfeatures.View, vfi renderfeatures.ViewFrameIndex) error {
	return nil
}
func (e *opaqueExtract) EndPerFrameExtract(ctx *renderfeatures.ExtractContext) error { return nil }

func (f *opaqueFeature) NewSubmitPacket(packet *renderfeatures.FramePacket) *renderfeatures.SubmitPacket {
	return renderfeatures.NewSubmitPacket(packet)
}

type opaquePrepare struct {
	feature *opaqueFeature
	frame   *renderfeatures.FramePacket
	submit  *renderfeatures.SubmitPacket
}

func (f *opaqueFeature) NewPrepareJob(fp *renderfeatures.FramePacket, sp *renderfeatures.SubmitPacket) renderfeatures.PrepareJob {
	return &opaquePrepare{feature: f, frame: fp, submit: sp}
}

func (p *opaquePrepare) BeginPerFramePrepare(ctx *renderfeatures.PrepareContext) error { return nil }
func (p *opaquePrepare) PrepareRenderObjectInstance(ctx *renderfeatures.PrepareContext, i int) error {
	return nil
}
func (p *opaquePrepare) PrepareRenderObjectInstancePerView(ctx *renderfeatures.PrepareContext, view *renderfeatures.View, vfi renderfeatures.ViewFrameIndex, i int) error {
	block := p.submit.Block(vfi, p.feature.phase, len(p.frame.Views[vfi].PerInstanceData))
	block.Push(int32(i), 0, 0)
	return nil
}
func (p *opaquePrepare) EndPerViewPrepare(ctx *renderfeatures.PrepareContext, view *renderfeatures.View, vfi renderfeatures.ViewFrameIndex) error {
	return nil
}
func (p *opaquePrepare) EndPerFramePrepare(ctx *renderfeatures.PrepareContext) error { return nil }

type opaqueWrite struct {
	submit *renderfeatures.SubmitPacket
	draws  int
}

func (f *opaqueFeature) NewWriteJob(sp *renderfeatures.SubmitPacket) renderfeatures.WriteJob {
	return &opaqueWrite{submit: sp}
}

func (w *opaqueWrite) ApplySetup(ctx *renderfeatures.WriteContext) error { return nil }
func (w *opaqueWrite) RenderSubmitNode(ctx *renderfeatures.WriteContext, submitNodeID int32) error {
	w.draws++
	return nil
}

// Run wires a registry, a null backend device, one opaque feature, and a
// single view with two visible instances, then drives exactly one frame
// and logs that it ran. The number of submit nodes written is not
// reported.
func Run() error {
	registry := renderfeatures.NewRegistry()
	featureIdx := registry.RegisterFeature("opaque")
	phaseIdx := registry.RegisterPhase("opaque", renderfeatures.SortKeyAscending)
	registry.Freeze()

	device := backend.NewDevice(nullbackend.New())
	drops := resources.NewDeferredDropSink[meshGPU](2, func(m meshGPU) error {
		device.Backend().DestroyBuffer(m.buffer)
		return nil
	})

	feature := newOpaqueFeature(featureIdx, phaseIdx, device, drops)

	view := &renderfeatures.View{Index: 0, Name: "main"}
	view.RelevantFeatures |= 1 << uint(featureIdx)
	view.RelevantPhases |= 1 << uint(phaseIdx)

	vis := renderfeatures.NewStaticVisibility()
	vis.Set(view.Index, featureIdx, []renderfeatures.VisiblePair{
		{Object: 1, RenderObj: 1},
		{Object: 2, RenderObj: 2},
	})

	driver := renderfeatures.NewDriver(registry, jobqueue.Inline{})

	ctx := context.Background()
	if err := driver.RunFrame(ctx, nil, nil, vis, []renderfeatures.FeaturePlugin{feature}, []*renderfeatures.View{view}, 0); err != nil {
		return fmt.Errorf("testbed: frame failed: %w", err)
	}

	drops.OnFrameComplete()
	core.LogInfo("testbed: ran one frame against the null backend")
	return nil
}
