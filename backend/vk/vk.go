// Package vk is a thin github.com/goki/vulkan-backed Backend, grounded
// on the teacher's engine/renderer/vulkan package (its device, render
// pass, descriptor, and shader files). It implements only the subset of
// backend.Backend this module's job pipeline and resource caches
// exercise directly: shader-module, render-pass and descriptor-set-layout
// create/destroy, plus graphics-pipeline destroy; CreateGraphicsPipeline
// returns core.ErrNotImplemented. The rest of the trait surface
// (image/buffer/sampler management, command recording, swapchain
// present) belongs to the full renderer surface the teacher implements
// and is out of scope here (spec §1 Non-goals: "a complete renderer").
package vk

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	gvk "github.com/goki/vulkan"

	"github.com/renderframe/corepipeline/backend"
	"github.com/renderframe/corepipeline/core"
)

// Backend wraps a single logical vk.Device. Callers are responsible for
// instance/physical-device selection and swapchain setup (window-system
// integration is out of scope here); Backend only needs a ready logical
// device to create pipeline-adjacent objects against.
type Backend struct {
	device gvk.Device

	mu         sync.Mutex
	shaders    map[backend.Handle]gvk.ShaderModule
	setLayouts map[backend.Handle]gvk.DescriptorSetLayout
	pipelines  map[backend.Handle]gvk.Pipeline
	passes     map[backend.Handle]gvk.RenderPass

	next uint64
}

// New wraps an already-created logical device. Instance creation, device
// selection, and surface/swapchain setup stay the caller's concern.
func New(device gvk.Device) *Backend {
	return &Backend{
		device:     device,
		shaders:    make(map[backend.Handle]gvk.ShaderModule),
		setLayouts: make(map[backend.Handle]gvk.DescriptorSetLayout),
		pipelines:  make(map[backend.Handle]gvk.Pipeline),
		passes:     make(map[backend.Handle]gvk.RenderPass),
	}
}

var _ backend.Backend = (*Backend)(nil)

func (b *Backend) Kind() backend.Kind { return backend.KindVulkan }

func (b *Backend) nextHandle() backend.Handle {
	return backend.Handle(atomic.AddUint64(&b.next, 1))
}

func (b *Backend) CreateShaderModule(desc backend.ShaderModuleDesc) (backend.Handle, error) {
	code := []byte(desc.Bytes)
	createInfo := gvk.ShaderModuleCreateInfo{
		SType:    gvk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceToUint32Ptr(code),
	}
	var module gvk.ShaderModule
	if res := gvk.CreateShaderModule(b.device, &createInfo, nil, &module); res != gvk.Success {
		return 0, fmt.Errorf("vk: CreateShaderModule failed: %v", res)
	}
	h := b.nextHandle()
	b.mu.Lock()
	b.shaders[h] = module
	b.mu.Unlock()
	return h, nil
}

func (b *Backend) DestroyShaderModule(h backend.Handle) {
	b.mu.Lock()
	module, ok := b.shaders[h]
	delete(b.shaders, h)
	b.mu.Unlock()
	if !ok {
		return
	}
	gvk.DestroyShaderModule(b.device, module, nil)
}

func (b *Backend) CreateDescriptorSetLayout(desc backend.DescriptorSetLayoutDesc) (backend.Handle, error) {
	bindings := make([]gvk.DescriptorSetLayoutBinding, 0, desc.Count)
	for i := uint8(0); i < desc.Count; i++ {
		bd := desc.Bindings[i]
		bindings = append(bindings, gvk.DescriptorSetLayoutBinding{
			Binding:         bd.Binding,
			DescriptorType:  descriptorKindToVk(bd.Kind),
			DescriptorCount: bd.Count,
			StageFlags:      gvk.ShaderStageFlags(bd.Stages),
		})
	}
	createInfo := gvk.DescriptorSetLayoutCreateInfo{
		SType:        gvk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout gvk.DescriptorSetLayout
	if res := gvk.CreateDescriptorSetLayout(b.device, &createInfo, nil, &layout); res != gvk.Success {
		return 0, fmt.Errorf("vk: CreateDescriptorSetLayout failed: %v", res)
	}
	h := b.nextHandle()
	b.mu.Lock()
	b.setLayouts[h] = layout
	b.mu.Unlock()
	return h, nil
}

func (b *Backend) DestroyDescriptorSetLayout(h backend.Handle) {
	b.mu.Lock()
	layout, ok := b.setLayouts[h]
	delete(b.setLayouts, h)
	b.mu.Unlock()
	if !ok {
		return
	}
	gvk.DestroyDescriptorSetLayout(b.device, layout, nil)
}

func (b *Backend) CreateRenderPass(desc backend.RenderPassDesc) (backend.Handle, error) {
	attachments := make([]gvk.AttachmentDescription, 0, int(desc.ColorCount)+1)
	colorRefs := make([]gvk.AttachmentReference, 0, desc.ColorCount)
	for i := uint8(0); i < desc.ColorCount; i++ {
		a := desc.ColorAttachments[i]
		attachments = append(attachments, gvk.AttachmentDescription{
			Format:         gvk.Format(a.Format),
			Samples:        gvk.SampleCount1Bit,
			LoadOp:         loadOpToVk(a.LoadOp),
			StoreOp:        storeOpToVk(a.StoreOp),
			StencilLoadOp:  gvk.AttachmentLoadOpDontCare,
			StencilStoreOp: gvk.AttachmentStoreOpDontCare,
			InitialLayout:  gvk.ImageLayoutUndefined,
			FinalLayout:    gvk.ImageLayoutColorAttachmentOptimal,
		})
		colorRefs = append(colorRefs, gvk.AttachmentReference{
			Attachment: uint32(i),
			Layout:     gvk.ImageLayoutColorAttachmentOptimal,
		})
	}

	subpass := gvk.SubpassDescription{
		PipelineBindPoint:    gvk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorRefs)),
		PColorAttachments:    colorRefs,
	}
	if desc.HasDepth {
		a := desc.DepthAttachment
		attachments = append(attachments, gvk.AttachmentDescription{
			Format:         gvk.Format(a.Format),
			Samples:        gvk.SampleCount1Bit,
			LoadOp:         loadOpToVk(a.LoadOp),
			StoreOp:        storeOpToVk(a.StoreOp),
			StencilLoadOp:  gvk.AttachmentLoadOpDontCare,
			StencilStoreOp: gvk.AttachmentStoreOpDontCare,
			InitialLayout:  gvk.ImageLayoutUndefined,
			FinalLayout:    gvk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		depthRef := gvk.AttachmentReference{
			Attachment: uint32(len(attachments) - 1),
			Layout:     gvk.ImageLayoutDepthStencilAttachmentOptimal,
		}
		subpass.PDepthStencilAttachment = &depthRef
	}

	createInfo := gvk.RenderPassCreateInfo{
		SType:           gvk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []gvk.SubpassDescription{subpass},
	}
	var pass gvk.RenderPass
	if res := gvk.CreateRenderPass(b.device, &createInfo, nil, &pass); res != gvk.Success {
		return 0, fmt.Errorf("vk: CreateRenderPass failed: %v", res)
	}
	h := b.nextHandle()
	b.mu.Lock()
	b.passes[h] = pass
	b.mu.Unlock()
	return h, nil
}

func (b *Backend) DestroyRenderPass(h backend.Handle) {
	b.mu.Lock()
	pass, ok := b.passes[h]
	delete(b.passes, h)
	b.mu.Unlock()
	if !ok {
		return
	}
	gvk.DestroyRenderPass(b.device, pass, nil)
}

// CreateGraphicsPipeline is not implemented: full pipeline state
// assembly (shader stage wiring, vertex input, rasterization state) is
// the teacher's vulkan/pipeline.go's job and stays out of scope for this
// thin adapter (spec §1 Non-goals).
func (b *Backend) CreateGraphicsPipeline(desc backend.GraphicsPipelineDesc) (backend.Handle, error) {
	core.LogWarn("vk backend: graphics pipeline state assembly is not implemented")
	return 0, core.ErrNotImplemented
}

func (b *Backend) DestroyGraphicsPipeline(h backend.Handle) {
	b.mu.Lock()
	pipeline, ok := b.pipelines[h]
	delete(b.pipelines, h)
	b.mu.Unlock()
	if !ok {
		return
	}
	gvk.DestroyPipeline(b.device, pipeline, nil)
}

func (b *Backend) CreatePipelineLayout(backend.PipelineLayoutDesc) (backend.Handle, error) {
	return 0, core.ErrNotImplemented
}
func (b *Backend) DestroyPipelineLayout(backend.Handle) {}

func (b *Backend) CreateSampler(backend.SamplerDesc) (backend.Handle, error) {
	return 0, core.ErrNotImplemented
}
func (b *Backend) DestroySampler(backend.Handle) {}

func (b *Backend) CreateImage(backend.ImageDesc) (backend.Handle, error) {
	return 0, core.ErrNotImplemented
}
func (b *Backend) DestroyImage(backend.Handle) {}

func (b *Backend) CreateImageView(backend.ImageViewDesc) (backend.Handle, error) {
	return 0, core.ErrNotImplemented
}
func (b *Backend) DestroyImageView(backend.Handle) {}

func (b *Backend) CreateBuffer(backend.BufferDesc) (backend.Handle, error) {
	return 0, core.ErrNotImplemented
}
func (b *Backend) DestroyBuffer(backend.Handle) {}

func (b *Backend) AllocateDescriptorSet(backend.Handle) (backend.Handle, error) {
	return 0, core.ErrNotImplemented
}
func (b *Backend) WriteDescriptorSet(backend.Handle, []backend.DescriptorWrite) {}
func (b *Backend) FreeDescriptorSet(backend.Handle)                             {}

func (b *Backend) BeginCommandBuffer() (backend.CommandBuffer, error) {
	return 0, core.ErrNotImplemented
}
func (b *Backend) CmdBindPipeline(backend.CommandBuffer, backend.Handle)                    {}
func (b *Backend) CmdBindDescriptorSet(backend.CommandBuffer, uint32, backend.Handle)        {}
func (b *Backend) CmdBindVertexBuffer(backend.CommandBuffer, uint32, backend.Handle, uint64) {}
func (b *Backend) CmdBindIndexBuffer(backend.CommandBuffer, backend.Handle, uint64)          {}
func (b *Backend) CmdSetScissor(backend.CommandBuffer, uint32, uint32, uint32, uint32)       {}
func (b *Backend) CmdDraw(backend.CommandBuffer, uint32, uint32, uint32, uint32)             {}
func (b *Backend) CmdDrawIndexed(backend.CommandBuffer, uint32, uint32, uint32, int32, uint32) {
}
func (b *Backend) CmdCopyBuffer(backend.CommandBuffer, backend.Handle, backend.Handle, uint64) {}
func (b *Backend) EndCommandBuffer(backend.CommandBuffer) error                                { return nil }

func (b *Backend) Submit(ctx context.Context, cbs []backend.CommandBuffer) error {
	return core.ErrNotImplemented
}

func loadOpToVk(op uint8) gvk.AttachmentLoadOp {
	switch op {
	case 1:
		return gvk.AttachmentLoadOpLoad
	case 2:
		return gvk.AttachmentLoadOpDontCare
	default:
		return gvk.AttachmentLoadOpClear
	}
}

func storeOpToVk(op uint8) gvk.AttachmentStoreOp {
	if op == 1 {
		return gvk.AttachmentStoreOpDontCare
	}
	return gvk.AttachmentStoreOpStore
}

func descriptorKindToVk(kind uint8) gvk.DescriptorType {
	switch kind {
	case 1:
		return gvk.DescriptorTypeCombinedImageSampler
	case 2:
		return gvk.DescriptorTypeStorageBuffer
	default:
		return gvk.DescriptorTypeUniformBuffer
	}
}

func sliceToUint32Ptr(b []byte) []uint32 {
	out := make([]uint32, (len(b)+3)/4)
	for i, v := range b {
		out[i/4] |= uint32(v) << (uint(i%4) * 8)
	}
	return out
}
