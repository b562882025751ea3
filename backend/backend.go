package backend

import "context"

// Kind tags which concrete Backend implementation a Device wraps. Spec §9
// picks tagged variants over an inheritance hierarchy here, the same
// choice the teacher's RendererBackend interface makes with a single flat
// interface rather than per-API subclasses.
type Kind uint8

const (
	KindNull Kind = iota
	KindVulkan
	KindMetal
	KindDX12
	KindGL
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindVulkan:
		return "vulkan"
	case KindMetal:
		return "metal"
	case KindDX12:
		return "dx12"
	case KindGL:
		return "gl"
	default:
		return "unknown"
	}
}

// Handle is an opaque backend-native object id (VkPipeline, MTLBuffer,
// whatever the concrete backend hands back). The core never dereferences
// it; only the owning Backend implementation interprets it.
type Handle uint64

// CommandBuffer is an opaque handle to a backend command-recording
// target. Its contents are written by Backend.Cmd* calls and submitted
// with Submit.
type CommandBuffer uint64

// Backend is the GPU backend trait surface (spec §6): object
// create/destroy, command recording, and queue submission, grounded on
// the teacher's RendererBackend interface but narrowed to this module's
// in-scope job-pipeline-and-resource-lifecycle surface (no geometry/
// shader-uniform/render-target API — those stay engine concerns outside
// this core).
type Backend interface {
	Kind() Kind

	CreateShaderModule(desc ShaderModuleDesc) (Handle, error)
	DestroyShaderModule(h Handle)

	CreateDescriptorSetLayout(desc DescriptorSetLayoutDesc) (Handle, error)
	DestroyDescriptorSetLayout(h Handle)

	CreatePipelineLayout(desc PipelineLayoutDesc) (Handle, error)
	DestroyPipelineLayout(h Handle)

	CreateRenderPass(desc RenderPassDesc) (Handle, error)
	DestroyRenderPass(h Handle)

	CreateGraphicsPipeline(desc GraphicsPipelineDesc) (Handle, error)
	DestroyGraphicsPipeline(h Handle)

	CreateSampler(desc SamplerDesc) (Handle, error)
	DestroySampler(h Handle)

	CreateImage(desc ImageDesc) (Handle, error)
	DestroyImage(h Handle)

	CreateImageView(desc ImageViewDesc) (Handle, error)
	DestroyImageView(h Handle)

	CreateBuffer(desc BufferDesc) (Handle, error)
	DestroyBuffer(h Handle)

	AllocateDescriptorSet(layout Handle) (Handle, error)
	WriteDescriptorSet(set Handle, writes []DescriptorWrite)
	FreeDescriptorSet(set Handle)

	BeginCommandBuffer() (CommandBuffer, error)
	CmdBindPipeline(cb CommandBuffer, pipeline Handle)
	CmdBindDescriptorSet(cb CommandBuffer, index uint32, set Handle)
	CmdBindVertexBuffer(cb CommandBuffer, binding uint32, buf Handle, offset uint64)
	CmdBindIndexBuffer(cb CommandBuffer, buf Handle, offset uint64)
	CmdSetScissor(cb CommandBuffer, x, y, w, h uint32)
	CmdDraw(cb CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32)
	CmdDrawIndexed(cb CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
	CmdCopyBuffer(cb CommandBuffer, src, dst Handle, size uint64)
	EndCommandBuffer(cb CommandBuffer) error

	Submit(ctx context.Context, cbs []CommandBuffer) error
}

// DescriptorWrite is one binding update applied to an allocated
// descriptor set.
type DescriptorWrite struct {
	Binding uint32
	Buffer  Handle
	Image   Handle
	Sampler Handle
}

// Device owns the active Backend. The core wires one Device at startup
// and threads it through every resource cache / pool that needs to call
// into the backend; nothing downstream switches on Kind itself.
type Device struct {
	kind    Kind
	backend Backend
}

func NewDevice(backend Backend) *Device {
	return &Device{kind: backend.Kind(), backend: backend}
}

func (d *Device) Kind() Kind       { return d.kind }
func (d *Device) Backend() Backend { return d.backend }
