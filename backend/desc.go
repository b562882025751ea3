// Package backend defines the GPU backend trait surface the core
// consumes (spec §6) and the structural Desc types the resource cache
// interns against (spec §3). Concrete backends (backend/null,
// backend/vk) implement Backend; the core never depends on a concrete
// backend directly.
package backend

import "hash/fnv"

// hashBytes is the structural-hash helper every Desc type uses: fold its
// fields into a byte stream, run it through FNV-1a. 64-bit hashing plus
// Go's native struct equality (spec §4.2's "strong 64-bit hashing plus
// Desc equality confirmation on lookup") is the collision-proofing
// strategy this module picked of the two the spec allows.
func hashBytes(parts ...[]byte) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum64()
}

func u32b(v uint32) []byte { return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)} }
func u8b(v uint8) []byte   { return []byte{v} }

// Format is a backend-agnostic pixel/vertex-attribute format tag. The
// concrete backend maps it to its own enum (VkFormat, MTLPixelFormat, ...).
type Format uint32

// ShaderModuleDesc describes a compiled shader module by its byte
// contents — the shader-source preprocessing step is out of scope (spec
// §1); the core only ever sees already-compiled bytes plus a stage tag.
type ShaderModuleDesc struct {
	Stage uint8 // vertex, fragment, compute, ...
	Bytes string
}

func (d ShaderModuleDesc) Hash() uint64 {
	return hashBytes(u8b(d.Stage), []byte(d.Bytes))
}

// DescriptorBinding is one binding slot in a descriptor-set layout.
type DescriptorBinding struct {
	Binding uint32
	Kind    uint8 // sampler, uniform buffer, storage buffer, ...
	Count   uint32
	Stages  uint32 // bitmask of shader stages this binding is visible to
}

// DescriptorSetLayoutDesc describes the fixed shape of one descriptor set.
type DescriptorSetLayoutDesc struct {
	Bindings [8]DescriptorBinding
	Count    uint8
}

func (d DescriptorSetLayoutDesc) Hash() uint64 {
	parts := [][]byte{u8b(d.Count)}
	for i := uint8(0); i < d.Count; i++ {
		b := d.Bindings[i]
		parts = append(parts, u32b(b.Binding), u8b(b.Kind), u32b(b.Count), u32b(b.Stages))
	}
	return hashBytes(parts...)
}

// PipelineLayoutDesc describes the set of descriptor-set layouts plus
// push-constant ranges a pipeline binds against.
type PipelineLayoutDesc struct {
	SetLayoutHashes     [4]uint64
	SetLayoutCount      uint8
	PushConstantBytes   uint32
}

func (d PipelineLayoutDesc) Hash() uint64 {
	parts := [][]byte{u8b(d.SetLayoutCount), u32b(d.PushConstantBytes)}
	for i := uint8(0); i < d.SetLayoutCount; i++ {
		v := d.SetLayoutHashes[i]
		parts = append(parts, []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24), byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56)})
	}
	return hashBytes(parts...)
}

// AttachmentDesc is one color/depth attachment of a render pass.
type AttachmentDesc struct {
	Format  Format
	Samples uint32
	LoadOp  uint8
	StoreOp uint8
}

// RenderPassDesc describes a render pass's attachment layout.
type RenderPassDesc struct {
	ColorAttachments [4]AttachmentDesc
	ColorCount       uint8
	HasDepth         bool
	DepthAttachment  AttachmentDesc
}

func (d RenderPassDesc) Hash() uint64 {
	parts := [][]byte{u8b(d.ColorCount)}
	for i := uint8(0); i < d.ColorCount; i++ {
		a := d.ColorAttachments[i]
		parts = append(parts, u32b(uint32(a.Format)), u32b(a.Samples), u8b(a.LoadOp), u8b(a.StoreOp))
	}
	if d.HasDepth {
		a := d.DepthAttachment
		parts = append(parts, []byte{1}, u32b(uint32(a.Format)), u32b(a.Samples), u8b(a.LoadOp), u8b(a.StoreOp))
	}
	return hashBytes(parts...)
}

// VertexAttribute is one vertex-input attribute slot.
type VertexAttribute struct {
	Location uint32
	Format   Format
	Offset   uint32
}

// GraphicsPipelineDesc describes a full graphics pipeline state: shader
// stages, vertex layout, render-pass compatibility, rasterization state.
type GraphicsPipelineDesc struct {
	ShaderModuleHashes [4]uint64
	ShaderStageCount   uint8
	VertexStride       uint32
	Attributes         [16]VertexAttribute
	AttributeCount     uint8
	RenderPassHash     uint64
	PipelineLayoutHash uint64
	CullMode           uint8
	Wireframe          bool
	DepthTestEnabled   bool
}

func (d GraphicsPipelineDesc) Hash() uint64 {
	parts := [][]byte{
		u8b(d.ShaderStageCount), u32b(d.VertexStride), u8b(d.AttributeCount),
		u64b(d.RenderPassHash), u64b(d.PipelineLayoutHash),
		u8b(d.CullMode), boolb(d.Wireframe), boolb(d.DepthTestEnabled),
	}
	for i := uint8(0); i < d.ShaderStageCount; i++ {
		parts = append(parts, u64b(d.ShaderModuleHashes[i]))
	}
	for i := uint8(0); i < d.AttributeCount; i++ {
		a := d.Attributes[i]
		parts = append(parts, u32b(a.Location), u32b(uint32(a.Format)), u32b(a.Offset))
	}
	return hashBytes(parts...)
}

func u64b(v uint64) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24), byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56)}
}
func boolb(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}

// SamplerDesc describes sampler filtering/addressing parameters.
type SamplerDesc struct {
	MinFilter  uint8
	MagFilter  uint8
	AddressU   uint8
	AddressV   uint8
	AddressW   uint8
	MaxAniso   uint8
}

func (d SamplerDesc) Hash() uint64 {
	return hashBytes(u8b(d.MinFilter), u8b(d.MagFilter), u8b(d.AddressU), u8b(d.AddressV), u8b(d.AddressW), u8b(d.MaxAniso))
}

// ImageDesc describes an image's format, extents, and usage.
type ImageDesc struct {
	Format Format
	Width  uint32
	Height uint32
	Depth  uint32
	Usage  uint32
	Mips   uint32
}

func (d ImageDesc) Hash() uint64 {
	return hashBytes(u32b(uint32(d.Format)), u32b(d.Width), u32b(d.Height), u32b(d.Depth), u32b(d.Usage), u32b(d.Mips))
}

// ImageViewDesc describes a view into an image (format reinterpretation,
// mip/array slice range).
type ImageViewDesc struct {
	ImageHash uint64
	Format    Format
	BaseMip   uint32
	MipCount  uint32
	BaseLayer uint32
	LayerCount uint32
}

func (d ImageViewDesc) Hash() uint64 {
	return hashBytes(u64b(d.ImageHash), u32b(uint32(d.Format)), u32b(d.BaseMip), u32b(d.MipCount), u32b(d.BaseLayer), u32b(d.LayerCount))
}

// BufferDesc describes a buffer's size and usage flags.
type BufferDesc struct {
	Size  uint64
	Usage uint32
}

func (d BufferDesc) Hash() uint64 {
	return hashBytes(u64b(d.Size), u32b(d.Usage))
}
