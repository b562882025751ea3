// Package null implements an in-memory fake backend.Backend: every
// create call hands back an incrementing fake handle and records the
// call, every destroy call records the release. It exists purely so the
// resource caches, descriptor pools, and job pipeline driver can be
// exercised in tests without a real GPU, the same role the teacher's
// test doubles play for RendererBackend in its systems tests.
package null

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/renderframe/corepipeline/backend"
)

// Backend is the null backend. Calls is an append-only log of every
// create/destroy it has seen, for assertions in tests.
type Backend struct {
	mu    sync.Mutex
	next  uint64
	Calls []string

	destroyed map[backend.Handle]bool
}

func New() *Backend {
	return &Backend{destroyed: make(map[backend.Handle]bool)}
}

var _ backend.Backend = (*Backend)(nil)

func (b *Backend) Kind() backend.Kind { return backend.KindNull }

func (b *Backend) alloc(call string) backend.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.Calls = append(b.Calls, call)
	return backend.Handle(b.next)
}

func (b *Backend) free(call string, h backend.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, call)
	b.destroyed[h] = true
}

// IsDestroyed reports whether h has had its matching Destroy* called.
// Tests use this to verify deferred-drop timing at the backend-object
// level.
func (b *Backend) IsDestroyed(h backend.Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.destroyed[h]
}

func (b *Backend) CreateShaderModule(backend.ShaderModuleDesc) (backend.Handle, error) {
	return b.alloc("CreateShaderModule"), nil
}
func (b *Backend) DestroyShaderModule(h backend.Handle) { b.free("DestroyShaderModule", h) }

func (b *Backend) CreateDescriptorSetLayout(backend.DescriptorSetLayoutDesc) (backend.Handle, error) {
	return b.alloc("CreateDescriptorSetLayout"), nil
}
func (b *Backend) DestroyDescriptorSetLayout(h backend.Handle) {
	b.free("DestroyDescriptorSetLayout", h)
}

func (b *Backend) CreatePipelineLayout(backend.PipelineLayoutDesc) (backend.Handle, error) {
	return b.alloc("CreatePipelineLayout"), nil
}
func (b *Backend) DestroyPipelineLayout(h backend.Handle) { b.free("DestroyPipelineLayout", h) }

func (b *Backend) CreateRenderPass(backend.RenderPassDesc) (backend.Handle, error) {
	return b.alloc("CreateRenderPass"), nil
}
func (b *Backend) DestroyRenderPass(h backend.Handle) { b.free("DestroyRenderPass", h) }

func (b *Backend) CreateGraphicsPipeline(backend.GraphicsPipelineDesc) (backend.Handle, error) {
	return b.alloc("CreateGraphicsPipeline"), nil
}
func (b *Backend) DestroyGraphicsPipeline(h backend.Handle) { b.free("DestroyGraphicsPipeline", h) }

func (b *Backend) CreateSampler(backend.SamplerDesc) (backend.Handle, error) {
	return b.alloc("CreateSampler"), nil
}
func (b *Backend) DestroySampler(h backend.Handle) { b.free("DestroySampler", h) }

func (b *Backend) CreateImage(backend.ImageDesc) (backend.Handle, error) {
	return b.alloc("CreateImage"), nil
}
func (b *Backend) DestroyImage(h backend.Handle) { b.free("DestroyImage", h) }

func (b *Backend) CreateImageView(backend.ImageViewDesc) (backend.Handle, error) {
	return b.alloc("CreateImageView"), nil
}
func (b *Backend) DestroyImageView(h backend.Handle) { b.free("DestroyImageView", h) }

func (b *Backend) CreateBuffer(backend.BufferDesc) (backend.Handle, error) {
	return b.alloc("CreateBuffer"), nil
}
func (b *Backend) DestroyBuffer(h backend.Handle) { b.free("DestroyBuffer", h) }

func (b *Backend) AllocateDescriptorSet(backend.Handle) (backend.Handle, error) {
	return b.alloc("AllocateDescriptorSet"), nil
}
func (b *Backend) WriteDescriptorSet(set backend.Handle, writes []backend.DescriptorWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, "WriteDescriptorSet")
}
func (b *Backend) FreeDescriptorSet(h backend.Handle) { b.free("FreeDescriptorSet", h) }

var cbCounter uint64

func (b *Backend) BeginCommandBuffer() (backend.CommandBuffer, error) {
	return backend.CommandBuffer(atomic.AddUint64(&cbCounter, 1)), nil
}
func (b *Backend) CmdBindPipeline(backend.CommandBuffer, backend.Handle)                 {}
func (b *Backend) CmdBindDescriptorSet(backend.CommandBuffer, uint32, backend.Handle)     {}
func (b *Backend) CmdBindVertexBuffer(backend.CommandBuffer, uint32, backend.Handle, uint64) {}
func (b *Backend) CmdBindIndexBuffer(backend.CommandBuffer, backend.Handle, uint64)       {}
func (b *Backend) CmdSetScissor(backend.CommandBuffer, uint32, uint32, uint32, uint32)    {}
func (b *Backend) CmdDraw(backend.CommandBuffer, uint32, uint32, uint32, uint32)          {}
func (b *Backend) CmdDrawIndexed(backend.CommandBuffer, uint32, uint32, uint32, int32, uint32) {
}
func (b *Backend) CmdCopyBuffer(backend.CommandBuffer, backend.Handle, backend.Handle, uint64) {}
func (b *Backend) EndCommandBuffer(backend.CommandBuffer) error                           { return nil }

func (b *Backend) Submit(ctx context.Context, cbs []backend.CommandBuffer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, "Submit")
	return nil
}
