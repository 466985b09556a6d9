package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// BindGroupProvider holds the GPU objects behind one renderable's uniforms or one mesh.
// Renderables create and own providers. The Renderer creates the GPU objects on them and reads them
// back when encoding draws.
//
//  1. A renderable creates a provider with a debug label.
//  2. Renderer.InitMeshBuffers or Renderer.InitBindGroup fills it in.
//  3. Renderer.WriteBuffers updates its uniform buffers each frame.
//  4. Renderer.DrawCall binds its bind group or mesh buffers.
type BindGroupProvider interface {
	// Label returns the debug label used to name the provider's GPU objects.
	Label() string

	// BindGroup returns the bind group, or nil before Renderer.InitBindGroup.
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the layout the bind group was created with, or nil.
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer at a binding, or nil if there is none.
	//
	// Parameters:
	//   - binding: the @binding index inside the group
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// BufferCount returns how many bindings have a buffer.
	BufferCount() int

	// SetBindGroup stores the bind group and the layout it was created with.
	//
	// Parameters:
	//   - bg: the bind group
	//   - layout: the layout of bg
	SetBindGroup(bg *wgpu.BindGroup, layout *wgpu.BindGroupLayout)

	// SetBuffer stores the buffer backing a binding.
	//
	// Parameters:
	//   - binding: the @binding index inside the group
	//   - buf: the buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// VertexBuffer returns the mesh vertex buffer, or nil.
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the mesh index buffer, or nil.
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns the number of uint32 indices drawn for the mesh.
	IndexCount() int

	// SetMesh stores the mesh buffers created by Renderer.InitMeshBuffers.
	//
	// Parameters:
	//   - vertex: the vertex buffer
	//   - index: the uint32 index buffer
	//   - indexCount: the number of indices in index
	SetMesh(vertex, index *wgpu.Buffer, indexCount int)

	// HasMesh reports whether both mesh buffers exist and there is something to draw.
	HasMesh() bool

	// Release frees every GPU object on the provider. It is safe to call more than once.
	Release()
}

type bindGroupProvider struct {
	label string

	bindGroup       *wgpu.BindGroup
	bindGroupLayout *wgpu.BindGroupLayout
	buffers         map[int]*wgpu.Buffer

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider. GPU objects are added by the Renderer.
//
// Parameters:
//   - label: the debug label used for GPU object names
//
// Returns:
//   - BindGroupProvider: the new provider
func NewBindGroupProvider(label string) BindGroupProvider {
	return &bindGroupProvider{
		label:   label,
		buffers: make(map[int]*wgpu.Buffer),
	}
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) BufferCount() int {
	return len(p.buffers)
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup, layout *wgpu.BindGroupLayout) {
	p.bindGroup = bg
	p.bindGroupLayout = layout
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) SetMesh(vertex, index *wgpu.Buffer, indexCount int) {
	p.vertexBuffer = vertex
	p.indexBuffer = index
	p.indexCount = max(indexCount, 0)
}

func (p *bindGroupProvider) HasMesh() bool {
	return p.vertexBuffer != nil && p.indexBuffer != nil && p.indexCount > 0
}

func (p *bindGroupProvider) Release() {
	for binding, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, binding)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
	p.indexCount = 0
}
