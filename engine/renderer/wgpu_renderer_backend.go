package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/eduren/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/eduren/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

const depthFormat = wgpu.TextureFormatDepth24Plus

var (
	errNoFrame       = errors.New("no frame in progress: call BeginFrame first")
	errFrameOpen     = errors.New("previous frame not yet presented")
	errNotConfigured = errors.New("surface not configured")
)

// attachment is a render target texture and its default view.
type attachment struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (a *attachment) release() {
	if a.view != nil {
		a.view.Release()
		a.view = nil
	}
	if a.texture != nil {
		a.texture.Release()
		a.texture = nil
	}
}

// frameState holds the objects acquired by BeginFrame until Present.
type frameState struct {
	surface *wgpu.Texture
	view    *wgpu.TextureView
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
}

func (f *frameState) release() {
	if f.pass != nil {
		f.pass.Release()
		f.pass = nil
	}
	if f.encoder != nil {
		f.encoder.Release()
		f.encoder = nil
	}
	if f.view != nil {
		f.view.Release()
		f.view = nil
	}
	if f.surface != nil {
		f.surface.Release()
		f.surface = nil
	}
}

type wgpuRendererBackendImpl struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	format        wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	width, height uint32
	presentMode   wgpu.PresentMode
	sampleCount   MSAASampleCount
	clearColor    wgpu.Color

	msaa  attachment
	depth attachment
	frame *frameState
}

type wgpuRendererBackend interface {
	// ConfigureSurface configures the surface for a new size and recreates the depth and MSAA attachments.
	// A zero width or height is ignored.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets how frames are delivered to the display. A configured surface is
	// reconfigured immediately.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the clear color of the main render pass, starting with the next frame.
	//
	// Parameters:
	//   - c: the RGBA clear color
	SetClearColor(c ClearColor)

	// RegisterRenderPipeline creates the shader modules, pipeline layout, and render pipeline
	// described by p, and stores the result on it.
	//
	// Parameters:
	//   - p: the pipeline description
	//
	// Returns:
	//   - error: error if either stage has no source or a GPU object could not be created
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// InitMeshBuffers uploads vertex and uint32 index data and stores the buffers on the provider.
	//
	// Parameters:
	//   - provider: the mesh provider
	//   - vertexData: the packed vertex bytes
	//   - indexData: the packed uint32 index bytes
	//   - indexCount: the number of indices in indexData
	//
	// Returns:
	//   - error: error if either slice is empty or a buffer could not be created
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates one buffer per layout entry, sized by MinBindingSize, and a bind group over them.
	// Buffers already on the provider are reused.
	//
	// Parameters:
	//   - provider: the provider receiving the GPU objects
	//   - descriptor: the layout of the group
	//
	// Returns:
	//   - error: error if an entry is not a buffer binding or a GPU object could not be created
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error

	// WriteBuffers queues every non-empty write. Writes to bindings with no buffer are dropped.
	//
	// Parameters:
	//   - writes: the writes to queue
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the next surface texture and begins the main render pass.
	// If the texture cannot be acquired the surface is reconfigured and the frame should be skipped.
	//
	// Returns:
	//   - error: error if a frame is still open or the surface texture could not be acquired
	BeginFrame() error

	// DrawCall encodes one indexed draw into the open render pass.
	//
	// Parameters:
	//   - p: the registered pipeline
	//   - mesh: the provider holding vertex and index buffers
	//   - instanceCount: the number of instances to draw
	//   - bindGroups: providers bound to groups 0..n-1 in order
	//
	// Returns:
	//   - error: error if no frame is open, the pipeline is not registered, or a provider is not initialized
	DrawCall(p pipeline.Pipeline, mesh bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the render pass and submits the frame's commands.
	EndFrame()

	// Present shows the frame and releases its surface texture.
	Present()

	// Release frees every GPU object owned by the backend.
	Release()
}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount) wgpuRendererBackend {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		sampleCount: sampleCount,
		clearColor:  toWGPUColor(DefaultClearColor),
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		panic(err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "eduren device"})
	if err != nil {
		panic(err)
	}
	b.device = device
	b.queue = device.GetQueue()

	caps := b.surface.GetCapabilities(adapter)
	b.format = caps.Formats[0]
	b.alphaMode = caps.AlphaModes[0]
	return b
}

func toWGPUColor(c ClearColor) wgpu.Color {
	return wgpu.Color{R: c[0], G: c[1], B: c[2], A: c[3]}
}

func toWGPUPresentMode(mode PresentMode) wgpu.PresentMode {
	if mode == PresentModeVSync {
		return wgpu.PresentModeFifo
	}
	return wgpu.PresentModeImmediate
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = uint32(width), uint32(height)
	b.configureLocked()
}

// configureLocked applies the stored size and present mode. Caller holds b.mu.
func (b *wgpuRendererBackendImpl) configureLocked() {
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.format,
		Width:       b.width,
		Height:      b.height,
		PresentMode: b.presentMode,
		AlphaMode:   b.alphaMode,
	})

	b.msaa.release()
	b.depth.release()
	if b.sampleCount > 1 {
		b.msaa = b.newAttachment("msaa color", b.format)
	}
	b.depth = b.newAttachment("depth", depthFormat)
}

// newAttachment creates a render target matching the surface size and sample count.
// Failing to create one leaves the backend unusable, so it panics.
func (b *wgpuRendererBackendImpl) newAttachment(label string, format wgpu.TextureFormat) attachment {
	texture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: b.width, Height: b.height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   uint32(b.sampleCount),
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: create %s attachment: %v", label, err))
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		panic(fmt.Sprintf("renderer: create %s view: %v", label, err))
	}
	return attachment{texture: texture, view: view}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := toWGPUPresentMode(mode)
	if next == b.presentMode {
		return
	}
	b.presentMode = next
	if b.width > 0 && b.frame == nil {
		b.configureLocked()
	}
}

func (b *wgpuRendererBackendImpl) SetClearColor(c ClearColor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearColor = toWGPUColor(c)
}

func (b *wgpuRendererBackendImpl) createShaderModule(label, source string) (*wgpu.ShaderModule, error) {
	return b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
	})
}

// createPipelineLayout creates one bind group layout per merged group. Groups must be contiguous from 0.
func (b *wgpuRendererBackendImpl) createPipelineLayout(p pipeline.Pipeline) (*wgpu.PipelineLayout, error) {
	merged := pipeline.MergeBindGroupLayouts(p.BindGroupLayouts(pipeline.StageVertex), p.BindGroupLayouts(pipeline.StageFragment))

	layouts := make([]*wgpu.BindGroupLayout, len(merged))
	defer func() {
		for _, l := range layouts {
			if l != nil {
				l.Release()
			}
		}
	}()
	for g := range layouts {
		desc, ok := merged[g]
		if !ok {
			return nil, fmt.Errorf("bind group %d is missing but a higher group is declared", g)
		}
		desc.Label = fmt.Sprintf("%s group %d", p.PipelineKey(), g)
		layout, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, fmt.Errorf("bind group %d layout: %w", g, err)
		}
		layouts[g] = layout
	}

	return b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: layouts,
	})
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vertexSource := p.Source(pipeline.StageVertex)
	fragmentSource := p.Source(pipeline.StageFragment)
	if vertexSource == "" || fragmentSource == "" {
		return errors.New("both vertex and fragment sources must be set to create a render pipeline")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vs, err := b.createShaderModule(p.PipelineKey()+" vertex", vertexSource)
	if err != nil {
		return err
	}
	defer vs.Release()
	fs := vs
	if fragmentSource != vertexSource {
		if fs, err = b.createShaderModule(p.PipelineKey()+" fragment", fragmentSource); err != nil {
			return err
		}
		defer fs.Release()
	}

	layout, err := b.createPipelineLayout(p)
	if err != nil {
		return err
	}
	defer layout.Release()

	target := wgpu.ColorTargetState{Format: b.format, WriteMask: p.WriteMask()}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}
	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}
	stencil := wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey(),
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: p.EntryPoint(pipeline.StageVertex),
			Buffers:    p.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: p.EntryPoint(pipeline.StageFragment),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{Count: uint32(b.sampleCount), Mask: 0xFFFFFFFF},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              depthFormat,
			DepthWriteEnabled:   p.DepthWriteEnabled(),
			DepthCompare:        depthCompare,
			DepthBias:           p.DepthBias(),
			DepthBiasSlopeScale: p.DepthBiasSlopeScale(),
			StencilFront:        stencil,
			StencilBack:         stencil,
		},
	})
	if err != nil {
		return err
	}
	p.SetRenderPipeline(created)
	return nil
}

// upload creates a buffer holding data. Caller holds b.mu.
func (b *wgpuRendererBackendImpl) upload(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (b *wgpuRendererBackendImpl) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	if len(vertexData) == 0 || len(indexData) == 0 || indexCount <= 0 {
		return fmt.Errorf("mesh %q: vertex and index data are required", provider.Label())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vertex, err := b.upload(provider.Label()+" vertices", wgpu.BufferUsageVertex, vertexData)
	if err != nil {
		return err
	}
	index, err := b.upload(provider.Label()+" indices", wgpu.BufferUsageIndex, indexData)
	if err != nil {
		vertex.Release()
		return err
	}
	provider.SetMesh(vertex, index, indexCount)
	return nil
}

func bufferUsage(t wgpu.BufferBindingType) (wgpu.BufferUsage, bool) {
	switch t {
	case wgpu.BufferBindingTypeUniform:
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst, true
	case wgpu.BufferBindingTypeStorage, wgpu.BufferBindingTypeReadOnlyStorage:
		return wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst, true
	default:
		return 0, false
	}
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	if len(descriptor.Entries) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	entries := make([]wgpu.BindGroupEntry, 0, len(descriptor.Entries))
	for _, e := range descriptor.Entries {
		binding := int(e.Binding)
		usage, ok := bufferUsage(e.Buffer.Type)
		if !ok {
			return fmt.Errorf("%s binding %d: only buffer bindings are supported", provider.Label(), binding)
		}
		buf := provider.Buffer(binding)
		if buf == nil {
			var err error
			buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: fmt.Sprintf("%s binding %d", provider.Label(), binding),
				Size:  e.Buffer.MinBindingSize,
				Usage: usage,
			})
			if err != nil {
				return err
			}
			provider.SetBuffer(binding, buf)
		}
		entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, Buffer: buf, Size: wgpu.WholeSize})
	}

	if descriptor.Label == "" {
		descriptor.Label = provider.Label()
	}
	layout, err := b.device.CreateBindGroupLayout(&descriptor)
	if err != nil {
		return err
	}
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label(),
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		layout.Release()
		return err
	}
	if old := provider.BindGroup(); old != nil {
		old.Release()
	}
	if old := provider.BindGroupLayout(); old != nil {
		old.Release()
	}
	provider.SetBindGroup(bg, layout)
	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range writes {
		if w.Empty() {
			continue
		}
		if buf := w.Provider.Buffer(w.Binding); buf != nil {
			b.queue.WriteBuffer(buf, w.Offset, w.Data)
		}
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame != nil {
		return errFrameOpen
	}
	if b.depth.view == nil {
		return errNotConfigured
	}

	f := &frameState{}
	var err error
	if f.surface, err = b.surface.GetCurrentTexture(); err != nil {
		// usually an outdated surface after a resize or minimize
		b.configureLocked()
		return fmt.Errorf("acquire surface texture: %w", err)
	}
	if f.view, err = f.surface.CreateView(nil); err != nil {
		f.release()
		return err
	}
	if f.encoder, err = b.device.CreateCommandEncoder(nil); err != nil {
		f.release()
		return err
	}

	color := wgpu.RenderPassColorAttachment{
		View:       f.view,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: b.clearColor,
	}
	if b.msaa.view != nil {
		// draw into the multisampled target and resolve into the surface
		color.View = b.msaa.view
		color.ResolveTarget = f.view
		color.StoreOp = wgpu.StoreOpDiscard
	}
	f.pass = f.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depth.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	b.frame = f
	return nil
}

func (b *wgpuRendererBackendImpl) DrawCall(
	p pipeline.Pipeline,
	mesh bind_group_provider.BindGroupProvider,
	instanceCount uint32,
	bindGroups []bind_group_provider.BindGroupProvider,
) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame == nil || b.frame.pass == nil {
		return errNoFrame
	}
	rp := p.Pipeline()
	if rp == nil {
		return fmt.Errorf("pipeline %q has not been registered", p.PipelineKey())
	}
	if !mesh.HasMesh() {
		return fmt.Errorf("mesh %q has no buffers", mesh.Label())
	}
	if i := slices.IndexFunc(bindGroups, func(bg bind_group_provider.BindGroupProvider) bool {
		return bg.BindGroup() == nil
	}); i >= 0 {
		return fmt.Errorf("bind group %d (%s) is not initialized", i, bindGroups[i].Label())
	}

	pass := b.frame.pass
	pass.SetPipeline(rp)
	for i, bg := range bindGroups {
		pass.SetBindGroup(uint32(i), bg.BindGroup(), nil)
	}
	pass.SetVertexBuffer(0, mesh.VertexBuffer(), 0, wgpu.WholeSize)
	pass.SetIndexBuffer(mesh.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(mesh.IndexCount()), instanceCount, 0, 0, 0)
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	f := b.frame
	if f == nil || f.pass == nil {
		return
	}
	f.pass.End()
	f.pass.Release()
	f.pass = nil

	cmd, err := f.encoder.Finish(nil)
	if err != nil {
		// nothing to present; drop the frame so the next BeginFrame can acquire again
		f.release()
		b.frame = nil
		return
	}
	b.queue.Submit(cmd)
	cmd.Release()
	f.encoder.Release()
	f.encoder = nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame == nil {
		return
	}
	b.surface.Present()
	b.frame.release()
	b.frame = nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame != nil {
		b.frame.release()
		b.frame = nil
	}
	b.msaa.release()
	b.depth.release()
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
