package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Stage identifies a shader stage within a render pipeline.
type Stage int

const (
	// StageVertex is the vertex shader stage.
	StageVertex Stage = iota

	// StageFragment is the fragment shader stage.
	StageFragment
)

// Default WGSL entry points used when none are configured.
const (
	DefaultVertexEntryPoint   = "vs_main"
	DefaultFragmentEntryPoint = "fs_main"
)

// pipeline is the implementation of the Pipeline interface.
// It holds the WGSL sources, layouts, and fixed-function state for a render pipeline.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	// vertexSource and fragmentSource may be the same module when both entry points live in one file.
	vertexSource, fragmentSource string
	vertexEntry, fragmentEntry   string

	vertexLayouts []wgpu.VertexBufferLayout
	// bindGroupLayouts are keyed by stage then by group index; the backend merges both stages.
	bindGroupLayouts map[Stage]map[int]wgpu.BindGroupLayoutDescriptor

	// renderPipeline is set by the renderer backend once the GPU object exists.
	renderPipeline *wgpu.RenderPipeline

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
}

// Pipeline describes a GPU render pipeline: WGSL sources and entry points, vertex buffer layouts,
// bind group layouts, and depth, blend, cull and topology settings.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Source returns the WGSL source for the given stage.
	//
	// Parameters:
	//   - stage: the shader stage
	//
	// Returns:
	//   - string: the WGSL source, empty if unset
	Source(stage Stage) string

	// EntryPoint returns the WGSL entry point for the given stage.
	//
	// Parameters:
	//   - stage: the shader stage
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint(stage Stage) string

	// VertexLayouts returns the vertex buffer layouts consumed by the vertex stage.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts in buffer slot order
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayouts returns the bind group layout descriptors declared for a stage, keyed by group index.
	//
	// Parameters:
	//   - stage: the shader stage
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayouts(stage Stage) map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupLayout returns the descriptor for one group, merging both stages' entries.
	//
	// Parameters:
	//   - group: the group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, with no entries if the group is undeclared
	BindGroupLayout(group int) wgpu.BindGroupLayoutDescriptor

	// Pipeline returns the underlying render pipeline, or nil before registration.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the GPU pipeline object
	Pipeline() *wgpu.RenderPipeline

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	DepthWriteEnabled() bool

	// DepthBias returns the depth bias value configured for this pipeline.
	DepthBias() int32

	// DepthBiasSlopeScale returns the depth bias slope scale configured for this pipeline.
	DepthBiasSlopeScale() float32

	// BlendEnabled returns whether blending is enabled for this pipeline.
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state, only applied when blending is enabled
	BlendState() *wgpu.BlendState

	// SetRenderPipeline sets the render pipeline
	//
	// Parameters:
	//   - p: the WebGPU render pipeline to set
	SetRenderPipeline(p *wgpu.RenderPipeline)
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:   pipelineKey,
		vertexEntry:   DefaultVertexEntryPoint,
		fragmentEntry: DefaultFragmentEntryPoint,
		bindGroupLayouts: map[Stage]map[int]wgpu.BindGroupLayoutDescriptor{
			StageVertex:   {},
			StageFragment: {},
		},
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		blendEnabled:      false,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Source(stage Stage) string {
	switch stage {
	case StageVertex:
		return p.vertexSource
	case StageFragment:
		return p.fragmentSource
	default:
		return ""
	}
}

func (p *pipeline) EntryPoint(stage Stage) string {
	switch stage {
	case StageVertex:
		return p.vertexEntry
	case StageFragment:
		return p.fragmentEntry
	default:
		return ""
	}
}

func (p *pipeline) VertexLayouts() []wgpu.VertexBufferLayout {
	return p.vertexLayouts
}

func (p *pipeline) BindGroupLayouts(stage Stage) map[int]wgpu.BindGroupLayoutDescriptor {
	return p.bindGroupLayouts[stage]
}

func (p *pipeline) BindGroupLayout(group int) wgpu.BindGroupLayoutDescriptor {
	return MergeBindGroupLayouts(p.bindGroupLayouts[StageVertex], p.bindGroupLayouts[StageFragment])[group]
}

func (p *pipeline) Pipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}
