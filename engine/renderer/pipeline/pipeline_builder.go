package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithShaderSource sets one WGSL module as the source of both stages.
//
// Parameters:
//   - source: WGSL source containing the vertex and fragment entry points
//
// Returns:
//   - PipelineBuilderOption: a function that sets both stage sources
func WithShaderSource(source string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexSource = source
		p.fragmentSource = source
	}
}

// WithVertexSource sets the WGSL source and entry point of the vertex stage.
// An empty entry point keeps DefaultVertexEntryPoint.
//
// Parameters:
//   - source: the WGSL source
//   - entryPoint: the vertex entry point
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex stage
func WithVertexSource(source, entryPoint string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexSource = source
		if entryPoint != "" {
			p.vertexEntry = entryPoint
		}
	}
}

// WithFragmentSource sets the WGSL source and entry point of the fragment stage.
// An empty entry point keeps DefaultFragmentEntryPoint.
//
// Parameters:
//   - source: the WGSL source
//   - entryPoint: the fragment entry point
//
// Returns:
//   - PipelineBuilderOption: a function that sets the fragment stage
func WithFragmentSource(source, entryPoint string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentSource = source
		if entryPoint != "" {
			p.fragmentEntry = entryPoint
		}
	}
}

// WithVertexLayouts sets the vertex buffer layouts, in buffer slot order.
//
// Parameters:
//   - layouts: the vertex buffer layouts
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex layouts
func WithVertexLayouts(layouts ...wgpu.VertexBufferLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexLayouts = layouts
	}
}

// WithBindGroupLayout declares the layout of one bind group for a stage.
//
// Parameters:
//   - stage: the stage that declares the group
//   - group: the group index
//   - descriptor: the layout descriptor
//
// Returns:
//   - PipelineBuilderOption: a function that records the layout
func WithBindGroupLayout(stage Stage, group int, descriptor wgpu.BindGroupLayoutDescriptor) PipelineBuilderOption {
	return func(p *pipeline) {
		if p.bindGroupLayouts[stage] == nil {
			p.bindGroupLayouts[stage] = make(map[int]wgpu.BindGroupLayoutDescriptor)
		}
		p.bindGroupLayouts[stage][group] = descriptor
	}
}

// WithDepthTestEnabled sets whether depth testing is enabled for this pipeline.
//
// Parameters:
//   - enabled: a boolean indicating whether depth testing should be enabled
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth test enabled state for this pipeline
func WithDepthTestEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthTestEnabled = enabled
	}
}

// WithDepthWriteEnabled sets whether depth writing is enabled for this pipeline.
//
// Parameters:
//   - enabled: a boolean indicating whether depth writing should be enabled
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth write enabled state for this pipeline
func WithDepthWriteEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthWriteEnabled = enabled
	}
}

// WithDepthBias sets the depth bias parameters for this pipeline.
//
// Parameters:
//   - bias: the constant depth bias to apply
//   - slopeScale: the slope scale depth bias to apply
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth bias parameters for this pipeline
func WithDepthBias(bias int32, slopeScale float32) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthBias = bias
		p.depthBiasSlopeScale = slopeScale
	}
}

// WithBlendEnabled sets whether blending is enabled for this pipeline.
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = enabled
	}
}

// WithCullMode sets the cull mode for this pipeline.
//
// Parameters:
//   - mode: the cull mode to use for this pipeline (e.g., wgpu.CullModeNone, wgpu.CullModeBack)
//
// Returns:
//   - PipelineBuilderOption: a function that sets the cull mode for this pipeline
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithTopology sets the primitive topology for this pipeline.
//
// Parameters:
//   - topology: the primitive topology (e.g., wgpu.PrimitiveTopologyTriangleList, wgpu.PrimitiveTopologyLineList)
//
// Returns:
//   - PipelineBuilderOption: a function that sets the primitive topology for this pipeline
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

// WithFrontFace sets the front face winding order for this pipeline.
//
// Parameters:
//   - frontFace: the front face to use for this pipeline (e.g., wgpu.FrontFaceCCW, wgpu.FrontFaceCW)
//
// Returns:
//   - PipelineBuilderOption: a function that sets the front face for this pipeline
func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.frontFace = frontFace
	}
}

// WithWriteMask sets the color write mask for this pipeline.
func WithWriteMask(writeMask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.writeMask = writeMask
	}
}

// WithBlendState sets the blend state for this pipeline. It only applies when blending is enabled.
//
// Parameters:
//   - blendState: the blend state to use for this pipeline
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend state for this pipeline
func WithBlendState(blendState *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendState = blendState
	}
}
