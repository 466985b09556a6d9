package renderable

import (
	_ "embed"

	"github.com/Carmen-Shannon/eduren/common"
	"github.com/Carmen-Shannon/eduren/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/eduren/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// CubePipelineKey is the renderer cache key shared by every cube.
const CubePipelineKey = "cube"

// CubeShaderSource is the WGSL module for the cube pipeline. Group 0 holds one CubeUniform.
//
//go:embed assets/cube.wgsl
var CubeShaderSource string

const cubeVertexStride = 3 * 4

// CubeVertices returns the eight corners of a cube spanning [-1, 1] on every axis.
//
// Returns:
//   - []mgl32.Vec3: the corner positions, indexed by CubeIndices
func CubeVertices() []mgl32.Vec3 {
	return []mgl32.Vec3{
		{-1, -1, -1},
		{1, -1, -1},
		{1, 1, -1},
		{-1, 1, -1},
		{-1, -1, 1},
		{1, -1, 1},
		{1, 1, 1},
		{-1, 1, 1},
	}
}

// CubeIndices returns the triangle list for CubeVertices: 12 triangles, two per face.
//
// Returns:
//   - []uint32: 36 indices
func CubeIndices() []uint32 {
	return []uint32{
		0, 1, 2, 0, 2, 3,
		5, 4, 6, 4, 7, 6,
		7, 3, 2, 6, 7, 2,
		4, 1, 0, 4, 5, 1,
		6, 2, 1, 5, 6, 1,
		4, 0, 7, 3, 7, 0,
	}
}

// cubeVertexBytes packs CubeVertices as tightly packed little-endian float32x3.
func cubeVertexBytes() []byte {
	verts := CubeVertices()
	flat := make([]float32, 0, len(verts)*3)
	for _, v := range verts {
		flat = append(flat, v[0], v[1], v[2])
	}
	return common.SliceToBytes(flat)
}

// CubePipeline describes the shared cube render pipeline. Its layouts are reflected from CubeShaderSource.
//
// Returns:
//   - pipeline.Pipeline: an unregistered pipeline keyed by CubePipelineKey
func CubePipeline() pipeline.Pipeline {
	refl, err := shader.Reflect(CubeShaderSource)
	if err != nil {
		panic(err)
	}
	return pipeline.NewPipeline(CubePipelineKey, refl.PipelineOptions(CubeShaderSource)...)
}
