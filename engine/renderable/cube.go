package renderable

import (
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/eduren/common"
	"github.com/Carmen-Shannon/eduren/engine/renderer"
	"github.com/Carmen-Shannon/eduren/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/eduren/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// CubeUniformSize is the byte size of a marshaled CubeUniform.
const CubeUniformSize = 80

// DefaultCubeColor is the cube's color when none is configured.
var DefaultCubeColor = mgl32.Vec4{0.9, 0.55, 0.2, 1}

// CubeUniform is the per-cube uniform buffer: the full model-view-projection matrix and a color.
type CubeUniform struct {
	MVP   mgl32.Mat4
	Color mgl32.Vec4
}

// Marshal packs the uniform into its 80-byte little-endian GPU layout.
func (u CubeUniform) Marshal() []byte {
	buf := make([]byte, CubeUniformSize)
	common.PutMat4(buf, u.MVP)
	common.PutVec(buf[64:], u.Color[:]...)
	return buf
}

// Transform places a cube in the world. Scale is uniform and applies to the [-1, 1] base cube.
type Transform struct {
	Translation mgl32.Vec3
	Scale       float32
}

// Matrix returns the model matrix of the transform.
func (t Transform) Matrix() mgl32.Mat4 {
	return common.ModelMatrix(t.Translation, t.Scale)
}

type cube struct {
	mu *sync.Mutex

	name      string
	r         renderer.Renderer
	transform Transform
	color     mgl32.Vec4

	mesh    bind_group_provider.BindGroupProvider
	uniform bind_group_provider.BindGroupProvider

	// staged holds the bytes computed by Prepare for the frame at stagedFrame.
	staged      []byte
	stagedFrame uint64
}

// Cube is a colored cube drawn with the shared cube pipeline.
type Cube interface {
	scene.Renderable
	scene.Preparer
	scene.Bounded

	// Transform returns the cube's placement.
	Transform() Transform

	// SetTransform moves or rescales the cube. A non-positive scale is ignored and the previous scale is kept.
	//
	// Parameters:
	//   - t: the new transform
	SetTransform(t Transform)

	// Color returns the cube's RGBA color.
	Color() mgl32.Vec4

	// SetColor sets the cube's RGBA color.
	SetColor(c mgl32.Vec4)

	// Uniform computes the uniform for a given view-projection matrix.
	//
	// Parameters:
	//   - viewProj: the frame's combined projection and view matrix
	//
	// Returns:
	//   - CubeUniform: the uniform as it would be uploaded
	Uniform(viewProj mgl32.Mat4) CubeUniform

	// Release frees the cube's GPU buffers.
	Release()
}

var _ Cube = &cube{}

// NewCube creates a cube, uploads its mesh, creates its uniform bind group, and registers the
// shared cube pipeline with the renderer if it is not registered yet.
//
// Parameters:
//   - name: the name of the cube within its scene
//   - r: the renderer that owns the GPU resources
//   - options: functional options to configure the cube
//
// Returns:
//   - Cube: the new cube
//   - error: error if any GPU resource could not be created
func NewCube(name string, r renderer.Renderer, options ...CubeBuilderOption) (Cube, error) {
	c := &cube{
		mu:        &sync.Mutex{},
		name:      name,
		r:         r,
		transform: Transform{Scale: 1},
		color:     DefaultCubeColor,
	}
	for _, opt := range options {
		opt(c)
	}

	if r.Pipeline(CubePipelineKey) == nil {
		if err := r.RegisterPipelines(CubePipeline()); err != nil {
			return nil, fmt.Errorf("cube %q: %w", name, err)
		}
	}

	c.mesh = bind_group_provider.NewBindGroupProvider(name + " Mesh")
	indices := CubeIndices()
	if err := r.InitMeshBuffers(c.mesh, cubeVertexBytes(), common.SliceToBytes(indices), len(indices)); err != nil {
		return nil, fmt.Errorf("cube %q mesh: %w", name, err)
	}

	c.uniform = bind_group_provider.NewBindGroupProvider(name + " Uniform")
	if err := r.InitBindGroup(c.uniform, r.Pipeline(CubePipelineKey).BindGroupLayout(0)); err != nil {
		c.mesh.Release()
		return nil, fmt.Errorf("cube %q uniform: %w", name, err)
	}

	return c, nil
}

func (c *cube) Name() string {
	return c.name
}

func (c *cube) Transform() Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transform
}

func (c *cube) SetTransform(t Transform) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Scale <= 0 {
		t.Scale = c.transform.Scale
	}
	c.transform = t
	c.staged = nil
}

func (c *cube) Color() mgl32.Vec4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.color
}

func (c *cube) SetColor(col mgl32.Vec4) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.color = col
	c.staged = nil
}

func (c *cube) Bounds() (mgl32.Vec3, float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transform.Translation, c.transform.Scale * float32(math.Sqrt(3))
}

func (c *cube) Uniform(viewProj mgl32.Mat4) CubeUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uniformLocked(viewProj)
}

func (c *cube) uniformLocked(viewProj mgl32.Mat4) CubeUniform {
	return CubeUniform{
		MVP:   viewProj.Mul4(c.transform.Matrix()),
		Color: c.color,
	}
}

func (c *cube) Prepare(frame scene.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.staged = c.uniformLocked(frame.View.ViewProjection).Marshal()
	c.stagedFrame = frame.Index
	return nil
}

func (c *cube) Draw(frame scene.Frame) error {
	c.mu.Lock()
	data := c.staged
	if data == nil || c.stagedFrame != frame.Index {
		data = c.uniformLocked(frame.View.ViewProjection).Marshal()
	}
	c.mu.Unlock()

	c.r.WriteBuffers([]bind_group_provider.BufferWrite{
		bind_group_provider.NewBufferWrite(c.uniform, 0, data),
	})
	return c.r.DrawCall(CubePipelineKey, c.mesh, 1, []bind_group_provider.BindGroupProvider{c.uniform})
}

func (c *cube) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mesh != nil {
		c.mesh.Release()
	}
	if c.uniform != nil {
		c.uniform.Release()
	}
}
