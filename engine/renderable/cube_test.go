package renderable

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/eduren/engine/camera"
	"github.com/Carmen-Shannon/eduren/engine/renderer"
	"github.com/Carmen-Shannon/eduren/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/eduren/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/eduren/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drawCall struct {
	key        string
	mesh       bind_group_provider.BindGroupProvider
	instances  uint32
	bindGroups []bind_group_provider.BindGroupProvider
}

// fakeRenderer records what a cube asks of the GPU without touching one.
type fakeRenderer struct {
	renderer.Renderer

	pipelines   map[string]pipeline.Pipeline
	registerErr error
	meshes      int
	indexCount  int
	bindGroups  []wgpu.BindGroupLayoutDescriptor
	writes      []bind_group_provider.BufferWrite
	draws       []drawCall
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{pipelines: make(map[string]pipeline.Pipeline)}
}

func (f *fakeRenderer) Pipeline(key string) pipeline.Pipeline { return f.pipelines[key] }

func (f *fakeRenderer) RegisterPipelines(ps ...pipeline.Pipeline) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	for _, p := range ps {
		f.pipelines[p.PipelineKey()] = p
	}
	return nil
}

func (f *fakeRenderer) InitMeshBuffers(p bind_group_provider.BindGroupProvider, _, _ []byte, indexCount int) error {
	f.meshes++
	f.indexCount = indexCount
	p.SetMesh(nil, nil, indexCount)
	return nil
}

func (f *fakeRenderer) InitBindGroup(_ bind_group_provider.BindGroupProvider, d wgpu.BindGroupLayoutDescriptor) error {
	f.bindGroups = append(f.bindGroups, d)
	return nil
}

func (f *fakeRenderer) WriteBuffers(w []bind_group_provider.BufferWrite) {
	f.writes = append(f.writes, w...)
}

func (f *fakeRenderer) DrawCall(key string, mesh bind_group_provider.BindGroupProvider, n uint32, bgs []bind_group_provider.BindGroupProvider) error {
	f.draws = append(f.draws, drawCall{key, mesh, n, bgs})
	return nil
}

func TestCubeMeshData(t *testing.T) {
	verts := CubeVertices()
	indices := CubeIndices()
	require.Len(t, verts, 8)
	require.Len(t, indices, 36)

	for _, v := range verts {
		for i := range 3 {
			assert.Equal(t, float32(1), float32(math.Abs(float64(v[i]))))
		}
	}
	used := make(map[uint32]int)
	for _, i := range indices {
		require.Less(t, i, uint32(len(verts)))
		used[i]++
	}
	assert.Len(t, used, 8, "every corner is referenced")
	assert.Len(t, cubeVertexBytes(), 8*cubeVertexStride)
}

func TestCubeUniformMarshal(t *testing.T) {
	u := CubeUniform{MVP: mgl32.Ident4(), Color: mgl32.Vec4{0.25, 0.5, 0.75, 1}}
	buf := u.Marshal()
	require.Len(t, buf, CubeUniformSize)

	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	assert.Equal(t, float32(1), f(0))
	assert.Equal(t, float32(0), f(4))
	assert.Equal(t, float32(1), f(60))
	assert.Equal(t, float32(0.25), f(64))
	assert.Equal(t, float32(1), f(76))
}

func TestNewCubeRegistersSharedPipelineOnce(t *testing.T) {
	r := newFakeRenderer()
	a, err := NewCube("a", r)
	require.NoError(t, err)
	first := r.Pipeline(CubePipelineKey)
	require.NotNil(t, first)

	_, err = NewCube("b", r)
	require.NoError(t, err)
	assert.Same(t, first, r.Pipeline(CubePipelineKey))

	assert.Equal(t, 2, r.meshes)
	assert.Equal(t, 36, r.indexCount)
	require.Len(t, r.bindGroups, 2)
	require.Len(t, r.bindGroups[0].Entries, 1)
	assert.Equal(t, uint64(CubeUniformSize), r.bindGroups[0].Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, r.bindGroups[0].Entries[0].Visibility)
	assert.Equal(t, "a", a.Name())
}

func TestNewCubePipelineError(t *testing.T) {
	r := newFakeRenderer()
	r.registerErr = errors.New("no device")
	_, err := NewCube("a", r)
	assert.ErrorIs(t, err, r.registerErr)
}

func TestCubeOptionsAndBounds(t *testing.T) {
	r := newFakeRenderer()
	c, err := NewCube("c", r, WithTransform(mgl32.Vec3{1, 2, 3}, 0.5), WithColor(mgl32.Vec4{1, 0, 0, 1}))
	require.NoError(t, err)

	center, radius := c.Bounds()
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, center)
	assert.InDelta(t, 0.5*math.Sqrt(3), radius, 1e-6)
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, c.Color())

	c.SetTransform(Transform{Translation: mgl32.Vec3{0, 0, -4}})
	assert.Equal(t, Transform{Translation: mgl32.Vec3{0, 0, -4}, Scale: 0.5}, c.Transform())

	d, err := NewCube("d", r, WithTransform(mgl32.Vec3{}, -2))
	require.NoError(t, err)
	assert.Equal(t, float32(1), d.Transform().Scale)
}

func TestCubeUniformUsesFrameViewProjection(t *testing.T) {
	r := newFakeRenderer()
	c, err := NewCube("c", r, WithTransform(mgl32.Vec3{0, 0, -3}, 1))
	require.NoError(t, err)

	view := camera.NewCamera().Snapshot()
	u := c.Uniform(view.ViewProjection)
	want := view.ViewProjection.Mul4(mgl32.Translate3D(0, 0, -3))
	assert.True(t, u.MVP.ApproxEqualThreshold(want, 1e-6))
}

func TestCubePrepareThenDraw(t *testing.T) {
	r := newFakeRenderer()
	c, err := NewCube("c", r)
	require.NoError(t, err)

	frame := scene.Frame{Index: 7, View: camera.NewCamera().Snapshot()}
	require.NoError(t, c.Prepare(frame))
	require.NoError(t, c.Draw(frame))

	require.Len(t, r.writes, 1)
	assert.Equal(t, c.Uniform(frame.View.ViewProjection).Marshal(), r.writes[0].Data)
	require.Len(t, r.draws, 1)
	assert.Equal(t, CubePipelineKey, r.draws[0].key)
	assert.Equal(t, uint32(1), r.draws[0].instances)
	assert.Equal(t, 36, r.draws[0].mesh.IndexCount())
	require.Len(t, r.draws[0].bindGroups, 1)
	assert.Same(t, r.writes[0].Provider, r.draws[0].bindGroups[0])
}

func TestCubeDrawWithoutPrepare(t *testing.T) {
	r := newFakeRenderer()
	c, err := NewCube("c", r)
	require.NoError(t, err)

	cam := camera.NewCamera()
	stale := scene.Frame{Index: 1, View: cam.Snapshot()}
	require.NoError(t, c.Prepare(stale))

	cam.ProcessKey(camera.Forward, 1)
	fresh := scene.Frame{Index: 2, View: cam.Snapshot()}
	require.NoError(t, c.Draw(fresh))

	require.Len(t, r.writes, 1)
	assert.Equal(t, c.Uniform(fresh.View.ViewProjection).Marshal(), r.writes[0].Data)
}

func TestCubePipelineDescription(t *testing.T) {
	p := CubePipeline()
	assert.Equal(t, CubePipelineKey, p.PipelineKey())
	assert.Contains(t, p.Source(pipeline.StageVertex), "fn vs_main")
	assert.Contains(t, p.Source(pipeline.StageFragment), "fn fs_main")
	require.Len(t, p.VertexLayouts(), 1)
	assert.Equal(t, uint64(cubeVertexStride), p.VertexLayouts()[0].ArrayStride)
}
