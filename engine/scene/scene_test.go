package scene

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/eduren/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCamera struct {
	camera.Camera
	snapshots atomic.Int32
}

func (c *countingCamera) Snapshot() camera.FrameView {
	c.snapshots.Add(1)
	return c.Camera.Snapshot()
}

type fakeTarget struct {
	events   []string
	beginErr error
}

func (f *fakeTarget) BeginFrame() error {
	f.events = append(f.events, "begin")
	return f.beginErr
}

func (f *fakeTarget) EndFrame() { f.events = append(f.events, "end") }
func (f *fakeTarget) Present()  { f.events = append(f.events, "present") }

type drawLog struct {
	mu    sync.Mutex
	names []string
	views []mgl32.Mat4
}

func (l *drawLog) record(name string, view mgl32.Mat4) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
	l.views = append(l.views, view)
}

type fakeRenderable struct {
	name    string
	log     *drawLog
	drawErr error
}

func (f *fakeRenderable) Name() string { return f.name }

func (f *fakeRenderable) Draw(frame Frame) error {
	if f.drawErr != nil {
		return f.drawErr
	}
	f.log.record(f.name, frame.View.View)
	return nil
}

type preparedRenderable struct {
	fakeRenderable
	prepared atomic.Int32
	drawnAt  int32
}

func (p *preparedRenderable) Prepare(Frame) error {
	p.prepared.Add(1)
	return nil
}

func (p *preparedRenderable) Draw(frame Frame) error {
	p.drawnAt = p.prepared.Load()
	return p.fakeRenderable.Draw(frame)
}

type panickingRenderable struct {
	fakeRenderable
}

func (p *panickingRenderable) Prepare(Frame) error {
	panic("prepare boom")
}

type boundedRenderable struct {
	fakeRenderable
	center mgl32.Vec3
	radius float32
}

func (b *boundedRenderable) Bounds() (mgl32.Vec3, float32) { return b.center, b.radius }

func newTestScene(t *testing.T, options ...SceneBuilderOption) (Scene, *countingCamera, *fakeTarget) {
	t.Helper()
	cam := &countingCamera{Camera: camera.NewCamera()}
	target := &fakeTarget{}
	s := NewScene("test", cam, target, append([]SceneBuilderOption{WithActive(true), WithPrepareWorkers(2)}, options...)...)
	t.Cleanup(s.Release)
	return s, cam, target
}

func TestNewScenePanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewScene("x", nil, &fakeTarget{}) })
	assert.Panics(t, func() { NewScene("x", camera.NewCamera(), nil) })
}

func TestRenderInactiveDoesNothing(t *testing.T) {
	cam := &countingCamera{Camera: camera.NewCamera()}
	target := &fakeTarget{}
	s := NewScene("idle", cam, target)
	t.Cleanup(s.Release)

	stats, err := s.Render(0.016)
	require.NoError(t, err)
	assert.Equal(t, FrameStats{}, stats)
	assert.Empty(t, target.events)
	assert.Zero(t, cam.snapshots.Load())
}

func TestRenderSnapshotsOncePerFrame(t *testing.T) {
	log := &drawLog{}
	s, cam, target := newTestScene(t)
	for _, n := range []string{"a", "b", "c", "d"} {
		s.Add(&fakeRenderable{name: n, log: log})
	}

	stats, err := s.Render(0.016)
	require.NoError(t, err)
	assert.Equal(t, FrameStats{Drawn: 4}, stats)
	assert.Equal(t, int32(1), cam.snapshots.Load())
	assert.Equal(t, []string{"begin", "end", "present"}, target.events)

	want := cam.ViewMatrix()
	for _, v := range log.views {
		assert.Equal(t, want, v)
	}
}

func TestRenderOrderIsStable(t *testing.T) {
	log := &drawLog{}
	s, _, _ := newTestScene(t, WithRenderables(
		&fakeRenderable{name: "first", log: log},
		&fakeRenderable{name: "second", log: log},
	))
	s.Add(&fakeRenderable{name: "third", log: log})

	for range 3 {
		_, err := s.Render(0.016)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{
		"first", "second", "third",
		"first", "second", "third",
		"first", "second", "third",
	}, log.names)
}

func TestRenderSeesInputAppliedBeforeFrame(t *testing.T) {
	log := &drawLog{}
	s, cam, _ := newTestScene(t)
	s.Add(&fakeRenderable{name: "a", log: log})

	cam.ProcessKey(camera.YawRight, 0)
	cam.ProcessKey(camera.Forward, 0.1)
	_, err := s.Render(0.016)
	require.NoError(t, err)

	require.Len(t, log.views, 1)
	assert.Equal(t, cam.ViewMatrix(), log.views[0])
}

func TestPrepareRunsBeforeDraw(t *testing.T) {
	log := &drawLog{}
	s, _, _ := newTestScene(t)
	items := make([]*preparedRenderable, 8)
	for i := range items {
		items[i] = &preparedRenderable{fakeRenderable: fakeRenderable{name: string(rune('a' + i)), log: log}}
		s.Add(items[i])
	}

	_, err := s.Render(0.016)
	require.NoError(t, err)
	for _, it := range items {
		assert.Equal(t, int32(1), it.prepared.Load(), it.name)
		assert.Equal(t, int32(1), it.drawnAt, it.name)
	}
}

func TestDrawErrorsAreCounted(t *testing.T) {
	log := &drawLog{}
	s, _, target := newTestScene(t)
	s.Add(
		&fakeRenderable{name: "ok", log: log},
		&fakeRenderable{name: "broken", log: log, drawErr: errors.New("boom")},
		&fakeRenderable{name: "also-ok", log: log},
	)

	stats, err := s.Render(0.016)
	require.NoError(t, err)
	assert.Equal(t, FrameStats{Drawn: 2, Failed: 1}, stats)
	assert.Equal(t, []string{"ok", "also-ok"}, log.names)
	assert.Equal(t, []string{"begin", "end", "present"}, target.events)
}

func TestPreparePanicIsCountedAndSkipped(t *testing.T) {
	log := &drawLog{}
	s, _, target := newTestScene(t)
	s.Add(
		&fakeRenderable{name: "ok", log: log},
		&panickingRenderable{fakeRenderable{name: "bad", log: log}},
		&preparedRenderable{fakeRenderable: fakeRenderable{name: "prepared", log: log}},
	)

	for range 2 {
		stats, err := s.Render(0.016)
		require.NoError(t, err)
		assert.Equal(t, FrameStats{Drawn: 2, Failed: 1}, stats)
	}
	assert.Equal(t, []string{"ok", "prepared", "ok", "prepared"}, log.names)
	assert.Equal(t, []string{"begin", "end", "present", "begin", "end", "present"}, target.events)
}

func TestRenderAfterRelease(t *testing.T) {
	s, cam, target := newTestScene(t)
	s.Release()
	s.Release()

	stats, err := s.Render(0.016)
	assert.ErrorIs(t, err, ErrReleased)
	assert.Equal(t, FrameStats{}, stats)
	assert.Empty(t, target.events)
	assert.Zero(t, cam.snapshots.Load())
}

func TestBeginFrameErrorAborts(t *testing.T) {
	log := &drawLog{}
	s, _, target := newTestScene(t)
	target.beginErr = errors.New("surface lost")
	s.Add(&fakeRenderable{name: "a", log: log})

	_, err := s.Render(0.016)
	require.Error(t, err)
	assert.ErrorIs(t, err, target.beginErr)
	assert.Empty(t, log.names)
	assert.Equal(t, []string{"begin"}, target.events)
}

func TestCulling(t *testing.T) {
	log := &drawLog{}
	visible := &boundedRenderable{fakeRenderable: fakeRenderable{name: "visible", log: log}, radius: 1}
	behind := &boundedRenderable{fakeRenderable: fakeRenderable{name: "behind", log: log}, center: mgl32.Vec3{0, 0, 10}, radius: 1}
	unbounded := &fakeRenderable{name: "unbounded", log: log}

	s, _, _ := newTestScene(t, WithCulling(true), WithRenderables(visible, behind, unbounded))
	stats, err := s.Render(0.016)
	require.NoError(t, err)
	assert.Equal(t, FrameStats{Drawn: 2, Culled: 1}, stats)
	assert.Equal(t, []string{"visible", "unbounded"}, log.names)

	s.SetCulling(false)
	assert.False(t, s.Culling())
	stats, err = s.Render(0.016)
	require.NoError(t, err)
	assert.Equal(t, FrameStats{Drawn: 3}, stats)
}

func TestAddRemove(t *testing.T) {
	log := &drawLog{}
	s, _, _ := newTestScene(t)
	s.Add(&fakeRenderable{name: "a", log: log}, nil, &fakeRenderable{name: "b", log: log})
	assert.Equal(t, 2, s.Len())

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	require.Len(t, s.Renderables(), 1)
	assert.Equal(t, "b", s.Renderables()[0].Name())

	list := s.Renderables()
	list[0] = nil
	assert.NotNil(t, s.Renderables()[0])
}

func TestActiveToggle(t *testing.T) {
	s, _, target := newTestScene(t)
	s.SetActive(false)
	assert.False(t, s.Active())
	_, err := s.Render(0.016)
	require.NoError(t, err)
	assert.Empty(t, target.events)
	assert.Equal(t, "test", s.Name())
	assert.NotNil(t, s.Camera())
}
