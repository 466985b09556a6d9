package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/eduren/engine/camera"
	"github.com/Carmen-Shannon/eduren/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWindow stays open for a fixed number of polls.
type fakeWindow struct {
	mu       sync.Mutex
	polls    int
	maxPolls int
	onResize func(width, height int)
	onPoll   func(poll int)
}

func (w *fakeWindow) PollEvents() bool {
	w.mu.Lock()
	w.polls++
	n := w.polls
	hook := w.onPoll
	w.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return w.IsRunning()
}

func (w *fakeWindow) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.maxPolls <= 0 || w.polls <= w.maxPolls
}

func (w *fakeWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

// eventLog records frame events across targets and renderables in call order.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type logTarget struct {
	name string
	log  *eventLog
}

func (t *logTarget) BeginFrame() error { t.log.add(t.name + ":begin"); return nil }
func (t *logTarget) EndFrame()         {}
func (t *logTarget) Present()          { t.log.add(t.name + ":present") }

type logRenderable struct {
	name string
	log  *eventLog
}

func (r *logRenderable) Name() string { return r.name }
func (r *logRenderable) Draw(scene.Frame) error {
	r.log.add(r.name + ":draw")
	return nil
}

type resizeRecorder struct {
	sizes [][2]int
}

func (r *resizeRecorder) Resize(width, height int) {
	r.sizes = append(r.sizes, [2]int{width, height})
}

func newLogScene(t *testing.T, name string, log *eventLog, extra ...scene.Renderable) scene.Scene {
	t.Helper()
	s := scene.NewScene(name, camera.NewCamera(), &logTarget{name: name, log: log},
		scene.WithPrepareWorkers(1),
		scene.WithRenderables(append([]scene.Renderable{&logRenderable{name: name + "/r", log: log}}, extra...)...),
	)
	t.Cleanup(s.Release)
	return s
}

type panickingPreparer struct {
	logRenderable
}

func (p *panickingPreparer) Prepare(scene.Frame) error {
	panic("prepare boom")
}

func TestRunWithoutWindow(t *testing.T) {
	e := NewEngine()
	assert.ErrorIs(t, e.Run(context.Background()), ErrNoWindow)
}

func TestRunStopsWhenWindowCloses(t *testing.T) {
	w := &fakeWindow{maxPolls: 3}
	e := NewEngine(WithWindow(w))

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(3), e.Frames())
}

func TestFrameOrder(t *testing.T) {
	log := &eventLog{}
	w := &fakeWindow{maxPolls: 1}
	e := NewEngine(
		WithWindow(w),
		WithScene(10, newLogScene(t, "top", log)),
		WithScene(-1, newLogScene(t, "bottom", log)),
	)
	e.Post(func() { log.add("task") })
	e.SetTickCallback(func(float32) { log.add("tick") })
	e.SetRenderCallback(func(float32) { log.add("render") })

	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, []string{
		"task",
		"tick",
		"bottom:begin", "bottom/r:draw", "bottom:present",
		"top:begin", "top/r:draw", "top:present",
		"render",
	}, log.all())
}

func TestInactiveSceneSkipped(t *testing.T) {
	log := &eventLog{}
	s := newLogScene(t, "hidden", log)
	s.SetActive(false)
	e := NewEngine(WithWindow(&fakeWindow{maxPolls: 2}), WithScene(0, s))

	require.NoError(t, e.Run(context.Background()))
	assert.Empty(t, log.all())
}

func TestTickInputVisibleToSameFrame(t *testing.T) {
	cam := camera.NewCamera()
	var seen []float32
	s := scene.NewScene("main", cam, &logTarget{name: "main", log: &eventLog{}},
		scene.WithPrepareWorkers(1),
		scene.WithRenderables(&viewRecorder{seen: &seen}),
	)
	t.Cleanup(s.Release)
	e := NewEngine(WithWindow(&fakeWindow{maxPolls: 2}), WithScene(0, s))
	e.SetTickCallback(func(float32) { cam.ProcessKey(camera.Forward, 0.1) })

	require.NoError(t, e.Run(context.Background()))

	require.Len(t, seen, 2)
	assert.InDelta(t, 1.5, seen[0], 1e-5)
	assert.InDelta(t, 1.0, seen[1], 1e-5)
}

type viewRecorder struct {
	seen *[]float32
}

func (v *viewRecorder) Name() string { return "recorder" }
func (v *viewRecorder) Draw(frame scene.Frame) error {
	*v.seen = append(*v.seen, frame.View.Position.Z())
	return nil
}

func TestPostFromAnotherGoroutine(t *testing.T) {
	w := &fakeWindow{}
	e := NewEngine(WithWindow(w))

	ran := make(chan struct{})
	go e.Post(func() {
		close(ran)
		e.Quit()
	})

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
	select {
	case <-ran:
	default:
		t.Fatal("posted task never ran")
	}
}

func TestQuitIsIdempotent(t *testing.T) {
	e := NewEngine(WithWindow(&fakeWindow{}))
	e.Quit()
	e.Quit()
	require.NoError(t, e.Run(context.Background()))
	assert.Zero(t, e.Frames())
}

func TestContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := &fakeWindow{onPoll: func(n int) {
		if n == 2 {
			cancel()
		}
	}}
	e := NewEngine(WithWindow(w))

	require.NoError(t, e.Run(ctx))
	assert.Equal(t, uint64(2), e.Frames())
}

func TestPanicIsRecovered(t *testing.T) {
	e := NewEngine(WithWindow(&fakeWindow{}))
	e.SetRenderCallback(func(float32) { panic("boom") })

	err := e.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestPreparePanicDoesNotStopEngine(t *testing.T) {
	log := &eventLog{}
	bad := &panickingPreparer{logRenderable{name: "bad", log: log}}
	e := NewEngine(WithWindow(&fakeWindow{maxPolls: 2}), WithScene(0, newLogScene(t, "main", log, bad)))

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(2), e.Frames())
	assert.Equal(t, []string{
		"main:begin", "main/r:draw", "main:present",
		"main:begin", "main/r:draw", "main:present",
	}, log.all())
}

func TestResizeUpdatesCamerasThenTargets(t *testing.T) {
	w := &fakeWindow{}
	rec := &resizeRecorder{}
	s := newLogScene(t, "main", &eventLog{})
	NewEngine(WithWindow(w), WithScene(0, s), WithResizeTarget(rec))

	require.NotNil(t, w.onResize)
	w.onResize(800, 400)

	assert.InDelta(t, 2.0, s.Camera().Aspect(), 1e-6)
	assert.Equal(t, [][2]int{{800, 400}}, rec.sizes)

	w.onResize(800, 0)
	assert.InDelta(t, 2.0, s.Camera().Aspect(), 1e-6, "minimized window keeps the aspect")
	assert.Len(t, rec.sizes, 2)
}

func TestFrameLimitSleeps(t *testing.T) {
	e := NewEngine(WithWindow(&fakeWindow{maxPolls: 3}), WithRenderFrameLimit(50))

	start := time.Now()
	require.NoError(t, e.Run(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}

func TestProfilerTicksWhenEnabled(t *testing.T) {
	e := NewEngine(WithWindow(&fakeWindow{maxPolls: 4}), WithProfiling(true))
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 4, e.Profiler().Stats().Samples)

	e2 := NewEngine(WithWindow(&fakeWindow{maxPolls: 4}))
	require.NoError(t, e2.Run(context.Background()))
	assert.Zero(t, e2.Profiler().Stats().Samples)
}

func TestSceneRegistry(t *testing.T) {
	e := NewEngine()
	s := newLogScene(t, "a", &eventLog{})
	e.AddScene(3, s)
	assert.Same(t, s, e.Scene(3))

	scenes := e.Scenes()
	delete(scenes, 3)
	assert.NotNil(t, e.Scene(3), "Scenes returns a copy")

	e.RemoveScene(3)
	assert.Nil(t, e.Scene(3))
}
