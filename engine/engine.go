package engine

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/eduren/engine/profiler"
	"github.com/Carmen-Shannon/eduren/engine/scene"
	"github.com/rs/zerolog"
)

// ErrNoWindow is returned by Run when the engine was built without a window.
var ErrNoWindow = errors.New("engine: no window")

// WindowLoop is the part of a window the engine loop drives. window.Window satisfies it.
type WindowLoop interface {
	// PollEvents processes pending events without blocking and reports whether the window is still open.
	PollEvents() bool

	// IsRunning reports whether the window is still open.
	IsRunning() bool

	// SetResizeCallback registers the function called with the new framebuffer size.
	SetResizeCallback(callback func(width, height int))
}

// ResizeTarget receives framebuffer size changes after the scene cameras have been updated.
// renderer.Renderer satisfies it.
type ResizeTarget interface {
	Resize(width, height int)
}

// engine implements the Engine interface.
// Everything runs on the goroutine that calls Run, which must be the OS-locked main thread.
type engine struct {
	mu *sync.Mutex

	window        WindowLoop
	resizeTargets []ResizeTarget

	profiler         *profiler.Profiler
	profilingEnabled bool

	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	scenes map[int]scene.Scene

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	tasks []func()

	quitChannel chan struct{}
	quitOnce    sync.Once

	frames uint64
	logger zerolog.Logger
}

// Engine is the main entry point for the engine.
// It owns the frame loop: events, input, scene rendering, and profiling on a single thread.
type Engine interface {
	// Window returns the window the engine polls.
	//
	// Returns:
	//   - WindowLoop: the window, or nil if none was configured
	Window() WindowLoop

	// Profiler returns the frame profiler.
	Profiler() *profiler.Profiler

	// EnableProfiler enables per-frame profiling.
	EnableProfiler()

	// DisableProfiler disables per-frame profiling.
	DisableProfiler()

	// SetTickCallback registers the function called once per frame before any scene renders.
	// Use this for input processing and other per-frame updates.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called once per frame after all scenes have rendered.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop.
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given z-index key.
	// Scenes are rendered in ascending key order.
	//
	// Parameters:
	//   - key: the z-index determining render order (lower renders first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Post queues fn to run on the loop thread at the start of the next frame, before the tick callback.
	// Safe to call from any goroutine.
	//
	// Parameters:
	//   - fn: the task to run
	Post(fn func())

	// Frames returns the number of frames completed so far.
	Frames() uint64

	// Run runs the frame loop on the calling goroutine until the context is cancelled, the window
	// closes, or Quit is called. A panic inside a frame is recovered and returned as an error.
	//
	// Parameters:
	//   - ctx: cancelling it stops the loop after the current frame
	//
	// Returns:
	//   - error: nil on a normal stop, ErrNoWindow, or the recovered panic
	Run(ctx context.Context) error

	// Quit stops the loop after the current frame. Safe to call multiple times and from any goroutine.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:          &sync.Mutex{},
		scenes:      make(map[int]scene.Scene),
		quitChannel: make(chan struct{}),
		logger:      zerolog.Nop(),
	}

	for _, opt := range options {
		opt(e)
	}

	e.logger = e.logger.With().Str("component", "engine").Logger()
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}
	if e.window != nil {
		e.window.SetResizeCallback(e.handleResize)
	}
	return e
}

// handleResize updates every scene camera's aspect, then the resize targets.
// A zero height (minimized window) leaves the aspect unchanged.
func (e *engine) handleResize(width, height int) {
	if height > 0 && width > 0 {
		aspect := float32(width) / float32(height)
		for _, s := range e.Scenes() {
			s.Camera().SetAspect(aspect)
		}
	}
	for _, t := range e.resizeTargets {
		t.Resize(width, height)
	}
	e.logger.Debug().Int("width", width).Int("height", height).Msg("resized")
}

func (e *engine) Window() WindowLoop {
	return e.window
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderFrameLimit = frameLimit(fps)
}

func frameLimit(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.scenes)
}

func (e *engine) Post(fn func()) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, fn)
}

func (e *engine) Frames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Run(ctx context.Context) error {
	if e.window == nil {
		return ErrNoWindow
	}
	e.logger.Info().Msg("engine started")

	lastFrame := time.Now()
	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("engine stopped: context cancelled")
			return nil
		case <-e.quitChannel:
			e.logger.Info().Msg("engine stopped: quit")
			return nil
		default:
		}

		frameStart := time.Now()
		if !e.window.PollEvents() || !e.window.IsRunning() {
			e.logger.Info().Msg("engine stopped: window closed")
			return nil
		}
		dt := float32(frameStart.Sub(lastFrame).Seconds())
		lastFrame = frameStart

		if err := e.frame(dt); err != nil {
			e.logger.Error().Err(err).Msg("engine stopped")
			return err
		}

		e.mu.Lock()
		e.frames++
		profiling := e.profilingEnabled
		limit := e.renderFrameLimit
		e.mu.Unlock()

		if profiling {
			e.profiler.Tick(time.Since(frameStart))
		}

		if limit > 0 {
			if remaining := limit - time.Since(frameStart); remaining > 0 {
				timer := time.NewTimer(remaining)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
				case <-e.quitChannel:
					timer.Stop()
				}
			}
		}
	}
}

// frame runs one iteration: queued tasks, the tick callback, every active scene in z-order, and the
// render callback. Panics are converted into an error.
func (e *engine) frame(dt float32) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine: frame panicked: %v", r)
		}
	}()

	e.mu.Lock()
	tasks := e.tasks
	e.tasks = nil
	tick := e.tickCallback
	render := e.renderCallback
	keys := slices.Sorted(maps.Keys(e.scenes))
	scenes := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		scenes = append(scenes, e.scenes[k])
	}
	e.mu.Unlock()

	for _, task := range tasks {
		task()
	}

	// All input for the frame is applied here, before any scene reads its camera.
	if tick != nil {
		tick(dt)
	}

	for _, s := range scenes {
		if !s.Active() {
			continue
		}
		stats, err := s.Render(dt)
		if err != nil {
			e.logger.Warn().Err(err).Str("scene", s.Name()).Msg("frame skipped")
			continue
		}
		if stats.Failed > 0 {
			e.logger.Debug().Str("scene", s.Name()).Int("failed", stats.Failed).Msg("renderables failed")
		}
	}

	if render != nil {
		render(dt)
	}
	return nil
}
