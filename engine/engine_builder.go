package engine

import (
	"github.com/Carmen-Shannon/eduren/engine/profiler"
	"github.com/Carmen-Shannon/eduren/engine/scene"
	"github.com/rs/zerolog"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables per-frame profiling.
//
// Parameters:
//   - enabled: if true, every frame is recorded by the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler, e.g. with one registered on a shared metrics registry.
//
// Parameters:
//   - p: the profiler to tick each frame
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithWindow sets the window the engine polls each frame.
//
// Parameters:
//   - w: the window, typically a window.Window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w WindowLoop) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithScene registers a scene at the given z-index key during engine construction.
//
// Parameters:
//   - key: the z-index determining render order (lower renders first)
//   - s: the Scene to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
	}
}

// WithRenderFrameLimit sets an optional frame rate cap in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameLimit(fps)
	}
}

// WithResizeTarget adds a target notified of framebuffer size changes, after the scene cameras.
//
// Parameters:
//   - t: the target, typically the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithResizeTarget(t ResizeTarget) EngineBuilderOption {
	return func(e *engine) {
		if t != nil {
			e.resizeTargets = append(e.resizeTargets, t)
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger zerolog.Logger) EngineBuilderOption {
	return func(e *engine) {
		e.logger = logger
	}
}
