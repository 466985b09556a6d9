package scene

import "github.com/rs/zerolog"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithRenderables adds initial renderables to the scene in draw order.
//
// Parameters:
//   - renderables: the renderables to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRenderables(renderables ...Renderable) SceneBuilderOption {
	return func(s *scene) {
		for _, r := range renderables {
			if r != nil {
				s.renderables = append(s.renderables, r)
			}
		}
	}
}

// WithPrepareWorkers sets the number of worker goroutines used to run Prepare calls.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPrepareWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.prepareWorkers = n
	}
}

// WithCulling enables frustum culling of Bounded renderables. Disabled by default.
//
// Parameters:
//   - enabled: true to skip renderables outside the view frustum
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCulling(enabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.culling = enabled
	}
}

// WithLogger sets the logger used for draw and prepare failures.
func WithLogger(logger zerolog.Logger) SceneBuilderOption {
	return func(s *scene) {
		s.logger = logger
	}
}
