package renderable

import "github.com/go-gl/mathgl/mgl32"

// CubeBuilderOption is a functional option for configuring a Cube.
type CubeBuilderOption func(c *cube)

// WithTransform places the cube. A non-positive scale falls back to 1.
//
// Parameters:
//   - translation: the cube's center in world space
//   - scale: the uniform scale applied to the [-1, 1] base cube
//
// Returns:
//   - CubeBuilderOption: option function to apply
func WithTransform(translation mgl32.Vec3, scale float32) CubeBuilderOption {
	return func(c *cube) {
		if scale <= 0 {
			scale = 1
		}
		c.transform = Transform{Translation: translation, Scale: scale}
	}
}

// WithColor sets the cube's RGBA color.
//
// Parameters:
//   - color: the color, each channel in [0, 1]
//
// Returns:
//   - CubeBuilderOption: option function to apply
func WithColor(color mgl32.Vec4) CubeBuilderOption {
	return func(c *cube) {
		c.color = color
	}
}
