package camera

import "github.com/go-gl/mathgl/mgl32"

type CameraBuilderOption func(*cameraImpl)

// WithConfig sets the camera's movement tuning. Zero speeds fall back to the defaults.
//
// Parameters:
//   - cfg: the movement configuration
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's configuration
func WithConfig(cfg Config) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.cfg = cfg
	}
}

// WithPosition sets the camera's initial world-space position.
//
// Parameters:
//   - position: the eye position
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's position
func WithPosition(position mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = position
	}
}

// WithYawPitch sets the camera's initial orientation in degrees. Pitch is clamped to [MinPitch, MaxPitch].
//
// Parameters:
//   - yaw: yaw angle in degrees
//   - pitch: pitch angle in degrees
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's orientation
func WithYawPitch(yaw, pitch float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.yaw = yaw
		c.pitch = ClampPitch(pitch)
	}
}

// WithFov sets the camera's vertical field of view in radians. Values outside (0, π) are ignored.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if validFov(fov) {
			c.fov = fov
		}
	}
}

// WithAspect sets the camera's aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio to set
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if aspect > 0 {
			c.aspect = aspect
		}
	}
}

// WithNear sets the near clipping plane distance. A non-positive distance falls back to 0.1.
//
// Parameters:
//   - near: near plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the near plane
func WithNear(near float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
	}
}

// WithFar sets the far clipping plane distance. A far plane not beyond the near plane is
// replaced with near * 1000 once all options are applied.
//
// Parameters:
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: functional option to set the far plane
func WithFar(far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.far = far
	}
}
