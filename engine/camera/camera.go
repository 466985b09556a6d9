package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/eduren/common"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	cfg Config

	position mgl32.Vec3
	worldUp  mgl32.Vec3
	yaw      float32
	pitch    float32

	basis Basis

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix       mgl32.Mat4
	projectionMatrix mgl32.Mat4
}

// FrameView is an immutable copy of everything a render step needs from the camera for one frame.
type FrameView struct {
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	ViewProjection mgl32.Mat4
	Position       mgl32.Vec3
	Basis          Basis
}

// Camera is a roll-free first-person camera driven by discrete commands.
// Every mutation recomputes the derived basis and matrices before returning, so accessors
// are plain reads and always reflect the last committed command.
type Camera interface {
	// ProcessKey applies one command.
	// Movement commands translate the position along front/right by MoveSpeed*dt.
	// Rotation commands change yaw or pitch by the configured step, clamp pitch to
	// [MinPitch, MaxPitch] and recompute the basis. Values outside the command set are ignored.
	//
	// Parameters:
	//   - cmd: the command to apply
	//   - dt: elapsed time in seconds since the previous frame; negative values are treated as 0
	ProcessKey(cmd Command, dt float32)

	// Position returns the eye position in world space.
	//
	// Returns:
	//   - mgl32.Vec3: the camera position
	Position() mgl32.Vec3

	// YawPitch returns the current orientation angles in degrees.
	//
	// Returns:
	//   - yaw: unbounded yaw angle
	//   - pitch: pitch angle within [MinPitch, MaxPitch]
	YawPitch() (yaw, pitch float32)

	// ViewMatrix returns the world-to-view transform.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix (column-major)
	ViewMatrix() mgl32.Mat4

	// Basis returns the current front/up/right vectors.
	//
	// Returns:
	//   - Basis: the orthonormal orientation basis
	Basis() Basis

	// WorldUp returns the fixed reference up vector.
	//
	// Returns:
	//   - mgl32.Vec3: the world up vector
	WorldUp() mgl32.Vec3

	// Config returns the movement tuning in effect.
	//
	// Returns:
	//   - Config: the current configuration
	Config() Config

	// SetConfig replaces the movement tuning. Zero speeds fall back to their defaults.
	//
	// Parameters:
	//   - cfg: the new configuration
	SetConfig(cfg Config)

	// ProjectionMatrix returns the perspective projection (WebGPU [0, 1] depth).
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix (column-major)
	ProjectionMatrix() mgl32.Mat4

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// SetFov sets the vertical field of view in radians and recomputes the projection.
	//
	// Parameters:
	//   - fov: field of view in radians; values outside (0, π) are ignored
	SetFov(fov float32)

	// SetAspect sets the aspect ratio and recomputes the projection.
	//
	// Parameters:
	//   - aspect: width / height; non-positive or non-finite values are ignored
	SetAspect(aspect float32)

	// Snapshot returns view, projection and position under a single lock, so the
	// values are consistent with each other. Render steps should call this once per frame.
	//
	// Returns:
	//   - FrameView: the frame's camera data
	Snapshot() FrameView
}

const (
	defaultNear float32 = 0.1
	defaultFar  float32 = 100
)

var _ Camera = &cameraImpl{}

// NewCamera creates a camera at (0, 0, 2) facing -Z (yaw -90, pitch 0) with worldUp (0, 1, 0)
// and the default movement tuning. The basis and matrices are valid before it returns.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		cfg:      DefaultConfig(),
		position: mgl32.Vec3{0, 0, 2},
		worldUp:  mgl32.Vec3{0, 1, 0},
		yaw:      -90.0,
		pitch:    0.0,
		fov:      mgl32.DegToRad(45.0),
		aspect:   1.0,
		near:     defaultNear,
		far:      defaultFar,
	}
	for _, option := range options {
		option(c)
	}
	c.cfg = c.cfg.withDefaults()
	c.pitch = ClampPitch(c.pitch)
	if !(c.near > 0) {
		c.near = defaultNear
	}
	if !(c.far > c.near) {
		c.far = c.near * 1000
	}
	c.updateOrientation()
	c.updateProjection()
	return c
}

func (c *cameraImpl) ProcessKey(cmd Command, dt float32) {
	if dt < 0 {
		dt = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	velocity := c.cfg.MoveSpeed * dt
	step := c.cfg.RotationStep
	if c.cfg.ScaleRotationByDt {
		step *= dt
	}

	switch cmd {
	case Forward:
		c.position = c.position.Add(c.basis.Front.Mul(velocity))
	case Back:
		c.position = c.position.Sub(c.basis.Front.Mul(velocity))
	case Left:
		c.position = c.position.Sub(c.basis.Right.Mul(velocity))
	case Right:
		c.position = c.position.Add(c.basis.Right.Mul(velocity))
	case PitchUp:
		c.pitch = ClampPitch(c.pitch + step)
	case PitchDown:
		c.pitch = ClampPitch(c.pitch - step)
	case YawLeft:
		c.yaw -= step
	case YawRight:
		c.yaw += step
	default:
		return
	}

	if cmd.IsRotation() {
		c.updateOrientation()
		return
	}
	c.updateView()
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) YawPitch() (yaw, pitch float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.yaw, c.pitch
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) Basis() Basis {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.basis
}

func (c *cameraImpl) WorldUp() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.worldUp
}

func (c *cameraImpl) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

func (c *cameraImpl) SetConfig(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg.withDefaults()
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) SetFov(fov float32) {
	if !validFov(fov) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateProjection()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 || math.IsInf(float64(aspect), 0) || math.IsNaN(float64(aspect)) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateProjection()
}

func (c *cameraImpl) Snapshot() FrameView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FrameView{
		View:           c.viewMatrix,
		Projection:     c.projectionMatrix,
		ViewProjection: c.projectionMatrix.Mul4(c.viewMatrix),
		Position:       c.position,
		Basis:          c.basis,
	}
}

// updateOrientation re-derives the basis from yaw/pitch and rebuilds the view matrix.
// Caller must hold the mutex.
func (c *cameraImpl) updateOrientation() {
	c.basis = DeriveBasis(c.yaw, c.pitch, c.worldUp)
	c.updateView()
}

// updateView rebuilds the view matrix from the current position and basis.
// Caller must hold the mutex.
func (c *cameraImpl) updateView() {
	c.viewMatrix = LookAt(c.position, c.basis)
}

// validFov reports whether fov lies in (0, π). At π and beyond tan(fov/2) flips sign.
func validFov(fov float32) bool {
	return fov > 0 && fov < math.Pi
}

// updateProjection rebuilds the projection matrix. Caller must hold the mutex.
func (c *cameraImpl) updateProjection() {
	c.projectionMatrix = common.Perspective(c.fov, c.aspect, c.near, c.far)
}
