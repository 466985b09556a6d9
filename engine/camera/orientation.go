package camera

import (
	"math"

	"github.com/Carmen-Shannon/eduren/common"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MinPitch is the lowest pitch, in degrees, the camera can look.
	MinPitch float32 = -89.0

	// MaxPitch is the highest pitch, in degrees, the camera can look.
	// Keeping pitch strictly inside (-90, 90) means front is never parallel to worldUp,
	// so cross(front, worldUp) never degenerates to a zero vector.
	MaxPitch float32 = 89.0
)

// Basis is the orthonormal front/up/right triad describing camera orientation in world space.
type Basis struct {
	Front mgl32.Vec3
	Up    mgl32.Vec3
	Right mgl32.Vec3
}

// DeriveBasis computes a roll-free orthonormal basis from yaw and pitch angles.
//
// Parameters:
//   - yaw: rotation about worldUp in degrees (-90 faces -Z)
//   - pitch: rotation about the local right axis in degrees, expected within [MinPitch, MaxPitch]
//   - worldUp: the fixed reference up vector
//
// Returns:
//   - Basis: unit front, up and right vectors, pairwise orthogonal
func DeriveBasis(yaw, pitch float32, worldUp mgl32.Vec3) Basis {
	y := float64(mgl32.DegToRad(yaw))
	p := float64(mgl32.DegToRad(pitch))

	front := mgl32.Vec3{
		float32(math.Cos(y) * math.Cos(p)),
		float32(math.Sin(p)),
		float32(math.Sin(y) * math.Cos(p)),
	}.Normalize()
	right := front.Cross(worldUp).Normalize()
	up := right.Cross(front).Normalize()

	return Basis{Front: front, Up: up, Right: right}
}

// LookAt builds the right-handed view matrix for an eye at position looking along b.Front.
//
// Parameters:
//   - position: eye position in world space
//   - b: the current orientation basis
//
// Returns:
//   - mgl32.Mat4: the world-to-view transform; b.Front maps to -Z in view space
func LookAt(position mgl32.Vec3, b Basis) mgl32.Mat4 {
	return mgl32.LookAtV(position, position.Add(b.Front), b.Up)
}

// ClampPitch limits a pitch angle to [MinPitch, MaxPitch].
func ClampPitch(pitch float32) float32 {
	return common.Clamp(pitch, MinPitch, MaxPitch)
}
