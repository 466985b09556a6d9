package common

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// Perspective creates a right-handed perspective projection matrix that maps depth into
// the WebGPU clip space range [0, 1]. mgl32.Perspective targets the OpenGL [-1, 1] range
// and cannot be used with a wgpu depth buffer directly.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))
	var m mgl32.Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = far / (near - far)
	m[11] = -1.0
	m[14] = (near * far) / (near - far)
	return m
}

// ModelMatrix builds a translate * uniform-scale model matrix.
//
// Parameters:
//   - translation: world-space position
//   - scale: uniform scale factor
//
// Returns:
//   - mgl32.Mat4: the model matrix
func ModelMatrix(translation mgl32.Vec3, scale float32) mgl32.Mat4 {
	return mgl32.Translate3D(translation[0], translation[1], translation[2]).
		Mul4(mgl32.Scale3D(scale, scale, scale))
}

// PutMat4 writes a column-major matrix into buf as 16 little-endian float32 values.
// buf must hold at least 64 bytes.
func PutMat4(buf []byte, m mgl32.Mat4) {
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(m[i]))
	}
}

// PutVec returns the number of bytes written after storing v as little-endian float32 values in buf.
func PutVec(buf []byte, v ...float32) int {
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return len(v) * 4
}

// ApproxEqual reports whether a and b differ by no more than eps.
func ApproxEqual(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}
