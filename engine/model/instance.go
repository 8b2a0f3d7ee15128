package model

import "github.com/What42Pizza/WGPU-Template/common"

// InstanceTransform is a first-class per-instance model matrix. The GPU
// delivers the matrix as four separate vec4 attributes because vertex
// attributes cap out at 4 floats each; this type reassembles them through a
// single constructor that takes the columns in named order, so a reordering
// mistake fails at the construction boundary instead of silently corrupting
// every instance on screen.
type InstanceTransform struct {
	m [16]float32
}

// NewInstanceTransform assembles an instance transform from the four columns
// of a column-major 4×4 matrix. The parameter order is the column order; the
// assembled matrix is exactly [col0 col1 col2 col3].
//
// Parameters:
//   - col0: the first matrix column (attribute location 3)
//   - col1: the second matrix column (attribute location 4)
//   - col2: the third matrix column (attribute location 5)
//   - col3: the fourth matrix column (attribute location 6)
//
// Returns:
//   - InstanceTransform: the assembled transform
func NewInstanceTransform(col0, col1, col2, col3 [4]float32) InstanceTransform {
	var t InstanceTransform
	copy(t.m[0:4], col0[:])
	copy(t.m[4:8], col1[:])
	copy(t.m[8:12], col2[:])
	copy(t.m[12:16], col3[:])
	return t
}

// InstanceTransformFromMatrix wraps an existing column-major 4×4 matrix as an
// instance transform.
//
// Parameters:
//   - m: the matrix (16 elements, column-major)
//
// Returns:
//   - InstanceTransform: the wrapped transform
func InstanceTransformFromMatrix(m [16]float32) InstanceTransform {
	return InstanceTransform{m: m}
}

// IdentityInstance returns the identity instance transform. Applying it
// leaves object-space positions unchanged.
//
// Returns:
//   - InstanceTransform: the identity transform
func IdentityInstance() InstanceTransform {
	var t InstanceTransform
	t.m[0], t.m[5], t.m[10], t.m[15] = 1, 1, 1, 1
	return t
}

// Matrix returns the transform as a flat column-major 16-element array.
//
// Returns:
//   - [16]float32: the column-major matrix
func (t InstanceTransform) Matrix() [16]float32 {
	return t.m
}

// Column returns one column of the transform matrix.
//
// Parameters:
//   - i: the column index (0-3)
//
// Returns:
//   - [4]float32: the requested column
func (t InstanceTransform) Column(i int) [4]float32 {
	var col [4]float32
	copy(col[:], t.m[i*4:i*4+4])
	return col
}

// Apply transforms a homogeneous point or direction by the instance matrix.
//
// Parameters:
//   - v: the vector to transform
//
// Returns:
//   - [4]float32: the transformed vector
func (t InstanceTransform) Apply(v [4]float32) [4]float32 {
	return common.MulVec4(t.m[:], v)
}

// Mul composes two instance transforms. Result: t * other.
//
// Parameters:
//   - other: the right-hand transform
//
// Returns:
//   - InstanceTransform: the composed transform
func (t InstanceTransform) Mul(other InstanceTransform) InstanceTransform {
	var out InstanceTransform
	common.Mul4(out.m[:], t.m[:], other.m[:])
	return out
}

// GPUData returns the wire form of the transform for the instance buffer.
//
// Returns:
//   - GPUInstanceData: the 64-byte GPU representation
func (t InstanceTransform) GPUData() GPUInstanceData {
	return GPUInstanceData{Model: t.m}
}
