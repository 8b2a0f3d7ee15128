package software

import (
	"github.com/What42Pizza/WGPU-Template/common"
	"github.com/What42Pizza/WGPU-Template/engine/camera"
	"github.com/What42Pizza/WGPU-Template/engine/model"
)

// InterpolatedVertex carries the vertex stage outputs handed to
// rasterization: the clip-space position and the location-0 interpolant.
type InterpolatedVertex struct {
	// Position is the clip-space position after the depth remap.
	Position [4]float32

	// TexCoord is the texture coordinate, passed through unchanged.
	TexCoord [2]float32
}

// TransformVertex runs the vertex stage for one vertex of one instance.
// The clip position is proj_view * M * vec4(position, 1.0) with the Z
// component remapped as z*0.5 + 0.25 afterwards. X, Y, and W come out of
// the multiply untouched, and the texture coordinate passes through.
//
// The function is pure: it reads its arguments and touches no shared state,
// so invocations may run concurrently without coordination.
//
// Parameters:
//   - cam: the camera uniform holding the combined projection-view matrix
//   - inst: the per-instance model matrix
//   - v: the vertex to transform
//
// Returns:
//   - InterpolatedVertex: the clip-space position and interpolant
func TransformVertex(cam camera.GPUCameraUniform, inst model.InstanceTransform, v model.GPUVertex) InterpolatedVertex {
	m := inst.Matrix()

	var projModel [16]float32
	common.Mul4(projModel[:], cam.ProjView[:], m[:])

	clip := common.MulVec4(projModel[:], [4]float32{v.Position[0], v.Position[1], v.Position[2], 1.0})
	clip[2] = clip[2]*0.5 + 0.25

	return InterpolatedVertex{
		Position: clip,
		TexCoord: v.TexCoord,
	}
}

// ShadeFragment runs the fragment stage for one fragment: it samples the
// texture at the interpolated coordinate and returns the color unmodified.
//
// Like TransformVertex this is a pure function safe for concurrent use.
//
// Parameters:
//   - tex: the bound texture
//   - s: the bound sampler
//   - uv: the interpolated texture coordinate
//
// Returns:
//   - [4]float32: the sampled RGBA color
func ShadeFragment(tex *Texture, s Sampler, uv [2]float32) [4]float32 {
	return s.Sample(tex, uv[0], uv[1])
}

// InterpolateUV computes the perspective-correct texture coordinate at a
// point inside a triangle, given the screen-space barycentric weights of the
// point with respect to the three transformed vertices. Each attribute is
// divided by its vertex's clip W before blending and the result is divided
// by the blended 1/W, so interpolation matches hardware behavior. When the
// three W components are equal the result reduces to the plain convex
// combination of the vertex attributes.
//
// Parameters:
//   - v0, v1, v2: the transformed triangle vertices
//   - w0, w1, w2: screen-space barycentric weights (should sum to 1)
//
// Returns:
//   - [2]float32: the interpolated texture coordinate
func InterpolateUV(v0, v1, v2 InterpolatedVertex, w0, w1, w2 float32) [2]float32 {
	iw0 := 1.0 / v0.Position[3]
	iw1 := 1.0 / v1.Position[3]
	iw2 := 1.0 / v2.Position[3]

	invW := w0*iw0 + w1*iw1 + w2*iw2
	if invW == 0 {
		return [2]float32{}
	}

	var uv [2]float32
	for i := 0; i < 2; i++ {
		uv[i] = (w0*v0.TexCoord[i]*iw0 + w1*v1.TexCoord[i]*iw1 + w2*v2.TexCoord[i]*iw2) / invW
	}
	return uv
}

// Barycentric computes the barycentric weights of point p with respect to
// the 2D triangle (a, b, c). Degenerate triangles yield all-zero weights.
//
// Parameters:
//   - a, b, c: the triangle corners
//   - p: the query point
//
// Returns:
//   - float32: weight of a
//   - float32: weight of b
//   - float32: weight of c
func Barycentric(a, b, c, p [2]float32) (float32, float32, float32) {
	area := edgeFunction(a, b, c)
	if area == 0 {
		return 0, 0, 0
	}

	wa := edgeFunction(b, c, p) / area
	wb := edgeFunction(c, a, p) / area
	wc := edgeFunction(a, b, p) / area
	return wa, wb, wc
}

// edgeFunction returns twice the signed area of triangle (a, b, p).
// Positive when p lies to the left of the directed edge a->b.
func edgeFunction(a, b, p [2]float32) float32 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}
