package software

import (
	"math"
	"testing"

	"github.com/What42Pizza/WGPU-Template/common"
	"github.com/What42Pizza/WGPU-Template/engine/camera"
	"github.com/What42Pizza/WGPU-Template/engine/model"
)

// testCamera builds a camera uniform with a perspective projection and an
// offset view so the matrix has no special structure.
func testCamera() camera.GPUCameraUniform {
	var proj, view [16]float32
	common.Perspective(proj[:], math.Pi/3, 16.0/9.0, 0.1, 100.0)
	common.Identity(view[:])
	view[12] = -1.5
	view[13] = 0.25
	view[14] = -4.0

	var cam camera.GPUCameraUniform
	common.Mul4(cam.ProjView[:], proj[:], view[:])
	return cam
}

func TestTransformVertexMatchesMatrixProduct(t *testing.T) {
	cam := testCamera()
	inst := model.InstanceTransformFromMatrix(func() [16]float32 {
		var m [16]float32
		common.BuildModelMatrix(m[:], 2, -1, 3, 0.4, 1.1, -0.2, 1.5, 0.5, 2.0)
		return m
	}())

	vertices := []model.GPUVertex{
		{Position: [3]float32{0, 0, 0}, TexCoord: [2]float32{0, 0}},
		{Position: [3]float32{1, 2, 3}, TexCoord: [2]float32{0.5, 0.5}},
		{Position: [3]float32{-0.25, 7.5, -3.125}, TexCoord: [2]float32{1, 0}},
	}

	for _, v := range vertices {
		got := TransformVertex(cam, inst, v)

		m := inst.Matrix()
		var projModel [16]float32
		common.Mul4(projModel[:], cam.ProjView[:], m[:])
		want := common.MulVec4(projModel[:], [4]float32{v.Position[0], v.Position[1], v.Position[2], 1})

		// X, Y, and W must come out of the multiply bit-for-bit.
		for _, i := range []int{0, 1, 3} {
			if math.Float32bits(got.Position[i]) != math.Float32bits(want[i]) {
				t.Errorf("component %d: got %v (bits %#x), want %v (bits %#x)",
					i, got.Position[i], math.Float32bits(got.Position[i]), want[i], math.Float32bits(want[i]))
			}
		}

		wantZ := want[2]*0.5 + 0.25
		if math.Float32bits(got.Position[2]) != math.Float32bits(wantZ) {
			t.Errorf("Z: got %v, want %v", got.Position[2], wantZ)
		}

		if got.TexCoord != v.TexCoord {
			t.Errorf("texcoord changed: got %v, want %v", got.TexCoord, v.TexCoord)
		}
	}
}

func TestTransformVertexDepthRemapConstants(t *testing.T) {
	// With identity matrices the multiply passes Z straight through, so the
	// remap constants are observable directly.
	var cam camera.GPUCameraUniform
	common.Identity(cam.ProjView[:])
	inst := model.IdentityInstance()

	tests := []struct {
		name  string
		z     float32
		wantZ float32
	}{
		{name: "far plane", z: 1.0, wantZ: 0.75},
		{name: "behind near", z: -1.0, wantZ: -0.25},
		{name: "midpoint", z: 0.0, wantZ: 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := TransformVertex(cam, inst, model.GPUVertex{Position: [3]float32{0, 0, tt.z}})
			if math.Float32bits(out.Position[2]) != math.Float32bits(tt.wantZ) {
				t.Errorf("z=%v: got %v, want %v", tt.z, out.Position[2], tt.wantZ)
			}
		})
	}
}

func TestTransformVertexIdentityInstance(t *testing.T) {
	cam := testCamera()
	v := model.GPUVertex{Position: [3]float32{0.5, -1.25, 2.0}, TexCoord: [2]float32{0.3, 0.7}}

	got := TransformVertex(cam, model.IdentityInstance(), v)

	// An identity instance matrix must reduce the stage to pure camera
	// projection of the vertex position.
	ident := model.IdentityInstance().Matrix()
	var projModel [16]float32
	common.Mul4(projModel[:], cam.ProjView[:], ident[:])
	want := common.MulVec4(projModel[:], [4]float32{v.Position[0], v.Position[1], v.Position[2], 1})
	want[2] = want[2]*0.5 + 0.25

	for i := 0; i < 4; i++ {
		if math.Float32bits(got.Position[i]) != math.Float32bits(want[i]) {
			t.Errorf("component %d: got %v, want %v", i, got.Position[i], want[i])
		}
	}
}

func TestTransformVertexInstancesIndependent(t *testing.T) {
	cam := testCamera()
	v := model.GPUVertex{Position: [3]float32{1, 1, 1}}

	transforms := make([]model.InstanceTransform, 4)
	for i := range transforms {
		var m [16]float32
		common.BuildModelMatrix(m[:], float32(i)*3, float32(i), -float32(i)*2, 0, float32(i)*0.5, 0, 1, 1, 1)
		transforms[i] = model.InstanceTransformFromMatrix(m)
	}

	outputs := make([]InterpolatedVertex, 4)
	for i, inst := range transforms {
		outputs[i] = TransformVertex(cam, inst, v)

		m := inst.Matrix()
		var projModel [16]float32
		common.Mul4(projModel[:], cam.ProjView[:], m[:])
		want := common.MulVec4(projModel[:], [4]float32{1, 1, 1, 1})
		want[2] = want[2]*0.5 + 0.25

		for j := 0; j < 4; j++ {
			if math.Float32bits(outputs[i].Position[j]) != math.Float32bits(want[j]) {
				t.Errorf("instance %d component %d: got %v, want %v", i, j, outputs[i].Position[j], want[j])
			}
		}
	}

	// Each instance's matrix applies only to its own output.
	for i := 1; i < 4; i++ {
		if outputs[i].Position == outputs[0].Position {
			t.Errorf("instance %d produced the same position as instance 0: %v", i, outputs[i].Position)
		}
	}
}

func TestInterpolateUVAtCentroid(t *testing.T) {
	v0 := InterpolatedVertex{Position: [4]float32{-1, -1, 0, 1}, TexCoord: [2]float32{0, 0}}
	v1 := InterpolatedVertex{Position: [4]float32{1, -1, 0, 1}, TexCoord: [2]float32{1, 0}}
	v2 := InterpolatedVertex{Position: [4]float32{0, 1, 0, 1}, TexCoord: [2]float32{0.5, 1}}

	a := [2]float32{v0.Position[0], v0.Position[1]}
	b := [2]float32{v1.Position[0], v1.Position[1]}
	c := [2]float32{v2.Position[0], v2.Position[1]}
	centroid := [2]float32{(a[0] + b[0] + c[0]) / 3, (a[1] + b[1] + c[1]) / 3}

	w0, w1, w2 := Barycentric(a, b, c, centroid)
	if sum := w0 + w1 + w2; math.Abs(float64(sum-1)) > 1e-5 {
		t.Fatalf("barycentric weights sum to %v, want 1", sum)
	}

	got := InterpolateUV(v0, v1, v2, w0, w1, w2)
	want := [2]float32{
		(v0.TexCoord[0] + v1.TexCoord[0] + v2.TexCoord[0]) / 3,
		(v0.TexCoord[1] + v1.TexCoord[1] + v2.TexCoord[1]) / 3,
	}

	const eps = 1e-5
	for i := 0; i < 2; i++ {
		if math.Abs(float64(got[i]-want[i])) > eps {
			t.Errorf("uv[%d]: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestShadeFragmentSolidTexture(t *testing.T) {
	color := [4]float32{0.25, 0.5, 0.75, 1.0}
	tex := NewSolidTexture(color)

	wraps := []WrapMode{WrapRepeat, WrapClamp, WrapMirror}
	filters := []FilterMode{FilterNearest, FilterBilinear}
	uvs := [][2]float32{
		{0, 0}, {0.5, 0.5}, {1, 1}, {-3.7, 12.2}, {100, -100}, {0.999, 0.001},
	}

	for _, wrap := range wraps {
		for _, filter := range filters {
			smp := Sampler{WrapU: wrap, WrapV: wrap, Filter: filter}
			for _, uv := range uvs {
				got := ShadeFragment(tex, smp, uv)
				if got != color {
					t.Errorf("wrap %v filter %v uv %v: got %v, want %v", wrap, filter, uv, got, color)
				}
			}
		}
	}
}
