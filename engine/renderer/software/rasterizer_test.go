package software

import (
	"testing"

	"github.com/What42Pizza/WGPU-Template/common"
	"github.com/What42Pizza/WGPU-Template/engine/camera"
	"github.com/What42Pizza/WGPU-Template/engine/model"
)

// identityCamera returns a camera uniform whose proj_view is identity, so
// vertex positions are already clip-space coordinates with w=1.
func identityCamera() camera.GPUCameraUniform {
	var cam camera.GPUCameraUniform
	common.Identity(cam.ProjView[:])
	return cam
}

// quad returns a full-screen quad at the given depth as a vertex slice plus
// triangle list indices, with UVs spanning [0,1].
func quad(z float32) ([]model.GPUVertex, []uint32) {
	vertices := []model.GPUVertex{
		{Position: [3]float32{-1, -1, z}, TexCoord: [2]float32{0, 1}},
		{Position: [3]float32{1, -1, z}, TexCoord: [2]float32{1, 1}},
		{Position: [3]float32{1, 1, z}, TexCoord: [2]float32{1, 0}},
		{Position: [3]float32{-1, 1, z}, TexCoord: [2]float32{0, 0}},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	return vertices, indices
}

func TestDrawFullScreenQuad(t *testing.T) {
	fb := NewFramebuffer(64, 64)
	fb.Clear([4]float32{0.1, 0.2, 0.3, 1.0})

	color := [4]float32{1, 0.5, 0, 1}
	tex := NewSolidTexture(color)
	vertices, indices := quad(0)

	r := NewRasterizer()
	err := r.Draw(fb, identityCamera(), []model.InstanceTransform{model.IdentityInstance()}, vertices, indices, tex, Sampler{})
	if err != nil {
		t.Fatalf("Draw returned error: %v", err)
	}

	// Every interior pixel should carry the texture color.
	for _, p := range [][2]int{{32, 32}, {1, 1}, {62, 62}, {1, 62}, {62, 1}} {
		if got := fb.At(p[0], p[1]); got != color {
			t.Errorf("pixel %v: got %v, want %v", p, got, color)
		}
	}
}

func TestDrawRejectsBadIndices(t *testing.T) {
	fb := NewFramebuffer(8, 8)
	vertices, _ := quad(0)
	r := NewRasterizer(WithWorkers(1))

	tests := []struct {
		name    string
		indices []uint32
	}{
		{name: "not a multiple of 3", indices: []uint32{0, 1}},
		{name: "index out of range", indices: []uint32{0, 1, 99}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Draw(fb, identityCamera(), []model.InstanceTransform{model.IdentityInstance()}, vertices, tt.indices, NewSolidTexture([4]float32{1, 1, 1, 1}), Sampler{})
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDrawDepthTestKeepsNearest(t *testing.T) {
	fb := NewFramebuffer(32, 32)
	r := NewRasterizer(WithWorkers(1))
	cam := identityCamera()
	instances := []model.InstanceTransform{model.IdentityInstance()}

	near := [4]float32{0, 1, 0, 1}
	far := [4]float32{1, 0, 0, 1}

	// Near quad first, far quad second. The far quad must lose the depth test.
	nearVerts, indices := quad(-0.5)
	farVerts, _ := quad(0.5)

	if err := r.Draw(fb, cam, instances, nearVerts, indices, NewSolidTexture(near), Sampler{}); err != nil {
		t.Fatalf("Draw returned error: %v", err)
	}
	if err := r.Draw(fb, cam, instances, farVerts, indices, NewSolidTexture(far), Sampler{}); err != nil {
		t.Fatalf("Draw returned error: %v", err)
	}

	if got := fb.At(16, 16); got != near {
		t.Errorf("center pixel: got %v, want near color %v", got, near)
	}
}

func TestDrawFourInstancesIndependent(t *testing.T) {
	fb := NewFramebuffer(64, 64)
	fb.Clear([4]float32{0, 0, 0, 0})

	// A small triangle around the origin, drawn once per instance with each
	// instance translated into its own quadrant.
	vertices := []model.GPUVertex{
		{Position: [3]float32{-0.2, -0.2, 0}, TexCoord: [2]float32{0, 1}},
		{Position: [3]float32{0.2, -0.2, 0}, TexCoord: [2]float32{1, 1}},
		{Position: [3]float32{0, 0.2, 0}, TexCoord: [2]float32{0.5, 0}},
	}
	indices := []uint32{0, 1, 2}

	offsets := [][2]float32{{-0.5, -0.5}, {0.5, -0.5}, {-0.5, 0.5}, {0.5, 0.5}}
	instances := make([]model.InstanceTransform, len(offsets))
	for i, off := range offsets {
		var m [16]float32
		common.Identity(m[:])
		m[12] = off[0]
		m[13] = off[1]
		instances[i] = model.InstanceTransformFromMatrix(m)
	}

	color := [4]float32{1, 1, 1, 1}
	r := NewRasterizer(WithWorkers(1))
	if err := r.Draw(fb, identityCamera(), instances, vertices, indices, NewSolidTexture(color), Sampler{}); err != nil {
		t.Fatalf("Draw returned error: %v", err)
	}

	// Each quadrant center carries one instance's triangle.
	for i, off := range offsets {
		px := int((off[0]*0.5 + 0.5) * 64)
		py := int((1 - (off[1]*0.5 + 0.5)) * 64)
		if got := fb.At(px, py); got != color {
			t.Errorf("instance %d at pixel (%d, %d): got %v, want %v", i, px, py, got, color)
		}
	}

	// The screen center belongs to no instance and stays untouched.
	if got := fb.At(32, 32); got != ([4]float32{0, 0, 0, 0}) {
		t.Errorf("center pixel: got %v, want clear color", got)
	}
}
