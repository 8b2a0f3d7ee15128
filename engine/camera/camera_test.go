package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/What42Pizza/WGPU-Template/common"
)

func TestGPUCameraUniformSizeAndOffsets(t *testing.T) {
	var u GPUCameraUniform
	if u.Size() != 192 {
		t.Fatalf("Size = %d, want 192", u.Size())
	}

	for i := range u.ProjView {
		u.ProjView[i] = float32(i)
		u.InvProj[i] = float32(i) + 100
		u.View[i] = float32(i) + 200
	}

	buf := u.Marshal()
	if len(buf) != 192 {
		t.Fatalf("Marshal length = %d, want 192", len(buf))
	}

	// ProjView at byte 0, InvProj at 64, View at 128, all little-endian f32.
	checks := []struct {
		name   string
		offset int
		values [16]float32
	}{
		{name: "ProjView", offset: 0, values: u.ProjView},
		{name: "InvProj", offset: 64, values: u.InvProj},
		{name: "View", offset: 128, values: u.View},
	}
	for _, c := range checks {
		for i, want := range c.values {
			bits := binary.LittleEndian.Uint32(buf[c.offset+i*4:])
			if bits != math.Float32bits(want) {
				t.Errorf("%s[%d]: got bits %#x, want %#x", c.name, i, bits, math.Float32bits(want))
			}
		}
	}
}

func TestCameraUniformProjViewIsProjectionTimesView(t *testing.T) {
	cam := NewCamera(
		WithFov(float32(60.0*math.Pi/180.0)),
		WithAspect(16.0/9.0),
		WithNear(0.1),
		WithFar(500),
		WithController(NewCameraController(
			WithRadius(10),
			WithTarget(1, 2, 3),
			WithElevation(0.5),
			WithAzimuth(1.0),
		)),
	)

	u := cam.Uniform()

	proj := cam.ProjectionMatrix()
	view := cam.ViewMatrix()
	var want [16]float32
	common.Mul4(want[:], proj[:], view[:])

	for i := 0; i < 16; i++ {
		if math.Float32bits(u.ProjView[i]) != math.Float32bits(want[i]) {
			t.Errorf("ProjView[%d] = %v, want %v", i, u.ProjView[i], want[i])
		}
	}

	if u.View != view {
		t.Error("uniform View does not match the camera view matrix")
	}
}

func TestCameraUniformInvProjInvertsProjection(t *testing.T) {
	cam := NewCamera(
		WithAspect(4.0/3.0),
		WithController(NewCameraController(WithRadius(5))),
	)

	u := cam.Uniform()
	proj := cam.ProjectionMatrix()

	var prod [16]float32
	common.Mul4(prod[:], proj[:], u.InvProj[:])

	var ident [16]float32
	common.Identity(ident[:])
	for i := 0; i < 16; i++ {
		if math.Abs(float64(prod[i]-ident[i])) > 1e-4 {
			t.Errorf("(P * P^-1)[%d] = %v, want %v", i, prod[i], ident[i])
		}
	}
}

func TestCameraWithoutControllerKeepsIdentity(t *testing.T) {
	cam := NewCamera()
	u := cam.Uniform()

	var ident [16]float32
	common.Identity(ident[:])
	if u.ProjView != ident {
		t.Errorf("ProjView = %v, want identity", u.ProjView)
	}
}
