package common

import (
	"math"
	"testing"
)

const eps = 1e-5

func approxEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) <= eps
}

func TestIdentity(t *testing.T) {
	var m [16]float32
	Identity(m[:])

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			if m[i*4+j] != want {
				t.Errorf("m[%d][%d] = %v, want %v", i, j, m[i*4+j], want)
			}
		}
	}
}

func TestMul4IdentityIsNoop(t *testing.T) {
	var ident [16]float32
	Identity(ident[:])

	a := [16]float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}

	var out [16]float32
	Mul4(out[:], ident[:], a[:])
	if out != a {
		t.Errorf("I * A = %v, want %v", out, a)
	}

	Mul4(out[:], a[:], ident[:])
	if out != a {
		t.Errorf("A * I = %v, want %v", out, a)
	}
}

func TestMul4AliasedOutput(t *testing.T) {
	// Mul4 buffers internally, so out may alias an input.
	a := [16]float32{
		2, 0, 0, 0,
		0, 2, 0, 0,
		0, 0, 2, 0,
		0, 0, 0, 1,
	}
	b := a

	var want [16]float32
	Mul4(want[:], a[:], b[:])

	Mul4(a[:], a[:], b[:])
	if a != want {
		t.Errorf("aliased Mul4 = %v, want %v", a, want)
	}
}

func TestMulVec4Translation(t *testing.T) {
	// Column-major translation: the translation column occupies indices 12..14.
	var m [16]float32
	Identity(m[:])
	m[12] = 10
	m[13] = -5
	m[14] = 2.5

	got := MulVec4(m[:], [4]float32{1, 2, 3, 1})
	want := [4]float32{11, -3, 5.5, 1}
	if got != want {
		t.Errorf("MulVec4 = %v, want %v", got, want)
	}

	// Direction vectors (w=0) ignore translation.
	got = MulVec4(m[:], [4]float32{1, 2, 3, 0})
	want = [4]float32{1, 2, 3, 0}
	if got != want {
		t.Errorf("MulVec4 direction = %v, want %v", got, want)
	}
}

func TestMul4MatchesVectorComposition(t *testing.T) {
	// (A * B) * v must equal A * (B * v).
	var a, b [16]float32
	BuildModelMatrix(a[:], 1, 2, 3, 0.3, 0.5, 0.7, 2, 2, 2)
	BuildModelMatrix(b[:], -4, 0, 1, 0.1, 0.9, 0.2, 0.5, 1, 3)

	v := [4]float32{0.25, -1.5, 2, 1}

	var ab [16]float32
	Mul4(ab[:], a[:], b[:])
	composed := MulVec4(ab[:], v)
	stepped := MulVec4(a[:], MulVec4(b[:], v))

	for i := 0; i < 4; i++ {
		if !approxEqual(composed[i], stepped[i]) {
			t.Errorf("component %d: composed %v, stepped %v", i, composed[i], stepped[i])
		}
	}
}

func TestBuildModelMatrix(t *testing.T) {
	tests := []struct {
		name  string
		build func(out []float32)
		in    [4]float32
		want  [4]float32
	}{
		{
			name:  "pure translation",
			build: func(out []float32) { BuildModelMatrix(out, 5, 6, 7, 0, 0, 0, 1, 1, 1) },
			in:    [4]float32{1, 1, 1, 1},
			want:  [4]float32{6, 7, 8, 1},
		},
		{
			name:  "pure scale",
			build: func(out []float32) { BuildModelMatrix(out, 0, 0, 0, 0, 0, 0, 2, 3, 4) },
			in:    [4]float32{1, 1, 1, 1},
			want:  [4]float32{2, 3, 4, 1},
		},
		{
			name:  "quarter turn around Y",
			build: func(out []float32) { BuildModelMatrix(out, 0, 0, 0, 0, math.Pi / 2, 0, 1, 1, 1) },
			in:    [4]float32{1, 0, 0, 1},
			want:  [4]float32{0, 0, -1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m [16]float32
			tt.build(m[:])
			got := MulVec4(m[:], tt.in)
			for i := 0; i < 4; i++ {
				if !approxEqual(got[i], tt.want[i]) {
					t.Errorf("component %d: got %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestInvert4(t *testing.T) {
	var m [16]float32
	BuildModelMatrix(m[:], 3, -2, 8, 0.4, 1.2, 0.1, 2, 0.5, 1.5)

	var inv [16]float32
	if !Invert4(inv[:], m[:]) {
		t.Fatal("Invert4 reported singular for an invertible matrix")
	}

	var prod [16]float32
	Mul4(prod[:], m[:], inv[:])

	var ident [16]float32
	Identity(ident[:])
	for i := 0; i < 16; i++ {
		if math.Abs(float64(prod[i]-ident[i])) > 1e-4 {
			t.Errorf("(M * M^-1)[%d] = %v, want %v", i, prod[i], ident[i])
		}
	}
}

func TestInvert4Singular(t *testing.T) {
	var m [16]float32 // all zeros
	var out [16]float32
	out[0] = 42

	if Invert4(out[:], m[:]) {
		t.Error("Invert4 inverted a singular matrix")
	}
	if out[0] != 42 {
		t.Error("Invert4 modified the output for a singular matrix")
	}
}

func TestPerspectiveMapsNearAndFar(t *testing.T) {
	var p [16]float32
	near, far := float32(0.1), float32(100.0)
	Perspective(p[:], math.Pi/2, 1.0, near, far)

	// WebGPU clip space: near plane maps to z/w = 0, far plane to z/w = 1.
	nearClip := MulVec4(p[:], [4]float32{0, 0, -near, 1})
	if !approxEqual(nearClip[2]/nearClip[3], 0) {
		t.Errorf("near plane z/w = %v, want 0", nearClip[2]/nearClip[3])
	}

	farClip := MulVec4(p[:], [4]float32{0, 0, -far, 1})
	if !approxEqual(farClip[2]/farClip[3], 1) {
		t.Errorf("far plane z/w = %v, want 1", farClip[2]/farClip[3])
	}
}

func TestLookAtOrigin(t *testing.T) {
	var v [16]float32
	LookAt(v[:], 0, 0, 5, 0, 0, 0, 0, 1, 0)

	// The eye maps to the view-space origin.
	got := MulVec4(v[:], [4]float32{0, 0, 5, 1})
	for i, want := range [4]float32{0, 0, 0, 1} {
		if !approxEqual(got[i], want) {
			t.Errorf("eye component %d: got %v, want %v", i, got[i], want)
		}
	}

	// The target lands on the negative Z axis at its distance from the eye.
	got = MulVec4(v[:], [4]float32{0, 0, 0, 1})
	for i, want := range [4]float32{0, 0, -5, 1} {
		if !approxEqual(got[i], want) {
			t.Errorf("target component %d: got %v, want %v", i, got[i], want)
		}
	}
}

func TestSliceToBytes(t *testing.T) {
	data := []float32{1.0, 2.0}
	b := SliceToBytes(data)
	if len(b) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(b))
	}
	// 1.0f little-endian
	if b[0] != 0 || b[1] != 0 || b[2] != 0x80 || b[3] != 0x3f {
		t.Errorf("unexpected encoding of 1.0: % x", b[:4])
	}

	if got := SliceToBytes([]float32(nil)); got != nil {
		t.Errorf("expected nil for empty slice, got %v", got)
	}
}

func TestCoalesce(t *testing.T) {
	if got := Coalesce(0, 0, 5, 7); got != 5 {
		t.Errorf("Coalesce = %v, want 5", got)
	}
	if got := Coalesce("", "a"); got != "a" {
		t.Errorf("Coalesce = %q, want %q", got, "a")
	}
	if got := Coalesce(0, 0); got != 0 {
		t.Errorf("Coalesce = %v, want 0", got)
	}
}
