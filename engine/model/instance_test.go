package model

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestNewInstanceTransformColumnOrder(t *testing.T) {
	col0 := [4]float32{1, 2, 3, 4}
	col1 := [4]float32{5, 6, 7, 8}
	col2 := [4]float32{9, 10, 11, 12}
	col3 := [4]float32{13, 14, 15, 16}

	tr := NewInstanceTransform(col0, col1, col2, col3)

	// The constructor order is the column order: the assembled matrix must be
	// exactly [col0 col1 col2 col3] in column-major storage.
	m := tr.Matrix()
	for i, want := range []([4]float32){col0, col1, col2, col3} {
		for j := 0; j < 4; j++ {
			if m[i*4+j] != want[j] {
				t.Errorf("m[%d] = %v, want column %d element %d = %v", i*4+j, m[i*4+j], i, j, want[j])
			}
		}
		if got := tr.Column(i); got != want {
			t.Errorf("Column(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestIdentityInstance(t *testing.T) {
	ident := IdentityInstance()

	points := [][4]float32{
		{0, 0, 0, 1},
		{1, 2, 3, 1},
		{-5, 0.5, 100, 0},
	}
	for _, p := range points {
		if got := ident.Apply(p); got != p {
			t.Errorf("identity changed %v to %v", p, got)
		}
	}
}

func TestInstanceTransformApplyTranslation(t *testing.T) {
	tr := NewInstanceTransform(
		[4]float32{1, 0, 0, 0},
		[4]float32{0, 1, 0, 0},
		[4]float32{0, 0, 1, 0},
		[4]float32{7, 8, 9, 1},
	)

	got := tr.Apply([4]float32{1, 1, 1, 1})
	want := [4]float32{8, 9, 10, 1}
	if got != want {
		t.Errorf("Apply = %v, want %v", got, want)
	}
}

func TestInstanceTransformMul(t *testing.T) {
	translate := NewInstanceTransform(
		[4]float32{1, 0, 0, 0},
		[4]float32{0, 1, 0, 0},
		[4]float32{0, 0, 1, 0},
		[4]float32{10, 0, 0, 1},
	)
	scale := NewInstanceTransform(
		[4]float32{2, 0, 0, 0},
		[4]float32{0, 2, 0, 0},
		[4]float32{0, 0, 2, 0},
		[4]float32{0, 0, 0, 1},
	)

	// translate * scale scales first, then translates.
	got := translate.Mul(scale).Apply([4]float32{1, 1, 1, 1})
	want := [4]float32{12, 2, 2, 1}
	if got != want {
		t.Errorf("(T*S)(v) = %v, want %v", got, want)
	}

	// scale * translate translates first, then scales.
	got = scale.Mul(translate).Apply([4]float32{1, 1, 1, 1})
	want = [4]float32{22, 2, 2, 1}
	if got != want {
		t.Errorf("(S*T)(v) = %v, want %v", got, want)
	}
}

func TestGPUInstanceDataMarshal(t *testing.T) {
	var m [16]float32
	for i := range m {
		m[i] = float32(i) + 0.5
	}

	data := InstanceTransformFromMatrix(m).GPUData()
	if data.Size() != 64 {
		t.Fatalf("Size = %d, want 64", data.Size())
	}

	buf := data.Marshal()
	if len(buf) != 64 {
		t.Fatalf("Marshal length = %d, want 64", len(buf))
	}

	// Column-major little-endian f32, columns in order 0,1,2,3.
	for i := 0; i < 16; i++ {
		bits := binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
		if bits != math.Float32bits(m[i]) {
			t.Errorf("element %d: got bits %#x, want %#x", i, bits, math.Float32bits(m[i]))
		}
	}
}

func TestGPUVertexMarshal(t *testing.T) {
	v := GPUVertex{Position: [3]float32{1, 2, 3}, TexCoord: [2]float32{0.5, 0.75}}
	if v.Size() != 20 {
		t.Fatalf("Size = %d, want 20", v.Size())
	}

	buf := v.Marshal()
	if len(buf) != 20 {
		t.Fatalf("Marshal length = %d, want 20", len(buf))
	}

	want := []float32{1, 2, 3, 0.5, 0.75}
	for i, w := range want {
		bits := binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
		if bits != math.Float32bits(w) {
			t.Errorf("field %d: got bits %#x, want %#x", i, bits, math.Float32bits(w))
		}
	}
}

func TestComputeBoundingRadius(t *testing.T) {
	vertices := []GPUVertex{
		{Position: [3]float32{0, 0, 0}},
		{Position: [3]float32{3, 4, 0}},
		{Position: [3]float32{-1, -1, -1}},
	}

	got := ComputeBoundingRadius(vertices)
	if math.Abs(float64(got-5)) > 1e-5 {
		t.Errorf("ComputeBoundingRadius = %v, want 5", got)
	}

	if got := ComputeBoundingRadius(nil); got != 0 {
		t.Errorf("expected 0 for no vertices, got %v", got)
	}
}
