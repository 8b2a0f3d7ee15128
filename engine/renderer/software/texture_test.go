package software

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// checker builds a 2x2 texture: white in the top-left and bottom-right,
// black in the other two corners.
func checker() *Texture {
	t := NewTexture(2, 2)
	white := [4]float32{1, 1, 1, 1}
	black := [4]float32{0, 0, 0, 1}
	t.SetTexel(0, 0, white)
	t.SetTexel(1, 0, black)
	t.SetTexel(0, 1, black)
	t.SetTexel(1, 1, white)
	return t
}

func TestSampleNearestWrapModes(t *testing.T) {
	tex := checker()
	white := [4]float32{1, 1, 1, 1}
	black := [4]float32{0, 0, 0, 1}

	tests := []struct {
		name string
		wrap WrapMode
		u, v float32
		want [4]float32
	}{
		{name: "repeat in range", wrap: WrapRepeat, u: 0.25, v: 0.25, want: white},
		{name: "repeat tiles past 1", wrap: WrapRepeat, u: 1.25, v: 0.25, want: white},
		{name: "repeat tiles negative", wrap: WrapRepeat, u: -0.25, v: 0.25, want: black},
		{name: "clamp pins past 1", wrap: WrapClamp, u: 5.0, v: 0.25, want: black},
		{name: "clamp pins negative", wrap: WrapClamp, u: -5.0, v: 0.25, want: white},
		{name: "mirror reflects", wrap: WrapMirror, u: 1.25, v: 0.25, want: black},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			smp := Sampler{WrapU: tt.wrap, WrapV: tt.wrap, Filter: FilterNearest}
			if got := smp.Sample(tex, tt.u, tt.v); got != tt.want {
				t.Errorf("Sample(%v, %v) = %v, want %v", tt.u, tt.v, got, tt.want)
			}
		})
	}
}

func TestSampleBilinearBlendsNeighbors(t *testing.T) {
	tex := checker()
	smp := Sampler{Filter: FilterBilinear}

	// The texture center is equidistant from all four texels, so every
	// channel blends to the mean of two whites and two blacks.
	got := smp.Sample(tex, 0.5, 0.5)
	want := [4]float32{0.5, 0.5, 0.5, 1}

	const eps = 1e-6
	for i := 0; i < 4; i++ {
		if math.Abs(float64(got[i]-want[i])) > eps {
			t.Errorf("channel %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTextureFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	img.Set(1, 0, color.RGBA{R: 0, G: 0, B: 255, A: 255})

	tex := TextureFromImage(img)
	if tex.Width() != 2 || tex.Height() != 1 {
		t.Fatalf("expected 2x1 texture, got %dx%d", tex.Width(), tex.Height())
	}

	const eps = 1e-3
	red := tex.Texel(0, 0)
	if math.Abs(float64(red[0]-1)) > eps || red[2] > eps {
		t.Errorf("texel (0,0): got %v, want red", red)
	}
	blue := tex.Texel(1, 0)
	if math.Abs(float64(blue[2]-1)) > eps || blue[0] > eps {
		t.Errorf("texel (1,0): got %v, want blue", blue)
	}
}
