package software

import (
	"image"
	"math"
)

// WrapMode controls how texture coordinates outside [0, 1] are folded back
// into the texture.
type WrapMode int

const (
	// WrapRepeat tiles the texture, using the fractional part of the coordinate.
	WrapRepeat WrapMode = iota

	// WrapClamp clamps the coordinate to the edge texel.
	WrapClamp

	// WrapMirror reflects the coordinate at every integer boundary.
	WrapMirror
)

// FilterMode controls how texels are combined when sampling between texel centers.
type FilterMode int

const (
	// FilterNearest picks the single closest texel.
	FilterNearest FilterMode = iota

	// FilterBilinear blends the four surrounding texels by distance.
	FilterBilinear
)

// Texture is an immutable-by-convention RGBA pixel grid with float32 channels.
// Channels are stored unclamped so intermediate results keep full precision.
type Texture struct {
	pixels []float32
	width  int
	height int
}

// NewTexture creates a texture of the given size with all channels zero.
//
// Parameters:
//   - width: texture width in texels (must be > 0)
//   - height: texture height in texels (must be > 0)
//
// Returns:
//   - *Texture: the allocated texture
func NewTexture(width, height int) *Texture {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Texture{
		pixels: make([]float32, width*height*4),
		width:  width,
		height: height,
	}
}

// NewSolidTexture creates a 1x1 texture holding a single color.
//
// Parameters:
//   - color: the RGBA color of the sole texel
//
// Returns:
//   - *Texture: the 1x1 texture
func NewSolidTexture(color [4]float32) *Texture {
	t := NewTexture(1, 1)
	t.SetTexel(0, 0, color)
	return t
}

// TextureFromImage converts a decoded image into a float texture.
// 8-bit channels map to [0, 1] by dividing by 255.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - *Texture: the converted texture
func TextureFromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	t := NewTexture(bounds.Dx(), bounds.Dy())

	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			t.SetTexel(x, y, [4]float32{
				float32(r) / 0xffff,
				float32(g) / 0xffff,
				float32(b) / 0xffff,
				float32(a) / 0xffff,
			})
		}
	}

	return t
}

// Width returns the texture width in texels.
func (t *Texture) Width() int {
	return t.width
}

// Height returns the texture height in texels.
func (t *Texture) Height() int {
	return t.height
}

// Texel returns the color at integer texel coordinates. Out-of-range
// coordinates are clamped to the edge.
//
// Parameters:
//   - x, y: texel coordinates
//
// Returns:
//   - [4]float32: the RGBA color at that texel
func (t *Texture) Texel(x, y int) [4]float32 {
	x = clampInt(x, 0, t.width-1)
	y = clampInt(y, 0, t.height-1)
	i := (y*t.width + x) * 4
	return [4]float32{t.pixels[i], t.pixels[i+1], t.pixels[i+2], t.pixels[i+3]}
}

// SetTexel writes the color at integer texel coordinates. Out-of-range
// coordinates are ignored.
//
// Parameters:
//   - x, y: texel coordinates
//   - color: the RGBA color to write
func (t *Texture) SetTexel(x, y int, color [4]float32) {
	if x < 0 || x >= t.width || y < 0 || y >= t.height {
		return
	}
	i := (y*t.width + x) * 4
	t.pixels[i] = color[0]
	t.pixels[i+1] = color[1]
	t.pixels[i+2] = color[2]
	t.pixels[i+3] = color[3]
}

// Sampler holds wrap and filter configuration for texture sampling.
// The zero value samples with repeat wrapping and nearest filtering.
type Sampler struct {
	WrapU  WrapMode
	WrapV  WrapMode
	Filter FilterMode
}

// Sample reads the texture at normalized coordinates (u, v) using the
// sampler's wrap and filter modes.
//
// Parameters:
//   - t: the texture to sample
//   - u, v: normalized texture coordinates
//
// Returns:
//   - [4]float32: the sampled RGBA color
func (s Sampler) Sample(t *Texture, u, v float32) [4]float32 {
	if t == nil {
		return [4]float32{}
	}

	switch s.Filter {
	case FilterBilinear:
		return s.sampleBilinear(t, u, v)
	default:
		return s.sampleNearest(t, u, v)
	}
}

func (s Sampler) sampleNearest(t *Texture, u, v float32) [4]float32 {
	x := wrapTexel(int(floorf(u*float32(t.width))), t.width, s.WrapU)
	y := wrapTexel(int(floorf(v*float32(t.height))), t.height, s.WrapV)
	return t.Texel(x, y)
}

func (s Sampler) sampleBilinear(t *Texture, u, v float32) [4]float32 {
	// Texel centers sit at half-integer coordinates.
	fx := u*float32(t.width) - 0.5
	fy := v*float32(t.height) - 0.5

	x0 := int(floorf(fx))
	y0 := int(floorf(fy))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	c00 := t.Texel(wrapTexel(x0, t.width, s.WrapU), wrapTexel(y0, t.height, s.WrapV))
	c10 := t.Texel(wrapTexel(x0+1, t.width, s.WrapU), wrapTexel(y0, t.height, s.WrapV))
	c01 := t.Texel(wrapTexel(x0, t.width, s.WrapU), wrapTexel(y0+1, t.height, s.WrapV))
	c11 := t.Texel(wrapTexel(x0+1, t.width, s.WrapU), wrapTexel(y0+1, t.height, s.WrapV))

	var out [4]float32
	for i := 0; i < 4; i++ {
		top := c00[i] + (c10[i]-c00[i])*tx
		bottom := c01[i] + (c11[i]-c01[i])*tx
		out[i] = top + (bottom-top)*ty
	}
	return out
}

// wrapTexel folds an integer texel coordinate into [0, size) per the wrap mode.
func wrapTexel(x, size int, mode WrapMode) int {
	if size <= 1 {
		return 0
	}

	switch mode {
	case WrapClamp:
		return clampInt(x, 0, size-1)
	case WrapMirror:
		period := 2 * size
		m := ((x % period) + period) % period
		if m >= size {
			m = period - 1 - m
		}
		return m
	default:
		return ((x % size) + size) % size
	}
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func floorf(x float32) float32 {
	return float32(math.Floor(float64(x)))
}
