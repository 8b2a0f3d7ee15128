package software

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/What42Pizza/WGPU-Template/engine/camera"
	"github.com/What42Pizza/WGPU-Template/engine/model"
)

// bandRows is the number of scanlines covered by one fragment task.
const bandRows = 16

// Framebuffer is the render target for the software rasterizer: a color
// texture plus a depth buffer.
type Framebuffer struct {
	color  *Texture
	depth  []float32
	width  int
	height int
}

// NewFramebuffer allocates a framebuffer of the given size with the depth
// buffer cleared to the far plane.
//
// Parameters:
//   - width: framebuffer width in pixels
//   - height: framebuffer height in pixels
//
// Returns:
//   - *Framebuffer: the allocated framebuffer
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{
		color:  NewTexture(width, height),
		depth:  make([]float32, width*height),
		width:  width,
		height: height,
	}
	fb.Clear([4]float32{})
	return fb
}

// Clear resets every pixel to the given color and the depth buffer to the
// far plane.
//
// Parameters:
//   - color: the clear color
func (f *Framebuffer) Clear(color [4]float32) {
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			f.color.SetTexel(x, y, color)
		}
	}
	for i := range f.depth {
		f.depth[i] = math.MaxFloat32
	}
}

// Color returns the color attachment.
func (f *Framebuffer) Color() *Texture {
	return f.color
}

// At returns the color at the given pixel.
//
// Parameters:
//   - x, y: pixel coordinates
//
// Returns:
//   - [4]float32: the RGBA color at that pixel
func (f *Framebuffer) At(x, y int) [4]float32 {
	return f.color.Texel(x, y)
}

// rasterizer drives both stages over an indexed, instanced triangle list.
// Fragment work is split into horizontal bands dispatched through the
// dynamic worker pool; bands of one triangle cover disjoint scanlines, so
// they write the framebuffer without locking.
type rasterizer struct {
	pool    worker.DynamicWorkerPool
	workers int
}

// Rasterizer renders indexed, instanced triangle lists through the pure
// vertex and fragment stage functions.
type Rasterizer interface {
	// Draw rasterizes the indexed triangle list once per instance into the
	// framebuffer. Each instance applies its own transform. The texture and
	// sampler feed the fragment stage. Depth testing keeps the nearest fragment.
	//
	// Parameters:
	//   - fb: the render target
	//   - cam: the camera uniform
	//   - instances: one transform per instance to draw
	//   - vertices: the shared vertex buffer
	//   - indices: triangle list indices into vertices (length must be a multiple of 3)
	//   - tex: the texture bound to the fragment stage
	//   - smp: the sampler bound to the fragment stage
	//
	// Returns:
	//   - error: error if the inputs are inconsistent
	Draw(fb *Framebuffer, cam camera.GPUCameraUniform, instances []model.InstanceTransform, vertices []model.GPUVertex, indices []uint32, tex *Texture, smp Sampler) error
}

var _ Rasterizer = &rasterizer{}

// NewRasterizer creates a Rasterizer with the given options applied.
// By default fragment bands run on one worker per CPU.
//
// Parameters:
//   - options: functional options (e.g., WithWorkers)
//
// Returns:
//   - Rasterizer: the configured rasterizer
func NewRasterizer(options ...RasterizerOption) Rasterizer {
	r := &rasterizer{
		workers: runtime.NumCPU(),
	}

	for _, opt := range options {
		opt(r)
	}

	if r.workers > 1 {
		r.pool = worker.NewDynamicWorkerPool(r.workers, 256, 1*time.Second)
	}

	return r
}

func (r *rasterizer) Draw(fb *Framebuffer, cam camera.GPUCameraUniform, instances []model.InstanceTransform, vertices []model.GPUVertex, indices []uint32, tex *Texture, smp Sampler) error {
	if fb == nil {
		return fmt.Errorf("framebuffer is nil")
	}
	if len(indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a multiple of 3", len(indices))
	}
	for _, idx := range indices {
		if int(idx) >= len(vertices) {
			return fmt.Errorf("index %d out of range for %d vertices", idx, len(vertices))
		}
	}

	taskID := 0
	for _, inst := range instances {
		for tri := 0; tri < len(indices); tri += 3 {
			v0 := TransformVertex(cam, inst, vertices[indices[tri]])
			v1 := TransformVertex(cam, inst, vertices[indices[tri+1]])
			v2 := TransformVertex(cam, inst, vertices[indices[tri+2]])
			taskID = r.rasterTriangle(fb, v0, v1, v2, tex, smp, taskID)
		}
	}

	return nil
}

// rasterTriangle splits a triangle's bounding box into scanline bands and
// dispatches one fragment task per band, waiting for all bands before
// returning so later triangles observe a consistent depth buffer.
func (r *rasterizer) rasterTriangle(fb *Framebuffer, v0, v1, v2 InterpolatedVertex, tex *Texture, smp Sampler, taskID int) int {
	// Fragments behind the camera are not clipped, only rejected wholesale.
	if v0.Position[3] <= 0 || v1.Position[3] <= 0 || v2.Position[3] <= 0 {
		return taskID
	}

	s0 := toScreen(v0.Position, fb.width, fb.height)
	s1 := toScreen(v1.Position, fb.width, fb.height)
	s2 := toScreen(v2.Position, fb.width, fb.height)

	area := edgeFunction([2]float32{s0[0], s0[1]}, [2]float32{s1[0], s1[1]}, [2]float32{s2[0], s2[1]})
	if area == 0 {
		return taskID
	}

	minX := clampInt(int(floorf(min3(s0[0], s1[0], s2[0]))), 0, fb.width-1)
	maxX := clampInt(int(ceilf(max3(s0[0], s1[0], s2[0]))), 0, fb.width-1)
	minY := clampInt(int(floorf(min3(s0[1], s1[1], s2[1]))), 0, fb.height-1)
	maxY := clampInt(int(ceilf(max3(s0[1], s1[1], s2[1]))), 0, fb.height-1)

	var wg sync.WaitGroup
	for bandStart := minY; bandStart <= maxY; bandStart += bandRows {
		bandEnd := bandStart + bandRows - 1
		if bandEnd > maxY {
			bandEnd = maxY
		}

		shade := func(y0, y1 int) {
			for y := y0; y <= y1; y++ {
				for x := minX; x <= maxX; x++ {
					r.shadePixel(fb, x, y, s0, s1, s2, v0, v1, v2, area, tex, smp)
				}
			}
		}

		if r.pool == nil {
			shade(bandStart, bandEnd)
			continue
		}

		wg.Add(1)
		y0, y1 := bandStart, bandEnd
		id := taskID
		taskID++
		r.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				shade(y0, y1)
				return nil, nil
			},
		})
	}
	wg.Wait()

	return taskID
}

// shadePixel covers one pixel center: inside test, depth test, then the
// fragment stage.
func (r *rasterizer) shadePixel(fb *Framebuffer, x, y int, s0, s1, s2 [3]float32, v0, v1, v2 InterpolatedVertex, area float32, tex *Texture, smp Sampler) {
	p := [2]float32{float32(x) + 0.5, float32(y) + 0.5}

	w0 := edgeFunction([2]float32{s1[0], s1[1]}, [2]float32{s2[0], s2[1]}, p) / area
	w1 := edgeFunction([2]float32{s2[0], s2[1]}, [2]float32{s0[0], s0[1]}, p) / area
	w2 := edgeFunction([2]float32{s0[0], s0[1]}, [2]float32{s1[0], s1[1]}, p) / area
	if w0 < 0 || w1 < 0 || w2 < 0 {
		return
	}

	depth := w0*s0[2] + w1*s1[2] + w2*s2[2]
	di := y*fb.width + x
	if depth > fb.depth[di] {
		return
	}
	fb.depth[di] = depth

	uv := InterpolateUV(v0, v1, v2, w0, w1, w2)
	fb.color.SetTexel(x, y, ShadeFragment(tex, smp, uv))
}

// toScreen performs the perspective divide and viewport transform, keeping
// NDC depth in the third component. Y is flipped so row 0 is the top.
func toScreen(clip [4]float32, width, height int) [3]float32 {
	invW := 1.0 / clip[3]
	ndcX := clip[0] * invW
	ndcY := clip[1] * invW
	ndcZ := clip[2] * invW

	return [3]float32{
		(ndcX*0.5 + 0.5) * float32(width),
		(1.0 - (ndcY*0.5 + 0.5)) * float32(height),
		ndcZ,
	}
}

func min3(a, b, c float32) float32 {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func max3(a, b, c float32) float32 {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}

func ceilf(x float32) float32 {
	return float32(math.Ceil(float64(x)))
}
