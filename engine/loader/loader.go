package loader

import (
	"fmt"
	"sync"

	"github.com/What42Pizza/WGPU-Template/common"
	"github.com/What42Pizza/WGPU-Template/engine/model"
	"github.com/What42Pizza/WGPU-Template/engine/renderer"
	"github.com/What42Pizza/WGPU-Template/engine/renderer/bind_group_provider"
	"github.com/What42Pizza/WGPU-Template/engine/renderer/material"
	"github.com/What42Pizza/WGPU-Template/engine/renderer/shader"

	"github.com/cogentcore/webgpu/wgpu"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	renderer renderer.Renderer

	modelCache map[string]model.Model
}

// Loader defines the public-facing interface for assembling models and
// initializing material GPU resources. It manages a cache of previously
// built models keyed by name.
type Loader interface {
	// FromImported assembles a renderable model from imported mesh data and caches
	// the result by the imported model's name. All meshes are combined into a single
	// vertex and index buffer, with indices re-offset per mesh. Each mesh's
	// MaterialIndex selects a material from the given slice; materials without an
	// initialized bind group provider have their GPU resources created via
	// InitMaterialGPU using the given fragment shader's bind group layouts.
	//
	// Parameters:
	//   - imported: the imported mesh data to assemble
	//   - materials: the material list referenced by each mesh's MaterialIndex
	//   - fragmentShader: the fragment shader whose bind group layouts drive material GPU init
	//
	// Returns:
	//   - model.Model: the assembled and cached model
	//   - error: error if assembly or GPU initialization fails
	FromImported(imported *model.ImportedModel, materials []material.Material, fragmentShader shader.Shader) (model.Model, error)

	// LoadTexture creates an ImportedTexture backed by an image file on disk.
	// The file is decoded lazily during material GPU initialization, so this
	// call never touches the filesystem. Supports PNG, JPEG, BMP, TIFF, and WEBP.
	//
	// Parameters:
	//   - path: the image file path
	//
	// Returns:
	//   - *common.ImportedTexture: a texture referencing the file
	LoadTexture(path string) *common.ImportedTexture

	// InitMaterialGPU creates the GPU resources (texture view, sampler, bind group)
	// for a material and stores them on a new BindGroupProvider attached to the
	// material. The material bind group is discovered by scanning the fragment
	// shader's bind group layouts for the group containing a texture binding.
	// When the material has no diffuse texture, its base color is baked into a
	// 1x1 texture so the same shader path serves untextured materials.
	//
	// Parameters:
	//   - mat: the material to initialize
	//   - fragmentShader: the fragment shader whose bind group layouts drive GPU init
	//   - providerName: the label for the created BindGroupProvider
	//
	// Returns:
	//   - error: error if GPU resource creation fails
	InitMaterialGPU(mat material.Material, fragmentShader shader.Shader, providerName string) error

	// Get retrieves a cached model by name.
	//
	// Parameters:
	//   - key: the cache key (the model name used at assembly time)
	//
	// Returns:
	//   - model.Model: the cached model, or nil if not present
	//   - bool: true if the model was found
	Get(key string) (model.Model, bool)

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]model.Model: all cached models keyed by name
	Models() map[string]model.Model
}

var _ Loader = &loader{}

// NewLoader creates a Loader with the given options applied.
//
// Parameters:
//   - options: functional options (e.g., WithRenderer, WithModel)
//
// Returns:
//   - Loader: the configured loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		modelCache: make(map[string]model.Model),
	}

	for _, opt := range options {
		opt(l)
	}

	return l
}

func (l *loader) FromImported(imported *model.ImportedModel, materials []material.Material, fragmentShader shader.Shader) (model.Model, error) {
	if imported == nil {
		return nil, fmt.Errorf("imported model is nil")
	}
	if len(imported.Meshes) == 0 {
		return nil, fmt.Errorf("imported model %q has no meshes", imported.Name)
	}

	l.mu.RLock()
	if cached, ok := l.modelCache[imported.Name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	mdl, err := l.assembleModel(imported, materials)
	if err != nil {
		return nil, err
	}

	for _, mat := range mdl.RenderMaterials() {
		if mat.BindGroupProvider() != nil {
			continue
		}
		if err := l.InitMaterialGPU(mat, fragmentShader, imported.Name+"_"+mat.Name()); err != nil {
			return nil, fmt.Errorf("failed to init material %q: %w", mat.Name(), err)
		}
	}

	l.mu.Lock()
	l.modelCache[imported.Name] = mdl
	l.mu.Unlock()

	return mdl, nil
}

// assembleModel combines every mesh of the imported model into a single
// vertex and index buffer and uploads them to the GPU. Indices are re-offset
// by the running vertex count so all meshes share one buffer pair.
func (l *loader) assembleModel(imported *model.ImportedModel, materials []material.Material) (model.Model, error) {
	if l.renderer == nil {
		return nil, fmt.Errorf("loader has no renderer")
	}

	var combinedVertices []model.GPUVertex
	var combinedIndices []uint32
	renderMaterials := make([]material.Material, 0, len(imported.Meshes))

	for _, mesh := range imported.Meshes {
		base := uint32(len(combinedVertices))
		combinedVertices = append(combinedVertices, mesh.Vertices...)
		for _, idx := range mesh.Indices {
			combinedIndices = append(combinedIndices, base+idx)
		}

		if mesh.MaterialIndex >= 0 && mesh.MaterialIndex < len(materials) {
			renderMaterials = append(renderMaterials, materials[mesh.MaterialIndex])
		}
	}

	if len(renderMaterials) == 0 && len(materials) > 0 {
		renderMaterials = append(renderMaterials, materials[0])
	}

	vertexData := common.SliceToBytes(combinedVertices)
	indexData := common.SliceToBytes(combinedIndices)

	meshProvider := bind_group_provider.NewBindGroupProvider(imported.Name + "_mesh")
	if err := l.renderer.InitMeshBuffers(meshProvider, vertexData, indexData, len(combinedIndices)); err != nil {
		return nil, fmt.Errorf("failed to init mesh buffers for %q: %w", imported.Name, err)
	}

	mdl := model.NewModel(
		model.WithName(imported.Name),
		model.WithVertices(combinedVertices),
		model.WithVertexData(vertexData),
		model.WithIndexData(indexData),
		model.WithIndexCount(len(combinedIndices)),
		model.WithMeshProvider(meshProvider),
		model.WithRenderMaterials(renderMaterials...),
	)

	return mdl, nil
}

func (l *loader) LoadTexture(path string) *common.ImportedTexture {
	return &common.ImportedTexture{
		Name: path,
		Path: path,
	}
}

func (l *loader) InitMaterialGPU(mat material.Material, fragmentShader shader.Shader, providerName string) error {
	if l.renderer == nil {
		return fmt.Errorf("loader has no renderer")
	}
	if mat == nil {
		return fmt.Errorf("material is nil")
	}
	if fragmentShader == nil {
		return fmt.Errorf("fragment shader is nil")
	}

	groupIdx, descriptor, err := findMaterialGroup(fragmentShader)
	if err != nil {
		return err
	}

	staging, err := l.textureStaging(mat)
	if err != nil {
		return err
	}

	bgp := bind_group_provider.NewBindGroupProvider(providerName)

	samplerData := mat.SamplerData()
	if tex := mat.DiffuseTexture(); tex != nil && tex.SamplerData != nil {
		samplerData = *tex.SamplerData
	}

	for _, entry := range descriptor.Entries {
		binding := int(entry.Binding)
		switch {
		case entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			if err := l.renderer.InitTextureView(bgp, binding, staging); err != nil {
				return fmt.Errorf("failed to init texture view for %q binding %d: %w", mat.Name(), binding, err)
			}
		case entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			if err := l.renderer.InitSampler(bgp, binding, samplerData); err != nil {
				return fmt.Errorf("failed to init sampler for %q binding %d: %w", mat.Name(), binding, err)
			}
		}
	}

	if err := l.renderer.InitBindGroup(bgp, fragmentShader.BindGroupLayoutDescriptor(groupIdx), nil, nil); err != nil {
		return fmt.Errorf("failed to init bind group for %q: %w", mat.Name(), err)
	}

	mat.SetBindGroupProvider(bgp)

	return nil
}

// textureStaging produces the RGBA staging data for a material's texture
// binding. Materials without a diffuse texture get their base color baked
// into a 1x1 texture.
func (l *loader) textureStaging(mat material.Material) (common.TextureStagingData, error) {
	if tex := mat.DiffuseTexture(); tex != nil {
		pixels, width, height, err := tex.Decode()
		if err != nil {
			return common.TextureStagingData{}, fmt.Errorf("failed to decode texture for %q: %w", mat.Name(), err)
		}
		return common.TextureStagingData{
			Pixels: pixels,
			Width:  width,
			Height: height,
		}, nil
	}

	color := mat.BaseColor()
	pixels := make([]byte, 4)
	for i, c := range color {
		if c < 0 {
			c = 0
		} else if c > 1 {
			c = 1
		}
		pixels[i] = byte(c*255 + 0.5)
	}

	return common.TextureStagingData{
		Pixels: pixels,
		Width:  1,
		Height: 1,
	}, nil
}

// findMaterialGroup locates the fragment shader bind group that carries
// texture and sampler bindings. The camera group carries only uniform
// buffers, so the first group with a texture entry is the material group.
func findMaterialGroup(fragmentShader shader.Shader) (int, wgpu.BindGroupLayoutDescriptor, error) {
	descriptors := fragmentShader.BindGroupLayoutDescriptors()

	for groupIdx, descriptor := range descriptors {
		for _, entry := range descriptor.Entries {
			if entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined {
				return groupIdx, descriptor, nil
			}
		}
	}

	return 0, wgpu.BindGroupLayoutDescriptor{}, fmt.Errorf("fragment shader %q has no bind group with a texture binding", fragmentShader.Key())
}

func (l *loader) Get(key string) (model.Model, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	mdl, ok := l.modelCache[key]
	return mdl, ok
}

func (l *loader) Models() map[string]model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]model.Model, len(l.modelCache))
	for k, v := range l.modelCache {
		out[k] = v
	}
	return out
}
