package loader

import (
	"encoding/binary"
	"testing"

	"github.com/What42Pizza/WGPU-Template/common"
	"github.com/What42Pizza/WGPU-Template/engine/model"
	"github.com/What42Pizza/WGPU-Template/engine/renderer"
	"github.com/What42Pizza/WGPU-Template/engine/renderer/bind_group_provider"
	"github.com/What42Pizza/WGPU-Template/engine/renderer/material"
	"github.com/What42Pizza/WGPU-Template/engine/renderer/pipeline"
	"github.com/What42Pizza/WGPU-Template/engine/renderer/shaders"

	"github.com/cogentcore/webgpu/wgpu"
)

// stubRenderer records loader-facing renderer calls without touching a GPU.
type stubRenderer struct {
	meshVertexData []byte
	meshIndexData  []byte
	meshIndexCount int
	meshInits      int
	textureInits   map[int]common.TextureStagingData
	samplerInits   map[int]common.SamplerStagingData
	bindGroupInits int
}

var _ renderer.Renderer = &stubRenderer{}

func newStubRenderer() *stubRenderer {
	return &stubRenderer{
		textureInits: make(map[int]common.TextureStagingData),
		samplerInits: make(map[int]common.SamplerStagingData),
	}
}

func (r *stubRenderer) Pipeline(key string) pipeline.Pipeline           { return nil }
func (r *stubRenderer) Pipelines() map[string]pipeline.Pipeline         { return nil }
func (r *stubRenderer) RegisterPipelines(ps ...pipeline.Pipeline) error { return nil }
func (r *stubRenderer) ReplacePipeline(p pipeline.Pipeline) error       { return nil }
func (r *stubRenderer) SetPipeline(key string, p pipeline.Pipeline)     {}
func (r *stubRenderer) SetPipelines(ps map[string]pipeline.Pipeline)    {}
func (r *stubRenderer) Resize(width, height int)                        {}

func (r *stubRenderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	r.meshInits++
	r.meshVertexData = vertexData
	r.meshIndexData = indexData
	r.meshIndexCount = indexCount
	provider.SetVertexBuffer(new(wgpu.Buffer))
	provider.SetIndexBuffer(new(wgpu.Buffer))
	provider.SetIndexCount(indexCount)
	return nil
}

func (r *stubRenderer) InitInstanceBuffer(provider bind_group_provider.BindGroupProvider, instanceData []byte, instanceCount int) error {
	return nil
}

func (r *stubRenderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	r.bindGroupInits++
	return nil
}

func (r *stubRenderer) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	r.textureInits[bindingKey] = stagingData
	return nil
}

func (r *stubRenderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	r.samplerInits[bindingKey] = samplerStagingData
	return nil
}

func (r *stubRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {}
func (r *stubRenderer) WriteInstanceBuffer(provider bind_group_provider.BindGroupProvider, instanceData []byte) {
}
func (r *stubRenderer) BeginFrame() error { return nil }
func (r *stubRenderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	return nil
}
func (r *stubRenderer) EndFrame()                             {}
func (r *stubRenderer) Present()                              {}
func (r *stubRenderer) SetPresentMode(mode renderer.PresentMode) {}

func triMesh(name string, matIndex int) model.ImportedMesh {
	return model.ImportedMesh{
		Name: name,
		Vertices: []model.GPUVertex{
			{Position: [3]float32{-1, -1, 0}, TexCoord: [2]float32{0, 1}},
			{Position: [3]float32{1, -1, 0}, TexCoord: [2]float32{1, 1}},
			{Position: [3]float32{0, 1, 0}, TexCoord: [2]float32{0.5, 0}},
		},
		Indices:       []uint32{0, 1, 2},
		MaterialIndex: matIndex,
	}
}

func TestFromImportedCombinesMeshes(t *testing.T) {
	r := newStubRenderer()
	l := NewLoader(WithRenderer(r))

	mats := []material.Material{
		material.NewMaterial(material.WithName("a"), material.WithBaseColor([4]float32{1, 0, 0, 1})),
	}
	imported := &model.ImportedModel{
		Name:   "two_tris",
		Meshes: []model.ImportedMesh{triMesh("first", 0), triMesh("second", 0)},
	}

	mdl, err := l.FromImported(imported, mats, shaders.NewMeshFragmentShader())
	if err != nil {
		t.Fatalf("FromImported returned error: %v", err)
	}

	if mdl.IndexCount() != 6 {
		t.Errorf("IndexCount = %d, want 6", mdl.IndexCount())
	}
	if len(mdl.Vertices()) != 6 {
		t.Errorf("combined vertex count = %d, want 6", len(mdl.Vertices()))
	}

	// The second mesh's indices are re-offset past the first mesh's vertices.
	if len(r.meshIndexData) != 6*4 {
		t.Fatalf("index data length = %d, want 24", len(r.meshIndexData))
	}
	wantIndices := []uint32{0, 1, 2, 3, 4, 5}
	for i, want := range wantIndices {
		got := binary.LittleEndian.Uint32(r.meshIndexData[i*4:])
		if got != want {
			t.Errorf("index %d = %d, want %d", i, got, want)
		}
	}

	// 6 vertices at 20 bytes each.
	if len(r.meshVertexData) != 6*20 {
		t.Errorf("vertex data length = %d, want 120", len(r.meshVertexData))
	}
}

func TestFromImportedCachesByName(t *testing.T) {
	r := newStubRenderer()
	l := NewLoader(WithRenderer(r))

	imported := &model.ImportedModel{
		Name:   "cached",
		Meshes: []model.ImportedMesh{triMesh("m", 0)},
	}
	mats := []material.Material{material.NewMaterial(material.WithName("m"))}
	fs := shaders.NewMeshFragmentShader()

	first, err := l.FromImported(imported, mats, fs)
	if err != nil {
		t.Fatalf("FromImported returned error: %v", err)
	}
	second, err := l.FromImported(imported, mats, fs)
	if err != nil {
		t.Fatalf("second FromImported returned error: %v", err)
	}

	if first != second {
		t.Error("expected the cached model on the second call")
	}
	if r.meshInits != 1 {
		t.Errorf("mesh inits = %d, want 1", r.meshInits)
	}

	cached, ok := l.Get("cached")
	if !ok || cached != first {
		t.Error("Get did not return the cached model")
	}
	if len(l.Models()) != 1 {
		t.Errorf("Models() holds %d entries, want 1", len(l.Models()))
	}
}

func TestInitMaterialGPUBakesBaseColor(t *testing.T) {
	r := newStubRenderer()
	l := NewLoader(WithRenderer(r))

	mat := material.NewMaterial(
		material.WithName("tinted"),
		material.WithBaseColor([4]float32{1, 0.5, 0, 1}),
	)

	if err := l.InitMaterialGPU(mat, shaders.NewMeshFragmentShader(), "tinted_material"); err != nil {
		t.Fatalf("InitMaterialGPU returned error: %v", err)
	}

	// Without a diffuse texture the base color bakes into a 1x1 texture at
	// the material group's texture binding.
	staging, ok := r.textureInits[0]
	if !ok {
		t.Fatal("no texture staged at binding 0")
	}
	if staging.Width != 1 || staging.Height != 1 {
		t.Errorf("baked texture is %dx%d, want 1x1", staging.Width, staging.Height)
	}
	wantPixels := []byte{255, 128, 0, 255}
	for i, want := range wantPixels {
		if staging.Pixels[i] != want {
			t.Errorf("pixel byte %d = %d, want %d", i, staging.Pixels[i], want)
		}
	}

	if _, ok := r.samplerInits[1]; !ok {
		t.Error("no sampler staged at binding 1")
	}
	if r.bindGroupInits != 1 {
		t.Errorf("bind group inits = %d, want 1", r.bindGroupInits)
	}
	if mat.BindGroupProvider() == nil {
		t.Error("material has no bind group provider after init")
	}
}

func TestInitMaterialGPUNeedsTextureGroup(t *testing.T) {
	r := newStubRenderer()
	l := NewLoader(WithRenderer(r))

	mat := material.NewMaterial(material.WithName("m"))

	// The vertex shader carries only the camera uniform group, so there is no
	// texture binding to attach the material to.
	err := l.InitMaterialGPU(mat, shaders.NewMeshVertexShader(), "m_material")
	if err == nil {
		t.Error("expected an error for a shader without a texture binding")
	}
}

func TestLoadTexture(t *testing.T) {
	l := NewLoader()

	tex := l.LoadTexture("assets/textures/crate.png")
	if tex == nil {
		t.Fatal("LoadTexture returned nil")
	}
	if tex.Path != "assets/textures/crate.png" {
		t.Errorf("Path = %q", tex.Path)
	}
	if len(tex.Data) != 0 {
		t.Error("expected no in-memory data for a path-backed texture")
	}
}
