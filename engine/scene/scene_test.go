package scene

import (
	"testing"

	"github.com/What42Pizza/WGPU-Template/common"
	"github.com/What42Pizza/WGPU-Template/engine/camera"
	"github.com/What42Pizza/WGPU-Template/engine/game_object"
	"github.com/What42Pizza/WGPU-Template/engine/model"
	"github.com/What42Pizza/WGPU-Template/engine/renderer"
	"github.com/What42Pizza/WGPU-Template/engine/renderer/bind_group_provider"
	"github.com/What42Pizza/WGPU-Template/engine/renderer/material"
	"github.com/What42Pizza/WGPU-Template/engine/renderer/pipeline"
	"github.com/What42Pizza/WGPU-Template/engine/renderer/shaders"

	"github.com/cogentcore/webgpu/wgpu"
)

// drawRecord captures one DrawCall for assertions.
type drawRecord struct {
	pipelineKey   string
	mesh          bind_group_provider.BindGroupProvider
	instanceCount uint32
	bindGroups    []bind_group_provider.BindGroupProvider
}

// stubRenderer records every renderer call the scene makes without touching
// a GPU.
type stubRenderer struct {
	pipelines      map[string]pipeline.Pipeline
	meshInits      int
	bindGroupInits int
	lastBGDesc     wgpu.BindGroupLayoutDescriptor
	instanceInits  int
	instanceWrites int
	lastInstance   []byte
	lastWrites     []bind_group_provider.BufferWrite
	draws          []drawRecord
}

var _ renderer.Renderer = &stubRenderer{}

func newStubRenderer() *stubRenderer {
	return &stubRenderer{pipelines: make(map[string]pipeline.Pipeline)}
}

func (r *stubRenderer) Pipeline(key string) pipeline.Pipeline {
	return r.pipelines[key]
}

func (r *stubRenderer) Pipelines() map[string]pipeline.Pipeline {
	return r.pipelines
}

func (r *stubRenderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	for _, p := range pipelines {
		r.pipelines[p.PipelineKey()] = p
	}
	return nil
}

func (r *stubRenderer) ReplacePipeline(p pipeline.Pipeline) error {
	r.pipelines[p.PipelineKey()] = p
	return nil
}

func (r *stubRenderer) SetPipeline(key string, p pipeline.Pipeline) {
	r.pipelines[key] = p
}

func (r *stubRenderer) SetPipelines(pipelines map[string]pipeline.Pipeline) {
	r.pipelines = pipelines
}

func (r *stubRenderer) Resize(width, height int) {}

func (r *stubRenderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	r.meshInits++
	provider.SetVertexBuffer(new(wgpu.Buffer))
	provider.SetIndexBuffer(new(wgpu.Buffer))
	provider.SetIndexCount(indexCount)
	return nil
}

func (r *stubRenderer) InitInstanceBuffer(provider bind_group_provider.BindGroupProvider, instanceData []byte, instanceCount int) error {
	r.instanceInits++
	r.lastInstance = append([]byte(nil), instanceData...)
	provider.SetInstanceBuffer(new(wgpu.Buffer))
	provider.SetInstanceCount(instanceCount)
	return nil
}

func (r *stubRenderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	r.bindGroupInits++
	r.lastBGDesc = descriptor
	return nil
}

func (r *stubRenderer) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	return nil
}

func (r *stubRenderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return nil
}

func (r *stubRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.lastWrites = append([]bind_group_provider.BufferWrite(nil), writes...)
}

func (r *stubRenderer) WriteInstanceBuffer(provider bind_group_provider.BindGroupProvider, instanceData []byte) {
	r.instanceWrites++
	r.lastInstance = append([]byte(nil), instanceData...)
}

func (r *stubRenderer) BeginFrame() error { return nil }

func (r *stubRenderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	r.draws = append(r.draws, drawRecord{
		pipelineKey:   pipelineKey,
		mesh:          meshProvider,
		instanceCount: instanceCount,
		bindGroups:    append([]bind_group_provider.BindGroupProvider(nil), bindGroups...),
	})
	return nil
}

func (r *stubRenderer) EndFrame() {}

func (r *stubRenderer) Present() {}

func (r *stubRenderer) SetPresentMode(mode renderer.PresentMode) {}

// testModel builds a single-triangle model with one material.
func testModel(name string) model.Model {
	vertices := []model.GPUVertex{
		{Position: [3]float32{-1, -1, 0}, TexCoord: [2]float32{0, 1}},
		{Position: [3]float32{1, -1, 0}, TexCoord: [2]float32{1, 1}},
		{Position: [3]float32{0, 1, 0}, TexCoord: [2]float32{0.5, 0}},
	}
	indices := []uint32{0, 1, 2}

	return model.NewModel(
		model.WithName(name),
		model.WithVertices(vertices),
		model.WithVertexData(common.SliceToBytes(vertices)),
		model.WithIndexData(common.SliceToBytes(indices)),
		model.WithIndexCount(len(indices)),
		model.WithMeshProvider(bind_group_provider.NewBindGroupProvider(name+"_mesh")),
		model.WithRenderMaterials(material.NewMaterial(
			material.WithName(name),
			material.WithBindGroupProvider(bind_group_provider.NewBindGroupProvider(name+"_material")),
		)),
	)
}

func newTestScene(t *testing.T, r renderer.Renderer) Scene {
	t.Helper()
	cam := camera.NewCamera(camera.WithController(camera.NewCameraController(
		camera.WithRadius(10),
	)))
	return NewScene("test", cam, r, shaders.NewMeshVertexShader(), WithActive(true))
}

func TestNewSceneInitsCameraBindGroup(t *testing.T) {
	r := newStubRenderer()
	newTestScene(t, r)

	if r.bindGroupInits != 1 {
		t.Fatalf("expected 1 bind group init for the camera, got %d", r.bindGroupInits)
	}
	if len(r.lastBGDesc.Entries) != 1 {
		t.Fatalf("camera layout has %d entries, want 1", len(r.lastBGDesc.Entries))
	}
	if size := r.lastBGDesc.Entries[0].Buffer.MinBindingSize; size != 192 {
		t.Errorf("camera uniform MinBindingSize = %d, want 192", size)
	}
}

func TestAddRegistersPipelineAndMeshOnce(t *testing.T) {
	r := newStubRenderer()
	sc := newTestScene(t, r)

	vs := shaders.NewMeshVertexShader()
	fs := shaders.NewMeshFragmentShader()
	mdl := testModel("crate")

	id1 := sc.Add(game_object.NewGameObject(game_object.WithModel(mdl)), vs, fs)
	id2 := sc.Add(game_object.NewGameObject(game_object.WithModel(mdl)), vs, fs)

	if id1 == 0 || id2 == 0 || id1 == id2 {
		t.Errorf("expected two distinct non-zero ids, got %d and %d", id1, id2)
	}
	if sc.Count() != 2 {
		t.Errorf("Count = %d, want 2", sc.Count())
	}
	if sc.CountInstances() != 2 {
		t.Errorf("CountInstances = %d, want 2", sc.CountInstances())
	}

	// One pipeline per shader pair and one mesh upload per model, no matter
	// how many objects share them.
	wantKey := vs.Key() + "_" + fs.Key()
	if r.Pipeline(wantKey) == nil {
		t.Errorf("pipeline %q was not registered", wantKey)
	}
	if len(r.pipelines) != 1 {
		t.Errorf("expected 1 registered pipeline, got %d", len(r.pipelines))
	}
	if r.meshInits != 1 {
		t.Errorf("expected 1 mesh buffer init, got %d", r.meshInits)
	}
}

func TestAddRejectsIncompleteInput(t *testing.T) {
	r := newStubRenderer()
	sc := newTestScene(t, r)

	vs := shaders.NewMeshVertexShader()
	fs := shaders.NewMeshFragmentShader()

	if id := sc.Add(nil, vs, fs); id != 0 {
		t.Errorf("Add(nil object) = %d, want 0", id)
	}
	if id := sc.Add(game_object.NewGameObject(), vs, fs); id != 0 {
		t.Errorf("Add(object without model) = %d, want 0", id)
	}
	if id := sc.Add(game_object.NewGameObject(game_object.WithModel(testModel("m"))), nil, fs); id != 0 {
		t.Errorf("Add without vertex shader = %d, want 0", id)
	}
}

func TestPrepareFramePacksEnabledInstances(t *testing.T) {
	r := newStubRenderer()
	sc := newTestScene(t, r)

	vs := shaders.NewMeshVertexShader()
	fs := shaders.NewMeshFragmentShader()
	mdl := testModel("crate")

	sc.Add(game_object.NewGameObject(game_object.WithModel(mdl), game_object.WithPosition(1, 0, 0)), vs, fs)
	sc.Add(game_object.NewGameObject(game_object.WithModel(mdl), game_object.WithPosition(2, 0, 0)), vs, fs)
	disabled := game_object.NewGameObject(game_object.WithModel(mdl), game_object.WithEnabled(false))
	sc.Add(disabled, vs, fs)

	sc.PrepareFrame(0.016)

	// Two enabled objects pack two 64-byte matrices; the disabled one is skipped.
	if r.instanceInits != 1 {
		t.Fatalf("expected 1 instance buffer init, got %d", r.instanceInits)
	}
	if len(r.lastInstance) != 2*64 {
		t.Errorf("instance data length = %d, want %d", len(r.lastInstance), 2*64)
	}

	// The camera uniform is staged as a single 192-byte write at binding 0.
	if len(r.lastWrites) != 1 {
		t.Fatalf("expected 1 staged buffer write, got %d", len(r.lastWrites))
	}
	if r.lastWrites[0].Binding != 0 || len(r.lastWrites[0].Data) != 192 {
		t.Errorf("camera write = binding %d size %d, want binding 0 size 192", r.lastWrites[0].Binding, len(r.lastWrites[0].Data))
	}
}

func TestPrepareFrameReusesInstanceBuffer(t *testing.T) {
	r := newStubRenderer()
	sc := newTestScene(t, r)

	vs := shaders.NewMeshVertexShader()
	fs := shaders.NewMeshFragmentShader()
	mdl := testModel("crate")
	sc.Add(game_object.NewGameObject(game_object.WithModel(mdl)), vs, fs)

	sc.PrepareFrame(0.016)
	sc.PrepareFrame(0.016)

	// The first frame allocates; the second fits in capacity and re-writes.
	if r.instanceInits != 1 {
		t.Errorf("instance buffer inits = %d, want 1", r.instanceInits)
	}
	if r.instanceWrites != 1 {
		t.Errorf("instance buffer writes = %d, want 1", r.instanceWrites)
	}

	// Growth past capacity allocates again.
	sc.Add(game_object.NewGameObject(game_object.WithModel(mdl)), vs, fs)
	sc.PrepareFrame(0.016)
	if r.instanceInits != 2 {
		t.Errorf("instance buffer inits after growth = %d, want 2", r.instanceInits)
	}
}

func TestDrawCallsBindCameraAndMaterial(t *testing.T) {
	r := newStubRenderer()
	sc := newTestScene(t, r)

	vs := shaders.NewMeshVertexShader()
	fs := shaders.NewMeshFragmentShader()
	mdl := testModel("crate")
	sc.Add(game_object.NewGameObject(game_object.WithModel(mdl)), vs, fs)
	sc.Add(game_object.NewGameObject(game_object.WithModel(mdl)), vs, fs)

	sc.PrepareFrame(0.016)
	if err := sc.DrawCalls(); err != nil {
		t.Fatalf("DrawCalls returned error: %v", err)
	}

	if len(r.draws) != 1 {
		t.Fatalf("expected 1 draw call, got %d", len(r.draws))
	}
	draw := r.draws[0]
	if draw.pipelineKey != vs.Key()+"_"+fs.Key() {
		t.Errorf("pipeline key = %q", draw.pipelineKey)
	}
	if draw.instanceCount != 2 {
		t.Errorf("instance count = %d, want 2", draw.instanceCount)
	}
	if draw.mesh != mdl.MeshProvider() {
		t.Error("draw did not bind the model's mesh provider")
	}
	// Group 0 camera, group 1 material.
	if len(draw.bindGroups) != 2 {
		t.Fatalf("expected 2 bind groups, got %d", len(draw.bindGroups))
	}
	if draw.bindGroups[0] != sc.Camera().BindGroupProvider() {
		t.Error("bind group 0 is not the camera provider")
	}
	if draw.bindGroups[1] != mdl.RenderMaterials()[0].BindGroupProvider() {
		t.Error("bind group 1 is not the material provider")
	}
}

func TestRemoveAndGet(t *testing.T) {
	r := newStubRenderer()
	sc := newTestScene(t, r)

	vs := shaders.NewMeshVertexShader()
	fs := shaders.NewMeshFragmentShader()
	obj := game_object.NewGameObject(game_object.WithModel(testModel("crate")))
	id := sc.Add(obj, vs, fs)

	if got := sc.Get(id); got != obj {
		t.Error("Get did not return the added object")
	}

	sc.Remove(id)
	if sc.Get(id) != nil {
		t.Error("object still present after Remove")
	}
	if sc.CountInstances() != 0 {
		t.Errorf("CountInstances after Remove = %d, want 0", sc.CountInstances())
	}

	// A removed group packs no instances.
	sc.PrepareFrame(0.016)
	if r.instanceInits != 0 {
		t.Errorf("expected no instance inits after removal, got %d", r.instanceInits)
	}
}

func TestClearEmptiesScene(t *testing.T) {
	r := newStubRenderer()
	sc := newTestScene(t, r)

	vs := shaders.NewMeshVertexShader()
	fs := shaders.NewMeshFragmentShader()
	sc.Add(game_object.NewGameObject(game_object.WithModel(testModel("a"))), vs, fs)
	sc.Add(game_object.NewGameObject(game_object.WithModel(testModel("b"))), vs, fs)

	sc.Clear()
	if sc.Count() != 0 || sc.CountInstances() != 0 {
		t.Errorf("after Clear: Count = %d, CountInstances = %d, want 0, 0", sc.Count(), sc.CountInstances())
	}

	sc.PrepareFrame(0.016)
	if err := sc.DrawCalls(); err != nil {
		t.Fatalf("DrawCalls returned error: %v", err)
	}
	if len(r.draws) != 0 {
		t.Errorf("expected no draws after Clear, got %d", len(r.draws))
	}
}
