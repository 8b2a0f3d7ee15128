package shader

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

const meshVertexSource = `
struct CameraUniform {
    proj_view: mat4x4<f32>,
    inv_proj: mat4x4<f32>,
    view: mat4x4<f32>,
};
@group(0) @binding(0) var<uniform> camera: CameraUniform;

struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) tex_coords: vec2<f32>,
};

struct InstanceInput {
    @location(3) model_matrix_0: vec4<f32>,
    @location(4) model_matrix_1: vec4<f32>,
    @location(5) model_matrix_2: vec4<f32>,
    @location(6) model_matrix_3: vec4<f32>,
};

struct VertexOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) tex_coords: vec2<f32>,
};

@vertex
fn vs_main(vertex: VertexInput, instance: InstanceInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip_position = camera.proj_view * vec4<f32>(vertex.position, 1.0);
    return out;
}
`

const meshFragmentSource = `
struct VertexOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) tex_coords: vec2<f32>,
};

@group(1) @binding(0) var material_texture: texture_2d<f32>;
@group(1) @binding(1) var material_sampler: sampler;

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(material_texture, material_sampler, in.tex_coords);
}
`

func TestVertexShaderLayoutSchema(t *testing.T) {
	s := NewShaderFromSource("mesh_vert_test", ShaderTypeVertex, meshVertexSource)

	schema := s.LayoutSchema()
	if schema == nil {
		t.Fatal("vertex shader has no layout schema")
	}
	if schema.Version() != CurrentSchemaVersion {
		t.Errorf("schema version = %d, want %d", schema.Version(), CurrentSchemaVersion)
	}
	if err := schema.Validate(); err != nil {
		t.Fatalf("schema failed validation: %v", err)
	}

	buffers := s.VertexLayouts()
	if len(buffers) != 2 {
		t.Fatalf("expected 2 vertex buffers, got %d", len(buffers))
	}

	// Slot 0: per-vertex positions and texture coordinates, tightly packed.
	vertexBuf := buffers[0]
	if vertexBuf.StepMode != wgpu.VertexStepModeVertex {
		t.Errorf("slot 0 step mode = %v, want vertex", vertexBuf.StepMode)
	}
	if vertexBuf.ArrayStride != 20 {
		t.Errorf("slot 0 stride = %d, want 20", vertexBuf.ArrayStride)
	}
	wantVertexAttrs := []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
	}
	if len(vertexBuf.Attributes) != len(wantVertexAttrs) {
		t.Fatalf("slot 0 has %d attributes, want %d", len(vertexBuf.Attributes), len(wantVertexAttrs))
	}
	for i, want := range wantVertexAttrs {
		if vertexBuf.Attributes[i] != want {
			t.Errorf("slot 0 attribute %d = %+v, want %+v", i, vertexBuf.Attributes[i], want)
		}
	}

	// Slot 1: the per-instance model matrix as four vec4 columns at
	// locations 3 through 6, in order.
	instanceBuf := buffers[1]
	if instanceBuf.StepMode != wgpu.VertexStepModeInstance {
		t.Errorf("slot 1 step mode = %v, want instance", instanceBuf.StepMode)
	}
	if instanceBuf.ArrayStride != 64 {
		t.Errorf("slot 1 stride = %d, want 64", instanceBuf.ArrayStride)
	}
	if len(instanceBuf.Attributes) != 4 {
		t.Fatalf("slot 1 has %d attributes, want 4", len(instanceBuf.Attributes))
	}
	for i, attr := range instanceBuf.Attributes {
		want := wgpu.VertexAttribute{
			Format:         wgpu.VertexFormatFloat32x4,
			Offset:         uint64(i) * 16,
			ShaderLocation: uint32(3 + i),
		}
		if attr != want {
			t.Errorf("slot 1 attribute %d = %+v, want %+v", i, attr, want)
		}
	}
}

func TestVertexShaderCameraBindGroup(t *testing.T) {
	s := NewShaderFromSource("mesh_vert_test", ShaderTypeVertex, meshVertexSource)

	desc := s.BindGroupLayoutDescriptor(0)
	if len(desc.Entries) != 1 {
		t.Fatalf("group 0 has %d entries, want 1", len(desc.Entries))
	}

	entry := desc.Entries[0]
	if entry.Binding != 0 {
		t.Errorf("binding = %d, want 0", entry.Binding)
	}
	if entry.Buffer.Type != wgpu.BufferBindingTypeUniform {
		t.Errorf("buffer type = %v, want uniform", entry.Buffer.Type)
	}
	// Three mat4x4<f32> pack to 192 bytes.
	if entry.Buffer.MinBindingSize != 192 {
		t.Errorf("MinBindingSize = %d, want 192", entry.Buffer.MinBindingSize)
	}

	if name := s.BindGroupVarName(0, 0); name != "camera" {
		t.Errorf("group 0 binding 0 var name = %q, want %q", name, "camera")
	}
	if binding, ok := s.BindGroupFromVarName(0, "camera"); !ok || binding != 0 {
		t.Errorf("BindGroupFromVarName = (%d, %v), want (0, true)", binding, ok)
	}
}

func TestFragmentShaderMaterialBindGroup(t *testing.T) {
	s := NewShaderFromSource("mesh_frag_test", ShaderTypeFragment, meshFragmentSource)

	if s.LayoutSchema() != nil {
		t.Error("fragment shader should not carry a layout schema")
	}
	if s.VertexLayouts() != nil {
		t.Error("fragment shader should not report vertex layouts")
	}
	if s.EntryPoint() != "fs_main" {
		t.Errorf("entry point = %q, want %q", s.EntryPoint(), "fs_main")
	}

	desc := s.BindGroupLayoutDescriptor(1)
	if len(desc.Entries) != 2 {
		t.Fatalf("group 1 has %d entries, want 2", len(desc.Entries))
	}

	var sawTexture, sawSampler bool
	for _, entry := range desc.Entries {
		switch entry.Binding {
		case 0:
			if entry.Texture.SampleType == wgpu.TextureSampleTypeUndefined {
				t.Error("binding 0 is not a texture")
			}
			sawTexture = true
		case 1:
			if entry.Sampler.Type == wgpu.SamplerBindingTypeUndefined {
				t.Error("binding 1 is not a sampler")
			}
			sawSampler = true
		default:
			t.Errorf("unexpected binding %d", entry.Binding)
		}
	}
	if !sawTexture || !sawSampler {
		t.Errorf("expected texture at binding 0 and sampler at binding 1, got texture=%v sampler=%v", sawTexture, sawSampler)
	}
}

func TestVertexShaderEntryPoint(t *testing.T) {
	s := NewShaderFromSource("mesh_vert_test", ShaderTypeVertex, meshVertexSource)
	if s.EntryPoint() != "vs_main" {
		t.Errorf("entry point = %q, want %q", s.EntryPoint(), "vs_main")
	}
	if s.ShaderType() != ShaderTypeVertex {
		t.Errorf("shader type = %v, want vertex", s.ShaderType())
	}
}

func TestParseLayoutSchemaRejectsDuplicateLocations(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{
			name: "duplicate within one buffer",
			source: `
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(0) tex_coords: vec2<f32>,
};
@vertex
fn vs_main(vertex: VertexInput) -> @builtin(position) vec4<f32> {
    return vec4<f32>(vertex.position, 1.0);
}
`,
		},
		{
			name: "duplicate across vertex and instance buffers",
			source: `
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) tex_coords: vec2<f32>,
};
struct InstanceInput {
    @location(1) model_matrix_0: vec4<f32>,
    @location(4) model_matrix_1: vec4<f32>,
    @location(5) model_matrix_2: vec4<f32>,
    @location(6) model_matrix_3: vec4<f32>,
};
@vertex
fn vs_main(vertex: VertexInput, instance: InstanceInput) -> @builtin(position) vec4<f32> {
    return vec4<f32>(vertex.position, 1.0);
}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLayoutSchema(tt.source)
			if err == nil {
				t.Fatal("expected a validation error, got nil")
			}
			if !strings.Contains(err.Error(), "location") {
				t.Errorf("error does not name the conflicting location: %v", err)
			}
		})
	}
}

func TestNewShaderFromSourcePanicsOnDuplicateLocation(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for a duplicate attribute location")
		}
	}()

	NewShaderFromSource("broken_vert", ShaderTypeVertex, `
struct VertexInput {
    @location(2) position: vec3<f32>,
    @location(2) tex_coords: vec2<f32>,
};
@vertex
fn vs_main(vertex: VertexInput) -> @builtin(position) vec4<f32> {
    return vec4<f32>(vertex.position, 1.0);
}
`)
}

func TestLayoutSchemaValidateRejectsBadVersion(t *testing.T) {
	schema, err := ParseLayoutSchema(meshVertexSource)
	if err != nil {
		t.Fatalf("ParseLayoutSchema returned error: %v", err)
	}

	schema.version = CurrentSchemaVersion + 1
	if err := schema.Validate(); err == nil {
		t.Error("expected a version mismatch error, got nil")
	}
}

func TestLayoutSchemaValidateRejectsUnknownStepMode(t *testing.T) {
	schema := &LayoutSchema{
		version: CurrentSchemaVersion,
		buffers: []wgpu.VertexBufferLayout{
			{
				StepMode:    wgpu.VertexStepMode(99),
				ArrayStride: 12,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				},
			},
		},
		structNames: []string{"VertexInput"},
	}

	if err := schema.Validate(); err == nil {
		t.Error("expected an unknown step mode error, got nil")
	}
}

func TestLayoutSchemaValidateRejectsStrideMismatch(t *testing.T) {
	schema := &LayoutSchema{
		version: CurrentSchemaVersion,
		buffers: []wgpu.VertexBufferLayout{
			{
				StepMode:    wgpu.VertexStepModeVertex,
				ArrayStride: 24, // packed size is 20
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
				},
			},
		},
		structNames: []string{"VertexInput"},
	}

	if err := schema.Validate(); err == nil {
		t.Error("expected a stride mismatch error, got nil")
	}
}
