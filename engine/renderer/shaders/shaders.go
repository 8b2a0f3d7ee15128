// package shaders embeds the engine's canonical WGSL sources and exposes them
// as parsed Shader values ready for pipeline registration.
package shaders

import (
	_ "embed"

	"github.com/What42Pizza/WGPU-Template/engine/renderer/shader"
)

// MeshVertexSource is the WGSL source for the instanced textured mesh vertex
// stage. It consumes the camera uniform at group 0 binding 0, per-vertex
// position and texture coordinates at locations 0 and 1, and the per-instance
// model matrix split across locations 3 through 6.
//
//go:embed assets/mesh-vert.wgsl
var MeshVertexSource string

// MeshFragmentSource is the WGSL source for the textured mesh fragment stage.
// It samples the material texture at group 1 binding 0 with the sampler at
// binding 1 and writes the sampled color unmodified.
//
//go:embed assets/mesh-frag.wgsl
var MeshFragmentSource string

// NewMeshVertexShader parses the embedded mesh vertex source into a Shader.
// The instance matrix columns must be reassembled in declaration order
// (locations 3, 4, 5, 6); the parsed layout schema enforces that each
// location is bound exactly once.
//
// Returns:
//   - shader.Shader: the parsed vertex shader
func NewMeshVertexShader() shader.Shader {
	return shader.NewShaderFromSource("mesh_vert", shader.ShaderTypeVertex, MeshVertexSource)
}

// NewMeshFragmentShader parses the embedded mesh fragment source into a Shader.
//
// Returns:
//   - shader.Shader: the parsed fragment shader
func NewMeshFragmentShader() shader.Shader {
	return shader.NewShaderFromSource("mesh_frag", shader.ShaderTypeFragment, MeshFragmentSource)
}
