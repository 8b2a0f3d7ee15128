package shader

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// SchemaVersion identifies a revision of the vertex buffer layout rules. The
// version is carried on every schema so a host that persists or compares
// layouts can detect when the rules it was built against have changed.
type SchemaVersion uint32

// CurrentSchemaVersion is the layout schema revision produced by this parser.
const CurrentSchemaVersion SchemaVersion = 1

// LayoutSchema is the validated vertex buffer layout contract between a vertex
// shader and the host. Attribute locations form a single namespace across all
// buffers in the schema; pipeline creation consumes the schema only after
// Validate has accepted it, so a duplicate location is a construction-time
// error rather than a silently shadowed attribute.
type LayoutSchema struct {
	version     SchemaVersion
	buffers     []wgpu.VertexBufferLayout
	structNames []string
}

// ParseLayoutSchema extracts every vertex input struct from WGSL source,
// builds one vertex buffer layout per struct in declaration order, and
// validates the resulting schema. Structs whose names contain "Instance" are
// given per-instance step mode; all others step per vertex.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - *LayoutSchema: the validated schema
//   - error: a validation error describing the first defect found
func ParseLayoutSchema(source string) (*LayoutSchema, error) {
	cleaned := stripComments(source)
	structs := parseStructBlocks(cleaned)

	schema := &LayoutSchema{version: CurrentSchemaVersion}
	for _, ps := range structs {
		if !isVertexInputStruct(ps) {
			continue
		}
		layout, ok := buildVertexBufferLayout(ps)
		if !ok {
			continue
		}
		schema.buffers = append(schema.buffers, layout)
		schema.structNames = append(schema.structNames, ps.name)
	}

	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}

// Version returns the schema revision this layout was built under.
//
// Returns:
//   - SchemaVersion: the schema version
func (s *LayoutSchema) Version() SchemaVersion {
	return s.version
}

// Buffers returns the vertex buffer layouts in buffer slot order.
//
// Returns:
//   - []wgpu.VertexBufferLayout: one layout per buffer slot
func (s *LayoutSchema) Buffers() []wgpu.VertexBufferLayout {
	return s.buffers
}

// BufferName returns the WGSL struct name behind a buffer slot, used in
// validation errors and debugging.
//
// Parameters:
//   - slot: the buffer slot index
//
// Returns:
//   - string: the struct name, or empty if the slot is out of range
func (s *LayoutSchema) BufferName(slot int) string {
	if slot < 0 || slot >= len(s.structNames) {
		return ""
	}
	return s.structNames[slot]
}

// Validate checks the schema against the layout rules: every attribute
// location must be unique across all buffers, attribute offsets within a
// buffer must be packed without overlap, and every buffer must use a known
// step mode. The first defect found is returned as an error; a nil return
// means the schema is safe to hand to pipeline creation.
//
// Returns:
//   - error: the first defect found, or nil if the schema is valid
func (s *LayoutSchema) Validate() error {
	if s.version != CurrentSchemaVersion {
		return fmt.Errorf("layout schema version %d does not match parser version %d", s.version, CurrentSchemaVersion)
	}

	locationOwner := make(map[uint32]string)
	for i, buf := range s.buffers {
		name := s.BufferName(i)
		if name == "" {
			name = fmt.Sprintf("buffer %d", i)
		}

		switch buf.StepMode {
		case wgpu.VertexStepModeVertex, wgpu.VertexStepModeInstance:
		default:
			return fmt.Errorf("%s: unknown step mode %v", name, buf.StepMode)
		}

		var expectedOffset uint64
		for _, attr := range buf.Attributes {
			if owner, taken := locationOwner[attr.ShaderLocation]; taken {
				return fmt.Errorf("attribute location %d declared by both %s and %s", attr.ShaderLocation, owner, name)
			}
			locationOwner[attr.ShaderLocation] = name

			if attr.Offset != expectedOffset {
				return fmt.Errorf("%s: attribute at location %d has offset %d, expected %d", name, attr.ShaderLocation, attr.Offset, expectedOffset)
			}
			size, ok := vertexFormatSize(attr.Format)
			if !ok {
				return fmt.Errorf("%s: attribute at location %d has unsupported format %v", name, attr.ShaderLocation, attr.Format)
			}
			expectedOffset += size
		}

		if buf.ArrayStride != expectedOffset {
			return fmt.Errorf("%s: array stride %d does not match packed attribute size %d", name, buf.ArrayStride, expectedOffset)
		}
	}

	return nil
}

// vertexFormatSize returns the byte size of a wgpu vertex format.
//
// Parameters:
//   - format: the vertex format to size
//
// Returns:
//   - uint64: the byte size
//   - bool: false if the format is not in the supported set
func vertexFormatSize(format wgpu.VertexFormat) (uint64, bool) {
	for _, info := range wgslVertexFormatMap {
		if info.format == format {
			return info.size, true
		}
	}
	return 0, false
}

// isInstanceInputStruct reports whether a vertex input struct carries
// per-instance data, determined by naming convention.
//
// Parameters:
//   - name: the WGSL struct name
//
// Returns:
//   - bool: true if the struct name marks it as per-instance input
func isInstanceInputStruct(name string) bool {
	return strings.Contains(name, "Instance")
}
