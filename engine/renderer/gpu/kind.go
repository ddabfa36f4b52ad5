package gpu

import "fmt"

// DataKind identifies the GLSL data type of a shader interface slot (attribute or uniform).
// The values are the OpenGL enums reported by glGetActiveUniform / glGetActiveAttrib, so a
// kind read back from the driver can be compared directly with a declared kind.
type DataKind uint32

const (
	KindFloat DataKind = 0x1406 // GL_FLOAT
	KindVec2  DataKind = 0x8B50 // GL_FLOAT_VEC2
	KindVec3  DataKind = 0x8B51 // GL_FLOAT_VEC3
	KindVec4  DataKind = 0x8B52 // GL_FLOAT_VEC4

	KindInt   DataKind = 0x1404 // GL_INT
	KindIVec2 DataKind = 0x8B53 // GL_INT_VEC2
	KindIVec3 DataKind = 0x8B54 // GL_INT_VEC3
	KindIVec4 DataKind = 0x8B55 // GL_INT_VEC4

	KindUint  DataKind = 0x1405 // GL_UNSIGNED_INT
	KindUVec2 DataKind = 0x8DC6 // GL_UNSIGNED_INT_VEC2
	KindUVec3 DataKind = 0x8DC7 // GL_UNSIGNED_INT_VEC3
	KindUVec4 DataKind = 0x8DC8 // GL_UNSIGNED_INT_VEC4

	KindMat2   DataKind = 0x8B5A // GL_FLOAT_MAT2
	KindMat3   DataKind = 0x8B5B // GL_FLOAT_MAT3
	KindMat4   DataKind = 0x8B5C // GL_FLOAT_MAT4
	KindMat2x3 DataKind = 0x8B65 // GL_FLOAT_MAT2x3
	KindMat2x4 DataKind = 0x8B66 // GL_FLOAT_MAT2x4
	KindMat3x2 DataKind = 0x8B67 // GL_FLOAT_MAT3x2
	KindMat3x4 DataKind = 0x8B68 // GL_FLOAT_MAT3x4
	KindMat4x2 DataKind = 0x8B69 // GL_FLOAT_MAT4x2
	KindMat4x3 DataKind = 0x8B6A // GL_FLOAT_MAT4x3
)

// kindInfo describes the layout of a DataKind.
// For matrices, columns x rows follows the GLSL matCxR naming.
type kindInfo struct {
	glsl      string
	component DataKind
	columns   int
	rows      int
}

var kinds = map[DataKind]kindInfo{
	KindFloat: {"float", KindFloat, 1, 1},
	KindVec2:  {"vec2", KindFloat, 1, 2},
	KindVec3:  {"vec3", KindFloat, 1, 3},
	KindVec4:  {"vec4", KindFloat, 1, 4},

	KindInt:   {"int", KindInt, 1, 1},
	KindIVec2: {"ivec2", KindInt, 1, 2},
	KindIVec3: {"ivec3", KindInt, 1, 3},
	KindIVec4: {"ivec4", KindInt, 1, 4},

	KindUint:  {"uint", KindUint, 1, 1},
	KindUVec2: {"uvec2", KindUint, 1, 2},
	KindUVec3: {"uvec3", KindUint, 1, 3},
	KindUVec4: {"uvec4", KindUint, 1, 4},

	KindMat2:   {"mat2", KindFloat, 2, 2},
	KindMat3:   {"mat3", KindFloat, 3, 3},
	KindMat4:   {"mat4", KindFloat, 4, 4},
	KindMat2x3: {"mat2x3", KindFloat, 2, 3},
	KindMat2x4: {"mat2x4", KindFloat, 2, 4},
	KindMat3x2: {"mat3x2", KindFloat, 3, 2},
	KindMat3x4: {"mat3x4", KindFloat, 3, 4},
	KindMat4x2: {"mat4x2", KindFloat, 4, 2},
	KindMat4x3: {"mat4x3", KindFloat, 4, 3},
}

// kindsByGLSL is the reverse of kinds, keyed by GLSL type name.
var kindsByGLSL = func() map[string]DataKind {
	m := make(map[string]DataKind, len(kinds))
	for k, info := range kinds {
		m[info.glsl] = k
	}
	// GLSL accepts the square matrix long forms as aliases.
	m["mat2x2"] = KindMat2
	m["mat3x3"] = KindMat3
	m["mat4x4"] = KindMat4
	return m
}()

// KindFromGLSL resolves a GLSL type name (e.g. "vec3", "mat4x3") to its DataKind.
//
// Returns:
//   - DataKind: the matching kind
//   - bool: false if the name is not a supported slot type
func KindFromGLSL(name string) (DataKind, bool) {
	k, ok := kindsByGLSL[name]
	return k, ok
}

// Valid reports whether k is one of the supported slot kinds.
func (k DataKind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// String returns the GLSL name of the kind, or the GL enum name for unsupported values.
func (k DataKind) String() string {
	if info, ok := kinds[k]; ok {
		return info.glsl
	}
	return EnumString(uint32(k))
}

// ComponentType returns the scalar kind of a single element (KindFloat, KindInt or KindUint).
func (k DataKind) ComponentType() DataKind {
	return kinds[k].component
}

// Components returns the total number of scalar elements (rows x columns for matrices).
func (k DataKind) Components() int {
	info := kinds[k]
	return info.columns * info.rows
}

// Columns returns the column count of a matrix kind, 1 for scalars and vectors.
func (k DataKind) Columns() int {
	return kinds[k].columns
}

// Rows returns the row count of a matrix kind, or the vector width for vectors.
func (k DataKind) Rows() int {
	return kinds[k].rows
}

// IsMatrix reports whether k is a matrix kind.
func (k DataKind) IsMatrix() bool {
	return kinds[k].columns > 1
}

// IsInteger reports whether the elements of k are signed or unsigned integers.
func (k DataKind) IsInteger() bool {
	c := kinds[k].component
	return c == KindInt || c == KindUint
}

// GoString implements fmt.GoStringer for test failure output.
func (k DataKind) GoString() string {
	return fmt.Sprintf("gpu.DataKind(%s)", k.String())
}
