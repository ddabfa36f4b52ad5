package gpu

import "github.com/go-gl/mathgl/mgl32"

// IVec2 is a GLSL ivec2 value.
type IVec2 [2]int32

// IVec3 is a GLSL ivec3 value.
type IVec3 [3]int32

// IVec4 is a GLSL ivec4 value.
type IVec4 [4]int32

// UVec2 is a GLSL uvec2 value.
type UVec2 [2]uint32

// UVec3 is a GLSL uvec3 value.
type UVec3 [3]uint32

// UVec4 is a GLSL uvec4 value.
type UVec4 [4]uint32

// AttributeValue is the set of Go types a vertex attribute slot can be declared with.
// Matrices are not allowed as attributes.
type AttributeValue interface {
	float32 | mgl32.Vec2 | mgl32.Vec3 | mgl32.Vec4 |
		int32 | IVec2 | IVec3 | IVec4 |
		uint32 | UVec2 | UVec3 | UVec4
}

// UniformValue is the set of Go types a uniform slot can be declared with.
// Float matrices follow the mgl32 column-major layout, which matches GLSL without transposition.
// mgl32 names matrices rows x columns while GLSL uses columns x rows, so mgl32.Mat3x2
// (3 rows, 2 columns) is the Go form of a GLSL mat2x3.
type UniformValue interface {
	AttributeValue |
		mgl32.Mat2 | mgl32.Mat3 | mgl32.Mat4 |
		mgl32.Mat2x3 | mgl32.Mat2x4 | mgl32.Mat3x2 |
		mgl32.Mat3x4 | mgl32.Mat4x2 | mgl32.Mat4x3
}

// KindOf returns the DataKind matching the static type T.
//
// Returns:
//   - DataKind: the kind that a GLSL declaration of T reports through introspection
func KindOf[T UniformValue]() DataKind {
	var zero T
	switch any(zero).(type) {
	case float32:
		return KindFloat
	case mgl32.Vec2:
		return KindVec2
	case mgl32.Vec3:
		return KindVec3
	case mgl32.Vec4:
		return KindVec4
	case int32:
		return KindInt
	case IVec2:
		return KindIVec2
	case IVec3:
		return KindIVec3
	case IVec4:
		return KindIVec4
	case uint32:
		return KindUint
	case UVec2:
		return KindUVec2
	case UVec3:
		return KindUVec3
	case UVec4:
		return KindUVec4
	case mgl32.Mat2:
		return KindMat2
	case mgl32.Mat3:
		return KindMat3
	case mgl32.Mat4:
		return KindMat4
	case mgl32.Mat3x2:
		return KindMat2x3
	case mgl32.Mat4x2:
		return KindMat2x4
	case mgl32.Mat2x3:
		return KindMat3x2
	case mgl32.Mat4x3:
		return KindMat3x4
	case mgl32.Mat2x4:
		return KindMat4x2
	case mgl32.Mat3x4:
		return KindMat4x3
	}
	// Unreachable: the type set is closed.
	panic("gpu: unsupported value type")
}

// Upload sends v to the uniform at location, picking the float, int or uint upload path.
// The backend then selects the vector or matrix variant from kind.
//
// Parameters:
//   - b: the backend owning the current program
//   - location: resolved uniform location
//   - v: the value to upload
func Upload[T UniformValue](b Backend, location int32, v T) {
	kind := KindOf[T]()
	switch x := any(v).(type) {
	case float32:
		b.UniformFloats(location, kind, []float32{x})
	case mgl32.Vec2:
		b.UniformFloats(location, kind, x[:])
	case mgl32.Vec3:
		b.UniformFloats(location, kind, x[:])
	case mgl32.Vec4:
		b.UniformFloats(location, kind, x[:])
	case int32:
		b.UniformInts(location, kind, []int32{x})
	case IVec2:
		b.UniformInts(location, kind, x[:])
	case IVec3:
		b.UniformInts(location, kind, x[:])
	case IVec4:
		b.UniformInts(location, kind, x[:])
	case uint32:
		b.UniformUints(location, kind, []uint32{x})
	case UVec2:
		b.UniformUints(location, kind, x[:])
	case UVec3:
		b.UniformUints(location, kind, x[:])
	case UVec4:
		b.UniformUints(location, kind, x[:])
	case mgl32.Mat2:
		b.UniformFloats(location, kind, x[:])
	case mgl32.Mat3:
		b.UniformFloats(location, kind, x[:])
	case mgl32.Mat4:
		b.UniformFloats(location, kind, x[:])
	case mgl32.Mat2x3:
		b.UniformFloats(location, kind, x[:])
	case mgl32.Mat2x4:
		b.UniformFloats(location, kind, x[:])
	case mgl32.Mat3x2:
		b.UniformFloats(location, kind, x[:])
	case mgl32.Mat3x4:
		b.UniformFloats(location, kind, x[:])
	case mgl32.Mat4x2:
		b.UniformFloats(location, kind, x[:])
	case mgl32.Mat4x3:
		b.UniformFloats(location, kind, x[:])
	}
}
