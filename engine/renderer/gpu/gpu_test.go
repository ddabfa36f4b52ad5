package gpu_test

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/universe/engine/renderer/gpu"
	"github.com/Carmen-Shannon/universe/engine/renderer/gpu/gputest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindFromGLSL(t *testing.T) {
	tests := []struct {
		glsl       string
		kind       gpu.DataKind
		components int
		columns    int
		component  gpu.DataKind
	}{
		{"float", gpu.KindFloat, 1, 1, gpu.KindFloat},
		{"vec3", gpu.KindVec3, 3, 1, gpu.KindFloat},
		{"ivec2", gpu.KindIVec2, 2, 1, gpu.KindInt},
		{"uvec4", gpu.KindUVec4, 4, 1, gpu.KindUint},
		{"mat3", gpu.KindMat3, 9, 3, gpu.KindFloat},
		{"mat4x4", gpu.KindMat4, 16, 4, gpu.KindFloat},
		{"mat2x3", gpu.KindMat2x3, 6, 2, gpu.KindFloat},
		{"mat4x3", gpu.KindMat4x3, 12, 4, gpu.KindFloat},
	}
	for _, tt := range tests {
		t.Run(tt.glsl, func(t *testing.T) {
			kind, ok := gpu.KindFromGLSL(tt.glsl)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.components, kind.Components())
			assert.Equal(t, tt.columns, kind.Columns())
			assert.Equal(t, tt.component, kind.ComponentType())
			assert.True(t, kind.Valid())
		})
	}

	_, ok := gpu.KindFromGLSL("sampler2D")
	assert.False(t, ok)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, gpu.KindFloat, gpu.KindOf[float32]())
	assert.Equal(t, gpu.KindVec4, gpu.KindOf[mgl32.Vec4]())
	assert.Equal(t, gpu.KindIVec3, gpu.KindOf[gpu.IVec3]())
	assert.Equal(t, gpu.KindUint, gpu.KindOf[uint32]())
	assert.Equal(t, gpu.KindMat4, gpu.KindOf[mgl32.Mat4]())

	// mgl32 names rows x columns, GLSL columns x rows.
	assert.Equal(t, gpu.KindMat2x3, gpu.KindOf[mgl32.Mat3x2]())
	assert.Equal(t, gpu.KindMat4x3, gpu.KindOf[mgl32.Mat3x4]())
	assert.Equal(t, gpu.KindMat2x3.Components(), len(mgl32.Mat3x2{}))
	assert.Equal(t, gpu.KindMat4x2.Components(), len(mgl32.Mat2x4{}))
}

func TestDataKindString(t *testing.T) {
	assert.Equal(t, "vec4", gpu.KindVec4.String())
	assert.Equal(t, "mat3x4", gpu.KindMat3x4.String())
	assert.Equal(t, "GL_DOUBLE_VEC3", gpu.DataKind(0x8FFD).String())
	assert.True(t, gpu.KindMat2.IsMatrix())
	assert.False(t, gpu.KindVec2.IsMatrix())
	assert.True(t, gpu.KindUVec2.IsInteger())
	assert.False(t, gpu.DataKind(0x8FFD).Valid())

	assert.Equal(t, 3, gpu.KindMat3x4.Columns())
	assert.Equal(t, 4, gpu.KindMat3x4.Rows())
	assert.Equal(t, 1, gpu.KindVec3.Columns())
	assert.Equal(t, 3, gpu.KindVec3.Rows())
}

func TestEnumString(t *testing.T) {
	assert.Equal(t, "GL_INVALID_OPERATION", gpu.EnumString(gpu.InvalidOperation))
	assert.Equal(t, "GL_FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT", gpu.EnumString(gpu.FramebufferIncompleteMissingAttachment))
	assert.Equal(t, "GL_FLOAT_VEC3", gpu.EnumString(uint32(gpu.KindVec3)))
	assert.Equal(t, "GL_ENUM_0x1234", gpu.EnumString(0x1234))
}

func TestCheck(t *testing.T) {
	b := gputest.New()
	require.NoError(t, gpu.Check(b, "glNothing"))

	b.InjectError("Clear", gpu.InvalidEnum)
	b.Clear(gpu.ColorBufferBit)
	err := gpu.Check(b, "glClear")
	require.Error(t, err)

	var glErr *gpu.Error
	require.True(t, errors.As(err, &glErr))
	assert.Equal(t, "glClear", glErr.Call)
	assert.Equal(t, gpu.InvalidEnum, glErr.Code)
	assert.Equal(t, "error during glClear (GL_INVALID_ENUM)", err.Error())

	// The flag was consumed.
	assert.NoError(t, gpu.Check(b, "glClear"))
}

func TestGuardDrainsStaleErrors(t *testing.T) {
	b := gputest.New()
	b.InjectError("Clear", gpu.OutOfMemory)
	b.Clear(gpu.ColorBufferBit)

	err := gpu.Guard(b, "glViewport", func() { b.Viewport(0, 0, 4, 4) })
	assert.NoError(t, err)

	err = gpu.Guard(b, "glDrawArrays", func() { b.DrawArrays(gpu.Triangles, 0, 3) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "glDrawArrays")
	assert.Contains(t, err.Error(), "GL_INVALID_OPERATION")
}

func TestUploadPicksUploadPath(t *testing.T) {
	b := gputest.New()
	vs := b.CreateShader(gpu.StageVertex)
	b.CompileShader(vs, "uniform mat4 M;\nuniform ivec2 I;\nin vec3 position;\nvoid main() {}\n")
	fs := b.CreateShader(gpu.StageFragment)
	b.CompileShader(fs, "uniform uint U;\nvoid main() {}\n")
	p := b.CreateProgram()
	b.AttachShader(p, vs)
	b.AttachShader(p, fs)
	ok, _ := b.LinkProgram(p)
	require.True(t, ok)
	b.UseProgram(p)

	gpu.Upload(b, b.UniformLocation(p, "M"), mgl32.Ident4())
	gpu.Upload(b, b.UniformLocation(p, "I"), gpu.IVec2{3, 4})
	gpu.Upload(b, b.UniformLocation(p, "U"), uint32(9))
	require.NoError(t, gpu.Check(b, "upload"))

	require.Len(t, b.Uniforms, 3)
	assert.Equal(t, gpu.KindMat4, b.Uniforms[0].Kind)
	assert.Len(t, b.Uniforms[0].Floats, 16)
	assert.Equal(t, []int32{3, 4}, b.Uniforms[1].Ints)
	assert.Equal(t, []uint32{9}, b.Uniforms[2].Uints)
}
