package vertex

import (
	"testing"
	"unsafe"

	"github.com/Carmen-Shannon/universe/engine/renderer/gpu"
	"github.com/Carmen-Shannon/universe/engine/renderer/gpu/gputest"
	"github.com/Carmen-Shannon/universe/engine/renderer/program"
	"github.com/Carmen-Shannon/universe/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVertex = `#version 410 core
in vec3 position;
in vec3 normal;
in vec4 color;
in ivec2 cell;
void main() {}
`

const testFragment = `#version 410 core
void main() {}
`

type cellVertex struct {
	Position mgl32.Vec3
	Cell     gpu.IVec2
}

type testSlots struct {
	position *program.Attribute[mgl32.Vec3]
	normal   *program.Attribute[mgl32.Vec3]
	color    *program.Attribute[mgl32.Vec4]
	cell     *program.Attribute[gpu.IVec2]
	tangent  *program.Attribute[mgl32.Vec3]
}

func compiled(t *testing.T, b gpu.Backend) testSlots {
	t.Helper()
	s := testSlots{
		position: program.NewAttribute[mgl32.Vec3]("position"),
		normal:   program.NewAttribute[mgl32.Vec3]("normal"),
		color:    program.NewAttribute[mgl32.Vec4]("color"),
		cell:     program.NewAttribute[gpu.IVec2]("cell"),
		tangent:  program.NewAttribute[mgl32.Vec3]("_tangent"),
	}
	r := program.NewRegistry(program.NewProgramSpec("Test",
		shader.NewSource(gpu.StageVertex, "test_v", "test_v.glsl", testVertex),
		shader.NewSource(gpu.StageFragment, "test_f", "test_f.glsl", testFragment),
		program.WithAttributes(s.position, s.normal, s.color, s.cell, s.tangent),
	))
	require.NoError(t, r.Compile(b))
	return s
}

func TestBufferUploadAndLayout(t *testing.T) {
	b := gputest.New()
	slots := compiled(t, b)

	vao, err := NewVertexArray(b)
	require.NoError(t, err)
	require.NoError(t, vao.Bind())

	buf, err := NewBuffer[SolidVertex](b)
	require.NoError(t, err)
	mesh := CubeMesh()
	require.NoError(t, buf.Upload(mesh))
	assert.Equal(t, int32(36), buf.Count())
	assert.Len(t, b.BufferContents(buf.Handle()), 36*int(unsafe.Sizeof(SolidVertex{})))

	err = buf.Bind(func(ab *ArrayBuilder) error {
		if err := Enable(ab, slots.position, unsafe.Offsetof(SolidVertex{}.Position)); err != nil {
			return err
		}
		if err := Enable(ab, slots.normal, unsafe.Offsetof(SolidVertex{}.Normal)); err != nil {
			return err
		}
		// Optional and unused: skipped.
		return Enable(ab, slots.tangent, 0)
	})
	require.NoError(t, err)

	require.Len(t, b.AttribPointers, 2)
	pos, norm := b.AttribPointers[0], b.AttribPointers[1]
	assert.Equal(t, uint32(slots.position.Location()), pos.Location)
	assert.Equal(t, int32(3), pos.Components)
	assert.Equal(t, gpu.KindFloat, pos.ComponentType)
	assert.Equal(t, int32(24), pos.Stride)
	assert.Equal(t, uintptr(0), pos.Offset)
	assert.Equal(t, uintptr(12), norm.Offset)
	assert.Equal(t, buf.Handle(), pos.Buffer)
	assert.Equal(t, vao.Handle(), pos.VertexArray)
	assert.True(t, b.AttribEnabled(vao.Handle(), uint32(slots.normal.Location())))
}

func TestEnableComponents(t *testing.T) {
	b := gputest.New()
	slots := compiled(t, b)
	vao, err := NewVertexArray(b)
	require.NoError(t, err)
	require.NoError(t, vao.Bind())

	buf, err := NewBuffer[BasicVertex](b)
	require.NoError(t, err)
	require.NoError(t, buf.Upload(TriangleMesh()))

	err = buf.Bind(func(ab *ArrayBuilder) error {
		return EnableComponents[mgl32.Vec4, mgl32.Vec3](ab, slots.color, unsafe.Offsetof(BasicVertex{}.Color))
	})
	require.NoError(t, err)
	require.Len(t, b.AttribPointers, 1)
	assert.Equal(t, int32(3), b.AttribPointers[0].Components)
	assert.Equal(t, uintptr(8), b.AttribPointers[0].Offset)

	err = buf.Bind(func(ab *ArrayBuilder) error {
		return EnableComponents[mgl32.Vec3, mgl32.Vec4](ab, slots.normal, 0)
	})
	assert.ErrorContains(t, err, "too many components")

	err = buf.Bind(func(ab *ArrayBuilder) error {
		return EnableComponents[mgl32.Vec3, gpu.IVec2](ab, slots.normal, 0)
	})
	assert.ErrorContains(t, err, "element types differ")
}

func TestIntegerAttributeUsesIntegerPointer(t *testing.T) {
	b := gputest.New()
	slots := compiled(t, b)
	vao, err := NewVertexArray(b)
	require.NoError(t, err)
	require.NoError(t, vao.Bind())

	buf, err := NewBuffer[cellVertex](b)
	require.NoError(t, err)
	require.NoError(t, buf.Upload([]cellVertex{{Cell: gpu.IVec2{1, 2}}}))
	require.NoError(t, buf.Bind(func(ab *ArrayBuilder) error {
		return Enable(ab, slots.cell, unsafe.Offsetof(cellVertex{}.Cell))
	}))
	require.Len(t, b.AttribPointers, 1)
	assert.True(t, b.AttribPointers[0].Integer)
	assert.Equal(t, gpu.KindInt, b.AttribPointers[0].ComponentType)
}

func TestEnableRejectsOverrun(t *testing.T) {
	b := gputest.New()
	slots := compiled(t, b)
	vao, err := NewVertexArray(b)
	require.NoError(t, err)
	require.NoError(t, vao.Bind())
	buf, err := NewBuffer[BasicVertex](b)
	require.NoError(t, err)

	err = buf.Bind(func(ab *ArrayBuilder) error {
		return Enable(ab, slots.color, unsafe.Offsetof(BasicVertex{}.Color))
	})
	assert.ErrorContains(t, err, "bytes 8..24 past the 20 byte record")
}

func TestEnableRequiresResolvedSlot(t *testing.T) {
	b := gputest.New()
	vao, err := NewVertexArray(b)
	require.NoError(t, err)
	require.NoError(t, vao.Bind())
	buf, err := NewBuffer[SolidVertex](b)
	require.NoError(t, err)

	unresolved := program.NewAttribute[mgl32.Vec3]("position")
	err = buf.Bind(func(ab *ArrayBuilder) error {
		return Enable(ab, unresolved, 0)
	})
	assert.ErrorContains(t, err, "no location")
}

func TestBufferMoveAndDelete(t *testing.T) {
	b := gputest.New()
	buf, err := NewBuffer[SolidVertex](b)
	require.NoError(t, err)
	require.NoError(t, buf.Upload(CubeMesh()))
	h := buf.Handle()

	moved := buf.Move()
	assert.Zero(t, buf.Handle())
	assert.Zero(t, buf.Count())
	assert.Equal(t, h, moved.Handle())
	assert.Equal(t, int32(36), moved.Count())
	assert.ErrorIs(t, buf.Upload(nil), ErrReleased)

	// The moved-from value releases nothing.
	buf.Delete()
	assert.True(t, b.Live(h))

	moved.Delete()
	moved.Delete()
	assert.False(t, b.Live(h))
	assert.Equal(t, 1, b.Count("DeleteBuffer"))
}

func TestCubeMesh(t *testing.T) {
	mesh := CubeMesh()
	require.Len(t, mesh, 36)
	for i := 0; i < 36; i += 6 {
		n := mesh[i].Normal
		// Each face's normal points away from the centre through its own vertices.
		for _, v := range mesh[i : i+6] {
			assert.Equal(t, n, v.Normal)
			assert.Greater(t, v.Position.Dot(n), float32(0))
			for _, c := range v.Position {
				assert.Equal(t, float32(1), mgl32.Abs(c))
			}
		}
	}
}
