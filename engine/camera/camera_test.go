package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

const eps = 1e-5

func assertVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], eps)
}

func TestOrbitControllerView(t *testing.T) {
	cc := NewOrbitController()
	assertVec3(t, mgl32.Vec3{0, -5, -20}, mgl32.TransformCoordinate(mgl32.Vec3{}, cc.View()))

	// 0.2 rad/s for 2.5π seconds is a quarter turn: +X ends up in front of the eye.
	cc.Update(float32(2.5 * math.Pi))
	assert.InDelta(t, math.Pi/2, cc.Azimuth(), eps)
	assertVec3(t, mgl32.Vec3{0, -5, -21}, mgl32.TransformCoordinate(mgl32.Vec3{1, 0, 0}, cc.View()))

	cc.SetOrbitSpeed(0)
	cc.Update(100)
	assert.Zero(t, cc.Azimuth())
}

func TestCameraCombinesProjectionAndView(t *testing.T) {
	cc := NewOrbitController(WithOffset(mgl32.Vec3{0, 0, -10}), WithOrbitSpeed(1))
	c := NewCamera(WithAspect(4.0/3.0), WithController(cc))
	c.Update(0)

	want := mgl32.Perspective(mgl32.DegToRad(90), 4.0/3.0, 0.1, 100).Mul4(mgl32.Translate3D(0, 0, -10))
	got := c.ViewProjectionMatrix()
	assert.InDeltaSlice(t, want[:], got[:], eps)
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(100), c.Far())

	// The origin sits on the view axis, so it projects to the centre of the screen.
	clip := c.ViewProjectionMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, clip.X()/clip.W(), eps)
	assert.InDelta(t, 0, clip.Y()/clip.W(), eps)
}

func TestCameraWithoutController(t *testing.T) {
	c := NewCamera()
	c.Update(5)
	assert.Equal(t, mgl32.Ident4(), c.ViewMatrix())
	assert.Nil(t, c.Controller())
}

func TestCameraOptionsAndSetters(t *testing.T) {
	c := NewCamera(WithFov(mgl32.DegToRad(60)), WithNear(1), WithFar(50))
	assert.InDelta(t, mgl32.DegToRad(60), c.Fov(), eps)
	want := mgl32.Perspective(mgl32.DegToRad(60), 1, 1, 50)
	got := c.ProjectionMatrix()
	assert.InDeltaSlice(t, want[:], got[:], eps)

	c.SetFov(mgl32.DegToRad(90))
	want = mgl32.Perspective(mgl32.DegToRad(90), 1, 1, 50)
	got = c.ProjectionMatrix()
	assert.InDeltaSlice(t, want[:], got[:], eps)

	cc := NewOrbitController(WithAzimuth(math.Pi/2), WithOrbitSpeed(0))
	c.SetController(cc)
	c.Update(10)
	assert.InDelta(t, math.Pi/2, cc.Azimuth(), eps)
	assert.Equal(t, cc.View(), c.ViewMatrix())
	assertVec3(t, mgl32.Vec3{0, -5, -21}, mgl32.TransformCoordinate(mgl32.Vec3{1, 0, 0}, c.ViewMatrix()))
}

func TestCubeFacesEncloseTheCentre(t *testing.T) {
	faces := CubeFaces()
	seen := map[mgl32.Vec3]bool{}
	for i, f := range faces {
		assert.InDelta(t, 1, f.Direction.Len(), eps)
		seen[f.Direction] = true

		// Each view maps its own direction onto the eye's forward axis.
		assertVec3(t, mgl32.Vec3{0, 0, -1}, f.View.Mul4x1(f.Direction.Vec4(0)).Vec3())

		// Faces come in antiparallel pairs.
		pair := faces[i^1].Direction
		assertVec3(t, f.Direction.Mul(-1), pair)
	}
	assert.Len(t, seen, 6)
}

func TestCubeFaceProjectionCentresOnDirection(t *testing.T) {
	pos := mgl32.Vec3{3, -2, 7}
	for i, f := range CubeFaces() {
		m := CubeFaceProjection(i, pos, 0.1, 100)
		clip := m.Mul4x1(pos.Add(f.Direction.Mul(5)).Vec4(1))
		assert.InDelta(t, 0, clip.X()/clip.W(), eps, "face %d", i)
		assert.InDelta(t, 0, clip.Y()/clip.W(), eps, "face %d", i)
		assert.Greater(t, clip.W(), float32(0), "face %d", i)

		// A point at the edge of the 90 degree frustum lands on the clip boundary.
		edge := pos.Add(f.Direction.Mul(5)).Add(f.Up.Mul(5))
		clip = m.Mul4x1(edge.Vec4(1))
		assert.InDelta(t, 1, clip.Y()/clip.W(), 1e-4, "face %d", i)
	}
}
