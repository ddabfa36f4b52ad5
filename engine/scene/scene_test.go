package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertNear(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], 1e-3)
}

func assertMatNear(t *testing.T, want, got mgl32.Mat3) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], 1e-3)
}

func TestNewSceneFormation(t *testing.T) {
	s := NewScene(WithRandomCubes(5), WithComputeWorkers(3))
	defer s.Close()

	cubes := s.Instances()
	require.Len(t, cubes, 6+36+5+1)
	assert.Equal(t, len(cubes), s.Count())

	assert.Equal(t, mgl32.Vec3{10, 0, 0}, cubes[0].Position)
	assert.Equal(t, mgl32.Vec3{0.5, 0, 0.5}, cubes[5].Color)
	assert.Equal(t, float32(1), cubes[0].Scale)

	// The first satellite of the +X cube sits 0.15 further along +X, scaled out with the rest.
	sat := cubes[6]
	assertNear(t, mgl32.Vec3{11.5, 0, 0}, sat.Position)
	assert.Equal(t, float32(0.2), sat.Scale)
	assert.Equal(t, float32(1), sat.Phase)
	assertNear(t, mgl32.Vec3{0.9, 0, 0}, sat.Color)

	for _, c := range cubes[42:47] {
		assert.GreaterOrEqual(t, c.Scale, float32(1))
		assert.LessOrEqual(t, c.Scale, float32(4))
		assert.GreaterOrEqual(t, c.Phase, float32(-10))
		assert.LessOrEqual(t, c.Phase, float32(10))
	}

	marker := cubes[len(cubes)-1]
	assert.Equal(t, mgl32.Vec3{}, marker.Position)
	assert.Equal(t, mgl32.Vec3{}, marker.Color)
	assert.Equal(t, float32(0.2), marker.Scale)
}

func TestSeedIsDeterministic(t *testing.T) {
	a := NewScene(WithSeed(42), WithRandomCubes(10))
	defer a.Close()
	b := NewScene(WithSeed(42), WithRandomCubes(10))
	defer b.Close()
	c := NewScene(WithSeed(43), WithRandomCubes(10))
	defer c.Close()

	assert.Equal(t, a.Instances(), b.Instances())
	assert.NotEqual(t, a.Instances()[42].Position, c.Instances()[42].Position)
}

func TestUpdateMatrices(t *testing.T) {
	s := NewScene(WithRandomCubes(20), WithComputeWorkers(4))
	defer s.Close()

	before := s.Instances()
	s.Update(1.5)
	after := s.Instances()

	for i, c := range after {
		// The model matrix keeps the cube centred on its position.
		assertNear(t, c.Position, mgl32.TransformCoordinate(mgl32.Vec3{}, c.Model))

		// NormalModel is the inverse transpose of the model's upper 3×3.
		assertMatNear(t, mgl32.Ident3(), c.NormalModel.Transpose().Mul3(c.Model.Mat3()))

		assert.False(t, before[i].Model.ApproxEqualThreshold(c.Model, 1e-4), "cube %d did not move", i)
	}

	// An instance's angle is phase + spin*t, so spin 0 leaves the matrices at their t = 0 values.
	still := NewScene(WithRandomCubes(3), WithSpin(0))
	defer still.Close()
	first := still.Instances()
	still.Update(7)
	assert.Equal(t, first, still.Instances())
}

func TestMarkerMovesOnUpdate(t *testing.T) {
	s := NewScene(WithRandomCubes(0), WithComputeWorkers(1))
	defer s.Close()

	target := mgl32.Vec3{3, 4, 5}
	s.SetMarker(target)
	assert.Equal(t, target, s.Marker())
	s.Update(0)
	last := s.Instances()[s.Count()-1]
	assertNear(t, target, mgl32.TransformCoordinate(mgl32.Vec3{}, last.Model))
}

func TestDrawVisitsInOrderAndStopsOnError(t *testing.T) {
	s := NewScene(WithRandomCubes(2))
	defer s.Close()

	var seen []mgl32.Vec3
	require.NoError(t, s.Draw(func(c *CubeInstance) error {
		seen = append(seen, c.Position)
		return nil
	}))
	require.Len(t, seen, s.Count())
	assert.Equal(t, s.Instances()[0].Position, seen[0])

	calls := 0
	boom := errors.New("boom")
	err := s.Draw(func(*CubeInstance) error {
		calls++
		if calls == 3 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestWithInstancesKeepsMarkerLast(t *testing.T) {
	cube := CubeInstance{Position: mgl32.Vec3{0, 0, -5}, Color: mgl32.Vec3{1, 0, 0}, Scale: 1}
	s := NewScene(WithInstances(cube), WithComputeWorkers(2))
	defer s.Close()

	got := s.Instances()
	require.Len(t, got, 2)
	assert.Equal(t, cube.Position, got[0].Position)
	assert.Equal(t, float32(0.2), got[1].Scale)
	assert.Equal(t, mgl32.Vec3{}, s.Marker())
}
