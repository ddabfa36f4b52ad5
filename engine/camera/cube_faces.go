package camera

import "github.com/go-gl/mathgl/mgl32"

// CubeFace is one of the six views of a cubemap capture.
type CubeFace struct {
	// Direction is the forward axis of the view in world space.
	Direction mgl32.Vec3
	// Up is the up vector passed to the look-at.
	Up mgl32.Vec3
	// View looks from the origin along Direction.
	View mgl32.Mat4
}

var cubeFaces = func() [6]CubeFace {
	dirs := [6][2]mgl32.Vec3{
		{{+1, 0, 0}, {0, +1, 0}},
		{{-1, 0, 0}, {0, +1, 0}},
		{{0, +1, 0}, {0, 0, -1}},
		{{0, -1, 0}, {0, 0, +1}},
		{{0, 0, +1}, {0, +1, 0}},
		{{0, 0, -1}, {0, +1, 0}},
	}
	var faces [6]CubeFace
	for i, d := range dirs {
		faces[i] = CubeFace{
			Direction: d[0],
			Up:        d[1],
			View:      mgl32.LookAtV(mgl32.Vec3{}, d[0], d[1]),
		}
	}
	return faces
}()

// CubeFaces returns the six capture views in read-back order: +X, -X, +Y, -Y, +Z, -Z.
//
// Returns:
//   - [6]CubeFace: the faces
func CubeFaces() [6]CubeFace {
	return cubeFaces
}

// CubeFaceProjection returns the matrix that renders face i of a cubemap centred on position:
// a square 90 degree perspective times the face's look-at times a translation by -position.
//
// Parameters:
//   - i: the face index, 0 to 5
//   - position: the capture centre in world space
//   - near: near clipping plane distance
//   - far: far clipping plane distance
//
// Returns:
//   - mgl32.Mat4: the view-projection matrix for the face
func CubeFaceProjection(i int, position mgl32.Vec3, near, far float32) mgl32.Mat4 {
	p := mgl32.Perspective(mgl32.DegToRad(90), 1, near, far)
	tr := mgl32.Translate3D(-position[0], -position[1], -position[2])
	return p.Mul4(cubeFaces[i].View).Mul4(tr)
}
