package vertex

import "github.com/go-gl/mathgl/mgl32"

// SolidVertex is the record layout of the lit cube mesh.
type SolidVertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
}

// BasicVertex is the record layout of the unlit overlay triangle.
type BasicVertex struct {
	Position mgl32.Vec2
	Color    mgl32.Vec3
}

// CubeMesh returns the 36 vertices of the cube spanning [-1, 1]^3, two counter-clockwise
// triangles per face. Normals are the unnormalised face normals.
func CubeMesh() []SolidVertex {
	vertices := make([]SolidVertex, 0, 36)
	pushFace := func(p, ux, uy mgl32.Vec3) {
		n := ux.Cross(uy)
		vertices = append(vertices,
			SolidVertex{p, n},
			SolidVertex{p.Add(ux), n},
			SolidVertex{p.Add(ux).Add(uy), n},
			SolidVertex{p, n},
			SolidVertex{p.Add(ux).Add(uy), n},
			SolidVertex{p.Add(uy), n},
		)
	}

	v0 := mgl32.Vec3{-1, -1, -1}
	v1 := mgl32.Vec3{1, 1, 1}
	ux := mgl32.Vec3{2, 0, 0}
	uy := mgl32.Vec3{0, 2, 0}
	uz := mgl32.Vec3{0, 0, 2}
	pushFace(v0, uz, uy)
	pushFace(v1, uy.Mul(-1), uz.Mul(-1))
	pushFace(v0, ux, uz)
	pushFace(v1, uz.Mul(-1), ux.Mul(-1))
	pushFace(v0, uy, ux)
	pushFace(v1, ux.Mul(-1), uy.Mul(-1))
	return vertices
}

// TriangleMesh returns the red, green and blue overlay triangle in normalised device coordinates.
func TriangleMesh() []BasicVertex {
	return []BasicVertex{
		{mgl32.Vec2{-0.5, -0.5}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec2{0.5, -0.5}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec2{0, 0.5}, mgl32.Vec3{0, 0, 1}},
	}
}
