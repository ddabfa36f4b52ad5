package engine

import (
	"github.com/Carmen-Shannon/universe/engine/renderer/program"
	"github.com/Carmen-Shannon/universe/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// BasicProgram draws unlit, vertex-coloured geometry given in clip space.
type BasicProgram struct {
	Position *program.Attribute[mgl32.Vec4]
	Color    *program.Attribute[mgl32.Vec4]
}

// SolidProgram draws flat-coloured geometry lit by an ambient term and two point lights.
type SolidProgram struct {
	Projection  *program.Uniform[mgl32.Mat4]
	Model       *program.Uniform[mgl32.Mat4]
	NormalModel *program.Uniform[mgl32.Mat3]
	Color       *program.Uniform[mgl32.Vec4]

	AmbientColor   *program.Uniform[mgl32.Vec3]
	Light0Position *program.Uniform[mgl32.Vec3]
	Light0Color    *program.Uniform[mgl32.Vec3]
	Light1Position *program.Uniform[mgl32.Vec3]
	Light1Color    *program.Uniform[mgl32.Vec3]

	Position *program.Attribute[mgl32.Vec3]
	Normal   *program.Attribute[mgl32.Vec3]
}

// Shaders is the render server's program registry together with the typed slots of each program.
type Shaders struct {
	Registry program.Registry
	Basic    BasicProgram
	Solid    SolidProgram
}

// NewShaders declares the basic and solid programs over the embedded GLSL sources.
// Nothing touches the GPU until Registry.Compile.
//
// Returns:
//   - *Shaders: the declarations
func NewShaders() *Shaders {
	s := &Shaders{
		Basic: BasicProgram{
			Position: program.NewAttribute[mgl32.Vec4]("position"),
			Color:    program.NewAttribute[mgl32.Vec4]("color"),
		},
		Solid: SolidProgram{
			Projection:     program.NewUniform[mgl32.Mat4]("Projection"),
			Model:          program.NewUniform[mgl32.Mat4]("Model"),
			NormalModel:    program.NewUniform[mgl32.Mat3]("_Normal_model"),
			Color:          program.NewUniform[mgl32.Vec4]("color"),
			AmbientColor:   program.NewUniform[mgl32.Vec3]("ambient_color"),
			Light0Position: program.NewUniform[mgl32.Vec3]("light0_position"),
			Light0Color:    program.NewUniform[mgl32.Vec3]("light0_color"),
			Light1Position: program.NewUniform[mgl32.Vec3]("light1_position"),
			Light1Color:    program.NewUniform[mgl32.Vec3]("light1_color"),
			Position:       program.NewAttribute[mgl32.Vec3]("position"),
			Normal:         program.NewAttribute[mgl32.Vec3]("normal"),
		},
	}

	b, so := s.Basic, s.Solid
	s.Registry = program.NewRegistry(
		program.NewProgramSpec("basic", shader.Get("basic_v"), shader.Get("basic_f"),
			program.WithAttributes(b.Position, b.Color),
		),
		program.NewProgramSpec("solid", shader.Get("solid_v"), shader.Get("solid_f"),
			program.WithUniforms(
				so.Projection, so.Model, so.NormalModel, so.Color,
				so.AmbientColor,
				so.Light0Position, so.Light0Color,
				so.Light1Position, so.Light1Color,
			),
			program.WithAttributes(so.Position, so.Normal),
		),
	)
	return s
}
