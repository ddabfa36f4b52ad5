package program

import (
	"fmt"

	"github.com/Carmen-Shannon/universe/engine/renderer/gpu"
	"github.com/Carmen-Shannon/universe/engine/renderer/shader"
)

// ProgramSpec declares one program: its name, its two stage sources and its slots in
// declaration order. It is consumed by NewRegistry.
type ProgramSpec struct {
	name       string
	vertex     *shader.Source
	fragment   *shader.Source
	uniforms   []UniformSlot
	attributes []AttributeSlot
}

// ProgramSpecOption configures a ProgramSpec.
type ProgramSpecOption func(*ProgramSpec)

// NewProgramSpec declares a program.
//
// Parameters:
//   - name: the program name used in diagnostics and for Registry.Program lookups
//   - vertex: the vertex stage source
//   - fragment: the fragment stage source
//   - options: slot declarations
//
// Returns:
//   - ProgramSpec: the declaration
func NewProgramSpec(name string, vertex, fragment *shader.Source, options ...ProgramSpecOption) ProgramSpec {
	if vertex == nil || fragment == nil {
		panic(fmt.Sprintf("program: %s must have a vertex and a fragment source", name))
	}
	if vertex.Stage() != gpu.StageVertex {
		panic(fmt.Sprintf("program: %s vertex source %s is a %s shader", name, vertex.Name(), vertex.Stage()))
	}
	if fragment.Stage() != gpu.StageFragment {
		panic(fmt.Sprintf("program: %s fragment source %s is a %s shader", name, fragment.Name(), fragment.Stage()))
	}
	ps := ProgramSpec{name: name, vertex: vertex, fragment: fragment}
	for _, opt := range options {
		opt(&ps)
	}
	return ps
}

// WithUniforms appends uniform slots to the program, in order.
//
// Parameters:
//   - slots: the uniforms, e.g. NewUniform[mgl32.Mat4]("Projection")
//
// Returns:
//   - ProgramSpecOption: the option
func WithUniforms(slots ...UniformSlot) ProgramSpecOption {
	return func(ps *ProgramSpec) {
		ps.uniforms = append(ps.uniforms, slots...)
	}
}

// WithAttributes appends attribute slots to the program, in order.
//
// Parameters:
//   - slots: the attributes, e.g. NewAttribute[mgl32.Vec3]("position")
//
// Returns:
//   - ProgramSpecOption: the option
func WithAttributes(slots ...AttributeSlot) ProgramSpecOption {
	return func(ps *ProgramSpec) {
		ps.attributes = append(ps.attributes, slots...)
	}
}
