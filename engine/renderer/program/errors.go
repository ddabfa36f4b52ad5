package program

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/universe/engine/renderer/gpu"
)

// ErrAlreadyCompiled is returned by a second call to Registry.Compile.
var ErrAlreadyCompiled = errors.New("program: registry already compiled")

// CompileError reports a shader that failed to compile.
type CompileError struct {
	Shader string
	File   string
	Log    string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("shader '%s' (%s), compilation error: %s", e.Shader, e.File, e.Log)
}

// LinkError reports a program that failed to link.
type LinkError struct {
	Program  string
	Vertex   string
	Fragment string
	Log      string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("program '%s': unable to link shaders '%s', '%s': %s", e.Program, e.Vertex, e.Fragment, e.Log)
}

// SlotError reports a declared slot that does not match the linked program.
// Either Missing is set, or Expected and Actual differ.
type SlotError struct {
	Program  string
	Slot     string
	Role     Role
	Expected gpu.DataKind
	Actual   gpu.DataKind
	Missing  bool
}

func (e *SlotError) Error() string {
	if e.Missing {
		return fmt.Sprintf("program '%s': %s '%s' (%s) is not active in the linked program", e.Program, e.Role, e.Slot, e.Expected)
	}
	return fmt.Sprintf("program '%s': %s '%s' declared as %s but the shader declares %s", e.Program, e.Role, e.Slot, e.Expected, e.Actual)
}
