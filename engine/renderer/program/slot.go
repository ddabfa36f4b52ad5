package program

import (
	"strings"

	"github.com/Carmen-Shannon/universe/engine/renderer/gpu"
)

// Role distinguishes uniform slots from attribute slots.
type Role int

const (
	// RoleUniform marks a uniform slot.
	RoleUniform Role = iota

	// RoleAttribute marks a vertex attribute slot.
	RoleAttribute
)

func (r Role) String() string {
	if r == RoleAttribute {
		return "attribute"
	}
	return "uniform"
}

// Slot is a named, kind-tagged binding point of a program.
// Implementations live in this package: NewUniform and NewAttribute.
type Slot interface {
	// Name returns the GLSL identifier of the slot.
	Name() string

	// Kind returns the declared data kind, derived from the slot's Go type.
	Kind() gpu.DataKind

	// Role reports whether the slot is a uniform or an attribute.
	Role() Role

	// Location returns the resolved location, -1 before compilation or when an optional slot is unused.
	Location() int32

	// Resolved reports whether the slot has a valid location.
	Resolved() bool

	// Optional reports whether a missing location is tolerated. Optional slots are named with a
	// leading underscore.
	Optional() bool

	resolve(location int32)
	ownerRef() *string
}

// UniformSlot is a Slot that can be declared through WithUniforms.
type UniformSlot interface {
	Slot
	uniform()
}

// AttributeSlot is a Slot that can be declared through WithAttributes.
type AttributeSlot interface {
	Slot
	attribute()
}

// slot holds the state shared by uniforms and attributes.
type slot struct {
	name     string
	kind     gpu.DataKind
	location int32
	owner    string
}

func newSlot(name string, kind gpu.DataKind) slot {
	if name == "" {
		panic("program: slot name must not be empty")
	}
	return slot{name: name, kind: kind, location: -1}
}

func (s *slot) Name() string {
	return s.name
}

func (s *slot) Kind() gpu.DataKind {
	return s.kind
}

func (s *slot) Location() int32 {
	return s.location
}

func (s *slot) Resolved() bool {
	return s.location >= 0
}

func (s *slot) Optional() bool {
	return strings.HasPrefix(s.name, "_")
}

func (s *slot) resolve(location int32) {
	s.location = location
}

func (s *slot) ownerRef() *string {
	return &s.owner
}

// Uniform is a uniform slot holding values of type T. The GLSL kind is fixed by T, so
// assigning a value of another shape does not compile.
type Uniform[T gpu.UniformValue] struct {
	slot
}

var _ UniformSlot = &Uniform[float32]{}

// NewUniform declares a uniform slot of type T.
//
// Parameters:
//   - name: the GLSL identifier; a leading underscore marks the slot optional
//
// Returns:
//   - *Uniform[T]: the unresolved slot, to be passed to WithUniforms
func NewUniform[T gpu.UniformValue](name string) *Uniform[T] {
	return &Uniform[T]{slot: newSlot(name, gpu.KindOf[T]())}
}

func (u *Uniform[T]) Role() Role {
	return RoleUniform
}

func (u *Uniform[T]) uniform() {}

// Set uploads v to the uniform of the program currently in use. It is a no-op for an
// unresolved slot, so optional uniforms that the shader does not use can be set freely.
//
// Parameters:
//   - b: the backend owning the current program
//   - v: the value to upload
func (u *Uniform[T]) Set(b gpu.Backend, v T) {
	if u.location < 0 {
		return
	}
	gpu.Upload(b, u.location, v)
}

// Attribute is a vertex attribute slot fed with values of type T.
type Attribute[T gpu.AttributeValue] struct {
	slot
}

var _ AttributeSlot = &Attribute[float32]{}

// NewAttribute declares an attribute slot of type T.
//
// Parameters:
//   - name: the GLSL identifier; a leading underscore marks the slot optional
//
// Returns:
//   - *Attribute[T]: the unresolved slot, to be passed to WithAttributes
func NewAttribute[T gpu.AttributeValue](name string) *Attribute[T] {
	return &Attribute[T]{slot: newSlot(name, gpu.KindOf[T]())}
}

func (a *Attribute[T]) Role() Role {
	return RoleAttribute
}

func (a *Attribute[T]) attribute() {}
