package vertex

import (
	"fmt"

	"github.com/Carmen-Shannon/universe/engine/renderer/gpu"
	"github.com/Carmen-Shannon/universe/engine/renderer/program"
)

// ArrayBuilder declares the attribute layout of one bound buffer. It only configures the bound
// vertex array; it never draws. Obtain one through Buffer.Bind.
type ArrayBuilder struct {
	b      gpu.Backend
	stride int32
}

// Stride returns the record size of the bound buffer.
func (ab *ArrayBuilder) Stride() int32 {
	return ab.stride
}

// Enable feeds attr from the whole record member of type T at offset.
//
// Parameters:
//   - ab: the builder from Buffer.Bind
//   - attr: the resolved attribute slot
//   - offset: the byte offset of the member, e.g. unsafe.Offsetof(SolidVertex{}.Normal)
//
// Returns:
//   - error: error if attr is unresolved and not optional, or the member overruns the record
func Enable[T gpu.AttributeValue](ab *ArrayBuilder, attr *program.Attribute[T], offset uintptr) error {
	kind := attr.Kind()
	return ab.enable(attr, kind.Components(), kind.ComponentType(), offset)
}

// EnableComponents feeds attr from a record member of shape S, which must share T's element type
// and have no more components than T. The backend fills the missing components with the
// GLSL defaults (0 for y and z, 1 for w).
//
// Parameters:
//   - ab: the builder from Buffer.Bind
//   - attr: the resolved attribute slot
//   - offset: the byte offset of the member
//
// Returns:
//   - error: error if the shapes are incompatible, attr is unresolved and not optional, or the
//     member overruns the record
func EnableComponents[T, S gpu.AttributeValue](ab *ArrayBuilder, attr *program.Attribute[T], offset uintptr) error {
	src := gpu.KindOf[S]()
	dst := attr.Kind()
	if src.ComponentType() != dst.ComponentType() {
		return fmt.Errorf("attribute '%s' (%s) cannot be fed from %s: element types differ", attr.Name(), dst, src)
	}
	if src.Components() > dst.Components() {
		return fmt.Errorf("attribute '%s' (%s) cannot be fed from %s: too many components", attr.Name(), dst, src)
	}
	return ab.enable(attr, src.Components(), src.ComponentType(), offset)
}

func (ab *ArrayBuilder) enable(attr program.AttributeSlot, components int, componentType gpu.DataKind, offset uintptr) error {
	if !attr.Resolved() {
		if attr.Optional() {
			return nil
		}
		return fmt.Errorf("attribute '%s' has no location; compile the registry first", attr.Name())
	}
	if end := offset + uintptr(components*4); end > uintptr(ab.stride) {
		return fmt.Errorf("attribute '%s' reads bytes %d..%d past the %d byte record", attr.Name(), offset, end, ab.stride)
	}

	loc := uint32(attr.Location())
	if componentType == gpu.KindFloat {
		ab.b.VertexAttribPointer(loc, int32(components), componentType, ab.stride, offset)
	} else {
		ab.b.VertexAttribIPointer(loc, int32(components), componentType, ab.stride, offset)
	}
	ab.b.EnableVertexAttribArray(loc)
	return nil
}
