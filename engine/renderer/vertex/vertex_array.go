package vertex

import "github.com/Carmen-Shannon/universe/engine/renderer/gpu"

// VertexArray owns one vertex array object.
type VertexArray struct {
	_ noCopy

	b      gpu.Backend
	handle uint32
}

// NewVertexArray creates a vertex array object.
//
// Parameters:
//   - b: the backend bound to the current GL context
//
// Returns:
//   - *VertexArray: the new vertex array
//   - error: error if the backend reports a failure
func NewVertexArray(b gpu.Backend) (*VertexArray, error) {
	if b == nil {
		panic("vertex: vertex array requires a backend")
	}
	var h uint32
	if err := gpu.Guard(b, "glGenVertexArrays", func() { h = b.CreateVertexArray() }); err != nil {
		return nil, err
	}
	return &VertexArray{b: b, handle: h}, nil
}

// Handle returns the vertex array handle, 0 once deleted.
func (va *VertexArray) Handle() uint32 {
	return va.handle
}

// Bind makes the vertex array current.
func (va *VertexArray) Bind() error {
	if va.handle == 0 {
		return ErrReleased
	}
	va.b.BindVertexArray(va.handle)
	return nil
}

// Delete releases the vertex array. Further calls are no-ops.
func (va *VertexArray) Delete() {
	if va.handle == 0 {
		return
	}
	va.b.DeleteVertexArray(va.handle)
	va.handle = 0
}
