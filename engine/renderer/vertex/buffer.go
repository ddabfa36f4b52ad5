// Package vertex uploads typed vertex records to GPU buffers and maps record members onto
// program attribute slots.
package vertex

import (
	"errors"
	"unsafe"

	"github.com/Carmen-Shannon/universe/engine/renderer/gpu"
)

// ErrReleased is returned when a moved-from or deleted Buffer or VertexArray is used.
var ErrReleased = errors.New("vertex: resource already released")

// recordBytes views records as raw bytes for upload. The result aliases records.
func recordBytes[T any](records []T) []byte {
	if len(records) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&records[0])), int(unsafe.Sizeof(zero))*len(records))
}

// noCopy lets go vet's copylocks check flag copies of the types embedding it.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Buffer is a GPU array buffer holding records of type T. It owns its handle exclusively:
// use Move to transfer ownership, never copy the value.
type Buffer[T any] struct {
	_ noCopy

	b      gpu.Backend
	handle uint32
	count  int32
}

// NewBuffer allocates an empty buffer.
//
// Parameters:
//   - b: the backend bound to the current GL context
//
// Returns:
//   - *Buffer[T]: the new buffer
//   - error: error if the backend reports a failure
func NewBuffer[T any](b gpu.Backend) (*Buffer[T], error) {
	if b == nil {
		panic("vertex: buffer requires a backend")
	}
	var h uint32
	if err := gpu.Guard(b, "glGenBuffers", func() { h = b.CreateBuffer() }); err != nil {
		return nil, err
	}
	return &Buffer[T]{b: b, handle: h}, nil
}

// Handle returns the buffer handle, 0 once moved or deleted.
func (buf *Buffer[T]) Handle() uint32 {
	return buf.handle
}

// Count returns the number of records of the last upload.
func (buf *Buffer[T]) Count() int32 {
	return buf.count
}

// Stride returns the byte size of one record.
func (buf *Buffer[T]) Stride() int32 {
	var zero T
	return int32(unsafe.Sizeof(zero))
}

// Upload replaces the whole buffer contents with records and records their count.
//
// Parameters:
//   - records: the vertex records, in draw order
//
// Returns:
//   - error: ErrReleased or a backend error
func (buf *Buffer[T]) Upload(records []T) error {
	if buf.handle == 0 {
		return ErrReleased
	}
	data := recordBytes(records)
	if err := gpu.Guard(buf.b, "glBufferData", func() { buf.b.BufferData(buf.handle, data) }); err != nil {
		return err
	}
	buf.count = int32(len(records))
	return nil
}

// Bind binds the buffer as the array buffer and hands build an ArrayBuilder with this buffer's
// stride. The vertex array receiving the attribute layout must already be bound.
//
// Parameters:
//   - build: declares which record member feeds which attribute (see Enable and EnableComponents)
//
// Returns:
//   - error: the first error returned by build, ErrReleased, or a backend error
func (buf *Buffer[T]) Bind(build func(ab *ArrayBuilder) error) error {
	if buf.handle == 0 {
		return ErrReleased
	}
	var buildErr error
	err := gpu.Guard(buf.b, "vertex array layout", func() {
		buf.b.BindArrayBuffer(buf.handle)
		buildErr = build(&ArrayBuilder{b: buf.b, stride: buf.Stride()})
	})
	if buildErr != nil {
		return buildErr
	}
	return err
}

// Move transfers ownership of the backend buffer to a new Buffer and zeroes buf.
//
// Returns:
//   - *Buffer[T]: the new owner
func (buf *Buffer[T]) Move() *Buffer[T] {
	out := &Buffer[T]{b: buf.b, handle: buf.handle, count: buf.count}
	buf.handle = 0
	buf.count = 0
	return out
}

// Delete releases the backend buffer. Further calls are no-ops.
func (buf *Buffer[T]) Delete() {
	if buf.handle == 0 {
		return
	}
	buf.b.DeleteBuffer(buf.handle)
	buf.handle = 0
	buf.count = 0
}
