// Package glcore implements gpu.Backend on top of OpenGL 4.1 core through go-gl.
//
// All methods must be called from the thread that owns the current GL context.
package glcore

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/universe/engine/renderer/gpu"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// backend is the go-gl implementation of gpu.Backend.
type backend struct{}

var _ gpu.Backend = &backend{}

// New loads the OpenGL entry points for the current context and returns a Backend.
// The window's GL context must already be current on the calling thread.
//
// Returns:
//   - gpu.Backend: the backend bound to the current context
//   - error: error if the GL function pointers cannot be loaded
func New() (gpu.Backend, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL API: %w", err)
	}
	return &backend{}, nil
}

// Version returns the GL_VERSION string of the current context.
func Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

// cstr returns a NUL-terminated copy of s suitable for gl.Str.
func cstr(s string) *uint8 {
	if !strings.HasSuffix(s, "\x00") {
		s += "\x00"
	}
	return gl.Str(s)
}

func (b *backend) GetError() uint32 {
	return gl.GetError()
}

func (b *backend) CreateShader(stage gpu.ShaderStage) uint32 {
	return gl.CreateShader(uint32(stage))
}

func (b *backend) CompileShader(shader uint32, source string) (bool, string) {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	var logLength int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
	msg := ""
	if logLength > 0 {
		buf := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(buf))
		msg = strings.TrimRight(buf, "\x00")
	}
	return status == gl.TRUE, msg
}

func (b *backend) DeleteShader(shader uint32) {
	gl.DeleteShader(shader)
}

func (b *backend) CreateProgram() uint32 {
	return gl.CreateProgram()
}

func (b *backend) AttachShader(program, shader uint32) {
	gl.AttachShader(program, shader)
}

func (b *backend) LinkProgram(program uint32) (bool, string) {
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	msg := ""
	if logLength > 0 {
		buf := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(buf))
		msg = strings.TrimRight(buf, "\x00")
	}
	return status == gl.TRUE, msg
}

func (b *backend) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

func (b *backend) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (b *backend) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, cstr(name))
}

func (b *backend) AttribLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, cstr(name))
}

func (b *backend) ActiveUniforms(program uint32) []gpu.ActiveResource {
	return activeResources(program, gl.ACTIVE_UNIFORMS, gl.ACTIVE_UNIFORM_MAX_LENGTH, gl.GetActiveUniform)
}

func (b *backend) ActiveAttributes(program uint32) []gpu.ActiveResource {
	return activeResources(program, gl.ACTIVE_ATTRIBUTES, gl.ACTIVE_ATTRIBUTE_MAX_LENGTH, gl.GetActiveAttrib)
}

// activeResources enumerates active uniforms or attributes through the given introspection call.
func activeResources(
	program uint32,
	countParam, maxLengthParam uint32,
	get func(program, index uint32, bufSize int32, length, size *int32, xtype *uint32, name *uint8),
) []gpu.ActiveResource {
	var count, maxLength int32
	gl.GetProgramiv(program, countParam, &count)
	gl.GetProgramiv(program, maxLengthParam, &maxLength)
	if count <= 0 {
		return nil
	}

	out := make([]gpu.ActiveResource, 0, count)
	buf := make([]uint8, maxLength+1)
	for i := uint32(0); i < uint32(count); i++ {
		var length, size int32
		var xtype uint32
		get(program, i, int32(len(buf)), &length, &size, &xtype, &buf[0])
		out = append(out, gpu.ActiveResource{
			Name: string(buf[:length]),
			Kind: gpu.DataKind(xtype),
			Size: size,
		})
	}
	return out
}

func (b *backend) UniformFloats(location int32, kind gpu.DataKind, values []float32) {
	if len(values) == 0 {
		return
	}
	p := &values[0]
	switch kind {
	case gpu.KindFloat:
		gl.Uniform1fv(location, 1, p)
	case gpu.KindVec2:
		gl.Uniform2fv(location, 1, p)
	case gpu.KindVec3:
		gl.Uniform3fv(location, 1, p)
	case gpu.KindVec4:
		gl.Uniform4fv(location, 1, p)
	case gpu.KindMat2:
		gl.UniformMatrix2fv(location, 1, false, p)
	case gpu.KindMat3:
		gl.UniformMatrix3fv(location, 1, false, p)
	case gpu.KindMat4:
		gl.UniformMatrix4fv(location, 1, false, p)
	case gpu.KindMat2x3:
		gl.UniformMatrix2x3fv(location, 1, false, p)
	case gpu.KindMat2x4:
		gl.UniformMatrix2x4fv(location, 1, false, p)
	case gpu.KindMat3x2:
		gl.UniformMatrix3x2fv(location, 1, false, p)
	case gpu.KindMat3x4:
		gl.UniformMatrix3x4fv(location, 1, false, p)
	case gpu.KindMat4x2:
		gl.UniformMatrix4x2fv(location, 1, false, p)
	case gpu.KindMat4x3:
		gl.UniformMatrix4x3fv(location, 1, false, p)
	}
}

func (b *backend) UniformInts(location int32, kind gpu.DataKind, values []int32) {
	if len(values) == 0 {
		return
	}
	p := &values[0]
	switch kind {
	case gpu.KindInt:
		gl.Uniform1iv(location, 1, p)
	case gpu.KindIVec2:
		gl.Uniform2iv(location, 1, p)
	case gpu.KindIVec3:
		gl.Uniform3iv(location, 1, p)
	case gpu.KindIVec4:
		gl.Uniform4iv(location, 1, p)
	}
}

func (b *backend) UniformUints(location int32, kind gpu.DataKind, values []uint32) {
	if len(values) == 0 {
		return
	}
	p := &values[0]
	switch kind {
	case gpu.KindUint:
		gl.Uniform1uiv(location, 1, p)
	case gpu.KindUVec2:
		gl.Uniform2uiv(location, 1, p)
	case gpu.KindUVec3:
		gl.Uniform3uiv(location, 1, p)
	case gpu.KindUVec4:
		gl.Uniform4uiv(location, 1, p)
	}
}

func (b *backend) CreateBuffer() uint32 {
	var id uint32
	gl.GenBuffers(1, &id)
	return id
}

func (b *backend) BindArrayBuffer(buffer uint32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
}

func (b *backend) BufferData(buffer uint32, data []byte) {
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
	if len(data) == 0 {
		gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.STATIC_DRAW)
		return
	}
	gl.BufferData(gl.ARRAY_BUFFER, len(data), gl.Ptr(data), gl.STATIC_DRAW)
}

func (b *backend) DeleteBuffer(buffer uint32) {
	gl.DeleteBuffers(1, &buffer)
}

func (b *backend) CreateVertexArray() uint32 {
	var id uint32
	gl.GenVertexArrays(1, &id)
	return id
}

func (b *backend) BindVertexArray(vao uint32) {
	gl.BindVertexArray(vao)
}

func (b *backend) DeleteVertexArray(vao uint32) {
	gl.DeleteVertexArrays(1, &vao)
}

func (b *backend) VertexAttribPointer(location uint32, components int32, componentType gpu.DataKind, stride int32, offset uintptr) {
	gl.VertexAttribPointerWithOffset(location, components, uint32(componentType), false, stride, offset)
}

func (b *backend) VertexAttribIPointer(location uint32, components int32, componentType gpu.DataKind, stride int32, offset uintptr) {
	gl.VertexAttribIPointerWithOffset(location, components, uint32(componentType), stride, offset)
}

func (b *backend) EnableVertexAttribArray(location uint32) {
	gl.EnableVertexAttribArray(location)
}

func (b *backend) CreateRenderbuffer(format uint32, width, height int32) uint32 {
	var id uint32
	gl.GenRenderbuffers(1, &id)
	gl.BindRenderbuffer(gl.RENDERBUFFER, id)
	gl.RenderbufferStorage(gl.RENDERBUFFER, format, width, height)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	return id
}

func (b *backend) DeleteRenderbuffer(rb uint32) {
	gl.DeleteRenderbuffers(1, &rb)
}

func (b *backend) CreateFramebuffer() uint32 {
	var id uint32
	gl.GenFramebuffers(1, &id)
	return id
}

func (b *backend) FramebufferRenderbuffer(fb, attachment, rb uint32) {
	var prev int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prev)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, attachment, gl.RENDERBUFFER, rb)
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prev))
}

func (b *backend) CheckFramebufferStatus(fb uint32) uint32 {
	var prev int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prev)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prev))
	return status
}

func (b *backend) BindFramebuffer(fb uint32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
}

func (b *backend) DefaultFramebuffer() uint32 {
	var fb int32
	gl.GetIntegerv(gl.DRAW_FRAMEBUFFER_BINDING, &fb)
	return uint32(fb)
}

func (b *backend) DeleteFramebuffer(fb uint32) {
	gl.DeleteFramebuffers(1, &fb)
}

func (b *backend) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (b *backend) ClearColor(r, g, bl, a float32) {
	gl.ClearColor(r, g, bl, a)
}

func (b *backend) Clear(mask uint32) {
	gl.Clear(mask)
}

func (b *backend) Enable(capability uint32) {
	gl.Enable(capability)
}

func (b *backend) Disable(capability uint32) {
	gl.Disable(capability)
}

func (b *backend) DrawArrays(mode uint32, first, count int32) {
	gl.DrawArrays(mode, first, count)
}

func (b *backend) ReadPixelsRGB(x, y, width, height int32, dst []byte) {
	if len(dst) < int(width*height*3) {
		return
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(x, y, width, height, gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(&dst[0]))
}
