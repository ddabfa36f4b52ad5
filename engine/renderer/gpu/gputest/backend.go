// Package gputest provides an in-memory gpu.Backend for tests.
//
// The fake "compiles" GLSL by scanning top-level uniform and in declarations, so program
// introspection reports exactly what the source declares. Every call is recorded and
// errors can be injected per call name.
package gputest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/universe/engine/renderer/gpu"
)

// Call is one recorded backend invocation.
type Call struct {
	Name string
	Args []any
}

// UniformUpload is one recorded uniform upload.
type UniformUpload struct {
	Program  uint32
	Location int32
	Name     string
	Kind     gpu.DataKind
	Floats   []float32
	Ints     []int32
	Uints    []uint32
}

// Draw is one recorded draw call together with the state it was issued in.
type Draw struct {
	Framebuffer uint32
	Program     uint32
	VertexArray uint32
	Mode        uint32
	First       int32
	Count       int32
}

// AttribPointer is one recorded vertex attribute pointer declaration.
type AttribPointer struct {
	Buffer        uint32
	VertexArray   uint32
	Location      uint32
	Components    int32
	ComponentType gpu.DataKind
	Stride        int32
	Offset        uintptr
	Integer       bool
}

type shaderObject struct {
	stage    gpu.ShaderStage
	source   string
	compiled bool
}

type programObject struct {
	shaders    []uint32
	linked     bool
	uniforms   []gpu.ActiveResource
	attributes []gpu.ActiveResource
}

type framebufferObject struct {
	attachments map[uint32]uint32
}

// Backend is the fake. The zero value is not usable; call New.
type Backend struct {
	// CompileFailures makes CompileShader fail with the mapped log when the source contains the key.
	CompileFailures map[string]string

	// LinkFailures makes LinkProgram fail with the mapped log when any attached source contains the key.
	LinkFailures map[string]string

	// FramebufferStatus, when non-zero, overrides the computed completeness status.
	FramebufferStatus uint32

	Calls          []Call
	Uniforms       []UniformUpload
	Draws          []Draw
	AttribPointers []AttribPointer
	Reads          int

	next         uint32
	pending      []uint32
	inject       map[string][]uint32
	shaders      map[uint32]*shaderObject
	programs     map[uint32]*programObject
	buffers      map[uint32][]byte
	vertexArrays map[uint32]map[uint32]bool
	renderbufs   map[uint32]bool
	framebuffers map[uint32]*framebufferObject
	enabled      map[uint32]bool

	program     uint32
	arrayBuffer uint32
	vertexArray uint32
	framebuffer uint32
	clearColor  [4]float32
	viewport    [4]int32
}

var _ gpu.Backend = &Backend{}

// New creates an empty fake backend.
func New() *Backend {
	return &Backend{
		CompileFailures: make(map[string]string),
		LinkFailures:    make(map[string]string),
		inject:          make(map[string][]uint32),
		shaders:         make(map[uint32]*shaderObject),
		programs:        make(map[uint32]*programObject),
		buffers:         make(map[uint32][]byte),
		vertexArrays:    make(map[uint32]map[uint32]bool),
		renderbufs:      make(map[uint32]bool),
		framebuffers:    make(map[uint32]*framebufferObject),
		enabled:         make(map[uint32]bool),
	}
}

// InjectError makes the next invocation of the named method raise code.
// Multiple injections for the same method are consumed in order.
func (b *Backend) InjectError(call string, code uint32) {
	b.inject[call] = append(b.inject[call], code)
}

// Count returns how many times the named method was called.
func (b *Backend) Count(name string) int {
	n := 0
	for _, c := range b.Calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// ShaderSource returns the source a shader object was compiled from.
func (b *Backend) ShaderSource(shader uint32) (string, bool) {
	s, ok := b.shaders[shader]
	if !ok {
		return "", false
	}
	return s.source, true
}

// AttachedShaders returns the shader handles attached to a program, in attach order.
func (b *Backend) AttachedShaders(program uint32) []uint32 {
	if p, ok := b.programs[program]; ok {
		return append([]uint32(nil), p.shaders...)
	}
	return nil
}

// BufferContents returns a copy of the bytes last uploaded to a buffer.
func (b *Backend) BufferContents(buffer uint32) []byte {
	return append([]byte(nil), b.buffers[buffer]...)
}

// Live reports whether a handle of any kind has been created and not yet deleted.
func (b *Backend) Live(handle uint32) bool {
	if _, ok := b.shaders[handle]; ok {
		return true
	}
	if _, ok := b.programs[handle]; ok {
		return true
	}
	if _, ok := b.buffers[handle]; ok {
		return true
	}
	if _, ok := b.vertexArrays[handle]; ok {
		return true
	}
	if _, ok := b.renderbufs[handle]; ok {
		return true
	}
	_, ok := b.framebuffers[handle]
	return ok
}

// CurrentClearColor returns the last clear colour set.
func (b *Backend) CurrentClearColor() [4]float32 {
	return b.clearColor
}

// LiveHandles counts the handles of every kind created and not yet deleted.
func (b *Backend) LiveHandles() int {
	return len(b.shaders) + len(b.programs) + len(b.buffers) + len(b.vertexArrays) +
		len(b.renderbufs) + len(b.framebuffers)
}

// Enabled reports whether a capability is enabled.
func (b *Backend) Enabled(capability uint32) bool {
	return b.enabled[capability]
}

// BoundFramebuffer returns the currently bound framebuffer.
func (b *Backend) BoundFramebuffer() uint32 {
	return b.framebuffer
}

// CurrentViewport returns the last viewport rectangle.
func (b *Backend) CurrentViewport() [4]int32 {
	return b.viewport
}

// UniformUploads returns the recorded uploads to the named uniform.
func (b *Backend) UniformUploads(name string) []UniformUpload {
	var out []UniformUpload
	for _, u := range b.Uniforms {
		if u.Name == name {
			out = append(out, u)
		}
	}
	return out
}

// Reset clears the recorded calls, uploads, draws and reads but keeps all objects.
func (b *Backend) Reset() {
	b.Calls = nil
	b.Uniforms = nil
	b.Draws = nil
	b.AttribPointers = nil
	b.Reads = 0
}

func (b *Backend) record(name string, args ...any) {
	b.Calls = append(b.Calls, Call{Name: name, Args: args})
	if codes := b.inject[name]; len(codes) > 0 {
		b.pending = append(b.pending, codes[0])
		b.inject[name] = codes[1:]
	}
}

func (b *Backend) handle() uint32 {
	b.next++
	return b.next
}

func (b *Backend) raise(code uint32) {
	b.pending = append(b.pending, code)
}

func (b *Backend) GetError() uint32 {
	if len(b.pending) == 0 {
		return gpu.NoError
	}
	code := b.pending[0]
	b.pending = b.pending[1:]
	return code
}

func (b *Backend) CreateShader(stage gpu.ShaderStage) uint32 {
	b.record("CreateShader", stage)
	if stage != gpu.StageVertex && stage != gpu.StageFragment {
		b.raise(gpu.InvalidEnum)
		return 0
	}
	h := b.handle()
	b.shaders[h] = &shaderObject{stage: stage}
	return h
}

func (b *Backend) CompileShader(shader uint32, source string) (bool, string) {
	b.record("CompileShader", shader)
	s, ok := b.shaders[shader]
	if !ok {
		b.raise(gpu.InvalidValue)
		return false, ""
	}
	s.source = source
	for marker, log := range b.CompileFailures {
		if strings.Contains(source, marker) {
			return false, log
		}
	}
	if !strings.Contains(source, "void main") {
		return false, "ERROR: 0:1: 'main' : function not defined"
	}
	s.compiled = true
	return true, ""
}

func (b *Backend) DeleteShader(shader uint32) {
	b.record("DeleteShader", shader)
	delete(b.shaders, shader)
}

func (b *Backend) CreateProgram() uint32 {
	b.record("CreateProgram")
	h := b.handle()
	b.programs[h] = &programObject{}
	return h
}

func (b *Backend) AttachShader(program, shader uint32) {
	b.record("AttachShader", program, shader)
	p, ok := b.programs[program]
	if !ok {
		b.raise(gpu.InvalidValue)
		return
	}
	if _, ok := b.shaders[shader]; !ok {
		b.raise(gpu.InvalidValue)
		return
	}
	p.shaders = append(p.shaders, shader)
}

func (b *Backend) LinkProgram(program uint32) (bool, string) {
	b.record("LinkProgram", program)
	p, ok := b.programs[program]
	if !ok {
		b.raise(gpu.InvalidValue)
		return false, ""
	}

	var vertex, fragment *shaderObject
	for _, h := range p.shaders {
		s := b.shaders[h]
		if s == nil {
			continue
		}
		for marker, log := range b.LinkFailures {
			if strings.Contains(s.source, marker) {
				return false, log
			}
		}
		if !s.compiled {
			return false, "ERROR: attached shader is not compiled"
		}
		switch s.stage {
		case gpu.StageVertex:
			vertex = s
		case gpu.StageFragment:
			fragment = s
		}
	}
	if vertex == nil || fragment == nil {
		return false, "ERROR: program requires a vertex and a fragment shader"
	}

	seen := make(map[string]bool)
	p.uniforms = nil
	for _, s := range []*shaderObject{vertex, fragment} {
		for _, d := range scan(s.source, "uniform") {
			if !seen[d.Name] {
				seen[d.Name] = true
				p.uniforms = append(p.uniforms, d)
			}
		}
	}
	p.attributes = scan(vertex.source, "in")
	p.linked = true
	return true, ""
}

func (b *Backend) DeleteProgram(program uint32) {
	b.record("DeleteProgram", program)
	delete(b.programs, program)
}

func (b *Backend) UseProgram(program uint32) {
	b.record("UseProgram", program)
	if program != 0 {
		if p, ok := b.programs[program]; !ok || !p.linked {
			b.raise(gpu.InvalidOperation)
			return
		}
	}
	b.program = program
}

func (b *Backend) UniformLocation(program uint32, name string) int32 {
	b.record("UniformLocation", program, name)
	p, ok := b.programs[program]
	if !ok || !p.linked {
		b.raise(gpu.InvalidOperation)
		return -1
	}
	return indexOf(p.uniforms, name)
}

func (b *Backend) AttribLocation(program uint32, name string) int32 {
	b.record("AttribLocation", program, name)
	p, ok := b.programs[program]
	if !ok || !p.linked {
		b.raise(gpu.InvalidOperation)
		return -1
	}
	return indexOf(p.attributes, name)
}

func (b *Backend) ActiveUniforms(program uint32) []gpu.ActiveResource {
	b.record("ActiveUniforms", program)
	if p, ok := b.programs[program]; ok {
		return append([]gpu.ActiveResource(nil), p.uniforms...)
	}
	return nil
}

func (b *Backend) ActiveAttributes(program uint32) []gpu.ActiveResource {
	b.record("ActiveAttributes", program)
	if p, ok := b.programs[program]; ok {
		return append([]gpu.ActiveResource(nil), p.attributes...)
	}
	return nil
}

// checkUniform validates an upload against the current program and returns the slot name.
func (b *Backend) checkUniform(location int32, kind gpu.DataKind, n int) (string, bool) {
	p, ok := b.programs[b.program]
	if !ok || location < 0 || int(location) >= len(p.uniforms) {
		b.raise(gpu.InvalidOperation)
		return "", false
	}
	u := p.uniforms[location]
	if u.Kind != kind || kind.Components() != n {
		b.raise(gpu.InvalidOperation)
		return "", false
	}
	return u.Name, true
}

func (b *Backend) UniformFloats(location int32, kind gpu.DataKind, values []float32) {
	b.record("UniformFloats", location, kind)
	if name, ok := b.checkUniform(location, kind, len(values)); ok {
		b.Uniforms = append(b.Uniforms, UniformUpload{
			Program: b.program, Location: location, Name: name, Kind: kind,
			Floats: append([]float32(nil), values...),
		})
	}
}

func (b *Backend) UniformInts(location int32, kind gpu.DataKind, values []int32) {
	b.record("UniformInts", location, kind)
	if name, ok := b.checkUniform(location, kind, len(values)); ok {
		b.Uniforms = append(b.Uniforms, UniformUpload{
			Program: b.program, Location: location, Name: name, Kind: kind,
			Ints: append([]int32(nil), values...),
		})
	}
}

func (b *Backend) UniformUints(location int32, kind gpu.DataKind, values []uint32) {
	b.record("UniformUints", location, kind)
	if name, ok := b.checkUniform(location, kind, len(values)); ok {
		b.Uniforms = append(b.Uniforms, UniformUpload{
			Program: b.program, Location: location, Name: name, Kind: kind,
			Uints: append([]uint32(nil), values...),
		})
	}
}

func (b *Backend) CreateBuffer() uint32 {
	b.record("CreateBuffer")
	h := b.handle()
	b.buffers[h] = nil
	return h
}

func (b *Backend) BindArrayBuffer(buffer uint32) {
	b.record("BindArrayBuffer", buffer)
	if _, ok := b.buffers[buffer]; !ok && buffer != 0 {
		b.raise(gpu.InvalidValue)
		return
	}
	b.arrayBuffer = buffer
}

func (b *Backend) BufferData(buffer uint32, data []byte) {
	b.record("BufferData", buffer, len(data))
	if _, ok := b.buffers[buffer]; !ok {
		b.raise(gpu.InvalidValue)
		return
	}
	b.arrayBuffer = buffer
	b.buffers[buffer] = append([]byte(nil), data...)
}

func (b *Backend) DeleteBuffer(buffer uint32) {
	b.record("DeleteBuffer", buffer)
	delete(b.buffers, buffer)
	if b.arrayBuffer == buffer {
		b.arrayBuffer = 0
	}
}

func (b *Backend) CreateVertexArray() uint32 {
	b.record("CreateVertexArray")
	h := b.handle()
	b.vertexArrays[h] = make(map[uint32]bool)
	return h
}

func (b *Backend) BindVertexArray(vao uint32) {
	b.record("BindVertexArray", vao)
	if _, ok := b.vertexArrays[vao]; !ok && vao != 0 {
		b.raise(gpu.InvalidOperation)
		return
	}
	b.vertexArray = vao
}

func (b *Backend) DeleteVertexArray(vao uint32) {
	b.record("DeleteVertexArray", vao)
	delete(b.vertexArrays, vao)
	if b.vertexArray == vao {
		b.vertexArray = 0
	}
}

func (b *Backend) attribPointer(name string, location uint32, components int32, componentType gpu.DataKind, stride int32, offset uintptr, integer bool) {
	b.record(name, location, components, componentType, stride, offset)
	if b.vertexArray == 0 || b.arrayBuffer == 0 || components < 1 || components > 4 {
		b.raise(gpu.InvalidOperation)
		return
	}
	b.AttribPointers = append(b.AttribPointers, AttribPointer{
		Buffer:        b.arrayBuffer,
		VertexArray:   b.vertexArray,
		Location:      location,
		Components:    components,
		ComponentType: componentType,
		Stride:        stride,
		Offset:        offset,
		Integer:       integer,
	})
}

func (b *Backend) VertexAttribPointer(location uint32, components int32, componentType gpu.DataKind, stride int32, offset uintptr) {
	b.attribPointer("VertexAttribPointer", location, components, componentType, stride, offset, false)
}

func (b *Backend) VertexAttribIPointer(location uint32, components int32, componentType gpu.DataKind, stride int32, offset uintptr) {
	b.attribPointer("VertexAttribIPointer", location, components, componentType, stride, offset, true)
}

func (b *Backend) EnableVertexAttribArray(location uint32) {
	b.record("EnableVertexAttribArray", location)
	arr, ok := b.vertexArrays[b.vertexArray]
	if !ok {
		b.raise(gpu.InvalidOperation)
		return
	}
	arr[location] = true
}

// AttribEnabled reports whether a location is enabled on a vertex array.
func (b *Backend) AttribEnabled(vao, location uint32) bool {
	return b.vertexArrays[vao][location]
}

func (b *Backend) CreateRenderbuffer(format uint32, width, height int32) uint32 {
	b.record("CreateRenderbuffer", format, width, height)
	if width <= 0 || height <= 0 {
		b.raise(gpu.InvalidValue)
		return 0
	}
	h := b.handle()
	b.renderbufs[h] = true
	return h
}

func (b *Backend) DeleteRenderbuffer(rb uint32) {
	b.record("DeleteRenderbuffer", rb)
	delete(b.renderbufs, rb)
}

func (b *Backend) CreateFramebuffer() uint32 {
	b.record("CreateFramebuffer")
	h := b.handle()
	b.framebuffers[h] = &framebufferObject{attachments: make(map[uint32]uint32)}
	return h
}

func (b *Backend) FramebufferRenderbuffer(fb, attachment, rb uint32) {
	b.record("FramebufferRenderbuffer", fb, attachment, rb)
	f, ok := b.framebuffers[fb]
	if !ok || !b.renderbufs[rb] {
		b.raise(gpu.InvalidOperation)
		return
	}
	f.attachments[attachment] = rb
}

func (b *Backend) CheckFramebufferStatus(fb uint32) uint32 {
	b.record("CheckFramebufferStatus", fb)
	if b.FramebufferStatus != 0 {
		return b.FramebufferStatus
	}
	f, ok := b.framebuffers[fb]
	if !ok {
		return gpu.FramebufferUndefined
	}
	if f.attachments[gpu.ColorAttachment0] == 0 {
		return gpu.FramebufferIncompleteMissingAttachment
	}
	return gpu.FramebufferComplete
}

func (b *Backend) BindFramebuffer(fb uint32) {
	b.record("BindFramebuffer", fb)
	if _, ok := b.framebuffers[fb]; !ok && fb != 0 {
		b.raise(gpu.InvalidOperation)
		return
	}
	b.framebuffer = fb
}

func (b *Backend) DefaultFramebuffer() uint32 {
	return 0
}

func (b *Backend) DeleteFramebuffer(fb uint32) {
	b.record("DeleteFramebuffer", fb)
	delete(b.framebuffers, fb)
	if b.framebuffer == fb {
		b.framebuffer = 0
	}
}

func (b *Backend) Viewport(x, y, width, height int32) {
	b.record("Viewport", x, y, width, height)
	b.viewport = [4]int32{x, y, width, height}
}

func (b *Backend) ClearColor(r, g, bl, a float32) {
	b.record("ClearColor", r, g, bl, a)
	b.clearColor = [4]float32{r, g, bl, a}
}

func (b *Backend) Clear(mask uint32) {
	b.record("Clear", mask)
}

func (b *Backend) Enable(capability uint32) {
	b.record("Enable", capability)
	b.enabled[capability] = true
}

func (b *Backend) Disable(capability uint32) {
	b.record("Disable", capability)
	b.enabled[capability] = false
}

func (b *Backend) DrawArrays(mode uint32, first, count int32) {
	b.record("DrawArrays", mode, first, count)
	if b.program == 0 || b.vertexArray == 0 {
		b.raise(gpu.InvalidOperation)
		return
	}
	b.Draws = append(b.Draws, Draw{
		Framebuffer: b.framebuffer,
		Program:     b.program,
		VertexArray: b.vertexArray,
		Mode:        mode,
		First:       first,
		Count:       count,
	})
}

// ReadPixelsRGB fills dst with the 1-based index of this read, so consecutive reads
// are distinguishable byte-for-byte.
func (b *Backend) ReadPixelsRGB(x, y, width, height int32, dst []byte) {
	b.record("ReadPixelsRGB", x, y, width, height)
	n := int(width) * int(height) * 3
	if width < 0 || height < 0 || len(dst) < n {
		b.raise(gpu.InvalidValue)
		return
	}
	b.Reads++
	fill := byte(b.Reads)
	for i := 0; i < n; i++ {
		dst[i] = fill
	}
}

var declPattern = regexp.MustCompile(
	`(?m)^\s*(?:layout\s*\([^)]*\)\s*)?(uniform|in)\s+(?:(?:highp|mediump|lowp|flat|smooth|noperspective)\s+)*(\w+)\s+(\w+)\s*(?:\[\s*(\d+)\s*\])?\s*;`,
)

// scan returns the top-level declarations with the given qualifier whose type is a supported kind.
func scan(source, qualifier string) []gpu.ActiveResource {
	var out []gpu.ActiveResource
	for _, m := range declPattern.FindAllStringSubmatch(source, -1) {
		if m[1] != qualifier {
			continue
		}
		kind, ok := gpu.KindFromGLSL(m[2])
		if !ok {
			continue
		}
		size := int32(1)
		if n, err := strconv.Atoi(m[4]); err == nil {
			size = int32(n)
		}
		out = append(out, gpu.ActiveResource{Name: m[3], Kind: kind, Size: size})
	}
	return out
}

func indexOf(resources []gpu.ActiveResource, name string) int32 {
	for i, r := range resources {
		if r.Name == name {
			return int32(i)
		}
	}
	return -1
}
