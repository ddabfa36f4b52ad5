package gpu

// ShaderStage identifies a programmable pipeline stage.
type ShaderStage uint32

const (
	// StageVertex is GL_VERTEX_SHADER.
	StageVertex ShaderStage = 0x8B31

	// StageFragment is GL_FRAGMENT_SHADER.
	StageFragment ShaderStage = 0x8B30
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	}
	return EnumString(uint32(s))
}

// OpenGL enums used by the core. Only the values the render server needs are listed.
const (
	NoError                     uint32 = 0x0000
	InvalidEnum                 uint32 = 0x0500
	InvalidValue                uint32 = 0x0501
	InvalidOperation            uint32 = 0x0502
	OutOfMemory                 uint32 = 0x0505
	InvalidFramebufferOperation uint32 = 0x0506

	Triangles uint32 = 0x0004

	DepthBufferBit uint32 = 0x00000100
	ColorBufferBit uint32 = 0x00004000

	CullFace  uint32 = 0x0B44
	DepthTest uint32 = 0x0B71
	Blend     uint32 = 0x0BE2

	RGB8             uint32 = 0x8051
	DepthComponent24 uint32 = 0x81A6

	ColorAttachment0 uint32 = 0x8CE0
	DepthAttachment  uint32 = 0x8D00

	FramebufferComplete                    uint32 = 0x8CD5
	FramebufferUndefined                   uint32 = 0x8219
	FramebufferIncompleteAttachment        uint32 = 0x8CD6
	FramebufferIncompleteMissingAttachment uint32 = 0x8CD7
	FramebufferIncompleteDrawBuffer        uint32 = 0x8CDB
	FramebufferIncompleteReadBuffer        uint32 = 0x8CDC
	FramebufferUnsupported                 uint32 = 0x8CDD
	FramebufferIncompleteMultisample       uint32 = 0x8D56
	FramebufferIncompleteLayerTargets      uint32 = 0x8DA8
)

// ActiveResource is one active uniform or attribute as reported by program introspection.
type ActiveResource struct {
	// Name is the GLSL identifier. Array uniforms are reported with a "[0]" suffix by some drivers.
	Name string

	// Kind is the data kind reported by the driver.
	Kind DataKind

	// Size is the array length, 1 for non-arrays.
	Size int32
}

// Backend is the graphics API surface used by the render server. The production implementation
// wraps OpenGL 4.1 core (see package glcore); tests use an in-memory fake (see package gputest).
//
// A Backend is bound to one GL context and must only be called from the thread owning it.
type Backend interface {
	// GetError returns and clears the oldest recorded error flag (NoError if none).
	GetError() uint32

	// CreateShader creates an empty shader object of the given stage. Returns 0 on failure.
	CreateShader(stage ShaderStage) uint32

	// CompileShader sets the source of a shader object and compiles it.
	//
	// Returns:
	//   - bool: the compile status
	//   - string: the driver's info log (may be empty on success)
	CompileShader(shader uint32, source string) (bool, string)

	// DeleteShader releases a shader object.
	DeleteShader(shader uint32)

	// CreateProgram creates an empty program object. Returns 0 on failure.
	CreateProgram() uint32

	// AttachShader attaches a compiled shader to a program.
	AttachShader(program, shader uint32)

	// LinkProgram links a program.
	//
	// Returns:
	//   - bool: the link status
	//   - string: the driver's info log (may be empty on success)
	LinkProgram(program uint32) (bool, string)

	// DeleteProgram releases a program object.
	DeleteProgram(program uint32)

	// UseProgram installs a program as part of the current rendering state.
	UseProgram(program uint32)

	// UniformLocation returns the location of a named uniform, or -1 if it is not active.
	UniformLocation(program uint32, name string) int32

	// AttribLocation returns the location of a named attribute, or -1 if it is not active.
	AttribLocation(program uint32, name string) int32

	// ActiveUniforms lists the active uniforms of a linked program.
	ActiveUniforms(program uint32) []ActiveResource

	// ActiveAttributes lists the active attributes of a linked program.
	ActiveAttributes(program uint32) []ActiveResource

	// UniformFloats uploads a float scalar, vector or matrix uniform of the given kind
	// to the current program. Matrices are column-major and never transposed.
	UniformFloats(location int32, kind DataKind, values []float32)

	// UniformInts uploads an int scalar or vector uniform of the given kind.
	UniformInts(location int32, kind DataKind, values []int32)

	// UniformUints uploads an unsigned int scalar or vector uniform of the given kind.
	UniformUints(location int32, kind DataKind, values []uint32)

	// CreateBuffer creates a buffer object.
	CreateBuffer() uint32

	// BindArrayBuffer binds a buffer to GL_ARRAY_BUFFER.
	BindArrayBuffer(buffer uint32)

	// BufferData replaces the whole contents of a buffer (GL_STATIC_DRAW).
	BufferData(buffer uint32, data []byte)

	// DeleteBuffer releases a buffer object.
	DeleteBuffer(buffer uint32)

	// CreateVertexArray creates a vertex array object.
	CreateVertexArray() uint32

	// BindVertexArray binds a vertex array object (0 unbinds).
	BindVertexArray(vao uint32)

	// DeleteVertexArray releases a vertex array object.
	DeleteVertexArray(vao uint32)

	// VertexAttribPointer describes a float attribute sourced from the bound array buffer.
	VertexAttribPointer(location uint32, components int32, componentType DataKind, stride int32, offset uintptr)

	// VertexAttribIPointer describes an integer attribute sourced from the bound array buffer.
	VertexAttribIPointer(location uint32, components int32, componentType DataKind, stride int32, offset uintptr)

	// EnableVertexAttribArray enables an attribute array of the bound vertex array.
	EnableVertexAttribArray(location uint32)

	// CreateRenderbuffer creates a renderbuffer with storage of the given internal format and size.
	CreateRenderbuffer(format uint32, width, height int32) uint32

	// DeleteRenderbuffer releases a renderbuffer.
	DeleteRenderbuffer(rb uint32)

	// CreateFramebuffer creates a framebuffer object.
	CreateFramebuffer() uint32

	// FramebufferRenderbuffer attaches a renderbuffer to a framebuffer attachment point.
	FramebufferRenderbuffer(fb, attachment, rb uint32)

	// CheckFramebufferStatus returns the completeness status of a framebuffer.
	CheckFramebufferStatus(fb uint32) uint32

	// BindFramebuffer binds a framebuffer for drawing and reading.
	BindFramebuffer(fb uint32)

	// DefaultFramebuffer returns the framebuffer bound at context creation.
	DefaultFramebuffer() uint32

	// DeleteFramebuffer releases a framebuffer object.
	DeleteFramebuffer(fb uint32)

	// Viewport sets the viewport rectangle.
	Viewport(x, y, width, height int32)

	// ClearColor sets the clear colour.
	ClearColor(r, g, b, a float32)

	// Clear clears the buffers selected by mask.
	Clear(mask uint32)

	// Enable enables a server-side capability.
	Enable(capability uint32)

	// Disable disables a server-side capability.
	Disable(capability uint32)

	// DrawArrays renders primitives from the bound vertex array.
	DrawArrays(mode uint32, first, count int32)

	// ReadPixelsRGB reads a block of RGB8 pixels from the bound read framebuffer into dst,
	// rows bottom-up, tightly packed. len(dst) must be at least width*height*3.
	ReadPixelsRGB(x, y, width, height int32, dst []byte)
}
