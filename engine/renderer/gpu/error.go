package gpu

import "fmt"

var enumNames = map[uint32]string{
	NoError:                     "GL_NO_ERROR",
	InvalidEnum:                 "GL_INVALID_ENUM",
	InvalidValue:                "GL_INVALID_VALUE",
	InvalidOperation:            "GL_INVALID_OPERATION",
	OutOfMemory:                 "GL_OUT_OF_MEMORY",
	InvalidFramebufferOperation: "GL_INVALID_FRAMEBUFFER_OPERATION",

	FramebufferComplete:                    "GL_FRAMEBUFFER_COMPLETE",
	FramebufferUndefined:                   "GL_FRAMEBUFFER_UNDEFINED",
	FramebufferIncompleteAttachment:        "GL_FRAMEBUFFER_INCOMPLETE_ATTACHMENT",
	FramebufferIncompleteMissingAttachment: "GL_FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT",
	FramebufferIncompleteDrawBuffer:        "GL_FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER",
	FramebufferIncompleteReadBuffer:        "GL_FRAMEBUFFER_INCOMPLETE_READ_BUFFER",
	FramebufferUnsupported:                 "GL_FRAMEBUFFER_UNSUPPORTED",
	FramebufferIncompleteMultisample:       "GL_FRAMEBUFFER_INCOMPLETE_MULTISAMPLE",
	FramebufferIncompleteLayerTargets:      "GL_FRAMEBUFFER_INCOMPLETE_LAYER_TARGETS",

	uint32(KindFloat): "GL_FLOAT",
	uint32(KindVec2):  "GL_FLOAT_VEC2",
	uint32(KindVec3):  "GL_FLOAT_VEC3",
	uint32(KindVec4):  "GL_FLOAT_VEC4",
	uint32(KindInt):   "GL_INT",
	uint32(KindIVec2): "GL_INT_VEC2",
	uint32(KindIVec3): "GL_INT_VEC3",
	uint32(KindIVec4): "GL_INT_VEC4",
	uint32(KindUint):  "GL_UNSIGNED_INT",
	uint32(KindUVec2): "GL_UNSIGNED_INT_VEC2",
	uint32(KindUVec3): "GL_UNSIGNED_INT_VEC3",
	uint32(KindUVec4): "GL_UNSIGNED_INT_VEC4",
	0x140A:            "GL_DOUBLE",
	0x8FFC:            "GL_DOUBLE_VEC2",
	0x8FFD:            "GL_DOUBLE_VEC3",
	0x8FFE:            "GL_DOUBLE_VEC4",
}

// EnumString returns the symbolic name of an OpenGL enum value, or GL_ENUM_0x<hex> if unknown.
func EnumString(value uint32) string {
	if name, ok := enumNames[value]; ok {
		return name
	}
	return fmt.Sprintf("GL_ENUM_0x%x", value)
}

// Error is a graphics API error reported by the backend after a call.
type Error struct {
	// Call describes the failing call, e.g. "glDrawArrays".
	Call string

	// Code is the GL error code (or framebuffer status for completeness checks).
	Code uint32
}

func (e *Error) Error() string {
	return fmt.Sprintf("error during %s (%s)", e.Call, EnumString(e.Code))
}

// Check returns an *Error if the backend has a pending error flag. Any further pending
// flags are drained so the next check starts clean.
//
// Parameters:
//   - b: the backend to query
//   - call: description of the call being checked
//
// Returns:
//   - error: nil if no error was pending
func Check(b Backend, call string) error {
	code := b.GetError()
	if code == NoError {
		return nil
	}
	drain(b)
	return &Error{Call: call, Code: code}
}

// Guard clears any stale error flags, runs fn, and checks for errors raised by it.
//
// Parameters:
//   - b: the backend fn calls into
//   - call: description used in the returned error
//   - fn: the calls to guard
//
// Returns:
//   - error: an *Error if fn raised a GL error
func Guard(b Backend, call string, fn func()) error {
	drain(b)
	fn()
	return Check(b, call)
}

// maxPendingErrors bounds drain; a lost context can report errors forever.
const maxPendingErrors = 16

func drain(b Backend) {
	for i := 0; i < maxPendingErrors; i++ {
		if b.GetError() == NoError {
			return
		}
	}
}
