package window

import (
	"fmt"
)

// Window provides the on-screen surface and its OpenGL context. Escape closes it.
// Every method must be called from the goroutine that created the window, which must be
// locked to its OS thread.
type Window interface {
	// ShouldClose reports whether the user asked to close the window.
	//
	// Returns:
	//   - bool: true once a close was requested
	ShouldClose() bool

	// SwapBuffers presents the back buffer.
	SwapBuffers()

	// PollEvents processes pending input events without blocking.
	PollEvents()

	// Time returns the seconds elapsed since the window system was initialised.
	//
	// Returns:
	//   - float64: elapsed seconds
	Time() float64

	// Close destroys the window and terminates the window system.
	//
	// Returns:
	//   - error: error if the window was never created
	Close() error

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration and GLFW state.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// width is the current framebuffer width in pixels.
	width int

	// height is the current framebuffer height in pixels.
	height int

	// swapInterval is the number of screen refreshes to wait for between swaps.
	swapInterval int

	// resizable allows the user to resize the window.
	resizable bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow *glfwWindow
}

var _ Window = &engineWindow{}

// NewWindow creates the window and makes its OpenGL 4.1 core context current on the calling thread.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the window
//   - error: error if the window system or the context could not be initialised
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:        "Universe server",
		width:        1600,
		height:       1200,
		swapInterval: 1,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

func (w *engineWindow) ShouldClose() bool {
	return platformShouldClose(w)
}

func (w *engineWindow) SwapBuffers() {
	platformSwapBuffers(w)
}

func (w *engineWindow) PollEvents() {
	platformPollEvents()
}

func (w *engineWindow) Time() float64 {
	return platformTime()
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
