package common

// Key codes delivered to window key callbacks. They match GLFW's values.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyEsc = 256 // closes the window
)
