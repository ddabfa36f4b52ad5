package camera

// CameraBuilderOption configures a camera in NewCamera.
type CameraBuilderOption func(*cameraImpl)

// WithFov sets the vertical field of view of the on-screen projection. Skybox faces ignore it
// and always use 90 degrees.
//
// Parameters:
//   - fov: angle in radians
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithAspect sets the starting width/height ratio. The engine replaces it every frame from the
// surface size.
//
// Parameters:
//   - aspect: width divided by height
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithNear moves the near clip plane.
//
// Parameters:
//   - near: distance from the eye, greater than zero
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithNear(near float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
	}
}

// WithFar moves the far clip plane.
//
// Parameters:
//   - far: distance from the eye, greater than near
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithFar(far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.far = far
	}
}

// WithController makes the camera follow a controller's view. The matrices are computed from
// it once all options have been applied.
//
// Parameters:
//   - ctrl: the controller, usually NewOrbitController
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}
