package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithOffset sets the eye-space translation applied after the orbit rotation.
//
// Parameters:
//   - offset: the translation; {0, -5, -20} puts the eye 20 units back and 5 units up
//
// Returns:
//   - CameraControllerOption: functional option to set the offset
func WithOffset(offset mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.offset = offset
	}
}

// WithAzimuth sets the rotation about Y at time zero.
//
// Parameters:
//   - azimuth: angle in radians
//
// Returns:
//   - CameraControllerOption: functional option to set the starting azimuth
func WithAzimuth(azimuth float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.start = azimuth
	}
}

// WithOrbitSpeed sets the rotation rate.
//
// Parameters:
//   - speed: radians per second
//
// Returns:
//   - CameraControllerOption: functional option to set the orbit speed
func WithOrbitSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.orbitSpeed = speed
	}
}
