package camera

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraController owns the positional state of a camera.
// The camera asks it for a view matrix once per frame.
type CameraController interface {
	// Update advances the controller to time t.
	//
	// Parameters:
	//   - t: seconds since the window was created
	Update(t float32)

	// View returns the world-to-eye matrix for the current state.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	View() mgl32.Mat4

	// Offset returns the eye-space translation applied after the orbit rotation.
	//
	// Returns:
	//   - mgl32.Vec3: the translation
	Offset() mgl32.Vec3

	// SetOffset sets the eye-space translation.
	//
	// Parameters:
	//   - offset: the translation
	SetOffset(offset mgl32.Vec3)

	// Azimuth returns the current rotation about the world Y axis in radians.
	//
	// Returns:
	//   - float32: azimuth in radians
	Azimuth() float32

	// OrbitSpeed returns the rotation rate in radians per second.
	//
	// Returns:
	//   - float32: radians per second
	OrbitSpeed() float32

	// SetOrbitSpeed sets the rotation rate.
	//
	// Parameters:
	//   - speed: radians per second, zero stops the orbit
	SetOrbitSpeed(speed float32)
}

// cameraControllerImpl spins the world about Y at a constant rate and views it from a fixed offset.
type cameraControllerImpl struct {
	mu *sync.Mutex

	offset     mgl32.Vec3
	azimuth    float32
	start      float32
	orbitSpeed float32
}

var _ CameraController = &cameraControllerImpl{}

// NewOrbitController creates a controller looking at the origin from 20 units away and 5 units up,
// turning at 0.2 radians per second.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewOrbitController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:         &sync.Mutex{},
		offset:     mgl32.Vec3{0, -5, -20},
		orbitSpeed: 0.2,
	}
	for _, option := range options {
		option(cc)
	}
	cc.azimuth = cc.start
	return cc
}

func (cc *cameraControllerImpl) Update(t float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth = cc.start + cc.orbitSpeed*t
}

func (cc *cameraControllerImpl) View() mgl32.Mat4 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return mgl32.Translate3D(cc.offset[0], cc.offset[1], cc.offset[2]).Mul4(mgl32.HomogRotate3DY(cc.azimuth))
}

func (cc *cameraControllerImpl) Offset() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.offset
}

func (cc *cameraControllerImpl) SetOffset(offset mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.offset = offset
}

func (cc *cameraControllerImpl) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *cameraControllerImpl) OrbitSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.orbitSpeed
}

func (cc *cameraControllerImpl) SetOrbitSpeed(speed float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.orbitSpeed = speed
}
