// Package light holds the point lights of the solid program. Each light sits at a fixed offset
// from an anchor, which the render server sets to the marker cube.
package light

import "github.com/go-gl/mathgl/mgl32"

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	offset    mgl32.Vec3
	color     mgl32.Vec3
	intensity float32
	enabled   bool
}

// Light is a point light positioned relative to an anchor.
type Light interface {
	// Offset returns the displacement of the light from its anchor.
	//
	// Returns:
	//   - mgl32.Vec3: the offset
	Offset() mgl32.Vec3

	// Position returns the world-space position of the light for the given anchor.
	//
	// Parameters:
	//   - anchor: the point the light follows
	//
	// Returns:
	//   - mgl32.Vec3: anchor + offset
	Position(anchor mgl32.Vec3) mgl32.Vec3

	// Color returns the RGB colour of the light.
	//
	// Returns:
	//   - mgl32.Vec3: colour as (r, g, b)
	Color() mgl32.Vec3

	// Intensity returns the scalar multiplier applied to the colour.
	//
	// Returns:
	//   - float32: the intensity
	Intensity() float32

	// Enabled reports whether the light contributes to shading.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// Radiance returns the colour uploaded to the shader: colour times intensity, or black when disabled.
	//
	// Returns:
	//   - mgl32.Vec3: the effective colour
	Radiance() mgl32.Vec3

	SetOffset(offset mgl32.Vec3)
	SetColor(color mgl32.Vec3)
	SetIntensity(intensity float32)
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewPointLight creates an enabled white light at the anchor with intensity 1.
//
// Parameters:
//   - options: functional options to configure the light
//
// Returns:
//   - Light: the light
func NewPointLight(options ...LightBuilderOption) Light {
	l := &lightImpl{
		color:     mgl32.Vec3{1, 1, 1},
		intensity: 1,
		enabled:   true,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *lightImpl) Offset() mgl32.Vec3 {
	return l.offset
}

func (l *lightImpl) Position(anchor mgl32.Vec3) mgl32.Vec3 {
	return anchor.Add(l.offset)
}

func (l *lightImpl) Color() mgl32.Vec3 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) Radiance() mgl32.Vec3 {
	if !l.enabled {
		return mgl32.Vec3{}
	}
	return l.color.Mul(l.intensity)
}

func (l *lightImpl) SetOffset(offset mgl32.Vec3) {
	l.offset = offset
}

func (l *lightImpl) SetColor(color mgl32.Vec3) {
	l.color = color
}

func (l *lightImpl) SetIntensity(intensity float32) {
	if intensity < 0 {
		intensity = 0
	}
	l.intensity = intensity
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

// Rig is the lighting of the solid program: an ambient term and two point lights.
type Rig struct {
	Ambient mgl32.Vec3
	Key     Light
	Fill    Light
}

// DefaultRig returns the render server's lighting: a warm key light just behind the anchor
// and a cool fill light below and to the side.
//
// Returns:
//   - Rig: the default rig
func DefaultRig() Rig {
	return Rig{
		Ambient: mgl32.Vec3{0.2, 0.2, 0.2},
		Key: NewPointLight(
			WithOffset(0, 0, -1),
			WithColor(0.9, 0.9, 0.3),
		),
		Fill: NewPointLight(
			WithOffset(5, -5, -5),
			WithColor(0.4, 0.4, 0.8),
		),
	}
}
