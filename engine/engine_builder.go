package engine

import (
	"time"

	"github.com/Carmen-Shannon/universe/engine/camera"
	"github.com/Carmen-Shannon/universe/engine/light"
	"github.com/Carmen-Shannon/universe/engine/profiler"
	"github.com/Carmen-Shannon/universe/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler.
//
// Parameters:
//   - p: the profiler ticked once per frame when profiling is enabled
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithSkyboxSize sets the edge length in pixels of one captured cubemap face. Defaults to 512.
//
// Parameters:
//   - size: the face size, values below 1 keep the default
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSkyboxSize(size int) EngineBuilderOption {
	return func(e *engine) {
		if size > 0 {
			e.skyboxSize = size
		}
	}
}

// WithOutputDir sets the directory skybox paths are resolved against. Defaults to the working directory.
//
// Parameters:
//   - dir: the output directory
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithOutputDir(dir string) EngineBuilderOption {
	return func(e *engine) {
		e.outputDir = dir
	}
}

// WithDefaultName sets the file name used by skybox jobs that carry no path.
//
// Parameters:
//   - name: the relative file name, e.g. "skybox.qoi"
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDefaultName(name string) EngineBuilderOption {
	return func(e *engine) {
		e.defaultName = name
	}
}

// WithCubemapWriter replaces the function storing captured cubemaps. Defaults to imageio.WriteCubemap.
//
// Parameters:
//   - w: the writer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCubemapWriter(w CubemapWriter) EngineBuilderOption {
	return func(e *engine) {
		e.writeCubemap = w
	}
}

// WithScene sets the scene to render instead of the default seeded formation.
// The engine closes it on Close.
//
// Parameters:
//   - s: the scene
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithCamera sets the on-screen camera instead of the default orbiting one.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithOverlay draws the vertex-coloured triangle over the on-screen pass.
//
// Parameters:
//   - enabled: true to draw the overlay
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithOverlay(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.overlay = enabled
	}
}

// WithClearColor sets the background colour of both passes.
//
// Parameters:
//   - c: RGBA in [0, 1]
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithClearColor(c mgl32.Vec4) EngineBuilderOption {
	return func(e *engine) {
		e.clearColor = c
	}
}

// WithLights replaces the lighting of the solid program. A nil key or fill light keeps the default one.
//
// Parameters:
//   - rig: the ambient colour and the two point lights
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLights(rig light.Rig) EngineBuilderOption {
	return func(e *engine) {
		e.lights = rig
	}
}
