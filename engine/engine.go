// Package engine runs the render server's frame loop: it draws the cube scene on screen and
// services at most one queued job per frame, capturing skybox cubemaps off screen.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/Carmen-Shannon/universe/common"
	"github.com/Carmen-Shannon/universe/engine/camera"
	"github.com/Carmen-Shannon/universe/engine/imageio"
	"github.com/Carmen-Shannon/universe/engine/light"
	"github.com/Carmen-Shannon/universe/engine/profiler"
	"github.com/Carmen-Shannon/universe/engine/renderer/gpu"
	"github.com/Carmen-Shannon/universe/engine/renderer/program"
	"github.com/Carmen-Shannon/universe/engine/renderer/vertex"
	"github.com/Carmen-Shannon/universe/engine/scene"
	"github.com/Carmen-Shannon/universe/engine/task"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNotInitialized is returned by Frame before Init succeeded.
	ErrNotInitialized = errors.New("engine: not initialized")

	// ErrAlreadyInitialized is returned by a second Init.
	ErrAlreadyInitialized = errors.New("engine: already initialized")

	// ErrStopped completes jobs still queued when the engine closes.
	ErrStopped = errors.New("engine: stopped before the job ran")
)

// Surface is the on-screen side of the render loop. window.Window satisfies it.
type Surface interface {
	ShouldClose() bool
	SwapBuffers()
	PollEvents()
	Time() float64
	Width() int
	Height() int
}

// CubemapWriter stores a captured cubemap: 6*faceSize*faceSize*3 RGB bytes, faces in capture order.
type CubemapWriter func(path string, pix []byte, faceSize int) error

// Engine owns the GL resources of the render server and drives its frame loop. Every method
// except Frames must be called on the thread owning the GL context.
type Engine interface {
	task.Visitor

	// Init compiles the shader programs, uploads the geometry, creates the capture framebuffer
	// and sets the fixed render state.
	//
	// Returns:
	//   - error: a compile, link, slot or *gpu.Error; an incomplete capture framebuffer is a *gpu.Error
	//     carrying the framebuffer status
	Init() error

	// Frame renders one frame: the on-screen pass, then at most one queued job, then swap and poll.
	//
	// Returns:
	//   - error: a *gpu.Error raised while rendering; a job that fails for other reasons only
	//     completes with its error
	Frame() error

	// Run calls Init if needed and then Frame until the surface should close or the running
	// flag is cleared.
	//
	// Returns:
	//   - error: the first error returned by Init or Frame
	Run() error

	// Scene returns the rendered scene.
	//
	// Returns:
	//   - scene.Scene: the scene
	Scene() scene.Scene

	// Camera returns the on-screen camera.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Shaders returns the program declarations.
	//
	// Returns:
	//   - *Shaders: the programs and their slots
	Shaders() *Shaders

	// Frames returns the number of completed frames.
	//
	// Returns:
	//   - uint64: the frame count
	Frames() uint64

	// Close completes every still queued job with ErrStopped and releases the GL resources.
	// Safe to call multiple times.
	Close()
}

// engine implements the Engine interface.
type engine struct {
	b       gpu.Backend
	surface Surface
	queue   *task.Queue
	running *atomic.Bool

	shaders *Shaders
	solid   program.Program
	basic   program.Program

	scene  scene.Scene
	camera camera.Camera
	lights light.Rig

	profiler         *profiler.Profiler
	profilingEnabled bool
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	skyboxSize   int
	outputDir    string
	defaultName  string
	writeCubemap CubemapWriter

	overlay    bool
	clearColor mgl32.Vec4

	cubeArray     *vertex.VertexArray
	cubeBuffer    *vertex.Buffer[vertex.SolidVertex]
	overlayArray  *vertex.VertexArray
	overlayBuffer *vertex.Buffer[vertex.BasicVertex]

	defaultFramebuffer uint32
	captureFramebuffer uint32
	captureColor       uint32
	captureDepth       uint32
	pixels             []byte

	initialized bool
	frames      atomic.Uint64
	closeOnce   sync.Once
}

var _ Engine = &engine{}

// NewEngine creates an engine. Nothing touches the GPU until Init.
//
// Parameters:
//   - b: the backend bound to the current GL context
//   - surface: the window presenting the on-screen pass
//   - q: the job queue, filled by the service layer
//   - running: cleared by the service layer to stop Run
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(b gpu.Backend, surface Surface, q *task.Queue, running *atomic.Bool, options ...EngineBuilderOption) Engine {
	if b == nil || surface == nil || q == nil || running == nil {
		panic("engine: backend, surface, queue and running flag are required")
	}
	e := &engine{
		b:            b,
		surface:      surface,
		queue:        q,
		running:      running,
		shaders:      NewShaders(),
		skyboxSize:   512,
		outputDir:    ".",
		defaultName:  "skybox.qoi",
		writeCubemap: imageio.WriteCubemap,
		clearColor:   mgl32.Vec4{0.9, 0.9, 0.7, 0},
		lights:       light.DefaultRig(),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler()
	}
	if e.scene == nil {
		e.scene = scene.NewScene()
	}
	if e.camera == nil {
		e.camera = camera.NewCamera(camera.WithController(camera.NewOrbitController()))
	}
	defaults := light.DefaultRig()
	e.lights.Key = common.Coalesce(e.lights.Key, defaults.Key)
	e.lights.Fill = common.Coalesce(e.lights.Fill, defaults.Fill)
	return e
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Shaders() *Shaders {
	return e.shaders
}

func (e *engine) Frames() uint64 {
	return e.frames.Load()
}

// guard runs fn between gpu.Guard's error checks. An error returned by fn wins over the GL error.
func (e *engine) guard(call string, fn func() error) error {
	var inner error
	err := gpu.Guard(e.b, call, func() { inner = fn() })
	if inner != nil {
		return inner
	}
	return err
}

func (e *engine) Init() error {
	if e.initialized {
		return ErrAlreadyInitialized
	}
	if e.skyboxSize < 1 || e.skyboxSize > imageio.MaxFaceSize {
		return fmt.Errorf("skybox size %d: %w", e.skyboxSize, imageio.ErrFaceSize)
	}
	if err := e.shaders.Registry.Compile(e.b); err != nil {
		return fmt.Errorf("failed to compile shader programs: %w", err)
	}
	e.solid, _ = e.shaders.Registry.Program("solid")
	e.basic, _ = e.shaders.Registry.Program("basic")

	if err := e.initGeometry(); err != nil {
		return fmt.Errorf("failed to upload geometry: %w", err)
	}
	if err := e.initCapture(); err != nil {
		return fmt.Errorf("failed to create capture framebuffer: %w", err)
	}

	err := e.guard("render state", func() error {
		e.solid.Use(e.b)
		e.shaders.Solid.AmbientColor.Set(e.b, e.lights.Ambient)

		e.defaultFramebuffer = e.b.DefaultFramebuffer()
		c := e.clearColor
		e.b.ClearColor(c[0], c[1], c[2], c[3])
		e.b.Enable(gpu.CullFace)
		e.b.Enable(gpu.DepthTest)
		return nil
	})
	if err != nil {
		return err
	}

	e.initialized = true
	common.Logger().Info("engine initialized",
		"instances", e.scene.Count(),
		"skybox_size", e.skyboxSize,
		"output_dir", e.outputDir)
	return nil
}

func (e *engine) initGeometry() error {
	var err error
	sp, bp := e.shaders.Solid, e.shaders.Basic

	if e.cubeArray, err = vertex.NewVertexArray(e.b); err != nil {
		return err
	}
	if e.cubeBuffer, err = vertex.NewBuffer[vertex.SolidVertex](e.b); err != nil {
		return err
	}
	if err = e.cubeBuffer.Upload(vertex.CubeMesh()); err != nil {
		return err
	}
	if err = e.cubeArray.Bind(); err != nil {
		return err
	}
	err = e.cubeBuffer.Bind(func(ab *vertex.ArrayBuilder) error {
		if err := vertex.Enable(ab, sp.Position, unsafe.Offsetof(vertex.SolidVertex{}.Position)); err != nil {
			return err
		}
		return vertex.Enable(ab, sp.Normal, unsafe.Offsetof(vertex.SolidVertex{}.Normal))
	})
	if err != nil {
		return err
	}

	if e.overlayArray, err = vertex.NewVertexArray(e.b); err != nil {
		return err
	}
	if e.overlayBuffer, err = vertex.NewBuffer[vertex.BasicVertex](e.b); err != nil {
		return err
	}
	if err = e.overlayBuffer.Upload(vertex.TriangleMesh()); err != nil {
		return err
	}
	if err = e.overlayArray.Bind(); err != nil {
		return err
	}
	return e.overlayBuffer.Bind(func(ab *vertex.ArrayBuilder) error {
		if err := vertex.EnableComponents[mgl32.Vec4, mgl32.Vec2](ab, bp.Position, unsafe.Offsetof(vertex.BasicVertex{}.Position)); err != nil {
			return err
		}
		return vertex.EnableComponents[mgl32.Vec4, mgl32.Vec3](ab, bp.Color, unsafe.Offsetof(vertex.BasicVertex{}.Color))
	})
}

func (e *engine) initCapture() error {
	size := int32(e.skyboxSize)
	var status uint32
	err := gpu.Guard(e.b, "capture framebuffer", func() {
		e.captureFramebuffer = e.b.CreateFramebuffer()
		e.captureColor = e.b.CreateRenderbuffer(gpu.RGB8, size, size)
		e.captureDepth = e.b.CreateRenderbuffer(gpu.DepthComponent24, size, size)
		e.b.FramebufferRenderbuffer(e.captureFramebuffer, gpu.ColorAttachment0, e.captureColor)
		e.b.FramebufferRenderbuffer(e.captureFramebuffer, gpu.DepthAttachment, e.captureDepth)
		status = e.b.CheckFramebufferStatus(e.captureFramebuffer)
	})
	if err != nil {
		return err
	}
	if status != gpu.FramebufferComplete {
		common.Logger().Warn("capture framebuffer incomplete", "status", gpu.EnumString(status))
		return &gpu.Error{Call: "glCheckFramebufferStatus", Code: status}
	}
	e.pixels = make([]byte, imageio.Faces*e.skyboxSize*e.skyboxSize*3)
	return nil
}

func (e *engine) Frame() error {
	if !e.initialized {
		return ErrNotInitialized
	}

	t := float32(e.surface.Time())
	if err := e.drawScreen(t); err != nil {
		return err
	}

	if job, ok := e.queue.TryPop(); ok {
		err := task.Process(job, e)
		if e.profilingEnabled {
			e.profiler.JobDone()
		}
		if err != nil {
			common.Logger().Error("job failed", "id", job.ID(), "kind", job.Kind(), "error", err)
			var glErr *gpu.Error
			if errors.As(err, &glErr) {
				return fmt.Errorf("job %d: %w", job.ID(), err)
			}
		}
	}

	e.surface.SwapBuffers()
	e.surface.PollEvents()
	e.frames.Add(1)
	return nil
}

// drawScreen updates the camera and the scene for time t and draws them into the default framebuffer.
func (e *engine) drawScreen(t float32) error {
	w, h := e.surface.Width(), e.surface.Height()
	if h > 0 {
		e.camera.SetAspect(float32(w) / float32(h))
	}
	e.camera.Update(t)
	e.scene.Update(t)

	return e.guard("screen pass", func() error {
		e.b.BindFramebuffer(e.defaultFramebuffer)
		e.b.Viewport(0, 0, int32(w), int32(h))
		e.b.Clear(gpu.ColorBufferBit | gpu.DepthBufferBit)
		if err := e.drawCubes(e.camera.ViewProjectionMatrix()); err != nil {
			return err
		}
		if e.overlay {
			e.basic.Use(e.b)
			if err := e.overlayArray.Bind(); err != nil {
				return err
			}
			e.b.DrawArrays(gpu.Triangles, 0, e.overlayBuffer.Count())
		}
		return nil
	})
}

// drawCubes draws every instance with the solid program into the bound framebuffer.
func (e *engine) drawCubes(projection mgl32.Mat4) error {
	sp := e.shaders.Solid
	e.solid.Use(e.b)
	if err := e.cubeArray.Bind(); err != nil {
		return err
	}
	sp.Projection.Set(e.b, projection)
	// Both lights follow the marker cube.
	marker := e.scene.Marker()
	sp.Light0Position.Set(e.b, e.lights.Key.Position(marker))
	sp.Light0Color.Set(e.b, e.lights.Key.Radiance())
	sp.Light1Position.Set(e.b, e.lights.Fill.Position(marker))
	sp.Light1Color.Set(e.b, e.lights.Fill.Radiance())

	count := e.cubeBuffer.Count()
	return e.scene.Draw(func(c *scene.CubeInstance) error {
		sp.Model.Set(e.b, c.Model)
		sp.NormalModel.Set(e.b, c.NormalModel)
		sp.Color.Set(e.b, c.Color.Vec4(1))
		e.b.DrawArrays(gpu.Triangles, 0, count)
		return nil
	})
}

// VisitSkybox captures the scene around the job's position into a cubemap and writes it out.
func (e *engine) VisitSkybox(job *task.SkyboxJob) error {
	name := job.Path()
	if name == "" {
		name = e.defaultName
	}
	path, err := imageio.ResolvePath(e.outputDir, name)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := e.capture(job.Position()); err != nil {
		return err
	}
	if err := e.writeCubemap(path, e.pixels, e.skyboxSize); err != nil {
		return fmt.Errorf("failed to write skybox: %w", err)
	}

	common.Logger().Info("skybox captured",
		"id", job.ID(),
		"position", job.Position(),
		"path", path,
		"duration", time.Since(start))
	return nil
}

// capture moves the marker to position and renders the six cube faces around it into the
// capture framebuffer, reading each face back into its slice of e.pixels. Instances keep the
// matrices of the current frame.
func (e *engine) capture(position mgl32.Vec3) error {
	e.scene.SetMarker(position)
	size := int32(e.skyboxSize)
	face := e.skyboxSize * e.skyboxSize * 3
	near, far := e.camera.Near(), e.camera.Far()

	return e.guard("skybox capture", func() error {
		e.b.BindFramebuffer(e.captureFramebuffer)
		e.b.Viewport(0, 0, size, size)
		for i := range camera.CubeFaces() {
			e.b.Clear(gpu.ColorBufferBit | gpu.DepthBufferBit)
			if err := e.drawCubes(camera.CubeFaceProjection(i, position, near, far)); err != nil {
				return err
			}
			e.b.ReadPixelsRGB(0, 0, size, size, e.pixels[i*face:(i+1)*face])
		}
		e.b.BindFramebuffer(e.defaultFramebuffer)
		return nil
	})
}

func (e *engine) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render loop panicked: %v", r)
		}
	}()

	if !e.initialized {
		if err := e.Init(); err != nil {
			return err
		}
	}

	for !e.surface.ShouldClose() && e.running.Load() {
		start := time.Now()
		if err := e.Frame(); err != nil {
			return err
		}

		if e.profilingEnabled {
			e.profiler.Tick()
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
	return nil
}

func (e *engine) Close() {
	e.closeOnce.Do(func() {
		for job, ok := e.queue.TryPop(); ok; job, ok = e.queue.TryPop() {
			task.Complete(job, task.Result{Err: ErrStopped})
		}

		// Init may have failed part way; release whatever it created.
		e.shaders.Registry.Delete(e.b)
		if e.cubeBuffer != nil {
			e.cubeBuffer.Delete()
		}
		if e.cubeArray != nil {
			e.cubeArray.Delete()
		}
		if e.overlayBuffer != nil {
			e.overlayBuffer.Delete()
		}
		if e.overlayArray != nil {
			e.overlayArray.Delete()
		}
		if e.captureFramebuffer != 0 {
			e.b.DeleteFramebuffer(e.captureFramebuffer)
			e.captureFramebuffer = 0
		}
		for _, rb := range []*uint32{&e.captureColor, &e.captureDepth} {
			if *rb != 0 {
				e.b.DeleteRenderbuffer(*rb)
				*rb = 0
			}
		}
		e.initialized = false
		e.scene.Close()
	})
}
