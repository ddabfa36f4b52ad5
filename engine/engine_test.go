package engine

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/universe/engine/camera"
	"github.com/Carmen-Shannon/universe/engine/imageio"
	"github.com/Carmen-Shannon/universe/engine/light"
	"github.com/Carmen-Shannon/universe/engine/renderer/gpu"
	"github.com/Carmen-Shannon/universe/engine/renderer/gpu/gputest"
	"github.com/Carmen-Shannon/universe/engine/scene"
	"github.com/Carmen-Shannon/universe/engine/task"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSurface struct {
	width, height int
	time          float64
	swaps, polls  int
	closeAfter    int
}

func (s *fakeSurface) ShouldClose() bool { return s.closeAfter > 0 && s.swaps >= s.closeAfter }
func (s *fakeSurface) SwapBuffers()      { s.swaps++; s.time += 1.0 / 60 }
func (s *fakeSurface) PollEvents()       { s.polls++ }
func (s *fakeSurface) Time() float64     { return s.time }
func (s *fakeSurface) Width() int        { return s.width }
func (s *fakeSurface) Height() int       { return s.height }

type written struct {
	path string
	pix  []byte
	size int
}

type harness struct {
	b       *gputest.Backend
	surface *fakeSurface
	queue   *task.Queue
	running *atomic.Bool
	engine  Engine

	mu      sync.Mutex
	writes  []written
	results []task.Result
}

const testSkyboxSize = 4

func newHarness(t *testing.T, sc scene.Scene, options ...EngineBuilderOption) *harness {
	t.Helper()
	h := &harness{
		b:       gputest.New(),
		surface: &fakeSurface{width: 800, height: 600},
		queue:   task.NewQueue(),
		running: &atomic.Bool{},
	}
	h.running.Store(true)
	if sc == nil {
		sc = scene.NewScene(scene.WithRandomCubes(3), scene.WithComputeWorkers(2))
	}
	opts := append([]EngineBuilderOption{
		WithScene(sc),
		WithSkyboxSize(testSkyboxSize),
		WithOutputDir("out"),
		WithCubemapWriter(func(path string, pix []byte, size int) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.writes = append(h.writes, written{path, append([]byte(nil), pix...), size})
			return nil
		}),
	}, options...)
	h.engine = NewEngine(h.b, h.surface, h.queue, h.running, opts...)
	t.Cleanup(h.engine.Close)
	require.NoError(t, h.engine.Init())
	return h
}

func (h *harness) push(id uint64, pos mgl32.Vec3, path string) {
	h.queue.Push(task.NewSkyboxJob(id, pos, path, task.WithCompletion(func(r task.Result) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.results = append(h.results, r)
	})))
}

func (h *harness) completed() []task.Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]task.Result(nil), h.results...)
}

func TestInitSetsUpRenderState(t *testing.T) {
	h := newHarness(t, nil)

	assert.True(t, h.b.Enabled(gpu.DepthTest))
	assert.True(t, h.b.Enabled(gpu.CullFace))
	assert.True(t, h.engine.Shaders().Registry.Compiled())
	assert.True(t, h.engine.Shaders().Solid.Model.Resolved())
	assert.False(t, h.engine.Shaders().Solid.NormalModel.Resolved())
	require.Len(t, h.b.UniformUploads("ambient_color"), 1)
	assert.InDeltaSlice(t, []float32{0.2, 0.2, 0.2}, h.b.UniformUploads("ambient_color")[0].Floats, 1e-6)

	assert.ErrorIs(t, h.engine.Init(), ErrAlreadyInitialized)
}

func TestInitFailsOnIncompleteFramebuffer(t *testing.T) {
	b := gputest.New()
	b.FramebufferStatus = gpu.FramebufferUnsupported
	running := &atomic.Bool{}
	e := NewEngine(b, &fakeSurface{width: 1, height: 1}, task.NewQueue(), running,
		WithScene(scene.NewScene(scene.WithRandomCubes(0), scene.WithComputeWorkers(1))))
	defer e.Close()

	err := e.Init()
	var glErr *gpu.Error
	require.ErrorAs(t, err, &glErr)
	assert.Equal(t, gpu.FramebufferUnsupported, glErr.Code)
	assert.ErrorIs(t, e.Frame(), ErrNotInitialized)

	require.NotZero(t, b.LiveHandles())
	e.Close()
	assert.Zero(t, b.LiveHandles())
}

func TestCloseReleasesEveryHandle(t *testing.T) {
	h := newHarness(t, nil)
	require.NotZero(t, h.b.LiveHandles())
	h.engine.Close()
	assert.Zero(t, h.b.LiveHandles())
}

func TestInitRejectsFaceSize(t *testing.T) {
	for _, size := range []int{imageio.MaxFaceSize + 1, 1 << 20} {
		b := gputest.New()
		e := NewEngine(b, &fakeSurface{width: 1, height: 1}, task.NewQueue(), &atomic.Bool{},
			WithSkyboxSize(size),
			WithScene(scene.NewScene(scene.WithRandomCubes(0), scene.WithComputeWorkers(1))))
		assert.ErrorIs(t, e.Init(), imageio.ErrFaceSize, "size %d", size)
		assert.Zero(t, b.LiveHandles())
		e.Close()
	}
}

func TestClearColorAndCamera(t *testing.T) {
	cam := camera.NewCamera(
		camera.WithFov(mgl32.DegToRad(60)),
		camera.WithController(camera.NewOrbitController(camera.WithOrbitSpeed(0))),
	)
	h := newHarness(t, nil,
		WithClearColor(mgl32.Vec4{0.1, 0.2, 0.3, 1}),
		WithCamera(cam),
	)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, h.b.CurrentClearColor())

	require.NoError(t, h.engine.Frame())
	assert.Same(t, cam, h.engine.Camera())
	uploads := h.b.UniformUploads("Projection")
	require.NotEmpty(t, uploads)
	want := cam.ViewProjectionMatrix()
	assert.InDeltaSlice(t, want[:], uploads[len(uploads)-1].Floats, 1e-5)
}

func TestFrameDrawsEveryInstanceOnScreen(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.engine.Frame())

	count := h.engine.Scene().Count()
	require.Len(t, h.b.Draws, count)
	for _, d := range h.b.Draws {
		assert.Equal(t, h.b.DefaultFramebuffer(), d.Framebuffer)
		assert.Equal(t, int32(36), d.Count)
	}
	assert.Equal(t, [4]int32{0, 0, 800, 600}, h.b.CurrentViewport())
	assert.InDelta(t, 800.0/600.0, h.engine.Camera().Aspect(), 1e-6)
	assert.Equal(t, 1, h.surface.swaps)
	assert.Equal(t, 1, h.surface.polls)
	assert.Equal(t, uint64(1), h.engine.Frames())
	assert.Zero(t, h.b.Reads)
}

func TestLightsFollowMarker(t *testing.T) {
	rig := light.DefaultRig()
	rig.Fill = light.NewPointLight(light.WithOffset(1, 1, 1), light.WithEnabled(false))
	h := newHarness(t, nil, WithLights(rig))
	h.engine.Scene().SetMarker(mgl32.Vec3{1, 2, 3})
	require.NoError(t, h.engine.Frame())

	last := func(name string) []float32 {
		uploads := h.b.UniformUploads(name)
		require.NotEmpty(t, uploads, name)
		return uploads[len(uploads)-1].Floats
	}
	assert.InDeltaSlice(t, []float32{1, 2, 2}, last("light0_position"), 1e-6)
	assert.InDeltaSlice(t, []float32{0.9, 0.9, 0.3}, last("light0_color"), 1e-6)
	assert.InDeltaSlice(t, []float32{2, 3, 4}, last("light1_position"), 1e-6)
	assert.InDeltaSlice(t, []float32{0, 0, 0}, last("light1_color"), 1e-6)
}

func TestOverlayDrawsTriangle(t *testing.T) {
	h := newHarness(t, nil, WithOverlay(true))
	require.NoError(t, h.engine.Frame())

	last := h.b.Draws[len(h.b.Draws)-1]
	assert.Equal(t, int32(3), last.Count)
	assert.Len(t, h.b.Draws, h.engine.Scene().Count()+1)
}

func TestOneJobPerFrame(t *testing.T) {
	h := newHarness(t, nil)
	for i := range 3 {
		h.push(uint64(i+1), mgl32.Vec3{float32(i), 0, 0}, "")
	}

	for frame := 1; frame <= 3; frame++ {
		require.NoError(t, h.engine.Frame())
		results := h.completed()
		require.Len(t, results, frame)
		assert.Equal(t, uint64(frame), results[frame-1].JobID)
		assert.NoError(t, results[frame-1].Err)
		assert.Equal(t, 6*frame, h.b.Reads)
		assert.Equal(t, 3-frame, h.queue.Len())
	}

	require.NoError(t, h.engine.Frame())
	assert.Equal(t, 18, h.b.Reads)
	assert.Len(t, h.completed(), 3)
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, h.engine.Scene().Marker())
}

func TestSkyboxCaptureGeometry(t *testing.T) {
	cube := scene.CubeInstance{Position: mgl32.Vec3{0, 0, -5}, Color: mgl32.Vec3{1, 0, 0}, Scale: 1}
	sc := scene.NewScene(scene.WithInstances(cube), scene.WithComputeWorkers(1))
	h := newHarness(t, sc)

	pos := mgl32.Vec3{1, 2, 3}
	h.push(7, pos, "sky/one.qoi")
	require.NoError(t, h.engine.Frame())

	require.Len(t, h.completed(), 1)
	require.NoError(t, h.completed()[0].Err)
	require.Len(t, h.writes, 1)
	w := h.writes[0]
	assert.Equal(t, filepath.Join("out", "sky", "one.qoi"), w.path)
	assert.Equal(t, testSkyboxSize, w.size)

	// The image is size wide and six faces tall.
	face := testSkyboxSize * testSkyboxSize * 3
	require.Len(t, w.pix, testSkyboxSize*imageio.Faces*testSkyboxSize*3)
	for i := range imageio.Faces {
		for _, px := range w.pix[i*face : (i+1)*face] {
			require.Equal(t, byte(i+1), px, "face %d", i)
		}
	}

	// Two instances drawn for each face into the capture framebuffer.
	var offscreen int
	for _, d := range h.b.Draws {
		if d.Framebuffer != h.b.DefaultFramebuffer() {
			offscreen++
		}
	}
	assert.Equal(t, imageio.Faces*2, offscreen)
	assert.Equal(t, h.b.DefaultFramebuffer(), h.b.BoundFramebuffer())

	// The last six projections are the faces; each looks down a different axis.
	uploads := h.b.UniformUploads("Projection")
	require.GreaterOrEqual(t, len(uploads), imageio.Faces+1)
	faces := uploads[len(uploads)-imageio.Faces:]
	axes := []mgl32.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	seen := map[mgl32.Vec3]int{}
	for i, u := range faces {
		want := camera.CubeFaceProjection(i, pos, 0.1, 100)
		require.Len(t, u.Floats, 16)
		assert.InDeltaSlice(t, want[:], u.Floats, 1e-5, "face %d", i)

		var m mgl32.Mat4
		copy(m[:], u.Floats)
		for _, axis := range axes {
			clip := m.Mul4x1(pos.Add(axis.Mul(5)).Vec4(1))
			if clip.W() > 0 && abs(clip.X()/clip.W()) < 1e-4 && abs(clip.Y()/clip.W()) < 1e-4 {
				seen[axis] = i
			}
		}
	}
	require.Len(t, seen, 6)
	for axis, i := range seen {
		assert.Equal(t, i^1, seen[axis.Mul(-1)], "axis %v", axis)
	}
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func TestJobErrors(t *testing.T) {
	t.Run("unsafe path", func(t *testing.T) {
		h := newHarness(t, nil)
		h.push(1, mgl32.Vec3{}, "../escape.qoi")
		require.NoError(t, h.engine.Frame())
		require.Len(t, h.completed(), 1)
		assert.ErrorIs(t, h.completed()[0].Err, imageio.ErrUnsafePath)
		assert.Zero(t, h.b.Reads)
	})

	t.Run("write failure keeps running", func(t *testing.T) {
		boom := errors.New("disk full")
		h := newHarness(t, nil, WithCubemapWriter(func(string, []byte, int) error { return boom }))
		h.push(1, mgl32.Vec3{}, "a.qoi")
		h.push(2, mgl32.Vec3{}, "b.qoi")
		require.NoError(t, h.engine.Frame())
		require.NoError(t, h.engine.Frame())
		results := h.completed()
		require.Len(t, results, 2)
		assert.ErrorIs(t, results[0].Err, boom)
		assert.ErrorIs(t, results[1].Err, boom)
	})

	t.Run("gl error stops the loop", func(t *testing.T) {
		h := newHarness(t, nil)
		h.push(1, mgl32.Vec3{}, "a.qoi")
		h.b.InjectError("ReadPixelsRGB", gpu.InvalidOperation)

		err := h.engine.Frame()
		var glErr *gpu.Error
		require.ErrorAs(t, err, &glErr)
		assert.Equal(t, gpu.InvalidOperation, glErr.Code)
		require.Len(t, h.completed(), 1)
		assert.ErrorAs(t, h.completed()[0].Err, &glErr)
		assert.Empty(t, h.writes)
	})
}

func TestRunStopsWhenSurfaceClosesOrFlagClears(t *testing.T) {
	h := newHarness(t, nil)
	h.surface.closeAfter = 3
	require.NoError(t, h.engine.Run())
	assert.Equal(t, uint64(3), h.engine.Frames())

	h.surface.closeAfter = 0
	h.running.Store(false)
	require.NoError(t, h.engine.Run())
	assert.Equal(t, uint64(3), h.engine.Frames())
}

func TestCloseFailsPendingJobs(t *testing.T) {
	h := newHarness(t, nil)
	h.push(1, mgl32.Vec3{}, "")
	h.push(2, mgl32.Vec3{}, "")

	h.engine.Close()
	h.engine.Close()
	results := h.completed()
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, ErrStopped)
	}
	assert.Zero(t, h.queue.Len())
}
