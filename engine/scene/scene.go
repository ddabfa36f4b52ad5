package scene

import (
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/go-gl/mathgl/mgl32"
)

// CubeInstance is one drawn cube. Model and NormalModel are recomputed by Update.
type CubeInstance struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	Phase    float32
	Scale    float32

	Model       mgl32.Mat4
	NormalModel mgl32.Mat3
}

// Drawer draws one instance. Returning an error stops the pass.
type Drawer func(instance *CubeInstance) error

// Scene holds the cube instances rendered every frame.
type Scene interface {
	// Count returns the number of instances, marker included.
	//
	// Returns:
	//   - int: the instance count
	Count() int

	// Instances returns a copy of every instance in draw order.
	//
	// Returns:
	//   - []CubeInstance: the instances
	Instances() []CubeInstance

	// Marker returns the position of the marker cube, the last instance.
	// The lights follow it and skybox captures move it to their centre.
	//
	// Returns:
	//   - mgl32.Vec3: the marker position
	Marker() mgl32.Vec3

	// SetMarker moves the marker cube. Its matrices are refreshed on the next Update.
	//
	// Parameters:
	//   - position: the new position
	SetMarker(position mgl32.Vec3)

	// Update recomputes every instance's model and normal matrices for time t.
	// The work is split across the scene's worker pool and Update returns once all of it is done.
	//
	// Parameters:
	//   - t: seconds since the window was created
	Update(t float32)

	// Draw calls d for each instance in order.
	//
	// Parameters:
	//   - d: the per-instance draw callback
	//
	// Returns:
	//   - error: the first error returned by d
	Draw(d Drawer) error

	// Close stops the worker pool.
	Close()
}

type scene struct {
	mu *sync.RWMutex

	cubes []CubeInstance

	// formation replaces the seeded cubes when set through WithInstances.
	formation []CubeInstance

	seed        int64
	randomCubes int
	spin        float32

	// computePool runs the per-frame matrix updates. Workers persist across frames.
	computePool    worker.DynamicWorkerPool
	computeWorkers int
}

var _ Scene = &scene{}

// NewScene creates a scene seeded with the fixed cube formation, the random decorative cubes and
// the marker cube, and computes their matrices for t = 0.
//
// Parameters:
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:             &sync.RWMutex{},
		seed:           1,
		randomCubes:    200,
		spin:           1,
		computeWorkers: max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(s)
	}

	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)

	if s.formation != nil {
		s.cubes = append(append(make([]CubeInstance, 0, len(s.formation)+1), s.formation...), CubeInstance{Scale: 0.2})
	} else {
		s.cubes = seedCubes(rand.New(rand.NewSource(s.seed)), s.randomCubes)
	}
	s.Update(0)
	return s
}

func randf(rng *rand.Rand, lo, hi float32) float32 {
	t := rng.Float32()
	return (1-t)*lo + t*hi
}

// seedCubes builds the formation: six unit-axis cubes, six satellites around each of them,
// everything pushed out by 10, then n random cubes and the black marker at the origin.
func seedCubes(rng *rand.Rand, n int) []CubeInstance {
	cubes := make([]CubeInstance, 0, 6+36+n+1)
	axes := []struct{ pos, color mgl32.Vec3 }{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0.5, 0.5, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0.5, 0.5}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0.5, 0, 0.5}},
	}
	for _, a := range axes {
		cubes = append(cubes, CubeInstance{Position: a.pos, Color: a.color, Scale: 1})
	}
	for i := range 6 {
		p0 := cubes[i].Position
		for j := range 6 {
			cubes = append(cubes, CubeInstance{
				Position: p0.Add(cubes[j].Position.Mul(0.15)),
				Color:    cubes[j].Color.Mul(0.9),
				Phase:    1,
				Scale:    0.2,
			})
		}
	}
	for i := range cubes {
		cubes[i].Position = cubes[i].Position.Mul(10)
	}

	for range n {
		p := mgl32.Vec3{randf(rng, -10, 10), randf(rng, -10, 10), randf(rng, -10, 10)}
		p = p.Mul(randf(rng, 3, 10))
		color := mgl32.Vec3{rng.Float32(), rng.Float32(), rng.Float32()}
		cubes = append(cubes, CubeInstance{
			Position: p,
			Color:    color,
			Phase:    randf(rng, -10, 10),
			Scale:    randf(rng, 1, 4),
		})
	}

	return append(cubes, CubeInstance{Scale: 0.2})
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cubes)
}

func (s *scene) Instances() []CubeInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CubeInstance, len(s.cubes))
	copy(out, s.cubes)
	return out
}

func (s *scene) Marker() mgl32.Vec3 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cubes[len(s.cubes)-1].Position
}

func (s *scene) SetMarker(position mgl32.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cubes[len(s.cubes)-1].Position = position
}

func (s *scene) Update(t float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks := s.computeWorkers
	size := (len(s.cubes) + chunks - 1) / chunks

	// pool.Wait drains the whole pool, so a WaitGroup scopes the barrier to this frame.
	var wg sync.WaitGroup
	for id := range chunks {
		lo := id * size
		hi := min(lo+size, len(s.cubes))
		wg.Add(1)
		part := s.cubes[min(lo, hi):hi]
		s.computePool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := range part {
					part[i].updateMatrices(part[i].Phase + s.spin*t)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// updateMatrices sets Model to translate × scale × eulerYXZ(2a, 3a, 0) and NormalModel to the
// inverse transpose of its upper 3×3.
func (c *CubeInstance) updateMatrices(a float32) {
	m := mgl32.Translate3D(c.Position[0], c.Position[1], c.Position[2])
	m = m.Mul4(mgl32.Scale3D(c.Scale, c.Scale, c.Scale))
	m = m.Mul4(mgl32.HomogRotate3DY(2 * a)).Mul4(mgl32.HomogRotate3DX(3 * a))
	c.Model = m
	c.NormalModel = m.Mat3().Inv().Transpose()
}

func (s *scene) Draw(d Drawer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.cubes {
		if err := d(&s.cubes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *scene) Close() {
	s.computePool.Stop()
}
