package task

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingVisitor struct {
	visited []uint64
	err     error
}

func (v *recordingVisitor) VisitSkybox(job *SkyboxJob) error {
	v.visited = append(v.visited, job.ID())
	return v.err
}

func TestQueueIsFIFO(t *testing.T) {
	q := NewQueue()
	_, ok := q.TryPop()
	assert.False(t, ok)

	for i := uint64(1); i <= 3; i++ {
		q.Push(NewSkyboxJob(i, mgl32.Vec3{}, "a.qoi"))
	}
	assert.Equal(t, 3, q.Len())
	for i := uint64(1); i <= 3; i++ {
		job, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, i, job.ID())
	}
	job, ok := q.TryPop()
	assert.False(t, ok)
	assert.Nil(t, job)
	assert.Zero(t, q.Len())
}

func TestQueueRejectsNil(t *testing.T) {
	assert.Panics(t, func() { NewQueue().Push(nil) })
}

func TestCompleteRunsOnce(t *testing.T) {
	var results []Result
	job := NewSkyboxJob(7, mgl32.Vec3{1, 2, 3}, "out/sky.qoi", WithCompletion(func(r Result) {
		results = append(results, r)
	}))

	assert.True(t, Complete(job, Result{Err: errors.New("first")}))
	assert.False(t, Complete(job, Result{}))

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, uint64(7), r.JobID)
	assert.Equal(t, KindSkybox, r.Kind)
	assert.Equal(t, "out/sky.qoi", r.Path)
	assert.EqualError(t, r.Err, "first")
	assert.False(t, r.OK())
	assert.False(t, r.Finished.IsZero())
}

func TestCompleteWithoutCallback(t *testing.T) {
	job := NewSkyboxJob(1, mgl32.Vec3{}, "a.qoi")
	assert.True(t, Complete(job, Result{}))
	assert.False(t, Complete(job, Result{}))
}

func TestProcessDispatchesAndCompletes(t *testing.T) {
	v := &recordingVisitor{err: errors.New("disk full")}
	var got Result
	job := NewSkyboxJob(4, mgl32.Vec3{0, 1, 0}, "b.png", WithCompletion(func(r Result) { got = r }))

	err := Process(job, v)
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, []uint64{4}, v.visited)
	assert.Equal(t, uint64(4), got.JobID)
	assert.EqualError(t, got.Err, "disk full")
	assert.GreaterOrEqual(t, got.Duration.Nanoseconds(), int64(0))
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, job.Position())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "skybox", KindSkybox.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

// Concurrent producers and a concurrent consumer must see every job exactly once, and each
// producer's jobs in the order that producer pushed them.
func TestQueueConcurrentMatchesSequentialModel(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		producers := 1 + rng.Intn(6)
		counts := make([]int, producers)
		total := 0
		for i := range counts {
			counts[i] = rng.Intn(200)
			total += counts[i]
		}

		q := NewQueue()
		var wg sync.WaitGroup
		for p := 0; p < producers; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < counts[p]; i++ {
					q.Push(NewSkyboxJob(uint64(p)<<32|uint64(i), mgl32.Vec3{}, ""))
				}
			}(p)
		}

		popped := make([]uint64, 0, total)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for len(popped) < total {
				if job, ok := q.TryPop(); ok {
					popped = append(popped, job.ID())
				}
			}
		}()
		wg.Wait()
		<-done

		_, ok := q.TryPop()
		assert.False(t, ok, "seed %d", seed)
		require.Len(t, popped, total, "seed %d", seed)

		next := make([]uint64, producers)
		for _, id := range popped {
			p, i := id>>32, id&0xffffffff
			require.Equal(t, next[p], i, "seed %d: producer %d out of order", seed, p)
			next[p]++
		}
		for p := range counts {
			assert.Equal(t, uint64(counts[p]), next[p], "seed %d", seed)
		}
	}
}
