// Package task carries rendering jobs from request handlers to the render thread.
//
// Jobs form a closed set: each kind is a type in this package with a matching Visitor method,
// so adding a kind forces every visitor to handle it. A job is consumed exactly once and reports
// back through the completion callback registered when it was created.
package task

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Kind names a job kind.
type Kind int

const (
	// KindSkybox renders a six-face cubemap around a position.
	KindSkybox Kind = iota + 1
)

func (k Kind) String() string {
	switch k {
	case KindSkybox:
		return "skybox"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Visitor handles each job kind. The render loop implements it.
type Visitor interface {
	// VisitSkybox renders and writes the cubemap requested by job.
	VisitSkybox(job *SkyboxJob) error
}

// Job is one unit of asynchronous rendering work.
type Job interface {
	// ID returns the identifier assigned by the producer.
	ID() uint64

	// Kind returns the job kind.
	Kind() Kind

	// Accept dispatches the job to the matching Visitor method.
	Accept(v Visitor) error

	base() *jobBase
}

// Result is what a finished job reports to its completion callback.
type Result struct {
	JobID    uint64
	Kind     Kind
	Path     string
	Err      error
	Duration time.Duration
	Finished time.Time
}

// OK reports whether the job succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Completion receives the result of a finished job. It runs on the render thread and must not block.
type Completion func(Result)

// jobBase holds the state shared by all job kinds.
type jobBase struct {
	id   uint64
	done Completion
	once sync.Once
	path string
}

func (b *jobBase) base() *jobBase {
	return b
}

// ID returns the identifier assigned by the producer.
func (b *jobBase) ID() uint64 {
	return b.id
}

// SkyboxJob asks for a cubemap of the scene as seen from a position.
type SkyboxJob struct {
	jobBase
	position mgl32.Vec3
}

var _ Job = &SkyboxJob{}

// Kind returns KindSkybox.
func (j *SkyboxJob) Kind() Kind {
	return KindSkybox
}

// Accept calls v.VisitSkybox.
func (j *SkyboxJob) Accept(v Visitor) error {
	return v.VisitSkybox(j)
}

// Position returns the capture position in world space.
func (j *SkyboxJob) Position() mgl32.Vec3 {
	return j.position
}

// Path returns the requested output path, relative to the configured output directory.
func (j *SkyboxJob) Path() string {
	return j.path
}

// Complete runs the completion callback of job with r, filling in the job's identity.
// Only the first call has any effect.
//
// Parameters:
//   - job: the finished job
//   - r: the outcome; JobID, Kind and Path are overwritten from job
//
// Returns:
//   - bool: true if this call completed the job
func Complete(job Job, r Result) bool {
	b := job.base()
	completed := false
	b.once.Do(func() {
		completed = true
		r.JobID = b.id
		r.Kind = job.Kind()
		r.Path = b.path
		if r.Finished.IsZero() {
			r.Finished = time.Now()
		}
		if b.done != nil {
			b.done(r)
		}
	})
	return completed
}

// Process dispatches job to v, times it and completes it with the outcome.
//
// Parameters:
//   - job: the job to run
//   - v: the visitor doing the work
//
// Returns:
//   - error: the error returned by the visitor
func Process(job Job, v Visitor) error {
	start := time.Now()
	err := job.Accept(v)
	Complete(job, Result{Err: err, Duration: time.Since(start)})
	return err
}
