package task

import "github.com/go-gl/mathgl/mgl32"

// JobBuilderOption configures a job at creation time.
type JobBuilderOption func(*jobBase)

// WithCompletion registers the callback that receives the job's Result.
//
// Parameters:
//   - fn: the completion callback
//
// Returns:
//   - JobBuilderOption: the option
func WithCompletion(fn Completion) JobBuilderOption {
	return func(b *jobBase) {
		b.done = fn
	}
}

// NewSkyboxJob creates a skybox capture job.
//
// Parameters:
//   - id: the identifier assigned by the producer
//   - position: the capture position in world space
//   - path: the output path, relative to the output directory; its extension selects the encoding
//   - options: optional job settings
//
// Returns:
//   - *SkyboxJob: the job
func NewSkyboxJob(id uint64, position mgl32.Vec3, path string, options ...JobBuilderOption) *SkyboxJob {
	j := &SkyboxJob{position: position}
	j.id = id
	j.path = path
	for _, opt := range options {
		opt(&j.jobBase)
	}
	return j
}
