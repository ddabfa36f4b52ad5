package scene

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithSeed sets the seed of the random decorative cubes. Equal seeds give equal scenes.
//
// Parameters:
//   - seed: the random source seed
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSeed(seed int64) SceneBuilderOption {
	return func(s *scene) {
		s.seed = seed
	}
}

// WithRandomCubes sets how many decorative cubes are scattered around the formation. Defaults to 200.
//
// Parameters:
//   - n: the number of random cubes, negative values count as zero
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRandomCubes(n int) SceneBuilderOption {
	return func(s *scene) {
		s.randomCubes = max(n, 0)
	}
}

// WithSpin sets how fast instances turn. An instance's angle at time t is phase + spin*t,
// so zero freezes every cube at its phase.
//
// Parameters:
//   - spin: the time multiplier
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSpin(spin float32) SceneBuilderOption {
	return func(s *scene) {
		s.spin = spin
	}
}

// WithComputeWorkers sets the number of worker goroutines used by Update.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of compute workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithComputeWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.computeWorkers = n
	}
}

// WithInstances replaces the seeded formation and random cubes with the given instances.
// The marker cube is still appended after them.
//
// Parameters:
//   - cubes: the instances, in draw order
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithInstances(cubes ...CubeInstance) SceneBuilderOption {
	return func(s *scene) {
		s.formation = append([]CubeInstance{}, cubes...)
	}
}
