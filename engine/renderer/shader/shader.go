// Package shader holds the GLSL sources of the render server's programs.
//
// A Source is created once, when the bundle is loaded, and lives for the process lifetime.
// Its identity is its pointer: two programs that reference the same *Source share one
// compiled shader object.
package shader

import (
	"fmt"
	"path"
	"strings"

	"github.com/Carmen-Shannon/universe/engine/renderer/gpu"
)

// Source is an immutable shader stage source.
type Source struct {
	stage gpu.ShaderStage
	name  string
	file  string
	text  string
}

// NewSource creates a Source. Sources built from files should come from Load so the
// stage follows the file naming rule.
//
// Parameters:
//   - stage: the pipeline stage the source compiles for
//   - name: the display name used in diagnostics
//   - file: the originating file, used in diagnostics
//   - text: the GLSL text
//
// Returns:
//   - *Source: the new source
func NewSource(stage gpu.ShaderStage, name, file, text string) *Source {
	return &Source{stage: stage, name: name, file: file, text: text}
}

// Stage returns the pipeline stage.
func (s *Source) Stage() gpu.ShaderStage {
	return s.stage
}

// Name returns the display name, the file stem for bundled sources (e.g. "solid_v").
func (s *Source) Name() string {
	return s.name
}

// File returns the originating file.
func (s *Source) File() string {
	return s.file
}

// Text returns the GLSL text with includes expanded.
func (s *Source) Text() string {
	return s.text
}

func (s *Source) String() string {
	return fmt.Sprintf("%s shader %s (%s)", s.stage, s.name, s.file)
}

// StageFromName infers the stage from a file name: the stem must end in _v (vertex) or _f (fragment).
//
// Parameters:
//   - file: a file path such as "glsl/solid_v.glsl"
//
// Returns:
//   - string: the file stem, used as the source name
//   - gpu.ShaderStage: the inferred stage
//   - error: error if the stem carries neither suffix
func StageFromName(file string) (string, gpu.ShaderStage, error) {
	stem := strings.TrimSuffix(path.Base(file), path.Ext(file))
	switch {
	case strings.HasSuffix(stem, "_v"):
		return stem, gpu.StageVertex, nil
	case strings.HasSuffix(stem, "_f"):
		return stem, gpu.StageFragment, nil
	}
	return "", 0, fmt.Errorf("shader file name must end with _v or _f to indicate the stage, was %q", stem)
}
