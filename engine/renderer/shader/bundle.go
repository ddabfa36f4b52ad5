package shader

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"sync"
)

//go:embed glsl
var glslFS embed.FS

// Load reads, pre-processes and wraps each path of fsys as a Source. The stage is inferred
// from the file name (see StageFromName).
//
// Parameters:
//   - fsys: the file system holding the sources
//   - paths: the root source files, in the order the Sources are returned
//
// Returns:
//   - []*Source: one Source per path
//   - error: error if a name has no stage suffix or pre-processing fails
func Load(fsys fs.FS, paths ...string) ([]*Source, error) {
	pp := NewPreProcessor(fsys)
	out := make([]*Source, 0, len(paths))
	for _, p := range paths {
		name, stage, err := StageFromName(p)
		if err != nil {
			return nil, err
		}
		text, err := pp.Process(p)
		if err != nil {
			return nil, err
		}
		out = append(out, NewSource(stage, name, p, text))
	}
	return out, nil
}

// MustLoad is Load that panics on error, for sources embedded at build time.
func MustLoad(fsys fs.FS, paths ...string) []*Source {
	srcs, err := Load(fsys, paths...)
	if err != nil {
		panic(fmt.Sprintf("shader: %v", err))
	}
	return srcs
}

var bundle = sync.OnceValue(func() map[string]*Source {
	var paths []string
	for _, pattern := range []string{"glsl/*_v.glsl", "glsl/*_f.glsl"} {
		matches, err := fs.Glob(glslFS, pattern)
		if err != nil {
			panic(fmt.Sprintf("shader: %v", err))
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	m := make(map[string]*Source, len(paths))
	for _, src := range MustLoad(glslFS, paths...) {
		m[src.Name()] = src
	}
	return m
})

// Bundle returns every embedded source keyed by name ("basic_v", "solid_f", ...).
// The same *Source values are returned on every call.
func Bundle() map[string]*Source {
	return bundle()
}

// Get returns the embedded source with the given name, panicking if there is none.
func Get(name string) *Source {
	src, ok := bundle()[name]
	if !ok {
		panic(fmt.Sprintf("shader: no embedded source named %q", name))
	}
	return src
}
