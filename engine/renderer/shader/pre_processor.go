// pre_processor.go implements the GLSL pre-processor. It scans shader source for
// #include "file" directives and splices the referenced file in place, recursively.
// Paths are resolved relative to the directory of the including file.
package shader

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	fsys fs.FS

	// includes accumulates the files spliced in during a Process call, in first-use order.
	includes []string
}

// PreProcessor expands #include directives of GLSL sources read from a file system.
type PreProcessor interface {
	// Process reads file and returns its text with every #include directive replaced by the
	// processed contents of the referenced file.
	//
	// Parameters:
	//   - file: the slash-separated path of the root source within the file system
	//
	// Returns:
	//   - string: the expanded source
	//   - error: an error if a file is missing, a directive is malformed or includes form a cycle
	Process(file string) (string, error)

	// Includes returns the files spliced in by the most recent Process call.
	//
	// Returns:
	//   - []string: included file paths in first-use order
	Includes() []string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor reading from fsys.
//
// Parameters:
//   - fsys: the file system holding the sources and their includes
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor(fsys fs.FS) PreProcessor {
	if fsys == nil {
		panic("shader: pre-processor requires a file system")
	}
	return &preProcessor{fsys: fsys}
}

func (p *preProcessor) Process(file string) (string, error) {
	p.includes = p.includes[:0]
	return p.expand(file, nil)
}

func (p *preProcessor) Includes() []string {
	return p.includes
}

func (p *preProcessor) expand(file string, stack []string) (string, error) {
	for _, open := range stack {
		if open == file {
			return "", fmt.Errorf("include cycle: %s -> %s", strings.Join(stack, " -> "), file)
		}
	}
	data, err := fs.ReadFile(p.fsys, file)
	if err != nil {
		if len(stack) == 0 {
			return "", fmt.Errorf("failed to read shader %s: %w", file, err)
		}
		return "", fmt.Errorf("%s: failed to read include %s: %w", stack[len(stack)-1], file, err)
	}
	stack = append(stack, file)

	lines := strings.Split(string(data), "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		target, ok, err := parseInclude(line)
		if err != nil {
			return "", fmt.Errorf("%s:%d: %w", file, i+1, err)
		}
		if !ok {
			out = append(out, line)
			continue
		}

		target = path.Join(path.Dir(file), target)
		text, err := p.expand(target, stack)
		if err != nil {
			return "", err
		}
		p.noteInclude(target)
		out = append(out, strings.TrimRight(text, "\n"))
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) noteInclude(file string) {
	for _, f := range p.includes {
		if f == file {
			return
		}
	}
	p.includes = append(p.includes, file)
}

// parseInclude recognises `#include "file"`. The bool is false for any other line.
func parseInclude(line string) (string, bool, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "#include")
	if !ok {
		return "", false, nil
	}
	rest = strings.TrimSpace(rest)
	if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
		return "", false, fmt.Errorf("malformed #include directive %q", strings.TrimSpace(line))
	}
	target := rest[1 : len(rest)-1]
	if target == "" {
		return "", false, fmt.Errorf("empty #include path")
	}
	return target, true, nil
}
