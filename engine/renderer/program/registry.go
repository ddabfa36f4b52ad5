// Package program declares GLSL programs and their typed interface slots, and compiles them
// in one validating pass.
//
// Programs are declared up front with NewProgramSpec. NewRegistry deduplicates the stage sources
// by identity, and Registry.Compile compiles every distinct shader once, links every program,
// resolves every slot by name and checks the declared kinds against program introspection.
// The GLSL text is hand-written, so names and types can drift from the Go declarations; Compile
// reports every such mismatch at once.
package program

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/universe/common"
	"github.com/Carmen-Shannon/universe/engine/renderer/gpu"
	"github.com/Carmen-Shannon/universe/engine/renderer/shader"
)

// CompiledShader is a shader source plus the handle it was compiled to.
// The registry keeps exactly one per distinct *shader.Source.
type CompiledShader struct {
	source *shader.Source
	handle uint32
}

// Source returns the shader source.
func (c *CompiledShader) Source() *shader.Source {
	return c.source
}

// Handle returns the shader object handle, 0 before compilation.
func (c *CompiledShader) Handle() uint32 {
	return c.handle
}

// program is the implementation of the Program interface.
type program struct {
	name       string
	vertex     *CompiledShader
	fragment   *CompiledShader
	uniforms   []UniformSlot
	attributes []AttributeSlot
	handle     uint32
}

// Program is a linked pair of vertex and fragment shaders plus its declared slots.
type Program interface {
	// Name returns the declared program name.
	Name() string

	// Handle returns the program object handle, 0 before compilation.
	Handle() uint32

	// Vertex returns the shared compiled vertex shader.
	Vertex() *CompiledShader

	// Fragment returns the shared compiled fragment shader.
	Fragment() *CompiledShader

	// Uniforms returns the uniform slots in declaration order.
	Uniforms() []UniformSlot

	// Attributes returns the attribute slots in declaration order.
	Attributes() []AttributeSlot

	// Uniform looks up a uniform slot by GLSL name.
	//
	// Returns:
	//   - UniformSlot: the slot
	//   - bool: false if no uniform with that name was declared
	Uniform(name string) (UniformSlot, bool)

	// Attribute looks up an attribute slot by GLSL name.
	//
	// Returns:
	//   - AttributeSlot: the slot
	//   - bool: false if no attribute with that name was declared
	Attribute(name string) (AttributeSlot, bool)

	// Use installs the program as the current program.
	//
	// Parameters:
	//   - b: the backend the registry was compiled against
	Use(b gpu.Backend)
}

var _ Program = &program{}

func (p *program) Name() string                { return p.name }
func (p *program) Handle() uint32              { return p.handle }
func (p *program) Vertex() *CompiledShader     { return p.vertex }
func (p *program) Fragment() *CompiledShader   { return p.fragment }
func (p *program) Uniforms() []UniformSlot     { return p.uniforms }
func (p *program) Attributes() []AttributeSlot { return p.attributes }

func (p *program) Uniform(name string) (UniformSlot, bool) {
	for _, u := range p.uniforms {
		if u.Name() == name {
			return u, true
		}
	}
	return nil, false
}

func (p *program) Attribute(name string) (AttributeSlot, bool) {
	for _, a := range p.attributes {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

func (p *program) Use(b gpu.Backend) {
	b.UseProgram(p.handle)
}

// registry is the implementation of the Registry interface.
type registry struct {
	programs        []*program
	vertexShaders   []*CompiledShader
	fragmentShaders []*CompiledShader
	bySource        map[*shader.Source]*CompiledShader
	compiled        bool
	warnings        []string
}

// Registry owns a fixed set of programs and the shaders they share. It starts out declaring
// and moves to compiled on the first Compile call; there is no way back.
type Registry interface {
	// Compile compiles every distinct shader once, links every program, resolves every slot
	// location and validates slot kinds against the linked programs.
	//
	// A compile or link failure aborts immediately. Slot problems are collected across all
	// programs and returned together through errors.Join. Optional slots without a location
	// are logged as warnings and do not fail compilation.
	//
	// Parameters:
	//   - b: the backend bound to the current GL context
	//
	// Returns:
	//   - error: nil on success, ErrAlreadyCompiled on a second call, or a *CompileError,
	//     *LinkError, *gpu.Error or joined *SlotError values
	Compile(b gpu.Backend) error

	// Compiled reports whether Compile has been called.
	Compiled() bool

	// Programs returns the programs in declaration order.
	Programs() []Program

	// Program looks up a program by name.
	//
	// Returns:
	//   - Program: the program
	//   - bool: false if no program with that name was declared
	Program(name string) (Program, bool)

	// VertexShaders returns the distinct vertex shaders in first-use order.
	VertexShaders() []*CompiledShader

	// FragmentShaders returns the distinct fragment shaders in first-use order.
	FragmentShaders() []*CompiledShader

	// Warnings returns the non-fatal validation messages of the last Compile.
	Warnings() []string

	// Delete releases every program and shader object.
	//
	// Parameters:
	//   - b: the backend the registry was compiled against
	Delete(b gpu.Backend)
}

var _ Registry = &registry{}

// NewRegistry builds a registry from program declarations. Stage sources are deduplicated by
// identity: programs naming the same *shader.Source share one CompiledShader.
//
// NewRegistry panics on declaration mistakes: duplicate program names, duplicate slot names
// within a program, or one slot value declared in two programs.
//
// Parameters:
//   - specs: the program declarations, in order
//
// Returns:
//   - Registry: the registry in the declaring state
func NewRegistry(specs ...ProgramSpec) Registry {
	r := &registry{bySource: make(map[*shader.Source]*CompiledShader)}
	names := make(map[string]bool, len(specs))
	for _, ps := range specs {
		if names[ps.name] {
			panic(fmt.Sprintf("program: duplicate program name %q", ps.name))
		}
		names[ps.name] = true

		p := &program{
			name:       ps.name,
			vertex:     r.shaderFor(ps.vertex),
			fragment:   r.shaderFor(ps.fragment),
			uniforms:   append([]UniformSlot(nil), ps.uniforms...),
			attributes: append([]AttributeSlot(nil), ps.attributes...),
		}
		claim(p.name, p.uniforms)
		claim(p.name, p.attributes)
		r.programs = append(r.programs, p)
	}
	return r
}

// claim marks slots as owned by a program, panicking on reuse or duplicate names.
func claim[S Slot](programName string, slots []S) {
	seen := make(map[string]bool, len(slots))
	for _, s := range slots {
		if seen[s.Name()] {
			panic(fmt.Sprintf("program: %s declares %s %q twice", programName, s.Role(), s.Name()))
		}
		seen[s.Name()] = true
		o := s.ownerRef()
		if *o != "" {
			panic(fmt.Sprintf("program: %s %q of %s is already declared by %s", s.Role(), s.Name(), programName, *o))
		}
		*o = programName
	}
}

func (r *registry) shaderFor(src *shader.Source) *CompiledShader {
	if cs, ok := r.bySource[src]; ok {
		return cs
	}
	cs := &CompiledShader{source: src}
	r.bySource[src] = cs
	if src.Stage() == gpu.StageVertex {
		r.vertexShaders = append(r.vertexShaders, cs)
	} else {
		r.fragmentShaders = append(r.fragmentShaders, cs)
	}
	return cs
}

func (r *registry) Compile(b gpu.Backend) error {
	if r.compiled {
		return ErrAlreadyCompiled
	}
	r.compiled = true
	r.warnings = nil
	log := common.Logger()

	for _, group := range [][]*CompiledShader{r.vertexShaders, r.fragmentShaders} {
		for _, cs := range group {
			if err := compileShader(b, cs); err != nil {
				return err
			}
		}
	}

	for _, p := range r.programs {
		if err := linkProgram(b, p); err != nil {
			return err
		}
	}

	var errs []error
	for _, p := range r.programs {
		for _, u := range p.uniforms {
			u.resolve(b.UniformLocation(p.handle, u.Name()))
		}
		for _, a := range p.attributes {
			a.resolve(b.AttribLocation(p.handle, a.Name()))
		}
		if err := gpu.Check(b, fmt.Sprintf("resolving slots of program '%s'", p.name)); err != nil {
			return err
		}

		uErrs, uWarns := validate(p.name, p.uniforms, b.ActiveUniforms(p.handle))
		aErrs, aWarns := validate(p.name, p.attributes, b.ActiveAttributes(p.handle))
		errs = append(errs, uErrs...)
		errs = append(errs, aErrs...)
		r.warnings = append(r.warnings, uWarns...)
		r.warnings = append(r.warnings, aWarns...)
	}
	for _, w := range r.warnings {
		log.Warn(w)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	log.Info("shader registry compiled",
		"programs", len(r.programs),
		"vertex_shaders", len(r.vertexShaders),
		"fragment_shaders", len(r.fragmentShaders))
	return nil
}

func compileShader(b gpu.Backend, cs *CompiledShader) error {
	src := cs.source
	h := b.CreateShader(src.Stage())
	if h == 0 {
		err := gpu.Check(b, "glCreateShader")
		if err == nil {
			err = errors.New("no handle returned")
		}
		return fmt.Errorf("unable to create %s shader '%s': %w", src.Stage(), src.Name(), err)
	}
	ok, info := b.CompileShader(h, src.Text())
	if !ok {
		b.DeleteShader(h)
		return &CompileError{Shader: src.Name(), File: src.File(), Log: strings.TrimSpace(info)}
	}
	cs.handle = h
	common.Logger().Debug("shader compiled", "shader", src.Name(), "stage", src.Stage().String(), "handle", h)
	return nil
}

func linkProgram(b gpu.Backend, p *program) error {
	h := b.CreateProgram()
	if h == 0 {
		err := gpu.Check(b, "glCreateProgram")
		if err == nil {
			err = errors.New("no handle returned")
		}
		return fmt.Errorf("unable to create program '%s': %w", p.name, err)
	}
	err := gpu.Guard(b, "glAttachShader", func() {
		b.AttachShader(h, p.vertex.handle)
		b.AttachShader(h, p.fragment.handle)
	})
	if err != nil {
		b.DeleteProgram(h)
		return fmt.Errorf("unable to attach shaders '%s', '%s' to program '%s': %w",
			p.vertex.source.Name(), p.fragment.source.Name(), p.name, err)
	}
	ok, info := b.LinkProgram(h)
	if !ok {
		b.DeleteProgram(h)
		return &LinkError{
			Program:  p.name,
			Vertex:   p.vertex.source.Name(),
			Fragment: p.fragment.source.Name(),
			Log:      strings.TrimSpace(info),
		}
	}
	p.handle = h
	return nil
}

// validate checks resolved slots of one role against the program's active resources.
// Active resources that no slot declares are not an error.
func validate[S Slot](programName string, slots []S, active []gpu.ActiveResource) ([]error, []string) {
	byName := make(map[string]gpu.ActiveResource, len(active))
	for _, res := range active {
		byName[strings.TrimSuffix(res.Name, "[0]")] = res
	}

	var errs []error
	var warnings []string
	for _, s := range slots {
		res, isActive := byName[s.Name()]
		if !s.Resolved() || !isActive {
			if s.Optional() {
				warnings = append(warnings, fmt.Sprintf("program '%s': optional %s '%s' is not used by the shader", programName, s.Role(), s.Name()))
				continue
			}
			errs = append(errs, &SlotError{
				Program:  programName,
				Slot:     s.Name(),
				Role:     s.Role(),
				Expected: s.Kind(),
				Missing:  true,
			})
			continue
		}
		if res.Kind != s.Kind() {
			errs = append(errs, &SlotError{
				Program:  programName,
				Slot:     s.Name(),
				Role:     s.Role(),
				Expected: s.Kind(),
				Actual:   res.Kind,
			})
		}
	}
	return errs, warnings
}

func (r *registry) Compiled() bool {
	return r.compiled
}

func (r *registry) Programs() []Program {
	out := make([]Program, len(r.programs))
	for i, p := range r.programs {
		out[i] = p
	}
	return out
}

func (r *registry) Program(name string) (Program, bool) {
	for _, p := range r.programs {
		if p.name == name {
			return p, true
		}
	}
	return nil, false
}

func (r *registry) VertexShaders() []*CompiledShader {
	return r.vertexShaders
}

func (r *registry) FragmentShaders() []*CompiledShader {
	return r.fragmentShaders
}

func (r *registry) Warnings() []string {
	return r.warnings
}

func (r *registry) Delete(b gpu.Backend) {
	for _, p := range r.programs {
		if p.handle != 0 {
			b.DeleteProgram(p.handle)
			p.handle = 0
		}
	}
	for _, group := range [][]*CompiledShader{r.vertexShaders, r.fragmentShaders} {
		for _, cs := range group {
			if cs.handle != 0 {
				b.DeleteShader(cs.handle)
				cs.handle = 0
			}
		}
	}
}
