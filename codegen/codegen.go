// Package codegen lowers a program tree to SSA through a backend.Toolkit and
// runs the result on the toolkit's engine.
//
// The native backend accepts a strict subset of what the interpreter accepts
// and differs from it on purpose in two places: Return terminates the
// enclosing function, and While loops until its condition fails.
package codegen

import (
	"fmt"

	"tandem/ast"
	"tandem/backend"
	"tandem/jit"
	"tandem/trace"
	"tandem/types"
)

// EntryPoint is the function a compiled program starts in
const EntryPoint = "main"

// ToolkitFactory creates the toolkit for one module
type ToolkitFactory func(module string) backend.Toolkit

type config struct {
	module    string
	factory   ToolkitFactory
	stepLimit int64
	maxDepth  int
	tracer    *trace.Tracer
}

// Option configures Compile
type Option func(*config)

// WithToolkit lowers against toolkits made by f instead of the jit package.
// Step and depth limits only apply to the default toolkit.
func WithToolkit(f ToolkitFactory) Option {
	return func(c *config) { c.factory = f }
}

// WithStepLimit bounds the number of instructions one Run may execute
func WithStepLimit(n int64) Option {
	return func(c *config) { c.stepLimit = n }
}

// WithMaxDepth bounds native call nesting
func WithMaxDepth(n int) Option {
	return func(c *config) { c.maxDepth = n }
}

// WithTracer reports lowering and native calls to t
func WithTracer(t *trace.Tracer) Option {
	return func(c *config) { c.tracer = t }
}

// WithModuleName names the generated module
func WithModuleName(name string) Option {
	return func(c *config) { c.module = name }
}

func (c *config) newToolkit() backend.Toolkit {
	if c.factory != nil {
		return c.factory(c.module)
	}
	opts := []jit.Option{jit.WithStepLimit(c.stepLimit), jit.WithTracer(c.tracer)}
	if c.maxDepth > 0 {
		opts = append(opts, jit.WithMaxDepth(c.maxDepth))
	}
	return jit.New(c.module, opts...)
}

// Program is a compiled, runnable module
type Program struct {
	toolkit backend.Toolkit
	engine  backend.Engine
	entry   ast.Type
}

// Compile lowers body into a fresh module and prepares it for execution.
//
// Every top-level FnDecl becomes a native function. Without a declared main,
// the remaining top-level statements form an implicit main whose return
// type is inferred from its first return.
func Compile(body ast.Body, opts ...Option) (*Program, error) {
	cfg := &config{module: "tandem"}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tracer == nil {
		cfg.tracer = trace.Global()
	}

	tk := cfg.newToolkit()
	g := newGenerator(tk, cfg.tracer)
	entry, err := g.lowerProgram(body)
	if err != nil {
		return nil, err
	}

	engine, err := tk.Engine()
	if err != nil {
		return nil, types.NewError(types.E_MALFORMED, "%v", err)
	}
	return &Program{toolkit: tk, engine: engine, entry: entry}, nil
}

// Run compiles body, runs it once and converts the result
func Run(body ast.Body, opts ...Option) (types.Value, error) {
	prog, err := Compile(body, opts...)
	if err != nil {
		return nil, err
	}
	defer prog.Close()
	return prog.RunValue()
}

// Run invokes the entry point and returns its raw result
func (p *Program) Run() (int32, error) {
	if p.engine == nil {
		return 0, fmt.Errorf("program is closed")
	}
	v, err := p.engine.Run(EntryPoint)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// RunValue invokes the entry point and converts the result using the
// entry point's declared return type
func (p *Program) RunValue() (types.Value, error) {
	v, err := p.Run()
	if err != nil {
		return nil, err
	}
	if p.entry == ast.Bool {
		return types.NewBool(v != 0), nil
	}
	return types.NewInt(v), nil
}

// EntryType returns the declared or inferred return type of main
func (p *Program) EntryType() ast.Type {
	return p.entry
}

// IR prints the generated module
func (p *Program) IR() string {
	return p.toolkit.String()
}

// Close releases the engine
func (p *Program) Close() error {
	if p.engine == nil {
		return nil
	}
	err := p.engine.Close()
	p.engine = nil
	return err
}

func (p *Program) String() string {
	return fmt.Sprintf("program(%s -> %s)", EntryPoint, p.entry)
}
