// Package jit implements backend.Toolkit on top of the ir package and
// executes verified modules.
package jit

import (
	"fmt"

	"tandem/backend"
	"tandem/ir"
	"tandem/trace"
)

// Toolkit builds an ir.Module through the backend.Toolkit surface
type Toolkit struct {
	module  *ir.Module
	builder *ir.Builder
	opts    []Option
}

// New creates a toolkit for an empty module. The options configure the
// engine returned by Engine.
func New(name string, opts ...Option) *Toolkit {
	return &Toolkit{
		module:  ir.NewModule(name),
		builder: ir.NewBuilder(),
		opts:    opts,
	}
}

// Module returns the module under construction
func (t *Toolkit) Module() *ir.Module {
	return t.module
}

func (t *Toolkit) ConstInt(typ backend.Type, v int64) backend.Value {
	return ir.NewConst(typ, v)
}

func (t *Toolkit) AddFunction(name string, params []backend.Type, ret backend.Type) (backend.Function, error) {
	f, err := t.module.AddFunction(name, params, ret)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (t *Toolkit) Function(name string) (backend.Function, bool) {
	f, ok := t.module.Function(name)
	if !ok {
		return nil, false
	}
	return f, true
}

func (t *Toolkit) AppendBlock(fn backend.Function, name string) backend.Block {
	return function(fn).AppendBlock(name)
}

func (t *Toolkit) PositionAtEnd(b backend.Block) {
	t.builder.PositionAtEnd(block(b))
}

func (t *Toolkit) InsertBlock() backend.Block {
	if b := t.builder.Block(); b != nil {
		return b
	}
	return nil
}

func (t *Toolkit) Terminated() bool {
	return t.builder.Terminated()
}

func (t *Toolkit) Alloca(typ backend.Type, name string) backend.Value {
	return t.builder.Alloca(typ, name)
}

func (t *Toolkit) Load(slot backend.Value, name string) backend.Value {
	return t.builder.Load(slotOf(slot), name)
}

func (t *Toolkit) Store(slot, v backend.Value) {
	t.builder.Store(slotOf(slot), value(v))
}

func (t *Toolkit) BinOp(op backend.BinOp, l, r backend.Value, name string) backend.Value {
	return t.builder.Binary(op, value(l), value(r), name)
}

func (t *Toolkit) ICmp(p backend.Predicate, l, r backend.Value, name string) backend.Value {
	return t.builder.ICmp(p, value(l), value(r), name)
}

func (t *Toolkit) Phi(typ backend.Type, incoming []backend.Incoming, name string) backend.Value {
	edges := make([]ir.PhiEdge, len(incoming))
	for i, e := range incoming {
		edges[i] = ir.PhiEdge{Value: value(e.Value), Block: block(e.Block)}
	}
	return t.builder.Phi(typ, edges, name)
}

func (t *Toolkit) Call(fn backend.Function, args []backend.Value, name string) backend.Value {
	vals := make([]ir.Value, len(args))
	for i, a := range args {
		vals[i] = value(a)
	}
	return t.builder.Call(function(fn), vals, name)
}

func (t *Toolkit) Br(dest backend.Block) {
	t.builder.Br(block(dest))
}

func (t *Toolkit) CondBr(cond backend.Value, then, els backend.Block) {
	t.builder.CondBr(value(cond), block(then), block(els))
}

func (t *Toolkit) Ret(v backend.Value) {
	if v == nil {
		t.builder.Ret(nil)
		return
	}
	t.builder.Ret(value(v))
}

func (t *Toolkit) Unreachable() {
	t.builder.Unreachable()
}

func (t *Toolkit) Verify() error {
	return t.module.Verify()
}

// Engine verifies the module and prepares it for execution
func (t *Toolkit) Engine() (backend.Engine, error) {
	if err := t.module.Verify(); err != nil {
		return nil, fmt.Errorf("verify %s: %w", t.module.Name, err)
	}
	return NewEngine(t.module, t.opts...), nil
}

func (t *Toolkit) String() string {
	return t.module.String()
}

// The toolkit only ever hands out ir values; anything else is a caller bug.

func value(v backend.Value) ir.Value {
	iv, ok := v.(ir.Value)
	if !ok {
		panic(fmt.Sprintf("jit: foreign value %T", v))
	}
	return iv
}

func slotOf(v backend.Value) *ir.Instr {
	in, ok := v.(*ir.Instr)
	if !ok || in.Op != ir.OpAlloca {
		panic(fmt.Sprintf("jit: %T is not a slot", v))
	}
	return in
}

func block(b backend.Block) *ir.Block {
	ib, ok := b.(*ir.Block)
	if !ok {
		panic(fmt.Sprintf("jit: foreign block %T", b))
	}
	return ib
}

func function(f backend.Function) *ir.Function {
	fn, ok := f.(*ir.Function)
	if !ok {
		panic(fmt.Sprintf("jit: foreign function %T", f))
	}
	return fn
}

var _ backend.Toolkit = (*Toolkit)(nil)

// tracerOrGlobal picks the configured tracer, falling back to the global one
func tracerOrGlobal(t *trace.Tracer) *trace.Tracer {
	if t != nil {
		return t
	}
	return trace.Global()
}
