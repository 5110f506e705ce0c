package jit

import (
	"fmt"

	"tandem/backend"
	"tandem/ir"
	"tandem/trace"
	"tandem/types"
)

// DefaultMaxDepth bounds native recursion
const DefaultMaxDepth = 10000

// Option configures an Engine
type Option func(*Engine)

// WithStepLimit stops execution after n instructions. Zero means unlimited.
func WithStepLimit(n int64) Option {
	return func(e *Engine) { e.stepLimit = n }
}

// WithMaxDepth bounds the number of nested calls
func WithMaxDepth(n int) Option {
	return func(e *Engine) { e.maxDepth = n }
}

// WithTracer reports every function entry to t
func WithTracer(t *trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// Engine executes the functions of a verified module
type Engine struct {
	module    *ir.Module
	funcs     map[string]*prepared
	stepLimit int64
	maxDepth  int
	tracer    *trace.Tracer

	steps  int64
	closed bool
}

// prepared is a function ready to run: blocks split into their phi prefix
// and body so block entry can resolve merges in one pass
type prepared struct {
	fn     *ir.Function
	phis   [][]*ir.Instr
	bodies [][]*ir.Instr
}

// frame is one activation: a register file and the slot memory
type frame struct {
	regs []int64
	mem  []int64
}

// NewEngine prepares every function of m. m must already be verified.
func NewEngine(m *ir.Module, opts ...Option) *Engine {
	e := &Engine{
		module:   m,
		funcs:    make(map[string]*prepared, len(m.Functions)),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.tracer = tracerOrGlobal(e.tracer)

	for _, f := range m.Functions {
		p := &prepared{
			fn:     f,
			phis:   make([][]*ir.Instr, len(f.Blocks)),
			bodies: make([][]*ir.Instr, len(f.Blocks)),
		}
		for i, b := range f.Blocks {
			n := 0
			for n < len(b.Instrs) && b.Instrs[n].Op == ir.OpPhi {
				n++
			}
			p.phis[i] = b.Instrs[:n]
			p.bodies[i] = b.Instrs[n:]
		}
		e.funcs[f.Name()] = p
	}
	return e
}

// Run calls the named function. The step budget covers one Run.
func (e *Engine) Run(name string, args ...int64) (int64, error) {
	if e.closed {
		return 0, fmt.Errorf("engine for %s is closed", e.module.Name)
	}
	p, ok := e.funcs[name]
	if !ok {
		return 0, types.NewError(types.E_UNBOUND, "no compiled function @%s", name)
	}
	if len(args) != len(p.fn.Params) {
		return 0, types.NewError(types.E_ARGS, "@%s takes %d arguments, got %d", name, len(p.fn.Params), len(args))
	}
	e.steps = 0
	return e.call(p, args, 1)
}

// Close releases the prepared functions
func (e *Engine) Close() error {
	e.closed = true
	e.funcs = nil
	return nil
}

func (e *Engine) call(p *prepared, args []int64, depth int) (int64, error) {
	f := p.fn
	if depth > e.maxDepth {
		return 0, types.NewError(types.E_LIMIT, "call depth exceeds %d in @%s", e.maxDepth, f.Name())
	}
	e.tracer.Invoke(f.Name(), args)

	fr := &frame{
		regs: make([]int64, f.NumRegs),
		mem:  make([]int64, f.NumSlots),
	}
	for i, param := range f.Params {
		fr.regs[param.ID] = ir.Normalize(param.Typ, args[i])
	}

	var prev *ir.Block
	cur := f.Entry()
	for {
		if err := e.enter(p, fr, cur, prev); err != nil {
			return 0, err
		}

		next, result, done, err := e.exec(p, fr, cur, depth)
		if err != nil {
			return 0, err
		}
		if done {
			return result, nil
		}
		prev, cur = cur, next
	}
}

// enter resolves the phis of b for an edge from prev. All incoming values
// are read before any phi is written.
func (e *Engine) enter(p *prepared, fr *frame, b, prev *ir.Block) error {
	phis := p.phis[b.Index]
	if len(phis) == 0 {
		return nil
	}
	vals := make([]int64, len(phis))
	for i, phi := range phis {
		found := false
		for _, edge := range phi.Incoming {
			if edge.Block == prev {
				vals[i] = fr.get(edge.Value)
				found = true
				break
			}
		}
		if !found {
			return types.NewError(types.E_MALFORMED, "@%s: phi %s has no edge from the executed predecessor", p.fn.Name(), phi.Ref())
		}
	}
	for i, phi := range phis {
		fr.regs[phi.ID] = vals[i]
	}
	return nil
}

// exec runs the non-phi instructions of b. It returns either the next block
// or, when done, the function's result.
func (e *Engine) exec(p *prepared, fr *frame, b *ir.Block, depth int) (next *ir.Block, result int64, done bool, err error) {
	for _, in := range p.bodies[b.Index] {
		e.steps++
		if e.stepLimit > 0 && e.steps > e.stepLimit {
			return nil, 0, false, types.NewError(types.E_LIMIT, "@%s exceeded %d steps", p.fn.Name(), e.stepLimit)
		}

		switch in.Op {
		case ir.OpAlloca:
			fr.regs[in.ID] = int64(in.Slot)

		case ir.OpLoad:
			fr.regs[in.ID] = fr.mem[in.Args[0].(*ir.Instr).Slot]

		case ir.OpStore:
			fr.mem[in.Args[0].(*ir.Instr).Slot] = fr.get(in.Args[1])

		case ir.OpBinary:
			v, err := binary(in.BinOp, in.Typ, fr.get(in.Args[0]), fr.get(in.Args[1]))
			if err != nil {
				return nil, 0, false, err
			}
			fr.regs[in.ID] = v

		case ir.OpICmp:
			fr.regs[in.ID] = compare(in.Pred, in.Args[0].Type(), fr.get(in.Args[0]), fr.get(in.Args[1]))

		case ir.OpCall:
			args := make([]int64, len(in.Args))
			for i, a := range in.Args {
				args[i] = fr.get(a)
			}
			callee, ok := e.funcs[in.Callee.Name()]
			if !ok {
				return nil, 0, false, types.NewError(types.E_UNBOUND, "no compiled function @%s", in.Callee.Name())
			}
			v, err := e.call(callee, args, depth+1)
			if err != nil {
				return nil, 0, false, err
			}
			if in.ID >= 0 {
				fr.regs[in.ID] = v
			}

		case ir.OpBr:
			return in.Targets[0], 0, false, nil

		case ir.OpCondBr:
			if fr.get(in.Args[0]) != 0 {
				return in.Targets[0], 0, false, nil
			}
			return in.Targets[1], 0, false, nil

		case ir.OpRet:
			if len(in.Args) == 0 {
				return nil, 0, true, nil
			}
			return nil, fr.get(in.Args[0]), true, nil

		case ir.OpUnreachable:
			return nil, 0, false, types.NewError(types.E_MALFORMED, "@%s reached unreachable code in %%%s", p.fn.Name(), b.Name())

		default:
			return nil, 0, false, types.NewError(types.E_MALFORMED, "@%s: unexpected %s", p.fn.Name(), in.String())
		}
	}
	return nil, 0, false, types.NewError(types.E_MALFORMED, "@%s: fell off the end of %%%s", p.fn.Name(), b.Name())
}

func (fr *frame) get(v ir.Value) int64 {
	switch x := v.(type) {
	case *ir.Const:
		return x.Val
	case *ir.Param:
		return fr.regs[x.ID]
	case *ir.Instr:
		return fr.regs[x.ID]
	}
	panic(fmt.Sprintf("jit: unknown operand %T", v))
}

// binary evaluates an integer operation with two's complement wraparound
func binary(op backend.BinOp, t backend.Type, l, r int64) (int64, error) {
	switch op {
	case backend.Add:
		return ir.Normalize(t, l+r), nil
	case backend.Sub:
		return ir.Normalize(t, l-r), nil
	case backend.Mul:
		return ir.Normalize(t, l*r), nil
	case backend.SDiv:
		if r == 0 {
			return 0, types.NewError(types.E_DIV, "%d / 0", l)
		}
		// MinInt32 / -1 wraps back to MinInt32
		return ir.Normalize(t, int64(int32(l)/int32(r))), nil
	case backend.And:
		return l & r, nil
	case backend.Or:
		return l | r, nil
	}
	return 0, types.NewError(types.E_MALFORMED, "unknown operation %s", op)
}

// compare evaluates an integer predicate; unsigned forms reinterpret the
// operand bits at the operand width
func compare(p backend.Predicate, t backend.Type, l, r int64) int64 {
	ul, ur := uint64(l), uint64(r)
	if t == backend.I32 {
		ul, ur = uint64(uint32(l)), uint64(uint32(r))
	}
	var res bool
	switch p {
	case backend.EQ:
		res = l == r
	case backend.NE:
		res = l != r
	case backend.SLT:
		res = l < r
	case backend.SLE:
		res = l <= r
	case backend.SGT:
		res = l > r
	case backend.SGE:
		res = l >= r
	case backend.ULT:
		res = ul < ur
	case backend.ULE:
		res = ul <= ur
	case backend.UGT:
		res = ul > ur
	case backend.UGE:
		res = ul >= ur
	}
	if res {
		return 1
	}
	return 0
}

var _ backend.Engine = (*Engine)(nil)
