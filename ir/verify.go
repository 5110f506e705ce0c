package ir

import (
	"errors"
	"fmt"

	"tandem/backend"
)

// Verify checks every function of the module and reports all problems found
func (m *Module) Verify() error {
	var errs []error
	for _, f := range m.Functions {
		errs = append(errs, f.verify()...)
	}
	return errors.Join(errs...)
}

// Verify checks a single function
func (f *Function) Verify() error {
	return errors.Join(f.verify()...)
}

func (f *Function) verify() []error {
	var errs []error
	fail := func(b *Block, format string, args ...any) {
		where := "@" + f.name
		if b != nil {
			where += ":" + b.label
		}
		errs = append(errs, fmt.Errorf("%s: %s", where, fmt.Sprintf(format, args...)))
	}

	if len(f.Blocks) == 0 {
		fail(nil, "function has no blocks")
		return errs
	}

	preds := f.Predecessors()
	for _, b := range f.Blocks {
		if b.Func != f {
			fail(b, "block belongs to another function")
		}
		if len(b.Instrs) == 0 {
			fail(b, "empty block")
			continue
		}
		if b.Terminator() == nil {
			fail(b, "block does not end in a terminator")
		}

		phis := true
		for i, in := range b.Instrs {
			if in.Op.IsTerminator() && i != len(b.Instrs)-1 {
				fail(b, "terminator %q is not the last instruction", in.String())
			}
			if in.Op == OpPhi {
				if !phis {
					fail(b, "phi %s after a non-phi instruction", in.Ref())
				}
				f.verifyPhi(in, preds[b], func(format string, args ...any) { fail(b, format, args...) })
				continue
			}
			if in.Op != OpAlloca {
				phis = false
			}
			if msg := f.verifyInstr(in); msg != "" {
				fail(b, "%s: %s", in.String(), msg)
			}
		}
	}
	return errs
}

func (f *Function) verifyPhi(in *Instr, preds []*Block, fail func(string, ...any)) {
	if len(in.Incoming) != len(preds) {
		fail("phi %s has %d incoming edges for %d predecessors", in.Ref(), len(in.Incoming), len(preds))
	}
	seen := make(map[*Block]bool)
	for _, e := range in.Incoming {
		if seen[e.Block] {
			fail("phi %s lists %%%s twice", in.Ref(), e.Block.label)
		}
		seen[e.Block] = true
		isPred := false
		for _, p := range preds {
			if p == e.Block {
				isPred = true
				break
			}
		}
		if !isPred {
			fail("phi %s: %%%s is not a predecessor", in.Ref(), e.Block.label)
		}
		if e.Value.Type() != in.Typ {
			fail("phi %s: incoming %s is not %s", in.Ref(), typed(e.Value), in.Typ)
		}
	}
}

// verifyInstr returns a description of what is wrong with in, or ""
func (f *Function) verifyInstr(in *Instr) string {
	for _, a := range in.Args {
		if !f.owns(a) {
			return "operand " + a.Ref() + " is defined in another function"
		}
	}
	for _, t := range in.Targets {
		if t.Func != f {
			return "branch to a block of another function"
		}
	}

	switch in.Op {
	case OpAlloca:
		if in.Block != f.Entry() {
			return "alloca outside the entry block"
		}
	case OpLoad:
		slot, ok := in.Args[0].(*Instr)
		if !ok || slot.Op != OpAlloca {
			return "load from a non-slot"
		}
	case OpStore:
		slot, ok := in.Args[0].(*Instr)
		if !ok || slot.Op != OpAlloca {
			return "store to a non-slot"
		}
		if in.Args[1].Type() != slot.Elem {
			return fmt.Sprintf("storing %s into a %s slot", in.Args[1].Type(), slot.Elem)
		}
	case OpBinary:
		l, r := in.Args[0].Type(), in.Args[1].Type()
		if l != r {
			return fmt.Sprintf("operand types %s and %s differ", l, r)
		}
		switch in.BinOp {
		case backend.And, backend.Or:
			if l.Bits() == 0 {
				return "logical operation on a non-integer"
			}
		default:
			if l != backend.I32 {
				return "arithmetic on " + l.String()
			}
		}
	case OpICmp:
		l, r := in.Args[0].Type(), in.Args[1].Type()
		if l != r || l.Bits() == 0 {
			return fmt.Sprintf("cannot compare %s with %s", l, r)
		}
	case OpCall:
		want := in.Callee.ParamTypes()
		if len(want) != len(in.Args) {
			return fmt.Sprintf("@%s takes %d arguments, got %d", in.Callee.name, len(want), len(in.Args))
		}
		for i, a := range in.Args {
			if a.Type() != want[i] {
				return fmt.Sprintf("argument %d is %s, want %s", i, a.Type(), want[i])
			}
		}
	case OpCondBr:
		if in.Args[0].Type() != backend.I1 {
			return "branch condition is not i1"
		}
	case OpRet:
		switch {
		case f.Ret == backend.Void && len(in.Args) != 0:
			return "void function returns a value"
		case f.Ret != backend.Void && (len(in.Args) != 1 || in.Args[0].Type() != f.Ret):
			return "return type does not match " + f.Ret.String()
		}
	}
	return ""
}

func (f *Function) owns(v Value) bool {
	switch x := v.(type) {
	case *Const:
		return true
	case *Param:
		return x.Func == f
	case *Instr:
		return x.Block != nil && x.Block.Func == f
	}
	return false
}
