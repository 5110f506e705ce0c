package ir

import (
	"fmt"
	"strings"

	"tandem/backend"
)

// String prints the module in an LLVM-like text form
func (m *Module) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; module %s\n", m.Name)
	for _, f := range m.Functions {
		sb.WriteString("\n")
		sb.WriteString(f.String())
	}
	return sb.String()
}

// String prints one function definition
func (f *Function) String() string {
	var sb strings.Builder
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Typ.String() + " " + p.Ref()
	}
	fmt.Fprintf(&sb, "define %s @%s(%s) {\n", f.Ret, f.name, strings.Join(params, ", "))
	for i, b := range f.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(b.label + ":\n")
		for _, in := range b.Instrs {
			sb.WriteString("  " + in.String() + "\n")
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

func typed(v Value) string {
	return v.Type().String() + " " + v.Ref()
}

// String prints one instruction
func (in *Instr) String() string {
	switch in.Op {
	case OpAlloca:
		return fmt.Sprintf("%s = alloca %s", in.Ref(), in.Elem)
	case OpLoad:
		return fmt.Sprintf("%s = load %s, ptr %s", in.Ref(), in.Typ, in.Args[0].Ref())
	case OpStore:
		return fmt.Sprintf("store %s, ptr %s", typed(in.Args[1]), in.Args[0].Ref())
	case OpBinary:
		return fmt.Sprintf("%s = %s %s %s, %s", in.Ref(), in.BinOp, in.Typ, in.Args[0].Ref(), in.Args[1].Ref())
	case OpICmp:
		return fmt.Sprintf("%s = icmp %s %s %s, %s", in.Ref(), in.Pred, in.Args[0].Type(), in.Args[0].Ref(), in.Args[1].Ref())
	case OpPhi:
		edges := make([]string, len(in.Incoming))
		for i, e := range in.Incoming {
			edges[i] = fmt.Sprintf("[ %s, %%%s ]", e.Value.Ref(), e.Block.label)
		}
		return fmt.Sprintf("%s = phi %s %s", in.Ref(), in.Typ, strings.Join(edges, ", "))
	case OpCall:
		args := make([]string, len(in.Args))
		for i, a := range in.Args {
			args[i] = typed(a)
		}
		call := fmt.Sprintf("call %s @%s(%s)", in.Typ, in.Callee.name, strings.Join(args, ", "))
		if in.Typ == backend.Void {
			return call
		}
		return in.Ref() + " = " + call
	case OpBr:
		return "br label %" + in.Targets[0].label
	case OpCondBr:
		return fmt.Sprintf("br %s, label %%%s, label %%%s", typed(in.Args[0]), in.Targets[0].label, in.Targets[1].label)
	case OpRet:
		if len(in.Args) == 0 {
			return "ret void"
		}
		return "ret " + typed(in.Args[0])
	case OpUnreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("<op %d>", int(in.Op))
	}
}
