package codegen

import (
	"fmt"

	"tandem/ast"
	"tandem/backend"
	"tandem/trace"
	"tandem/types"
)

// variable is a named, function-scoped storage slot
type variable struct {
	slot backend.Value
	typ  ast.Type
}

// generator holds the lowering state of the function being built
type generator struct {
	tk     backend.Toolkit
	tracer *trace.Tracer

	fn      backend.Function
	returns ast.Type
	vars    map[string]variable
	empty   backend.Value
}

func newGenerator(tk backend.Toolkit, tracer *trace.Tracer) *generator {
	return &generator{tk: tk, tracer: tracer}
}

func machineType(t ast.Type) backend.Type {
	if t == ast.Bool {
		return backend.I1
	}
	return backend.I32
}

func languageType(t backend.Type) ast.Type {
	if t == backend.I1 {
		return ast.Bool
	}
	return ast.Int
}

func malformed(format string, args ...any) error {
	return types.NewError(types.E_MALFORMED, format, args...)
}

// lowerProgram declares every top-level function, lowers their bodies, and
// builds the implicit main when none is declared. It returns main's type.
func (g *generator) lowerProgram(body ast.Body) (ast.Type, error) {
	var decls []*ast.FnDecl
	var rest ast.Body
	var main *ast.FnDecl
	for _, e := range body {
		d, ok := e.(*ast.FnDecl)
		if !ok {
			rest = append(rest, e)
			continue
		}
		decls = append(decls, d)
		if name, _ := ast.NameOf(d.Name); name == EntryPoint {
			main = d
		}
	}
	if main != nil && len(rest) > 0 {
		return 0, malformed("%d top-level statements outside %s", len(rest), EntryPoint)
	}

	// Signatures first so calls may refer to functions declared later
	fns := make([]backend.Function, len(decls))
	for i, d := range decls {
		fn, err := g.declare(d)
		if err != nil {
			return 0, err
		}
		fns[i] = fn
	}
	for i, d := range decls {
		if err := g.lowerFunction(d, fns[i]); err != nil {
			return 0, err
		}
	}

	if main != nil {
		return main.Returns, nil
	}
	ret := inferEntryType(body)
	implicit := &ast.FnDecl{Name: ast.Ident(EntryPoint), Returns: ret, Body: rest}
	fn, err := g.declare(implicit)
	if err != nil {
		return 0, err
	}
	if err := g.lowerFunction(implicit, fn); err != nil {
		return 0, err
	}
	return ret, nil
}

// declare adds the function's signature to the module
func (g *generator) declare(d *ast.FnDecl) (backend.Function, error) {
	name, ok := ast.NameOf(d.Name)
	if !ok || name == "" {
		return nil, malformed("function name must be a named identifier")
	}
	params := make([]backend.Type, len(d.Params))
	for i, p := range d.Params {
		if pn, ok := ast.NameOf(p.Name); !ok || pn == "" {
			return nil, malformed("parameter %d of %s must be a named identifier", i, name)
		}
		params[i] = machineType(p.Type)
	}
	fn, err := g.tk.AddFunction(name, params, machineType(d.Returns))
	if err != nil {
		return nil, malformed("%v", err)
	}
	return fn, nil
}

// lowerFunction builds fn's body. The caller's lowering state is restored
// afterwards, so nested declarations do not disturb the enclosing function.
func (g *generator) lowerFunction(d *ast.FnDecl, fn backend.Function) error {
	savedFn, savedRet, savedVars, savedEmpty := g.fn, g.returns, g.vars, g.empty
	savedBlock := g.tk.InsertBlock()
	defer func() {
		g.fn, g.returns, g.vars, g.empty = savedFn, savedRet, savedVars, savedEmpty
		if savedBlock != nil {
			g.tk.PositionAtEnd(savedBlock)
		}
	}()

	g.fn = fn
	g.returns = d.Returns
	g.vars = make(map[string]variable)
	g.empty = nil
	g.position(g.tk.AppendBlock(fn, "entry"))

	// Parameters live in slots like any other variable
	for i, p := range d.Params {
		name, _ := ast.NameOf(p.Name)
		slot := g.tk.Alloca(machineType(p.Type), name)
		g.tk.Store(slot, fn.Param(i))
		g.vars[name] = variable{slot: slot, typ: p.Type}
	}

	if err := g.lowerBlock(d.Body); err != nil {
		return fmt.Errorf("in %s: %w", fn.Name(), err)
	}
	if !g.tk.Terminated() {
		g.tk.Ret(g.tk.ConstInt(machineType(d.Returns), 0))
	}
	return nil
}

func (g *generator) position(b backend.Block) {
	g.tk.PositionAtEnd(b)
	g.tracer.Lower(g.fn.Name(), b.Name())
}

// lowerBlock lowers statements until one of them terminates the block
func (g *generator) lowerBlock(body ast.Body) error {
	for _, e := range body {
		if g.tk.Terminated() {
			break
		}
		if err := g.lowerStmt(e); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) lowerStmt(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.Let:
		return g.lowerLet(n)
	case *ast.CompoundAssign:
		_, err := g.lowerAssign(n)
		return err
	case *ast.If:
		return g.lowerIf(n)
	case *ast.IfElse:
		return g.lowerIfElse(n)
	case *ast.While:
		return g.lowerWhile(n)
	case *ast.FnDecl:
		fn, err := g.declare(n)
		if err != nil {
			return err
		}
		return g.lowerFunction(n, fn)
	case *ast.Return:
		return g.lowerReturn(n)
	default:
		_, err := g.lowerValue(e)
		return err
	}
}

// lowerValue lowers a value-producing expression
func (g *generator) lowerValue(e ast.Expr) (backend.Value, error) {
	switch n := e.(type) {
	case *ast.IntLiteral:
		return g.tk.ConstInt(backend.I32, int64(n.Value)), nil

	case *ast.BoolLiteral:
		var v int64
		if n.Value {
			v = 1
		}
		return g.tk.ConstInt(backend.I1, v), nil

	case *ast.Identifier:
		if n.Name == "" {
			// "no value yet": a throwaway slot holding 0, one per function
			if g.empty == nil {
				g.empty = g.tk.Alloca(backend.I32, "empty")
			}
			g.tk.Store(g.empty, g.tk.ConstInt(backend.I32, 0))
			return g.tk.Load(g.empty, "empty"), nil
		}
		v, ok := g.vars[n.Name]
		if !ok {
			return nil, types.NewError(types.E_UNBOUND, "variable %q is not bound", n.Name)
		}
		return g.tk.Load(v.slot, n.Name), nil

	case *ast.BinaryOp:
		if ast.IsSentinel(n.Left) {
			return g.lowerValue(n.Right)
		}
		if n.Op.Kind == ast.Assignment {
			return nil, malformed("assignment %s used as a binary operator", n.Op)
		}
		l, err := g.lowerValue(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := g.lowerValue(n.Right)
		if err != nil {
			return nil, err
		}
		return g.combine(n.Op, l, r)

	case *ast.CompoundAssign:
		if n.Op.Kind == ast.Assignment {
			return nil, malformed("assignment %s has no value", ast.FormatExpr(n))
		}
		return g.lowerAssign(n)

	case *ast.FnCall:
		return g.lowerCall(n)

	case nil:
		return nil, malformed("missing expression")

	default:
		return nil, malformed("%T cannot be used as a value", e)
	}
}

// combine emits the instruction for a non-assignment operator
func (g *generator) combine(op ast.Op, l, r backend.Value) (backend.Value, error) {
	lt, rt := l.Type(), r.Type()
	switch op.Kind {
	case ast.Arithmetic:
		if lt != backend.I32 || rt != backend.I32 {
			return nil, types.NewError(types.E_TYPE, "%s needs integers, got %s and %s", op, lt, rt)
		}
		var bop backend.BinOp
		switch op.Code {
		case ast.Add:
			bop = backend.Add
		case ast.Sub:
			bop = backend.Sub
		case ast.Mul:
			bop = backend.Mul
		case ast.Div:
			bop = backend.SDiv
		default:
			return nil, malformed("unknown arithmetic operator %s", op)
		}
		return g.tk.BinOp(bop, l, r, bop.String()), nil

	case ast.Logical:
		if lt != backend.I1 || rt != backend.I1 {
			return nil, types.NewError(types.E_TYPE, "%s needs booleans, got %s and %s", op, lt, rt)
		}
		if op.Code == ast.And {
			return g.tk.BinOp(backend.And, l, r, "and"), nil
		}
		return g.tk.BinOp(backend.Or, l, r, "or"), nil

	case ast.Relational:
		if lt != rt {
			return nil, types.NewError(types.E_TYPE, "cannot compare %s with %s", lt, rt)
		}
		p, err := predicate(op.Code, lt == backend.I1)
		if err != nil {
			return nil, err
		}
		return g.tk.ICmp(p, l, r, "cmp"), nil
	}
	return nil, malformed("operator %s is not a binary operator", op)
}

// predicate picks the compare for a relational operator. Booleans compare
// unsigned so that false < true.
func predicate(code ast.OpCode, unsigned bool) (backend.Predicate, error) {
	switch code {
	case ast.Eq:
		return backend.EQ, nil
	case ast.Neq:
		return backend.NE, nil
	case ast.Le:
		if unsigned {
			return backend.ULE, nil
		}
		return backend.SLE, nil
	case ast.Ge:
		if unsigned {
			return backend.UGE, nil
		}
		return backend.SGE, nil
	case ast.Lt:
		if unsigned {
			return backend.ULT, nil
		}
		return backend.SLT, nil
	case ast.Gt:
		if unsigned {
			return backend.UGT, nil
		}
		return backend.SGT, nil
	}
	return 0, malformed("unknown relational operator %d", code)
}

func (g *generator) lowerLet(n *ast.Let) error {
	name, ok := ast.NameOf(n.Target)
	if !ok || name == "" {
		return malformed("let target must be a named identifier")
	}
	// The initializer sees the previous binding of name, if any
	v, err := g.lowerValue(n.Init)
	if err != nil {
		return err
	}
	if v.Type() != machineType(n.Type) {
		return types.NewError(types.E_TYPE, "let %s: %s initialized with %s", name, n.Type, languageType(v.Type()))
	}
	// Rebinding at the same width writes the existing slot, so every path
	// through a branch or loop sees one binding per name
	if prev, bound := g.vars[name]; bound && prev.typ == n.Type {
		g.tk.Store(prev.slot, v)
		return nil
	}
	slot := g.tk.Alloca(machineType(n.Type), name)
	g.tk.Store(slot, v)
	g.vars[name] = variable{slot: slot, typ: n.Type}
	return nil
}

// lowerAssign stores into the target, or for a non-assignment operator
// combines with it and returns the result without storing
func (g *generator) lowerAssign(n *ast.CompoundAssign) (backend.Value, error) {
	name, ok := ast.NameOf(n.Target)
	if !ok || name == "" {
		return nil, malformed("assignment target must be a named identifier")
	}
	rhs, err := g.lowerValue(n.Value)
	if err != nil {
		return nil, err
	}
	target, bound := g.vars[name]

	if n.Op == ast.Assign(ast.Set) {
		if !bound {
			target = variable{slot: g.tk.Alloca(rhs.Type(), name), typ: languageType(rhs.Type())}
			g.vars[name] = target
		}
		if rhs.Type() != machineType(target.typ) {
			return nil, types.NewError(types.E_TYPE, "cannot assign %s to %s %q", languageType(rhs.Type()), target.typ, name)
		}
		g.tk.Store(target.slot, rhs)
		return nil, nil
	}

	if !bound {
		return nil, types.NewError(types.E_UNBOUND, "variable %q is not bound", name)
	}
	old := g.tk.Load(target.slot, name)

	combine, isUpdate := n.Op.Combinator()
	if !isUpdate {
		if n.Op.Kind == ast.Assignment {
			return nil, malformed("unknown assignment %s", n.Op)
		}
		return g.combine(n.Op, old, rhs)
	}
	if target.typ != ast.Int {
		return nil, types.NewError(types.E_TYPE, "%s needs %q bound to an integer", n.Op, name)
	}
	v, err := g.combine(combine, old, rhs)
	if err != nil {
		return nil, err
	}
	g.tk.Store(target.slot, v)
	return nil, nil
}

func (g *generator) lowerCond(e ast.Expr, what string) (backend.Value, error) {
	v, err := g.lowerValue(e)
	if err != nil {
		return nil, err
	}
	if v.Type() != backend.I1 {
		return nil, types.NewError(types.E_TYPE, "%s condition must be bool, got %s", what, languageType(v.Type()))
	}
	return v, nil
}

// marker is the phi operand recording which way a branch went
func (g *generator) marker(taken bool, from backend.Block) backend.Incoming {
	var v int64
	if taken {
		v = 1
	}
	return backend.Incoming{Value: g.tk.ConstInt(backend.I32, v), Block: from}
}

func (g *generator) lowerIf(n *ast.If) error {
	cond, err := g.lowerCond(n.Cond, "if")
	if err != nil {
		return err
	}
	from := g.tk.InsertBlock()
	then := g.tk.AppendBlock(g.fn, "then")
	cont := g.tk.AppendBlock(g.fn, "cont")
	g.tk.CondBr(cond, then, cont)

	g.position(then)
	if err := g.lowerBlock(n.Body); err != nil {
		return err
	}
	var incoming []backend.Incoming
	if !g.tk.Terminated() {
		incoming = append(incoming, g.marker(true, g.tk.InsertBlock()))
		g.tk.Br(cont)
	}
	incoming = append(incoming, g.marker(false, from))

	g.position(cont)
	g.tk.Phi(backend.I32, incoming, "if")
	return nil
}

func (g *generator) lowerIfElse(n *ast.IfElse) error {
	cond, err := g.lowerCond(n.Cond, "if")
	if err != nil {
		return err
	}
	then := g.tk.AppendBlock(g.fn, "then")
	els := g.tk.AppendBlock(g.fn, "else")
	cont := g.tk.AppendBlock(g.fn, "cont")
	g.tk.CondBr(cond, then, els)

	var incoming []backend.Incoming
	for i, body := range []ast.Body{n.Then, n.Else} {
		if i == 0 {
			g.position(then)
		} else {
			g.position(els)
		}
		if err := g.lowerBlock(body); err != nil {
			return err
		}
		if !g.tk.Terminated() {
			incoming = append(incoming, g.marker(i == 0, g.tk.InsertBlock()))
			g.tk.Br(cont)
		}
	}

	g.position(cont)
	if len(incoming) == 0 {
		// both arms returned
		g.tk.Unreachable()
		return nil
	}
	g.tk.Phi(backend.I32, incoming, "ifelse")
	return nil
}

// lowerWhile re-tests the condition at the end of the body and loops back
func (g *generator) lowerWhile(n *ast.While) error {
	cond, err := g.lowerCond(n.Cond, "while")
	if err != nil {
		return err
	}
	from := g.tk.InsertBlock()
	do := g.tk.AppendBlock(g.fn, "do")
	cont := g.tk.AppendBlock(g.fn, "cont")
	g.tk.CondBr(cond, do, cont)

	g.position(do)
	if err := g.lowerBlock(n.Body); err != nil {
		return err
	}
	incoming := []backend.Incoming{g.marker(false, from)}
	if !g.tk.Terminated() {
		again, err := g.lowerCond(n.Cond, "while")
		if err != nil {
			return err
		}
		incoming = append(incoming, g.marker(true, g.tk.InsertBlock()))
		g.tk.CondBr(again, do, cont)
	}

	g.position(cont)
	g.tk.Phi(backend.I32, incoming, "while")
	return nil
}

func (g *generator) lowerReturn(n *ast.Return) error {
	v, err := g.lowerValue(n.Value)
	if err != nil {
		return err
	}
	if v.Type() != machineType(g.returns) {
		return types.NewError(types.E_TYPE, "%s returns %s, got %s", g.fn.Name(), g.returns, languageType(v.Type()))
	}
	g.tk.Ret(v)
	return nil
}

func (g *generator) lowerCall(n *ast.FnCall) (backend.Value, error) {
	name, ok := ast.NameOf(n.Name)
	if !ok || name == "" {
		return nil, malformed("callee must be a named identifier")
	}
	fn, ok := g.tk.Function(name)
	if !ok {
		return nil, types.NewError(types.E_UNBOUND, "function %q is not declared", name)
	}
	if fn.NumParams() != len(n.Args) {
		return nil, types.NewError(types.E_ARGS, "%s takes %d arguments, got %d", name, fn.NumParams(), len(n.Args))
	}
	want := fn.ParamTypes()
	args := make([]backend.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := g.lowerValue(a)
		if err != nil {
			return nil, err
		}
		if v.Type() != want[i] {
			return nil, types.NewError(types.E_TYPE, "argument %d of %s: want %s, got %s", i, name, languageType(want[i]), languageType(v.Type()))
		}
		args[i] = v
	}
	return g.tk.Call(fn, args, name), nil
}
