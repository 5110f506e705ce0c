package codegen

import "tandem/ast"

// inferEntryType guesses the return type of an implicit main from the first
// return reachable in program order. Int when nothing says otherwise.
func inferEntryType(body ast.Body) ast.Type {
	in := &inferer{
		vars: make(map[string]ast.Type),
		fns:  make(map[string]ast.Type),
	}
	for _, e := range body {
		if d, ok := e.(*ast.FnDecl); ok {
			if name, ok := ast.NameOf(d.Name); ok {
				in.fns[name] = d.Returns
			}
		}
	}
	if t, ok := in.body(body); ok {
		return t
	}
	return ast.Int
}

type inferer struct {
	vars map[string]ast.Type
	fns  map[string]ast.Type
}

func (in *inferer) body(b ast.Body) (ast.Type, bool) {
	for _, e := range b {
		switch n := e.(type) {
		case *ast.Let:
			if name, ok := ast.NameOf(n.Target); ok {
				in.vars[name] = n.Type
			}
		case *ast.CompoundAssign:
			name, _ := ast.NameOf(n.Target)
			if _, known := in.vars[name]; !known && n.Op == ast.Assign(ast.Set) {
				if t, ok := in.expr(n.Value); ok {
					in.vars[name] = t
				}
			}
		case *ast.FnDecl:
			if name, ok := ast.NameOf(n.Name); ok {
				in.fns[name] = n.Returns
			}
		case *ast.Return:
			if t, ok := in.expr(n.Value); ok {
				return t, true
			}
		case *ast.If:
			if t, ok := in.body(n.Body); ok {
				return t, true
			}
		case *ast.IfElse:
			if t, ok := in.body(n.Then); ok {
				return t, true
			}
			if t, ok := in.body(n.Else); ok {
				return t, true
			}
		case *ast.While:
			if t, ok := in.body(n.Body); ok {
				return t, true
			}
		}
	}
	return 0, false
}

func (in *inferer) expr(e ast.Expr) (ast.Type, bool) {
	switch n := e.(type) {
	case *ast.IntLiteral:
		return ast.Int, true
	case *ast.BoolLiteral:
		return ast.Bool, true
	case *ast.Identifier:
		t, ok := in.vars[n.Name]
		return t, ok
	case *ast.BinaryOp:
		if ast.IsSentinel(n.Left) {
			return in.expr(n.Right)
		}
		return opResult(n.Op)
	case *ast.CompoundAssign:
		return opResult(n.Op)
	case *ast.FnCall:
		name, _ := ast.NameOf(n.Name)
		t, ok := in.fns[name]
		return t, ok
	}
	return 0, false
}

func opResult(op ast.Op) (ast.Type, bool) {
	switch op.Kind {
	case ast.Arithmetic:
		return ast.Int, true
	case ast.Logical, ast.Relational:
		return ast.Bool, true
	}
	return 0, false
}
