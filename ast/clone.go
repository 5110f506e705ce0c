package ast

// Clone returns a deep copy of e
func Clone(e Expr) Expr {
	switch n := e.(type) {
	case nil:
		return nil
	case *IntLiteral:
		c := *n
		return &c
	case *BoolLiteral:
		c := *n
		return &c
	case *Identifier:
		c := *n
		return &c
	case *BinaryOp:
		return &BinaryOp{Left: Clone(n.Left), Op: n.Op, Right: Clone(n.Right)}
	case *CompoundAssign:
		return &CompoundAssign{Target: Clone(n.Target), Op: n.Op, Value: Clone(n.Value)}
	case *Let:
		return &Let{Target: Clone(n.Target), Type: n.Type, Init: Clone(n.Init)}
	case *If:
		return &If{Cond: Clone(n.Cond), Body: CloneBody(n.Body)}
	case *IfElse:
		return &IfElse{Cond: Clone(n.Cond), Then: CloneBody(n.Then), Else: CloneBody(n.Else)}
	case *While:
		return &While{Cond: Clone(n.Cond), Body: CloneBody(n.Body)}
	case *FnDecl:
		params := make([]Param, len(n.Params))
		for i, p := range n.Params {
			params[i] = Param{Name: Clone(p.Name), Type: p.Type}
		}
		return &FnDecl{Name: Clone(n.Name), Params: params, Returns: n.Returns, Body: CloneBody(n.Body)}
	case *FnCall:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = Clone(a)
		}
		return &FnCall{Name: Clone(n.Name), Args: args}
	case *Return:
		return &Return{Value: Clone(n.Value)}
	default:
		panic("ast.Clone: unknown node")
	}
}

// CloneBody deep-copies every expression of b
func CloneBody(b Body) Body {
	if b == nil {
		return nil
	}
	out := make(Body, len(b))
	for i, e := range b {
		out[i] = Clone(e)
	}
	return out
}

// Equal reports structural equality of two trees
func Equal(a, b Expr) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case *IntLiteral:
		y, ok := b.(*IntLiteral)
		return ok && x.Value == y.Value
	case *BoolLiteral:
		y, ok := b.(*BoolLiteral)
		return ok && x.Value == y.Value
	case *Identifier:
		y, ok := b.(*Identifier)
		return ok && x.Name == y.Name
	case *BinaryOp:
		y, ok := b.(*BinaryOp)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *CompoundAssign:
		y, ok := b.(*CompoundAssign)
		return ok && x.Op == y.Op && Equal(x.Target, y.Target) && Equal(x.Value, y.Value)
	case *Let:
		y, ok := b.(*Let)
		return ok && x.Type == y.Type && Equal(x.Target, y.Target) && Equal(x.Init, y.Init)
	case *If:
		y, ok := b.(*If)
		return ok && Equal(x.Cond, y.Cond) && EqualBody(x.Body, y.Body)
	case *IfElse:
		y, ok := b.(*IfElse)
		return ok && Equal(x.Cond, y.Cond) && EqualBody(x.Then, y.Then) && EqualBody(x.Else, y.Else)
	case *While:
		y, ok := b.(*While)
		return ok && Equal(x.Cond, y.Cond) && EqualBody(x.Body, y.Body)
	case *FnDecl:
		y, ok := b.(*FnDecl)
		if !ok || x.Returns != y.Returns || len(x.Params) != len(y.Params) || !Equal(x.Name, y.Name) {
			return false
		}
		for i := range x.Params {
			if x.Params[i].Type != y.Params[i].Type || !Equal(x.Params[i].Name, y.Params[i].Name) {
				return false
			}
		}
		return EqualBody(x.Body, y.Body)
	case *FnCall:
		y, ok := b.(*FnCall)
		if !ok || len(x.Args) != len(y.Args) || !Equal(x.Name, y.Name) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *Return:
		y, ok := b.(*Return)
		return ok && Equal(x.Value, y.Value)
	default:
		return false
	}
}

// EqualBody compares two bodies element-wise
func EqualBody(a, b Body) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
