package ast

// Shorthand constructors, mostly for tests and fixtures.

func NewInt(v int32) *IntLiteral { return &IntLiteral{Value: v} }
func NewBool(v bool) *BoolLiteral { return &BoolLiteral{Value: v} }
func Ident(name string) *Identifier { return &Identifier{Name: name} }

func Binary(l Expr, op Op, r Expr) *BinaryOp {
	return &BinaryOp{Left: l, Op: op, Right: r}
}

func Ret(e Expr) *Return { return &Return{Value: e} }

// LetInit builds a let whose initializer uses the parser's "" = value encoding
func LetInit(name string, t Type, v Expr) *Let {
	return &Let{Target: Ident(name), Type: t, Init: Binary(Ident(""), Assign(Set), v)}
}

func Call(name string, args ...Expr) *FnCall {
	return &FnCall{Name: Ident(name), Args: args}
}

func Fn(name string, params []Param, ret Type, body ...Expr) *FnDecl {
	return &FnDecl{Name: Ident(name), Params: params, Returns: ret, Body: body}
}

func P(name string, t Type) Param { return Param{Name: Ident(name), Type: t} }
