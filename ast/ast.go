package ast

// Expr is a node of the program tree. The set of variants is closed.
type Expr interface {
	exprNode()
}

// Body is an ordered sequence of expressions
type Body []Expr

// Type is a declared type at a let, parameter or return site
type Type int

const (
	Int Type = iota
	Bool
)

// String returns the surface spelling of the type
func (t Type) String() string {
	switch t {
	case Int:
		return "i32"
	case Bool:
		return "bool"
	default:
		return "<invalid type>"
	}
}

// IntLiteral is a 32-bit signed integer constant
type IntLiteral struct {
	Value int32
}

// BoolLiteral is a boolean constant
type BoolLiteral struct {
	Value bool
}

// Identifier names a variable or function.
// The empty name is the "no value yet" sentinel produced for synthetic assignment targets.
type Identifier struct {
	Name string
}

// BinaryOp applies Op to Left and Right
type BinaryOp struct {
	Left  Expr
	Op    Op
	Right Expr
}

// CompoundAssign combines the current value of Target with Value using Op
type CompoundAssign struct {
	Target Expr
	Op     Op
	Value  Expr
}

// Let binds Init to Target
type Let struct {
	Target Expr
	Type   Type
	Init   Expr
}

// If runs Body when Cond holds
type If struct {
	Cond Expr
	Body Body
}

// IfElse runs exactly one of Then or Else
type IfElse struct {
	Cond Expr
	Then Body
	Else Body
}

// While is a conditional loop
type While struct {
	Cond Expr
	Body Body
}

// Param is one declared function parameter
type Param struct {
	Name Expr
	Type Type
}

// FnDecl declares a named function
type FnDecl struct {
	Name    Expr
	Params  []Param
	Returns Type
	Body    Body
}

// FnCall calls a named function with positional arguments
type FnCall struct {
	Name Expr
	Args []Expr
}

// Return yields Value from the enclosing body
type Return struct {
	Value Expr
}

func (*IntLiteral) exprNode()     {}
func (*BoolLiteral) exprNode()    {}
func (*Identifier) exprNode()     {}
func (*BinaryOp) exprNode()       {}
func (*CompoundAssign) exprNode() {}
func (*Let) exprNode()            {}
func (*If) exprNode()             {}
func (*IfElse) exprNode()         {}
func (*While) exprNode()          {}
func (*FnDecl) exprNode()         {}
func (*FnCall) exprNode()         {}
func (*Return) exprNode()         {}

// NameOf returns the name carried by an identifier node
func NameOf(e Expr) (string, bool) {
	id, ok := e.(*Identifier)
	if !ok {
		return "", false
	}
	return id.Name, true
}

// IsSentinel reports whether e is the empty-name identifier
func IsSentinel(e Expr) bool {
	name, ok := NameOf(e)
	return ok && name == ""
}
