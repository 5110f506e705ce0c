package ast

import "fmt"

// OpKind is the family an operator belongs to
type OpKind int

const (
	Arithmetic OpKind = iota
	Assignment
	Logical
	Relational
)

// OpCode identifies an operator within its family
type OpCode int

// Arithmetic codes
const (
	Add OpCode = iota
	Sub
	Div
	Mul
)

// Assignment codes
const (
	Set OpCode = iota
	AddSet
	SubSet
	DivSet
	MulSet
)

// Logical codes
const (
	And OpCode = iota
	Or
)

// Relational codes
const (
	Eq OpCode = iota
	Neq
	Le
	Ge
	Lt
	Gt
)

// Op is a tagged operator: Kind selects the family, Code the member
type Op struct {
	Kind OpKind
	Code OpCode
}

func Arith(c OpCode) Op { return Op{Kind: Arithmetic, Code: c} }
func Assign(c OpCode) Op { return Op{Kind: Assignment, Code: c} }
func Logic(c OpCode) Op { return Op{Kind: Logical, Code: c} }
func Rel(c OpCode) Op { return Op{Kind: Relational, Code: c} }

var opSymbols = map[Op]string{
	Arith(Add): "+", Arith(Sub): "-", Arith(Div): "/", Arith(Mul): "*",
	Assign(Set): "=", Assign(AddSet): "+=", Assign(SubSet): "-=", Assign(DivSet): "/=", Assign(MulSet): "*=",
	Logic(And): "&&", Logic(Or): "||",
	Rel(Eq): "==", Rel(Neq): "!=", Rel(Le): "<=", Rel(Ge): ">=", Rel(Lt): "<", Rel(Gt): ">",
}

var symbolOps = func() map[string]Op {
	m := make(map[string]Op, len(opSymbols))
	for op, sym := range opSymbols {
		m[sym] = op
	}
	return m
}()

// String returns the operator's surface symbol
func (o Op) String() string {
	if s, ok := opSymbols[o]; ok {
		return s
	}
	return fmt.Sprintf("<op %d/%d>", o.Kind, o.Code)
}

// Valid reports whether o names a known operator
func (o Op) Valid() bool {
	_, ok := opSymbols[o]
	return ok
}

// ParseOp maps a surface symbol back to its operator
func ParseOp(sym string) (Op, bool) {
	op, ok := symbolOps[sym]
	return op, ok
}

// Combinator returns the arithmetic operator an assignment op applies.
// Set has no combinator.
func (o Op) Combinator() (Op, bool) {
	if o.Kind != Assignment {
		return Op{}, false
	}
	switch o.Code {
	case AddSet:
		return Arith(Add), true
	case SubSet:
		return Arith(Sub), true
	case DivSet:
		return Arith(Div), true
	case MulSet:
		return Arith(Mul), true
	}
	return Op{}, false
}
