// Package backend defines the capability surface the native code generator
// lowers against: typed immediates, function-scoped storage slots, basic
// blocks, branches, phi merges, calls and a just-in-time engine.
//
// The code generator only talks to these interfaces, so an alternate
// implementation (an LLVM binding, a bytecode emitter) can be plugged in
// without touching the lowering.
package backend

import "fmt"

// Type is the machine-level type of a value
type Type int

const (
	Void Type = iota
	I1        // booleans
	I32       // integers
	Ptr       // storage slots
)

// String returns the IR spelling of the type
func (t Type) String() string {
	switch t {
	case Void:
		return "void"
	case I1:
		return "i1"
	case I32:
		return "i32"
	case Ptr:
		return "ptr"
	default:
		return fmt.Sprintf("<type %d>", int(t))
	}
}

// Bits returns the width of an integer type, 0 otherwise
func (t Type) Bits() int {
	switch t {
	case I1:
		return 1
	case I32:
		return 32
	}
	return 0
}

// BinOp is an integer binary instruction
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	SDiv
	And
	Or
)

var binOpNames = [...]string{"add", "sub", "mul", "sdiv", "and", "or"}

func (o BinOp) String() string {
	if int(o) < len(binOpNames) {
		return binOpNames[o]
	}
	return fmt.Sprintf("<binop %d>", int(o))
}

// Predicate selects the comparison an integer compare performs
type Predicate int

const (
	EQ Predicate = iota
	NE
	SLT
	SLE
	SGT
	SGE
	ULT
	ULE
	UGT
	UGE
)

var predicateNames = [...]string{"eq", "ne", "slt", "sle", "sgt", "sge", "ult", "ule", "ugt", "uge"}

func (p Predicate) String() string {
	if int(p) < len(predicateNames) {
		return predicateNames[p]
	}
	return fmt.Sprintf("<pred %d>", int(p))
}

// Value is anything an instruction can consume
type Value interface {
	Type() Type
}

// Block is a basic block of some function
type Block interface {
	Name() string
}

// Function is a function of the module being built
type Function interface {
	Name() string
	Param(i int) Value
	NumParams() int
	ParamTypes() []Type
	Returns() Type
}

// Incoming is one (value, predecessor) pair of a phi
type Incoming struct {
	Value Value
	Block Block
}

// Toolkit builds one module. The builder has a single insertion point, the
// end of the block last passed to PositionAtEnd.
type Toolkit interface {
	// ConstInt returns an immediate of integer type t
	ConstInt(t Type, v int64) Value

	// AddFunction declares a function with the given parameter and return
	// types. Names are unique within a module.
	AddFunction(name string, params []Type, ret Type) (Function, error)
	// Function finds a previously added function
	Function(name string) (Function, bool)

	AppendBlock(fn Function, name string) Block
	PositionAtEnd(b Block)
	// InsertBlock returns the block holding the insertion point
	InsertBlock() Block
	// Terminated reports whether the insertion block already ends in a
	// terminator
	Terminated() bool

	// Alloca reserves a slot of type t in the entry block of the function
	// holding the insertion point
	Alloca(t Type, name string) Value
	Load(slot Value, name string) Value
	Store(slot, v Value)

	BinOp(op BinOp, l, r Value, name string) Value
	ICmp(p Predicate, l, r Value, name string) Value
	Phi(t Type, incoming []Incoming, name string) Value
	Call(fn Function, args []Value, name string) Value

	Br(dest Block)
	CondBr(cond Value, then, els Block)
	Ret(v Value)
	Unreachable()

	// Verify checks the structural invariants of the whole module
	Verify() error
	// Engine prepares the verified module for execution
	Engine() (Engine, error)
	// String prints the module
	String() string
}

// Engine executes compiled functions
type Engine interface {
	// Run invokes the named function with integer arguments and returns its
	// integer result
	Run(name string, args ...int64) (int64, error)
	Close() error
}
