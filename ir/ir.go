// Package ir is an SSA intermediate representation: modules of functions,
// functions of basic blocks, blocks of instructions ending in exactly one
// terminator. Values are immediates, parameters or instruction results.
package ir

import (
	"fmt"
	"strconv"

	"tandem/backend"
)

// Opcode identifies an instruction
type Opcode int

const (
	OpAlloca Opcode = iota
	OpLoad
	OpStore
	OpBinary
	OpICmp
	OpPhi
	OpCall
	OpBr
	OpCondBr
	OpRet
	OpUnreachable
)

// IsTerminator reports whether op ends a basic block
func (op Opcode) IsTerminator() bool {
	return op == OpBr || op == OpCondBr || op == OpRet || op == OpUnreachable
}

// Value is an operand of an instruction
type Value interface {
	backend.Value
	// Ref returns the operand as printed in IR text
	Ref() string
}

// Const is an integer immediate
type Const struct {
	Typ backend.Type
	Val int64
}

// NewConst builds an immediate, truncated to the width of t
func NewConst(t backend.Type, v int64) *Const {
	return &Const{Typ: t, Val: Normalize(t, v)}
}

func (c *Const) Type() backend.Type { return c.Typ }

func (c *Const) Ref() string {
	if c.Typ == backend.I1 {
		return strconv.FormatBool(c.Val != 0)
	}
	return strconv.FormatInt(c.Val, 10)
}

// Param is a function argument
type Param struct {
	Typ   backend.Type
	Name  string
	Index int
	ID    int // register number
	Func  *Function
}

func (p *Param) Type() backend.Type { return p.Typ }
func (p *Param) Ref() string        { return "%" + p.Name }

// PhiEdge is one incoming (value, predecessor) pair
type PhiEdge struct {
	Value Value
	Block *Block
}

// Instr is a single instruction. Which fields are meaningful depends on Op.
type Instr struct {
	Op   Opcode
	ID   int // register number, -1 when the instruction yields nothing
	Typ  backend.Type
	Name string

	Args     []Value
	BinOp    backend.BinOp
	Pred     backend.Predicate
	Elem     backend.Type // slot type of an alloca
	Slot     int          // slot index of an alloca
	Callee   *Function
	Targets  []*Block
	Incoming []PhiEdge

	Block *Block
}

func (in *Instr) Type() backend.Type { return in.Typ }

func (in *Instr) Ref() string {
	if in.Name != "" {
		return "%" + in.Name
	}
	return "%" + strconv.Itoa(in.ID)
}

// Block is a basic block
type Block struct {
	label  string
	Instrs []*Instr
	Func   *Function
	Index  int
}

func (b *Block) Name() string { return b.label }

// Terminator returns the block's final instruction if it is a terminator
func (b *Block) Terminator() *Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	last := b.Instrs[len(b.Instrs)-1]
	if !last.Op.IsTerminator() {
		return nil
	}
	return last
}

// Successors returns the blocks control may transfer to from b
func (b *Block) Successors() []*Block {
	if t := b.Terminator(); t != nil {
		return t.Targets
	}
	return nil
}

// Function is a function definition
type Function struct {
	name     string
	Params   []*Param
	Ret      backend.Type
	Blocks   []*Block
	Module   *Module
	NumRegs  int
	NumSlots int

	nallocas   int
	valueNames map[string]int
	blockNames map[string]int
}

func (f *Function) Name() string { return f.name }

func (f *Function) Param(i int) backend.Value { return f.Params[i] }

func (f *Function) NumParams() int { return len(f.Params) }

func (f *Function) ParamTypes() []backend.Type {
	out := make([]backend.Type, len(f.Params))
	for i, p := range f.Params {
		out[i] = p.Typ
	}
	return out
}

func (f *Function) Returns() backend.Type { return f.Ret }

// Entry returns the first block, or nil before any block is appended
func (f *Function) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// AppendBlock adds a new empty block at the end of f
func (f *Function) AppendBlock(name string) *Block {
	b := &Block{
		label: uniqueName(f.blockNames, name),
		Func:  f,
		Index: len(f.Blocks),
	}
	f.Blocks = append(f.Blocks, b)
	return b
}

// Predecessors maps every block to the blocks branching into it, in block order
func (f *Function) Predecessors() map[*Block][]*Block {
	preds := make(map[*Block][]*Block, len(f.Blocks))
	for _, b := range f.Blocks {
		seen := make(map[*Block]bool)
		for _, s := range b.Successors() {
			if seen[s] {
				continue
			}
			seen[s] = true
			preds[s] = append(preds[s], b)
		}
	}
	return preds
}

func (f *Function) newReg() int {
	id := f.NumRegs
	f.NumRegs++
	return id
}

func (f *Function) valueName(name string) string {
	if name == "" {
		return ""
	}
	return uniqueName(f.valueNames, name)
}

// uniqueName returns name, or name with a numeric suffix if it is taken
func uniqueName(used map[string]int, name string) string {
	n, taken := used[name]
	used[name] = n + 1
	if !taken {
		return name
	}
	for {
		candidate := name + strconv.Itoa(n)
		if _, clash := used[candidate]; !clash {
			used[candidate] = 1
			return candidate
		}
		n++
		used[name] = n + 1
	}
}

// Module is a set of functions
type Module struct {
	Name      string
	Functions []*Function
	byName    map[string]*Function
}

// NewModule creates an empty module
func NewModule(name string) *Module {
	return &Module{Name: name, byName: make(map[string]*Function)}
}

// AddFunction declares a new function. Parameters are named p0, p1, ...
func (m *Module) AddFunction(name string, params []backend.Type, ret backend.Type) (*Function, error) {
	if _, exists := m.byName[name]; exists {
		return nil, fmt.Errorf("function @%s already defined", name)
	}
	f := &Function{
		name:       name,
		Ret:        ret,
		Module:     m,
		valueNames: make(map[string]int),
		blockNames: make(map[string]int),
	}
	for i, t := range params {
		p := &Param{Typ: t, Index: i, ID: f.newReg(), Func: f}
		p.Name = f.valueName("p" + strconv.Itoa(i))
		f.Params = append(f.Params, p)
	}
	m.Functions = append(m.Functions, f)
	m.byName[name] = f
	return f, nil
}

// Function looks up a function by name
func (m *Module) Function(name string) (*Function, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// Normalize truncates v to the width of t, sign-extending i32
func Normalize(t backend.Type, v int64) int64 {
	switch t {
	case backend.I1:
		return v & 1
	case backend.I32:
		return int64(int32(v))
	}
	return v
}
