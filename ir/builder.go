package ir

import "tandem/backend"

// Builder appends instructions at the end of its current block
type Builder struct {
	block *Block
}

// NewBuilder creates a builder with no insertion point
func NewBuilder() *Builder {
	return &Builder{}
}

// PositionAtEnd moves the insertion point to the end of b
func (b *Builder) PositionAtEnd(bl *Block) {
	b.block = bl
}

// Block returns the insertion block
func (b *Builder) Block() *Block {
	return b.block
}

// Terminated reports whether the insertion block is closed
func (b *Builder) Terminated() bool {
	return b.block != nil && b.block.Terminator() != nil
}

func (b *Builder) insert(in *Instr) *Instr {
	if b.block == nil {
		panic("ir: builder has no insertion block")
	}
	f := b.block.Func
	in.Block = b.block
	in.ID = -1
	if in.Typ != backend.Void {
		in.ID = f.newReg()
	}
	in.Name = f.valueName(in.Name)
	b.block.Instrs = append(b.block.Instrs, in)
	return in
}

// Alloca reserves a slot in the entry block, after any earlier slots
func (b *Builder) Alloca(t backend.Type, name string) *Instr {
	f := b.block.Func
	entry := f.Entry()
	in := &Instr{
		Op:    OpAlloca,
		ID:    f.newReg(),
		Typ:   backend.Ptr,
		Name:  f.valueName(name),
		Elem:  t,
		Slot:  f.NumSlots,
		Block: entry,
	}
	f.NumSlots++

	at := f.nallocas
	entry.Instrs = append(entry.Instrs, nil)
	copy(entry.Instrs[at+1:], entry.Instrs[at:])
	entry.Instrs[at] = in
	f.nallocas++
	return in
}

// Load reads a slot
func (b *Builder) Load(slot *Instr, name string) *Instr {
	return b.insert(&Instr{Op: OpLoad, Typ: slot.Elem, Name: name, Args: []Value{slot}})
}

// Store writes v into a slot
func (b *Builder) Store(slot *Instr, v Value) *Instr {
	return b.insert(&Instr{Op: OpStore, Typ: backend.Void, Args: []Value{slot, v}})
}

// Binary emits an integer binary operation typed after its left operand
func (b *Builder) Binary(op backend.BinOp, l, r Value, name string) *Instr {
	return b.insert(&Instr{Op: OpBinary, Typ: l.Type(), BinOp: op, Name: name, Args: []Value{l, r}})
}

// ICmp emits an integer comparison yielding i1
func (b *Builder) ICmp(p backend.Predicate, l, r Value, name string) *Instr {
	return b.insert(&Instr{Op: OpICmp, Typ: backend.I1, Pred: p, Name: name, Args: []Value{l, r}})
}

// Phi emits a merge. Phis must precede every other instruction of their block.
func (b *Builder) Phi(t backend.Type, incoming []PhiEdge, name string) *Instr {
	return b.insert(&Instr{Op: OpPhi, Typ: t, Name: name, Incoming: incoming})
}

// Call emits a direct call
func (b *Builder) Call(fn *Function, args []Value, name string) *Instr {
	if fn.Ret == backend.Void {
		name = ""
	}
	return b.insert(&Instr{Op: OpCall, Typ: fn.Ret, Callee: fn, Name: name, Args: args})
}

// Br emits an unconditional branch
func (b *Builder) Br(dest *Block) *Instr {
	return b.insert(&Instr{Op: OpBr, Typ: backend.Void, Targets: []*Block{dest}})
}

// CondBr branches to then when cond is true, els otherwise
func (b *Builder) CondBr(cond Value, then, els *Block) *Instr {
	return b.insert(&Instr{Op: OpCondBr, Typ: backend.Void, Args: []Value{cond}, Targets: []*Block{then, els}})
}

// Ret returns v, or nothing when v is nil
func (b *Builder) Ret(v Value) *Instr {
	in := &Instr{Op: OpRet, Typ: backend.Void}
	if v != nil {
		in.Args = []Value{v}
	}
	return b.insert(in)
}

// Unreachable marks the end of a block control never reaches
func (b *Builder) Unreachable() *Instr {
	return b.insert(&Instr{Op: OpUnreachable, Typ: backend.Void})
}
