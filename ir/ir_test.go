package ir

import (
	"strings"
	"testing"

	"tandem/backend"
)

// buildMax builds max(a, b) through a slot, a diamond and a marker phi
func buildMax(t *testing.T) *Module {
	t.Helper()
	m := NewModule("t")
	f, err := m.AddFunction("max", []backend.Type{backend.I32, backend.I32}, backend.I32)
	if err != nil {
		t.Fatal(err)
	}
	b := NewBuilder()
	entry := f.AppendBlock("entry")
	b.PositionAtEnd(entry)
	slot := b.Alloca(backend.I32, "x")
	b.Store(slot, f.Params[0])
	cmp := b.ICmp(backend.SGT, f.Params[0], f.Params[1], "cmp")

	then := f.AppendBlock("then")
	els := f.AppendBlock("else")
	cont := f.AppendBlock("cont")
	b.CondBr(cmp, then, els)

	b.PositionAtEnd(then)
	b.Br(cont)

	b.PositionAtEnd(els)
	b.Store(slot, f.Params[1])
	b.Br(cont)

	b.PositionAtEnd(cont)
	b.Phi(backend.I32, []PhiEdge{
		{Value: NewConst(backend.I32, 1), Block: then},
		{Value: NewConst(backend.I32, 0), Block: els},
	}, "if")
	b.Ret(b.Load(slot, "x"))
	return m
}

func TestModuleString(t *testing.T) {
	want := `; module t

define i32 @max(i32 %p0, i32 %p1) {
entry:
  %x = alloca i32
  store i32 %p0, ptr %x
  %cmp = icmp sgt i32 %p0, %p1
  br i1 %cmp, label %then, label %else

then:
  br label %cont

else:
  store i32 %p1, ptr %x
  br label %cont

cont:
  %if = phi i32 [ 1, %then ], [ 0, %else ]
  %x1 = load i32, ptr %x
  ret i32 %x1
}
`
	m := buildMax(t)
	if got := m.String(); got != want {
		t.Errorf("String():\n%s\nwant:\n%s", got, want)
	}
	if err := m.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestAllocaGoesToEntry(t *testing.T) {
	m := NewModule("t")
	f, _ := m.AddFunction("f", nil, backend.I32)
	b := NewBuilder()
	entry := f.AppendBlock("entry")
	body := f.AppendBlock("body")
	b.PositionAtEnd(entry)
	first := b.Alloca(backend.I32, "a")
	b.Br(body)

	b.PositionAtEnd(body)
	second := b.Alloca(backend.I1, "b")
	b.Ret(NewConst(backend.I32, 0))

	if entry.Instrs[0] != first || entry.Instrs[1] != second {
		t.Fatalf("allocas not hoisted into entry:\n%s", f)
	}
	if first.Slot != 0 || second.Slot != 1 || f.NumSlots != 2 {
		t.Errorf("slots %d %d of %d", first.Slot, second.Slot, f.NumSlots)
	}
	if len(body.Instrs) != 1 {
		t.Errorf("body has %d instructions", len(body.Instrs))
	}
	if err := f.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestNames(t *testing.T) {
	m := NewModule("t")
	f, _ := m.AddFunction("f", []backend.Type{backend.I32}, backend.Void)
	if _, err := m.AddFunction("f", nil, backend.Void); err == nil {
		t.Error("duplicate function accepted")
	}
	if got, ok := m.Function("f"); !ok || got != f {
		t.Error("Function(f) lookup failed")
	}

	var labels []string
	for i := 0; i < 3; i++ {
		labels = append(labels, f.AppendBlock("loop").Name())
	}
	if strings.Join(labels, " ") != "loop loop1 loop2" {
		t.Errorf("block labels %v", labels)
	}

	b := NewBuilder()
	b.PositionAtEnd(f.Entry())
	a := b.Binary(backend.Add, f.Params[0], NewConst(backend.I32, 1), "p0")
	anon := b.Binary(backend.Add, a, a, "")
	if a.Ref() != "%p01" {
		t.Errorf("clashing name printed as %s", a.Ref())
	}
	if anon.Ref() != "%2" {
		t.Errorf("anonymous value printed as %s", anon.Ref())
	}
}

func TestConstNormalize(t *testing.T) {
	tests := []struct {
		typ  backend.Type
		in   int64
		want int64
		ref  string
	}{
		{backend.I1, 1, 1, "true"},
		{backend.I1, 2, 0, "false"},
		{backend.I32, 1 << 31, -1 << 31, "-2147483648"},
		{backend.I32, -1, -1, "-1"},
		{backend.I32, 1<<32 + 5, 5, "5"},
	}
	for _, tt := range tests {
		c := NewConst(tt.typ, tt.in)
		if c.Val != tt.want || c.Ref() != tt.ref {
			t.Errorf("NewConst(%s, %d) = %d %q", tt.typ, tt.in, c.Val, c.Ref())
		}
	}
}

func TestPredecessors(t *testing.T) {
	m := buildMax(t)
	f, _ := m.Function("max")
	preds := f.Predecessors()
	cont := f.Blocks[3]
	if len(preds[cont]) != 2 || preds[cont][0].Name() != "then" || preds[cont][1].Name() != "else" {
		t.Errorf("preds(cont) = %v", preds[cont])
	}
	if len(preds[f.Entry()]) != 0 {
		t.Errorf("entry has predecessors")
	}

	// both arms of a branch to one block count once
	g, _ := m.AddFunction("g", nil, backend.Void)
	b := NewBuilder()
	entry := g.AppendBlock("entry")
	exit := g.AppendBlock("exit")
	b.PositionAtEnd(entry)
	b.CondBr(NewConst(backend.I1, 1), exit, exit)
	b.PositionAtEnd(exit)
	b.Ret(nil)
	if p := g.Predecessors()[exit]; len(p) != 1 {
		t.Errorf("preds(exit) = %v", p)
	}
}

func TestVerifyRejects(t *testing.T) {
	i32 := func(v int64) *Const { return NewConst(backend.I32, v) }

	tests := []struct {
		name  string
		build func(f *Function, b *Builder)
		want  string
	}{
		{
			name:  "no blocks",
			build: func(f *Function, b *Builder) {},
			want:  "no blocks",
		},
		{
			name: "empty block",
			build: func(f *Function, b *Builder) {
				f.AppendBlock("entry")
			},
			want: "empty block",
		},
		{
			name: "missing terminator",
			build: func(f *Function, b *Builder) {
				b.PositionAtEnd(f.AppendBlock("entry"))
				b.Binary(backend.Add, i32(1), i32(2), "")
			},
			want: "does not end in a terminator",
		},
		{
			name: "terminator mid-block",
			build: func(f *Function, b *Builder) {
				b.PositionAtEnd(f.AppendBlock("entry"))
				b.Ret(i32(0))
				b.Ret(i32(1))
			},
			want: "is not the last instruction",
		},
		{
			name: "phi missing an edge",
			build: func(f *Function, b *Builder) {
				entry := f.AppendBlock("entry")
				left := f.AppendBlock("left")
				right := f.AppendBlock("right")
				join := f.AppendBlock("join")
				b.PositionAtEnd(entry)
				b.CondBr(NewConst(backend.I1, 1), left, right)
				b.PositionAtEnd(left)
				b.Br(join)
				b.PositionAtEnd(right)
				b.Br(join)
				b.PositionAtEnd(join)
				phi := b.Phi(backend.I32, []PhiEdge{{Value: i32(1), Block: left}}, "m")
				b.Ret(phi)
			},
			want: "1 incoming edges for 2 predecessors",
		},
		{
			name: "phi edge from a non-predecessor",
			build: func(f *Function, b *Builder) {
				entry := f.AppendBlock("entry")
				join := f.AppendBlock("join")
				b.PositionAtEnd(entry)
				b.Br(join)
				b.PositionAtEnd(join)
				phi := b.Phi(backend.I32, []PhiEdge{{Value: i32(1), Block: join}}, "m")
				b.Ret(phi)
			},
			want: "is not a predecessor",
		},
		{
			name: "phi after an instruction",
			build: func(f *Function, b *Builder) {
				entry := f.AppendBlock("entry")
				join := f.AppendBlock("join")
				b.PositionAtEnd(entry)
				b.Br(join)
				b.PositionAtEnd(join)
				b.Binary(backend.Add, i32(1), i32(1), "")
				phi := b.Phi(backend.I32, []PhiEdge{{Value: i32(1), Block: entry}}, "m")
				b.Ret(phi)
			},
			want: "after a non-phi",
		},
		{
			name: "store type mismatch",
			build: func(f *Function, b *Builder) {
				b.PositionAtEnd(f.AppendBlock("entry"))
				slot := b.Alloca(backend.I32, "x")
				b.Store(slot, NewConst(backend.I1, 1))
				b.Ret(i32(0))
			},
			want: "storing i1 into a i32 slot",
		},
		{
			name: "arithmetic on i1",
			build: func(f *Function, b *Builder) {
				b.PositionAtEnd(f.AppendBlock("entry"))
				b.Binary(backend.Mul, NewConst(backend.I1, 1), NewConst(backend.I1, 1), "")
				b.Ret(i32(0))
			},
			want: "arithmetic on i1",
		},
		{
			name: "non-i1 branch condition",
			build: func(f *Function, b *Builder) {
				entry := f.AppendBlock("entry")
				exit := f.AppendBlock("exit")
				b.PositionAtEnd(entry)
				b.CondBr(i32(1), exit, exit)
				b.PositionAtEnd(exit)
				b.Ret(i32(0))
			},
			want: "branch condition is not i1",
		},
		{
			name: "return type",
			build: func(f *Function, b *Builder) {
				b.PositionAtEnd(f.AppendBlock("entry"))
				b.Ret(NewConst(backend.I1, 0))
			},
			want: "return type does not match i32",
		},
		{
			name: "call arity",
			build: func(f *Function, b *Builder) {
				b.PositionAtEnd(f.AppendBlock("entry"))
				b.Ret(b.Call(f, []Value{i32(1)}, "r"))
			},
			want: "@f takes 0 arguments, got 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModule("t")
			f, _ := m.AddFunction("f", nil, backend.I32)
			tt.build(f, NewBuilder())
			err := m.Verify()
			if err == nil {
				t.Fatalf("Verify accepted:\n%s", m)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestVerifyForeignOperand(t *testing.T) {
	m := NewModule("t")
	f, _ := m.AddFunction("f", []backend.Type{backend.I32}, backend.I32)
	g, _ := m.AddFunction("g", nil, backend.I32)
	b := NewBuilder()
	b.PositionAtEnd(f.AppendBlock("entry"))
	b.Ret(f.Params[0])
	b.PositionAtEnd(g.AppendBlock("entry"))
	b.Ret(f.Params[0])

	err := m.Verify()
	if err == nil || !strings.Contains(err.Error(), "@g:entry") || !strings.Contains(err.Error(), "another function") {
		t.Errorf("Verify = %v", err)
	}
	if err := f.Verify(); err != nil {
		t.Errorf("f alone should verify: %v", err)
	}
}
