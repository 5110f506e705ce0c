package ast

import (
	"strings"
	"testing"
)

func sampleProgram() Body {
	return Body{
		Fn("add", []Param{P("a", Int), P("b", Int)}, Int,
			Ret(Binary(Ident("a"), Arith(Add), Ident("b"))),
		),
		Fn("main", nil, Int,
			LetInit("x", Int, Call("add", NewInt(1), NewInt(2))),
			&CompoundAssign{Target: Ident("x"), Op: Assign(AddSet), Value: NewInt(4)},
			&IfElse{
				Cond: Binary(Ident("x"), Rel(Gt), NewInt(5)),
				Then: Body{Ret(Ident("x"))},
				Else: Body{Ret(NewInt(0))},
			},
		),
	}
}

func TestDecodeProgram(t *testing.T) {
	src := `
- fn:
    name: add
    params: [{name: a, type: i32}, {name: b, type: i32}]
    returns: i32
    body:
      - return: {binary: [a, "+", b]}
- fn:
    name: main
    returns: i32
    body:
      - let: {name: x, type: i32, value: {call: {name: add, args: [1, 2]}}}
      - assign: [x, "+=", 4]
      - if:
          cond: {binary: [x, ">", 5]}
          then: [{return: x}]
          else: [{return: 0}]
`
	got, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if want := sampleProgram(); !EqualBody(got, want) {
		t.Errorf("decoded tree differs:\n%s\nwant:\n%s", Format(got), Format(want))
	}
}

func TestDecodeShorthand(t *testing.T) {
	got, err := Decode([]byte(`
- let: {name: flag, type: bool, value: true}
- while: {cond: flag, body: [{return: false}]}
- if: {cond: {bool: false}, then: [{return: {int: -3}}]}
- ident: flag
`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := Body{
		LetInit("flag", Bool, NewBool(true)),
		&While{Cond: Ident("flag"), Body: Body{Ret(NewBool(false))}},
		&If{Cond: NewBool(false), Body: Body{Ret(NewInt(-3))}},
		Ident("flag"),
	}
	if !EqualBody(got, want) {
		t.Errorf("decoded tree differs:\n%s\nwant:\n%s", Format(got), Format(want))
	}
}

func TestDecodeEmpty(t *testing.T) {
	for _, src := range []string{"", "[]", "~"} {
		body, err := Decode([]byte(src))
		if err != nil {
			t.Errorf("Decode(%q): %v", src, err)
		}
		if len(body) != 0 {
			t.Errorf("Decode(%q) = %d expressions", src, len(body))
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown operator", `- binary: [1, "%", 2]`, "unknown operator"},
		{"unknown expression", `- loop: {}`, "unknown expression"},
		{"unknown field", `- let: {name: x, type: i32, value: 1, mut: true}`, "unknown field"},
		{"bad type", `- let: {name: x, type: float, value: 1}`, "unknown type"},
		{"out of range", `- int: 4294967296`, "out of range"},
		{"two keys", `- {int: 1, bool: true}`, "exactly one key"},
		{"missing value", `- let: {name: x, type: i32}`, "missing value"},
		{"not a sequence", `int: 1`, "sequence"},
		{"nameless call", `- call: {args: [1]}`, "missing name"},
		{"nameless parameter", `- fn: {name: f, params: [{type: i32}], returns: i32}`, "missing name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.src))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	want := strings.Join([]string{
		"fn add(a: i32, b: i32) -> i32 {",
		"  return a + b;",
		"}",
		"fn main() -> i32 {",
		"  let x: i32 = add(1, 2);",
		"  x += 4;",
		"  if x > 5 {",
		"    return x;",
		"  } else {",
		"    return 0;",
		"  }",
		"}",
	}, "\n")
	if got := Format(sampleProgram()); got != want {
		t.Errorf("Format:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatPrecedence(t *testing.T) {
	tests := []struct {
		expr Expr
		want string
	}{
		{Binary(Binary(NewInt(1), Arith(Add), NewInt(2)), Arith(Mul), NewInt(3)), "(1 + 2) * 3"},
		{Binary(NewInt(1), Arith(Add), Binary(NewInt(2), Arith(Mul), NewInt(3))), "1 + 2 * 3"},
		{Binary(NewInt(1), Arith(Sub), Binary(NewInt(2), Arith(Sub), NewInt(3))), "1 - (2 - 3)"},
		{Binary(NewBool(true), Logic(Or), Binary(NewBool(false), Logic(And), NewBool(true))), "true || false && true"},
		{Binary(Ident(""), Assign(Set), NewInt(7)), "7"},
		{Ident(""), "_"},
		{Call("f"), "f()"},
	}
	for _, tt := range tests {
		if got := FormatExpr(tt.expr); got != tt.want {
			t.Errorf("FormatExpr = %q, want %q", got, tt.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := sampleProgram()
	cp := CloneBody(orig)
	if !EqualBody(orig, cp) {
		t.Fatal("clone differs from original")
	}

	main := cp[1].(*FnDecl)
	main.Body[0].(*Let).Target.(*Identifier).Name = "y"
	if EqualBody(orig, cp) {
		t.Error("mutating the clone changed the original")
	}
	if name, _ := NameOf(orig[1].(*FnDecl).Body[0].(*Let).Target); name != "x" {
		t.Errorf("original let target is %q", name)
	}
}

func TestEqualDistinguishesShapes(t *testing.T) {
	pairs := [][2]Expr{
		{NewInt(1), NewBool(true)},
		{NewInt(1), NewInt(2)},
		{Ident("a"), Ident("b")},
		{Binary(NewInt(1), Arith(Add), NewInt(2)), Binary(NewInt(1), Arith(Sub), NewInt(2))},
		{&If{Cond: NewBool(true)}, &While{Cond: NewBool(true)}},
		{Call("f", NewInt(1)), Call("f")},
		{Fn("f", nil, Int), Fn("f", nil, Bool)},
		{Fn("f", []Param{P("a", Int)}, Int), Fn("f", []Param{P("a", Bool)}, Int)},
	}
	for _, p := range pairs {
		if Equal(p[0], p[1]) {
			t.Errorf("%s and %s compare equal", FormatExpr(p[0]), FormatExpr(p[1]))
		}
	}
}

func TestOps(t *testing.T) {
	for _, sym := range []string{"+", "-", "*", "/", "=", "+=", "-=", "*=", "/=", "&&", "||", "==", "!=", "<=", ">=", "<", ">"} {
		op, ok := ParseOp(sym)
		if !ok {
			t.Errorf("ParseOp(%q) failed", sym)
			continue
		}
		if !op.Valid() || op.String() != sym {
			t.Errorf("%q round-tripped to %q", sym, op.String())
		}
	}
	if _, ok := ParseOp("%"); ok {
		t.Error("ParseOp accepted %")
	}

	combos := map[OpCode]Op{AddSet: Arith(Add), SubSet: Arith(Sub), MulSet: Arith(Mul), DivSet: Arith(Div)}
	for code, want := range combos {
		got, ok := Assign(code).Combinator()
		if !ok || got != want {
			t.Errorf("%s.Combinator() = %v, %v", Assign(code), got, ok)
		}
	}
	if _, ok := Assign(Set).Combinator(); ok {
		t.Error("= has no combinator")
	}
	if _, ok := Arith(Add).Combinator(); ok {
		t.Error("+ is not an assignment")
	}
}

func TestTypeString(t *testing.T) {
	if Int.String() != "i32" || Bool.String() != "bool" {
		t.Errorf("unexpected spellings %q %q", Int, Bool)
	}
}
