package codegen

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kr/pretty"

	"tandem/ast"
	"tandem/eval"
	"tandem/types"
)

// outcome is what one backend made of a program
type outcome struct {
	Value types.Value
	Code  types.ErrorCode
}

func interpret(body ast.Body, opts ...eval.Option) outcome {
	v, err := eval.Run(ast.CloneBody(body), opts...)
	if err != nil {
		return outcome{Code: types.CodeOf(err)}
	}
	return outcome{Value: v}
}

func native(body ast.Body) outcome {
	v, err := Run(ast.CloneBody(body), WithStepLimit(1_000_000))
	if err != nil {
		return outcome{Code: types.CodeOf(err)}
	}
	return outcome{Value: v}
}

// comparePaths runs body through the interpreter and the native backend and
// asserts they agree on the value or on the error code
func comparePaths(t *testing.T, body ast.Body) {
	t.Helper()
	tree, jit := interpret(body), native(body)
	if diff := cmp.Diff(tree, jit); diff != "" {
		t.Errorf("backends disagree on\n%s\n(-interp +native):\n%s\ninterp: %# v\nnative: %# v",
			ast.Format(body), diff, pretty.Formatter(tree), pretty.Formatter(jit))
	}
}

var operands = []int32{math.MinInt32, -7, -1, 0, 1, 3, math.MaxInt32}

func TestParityArithmetic(t *testing.T) {
	for _, code := range []ast.OpCode{ast.Add, ast.Sub, ast.Mul, ast.Div} {
		for _, a := range operands {
			for _, b := range operands {
				comparePaths(t, ast.Body{ast.Ret(bin(lit(a), ast.Arith(code), lit(b)))})
			}
		}
	}
}

func TestParityRelational(t *testing.T) {
	codes := []ast.OpCode{ast.Eq, ast.Neq, ast.Lt, ast.Le, ast.Gt, ast.Ge}
	bools := []bool{false, true}
	for _, code := range codes {
		for _, a := range operands {
			for _, b := range operands {
				comparePaths(t, ast.Body{ast.Ret(bin(lit(a), ast.Rel(code), lit(b)))})
			}
		}
		for _, a := range bools {
			for _, b := range bools {
				comparePaths(t, ast.Body{ast.Ret(bin(ast.NewBool(a), ast.Rel(code), ast.NewBool(b)))})
			}
		}
	}
}

func TestParityLogical(t *testing.T) {
	for _, code := range []ast.OpCode{ast.And, ast.Or} {
		for _, a := range []bool{false, true} {
			for _, b := range []bool{false, true} {
				comparePaths(t, ast.Body{ast.Ret(bin(ast.NewBool(a), ast.Logic(code), ast.NewBool(b)))})
			}
		}
	}
}

func TestParityPrograms(t *testing.T) {
	fact := ast.Fn("fact", []ast.Param{ast.P("n", ast.Int)}, ast.Int,
		&ast.IfElse{
			Cond: bin(ast.Ident("n"), ast.Rel(ast.Le), lit(1)),
			Then: ast.Body{ast.Ret(lit(1))},
			Else: ast.Body{ast.Ret(bin(ast.Ident("n"), ast.Arith(ast.Mul),
				ast.Call("fact", bin(ast.Ident("n"), ast.Arith(ast.Sub), lit(1)))))},
		},
	)
	id := ast.Fn("id", []ast.Param{ast.P("n", ast.Int)}, ast.Int, ast.Ret(ast.Ident("n")))

	programs := map[string]ast.Body{
		"let and update": {
			ast.LetInit("x", ast.Int, lit(1)),
			update("x", ast.AddSet, lit(2)),
			ast.Ret(ast.Ident("x")),
		},
		"nested arithmetic": {
			ast.Ret(bin(bin(lit(2), ast.Arith(ast.Add), lit(3)), ast.Arith(ast.Mul), bin(lit(10), ast.Arith(ast.Sub), lit(4)))),
		},
		"bool variable": {
			ast.LetInit("b", ast.Bool, bin(lit(3), ast.Rel(ast.Ge), lit(3))),
			ast.Ret(bin(ast.Ident("b"), ast.Logic(ast.And), ast.NewBool(true))),
		},
		"if taken as last statement": {
			&ast.If{Cond: ast.NewBool(true), Body: ast.Body{ast.Ret(lit(1))}},
		},
		"if else": {
			ast.LetInit("x", ast.Int, lit(9)),
			&ast.IfElse{
				Cond: bin(ast.Ident("x"), ast.Rel(ast.Gt), lit(5)),
				Then: ast.Body{ast.Ret(ast.Ident("x"))},
				Else: ast.Body{ast.Ret(lit(0))},
			},
		},
		"identity": {id, ast.Ret(ast.Call("id", lit(5)))},
		"factorial": {fact, ast.Ret(ast.Call("fact", lit(6)))},
		"sentinel initializer": {ast.Ret(bin(ast.Ident(""), ast.Assign(ast.Set), lit(7)))},
		"division by zero": {ast.Ret(bin(lit(1), ast.Arith(ast.Div), lit(0)))},
		"unbound variable": {ast.Ret(ast.Ident("ghost"))},
		"unbound function": {ast.Ret(ast.Call("ghost"))},
		"arity": {id, ast.Ret(ast.Call("id", lit(1), lit(2)))},
		"argument type": {id, ast.Ret(ast.Call("id", ast.NewBool(false)))},
		"operand types": {ast.Ret(bin(ast.NewBool(true), ast.Arith(ast.Add), lit(1)))},
		"condition type": {&ast.If{Cond: lit(1), Body: ast.Body{ast.Ret(lit(1))}}},
		"assignment as operator": {ast.Ret(bin(lit(1), ast.Assign(ast.Set), lit(2)))},
		"let in a taken branch": {
			ast.LetInit("x", ast.Int, lit(1)),
			&ast.If{Cond: ast.NewBool(true), Body: ast.Body{
				ast.LetInit("x", ast.Int, bin(ast.Ident("x"), ast.Arith(ast.Add), lit(1))),
			}},
			ast.Ret(ast.Ident("x")),
		},
		"let in an untaken branch": {
			ast.LetInit("x", ast.Int, lit(1)),
			&ast.If{Cond: ast.NewBool(false), Body: ast.Body{ast.LetInit("x", ast.Int, lit(2))}},
			ast.Ret(ast.Ident("x")),
		},
		"let in the branch not taken by if else": {
			ast.LetInit("x", ast.Int, lit(1)),
			&ast.IfElse{
				Cond: ast.NewBool(true),
				Then: ast.Body{update("x", ast.AddSet, lit(10))},
				Else: ast.Body{ast.LetInit("x", ast.Int, lit(2))},
			},
			ast.Ret(ast.Ident("x")),
		},
		"sentinel on the right": {
			ast.LetInit("x", ast.Int, lit(4)),
			ast.Ret(bin(ast.Ident("x"), ast.Arith(ast.Add), ast.Ident(""))),
		},
		"sentinel on both sides": {ast.Ret(bin(ast.Ident(""), ast.Assign(ast.Set), ast.Ident("")))},
		"sentinel against a bool": {ast.Ret(bin(ast.NewBool(true), ast.Logic(ast.And), ast.Ident("")))},
	}
	for name, body := range programs {
		t.Run(name, func(t *testing.T) {
			comparePaths(t, body)
		})
	}
}

// The backends differ on purpose in how Return, While and recursion behave.
// Each case pins both sides.
func TestDivergences(t *testing.T) {
	aliasing := ast.Body{
		ast.Fn("inner", []ast.Param{ast.P("n", ast.Int)}, ast.Int, ast.Ret(ast.Ident("n"))),
		ast.Fn("outer", []ast.Param{ast.P("n", ast.Int)}, ast.Int,
			ast.LetInit("r", ast.Int, ast.Call("inner", lit(1))),
			ast.Ret(ast.Ident("n")),
		),
		ast.Ret(ast.Call("outer", lit(5))),
	}

	tests := []struct {
		name   string
		body   ast.Body
		interp outcome
		native outcome
		opts   []eval.Option
	}{
		{
			name:   "return does not escape the interpreter",
			body:   ast.Body{ast.Ret(lit(1)), ast.Ret(lit(2))},
			interp: outcome{Value: types.NewInt(2)},
			native: outcome{Value: types.NewInt(1)},
		},
		{
			name:   "untaken if",
			body:   ast.Body{&ast.If{Cond: ast.NewBool(false), Body: ast.Body{ast.Ret(lit(1))}}},
			interp: outcome{Value: types.Unit},
			native: outcome{Value: types.NewInt(0)},
		},
		{
			name: "while runs once in the interpreter",
			body: ast.Body{
				ast.LetInit("i", ast.Int, lit(0)),
				&ast.While{
					Cond: bin(ast.Ident("i"), ast.Rel(ast.Lt), lit(5)),
					Body: ast.Body{update("i", ast.AddSet, lit(1))},
				},
				ast.Ret(ast.Ident("i")),
			},
			interp: outcome{Value: types.NewInt(1)},
			native: outcome{Value: types.NewInt(5)},
		},
		{
			name: "let accumulates across loop passes",
			body: ast.Body{
				ast.LetInit("i", ast.Int, lit(0)),
				ast.LetInit("s", ast.Int, lit(0)),
				&ast.While{
					Cond: bin(ast.Ident("i"), ast.Rel(ast.Lt), lit(3)),
					Body: ast.Body{
						ast.LetInit("s", ast.Int, bin(ast.Ident("s"), ast.Arith(ast.Add), lit(10))),
						update("i", ast.AddSet, lit(1)),
					},
				},
				ast.Ret(ast.Ident("s")),
			},
			interp: outcome{Value: types.NewInt(10)},
			native: outcome{Value: types.NewInt(30)},
		},
		{
			name:   "flat scoping aliases parameters",
			body:   aliasing,
			interp: outcome{Value: types.NewInt(1)},
			native: outcome{Value: types.NewInt(5)},
		},
		{
			name:   "frames match native activations",
			body:   aliasing,
			opts:   []eval.Option{eval.WithScoping(eval.ScopeFrames)},
			interp: outcome{Value: types.NewInt(5)},
			native: outcome{Value: types.NewInt(5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.interp, interpret(tt.body, tt.opts...)); diff != "" {
				t.Errorf("interpreter (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.native, native(tt.body)); diff != "" {
				t.Errorf("native (-want +got):\n%s", diff)
			}
		})
	}
}

// A body ending in Return(e) yields e on both backends when nothing
// before it returns
func TestParityFinalReturn(t *testing.T) {
	prefix := ast.Body{
		ast.LetInit("a", ast.Int, lit(6)),
		ast.LetInit("b", ast.Int, lit(-4)),
		update("a", ast.MulSet, ast.Ident("b")),
	}
	finals := []ast.Expr{
		ast.Ident("a"),
		bin(ast.Ident("a"), ast.Arith(ast.Div), ast.Ident("b")),
		bin(ast.Ident("a"), ast.Rel(ast.Lt), ast.Ident("b")),
		bin(bin(ast.Ident("a"), ast.Rel(ast.Neq), lit(0)), ast.Logic(ast.Or), ast.NewBool(false)),
	}
	for _, final := range finals {
		body := append(ast.CloneBody(prefix), ast.Ret(final))
		comparePaths(t, body)
	}
}
