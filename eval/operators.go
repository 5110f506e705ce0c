package eval

import (
	"tandem/ast"
	"tandem/types"
)

// applyOp combines two reduced operands.
// Integer arithmetic wraps at 32 bits; division truncates toward zero.
func applyOp(op ast.Op, left, right types.Value) (types.Value, error) {
	switch op.Kind {
	case ast.Arithmetic:
		l, r, err := intOperands(op, left, right)
		if err != nil {
			return nil, err
		}
		return evalArithmetic(op.Code, l, r)

	case ast.Logical:
		l, r, err := boolOperands(op, left, right)
		if err != nil {
			return nil, err
		}
		if op.Code == ast.And {
			return types.NewBool(l && r), nil
		}
		return types.NewBool(l || r), nil

	case ast.Relational:
		switch lv := left.(type) {
		case types.IntValue:
			rv, ok := right.(types.IntValue)
			if !ok {
				return nil, mismatch(op, left, right)
			}
			return types.NewBool(compare(op.Code, int64(lv.Val), int64(rv.Val))), nil
		case types.BoolValue:
			rv, ok := right.(types.BoolValue)
			if !ok {
				return nil, mismatch(op, left, right)
			}
			// false < true
			return types.NewBool(compare(op.Code, boolRank(lv.Val), boolRank(rv.Val))), nil
		default:
			return nil, mismatch(op, left, right)
		}
	}
	return nil, types.NewError(types.E_MALFORMED, "operator %s is not a binary operator", op)
}

// evalArithmetic implements + - * / on 32-bit integers
func evalArithmetic(code ast.OpCode, l, r int32) (types.Value, error) {
	switch code {
	case ast.Add:
		return types.NewInt(l + r), nil
	case ast.Sub:
		return types.NewInt(l - r), nil
	case ast.Mul:
		return types.NewInt(l * r), nil
	case ast.Div:
		if r == 0 {
			return nil, types.NewError(types.E_DIV, "%d / 0", l)
		}
		// MinInt32 / -1 wraps to MinInt32
		return types.NewInt(l / r), nil
	}
	return nil, types.NewError(types.E_MALFORMED, "unknown arithmetic operator %d", code)
}

func compare(code ast.OpCode, l, r int64) bool {
	switch code {
	case ast.Eq:
		return l == r
	case ast.Neq:
		return l != r
	case ast.Le:
		return l <= r
	case ast.Ge:
		return l >= r
	case ast.Lt:
		return l < r
	default:
		return l > r
	}
}

func boolRank(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func intOperands(op ast.Op, left, right types.Value) (int32, int32, error) {
	l, lok := left.(types.IntValue)
	r, rok := right.(types.IntValue)
	if !lok || !rok {
		return 0, 0, mismatch(op, left, right)
	}
	return l.Val, r.Val, nil
}

func boolOperands(op ast.Op, left, right types.Value) (bool, bool, error) {
	l, lok := left.(types.BoolValue)
	r, rok := right.(types.BoolValue)
	if !lok || !rok {
		return false, false, mismatch(op, left, right)
	}
	return l.Val, r.Val, nil
}

func mismatch(op ast.Op, left, right types.Value) error {
	return types.NewError(types.E_TYPE, "%s %s %s", left, op, right)
}
