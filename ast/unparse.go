package ast

import (
	"strconv"
	"strings"
)

// Operator precedence levels (higher = tighter binding)
const (
	precedenceLowest = iota
	precedenceAssign     // = += -= ...
	precedenceOr         // ||
	precedenceAnd        // &&
	precedenceEquality   // == !=
	precedenceComparison // < <= > >=
	precedenceAdditive   // + -
	precedenceMultiply   // * /
	precedencePrimary
)

// Format renders a body back to surface syntax, one statement per line
func Format(body Body) string {
	return strings.Join(FormatLines(body), "\n")
}

// FormatLines renders each top-level statement as one or more lines
func FormatLines(body Body) []string {
	var lines []string
	for _, e := range body {
		lines = append(lines, strings.Split(unparseStmt(e, 0), "\n")...)
	}
	return lines
}

// FormatExpr renders a single node
func FormatExpr(e Expr) string {
	return unparseExpr(e, precedenceLowest)
}

func unparseStmt(e Expr, indent int) string {
	indentStr := strings.Repeat("  ", indent)

	switch s := e.(type) {
	case *Let:
		return indentStr + "let " + unparseExpr(s.Target, precedencePrimary) + ": " + s.Type.String() +
			" = " + unparseExpr(s.Init, precedenceLowest) + ";"

	case *Return:
		return indentStr + "return " + unparseExpr(s.Value, precedenceLowest) + ";"

	case *If:
		return indentStr + "if " + unparseExpr(s.Cond, precedenceLowest) + " " + unparseBlock(s.Body, indent)

	case *IfElse:
		return indentStr + "if " + unparseExpr(s.Cond, precedenceLowest) + " " + unparseBlock(s.Then, indent) +
			" else " + unparseBlock(s.Else, indent)

	case *While:
		return indentStr + "while " + unparseExpr(s.Cond, precedenceLowest) + " " + unparseBlock(s.Body, indent)

	case *FnDecl:
		var sb strings.Builder
		sb.WriteString(indentStr + "fn " + unparseExpr(s.Name, precedencePrimary) + "(")
		for i, p := range s.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(unparseExpr(p.Name, precedencePrimary) + ": " + p.Type.String())
		}
		sb.WriteString(") -> " + s.Returns.String() + " " + unparseBlock(s.Body, indent))
		return sb.String()

	default:
		return indentStr + unparseExpr(e, precedenceLowest) + ";"
	}
}

func unparseBlock(body Body, indent int) string {
	if len(body) == 0 {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, e := range body {
		sb.WriteString(unparseStmt(e, indent+1) + "\n")
	}
	sb.WriteString(strings.Repeat("  ", indent) + "}")
	return sb.String()
}

func unparseExpr(e Expr, parentPrec int) string {
	switch n := e.(type) {
	case nil:
		return "<nil>"
	case *IntLiteral:
		return strconv.FormatInt(int64(n.Value), 10)
	case *BoolLiteral:
		return strconv.FormatBool(n.Value)
	case *Identifier:
		if n.Name == "" {
			return "_"
		}
		return n.Name
	case *BinaryOp:
		// The parser encodes plain initializers as `"" = value`
		if IsSentinel(n.Left) && n.Op == Assign(Set) {
			return unparseExpr(n.Right, parentPrec)
		}
		prec := precedenceOf(n.Op)
		s := unparseExpr(n.Left, prec) + " " + n.Op.String() + " " + unparseExpr(n.Right, prec+1)
		if prec < parentPrec {
			return "(" + s + ")"
		}
		return s
	case *CompoundAssign:
		s := unparseExpr(n.Target, precedencePrimary) + " " + n.Op.String() + " " + unparseExpr(n.Value, precedenceAssign)
		if precedenceAssign < parentPrec {
			return "(" + s + ")"
		}
		return s
	case *FnCall:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = unparseExpr(a, precedenceLowest)
		}
		return unparseExpr(n.Name, precedencePrimary) + "(" + strings.Join(args, ", ") + ")"
	default:
		// statements in expression position
		return strings.TrimSuffix(strings.TrimSpace(unparseStmt(e, 0)), ";")
	}
}

func precedenceOf(op Op) int {
	switch op.Kind {
	case Assignment:
		return precedenceAssign
	case Logical:
		if op.Code == Or {
			return precedenceOr
		}
		return precedenceAnd
	case Relational:
		if op.Code == Eq || op.Code == Neq {
			return precedenceEquality
		}
		return precedenceComparison
	default:
		if op.Code == Mul || op.Code == Div {
			return precedenceMultiply
		}
		return precedenceAdditive
	}
}
