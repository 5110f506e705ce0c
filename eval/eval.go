package eval

import (
	"tandem/ast"
	"tandem/trace"
	"tandem/types"
)

// Evaluator walks the AST and evaluates it against a binding store
type Evaluator struct {
	env    *Environment
	tracer *trace.Tracer
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithEnvironment evaluates against an existing store
func WithEnvironment(env *Environment) Option {
	return func(e *Evaluator) { e.env = env }
}

// WithScoping selects the call scoping of a fresh store
func WithScoping(s Scoping) Option {
	return func(e *Evaluator) { e.env = NewEnvironmentWithScoping(s) }
}

// WithTracer reports calls and returns to t
func WithTracer(t *trace.Tracer) Option {
	return func(e *Evaluator) { e.tracer = t }
}

// NewEvaluator creates a new evaluator with a fresh flat environment
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{env: NewEnvironment()}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracer == nil {
		e.tracer = trace.Global()
	}
	return e
}

// Env returns the evaluator's binding store
func (e *Evaluator) Env() *Environment {
	return e.env
}

// Run evaluates a program body with a fresh evaluator
func Run(body ast.Body, opts ...Option) (types.Value, error) {
	return NewEvaluator(opts...).Run(body)
}

// Run evaluates every expression of body in order and returns the value of
// the last one. Unit for an empty body.
//
// Return does not stop evaluation of later siblings: a body's value is
// always its final expression's value.
func (e *Evaluator) Run(body ast.Body) (types.Value, error) {
	var res types.Value = types.Unit
	for _, expr := range body {
		v, err := e.Eval(expr)
		if err != nil {
			return nil, err
		}
		res = v
	}
	return res, nil
}

// Eval evaluates a single node
func (e *Evaluator) Eval(expr ast.Expr) (types.Value, error) {
	switch n := expr.(type) {
	case *ast.IntLiteral:
		return types.NewInt(n.Value), nil
	case *ast.BoolLiteral:
		return types.NewBool(n.Value), nil
	case *ast.Identifier:
		return e.evalIdentifier(n)
	case *ast.BinaryOp:
		return e.evalBinary(n)
	case *ast.CompoundAssign:
		return e.evalCompoundAssign(n)
	case *ast.Let:
		return e.evalLet(n)
	case *ast.If:
		return e.evalIf(n)
	case *ast.IfElse:
		return e.evalIfElse(n)
	case *ast.While:
		return e.evalWhile(n)
	case *ast.FnDecl:
		return e.evalFnDecl(n)
	case *ast.FnCall:
		return e.evalFnCall(n)
	case *ast.Return:
		// pass-through; see Run
		return e.Eval(n.Value)
	case nil:
		return nil, types.NewError(types.E_MALFORMED, "missing expression")
	default:
		return nil, types.NewError(types.E_MALFORMED, "unknown node %T", expr)
	}
}

// evalIdentifier looks up a variable by name.
// The empty name is the parser's "no value yet" marker.
func (e *Evaluator) evalIdentifier(n *ast.Identifier) (types.Value, error) {
	if n.Name == "" {
		return types.NameValue{}, nil
	}
	return e.env.GetVariable(n.Name)
}

// evalBinary evaluates both operands (never short-circuiting) and applies
// the operator
func (e *Evaluator) evalBinary(n *ast.BinaryOp) (types.Value, error) {
	left, err := e.evalOperand(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.evalOperand(n.Right)
	if err != nil {
		return nil, err
	}

	// On the right the marker reads as 0, like a fresh native slot
	if _, unresolved := right.(types.NameValue); unresolved {
		right = types.NewInt(0)
	}
	// `"" = v` and friends: nothing on the left yet, the right side wins
	if _, unresolved := left.(types.NameValue); unresolved {
		return right, nil
	}
	if n.Op.Kind == ast.Assignment {
		return nil, types.NewError(types.E_MALFORMED, "assignment %s used as a binary operator", n.Op)
	}
	return applyOp(n.Op, left, right)
}

// evalOperand reduces one side of a binary operator by its shape
func (e *Evaluator) evalOperand(x ast.Expr) (types.Value, error) {
	switch n := x.(type) {
	case *ast.IntLiteral:
		return types.NewInt(n.Value), nil
	case *ast.BoolLiteral:
		return types.NewBool(n.Value), nil
	case *ast.Identifier:
		return e.evalIdentifier(n)
	case *ast.BinaryOp:
		return e.evalBinary(n)
	default:
		v, err := e.Eval(x)
		if err != nil {
			return nil, err
		}
		if v.Kind() != types.KIND_INT && v.Kind() != types.KIND_BOOL {
			return nil, types.NewError(types.E_TYPE, "operand %s has no value", ast.FormatExpr(x))
		}
		return v, nil
	}
}

// evalCompoundAssign updates or combines with the target's current binding
func (e *Evaluator) evalCompoundAssign(n *ast.CompoundAssign) (types.Value, error) {
	name, ok := ast.NameOf(n.Target)
	if !ok || name == "" {
		return nil, types.NewError(types.E_MALFORMED, "assignment target must be a named identifier")
	}

	if n.Op == ast.Assign(ast.Set) {
		v, err := e.Eval(n.Value)
		if err != nil {
			return nil, err
		}
		if v.Kind() != types.KIND_INT && v.Kind() != types.KIND_BOOL {
			return nil, types.NewError(types.E_TYPE, "cannot assign %s to %q", v, name)
		}
		e.env.Assign(name, v)
		return types.Unit, nil
	}

	old, err := e.env.GetVariable(name)
	if err != nil {
		return nil, err
	}
	rhs, err := e.evalOperand(n.Value)
	if err != nil {
		return nil, err
	}

	combine, isUpdate := n.Op.Combinator()
	if !isUpdate {
		// x == false, x + 1: read-only combination, no write back
		if n.Op.Kind == ast.Assignment {
			return nil, types.NewError(types.E_MALFORMED, "unknown assignment %s", n.Op)
		}
		return applyOp(n.Op, old, rhs)
	}

	if _, ok := old.(types.IntValue); !ok {
		return nil, types.NewError(types.E_TYPE, "%s needs %q bound to an integer, have %s", n.Op, name, old)
	}
	v, err := applyOp(combine, old, rhs)
	if err != nil {
		return nil, err
	}
	e.env.Assign(name, v)
	return types.Unit, nil
}

// evalLet binds the initializer's value to the target name
func (e *Evaluator) evalLet(n *ast.Let) (types.Value, error) {
	name, ok := ast.NameOf(n.Target)
	if !ok || name == "" {
		return nil, types.NewError(types.E_MALFORMED, "let target must be a named identifier")
	}
	v, err := e.Eval(n.Init)
	if err != nil {
		return nil, err
	}
	if !types.Matches(n.Type, v) {
		return nil, types.NewError(types.E_TYPE, "let %s: %s initialized with %s", name, n.Type, v)
	}
	e.env.SetVariable(name, v)
	return types.Unit, nil
}
