package eval

import (
	"fmt"

	"tandem/ast"
	"tandem/types"
)

// evalCondition evaluates a branch or loop condition, which must be a boolean
func (e *Evaluator) evalCondition(cond ast.Expr, what string) (bool, error) {
	v, err := e.Eval(cond)
	if err != nil {
		return false, err
	}
	b, ok := v.(types.BoolValue)
	if !ok {
		return false, types.NewError(types.E_TYPE, "%s condition must be bool, got %s", what, v)
	}
	return b.Val, nil
}

// evalIf runs the body when the condition holds; Unit otherwise
func (e *Evaluator) evalIf(n *ast.If) (types.Value, error) {
	c, err := e.evalCondition(n.Cond, "if")
	if err != nil {
		return nil, err
	}
	if c {
		return e.Run(n.Body)
	}
	return types.Unit, nil
}

// evalIfElse runs exactly one of the two bodies
func (e *Evaluator) evalIfElse(n *ast.IfElse) (types.Value, error) {
	c, err := e.evalCondition(n.Cond, "if")
	if err != nil {
		return nil, err
	}
	if c {
		return e.Run(n.Then)
	}
	return e.Run(n.Else)
}

// evalWhile tests the condition once and, if it holds, runs the body once.
// The native backend loops; this evaluator does not.
func (e *Evaluator) evalWhile(n *ast.While) (types.Value, error) {
	c, err := e.evalCondition(n.Cond, "while")
	if err != nil {
		return nil, err
	}
	if c {
		return e.Run(n.Body)
	}
	return types.Unit, nil
}

// evalFnDecl registers the function without running it
func (e *Evaluator) evalFnDecl(n *ast.FnDecl) (types.Value, error) {
	name, ok := ast.NameOf(n.Name)
	if !ok || name == "" {
		return nil, types.NewError(types.E_MALFORMED, "function name must be a named identifier")
	}
	for i, p := range n.Params {
		if pn, ok := ast.NameOf(p.Name); !ok || pn == "" {
			return nil, types.NewError(types.E_MALFORMED, "parameter %d of %s must be a named identifier", i, name)
		}
	}
	e.env.DeclareFunction(name, types.FuncValue{
		Name:    name,
		Params:  n.Params,
		Returns: n.Returns,
		Body:    n.Body,
	})
	return types.Unit, nil
}

// evalFnCall binds the arguments to the parameters and runs the body
func (e *Evaluator) evalFnCall(n *ast.FnCall) (types.Value, error) {
	name, ok := ast.NameOf(n.Name)
	if !ok || name == "" {
		return nil, types.NewError(types.E_MALFORMED, "callee must be a named identifier")
	}
	fn, err := e.env.GetFunction(name)
	if err != nil {
		return nil, err
	}
	if len(fn.Params) != len(n.Args) {
		return nil, types.NewError(types.E_ARGS, "%s takes %d arguments, got %d", name, len(fn.Params), len(n.Args))
	}

	// All arguments are evaluated before any parameter is bound
	args := make([]types.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := e.Eval(a)
		if err != nil {
			return nil, err
		}
		if !types.Matches(fn.Params[i].Type, v) {
			return nil, types.NewError(types.E_TYPE, "argument %d of %s: want %s, got %s", i, name, fn.Params[i].Type, v)
		}
		args[i] = v
	}

	e.tracer.Call(name, args)
	res, err := e.callBody(fn, args)
	if err != nil {
		e.tracer.Failure(name, err)
		return nil, fmt.Errorf("in %s: %w", name, err)
	}
	if !types.Matches(fn.Returns, res) {
		err := types.NewError(types.E_TYPE, "%s returns %s, got %s", name, fn.Returns, res)
		e.tracer.Failure(name, err)
		return nil, err
	}
	e.tracer.Return(name, res)
	return res, nil
}

func (e *Evaluator) callBody(fn types.FuncValue, args []types.Value) (types.Value, error) {
	leave := e.env.enterCall()
	defer leave()

	for i, p := range fn.Params {
		pn, _ := ast.NameOf(p.Name)
		e.env.SetVariable(pn, args[i])
	}
	return e.Run(fn.Body)
}
