package eval

import (
	"sort"

	"tandem/types"
)

// Scoping selects how function calls bind their parameters
type Scoping int

const (
	// ScopeFlat keeps a single variable table for the whole run. Calls bind
	// parameters into it, so re-entrant calls clobber each other's bindings.
	ScopeFlat Scoping = iota
	// ScopeFrames gives every call its own activation frame whose parent is
	// the global frame.
	ScopeFrames
)

func (s Scoping) String() string {
	if s == ScopeFrames {
		return "frames"
	}
	return "flat"
}

// Frame holds the variable bindings of one activation
type Frame struct {
	vars   map[string]types.Value
	parent *Frame
}

func newFrame(parent *Frame) *Frame {
	return &Frame{vars: make(map[string]types.Value), parent: parent}
}

// Environment is the binding store: names to values and names to functions.
// Blocks and loop bodies never introduce frames.
type Environment struct {
	global  *Frame
	current *Frame
	funcs   map[string]types.FuncValue
	scoping Scoping
	depth   int
}

// NewEnvironment creates an empty flat store
func NewEnvironment() *Environment {
	return NewEnvironmentWithScoping(ScopeFlat)
}

// NewEnvironmentWithScoping creates an empty store using the given call scoping
func NewEnvironmentWithScoping(s Scoping) *Environment {
	g := newFrame(nil)
	return &Environment{
		global:  g,
		current: g,
		funcs:   make(map[string]types.FuncValue),
		scoping: s,
	}
}

// Scoping returns the store's call scoping mode
func (e *Environment) Scoping() Scoping {
	return e.scoping
}

// SetVariable binds name in the current frame, overwriting any binding there
func (e *Environment) SetVariable(name string, value types.Value) {
	e.current.vars[name] = value
}

// Assign overwrites the nearest existing binding of name, or binds it in
// the current frame when there is none
func (e *Environment) Assign(name string, value types.Value) {
	for f := e.current; f != nil; f = f.parent {
		if _, ok := f.vars[name]; ok {
			f.vars[name] = value
			return
		}
	}
	e.current.vars[name] = value
}

// GetVariable looks up a variable by name.
// Searches the current frame, then its parents.
func (e *Environment) GetVariable(name string) (types.Value, error) {
	for f := e.current; f != nil; f = f.parent {
		if val, ok := f.vars[name]; ok {
			return val, nil
		}
	}
	return nil, types.NewError(types.E_UNBOUND, "variable %q is not bound", name)
}

// DeclareFunction registers fn under name, replacing any earlier declaration
func (e *Environment) DeclareFunction(name string, fn types.FuncValue) {
	e.funcs[name] = fn
}

// GetFunction looks up a declared function
func (e *Environment) GetFunction(name string) (types.FuncValue, error) {
	fn, ok := e.funcs[name]
	if !ok {
		return types.FuncValue{}, types.NewError(types.E_UNBOUND, "function %q is not declared", name)
	}
	return fn, nil
}

// enterCall opens the activation for a call and returns the function that
// closes it. In flat mode both are no-ops apart from depth bookkeeping.
func (e *Environment) enterCall() (leave func()) {
	e.depth++
	if e.scoping == ScopeFlat {
		return func() { e.depth-- }
	}
	saved := e.current
	e.current = newFrame(e.global)
	return func() {
		e.current = saved
		e.depth--
	}
}

// Depth returns the number of calls currently active
func (e *Environment) Depth() int {
	return e.depth
}

// Variables returns a snapshot of every visible variable, inner frames winning
func (e *Environment) Variables() map[string]types.Value {
	var chain []*Frame
	for f := e.current; f != nil; f = f.parent {
		chain = append(chain, f)
	}
	out := make(map[string]types.Value)
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].vars {
			out[k] = v
		}
	}
	return out
}

// Functions returns the sorted names of all declared functions
func (e *Environment) Functions() []string {
	names := make([]string, 0, len(e.funcs))
	for name := range e.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
