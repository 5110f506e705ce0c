package types

import (
	"strings"

	"tandem/ast"
)

// FuncValue is a declared function as stored in the function table
type FuncValue struct {
	Name    string
	Params  []ast.Param
	Returns ast.Type
	Body    ast.Body
}

func (f FuncValue) Kind() Kind { return KIND_FUNC }

func (f FuncValue) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		name, _ := ast.NameOf(p.Name)
		params[i] = name + ": " + p.Type.String()
	}
	return "fn " + f.Name + "(" + strings.Join(params, ", ") + ") -> " + f.Returns.String()
}

// Equal compares signatures and bodies structurally
func (f FuncValue) Equal(other Value) bool {
	o, ok := other.(FuncValue)
	if !ok || o.Name != f.Name || o.Returns != f.Returns || len(o.Params) != len(f.Params) {
		return false
	}
	for i := range f.Params {
		if f.Params[i].Type != o.Params[i].Type || !ast.Equal(f.Params[i].Name, o.Params[i].Name) {
			return false
		}
	}
	return ast.EqualBody(f.Body, o.Body)
}

// Matches reports whether v has the shape declared by t
func Matches(t ast.Type, v Value) bool {
	switch t {
	case ast.Int:
		_, ok := v.(IntValue)
		return ok
	case ast.Bool:
		_, ok := v.(BoolValue)
		return ok
	}
	return false
}
