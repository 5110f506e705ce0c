package types

// UnitValue is the result of statements that produce nothing
type UnitValue struct{}

// Unit is the single unit value
var Unit = UnitValue{}

func (UnitValue) Kind() Kind { return KIND_UNIT }

func (UnitValue) String() string { return "()" }

func (UnitValue) Equal(other Value) bool {
	_, ok := other.(UnitValue)
	return ok
}

// NameValue is the marker produced by evaluating an identifier that has
// no value yet (the empty-name sentinel). It is never a valid program result.
type NameValue struct {
	Name string
}

func (v NameValue) Kind() Kind { return KIND_NAME }

func (v NameValue) String() string {
	return "<unresolved " + v.Name + ">"
}

func (v NameValue) Equal(other Value) bool {
	o, ok := other.(NameValue)
	return ok && o.Name == v.Name
}
