package types

import "strconv"

// IntValue is a 32-bit signed integer
type IntValue struct {
	Val int32
}

// Kind returns the kind code for integers
func (i IntValue) Kind() Kind {
	return KIND_INT
}

// String returns the literal representation
func (i IntValue) String() string {
	return strconv.FormatInt(int64(i.Val), 10)
}

// Equal checks deep equality
func (i IntValue) Equal(other Value) bool {
	o, ok := other.(IntValue)
	return ok && i.Val == o.Val
}

// NewInt creates a new IntValue
func NewInt(val int32) IntValue {
	return IntValue{Val: val}
}
