package types

// Kind identifies the variant of a runtime value
type Kind int

const (
	KIND_UNIT Kind = iota
	KIND_INT
	KIND_BOOL
	KIND_NAME
	KIND_FUNC
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KIND_UNIT:
		return "UNIT"
	case KIND_INT:
		return "INT"
	case KIND_BOOL:
		return "BOOL"
	case KIND_NAME:
		return "NAME"
	case KIND_FUNC:
		return "FUNC"
	default:
		return "UNKNOWN"
	}
}
