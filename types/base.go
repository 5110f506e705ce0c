package types

// ErrorCode represents a failure kind raised by either backend
type ErrorCode int

const (
	E_NONE      ErrorCode = 0
	E_UNBOUND   ErrorCode = 1 // identifier or function not bound
	E_ARGS      ErrorCode = 2 // argument count differs from parameter count
	E_TYPE      ErrorCode = 3 // value shape disagrees with the declared or expected type
	E_DIV       ErrorCode = 4 // integer division by zero
	E_MALFORMED ErrorCode = 5 // tree shape the active backend cannot handle
	E_LIMIT     ErrorCode = 6 // native execution exceeded its step or call-depth budget
)

// String returns the string name for an error code
func (e ErrorCode) String() string {
	switch e {
	case E_NONE:
		return "E_NONE"
	case E_UNBOUND:
		return "E_UNBOUND"
	case E_ARGS:
		return "E_ARGS"
	case E_TYPE:
		return "E_TYPE"
	case E_DIV:
		return "E_DIV"
	case E_MALFORMED:
		return "E_MALFORMED"
	case E_LIMIT:
		return "E_LIMIT"
	default:
		return "E_UNKNOWN"
	}
}

// Message returns a human-readable message for an error code
func (e ErrorCode) Message() string {
	switch e {
	case E_NONE:
		return "No error"
	case E_UNBOUND:
		return "Unbound name"
	case E_ARGS:
		return "Arity mismatch"
	case E_TYPE:
		return "Type mismatch"
	case E_DIV:
		return "Division by zero"
	case E_MALFORMED:
		return "Malformed expression"
	case E_LIMIT:
		return "Step limit exceeded"
	default:
		return "Unknown error"
	}
}

// Error makes a bare code usable as a target for errors.Is
func (e ErrorCode) Error() string {
	return e.String()
}

// ErrorFromString converts a string like "E_DIV" to an ErrorCode
func ErrorFromString(s string) (ErrorCode, bool) {
	for c := E_NONE; c <= E_LIMIT; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return E_NONE, false
}

// Value is the interface all runtime values implement
type Value interface {
	Kind() Kind
	String() string   // literal representation
	Equal(Value) bool // Deep equality
}
