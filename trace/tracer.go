package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tandem/types"
)

// Tracer provides execution tracing for debugging
type Tracer struct {
	enabled bool
	filters []string
	writer  io.Writer
	mu      sync.Mutex
}

// Global tracer instance
var globalTracer *Tracer

// New creates a tracer writing to w (stderr when nil)
func New(enabled bool, filters []string, writer io.Writer) *Tracer {
	if writer == nil {
		writer = os.Stderr
	}
	return &Tracer{
		enabled: enabled,
		filters: filters,
		writer:  writer,
	}
}

// Init initializes the global tracer
func Init(enabled bool, filters []string, writer io.Writer) {
	globalTracer = New(enabled, filters, writer)
}

// Global returns the global tracer, or nil before Init
func Global() *Tracer {
	return globalTracer
}

// IsEnabled returns whether tracing is enabled
func IsEnabled() bool {
	return globalTracer.Enabled()
}

// Enabled reports whether t emits anything. A nil tracer is disabled.
func (t *Tracer) Enabled() bool {
	return t != nil && t.enabled
}

// matchesFilter checks if a function name matches any of the filter patterns
func (t *Tracer) matchesFilter(name string) bool {
	if len(t.filters) == 0 {
		return true // No filters = trace everything
	}

	for _, pattern := range t.filters {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

func (t *Tracer) active(name string) bool {
	return t.Enabled() && t.matchesFilter(name)
}

// Call logs a function call in the interpreter
func (t *Tracer) Call(name string, args []types.Value) {
	if !t.active(name) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	argStrs := make([]string, len(args))
	for i, arg := range args {
		argStrs[i] = arg.String()
	}

	fmt.Fprintf(t.writer, "[TRACE] CALL %s(%s)\n", name, strings.Join(argStrs, ", "))
}

// Return logs a function's result
func (t *Tracer) Return(name string, result types.Value) {
	if !t.active(name) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	resultStr := types.Unit.String()
	if result != nil {
		resultStr = result.String()
	}

	fmt.Fprintf(t.writer, "[TRACE] RETURN %s => %s\n", name, resultStr)
}

// Failure logs an error escaping a function
func (t *Tracer) Failure(name string, err error) {
	if !t.active(name) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.writer, "[TRACE] FAIL %s %s\n", name, types.CodeOf(err))
}

// Lower logs the code generator opening a basic block in a function
func (t *Tracer) Lower(fn, block string) {
	if !t.active(fn) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.writer, "[TRACE] LOWER %s:%s\n", fn, block)
}

// Invoke logs the JIT engine entering a compiled function
func (t *Tracer) Invoke(fn string, args []int64) {
	if !t.active(fn) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	argStrs := make([]string, len(args))
	for i, a := range args {
		argStrs[i] = fmt.Sprintf("%d", a)
	}

	fmt.Fprintf(t.writer, "[TRACE] INVOKE %s(%s)\n", fn, strings.Join(argStrs, ", "))
}

// Global convenience functions

// Call logs a call using the global tracer
func Call(name string, args []types.Value) {
	globalTracer.Call(name, args)
}

// Return logs a return using the global tracer
func Return(name string, result types.Value) {
	globalTracer.Return(name, result)
}

// Failure logs a failure using the global tracer
func Failure(name string, err error) {
	globalTracer.Failure(name, err)
}
