package conformance

import (
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"tandem/ast"
	"tandem/codegen"
	"tandem/eval"
	"tandem/types"
)

// DefaultStepLimit bounds each native run so a looping fixture fails
// instead of hanging
const DefaultStepLimit = 1_000_000

// Backend names one of the two execution paths
type Backend string

const (
	Interp Backend = "interp"
	Native Backend = "native"
)

// Backends lists every backend in the order tests run them
var Backends = []Backend{Interp, Native}

// TestResult represents the outcome of running a single test on one backend
type TestResult struct {
	Test       LoadedTest
	Backend    Backend
	Passed     bool
	Skipped    bool
	SkipReason string
	Error      error
}

// Runner executes conformance tests on both backends. Native programs are
// compiled through a cache, so a program shared by several fixtures is
// compiled once.
type Runner struct {
	cache *codegen.Cache
}

// NewRunner creates a runner whose native programs are compiled with opts,
// after the default step limit
func NewRunner(opts ...codegen.Option) *Runner {
	opts = append([]codegen.Option{codegen.WithStepLimit(DefaultStepLimit)}, opts...)
	return &Runner{cache: codegen.NewCache(opts...)}
}

// Close releases every compiled program
func (r *Runner) Close() error {
	return r.cache.Close()
}

// CacheStats reports native compile cache hits and misses
func (r *Runner) CacheStats() (hits, misses int) {
	return r.cache.Stats()
}

// Run executes a single test case on every backend
func (r *Runner) Run(test LoadedTest) []TestResult {
	results := make([]TestResult, 0, len(Backends))
	for _, b := range Backends {
		results = append(results, r.RunOn(test, b))
	}
	return results
}

// RunOn executes a single test case on backend b
func (r *Runner) RunOn(test LoadedTest, b Backend) TestResult {
	result := TestResult{Test: test, Backend: b}

	if skipped, reason := test.Test.IsSkipped(); skipped {
		result.Skipped, result.SkipReason = true, reason
		return result
	}
	if test.Test.Program.Kind == 0 {
		result.Skipped, result.SkipReason = true, "no program"
		return result
	}
	expect := test.Test.ExpectationFor(b)
	if expect == nil {
		result.Error = fmt.Errorf("no expectation for %s", b)
		return result
	}

	body, err := decodeProgram(&test.Test.Program)
	if err != nil {
		result.Error = fmt.Errorf("decode error: %w", err)
		return result
	}

	var val types.Value
	switch b {
	case Interp:
		val, err = eval.Run(body, eval.WithScoping(scopingOf(test.Suite)))
	case Native:
		val, err = r.runNative(body)
	default:
		result.Error = fmt.Errorf("unknown backend %q", b)
		return result
	}

	result.Passed, result.Error = checkExpectation(expect, val, err)
	return result
}

func (r *Runner) runNative(body ast.Body) (types.Value, error) {
	prog, err := r.cache.Compile(body)
	if err != nil {
		return nil, err
	}
	return prog.RunValue()
}

// decodeProgram decodes a fixture's program. A bare mapping is taken as a
// one-statement program.
func decodeProgram(n *yaml.Node) (ast.Body, error) {
	if n.Kind == yaml.MappingNode {
		e, err := ast.DecodeNode(n)
		if err != nil {
			return nil, err
		}
		return ast.Body{e}, nil
	}
	return ast.DecodeBody(n)
}

func scopingOf(s TestSuite) eval.Scoping {
	if s.Scoping == "frames" {
		return eval.ScopeFrames
	}
	return eval.ScopeFlat
}

// RunAll executes all loaded tests
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, 0, len(tests)*len(Backends))
	for _, test := range tests {
		results = append(results, r.Run(test)...)
	}
	return results
}

// SummaryStats computes statistics from test results
type SummaryStats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats generates statistics from test results
func ComputeStats(results []TestResult) SummaryStats {
	stats := SummaryStats{Total: len(results)}
	for _, r := range results {
		if r.Skipped {
			stats.Skipped++
		} else if r.Passed {
			stats.Passed++
		} else {
			stats.Failed++
		}
	}
	return stats
}

// FormatStats returns a human-readable summary
func FormatStats(stats SummaryStats) string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped (%d total)",
		stats.Passed, stats.Failed, stats.Skipped, stats.Total)
}

// checkExpectation checks if the result matches the expected outcome
func checkExpectation(expect *Expectation, val types.Value, err error) (bool, error) {
	if expect.Error != "" {
		expectedErr, ok := types.ErrorFromString(strings.ToUpper(expect.Error))
		if !ok {
			return false, fmt.Errorf("unknown error code: %s", expect.Error)
		}
		if err == nil {
			return false, fmt.Errorf("expected error %s, got value: %v", expect.Error, val)
		}
		if got := types.CodeOf(err); got != expectedErr {
			return false, fmt.Errorf("expected error %s, got %s (%v)", expectedErr, got, err)
		}
		return true, nil
	}

	if err != nil {
		return false, fmt.Errorf("unexpected error: %w", err)
	}

	if expect.Value != nil {
		expectedVal, err := convertYAMLValue(expect.Value)
		if err != nil {
			return false, fmt.Errorf("failed to convert expected value: %w", err)
		}
		if val == nil {
			return false, fmt.Errorf("expected %v, got nil", expectedVal)
		}
		if !val.Equal(expectedVal) {
			return false, fmt.Errorf("expected %v, got %v", expectedVal, val)
		}
		return true, nil
	}

	if expect.Type != "" {
		expectedKind, ok := typeNameToKind(expect.Type)
		if !ok {
			return false, fmt.Errorf("unknown type: %s", expect.Type)
		}
		if val.Kind() != expectedKind {
			return false, fmt.Errorf("expected type %s, got %s", expect.Type, strings.ToLower(val.Kind().String()))
		}
		return true, nil
	}

	return false, fmt.Errorf("no expectation specified")
}

// convertYAMLValue converts a decoded YAML scalar to a runtime value
func convertYAMLValue(v interface{}) (types.Value, error) {
	switch val := v.(type) {
	case int:
		if val < math.MinInt32 || val > math.MaxInt32 {
			return nil, fmt.Errorf("%d does not fit in 32 bits", val)
		}
		return types.NewInt(int32(val)), nil
	case bool:
		return types.NewBool(val), nil
	case string:
		if val == "unit" || val == "()" {
			return types.Unit, nil
		}
		return nil, fmt.Errorf("unsupported value %q", val)
	default:
		return nil, fmt.Errorf("unsupported YAML type: %T", v)
	}
}

// typeNameToKind converts a fixture type name to a value kind
func typeNameToKind(name string) (types.Kind, bool) {
	switch strings.ToLower(name) {
	case "int", "i32":
		return types.KIND_INT, true
	case "bool":
		return types.KIND_BOOL, true
	case "unit":
		return types.KIND_UNIT, true
	}
	return 0, false
}
