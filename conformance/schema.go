package conformance

import "gopkg.in/yaml.v3"

// TestSuite represents a complete YAML test file
type TestSuite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Scoping     string     `yaml:"scoping,omitempty"` // flat|frames, interpreter only
	Tests       []TestCase `yaml:"tests"`
}

// TestCase represents a single test within a suite.
//
// Expect applies to both backends. Interp and Native override it for one
// backend and mark the case as a deliberate divergence.
type TestCase struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Skip        interface{}  `yaml:"skip,omitempty"` // bool or string
	Program     yaml.Node    `yaml:"program"`
	Expect      *Expectation `yaml:"expect,omitempty"`
	Interp      *Expectation `yaml:"interp,omitempty"`
	Native      *Expectation `yaml:"native,omitempty"`
}

// Expectation defines what result is expected from a test
type Expectation struct {
	Value interface{} `yaml:"value,omitempty"` // int, bool, or "unit"
	Error string      `yaml:"error,omitempty"` // E_TYPE, E_DIV, etc.
	Type  string      `yaml:"type,omitempty"`  // int, bool, unit
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	if tc.Skip == nil {
		return false, ""
	}

	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
		return false, ""
	case string:
		return true, v
	default:
		return false, ""
	}
}

// IsDivergence reports whether the backends are expected to differ
func (tc *TestCase) IsDivergence() bool {
	return tc.Interp != nil || tc.Native != nil
}

// ExpectationFor returns the expectation that applies to backend b
func (tc *TestCase) ExpectationFor(b Backend) *Expectation {
	switch {
	case b == Interp && tc.Interp != nil:
		return tc.Interp
	case b == Native && tc.Native != nil:
		return tc.Native
	}
	return tc.Expect
}
