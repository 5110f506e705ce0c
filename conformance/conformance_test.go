package conformance

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"tandem/types"
)

func TestConformance(t *testing.T) {
	tests, err := LoadAllTests()
	if err != nil {
		t.Fatalf("Failed to load tests: %v", err)
	}
	if len(tests) == 0 {
		t.Fatal("No tests loaded")
	}

	runner := NewRunner()
	defer runner.Close()

	results := runner.RunAll(tests)
	stats := ComputeStats(results)

	// Group results by file for organized output
	fileGroups := make(map[string][]TestResult)
	for _, result := range results {
		fileGroups[result.Test.File] = append(fileGroups[result.Test.File], result)
	}

	for file, fileResults := range fileGroups {
		t.Run(file, func(t *testing.T) {
			for _, result := range fileResults {
				testName := result.Test.Test.Name + "/" + string(result.Backend)
				t.Run(testName, func(t *testing.T) {
					if result.Skipped {
						t.Skipf("Skipped: %s", result.SkipReason)
					} else if !result.Passed {
						if result.Error != nil {
							t.Errorf("Test failed: %v", result.Error)
						} else {
							t.Error("Test failed")
						}
					}
				})
			}
		})
	}

	hits, misses := runner.CacheStats()
	t.Logf("\n=== Summary ===\n%s\ncompile cache: %d hits, %d misses", FormatStats(stats), hits, misses)
}

func TestLoadAllTests(t *testing.T) {
	tests, err := LoadAllTests()
	if err != nil {
		t.Fatalf("Failed to load tests: %v", err)
	}
	t.Logf("Loaded %d test cases", len(tests))

	files := make(map[string]bool)
	for _, test := range tests {
		files[test.File] = true

		if test.Test.Name == "" {
			t.Errorf("test in %s has no name", test.File)
		}
		if test.Test.Program.Kind == 0 {
			t.Errorf("%s/%s has no program", test.File, test.Test.Name)
		}
		for _, b := range Backends {
			if test.Test.ExpectationFor(b) == nil {
				t.Errorf("%s/%s has no expectation for %s", test.File, test.Test.Name, b)
			}
		}
	}
	if len(files) < 5 {
		t.Errorf("expected at least 5 fixture files, got %d", len(files))
	}
}

// A divergence fixture must actually expect different outcomes
func TestDivergencesDiffer(t *testing.T) {
	tests, err := LoadAllTests()
	if err != nil {
		t.Fatal(err)
	}
	found := 0
	for _, test := range tests {
		tc := test.Test
		if !tc.IsDivergence() {
			continue
		}
		found++
		if cmp.Equal(tc.ExpectationFor(Interp), tc.ExpectationFor(Native)) {
			t.Errorf("%s/%s is tagged as a divergence but expects the same outcome", test.File, tc.Name)
		}
	}
	if found == 0 {
		t.Error("no divergence fixtures loaded")
	}
}

func parseSuite(t *testing.T, src string) []LoadedTest {
	t.Helper()
	var suite TestSuite
	if err := yaml.Unmarshal([]byte(src), &suite); err != nil {
		t.Fatal(err)
	}
	var loaded []LoadedTest
	for _, tc := range suite.Tests {
		loaded = append(loaded, LoadedTest{File: "inline.yaml", Suite: suite, Test: tc})
	}
	return loaded
}

func TestRunnerReportsFailures(t *testing.T) {
	tests := parseSuite(t, `
name: inline
tests:
  - name: bad_program
    program:
      - loop: {}
    expect: {value: 1}
  - name: wrong_value
    program:
      - return: 2
    expect: {value: 1}
  - name: missing_expectation
    program:
      - return: 1
    interp: {value: 1}
  - name: empty
    expect: {value: 1}
`)
	runner := NewRunner()
	defer runner.Close()

	check := func(r TestResult, want string) {
		t.Helper()
		if r.Passed || r.Error == nil || !strings.Contains(r.Error.Error(), want) {
			t.Errorf("%s on %s: passed=%v err=%v, want failure mentioning %q",
				r.Test.Test.Name, r.Backend, r.Passed, r.Error, want)
		}
	}

	for _, r := range runner.Run(tests[0]) {
		check(r, "decode error")
	}
	for _, r := range runner.Run(tests[1]) {
		check(r, "expected 1, got 2")
	}
	if r := runner.RunOn(tests[2], Interp); !r.Passed {
		t.Errorf("interp-only expectation failed: %v", r.Error)
	}
	check(runner.RunOn(tests[2], Native), "no expectation for native")
	if r := runner.RunOn(tests[3], Interp); !r.Skipped || r.SkipReason != "no program" {
		t.Errorf("empty program: %+v", r)
	}
}

func TestRunnerCachesNativePrograms(t *testing.T) {
	tests := parseSuite(t, `
name: inline
tests:
  - name: first
    program: [{return: {binary: [20, "+", 22]}}]
    expect: {value: 42}
  - name: same_program
    program: [{return: {binary: [20, "+", 22]}}]
    expect: {type: int}
`)
	runner := NewRunner()
	defer runner.Close()

	for _, r := range runner.RunAll(tests) {
		if !r.Passed {
			t.Errorf("%s on %s: %v", r.Test.Test.Name, r.Backend, r.Error)
		}
	}
	if hits, misses := runner.CacheStats(); hits != 1 || misses != 1 {
		t.Errorf("cache: %d hits, %d misses", hits, misses)
	}
}

func TestCheckExpectation(t *testing.T) {
	divErr := types.NewError(types.E_DIV, "1 / 0")

	tests := []struct {
		name   string
		expect Expectation
		val    types.Value
		err    error
		pass   bool
	}{
		{"value match", Expectation{Value: 3}, types.NewInt(3), nil, true},
		{"value mismatch", Expectation{Value: 3}, types.NewInt(4), nil, false},
		{"bool value", Expectation{Value: false}, types.NewBool(false), nil, true},
		{"int is not bool", Expectation{Value: 1}, types.NewBool(true), nil, false},
		{"unit value", Expectation{Value: "unit"}, types.Unit, nil, true},
		{"error match", Expectation{Error: "E_DIV"}, nil, divErr, true},
		{"lower-case error", Expectation{Error: "e_div"}, nil, divErr, true},
		{"wrapped error", Expectation{Error: "E_DIV"}, nil, errors.Join(errors.New("in f"), divErr), true},
		{"error mismatch", Expectation{Error: "E_TYPE"}, nil, divErr, false},
		{"error expected", Expectation{Error: "E_DIV"}, types.NewInt(1), nil, false},
		{"unexpected error", Expectation{Value: 1}, nil, divErr, false},
		{"unknown code", Expectation{Error: "E_PERM"}, nil, divErr, false},
		{"type match", Expectation{Type: "bool"}, types.NewBool(true), nil, true},
		{"type mismatch", Expectation{Type: "int"}, types.Unit, nil, false},
		{"nothing expected", Expectation{}, types.NewInt(1), nil, false},
		{"value too wide", Expectation{Value: 1 << 40}, types.NewInt(0), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expect := tt.expect
			pass, err := checkExpectation(&expect, tt.val, tt.err)
			if pass != tt.pass {
				t.Errorf("checkExpectation = %v (%v), want %v", pass, err, tt.pass)
			}
			if !pass && err == nil {
				t.Error("a failed check must explain itself")
			}
		})
	}
}
