package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/kr/pretty"

	"tandem/ast"
	"tandem/codegen"
	"tandem/conformance"
	"tandem/eval"
	"tandem/trace"
	"tandem/types"
)

func main() {
	backend := flag.String("backend", "both", "Backend to run: interp, native or both")
	scoping := flag.String("scoping", "flat", "Interpreter call scoping: flat or frames")
	steps := flag.Int64("steps", 0, "Native instruction limit per run (0 = unlimited)")
	depth := flag.Int("depth", 0, "Native call depth limit (0 = default)")

	// Inspection flags
	dumpIR := flag.Bool("dump-ir", false, "Print the generated IR")
	dumpAST := flag.Bool("dump-ast", false, "Print the decoded program tree")
	printSrc := flag.Bool("print", false, "Print the program in surface syntax")
	suiteDir := flag.String("conformance", "", "Run the YAML fixtures in a directory instead of a program")

	// Trace flags
	traceEnabled := flag.Bool("trace", false, "Enable execution tracing")
	traceFilter := flag.String("trace-filter", "", "Trace filter pattern (glob, e.g., 'fact' or 'f*')")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: tandem [flags] program.yaml|-\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *traceEnabled {
		var filters []string
		if *traceFilter != "" {
			filters = strings.Split(*traceFilter, ",")
			for i := range filters {
				filters[i] = strings.TrimSpace(filters[i])
			}
		}
		trace.Init(true, filters, os.Stderr)
		log.Printf("Tracing enabled (filters: %v)", filters)
	} else {
		trace.Init(false, nil, nil)
	}

	var opts []codegen.Option
	if *steps > 0 {
		opts = append(opts, codegen.WithStepLimit(*steps))
	}
	if *depth > 0 {
		opts = append(opts, codegen.WithMaxDepth(*depth))
	}

	if *suiteDir != "" {
		os.Exit(runConformance(*suiteDir, opts))
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	body, err := load(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to load program: %v", err)
	}

	if *dumpAST {
		pretty.Println(body)
	}
	if *printSrc {
		fmt.Println(ast.Format(body))
	}

	mode := eval.ScopeFlat
	switch *scoping {
	case "flat":
	case "frames":
		mode = eval.ScopeFrames
	default:
		log.Fatalf("Unknown scoping %q", *scoping)
	}

	var interp, native outcome
	switch *backend {
	case "interp":
		interp = runInterp(body, mode)
		interp.report("interp")
	case "native":
		native = runNative(body, opts, *dumpIR)
		native.report("native")
	case "both":
		interp = runInterp(body, mode)
		native = runNative(body, opts, *dumpIR)
		interp.report("interp")
		native.report("native")
		if !interp.agrees(native) {
			log.Printf("Backends disagree")
			os.Exit(1)
		}
	default:
		log.Fatalf("Unknown backend %q", *backend)
	}

	if interp.err != nil || native.err != nil {
		os.Exit(1)
	}
}

// load reads a YAML program from a file, or from stdin for "-"
func load(path string) (ast.Body, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return ast.Decode(data)
}

type outcome struct {
	val types.Value
	err error
}

func (o outcome) report(name string) {
	if o.err != nil {
		fmt.Printf("%s: error %s: %v\n", name, types.CodeOf(o.err), o.err)
		return
	}
	fmt.Printf("%s: %s\n", name, o.val)
}

// agrees compares results by value, or by error code when both failed
func (o outcome) agrees(other outcome) bool {
	if o.err != nil || other.err != nil {
		return o.err != nil && other.err != nil && types.CodeOf(o.err) == types.CodeOf(other.err)
	}
	return o.val.Equal(other.val)
}

func runInterp(body ast.Body, mode eval.Scoping) outcome {
	v, err := eval.Run(ast.CloneBody(body), eval.WithScoping(mode))
	return outcome{val: v, err: err}
}

func runNative(body ast.Body, opts []codegen.Option, dumpIR bool) outcome {
	prog, err := codegen.Compile(body, opts...)
	if err != nil {
		return outcome{err: err}
	}
	defer prog.Close()

	if dumpIR {
		fmt.Print(prog.IR())
	}
	v, err := prog.RunValue()
	return outcome{val: v, err: err}
}

// runConformance runs every fixture under dir and returns the exit status
func runConformance(dir string, opts []codegen.Option) int {
	tests, err := conformance.LoadDir(dir)
	if err != nil {
		log.Printf("Failed to load fixtures: %v", err)
		return 1
	}

	runner := conformance.NewRunner(opts...)
	defer runner.Close()

	results := runner.RunAll(tests)
	for _, r := range results {
		switch {
		case r.Skipped:
			continue
		case !r.Passed:
			fmt.Printf("FAIL %s/%s [%s]: %v\n", r.Test.File, r.Test.Test.Name, r.Backend, r.Error)
		}
	}

	stats := conformance.ComputeStats(results)
	hits, misses := runner.CacheStats()
	fmt.Printf("%s; compile cache %d hits, %d misses\n", conformance.FormatStats(stats), hits, misses)
	if stats.Failed > 0 {
		return 1
	}
	return 0
}
