package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/nanoofficial/nano/internal/ast"
	"github.com/nanoofficial/nano/internal/gen"
	"github.com/nanoofficial/nano/internal/idgen"
	"github.com/nanoofficial/nano/internal/machine"
	"github.com/nanoofficial/nano/internal/parser"
	"github.com/nanoofficial/nano/internal/project"
	"github.com/nanoofficial/nano/internal/types"
	"github.com/nanoofficial/nano/internal/uplc"
)

var (
	// Version info - set by ldflags during build
	Version = "dev"
	Commit  = "unknown"

	// Color output
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "Print version information")
		helpFlag    = flag.Bool("help", false, "Show help")
	)

	flag.Parse()

	if *versionFlag {
		fmt.Printf("nano %s (%s)\n", Version, Commit)
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	switch command := flag.Arg(0); command {
	case "check":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing file argument\n", red("Error"))
			fmt.Println("Usage: nano check <file.nano>")
			os.Exit(1)
		}
		checkFile(flag.Arg(1), false)

	case "build":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing file argument\n", red("Error"))
			fmt.Println("Usage: nano build <file.nano>")
			os.Exit(1)
		}
		buildFile(flag.Arg(1))

	case "deps":
		path := "."
		if flag.NArg() >= 2 {
			path = flag.Arg(1)
		}
		showDeps(path)

	case "uplc":
		if flag.NArg() < 2 {
			fmt.Println("Usage: nano uplc <eval|repl> [args]")
			os.Exit(1)
		}
		switch flag.Arg(1) {
		case "eval":
			if flag.NArg() < 3 {
				fmt.Fprintf(os.Stderr, "%s: missing program argument\n", red("Error"))
				fmt.Println("Usage: nano uplc eval '<program>'")
				os.Exit(1)
			}
			evalProgram(flag.Arg(2))
		case "repl":
			runREPL()
		default:
			fmt.Fprintf(os.Stderr, "%s: unknown uplc command %q\n", red("Error"), flag.Arg(1))
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), command)
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Printf("%s - a smart contract language toolchain\n\n", bold("nano"))
	fmt.Println("Usage:")
	fmt.Println("  nano check <file.nano>       Type-check a module")
	fmt.Println("  nano build <file.nano>       Compile validators and tests to UPLC")
	fmt.Println("  nano deps [dir]              Show project dependencies")
	fmt.Println("  nano uplc eval '<program>'   Evaluate a UPLC program")
	fmt.Println("  nano uplc repl               Interactive UPLC session")
	fmt.Println("  nano -version                Print version information")
}

// checkFile parses and type-checks a module, reporting diagnostics. It
// returns the typed module for build to reuse.
func checkFile(path string, quiet bool) *types.TypedModule {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red("Error"), err)
		os.Exit(1)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	kind := ast.ModuleKindLib
	if strings.Contains(path, "validators") {
		kind = ast.ModuleKindValidator
	}

	module, parseErrors := parser.ParseModule(name, string(src), kind)
	if len(parseErrors) > 0 {
		for _, parseError := range parseErrors {
			fmt.Fprintf(os.Stderr, "%s: %s\n", red("Parse error"), parseError)
		}
		os.Exit(1)
	}

	idGen := idgen.New()
	var warnings []types.Warning
	modules := map[string]*types.TypeInfo{"": types.Prelude(idGen)}

	typed, err := types.InferModule(idGen, module, kind, name, modules, &warnings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s:\n%s\n", red("Type error"), err)
		os.Exit(1)
	}

	if !quiet {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "%s: %s at %s\n",
				yellow("Warning"), warning.Message(), warning.WarningLocation())
		}
		fmt.Printf("%s %s\n", green("✓"), path)
	}
	return typed
}

// compiledProgram is one blueprint entry of a build.
type compiledProgram struct {
	Name    string        `json:"name"`
	Kind    string        `json:"kind"`
	Program *uplc.Program `json:"program"`
}

// buildFile compiles every validator and test of a module and prints the
// blueprint JSON.
func buildFile(path string) {
	typed := checkFile(path, true)

	idGen := idgen.New()
	var compiled []compiledProgram

	for _, def := range typed.Definitions {
		switch def := def.(type) {
		case *types.TypedValidator:
			generator := gen.New(idGen, typed)
			program, err := generator.GenerateValidator(def)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %s\n", red("Error"), err)
				os.Exit(1)
			}
			debruijn, err := program.ToDeBruijn()
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %s\n", red("Error"), err)
				os.Exit(1)
			}
			compiled = append(compiled, compiledProgram{
				Name:    typed.Name + "." + def.Fun.Name,
				Kind:    "validator",
				Program: debruijn,
			})
		case *types.TypedTest:
			generator := gen.New(idGen, typed)
			program, err := generator.GenerateTest(def)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %s\n", red("Error"), err)
				os.Exit(1)
			}
			debruijn, err := program.ToDeBruijn()
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %s\n", red("Error"), err)
				os.Exit(1)
			}
			compiled = append(compiled, compiledProgram{
				Name:    typed.Name + "." + def.Name,
				Kind:    "test",
				Program: debruijn,
			})
		}
	}

	out, err := json.MarshalIndent(compiled, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red("Error"), err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func showDeps(dir string) {
	manifest, err := project.Load(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red("Error"), err)
		os.Exit(1)
	}
	fmt.Printf("%s %s %s\n", bold(manifest.Name), manifest.Version, cyan(manifest.Description))
	for _, dep := range manifest.Dependencies {
		fmt.Printf("  %s %s (%s)\n", dep.Name, dep.Version, dep.Source)
	}
}

// evalProgram parses a textual UPLC program, evaluates it, and prints the
// result with its budget accounting.
func evalProgram(src string) {
	program, err := uplc.ParseProgram(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red("Error"), err)
		os.Exit(1)
	}

	named, err := program.ToNamedDeBruijn()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red("Error"), err)
		os.Exit(1)
	}

	result := machine.EvalDefault(named)
	printEvalResult(result)
	if _, err := result.Result(); err != nil {
		os.Exit(1)
	}
}

func printEvalResult(result *machine.EvalResult) {
	term, err := result.Result()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red("Error"), err)
	} else {
		fmt.Printf("%s %s\n", green("Result:"), uplc.PrettyTerm(term))
	}
	cost := result.Cost()
	fmt.Printf("%s cpu %s, mem %s\n", cyan("Budget:"),
		humanize.Comma(cost.CPU), humanize.Comma(cost.Mem))
	for _, log := range result.Logs() {
		fmt.Printf("%s %s\n", yellow("Trace:"), log)
	}
}
