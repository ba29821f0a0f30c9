// Package gen lowers typed Nano modules to UPLC. Expressions are first
// linearised into scope-tagged Air instructions, then folded into a term
// tree; module functions referenced by the program are wrapped around the
// result as (possibly recursive) definitions.
package gen

import (
	"fmt"

	"github.com/nanoofficial/nano/internal/air"
	"github.com/nanoofficial/nano/internal/idgen"
	"github.com/nanoofficial/nano/internal/types"
	"github.com/nanoofficial/nano/internal/uplc"
)

// ExpectOnList is the reserved name of the intrinsic helper that walks a
// list applying a check to every element. It is defined at most once per
// compilation unit.
const ExpectOnList = "__expect_on_list"

// constrInfo locates a data constructor within its type declaration.
type constrInfo struct {
	tag   int
	arity int
}

// Generator lowers typed expressions against the functions and data types
// of the compiled modules.
type Generator struct {
	idGen     *idgen.Generator
	module    string
	functions map[string]*types.TypedFunction
	constrs   map[string]constrInfo

	usedFunctions     []string
	usedSet           map[string]bool
	definedFunctions  map[string]bool
	needsExpectOnList bool
}

// New creates a Generator over the given typed modules. The first module
// is the one being compiled.
func New(idGen *idgen.Generator, modules ...*types.TypedModule) *Generator {
	g := &Generator{
		idGen:            idGen,
		functions:        map[string]*types.TypedFunction{},
		constrs:          map[string]constrInfo{},
		usedSet:          map[string]bool{},
		definedFunctions: map[string]bool{},
	}
	if len(modules) > 0 {
		g.module = modules[0].Name
	}
	for _, module := range modules {
		for _, def := range module.Definitions {
			switch def := def.(type) {
			case *types.TypedFunction:
				g.functions[functionKey(module.Name, def.Name)] = def
			case *types.TypedTest:
				g.functions[functionKey(module.Name, def.Name)] = def.TypedFunction
			case *types.TypedDataType:
				for tag, constructor := range def.Constructors {
					g.constrs[functionKey(module.Name, constructor.Name)] = constrInfo{
						tag:   tag,
						arity: len(constructor.Arguments),
					}
				}
			}
		}
	}
	return g
}

func functionKey(module, name string) string {
	if module == "" {
		return name
	}
	return module + "_" + name
}

// Generate lowers a typed expression into a named UPLC program, wrapping
// the module functions it uses, then optimises and interns the result.
func (g *Generator) Generate(body types.TypedExpr) (*uplc.Program, error) {
	stack := air.NewStack(g.idGen)
	g.buildExpr(stack, body)

	term, err := g.foldAir(stack.Complete())
	if err != nil {
		return nil, err
	}

	term, err = g.wrapUsedFunctions(term)
	if err != nil {
		return nil, err
	}

	if g.needsExpectOnList {
		term = g.wrapExpectOnList(term)
	}

	program := &uplc.Program{Version: [3]uint64{1, 0, 0}, Term: term}
	return uplc.OptimizeAndIntern(program), nil
}

// GenerateTest lowers a test function to a program producing its boolean
// result.
func (g *Generator) GenerateTest(test *types.TypedTest) (*uplc.Program, error) {
	return g.Generate(test.Body)
}

// GenerateValidator lowers a validator handler to a program taking its
// parameters, then its arguments, as data.
func (g *Generator) GenerateValidator(validator *types.TypedValidator) (*uplc.Program, error) {
	fnExpr := &types.TFn{
		Location: validator.Fun.Location,
		Tipo: types.FunctionType(
			argTypes(validator.Fun.Arguments),
			validator.Fun.ReturnType,
		),
		Args: validator.Fun.Arguments,
		Body: validator.Fun.Body,
	}

	// Surrounding parameters become outer lambdas applied by the host.
	wrapped := fnExpr
	if len(validator.Params) > 0 {
		wrapped = &types.TFn{
			Location: validator.Location,
			Tipo: types.FunctionType(
				argTypes(validator.Params),
				fnExpr.Tipo,
			),
			Args: validator.Params,
			Body: fnExpr,
		}
	}

	return g.Generate(wrapped)
}

func argTypes(args []*types.TypedArg) []types.Type {
	out := make([]types.Type, len(args))
	for i, arg := range args {
		out[i] = arg.Tipo
	}
	return out
}

// markUsed records a module function reference, queueing its definition.
func (g *Generator) markUsed(key string) {
	if !g.usedSet[key] {
		g.usedSet[key] = true
		g.usedFunctions = append(g.usedFunctions, key)
	}
}

// wrapUsedFunctions binds every referenced module function around the
// term, inner-most first so later discoveries (dependencies) wrap outer.
func (g *Generator) wrapUsedFunctions(term uplc.Term) (uplc.Term, error) {
	for i := 0; i < len(g.usedFunctions); i++ {
		key := g.usedFunctions[i]
		if g.definedFunctions[key] {
			continue
		}
		g.definedFunctions[key] = true

		fn, ok := g.functions[key]
		if !ok {
			return nil, fmt.Errorf("unknown module function %q", key)
		}

		stack := air.NewStack(g.idGen)
		g.buildExpr(stack, fn.Body)
		body, err := g.foldAir(stack.Complete())
		if err != nil {
			return nil, err
		}

		params := make([]string, len(fn.Arguments))
		for j, arg := range fn.Arguments {
			name := arg.Name.UsableName()
			if name == "" {
				name = fmt.Sprintf("_arg_%d", j)
			}
			params[j] = name
		}
		for j := len(params) - 1; j >= 0; j-- {
			body = &uplc.Lambda{ParameterName: uplc.Name{Text: params[j]}, Body: body}
		}

		term = g.defineFunction(key, body, term)
	}
	return term, nil
}

// defineFunction binds name to fnTerm over rest, using self-application
// when the definition refers to itself.
func (g *Generator) defineFunction(name string, fnTerm, rest uplc.Term) uplc.Term {
	if !referencesVar(fnTerm, name) {
		return &uplc.Apply{
			Function: &uplc.Lambda{ParameterName: uplc.Name{Text: name}, Body: rest},
			Argument: fnTerm,
		}
	}

	// Recursive: rewrite self references to (name name), bind the
	// self-applying wrapper, then tie the knot for the rest of the
	// program.
	selfApplied := replaceVar(fnTerm, name, &uplc.Apply{
		Function: &uplc.Var{Name: uplc.Name{Text: name}},
		Argument: &uplc.Var{Name: uplc.Name{Text: name}},
	})
	wrapper := &uplc.Lambda{ParameterName: uplc.Name{Text: name}, Body: selfApplied}

	inner := &uplc.Apply{
		Function: &uplc.Lambda{ParameterName: uplc.Name{Text: name}, Body: rest},
		Argument: &uplc.Apply{
			Function: &uplc.Var{Name: uplc.Name{Text: name}},
			Argument: &uplc.Var{Name: uplc.Name{Text: name}},
		},
	}
	return &uplc.Apply{
		Function: &uplc.Lambda{ParameterName: uplc.Name{Text: name}, Body: inner},
		Argument: wrapper,
	}
}

// referencesVar reports whether the term mentions the free name.
func referencesVar(term uplc.Term, name string) bool {
	switch t := term.(type) {
	case *uplc.Var:
		binder, ok := t.Name.(uplc.Name)
		return ok && binder.Text == name
	case *uplc.Lambda:
		if binder, ok := t.ParameterName.(uplc.Name); ok && binder.Text == name {
			return false
		}
		return referencesVar(t.Body, name)
	case *uplc.Apply:
		return referencesVar(t.Function, name) || referencesVar(t.Argument, name)
	case *uplc.Delay:
		return referencesVar(t.Term, name)
	case *uplc.Force:
		return referencesVar(t.Term, name)
	default:
		return false
	}
}

// replaceVar substitutes free occurrences of name with replacement.
func replaceVar(term uplc.Term, name string, replacement uplc.Term) uplc.Term {
	switch t := term.(type) {
	case *uplc.Var:
		if binder, ok := t.Name.(uplc.Name); ok && binder.Text == name {
			return replacement
		}
		return t
	case *uplc.Lambda:
		if binder, ok := t.ParameterName.(uplc.Name); ok && binder.Text == name {
			return t
		}
		return &uplc.Lambda{
			ParameterName: t.ParameterName,
			Body:          replaceVar(t.Body, name, replacement),
		}
	case *uplc.Apply:
		return &uplc.Apply{
			Function: replaceVar(t.Function, name, replacement),
			Argument: replaceVar(t.Argument, name, replacement),
		}
	case *uplc.Delay:
		return &uplc.Delay{Term: replaceVar(t.Term, name, replacement)}
	case *uplc.Force:
		return &uplc.Force{Term: replaceVar(t.Term, name, replacement)}
	default:
		return term
	}
}

// wrapExpectOnList defines the list-walking intrinsic around the program:
//
//	\list check -> case list of
//	  []      -> ()
//	  x :: xs -> choose_unit (check x) (expect_on_list xs check)
func (g *Generator) wrapExpectOnList(term uplc.Term) uplc.Term {
	listVar := &uplc.Var{Name: uplc.Name{Text: "__list_to_check"}}
	checkVar := &uplc.Var{Name: uplc.Name{Text: "__check_with"}}

	headCheck := uplc.ApplyTo(checkVar,
		uplc.ApplyTo(forcedBuiltin(uplc.HeadList), listVar))

	recurse := uplc.ApplyTo(
		&uplc.Var{Name: uplc.Name{Text: ExpectOnList}},
		uplc.ApplyTo(forcedBuiltin(uplc.TailList), listVar),
		checkVar,
	)

	nonEmpty := uplc.ApplyTo(forcedBuiltin(uplc.ChooseUnit), headCheck, recurse)

	body := &uplc.Force{Term: uplc.ApplyTo(
		forcedBuiltin(uplc.ChooseList),
		listVar,
		&uplc.Delay{Term: &uplc.Constant{Con: &uplc.Unit{}}},
		&uplc.Delay{Term: nonEmpty},
	)}

	fnTerm := &uplc.Lambda{
		ParameterName: uplc.Name{Text: "__list_to_check"},
		Body: &uplc.Lambda{
			ParameterName: uplc.Name{Text: "__check_with"},
			Body:          body,
		},
	}

	return g.defineFunction(ExpectOnList, fnTerm, term)
}

// forcedBuiltin wraps a builtin in exactly the forces it needs.
func forcedBuiltin(fun uplc.DefaultFunction) uplc.Term {
	var term uplc.Term = &uplc.Builtin{Fun: fun}
	for i := 0; i < fun.ForceCount(); i++ {
		term = &uplc.Force{Term: term}
	}
	return term
}
