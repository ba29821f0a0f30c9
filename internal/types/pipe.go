package types

import (
	"github.com/nanoofficial/nano/internal/ast"
)

// inferPipeline desugars and types a `|>` chain. The first expression is
// bound to the reserved pipe variable; every following stage either takes
// the piped value as its first argument (when one argument short), is
// evaluated and then applied to the piped value, or is treated as a unary
// function.
func (t *ExprTyper) inferPipeline(pipeline *ast.PipeLine) (TypedExpr, error) {
	reset := t.environment.OpenNewScope()
	defer t.environment.CloseScope(reset)

	piped, err := t.Infer(pipeline.Expressions[0])
	if err != nil {
		return nil, err
	}

	expressions := []TypedExpr{piped}
	pipedType := piped.TypeOf()
	pipedLocation := pipeline.Expressions[0].ExprLocation()

	for i, stage := range pipeline.Expressions[1:] {
		t.environment.InsertVariable(
			ast.PipeVariable,
			VariantLocalVariable{Location: pipedLocation},
			pipedType,
		)
		t.environment.IncrementUsage(ast.PipeVariable)

		pipeArg := ast.CallArg[ast.Expr]{
			Location: pipedLocation,
			Value:    &ast.Var{Location: pipedLocation, Name: ast.PipeVariable},
		}

		var typed TypedExpr
		switch stage := stage.(type) {
		case *ast.Call:
			arity, known := t.stageArity(stage.Fun)
			if known && arity == len(stage.Arguments)+1 {
				// One argument short: insert the piped value first.
				arguments := append([]ast.CallArg[ast.Expr]{pipeArg}, stage.Arguments...)
				typed, err = t.inferCall(stage.Fun, arguments, stage.Location)
			} else {
				// Evaluate the call, then apply its result to the piped
				// value.
				typed, err = t.inferPipeStageApply(stage, pipeArg, stage.Location)
			}
		default:
			typed, err = t.inferCall(stage, []ast.CallArg[ast.Expr]{pipeArg}, stage.ExprLocation())
		}
		if err != nil {
			if unifyErr, ok := err.(*CouldNotUnifyError); ok {
				t.decoratePipeMismatch(unifyErr, pipedType)
			}
			return nil, err
		}

		expressions = append(expressions, typed)
		last := i == len(pipeline.Expressions[1:])-1
		if !last {
			pipedType = typed.TypeOf()
			pipedLocation = stage.ExprLocation()
		}
	}

	return &TPipeline{
		Location:    pipeline.ExprLocation(),
		Expressions: expressions,
	}, nil
}

// inferPipeStageApply types a full call stage and applies its result to
// the piped value.
func (t *ExprTyper) inferPipeStageApply(stage ast.Expr, pipeArg ast.CallArg[ast.Expr], location ast.Span) (TypedExpr, error) {
	return t.inferCall(stage, []ast.CallArg[ast.Expr]{pipeArg}, location)
}

// stageArity looks up the declared arity of a pipe stage's function
// without typing it twice.
func (t *ExprTyper) stageArity(fun ast.Expr) (int, bool) {
	var constructor *ValueConstructor
	switch fun := fun.(type) {
	case *ast.Var:
		constructor = t.environment.Scope[fun.Name]
	case *ast.FieldAccess:
		if container, ok := fun.Container.(*ast.Var); ok {
			if imported, ok := t.environment.ImportedModules[container.Name]; ok {
				constructor = imported.info.Values[fun.Label]
			}
		}
	}
	if constructor == nil {
		return 0, false
	}
	if fn, ok := Follow(constructor.Tipo).(*Fn); ok {
		return len(fn.Args), true
	}
	return 0, false
}

// decoratePipeMismatch upgrades a unification failure at a pipe boundary
// to the pipe-specific situation when the mismatch is between two arrows
// of equal arity disagreeing at argument 0.
func (t *ExprTyper) decoratePipeMismatch(err *CouldNotUnifyError, pipedType Type) {
	expected, expectedOk := Follow(err.Expected).(*Fn)
	given, givenOk := Follow(err.Given).(*Fn)
	if expectedOk && givenOk &&
		len(expected.Args) == len(given.Args) &&
		len(expected.Args) > 0 &&
		!typeEqual(expected.Args[0], given.Args[0]) {
		err.Situation = SituationPipeTypeMismatch
		return
	}
	// The common shape: the stage's first parameter rejected the piped
	// value directly.
	if typeEqual(err.Given, pipedType) || typeEqual(err.Expected, pipedType) {
		err.Situation = SituationPipeTypeMismatch
	}
}
