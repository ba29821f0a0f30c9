package gen

import (
	"fmt"

	"github.com/nanoofficial/nano/internal/air"
	"github.com/nanoofficial/nano/internal/ast"
	"github.com/nanoofficial/nano/internal/types"
	"github.com/nanoofficial/nano/internal/uplc"
)

// buildExpr linearises a typed expression onto the stack.
func (g *Generator) buildExpr(stack *air.Stack, expr types.TypedExpr) {
	switch expr := expr.(type) {
	case *types.TInt:
		stack.Integer(expr.Value)

	case *types.TString:
		stack.String(expr.Value)

	case *types.TByteArray:
		stack.ByteArray(expr.Bytes)

	case *types.TVar:
		g.buildVar(stack, expr.Name, "", expr.Constructor)

	case *types.TModuleSelect:
		g.buildVar(stack, expr.Label, expr.ModuleName, expr.Constructor)

	case *types.TFn:
		params := make([]string, len(expr.Args))
		for i, arg := range expr.Args {
			params[i] = paramName(arg, i)
		}
		body := stack.EmptyWithScope()
		g.buildExpr(body, expr.Body)
		stack.AnonymousFunction(params, body)

	case *types.TList:
		elements := make([]*air.Stack, len(expr.Elements))
		for i, element := range expr.Elements {
			elements[i] = stack.EmptyWithScope()
			g.buildExpr(elements[i], element)
		}
		var tail *air.Stack
		if expr.Tail != nil {
			tail = stack.EmptyWithScope()
			g.buildExpr(tail, expr.Tail)
		}
		stack.List(expr.Tipo, elements, tail)

	case *types.TCall:
		g.buildCall(stack, expr)

	case *types.TBinOp:
		left := stack.EmptyWithScope()
		g.buildExpr(left, expr.Left)
		right := stack.EmptyWithScope()
		g.buildExpr(right, expr.Right)
		// The operand type drives the choice of equality builtin.
		stack.BinOp(expr.Name, expr.Left.TypeOf(), left, right)

	case *types.TUnOp:
		value := stack.EmptyWithScope()
		g.buildExpr(value, expr.Value)
		stack.UnOp(expr.Op, value)

	case *types.TAssignment:
		g.buildSequence(stack, []types.TypedExpr{expr})

	case *types.TSequence:
		g.buildSequence(stack, expr.Expressions)

	case *types.TPipeline:
		g.buildPipeline(stack, expr)

	case *types.TTrace:
		g.buildTrace(stack, expr)

	case *types.TErrorTerm:
		stack.ErrorTerm(expr.Tipo)

	case *types.TWhen:
		g.buildWhen(stack, expr)

	case *types.TIf:
		g.buildIf(stack, expr, 0)

	case *types.TRecordAccess:
		record := stack.EmptyWithScope()
		g.buildExpr(record, expr.Record)
		stack.RecordAccess(expr.Tipo, expr.Index, record)

	case *types.TTuple:
		elems := make([]*air.Stack, len(expr.Elems))
		for i, elem := range expr.Elems {
			elems[i] = stack.EmptyWithScope()
			g.buildExpr(elems[i], elem)
		}
		stack.Tuple(expr.Tipo, elems...)

	case *types.TTupleIndex:
		tuple := stack.EmptyWithScope()
		g.buildExpr(tuple, expr.Tuple)
		stack.TupleIndex(expr.Tipo, expr.Index, tuple)

	case *types.TRecordUpdate:
		g.buildRecordUpdate(stack, expr)

	default:
		stack.ErrorTerm(nil)
	}
}

func paramName(arg *types.TypedArg, index int) string {
	if name := arg.Name.UsableName(); name != "" {
		return name
	}
	return fmt.Sprintf("_arg_%d", index)
}

// buildVar lowers a resolved name according to its value constructor.
func (g *Generator) buildVar(stack *air.Stack, name, module string, constructor *types.ValueConstructor) {
	switch variant := constructor.Variant.(type) {
	case types.VariantLocalVariable:
		stack.LocalVar(constructor.Tipo, name)

	case types.VariantModuleConstant:
		switch literal := variant.Literal.(type) {
		case *ast.ConstInt:
			stack.Integer(literal.Value)
		case *ast.ConstString:
			stack.String(literal.Value)
		case *ast.ConstByteArray:
			stack.ByteArray(literal.Bytes)
		}

	case types.VariantModuleFn:
		if variant.Builtin == nil {
			g.markUsed(functionKey(variant.Module, variant.Name))
		}
		stack.Var(constructor, name, "")

	case types.VariantRecord:
		stack.Var(constructor, name, "")
	}
}

// buildCall lowers an application, special-casing constructor and builtin
// callees.
func (g *Generator) buildCall(stack *air.Stack, expr *types.TCall) {
	args := make([]*air.Stack, len(expr.Args))
	for i, arg := range expr.Args {
		args[i] = stack.EmptyWithScope()
		g.buildExpr(args[i], arg.Value)
	}

	if v, ok := expr.Fun.(*types.TVar); ok {
		switch variant := v.Constructor.Variant.(type) {
		case types.VariantRecord:
			// The constructor's arrow type carries the field types the
			// folder wraps with.
			info := g.constrInfoFor(variant)
			stack.Record(v.Constructor.Tipo, info.tag, args...)
			return
		case types.VariantModuleFn:
			if variant.Builtin != nil {
				stack.Builtin(*variant.Builtin, expr.Tipo, args...)
				return
			}
		}
	}
	if v, ok := expr.Fun.(*types.TModuleSelect); ok {
		if variant, ok := v.Constructor.Variant.(types.VariantRecord); ok {
			info := g.constrInfoFor(variant)
			stack.Record(v.Constructor.Tipo, info.tag, args...)
			return
		}
	}

	fun := stack.EmptyWithScope()
	g.buildExpr(fun, expr.Fun)
	stack.Call(expr.Tipo, fun, args...)
}

func (g *Generator) constrInfoFor(variant types.VariantRecord) constrInfo {
	if info, ok := g.constrs[functionKey(variant.Module, variant.Name)]; ok {
		return info
	}
	// Prelude constructors.
	switch variant.Name {
	case "True":
		return constrInfo{tag: 1}
	case "False":
		return constrInfo{tag: 0}
	case "None":
		return constrInfo{tag: 1}
	case "Some":
		return constrInfo{tag: 0, arity: 1}
	}
	return constrInfo{}
}

// buildSequence lowers a run of expressions; assignments bind for the rest
// of the run. A trailing assignment leaves Void as the result.
func (g *Generator) buildSequence(stack *air.Stack, exprs []types.TypedExpr) {
	for i, expr := range exprs {
		last := i == len(exprs)-1
		if assignment, ok := expr.(*types.TAssignment); ok {
			value := stack.EmptyWithScope()
			g.buildExpr(value, assignment.Value)
			g.buildPatternBindings(stack, assignment.Pattern, value, assignment.Kind == ast.AssignmentExpect)
			if last {
				stack.Void()
			}
			continue
		}
		if last {
			g.buildExpr(stack, expr)
		} else {
			// Mid-sequence values are discarded.
			value := stack.EmptyWithScope()
			g.buildExpr(value, expr)
			stack.LetAssignment("_", value)
		}
	}
}

// buildPipeline rebinds the pipe variable through each stage.
func (g *Generator) buildPipeline(stack *air.Stack, expr *types.TPipeline) {
	first := stack.EmptyWithScope()
	g.buildExpr(first, expr.Expressions[0])
	stack.LetAssignment(ast.PipeVariable, first)

	stages := expr.Expressions[1:]
	for i, stage := range stages {
		if i == len(stages)-1 {
			g.buildExpr(stack, stage)
			return
		}
		value := stack.EmptyWithScope()
		g.buildExpr(value, stage)
		stack.LetAssignment(ast.PipeVariable, value)
	}
}

func (g *Generator) buildTrace(stack *air.Stack, expr *types.TTrace) {
	text := stack.EmptyWithScope()
	if expr.Text != nil {
		g.buildExpr(text, expr.Text)
	} else if expr.Kind == ast.TraceKindTodo {
		text.String("incomplete code reached")
	} else {
		text.String("validation failed")
	}

	then := stack.EmptyWithScope()
	if expr.Kind == ast.TraceKindTrace {
		g.buildExpr(then, expr.Then)
	} else {
		then.ErrorTerm(expr.Tipo)
	}

	stack.Trace(expr.Tipo, text, then)
}

// buildIf chains condition branches into If opcodes with the final else as
// the last continuation.
func (g *Generator) buildIf(stack *air.Stack, expr *types.TIf, index int) {
	if index == len(expr.Branches) {
		g.buildExpr(stack, expr.FinalElse)
		return
	}
	branch := expr.Branches[index]
	condition := stack.EmptyWithScope()
	g.buildExpr(condition, branch.Condition)
	body := stack.EmptyWithScope()
	g.buildExpr(body, branch.Body)
	stack.IfBranch(expr.Tipo, condition, body)
	g.buildIf(stack, expr, index+1)
}

func (g *Generator) buildRecordUpdate(stack *air.Stack, expr *types.TRecordUpdate) {
	record := stack.EmptyWithScope()
	g.buildExpr(record, expr.Spread)

	highest := 0
	indices := make([]air.FieldIndex, len(expr.Args))
	args := make([]*air.Stack, len(expr.Args))
	for i, arg := range expr.Args {
		if arg.Index > highest {
			highest = arg.Index
		}
		indices[i] = air.FieldIndex{
			Index: arg.Index,
			Name:  arg.Label,
			Tipo:  arg.Value.TypeOf(),
		}
		args[i] = stack.EmptyWithScope()
		g.buildExpr(args[i], arg.Value)
	}
	stack.RecordUpdate(expr.Tipo, highest, indices, record, args...)
}

// buildPatternBindings emits the bindings a pattern introduces over the
// rest of the stream. With expect set, refutable patterns compile to
// runtime checks that fail the program.
func (g *Generator) buildPatternBindings(stack *air.Stack, pattern types.TypedPattern, value *air.Stack, expect bool) {
	switch pattern := pattern.(type) {
	case *types.TPVar:
		stack.LetAssignment(pattern.Name, value)
		g.buildExpectCheck(stack, pattern.Tipo, pattern.Name, expect)

	case *types.TPDiscard:
		stack.LetAssignment("_", value)

	case *types.TPAssign:
		stack.LetAssignment(pattern.Name, value)
		inner := stack.EmptyWithScope()
		inner.LocalVar(pattern.Pattern.PatternTypeOf(), pattern.Name)
		g.buildPatternBindings(stack, pattern.Pattern, inner, expect)

	case *types.TPInt:
		// A literal pattern in a let position only checks under expect.
		name := g.freshName("__expect_int")
		stack.LetAssignment(name, value)
		if expect {
			condition := stack.EmptyWithScope()
			lhs := condition.EmptyWithScope()
			lhs.LocalVar(types.IntType(), name)
			rhs := condition.EmptyWithScope()
			rhs.Integer(pattern.Value)
			condition.BinOp(ast.BinOpEq, types.IntType(), lhs, rhs)
			stack.AssertBool(true, condition)
		}

	case *types.TPTuple:
		name := g.freshName("__tuple")
		stack.LetAssignment(name, value)
		names := make([]string, len(pattern.Elems))
		nested := make([]types.TypedPattern, 0, len(pattern.Elems))
		for i, elem := range pattern.Elems {
			names[i] = g.patternBindingName(elem, fmt.Sprintf("__tuple_%d", i))
			if !isDirectBinding(elem) {
				nested = append(nested, elem)
			}
		}
		subject := stack.EmptyWithScope()
		subject.LocalVar(pattern.Tipo, name)
		stack.TupleAccessor(pattern.Tipo, names, subject)
		g.bindNested(stack, pattern.Elems, names, expect)

	case *types.TPList:
		name := g.freshName("__list")
		stack.LetAssignment(name, value)
		names := make([]string, len(pattern.Elements))
		for i, element := range pattern.Elements {
			names[i] = g.patternBindingName(element, fmt.Sprintf("__list_%d", i))
		}
		hasTail := pattern.Tail != nil
		if hasTail {
			names = append(names, g.patternBindingName(pattern.Tail, "__tail"))
		}
		subject := stack.EmptyWithScope()
		subject.LocalVar(pattern.Tipo, name)
		stack.ListAccessor(pattern.Tipo, names, hasTail, expect, subject)
		g.bindNested(stack, pattern.Elements, names, expect)

	case *types.TPConstructor:
		g.buildConstructorBindings(stack, pattern, value, expect)
	}
}

// buildExpectCheck walks expected values of compound type, exercising the
// list-check intrinsic for expect bindings over lists of non-data
// payloads.
func (g *Generator) buildExpectCheck(stack *air.Stack, tipo types.Type, name string, expect bool) {
	if !expect || !types.IsList(tipo) || types.IsMap(tipo) {
		return
	}
	args := types.TypeArgs(tipo)
	if len(args) != 1 || types.IsData(args[0]) {
		return
	}
	g.needsExpectOnList = true
	// expect_on_list(value, \x -> <shape check>) confirms every element
	// decodes at its expected type.
	call := stack.EmptyWithScope()
	fun := call.EmptyWithScope()
	fun.LocalVar(nil, ExpectOnList)
	listArg := call.EmptyWithScope()
	listArg.LocalVar(tipo, name)
	checkArg := call.EmptyWithScope()
	elemName := g.freshName("__elem")
	checkBody := checkArg.EmptyWithScope()
	unwrap := checkBody.EmptyWithScope()
	unwrap.LocalVar(args[0], elemName)
	checkBody.UnWrapData(args[0], unwrap)
	checkArg.AnonymousFunction([]string{elemName}, checkBody)
	call.Call(types.VoidType(), fun, listArg, checkArg)
	stack.LetAssignment("_", call)
}

func (g *Generator) bindNested(stack *air.Stack, patterns []types.TypedPattern, names []string, expect bool) {
	for i, pattern := range patterns {
		if isDirectBinding(pattern) {
			continue
		}
		inner := stack.EmptyWithScope()
		inner.LocalVar(pattern.PatternTypeOf(), names[i])
		g.buildPatternBindings(stack, pattern, inner, expect)
	}
}

func isDirectBinding(pattern types.TypedPattern) bool {
	switch pattern.(type) {
	case *types.TPVar, *types.TPDiscard:
		return true
	}
	return false
}

func (g *Generator) patternBindingName(pattern types.TypedPattern, fallback string) string {
	switch pattern := pattern.(type) {
	case *types.TPVar:
		return pattern.Name
	case *types.TPDiscard:
		return "_"
	}
	return g.freshName(fallback)
}

func (g *Generator) buildConstructorBindings(stack *air.Stack, pattern *types.TPConstructor, value *air.Stack, expect bool) {
	record, _ := pattern.Constructor.Variant.(types.VariantRecord)

	name := g.freshName("__constr")
	stack.LetAssignment(name, value)

	// A multi-constructor expect needs a runtime tag check first.
	if expect && record.ConstructorsCount > 1 {
		info := g.constrInfoFor(record)
		subject := stack.EmptyWithScope()
		subject.LocalVar(pattern.Tipo, name)
		stack.AssertConstr(info.tag, subject)
	}

	var indices []air.FieldIndex
	for i, argument := range pattern.Arguments {
		fieldName := g.patternBindingName(argument.Value, fmt.Sprintf("__field_%d", i))
		if fieldName == "_" {
			continue
		}
		indices = append(indices, air.FieldIndex{
			Index: i,
			Name:  fieldName,
			Tipo:  argument.Value.PatternTypeOf(),
		})
	}
	if len(indices) > 0 {
		subject := stack.EmptyWithScope()
		subject.LocalVar(pattern.Tipo, name)
		stack.FieldsExpose(indices, expect, subject)
	}

	// Nested patterns recurse on their bound field.
	for i, argument := range pattern.Arguments {
		if isDirectBinding(argument.Value) {
			continue
		}
		fieldName := ""
		for _, index := range indices {
			if index.Index == i {
				fieldName = index.Name
			}
		}
		if fieldName == "" {
			continue
		}
		inner := stack.EmptyWithScope()
		inner.LocalVar(argument.Value.PatternTypeOf(), fieldName)
		g.buildPatternBindings(stack, argument.Value, inner, expect)
	}
}

func (g *Generator) freshName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, g.idGen.Next())
}

// buildWhen lowers a pattern match into a subject binding followed by a
// clause chain.
func (g *Generator) buildWhen(stack *air.Stack, expr *types.TWhen) {
	subjectName := g.freshName("__subject")
	subjectType := expr.Subject.TypeOf()

	subject := stack.EmptyWithScope()
	g.buildExpr(subject, expr.Subject)

	clauses := stack.EmptyWithScope()
	g.buildClauseChain(clauses, expr, 0, subjectName, subjectType)

	stack.When(expr.Tipo, subjectName, subject, clauses)
}

// buildClauseChain emits clause index and everything after it.
func (g *Generator) buildClauseChain(stack *air.Stack, expr *types.TWhen, index int, subjectName string, subjectType types.Type) {
	clause := expr.Clauses[index]
	last := index == len(expr.Clauses)-1

	// Alternative patterns become separate chained clauses over the same
	// body; guards wrap the body in a conditional that falls through.
	pattern := clause.Patterns[0]

	body := stack.EmptyWithScope()
	g.buildClauseBody(body, clause, pattern, subjectName, subjectType, expr.Tipo)

	if last && clause.Guard == nil && isCatchAllPattern(pattern) {
		stack.Finally(body)
		return
	}

	test := stack.EmptyWithScope()
	g.buildPatternTest(test, pattern, subjectName, subjectType)

	if clause.Guard != nil {
		// The guard sees the pattern's bindings, so they wrap the guard
		// expression as well as the body.
		guard := stack.EmptyWithScope()
		subject := guard.EmptyWithScope()
		subject.LocalVar(subjectType, subjectName)
		g.buildPatternBindings(guard, pattern, subject, false)
		g.buildExpr(guard, clause.Guard)

		combined := stack.EmptyWithScope()
		combined.BinOp(ast.BinOpAnd, types.BoolType(), test, guard)
		test = combined
	}

	if last {
		// A refutable final clause still needs a fallback; the checker
		// has proven it unreachable, so it traps.
		stack.Clause(expr.Tipo, subjectName, clause.Guard != nil, mergeTestBody(stack, test, body))
		fallback := stack.EmptyWithScope()
		fallback.ErrorTerm(expr.Tipo)
		stack.Finally(fallback)
		return
	}

	stack.Clause(expr.Tipo, subjectName, clause.Guard != nil, mergeTestBody(stack, test, body))
	g.buildClauseChain(stack, expr, index+1, subjectName, subjectType)
}

// mergeTestBody packs a clause's test and body into one child stack; the
// Clause opcode consumes them in order.
func mergeTestBody(parent *air.Stack, test, body *air.Stack) *air.Stack {
	combined := parent.EmptyWithScope()
	combined.Sequence(test, body)
	return combined
}

func isCatchAllPattern(pattern types.TypedPattern) bool {
	switch pattern := pattern.(type) {
	case *types.TPVar, *types.TPDiscard:
		return true
	case *types.TPAssign:
		return isCatchAllPattern(pattern.Pattern)
	}
	return false
}

// buildClauseBody emits the clause body wrapped in its pattern bindings.
func (g *Generator) buildClauseBody(stack *air.Stack, clause *types.TypedClause, pattern types.TypedPattern, subjectName string, subjectType, resultType types.Type) {
	if !isCatchAllPattern(pattern) || boundName(pattern) != "" {
		subject := stack.EmptyWithScope()
		subject.LocalVar(subjectType, subjectName)
		g.buildPatternBindings(stack, pattern, subject, false)
	}
	g.buildExpr(stack, clause.Then)
}

func boundName(pattern types.TypedPattern) string {
	switch pattern := pattern.(type) {
	case *types.TPVar:
		return pattern.Name
	case *types.TPAssign:
		return pattern.Name
	}
	return ""
}

// buildPatternTest emits a boolean test deciding whether the subject
// matches the pattern.
func (g *Generator) buildPatternTest(stack *air.Stack, pattern types.TypedPattern, subjectName string, subjectType types.Type) {
	switch pattern := pattern.(type) {
	case *types.TPVar, *types.TPDiscard:
		stack.Bool(true)

	case *types.TPAssign:
		g.buildPatternTest(stack, pattern.Pattern, subjectName, subjectType)

	case *types.TPInt:
		lhs := stack.EmptyWithScope()
		lhs.LocalVar(types.IntType(), subjectName)
		rhs := stack.EmptyWithScope()
		rhs.Integer(pattern.Value)
		stack.BinOp(ast.BinOpEq, types.IntType(), lhs, rhs)

	case *types.TPList:
		g.buildListTest(stack, pattern, subjectName, subjectType)

	case *types.TPConstructor:
		record, _ := pattern.Constructor.Variant.(types.VariantRecord)
		if types.IsBool(subjectType) {
			subject := stack.EmptyWithScope()
			subject.LocalVar(subjectType, subjectName)
			if pattern.Name == "True" {
				stack.NoOp(subject)
			} else {
				stack.UnOp(ast.UnOpNot, subject)
			}
			return
		}
		info := g.constrInfoFor(record)
		lhs := stack.EmptyWithScope()
		g.buildConstrTag(lhs, subjectName, subjectType)
		rhs := stack.EmptyWithScope()
		rhs.Integer(fmt.Sprintf("%d", info.tag))
		stack.Builtin(uplc.EqualsInteger, types.BoolType(), lhs, rhs)

	case *types.TPTuple:
		// Tuple width is static; only nested refutable patterns need
		// runtime tests, which the bindings' asserts perform.
		stack.Bool(true)

	default:
		stack.Bool(true)
	}
}

// buildConstrTag emits the constructor index of a data-encoded subject:
// fstPair(unConstrData(subject)).
func (g *Generator) buildConstrTag(stack *air.Stack, subjectName string, subjectType types.Type) {
	unconstred := stack.EmptyWithScope()
	subject := unconstred.EmptyWithScope()
	subject.LocalVar(subjectType, subjectName)
	unconstred.Builtin(uplc.UnConstrData, nil, subject)
	stack.Builtin(uplc.FstPair, types.IntType(), unconstred)
}

// buildListTest emits emptiness tests matching the pattern's spine:
// [] matches exactly the empty list, [x, ..] any non-empty list, [x] a
// list of exactly one, and so on.
func (g *Generator) buildListTest(stack *air.Stack, pattern *types.TPList, subjectName string, subjectType types.Type) {
	depth := len(pattern.Elements)
	exact := pattern.Tail == nil

	emitNullCheck := func(target *air.Stack, tails int, wantEmpty bool) {
		spine := target.EmptyWithScope()
		spine.LocalVar(subjectType, subjectName)
		for i := 0; i < tails; i++ {
			inner := spine
			spine = target.EmptyWithScope()
			spine.Builtin(uplc.TailList, subjectType, inner)
		}
		if wantEmpty {
			target.Builtin(uplc.NullList, types.BoolType(), spine)
		} else {
			check := target.EmptyWithScope()
			check.Builtin(uplc.NullList, types.BoolType(), spine)
			target.UnOp(ast.UnOpNot, check)
		}
	}

	if depth == 0 && exact {
		emitNullCheck(stack, 0, true)
		return
	}

	// Non-empty prefixes: every spine position before depth is non-null;
	// with no tail the spine at depth must be null.
	tests := make([]*air.Stack, 0, depth+1)
	for i := 0; i < depth; i++ {
		test := stack.EmptyWithScope()
		emitNullCheck(test, i, false)
		tests = append(tests, test)
	}
	if exact {
		test := stack.EmptyWithScope()
		emitNullCheck(test, depth, true)
		tests = append(tests, test)
	}

	if len(tests) == 1 {
		stack.Merge(tests[0])
		return
	}
	combined := tests[len(tests)-1]
	for i := len(tests) - 2; i >= 0; i-- {
		next := stack.EmptyWithScope()
		next.BinOp(ast.BinOpAnd, types.BoolType(), tests[i], combined)
		combined = next
	}
	stack.Merge(combined)
}
