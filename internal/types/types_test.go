package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoofficial/nano/internal/ast"
	"github.com/nanoofficial/nano/internal/idgen"
)

func testEnv(t *testing.T) (*Environment, *[]Warning) {
	t.Helper()
	idGen := idgen.New()
	warnings := &[]Warning{}
	modules := map[string]*TypeInfo{"": Prelude(idGen)}
	return NewEnvironment(idGen, "test_module", modules, warnings), warnings
}

func TestFollowCompressesLinkChains(t *testing.T) {
	inner := NewUnbound(1)
	middle := &Var{Cell: &TypeVarCell{State: Link{To: inner}}}
	outer := &Var{Cell: &TypeVarCell{State: Link{To: middle}}}

	resolved := Follow(outer)
	assert.Same(t, inner, resolved)

	// After compression the outer cell links directly to the target.
	link, ok := outer.(*Var).Cell.State.(Link)
	require.True(t, ok)
	assert.Same(t, inner, link.To)
}

func TestUnifyLinksUnboundVariables(t *testing.T) {
	env, _ := testEnv(t)

	alpha := env.NewUnboundVar()
	require.NoError(t, env.Unify(alpha, IntType(), ast.Span{}, false))
	assert.True(t, IsInt(alpha))
}

func TestUnifyIsSymmetric(t *testing.T) {
	env, _ := testEnv(t)

	left := env.NewUnboundVar()
	require.NoError(t, env.Unify(left, ListType(IntType()), ast.Span{}, false))

	right := env.NewUnboundVar()
	require.NoError(t, env.Unify(ListType(IntType()), right, ast.Span{}, false))

	assert.True(t, typeEqual(left, right))
}

func TestUnifyOccursCheck(t *testing.T) {
	env, _ := testEnv(t)

	alpha := env.NewUnboundVar()
	err := env.Unify(alpha, FunctionType([]Type{alpha}, IntType()), ast.Span{}, false)
	var recursive *RecursiveTypeError
	assert.ErrorAs(t, err, &recursive)
}

func TestUnifyStructuralMismatch(t *testing.T) {
	env, _ := testEnv(t)

	err := env.Unify(IntType(), StringType(), ast.Span{}, false)
	var unifyErr *CouldNotUnifyError
	require.ErrorAs(t, err, &unifyErr)
	assert.True(t, IsInt(unifyErr.Expected))
	assert.True(t, IsString(unifyErr.Given))
}

func TestUnifyFlipsVariableToTheLeft(t *testing.T) {
	env, _ := testEnv(t)

	beta := env.NewUnboundVar()
	require.NoError(t, env.Unify(IntType(), beta, ast.Span{}, false))
	assert.True(t, IsInt(beta))
}

func TestUnifyAllowCastBoxesIntoData(t *testing.T) {
	env, _ := testEnv(t)

	assert.NoError(t, env.Unify(DataValueType(), IntType(), ast.Span{}, true))
	assert.Error(t, env.Unify(DataValueType(), IntType(), ast.Span{}, false))
	// Strings and functions never box.
	assert.Error(t, env.Unify(DataValueType(), StringType(), ast.Span{}, true))
	assert.Error(t, env.Unify(DataValueType(), FunctionType([]Type{IntType()}, IntType()), ast.Span{}, true))
}

func TestGeneraliseThenInstantiate(t *testing.T) {
	env, _ := testEnv(t)

	alpha := env.NewUnboundVar()
	fn := FunctionType([]Type{alpha}, alpha)
	GeneraliseType(fn)
	assert.True(t, IsGeneric(alpha))

	ids := map[uint64]Type{}
	first := env.Instantiate(fn, ids, nil)
	second := env.Instantiate(fn, ids, nil)

	// Instantiation at the same memoised ids yields the same type.
	assert.True(t, typeEqual(first, second))
	firstFn := Follow(first).(*Fn)
	assert.True(t, IsUnbound(firstFn.Args[0]))
	assert.True(t, typeEqual(firstFn.Args[0], firstFn.Ret))
}

func TestInstantiateKeepsRigidVariables(t *testing.T) {
	env, _ := testEnv(t)
	hydrator := NewHydrator()

	annotated, err := hydrator.TypeFromAnnotation(
		&ast.AnnVar{Name: "a"}, env)
	require.NoError(t, err)
	require.True(t, IsGeneric(annotated))

	instantiated := env.Instantiate(annotated, map[uint64]Type{}, hydrator)
	assert.True(t, IsGeneric(instantiated))
}

func TestGetUplcTypeClassification(t *testing.T) {
	assert.Equal(t, "integer", GetUplcType(IntType()).String())
	assert.Equal(t, "bool", GetUplcType(BoolType()).String())
	assert.Equal(t, "(list data)", GetUplcType(ListType(IntType())).String())
	assert.Equal(t, "(list (pair data data))",
		GetUplcType(ListType(TupleType(IntType(), IntType()))).String())
	assert.Equal(t, "data", GetUplcType(OptionType(IntType())).String())

	// An unbound element variable is not enough evidence for a map.
	unbound := NewUnbound(77)
	assert.Equal(t, "(list data)", GetUplcType(ListType(unbound)).String())
}

func TestFieldMapReorder(t *testing.T) {
	fieldMap := NewFieldMap(3, false)
	require.NoError(t, fieldMap.Insert("a", 0, ast.Span{}))
	require.NoError(t, fieldMap.Insert("b", 1, ast.Span{}))
	require.NoError(t, fieldMap.Insert("c", 2, ast.Span{}))

	args := []ast.CallArg[string]{
		{Label: "c", Value: "third"},
		{Label: "a", Value: "first"},
		{Label: "b", Value: "second"},
	}
	require.NoError(t, ReorderFields(fieldMap, args, ast.Span{}))
	assert.Equal(t, "first", args[0].Value)
	assert.Equal(t, "second", args[1].Value)
	assert.Equal(t, "third", args[2].Value)
}

func TestFieldMapRejectsDuplicateLabel(t *testing.T) {
	fieldMap := NewFieldMap(2, false)
	require.NoError(t, fieldMap.Insert("a", 0, ast.Span{}))
	err := fieldMap.Insert("a", 1, ast.Span{Start: 5, End: 6})
	var duplicate *DuplicateFieldError
	assert.ErrorAs(t, err, &duplicate)
}

func TestFieldMapPositionalAfterLabeled(t *testing.T) {
	fieldMap := NewFieldMap(2, false)
	require.NoError(t, fieldMap.Insert("a", 0, ast.Span{}))
	require.NoError(t, fieldMap.Insert("b", 1, ast.Span{}))

	args := []ast.CallArg[string]{
		{Label: "a", Value: "x"},
		{Value: "y"},
	}
	err := ReorderFields(fieldMap, args, ast.Span{})
	var positional *PositionalArgumentAfterLabeledError
	assert.ErrorAs(t, err, &positional)
}

func TestFieldMapArityMismatchListsMissingLabels(t *testing.T) {
	fieldMap := NewFieldMap(3, false)
	require.NoError(t, fieldMap.Insert("zebra", 0, ast.Span{}))
	require.NoError(t, fieldMap.Insert("apple", 1, ast.Span{}))
	require.NoError(t, fieldMap.Insert("mango", 2, ast.Span{}))

	args := []ast.CallArg[string]{{Label: "zebra", Value: "x"}}
	err := ReorderFields(fieldMap, args, ast.Span{})
	var arity *IncorrectFieldsArityError
	require.ErrorAs(t, err, &arity)
	assert.Equal(t, []string{"apple", "mango"}, arity.Labels)
}

func TestFieldMapUnknownLabelsReportedTogether(t *testing.T) {
	fieldMap := NewFieldMap(2, false)
	require.NoError(t, fieldMap.Insert("a", 0, ast.Span{}))
	require.NoError(t, fieldMap.Insert("b", 1, ast.Span{}))

	args := []ast.CallArg[string]{
		{Label: "x", Value: "1"},
		{Label: "y", Value: "2"},
	}
	err := ReorderFields(fieldMap, args, ast.Span{})
	var unknown *UnknownLabelsError
	require.ErrorAs(t, err, &unknown)
	assert.Len(t, unknown.Unknown, 2)
	assert.Equal(t, []string{"a", "b"}, unknown.Valid)
}

func TestNearestNamesSuggestions(t *testing.T) {
	candidates := []string{"filter", "fold", "map_list", "length"}
	suggestions := NearestNames("fitler", candidates)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "filter", suggestions[0])

	assert.Empty(t, NearestNames("completely_unrelated", candidates))
}

func TestScopeUsageWarnings(t *testing.T) {
	env, warnings := testEnv(t)

	reset := env.OpenNewScope()
	env.InsertVariable("used", VariantLocalVariable{}, IntType())
	env.InitUsage("used", EntityVariable, ast.Span{})
	env.InsertVariable("unused", VariantLocalVariable{}, IntType())
	env.InitUsage("unused", EntityVariable, ast.Span{Start: 3, End: 9})
	env.IncrementUsage("used")
	env.CloseScope(reset)

	require.Len(t, *warnings, 1)
	unused, ok := (*warnings)[0].(*UnusedVariableWarning)
	require.True(t, ok)
	assert.Equal(t, "unused", unused.Name)
	assert.Equal(t, ast.Span{Start: 3, End: 9}, unused.Location)
}

func TestCloseScopeRestoresBindings(t *testing.T) {
	env, _ := testEnv(t)

	reset := env.OpenNewScope()
	env.InsertVariable("transient", VariantLocalVariable{}, IntType())
	env.CloseScope(reset)

	_, err := env.GetValueConstructor("", "transient", ast.Span{})
	var unknown *UnknownVariableError
	assert.ErrorAs(t, err, &unknown)
}

func TestPipeVariableHiddenFromSuggestions(t *testing.T) {
	env, _ := testEnv(t)
	env.InsertVariable(ast.PipeVariable, VariantLocalVariable{}, IntType())
	assert.NotContains(t, env.LocalValueNames(), ast.PipeVariable)
}

func TestPrinterNamesGenerics(t *testing.T) {
	printer := NewPrinter()
	fn := FunctionType([]Type{NewGeneric(10), NewGeneric(20)}, NewGeneric(10))
	assert.Equal(t, "fn(a, b) -> a", printer.Print(fn))
}

func TestPrinterUsesRigidNames(t *testing.T) {
	printer := NewPrinter()
	printer.WithNames(map[uint64]string{5: "elem"})
	assert.Equal(t, "List<elem>", printer.Print(ListType(NewGeneric(5))))
}
