package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoofficial/nano/internal/ast"
)

func parseOK(t *testing.T, src string) *ast.Module {
	t.Helper()
	module, errors := ParseModule("m", src, ast.ModuleKindLib)
	require.Empty(t, errors, "parse errors: %v", errors)
	return module
}

func TestParseUse(t *testing.T) {
	module := parseOK(t, "use nano/list.{map, filter as keep} as lists")
	require.Len(t, module.Definitions, 1)
	use := module.Definitions[0].(*ast.Use)
	assert.Equal(t, []string{"nano", "list"}, use.Module)
	assert.Equal(t, "lists", use.As)
	require.Len(t, use.Unqualified, 2)
	assert.Equal(t, "map", use.Unqualified[0].Label())
	assert.Equal(t, "keep", use.Unqualified[1].Label())
}

func TestParseDataType(t *testing.T) {
	module := parseOK(t, `
pub opaque type Value<a> {
  MkValue(a, Int)
  Empty
}
`)
	dataType := module.Definitions[0].(*ast.DataType)
	assert.True(t, dataType.Public)
	assert.True(t, dataType.Opaque)
	assert.Equal(t, []string{"a"}, dataType.Parameters)
	require.Len(t, dataType.Constructors, 2)
	assert.Len(t, dataType.Constructors[0].Arguments, 2)
}

func TestParseRecordConstructor(t *testing.T) {
	module := parseOK(t, `
pub type Account {
  Account { owner: ByteArray, balance: Int }
}
`)
	dataType := module.Definitions[0].(*ast.DataType)
	constructor := dataType.Constructors[0]
	assert.True(t, constructor.Sugar)
	require.Len(t, constructor.Arguments, 2)
	assert.Equal(t, "owner", constructor.Arguments[0].Label)
}

func TestParseTypeAlias(t *testing.T) {
	module := parseOK(t, "pub type Tokens = List<Int>")
	alias := module.Definitions[0].(*ast.TypeAlias)
	assert.Equal(t, "Tokens", alias.Alias)
	constructor := alias.Annotation.(*ast.AnnConstructor)
	assert.Equal(t, "List", constructor.Name)
	require.Len(t, constructor.Arguments, 1)
}

func TestParseConst(t *testing.T) {
	module := parseOK(t, `pub const fee: Int = 100`)
	constant := module.Definitions[0].(*ast.ModuleConstant)
	assert.Equal(t, "fee", constant.Name)
	value := constant.Value.(*ast.ConstInt)
	assert.Equal(t, "100", value.Value)
}

func TestParsePrecedence(t *testing.T) {
	expr, errors := ParseExpr("1 + 2 * 3 == 7")
	require.Empty(t, errors)

	eq := expr.(*ast.BinOpExpr)
	assert.Equal(t, ast.BinOpEq, eq.Name)
	add := eq.Left.(*ast.BinOpExpr)
	assert.Equal(t, ast.BinOpAddInt, add.Name)
	mult := add.Right.(*ast.BinOpExpr)
	assert.Equal(t, ast.BinOpMultInt, mult.Name)
}

func TestParsePipeline(t *testing.T) {
	expr, errors := ParseExpr("x |> f |> g(1)")
	require.Empty(t, errors)
	pipeline := expr.(*ast.PipeLine)
	require.Len(t, pipeline.Expressions, 3)
	_, isCall := pipeline.Expressions[2].(*ast.Call)
	assert.True(t, isCall)
}

func TestParseWhenWithAlternativesAndGuard(t *testing.T) {
	expr, errors := ParseExpr(`when x is {
  1 | 2 -> 10
  n if n > 5 -> n
  _ -> 0
}`)
	require.Empty(t, errors)
	when := expr.(*ast.When)
	require.Len(t, when.Clauses, 3)
	assert.Len(t, when.Clauses[0].Patterns, 2)
	assert.NotNil(t, when.Clauses[1].Guard)
}

func TestParseListWithSpread(t *testing.T) {
	expr, errors := ParseExpr("[1, 2, ..rest]")
	require.Empty(t, errors)
	list := expr.(*ast.List)
	assert.Len(t, list.Elements, 2)
	require.NotNil(t, list.Tail)
}

func TestParseConstructorPatternWithSpread(t *testing.T) {
	expr, errors := ParseExpr(`when x is {
  MkThing(a, ..) -> a
}`)
	require.Empty(t, errors)
	when := expr.(*ast.When)
	pattern := when.Clauses[0].Patterns[0].(*ast.PatternConstructor)
	assert.True(t, pattern.WithSpread)
	assert.Len(t, pattern.Arguments, 1)
}

func TestParseTupleIndexOrdinals(t *testing.T) {
	expr, errors := ParseExpr("pair.1st")
	require.Empty(t, errors)
	index := expr.(*ast.TupleIndex)
	assert.Equal(t, 0, index.Index)
}

func TestParseInvalidTupleIndexSuggestsSuffix(t *testing.T) {
	_, errors := ParseExpr("pair.2")
	require.NotEmpty(t, errors)
	assert.Contains(t, errors[0].Hint, "2nd")
}

func TestParseRecordUpdate(t *testing.T) {
	expr, errors := ParseExpr("Account { ..acc, balance: 3 }")
	require.Empty(t, errors)
	update := expr.(*ast.RecordUpdate)
	require.NotNil(t, update.Spread)
	require.Len(t, update.Arguments, 1)
	assert.Equal(t, "balance", update.Arguments[0].Label)
}

func TestParseAnonymousFunction(t *testing.T) {
	expr, errors := ParseExpr("fn(a: Int, b) -> Int { a }")
	require.Empty(t, errors)
	fn := expr.(*ast.Fn)
	assert.Len(t, fn.Arguments, 2)
	assert.NotNil(t, fn.ReturnAnnotation)
}

func TestParseValidator(t *testing.T) {
	module, errors := ParseModule("v", `
validator(threshold: Int) {
  fn spend(datum, redeemer, ctx) -> Bool {
    True
  }
}
`, ast.ModuleKindValidator)
	require.Empty(t, errors, "%v", errors)
	validator := module.Definitions[0].(*ast.Validator)
	require.NotNil(t, validator.Fun)
	assert.Equal(t, "spend", validator.Fun.Name)
	assert.Len(t, validator.Params, 1)
}

func TestParseErrorsMergeOnSameSpan(t *testing.T) {
	merged := MergeErrors([]*ParseError{
		{Message: "expected ')'", Location: ast.Span{Start: 4, End: 5}},
		{Message: "expected ','", Location: ast.Span{Start: 4, End: 5}},
		{Message: "other", Location: ast.Span{Start: 9, End: 10}},
	})
	require.Len(t, merged, 2)
	assert.Equal(t, "expected ','", merged[0].Hint)
}

func TestParseRecoversAndKeepsGoing(t *testing.T) {
	_, errors := ParseModule("m", "pub fn broken( { }\npub fn ok() { 1 }", ast.ModuleKindLib)
	assert.NotEmpty(t, errors)
}
