package types

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoofficial/nano/internal/ast"
	"github.com/nanoofficial/nano/internal/idgen"
	"github.com/nanoofficial/nano/internal/parser"
)

func inferSource(t *testing.T, src string) (*TypedModule, []Warning, error) {
	t.Helper()
	module, parseErrors := parser.ParseModule("test_module", src, ast.ModuleKindLib)
	require.Empty(t, parseErrors, "parse errors: %v", parseErrors)

	idGen := idgen.New()
	var warnings []Warning
	modules := map[string]*TypeInfo{"": Prelude(idGen)}
	typed, err := InferModule(idGen, module, ast.ModuleKindLib, "test", modules, &warnings)
	return typed, warnings, err
}

func findError[T error](t *testing.T, err error) T {
	t.Helper()
	var zero T
	require.Error(t, err)

	all := []error{err}
	if merr, ok := err.(*multierror.Error); ok {
		all = merr.Errors
	}
	for _, inner := range all {
		if typed, ok := inner.(T); ok {
			return typed
		}
	}
	t.Fatalf("no %T among %v", zero, err)
	return zero
}

func TestInferSimpleModule(t *testing.T) {
	src := `
pub type Thing {
  Foo(Int)
  Bar
}

pub fn add_one(x: Int) -> Int {
  x + 1
}

pub fn pick(t: Thing) -> Int {
  when t is {
    Foo(n) -> n
    Bar -> 0
  }
}
`
	typed, _, err := inferSource(t, src)
	require.NoError(t, err)
	require.NotNil(t, typed)

	addOne := typed.TypeInfo.Values["add_one"]
	require.NotNil(t, addOne)
	fn, ok := Follow(addOne.Tipo).(*Fn)
	require.True(t, ok)
	assert.True(t, IsInt(fn.Args[0]))
	assert.True(t, IsInt(fn.Ret))

	assert.Equal(t, []string{"Foo", "Bar"}, typed.TypeInfo.TypesConstructors["Thing"])
}

func TestInferGeneralisesPolymorphicFunctions(t *testing.T) {
	src := `
pub fn identity(x) {
  x
}
`
	typed, _, err := inferSource(t, src)
	require.NoError(t, err)

	identity := typed.TypeInfo.Values["identity"]
	require.NotNil(t, identity)
	fn, ok := Follow(identity.Tipo).(*Fn)
	require.True(t, ok)
	assert.True(t, IsGeneric(fn.Args[0]))
	assert.True(t, typeEqual(fn.Args[0], fn.Ret))
}

func TestSelfReferenceWithoutCallIsRecursiveType(t *testing.T) {
	src := `
fn f(x) {
  f
}
`
	_, _, err := inferSource(t, src)
	recursive := findError[*RecursiveTypeError](t, err)
	assert.NotNil(t, recursive)
}

func TestRecursiveFunctionsTypeCheck(t *testing.T) {
	src := `
pub fn until_zero(n: Int) -> Int {
  if n <= 0 {
    0
  } else {
    until_zero(n - 1)
  }
}
`
	_, _, err := inferSource(t, src)
	assert.NoError(t, err)
}

func TestDuplicateFunctionName(t *testing.T) {
	src := `
fn twice(x) { x }
fn twice(y) { y }
`
	_, _, err := inferSource(t, src)
	duplicate := findError[*DuplicateNameError](t, err)
	assert.Equal(t, "twice", duplicate.Name)
}

func TestDuplicateTypeName(t *testing.T) {
	src := `
type Shape { Circle }
type Shape { Square }
`
	_, _, err := inferSource(t, src)
	duplicate := findError[*DuplicateTypeNameError](t, err)
	assert.Equal(t, "Shape", duplicate.Name)
}

func TestCyclicTypeDefinitions(t *testing.T) {
	src := `
type A = B
type B = A
`
	_, _, err := inferSource(t, src)
	cyclic := findError[*CyclicTypeDefinitionsError](t, err)
	assert.ElementsMatch(t, []string{"A", "B"}, cyclic.Types)
}

func TestTypeRegistrationRetriesOutOfOrder(t *testing.T) {
	// Later definitions may be referenced by earlier ones; registration
	// retries until the set stabilises.
	src := `
type Wrapper = Inner

type Inner {
  MkInner
}
`
	_, _, err := inferSource(t, src)
	assert.NoError(t, err)
}

func TestUnknownTypeSuggestion(t *testing.T) {
	src := `
fn f(x: Intt) -> Int { 1 }
`
	_, _, err := inferSource(t, src)
	unknown := findError[*UnknownTypeError](t, err)
	assert.Equal(t, "Intt", unknown.Name)
	assert.Contains(t, unknown.Error(), "Int")
}

func TestUnusedPrivateFunctionWarning(t *testing.T) {
	src := `
fn hidden(x: Int) -> Int { x }

pub fn visible(x: Int) -> Int { x }
`
	_, warnings, err := inferSource(t, src)
	require.NoError(t, err)

	found := false
	for _, warning := range warnings {
		if unused, ok := warning.(*UnusedPrivateFunctionWarning); ok && unused.Name == "hidden" {
			found = true
		}
	}
	assert.True(t, found, "expected an unused-private-function warning, got %v", warnings)
}

func TestPipeMismatchSituation(t *testing.T) {
	src := `
pub fn shout(s: String) -> String { s }

pub fn broken() -> String {
  42 |> shout
}
`
	_, _, err := inferSource(t, src)
	unify := findError[*CouldNotUnifyError](t, err)
	assert.Equal(t, SituationPipeTypeMismatch, unify.Situation)
}

func TestPipeInsertsFirstArgument(t *testing.T) {
	src := `
pub fn add(a: Int, b: Int) -> Int { a + b }

pub fn compute() -> Int {
  1 |> add(2) |> add(3)
}
`
	_, _, err := inferSource(t, src)
	assert.NoError(t, err)
}

func TestWhenMissingConstructorReported(t *testing.T) {
	src := `
pub type Color {
  A
  B
  C
}

pub fn f(c: Color) -> Int {
  when c is {
    A -> 1
    C -> 3
  }
}
`
	_, _, err := inferSource(t, src)
	missing := findError[*NotExhaustivePatternMatchError](t, err)
	assert.Equal(t, []string{"B"}, missing.Missing)
}

func TestWhenListExhaustiveness(t *testing.T) {
	src := `
pub fn f(xs: List<Int>) -> Int {
  when xs is {
    [] -> 0
    [_, _] -> 2
  }
}
`
	_, _, err := inferSource(t, src)
	missing := findError[*NotExhaustivePatternMatchError](t, err)
	assert.Equal(t, []string{"[_, ..]"}, missing.Missing)
}

func TestWhenListFullCoverage(t *testing.T) {
	src := `
pub fn f(xs: List<Int>) -> Int {
  when xs is {
    [] -> 0
    [_, ..] -> 1
  }
}
`
	_, _, err := inferSource(t, src)
	assert.NoError(t, err)
}

func TestAlternativePatternsMustBindSameVariables(t *testing.T) {
	src := `
pub type Either {
  Left(Int)
  Right(Int)
}

pub fn f(e: Either) -> Int {
  when e is {
    Left(n) | Right(_) -> 1
  }
}
`
	_, _, err := inferSource(t, src)
	missing := findError[*MissingVarInAlternativePatternError](t, err)
	assert.Equal(t, "n", missing.Name)
}

func TestConstructorPatternArity(t *testing.T) {
	src := `
pub type Pairish {
  MkPair(Int, Int)
}

pub fn f(p: Pairish) -> Int {
  when p is {
    MkPair(a) -> a
  }
}
`
	_, _, err := inferSource(t, src)
	arity := findError[*IncorrectPatternArityError](t, err)
	assert.Equal(t, 2, arity.Expected)
	assert.Equal(t, 1, arity.Given)
}

func TestSpreadFillsTrailingFields(t *testing.T) {
	src := `
pub type Wide {
  MkWide(Int, Int, Int)
}

pub fn f(w: Wide) -> Int {
  when w is {
    MkWide(a, ..) -> a
  }
}
`
	_, _, err := inferSource(t, src)
	assert.NoError(t, err)
}

func TestUnnecessarySpread(t *testing.T) {
	src := `
pub type Narrow {
  MkNarrow(Int)
}

pub fn f(n: Narrow) -> Int {
  when n is {
    MkNarrow(a, ..) -> a
  }
}
`
	_, _, err := inferSource(t, src)
	spread := findError[*UnnecessarySpreadOperatorError](t, err)
	assert.NotNil(t, spread)
}

func TestRecordAccessAndUpdate(t *testing.T) {
	src := `
pub type Account {
  Account { owner: ByteArray, balance: Int }
}

pub fn balance(a: Account) -> Int {
  a.balance
}

pub fn credit(a: Account, amount: Int) -> Account {
  Account { ..a, balance: a.balance + amount }
}
`
	_, _, err := inferSource(t, src)
	assert.NoError(t, err)
}

func TestUnknownRecordField(t *testing.T) {
	src := `
pub type Account {
  Account { owner: ByteArray, balance: Int }
}

pub fn f(a: Account) -> Int {
  a.balanse
}
`
	_, _, err := inferSource(t, src)
	unknown := findError[*UnknownRecordFieldError](t, err)
	assert.Equal(t, "balanse", unknown.Label)
	assert.Contains(t, unknown.Error(), "balance")
}

func TestExpectAllowsDataCast(t *testing.T) {
	src := `
pub fn f(d: Data) -> Int {
  expect n: Int = d
  n
}
`
	_, _, err := inferSource(t, src)
	assert.NoError(t, err)
}

func TestGuardMustBeBoolean(t *testing.T) {
	src := `
pub fn f(n: Int) -> Int {
  when n is {
    m if m + 1 -> m
    _ -> 0
  }
}
`
	_, _, err := inferSource(t, src)
	unify := findError[*CouldNotUnifyError](t, err)
	assert.NotNil(t, unify)
}

func TestTupleTyping(t *testing.T) {
	src := `
pub fn swap(pair: (Int, ByteArray)) -> (ByteArray, Int) {
  let (n, b) = pair
  (b, n)
}
`
	_, _, err := inferSource(t, src)
	assert.NoError(t, err)
}
