package gen

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoofficial/nano/internal/ast"
	"github.com/nanoofficial/nano/internal/idgen"
	"github.com/nanoofficial/nano/internal/machine"
	"github.com/nanoofficial/nano/internal/parser"
	"github.com/nanoofficial/nano/internal/types"
	"github.com/nanoofficial/nano/internal/uplc"
)

// compileTest compiles the named test of the module source and returns
// the machine result of running it.
func compileTest(t *testing.T, src, name string) *machine.EvalResult {
	t.Helper()

	module, parseErrors := parser.ParseModule("test_module", src, ast.ModuleKindLib)
	require.Empty(t, parseErrors, "parse errors: %v", parseErrors)

	idGen := idgen.New()
	var warnings []types.Warning
	modules := map[string]*types.TypeInfo{"": types.Prelude(idGen)}
	typed, err := types.InferModule(idGen, module, ast.ModuleKindLib, "test", modules, &warnings)
	require.NoError(t, err)

	for _, def := range typed.Definitions {
		test, ok := def.(*types.TypedTest)
		if !ok || test.Name != name {
			continue
		}
		generator := New(idGen, typed)
		program, err := generator.GenerateTest(test)
		require.NoError(t, err)

		named, err := program.ToNamedDeBruijn()
		require.NoError(t, err)
		return machine.EvalDefault(&uplc.Program{Version: program.Version, Term: named.Term})
	}
	t.Fatalf("no test named %q", name)
	return nil
}

func requireBool(t *testing.T, result *machine.EvalResult) bool {
	t.Helper()
	term, err := result.Result()
	require.NoError(t, err, "traces: %v", result.Logs())
	constant, ok := term.(*uplc.Constant)
	require.True(t, ok, "expected a constant, got %s", uplc.PrettyTerm(term))
	b, ok := constant.Con.(*uplc.Bool)
	require.True(t, ok, "expected a bool, got %s", uplc.PrettyTerm(term))
	return b.Inner
}

func requireIntResult(t *testing.T, result *machine.EvalResult) *big.Int {
	t.Helper()
	term, err := result.Result()
	require.NoError(t, err)
	constant, ok := term.(*uplc.Constant)
	require.True(t, ok)
	integer, ok := constant.Con.(*uplc.Integer)
	require.True(t, ok)
	return integer.Inner
}

func TestLowerArithmetic(t *testing.T) {
	src := `
test arithmetic() {
  1 + 2 * 3 == 7
}
`
	assert.True(t, requireBool(t, compileTest(t, src, "arithmetic")))
}

func TestLowerComparisonAndLogic(t *testing.T) {
	src := `
test logic() {
  1 < 2 && 3 >= 3 && !(2 == 3)
}
`
	assert.True(t, requireBool(t, compileTest(t, src, "logic")))
}

func TestLowerLetBindings(t *testing.T) {
	src := `
test lets() {
  let x = 4
  let y = x * x
  y == 16
}
`
	assert.True(t, requireBool(t, compileTest(t, src, "lets")))
}

func TestLowerIfBranches(t *testing.T) {
	src := `
test branches() {
  if 1 > 2 {
    100
  } else if 2 > 2 {
    200
  } else {
    300
  }
}
`
	result := compileTest(t, src, "branches")
	assert.Zero(t, big.NewInt(300).Cmp(requireIntResult(t, result)))
}

func TestLowerModuleFunctionCalls(t *testing.T) {
	src := `
fn double(x: Int) -> Int {
  x * 2
}

test doubles() {
  double(double(3)) == 12
}
`
	assert.True(t, requireBool(t, compileTest(t, src, "doubles")))
}

func TestLowerRecursiveFunction(t *testing.T) {
	src := `
fn sum_to(n: Int) -> Int {
  if n <= 0 {
    0
  } else {
    n + sum_to(n - 1)
  }
}

test sums() {
  sum_to(4) == 10
}
`
	assert.True(t, requireBool(t, compileTest(t, src, "sums")))
}

func TestLowerPipeline(t *testing.T) {
	src := `
fn double(x: Int) -> Int {
  x * 2
}

fn add(a: Int, b: Int) -> Int {
  a + b
}

test pipes() {
  2 |> double |> add(3) |> double == 14
}
`
	assert.True(t, requireBool(t, compileTest(t, src, "pipes")))
}

func TestLowerConstructorsAndWhen(t *testing.T) {
	src := `
pub type Shape {
  Circle(Int)
  Square(Int)
  Point
}

test shapes() {
  when Square(5) is {
    Circle(r) -> r
    Square(s) -> s * s
    Point -> 0
  } == 25
}
`
	assert.True(t, requireBool(t, compileTest(t, src, "shapes")))
}

func TestLowerWhenOverBool(t *testing.T) {
	src := `
test bools() {
  when 1 == 1 is {
    True -> 10
    False -> 20
  } == 10
}
`
	assert.True(t, requireBool(t, compileTest(t, src, "bools")))
}

func TestLowerWhenWithGuard(t *testing.T) {
	src := `
test guards() {
  when 7 is {
    n if n > 5 -> 1
    _ -> 0
  } == 1
}
`
	assert.True(t, requireBool(t, compileTest(t, src, "guards")))
}

func TestLowerListPatterns(t *testing.T) {
	src := `
test list_match() {
  when [1, 2, 3] is {
    [] -> 0
    [x, ..] -> x
  } == 1
}
`
	assert.True(t, requireBool(t, compileTest(t, src, "list_match")))
}

func TestLowerRecordAccess(t *testing.T) {
	src := `
pub type Account {
  Account { owner: Int, balance: Int }
}

test access() {
  let account = Account(1, 50)
  account.balance == 50
}
`
	assert.True(t, requireBool(t, compileTest(t, src, "access")))
}

func TestLowerRecordUpdate(t *testing.T) {
	src := `
pub type Account {
  Account { owner: Int, balance: Int }
}

test update() {
  let account = Account(1, 50)
  let richer = Account { ..account, balance: 80 }
  richer.balance == 80 && richer.owner == 1
}
`
	assert.True(t, requireBool(t, compileTest(t, src, "update")))
}

func TestLowerTuples(t *testing.T) {
	src := `
test tuples() {
  let pair = (3, 4)
  let (a, b) = pair
  a + b == 7
}
`
	assert.True(t, requireBool(t, compileTest(t, src, "tuples")))
}

func TestLowerTraceCollectsLog(t *testing.T) {
	src := `
test traced() {
  trace "checkpoint"
  True
}
`
	result := compileTest(t, src, "traced")
	assert.True(t, requireBool(t, result))
	assert.Contains(t, result.Logs(), "checkpoint")
}

func TestLowerExpectConstructor(t *testing.T) {
	src := `
pub type Wrapped {
  One(Int)
  Two(Int)
}

test expectations() {
  expect One(n) = One(9)
  n == 9
}
`
	assert.True(t, requireBool(t, compileTest(t, src, "expectations")))
}

func TestLowerFailingExpectTraps(t *testing.T) {
	src := `
pub type Wrapped {
  One(Int)
  Two(Int)
}

test failing() {
  expect One(n) = Two(9)
  n == 9
}
`
	result := compileTest(t, src, "failing")
	_, err := result.Result()
	assert.Error(t, err)
}

func TestLowerAnonymousFunctions(t *testing.T) {
	src := `
test anonymous() {
  let add = fn(a: Int, b: Int) { a + b }
  add(2, 5) == 7
}
`
	assert.True(t, requireBool(t, compileTest(t, src, "anonymous")))
}

func TestGeneratedProgramSurvivesWireRoundTrip(t *testing.T) {
	src := `
fn double(x: Int) -> Int {
  x * 2
}

test wire() {
  double(21) == 42
}
`
	module, parseErrors := parser.ParseModule("test_module", src, ast.ModuleKindLib)
	require.Empty(t, parseErrors)

	idGen := idgen.New()
	var warnings []types.Warning
	modules := map[string]*types.TypeInfo{"": types.Prelude(idGen)}
	typed, err := types.InferModule(idGen, module, ast.ModuleKindLib, "test", modules, &warnings)
	require.NoError(t, err)

	var test *types.TypedTest
	for _, def := range typed.Definitions {
		if candidate, ok := def.(*types.TypedTest); ok {
			test = candidate
		}
	}
	require.NotNil(t, test)

	program, err := New(idGen, typed).GenerateTest(test)
	require.NoError(t, err)

	debruijn, err := program.ToDeBruijn()
	require.NoError(t, err)
	encoded, err := debruijn.ToFlat()
	require.NoError(t, err)
	decoded, err := uplc.FromFlat(encoded)
	require.NoError(t, err)

	result := machine.EvalDefault(decoded)
	assert.True(t, requireBool(t, result))
	assert.Positive(t, result.Cost().CPU)
}
