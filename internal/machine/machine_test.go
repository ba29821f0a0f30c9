package machine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoofficial/nano/internal/uplc"
)

func mustProgram(t *testing.T, src string) *uplc.Program {
	t.Helper()
	program, err := uplc.ParseProgram(src)
	require.NoError(t, err)
	named, err := program.ToNamedDeBruijn()
	require.NoError(t, err)
	return named
}

func evalSrc(t *testing.T, src string) *EvalResult {
	t.Helper()
	return EvalDefault(mustProgram(t, src))
}

func requireInteger(t *testing.T, result *EvalResult) *big.Int {
	t.Helper()
	term, err := result.Result()
	require.NoError(t, err)
	constant, ok := term.(*uplc.Constant)
	require.True(t, ok, "expected a constant, got %s", uplc.PrettyTerm(term))
	integer, ok := constant.Con.(*uplc.Integer)
	require.True(t, ok)
	return integer.Inner
}

func TestIdentityApplication(t *testing.T) {
	// Round-trip through Flat first: the decoded program must behave
	// identically.
	debruijn, err := uplc.ParseProgram("(program 1.0.0 (lam x x))")
	require.NoError(t, err)
	db, err := debruijn.ToDeBruijn()
	require.NoError(t, err)
	encoded, err := db.ToFlat()
	require.NoError(t, err)
	decoded, err := uplc.FromFlat(encoded)
	require.NoError(t, err)

	applied := decoded.ApplyTerm(&uplc.Constant{Con: &uplc.Integer{Inner: big.NewInt(42)}})
	result := EvalDefault(applied)

	value := requireInteger(t, result)
	assert.Zero(t, big.NewInt(42).Cmp(value))
	assert.Positive(t, result.Cost().CPU)
	assert.Positive(t, result.Cost().Mem)
}

func TestArithmeticBuiltins(t *testing.T) {
	cases := []struct {
		src  string
		want int64
	}{
		{"(program 1.0.0 [(builtin addInteger) (con integer 2) (con integer 3)])", 5},
		{"(program 1.0.0 [(builtin subtractInteger) (con integer 2) (con integer 3)])", -1},
		{"(program 1.0.0 [(builtin multiplyInteger) (con integer -4) (con integer 3)])", -12},
		{"(program 1.0.0 [(builtin divideInteger) (con integer 7) (con integer 2)])", 3},
		{"(program 1.0.0 [(builtin divideInteger) (con integer -7) (con integer 2)])", -4},
		{"(program 1.0.0 [(builtin quotientInteger) (con integer -7) (con integer 2)])", -3},
		{"(program 1.0.0 [(builtin remainderInteger) (con integer -7) (con integer 2)])", -1},
		{"(program 1.0.0 [(builtin modInteger) (con integer -7) (con integer 2)])", 1},
	}
	for _, tc := range cases {
		value := requireInteger(t, evalSrc(t, tc.src))
		assert.Zero(t, big.NewInt(tc.want).Cmp(value), tc.src)
	}
}

func TestDivideByZero(t *testing.T) {
	result := evalSrc(t, "(program 1.0.0 [(builtin divideInteger) (con integer 1) (con integer 0)])")
	_, err := result.Result()
	var divErr *DivideByZeroError
	assert.ErrorAs(t, err, &divErr)
}

func TestIfThenElse(t *testing.T) {
	src := `(program 1.0.0 [(force (builtin ifThenElse)) (con bool True) (con integer 1) (con integer 2)])`
	value := requireInteger(t, evalSrc(t, src))
	assert.Zero(t, big.NewInt(1).Cmp(value))
}

func TestForceWithoutDelayFails(t *testing.T) {
	result := evalSrc(t, "(program 1.0.0 (force (con integer 1)))")
	_, err := result.Result()
	var forceErr *NonPolymorphicInstantiationError
	assert.ErrorAs(t, err, &forceErr)
}

func TestOpenTermEvaluated(t *testing.T) {
	program := &uplc.Program{
		Version: [3]uint64{1, 0, 0},
		Term:    &uplc.Var{Name: uplc.DeBruijn{Index: 1}},
	}
	result := EvalDefault(program)
	_, err := result.Result()
	var openErr *OpenTermEvaluatedError
	assert.ErrorAs(t, err, &openErr)
}

func TestErrorTermAborts(t *testing.T) {
	result := evalSrc(t, "(program 1.0.0 (error))")
	_, err := result.Result()
	var failure *EvaluationFailureError
	assert.ErrorAs(t, err, &failure)
	assert.True(t, result.Failed())
}

func TestOmegaExhaustsBudget(t *testing.T) {
	result := evalSrc(t, "(program 1.0.0 [(lam x [x x]) (lam x [x x])])")
	_, err := result.Result()
	var outOfEx *OutOfExError
	require.ErrorAs(t, err, &outOfEx)
	assert.LessOrEqual(t, result.Remaining().CPU, int64(0))
}

func TestMachineIsDeterministic(t *testing.T) {
	src := `(program 1.0.0 [(force (builtin trace)) (con string "hi") [(builtin addInteger) (con integer 1) (con integer 2)]])`

	first := evalSrc(t, src)
	second := evalSrc(t, src)

	firstTerm, firstErr := first.Result()
	secondTerm, secondErr := second.Result()
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	assert.True(t, uplc.TermEqual(firstTerm, secondTerm))
	assert.Equal(t, first.Remaining(), second.Remaining())
	assert.Equal(t, first.Logs(), second.Logs())
}

func TestTraceCollectsLogsInOrder(t *testing.T) {
	src := `(program 1.0.0 [(force (builtin trace)) (con string "outer") [(force (builtin trace)) (con string "inner") (con unit ())]])`
	result := evalSrc(t, src)
	_, err := result.Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"inner", "outer"}, result.Logs())
}

func TestBudgetDecreasesMonotonically(t *testing.T) {
	src := "(program 1.0.0 [(builtin addInteger) (con integer 1) (con integer 2)])"
	small := evalSrc(t, "(program 1.0.0 (con integer 1))")
	large := evalSrc(t, src)
	assert.Greater(t, large.Cost().CPU, small.Cost().CPU)
}

func TestListBuiltins(t *testing.T) {
	head := `(program 1.0.0 [(force (builtin headList)) (con (list integer) [7, 8])])`
	value := requireInteger(t, evalSrc(t, head))
	assert.Zero(t, big.NewInt(7).Cmp(value))

	null := `(program 1.0.0 [(force (builtin nullList)) (con (list integer) [])])`
	result := evalSrc(t, null)
	term, err := result.Result()
	require.NoError(t, err)
	constant := term.(*uplc.Constant)
	assert.True(t, constant.Con.(*uplc.Bool).Inner)

	empty := `(program 1.0.0 [(force (builtin headList)) (con (list integer) [])])`
	_, err = evalSrc(t, empty).Result()
	var emptyErr *EmptyListError
	assert.ErrorAs(t, err, &emptyErr)
}

func TestMkConsChecksElementType(t *testing.T) {
	src := `(program 1.0.0 [(force (builtin mkCons)) (con bool True) (con (list integer) [1])])`
	_, err := evalSrc(t, src).Result()
	var mismatch *TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestDataBuiltinsRoundTrip(t *testing.T) {
	src := `(program 1.0.0 [(builtin unIData) [(builtin iData) (con integer 99)]])`
	value := requireInteger(t, evalSrc(t, src))
	assert.Zero(t, big.NewInt(99).Cmp(value))

	constr := `(program 1.0.0 [(force (force (builtin fstPair))) [(builtin unConstrData) [(builtin constrData) (con integer 3) (con (list data) [])]]])`
	tag := requireInteger(t, evalSrc(t, constr))
	assert.Zero(t, big.NewInt(3).Cmp(tag))
}

func TestByteStringBuiltins(t *testing.T) {
	length := `(program 1.0.0 [(builtin lengthOfByteString) [(builtin appendByteString) (con bytestring #0102) (con bytestring #03)]])`
	value := requireInteger(t, evalSrc(t, length))
	assert.Zero(t, big.NewInt(3).Cmp(value))

	cons := `(program 1.0.0 [(builtin consByteString) (con integer 300) (con bytestring #00)])`
	_, err := evalSrc(t, cons).Result()
	var rangeErr *ByteValueOutOfRangeError
	assert.ErrorAs(t, err, &rangeErr)
}

func TestBuiltinArgumentShapeChecks(t *testing.T) {
	src := `(program 1.0.0 [(builtin addInteger) (con bool True) (con integer 1)])`
	_, err := evalSrc(t, src).Result()
	var mismatch *TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)

	pair := `(program 1.0.0 [(force (force (builtin fstPair))) (con integer 1)])`
	_, err = evalSrc(t, pair).Result()
	var pairErr *PairTypeMismatchError
	assert.ErrorAs(t, err, &pairErr)

	list := `(program 1.0.0 [(force (builtin headList)) (con integer 1)])`
	_, err = evalSrc(t, list).Result()
	var listErr *ListTypeMismatchError
	assert.ErrorAs(t, err, &listErr)
}

func TestUnexpectedBuiltinTermArgument(t *testing.T) {
	// ifThenElse wants a force before its arguments.
	src := `(program 1.0.0 [(builtin ifThenElse) (con bool True) (con integer 1) (con integer 2)])`
	_, err := evalSrc(t, src).Result()
	var unexpected *UnexpectedBuiltinTermArgumentError
	assert.ErrorAs(t, err, &unexpected)
}

func TestDischargePartialBuiltin(t *testing.T) {
	src := `(program 1.0.0 [(builtin addInteger) (con integer 1)])`
	result := evalSrc(t, src)
	term, err := result.Result()
	require.NoError(t, err)
	assert.Equal(t, "[(builtin addInteger) (con integer 1)]", uplc.PrettyTerm(term))
}

func TestDischargeClosure(t *testing.T) {
	// The captured environment substitutes into the lambda body.
	src := `(program 1.0.0 [(lam x (lam y x)) (con integer 9)])`
	result := evalSrc(t, src)
	term, err := result.Result()
	require.NoError(t, err)
	lam, ok := term.(*uplc.Lambda)
	require.True(t, ok)
	constant, ok := lam.Body.(*uplc.Constant)
	require.True(t, ok)
	assert.Zero(t, big.NewInt(9).Cmp(constant.Con.(*uplc.Integer).Inner))
}

func TestExMemMetrics(t *testing.T) {
	assert.Equal(t, int64(1), ToExMem(integerValue(big.NewInt(0))))
	assert.Equal(t, int64(1), ToExMem(integerValue(big.NewInt(1))))
	huge := new(big.Int).Lsh(big.NewInt(1), 64)
	assert.Equal(t, int64(2), ToExMem(integerValue(huge)))

	assert.Equal(t, int64(1), ToExMem(byteStringValue(nil)))
	assert.Equal(t, int64(1), ToExMem(byteStringValue(make([]byte, 8))))
	assert.Equal(t, int64(2), ToExMem(byteStringValue(make([]byte, 9))))

	assert.Equal(t, int64(3), ToExMem(stringValue("abc")))
	assert.Equal(t, int64(1), ToExMem(unitValue()))

	data := dataValue(&uplc.DataInteger{Inner: big.NewInt(1)})
	assert.Equal(t, int64(5), ToExMem(data))
}
