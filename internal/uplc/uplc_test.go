package uplc

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityProgram(t *testing.T) *Program {
	t.Helper()
	program, err := ParseProgram("(program 1.0.0 (lam x x))")
	require.NoError(t, err)
	return program
}

func TestParseAndPrettyProgram(t *testing.T) {
	program := identityProgram(t)
	assert.Equal(t, [3]uint64{1, 0, 0}, program.Version)
	assert.Equal(t, "(program 1.0.0 (lam x x))", program.Pretty())
}

func TestParseApplicationAndConstants(t *testing.T) {
	term, err := ParseTerm(`[(lam x x) (con integer 42)]`)
	require.NoError(t, err)

	apply, ok := term.(*Apply)
	require.True(t, ok)
	constant, ok := apply.Argument.(*Constant)
	require.True(t, ok)
	integer, ok := constant.Con.(*Integer)
	require.True(t, ok)
	assert.Zero(t, big.NewInt(42).Cmp(integer.Inner))
}

func TestParseConstantVarieties(t *testing.T) {
	for _, src := range []string{
		`(con bool True)`,
		`(con unit ())`,
		`(con string "hey")`,
		`(con bytestring #00ff)`,
		`(con (list integer) [1, 2, 3])`,
		`(con (pair integer bool) (7, False))`,
	} {
		_, err := ParseTerm(src)
		assert.NoError(t, err, src)
	}
}

func TestFlatRoundTripIdentity(t *testing.T) {
	program := identityProgram(t)
	debruijn, err := program.ToDeBruijn()
	require.NoError(t, err)

	encoded, err := debruijn.ToFlat()
	require.NoError(t, err)

	decoded, err := FromFlat(encoded)
	require.NoError(t, err)
	assert.Equal(t, debruijn.Version, decoded.Version)
	assert.True(t, TermEqual(debruijn.Term, decoded.Term))
}

func TestFlatRoundTripConstants(t *testing.T) {
	sources := []string{
		"(program 1.0.0 (con integer -123456789012345678901234567890))",
		"(program 1.0.0 (con bytestring #deadbeef))",
		`(program 1.0.0 (con string "hello"))`,
		"(program 1.0.0 (con bool True))",
		"(program 1.0.0 (con unit ()))",
		"(program 1.0.0 (con (list integer) [1, -2, 3]))",
		"(program 1.0.0 (con (pair bool (list integer)) (True, [5])))",
		"(program 1.0.0 (delay (force (builtin ifThenElse))))",
		"(program 1.0.0 (lam x [(builtin addInteger) x (con integer 1)]))",
		"(program 2.1.3 (error))",
	}
	for _, src := range sources {
		program, err := ParseProgram(src)
		require.NoError(t, err, src)
		debruijn, err := program.ToDeBruijn()
		require.NoError(t, err, src)
		encoded, err := debruijn.ToFlat()
		require.NoError(t, err, src)
		decoded, err := FromFlat(encoded)
		require.NoError(t, err, src)
		assert.Equal(t, debruijn.Version, decoded.Version, src)
		assert.True(t, TermEqual(debruijn.Term, decoded.Term), src)
	}
}

func TestVersionPreservedThroughCBOR(t *testing.T) {
	program, err := ParseProgram("(program 11.22.33 (lam x x))")
	require.NoError(t, err)
	debruijn, err := program.ToDeBruijn()
	require.NoError(t, err)

	encoded, err := debruijn.ToCBOR()
	require.NoError(t, err)
	decoded, err := FromCBOR(encoded)
	require.NoError(t, err)
	assert.Equal(t, [3]uint64{11, 22, 33}, decoded.Version)
}

func TestDeBruijnRoundTripPreservesAlphaEquivalence(t *testing.T) {
	sources := []string{
		"(lam x x)",
		"(lam x (lam y x))",
		"(lam x (lam y [x y]))",
		"(lam f (lam x [f [f x]]))",
		"[(lam x (lam y x)) (con integer 1) (con integer 2)]",
		"(delay (lam x (force (delay x))))",
	}
	for _, src := range sources {
		term, err := ParseTerm(src)
		require.NoError(t, err, src)

		named, err := NewConverter().NameToNamedDeBruijn(term)
		require.NoError(t, err, src)
		stripped := NamedDeBruijnToDeBruijn(named)

		back, err := NewConverter().DeBruijnToName(stripped)
		require.NoError(t, err, src)

		// Alpha-equivalence: both sides erase to identical De Bruijn
		// skeletons.
		again, err := NewConverter().NameToDeBruijn(back)
		require.NoError(t, err, src)
		original, err := NewConverter().NameToDeBruijn(term)
		require.NoError(t, err, src)
		assert.True(t, TermEqual(original, again), src)
	}
}

func TestConversionRejectsFreeVariables(t *testing.T) {
	term := &Var{Name: Name{Text: "ghost", Unique: 99}}
	_, err := NewConverter().NameToNamedDeBruijn(term)
	var freeErr *FreeUniqueError
	assert.ErrorAs(t, err, &freeErr)
}

func TestInternerAssignsStableUniques(t *testing.T) {
	term, err := ParseTerm("(lam x (lam y [x x y]))")
	require.NoError(t, err)

	lam := term.(*Lambda)
	inner := lam.Body.(*Lambda)
	app := inner.Body.(*Apply)
	firstX := app.Function.(*Apply).Function.(*Var).Name.(Name)
	secondX := app.Function.(*Apply).Argument.(*Var).Name.(Name)
	y := app.Argument.(*Var).Name.(Name)

	assert.Equal(t, firstX.Unique, secondX.Unique)
	assert.NotEqual(t, firstX.Unique, y.Unique)
	assert.Equal(t, lam.ParameterName.(Name).Unique, firstX.Unique)
}

func TestForceDelayReduce(t *testing.T) {
	term, err := ParseTerm("(force (delay (con integer 1)))")
	require.NoError(t, err)
	program := &Program{Version: [3]uint64{1, 0, 0}, Term: term}
	reduced := program.ForceDelayReduce()
	_, isConstant := reduced.Term.(*Constant)
	assert.True(t, isConstant)
}

func TestBuiltinForceReduceTrimsExtraForces(t *testing.T) {
	term, err := ParseTerm("(force (force (builtin headList)))")
	require.NoError(t, err)
	program := &Program{Version: [3]uint64{1, 0, 0}, Term: term}
	reduced := program.BuiltinForceReduce()

	// headList takes a single force; the surplus one is dropped.
	force, ok := reduced.Term.(*Force)
	require.True(t, ok)
	_, ok = force.Term.(*Builtin)
	assert.True(t, ok)
}

func TestLambdaReduceInlinesSingleUse(t *testing.T) {
	term, err := ParseTerm("[(lam x x) (con integer 5)]")
	require.NoError(t, err)
	program := &Program{Version: [3]uint64{1, 0, 0}, Term: term}
	reduced := program.LambdaReduce()
	constant, ok := reduced.Term.(*Constant)
	require.True(t, ok)
	integer := constant.Con.(*Integer)
	assert.Zero(t, big.NewInt(5).Cmp(integer.Inner))
}

func TestLambdaReduceKeepsDuplicatedWork(t *testing.T) {
	term, err := ParseTerm("[(lam x [(builtin addInteger) x x]) (con integer 5)]")
	require.NoError(t, err)
	program := &Program{Version: [3]uint64{1, 0, 0}, Term: term}
	reduced := program.LambdaReduce()
	// x occurs twice, but the argument is a constant... the binding stays
	// because occurrences exceed one.
	_, stillApply := reduced.Term.(*Apply)
	assert.True(t, stillApply)
}

func TestWrapDataReduce(t *testing.T) {
	term, err := ParseTerm("[(builtin unIData) [(builtin iData) (con integer 9)]]")
	require.NoError(t, err)
	program := &Program{Version: [3]uint64{1, 0, 0}, Term: term}
	reduced := program.WrapDataReduce()
	constant, ok := reduced.Term.(*Constant)
	require.True(t, ok)
	integer := constant.Con.(*Integer)
	assert.Zero(t, big.NewInt(9).Cmp(integer.Inner))
}

func TestProgramJSONEnvelope(t *testing.T) {
	program := identityProgram(t)
	debruijn, err := program.ToDeBruijn()
	require.NoError(t, err)

	raw, err := json.Marshal(debruijn)
	require.NoError(t, err)

	var envelope map[string]string
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.NotEmpty(t, envelope["compiledCode"])
	assert.Len(t, envelope["hash"], ScriptHashSize*2)

	var decoded Program
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, TermEqual(debruijn.Term, decoded.Term))
}

func TestApplyData(t *testing.T) {
	program := identityProgram(t)
	applied := program.ApplyData(&DataInteger{Inner: big.NewInt(7)})
	apply, ok := applied.Term.(*Apply)
	require.True(t, ok)
	constant := apply.Argument.(*Constant)
	_, isData := constant.Con.(*Data)
	assert.True(t, isData)
}

func TestPlutusDataCBORRoundTrip(t *testing.T) {
	values := []PlutusData{
		&DataInteger{Inner: big.NewInt(0)},
		&DataInteger{Inner: big.NewInt(-42)},
		&DataInteger{Inner: mustBig("123456789012345678901234567890")},
		&DataByteString{Inner: []byte{1, 2, 3}},
		&DataArray{Items: []PlutusData{
			&DataInteger{Inner: big.NewInt(1)},
			&DataByteString{Inner: []byte{0xFF}},
		}},
		&DataMap{Pairs: [][2]PlutusData{
			{&DataInteger{Inner: big.NewInt(1)}, &DataByteString{Inner: []byte("v")}},
		}},
		&DataConstr{Tag: 0, Fields: []PlutusData{&DataInteger{Inner: big.NewInt(5)}}},
		&DataConstr{Tag: 3},
		&DataConstr{Tag: 50},
		&DataConstr{Tag: 1000, Fields: []PlutusData{&DataConstr{Tag: 0}}},
	}
	for _, value := range values {
		encoded := MarshalData(value)
		decoded, err := UnmarshalData(encoded)
		require.NoError(t, err)
		assert.True(t, DataEqual(value, decoded), "%v", value)
	}
}

func mustBig(s string) *big.Int {
	v, _ := new(big.Int).SetString(s, 10)
	return v
}

func TestUnknownBuiltinTagRejected(t *testing.T) {
	program := identityProgram(t)
	debruijn, err := program.ToDeBruijn()
	require.NoError(t, err)
	encoded, err := debruijn.ToFlat()
	require.NoError(t, err)

	// Corrupt: builtin tag 127 does not exist. Craft a tiny program by
	// hand: version 1.0.0 then term tag 7 and builtin bits.
	bad := []byte{0x01, 0x00, 0x00, 0x7F, 0xF1}
	_, err = FromFlat(bad)
	assert.Error(t, err)
	_ = encoded
}
