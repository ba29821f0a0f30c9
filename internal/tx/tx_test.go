package tx

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoofficial/nano/internal/machine"
	"github.com/nanoofficial/nano/internal/uplc"
)

// alwaysTrueScript builds the CBOR bytes of a spend validator that accepts
// anything: \datum redeemer ctx -> True.
func alwaysTrueScript(t *testing.T) []byte {
	t.Helper()
	program, err := uplc.ParseProgram(
		"(program 1.0.0 (lam d (lam r (lam c (con bool True)))))")
	require.NoError(t, err)
	debruijn, err := program.ToDeBruijn()
	require.NoError(t, err)
	encoded, err := debruijn.ToCBOR()
	require.NoError(t, err)
	return encoded
}

// alwaysFalseScript rejects everything.
func alwaysFalseScript(t *testing.T) []byte {
	t.Helper()
	program, err := uplc.ParseProgram(
		"(program 1.0.0 (lam d (lam r (lam c (error)))))")
	require.NoError(t, err)
	debruijn, err := program.ToDeBruijn()
	require.NoError(t, err)
	encoded, err := debruijn.ToCBOR()
	require.NoError(t, err)
	return encoded
}

func spendTransaction(script []byte) (*Transaction, []ResolvedInput) {
	input := TransactionInput{TxHash: []byte{0xAA}, Index: 0}
	datum := Datum{Hash: []byte{0x01}, Data: &uplc.DataInteger{Inner: big.NewInt(5)}}
	tx := &Transaction{
		Inputs: []TransactionInput{input},
		Datums: []Datum{datum},
		Redeemers: []Redeemer{{
			Tag:   RedeemerTagSpend,
			Index: 0,
			Data:  &uplc.DataInteger{Inner: big.NewInt(1)},
		}},
	}
	utxos := []ResolvedInput{{
		Input: input,
		Output: TransactionOutput{
			Script:    script,
			DatumHash: []byte{0x01},
		},
	}}
	return tx, utxos
}

func TestEvalPhaseTwoNoRedeemers(t *testing.T) {
	redeemers, err := EvalPhaseTwo(&Transaction{}, nil, nil, nil, nil, false, nil)
	require.NoError(t, err)
	assert.Empty(t, redeemers)
}

func TestEvalPhaseTwoFillsExUnits(t *testing.T) {
	tx, utxos := spendTransaction(alwaysTrueScript(t))

	var seen []*Redeemer
	redeemers, err := EvalPhaseTwo(tx, utxos, nil, nil, &SlotConfig{}, true, func(r *Redeemer) {
		seen = append(seen, r)
	})
	require.NoError(t, err)
	require.Len(t, redeemers, 1)
	assert.Len(t, seen, 1)
	assert.Positive(t, redeemers[0].Units.Steps)
	assert.Positive(t, redeemers[0].Units.Mem)
}

func TestEvalPhaseTwoSharesBudgetAcrossRedeemers(t *testing.T) {
	script := alwaysTrueScript(t)
	input := TransactionInput{TxHash: []byte{0xAA}, Index: 0}
	other := TransactionInput{TxHash: []byte{0xBB}, Index: 1}
	tx := &Transaction{
		Inputs: []TransactionInput{input, other},
		Redeemers: []Redeemer{
			{Tag: RedeemerTagSpend, Index: 0, Data: &uplc.DataInteger{Inner: big.NewInt(1)}},
			{Tag: RedeemerTagSpend, Index: 1, Data: &uplc.DataInteger{Inner: big.NewInt(2)}},
		},
	}
	utxos := []ResolvedInput{
		{Input: input, Output: TransactionOutput{Script: script}},
		{Input: other, Output: TransactionOutput{Script: script}},
	}

	// A budget big enough for one evaluation but not two aborts on the
	// second redeemer.
	first, err := EvalPhaseTwo(tx, utxos, nil, nil, &SlotConfig{}, false, nil)
	require.NoError(t, err)
	require.Len(t, first, 2)

	tight := machine.ExBudget{
		CPU: int64(first[0].Units.Steps) + int64(first[1].Units.Steps)/2,
		Mem: int64(first[0].Units.Mem) + int64(first[1].Units.Mem)/2,
	}
	_, err = EvalPhaseTwo(tx, utxos, nil, &tight, &SlotConfig{}, false, nil)
	var machineErr *MachineError
	require.ErrorAs(t, err, &machineErr)
	assert.Equal(t, uint64(1), machineErr.Index)
}

func TestEvalPhaseTwoSurfacesScriptFailure(t *testing.T) {
	tx, utxos := spendTransaction(alwaysFalseScript(t))

	_, err := EvalPhaseTwo(tx, utxos, nil, nil, &SlotConfig{}, false, nil)
	var machineErr *MachineError
	require.ErrorAs(t, err, &machineErr)
	assert.Equal(t, RedeemerTagSpend, machineErr.Tag)
}

func TestPhaseOneMissingScript(t *testing.T) {
	input := TransactionInput{TxHash: []byte{0xAA}, Index: 0}
	tx := &Transaction{
		Inputs: []TransactionInput{input},
		Redeemers: []Redeemer{{
			Tag:   RedeemerTagSpend,
			Index: 0,
			Data:  &uplc.DataInteger{Inner: big.NewInt(1)},
		}},
	}
	utxos := []ResolvedInput{{Input: input, Output: TransactionOutput{}}}

	_, err := EvalPhaseTwo(tx, utxos, nil, nil, &SlotConfig{}, true, nil)
	var missing *MissingScriptError
	assert.ErrorAs(t, err, &missing)
}

func TestPhaseOneInvertedValidityRange(t *testing.T) {
	start := uint64(100)
	end := uint64(50)
	tx := &Transaction{
		ValidityStart: &start,
		ValidityEnd:   &end,
		Redeemers: []Redeemer{{
			Tag:  RedeemerTagSpend,
			Data: &uplc.DataInteger{Inner: big.NewInt(1)},
		}},
	}
	_, err := EvalPhaseTwo(tx, nil, nil, nil, &SlotConfig{}, true, nil)
	var phaseOne *PhaseOneError
	assert.ErrorAs(t, err, &phaseOne)
}

func TestApplyParamsToScript(t *testing.T) {
	// A unary script becomes fully applied after one parameter.
	program, err := uplc.ParseProgram("(program 1.0.0 (lam x x))")
	require.NoError(t, err)
	debruijn, err := program.ToDeBruijn()
	require.NoError(t, err)
	script, err := debruijn.ToCBOR()
	require.NoError(t, err)

	params := uplc.MarshalData(&uplc.DataArray{Items: []uplc.PlutusData{
		&uplc.DataInteger{Inner: big.NewInt(42)},
	}})

	applied, err := ApplyParamsToScript(params, script)
	require.NoError(t, err)

	decoded, err := uplc.FromCBOR(applied)
	require.NoError(t, err)
	result := machine.EvalDefault(decoded)
	term, err := result.Result()
	require.NoError(t, err)
	constant := term.(*uplc.Constant)
	data := constant.Con.(*uplc.Data)
	assert.True(t, uplc.DataEqual(data.Inner, &uplc.DataInteger{Inner: big.NewInt(42)}))
}

func TestApplyParamsRejectsMalformedParams(t *testing.T) {
	_, err := ApplyParamsToScript([]byte{0xFF, 0xFF}, alwaysTrueScript(t))
	var applyErr *ApplyParamsError
	assert.ErrorAs(t, err, &applyErr)
}

func TestApplyParamsRejectsNonArray(t *testing.T) {
	params := uplc.MarshalData(&uplc.DataInteger{Inner: big.NewInt(1)})
	_, err := ApplyParamsToScript(params, alwaysTrueScript(t))
	var applyErr *ApplyParamsError
	assert.ErrorAs(t, err, &applyErr)
}

func TestScriptHashIsBlake2b224(t *testing.T) {
	script := alwaysTrueScript(t)
	hash := scriptHash(script)
	assert.Len(t, hash, 28)
}
