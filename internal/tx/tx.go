// Package tx is the host boundary around the UPLC machine: phase-1
// structural checks, the phase-2 redeemer loop with a shared budget, and
// parameter application over serialised scripts.
package tx

import (
	"math/big"

	"github.com/hashicorp/go-hclog"

	"github.com/nanoofficial/nano/internal/machine"
	"github.com/nanoofficial/nano/internal/uplc"
)

// RedeemerTag locates the script group a redeemer points into.
type RedeemerTag int

const (
	RedeemerTagSpend RedeemerTag = iota
	RedeemerTagMint
	RedeemerTagCert
	RedeemerTagReward
)

func (t RedeemerTag) String() string {
	switch t {
	case RedeemerTagSpend:
		return "spend"
	case RedeemerTagMint:
		return "mint"
	case RedeemerTagCert:
		return "cert"
	default:
		return "reward"
	}
}

// ExUnits is the execution-unit accounting attached to a redeemer.
type ExUnits struct {
	Mem   uint64
	Steps uint64
}

// Redeemer is a host-provided script argument; Units is filled in by the
// evaluator.
type Redeemer struct {
	Tag   RedeemerTag
	Index uint64
	Data  uplc.PlutusData
	Units ExUnits
}

// TransactionInput points at the output a transaction spends.
type TransactionInput struct {
	TxHash []byte
	Index  uint64
}

// TransactionOutput is the part of an output the evaluator needs.
type TransactionOutput struct {
	Address   []byte
	Value     uint64
	DatumHash []byte
	Script    []byte
}

// ResolvedInput pairs a spent input with the output it resolves to.
type ResolvedInput struct {
	Input  TransactionInput
	Output TransactionOutput
}

// Datum is a labelled data witness.
type Datum struct {
	Hash []byte
	Data uplc.PlutusData
}

// Transaction is the minimal transaction shape the phase-2 loop consumes.
type Transaction struct {
	Inputs        []TransactionInput
	Outputs       []TransactionOutput
	Mint          [][]byte
	Fee           uint64
	ValidityStart *uint64
	ValidityEnd   *uint64
	Scripts       [][]byte
	Datums        []Datum
	Redeemers     []Redeemer
	Signatories   [][]byte
}

// SlotConfig converts between slots and POSIX time.
type SlotConfig struct {
	ZeroTime   uint64
	ZeroSlot   uint64
	SlotLength uint32
}

// CostMdls carries the machine cost model negotiated by the protocol;
// a nil model falls back to the defaults.
type CostMdls struct {
	PlutusV2 *machine.CostModel
}

func (c *CostMdls) model() *machine.CostModel {
	if c == nil || c.PlutusV2 == nil {
		return machine.DefaultCostModel()
	}
	return c.PlutusV2
}

// EvalPhaseTwo folds the transaction's redeemers through the machine,
// sharing one remaining budget. Each evaluated redeemer comes back with
// its consumed units filled in; the first failure aborts the loop.
func EvalPhaseTwo(
	tx *Transaction,
	utxos []ResolvedInput,
	costMdls *CostMdls,
	initialBudget *machine.ExBudget,
	slotConfig *SlotConfig,
	runPhaseOne bool,
	withRedeemer func(*Redeemer),
) ([]Redeemer, error) {
	logger := hclog.Default().Named("phase-two")

	if len(tx.Redeemers) == 0 {
		return nil, nil
	}

	lookupTable := ScriptAndDatumLookupTable(tx, utxos)

	if runPhaseOne {
		if err := EvalPhaseOne(tx, utxos, lookupTable); err != nil {
			return nil, err
		}
	}

	remainingBudget := machine.DefaultExBudget
	if initialBudget != nil {
		remainingBudget = *initialBudget
	}

	collected := make([]Redeemer, 0, len(tx.Redeemers))
	for i := range tx.Redeemers {
		redeemer := tx.Redeemers[i]
		if withRedeemer != nil {
			withRedeemer(&redeemer)
		}

		logger.Debug("evaluating redeemer",
			"tag", redeemer.Tag.String(),
			"index", redeemer.Index,
		)

		evaluated, err := evalRedeemer(tx, utxos, slotConfig, &redeemer, lookupTable, costMdls, remainingBudget)
		if err != nil {
			return nil, err
		}

		remainingBudget.CPU -= int64(evaluated.Units.Steps)
		remainingBudget.Mem -= int64(evaluated.Units.Mem)

		collected = append(collected, *evaluated)
	}
	return collected, nil
}

// evalRedeemer resolves the redeemer's script, applies datum, redeemer and
// context, and runs the machine under the remaining budget.
func evalRedeemer(
	tx *Transaction,
	utxos []ResolvedInput,
	slotConfig *SlotConfig,
	redeemer *Redeemer,
	lookupTable *LookupTable,
	costMdls *CostMdls,
	remainingBudget machine.ExBudget,
) (*Redeemer, error) {
	script, datum, err := lookupTable.scriptFor(tx, redeemer)
	if err != nil {
		return nil, err
	}

	program, err := uplc.FromCBOR(script)
	if err != nil {
		return nil, &MalformedScriptError{Reason: err}
	}

	if datum != nil {
		program = program.ApplyData(datum.Data)
	}
	program = program.ApplyData(redeemer.Data)
	program = program.ApplyData(scriptContext(tx, redeemer, slotConfig))

	result := machine.Eval(program, costMdls.model(), remainingBudget)
	if _, err := result.Result(); err != nil {
		return nil, &MachineError{
			Tag:    redeemer.Tag,
			Index:  redeemer.Index,
			Err:    err,
			Traces: result.Logs(),
		}
	}
	if result.Failed() {
		return nil, &MachineError{
			Tag:    redeemer.Tag,
			Index:  redeemer.Index,
			Err:    &machine.EvaluationFailureError{},
			Traces: result.Logs(),
		}
	}

	cost := result.Cost()
	out := *redeemer
	out.Units = ExUnits{
		Mem:   uint64(cost.Mem),
		Steps: uint64(cost.CPU),
	}
	return &out, nil
}

// scriptContext builds the data value describing the transaction to the
// script: inputs, validity range in POSIX time, and the redeemer pointer.
func scriptContext(tx *Transaction, redeemer *Redeemer, slotConfig *SlotConfig) uplc.PlutusData {
	inputs := make([]uplc.PlutusData, len(tx.Inputs))
	for i, input := range tx.Inputs {
		inputs[i] = &uplc.DataConstr{Tag: 0, Fields: []uplc.PlutusData{
			&uplc.DataByteString{Inner: input.TxHash},
			dataUint(input.Index),
		}}
	}

	var lower, upper uplc.PlutusData
	lower = &uplc.DataConstr{Tag: 0}
	upper = &uplc.DataConstr{Tag: 0}
	if slotConfig != nil {
		if tx.ValidityStart != nil {
			lower = &uplc.DataConstr{Tag: 1, Fields: []uplc.PlutusData{
				dataUint(slotConfig.slotToTime(*tx.ValidityStart)),
			}}
		}
		if tx.ValidityEnd != nil {
			upper = &uplc.DataConstr{Tag: 1, Fields: []uplc.PlutusData{
				dataUint(slotConfig.slotToTime(*tx.ValidityEnd)),
			}}
		}
	}

	return &uplc.DataConstr{Tag: 0, Fields: []uplc.PlutusData{
		&uplc.DataArray{Items: inputs},
		&uplc.DataConstr{Tag: 0, Fields: []uplc.PlutusData{lower, upper}},
		&uplc.DataConstr{Tag: uint64(redeemer.Tag), Fields: []uplc.PlutusData{
			dataUint(redeemer.Index),
		}},
	}}
}

func dataUint(v uint64) uplc.PlutusData {
	return &uplc.DataInteger{Inner: new(big.Int).SetUint64(v)}
}

func (s *SlotConfig) slotToTime(slot uint64) uint64 {
	if slot < s.ZeroSlot {
		return s.ZeroTime
	}
	return s.ZeroTime + (slot-s.ZeroSlot)*uint64(s.SlotLength)
}

// ApplyParamsToScript decodes a serialised program, applies each parameter
// as a data argument, and re-encodes it.
func ApplyParamsToScript(paramsBytes, scriptBytes []byte) ([]byte, error) {
	params, err := uplc.UnmarshalData(paramsBytes)
	if err != nil {
		return nil, &ApplyParamsError{Reason: err}
	}
	array, ok := params.(*uplc.DataArray)
	if !ok {
		return nil, &ApplyParamsError{Reason: errNotAnArray}
	}

	program, err := uplc.FromCBOR(scriptBytes)
	if err != nil {
		return nil, &ApplyParamsError{Reason: err}
	}

	for _, param := range array.Items {
		program = program.ApplyData(param)
	}

	out, err := program.ToCBOR()
	if err != nil {
		return nil, &ApplyParamsError{Reason: err}
	}
	return out, nil
}
