package tx

import "fmt"

// EvalPhaseOne performs the structural checks that must pass before any
// script runs: every redeemer points at a known script, every script input
// carries its datum witness, and the validity range is well formed.
func EvalPhaseOne(tx *Transaction, utxos []ResolvedInput, lookupTable *LookupTable) error {
	if tx.ValidityStart != nil && tx.ValidityEnd != nil && *tx.ValidityStart > *tx.ValidityEnd {
		return &PhaseOneError{
			Reason: fmt.Sprintf("validity range is inverted: %d > %d", *tx.ValidityStart, *tx.ValidityEnd),
		}
	}

	for i := range tx.Redeemers {
		redeemer := &tx.Redeemers[i]
		if _, _, err := lookupTable.scriptFor(tx, redeemer); err != nil {
			return err
		}
	}

	for _, utxo := range utxos {
		if len(utxo.Output.Script) > 0 && len(utxo.Output.DatumHash) > 0 {
			if _, ok := lookupTable.datums[string(utxo.Output.DatumHash)]; !ok {
				return &MissingDatumError{Hash: utxo.Output.DatumHash}
			}
		}
	}

	return nil
}
