package tx

import (
	"bytes"

	"golang.org/x/crypto/blake2b"
)

// LookupTable indexes the scripts and datums a transaction can reference,
// keyed by their blake2b hashes.
type LookupTable struct {
	scripts  map[string][]byte
	datums   map[string]*Datum
	resolved []ResolvedInput
}

// ScriptAndDatumLookupTable collects the scripts and datums reachable from
// the transaction and its resolved inputs.
func ScriptAndDatumLookupTable(tx *Transaction, utxos []ResolvedInput) *LookupTable {
	table := &LookupTable{
		scripts:  map[string][]byte{},
		datums:   map[string]*Datum{},
		resolved: utxos,
	}
	for _, script := range tx.Scripts {
		table.scripts[string(scriptHash(script))] = script
	}
	for _, utxo := range utxos {
		if len(utxo.Output.Script) > 0 {
			table.scripts[string(scriptHash(utxo.Output.Script))] = utxo.Output.Script
		}
	}
	for i := range tx.Datums {
		datum := &tx.Datums[i]
		table.datums[string(datum.Hash)] = datum
	}
	return table
}

// scriptHash is the blake2b-224 digest of a serialised script.
func scriptHash(script []byte) []byte {
	digest, err := blake2b.New(28, nil)
	if err != nil {
		return nil
	}
	digest.Write(script)
	return digest.Sum(nil)
}

// scriptFor resolves the script (and datum, for spend redeemers) a
// redeemer points at.
func (t *LookupTable) scriptFor(tx *Transaction, redeemer *Redeemer) ([]byte, *Datum, error) {
	switch redeemer.Tag {
	case RedeemerTagSpend:
		if int(redeemer.Index) >= len(tx.Inputs) {
			return nil, nil, &MissingScriptError{Tag: redeemer.Tag, Index: redeemer.Index}
		}
		input := tx.Inputs[redeemer.Index]
		for _, utxo := range t.resolved {
			if utxo.Input.Index == input.Index && bytes.Equal(utxo.Input.TxHash, input.TxHash) {
				if len(utxo.Output.Script) == 0 {
					return nil, nil, &MissingScriptError{Tag: redeemer.Tag, Index: redeemer.Index}
				}
				var datum *Datum
				if len(utxo.Output.DatumHash) > 0 {
					found, ok := t.datums[string(utxo.Output.DatumHash)]
					if !ok {
						return nil, nil, &MissingDatumError{Hash: utxo.Output.DatumHash}
					}
					datum = found
				}
				return utxo.Output.Script, datum, nil
			}
		}
		return nil, nil, &MissingScriptError{Tag: redeemer.Tag, Index: redeemer.Index}

	case RedeemerTagMint:
		if int(redeemer.Index) >= len(tx.Mint) {
			return nil, nil, &MissingScriptError{Tag: redeemer.Tag, Index: redeemer.Index}
		}
		policy := tx.Mint[redeemer.Index]
		script, ok := t.scripts[string(policy)]
		if !ok {
			return nil, nil, &MissingScriptError{Tag: redeemer.Tag, Index: redeemer.Index}
		}
		return script, nil, nil

	default:
		if int(redeemer.Index) >= len(tx.Scripts) {
			return nil, nil, &MissingScriptError{Tag: redeemer.Tag, Index: redeemer.Index}
		}
		return tx.Scripts[redeemer.Index], nil, nil
	}
}
