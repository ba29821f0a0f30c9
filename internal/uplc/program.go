package uplc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// ScriptHashSize is the byte length of a script hash (blake2b-224).
const ScriptHashSize = 28

// ToDeBruijn converts a named program into De Bruijn form.
func (p *Program) ToDeBruijn() (*Program, error) {
	term, err := NewConverter().NameToDeBruijn(p.Term)
	if err != nil {
		return nil, err
	}
	return &Program{Version: p.Version, Term: term}, nil
}

// ToNamedDeBruijn converts a named program into named De Bruijn form.
func (p *Program) ToNamedDeBruijn() (*Program, error) {
	term, err := NewConverter().NameToNamedDeBruijn(p.Term)
	if err != nil {
		return nil, err
	}
	return &Program{Version: p.Version, Term: term}, nil
}

// ToName converts a De Bruijn program back into named form with fresh
// uniques.
func (p *Program) ToName() (*Program, error) {
	term, err := NewConverter().DeBruijnToName(p.Term)
	if err != nil {
		return nil, err
	}
	return &Program{Version: p.Version, Term: term}, nil
}

// ToCBOR serialises the De Bruijn program as a CBOR byte string wrapping
// the Flat stream.
func (p *Program) ToCBOR() ([]byte, error) {
	flatBytes, err := p.ToFlat()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(flatBytes)
}

// FromCBOR decodes a program from its CBOR byte-string wrapper.
func FromCBOR(bytes []byte) (*Program, error) {
	var flatBytes []byte
	if err := cbor.Unmarshal(bytes, &flatBytes); err != nil {
		return nil, fmt.Errorf("invalid cbor wrapper: %w", err)
	}
	return FromFlat(flatBytes)
}

// ToHex returns the CBOR serialisation in base16.
func (p *Program) ToHex() (string, error) {
	bytes, err := p.ToCBOR()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// FromHex decodes a program from base16-encoded CBOR.
func FromHex(s string) (*Program, error) {
	bytes, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base16: %w", err)
	}
	return FromCBOR(bytes)
}

// Hash returns the blake2b-224 digest of the CBOR serialisation.
func (p *Program) Hash() ([ScriptHashSize]byte, error) {
	var out [ScriptHashSize]byte
	bytes, err := p.ToCBOR()
	if err != nil {
		return out, err
	}
	digest, err := blake2b.New(ScriptHashSize, nil)
	if err != nil {
		return out, err
	}
	digest.Write(bytes)
	copy(out[:], digest.Sum(nil))
	return out, nil
}

// programEnvelope is the JSON shape of a compiled program.
type programEnvelope struct {
	CompiledCode string `json:"compiledCode"`
	Hash         string `json:"hash"`
}

// MarshalJSON serialises the De Bruijn program as
// {"compiledCode": <hex>, "hash": <blake2b-224 of the cbor>}.
func (p *Program) MarshalJSON() ([]byte, error) {
	code, err := p.ToHex()
	if err != nil {
		return nil, err
	}
	hash, err := p.Hash()
	if err != nil {
		return nil, err
	}
	return json.Marshal(programEnvelope{
		CompiledCode: code,
		Hash:         hex.EncodeToString(hash[:]),
	})
}

// UnmarshalJSON decodes a program from its JSON envelope, ignoring the
// stored hash.
func (p *Program) UnmarshalJSON(data []byte) error {
	var envelope programEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if envelope.CompiledCode == "" {
		return errors.New("missing compiledCode field")
	}
	decoded, err := FromHex(envelope.CompiledCode)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}
