package uplc

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// PlutusData is the on-chain data universe: constructors, maps, integers,
// byte strings, and arrays.
type PlutusData interface {
	dataNode()
}

// DataConstr is a tagged constructor application. Constructor tags 0..6 use
// the compact CBOR tags 121..127, 7..127 use 1280..1400, and anything else
// falls back to tag 102.
type DataConstr struct {
	Tag    uint64
	Fields []PlutusData
}

// DataMap is an association list of data pairs.
type DataMap struct {
	Pairs [][2]PlutusData
}

// DataInteger is an arbitrary-precision integer.
type DataInteger struct {
	Inner *big.Int
}

// DataByteString is a byte string.
type DataByteString struct {
	Inner []byte
}

// DataArray is a list of data values.
type DataArray struct {
	Items []PlutusData
}

func (*DataConstr) dataNode()     {}
func (*DataMap) dataNode()        {}
func (*DataInteger) dataNode()    {}
func (*DataByteString) dataNode() {}
func (*DataArray) dataNode()      {}

// DataEqual reports structural equality of two data values.
func DataEqual(a, b PlutusData) bool {
	switch a := a.(type) {
	case *DataConstr:
		bc, ok := b.(*DataConstr)
		if !ok || a.Tag != bc.Tag || len(a.Fields) != len(bc.Fields) {
			return false
		}
		for i := range a.Fields {
			if !DataEqual(a.Fields[i], bc.Fields[i]) {
				return false
			}
		}
		return true
	case *DataMap:
		bc, ok := b.(*DataMap)
		if !ok || len(a.Pairs) != len(bc.Pairs) {
			return false
		}
		for i := range a.Pairs {
			if !DataEqual(a.Pairs[i][0], bc.Pairs[i][0]) || !DataEqual(a.Pairs[i][1], bc.Pairs[i][1]) {
				return false
			}
		}
		return true
	case *DataInteger:
		bc, ok := b.(*DataInteger)
		return ok && a.Inner.Cmp(bc.Inner) == 0
	case *DataByteString:
		bc, ok := b.(*DataByteString)
		if !ok || len(a.Inner) != len(bc.Inner) {
			return false
		}
		for i := range a.Inner {
			if a.Inner[i] != bc.Inner[i] {
				return false
			}
		}
		return true
	case *DataArray:
		bc, ok := b.(*DataArray)
		if !ok || len(a.Items) != len(bc.Items) {
			return false
		}
		for i := range a.Items {
			if !DataEqual(a.Items[i], bc.Items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (d *DataConstr) String() string {
	return fmt.Sprintf("Constr %d %v", d.Tag, d.Fields)
}

func (d *DataMap) String() string        { return fmt.Sprintf("Map %v", d.Pairs) }
func (d *DataInteger) String() string    { return fmt.Sprintf("I %s", d.Inner) }
func (d *DataByteString) String() string { return fmt.Sprintf("B #%x", d.Inner) }
func (d *DataArray) String() string      { return fmt.Sprintf("List %v", d.Items) }

// dataEncMode encodes integers in their shortest form, matching the
// ledger's framing: small values as plain CBOR ints, the rest as bignum
// tags 2/3.
var dataEncMode cbor.EncMode

func init() {
	mode, err := cbor.EncOptions{BigIntConvert: cbor.BigIntConvertShortest}.EncMode()
	if err != nil {
		panic(err)
	}
	dataEncMode = mode
}

// MarshalData encodes a data value as CBOR. The data universe is closed,
// so encoding cannot fail.
func MarshalData(d PlutusData) []byte {
	raw, err := marshalData(d)
	if err != nil {
		return nil
	}
	return raw
}

func marshalData(d PlutusData) (cbor.RawMessage, error) {
	switch d := d.(type) {
	case *DataConstr:
		fields, err := marshalDataItems(d.Fields)
		if err != nil {
			return nil, err
		}
		switch {
		case d.Tag < 7:
			return dataEncMode.Marshal(cbor.Tag{Number: 121 + d.Tag, Content: fields})
		case d.Tag < 128:
			return dataEncMode.Marshal(cbor.Tag{Number: 1280 + d.Tag - 7, Content: fields})
		default:
			return dataEncMode.Marshal(cbor.Tag{
				Number:  102,
				Content: []interface{}{d.Tag, fields},
			})
		}
	case *DataMap:
		// Structured keys rule out a Go map value; the pairs are framed
		// by hand and every key and value still goes through the codec.
		out := appendMapHead(nil, uint64(len(d.Pairs)))
		for _, kv := range d.Pairs {
			key, err := marshalData(kv[0])
			if err != nil {
				return nil, err
			}
			value, err := marshalData(kv[1])
			if err != nil {
				return nil, err
			}
			out = append(out, key...)
			out = append(out, value...)
		}
		return out, nil
	case *DataInteger:
		return dataEncMode.Marshal(d.Inner)
	case *DataByteString:
		return dataEncMode.Marshal(d.Inner)
	case *DataArray:
		items, err := marshalDataItems(d.Items)
		if err != nil {
			return nil, err
		}
		return dataEncMode.Marshal(items)
	}
	return nil, fmt.Errorf("cannot encode %T as plutus data", d)
}

func marshalDataItems(items []PlutusData) ([]cbor.RawMessage, error) {
	out := make([]cbor.RawMessage, len(items))
	for i, item := range items {
		raw, err := marshalData(item)
		if err != nil {
			return nil, err
		}
		out[i] = raw
	}
	return out, nil
}

// appendMapHead writes the definite-length head of a CBOR map.
func appendMapHead(buf []byte, count uint64) []byte {
	const majorMap = 5 << 5
	switch {
	case count < 24:
		return append(buf, majorMap|byte(count))
	case count <= 0xFF:
		return append(buf, majorMap|24, byte(count))
	case count <= 0xFFFF:
		return append(buf, majorMap|25, byte(count>>8), byte(count))
	default:
		return append(buf, majorMap|26,
			byte(count>>24), byte(count>>16), byte(count>>8), byte(count))
	}
}

// UnmarshalData decodes a CBOR-encoded data value, rejecting trailing
// bytes.
func UnmarshalData(buf []byte) (PlutusData, error) {
	var raw cbor.RawMessage
	if err := cbor.Unmarshal(buf, &raw); err != nil {
		return nil, fmt.Errorf("malformed plutus data: %w", err)
	}
	return unmarshalData(raw)
}

func unmarshalData(raw cbor.RawMessage) (PlutusData, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty plutus data")
	}
	switch major := raw[0] >> 5; major {
	case 0, 1:
		value := new(big.Int)
		if err := cbor.Unmarshal(raw, value); err != nil {
			return nil, err
		}
		return &DataInteger{Inner: value}, nil
	case 2:
		var value []byte
		if err := cbor.Unmarshal(raw, &value); err != nil {
			return nil, err
		}
		return &DataByteString{Inner: value}, nil
	case 4:
		var items []cbor.RawMessage
		if err := cbor.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		decoded, err := unmarshalDataItems(items)
		if err != nil {
			return nil, err
		}
		return &DataArray{Items: decoded}, nil
	case 5:
		return unmarshalDataMap(raw)
	case 6:
		return unmarshalDataTag(raw)
	default:
		return nil, fmt.Errorf("unsupported cbor major type %d in plutus data", major)
	}
}

func unmarshalDataItems(items []cbor.RawMessage) ([]PlutusData, error) {
	out := make([]PlutusData, len(items))
	for i, item := range items {
		decoded, err := unmarshalData(item)
		if err != nil {
			return nil, err
		}
		out[i] = decoded
	}
	return out, nil
}

func unmarshalDataTag(raw cbor.RawMessage) (PlutusData, error) {
	var tag cbor.RawTag
	if err := cbor.Unmarshal(raw, &tag); err != nil {
		return nil, err
	}
	switch {
	case tag.Number >= 121 && tag.Number <= 127:
		fields, err := unmarshalConstrFields(tag.Content)
		if err != nil {
			return nil, err
		}
		return &DataConstr{Tag: tag.Number - 121, Fields: fields}, nil
	case tag.Number >= 1280 && tag.Number <= 1400:
		fields, err := unmarshalConstrFields(tag.Content)
		if err != nil {
			return nil, err
		}
		return &DataConstr{Tag: tag.Number - 1280 + 7, Fields: fields}, nil
	case tag.Number == 102:
		var body []cbor.RawMessage
		if err := cbor.Unmarshal(tag.Content, &body); err != nil {
			return nil, err
		}
		if len(body) != 2 {
			return nil, errors.New("malformed tag-102 constructor")
		}
		var alternative uint64
		if err := cbor.Unmarshal(body[0], &alternative); err != nil {
			return nil, errors.New("malformed tag-102 alternative")
		}
		fields, err := unmarshalConstrFields(body[1])
		if err != nil {
			return nil, err
		}
		return &DataConstr{Tag: alternative, Fields: fields}, nil
	case tag.Number == 2 || tag.Number == 3:
		value := new(big.Int)
		if err := cbor.Unmarshal(raw, value); err != nil {
			return nil, err
		}
		return &DataInteger{Inner: value}, nil
	default:
		return nil, fmt.Errorf("unsupported cbor tag %d in plutus data", tag.Number)
	}
}

func unmarshalConstrFields(content cbor.RawMessage) ([]PlutusData, error) {
	var fields []cbor.RawMessage
	if err := cbor.Unmarshal(content, &fields); err != nil {
		return nil, errors.New("constructor fields must be an array")
	}
	return unmarshalDataItems(fields)
}

// unmarshalDataMap iterates a definite-length map item by item; the codec
// cannot hand back raw key/value pairs for structured keys, so only the
// head is read by hand.
func unmarshalDataMap(raw cbor.RawMessage) (PlutusData, error) {
	count, rest, err := readMapHead(raw)
	if err != nil {
		return nil, err
	}
	pairs := make([][2]PlutusData, 0, count)
	for i := uint64(0); i < count; i++ {
		var rawKey, rawValue cbor.RawMessage
		rest, err = cbor.UnmarshalFirst(rest, &rawKey)
		if err != nil {
			return nil, err
		}
		rest, err = cbor.UnmarshalFirst(rest, &rawValue)
		if err != nil {
			return nil, err
		}
		key, err := unmarshalData(rawKey)
		if err != nil {
			return nil, err
		}
		value, err := unmarshalData(rawValue)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]PlutusData{key, value})
	}
	if len(rest) != 0 {
		return nil, errors.New("trailing bytes after plutus data map")
	}
	return &DataMap{Pairs: pairs}, nil
}

func readMapHead(raw []byte) (count uint64, rest []byte, err error) {
	info := raw[0] & 31
	switch {
	case info < 24:
		return uint64(info), raw[1:], nil
	case info <= 27:
		width := 1 << (info - 24)
		if len(raw) < 1+width {
			return 0, nil, errors.New("truncated plutus data map")
		}
		for i := 0; i < width; i++ {
			count = count<<8 | uint64(raw[1+i])
		}
		return count, raw[1+width:], nil
	default:
		return 0, nil, errors.New("indefinite-length maps are not supported in plutus data")
	}
}
