package machine

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"math/big"
	"unicode/utf8"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/nanoofficial/nano/internal/uplc"
)

// BuiltinRuntime tracks the partial application state of a builtin: how
// many forces it has consumed and which arguments it has accumulated.
type BuiltinRuntime struct {
	Args   []Value
	Forces int
	arity  int
	forces int
}

func newRuntime(fun uplc.DefaultFunction) BuiltinRuntime {
	return BuiltinRuntime{arity: fun.Arity(), forces: fun.ForceCount()}
}

// NeedsForce reports whether the builtin still expects a force.
func (r BuiltinRuntime) NeedsForce() bool {
	return r.Forces < r.forces
}

// ConsumeForce returns the runtime with one more force consumed.
func (r BuiltinRuntime) ConsumeForce() BuiltinRuntime {
	out := r
	out.Forces++
	return out
}

// PushArg returns the runtime with one more argument accumulated. The args
// slice is copied so shared runtimes stay immutable.
func (r BuiltinRuntime) PushArg(v Value) BuiltinRuntime {
	out := r
	out.Args = make([]Value, len(r.Args), len(r.Args)+1)
	copy(out.Args, r.Args)
	out.Args = append(out.Args, v)
	return out
}

// IsReady reports whether the builtin is saturated.
func (r BuiltinRuntime) IsReady() bool {
	return len(r.Args) == r.arity && r.Forces == r.forces
}

// evalBuiltinApp charges the builtin's predicted budget, then applies it.
func (m *Machine) evalBuiltinApp(fun uplc.DefaultFunction, args []Value) (Value, error) {
	if err := m.spendBudget(m.costs.BuiltinBudget(fun, args)); err != nil {
		return nil, err
	}
	return m.applyBuiltin(fun, args)
}

func (m *Machine) applyBuiltin(fun uplc.DefaultFunction, args []Value) (Value, error) {
	switch fun {
	case uplc.AddInteger, uplc.SubtractInteger, uplc.MultiplyInteger,
		uplc.DivideInteger, uplc.QuotientInteger, uplc.RemainderInteger,
		uplc.ModInteger:
		return integerArithmetic(fun, args)
	case uplc.EqualsInteger, uplc.LessThanInteger, uplc.LessThanEqualsInteger:
		return integerComparison(fun, args)
	case uplc.AppendByteString:
		a, err := unwrapByteString(args[0])
		if err != nil {
			return nil, err
		}
		b, err := unwrapByteString(args[1])
		if err != nil {
			return nil, err
		}
		out := make([]byte, 0, len(a)+len(b))
		out = append(out, a...)
		out = append(out, b...)
		return byteStringValue(out), nil
	case uplc.ConsByteString:
		head, err := unwrapInteger(args[0])
		if err != nil {
			return nil, err
		}
		rest, err := unwrapByteString(args[1])
		if err != nil {
			return nil, err
		}
		if head.Sign() < 0 || head.Cmp(big.NewInt(255)) > 0 {
			return nil, &ByteValueOutOfRangeError{Value: head.String()}
		}
		out := make([]byte, 0, len(rest)+1)
		out = append(out, byte(head.Int64()))
		out = append(out, rest...)
		return byteStringValue(out), nil
	case uplc.SliceByteString:
		from, err := unwrapInteger(args[0])
		if err != nil {
			return nil, err
		}
		length, err := unwrapInteger(args[1])
		if err != nil {
			return nil, err
		}
		src, err := unwrapByteString(args[2])
		if err != nil {
			return nil, err
		}
		start := clampIndex(from, len(src))
		end := start + clampIndex(length, len(src)-start)
		return byteStringValue(src[start:end]), nil
	case uplc.LengthOfByteString:
		b, err := unwrapByteString(args[0])
		if err != nil {
			return nil, err
		}
		return integerValue(big.NewInt(int64(len(b)))), nil
	case uplc.IndexByteString:
		b, err := unwrapByteString(args[0])
		if err != nil {
			return nil, err
		}
		index, err := unwrapInteger(args[1])
		if err != nil {
			return nil, err
		}
		if !index.IsInt64() || index.Int64() < 0 || index.Int64() >= int64(len(b)) {
			return nil, &ByteStringOutOfBoundsError{Index: index.Int64()}
		}
		return integerValue(big.NewInt(int64(b[index.Int64()]))), nil
	case uplc.EqualsByteString:
		return byteStringComparison(args, func(cmp int) bool { return cmp == 0 })
	case uplc.LessThanByteString:
		return byteStringComparison(args, func(cmp int) bool { return cmp < 0 })
	case uplc.LessThanEqualsByteString:
		return byteStringComparison(args, func(cmp int) bool { return cmp <= 0 })
	case uplc.Sha2_256:
		b, err := unwrapByteString(args[0])
		if err != nil {
			return nil, err
		}
		digest := sha256.Sum256(b)
		return byteStringValue(digest[:]), nil
	case uplc.Sha3_256:
		b, err := unwrapByteString(args[0])
		if err != nil {
			return nil, err
		}
		digest := sha3.Sum256(b)
		return byteStringValue(digest[:]), nil
	case uplc.Blake2b_256:
		b, err := unwrapByteString(args[0])
		if err != nil {
			return nil, err
		}
		digest := blake2b.Sum256(b)
		return byteStringValue(digest[:]), nil
	case uplc.VerifyEd25519Signature:
		publicKey, err := unwrapByteString(args[0])
		if err != nil {
			return nil, err
		}
		message, err := unwrapByteString(args[1])
		if err != nil {
			return nil, err
		}
		signature, err := unwrapByteString(args[2])
		if err != nil {
			return nil, err
		}
		if len(publicKey) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid ed25519 public key length: %d", len(publicKey))
		}
		if len(signature) != ed25519.SignatureSize {
			return nil, fmt.Errorf("invalid ed25519 signature length: %d", len(signature))
		}
		ok := ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
		return boolValue(ok), nil
	case uplc.AppendString:
		a, err := unwrapString(args[0])
		if err != nil {
			return nil, err
		}
		b, err := unwrapString(args[1])
		if err != nil {
			return nil, err
		}
		return stringValue(a + b), nil
	case uplc.EqualsString:
		a, err := unwrapString(args[0])
		if err != nil {
			return nil, err
		}
		b, err := unwrapString(args[1])
		if err != nil {
			return nil, err
		}
		return boolValue(a == b), nil
	case uplc.EncodeUtf8:
		s, err := unwrapString(args[0])
		if err != nil {
			return nil, err
		}
		return byteStringValue([]byte(s)), nil
	case uplc.DecodeUtf8:
		b, err := unwrapByteString(args[0])
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(b) {
			return nil, &Utf8Error{}
		}
		return stringValue(string(b)), nil
	case uplc.IfThenElse:
		condition, err := unwrapBool(args[0])
		if err != nil {
			return nil, err
		}
		if condition {
			return args[1], nil
		}
		return args[2], nil
	case uplc.ChooseUnit:
		if err := ExpectType(args[0], uplc.TUnit{}); err != nil {
			return nil, err
		}
		return args[1], nil
	case uplc.Trace:
		message, err := unwrapString(args[0])
		if err != nil {
			return nil, err
		}
		m.logs = append(m.logs, message)
		return args[1], nil
	case uplc.FstPair:
		pair, err := unwrapPair(args[0])
		if err != nil {
			return nil, err
		}
		return &Con{Constant: pair.First}, nil
	case uplc.SndPair:
		pair, err := unwrapPair(args[0])
		if err != nil {
			return nil, err
		}
		return &Con{Constant: pair.Second}, nil
	case uplc.ChooseList:
		list, err := unwrapList(args[0])
		if err != nil {
			return nil, err
		}
		if len(list.List) == 0 {
			return args[1], nil
		}
		return args[2], nil
	case uplc.MkCons:
		head, err := unwrapConstant(args[0])
		if err != nil {
			return nil, err
		}
		tail, err := unwrapList(args[1])
		if err != nil {
			return nil, err
		}
		if !uplc.TypEqual(head.Typ(), tail.LTyp) {
			return nil, &TypeMismatchError{Expected: tail.LTyp, Got: head.Typ()}
		}
		items := make([]uplc.IConstant, 0, len(tail.List)+1)
		items = append(items, head)
		items = append(items, tail.List...)
		return listValue(tail.LTyp, items), nil
	case uplc.HeadList:
		list, err := unwrapList(args[0])
		if err != nil {
			return nil, err
		}
		if len(list.List) == 0 {
			return nil, &EmptyListError{}
		}
		return &Con{Constant: list.List[0]}, nil
	case uplc.TailList:
		list, err := unwrapList(args[0])
		if err != nil {
			return nil, err
		}
		if len(list.List) == 0 {
			return nil, &EmptyListError{}
		}
		return listValue(list.LTyp, list.List[1:]), nil
	case uplc.NullList:
		list, err := unwrapList(args[0])
		if err != nil {
			return nil, err
		}
		return boolValue(len(list.List) == 0), nil
	case uplc.ChooseData:
		data, err := unwrapData(args[0])
		if err != nil {
			return nil, err
		}
		switch data.(type) {
		case *uplc.DataConstr:
			return args[1], nil
		case *uplc.DataMap:
			return args[2], nil
		case *uplc.DataArray:
			return args[3], nil
		case *uplc.DataInteger:
			return args[4], nil
		default:
			return args[5], nil
		}
	case uplc.ConstrData:
		tag, err := unwrapInteger(args[0])
		if err != nil {
			return nil, err
		}
		fields, err := unwrapDataList(args[1])
		if err != nil {
			return nil, err
		}
		return dataValue(&uplc.DataConstr{Tag: tag.Uint64(), Fields: fields}), nil
	case uplc.MapData:
		list, err := unwrapList(args[0])
		if err != nil {
			return nil, err
		}
		pairs := make([][2]uplc.PlutusData, 0, len(list.List))
		for _, item := range list.List {
			pair, ok := item.(*uplc.ProtoPair)
			if !ok {
				return nil, &PairTypeMismatchError{Got: item.Typ()}
			}
			key, ok := pair.First.(*uplc.Data)
			if !ok {
				return nil, &TypeMismatchError{Expected: uplc.TData{}, Got: pair.First.Typ()}
			}
			value, ok := pair.Second.(*uplc.Data)
			if !ok {
				return nil, &TypeMismatchError{Expected: uplc.TData{}, Got: pair.Second.Typ()}
			}
			pairs = append(pairs, [2]uplc.PlutusData{key.Inner, value.Inner})
		}
		return dataValue(&uplc.DataMap{Pairs: pairs}), nil
	case uplc.ListData:
		items, err := unwrapDataList(args[0])
		if err != nil {
			return nil, err
		}
		return dataValue(&uplc.DataArray{Items: items}), nil
	case uplc.IData:
		i, err := unwrapInteger(args[0])
		if err != nil {
			return nil, err
		}
		return dataValue(&uplc.DataInteger{Inner: i}), nil
	case uplc.BData:
		b, err := unwrapByteString(args[0])
		if err != nil {
			return nil, err
		}
		return dataValue(&uplc.DataByteString{Inner: b}), nil
	case uplc.UnConstrData:
		data, err := unwrapData(args[0])
		if err != nil {
			return nil, err
		}
		constr, ok := data.(*uplc.DataConstr)
		if !ok {
			return nil, &DataDeconstructionError{Fun: fun}
		}
		fields := make([]uplc.IConstant, 0, len(constr.Fields))
		for _, f := range constr.Fields {
			fields = append(fields, &uplc.Data{Inner: f})
		}
		pair := &uplc.ProtoPair{
			FstType: uplc.TInteger{},
			SndType: uplc.TList{Typ: uplc.TData{}},
			First:   &uplc.Integer{Inner: new(big.Int).SetUint64(constr.Tag)},
			Second:  &uplc.ProtoList{LTyp: uplc.TData{}, List: fields},
		}
		return &Con{Constant: pair}, nil
	case uplc.UnMapData:
		data, err := unwrapData(args[0])
		if err != nil {
			return nil, err
		}
		dataMap, ok := data.(*uplc.DataMap)
		if !ok {
			return nil, &DataDeconstructionError{Fun: fun}
		}
		pairType := uplc.TPair{First: uplc.TData{}, Second: uplc.TData{}}
		items := make([]uplc.IConstant, 0, len(dataMap.Pairs))
		for _, kv := range dataMap.Pairs {
			items = append(items, &uplc.ProtoPair{
				FstType: uplc.TData{},
				SndType: uplc.TData{},
				First:   &uplc.Data{Inner: kv[0]},
				Second:  &uplc.Data{Inner: kv[1]},
			})
		}
		return listValue(pairType, items), nil
	case uplc.UnListData:
		data, err := unwrapData(args[0])
		if err != nil {
			return nil, err
		}
		array, ok := data.(*uplc.DataArray)
		if !ok {
			return nil, &DataDeconstructionError{Fun: fun}
		}
		items := make([]uplc.IConstant, 0, len(array.Items))
		for _, item := range array.Items {
			items = append(items, &uplc.Data{Inner: item})
		}
		return listValue(uplc.TData{}, items), nil
	case uplc.UnIData:
		data, err := unwrapData(args[0])
		if err != nil {
			return nil, err
		}
		i, ok := data.(*uplc.DataInteger)
		if !ok {
			return nil, &DataDeconstructionError{Fun: fun}
		}
		return integerValue(i.Inner), nil
	case uplc.UnBData:
		data, err := unwrapData(args[0])
		if err != nil {
			return nil, err
		}
		b, ok := data.(*uplc.DataByteString)
		if !ok {
			return nil, &DataDeconstructionError{Fun: fun}
		}
		return byteStringValue(b.Inner), nil
	case uplc.EqualsData:
		a, err := unwrapData(args[0])
		if err != nil {
			return nil, err
		}
		b, err := unwrapData(args[1])
		if err != nil {
			return nil, err
		}
		return boolValue(uplc.DataEqual(a, b)), nil
	case uplc.MkPairData:
		first, err := unwrapData(args[0])
		if err != nil {
			return nil, err
		}
		second, err := unwrapData(args[1])
		if err != nil {
			return nil, err
		}
		pair := &uplc.ProtoPair{
			FstType: uplc.TData{},
			SndType: uplc.TData{},
			First:   &uplc.Data{Inner: first},
			Second:  &uplc.Data{Inner: second},
		}
		return &Con{Constant: pair}, nil
	case uplc.MkNilData:
		if err := ExpectType(args[0], uplc.TUnit{}); err != nil {
			return nil, err
		}
		return listValue(uplc.TData{}, nil), nil
	case uplc.MkNilPairData:
		if err := ExpectType(args[0], uplc.TUnit{}); err != nil {
			return nil, err
		}
		return listValue(uplc.TPair{First: uplc.TData{}, Second: uplc.TData{}}, nil), nil
	case uplc.SerialiseData:
		data, err := unwrapData(args[0])
		if err != nil {
			return nil, err
		}
		return byteStringValue(uplc.MarshalData(data)), nil
	default:
		return nil, fmt.Errorf("unimplemented builtin: %s", fun)
	}
}

func integerArithmetic(fun uplc.DefaultFunction, args []Value) (Value, error) {
	a, err := unwrapInteger(args[0])
	if err != nil {
		return nil, err
	}
	b, err := unwrapInteger(args[1])
	if err != nil {
		return nil, err
	}
	out := new(big.Int)
	switch fun {
	case uplc.AddInteger:
		out.Add(a, b)
	case uplc.SubtractInteger:
		out.Sub(a, b)
	case uplc.MultiplyInteger:
		out.Mul(a, b)
	case uplc.DivideInteger:
		if b.Sign() == 0 {
			return nil, &DivideByZeroError{}
		}
		floorQuoRem(out, new(big.Int), a, b)
	case uplc.ModInteger:
		if b.Sign() == 0 {
			return nil, &DivideByZeroError{}
		}
		floorQuoRem(new(big.Int), out, a, b)
	case uplc.QuotientInteger:
		if b.Sign() == 0 {
			return nil, &DivideByZeroError{}
		}
		out.Quo(a, b)
	case uplc.RemainderInteger:
		if b.Sign() == 0 {
			return nil, &DivideByZeroError{}
		}
		out.Rem(a, b)
	}
	return integerValue(out), nil
}

// floorQuoRem computes floored division: the quotient rounds toward
// negative infinity and the remainder takes the divisor's sign.
func floorQuoRem(quo, rem, a, b *big.Int) {
	quo.QuoRem(a, b, rem)
	if rem.Sign() != 0 && rem.Sign() != b.Sign() {
		quo.Sub(quo, big.NewInt(1))
		rem.Add(rem, b)
	}
}

func integerComparison(fun uplc.DefaultFunction, args []Value) (Value, error) {
	a, err := unwrapInteger(args[0])
	if err != nil {
		return nil, err
	}
	b, err := unwrapInteger(args[1])
	if err != nil {
		return nil, err
	}
	cmp := a.Cmp(b)
	switch fun {
	case uplc.EqualsInteger:
		return boolValue(cmp == 0), nil
	case uplc.LessThanInteger:
		return boolValue(cmp < 0), nil
	default:
		return boolValue(cmp <= 0), nil
	}
}

func byteStringComparison(args []Value, verdict func(int) bool) (Value, error) {
	a, err := unwrapByteString(args[0])
	if err != nil {
		return nil, err
	}
	b, err := unwrapByteString(args[1])
	if err != nil {
		return nil, err
	}
	return boolValue(verdict(bytes.Compare(a, b))), nil
}

func unwrapDataList(v Value) ([]uplc.PlutusData, error) {
	list, err := unwrapList(v)
	if err != nil {
		return nil, err
	}
	if !uplc.TypEqual(list.LTyp, uplc.TData{}) {
		return nil, &TypeMismatchError{Expected: uplc.TList{Typ: uplc.TData{}}, Got: list.Typ()}
	}
	out := make([]uplc.PlutusData, 0, len(list.List))
	for _, item := range list.List {
		data, ok := item.(*uplc.Data)
		if !ok {
			return nil, &TypeMismatchError{Expected: uplc.TData{}, Got: item.Typ()}
		}
		out = append(out, data.Inner)
	}
	return out, nil
}

func clampIndex(n *big.Int, limit int) int {
	if n.Sign() <= 0 {
		return 0
	}
	if !n.IsInt64() || n.Int64() > int64(limit) {
		return limit
	}
	return int(n.Int64())
}
