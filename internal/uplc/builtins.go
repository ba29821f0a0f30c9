package uplc

import "fmt"

// DefaultFunction is a builtin function tag, matching the on-wire 7-bit
// encoding.
type DefaultFunction byte

const (
	AddInteger            DefaultFunction = 0
	SubtractInteger       DefaultFunction = 1
	MultiplyInteger       DefaultFunction = 2
	DivideInteger         DefaultFunction = 3
	QuotientInteger       DefaultFunction = 4
	RemainderInteger      DefaultFunction = 5
	ModInteger            DefaultFunction = 6
	EqualsInteger         DefaultFunction = 7
	LessThanInteger       DefaultFunction = 8
	LessThanEqualsInteger DefaultFunction = 9
	AppendByteString      DefaultFunction = 10
	ConsByteString        DefaultFunction = 11
	SliceByteString       DefaultFunction = 12
	LengthOfByteString    DefaultFunction = 13
	IndexByteString       DefaultFunction = 14
	EqualsByteString      DefaultFunction = 15
	LessThanByteString    DefaultFunction = 16
	LessThanEqualsByteString DefaultFunction = 17
	Sha2_256              DefaultFunction = 18
	Sha3_256              DefaultFunction = 19
	Blake2b_256           DefaultFunction = 20
	VerifyEd25519Signature DefaultFunction = 21
	AppendString          DefaultFunction = 22
	EqualsString          DefaultFunction = 23
	EncodeUtf8            DefaultFunction = 24
	DecodeUtf8            DefaultFunction = 25
	IfThenElse            DefaultFunction = 26
	ChooseUnit            DefaultFunction = 27
	Trace                 DefaultFunction = 28
	FstPair               DefaultFunction = 29
	SndPair               DefaultFunction = 30
	ChooseList            DefaultFunction = 31
	MkCons                DefaultFunction = 32
	HeadList              DefaultFunction = 33
	TailList              DefaultFunction = 34
	NullList              DefaultFunction = 35
	ChooseData            DefaultFunction = 36
	ConstrData            DefaultFunction = 37
	MapData               DefaultFunction = 38
	ListData              DefaultFunction = 39
	IData                 DefaultFunction = 40
	BData                 DefaultFunction = 41
	UnConstrData          DefaultFunction = 42
	UnMapData             DefaultFunction = 43
	UnListData            DefaultFunction = 44
	UnIData               DefaultFunction = 45
	UnBData               DefaultFunction = 46
	EqualsData            DefaultFunction = 47
	MkPairData            DefaultFunction = 48
	MkNilData             DefaultFunction = 49
	MkNilPairData         DefaultFunction = 50
	SerialiseData         DefaultFunction = 51
)

// DefaultFunctionCount is the number of known builtins; wire tags at or
// above it are rejected.
const DefaultFunctionCount = 52

var builtinNames = [DefaultFunctionCount]string{
	"addInteger", "subtractInteger", "multiplyInteger", "divideInteger",
	"quotientInteger", "remainderInteger", "modInteger", "equalsInteger",
	"lessThanInteger", "lessThanEqualsInteger", "appendByteString",
	"consByteString", "sliceByteString", "lengthOfByteString",
	"indexByteString", "equalsByteString", "lessThanByteString",
	"lessThanEqualsByteString", "sha2_256", "sha3_256", "blake2b_256",
	"verifyEd25519Signature", "appendString", "equalsString", "encodeUtf8",
	"decodeUtf8", "ifThenElse", "chooseUnit", "trace", "fstPair", "sndPair",
	"chooseList", "mkCons", "headList", "tailList", "nullList", "chooseData",
	"constrData", "mapData", "listData", "iData", "bData", "unConstrData",
	"unMapData", "unListData", "unIData", "unBData", "equalsData",
	"mkPairData", "mkNilData", "mkNilPairData", "serialiseData",
}

func (f DefaultFunction) String() string {
	if int(f) < len(builtinNames) {
		return builtinNames[f]
	}
	return fmt.Sprintf("builtin_%d", byte(f))
}

// BuiltinFromName resolves a builtin by its surface name.
func BuiltinFromName(name string) (DefaultFunction, bool) {
	for i, n := range builtinNames {
		if n == name {
			return DefaultFunction(i), true
		}
	}
	return 0, false
}

// Arity returns the number of value arguments the builtin consumes.
func (f DefaultFunction) Arity() int {
	switch f {
	case Sha2_256, Sha3_256, Blake2b_256, EncodeUtf8, DecodeUtf8,
		LengthOfByteString, UnConstrData, UnMapData, UnListData, UnIData,
		UnBData, FstPair, SndPair, HeadList, TailList, NullList, MkNilData,
		MkNilPairData, IData, BData, MapData, ListData, SerialiseData:
		return 1
	case VerifyEd25519Signature, IfThenElse, SliceByteString, ChooseList:
		return 3
	case ChooseData:
		return 6
	default:
		return 2
	}
}

// ForceCount returns how many forces the builtin needs before it can be
// applied (its number of type parameters).
func (f DefaultFunction) ForceCount() int {
	switch f {
	case IfThenElse, ChooseUnit, Trace, MkCons, HeadList, TailList, NullList:
		return 1
	case FstPair, SndPair, ChooseList:
		return 2
	case ChooseData:
		return 1
	default:
		return 0
	}
}
