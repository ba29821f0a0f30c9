package machine

import (
	"math/big"

	"github.com/nanoofficial/nano/internal/uplc"
)

// Env is the machine environment: a structurally shared stack of values.
// Closures capture the *Env pointer as-is; extension allocates a new node,
// so captured environments are never mutated.
type Env struct {
	value Value
	next  *Env
	depth int
}

// Extend pushes a value, returning the new environment.
func (e *Env) Extend(v Value) *Env {
	depth := 1
	if e != nil {
		depth = e.depth + 1
	}
	return &Env{value: v, next: e, depth: depth}
}

// Len returns the number of bound values.
func (e *Env) Len() int {
	if e == nil {
		return 0
	}
	return e.depth
}

// Lookup resolves a 1-based De Bruijn index, innermost binding first.
func (e *Env) Lookup(index int) (Value, bool) {
	if index < 1 || index > e.Len() {
		return nil, false
	}
	node := e
	for i := 1; i < index; i++ {
		node = node.next
	}
	return node.value, true
}

// Value is a machine value.
type Value interface {
	valueNode()
}

// Con wraps a constant.
type Con struct {
	Constant uplc.IConstant
}

// DelayValue is a suspended term with its captured environment.
type DelayValue struct {
	Body uplc.Term
	Env  *Env
}

// LambdaValue is a closure.
type LambdaValue struct {
	ParameterName uplc.NamedDeBruijn
	Body          uplc.Term
	Env           *Env
}

// BuiltinValue is a partially applied builtin.
type BuiltinValue struct {
	Fun     uplc.DefaultFunction
	Runtime BuiltinRuntime
}

func (*Con) valueNode()          {}
func (*DelayValue) valueNode()   {}
func (*LambdaValue) valueNode()  {}
func (*BuiltinValue) valueNode() {}

// Constant constructors used by the builtin runtime.

func integerValue(n *big.Int) Value {
	return &Con{Constant: &uplc.Integer{Inner: n}}
}

func boolValue(b bool) Value {
	return &Con{Constant: &uplc.Bool{Inner: b}}
}

func byteStringValue(b []byte) Value {
	return &Con{Constant: &uplc.ByteString{Inner: b}}
}

func stringValue(s string) Value {
	return &Con{Constant: &uplc.String{Inner: s}}
}

func unitValue() Value {
	return &Con{Constant: &uplc.Unit{}}
}

func dataValue(d uplc.PlutusData) Value {
	return &Con{Constant: &uplc.Data{Inner: d}}
}

func listValue(typ uplc.Typ, items []uplc.IConstant) Value {
	return &Con{Constant: &uplc.ProtoList{LTyp: typ, List: items}}
}

// unwrap helpers: these are the builtin argument shape checks; each one
// returns a TypeMismatch, ListTypeMismatch or PairTypeMismatch error when
// the value is not a constant of the expected shape.

func unwrapConstant(v Value) (uplc.IConstant, error) {
	con, ok := v.(*Con)
	if !ok {
		return nil, &NotAConstantError{Value: v}
	}
	return con.Constant, nil
}

func unwrapInteger(v Value) (*big.Int, error) {
	c, err := unwrapConstant(v)
	if err != nil {
		return nil, err
	}
	i, ok := c.(*uplc.Integer)
	if !ok {
		return nil, &TypeMismatchError{Expected: uplc.TInteger{}, Got: c.Typ()}
	}
	return i.Inner, nil
}

func unwrapByteString(v Value) ([]byte, error) {
	c, err := unwrapConstant(v)
	if err != nil {
		return nil, err
	}
	b, ok := c.(*uplc.ByteString)
	if !ok {
		return nil, &TypeMismatchError{Expected: uplc.TByteString{}, Got: c.Typ()}
	}
	return b.Inner, nil
}

func unwrapString(v Value) (string, error) {
	c, err := unwrapConstant(v)
	if err != nil {
		return "", err
	}
	s, ok := c.(*uplc.String)
	if !ok {
		return "", &TypeMismatchError{Expected: uplc.TString{}, Got: c.Typ()}
	}
	return s.Inner, nil
}

func unwrapBool(v Value) (bool, error) {
	c, err := unwrapConstant(v)
	if err != nil {
		return false, err
	}
	b, ok := c.(*uplc.Bool)
	if !ok {
		return false, &TypeMismatchError{Expected: uplc.TBool{}, Got: c.Typ()}
	}
	return b.Inner, nil
}

func unwrapList(v Value) (*uplc.ProtoList, error) {
	c, err := unwrapConstant(v)
	if err != nil {
		return nil, err
	}
	l, ok := c.(*uplc.ProtoList)
	if !ok {
		return nil, &ListTypeMismatchError{Got: c.Typ()}
	}
	return l, nil
}

func unwrapPair(v Value) (*uplc.ProtoPair, error) {
	c, err := unwrapConstant(v)
	if err != nil {
		return nil, err
	}
	p, ok := c.(*uplc.ProtoPair)
	if !ok {
		return nil, &PairTypeMismatchError{Got: c.Typ()}
	}
	return p, nil
}

func unwrapData(v Value) (uplc.PlutusData, error) {
	c, err := unwrapConstant(v)
	if err != nil {
		return nil, err
	}
	d, ok := c.(*uplc.Data)
	if !ok {
		return nil, &TypeMismatchError{Expected: uplc.TData{}, Got: c.Typ()}
	}
	return d.Inner, nil
}

// ToExMem computes the memory metric of a value for cost accounting.
func ToExMem(v Value) int64 {
	switch v := v.(type) {
	case *Con:
		return constantExMem(v.Constant)
	case *DelayValue, *LambdaValue, *BuiltinValue:
		return 1
	}
	return 1
}

func constantExMem(c uplc.IConstant) int64 {
	switch c := c.(type) {
	case *uplc.Integer:
		return integerExMem(c.Inner)
	case *uplc.ByteString:
		if len(c.Inner) == 0 {
			return 1
		}
		return int64(len(c.Inner)-1)/8 + 1
	case *uplc.String:
		return int64(len([]rune(c.Inner)))
	case *uplc.Unit:
		return 1
	case *uplc.Bool:
		return 1
	case *uplc.ProtoList:
		var total int64
		for _, item := range c.List {
			total += constantExMem(item)
		}
		return total
	case *uplc.ProtoPair:
		return constantExMem(c.First) + constantExMem(c.Second)
	case *uplc.Data:
		return dataExMem(c.Inner)
	}
	return 1
}

func integerExMem(n *big.Int) int64 {
	if n.Sign() == 0 {
		return 1
	}
	// integer_log2(|n|)/64 + 1
	return int64(n.BitLen()-1)/64 + 1
}

// dataExMem walks the data tree, adding 4 per node plus the metric of each
// integer or bytestring leaf.
func dataExMem(d uplc.PlutusData) int64 {
	stack := []uplc.PlutusData{d}
	var total int64
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		total += 4
		switch item := item.(type) {
		case *uplc.DataConstr:
			stack = append(stack, item.Fields...)
		case *uplc.DataMap:
			for _, kv := range item.Pairs {
				stack = append(stack, kv[0], kv[1])
			}
		case *uplc.DataArray:
			stack = append(stack, item.Items...)
		case *uplc.DataInteger:
			total += integerExMem(item.Inner)
		case *uplc.DataByteString:
			if len(item.Inner) == 0 {
				total++
			} else {
				total += int64(len(item.Inner)-1)/8 + 1
			}
		}
	}
	return total
}

// ExpectType checks that the value is a constant of the given type.
func ExpectType(v Value, typ uplc.Typ) error {
	c, err := unwrapConstant(v)
	if err != nil {
		return err
	}
	if !uplc.TypEqual(c.Typ(), typ) {
		return &TypeMismatchError{Expected: typ, Got: c.Typ()}
	}
	return nil
}

// ExpectList checks that the value is a list constant.
func ExpectList(v Value) error {
	_, err := unwrapList(v)
	return err
}

// ExpectPair checks that the value is a pair constant.
func ExpectPair(v Value) error {
	_, err := unwrapPair(v)
	return err
}
