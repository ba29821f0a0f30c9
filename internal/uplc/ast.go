// Package uplc models Untyped Plutus Core: programs, terms, constants, the
// three binder forms (named, named De Bruijn, De Bruijn), interning,
// conversion between binder forms, serialisation, and the peephole
// optimiser that runs after code generation.
package uplc

import (
	"fmt"
	"math/big"
)

// Unique identifies a binder after interning: two Names with the same
// Unique are the same binder.
type Unique uint64

// DeBruijnIndex counts enclosing lambdas, innermost first, starting at 1.
type DeBruijnIndex uint64

// Binder is one of the three name forms a term can carry.
type Binder interface {
	binderNode()
	// TextName returns the display name of the binder.
	TextName() string
}

// Name is a textual name paired with its interned unique.
type Name struct {
	Text   string
	Unique Unique
}

// NamedDeBruijn carries both the original text and the De Bruijn index.
type NamedDeBruijn struct {
	Text  string
	Index DeBruijnIndex
}

// DeBruijn is an index-only binder, the wire form.
type DeBruijn struct {
	Index DeBruijnIndex
}

func (n Name) binderNode()          {}
func (n NamedDeBruijn) binderNode() {}
func (n DeBruijn) binderNode()      {}

func (n Name) TextName() string          { return n.Text }
func (n NamedDeBruijn) TextName() string { return n.Text }
func (n DeBruijn) TextName() string      { return fmt.Sprintf("i_%d", n.Index) }

func (n Name) String() string          { return fmt.Sprintf("%s_%d", n.Text, n.Unique) }
func (n NamedDeBruijn) String() string { return fmt.Sprintf("%s_%d", n.Text, n.Index) }
func (n DeBruijn) String() string      { return fmt.Sprintf("i_%d", n.Index) }

// Term is an untyped lambda-calculus term.
type Term interface {
	termNode()
}

// Var references a bound variable.
type Var struct {
	Name Binder
}

// Delay suspends evaluation of its body until forced.
type Delay struct {
	Term Term
}

// Lambda abstracts over one parameter.
type Lambda struct {
	ParameterName Binder
	Body          Term
}

// Apply applies Function to Argument.
type Apply struct {
	Function Term
	Argument Term
}

// Constant embeds a constant value.
type Constant struct {
	Con IConstant
}

// Force demands a delayed term or feeds a force to a builtin.
type Force struct {
	Term Term
}

// Error terminates evaluation with a machine error.
type Error struct{}

// Builtin references a default function by tag.
type Builtin struct {
	Fun DefaultFunction
}

func (t *Var) termNode()      {}
func (t *Delay) termNode()    {}
func (t *Lambda) termNode()   {}
func (t *Apply) termNode()    {}
func (t *Constant) termNode() {}
func (t *Force) termNode()    {}
func (t *Error) termNode()    {}
func (t *Builtin) termNode()  {}

// ApplyTo left-folds the arguments onto t.
func ApplyTo(t Term, args ...Term) Term {
	for _, arg := range args {
		t = &Apply{Function: t, Argument: arg}
	}
	return t
}

// ForceWrap wraps t in a single force.
func ForceWrap(t Term) Term { return &Force{Term: t} }

// DelayWrap wraps t in a single delay.
func DelayWrap(t Term) Term { return &Delay{Term: t} }

// LambdaWrap abstracts t over the given named parameter.
func LambdaWrap(param Binder, t Term) Term {
	return &Lambda{ParameterName: param, Body: t}
}

// IsUnit reports whether the term is the unit constant.
func IsUnit(t Term) bool {
	c, ok := t.(*Constant)
	if !ok {
		return false
	}
	_, ok = c.Con.(*Unit)
	return ok
}

// IConstant is a UPLC constant value.
type IConstant interface {
	constantNode()
	// Typ returns the static type tag of the constant.
	Typ() Typ
}

// Integer is an arbitrary-precision integer constant.
type Integer struct {
	Inner *big.Int
}

// ByteString is a byte-array constant.
type ByteString struct {
	Inner []byte
}

// String is a text constant.
type String struct {
	Inner string
}

// Unit is the unit constant.
type Unit struct{}

// Bool is a boolean constant.
type Bool struct {
	Inner bool
}

// ProtoList is a homogeneous list of constants; every element has static
// type LTyp.
type ProtoList struct {
	LTyp Typ
	List []IConstant
}

// ProtoPair is a pair of constants with their element types.
type ProtoPair struct {
	FstType Typ
	SndType Typ
	First   IConstant
	Second  IConstant
}

// Data is an embedded Plutus data value.
type Data struct {
	Inner PlutusData
}

func (c *Integer) constantNode()    {}
func (c *ByteString) constantNode() {}
func (c *String) constantNode()     {}
func (c *Unit) constantNode()       {}
func (c *Bool) constantNode()       {}
func (c *ProtoList) constantNode()  {}
func (c *ProtoPair) constantNode()  {}
func (c *Data) constantNode()       {}

func (c *Integer) Typ() Typ    { return TInteger{} }
func (c *ByteString) Typ() Typ { return TByteString{} }
func (c *String) Typ() Typ     { return TString{} }
func (c *Unit) Typ() Typ       { return TUnit{} }
func (c *Bool) Typ() Typ       { return TBool{} }
func (c *ProtoList) Typ() Typ  { return TList{Typ: c.LTyp} }
func (c *ProtoPair) Typ() Typ  { return TPair{First: c.FstType, Second: c.SndType} }
func (c *Data) Typ() Typ       { return TData{} }

// Typ is the static type tag of a constant.
type Typ interface {
	typNode()
	String() string
}

type TBool struct{}
type TInteger struct{}
type TString struct{}
type TByteString struct{}
type TUnit struct{}

// TList tags a list of element type Typ.
type TList struct {
	Typ Typ
}

// TPair tags a pair of element types.
type TPair struct {
	First  Typ
	Second Typ
}

// TData tags opaque Plutus data.
type TData struct{}

func (TBool) typNode()       {}
func (TInteger) typNode()    {}
func (TString) typNode()     {}
func (TByteString) typNode() {}
func (TUnit) typNode()       {}
func (TList) typNode()       {}
func (TPair) typNode()       {}
func (TData) typNode()       {}

func (TBool) String() string       { return "bool" }
func (TInteger) String() string    { return "integer" }
func (TString) String() string     { return "string" }
func (TByteString) String() string { return "bytestring" }
func (TUnit) String() string       { return "unit" }
func (t TList) String() string     { return fmt.Sprintf("(list %s)", t.Typ) }
func (t TPair) String() string     { return fmt.Sprintf("(pair %s %s)", t.First, t.Second) }
func (TData) String() string       { return "data" }

// TypEqual reports structural equality of two type tags.
func TypEqual(a, b Typ) bool {
	switch a := a.(type) {
	case TList:
		bl, ok := b.(TList)
		return ok && TypEqual(a.Typ, bl.Typ)
	case TPair:
		bp, ok := b.(TPair)
		return ok && TypEqual(a.First, bp.First) && TypEqual(a.Second, bp.Second)
	default:
		return a == b
	}
}

// ConstantEqual reports structural equality of two constants.
func ConstantEqual(a, b IConstant) bool {
	switch a := a.(type) {
	case *Integer:
		bc, ok := b.(*Integer)
		return ok && a.Inner.Cmp(bc.Inner) == 0
	case *ByteString:
		bc, ok := b.(*ByteString)
		if !ok || len(a.Inner) != len(bc.Inner) {
			return false
		}
		for i := range a.Inner {
			if a.Inner[i] != bc.Inner[i] {
				return false
			}
		}
		return true
	case *String:
		bc, ok := b.(*String)
		return ok && a.Inner == bc.Inner
	case *Unit:
		_, ok := b.(*Unit)
		return ok
	case *Bool:
		bc, ok := b.(*Bool)
		return ok && a.Inner == bc.Inner
	case *ProtoList:
		bc, ok := b.(*ProtoList)
		if !ok || !TypEqual(a.LTyp, bc.LTyp) || len(a.List) != len(bc.List) {
			return false
		}
		for i := range a.List {
			if !ConstantEqual(a.List[i], bc.List[i]) {
				return false
			}
		}
		return true
	case *ProtoPair:
		bc, ok := b.(*ProtoPair)
		return ok && TypEqual(a.FstType, bc.FstType) && TypEqual(a.SndType, bc.SndType) &&
			ConstantEqual(a.First, bc.First) && ConstantEqual(a.Second, bc.Second)
	case *Data:
		bc, ok := b.(*Data)
		return ok && DataEqual(a.Inner, bc.Inner)
	}
	return false
}

// TermEqual reports structural equality of two terms, comparing binders by
// their wire identity (unique or index).
func TermEqual(a, b Term) bool {
	switch a := a.(type) {
	case *Var:
		bt, ok := b.(*Var)
		return ok && a.Name == bt.Name
	case *Delay:
		bt, ok := b.(*Delay)
		return ok && TermEqual(a.Term, bt.Term)
	case *Lambda:
		bt, ok := b.(*Lambda)
		return ok && a.ParameterName == bt.ParameterName && TermEqual(a.Body, bt.Body)
	case *Apply:
		bt, ok := b.(*Apply)
		return ok && TermEqual(a.Function, bt.Function) && TermEqual(a.Argument, bt.Argument)
	case *Constant:
		bt, ok := b.(*Constant)
		return ok && ConstantEqual(a.Con, bt.Con)
	case *Force:
		bt, ok := b.(*Force)
		return ok && TermEqual(a.Term, bt.Term)
	case *Error:
		_, ok := b.(*Error)
		return ok
	case *Builtin:
		bt, ok := b.(*Builtin)
		return ok && a.Fun == bt.Fun
	}
	return false
}

// Program pairs a version triple with a term. The version is preserved
// byte-for-byte through decode/encode.
type Program struct {
	Version [3]uint64
	Term    Term
}

// Apply appends another program's term as an argument.
func (p *Program) Apply(other *Program) *Program {
	return &Program{
		Version: p.Version,
		Term:    &Apply{Function: p.Term, Argument: other.Term},
	}
}

// ApplyTerm appends a term as an argument.
func (p *Program) ApplyTerm(t Term) *Program {
	return &Program{
		Version: p.Version,
		Term:    &Apply{Function: p.Term, Argument: t},
	}
}

// ApplyData appends a data constant as an argument.
func (p *Program) ApplyData(d PlutusData) *Program {
	return p.ApplyTerm(&Constant{Con: &Data{Inner: d}})
}

func (p *Program) String() string {
	return p.Pretty()
}
