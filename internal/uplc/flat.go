package uplc

import (
	"errors"
	"fmt"

	"github.com/nanoofficial/nano/internal/flat"
)

// Wire tags for terms (4 bits each).
const (
	termTagVar      = 0
	termTagDelay    = 1
	termTagLambda   = 2
	termTagApply    = 3
	termTagConstant = 4
	termTagForce    = 5
	termTagError    = 6
	termTagBuiltin  = 7
)

// Wire tags for constant types (5 bits each). Compound types are spelled
// as application sequences: a list is 7,5 followed by the element type and
// a pair is 7,7,6 followed by both element types.
const (
	constTagInteger    = 0
	constTagByteString = 1
	constTagString     = 2
	constTagUnit       = 3
	constTagBool       = 4
	constTagList       = 5
	constTagPair       = 6
	constTagApply      = 7
	constTagData       = 8
)

const (
	termTagWidth    = 4
	constTagWidth   = 5
	builtinTagWidth = 7
)

// ToFlat serialises the program, which must be in De Bruijn form.
func (p *Program) ToFlat() ([]byte, error) {
	e := flat.NewEncoder()
	e.Word(p.Version[0]).Word(p.Version[1]).Word(p.Version[2])
	if err := encodeTerm(e, p.Term); err != nil {
		return nil, err
	}
	e.Filler()
	return e.Buffer(), nil
}

// FromFlat decodes a De Bruijn program from a Flat stream.
func FromFlat(bytes []byte) (*Program, error) {
	d := flat.NewDecoder(bytes)
	var version [3]uint64
	for i := range version {
		v, err := d.Word()
		if err != nil {
			return nil, err
		}
		version[i] = v
	}
	term, err := decodeTerm(d)
	if err != nil {
		return nil, err
	}
	if err := d.Filler(); err != nil {
		return nil, err
	}
	return &Program{Version: version, Term: term}, nil
}

func encodeTerm(e *flat.Encoder, term Term) error {
	switch t := term.(type) {
	case *Var:
		db, ok := t.Name.(DeBruijn)
		if !ok {
			return errors.New("flat encoding requires a de bruijn program")
		}
		e.Bits(termTagWidth, termTagVar)
		e.Word(uint64(db.Index))
		return nil
	case *Delay:
		e.Bits(termTagWidth, termTagDelay)
		return encodeTerm(e, t.Term)
	case *Lambda:
		if _, ok := t.ParameterName.(DeBruijn); !ok {
			return errors.New("flat encoding requires a de bruijn program")
		}
		e.Bits(termTagWidth, termTagLambda)
		return encodeTerm(e, t.Body)
	case *Apply:
		e.Bits(termTagWidth, termTagApply)
		if err := encodeTerm(e, t.Function); err != nil {
			return err
		}
		return encodeTerm(e, t.Argument)
	case *Constant:
		e.Bits(termTagWidth, termTagConstant)
		return encodeConstant(e, t.Con)
	case *Force:
		e.Bits(termTagWidth, termTagForce)
		return encodeTerm(e, t.Term)
	case *Error:
		e.Bits(termTagWidth, termTagError)
		return nil
	case *Builtin:
		e.Bits(termTagWidth, termTagBuiltin)
		e.Bits(builtinTagWidth, byte(t.Fun))
		return nil
	default:
		return fmt.Errorf("cannot flat-encode term %T", term)
	}
}

func decodeTerm(d *flat.Decoder) (Term, error) {
	tag, err := d.Bits8(termTagWidth)
	if err != nil {
		return nil, err
	}
	switch tag {
	case termTagVar:
		index, err := d.Word()
		if err != nil {
			return nil, err
		}
		return &Var{Name: DeBruijn{Index: DeBruijnIndex(index)}}, nil
	case termTagDelay:
		body, err := decodeTerm(d)
		if err != nil {
			return nil, err
		}
		return &Delay{Term: body}, nil
	case termTagLambda:
		body, err := decodeTerm(d)
		if err != nil {
			return nil, err
		}
		return &Lambda{ParameterName: DeBruijn{Index: 0}, Body: body}, nil
	case termTagApply:
		fun, err := decodeTerm(d)
		if err != nil {
			return nil, err
		}
		arg, err := decodeTerm(d)
		if err != nil {
			return nil, err
		}
		return &Apply{Function: fun, Argument: arg}, nil
	case termTagConstant:
		con, err := decodeConstant(d)
		if err != nil {
			return nil, err
		}
		return &Constant{Con: con}, nil
	case termTagForce:
		body, err := decodeTerm(d)
		if err != nil {
			return nil, err
		}
		return &Force{Term: body}, nil
	case termTagError:
		return &Error{}, nil
	case termTagBuiltin:
		fun, err := d.Bits8(builtinTagWidth)
		if err != nil {
			return nil, err
		}
		if fun >= DefaultFunctionCount {
			return nil, &flat.UnknownTagError{
				Kind: "builtin", Tag: fun, Position: d.Pos(), Context: d.Context(),
			}
		}
		return &Builtin{Fun: DefaultFunction(fun)}, nil
	default:
		return nil, &flat.UnknownTagError{
			Kind: "term", Tag: tag, Position: d.Pos(), Context: d.Context(),
		}
	}
}

func encodeConstant(e *flat.Encoder, con IConstant) error {
	tags := typeTags(nil, con.Typ())
	if _, err := flat.ListWith(e, tags, func(e *flat.Encoder, tag byte) error {
		e.Bits(constTagWidth, tag)
		return nil
	}); err != nil {
		return err
	}
	return encodeConstantPayload(e, con)
}

func typeTags(tags []byte, t Typ) []byte {
	switch t := t.(type) {
	case TInteger:
		return append(tags, constTagInteger)
	case TByteString:
		return append(tags, constTagByteString)
	case TString:
		return append(tags, constTagString)
	case TUnit:
		return append(tags, constTagUnit)
	case TBool:
		return append(tags, constTagBool)
	case TList:
		tags = append(tags, constTagApply, constTagList)
		return typeTags(tags, t.Typ)
	case TPair:
		tags = append(tags, constTagApply, constTagApply, constTagPair)
		tags = typeTags(tags, t.First)
		return typeTags(tags, t.Second)
	case TData:
		return append(tags, constTagData)
	}
	return tags
}

func encodeConstantPayload(e *flat.Encoder, con IConstant) error {
	switch c := con.(type) {
	case *Integer:
		e.BigInteger(c.Inner)
		return nil
	case *ByteString:
		_, err := e.Bytes(c.Inner)
		return err
	case *String:
		_, err := e.Utf8(c.Inner)
		return err
	case *Unit:
		return nil
	case *Bool:
		e.Bool(c.Inner)
		return nil
	case *ProtoList:
		_, err := flat.ListWith(e, c.List, func(e *flat.Encoder, item IConstant) error {
			return encodeConstantPayload(e, item)
		})
		return err
	case *ProtoPair:
		if err := encodeConstantPayload(e, c.First); err != nil {
			return err
		}
		return encodeConstantPayload(e, c.Second)
	case *Data:
		_, err := e.Bytes(MarshalData(c.Inner))
		return err
	default:
		return fmt.Errorf("cannot flat-encode constant %T", con)
	}
}

func decodeConstant(d *flat.Decoder) (IConstant, error) {
	tags, err := flat.ListWith(d, func(d *flat.Decoder) (byte, error) {
		return d.Bits8(constTagWidth)
	})
	if err != nil {
		return nil, err
	}
	typ, rest, err := typeFromTags(d, tags)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, &flat.UnknownTagError{
			Kind: "constant type", Tag: rest[0], Position: d.Pos(), Context: d.Context(),
		}
	}
	return decodeConstantPayload(d, typ)
}

func typeFromTags(d *flat.Decoder, tags []byte) (Typ, []byte, error) {
	if len(tags) == 0 {
		return nil, nil, flat.ErrEndOfBuffer
	}
	head, rest := tags[0], tags[1:]
	switch head {
	case constTagInteger:
		return TInteger{}, rest, nil
	case constTagByteString:
		return TByteString{}, rest, nil
	case constTagString:
		return TString{}, rest, nil
	case constTagUnit:
		return TUnit{}, rest, nil
	case constTagBool:
		return TBool{}, rest, nil
	case constTagData:
		return TData{}, rest, nil
	case constTagApply:
		if len(rest) == 0 {
			return nil, nil, unknownTypeTag(d, rest)
		}
		switch rest[0] {
		case constTagList:
			elem, remaining, err := typeFromTags(d, rest[1:])
			if err != nil {
				return nil, nil, err
			}
			return TList{Typ: elem}, remaining, nil
		case constTagApply:
			if len(rest) < 2 || rest[1] != constTagPair {
				return nil, nil, unknownTypeTag(d, rest)
			}
			first, remaining, err := typeFromTags(d, rest[2:])
			if err != nil {
				return nil, nil, err
			}
			second, remaining, err := typeFromTags(d, remaining)
			if err != nil {
				return nil, nil, err
			}
			return TPair{First: first, Second: second}, remaining, nil
		default:
			return nil, nil, unknownTypeTag(d, rest)
		}
	default:
		return nil, nil, &flat.UnknownTagError{
			Kind: "constant type", Tag: head, Position: d.Pos(), Context: d.Context(),
		}
	}
}

func unknownTypeTag(d *flat.Decoder, rest []byte) error {
	tag := byte(0)
	if len(rest) > 0 {
		tag = rest[0]
	}
	return &flat.UnknownTagError{
		Kind: "constant type", Tag: tag, Position: d.Pos(), Context: d.Context(),
	}
}

func decodeConstantPayload(d *flat.Decoder, typ Typ) (IConstant, error) {
	switch t := typ.(type) {
	case TInteger:
		v, err := d.BigInteger()
		if err != nil {
			return nil, err
		}
		return &Integer{Inner: v}, nil
	case TByteString:
		b, err := d.Bytes()
		if err != nil {
			return nil, err
		}
		return &ByteString{Inner: b}, nil
	case TString:
		s, err := d.Utf8()
		if err != nil {
			return nil, err
		}
		return &String{Inner: s}, nil
	case TUnit:
		return &Unit{}, nil
	case TBool:
		b, err := d.Bool()
		if err != nil {
			return nil, err
		}
		return &Bool{Inner: b}, nil
	case TList:
		items, err := flat.ListWith(d, func(d *flat.Decoder) (IConstant, error) {
			return decodeConstantPayload(d, t.Typ)
		})
		if err != nil {
			return nil, err
		}
		return &ProtoList{LTyp: t.Typ, List: items}, nil
	case TPair:
		first, err := decodeConstantPayload(d, t.First)
		if err != nil {
			return nil, err
		}
		second, err := decodeConstantPayload(d, t.Second)
		if err != nil {
			return nil, err
		}
		return &ProtoPair{FstType: t.First, SndType: t.Second, First: first, Second: second}, nil
	case TData:
		b, err := d.Bytes()
		if err != nil {
			return nil, err
		}
		data, err := UnmarshalData(b)
		if err != nil {
			return nil, err
		}
		return &Data{Inner: data}, nil
	default:
		return nil, fmt.Errorf("cannot flat-decode constant type %T", typ)
	}
}
