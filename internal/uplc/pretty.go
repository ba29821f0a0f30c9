package uplc

import (
	"fmt"
	"strings"
)

// Pretty renders the program in the conventional s-expression notation,
// e.g. (program 1.0.0 (lam x x)).
func (p *Program) Pretty() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(program %d.%d.%d ", p.Version[0], p.Version[1], p.Version[2])
	writeTerm(&b, p.Term)
	b.WriteString(")")
	return b.String()
}

// PrettyTerm renders a single term.
func PrettyTerm(term Term) string {
	var b strings.Builder
	writeTerm(&b, term)
	return b.String()
}

func writeTerm(b *strings.Builder, term Term) {
	switch t := term.(type) {
	case *Var:
		b.WriteString(binderText(t.Name))
	case *Delay:
		b.WriteString("(delay ")
		writeTerm(b, t.Term)
		b.WriteString(")")
	case *Lambda:
		fmt.Fprintf(b, "(lam %s ", binderText(t.ParameterName))
		writeTerm(b, t.Body)
		b.WriteString(")")
	case *Apply:
		b.WriteString("[")
		writeTerm(b, t.Function)
		b.WriteString(" ")
		writeTerm(b, t.Argument)
		b.WriteString("]")
	case *Constant:
		b.WriteString("(con ")
		b.WriteString(t.Con.Typ().String())
		b.WriteString(" ")
		writeConstant(b, t.Con)
		b.WriteString(")")
	case *Force:
		b.WriteString("(force ")
		writeTerm(b, t.Term)
		b.WriteString(")")
	case *Error:
		b.WriteString("(error)")
	case *Builtin:
		fmt.Fprintf(b, "(builtin %s)", t.Fun)
	}
}

func binderText(binder Binder) string {
	switch n := binder.(type) {
	case Name:
		return n.Text
	case NamedDeBruijn:
		return n.Text
	case DeBruijn:
		return fmt.Sprintf("i_%d", n.Index)
	}
	return "?"
}

func writeConstant(b *strings.Builder, con IConstant) {
	switch c := con.(type) {
	case *Integer:
		b.WriteString(c.Inner.String())
	case *ByteString:
		fmt.Fprintf(b, "#%x", c.Inner)
	case *String:
		fmt.Fprintf(b, "%q", c.Inner)
	case *Unit:
		b.WriteString("()")
	case *Bool:
		if c.Inner {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case *ProtoList:
		b.WriteString("[")
		for i, item := range c.List {
			if i > 0 {
				b.WriteString(", ")
			}
			writeConstant(b, item)
		}
		b.WriteString("]")
	case *ProtoPair:
		b.WriteString("(")
		writeConstant(b, c.First)
		b.WriteString(", ")
		writeConstant(b, c.Second)
		b.WriteString(")")
	case *Data:
		fmt.Fprintf(b, "#%x", MarshalData(c.Inner))
	}
}
