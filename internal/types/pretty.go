package types

import (
	"fmt"
	"strings"
)

// Printer renders types for diagnostics, naming generic variables a, b, c,
// ... in order of first appearance. Rigid variables keep the name the user
// wrote.
type Printer struct {
	names        map[uint64]string
	uidToName    map[uint64]string
	printedNames map[string]bool
}

// NewPrinter creates an empty Printer.
func NewPrinter() *Printer {
	return &Printer{
		names:        map[uint64]string{},
		uidToName:    map[uint64]string{},
		printedNames: map[string]bool{},
	}
}

// WithNames seeds the printer with rigid type-variable names keyed by id.
func (p *Printer) WithNames(names map[uint64]string) {
	for id, name := range names {
		p.names[id] = name
	}
}

// Print renders the type.
func (p *Printer) Print(t Type) string {
	var b strings.Builder
	p.write(&b, t)
	return b.String()
}

func (p *Printer) write(b *strings.Builder, t Type) {
	switch t := Follow(t).(type) {
	case *App:
		b.WriteString(t.Name)
		if len(t.Args) > 0 {
			b.WriteString("<")
			for i, arg := range t.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				p.write(b, arg)
			}
			b.WriteString(">")
		}
	case *Fn:
		b.WriteString("fn(")
		for i, arg := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			p.write(b, arg)
		}
		b.WriteString(") -> ")
		p.write(b, t.Ret)
	case *Tuple:
		b.WriteString("(")
		for i, elem := range t.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			p.write(b, elem)
		}
		b.WriteString(")")
	case *Var:
		switch v := t.Cell.State.(type) {
		case Generic:
			b.WriteString(p.genericName(v.ID))
		case Unbound:
			fmt.Fprintf(b, "%s", p.genericName(v.ID))
		default:
			b.WriteString("?")
		}
	}
}

func (p *Printer) genericName(id uint64) string {
	if name, ok := p.names[id]; ok {
		return name
	}
	if name, ok := p.uidToName[id]; ok {
		return name
	}
	n := len(p.uidToName)
	name := nextName(n)
	for p.printedNames[name] {
		n++
		name = nextName(n)
	}
	p.uidToName[id] = name
	p.printedNames[name] = true
	return name
}

// nextName maps 0, 1, 2, ... onto a, b, ..., z, aa, ab, ...
func nextName(n int) string {
	var out []byte
	for {
		out = append([]byte{byte('a' + n%26)}, out...)
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	return string(out)
}
