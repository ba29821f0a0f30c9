package uplc

// Interner assigns uniques by binder text, so that two Names spelled the
// same way become the same binder.
type Interner struct {
	identifiers map[string]Unique
	current     Unique
}

// NewInterner creates an empty Interner.
func NewInterner() *Interner {
	return &Interner{identifiers: map[string]Unique{}}
}

// Program interns every binder of the program's term in place.
func (i *Interner) Program(program *Program) {
	program.Term = i.Term(program.Term)
}

// Term returns the term with every Name binder interned.
func (i *Interner) Term(term Term) Term {
	switch t := term.(type) {
	case *Var:
		name := t.Name.(Name)
		return &Var{Name: Name{Text: name.Text, Unique: i.intern(name.Text)}}
	case *Delay:
		return &Delay{Term: i.Term(t.Term)}
	case *Lambda:
		name := t.ParameterName.(Name)
		return &Lambda{
			ParameterName: Name{Text: name.Text, Unique: i.intern(name.Text)},
			Body:          i.Term(t.Body),
		}
	case *Apply:
		return &Apply{Function: i.Term(t.Function), Argument: i.Term(t.Argument)}
	case *Force:
		return &Force{Term: i.Term(t.Term)}
	default:
		return term
	}
}

func (i *Interner) intern(text string) Unique {
	if u, ok := i.identifiers[text]; ok {
		return u
	}
	u := i.current
	i.identifiers[text] = u
	i.current++
	return u
}
