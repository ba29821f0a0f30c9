package uplc

import "fmt"

// FreeUniqueError reports a variable whose unique was never bound.
type FreeUniqueError struct {
	Name string
	Uniq Unique
}

func (e *FreeUniqueError) Error() string {
	return fmt.Sprintf("free unique %d (%s) during de bruijn conversion", e.Uniq, e.Name)
}

// FreeIndexError reports a De Bruijn index pointing past the enclosing
// lambdas.
type FreeIndexError struct {
	Index DeBruijnIndex
}

func (e *FreeIndexError) Error() string {
	return fmt.Sprintf("free index %d during de bruijn conversion", e.Index)
}

// Converter rewrites terms between the named and De Bruijn binder forms.
// Conversion preserves alpha-equivalence: indexes count enclosing lambdas
// starting at 1 for the innermost binder.
type Converter struct {
	currentLevel  int
	levels        []map[Unique]int
	binders       []Name
	currentUnique Unique
}

// NewConverter creates a Converter with one open scope.
func NewConverter() *Converter {
	return &Converter{levels: []map[Unique]int{{}}}
}

// NameToNamedDeBruijn rewrites Name binders into NamedDeBruijn binders.
func (c *Converter) NameToNamedDeBruijn(term Term) (Term, error) {
	switch t := term.(type) {
	case *Var:
		name := t.Name.(Name)
		index, err := c.index(name)
		if err != nil {
			return nil, err
		}
		return &Var{Name: NamedDeBruijn{Text: name.Text, Index: index}}, nil
	case *Lambda:
		name := t.ParameterName.(Name)
		c.declareUnique(name.Unique)
		c.startScope()
		body, err := c.NameToNamedDeBruijn(t.Body)
		c.endScope()
		if err != nil {
			return nil, err
		}
		return &Lambda{
			ParameterName: NamedDeBruijn{Text: name.Text, Index: 0},
			Body:          body,
		}, nil
	case *Apply:
		fun, err := c.NameToNamedDeBruijn(t.Function)
		if err != nil {
			return nil, err
		}
		arg, err := c.NameToNamedDeBruijn(t.Argument)
		if err != nil {
			return nil, err
		}
		return &Apply{Function: fun, Argument: arg}, nil
	case *Delay:
		inner, err := c.NameToNamedDeBruijn(t.Term)
		if err != nil {
			return nil, err
		}
		return &Delay{Term: inner}, nil
	case *Force:
		inner, err := c.NameToNamedDeBruijn(t.Term)
		if err != nil {
			return nil, err
		}
		return &Force{Term: inner}, nil
	default:
		return term, nil
	}
}

// NamedDeBruijnToName rewrites NamedDeBruijn binders back into interned
// Name binders, minting fresh uniques.
func (c *Converter) NamedDeBruijnToName(term Term) (Term, error) {
	switch t := term.(type) {
	case *Var:
		name := t.Name.(NamedDeBruijn)
		binder, err := c.binderAt(name.Index)
		if err != nil {
			return nil, err
		}
		return &Var{Name: binder}, nil
	case *Lambda:
		name := t.ParameterName.(NamedDeBruijn)
		binder := Name{Text: name.Text, Unique: c.freshUnique()}
		c.binders = append(c.binders, binder)
		body, err := c.NamedDeBruijnToName(t.Body)
		c.binders = c.binders[:len(c.binders)-1]
		if err != nil {
			return nil, err
		}
		return &Lambda{ParameterName: binder, Body: body}, nil
	case *Apply:
		fun, err := c.NamedDeBruijnToName(t.Function)
		if err != nil {
			return nil, err
		}
		arg, err := c.NamedDeBruijnToName(t.Argument)
		if err != nil {
			return nil, err
		}
		return &Apply{Function: fun, Argument: arg}, nil
	case *Delay:
		inner, err := c.NamedDeBruijnToName(t.Term)
		if err != nil {
			return nil, err
		}
		return &Delay{Term: inner}, nil
	case *Force:
		inner, err := c.NamedDeBruijnToName(t.Term)
		if err != nil {
			return nil, err
		}
		return &Force{Term: inner}, nil
	default:
		return term, nil
	}
}

// NamedDeBruijnToDeBruijn strips the text off every binder.
func NamedDeBruijnToDeBruijn(term Term) Term {
	switch t := term.(type) {
	case *Var:
		return &Var{Name: DeBruijn{Index: t.Name.(NamedDeBruijn).Index}}
	case *Lambda:
		return &Lambda{
			ParameterName: DeBruijn{Index: t.ParameterName.(NamedDeBruijn).Index},
			Body:          NamedDeBruijnToDeBruijn(t.Body),
		}
	case *Apply:
		return &Apply{
			Function: NamedDeBruijnToDeBruijn(t.Function),
			Argument: NamedDeBruijnToDeBruijn(t.Argument),
		}
	case *Delay:
		return &Delay{Term: NamedDeBruijnToDeBruijn(t.Term)}
	case *Force:
		return &Force{Term: NamedDeBruijnToDeBruijn(t.Term)}
	default:
		return term
	}
}

// DeBruijnToNamedDeBruijn attaches the placeholder text "i" to every
// binder.
func DeBruijnToNamedDeBruijn(term Term) Term {
	switch t := term.(type) {
	case *Var:
		return &Var{Name: NamedDeBruijn{Text: "i", Index: t.Name.(DeBruijn).Index}}
	case *Lambda:
		return &Lambda{
			ParameterName: NamedDeBruijn{Text: "i", Index: t.ParameterName.(DeBruijn).Index},
			Body:          DeBruijnToNamedDeBruijn(t.Body),
		}
	case *Apply:
		return &Apply{
			Function: DeBruijnToNamedDeBruijn(t.Function),
			Argument: DeBruijnToNamedDeBruijn(t.Argument),
		}
	case *Delay:
		return &Delay{Term: DeBruijnToNamedDeBruijn(t.Term)}
	case *Force:
		return &Force{Term: DeBruijnToNamedDeBruijn(t.Term)}
	default:
		return term
	}
}

// NameToDeBruijn composes the two forward conversions.
func (c *Converter) NameToDeBruijn(term Term) (Term, error) {
	named, err := c.NameToNamedDeBruijn(term)
	if err != nil {
		return nil, err
	}
	return NamedDeBruijnToDeBruijn(named), nil
}

// DeBruijnToName composes the two reverse conversions.
func (c *Converter) DeBruijnToName(term Term) (Term, error) {
	return c.NamedDeBruijnToName(DeBruijnToNamedDeBruijn(term))
}

func (c *Converter) index(name Name) (DeBruijnIndex, error) {
	for i := len(c.levels) - 1; i >= 0; i-- {
		if level, ok := c.levels[i][name.Unique]; ok {
			return DeBruijnIndex(c.currentLevel - level), nil
		}
	}
	return 0, &FreeUniqueError{Name: name.Text, Uniq: name.Unique}
}

func (c *Converter) binderAt(index DeBruijnIndex) (Name, error) {
	level := len(c.binders) - int(index)
	if level < 0 || level >= len(c.binders) {
		return Name{}, &FreeIndexError{Index: index}
	}
	return c.binders[level], nil
}

func (c *Converter) declareUnique(unique Unique) {
	c.levels[len(c.levels)-1][unique] = c.currentLevel
}

func (c *Converter) startScope() {
	c.currentLevel++
	c.levels = append(c.levels, map[Unique]int{})
}

func (c *Converter) endScope() {
	c.currentLevel--
	c.levels = c.levels[:len(c.levels)-1]
}

func (c *Converter) freshUnique() Unique {
	u := c.currentUnique
	c.currentUnique++
	return u
}
