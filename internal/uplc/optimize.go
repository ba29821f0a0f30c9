package uplc

// OptimizeAndIntern runs the fixed peephole pipeline over a named program:
// builtin-force reduction, two rounds of beta/inline reduction, force-delay
// cancellation, data wrap/unwrap collapsing, and a final beta/inline round.
// Every pass preserves machine semantics on error-free inputs.
func OptimizeAndIntern(program *Program) *Program {
	program = program.BuiltinForceReduce()

	NewInterner().Program(program)

	return program.
		LambdaReduce().
		InlineReduce().
		LambdaReduce().
		InlineReduce().
		ForceDelayReduce().
		WrapDataReduce().
		LambdaReduce().
		InlineReduce()
}

// BuiltinForceReduce trims force towers over builtins down to the number of
// forces the builtin actually consumes.
func (p *Program) BuiltinForceReduce() *Program {
	return &Program{Version: p.Version, Term: builtinForceReduce(p.Term)}
}

func builtinForceReduce(term Term) Term {
	if f, ok := term.(*Force); ok {
		forces := 0
		inner := term
		for {
			next, ok := inner.(*Force)
			if !ok {
				break
			}
			forces++
			inner = next.Term
		}
		if b, ok := inner.(*Builtin); ok {
			needed := b.Fun.ForceCount()
			if forces > needed {
				forces = needed
			}
			var out Term = b
			for i := 0; i < forces; i++ {
				out = &Force{Term: out}
			}
			return out
		}
		return &Force{Term: builtinForceReduce(f.Term)}
	}
	return mapSubterms(term, builtinForceReduce)
}

// LambdaReduce beta-reduces lambdas applied immediately to arguments that
// are safe to move (variables, constants, builtins, delays and lambdas),
// when the parameter occurs at most once in the body.
func (p *Program) LambdaReduce() *Program {
	return &Program{Version: p.Version, Term: lambdaReduce(p.Term)}
}

func lambdaReduce(term Term) Term {
	if app, ok := term.(*Apply); ok {
		fun := lambdaReduce(app.Function)
		arg := lambdaReduce(app.Argument)
		if lam, ok := fun.(*Lambda); ok {
			param, isName := lam.ParameterName.(Name)
			if isName && substitutable(arg) && occurrences(lam.Body, param.Unique) <= 1 {
				return substitute(lam.Body, param.Unique, arg)
			}
		}
		return &Apply{Function: fun, Argument: arg}
	}
	return mapSubterms(term, lambdaReduce)
}

// InlineReduce inlines let-style bindings whose bound value is a variable,
// reusing the outer binder directly.
func (p *Program) InlineReduce() *Program {
	return &Program{Version: p.Version, Term: inlineReduce(p.Term)}
}

func inlineReduce(term Term) Term {
	if app, ok := term.(*Apply); ok {
		fun := inlineReduce(app.Function)
		arg := inlineReduce(app.Argument)
		if lam, ok := fun.(*Lambda); ok {
			if v, ok := arg.(*Var); ok {
				if param, isName := lam.ParameterName.(Name); isName {
					if _, isName := v.Name.(Name); isName {
						return substitute(lam.Body, param.Unique, v)
					}
				}
			}
		}
		return &Apply{Function: fun, Argument: arg}
	}
	return mapSubterms(term, inlineReduce)
}

// ForceDelayReduce cancels force-of-delay pairs.
func (p *Program) ForceDelayReduce() *Program {
	return &Program{Version: p.Version, Term: forceDelayReduce(p.Term)}
}

func forceDelayReduce(term Term) Term {
	if f, ok := term.(*Force); ok {
		inner := forceDelayReduce(f.Term)
		if d, ok := inner.(*Delay); ok {
			return d.Term
		}
		return &Force{Term: inner}
	}
	return mapSubterms(term, forceDelayReduce)
}

// WrapDataReduce collapses immediate data wrap/unwrap round-trips,
// e.g. unIData (iData x).
func (p *Program) WrapDataReduce() *Program {
	return &Program{Version: p.Version, Term: wrapDataReduce(p.Term)}
}

var dataWrapInverses = map[DefaultFunction]DefaultFunction{
	UnIData:    IData,
	UnBData:    BData,
	IData:      UnIData,
	BData:      UnBData,
	UnListData: ListData,
	UnMapData:  MapData,
}

func wrapDataReduce(term Term) Term {
	if app, ok := term.(*Apply); ok {
		fun := wrapDataReduce(app.Function)
		arg := wrapDataReduce(app.Argument)
		if outer, ok := fun.(*Builtin); ok {
			if innerApp, ok := arg.(*Apply); ok {
				if inner, ok := innerApp.Function.(*Builtin); ok {
					if inverse, found := dataWrapInverses[outer.Fun]; found && inverse == inner.Fun {
						return innerApp.Argument
					}
				}
			}
		}
		return &Apply{Function: fun, Argument: arg}
	}
	return mapSubterms(term, wrapDataReduce)
}

// mapSubterms rebuilds the term with fn applied to each direct child.
func mapSubterms(term Term, fn func(Term) Term) Term {
	switch t := term.(type) {
	case *Delay:
		return &Delay{Term: fn(t.Term)}
	case *Lambda:
		return &Lambda{ParameterName: t.ParameterName, Body: fn(t.Body)}
	case *Apply:
		return &Apply{Function: fn(t.Function), Argument: fn(t.Argument)}
	case *Force:
		return &Force{Term: fn(t.Term)}
	default:
		return term
	}
}

// substitutable reports whether a term can be moved into a binder's use
// site without duplicating work or reordering effects.
func substitutable(term Term) bool {
	switch term.(type) {
	case *Var, *Constant, *Builtin, *Lambda, *Delay:
		return true
	default:
		return false
	}
}

func occurrences(term Term, unique Unique) int {
	switch t := term.(type) {
	case *Var:
		if name, ok := t.Name.(Name); ok && name.Unique == unique {
			return 1
		}
		return 0
	case *Lambda:
		if name, ok := t.ParameterName.(Name); ok && name.Unique == unique {
			return 0
		}
		return occurrences(t.Body, unique)
	case *Apply:
		return occurrences(t.Function, unique) + occurrences(t.Argument, unique)
	case *Delay:
		return occurrences(t.Term, unique)
	case *Force:
		return occurrences(t.Term, unique)
	default:
		return 0
	}
}

func substitute(term Term, unique Unique, replacement Term) Term {
	switch t := term.(type) {
	case *Var:
		if name, ok := t.Name.(Name); ok && name.Unique == unique {
			return replacement
		}
		return t
	case *Lambda:
		if name, ok := t.ParameterName.(Name); ok && name.Unique == unique {
			return t
		}
		return &Lambda{ParameterName: t.ParameterName, Body: substitute(t.Body, unique, replacement)}
	case *Apply:
		return &Apply{
			Function: substitute(t.Function, unique, replacement),
			Argument: substitute(t.Argument, unique, replacement),
		}
	case *Delay:
		return &Delay{Term: substitute(t.Term, unique, replacement)}
	case *Force:
		return &Force{Term: substitute(t.Term, unique, replacement)}
	default:
		return term
	}
}
