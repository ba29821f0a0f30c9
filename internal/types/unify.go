package types

import (
	"github.com/nanoofficial/nano/internal/ast"
)

// Unify makes t1 and t2 equal, linking unbound variables as needed.
// Expected comes first: errors report t1 as what the context wanted.
// With allowCast set, Data unifies with any non-function concrete type
// (implicit boxing onto the wire representation).
func (e *Environment) Unify(t1, t2 Type, location ast.Span, allowCast bool) error {
	t1 = Follow(t1)
	t2 = Follow(t2)

	if typeEqual(t1, t2) {
		return nil
	}

	if allowCast &&
		(IsData(t1) || IsData(t2)) &&
		!(IsData(t1) && IsData(t2)) &&
		!IsUnbound(t1) && !IsUnbound(t2) &&
		!IsFunction(t1) && !IsFunction(t2) &&
		!IsGeneric(t1) && !IsGeneric(t2) &&
		!IsString(t1) && !IsString(t2) {
		return nil
	}

	if v1, ok := t1.(*Var); ok {
		switch state := v1.Cell.State.(type) {
		case Unbound:
			if err := e.unifyUnboundType(t2, state.ID, location); err != nil {
				return err
			}
			if typeEqual(t1, Follow(t2)) {
				return nil
			}
			v1.Cell.State = Link{To: t2}
			return nil
		case Generic:
			// A generic only unifies with an unbound variable, which
			// then mirrors the generic id.
			if v2, ok := t2.(*Var); ok {
				if _, unbound := v2.Cell.State.(Unbound); unbound {
					v2.Cell.State = Generic{ID: state.ID}
					return nil
				}
			}
			return &CouldNotUnifyError{Expected: t1, Given: t2, Location: location}
		}
	}

	if _, ok := t2.(*Var); ok {
		// Flip so the variable ends up on the left, flipping the error
		// back on the way out.
		err := e.Unify(t2, t1, location, allowCast)
		if unifyErr, ok := err.(*CouldNotUnifyError); ok {
			return unifyErr.FlipUnify()
		}
		return err
	}

	switch t1 := t1.(type) {
	case *App:
		app2, ok := t2.(*App)
		if !ok || t1.Module != app2.Module || t1.Name != app2.Name || len(t1.Args) != len(app2.Args) {
			return &CouldNotUnifyError{Expected: t1, Given: t2, Location: location}
		}
		for i := range t1.Args {
			if err := e.Unify(t1.Args[i], app2.Args[i], location, false); err != nil {
				return err
			}
		}
		return nil
	case *Tuple:
		tuple2, ok := t2.(*Tuple)
		if !ok || len(t1.Elems) != len(tuple2.Elems) {
			return &CouldNotUnifyError{Expected: t1, Given: t2, Location: location}
		}
		for i := range t1.Elems {
			if err := e.Unify(t1.Elems[i], tuple2.Elems[i], location, false); err != nil {
				return err
			}
		}
		return nil
	case *Fn:
		fn2, ok := t2.(*Fn)
		if !ok || len(t1.Args) != len(fn2.Args) {
			return &CouldNotUnifyError{Expected: t1, Given: t2, Location: location}
		}
		for i := range t1.Args {
			if err := e.Unify(t1.Args[i], fn2.Args[i], location, false); err != nil {
				return &CouldNotUnifyError{Expected: t1, Given: t2, Location: location}
			}
		}
		if err := e.Unify(t1.Ret, fn2.Ret, location, false); err != nil {
			return &CouldNotUnifyError{Expected: t1, Given: t2, Location: location}
		}
		return nil
	default:
		return &CouldNotUnifyError{Expected: t1, Given: t2, Location: location}
	}
}

// unifyUnboundType runs the occurs check: the unbound variable id may not
// appear inside the type it is about to be linked to.
func (e *Environment) unifyUnboundType(t Type, ownID uint64, location ast.Span) error {
	switch t := Follow(t).(type) {
	case *App:
		for _, arg := range t.Args {
			if err := e.unifyUnboundType(arg, ownID, location); err != nil {
				return err
			}
		}
	case *Fn:
		for _, arg := range t.Args {
			if err := e.unifyUnboundType(arg, ownID, location); err != nil {
				return err
			}
		}
		return e.unifyUnboundType(t.Ret, ownID, location)
	case *Tuple:
		for _, elem := range t.Elems {
			if err := e.unifyUnboundType(elem, ownID, location); err != nil {
				return err
			}
		}
	case *Var:
		if unbound, ok := t.Cell.State.(Unbound); ok && unbound.ID == ownID {
			return &RecursiveTypeError{Location: location}
		}
	}
	return nil
}

// typeEqual is shallow structural equality after link following; cells
// compare by identity.
func typeEqual(t1, t2 Type) bool {
	t1 = Follow(t1)
	t2 = Follow(t2)
	switch t1 := t1.(type) {
	case *Var:
		v2, ok := t2.(*Var)
		if !ok {
			return false
		}
		if t1.Cell == v2.Cell {
			return true
		}
		u1, ok1 := t1.Cell.State.(Unbound)
		u2, ok2 := v2.Cell.State.(Unbound)
		if ok1 && ok2 {
			return u1.ID == u2.ID
		}
		g1, ok1 := t1.Cell.State.(Generic)
		g2, ok2 := v2.Cell.State.(Generic)
		return ok1 && ok2 && g1.ID == g2.ID
	case *App:
		app2, ok := t2.(*App)
		if !ok || t1.Module != app2.Module || t1.Name != app2.Name || len(t1.Args) != len(app2.Args) {
			return false
		}
		for i := range t1.Args {
			if !typeEqual(t1.Args[i], app2.Args[i]) {
				return false
			}
		}
		return true
	case *Fn:
		fn2, ok := t2.(*Fn)
		if !ok || len(t1.Args) != len(fn2.Args) {
			return false
		}
		for i := range t1.Args {
			if !typeEqual(t1.Args[i], fn2.Args[i]) {
				return false
			}
		}
		return typeEqual(t1.Ret, fn2.Ret)
	case *Tuple:
		tuple2, ok := t2.(*Tuple)
		if !ok || len(t1.Elems) != len(tuple2.Elems) {
			return false
		}
		for i := range t1.Elems {
			if !typeEqual(t1.Elems[i], tuple2.Elems[i]) {
				return false
			}
		}
		return true
	}
	return false
}
