package types

import (
	"github.com/nanoofficial/nano/internal/ast"
)

// Hydrator builds types from source annotations. Type variables written by
// the user are rigid for the rest of the declaration: the hydrator
// remembers them by name and records their ids for diagnostics.
type Hydrator struct {
	createdTypeVariables   map[string]Type
	rigidTypeNames         map[uint64]string
	permitNewTypeVariables bool
}

// NewHydrator creates a hydrator that may mint new type variables.
func NewHydrator() *Hydrator {
	return &Hydrator{
		createdTypeVariables:   map[string]Type{},
		rigidTypeNames:         map[uint64]string{},
		permitNewTypeVariables: true,
	}
}

// DisallowNewTypeVariables stops the hydrator from minting variables;
// unknown names then error.
func (h *Hydrator) DisallowNewTypeVariables() {
	h.permitNewTypeVariables = false
}

// IsRigid reports whether the generic id came from a user-written
// annotation in the current declaration.
func (h *Hydrator) IsRigid(id uint64) bool {
	_, ok := h.rigidTypeNames[id]
	return ok
}

// RigidNames returns the id-to-name map for diagnostics.
func (h *Hydrator) RigidNames() map[uint64]string {
	return h.rigidTypeNames
}

// TypeFromAnnotation hydrates an annotation into a type, resolving
// constructor names through the environment.
func (h *Hydrator) TypeFromAnnotation(annotation ast.Annotation, env *Environment) (Type, error) {
	switch annotation := annotation.(type) {
	case *ast.AnnConstructor:
		tc, err := env.GetTypeConstructor(annotation.Module, annotation.Name, annotation.Location)
		if err != nil {
			return nil, err
		}
		if len(annotation.Arguments) != len(tc.Parameters) {
			return nil, &IncorrectArityError{
				Expected: len(tc.Parameters),
				Given:    len(annotation.Arguments),
				Location: annotation.Location,
			}
		}

		// Instantiate the constructor's parameters freshly, then unify
		// them with the hydrated arguments.
		ids := map[uint64]Type{}
		tipo := env.Instantiate(tc.Tipo, ids, nil)
		parameters := make([]Type, len(tc.Parameters))
		for i, param := range tc.Parameters {
			parameters[i] = env.Instantiate(param, ids, nil)
		}
		for i, argAnnotation := range annotation.Arguments {
			arg, err := h.TypeFromAnnotation(argAnnotation, env)
			if err != nil {
				return nil, err
			}
			if err := env.Unify(parameters[i], arg, argAnnotation.AnnotationLocation(), false); err != nil {
				return nil, err
			}
		}
		return tipo, nil

	case *ast.AnnFn:
		args := make([]Type, len(annotation.Arguments))
		for i, argAnnotation := range annotation.Arguments {
			arg, err := h.TypeFromAnnotation(argAnnotation, env)
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		ret, err := h.TypeFromAnnotation(annotation.Ret, env)
		if err != nil {
			return nil, err
		}
		return FunctionType(args, ret), nil

	case *ast.AnnVar:
		if existing, ok := h.createdTypeVariables[annotation.Name]; ok {
			return existing, nil
		}
		if !h.permitNewTypeVariables {
			return nil, &UnknownTypeError{
				Name:     annotation.Name,
				Types:    env.moduleTypeNames(),
				Location: annotation.Location,
			}
		}
		id := env.IDGen.Next()
		tipo := NewGeneric(id)
		h.createdTypeVariables[annotation.Name] = tipo
		h.rigidTypeNames[id] = annotation.Name
		return tipo, nil

	case *ast.AnnHole:
		return env.NewUnboundVar(), nil

	case *ast.AnnTuple:
		elems := make([]Type, len(annotation.Elems))
		for i, elemAnnotation := range annotation.Elems {
			elem, err := h.TypeFromAnnotation(elemAnnotation, env)
			if err != nil {
				return nil, err
			}
			elems[i] = elem
		}
		return &Tuple{Elems: elems}, nil
	}
	return env.NewUnboundVar(), nil
}

// TypeFromOptionAnnotation hydrates the annotation if present, otherwise
// mints a fresh unbound variable.
func (h *Hydrator) TypeFromOptionAnnotation(annotation ast.Annotation, env *Environment) (Type, error) {
	if annotation == nil {
		return env.NewUnboundVar(), nil
	}
	return h.TypeFromAnnotation(annotation, env)
}
