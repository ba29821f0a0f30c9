package types

import (
	"github.com/nanoofficial/nano/internal/ast"
)

type patternMode int

const (
	patternModeInitial patternMode = iota
	patternModeAlternative
)

// PatternTyper types patterns against a subject type, inserting bindings
// into the environment as it goes. The first pattern of a clause runs in
// Initial mode; `|` alternatives run in Alternative mode and must bind
// exactly the same names.
type PatternTyper struct {
	environment        *Environment
	hydrator           *Hydrator
	mode               patternMode
	initialPatternVars map[string]bool
	seenVars           map[string]bool
}

// NewPatternTyper creates a typer in Initial mode.
func NewPatternTyper(env *Environment, hydrator *Hydrator) *PatternTyper {
	return &PatternTyper{
		environment:        env,
		hydrator:           hydrator,
		initialPatternVars: map[string]bool{},
		seenVars:           map[string]bool{},
	}
}

// InferAlternativePatterns types the initial pattern and each `|`
// alternative against the subject, checking that every alternative binds
// the same variables as the first.
func (t *PatternTyper) InferAlternativePatterns(patterns []ast.Pattern, subject Type) ([]TypedPattern, error) {
	out := make([]TypedPattern, len(patterns))

	typed, err := t.UnifyPattern(patterns[0], subject)
	if err != nil {
		return nil, err
	}
	out[0] = typed

	for i, alternative := range patterns[1:] {
		t.mode = patternModeAlternative
		t.seenVars = map[string]bool{}
		typed, err := t.UnifyPattern(alternative, subject)
		if err != nil {
			return nil, err
		}
		for name := range t.initialPatternVars {
			if !t.seenVars[name] {
				return nil, &MissingVarInAlternativePatternError{
					Name:     name,
					Location: alternative.PatternLocation(),
				}
			}
		}
		out[i+1] = typed
	}

	return out, nil
}

// UnifyPattern types one pattern against the subject type.
func (t *PatternTyper) UnifyPattern(pattern ast.Pattern, subject Type) (TypedPattern, error) {
	switch pattern := pattern.(type) {
	case *ast.PatternInt:
		if err := t.environment.Unify(IntType(), subject, pattern.Location, false); err != nil {
			return nil, err
		}
		return &TPInt{Location: pattern.Location, Value: pattern.Value}, nil

	case *ast.PatternVar:
		if err := t.insertVariable(pattern.Name, subject, pattern.Location); err != nil {
			return nil, err
		}
		return &TPVar{Location: pattern.Location, Name: pattern.Name, Tipo: subject}, nil

	case *ast.PatternDiscard:
		return &TPDiscard{Location: pattern.Location, Name: pattern.Name, Tipo: subject}, nil

	case *ast.PatternAssign:
		if err := t.insertVariable(pattern.Name, subject, pattern.Location); err != nil {
			return nil, err
		}
		inner, err := t.UnifyPattern(pattern.Pattern, subject)
		if err != nil {
			return nil, err
		}
		return &TPAssign{Location: pattern.Location, Name: pattern.Name, Pattern: inner}, nil

	case *ast.PatternList:
		elemType := t.environment.NewUnboundVar()
		if err := t.environment.Unify(ListType(elemType), subject, pattern.Location, false); err != nil {
			return nil, err
		}
		elements := make([]TypedPattern, len(pattern.Elements))
		for i, element := range pattern.Elements {
			typed, err := t.UnifyPattern(element, elemType)
			if err != nil {
				return nil, err
			}
			elements[i] = typed
		}
		var tail TypedPattern
		if pattern.Tail != nil {
			typed, err := t.UnifyPattern(pattern.Tail, ListType(elemType))
			if err != nil {
				return nil, err
			}
			tail = typed
		}
		return &TPList{
			Location: pattern.Location,
			Tipo:     ListType(elemType),
			Elements: elements,
			Tail:     tail,
		}, nil

	case *ast.PatternTuple:
		tupleType, ok := Follow(subject).(*Tuple)
		if !ok {
			if IsUnbound(subject) {
				elems := make([]Type, len(pattern.Elems))
				for i := range elems {
					elems[i] = t.environment.NewUnboundVar()
				}
				fresh := &Tuple{Elems: elems}
				if err := t.environment.Unify(fresh, subject, pattern.Location, false); err != nil {
					return nil, err
				}
				tupleType = fresh
			} else {
				return nil, &NotATupleError{Tipo: subject, Location: pattern.Location}
			}
		}
		if len(tupleType.Elems) != len(pattern.Elems) {
			return nil, &IncorrectTupleArityError{
				Expected: len(tupleType.Elems),
				Given:    len(pattern.Elems),
				Location: pattern.Location,
			}
		}
		elems := make([]TypedPattern, len(pattern.Elems))
		for i, elem := range pattern.Elems {
			typed, err := t.UnifyPattern(elem, tupleType.Elems[i])
			if err != nil {
				return nil, err
			}
			elems[i] = typed
		}
		return &TPTuple{Location: pattern.Location, Tipo: tupleType, Elems: elems}, nil

	case *ast.PatternConstructor:
		return t.inferConstructorPattern(pattern, subject)
	}
	return nil, &UnknownVariableError{Location: pattern.PatternLocation()}
}

func (t *PatternTyper) insertVariable(name string, tipo Type, location ast.Span) error {
	switch t.mode {
	case patternModeInitial:
		if t.initialPatternVars[name] {
			return &DuplicateVarInPatternError{Name: name, Location: location}
		}
		t.initialPatternVars[name] = true
		t.environment.InsertVariable(name, VariantLocalVariable{Location: location}, tipo)
		t.environment.InitUsage(name, EntityVariable, location)
		return nil
	default:
		if !t.initialPatternVars[name] {
			return &ExtraVarInAlternativePatternError{Name: name, Location: location}
		}
		if t.seenVars[name] {
			return &DuplicateVarInPatternError{Name: name, Location: location}
		}
		t.seenVars[name] = true
		// The alternative's binding must agree with the initial one.
		if existing, ok := t.environment.Scope[name]; ok {
			return t.environment.Unify(existing.Tipo, tipo, location, false)
		}
		return nil
	}
}

func (t *PatternTyper) inferConstructorPattern(pattern *ast.PatternConstructor, subject Type) (TypedPattern, error) {
	constructor, err := t.environment.GetValueConstructor(pattern.Module, pattern.Name, pattern.Location)
	if err != nil {
		return nil, err
	}

	record, ok := constructor.Variant.(VariantRecord)
	if !ok {
		return nil, &UnknownVariableError{
			Name:      pattern.Name,
			Variables: t.environment.LocalValueNames(),
			Location:  pattern.Location,
		}
	}

	arguments := pattern.Arguments

	if pattern.WithSpread {
		if len(arguments) == record.Arity {
			return nil, &UnnecessarySpreadOperatorError{
				Location: pattern.SpreadLoc,
				Arity:    record.Arity,
			}
		}
		// The spread fills omitted trailing fields with discards.
		for len(arguments) < record.Arity {
			arguments = append(arguments, ast.CallArg[ast.Pattern]{
				Location: pattern.SpreadLoc,
				Value:    &ast.PatternDiscard{Location: pattern.SpreadLoc, Name: "_"},
			})
		}
	} else if len(arguments) != record.Arity {
		return nil, &IncorrectPatternArityError{
			Expected: record.Arity,
			Given:    len(arguments),
			Location: pattern.Location,
		}
	}

	if record.FieldMap != nil {
		if err := ReorderFields(record.FieldMap, arguments, pattern.Location); err != nil {
			return nil, err
		}
	} else {
		for _, argument := range arguments {
			if argument.Label != "" {
				return nil, &UnexpectedLabeledArgError{
					Label:    argument.Label,
					Location: argument.Location,
				}
			}
		}
	}

	instantiated := t.environment.Instantiate(constructor.Tipo, map[uint64]Type{}, t.hydrator)

	var argTypes []Type
	resultType := instantiated
	if fn, isFn := Follow(instantiated).(*Fn); isFn {
		argTypes = fn.Args
		resultType = fn.Ret
	}
	if err := t.environment.Unify(resultType, subject, pattern.Location, false); err != nil {
		return nil, err
	}

	typedArguments := make([]ast.CallArg[TypedPattern], len(arguments))
	for i, argument := range arguments {
		var argType Type = t.environment.NewUnboundVar()
		if i < len(argTypes) {
			argType = argTypes[i]
		}
		typed, err := t.UnifyPattern(argument.Value, argType)
		if err != nil {
			return nil, err
		}
		typedArguments[i] = ast.CallArg[TypedPattern]{
			Label:    argument.Label,
			Location: argument.Location,
			Value:    typed,
		}
	}

	return &TPConstructor{
		Location: pattern.Location,
		Name:     pattern.Name,
		Module:   pattern.Module,
		Constructor: &PatternConstructor{
			Name:    pattern.Name,
			Variant: constructor.Variant,
			Tipo:    instantiated,
		},
		Arguments:  typedArguments,
		Tipo:       resultType,
		WithSpread: pattern.WithSpread,
		IsRecord:   pattern.IsRecord,
	}, nil
}
