package types

import (
	"sort"

	"github.com/nanoofficial/nano/internal/ast"
)

// CheckWhenExhaustiveness verifies that the clauses of a when expression
// cover every inhabitant of the subject type. For data types each clause
// removes the constructors it names; wildcard and variable clauses cover
// everything. For lists, a match is exhaustive iff some clause covers []
// and some clause covers [_, ..].
func CheckWhenExhaustiveness(env *Environment, subject Type, clauses []*TypedClause, location ast.Span) error {
	// A guarded clause may fail at runtime, so it covers nothing.
	var patterns []TypedPattern
	for _, clause := range clauses {
		if clause.Guard != nil {
			continue
		}
		patterns = append(patterns, clause.Patterns...)
	}

	if IsList(subject) {
		return checkListExhaustiveness(patterns, location)
	}

	app, ok := Follow(subject).(*App)
	if !ok {
		// Tuples and variables have no constructor alternatives to miss;
		// a wildcard or variable clause is required for everything else.
		if hasCatchAll(patterns) {
			return nil
		}
		return &NotExhaustivePatternMatchError{Missing: []string{"_"}, Location: location}
	}

	constructors := lookupConstructors(env, app)
	if constructors == nil {
		// Ints and other primitives have unbounded inhabitants.
		if hasCatchAll(patterns) {
			return nil
		}
		return &NotExhaustivePatternMatchError{Missing: []string{"_"}, Location: location}
	}

	remaining := map[string]bool{}
	for _, name := range constructors {
		remaining[name] = true
	}

	for _, pattern := range patterns {
		switch pattern := stripAssign(pattern).(type) {
		case *TPVar, *TPDiscard:
			return nil
		case *TPConstructor:
			delete(remaining, pattern.Name)
		}
	}

	if len(remaining) == 0 {
		return nil
	}
	missing := make([]string, 0, len(remaining))
	for name := range remaining {
		missing = append(missing, name)
	}
	sort.Strings(missing)
	return &NotExhaustivePatternMatchError{Missing: missing, Location: location}
}

func checkListExhaustiveness(patterns []TypedPattern, location ast.Span) error {
	coversEmpty := false
	coversNonEmpty := false

	for _, pattern := range patterns {
		switch pattern := stripAssign(pattern).(type) {
		case *TPVar, *TPDiscard:
			return nil
		case *TPList:
			if len(pattern.Elements) == 0 && pattern.Tail == nil {
				coversEmpty = true
			}
			if len(pattern.Elements) > 0 && pattern.Tail != nil && elementsAllCatchAll(pattern) {
				coversNonEmpty = true
			}
		}
	}

	var missing []string
	if !coversEmpty {
		missing = append(missing, "[]")
	}
	if !coversNonEmpty {
		missing = append(missing, "[_, ..]")
	}
	if len(missing) == 0 {
		return nil
	}
	return &NotExhaustivePatternMatchError{Missing: missing, Location: location}
}

func elementsAllCatchAll(pattern *TPList) bool {
	if len(pattern.Elements) != 1 {
		return false
	}
	switch stripAssign(pattern.Elements[0]).(type) {
	case *TPVar, *TPDiscard:
	default:
		return false
	}
	switch stripAssign(pattern.Tail).(type) {
	case *TPVar, *TPDiscard:
		return true
	}
	return false
}

func hasCatchAll(patterns []TypedPattern) bool {
	for _, pattern := range patterns {
		switch stripAssign(pattern).(type) {
		case *TPVar, *TPDiscard:
			return true
		}
	}
	return false
}

func stripAssign(pattern TypedPattern) TypedPattern {
	for {
		assign, ok := pattern.(*TPAssign)
		if !ok {
			return pattern
		}
		pattern = assign.Pattern
	}
}

func lookupConstructors(env *Environment, app *App) []string {
	if app.Module == "" || app.Module == env.CurrentModule {
		return env.ModuleTypesConstructors[app.Name]
	}
	for _, imported := range env.ImportedModules {
		if imported.info.Name == app.Module {
			return imported.info.TypesConstructors[app.Name]
		}
	}
	return nil
}
