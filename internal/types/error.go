package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/nanoofficial/nano/internal/ast"
)

// Situation hints at the syntactic context of a unification failure so
// diagnostics can speak the user's language.
type Situation int

const (
	SituationNone Situation = iota
	SituationPipeTypeMismatch
	SituationCaseClauseMismatch
	SituationReturnAnnotationMismatch
	SituationOperator
)

func (s Situation) String() string {
	switch s {
	case SituationPipeTypeMismatch:
		return "the piped value does not match what the function expects"
	case SituationCaseClauseMismatch:
		return "every clause of a when/is must produce the same type"
	case SituationReturnAnnotationMismatch:
		return "the body does not match the declared return type"
	case SituationOperator:
		return "both sides of the operator must agree"
	}
	return ""
}

// suggestionThreshold is the maximum edit distance at which an unknown
// name earns a "did you mean" hint.
const suggestionThreshold = 3

// NearestNames returns candidates within edit distance of the unknown
// name, closest first.
func NearestNames(name string, candidates []string) []string {
	type scored struct {
		name     string
		distance int
	}
	var close []scored
	for _, candidate := range candidates {
		d := levenshtein.ComputeDistance(name, candidate)
		if d <= suggestionThreshold {
			close = append(close, scored{name: candidate, distance: d})
		}
	}
	sort.Slice(close, func(i, j int) bool {
		if close[i].distance != close[j].distance {
			return close[i].distance < close[j].distance
		}
		return close[i].name < close[j].name
	})
	out := make([]string, len(close))
	for i, s := range close {
		out[i] = s.name
	}
	return out
}

func didYouMean(name string, candidates []string) string {
	nearest := NearestNames(name, candidates)
	if len(nearest) == 0 {
		return ""
	}
	return fmt.Sprintf("; did you mean '%s'?", nearest[0])
}

// Error is a typed-world diagnostic carrying a source span.
type Error interface {
	error
	ErrorLocation() ast.Span
}

// CouldNotUnifyError is the general unification failure.
type CouldNotUnifyError struct {
	Expected       Type
	Given          Type
	Situation      Situation
	Location       ast.Span
	RigidTypeNames map[uint64]string
}

func (e *CouldNotUnifyError) Error() string {
	printer := NewPrinter()
	printer.WithNames(e.RigidTypeNames)
	msg := fmt.Sprintf("could not unify: expected %s, given %s",
		printer.Print(e.Expected), printer.Print(e.Given))
	if hint := e.Situation.String(); hint != "" {
		msg += " (" + hint + ")"
	}
	return msg
}

// FlipUnify swaps expected and given, used when unification retried with
// the operands flipped.
func (e *CouldNotUnifyError) FlipUnify() *CouldNotUnifyError {
	return &CouldNotUnifyError{
		Expected:       e.Given,
		Given:          e.Expected,
		Situation:      e.Situation,
		Location:       e.Location,
		RigidTypeNames: e.RigidTypeNames,
	}
}

// RecursiveTypeError reports an occurs-check failure.
type RecursiveTypeError struct {
	Location ast.Span
}

func (e *RecursiveTypeError) Error() string {
	return "recursive type: a type variable occurs inside the type it is being bound to"
}

// NotAFunctionError reports calling a non-function.
type NotAFunctionError struct {
	Tipo     Type
	Location ast.Span
}

func (e *NotAFunctionError) Error() string {
	return fmt.Sprintf("expected a function, found %s", NewPrinter().Print(e.Tipo))
}

// IncorrectArityError reports a call with the wrong number of arguments.
type IncorrectArityError struct {
	Expected int
	Given    int
	Location ast.Span
}

func (e *IncorrectArityError) Error() string {
	return fmt.Sprintf("incorrect call arity: expected %d arguments, given %d", e.Expected, e.Given)
}

// UnknownTypeError reports an unresolved type name.
type UnknownTypeError struct {
	Name     string
	Types    []string
	Location ast.Span
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type '%s'%s", e.Name, didYouMean(e.Name, e.Types))
}

// UnknownVariableError reports an unresolved value name.
type UnknownVariableError struct {
	Name      string
	Variables []string
	Location  ast.Span
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable '%s'%s", e.Name, didYouMean(e.Name, e.Variables))
}

// UnknownModuleError reports an unresolved module name.
type UnknownModuleError struct {
	Name     string
	Modules  []string
	Location ast.Span
}

func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("unknown module '%s'%s", e.Name, didYouMean(e.Name, e.Modules))
}

// UnknownModuleValueError reports a name missing from an imported module.
type UnknownModuleValueError struct {
	Name       string
	ModuleName string
	Values     []string
	Location   ast.Span
}

func (e *UnknownModuleValueError) Error() string {
	return fmt.Sprintf("module '%s' has no value '%s'%s",
		e.ModuleName, e.Name, didYouMean(e.Name, e.Values))
}

// UnknownModuleTypeError reports a type missing from an imported module.
type UnknownModuleTypeError struct {
	Name       string
	ModuleName string
	Types      []string
	Location   ast.Span
}

func (e *UnknownModuleTypeError) Error() string {
	return fmt.Sprintf("module '%s' has no type '%s'%s",
		e.ModuleName, e.Name, didYouMean(e.Name, e.Types))
}

// DuplicateNameError reports two module values sharing a name.
type DuplicateNameError struct {
	Name             string
	Location         ast.Span
	PreviousLocation ast.Span
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate definition of '%s' (first defined at %s)", e.Name, e.PreviousLocation)
}

// DuplicateTypeNameError reports two types sharing a name.
type DuplicateTypeNameError struct {
	Name             string
	Location         ast.Span
	PreviousLocation ast.Span
}

func (e *DuplicateTypeNameError) Error() string {
	return fmt.Sprintf("duplicate type name '%s' (first defined at %s)", e.Name, e.PreviousLocation)
}

// DuplicateConstNameError reports two constants sharing a name.
type DuplicateConstNameError struct {
	Name             string
	Location         ast.Span
	PreviousLocation ast.Span
}

func (e *DuplicateConstNameError) Error() string {
	return fmt.Sprintf("duplicate constant '%s' (first defined at %s)", e.Name, e.PreviousLocation)
}

// DuplicateImportError reports importing the same name twice.
type DuplicateImportError struct {
	Name             string
	Location         ast.Span
	PreviousLocation ast.Span
}

func (e *DuplicateImportError) Error() string {
	return fmt.Sprintf("duplicate import of '%s'", e.Name)
}

// DuplicateFieldError reports a record label used twice.
type DuplicateFieldError struct {
	Label             string
	Location          ast.Span
	DuplicateLocation ast.Span
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("duplicate field '%s'", e.Label)
}

// DuplicateArgumentError reports an argument label used twice.
type DuplicateArgumentError struct {
	Label             string
	Location          ast.Span
	DuplicateLocation ast.Span
}

func (e *DuplicateArgumentError) Error() string {
	return fmt.Sprintf("duplicate argument '%s'", e.Label)
}

// CyclicTypeDefinitionsError reports type aliases that refer to each other
// in a cycle.
type CyclicTypeDefinitionsError struct {
	Types    []string
	Location ast.Span
}

func (e *CyclicTypeDefinitionsError) Error() string {
	return fmt.Sprintf("cyclic type definitions: %s", strings.Join(e.Types, ", "))
}

// IncorrectFieldsArityError reports a construction with the wrong number
// of fields; Labels lists what is missing, sorted.
type IncorrectFieldsArityError struct {
	Expected int
	Given    int
	Labels   []string
	Location ast.Span
}

func (e *IncorrectFieldsArityError) Error() string {
	msg := fmt.Sprintf("expected %d arguments, given %d", e.Expected, e.Given)
	if len(e.Labels) > 0 {
		msg += fmt.Sprintf(" (missing: %s)", strings.Join(e.Labels, ", "))
	}
	return msg
}

// PositionalArgumentAfterLabeledError rejects mixing argument styles.
type PositionalArgumentAfterLabeledError struct {
	Location        ast.Span
	LabeledLocation ast.Span
}

func (e *PositionalArgumentAfterLabeledError) Error() string {
	return "positional arguments must come before labeled ones"
}

// UnknownLabel is one unrecognised label with its span.
type UnknownLabel struct {
	Label    string
	Location ast.Span
}

// UnknownLabelsError reports every unrecognised label of a call at once.
type UnknownLabelsError struct {
	Unknown []UnknownLabel
	Valid   []string
}

func (e *UnknownLabelsError) Error() string {
	labels := make([]string, len(e.Unknown))
	for i, u := range e.Unknown {
		labels[i] = u.Label
	}
	return fmt.Sprintf("unknown labels: %s (valid: %s)",
		strings.Join(labels, ", "), strings.Join(e.Valid, ", "))
}

// UnexpectedLabeledArgError reports a label where none is allowed.
type UnexpectedLabeledArgError struct {
	Label    string
	Location ast.Span
}

func (e *UnexpectedLabeledArgError) Error() string {
	return fmt.Sprintf("unexpected labeled argument '%s'", e.Label)
}

// IncorrectPatternArityError reports a constructor pattern with the wrong
// number of arguments.
type IncorrectPatternArityError struct {
	Expected int
	Given    int
	Location ast.Span
}

func (e *IncorrectPatternArityError) Error() string {
	return fmt.Sprintf("incorrect pattern arity: expected %d, given %d", e.Expected, e.Given)
}

// IncorrectTupleArityError reports a tuple pattern of the wrong width.
type IncorrectTupleArityError struct {
	Expected int
	Given    int
	Location ast.Span
}

func (e *IncorrectTupleArityError) Error() string {
	return fmt.Sprintf("incorrect tuple arity: expected %d elements, given %d", e.Expected, e.Given)
}

// NotATupleError reports indexing or destructuring a non-tuple.
type NotATupleError struct {
	Tipo     Type
	Location ast.Span
}

func (e *NotATupleError) Error() string {
	return fmt.Sprintf("expected a tuple, found %s", NewPrinter().Print(e.Tipo))
}

// TupleIndexOutOfBoundError reports a tuple projection past the arity.
type TupleIndexOutOfBoundError struct {
	Index    int
	Size     int
	Location ast.Span
}

func (e *TupleIndexOutOfBoundError) Error() string {
	return fmt.Sprintf("tuple index %d out of bounds for a %d-tuple", e.Index, e.Size)
}

// ExtraVarInAlternativePatternError reports an alternative pattern binding
// a name the first pattern does not.
type ExtraVarInAlternativePatternError struct {
	Name     string
	Location ast.Span
}

func (e *ExtraVarInAlternativePatternError) Error() string {
	return fmt.Sprintf("the alternative pattern binds '%s', which the first pattern does not", e.Name)
}

// MissingVarInAlternativePatternError reports an alternative pattern
// missing a binding the first pattern has.
type MissingVarInAlternativePatternError struct {
	Name     string
	Location ast.Span
}

func (e *MissingVarInAlternativePatternError) Error() string {
	return fmt.Sprintf("the alternative pattern is missing '%s', which the first pattern binds", e.Name)
}

// DuplicateVarInPatternError reports a name bound twice in one pattern.
type DuplicateVarInPatternError struct {
	Name     string
	Location ast.Span
}

func (e *DuplicateVarInPatternError) Error() string {
	return fmt.Sprintf("'%s' is bound more than once in this pattern", e.Name)
}

// UnnecessarySpreadOperatorError reports a spread that cannot omit
// anything.
type UnnecessarySpreadOperatorError struct {
	Location ast.Span
	Arity    int
}

func (e *UnnecessarySpreadOperatorError) Error() string {
	return "unnecessary spread operator: every field is already matched"
}

// NotExhaustivePatternMatchError lists unmatched patterns, sorted.
type NotExhaustivePatternMatchError struct {
	Missing  []string
	Location ast.Span
}

func (e *NotExhaustivePatternMatchError) Error() string {
	return fmt.Sprintf("not exhaustive: missing patterns %s", strings.Join(e.Missing, ", "))
}

// UnknownRecordFieldError reports accessing a field the record does not
// have.
type UnknownRecordFieldError struct {
	Label    string
	Tipo     Type
	Fields   []string
	Location ast.Span
}

func (e *UnknownRecordFieldError) Error() string {
	return fmt.Sprintf("%s has no field '%s'%s",
		NewPrinter().Print(e.Tipo), e.Label, didYouMean(e.Label, e.Fields))
}

// ValidatorImportedError reports importing a validator module as a
// library.
type ValidatorImportedError struct {
	Name     string
	Location ast.Span
}

func (e *ValidatorImportedError) Error() string {
	return fmt.Sprintf("validator module '%s' cannot be imported as a library", e.Name)
}

func (e *CouldNotUnifyError) ErrorLocation() ast.Span                 { return e.Location }
func (e *RecursiveTypeError) ErrorLocation() ast.Span                 { return e.Location }
func (e *NotAFunctionError) ErrorLocation() ast.Span                  { return e.Location }
func (e *IncorrectArityError) ErrorLocation() ast.Span                { return e.Location }
func (e *UnknownTypeError) ErrorLocation() ast.Span                   { return e.Location }
func (e *UnknownVariableError) ErrorLocation() ast.Span               { return e.Location }
func (e *UnknownModuleError) ErrorLocation() ast.Span                 { return e.Location }
func (e *UnknownModuleValueError) ErrorLocation() ast.Span            { return e.Location }
func (e *UnknownModuleTypeError) ErrorLocation() ast.Span             { return e.Location }
func (e *DuplicateNameError) ErrorLocation() ast.Span                 { return e.Location }
func (e *DuplicateTypeNameError) ErrorLocation() ast.Span             { return e.Location }
func (e *DuplicateConstNameError) ErrorLocation() ast.Span            { return e.Location }
func (e *DuplicateImportError) ErrorLocation() ast.Span               { return e.Location }
func (e *DuplicateFieldError) ErrorLocation() ast.Span                { return e.Location }
func (e *DuplicateArgumentError) ErrorLocation() ast.Span             { return e.Location }
func (e *CyclicTypeDefinitionsError) ErrorLocation() ast.Span         { return e.Location }
func (e *IncorrectFieldsArityError) ErrorLocation() ast.Span          { return e.Location }
func (e *PositionalArgumentAfterLabeledError) ErrorLocation() ast.Span { return e.Location }
func (e *UnexpectedLabeledArgError) ErrorLocation() ast.Span          { return e.Location }
func (e *IncorrectPatternArityError) ErrorLocation() ast.Span         { return e.Location }
func (e *IncorrectTupleArityError) ErrorLocation() ast.Span           { return e.Location }
func (e *NotATupleError) ErrorLocation() ast.Span                     { return e.Location }
func (e *TupleIndexOutOfBoundError) ErrorLocation() ast.Span          { return e.Location }
func (e *ExtraVarInAlternativePatternError) ErrorLocation() ast.Span  { return e.Location }
func (e *MissingVarInAlternativePatternError) ErrorLocation() ast.Span { return e.Location }
func (e *DuplicateVarInPatternError) ErrorLocation() ast.Span         { return e.Location }
func (e *UnnecessarySpreadOperatorError) ErrorLocation() ast.Span     { return e.Location }
func (e *NotExhaustivePatternMatchError) ErrorLocation() ast.Span     { return e.Location }
func (e *UnknownRecordFieldError) ErrorLocation() ast.Span            { return e.Location }
func (e *ValidatorImportedError) ErrorLocation() ast.Span             { return e.Location }

// UnknownLabelsError spans are carried per label.
func (e *UnknownLabelsError) ErrorLocation() ast.Span {
	if len(e.Unknown) > 0 {
		return e.Unknown[0].Location
	}
	return ast.Span{}
}
