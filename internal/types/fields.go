package types

import (
	"sort"

	"github.com/nanoofficial/nano/internal/ast"
)

// FieldMap maps constructor or function argument labels to their
// positional index, so labelled call arguments can be reordered in place.
type FieldMap struct {
	Arity      int
	Fields     map[string]fieldIndex
	IsFunction bool
}

type fieldIndex struct {
	Index    int
	Location ast.Span
}

// NewFieldMap creates an empty map for a callable of the given arity.
func NewFieldMap(arity int, isFunction bool) *FieldMap {
	return &FieldMap{
		Arity:      arity,
		Fields:     map[string]fieldIndex{},
		IsFunction: isFunction,
	}
}

// Insert registers a label at an index, rejecting duplicates.
func (f *FieldMap) Insert(label string, index int, location ast.Span) error {
	if previous, ok := f.Fields[label]; ok {
		if f.IsFunction {
			return &DuplicateArgumentError{
				Label:             label,
				Location:          location,
				DuplicateLocation: previous.Location,
			}
		}
		return &DuplicateFieldError{
			Label:             label,
			Location:          location,
			DuplicateLocation: previous.Location,
		}
	}
	f.Fields[label] = fieldIndex{Index: index, Location: location}
	return nil
}

// Labels returns every registered label, sorted.
func (f *FieldMap) Labels() []string {
	labels := make([]string, 0, len(f.Fields))
	for label := range f.Fields {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// ReorderFields mutates args in place so labelled arguments land on the
// positions their labels name. Positional arguments may not follow
// labelled ones; a duplicate label fails at once, while unknown labels are
// collected and reported together after the sweep.
func ReorderFields[T any](f *FieldMap, args []ast.CallArg[T], location ast.Span) error {
	if f == nil {
		for _, arg := range args {
			if arg.Label != "" {
				return &UnexpectedLabeledArgError{Label: arg.Label, Location: arg.Location}
			}
		}
		return nil
	}

	if len(args) != f.Arity {
		given := map[string]bool{}
		positional := 0
		for _, arg := range args {
			if arg.Label == "" {
				positional++
			} else {
				given[arg.Label] = true
			}
		}
		var missing []string
		for label, position := range f.Fields {
			if !given[label] && position.Index >= positional {
				missing = append(missing, label)
			}
		}
		sort.Strings(missing)
		return &IncorrectFieldsArityError{
			Expected: f.Arity,
			Given:    len(args),
			Labels:   missing,
			Location: location,
		}
	}

	labeledArgsGiven := false
	for _, arg := range args {
		if arg.Label != "" {
			labeledArgsGiven = true
		} else if labeledArgsGiven {
			return &PositionalArgumentAfterLabeledError{
				Location:        arg.Location,
				LabeledLocation: lastLabeledLocation(args),
			}
		}
	}

	seenLabels := map[string]ast.Span{}
	var unknownLabels []UnknownLabel

	for i := 0; i < len(args); i++ {
		label := args[i].Label
		if label == "" {
			continue
		}
		position, ok := f.Fields[label]
		if !ok {
			unknownLabels = append(unknownLabels, UnknownLabel{
				Label:    label,
				Location: args[i].Location,
			})
			continue
		}
		if position.Index != i {
			if previous, duplicated := seenLabels[label]; duplicated {
				return &DuplicateArgumentError{
					Label:             label,
					Location:          args[i].Location,
					DuplicateLocation: previous,
				}
			}
			seenLabels[label] = args[i].Location
			args[position.Index], args[i] = args[i], args[position.Index]
			// Revisit the argument swapped into this slot.
			i--
		}
	}

	if len(unknownLabels) > 0 {
		return &UnknownLabelsError{
			Unknown: unknownLabels,
			Valid:   f.Labels(),
		}
	}
	return nil
}

func lastLabeledLocation[T any](args []ast.CallArg[T]) ast.Span {
	var out ast.Span
	for _, arg := range args {
		if arg.Label != "" {
			out = arg.Location
		}
	}
	return out
}
