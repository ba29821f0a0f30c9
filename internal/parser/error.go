// Package parser turns Nano token streams into untyped modules.
package parser

import (
	"fmt"

	"github.com/nanoofficial/nano/internal/ast"
)

// ParseError is one syntax diagnostic with its source span.
type ParseError struct {
	Message  string
	Location ast.Span
	Hint     string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s at %s (%s)", e.Message, e.Location, e.Hint)
	}
	return fmt.Sprintf("%s at %s", e.Message, e.Location)
}

// MergeErrors collapses diagnostics that converged on the same span,
// keeping the first message and folding the rest into hints.
func MergeErrors(errors []*ParseError) []*ParseError {
	var out []*ParseError
	seen := map[ast.Span]*ParseError{}
	for _, err := range errors {
		if existing, ok := seen[err.Location]; ok {
			if existing.Hint == "" && err.Message != existing.Message {
				existing.Hint = err.Message
			}
			continue
		}
		seen[err.Location] = err
		out = append(out, err)
	}
	return out
}
