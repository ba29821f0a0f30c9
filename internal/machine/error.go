// Package machine implements the CEK evaluator for UPLC terms: a
// stack-of-frames machine over De Bruijn terms with shared environments,
// execution-unit budgeting, and the builtin runtime.
package machine

import (
	"fmt"

	"github.com/nanoofficial/nano/internal/uplc"
)

// EvaluationFailureError reports an explicit Error term reached during
// evaluation.
type EvaluationFailureError struct{}

func (e *EvaluationFailureError) Error() string {
	return "the validator crashed / exited prematurely"
}

// OpenTermEvaluatedError reports a variable with no binding in the
// environment.
type OpenTermEvaluatedError struct {
	Term uplc.Term
}

func (e *OpenTermEvaluatedError) Error() string {
	return fmt.Sprintf("open term evaluated: %s", uplc.PrettyTerm(e.Term))
}

// OutOfExError reports budget exhaustion in either dimension.
type OutOfExError struct {
	Budget ExBudget
}

func (e *OutOfExError) Error() string {
	return fmt.Sprintf("out of execution units: %s", e.Budget)
}

// NonFunctionApplicationError reports applying an argument to a
// non-function value.
type NonFunctionApplicationError struct {
	Value Value
}

func (e *NonFunctionApplicationError) Error() string {
	return "attempted to apply an argument to a non-function"
}

// NonPolymorphicInstantiationError reports forcing a value that is neither
// a delay nor a builtin awaiting forces.
type NonPolymorphicInstantiationError struct {
	Value Value
}

func (e *NonPolymorphicInstantiationError) Error() string {
	return "attempted to instantiate a non-polymorphic term"
}

// UnexpectedBuiltinTermArgumentError reports an argument fed to a builtin
// that still expects forces.
type UnexpectedBuiltinTermArgumentError struct {
	Fun uplc.DefaultFunction
}

func (e *UnexpectedBuiltinTermArgumentError) Error() string {
	return fmt.Sprintf("a builtin received a term argument when something else was expected: %s", e.Fun)
}

// BuiltinTermArgumentExpectedError reports a force fed to a builtin that
// expects a value argument.
type BuiltinTermArgumentExpectedError struct {
	Fun uplc.DefaultFunction
}

func (e *BuiltinTermArgumentExpectedError) Error() string {
	return fmt.Sprintf("a builtin expected a term argument, but something else was received: %s", e.Fun)
}

// NotAConstantError reports converting a non-constant value into a
// constant.
type NotAConstantError struct {
	Value Value
}

func (e *NotAConstantError) Error() string {
	return "value is not a constant"
}

// TypeMismatchError reports a builtin argument of the wrong constant type.
type TypeMismatchError struct {
	Expected uplc.Typ
	Got      uplc.Typ
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Got)
}

// ListTypeMismatchError reports a builtin argument that should have been a
// list.
type ListTypeMismatchError struct {
	Got uplc.Typ
}

func (e *ListTypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected (list a), got %s", e.Got)
}

// PairTypeMismatchError reports a builtin argument that should have been a
// pair.
type PairTypeMismatchError struct {
	Got uplc.Typ
}

func (e *PairTypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected (pair a b), got %s", e.Got)
}

// EmptyListError reports taking the head or tail of an empty list.
type EmptyListError struct{}

func (e *EmptyListError) Error() string { return "cannot operate on an empty list" }

// DivideByZeroError reports an integer division by zero.
type DivideByZeroError struct{}

func (e *DivideByZeroError) Error() string { return "integer division by zero" }

// Utf8Error reports bytes that do not decode as UTF-8.
type Utf8Error struct{}

func (e *Utf8Error) Error() string { return "invalid utf-8 byte sequence" }

// ByteStringOutOfBoundsError reports an out-of-range byte index.
type ByteStringOutOfBoundsError struct {
	Index int64
}

func (e *ByteStringOutOfBoundsError) Error() string {
	return fmt.Sprintf("bytestring index out of bounds: %d", e.Index)
}

// ByteValueOutOfRangeError reports a consByteString argument outside 0..255.
type ByteValueOutOfRangeError struct {
	Value string
}

func (e *ByteValueOutOfRangeError) Error() string {
	return fmt.Sprintf("byte value out of range: %s", e.Value)
}

// DataDeconstructionError reports deconstructing the wrong data variant.
type DataDeconstructionError struct {
	Fun uplc.DefaultFunction
}

func (e *DataDeconstructionError) Error() string {
	return fmt.Sprintf("%s applied to the wrong data constructor", e.Fun)
}
