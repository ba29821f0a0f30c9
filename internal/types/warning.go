package types

import (
	"fmt"

	"github.com/nanoofficial/nano/internal/ast"
)

// Warning is a collected, never-raised diagnostic.
type Warning interface {
	WarningLocation() ast.Span
	Message() string
}

// UnusedImportedModuleWarning flags a module imported but never used.
type UnusedImportedModuleWarning struct {
	Name     string
	Location ast.Span
}

// UnusedImportedValueWarning flags an unqualified import never used.
type UnusedImportedValueWarning struct {
	Name     string
	Location ast.Span
}

// UnusedTypeWarning flags a private or imported type never used.
type UnusedTypeWarning struct {
	Name     string
	Imported bool
	Location ast.Span
}

// UnusedConstructorWarning flags a constructor never used.
type UnusedConstructorWarning struct {
	Name     string
	Imported bool
	Location ast.Span
}

// UnusedVariableWarning flags a local binding never used.
type UnusedVariableWarning struct {
	Name     string
	Location ast.Span
}

// UnusedPrivateFunctionWarning flags a private function never used.
type UnusedPrivateFunctionWarning struct {
	Name     string
	Location ast.Span
}

// UnusedPrivateModuleConstantWarning flags a private constant never used.
type UnusedPrivateModuleConstantWarning struct {
	Name     string
	Location ast.Span
}

// ValidatorInLibraryWarning flags a validator defined outside a validator
// module.
type ValidatorInLibraryWarning struct {
	Location ast.Span
}

// ImplicitlyDiscardedResultWarning flags a non-Void expression whose value
// is dropped inside a sequence.
type ImplicitlyDiscardedResultWarning struct {
	Location ast.Span
}

// TodoWarning flags a todo left in the code together with the type it must
// eventually produce.
type TodoWarning struct {
	Location ast.Span
	Tipo     Type
}

func (w *UnusedImportedModuleWarning) WarningLocation() ast.Span        { return w.Location }
func (w *UnusedImportedValueWarning) WarningLocation() ast.Span         { return w.Location }
func (w *UnusedTypeWarning) WarningLocation() ast.Span                  { return w.Location }
func (w *UnusedConstructorWarning) WarningLocation() ast.Span           { return w.Location }
func (w *UnusedVariableWarning) WarningLocation() ast.Span              { return w.Location }
func (w *UnusedPrivateFunctionWarning) WarningLocation() ast.Span       { return w.Location }
func (w *UnusedPrivateModuleConstantWarning) WarningLocation() ast.Span { return w.Location }
func (w *ValidatorInLibraryWarning) WarningLocation() ast.Span          { return w.Location }
func (w *ImplicitlyDiscardedResultWarning) WarningLocation() ast.Span   { return w.Location }
func (w *TodoWarning) WarningLocation() ast.Span                        { return w.Location }

func (w *UnusedImportedModuleWarning) Message() string {
	return fmt.Sprintf("unused imported module '%s'", w.Name)
}

func (w *UnusedImportedValueWarning) Message() string {
	return fmt.Sprintf("unused imported value '%s'", w.Name)
}

func (w *UnusedTypeWarning) Message() string {
	return fmt.Sprintf("unused type '%s'", w.Name)
}

func (w *UnusedConstructorWarning) Message() string {
	return fmt.Sprintf("unused constructor '%s'", w.Name)
}

func (w *UnusedVariableWarning) Message() string {
	return fmt.Sprintf("unused variable '%s'", w.Name)
}

func (w *UnusedPrivateFunctionWarning) Message() string {
	return fmt.Sprintf("unused private function '%s'", w.Name)
}

func (w *UnusedPrivateModuleConstantWarning) Message() string {
	return fmt.Sprintf("unused private constant '%s'", w.Name)
}

func (w *ValidatorInLibraryWarning) Message() string {
	return "validators are ignored outside validator modules"
}

func (w *ImplicitlyDiscardedResultWarning) Message() string {
	return "this expression produces a value that is implicitly discarded"
}

func (w *TodoWarning) Message() string {
	return fmt.Sprintf("code is not complete here; expected type: %s", NewPrinter().Print(w.Tipo))
}
