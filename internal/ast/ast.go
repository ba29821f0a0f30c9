// Package ast defines the untyped source AST for Nano modules.
//
// Every node carries a Span locating it in the source text. The typed
// counterparts produced by inference live in internal/types.
package ast

import (
	"fmt"
	"strings"
)

// PipeVariable is the reserved binder that holds the left-hand value while a
// pipeline is desugared. It never appears in user diagnostics.
const PipeVariable = "_pipe"

// Span is a half-open byte range into the source text.
type Span struct {
	Start int
	End   int
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Union widens the span to cover both s and other.
func (s Span) Union(other Span) Span {
	out := s
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

// Contains reports whether the byte offset falls inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// ModuleKind distinguishes libraries from validator scripts.
type ModuleKind int

const (
	ModuleKindLib ModuleKind = iota
	ModuleKindValidator
)

// IsValidator reports whether the module may define validators.
func (k ModuleKind) IsValidator() bool { return k == ModuleKindValidator }

func (k ModuleKind) String() string {
	if k == ModuleKindValidator {
		return "validator"
	}
	return "library"
}

// Module is one parsed source file.
type Module struct {
	Name        string
	Docs        []string
	Kind        ModuleKind
	Definitions []Definition
}

// Dependencies lists the modules imported by this module.
func (m *Module) Dependencies() []string {
	var deps []string
	for _, def := range m.Definitions {
		if use, ok := def.(*Use); ok {
			deps = append(deps, strings.Join(use.Module, "/"))
		}
	}
	return deps
}

// Definition is a top-level item of a module.
type Definition interface {
	DefinitionLocation() Span
	definitionNode()
}

// Use imports another module, optionally exposing unqualified names.
type Use struct {
	As          string
	Location    Span
	Module      []string
	Unqualified []UnqualifiedImport
}

// UnqualifiedImport exposes a single imported name, optionally renamed.
type UnqualifiedImport struct {
	Location Span
	Name     string
	As       string
}

// Label returns the name the import binds in the importing module.
func (u UnqualifiedImport) Label() string {
	if u.As != "" {
		return u.As
	}
	return u.Name
}

// TypeAlias names an existing type.
type TypeAlias struct {
	Alias      string
	Annotation Annotation
	Doc        string
	Location   Span
	Parameters []string
	Public     bool
}

// DataType declares a (possibly opaque) sum type.
type DataType struct {
	Constructors []*RecordConstructor
	Doc          string
	Location     Span
	Name         string
	Opaque       bool
	Parameters   []string
	Public       bool
}

// RecordConstructor is one variant of a data type.
type RecordConstructor struct {
	Location  Span
	Name      string
	Arguments []*RecordConstructorArg
	Doc       string
	Sugar     bool
}

// RecordConstructorArg is a constructor field, labelled or positional.
type RecordConstructorArg struct {
	Label      string
	Annotation Annotation
	Location   Span
	Doc        string
}

// Function is a named function definition.
type Function struct {
	Arguments        []*Arg
	Body             Expr
	Doc              string
	Location         Span
	Name             string
	Public           bool
	ReturnAnnotation Annotation
	EndPosition      int
}

// Test is a zero-argument function executed by the test runner.
type Test struct {
	*Function
}

// Validator wraps the handler function of an on-chain script together with
// the surrounding parameters.
type Validator struct {
	Doc      string
	EndPos   int
	Fun      *Function
	Location Span
	Params   []*Arg
}

// ModuleConstant is a module-level constant definition.
type ModuleConstant struct {
	Doc        string
	Location   Span
	Public     bool
	Name       string
	Annotation Annotation
	Value      Constant
}

func (u *Use) DefinitionLocation() Span            { return u.Location }
func (t *TypeAlias) DefinitionLocation() Span      { return t.Location }
func (d *DataType) DefinitionLocation() Span       { return d.Location }
func (f *Function) DefinitionLocation() Span       { return f.Location }
func (t *Test) DefinitionLocation() Span           { return t.Location }
func (v *Validator) DefinitionLocation() Span      { return v.Location }
func (c *ModuleConstant) DefinitionLocation() Span { return c.Location }

func (u *Use) definitionNode()            {}
func (t *TypeAlias) definitionNode()      {}
func (d *DataType) definitionNode()       {}
func (f *Function) definitionNode()       {}
func (t *Test) definitionNode()           {}
func (v *Validator) definitionNode()      {}
func (c *ModuleConstant) definitionNode() {}

// Constant is the restricted literal grammar allowed in `const` definitions.
type Constant interface {
	ConstantLocation() Span
	constantNode()
}

// ConstInt is an integer constant.
type ConstInt struct {
	Location Span
	Value    string
}

// ConstString is a string constant.
type ConstString struct {
	Location Span
	Value    string
}

// ConstByteArray is a bytearray constant.
type ConstByteArray struct {
	Location Span
	Bytes    []byte
}

func (c *ConstInt) ConstantLocation() Span       { return c.Location }
func (c *ConstString) ConstantLocation() Span    { return c.Location }
func (c *ConstByteArray) ConstantLocation() Span { return c.Location }

func (c *ConstInt) constantNode()       {}
func (c *ConstString) constantNode()    {}
func (c *ConstByteArray) constantNode() {}

// ArgName names a function parameter: either a usable name or a discard.
type ArgName struct {
	Name     string
	Label    string
	Location Span
	Discard  bool
}

// UsableName returns the name the body may reference, or "" for discards.
func (a ArgName) UsableName() string {
	if a.Discard {
		return ""
	}
	return a.Name
}

// Arg is a function parameter with an optional annotation.
type Arg struct {
	Name       ArgName
	Location   Span
	Annotation Annotation
}

// CallArg is a call-site argument, optionally labelled.
type CallArg[T any] struct {
	Label    string
	Location Span
	Value    T
}

// BinOp enumerates the binary operators of the source language.
type BinOp int

const (
	BinOpAnd BinOp = iota
	BinOpOr
	BinOpEq
	BinOpNotEq
	BinOpLtInt
	BinOpLtEqInt
	BinOpGtInt
	BinOpGtEqInt
	BinOpAddInt
	BinOpSubInt
	BinOpMultInt
	BinOpDivInt
	BinOpModInt
)

var binOpNames = map[BinOp]string{
	BinOpAnd:     "&&",
	BinOpOr:      "||",
	BinOpEq:      "==",
	BinOpNotEq:   "!=",
	BinOpLtInt:   "<",
	BinOpLtEqInt: "<=",
	BinOpGtInt:   ">",
	BinOpGtEqInt: ">=",
	BinOpAddInt:  "+",
	BinOpSubInt:  "-",
	BinOpMultInt: "*",
	BinOpDivInt:  "/",
	BinOpModInt:  "%",
}

func (op BinOp) String() string { return binOpNames[op] }

// Precedence returns the parser binding power of the operator; higher binds
// tighter.
func (op BinOp) Precedence() int {
	switch op {
	case BinOpOr:
		return 1
	case BinOpAnd:
		return 2
	case BinOpEq, BinOpNotEq:
		return 4
	case BinOpLtInt, BinOpLtEqInt, BinOpGtInt, BinOpGtEqInt:
		return 4
	case BinOpAddInt, BinOpSubInt:
		return 6
	case BinOpMultInt, BinOpDivInt, BinOpModInt:
		return 7
	}
	return 0
}

// UnOp enumerates the unary operators.
type UnOp int

const (
	UnOpNot UnOp = iota
	UnOpNegate
)

func (op UnOp) String() string {
	if op == UnOpNot {
		return "!"
	}
	return "-"
}

// AssignmentKind distinguishes irrefutable lets from runtime-checked expects.
type AssignmentKind int

const (
	AssignmentLet AssignmentKind = iota
	AssignmentExpect
)

func (k AssignmentKind) String() string {
	if k == AssignmentExpect {
		return "expect"
	}
	return "let"
}

// TraceKind distinguishes plain traces from todo and error traces.
type TraceKind int

const (
	TraceKindTrace TraceKind = iota
	TraceKindTodo
	TraceKindError
)
