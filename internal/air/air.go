package air

import (
	"github.com/nanoofficial/nano/internal/ast"
	"github.com/nanoofficial/nano/internal/types"
	"github.com/nanoofficial/nano/internal/uplc"
)

// Instruction is one element of the linear Air stream. Every instruction
// carries the scope of its defining lexical point; merging a child stream
// rewrites these scopes under the parent's.
type Instruction interface {
	GetScope() Scope
	SetScope(Scope)
}

type base struct {
	Scope Scope
}

func (b *base) GetScope() Scope      { return b.Scope }
func (b *base) SetScope(scope Scope) { b.Scope = scope }

// Int pushes an integer constant.
type Int struct {
	base
	Value string
}

// String pushes a text constant.
type String struct {
	base
	Value string
}

// ByteArray pushes a bytestring constant.
type ByteArray struct {
	base
	Bytes []byte
}

// Bool pushes a boolean constant.
type Bool struct {
	base
	Value bool
}

// Void pushes the unit constant.
type Void struct {
	base
}

// Var resolves a name through its value constructor.
type Var struct {
	base
	Constructor *types.ValueConstructor
	Name        string
	VariantName string
}

// Fn abstracts the next term over the parameters.
type Fn struct {
	base
	Params []string
}

// Call applies a function term to Count argument terms.
type Call struct {
	base
	Count int
	Tipo  types.Type
}

// Builtin applies a UPLC builtin to Count argument terms.
type Builtin struct {
	base
	Count int
	Func  uplc.DefaultFunction
	Tipo  types.Type
}

// BinOp applies a source binary operator.
type BinOp struct {
	base
	Name ast.BinOp
	Tipo types.Type
}

// UnOp applies a source unary operator.
type UnOp struct {
	base
	Op ast.UnOp
}

// Let binds the next term under a name in the term after it.
type Let struct {
	base
	Name string
}

// When scrutinises a subject under a name.
type When struct {
	base
	Tipo        types.Type
	SubjectName string
}

// Clause tests one constructor alternative of a when subject.
type Clause struct {
	base
	Tipo          types.Type
	SubjectName   string
	ComplexClause bool
}

// ListClause tests the empty/non-empty split of a list subject.
type ListClause struct {
	base
	Tipo          types.Type
	TailName      string
	NextTailName  string
	ComplexClause bool
}

// WrapClause wraps a clause body so later clauses can fall through.
type WrapClause struct {
	base
}

// TupleClause destructures a tuple subject into names.
type TupleClause struct {
	base
	Tipo          types.Type
	Names         []string
	ComplexClause bool
}

// ClauseGuard guards a clause on a comparison with the subject.
type ClauseGuard struct {
	base
	SubjectName string
	Tipo        types.Type
}

// ListClauseGuard guards a list clause on emptiness.
type ListClauseGuard struct {
	base
	Tipo         types.Type
	TailName     string
	NextTailName string
	Inverse      bool
}

// Finally is the catch-all clause closing a when.
type Finally struct {
	base
}

// If branches on a condition term.
type If struct {
	base
	Tipo types.Type
}

// List builds a list from Count element terms and an optional tail.
type List struct {
	base
	Count int
	Tipo  types.Type
	Tail  bool
}

// ListAccessor destructures the head elements of a list into names.
type ListAccessor struct {
	base
	Tipo      types.Type
	Names     []string
	Tail      bool
	CheckLast bool
}

// ListExpose binds tail/head pairs of an already-destructured list.
type ListExpose struct {
	base
	Tipo          types.Type
	TailHeadNames [][2]string
	Tail          [2]string
	HasTail       bool
}

// Tuple builds a tuple from Count element terms.
type Tuple struct {
	base
	Tipo  types.Type
	Count int
}

// TupleAccessor destructures a tuple into names.
type TupleAccessor struct {
	base
	Tipo  types.Type
	Names []string
}

// TupleIndex projects one element of a tuple term.
type TupleIndex struct {
	base
	Tipo       types.Type
	TupleIndex int
}

// Record builds a constr-data record with a numeric tag.
type Record struct {
	base
	Tag   int
	Tipo  types.Type
	Count int
}

// RecordAccess projects one field of a record term.
type RecordAccess struct {
	base
	RecordIndex int
	Tipo        types.Type
}

// FieldsExpose binds selected fields of a record term.
type FieldsExpose struct {
	base
	IndicesToDefine []FieldIndex
	CheckLast       bool
}

// FieldIndex names one exposed record field.
type FieldIndex struct {
	Index int
	Name  string
	Tipo  types.Type
}

// RecordUpdate rebuilds a record term with some fields replaced.
type RecordUpdate struct {
	base
	HighestIndex int
	Indices      []FieldIndex
	Tipo         types.Type
}

// WrapData boxes the next term into Data.
type WrapData struct {
	base
	Tipo types.Type
}

// UnWrapData unboxes the next term from Data.
type UnWrapData struct {
	base
	Tipo types.Type
}

// AssertConstr fails unless the subject has the given constructor index.
type AssertConstr struct {
	base
	ConstrIndex int
}

// AssertBool fails unless the subject matches the expected boolean.
type AssertBool struct {
	base
	IsTrue bool
}

// DefineFunc binds a (possibly recursive) function for the next term.
type DefineFunc struct {
	base
	FuncName    string
	ModuleName  string
	Params      []string
	Recursive   bool
	VariantName string
}

// Trace logs a message term before the next term.
type Trace struct {
	base
	Tipo types.Type
}

// ErrorTerm terminates the program.
type ErrorTerm struct {
	base
	Tipo types.Type
}

// NoOp passes the next term through unchanged.
type NoOp struct {
	base
}
