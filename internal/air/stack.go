package air

import (
	"github.com/nanoofficial/nano/internal/ast"
	"github.com/nanoofficial/nano/internal/idgen"
	"github.com/nanoofficial/nano/internal/types"
	"github.com/nanoofficial/nano/internal/uplc"
)

// Stack accumulates Air instructions for one lexical region. Every
// constructor method opens a fresh scope id, emits one opcode carrying it,
// then merges its child stacks underneath, yielding a post-order linear
// encoding of the expression tree.
type Stack struct {
	IDGen *idgen.Generator
	Scope Scope
	Air   []Instruction
}

// NewStack creates an empty root stack.
func NewStack(idGen *idgen.Generator) *Stack {
	return &Stack{IDGen: idGen}
}

// WithScope creates an empty stack rooted at the given scope.
func WithScope(idGen *idgen.Generator, scope Scope) *Stack {
	return &Stack{IDGen: idGen, Scope: scope}
}

// EmptyWithScope creates a child stack sharing this stack's scope.
func (s *Stack) EmptyWithScope() *Stack {
	return WithScope(s.IDGen, s.Scope.Clone())
}

func (s *Stack) newScope() {
	s.Scope = s.Scope.Push(s.IDGen.Next())
}

// Merge appends the other stack's instructions without rewriting scopes.
func (s *Stack) Merge(other *Stack) {
	s.Air = append(s.Air, other.Air...)
}

// MergeChild re-parents every instruction of the child under this stack's
// scope, then appends. The child's instructions end up with this scope as
// a prefix of their own.
func (s *Stack) MergeChild(child *Stack) {
	for _, instruction := range child.Air {
		instruction.SetScope(instruction.GetScope().Replace(s.Scope))
	}
	s.Merge(child)
}

// MergeChildren folds MergeChild over the stacks in order.
func (s *Stack) MergeChildren(children ...*Stack) {
	for _, child := range children {
		s.MergeChild(child)
	}
}

// Sequence appends the stacks without re-parenting.
func (s *Stack) Sequence(stacks ...*Stack) {
	for _, stack := range stacks {
		s.Merge(stack)
	}
}

// Complete returns the accumulated instruction stream.
func (s *Stack) Complete() []Instruction {
	return s.Air
}

func (s *Stack) push(instruction Instruction) {
	instruction.SetScope(s.Scope.Clone())
	s.Air = append(s.Air, instruction)
}

// Integer emits an integer constant.
func (s *Stack) Integer(value string) {
	s.newScope()
	s.push(&Int{Value: value})
}

// String emits a text constant.
func (s *Stack) String(value string) {
	s.newScope()
	s.push(&String{Value: value})
}

// ByteArray emits a bytestring constant.
func (s *Stack) ByteArray(bytes []byte) {
	s.newScope()
	s.push(&ByteArray{Bytes: bytes})
}

// Bool emits a boolean constant.
func (s *Stack) Bool(value bool) {
	s.newScope()
	s.push(&Bool{Value: value})
}

// Void emits the unit constant.
func (s *Stack) Void() {
	s.newScope()
	s.push(&Void{})
}

// Var emits a variable reference.
func (s *Stack) Var(constructor *types.ValueConstructor, name, variantName string) {
	s.newScope()
	s.push(&Var{Constructor: constructor, Name: name, VariantName: variantName})
}

// LocalVar emits a reference to a locally bound name.
func (s *Stack) LocalVar(tipo types.Type, name string) {
	s.newScope()
	s.push(&Var{
		Constructor: types.LocalVariable(tipo, ast.Span{}),
		Name:        name,
	})
}

// AnonymousFunction emits a lambda over the body stack.
func (s *Stack) AnonymousFunction(params []string, body *Stack) {
	s.newScope()
	s.push(&Fn{Params: params})
	s.MergeChild(body)
}

// Call emits an application of fun to args.
func (s *Stack) Call(tipo types.Type, fun *Stack, args ...*Stack) {
	s.newScope()
	s.push(&Call{Count: len(args), Tipo: tipo})
	s.MergeChild(fun)
	s.MergeChildren(args...)
}

// Builtin emits a builtin application.
func (s *Stack) Builtin(fun uplc.DefaultFunction, tipo types.Type, args ...*Stack) {
	s.newScope()
	s.push(&Builtin{Count: len(args), Func: fun, Tipo: tipo})
	s.MergeChildren(args...)
}

// BinOp emits a binary operation over two child stacks.
func (s *Stack) BinOp(name ast.BinOp, tipo types.Type, left, right *Stack) {
	s.newScope()
	s.push(&BinOp{Name: name, Tipo: tipo})
	s.MergeChild(left)
	s.MergeChild(right)
}

// UnOp emits a unary operation over a child stack.
func (s *Stack) UnOp(op ast.UnOp, value *Stack) {
	s.newScope()
	s.push(&UnOp{Op: op})
	s.MergeChild(value)
}

// LetAssignment binds value under name for the instructions that follow.
func (s *Stack) LetAssignment(name string, value *Stack) {
	s.newScope()
	s.push(&Let{Name: name})
	s.MergeChild(value)
}

// When emits a subject scrutinee followed by its clause stacks.
func (s *Stack) When(tipo types.Type, subjectName string, subject *Stack, clauses *Stack) {
	s.newScope()
	s.push(&When{Tipo: tipo, SubjectName: subjectName})
	s.MergeChild(subject)
	s.MergeChild(clauses)
}

// Clause emits one constructor clause.
func (s *Stack) Clause(tipo types.Type, subjectName string, complex bool, body *Stack) {
	s.newScope()
	s.push(&Clause{Tipo: tipo, SubjectName: subjectName, ComplexClause: complex})
	s.MergeChild(body)
}

// ListClause emits one list clause.
func (s *Stack) ListClause(tipo types.Type, tailName, nextTailName string, complex bool, body *Stack) {
	s.newScope()
	s.push(&ListClause{
		Tipo:          tipo,
		TailName:      tailName,
		NextTailName:  nextTailName,
		ComplexClause: complex,
	})
	s.MergeChild(body)
}

// WrapClause wraps a clause body for fall-through.
func (s *Stack) WrapClause(body *Stack) {
	s.newScope()
	s.push(&WrapClause{})
	s.MergeChild(body)
}

// TupleClause destructures a tuple subject.
func (s *Stack) TupleClause(tipo types.Type, names []string, complex bool, body *Stack) {
	s.newScope()
	s.push(&TupleClause{Tipo: tipo, Names: names, ComplexClause: complex})
	s.MergeChild(body)
}

// ClauseGuard emits a guard comparison against the subject.
func (s *Stack) ClauseGuard(subjectName string, tipo types.Type, condition *Stack, body *Stack) {
	s.newScope()
	s.push(&ClauseGuard{SubjectName: subjectName, Tipo: tipo})
	s.MergeChild(condition)
	s.MergeChild(body)
}

// ListClauseGuard guards a list clause on emptiness.
func (s *Stack) ListClauseGuard(tipo types.Type, tailName, nextTailName string, inverse bool, body *Stack) {
	s.newScope()
	s.push(&ListClauseGuard{
		Tipo:         tipo,
		TailName:     tailName,
		NextTailName: nextTailName,
		Inverse:      inverse,
	})
	s.MergeChild(body)
}

// Finally emits the catch-all clause body.
func (s *Stack) Finally(value *Stack) {
	s.newScope()
	s.push(&Finally{})
	s.MergeChild(value)
}

// IfBranch emits a conditional branch followed by its body.
func (s *Stack) IfBranch(tipo types.Type, condition, branchBody *Stack) {
	s.newScope()
	s.push(&If{Tipo: tipo})
	s.MergeChild(condition)
	s.MergeChild(branchBody)
}

// List emits a list from element stacks and an optional tail.
func (s *Stack) List(tipo types.Type, elements []*Stack, tail *Stack) {
	s.newScope()
	s.push(&List{Count: len(elements), Tipo: tipo, Tail: tail != nil})
	s.MergeChildren(elements...)
	if tail != nil {
		s.MergeChild(tail)
	}
}

// ListAccessor destructures list heads into names over the body.
func (s *Stack) ListAccessor(tipo types.Type, names []string, tail, checkLast bool, value *Stack) {
	s.newScope()
	s.push(&ListAccessor{Tipo: tipo, Names: names, Tail: tail, CheckLast: checkLast})
	s.MergeChild(value)
}

// ListExpose binds tail/head pairs of a matched list.
func (s *Stack) ListExpose(tipo types.Type, tailHeadNames [][2]string, tail [2]string, hasTail bool) {
	s.newScope()
	s.push(&ListExpose{
		Tipo:          tipo,
		TailHeadNames: tailHeadNames,
		Tail:          tail,
		HasTail:       hasTail,
	})
}

// Tuple emits a tuple from element stacks.
func (s *Stack) Tuple(tipo types.Type, elems ...*Stack) {
	s.newScope()
	s.push(&Tuple{Tipo: tipo, Count: len(elems)})
	s.MergeChildren(elems...)
}

// TupleAccessor destructures a tuple into names over the body.
func (s *Stack) TupleAccessor(tipo types.Type, names []string, value *Stack) {
	s.newScope()
	s.push(&TupleAccessor{Tipo: tipo, Names: names})
	s.MergeChild(value)
}

// TupleIndex projects one tuple element.
func (s *Stack) TupleIndex(tipo types.Type, index int, tuple *Stack) {
	s.newScope()
	s.push(&TupleIndex{Tipo: tipo, TupleIndex: index})
	s.MergeChild(tuple)
}

// Record builds a tagged record from field stacks.
func (s *Stack) Record(tipo types.Type, tag int, fields ...*Stack) {
	s.newScope()
	s.push(&Record{Tag: tag, Tipo: tipo, Count: len(fields)})
	s.MergeChildren(fields...)
}

// RecordAccess projects one record field.
func (s *Stack) RecordAccess(tipo types.Type, recordIndex int, record *Stack) {
	s.newScope()
	s.push(&RecordAccess{RecordIndex: recordIndex, Tipo: tipo})
	s.MergeChild(record)
}

// FieldsExpose binds selected record fields over the body.
func (s *Stack) FieldsExpose(indices []FieldIndex, checkLast bool, value *Stack) {
	s.newScope()
	s.push(&FieldsExpose{IndicesToDefine: indices, CheckLast: checkLast})
	s.MergeChild(value)
}

// RecordUpdate rebuilds a record with replaced fields.
func (s *Stack) RecordUpdate(tipo types.Type, highestIndex int, indices []FieldIndex, record *Stack, args ...*Stack) {
	s.newScope()
	s.push(&RecordUpdate{HighestIndex: highestIndex, Indices: indices, Tipo: tipo})
	s.MergeChild(record)
	s.MergeChildren(args...)
}

// WrapData boxes the child into Data.
func (s *Stack) WrapData(tipo types.Type, value *Stack) {
	s.newScope()
	s.push(&WrapData{Tipo: tipo})
	s.MergeChild(value)
}

// UnWrapData unboxes the child from Data.
func (s *Stack) UnWrapData(tipo types.Type, value *Stack) {
	s.newScope()
	s.push(&UnWrapData{Tipo: tipo})
	s.MergeChild(value)
}

// AssertConstr fails the program unless the subject carries the
// constructor index.
func (s *Stack) AssertConstr(constrIndex int, value *Stack) {
	s.newScope()
	s.push(&AssertConstr{ConstrIndex: constrIndex})
	s.MergeChild(value)
}

// AssertBool fails the program unless the subject matches.
func (s *Stack) AssertBool(isTrue bool, value *Stack) {
	s.newScope()
	s.push(&AssertBool{IsTrue: isTrue})
	s.MergeChild(value)
}

// DefineFunc binds a function definition over the rest of the stream.
func (s *Stack) DefineFunc(funcName, moduleName, variantName string, params []string, recursive bool, body *Stack) {
	s.newScope()
	s.push(&DefineFunc{
		FuncName:    funcName,
		ModuleName:  moduleName,
		Params:      params,
		Recursive:   recursive,
		VariantName: variantName,
	})
	s.MergeChild(body)
}

// Trace logs the text stack before the continuation.
func (s *Stack) Trace(tipo types.Type, text, then *Stack) {
	s.newScope()
	s.push(&Trace{Tipo: tipo})
	s.MergeChild(text)
	s.MergeChild(then)
}

// ErrorTerm terminates the program.
func (s *Stack) ErrorTerm(tipo types.Type) {
	s.newScope()
	s.push(&ErrorTerm{Tipo: tipo})
}

// NoOp passes the next term through.
func (s *Stack) NoOp(value *Stack) {
	s.newScope()
	s.push(&NoOp{})
	s.MergeChild(value)
}
