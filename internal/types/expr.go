package types

import (
	"github.com/nanoofficial/nano/internal/ast"
)

// TypedExpr is an expression annotated with its inferred type.
type TypedExpr interface {
	TypeOf() Type
	TypedLocation() ast.Span
}

// TInt is a typed integer literal.
type TInt struct {
	Location ast.Span
	Value    string
}

// TString is a typed string literal.
type TString struct {
	Location ast.Span
	Value    string
}

// TByteArray is a typed bytearray literal.
type TByteArray struct {
	Location ast.Span
	Bytes    []byte
}

// TVar is a resolved reference together with its value constructor.
type TVar struct {
	Location    ast.Span
	Constructor *ValueConstructor
	Name        string
}

// TFn is a typed anonymous function.
type TFn struct {
	Location  ast.Span
	Tipo      Type
	IsCapture bool
	Args      []*TypedArg
	Body      TypedExpr
}

// TList is a typed list literal.
type TList struct {
	Location ast.Span
	Tipo     Type
	Elements []TypedExpr
	Tail     TypedExpr
}

// TCall is a typed application with reordered arguments.
type TCall struct {
	Location ast.Span
	Tipo     Type
	Fun      TypedExpr
	Args     []ast.CallArg[TypedExpr]
}

// TBinOp is a typed binary operation.
type TBinOp struct {
	Location ast.Span
	Name     ast.BinOp
	Tipo     Type
	Left     TypedExpr
	Right    TypedExpr
}

// TUnOp is a typed unary operation.
type TUnOp struct {
	Location ast.Span
	Op       ast.UnOp
	Tipo     Type
	Value    TypedExpr
}

// TAssignment is a typed let or expect binding.
type TAssignment struct {
	Location ast.Span
	Tipo     Type
	Kind     ast.AssignmentKind
	Value    TypedExpr
	Pattern  TypedPattern
}

// TTrace is a typed trace, todo, or error expression.
type TTrace struct {
	Location ast.Span
	Tipo     Type
	Kind     ast.TraceKind
	Then     TypedExpr
	Text     TypedExpr
}

// TErrorTerm is a typed diverging expression.
type TErrorTerm struct {
	Location ast.Span
	Tipo     Type
}

// TWhen is a typed pattern match.
type TWhen struct {
	Location ast.Span
	Tipo     Type
	Subject  TypedExpr
	Clauses  []*TypedClause
}

// TypedClause is one typed branch of a when expression.
type TypedClause struct {
	Location ast.Span
	Patterns []TypedPattern
	Guard    TypedExpr
	Then     TypedExpr
}

// TIf is a typed conditional chain.
type TIf struct {
	Location  ast.Span
	Tipo      Type
	Branches  []*TypedIfBranch
	FinalElse TypedExpr
}

// TypedIfBranch is one typed if arm.
type TypedIfBranch struct {
	Location  ast.Span
	Condition TypedExpr
	Body      TypedExpr
}

// TRecordAccess projects a record field through its accessor index.
type TRecordAccess struct {
	Location ast.Span
	Tipo     Type
	Label    string
	Index    int
	Record   TypedExpr
}

// TModuleSelect is a qualified access to another module's value.
type TModuleSelect struct {
	Location    ast.Span
	Tipo        Type
	Label       string
	ModuleName  string
	ModuleAlias string
	Constructor *ValueConstructor
}

// TTuple is a typed tuple literal.
type TTuple struct {
	Location ast.Span
	Tipo     Type
	Elems    []TypedExpr
}

// TTupleIndex is a typed tuple projection.
type TTupleIndex struct {
	Location ast.Span
	Tipo     Type
	Index    int
	Tuple    TypedExpr
}

// TRecordUpdate rebuilds a record with some fields replaced.
type TRecordUpdate struct {
	Location ast.Span
	Tipo     Type
	Spread   TypedExpr
	Args     []*TypedRecordUpdateArg
}

// TypedRecordUpdateArg is one replaced field of a record update.
type TypedRecordUpdateArg struct {
	Label    string
	Location ast.Span
	Value    TypedExpr
	Index    int
}

// TSequence evaluates expressions in order, yielding the last.
type TSequence struct {
	Location    ast.Span
	Expressions []TypedExpr
}

// TPipeline is a typed `|>` chain: the first expression feeds the pipe
// variable, each later stage reads it and rebinds it with its own result.
type TPipeline struct {
	Location    ast.Span
	Expressions []TypedExpr
}

func (e *TInt) TypeOf() Type       { return IntType() }
func (e *TString) TypeOf() Type    { return StringType() }
func (e *TByteArray) TypeOf() Type { return ByteArrayType() }
func (e *TVar) TypeOf() Type       { return e.Constructor.Tipo }
func (e *TFn) TypeOf() Type        { return e.Tipo }
func (e *TList) TypeOf() Type      { return e.Tipo }
func (e *TCall) TypeOf() Type      { return e.Tipo }
func (e *TBinOp) TypeOf() Type     { return e.Tipo }
func (e *TUnOp) TypeOf() Type      { return e.Tipo }
func (e *TAssignment) TypeOf() Type { return e.Tipo }
func (e *TTrace) TypeOf() Type     { return e.Tipo }
func (e *TErrorTerm) TypeOf() Type { return e.Tipo }
func (e *TWhen) TypeOf() Type      { return e.Tipo }
func (e *TIf) TypeOf() Type        { return e.Tipo }
func (e *TRecordAccess) TypeOf() Type { return e.Tipo }
func (e *TModuleSelect) TypeOf() Type { return e.Tipo }
func (e *TTuple) TypeOf() Type     { return e.Tipo }
func (e *TTupleIndex) TypeOf() Type { return e.Tipo }
func (e *TRecordUpdate) TypeOf() Type { return e.Tipo }

// TypeOf a sequence is the type of its final expression.
func (e *TSequence) TypeOf() Type {
	if len(e.Expressions) == 0 {
		return VoidType()
	}
	return e.Expressions[len(e.Expressions)-1].TypeOf()
}

// TypeOf a pipeline is the type of its final stage.
func (e *TPipeline) TypeOf() Type {
	return e.Expressions[len(e.Expressions)-1].TypeOf()
}

func (e *TPipeline) TypedLocation() ast.Span { return e.Location }

func (e *TInt) TypedLocation() ast.Span          { return e.Location }
func (e *TString) TypedLocation() ast.Span       { return e.Location }
func (e *TByteArray) TypedLocation() ast.Span    { return e.Location }
func (e *TVar) TypedLocation() ast.Span          { return e.Location }
func (e *TFn) TypedLocation() ast.Span           { return e.Location }
func (e *TList) TypedLocation() ast.Span         { return e.Location }
func (e *TCall) TypedLocation() ast.Span         { return e.Location }
func (e *TBinOp) TypedLocation() ast.Span        { return e.Location }
func (e *TUnOp) TypedLocation() ast.Span         { return e.Location }
func (e *TAssignment) TypedLocation() ast.Span   { return e.Location }
func (e *TTrace) TypedLocation() ast.Span        { return e.Location }
func (e *TErrorTerm) TypedLocation() ast.Span    { return e.Location }
func (e *TWhen) TypedLocation() ast.Span         { return e.Location }
func (e *TIf) TypedLocation() ast.Span           { return e.Location }
func (e *TRecordAccess) TypedLocation() ast.Span { return e.Location }
func (e *TModuleSelect) TypedLocation() ast.Span { return e.Location }
func (e *TTuple) TypedLocation() ast.Span        { return e.Location }
func (e *TTupleIndex) TypedLocation() ast.Span   { return e.Location }
func (e *TRecordUpdate) TypedLocation() ast.Span { return e.Location }
func (e *TSequence) TypedLocation() ast.Span     { return e.Location }

// TypedArg is a typed function parameter.
type TypedArg struct {
	Name     ast.ArgName
	Location ast.Span
	Tipo     Type
}

// TypedPattern is a pattern annotated with the type it matches.
type TypedPattern interface {
	PatternTypeOf() Type
	TypedPatternLocation() ast.Span
}

// TPInt matches an integer literal.
type TPInt struct {
	Location ast.Span
	Value    string
}

// TPVar binds the subject.
type TPVar struct {
	Location ast.Span
	Name     string
	Tipo     Type
}

// TPDiscard matches anything.
type TPDiscard struct {
	Location ast.Span
	Name     string
	Tipo     Type
}

// TPAssign matches the inner pattern and binds the whole subject.
type TPAssign struct {
	Location ast.Span
	Name     string
	Pattern  TypedPattern
}

// TPList matches a list element-wise with an optional tail.
type TPList struct {
	Location ast.Span
	Tipo     Type
	Elements []TypedPattern
	Tail     TypedPattern
}

// TPTuple matches a tuple element-wise.
type TPTuple struct {
	Location ast.Span
	Tipo     Type
	Elems    []TypedPattern
}

// TPConstructor matches a data-type variant with reordered arguments.
type TPConstructor struct {
	Location    ast.Span
	Name        string
	Module      string
	Constructor *PatternConstructor
	Arguments   []ast.CallArg[TypedPattern]
	Tipo        Type
	WithSpread  bool
	IsRecord    bool
}

func (p *TPInt) PatternTypeOf() Type     { return IntType() }
func (p *TPVar) PatternTypeOf() Type     { return p.Tipo }
func (p *TPDiscard) PatternTypeOf() Type { return p.Tipo }
func (p *TPAssign) PatternTypeOf() Type  { return p.Pattern.PatternTypeOf() }
func (p *TPList) PatternTypeOf() Type    { return p.Tipo }
func (p *TPTuple) PatternTypeOf() Type   { return p.Tipo }
func (p *TPConstructor) PatternTypeOf() Type {
	return p.Tipo
}

func (p *TPInt) TypedPatternLocation() ast.Span         { return p.Location }
func (p *TPVar) TypedPatternLocation() ast.Span         { return p.Location }
func (p *TPDiscard) TypedPatternLocation() ast.Span     { return p.Location }
func (p *TPAssign) TypedPatternLocation() ast.Span      { return p.Location }
func (p *TPList) TypedPatternLocation() ast.Span        { return p.Location }
func (p *TPTuple) TypedPatternLocation() ast.Span       { return p.Location }
func (p *TPConstructor) TypedPatternLocation() ast.Span { return p.Location }

// Typed definitions.

// TypedDefinition is a typed top-level item.
type TypedDefinition interface {
	typedDefinitionNode()
}

// TypedFunction is a typed named function.
type TypedFunction struct {
	Arguments   []*TypedArg
	Body        TypedExpr
	Doc         string
	Location    ast.Span
	Name        string
	Public      bool
	ReturnType  Type
	EndPosition int
}

// TypedTest is a typed zero-argument test.
type TypedTest struct {
	*TypedFunction
}

// TypedValidator is a typed validator with its parameters.
type TypedValidator struct {
	Fun      *TypedFunction
	Params   []*TypedArg
	Location ast.Span
}

// TypedDataType is a registered data type with its hydrated parameters.
type TypedDataType struct {
	Constructors    []*ast.RecordConstructor
	Location        ast.Span
	Name            string
	Opaque          bool
	Parameters      []string
	TypedParameters []Type
	Public          bool
	Tipo            Type
}

// TypedTypeAlias is a registered alias with its hydrated type.
type TypedTypeAlias struct {
	Alias      string
	Annotation ast.Annotation
	Tipo       Type
	Location   ast.Span
	Parameters []string
	Public     bool
}

// TypedUse is a resolved import.
type TypedUse struct {
	*ast.Use
}

// TypedModuleConstant is a typed constant definition.
type TypedModuleConstant struct {
	Doc      string
	Location ast.Span
	Public   bool
	Name     string
	Value    ast.Constant
	Tipo     Type
}

func (*TypedFunction) typedDefinitionNode()       {}
func (*TypedTest) typedDefinitionNode()           {}
func (*TypedValidator) typedDefinitionNode()      {}
func (*TypedDataType) typedDefinitionNode()       {}
func (*TypedTypeAlias) typedDefinitionNode()      {}
func (*TypedUse) typedDefinitionNode()            {}
func (*TypedModuleConstant) typedDefinitionNode() {}

// TypedModule is a fully inferred module together with its public
// interface.
type TypedModule struct {
	Name        string
	Kind        ast.ModuleKind
	Definitions []TypedDefinition
	TypeInfo    *TypeInfo
}
