package ast

// Expr is an untyped source expression.
type Expr interface {
	ExprLocation() Span
	exprNode()
}

// Int is an integer literal. The digits are kept as written so lowering can
// parse them into an arbitrary-precision value.
type Int struct {
	Location Span
	Value    string
}

// String is a string literal.
type String struct {
	Location Span
	Value    string
}

// ByteArray is a bytearray literal, either `#"base16"` or `#[1, 2, 3]`.
type ByteArray struct {
	Location Span
	Bytes    []byte
}

// Var references a bound name.
type Var struct {
	Location Span
	Name     string
}

// Fn is an anonymous function. IsCapture marks functions produced by the
// `f(_, x)` capture sugar.
type Fn struct {
	Location         Span
	IsCapture        bool
	Arguments        []*Arg
	Body             Expr
	ReturnAnnotation Annotation
}

// List is a list literal with an optional `..tail` spread.
type List struct {
	Location Span
	Elements []Expr
	Tail     Expr
}

// Call applies a function to arguments, possibly labelled.
type Call struct {
	Location  Span
	Fun       Expr
	Arguments []CallArg[Expr]
}

// BinOpExpr applies a binary operator.
type BinOpExpr struct {
	Location Span
	Name     BinOp
	Left     Expr
	Right    Expr
}

// UnOpExpr applies a unary operator.
type UnOpExpr struct {
	Location Span
	Op       UnOp
	Value    Expr
}

// PipeLine is a `|>` chain before desugaring.
type PipeLine struct {
	Expressions []Expr
}

// Assignment binds a pattern with `let` or `expect`.
type Assignment struct {
	Location   Span
	Value      Expr
	Pattern    Pattern
	Kind       AssignmentKind
	Annotation Annotation
}

// Trace logs a message, then evaluates the continuation.
type Trace struct {
	Kind     TraceKind
	Location Span
	Then     Expr
	Text     Expr
}

// ErrorTerm diverges with an optional trace message.
type ErrorTerm struct {
	Location Span
}

// When is a pattern match over a single subject.
type When struct {
	Location Span
	Subject  Expr
	Clauses  []*Clause
}

// Clause is one branch of a when expression. Patterns holds the initial
// pattern followed by its `|` alternatives.
type Clause struct {
	Location Span
	Patterns []Pattern
	Guard    ClauseGuard
	Then     Expr
}

// If is a chain of condition branches with a final else.
type If struct {
	Location  Span
	Branches  []*IfBranch
	FinalElse Expr
}

// IfBranch is one `if`/`else if` arm.
type IfBranch struct {
	Condition Expr
	Body      Expr
	Location  Span
}

// FieldAccess projects a record field or a module member.
type FieldAccess struct {
	Location  Span
	Label     string
	Container Expr
}

// TupleExpr is a tuple literal.
type TupleExpr struct {
	Location Span
	Elems    []Expr
}

// TupleIndex projects a tuple element by ordinal.
type TupleIndex struct {
	Location Span
	Index    int
	Tuple    Expr
}

// RecordUpdate rebuilds a record from a spread plus replacement fields.
type RecordUpdate struct {
	Location    Span
	Constructor Expr
	Spread      *RecordUpdateSpread
	Arguments   []CallArg[Expr]
}

// RecordUpdateSpread is the `..base` part of a record update.
type RecordUpdateSpread struct {
	Base     Expr
	Location Span
}

// Sequence evaluates expressions in order, yielding the last.
type Sequence struct {
	Location    Span
	Expressions []Expr
}

func (e *Int) ExprLocation() Span          { return e.Location }
func (e *String) ExprLocation() Span       { return e.Location }
func (e *ByteArray) ExprLocation() Span    { return e.Location }
func (e *Var) ExprLocation() Span          { return e.Location }
func (e *Fn) ExprLocation() Span           { return e.Location }
func (e *List) ExprLocation() Span         { return e.Location }
func (e *Call) ExprLocation() Span         { return e.Location }
func (e *BinOpExpr) ExprLocation() Span    { return e.Location }
func (e *UnOpExpr) ExprLocation() Span     { return e.Location }
func (e *Assignment) ExprLocation() Span   { return e.Location }
func (e *Trace) ExprLocation() Span        { return e.Location }
func (e *ErrorTerm) ExprLocation() Span    { return e.Location }
func (e *When) ExprLocation() Span         { return e.Location }
func (e *If) ExprLocation() Span           { return e.Location }
func (e *FieldAccess) ExprLocation() Span  { return e.Location }
func (e *TupleExpr) ExprLocation() Span    { return e.Location }
func (e *TupleIndex) ExprLocation() Span   { return e.Location }
func (e *RecordUpdate) ExprLocation() Span { return e.Location }
func (e *Sequence) ExprLocation() Span     { return e.Location }

// ExprLocation of a pipeline covers the first through last stage.
func (e *PipeLine) ExprLocation() Span {
	first := e.Expressions[0].ExprLocation()
	last := e.Expressions[len(e.Expressions)-1].ExprLocation()
	return first.Union(last)
}

func (e *Int) exprNode()          {}
func (e *String) exprNode()       {}
func (e *ByteArray) exprNode()    {}
func (e *Var) exprNode()          {}
func (e *Fn) exprNode()           {}
func (e *List) exprNode()         {}
func (e *Call) exprNode()         {}
func (e *BinOpExpr) exprNode()    {}
func (e *UnOpExpr) exprNode()     {}
func (e *PipeLine) exprNode()     {}
func (e *Assignment) exprNode()   {}
func (e *Trace) exprNode()        {}
func (e *ErrorTerm) exprNode()    {}
func (e *When) exprNode()         {}
func (e *If) exprNode()           {}
func (e *FieldAccess) exprNode()  {}
func (e *TupleExpr) exprNode()    {}
func (e *TupleIndex) exprNode()   {}
func (e *RecordUpdate) exprNode() {}
func (e *Sequence) exprNode()     {}

// ClauseGuard is the boolean guard grammar of when clauses.
type ClauseGuard interface {
	GuardLocation() Span
	guardNode()
}

// GuardVar references a pattern variable inside a guard.
type GuardVar struct {
	Location Span
	Name     string
}

// GuardConstant embeds a constant into a guard comparison.
type GuardConstant struct {
	Location Span
	Value    Constant
}

// GuardBinOp compares or combines two guards.
type GuardBinOp struct {
	Location Span
	Name     BinOp
	Left     ClauseGuard
	Right    ClauseGuard
}

// GuardNot negates a guard.
type GuardNot struct {
	Location Span
	Value    ClauseGuard
}

func (g *GuardVar) GuardLocation() Span      { return g.Location }
func (g *GuardConstant) GuardLocation() Span { return g.Location }
func (g *GuardBinOp) GuardLocation() Span    { return g.Location }
func (g *GuardNot) GuardLocation() Span      { return g.Location }

func (g *GuardVar) guardNode()      {}
func (g *GuardConstant) guardNode() {}
func (g *GuardBinOp) guardNode()    {}
func (g *GuardNot) guardNode()      {}
