package types

import (
	"github.com/nanoofficial/nano/internal/ast"
)

// ExprTyper infers types for expressions against an environment. One typer
// is used per definition; the hydrator carries the definition's rigid
// type-variable names.
type ExprTyper struct {
	environment *Environment
	hydrator    *Hydrator
}

// NewExprTyper creates a typer over the environment.
func NewExprTyper(env *Environment, hydrator *Hydrator) *ExprTyper {
	if hydrator == nil {
		hydrator = NewHydrator()
	}
	return &ExprTyper{environment: env, hydrator: hydrator}
}

// Infer types an expression.
func (t *ExprTyper) Infer(expr ast.Expr) (TypedExpr, error) {
	switch expr := expr.(type) {
	case *ast.Int:
		return &TInt{Location: expr.Location, Value: expr.Value}, nil

	case *ast.String:
		return &TString{Location: expr.Location, Value: expr.Value}, nil

	case *ast.ByteArray:
		return &TByteArray{Location: expr.Location, Bytes: expr.Bytes}, nil

	case *ast.Var:
		return t.inferVar(expr.Name, expr.Location)

	case *ast.Fn:
		return t.inferFn(expr)

	case *ast.List:
		return t.inferList(expr)

	case *ast.Call:
		return t.inferCall(expr.Fun, expr.Arguments, expr.Location)

	case *ast.BinOpExpr:
		return t.inferBinOp(expr)

	case *ast.UnOpExpr:
		return t.inferUnOp(expr)

	case *ast.PipeLine:
		return t.inferPipeline(expr)

	case *ast.Assignment:
		return t.inferAssignment(expr)

	case *ast.Trace:
		return t.inferTrace(expr)

	case *ast.ErrorTerm:
		return &TErrorTerm{Location: expr.Location, Tipo: t.environment.NewUnboundVar()}, nil

	case *ast.When:
		return t.inferWhen(expr)

	case *ast.If:
		return t.inferIf(expr)

	case *ast.FieldAccess:
		return t.inferFieldAccess(expr)

	case *ast.TupleExpr:
		return t.inferTuple(expr)

	case *ast.TupleIndex:
		return t.inferTupleIndex(expr)

	case *ast.RecordUpdate:
		return t.inferRecordUpdate(expr)

	case *ast.Sequence:
		return t.inferSequence(expr)
	}
	return nil, &UnknownVariableError{Location: expr.ExprLocation()}
}

// InferExpecting types the expression and unifies its type with the
// expectation.
func (t *ExprTyper) InferExpecting(expr ast.Expr, expected Type, situation Situation) (TypedExpr, error) {
	typed, err := t.Infer(expr)
	if err != nil {
		return nil, err
	}
	if err := t.unifyWithSituation(expected, typed.TypeOf(), expr.ExprLocation(), situation); err != nil {
		return nil, err
	}
	return typed, nil
}

func (t *ExprTyper) unifyWithSituation(expected, given Type, location ast.Span, situation Situation) error {
	err := t.environment.Unify(expected, given, location, false)
	if err == nil {
		return nil
	}
	if unifyErr, ok := err.(*CouldNotUnifyError); ok {
		unifyErr.Situation = situation
		unifyErr.RigidTypeNames = t.hydrator.RigidNames()
		return unifyErr
	}
	return err
}

func (t *ExprTyper) inferVar(name string, location ast.Span) (*TVar, error) {
	constructor, err := t.environment.GetValueConstructor("", name, location)
	if err != nil {
		return nil, err
	}
	instantiated := t.environment.Instantiate(constructor.Tipo, map[uint64]Type{}, t.hydrator)
	return &TVar{
		Location: location,
		Name:     name,
		Constructor: &ValueConstructor{
			Public:  constructor.Public,
			Variant: constructor.Variant,
			Tipo:    instantiated,
		},
	}, nil
}

func (t *ExprTyper) inferFn(expr *ast.Fn) (*TFn, error) {
	reset := t.environment.OpenNewScope()
	defer t.environment.CloseScope(reset)

	args := make([]*TypedArg, len(expr.Arguments))
	argTypes := make([]Type, len(expr.Arguments))
	for i, arg := range expr.Arguments {
		tipo, err := t.hydrator.TypeFromOptionAnnotation(arg.Annotation, t.environment)
		if err != nil {
			return nil, err
		}
		args[i] = &TypedArg{Name: arg.Name, Location: arg.Location, Tipo: tipo}
		argTypes[i] = tipo
		if name := arg.Name.UsableName(); name != "" {
			t.environment.InsertVariable(name, VariantLocalVariable{Location: arg.Location}, tipo)
			t.environment.InitUsage(name, EntityVariable, arg.Location)
		}
	}

	body, err := t.Infer(expr.Body)
	if err != nil {
		return nil, err
	}

	ret := body.TypeOf()
	if expr.ReturnAnnotation != nil {
		annotated, err := t.hydrator.TypeFromAnnotation(expr.ReturnAnnotation, t.environment)
		if err != nil {
			return nil, err
		}
		if err := t.unifyWithSituation(annotated, ret, expr.Body.ExprLocation(), SituationReturnAnnotationMismatch); err != nil {
			return nil, err
		}
		ret = annotated
	}

	return &TFn{
		Location:  expr.Location,
		Tipo:      FunctionType(argTypes, ret),
		IsCapture: expr.IsCapture,
		Args:      args,
		Body:      body,
	}, nil
}

func (t *ExprTyper) inferList(expr *ast.List) (*TList, error) {
	elemType := t.environment.NewUnboundVar()

	elements := make([]TypedExpr, len(expr.Elements))
	for i, element := range expr.Elements {
		typed, err := t.Infer(element)
		if err != nil {
			return nil, err
		}
		if err := t.unifyWithSituation(elemType, typed.TypeOf(), element.ExprLocation(), SituationNone); err != nil {
			return nil, err
		}
		elements[i] = typed
	}

	var tail TypedExpr
	if expr.Tail != nil {
		typed, err := t.Infer(expr.Tail)
		if err != nil {
			return nil, err
		}
		if err := t.unifyWithSituation(ListType(elemType), typed.TypeOf(), expr.Tail.ExprLocation(), SituationNone); err != nil {
			return nil, err
		}
		tail = typed
	}

	return &TList{
		Location: expr.Location,
		Tipo:     ListType(elemType),
		Elements: elements,
		Tail:     tail,
	}, nil
}

func (t *ExprTyper) inferCall(fun ast.Expr, args []ast.CallArg[ast.Expr], location ast.Span) (*TCall, error) {
	typedFun, err := t.Infer(fun)
	if err != nil {
		return nil, err
	}

	if fieldMap := callFieldMap(typedFun); fieldMap != nil || hasLabels(args) {
		if err := ReorderFields(fieldMap, args, location); err != nil {
			return nil, err
		}
	}

	funType := Follow(typedFun.TypeOf())

	// A still-unbound function variable is pinned to a fresh arrow of the
	// right arity.
	if IsUnbound(funType) {
		argVars := make([]Type, len(args))
		for i := range argVars {
			argVars[i] = t.environment.NewUnboundVar()
		}
		ret := t.environment.NewUnboundVar()
		if err := t.environment.Unify(funType, FunctionType(argVars, ret), location, false); err != nil {
			return nil, err
		}
		funType = Follow(funType)
	}

	fn, ok := funType.(*Fn)
	if !ok {
		return nil, &NotAFunctionError{Tipo: funType, Location: fun.ExprLocation()}
	}
	if len(fn.Args) != len(args) {
		return nil, &IncorrectArityError{
			Expected: len(fn.Args),
			Given:    len(args),
			Location: location,
		}
	}

	typedArgs := make([]ast.CallArg[TypedExpr], len(args))
	for i, arg := range args {
		typed, err := t.Infer(arg.Value)
		if err != nil {
			return nil, err
		}
		if err := t.environment.Unify(fn.Args[i], typed.TypeOf(), arg.Value.ExprLocation(), true); err != nil {
			if unifyErr, ok := err.(*CouldNotUnifyError); ok {
				unifyErr.RigidTypeNames = t.hydrator.RigidNames()
			}
			return nil, err
		}
		typedArgs[i] = ast.CallArg[TypedExpr]{
			Label:    arg.Label,
			Location: arg.Location,
			Value:    typed,
		}
	}

	return &TCall{
		Location: location,
		Tipo:     fn.Ret,
		Fun:      typedFun,
		Args:     typedArgs,
	}, nil
}

func hasLabels(args []ast.CallArg[ast.Expr]) bool {
	for _, arg := range args {
		if arg.Label != "" {
			return true
		}
	}
	return false
}

// callFieldMap extracts the field map of the callee, when it has one.
func callFieldMap(fun TypedExpr) *FieldMap {
	switch fun := fun.(type) {
	case *TVar:
		return fun.Constructor.FieldMap()
	case *TModuleSelect:
		return fun.Constructor.FieldMap()
	}
	return nil
}

func (t *ExprTyper) inferBinOp(expr *ast.BinOpExpr) (*TBinOp, error) {
	var operand Type
	var result Type
	switch expr.Name {
	case ast.BinOpAnd, ast.BinOpOr:
		operand, result = BoolType(), BoolType()
	case ast.BinOpEq, ast.BinOpNotEq:
		operand, result = t.environment.NewUnboundVar(), BoolType()
	case ast.BinOpLtInt, ast.BinOpLtEqInt, ast.BinOpGtInt, ast.BinOpGtEqInt:
		operand, result = IntType(), BoolType()
	default:
		operand, result = IntType(), IntType()
	}

	left, err := t.Infer(expr.Left)
	if err != nil {
		return nil, err
	}
	if err := t.unifyWithSituation(operand, left.TypeOf(), expr.Left.ExprLocation(), SituationOperator); err != nil {
		return nil, err
	}

	right, err := t.Infer(expr.Right)
	if err != nil {
		return nil, err
	}
	if err := t.unifyWithSituation(operand, right.TypeOf(), expr.Right.ExprLocation(), SituationOperator); err != nil {
		return nil, err
	}

	return &TBinOp{
		Location: expr.Location,
		Name:     expr.Name,
		Tipo:     result,
		Left:     left,
		Right:    right,
	}, nil
}

func (t *ExprTyper) inferUnOp(expr *ast.UnOpExpr) (*TUnOp, error) {
	var operand Type
	if expr.Op == ast.UnOpNot {
		operand = BoolType()
	} else {
		operand = IntType()
	}
	value, err := t.Infer(expr.Value)
	if err != nil {
		return nil, err
	}
	if err := t.unifyWithSituation(operand, value.TypeOf(), expr.Value.ExprLocation(), SituationOperator); err != nil {
		return nil, err
	}
	return &TUnOp{
		Location: expr.Location,
		Op:       expr.Op,
		Tipo:     operand,
		Value:    value,
	}, nil
}

func (t *ExprTyper) inferAssignment(expr *ast.Assignment) (*TAssignment, error) {
	value, err := t.Infer(expr.Value)
	if err != nil {
		return nil, err
	}

	valueType := value.TypeOf()
	if expr.Annotation != nil {
		annotated, err := t.hydrator.TypeFromAnnotation(expr.Annotation, t.environment)
		if err != nil {
			return nil, err
		}
		allowCast := expr.Kind == ast.AssignmentExpect
		if err := t.environment.Unify(annotated, valueType, expr.Value.ExprLocation(), allowCast); err != nil {
			if unifyErr, ok := err.(*CouldNotUnifyError); ok {
				unifyErr.RigidTypeNames = t.hydrator.RigidNames()
			}
			return nil, err
		}
		valueType = annotated
	}

	typer := NewPatternTyper(t.environment, t.hydrator)
	pattern, err := typer.UnifyPattern(expr.Pattern, valueType)
	if err != nil {
		return nil, err
	}

	return &TAssignment{
		Location: expr.Location,
		Tipo:     valueType,
		Kind:     expr.Kind,
		Value:    value,
		Pattern:  pattern,
	}, nil
}

func (t *ExprTyper) inferTrace(expr *ast.Trace) (TypedExpr, error) {
	var text TypedExpr
	if expr.Text != nil {
		typed, err := t.Infer(expr.Text)
		if err != nil {
			return nil, err
		}
		if err := t.unifyWithSituation(StringType(), typed.TypeOf(), expr.Text.ExprLocation(), SituationNone); err != nil {
			return nil, err
		}
		text = typed
	}

	switch expr.Kind {
	case ast.TraceKindTodo, ast.TraceKindError:
		tipo := t.environment.NewUnboundVar()
		if expr.Kind == ast.TraceKindTodo {
			*t.environment.Warnings = append(*t.environment.Warnings, &TodoWarning{
				Location: expr.Location,
				Tipo:     tipo,
			})
		}
		return &TTrace{
			Location: expr.Location,
			Tipo:     tipo,
			Kind:     expr.Kind,
			Text:     text,
		}, nil
	default:
		then, err := t.Infer(expr.Then)
		if err != nil {
			return nil, err
		}
		return &TTrace{
			Location: expr.Location,
			Tipo:     then.TypeOf(),
			Kind:     ast.TraceKindTrace,
			Then:     then,
			Text:     text,
		}, nil
	}
}

func (t *ExprTyper) inferWhen(expr *ast.When) (*TWhen, error) {
	subject, err := t.Infer(expr.Subject)
	if err != nil {
		return nil, err
	}
	subjectType := subject.TypeOf()
	resultType := t.environment.NewUnboundVar()

	clauses := make([]*TypedClause, len(expr.Clauses))
	for i, clause := range expr.Clauses {
		typed, err := t.inferClause(clause, subjectType, resultType)
		if err != nil {
			return nil, err
		}
		clauses[i] = typed
	}

	if err := CheckWhenExhaustiveness(t.environment, subjectType, clauses, expr.Location); err != nil {
		return nil, err
	}

	return &TWhen{
		Location: expr.Location,
		Tipo:     resultType,
		Subject:  subject,
		Clauses:  clauses,
	}, nil
}

func (t *ExprTyper) inferClause(clause *ast.Clause, subjectType, resultType Type) (*TypedClause, error) {
	reset := t.environment.OpenNewScope()
	defer t.environment.CloseScope(reset)

	typer := NewPatternTyper(t.environment, t.hydrator)
	patterns, err := typer.InferAlternativePatterns(clause.Patterns, subjectType)
	if err != nil {
		return nil, err
	}

	var guard TypedExpr
	if clause.Guard != nil {
		guard, err = t.inferClauseGuard(clause.Guard)
		if err != nil {
			return nil, err
		}
		if err := t.unifyWithSituation(BoolType(), guard.TypeOf(), clause.Guard.GuardLocation(), SituationNone); err != nil {
			return nil, err
		}
	}

	then, err := t.Infer(clause.Then)
	if err != nil {
		return nil, err
	}
	if err := t.unifyWithSituation(resultType, then.TypeOf(), clause.Then.ExprLocation(), SituationCaseClauseMismatch); err != nil {
		return nil, err
	}

	return &TypedClause{
		Location: clause.Location,
		Patterns: patterns,
		Guard:    guard,
		Then:     then,
	}, nil
}

func (t *ExprTyper) inferClauseGuard(guard ast.ClauseGuard) (TypedExpr, error) {
	switch guard := guard.(type) {
	case *ast.GuardVar:
		return t.inferVar(guard.Name, guard.Location)
	case *ast.GuardConstant:
		switch value := guard.Value.(type) {
		case *ast.ConstInt:
			return &TInt{Location: guard.Location, Value: value.Value}, nil
		case *ast.ConstString:
			return &TString{Location: guard.Location, Value: value.Value}, nil
		case *ast.ConstByteArray:
			return &TByteArray{Location: guard.Location, Bytes: value.Bytes}, nil
		}
	case *ast.GuardBinOp:
		left, err := t.inferClauseGuard(guard.Left)
		if err != nil {
			return nil, err
		}
		right, err := t.inferClauseGuard(guard.Right)
		if err != nil {
			return nil, err
		}
		var operand, result Type
		switch guard.Name {
		case ast.BinOpAnd, ast.BinOpOr:
			operand, result = BoolType(), BoolType()
		case ast.BinOpEq, ast.BinOpNotEq:
			operand, result = left.TypeOf(), BoolType()
		case ast.BinOpLtInt, ast.BinOpLtEqInt, ast.BinOpGtInt, ast.BinOpGtEqInt:
			operand, result = IntType(), BoolType()
		default:
			operand, result = IntType(), IntType()
		}
		if err := t.unifyWithSituation(operand, left.TypeOf(), guard.Left.GuardLocation(), SituationOperator); err != nil {
			return nil, err
		}
		if err := t.unifyWithSituation(operand, right.TypeOf(), guard.Right.GuardLocation(), SituationOperator); err != nil {
			return nil, err
		}
		return &TBinOp{
			Location: guard.Location,
			Name:     guard.Name,
			Tipo:     result,
			Left:     left,
			Right:    right,
		}, nil
	case *ast.GuardNot:
		value, err := t.inferClauseGuard(guard.Value)
		if err != nil {
			return nil, err
		}
		if err := t.unifyWithSituation(BoolType(), value.TypeOf(), guard.Value.GuardLocation(), SituationNone); err != nil {
			return nil, err
		}
		return &TUnOp{
			Location: guard.Location,
			Op:       ast.UnOpNot,
			Tipo:     BoolType(),
			Value:    value,
		}, nil
	}
	return nil, &UnknownVariableError{Location: guard.GuardLocation()}
}

func (t *ExprTyper) inferIf(expr *ast.If) (*TIf, error) {
	resultType := t.environment.NewUnboundVar()

	branches := make([]*TypedIfBranch, len(expr.Branches))
	for i, branch := range expr.Branches {
		condition, err := t.Infer(branch.Condition)
		if err != nil {
			return nil, err
		}
		if err := t.unifyWithSituation(BoolType(), condition.TypeOf(), branch.Condition.ExprLocation(), SituationNone); err != nil {
			return nil, err
		}
		body, err := t.InferExpecting(branch.Body, resultType, SituationNone)
		if err != nil {
			return nil, err
		}
		branches[i] = &TypedIfBranch{
			Location:  branch.Location,
			Condition: condition,
			Body:      body,
		}
	}

	finalElse, err := t.InferExpecting(expr.FinalElse, resultType, SituationNone)
	if err != nil {
		return nil, err
	}

	return &TIf{
		Location:  expr.Location,
		Tipo:      resultType,
		Branches:  branches,
		FinalElse: finalElse,
	}, nil
}

func (t *ExprTyper) inferFieldAccess(expr *ast.FieldAccess) (TypedExpr, error) {
	// module.value access: the container is a bare name that resolves to
	// an imported module rather than a local value.
	if container, ok := expr.Container.(*ast.Var); ok {
		if _, isValue := t.environment.Scope[container.Name]; !isValue {
			if imported, isModule := t.environment.ImportedModules[container.Name]; isModule {
				constructor, err := t.environment.GetValueConstructor(container.Name, expr.Label, expr.Location)
				if err != nil {
					return nil, err
				}
				instantiated := t.environment.Instantiate(constructor.Tipo, map[uint64]Type{}, t.hydrator)
				return &TModuleSelect{
					Location:    expr.Location,
					Tipo:        instantiated,
					Label:       expr.Label,
					ModuleName:  imported.info.Name,
					ModuleAlias: container.Name,
					Constructor: &ValueConstructor{
						Public:  constructor.Public,
						Variant: constructor.Variant,
						Tipo:    instantiated,
					},
				}, nil
			}
		}
	}

	record, err := t.Infer(expr.Container)
	if err != nil {
		return nil, err
	}

	app, ok := Follow(record.TypeOf()).(*App)
	if !ok {
		return nil, &UnknownRecordFieldError{
			Label:    expr.Label,
			Tipo:     record.TypeOf(),
			Location: expr.Location,
		}
	}

	accessors := t.lookupAccessors(app)
	if accessors == nil {
		return nil, &UnknownRecordFieldError{
			Label:    expr.Label,
			Tipo:     record.TypeOf(),
			Location: expr.Location,
		}
	}
	accessor, ok := accessors.Accessors[expr.Label]
	if !ok {
		var fields []string
		for label := range accessors.Accessors {
			fields = append(fields, label)
		}
		return nil, &UnknownRecordFieldError{
			Label:    expr.Label,
			Tipo:     record.TypeOf(),
			Fields:   fields,
			Location: expr.Location,
		}
	}

	// Instantiate the accessor against this record's type arguments.
	ids := map[uint64]Type{}
	accessorRecord := t.environment.Instantiate(accessors.Tipo, ids, nil)
	accessorField := t.environment.Instantiate(accessor.Tipo, ids, nil)
	if err := t.environment.Unify(accessorRecord, record.TypeOf(), expr.Location, false); err != nil {
		return nil, err
	}

	return &TRecordAccess{
		Location: expr.Location,
		Tipo:     accessorField,
		Label:    expr.Label,
		Index:    accessor.Index,
		Record:   record,
	}, nil
}

func (t *ExprTyper) lookupAccessors(app *App) *AccessorsMap {
	if app.Module == "" || app.Module == t.environment.CurrentModule {
		return t.environment.Accessors[app.Name]
	}
	for _, imported := range t.environment.ImportedModules {
		if imported.info.Name == app.Module {
			return imported.info.Accessors[app.Name]
		}
	}
	return nil
}

func (t *ExprTyper) inferTuple(expr *ast.TupleExpr) (*TTuple, error) {
	elems := make([]TypedExpr, len(expr.Elems))
	elemTypes := make([]Type, len(expr.Elems))
	for i, elem := range expr.Elems {
		typed, err := t.Infer(elem)
		if err != nil {
			return nil, err
		}
		elems[i] = typed
		elemTypes[i] = typed.TypeOf()
	}
	return &TTuple{
		Location: expr.Location,
		Tipo:     &Tuple{Elems: elemTypes},
		Elems:    elems,
	}, nil
}

func (t *ExprTyper) inferTupleIndex(expr *ast.TupleIndex) (*TTupleIndex, error) {
	tuple, err := t.Infer(expr.Tuple)
	if err != nil {
		return nil, err
	}
	tupleType, ok := Follow(tuple.TypeOf()).(*Tuple)
	if !ok {
		return nil, &NotATupleError{Tipo: tuple.TypeOf(), Location: expr.Tuple.ExprLocation()}
	}
	if expr.Index >= len(tupleType.Elems) {
		return nil, &TupleIndexOutOfBoundError{
			Index:    expr.Index,
			Size:     len(tupleType.Elems),
			Location: expr.Location,
		}
	}
	return &TTupleIndex{
		Location: expr.Location,
		Tipo:     tupleType.Elems[expr.Index],
		Index:    expr.Index,
		Tuple:    tuple,
	}, nil
}

func (t *ExprTyper) inferRecordUpdate(expr *ast.RecordUpdate) (*TRecordUpdate, error) {
	constructor, err := t.Infer(expr.Constructor)
	if err != nil {
		return nil, err
	}
	fieldMap := callFieldMap(constructor)
	if fieldMap == nil {
		return nil, &NotAFunctionError{
			Tipo:     constructor.TypeOf(),
			Location: expr.Constructor.ExprLocation(),
		}
	}

	recordType := constructor.TypeOf()
	if fn, ok := Follow(recordType).(*Fn); ok {
		recordType = fn.Ret
	}

	spread, err := t.Infer(expr.Spread.Base)
	if err != nil {
		return nil, err
	}
	if err := t.environment.Unify(recordType, spread.TypeOf(), expr.Spread.Location, false); err != nil {
		return nil, err
	}

	fieldTypes := ArgTypes(constructor.TypeOf())

	args := make([]*TypedRecordUpdateArg, len(expr.Arguments))
	seen := map[string]ast.Span{}
	for i, arg := range expr.Arguments {
		position, ok := fieldMap.Fields[arg.Label]
		if !ok {
			return nil, &UnknownLabelsError{
				Unknown: []UnknownLabel{{Label: arg.Label, Location: arg.Location}},
				Valid:   fieldMap.Labels(),
			}
		}
		if previous, duplicated := seen[arg.Label]; duplicated {
			return nil, &DuplicateArgumentError{
				Label:             arg.Label,
				Location:          arg.Location,
				DuplicateLocation: previous,
			}
		}
		seen[arg.Label] = arg.Location

		value, err := t.Infer(arg.Value)
		if err != nil {
			return nil, err
		}
		if position.Index < len(fieldTypes) {
			if err := t.environment.Unify(fieldTypes[position.Index], value.TypeOf(), arg.Value.ExprLocation(), false); err != nil {
				return nil, err
			}
		}
		args[i] = &TypedRecordUpdateArg{
			Label:    arg.Label,
			Location: arg.Location,
			Value:    value,
			Index:    position.Index,
		}
	}

	return &TRecordUpdate{
		Location: expr.Location,
		Tipo:     recordType,
		Spread:   spread,
		Args:     args,
	}, nil
}

func (t *ExprTyper) inferSequence(expr *ast.Sequence) (*TSequence, error) {
	reset := t.environment.OpenNewScope()
	defer t.environment.CloseScope(reset)

	expressions := make([]TypedExpr, len(expr.Expressions))
	for i, item := range expr.Expressions {
		typed, err := t.Infer(item)
		if err != nil {
			return nil, err
		}
		expressions[i] = typed

		// Pattern bindings stay visible for the rest of the sequence;
		// any other non-final expression should produce Void.
		last := i == len(expr.Expressions)-1
		_, isAssignment := typed.(*TAssignment)
		if !isAssignment && !last && !IsVoid(typed.TypeOf()) && !IsUnbound(typed.TypeOf()) {
			*t.environment.Warnings = append(*t.environment.Warnings, &ImplicitlyDiscardedResultWarning{
				Location: typed.TypedLocation(),
			})
		}
	}

	return &TSequence{Location: expr.Location, Expressions: expressions}, nil
}
