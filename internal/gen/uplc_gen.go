package gen

import (
	"fmt"
	"math/big"

	"github.com/nanoofficial/nano/internal/air"
	"github.com/nanoofficial/nano/internal/ast"
	"github.com/nanoofficial/nano/internal/types"
	"github.com/nanoofficial/nano/internal/uplc"
)

// airReader walks the linear instruction stream; each opcode consumes its
// children from the positions that follow it.
type airReader struct {
	instructions []air.Instruction
	pos          int
}

func (r *airReader) next() (air.Instruction, error) {
	if r.pos >= len(r.instructions) {
		return nil, fmt.Errorf("air stream ended unexpectedly at %d", r.pos)
	}
	instruction := r.instructions[r.pos]
	r.pos++
	return instruction, nil
}

// foldAir folds the Air stream into a term tree.
func (g *Generator) foldAir(instructions []air.Instruction) (uplc.Term, error) {
	reader := &airReader{instructions: instructions}
	term, err := g.foldTerm(reader)
	if err != nil {
		return nil, err
	}
	if reader.pos != len(instructions) {
		return nil, fmt.Errorf("air stream has %d unconsumed instructions", len(instructions)-reader.pos)
	}
	return term, nil
}

func (g *Generator) foldTerm(r *airReader) (uplc.Term, error) {
	instruction, err := r.next()
	if err != nil {
		return nil, err
	}

	switch instruction := instruction.(type) {
	case *air.Int:
		value, ok := new(big.Int).SetString(instruction.Value, 10)
		if !ok {
			return nil, fmt.Errorf("malformed integer literal %q", instruction.Value)
		}
		return &uplc.Constant{Con: &uplc.Integer{Inner: value}}, nil

	case *air.String:
		return &uplc.Constant{Con: &uplc.String{Inner: instruction.Value}}, nil

	case *air.ByteArray:
		return &uplc.Constant{Con: &uplc.ByteString{Inner: instruction.Bytes}}, nil

	case *air.Bool:
		return &uplc.Constant{Con: &uplc.Bool{Inner: instruction.Value}}, nil

	case *air.Void:
		return &uplc.Constant{Con: &uplc.Unit{}}, nil

	case *air.ErrorTerm:
		return &uplc.Error{}, nil

	case *air.Var:
		return g.foldVar(instruction)

	case *air.Fn:
		body, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		for i := len(instruction.Params) - 1; i >= 0; i-- {
			body = &uplc.Lambda{ParameterName: uplc.Name{Text: instruction.Params[i]}, Body: body}
		}
		return body, nil

	case *air.Call:
		fun, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		for i := 0; i < instruction.Count; i++ {
			arg, err := g.foldTerm(r)
			if err != nil {
				return nil, err
			}
			fun = &uplc.Apply{Function: fun, Argument: arg}
		}
		return fun, nil

	case *air.Builtin:
		term := forcedBuiltin(instruction.Func)
		for i := 0; i < instruction.Count; i++ {
			arg, err := g.foldTerm(r)
			if err != nil {
				return nil, err
			}
			term = &uplc.Apply{Function: term, Argument: arg}
		}
		return term, nil

	case *air.BinOp:
		left, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		right, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		return foldBinOp(instruction.Name, instruction.Tipo, left, right), nil

	case *air.UnOp:
		value, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		if instruction.Op == ast.UnOpNot {
			return notTerm(value), nil
		}
		return uplc.ApplyTo(
			&uplc.Builtin{Fun: uplc.SubtractInteger},
			&uplc.Constant{Con: &uplc.Integer{Inner: big.NewInt(0)}},
			value,
		), nil

	case *air.Let:
		value, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		body, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		return &uplc.Apply{
			Function: &uplc.Lambda{ParameterName: uplc.Name{Text: instruction.Name}, Body: body},
			Argument: value,
		}, nil

	case *air.Trace:
		text, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		then, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		return &uplc.Force{Term: uplc.ApplyTo(
			forcedBuiltin(uplc.Trace),
			text,
			&uplc.Delay{Term: then},
		)}, nil

	case *air.If:
		return g.foldConditional(r)

	case *air.When:
		subject, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		clauses, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		return &uplc.Apply{
			Function: &uplc.Lambda{
				ParameterName: uplc.Name{Text: instruction.SubjectName},
				Body:          clauses,
			},
			Argument: subject,
		}, nil

	case *air.Clause:
		return g.foldConditional(r)

	case *air.ClauseGuard:
		return g.foldConditional(r)

	case *air.ListClause:
		body, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		rest, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		test := uplc.ApplyTo(
			forcedBuiltin(uplc.NullList),
			&uplc.Var{Name: uplc.Name{Text: instruction.TailName}},
		)
		return ifThenElse(test, body, rest), nil

	case *air.WrapClause:
		return g.foldTerm(r)

	case *air.Finally:
		return g.foldTerm(r)

	case *air.NoOp:
		return g.foldTerm(r)

	case *air.List:
		return g.foldList(r, instruction)

	case *air.ListAccessor:
		return g.foldListAccessor(r, instruction)

	case *air.ListExpose:
		return g.foldListExpose(r, instruction)

	case *air.Tuple:
		return g.foldTuple(r, instruction)

	case *air.TupleAccessor:
		return g.foldTupleAccessor(r, instruction)

	case *air.TupleIndex:
		tuple, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		return g.projectTuple(tuple, instruction.Tipo, instruction.TupleIndex)

	case *air.Record:
		return g.foldRecord(r, instruction)

	case *air.RecordAccess:
		record, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		fields := uplc.ApplyTo(
			forcedBuiltin(uplc.SndPair),
			uplc.ApplyTo(&uplc.Builtin{Fun: uplc.UnConstrData}, record),
		)
		return unwrapFromData(nthItem(fields, instruction.RecordIndex), instruction.Tipo), nil

	case *air.FieldsExpose:
		return g.foldFieldsExpose(r, instruction)

	case *air.RecordUpdate:
		return g.foldRecordUpdate(r, instruction)

	case *air.WrapData:
		value, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		return wrapToData(value, instruction.Tipo), nil

	case *air.UnWrapData:
		value, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		return unwrapFromData(value, instruction.Tipo), nil

	case *air.AssertConstr:
		value, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		body, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		tag := uplc.ApplyTo(
			forcedBuiltin(uplc.FstPair),
			uplc.ApplyTo(&uplc.Builtin{Fun: uplc.UnConstrData}, value),
		)
		test := uplc.ApplyTo(
			&uplc.Builtin{Fun: uplc.EqualsInteger},
			tag,
			&uplc.Constant{Con: &uplc.Integer{Inner: big.NewInt(int64(instruction.ConstrIndex))}},
		)
		return ifThenElse(test, body, &uplc.Error{}), nil

	case *air.AssertBool:
		value, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		body, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		test := value
		if !instruction.IsTrue {
			test = notTerm(value)
		}
		return ifThenElse(test, body, &uplc.Error{}), nil

	case *air.DefineFunc:
		fnBody, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		rest, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		for i := len(instruction.Params) - 1; i >= 0; i-- {
			fnBody = &uplc.Lambda{
				ParameterName: uplc.Name{Text: instruction.Params[i]},
				Body:          fnBody,
			}
		}
		name := functionKey(instruction.ModuleName, instruction.FuncName) + instruction.VariantName
		return g.defineFunction(name, fnBody, rest), nil

	case *air.TupleClause:
		return nil, fmt.Errorf("tuple clauses are lowered through tuple accessors")

	case *air.ListClauseGuard:
		body, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		rest, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		var test uplc.Term = uplc.ApplyTo(
			forcedBuiltin(uplc.NullList),
			&uplc.Var{Name: uplc.Name{Text: instruction.TailName}},
		)
		if instruction.Inverse {
			test = notTerm(test)
		}
		return ifThenElse(test, body, rest), nil
	}

	return nil, fmt.Errorf("unhandled air instruction %T", instruction)
}

// foldConditional folds the (test, body, rest) triple shared by if
// branches and when clauses.
func (g *Generator) foldConditional(r *airReader) (uplc.Term, error) {
	test, err := g.foldTerm(r)
	if err != nil {
		return nil, err
	}
	body, err := g.foldTerm(r)
	if err != nil {
		return nil, err
	}
	rest, err := g.foldTerm(r)
	if err != nil {
		return nil, err
	}
	return ifThenElse(test, body, rest), nil
}

func (g *Generator) foldVar(instruction *air.Var) (uplc.Term, error) {
	constructor := instruction.Constructor
	switch variant := constructor.Variant.(type) {
	case types.VariantLocalVariable:
		return &uplc.Var{Name: uplc.Name{Text: instruction.Name}}, nil

	case types.VariantModuleFn:
		if variant.Builtin != nil {
			return forcedBuiltin(*variant.Builtin), nil
		}
		return &uplc.Var{Name: uplc.Name{Text: functionKey(variant.Module, variant.Name)}}, nil

	case types.VariantRecord:
		return g.constructorTerm(variant, constructor.Tipo)
	}
	return &uplc.Var{Name: uplc.Name{Text: instruction.Name}}, nil
}

// constructorTerm inlines a data constructor: primitives become constants,
// nullary constructors constant data, and the rest lambdas over their
// fields.
func (g *Generator) constructorTerm(variant types.VariantRecord, tipo types.Type) (uplc.Term, error) {
	result := tipo
	if fn, ok := types.Follow(tipo).(*types.Fn); ok {
		result = fn.Ret
	}

	if types.IsBool(result) {
		return &uplc.Constant{Con: &uplc.Bool{Inner: variant.Name == "True"}}, nil
	}
	if types.IsVoid(result) {
		return &uplc.Constant{Con: &uplc.Unit{}}, nil
	}

	info := g.constrInfoFor(variant)
	if variant.Arity == 0 {
		return &uplc.Constant{Con: &uplc.Data{Inner: &uplc.DataConstr{Tag: uint64(info.tag)}}}, nil
	}

	argTypes := types.ArgTypes(tipo)
	fields := emptyDataList()
	var fieldTerms []uplc.Term
	for i := 0; i < variant.Arity; i++ {
		name := fmt.Sprintf("__field_%d", i)
		var fieldType types.Type
		if i < len(argTypes) {
			fieldType = argTypes[i]
		}
		fieldTerms = append(fieldTerms,
			wrapToData(&uplc.Var{Name: uplc.Name{Text: name}}, fieldType))
	}
	for i := len(fieldTerms) - 1; i >= 0; i-- {
		fields = consData(fieldTerms[i], fields)
	}

	term := constrData(info.tag, fields)
	for i := variant.Arity - 1; i >= 0; i-- {
		term = &uplc.Lambda{
			ParameterName: uplc.Name{Text: fmt.Sprintf("__field_%d", i)},
			Body:          term,
		}
	}
	return term, nil
}

func (g *Generator) foldList(r *airReader, instruction *air.List) (uplc.Term, error) {
	elemType := elementType(instruction.Tipo)

	elements := make([]uplc.Term, instruction.Count)
	for i := range elements {
		element, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		elements[i] = wrapListElement(element, elemType)
	}

	var tail uplc.Term
	if instruction.Tail {
		t, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		tail = t
	} else if types.IsMap(instruction.Tipo) {
		tail = emptyPairList()
	} else {
		tail = emptyDataList()
	}

	for i := len(elements) - 1; i >= 0; i-- {
		tail = consData(elements[i], tail)
	}
	return tail, nil
}

// wrapListElement boxes a list element: pair-list elements stay pairs,
// everything else is wrapped to data.
func wrapListElement(element uplc.Term, elemType types.Type) uplc.Term {
	if tuple, ok := types.Follow(elemType).(*types.Tuple); ok && len(tuple.Elems) == 2 {
		return element
	}
	return wrapToData(element, elemType)
}

func (g *Generator) foldListAccessor(r *airReader, instruction *air.ListAccessor) (uplc.Term, error) {
	value, err := g.foldTerm(r)
	if err != nil {
		return nil, err
	}
	body, err := g.foldTerm(r)
	if err != nil {
		return nil, err
	}

	elemType := elementType(instruction.Tipo)
	listName := g.freshName("__list_subject")
	listVar := &uplc.Var{Name: uplc.Name{Text: listName}}

	names := instruction.Names
	tailCount := len(names)
	if instruction.Tail {
		tailCount--
	}

	term := body
	// Bind from the last name backwards so the innermost lambda receives
	// the first element.
	if instruction.Tail {
		tailTerm := spineTail(listVar, tailCount)
		term = bindName(names[len(names)-1], tailTerm, term)
	}
	for i := tailCount - 1; i >= 0; i-- {
		element := uplc.ApplyTo(forcedBuiltin(uplc.HeadList), spineTail(listVar, i))
		term = bindName(names[i], unwrapListElement(element, elemType), term)
	}

	return bindName(listName, value, term), nil
}

func (g *Generator) foldListExpose(r *airReader, instruction *air.ListExpose) (uplc.Term, error) {
	body, err := g.foldTerm(r)
	if err != nil {
		return nil, err
	}
	elemType := elementType(instruction.Tipo)

	term := body
	if instruction.HasTail {
		term = bindName(instruction.Tail[1],
			uplc.ApplyTo(forcedBuiltin(uplc.TailList),
				&uplc.Var{Name: uplc.Name{Text: instruction.Tail[0]}}),
			term)
	}
	for i := len(instruction.TailHeadNames) - 1; i >= 0; i-- {
		pair := instruction.TailHeadNames[i]
		head := uplc.ApplyTo(forcedBuiltin(uplc.HeadList),
			&uplc.Var{Name: uplc.Name{Text: pair[0]}})
		term = bindName(pair[1], unwrapListElement(head, elemType), term)
	}
	return term, nil
}

func (g *Generator) foldTuple(r *airReader, instruction *air.Tuple) (uplc.Term, error) {
	tuple, _ := types.Follow(instruction.Tipo).(*types.Tuple)

	elements := make([]uplc.Term, instruction.Count)
	for i := range elements {
		element, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		var elemType types.Type
		if tuple != nil && i < len(tuple.Elems) {
			elemType = tuple.Elems[i]
		}
		elements[i] = wrapToData(element, elemType)
	}

	if instruction.Count == 2 {
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.MkPairData}, elements[0], elements[1]), nil
	}

	out := emptyDataList()
	for i := len(elements) - 1; i >= 0; i-- {
		out = consData(elements[i], out)
	}
	return out, nil
}

func (g *Generator) foldTupleAccessor(r *airReader, instruction *air.TupleAccessor) (uplc.Term, error) {
	value, err := g.foldTerm(r)
	if err != nil {
		return nil, err
	}
	body, err := g.foldTerm(r)
	if err != nil {
		return nil, err
	}

	tupleName := g.freshName("__tuple_subject")
	tupleVar := &uplc.Var{Name: uplc.Name{Text: tupleName}}

	term := body
	for i := len(instruction.Names) - 1; i >= 0; i-- {
		projected, err := g.projectTupleVar(tupleVar, instruction.Tipo, i)
		if err != nil {
			return nil, err
		}
		term = bindName(instruction.Names[i], projected, term)
	}
	return bindName(tupleName, value, term), nil
}

func (g *Generator) projectTuple(tuple uplc.Term, tupleType types.Type, index int) (uplc.Term, error) {
	name := g.freshName("__tuple_index")
	projected, err := g.projectTupleVar(&uplc.Var{Name: uplc.Name{Text: name}}, tupleType, index)
	if err != nil {
		return nil, err
	}
	return bindName(name, tuple, projected), nil
}

func (g *Generator) projectTupleVar(tupleVar uplc.Term, tupleType types.Type, index int) (uplc.Term, error) {
	tuple, ok := types.Follow(tupleType).(*types.Tuple)
	if !ok {
		return nil, fmt.Errorf("tuple operation over non-tuple type")
	}
	elemType := tuple.Elems[index]

	if len(tuple.Elems) == 2 {
		fun := uplc.FstPair
		if index == 1 {
			fun = uplc.SndPair
		}
		return unwrapFromData(uplc.ApplyTo(forcedBuiltin(fun), tupleVar), elemType), nil
	}
	return unwrapFromData(nthItem(tupleVar, index), elemType), nil
}

func (g *Generator) foldRecord(r *airReader, instruction *air.Record) (uplc.Term, error) {
	argTypes := types.ArgTypes(instruction.Tipo)

	fields := make([]uplc.Term, instruction.Count)
	for i := range fields {
		field, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		var fieldType types.Type
		if i < len(argTypes) {
			fieldType = argTypes[i]
		}
		fields[i] = wrapToData(field, fieldType)
	}

	out := emptyDataList()
	for i := len(fields) - 1; i >= 0; i-- {
		out = consData(fields[i], out)
	}
	return constrData(instruction.Tag, out), nil
}

func (g *Generator) foldFieldsExpose(r *airReader, instruction *air.FieldsExpose) (uplc.Term, error) {
	value, err := g.foldTerm(r)
	if err != nil {
		return nil, err
	}
	body, err := g.foldTerm(r)
	if err != nil {
		return nil, err
	}

	fieldsName := g.freshName("__fields")
	fieldsVar := &uplc.Var{Name: uplc.Name{Text: fieldsName}}

	term := body
	for i := len(instruction.IndicesToDefine) - 1; i >= 0; i-- {
		field := instruction.IndicesToDefine[i]
		term = bindName(field.Name,
			unwrapFromData(nthItem(fieldsVar, field.Index), field.Tipo),
			term)
	}

	fields := uplc.ApplyTo(
		forcedBuiltin(uplc.SndPair),
		uplc.ApplyTo(&uplc.Builtin{Fun: uplc.UnConstrData}, value),
	)
	return bindName(fieldsName, fields, term), nil
}

func (g *Generator) foldRecordUpdate(r *airReader, instruction *air.RecordUpdate) (uplc.Term, error) {
	record, err := g.foldTerm(r)
	if err != nil {
		return nil, err
	}

	replacements := map[int]uplc.Term{}
	for _, field := range instruction.Indices {
		value, err := g.foldTerm(r)
		if err != nil {
			return nil, err
		}
		replacements[field.Index] = wrapToData(value, field.Tipo)
	}

	recordName := g.freshName("__record")
	fieldsName := g.freshName("__fields")
	fieldsVar := &uplc.Var{Name: uplc.Name{Text: fieldsName}}

	// Rebuild positions 0..highest, keeping untouched fields as-is, then
	// splice the remaining tail back on.
	out := spineTail(fieldsVar, instruction.HighestIndex+1)
	for i := instruction.HighestIndex; i >= 0; i-- {
		field, replaced := replacements[i]
		if !replaced {
			field = nthItem(fieldsVar, i)
		}
		out = consData(field, out)
	}

	tag := uplc.ApplyTo(
		forcedBuiltin(uplc.FstPair),
		uplc.ApplyTo(&uplc.Builtin{Fun: uplc.UnConstrData},
			&uplc.Var{Name: uplc.Name{Text: recordName}}),
	)
	constr := uplc.ApplyTo(&uplc.Builtin{Fun: uplc.ConstrData}, tag, out)

	fields := uplc.ApplyTo(
		forcedBuiltin(uplc.SndPair),
		uplc.ApplyTo(&uplc.Builtin{Fun: uplc.UnConstrData},
			&uplc.Var{Name: uplc.Name{Text: recordName}}),
	)
	return bindName(recordName, record, bindName(fieldsName, fields, constr)), nil
}

// Shared term helpers.

func bindName(name string, value, body uplc.Term) uplc.Term {
	return &uplc.Apply{
		Function: &uplc.Lambda{ParameterName: uplc.Name{Text: name}, Body: body},
		Argument: value,
	}
}

func ifThenElse(test, then, otherwise uplc.Term) uplc.Term {
	return &uplc.Force{Term: uplc.ApplyTo(
		forcedBuiltin(uplc.IfThenElse),
		test,
		&uplc.Delay{Term: then},
		&uplc.Delay{Term: otherwise},
	)}
}

func notTerm(value uplc.Term) uplc.Term {
	return uplc.ApplyTo(
		forcedBuiltin(uplc.IfThenElse),
		value,
		&uplc.Constant{Con: &uplc.Bool{Inner: false}},
		&uplc.Constant{Con: &uplc.Bool{Inner: true}},
	)
}

func emptyDataList() uplc.Term {
	return &uplc.Constant{Con: &uplc.ProtoList{LTyp: uplc.TData{}}}
}

func emptyPairList() uplc.Term {
	return &uplc.Constant{Con: &uplc.ProtoList{
		LTyp: uplc.TPair{First: uplc.TData{}, Second: uplc.TData{}},
	}}
}

func consData(head, tail uplc.Term) uplc.Term {
	return uplc.ApplyTo(forcedBuiltin(uplc.MkCons), head, tail)
}

func spineTail(list uplc.Term, count int) uplc.Term {
	for i := 0; i < count; i++ {
		list = uplc.ApplyTo(forcedBuiltin(uplc.TailList), list)
	}
	return list
}

func nthItem(list uplc.Term, index int) uplc.Term {
	return uplc.ApplyTo(forcedBuiltin(uplc.HeadList), spineTail(list, index))
}

func elementType(listType types.Type) types.Type {
	args := types.TypeArgs(listType)
	if len(args) == 1 {
		return args[0]
	}
	return nil
}

func unwrapListElement(element uplc.Term, elemType types.Type) uplc.Term {
	if tuple, ok := types.Follow(elemType).(*types.Tuple); ok && len(tuple.Elems) == 2 {
		return element
	}
	return unwrapFromData(element, elemType)
}

func foldBinOp(op ast.BinOp, operandType types.Type, left, right uplc.Term) uplc.Term {
	switch op {
	case ast.BinOpAnd:
		return ifThenElse(left, right, &uplc.Constant{Con: &uplc.Bool{Inner: false}})
	case ast.BinOpOr:
		return ifThenElse(left, &uplc.Constant{Con: &uplc.Bool{Inner: true}}, right)
	case ast.BinOpEq:
		return equalityTerm(operandType, left, right)
	case ast.BinOpNotEq:
		return notTerm(equalityTerm(operandType, left, right))
	case ast.BinOpLtInt:
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.LessThanInteger}, left, right)
	case ast.BinOpLtEqInt:
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.LessThanEqualsInteger}, left, right)
	case ast.BinOpGtInt:
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.LessThanInteger}, right, left)
	case ast.BinOpGtEqInt:
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.LessThanEqualsInteger}, right, left)
	case ast.BinOpAddInt:
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.AddInteger}, left, right)
	case ast.BinOpSubInt:
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.SubtractInteger}, left, right)
	case ast.BinOpMultInt:
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.MultiplyInteger}, left, right)
	case ast.BinOpDivInt:
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.DivideInteger}, left, right)
	case ast.BinOpModInt:
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.ModInteger}, left, right)
	}
	return &uplc.Error{}
}

func equalityTerm(operandType types.Type, left, right uplc.Term) uplc.Term {
	switch {
	case types.IsInt(operandType):
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.EqualsInteger}, left, right)
	case types.IsByteArray(operandType):
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.EqualsByteString}, left, right)
	case types.IsString(operandType):
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.EqualsString}, left, right)
	case types.IsBool(operandType):
		return ifThenElse(left, right, notTerm(right))
	case types.IsVoid(operandType):
		return &uplc.Constant{Con: &uplc.Bool{Inner: true}}
	default:
		return uplc.ApplyTo(
			&uplc.Builtin{Fun: uplc.EqualsData},
			wrapToData(left, operandType),
			wrapToData(right, operandType),
		)
	}
}

// wrapToData boxes a value term into its Data representation, guided by
// the source type.
func wrapToData(term uplc.Term, tipo types.Type) uplc.Term {
	if tipo == nil {
		return term
	}
	switch uplcType := types.GetUplcType(tipo).(type) {
	case uplc.TInteger:
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.IData}, term)
	case uplc.TByteString:
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.BData}, term)
	case uplc.TString:
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.BData},
			uplc.ApplyTo(&uplc.Builtin{Fun: uplc.EncodeUtf8}, term))
	case uplc.TBool:
		return ifThenElse(term,
			&uplc.Constant{Con: &uplc.Data{Inner: &uplc.DataConstr{Tag: 1}}},
			&uplc.Constant{Con: &uplc.Data{Inner: &uplc.DataConstr{Tag: 0}}},
		)
	case uplc.TUnit:
		return bindName("_", term,
			&uplc.Constant{Con: &uplc.Data{Inner: &uplc.DataConstr{Tag: 0}}})
	case uplc.TList:
		if _, isPairList := uplcType.Typ.(uplc.TPair); isPairList {
			return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.MapData}, term)
		}
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.ListData}, term)
	case uplc.TPair:
		// A bare pair becomes a two-element data list.
		name := "__pair_to_wrap"
		pairVar := &uplc.Var{Name: uplc.Name{Text: name}}
		items := consData(
			uplc.ApplyTo(forcedBuiltin(uplc.FstPair), pairVar),
			consData(
				uplc.ApplyTo(forcedBuiltin(uplc.SndPair), pairVar),
				emptyDataList(),
			),
		)
		return bindName(name, term, uplc.ApplyTo(&uplc.Builtin{Fun: uplc.ListData}, items))
	default:
		return term
	}
}

// unwrapFromData is the inverse of wrapToData.
func unwrapFromData(term uplc.Term, tipo types.Type) uplc.Term {
	if tipo == nil {
		return term
	}
	switch uplcType := types.GetUplcType(tipo).(type) {
	case uplc.TInteger:
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.UnIData}, term)
	case uplc.TByteString:
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.UnBData}, term)
	case uplc.TString:
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.DecodeUtf8},
			uplc.ApplyTo(&uplc.Builtin{Fun: uplc.UnBData}, term))
	case uplc.TBool:
		tag := uplc.ApplyTo(
			forcedBuiltin(uplc.FstPair),
			uplc.ApplyTo(&uplc.Builtin{Fun: uplc.UnConstrData}, term),
		)
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.EqualsInteger},
			tag,
			&uplc.Constant{Con: &uplc.Integer{Inner: big.NewInt(1)}},
		)
	case uplc.TUnit:
		return bindName("_", term, &uplc.Constant{Con: &uplc.Unit{}})
	case uplc.TList:
		if _, isPairList := uplcType.Typ.(uplc.TPair); isPairList {
			return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.UnMapData}, term)
		}
		return uplc.ApplyTo(&uplc.Builtin{Fun: uplc.UnListData}, term)
	case uplc.TPair:
		name := "__list_to_pair"
		listVar := &uplc.Var{Name: uplc.Name{Text: name}}
		pair := uplc.ApplyTo(&uplc.Builtin{Fun: uplc.MkPairData},
			uplc.ApplyTo(forcedBuiltin(uplc.HeadList), listVar),
			nthItem(listVar, 1),
		)
		return bindName(name,
			uplc.ApplyTo(&uplc.Builtin{Fun: uplc.UnListData}, term),
			pair)
	default:
		return term
	}
}

func constrData(tag int, fields uplc.Term) uplc.Term {
	return uplc.ApplyTo(
		&uplc.Builtin{Fun: uplc.ConstrData},
		&uplc.Constant{Con: &uplc.Integer{Inner: big.NewInt(int64(tag))}},
		fields,
	)
}
