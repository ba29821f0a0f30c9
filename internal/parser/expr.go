package parser

import (
	"strconv"

	"github.com/nanoofficial/nano/internal/ast"
	"github.com/nanoofficial/nano/internal/lexer"
)

var binOpTokens = map[lexer.TokenType]ast.BinOp{
	lexer.AMPAMP:   ast.BinOpAnd,
	lexer.AND:      ast.BinOpAnd,
	lexer.PIPEPIPE: ast.BinOpOr,
	lexer.OR:       ast.BinOpOr,
	lexer.EQEQ:     ast.BinOpEq,
	lexer.NOTEQ:    ast.BinOpNotEq,
	lexer.LT:       ast.BinOpLtInt,
	lexer.LTEQ:     ast.BinOpLtEqInt,
	lexer.GT:       ast.BinOpGtInt,
	lexer.GTEQ:     ast.BinOpGtEqInt,
	lexer.PLUS:     ast.BinOpAddInt,
	lexer.MINUS:    ast.BinOpSubInt,
	lexer.STAR:     ast.BinOpMultInt,
	lexer.SLASH:    ast.BinOpDivInt,
	lexer.PERCENT:  ast.BinOpModInt,
}

// parseExpression parses with precedence climbing; pipelines sit below
// every binary operator.
func (p *Parser) parseExpression(minPrecedence int) ast.Expr {
	expr := p.parseBinary(minPrecedence)

	if p.at(lexer.PIPEGT) && minPrecedence == 0 {
		pipeline := &ast.PipeLine{Expressions: []ast.Expr{expr}}
		for {
			if _, ok := p.accept(lexer.PIPEGT); !ok {
				break
			}
			pipeline.Expressions = append(pipeline.Expressions, p.parseBinary(1))
		}
		return pipeline
	}
	return expr
}

func (p *Parser) parseBinary(minPrecedence int) ast.Expr {
	left := p.parseUnary()
	for {
		op, ok := binOpTokens[p.current().Type]
		if !ok || op.Precedence() < minPrecedence {
			return left
		}
		p.advance()
		right := p.parseBinary(op.Precedence() + 1)
		left = &ast.BinOpExpr{
			Location: left.ExprLocation().Union(right.ExprLocation()),
			Name:     op,
			Left:     left,
			Right:    right,
		}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.current().Type {
	case lexer.BANG:
		token := p.advance()
		value := p.parseUnary()
		return &ast.UnOpExpr{
			Location: token.Location.Union(value.ExprLocation()),
			Op:       ast.UnOpNot,
			Value:    value,
		}
	case lexer.MINUS:
		token := p.advance()
		value := p.parseUnary()
		return &ast.UnOpExpr{
			Location: token.Location.Union(value.ExprLocation()),
			Op:       ast.UnOpNegate,
			Value:    value,
		}
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary expression followed by calls, field
// accesses and tuple indexes.
func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for {
		switch p.current().Type {
		case lexer.LPAREN:
			expr = p.parseCall(expr)
		case lexer.DOT:
			p.advance()
			expr = p.parseAccess(expr)
		default:
			return expr
		}
	}
}

func (p *Parser) parseCall(fun ast.Expr) ast.Expr {
	start := p.expect(lexer.LPAREN).Location
	var args []ast.CallArg[ast.Expr]
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		argStart := p.current().Location
		label := ""
		if p.at(lexer.NAME) && p.peek().Type == lexer.COLON {
			label = p.advance().Literal
			p.advance()
		}
		value := p.parseExpression(0)
		args = append(args, ast.CallArg[ast.Expr]{
			Label:    label,
			Location: argStart.Union(p.previousLocation()),
			Value:    value,
		})
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	end := p.expect(lexer.RPAREN).Location
	return &ast.Call{
		Location:  fun.ExprLocation().Union(start).Union(end),
		Fun:       fun,
		Arguments: args,
	}
}

// parseAccess handles `.label` and ordinal tuple indexes like `.1st`.
func (p *Parser) parseAccess(container ast.Expr) ast.Expr {
	token := p.current()
	switch token.Type {
	case lexer.NAME, lexer.UPNAME:
		p.advance()
		return &ast.FieldAccess{
			Location:  container.ExprLocation().Union(token.Location),
			Label:     token.Literal,
			Container: container,
		}
	case lexer.INT:
		p.advance()
		index, _ := strconv.Atoi(token.Literal)
		if suffix, ok := p.accept(lexer.NAME); ok && suffix.Literal == ordinalSuffix(index) {
			return &ast.TupleIndex{
				Location: container.ExprLocation().Union(suffix.Location),
				Index:    index - 1,
				Tuple:    container,
			}
		}
		p.errors = append(p.errors, &ParseError{
			Message:  "invalid tuple index",
			Location: token.Location,
			Hint:     "try '" + token.Literal + ordinalSuffix(index) + "'",
		})
		return &ast.TupleIndex{
			Location: container.ExprLocation().Union(token.Location),
			Index:    index - 1,
			Tuple:    container,
		}
	}
	p.errorf(token.Location, "expected a field name after '.'")
	return container
}

func ordinalSuffix(n int) string {
	switch {
	case n%100 >= 11 && n%100 <= 13:
		return "th"
	case n%10 == 1:
		return "st"
	case n%10 == 2:
		return "nd"
	case n%10 == 3:
		return "rd"
	default:
		return "th"
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	token := p.current()
	switch token.Type {
	case lexer.INT:
		p.advance()
		return &ast.Int{Location: token.Location, Value: token.Literal}

	case lexer.STRING:
		p.advance()
		return &ast.String{Location: token.Location, Value: token.Literal}

	case lexer.BYTES:
		p.advance()
		return &ast.ByteArray{Location: token.Location, Bytes: token.Bytes}

	case lexer.NAME:
		p.advance()
		return &ast.Var{Location: token.Location, Name: token.Literal}

	case lexer.UPNAME:
		p.advance()
		expr := ast.Expr(&ast.Var{Location: token.Location, Name: token.Literal})
		if p.at(lexer.LBRACE) && p.recordUpdateAhead() {
			return p.parseRecordUpdate(expr)
		}
		return expr

	case lexer.LBRACKET:
		return p.parseList()

	case lexer.LPAREN:
		return p.parseParenOrTuple()

	case lexer.FN:
		return p.parseAnonymousFn()

	case lexer.LET, lexer.EXPECT:
		return p.parseAssignment()

	case lexer.WHEN:
		return p.parseWhen()

	case lexer.IF:
		return p.parseIf()

	case lexer.TRACE:
		return p.parseTrace()

	case lexer.TODO:
		p.advance()
		trace := &ast.Trace{Kind: ast.TraceKindTodo, Location: token.Location}
		if p.at(lexer.STRING) {
			text := p.advance()
			trace.Text = &ast.String{Location: text.Location, Value: text.Literal}
			trace.Location = token.Location.Union(text.Location)
		}
		return trace

	case lexer.FAIL:
		p.advance()
		trace := &ast.Trace{Kind: ast.TraceKindError, Location: token.Location}
		if p.at(lexer.STRING) {
			text := p.advance()
			trace.Text = &ast.String{Location: text.Location, Value: text.Literal}
			trace.Location = token.Location.Union(text.Location)
		}
		return trace

	case lexer.LBRACE:
		return p.parseBlock()
	}

	p.errorf(token.Location, "unexpected token '%s'", token.Literal)
	p.advance()
	return &ast.ErrorTerm{Location: token.Location}
}

// recordUpdateAhead distinguishes `Constructor { ..base, .. }` from a
// trailing block.
func (p *Parser) recordUpdateAhead() bool {
	return p.peek().Type == lexer.DOTDOT
}

func (p *Parser) parseRecordUpdate(constructor ast.Expr) ast.Expr {
	start := p.expect(lexer.LBRACE).Location
	spreadStart := p.expect(lexer.DOTDOT).Location
	base := p.parseExpression(0)
	spread := &ast.RecordUpdateSpread{
		Base:     base,
		Location: spreadStart.Union(base.ExprLocation()),
	}

	var args []ast.CallArg[ast.Expr]
	for {
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
		if p.at(lexer.RBRACE) {
			break
		}
		label := p.expect(lexer.NAME)
		p.expect(lexer.COLON)
		value := p.parseExpression(0)
		args = append(args, ast.CallArg[ast.Expr]{
			Label:    label.Literal,
			Location: label.Location.Union(value.ExprLocation()),
			Value:    value,
		})
	}
	end := p.expect(lexer.RBRACE).Location

	return &ast.RecordUpdate{
		Location:    constructor.ExprLocation().Union(start).Union(end),
		Constructor: constructor,
		Spread:      spread,
		Arguments:   args,
	}
}

func (p *Parser) parseList() ast.Expr {
	start := p.expect(lexer.LBRACKET).Location
	list := &ast.List{}
	for !p.at(lexer.RBRACKET) && !p.at(lexer.EOF) {
		if _, ok := p.accept(lexer.DOTDOT); ok {
			list.Tail = p.parseExpression(0)
			break
		}
		list.Elements = append(list.Elements, p.parseExpression(0))
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	end := p.expect(lexer.RBRACKET).Location
	list.Location = start.Union(end)
	return list
}

func (p *Parser) parseParenOrTuple() ast.Expr {
	start := p.expect(lexer.LPAREN).Location
	first := p.parseExpression(0)
	if _, ok := p.accept(lexer.COMMA); !ok {
		p.expect(lexer.RPAREN)
		return first
	}

	elems := []ast.Expr{first}
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		elems = append(elems, p.parseExpression(0))
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	end := p.expect(lexer.RPAREN).Location
	return &ast.TupleExpr{Location: start.Union(end), Elems: elems}
}

func (p *Parser) parseAnonymousFn() ast.Expr {
	start := p.expect(lexer.FN).Location
	fn := &ast.Fn{}
	fn.Arguments = p.parseFnArgs()
	if _, ok := p.accept(lexer.ARROW); ok {
		fn.ReturnAnnotation = p.parseAnnotation()
	}
	fn.Body = p.parseBlock()
	fn.Location = start.Union(p.previousLocation())
	return fn
}

func (p *Parser) parseAssignment() ast.Expr {
	token := p.advance()
	kind := ast.AssignmentLet
	if token.Type == lexer.EXPECT {
		kind = ast.AssignmentExpect
	}

	assignment := &ast.Assignment{Kind: kind}
	assignment.Pattern = p.parsePattern()
	if _, ok := p.accept(lexer.COLON); ok {
		assignment.Annotation = p.parseAnnotation()
	}
	p.expect(lexer.EQ)
	assignment.Value = p.parseExpression(0)
	assignment.Location = token.Location.Union(assignment.Value.ExprLocation())
	return assignment
}

func (p *Parser) parseWhen() ast.Expr {
	start := p.expect(lexer.WHEN).Location
	subject := p.parseExpression(0)
	p.expect(lexer.IS)
	p.expect(lexer.LBRACE)

	when := &ast.When{Subject: subject}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		when.Clauses = append(when.Clauses, p.parseClause())
	}
	end := p.expect(lexer.RBRACE).Location
	when.Location = start.Union(end)
	return when
}

func (p *Parser) parseClause() *ast.Clause {
	clause := &ast.Clause{}
	start := p.current().Location

	clause.Patterns = append(clause.Patterns, p.parsePattern())
	for {
		if _, ok := p.accept(lexer.PIPE); !ok {
			break
		}
		clause.Patterns = append(clause.Patterns, p.parsePattern())
	}

	if _, ok := p.accept(lexer.IF); ok {
		clause.Guard = p.parseClauseGuard(0)
	}

	p.expect(lexer.ARROW)
	clause.Then = p.parseExpression(0)
	clause.Location = start.Union(clause.Then.ExprLocation())
	return clause
}

// parseClauseGuard parses the restricted guard grammar: names, constants,
// comparisons, and boolean connectives.
func (p *Parser) parseClauseGuard(minPrecedence int) ast.ClauseGuard {
	left := p.parseGuardPrimary()
	for {
		op, ok := binOpTokens[p.current().Type]
		if !ok || op.Precedence() < minPrecedence {
			return left
		}
		p.advance()
		right := p.parseClauseGuard(op.Precedence() + 1)
		left = &ast.GuardBinOp{
			Location: left.GuardLocation().Union(right.GuardLocation()),
			Name:     op,
			Left:     left,
			Right:    right,
		}
	}
}

func (p *Parser) parseGuardPrimary() ast.ClauseGuard {
	token := p.current()
	switch token.Type {
	case lexer.BANG:
		p.advance()
		value := p.parseGuardPrimary()
		return &ast.GuardNot{Location: token.Location.Union(value.GuardLocation()), Value: value}
	case lexer.NAME:
		p.advance()
		return &ast.GuardVar{Location: token.Location, Name: token.Literal}
	case lexer.INT:
		p.advance()
		return &ast.GuardConstant{
			Location: token.Location,
			Value:    &ast.ConstInt{Location: token.Location, Value: token.Literal},
		}
	case lexer.STRING:
		p.advance()
		return &ast.GuardConstant{
			Location: token.Location,
			Value:    &ast.ConstString{Location: token.Location, Value: token.Literal},
		}
	case lexer.BYTES:
		p.advance()
		return &ast.GuardConstant{
			Location: token.Location,
			Value:    &ast.ConstByteArray{Location: token.Location, Bytes: token.Bytes},
		}
	case lexer.LPAREN:
		p.advance()
		guard := p.parseClauseGuard(0)
		p.expect(lexer.RPAREN)
		return guard
	}
	p.errorf(token.Location, "invalid when-clause guard")
	p.advance()
	return &ast.GuardVar{Location: token.Location, Name: token.Literal}
}

func (p *Parser) parseIf() ast.Expr {
	start := p.expect(lexer.IF).Location
	ifExpr := &ast.If{}

	for {
		branchStart := p.previousLocation()
		condition := p.parseExpression(0)
		body := p.parseBlock()
		ifExpr.Branches = append(ifExpr.Branches, &ast.IfBranch{
			Condition: condition,
			Body:      body,
			Location:  branchStart.Union(p.previousLocation()),
		})
		p.expect(lexer.ELSE)
		if _, ok := p.accept(lexer.IF); !ok {
			break
		}
	}
	ifExpr.FinalElse = p.parseBlock()
	ifExpr.Location = start.Union(p.previousLocation())
	return ifExpr
}

func (p *Parser) parseTrace() ast.Expr {
	start := p.expect(lexer.TRACE).Location
	text := p.parseExpression(0)
	return &ast.Trace{
		Kind:     ast.TraceKindTrace,
		Location: start.Union(text.ExprLocation()),
		Text:     text,
		// The continuation is the rest of the enclosing block; the
		// checker fills it in when the trace stands alone.
		Then: &ast.Var{Location: start, Name: "Void"},
	}
}
