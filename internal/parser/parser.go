package parser

import (
	"fmt"

	"github.com/nanoofficial/nano/internal/ast"
	"github.com/nanoofficial/nano/internal/lexer"
)

// Parser consumes a token stream into an untyped module.
type Parser struct {
	tokens []lexer.Token
	pos    int
	errors []*ParseError
}

// ParseModule lexes and parses a whole source file.
func ParseModule(name, src string, kind ast.ModuleKind) (*ast.Module, []*ParseError) {
	p := &Parser{tokens: lexer.New(src).Tokens()}
	module := &ast.Module{Name: name, Kind: kind}

	for !p.at(lexer.EOF) {
		before := p.pos
		if def := p.parseDefinition(); def != nil {
			module.Definitions = append(module.Definitions, def)
		}
		if p.pos == before {
			// Always make progress, even on garbage.
			p.errorf(p.current().Location, "unexpected token '%s'", p.current().Literal)
			p.pos++
		}
	}

	return module, MergeErrors(p.errors)
}

// ParseExpr parses a single expression, for tests and the REPL.
func ParseExpr(src string) (ast.Expr, []*ParseError) {
	p := &Parser{tokens: lexer.New(src).Tokens()}
	expr := p.parseExpression(0)
	if !p.at(lexer.EOF) {
		p.errorf(p.current().Location, "unexpected trailing input")
	}
	return expr, MergeErrors(p.errors)
}

func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek() lexer.Token {
	if p.pos+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) at(tokenType lexer.TokenType) bool {
	return p.current().Type == tokenType
}

func (p *Parser) advance() lexer.Token {
	token := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return token
}

func (p *Parser) accept(tokenType lexer.TokenType) (lexer.Token, bool) {
	if p.at(tokenType) {
		return p.advance(), true
	}
	return lexer.Token{}, false
}

func (p *Parser) expect(tokenType lexer.TokenType) lexer.Token {
	if p.at(tokenType) {
		return p.advance()
	}
	p.errorf(p.current().Location, "expected '%s', found '%s'", tokenType, p.current().Literal)
	return p.current()
}

func (p *Parser) errorf(location ast.Span, format string, args ...any) {
	p.errors = append(p.errors, &ParseError{
		Message:  fmt.Sprintf(format, args...),
		Location: location,
	})
}

// parseDefinition parses one top-level item.
func (p *Parser) parseDefinition() ast.Definition {
	start := p.current().Location

	public := false
	if _, ok := p.accept(lexer.PUB); ok {
		public = true
	}
	opaque := false
	if _, ok := p.accept(lexer.OPAQUE); ok {
		opaque = true
	}

	switch p.current().Type {
	case lexer.USE:
		return p.parseUse(start)
	case lexer.TYPE:
		return p.parseTypeDefinition(start, public, opaque)
	case lexer.FN:
		return p.parseFunction(start, public)
	case lexer.CONST:
		return p.parseConst(start, public)
	case lexer.TEST:
		return p.parseTest(start)
	case lexer.VALIDATOR:
		return p.parseValidator(start)
	}
	return nil
}

func (p *Parser) parseUse(start ast.Span) ast.Definition {
	p.expect(lexer.USE)
	use := &ast.Use{Location: start}

	use.Module = append(use.Module, p.expect(lexer.NAME).Literal)
	for {
		if _, ok := p.accept(lexer.SLASH); !ok {
			break
		}
		use.Module = append(use.Module, p.expect(lexer.NAME).Literal)
	}

	if _, ok := p.accept(lexer.DOT); ok {
		p.expect(lexer.LBRACE)
		for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
			imported := ast.UnqualifiedImport{}
			token := p.advance()
			imported.Name = token.Literal
			imported.Location = token.Location
			if _, ok := p.accept(lexer.AS); ok {
				imported.As = p.advance().Literal
			}
			use.Unqualified = append(use.Unqualified, imported)
			if _, ok := p.accept(lexer.COMMA); !ok {
				break
			}
		}
		p.expect(lexer.RBRACE)
	}

	if _, ok := p.accept(lexer.AS); ok {
		use.As = p.expect(lexer.NAME).Literal
	}

	use.Location = start.Union(p.previousLocation())
	return use
}

func (p *Parser) previousLocation() ast.Span {
	if p.pos == 0 {
		return p.current().Location
	}
	return p.tokens[p.pos-1].Location
}

// parseTypeDefinition handles both data types and aliases:
//
//	type Name(params) { Constructor(..) ... }
//	type Name(params) = Annotation
func (p *Parser) parseTypeDefinition(start ast.Span, public, opaque bool) ast.Definition {
	p.expect(lexer.TYPE)
	name := p.expect(lexer.UPNAME)

	var parameters []string
	if _, ok := p.accept(lexer.LT); ok {
		for !p.at(lexer.GT) && !p.at(lexer.EOF) {
			parameters = append(parameters, p.expect(lexer.NAME).Literal)
			if _, ok := p.accept(lexer.COMMA); !ok {
				break
			}
		}
		p.expect(lexer.GT)
	}

	if _, ok := p.accept(lexer.EQ); ok {
		annotation := p.parseAnnotation()
		return &ast.TypeAlias{
			Alias:      name.Literal,
			Annotation: annotation,
			Location:   start.Union(p.previousLocation()),
			Parameters: parameters,
			Public:     public,
		}
	}

	dataType := &ast.DataType{
		Name:       name.Literal,
		Opaque:     opaque,
		Parameters: parameters,
		Public:     public,
	}
	p.expect(lexer.LBRACE)
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		dataType.Constructors = append(dataType.Constructors, p.parseConstructor())
	}
	p.expect(lexer.RBRACE)
	dataType.Location = start.Union(p.previousLocation())
	return dataType
}

func (p *Parser) parseConstructor() *ast.RecordConstructor {
	name := p.expect(lexer.UPNAME)
	constructor := &ast.RecordConstructor{Name: name.Literal, Location: name.Location}

	if _, ok := p.accept(lexer.LPAREN); !ok {
		if p.at(lexer.LBRACE) {
			// Record syntax: labelled fields.
			constructor.Sugar = true
			p.advance()
			for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
				label := p.expect(lexer.NAME)
				p.expect(lexer.COLON)
				annotation := p.parseAnnotation()
				constructor.Arguments = append(constructor.Arguments, &ast.RecordConstructorArg{
					Label:      label.Literal,
					Annotation: annotation,
					Location:   label.Location.Union(p.previousLocation()),
				})
				if _, ok := p.accept(lexer.COMMA); !ok {
					break
				}
			}
			p.expect(lexer.RBRACE)
		}
		constructor.Location = name.Location.Union(p.previousLocation())
		return constructor
	}

	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		argStart := p.current().Location
		label := ""
		if p.at(lexer.NAME) && p.peek().Type == lexer.COLON {
			label = p.advance().Literal
			p.advance()
		}
		annotation := p.parseAnnotation()
		constructor.Arguments = append(constructor.Arguments, &ast.RecordConstructorArg{
			Label:      label,
			Annotation: annotation,
			Location:   argStart.Union(p.previousLocation()),
		})
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	p.expect(lexer.RPAREN)
	constructor.Location = name.Location.Union(p.previousLocation())
	return constructor
}

func (p *Parser) parseFunction(start ast.Span, public bool) ast.Definition {
	p.expect(lexer.FN)
	name := p.expect(lexer.NAME)

	fn := &ast.Function{
		Name:   name.Literal,
		Public: public,
	}
	fn.Arguments = p.parseFnArgs()

	if _, ok := p.accept(lexer.ARROW); ok {
		fn.ReturnAnnotation = p.parseAnnotation()
	}

	fn.Body = p.parseBlock()
	fn.Location = start.Union(p.previousLocation())
	fn.EndPosition = fn.Location.End
	return fn
}

func (p *Parser) parseFnArgs() []*ast.Arg {
	p.expect(lexer.LPAREN)
	var args []*ast.Arg
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		argStart := p.current().Location
		argName := ast.ArgName{Location: argStart}
		switch p.current().Type {
		case lexer.DISCARD:
			argName.Name = p.advance().Literal
			argName.Discard = true
		default:
			argName.Name = p.expect(lexer.NAME).Literal
		}
		arg := &ast.Arg{Name: argName, Location: argStart}
		if _, ok := p.accept(lexer.COLON); ok {
			arg.Annotation = p.parseAnnotation()
		}
		arg.Location = argStart.Union(p.previousLocation())
		args = append(args, arg)
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	p.expect(lexer.RPAREN)
	return args
}

func (p *Parser) parseConst(start ast.Span, public bool) ast.Definition {
	p.expect(lexer.CONST)
	name := p.expect(lexer.NAME)

	constant := &ast.ModuleConstant{
		Name:   name.Literal,
		Public: public,
	}
	if _, ok := p.accept(lexer.COLON); ok {
		constant.Annotation = p.parseAnnotation()
	}
	p.expect(lexer.EQ)
	constant.Value = p.parseConstantValue()
	constant.Location = start.Union(p.previousLocation())
	return constant
}

func (p *Parser) parseConstantValue() ast.Constant {
	token := p.current()
	switch token.Type {
	case lexer.INT:
		p.advance()
		return &ast.ConstInt{Location: token.Location, Value: token.Literal}
	case lexer.STRING:
		p.advance()
		return &ast.ConstString{Location: token.Location, Value: token.Literal}
	case lexer.BYTES:
		p.advance()
		return &ast.ConstByteArray{Location: token.Location, Bytes: token.Bytes}
	}
	p.errorf(token.Location, "constants must be integers, strings, or bytearrays")
	p.advance()
	return &ast.ConstInt{Location: token.Location, Value: "0"}
}

func (p *Parser) parseTest(start ast.Span) ast.Definition {
	p.expect(lexer.TEST)
	name := p.expect(lexer.NAME)
	p.expect(lexer.LPAREN)
	p.expect(lexer.RPAREN)

	fn := &ast.Function{Name: name.Literal}
	fn.Body = p.parseBlock()
	fn.Location = start.Union(p.previousLocation())
	fn.EndPosition = fn.Location.End
	return &ast.Test{Function: fn}
}

// parseValidator parses `validator (params) { fn handler(..) { .. } }`.
func (p *Parser) parseValidator(start ast.Span) ast.Definition {
	p.expect(lexer.VALIDATOR)

	validator := &ast.Validator{}
	if p.at(lexer.LPAREN) {
		validator.Params = p.parseFnArgs()
	}

	p.expect(lexer.LBRACE)
	if fn, ok := p.parseDefinition().(*ast.Function); ok {
		validator.Fun = fn
	} else {
		p.errorf(p.current().Location, "a validator must contain a function")
	}
	p.expect(lexer.RBRACE)

	validator.Location = start.Union(p.previousLocation())
	validator.EndPos = validator.Location.End
	return validator
}

// parseBlock parses `{ expr* }` into a single expression, wrapping
// multiple expressions in a sequence.
func (p *Parser) parseBlock() ast.Expr {
	start := p.expect(lexer.LBRACE).Location

	var expressions []ast.Expr
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		before := p.pos
		expressions = append(expressions, p.parseExpression(0))
		if p.pos == before {
			p.errorf(p.current().Location, "unexpected token '%s'", p.current().Literal)
			p.pos++
		}
	}
	end := p.expect(lexer.RBRACE).Location

	switch len(expressions) {
	case 0:
		p.errorf(start.Union(end), "blocks must contain at least one expression")
		return &ast.ErrorTerm{Location: start.Union(end)}
	case 1:
		return expressions[0]
	default:
		return &ast.Sequence{Location: start.Union(end), Expressions: expressions}
	}
}
