package parser

import (
	"github.com/nanoofficial/nano/internal/ast"
	"github.com/nanoofficial/nano/internal/lexer"
)

// parsePattern parses one match pattern, including `name as inner`
// assignments.
func (p *Parser) parsePattern() ast.Pattern {
	pattern := p.parsePatternPrimary()
	if _, ok := p.accept(lexer.AS); ok {
		name := p.expect(lexer.NAME)
		return &ast.PatternAssign{
			Location: pattern.PatternLocation().Union(name.Location),
			Name:     name.Literal,
			Pattern:  pattern,
		}
	}
	return pattern
}

func (p *Parser) parsePatternPrimary() ast.Pattern {
	token := p.current()
	switch token.Type {
	case lexer.INT:
		p.advance()
		return &ast.PatternInt{Location: token.Location, Value: token.Literal}

	case lexer.NAME:
		if p.peek().Type == lexer.DOT {
			return p.parseQualifiedConstructorPattern()
		}
		p.advance()
		return &ast.PatternVar{Location: token.Location, Name: token.Literal}

	case lexer.DISCARD:
		p.advance()
		return &ast.PatternDiscard{Location: token.Location, Name: token.Literal}

	case lexer.UPNAME:
		return p.parseConstructorPattern()

	case lexer.LBRACKET:
		return p.parseListPattern()

	case lexer.LPAREN:
		return p.parseTuplePattern()
	}

	p.errorf(token.Location, "unexpected token '%s' in pattern", token.Literal)
	p.advance()
	return &ast.PatternDiscard{Location: token.Location, Name: "_"}
}

func (p *Parser) parseConstructorPattern() ast.Pattern {
	name := p.expect(lexer.UPNAME)
	pattern := &ast.PatternConstructor{
		Location: name.Location,
		Name:     name.Literal,
	}

	p.parseConstructorPatternArgs(pattern)
	return pattern
}

func (p *Parser) parseConstructorPatternArgs(pattern *ast.PatternConstructor) {
	if _, ok := p.accept(lexer.LPAREN); !ok {
		return
	}
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		if spread, ok := p.accept(lexer.DOTDOT); ok {
			pattern.WithSpread = true
			pattern.SpreadLoc = spread.Location
			break
		}
		argStart := p.current().Location
		label := ""
		if p.at(lexer.NAME) && p.peek().Type == lexer.COLON {
			pattern.IsRecord = true
			label = p.advance().Literal
			p.advance()
		}
		value := p.parsePattern()
		pattern.Arguments = append(pattern.Arguments, ast.CallArg[ast.Pattern]{
			Label:    label,
			Location: argStart.Union(p.previousLocation()),
			Value:    value,
		})
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	p.expect(lexer.RPAREN)
	pattern.Location = pattern.Location.Union(p.previousLocation())
}

// parseQualifiedConstructorPattern handles module.Constructor patterns.
func (p *Parser) parseQualifiedConstructorPattern() ast.Pattern {
	module := p.expect(lexer.NAME)
	p.expect(lexer.DOT)
	name := p.expect(lexer.UPNAME)

	pattern := &ast.PatternConstructor{
		Location: module.Location.Union(name.Location),
		Module:   module.Literal,
		Name:     name.Literal,
	}
	p.parseConstructorPatternArgs(pattern)
	return pattern
}

func (p *Parser) parseListPattern() ast.Pattern {
	start := p.expect(lexer.LBRACKET).Location
	pattern := &ast.PatternList{}
	for !p.at(lexer.RBRACKET) && !p.at(lexer.EOF) {
		if _, ok := p.accept(lexer.DOTDOT); ok {
			if p.at(lexer.NAME) || p.at(lexer.DISCARD) {
				pattern.Tail = p.parsePatternPrimary()
			} else {
				end := p.previousLocation()
				pattern.Tail = &ast.PatternDiscard{Location: end, Name: "_"}
			}
			break
		}
		pattern.Elements = append(pattern.Elements, p.parsePattern())
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	end := p.expect(lexer.RBRACKET).Location
	pattern.Location = start.Union(end)
	return pattern
}

func (p *Parser) parseTuplePattern() ast.Pattern {
	start := p.expect(lexer.LPAREN).Location
	pattern := &ast.PatternTuple{}
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		pattern.Elems = append(pattern.Elems, p.parsePattern())
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	end := p.expect(lexer.RPAREN).Location
	pattern.Location = start.Union(end)
	return pattern
}

// parseAnnotation parses a type annotation.
func (p *Parser) parseAnnotation() ast.Annotation {
	token := p.current()
	switch token.Type {
	case lexer.UPNAME:
		p.advance()
		annotation := &ast.AnnConstructor{
			Location: token.Location,
			Name:     token.Literal,
		}
		if _, ok := p.accept(lexer.LT); ok {
			for !p.at(lexer.GT) && !p.at(lexer.EOF) {
				annotation.Arguments = append(annotation.Arguments, p.parseAnnotation())
				if _, ok := p.accept(lexer.COMMA); !ok {
					break
				}
			}
			p.expect(lexer.GT)
		}
		annotation.Location = token.Location.Union(p.previousLocation())
		return annotation

	case lexer.NAME:
		// A qualified type: module.Type.
		if p.peek().Type == lexer.DOT {
			module := p.advance()
			p.advance()
			name := p.expect(lexer.UPNAME)
			annotation := &ast.AnnConstructor{
				Location: module.Location.Union(name.Location),
				Module:   module.Literal,
				Name:     name.Literal,
			}
			if _, ok := p.accept(lexer.LT); ok {
				for !p.at(lexer.GT) && !p.at(lexer.EOF) {
					annotation.Arguments = append(annotation.Arguments, p.parseAnnotation())
					if _, ok := p.accept(lexer.COMMA); !ok {
						break
					}
				}
				p.expect(lexer.GT)
			}
			annotation.Location = annotation.Location.Union(p.previousLocation())
			return annotation
		}
		p.advance()
		return &ast.AnnVar{Location: token.Location, Name: token.Literal}

	case lexer.DISCARD:
		p.advance()
		return &ast.AnnHole{Location: token.Location, Name: token.Literal}

	case lexer.FN:
		p.advance()
		annotation := &ast.AnnFn{Location: token.Location}
		p.expect(lexer.LPAREN)
		for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
			annotation.Arguments = append(annotation.Arguments, p.parseAnnotation())
			if _, ok := p.accept(lexer.COMMA); !ok {
				break
			}
		}
		p.expect(lexer.RPAREN)
		p.expect(lexer.ARROW)
		annotation.Ret = p.parseAnnotation()
		annotation.Location = token.Location.Union(p.previousLocation())
		return annotation

	case lexer.LPAREN:
		p.advance()
		annotation := &ast.AnnTuple{Location: token.Location}
		for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
			annotation.Elems = append(annotation.Elems, p.parseAnnotation())
			if _, ok := p.accept(lexer.COMMA); !ok {
				break
			}
		}
		p.expect(lexer.RPAREN)
		annotation.Location = token.Location.Union(p.previousLocation())
		return annotation
	}

	p.errorf(token.Location, "expected a type annotation")
	p.advance()
	return &ast.AnnHole{Location: token.Location, Name: "_"}
}
