package parser

import (
	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/token"
)

func (p *Parser) parsePattern() ast.Pattern {
	pat := p.parsePrimaryPattern()
	if p.check(token.DOTDOT) || p.check(token.DOTDOTEQ) {
		inclusive := p.cur().Type == token.DOTDOTEQ
		p.advance()
		end := p.parsePrimaryPattern()
		if lit, ok := pat.(*ast.LiteralPattern); ok {
			if endLit, ok2 := end.(*ast.LiteralPattern); ok2 {
				lit.RangeEnd = endLit.Value
				lit.Inclusive = inclusive
				return lit
			}
		}
		return pat
	}
	if p.match(token.AT) {
		if ip, ok := pat.(*ast.IdentPattern); ok {
			ip.Sub = p.parsePrimaryPattern()
			return ip
		}
	}
	return pat
}

func (p *Parser) parsePrimaryPattern() ast.Pattern {
	tok := p.cur()
	switch tok.Type {
	case token.UNDERSCORE:
		p.advance()
		return &ast.WildcardPattern{Base: ast.Base{Tok: tok}}
	case token.DOTDOT:
		p.advance()
		return &ast.RestPattern{Base: ast.Base{Tok: tok}}
	case token.AMP:
		p.advance()
		mut := p.match(token.MUT)
		inner := p.parsePrimaryPattern()
		return &ast.RefPattern{Base: ast.Base{Tok: tok}, Mut: mut, Pattern: inner}
	case token.MINUS, token.INT, token.FLOAT, token.STRING, token.CHAR, token.TRUE, token.FALSE:
		val := p.parseExpr(precUnary)
		return &ast.LiteralPattern{Base: ast.Base{Tok: tok}, Value: val}
	case token.LPAREN:
		p.advance()
		var elems []ast.Pattern
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			elems = append(elems, p.parsePattern())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN, ")")
		return &ast.TuplePattern{Base: ast.Base{Tok: tok}, Elems: elems}
	case token.MUT:
		p.advance()
		name := p.expect(token.IDENT, "binding name").Lexeme
		return &ast.IdentPattern{Base: ast.Base{Tok: tok}, Name: name, Mut: true}
	case token.IDENT, token.SELF_TYPE, token.SELF_VALUE, token.SUPER, token.CRATE, token.COLONCOLON:
		return p.parsePathOrIdentPattern()
	default:
		p.errorf("unexpected token %q in pattern", tok.Lexeme)
		p.advance()
		return &ast.WildcardPattern{Base: ast.Base{Tok: tok}}
	}
}

func (p *Parser) parsePathOrIdentPattern() ast.Pattern {
	tok := p.cur()
	segs := p.parsePathSegments()

	if len(segs) == 1 && !p.check(token.LPAREN) && !p.check(token.LBRACE) {
		// Bare lowercase-leading single segment is a new binding; a
		// capitalized/path name with no following delimiter is a unit
		// struct/enum-variant pattern. Name-resolution disambiguates this
		// properly; here we use the conventional casing heuristic the
		// language itself relies on.
		name := segs[0]
		if len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z' {
			return &ast.PathPattern{Base: ast.Base{Tok: tok}, Path: segs}
		}
		return &ast.IdentPattern{Base: ast.Base{Tok: tok}, Name: name}
	}

	sp := &ast.StructPattern{Base: ast.Base{Tok: tok}, Path: segs}
	switch {
	case p.match(token.LPAREN):
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			sp.TupleElems = append(sp.TupleElems, p.parsePattern())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN, ")")
	case p.match(token.LBRACE):
		for !p.check(token.RBRACE) && !p.check(token.EOF) {
			if p.match(token.DOTDOT) {
				sp.HasRest = true
				break
			}
			fname := p.expect(token.IDENT, "field name").Lexeme
			var fpat ast.Pattern
			if p.match(token.COLON) {
				fpat = p.parsePattern()
			} else {
				fpat = &ast.IdentPattern{Base: ast.Base{Tok: tok}, Name: fname}
			}
			sp.Fields = append(sp.Fields, ast.FieldPattern{Name: fname, Pattern: fpat})
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RBRACE, "}")
	default:
		return &ast.PathPattern{Base: ast.Base{Tok: tok}, Path: segs}
	}
	return sp
}
