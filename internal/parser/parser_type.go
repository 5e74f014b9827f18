package parser

import (
	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/token"
)

func (p *Parser) parseType() ast.TypeExpr {
	tok := p.cur()
	switch tok.Type {
	case token.AMP:
		p.advance()
		mut := p.match(token.MUT)
		target := p.parseType()
		return &ast.RefType{Base: ast.Base{Tok: tok}, Mut: mut, Target: target}
	case token.UNDERSCORE:
		p.advance()
		return &ast.InferType{Base: ast.Base{Tok: tok}}
	case token.BANG:
		p.advance()
		return &ast.NeverType{Base: ast.Base{Tok: tok}}
	case token.LPAREN:
		p.advance()
		var elems []ast.TypeExpr
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			elems = append(elems, p.parseType())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN, ")")
		return &ast.TupleType{Base: ast.Base{Tok: tok}, Elems: elems}
	case token.LBRACKET:
		p.advance()
		elem := p.parseType()
		if p.match(token.SEMI) {
			n := p.parseExpr(precLowest)
			p.expect(token.RBRACKET, "]")
			return &ast.ArrayType{Base: ast.Base{Tok: tok}, Elem: elem, Len: n}
		}
		p.expect(token.RBRACKET, "]")
		return &ast.SliceType{Base: ast.Base{Tok: tok}, Elem: elem}
	case token.FN:
		p.advance()
		p.expect(token.LPAREN, "(")
		var params []ast.TypeExpr
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			params = append(params, p.parseType())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN, ")")
		var ret ast.TypeExpr
		if p.match(token.ARROW) {
			ret = p.parseType()
		}
		return &ast.FnType{Base: ast.Base{Tok: tok}, Params: params, Ret: ret}
	case token.IDENT:
		if tok.Lexeme == "Fn" || tok.Lexeme == "FnMut" || tok.Lexeme == "FnOnce" {
			return p.parseFnTraitSugar()
		}
		return p.parsePathType()
	case token.SELF_TYPE, token.SUPER, token.CRATE, token.COLONCOLON:
		return p.parsePathType()
	default:
		p.errorf("expected type, found %q", tok.Lexeme)
		p.advance()
		return &ast.InferType{Base: ast.Base{Tok: tok}}
	}
}

func (p *Parser) parseFnTraitSugar() ast.TypeExpr {
	tok := p.advance()
	p.expect(token.LPAREN, "(")
	var params []ast.TypeExpr
	for !p.check(token.RPAREN) && !p.check(token.EOF) {
		params = append(params, p.parseType())
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN, ")")
	var ret ast.TypeExpr
	if p.match(token.ARROW) {
		ret = p.parseType()
	}
	return &ast.FnType{Base: ast.Base{Tok: tok}, Params: params, Ret: ret, IsTrait: true}
}

func (p *Parser) parsePathType() ast.TypeExpr {
	tok := p.cur()
	segs := p.parsePathSegments()
	var generics []ast.TypeExpr
	if p.match(token.LT) {
		for !p.check(token.GT) && !p.check(token.EOF) {
			generics = append(generics, p.parseType())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.GT, ">")
	}
	return &ast.PathType{Base: ast.Base{Tok: tok}, Segments: segs, Generics: generics}
}
