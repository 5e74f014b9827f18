package parser

import (
	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/token"
)

func (p *Parser) parseModDecl(attrs []ast.Attribute, pub bool) ast.Item {
	tok := p.advance() // 'mod'
	name := p.expect(token.IDENT, "module name").Lexeme
	pathOverride := ""
	for _, a := range attrs {
		if a.Name == "path" && len(a.Args) > 0 {
			pathOverride = a.Args[0]
		}
	}
	m := &ast.ModDecl{Base: ast.Base{Tok: tok}, Name: name, Attrs: attrs, Pub: pub, PathOverride: pathOverride}
	if p.match(token.SEMI) {
		return m
	}
	p.expect(token.LBRACE, "{")
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		if item := p.parseItem(); item != nil {
			m.Items = append(m.Items, item)
		}
	}
	p.expect(token.RBRACE, "}")
	return m
}

func (p *Parser) parseUseTree() *ast.UseTree {
	tree := &ast.UseTree{}
	for {
		if p.check(token.LBRACE) {
			p.advance()
			for !p.check(token.RBRACE) && !p.check(token.EOF) {
				tree.Group = append(tree.Group, p.parseUseTree())
				if !p.match(token.COMMA) {
					break
				}
			}
			p.expect(token.RBRACE, "}")
			return tree
		}
		if p.match(token.STAR) {
			tree.Glob = true
			return tree
		}
		seg := p.advance().Lexeme
		tree.Segments = append(tree.Segments, seg)
		if p.match(token.AS) {
			tree.Alias = p.expect(token.IDENT, "alias name").Lexeme
			return tree
		}
		if !p.match(token.COLONCOLON) {
			return tree
		}
	}
}

func (p *Parser) parseUseDecl(pub bool) ast.Item {
	tok := p.advance() // 'use'
	tree := p.parseUseTree()
	p.expect(token.SEMI, ";")
	return &ast.UseDecl{Base: ast.Base{Tok: tok}, Tree: tree, Pub: pub}
}

func (p *Parser) parseFieldList() []ast.Field {
	var fields []ast.Field
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		fieldPub := p.match(token.PUB)
		nameTok := p.expect(token.IDENT, "field name")
		p.expect(token.COLON, ":")
		typ := p.parseType()
		fields = append(fields, ast.Field{Base: ast.Base{Tok: nameTok}, Name: nameTok.Lexeme, Type: typ, Pub: fieldPub})
		if !p.match(token.COMMA) {
			break
		}
	}
	return fields
}

func (p *Parser) parseStructDecl(pub bool) ast.Item {
	tok := p.advance() // 'struct'
	name := p.expect(token.IDENT, "struct name").Lexeme
	generics := p.parseGenerics()
	s := &ast.StructDecl{Base: ast.Base{Tok: tok}, Name: name, Generics: generics, Pub: pub}

	switch {
	case p.match(token.LPAREN):
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			s.TupleField = append(s.TupleField, p.parseType())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN, ")")
		p.expect(token.SEMI, ";")
	case p.match(token.LBRACE):
		s.Fields = p.parseFieldList()
		p.expect(token.RBRACE, "}")
	default:
		p.match(token.SEMI) // unit struct `struct Foo;`
	}
	return s
}

func (p *Parser) parseEnumDecl(pub bool) ast.Item {
	tok := p.advance() // 'enum'
	name := p.expect(token.IDENT, "enum name").Lexeme
	generics := p.parseGenerics()
	e := &ast.EnumDecl{Base: ast.Base{Tok: tok}, Name: name, Generics: generics, Pub: pub}
	p.expect(token.LBRACE, "{")
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		vTok := p.cur()
		vName := p.expect(token.IDENT, "variant name").Lexeme
		variant := ast.EnumVariant{Base: ast.Base{Tok: vTok}, Name: vName}
		switch {
		case p.match(token.LPAREN):
			for !p.check(token.RPAREN) && !p.check(token.EOF) {
				variant.TupleField = append(variant.TupleField, p.parseType())
				if !p.match(token.COMMA) {
					break
				}
			}
			p.expect(token.RPAREN, ")")
		case p.match(token.LBRACE):
			variant.Fields = p.parseFieldList()
			p.expect(token.RBRACE, "}")
		}
		e.Variants = append(e.Variants, variant)
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACE, "}")
	return e
}

func (p *Parser) parseParams() []ast.Param {
	p.expect(token.LPAREN, "(")
	var params []ast.Param
	for !p.check(token.RPAREN) && !p.check(token.EOF) {
		tok := p.cur()
		if p.check(token.AMP) {
			p.advance()
			mut := p.match(token.MUT)
			if p.check(token.SELF_VALUE) {
				p.advance()
				params = append(params, ast.Param{Base: ast.Base{Tok: tok}, IsSelf: true, SelfRef: true, Pattern: &ast.IdentPattern{Base: ast.Base{Tok: tok}, Name: "self", Mut: mut}})
				if !p.match(token.COMMA) {
					break
				}
				continue
			}
		}
		if p.check(token.SELF_VALUE) {
			p.advance()
			params = append(params, ast.Param{Base: ast.Base{Tok: tok}, IsSelf: true, Pattern: &ast.IdentPattern{Base: ast.Base{Tok: tok}, Name: "self"}})
			if !p.match(token.COMMA) {
				break
			}
			continue
		}
		pat := p.parsePattern()
		var typ ast.TypeExpr
		if p.match(token.COLON) {
			typ = p.parseType()
		}
		params = append(params, ast.Param{Base: ast.Base{Tok: tok}, Pattern: pat, Type: typ})
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN, ")")
	return params
}

func (p *Parser) parseTraitDecl(pub bool) ast.Item {
	tok := p.advance() // 'trait'
	name := p.expect(token.IDENT, "trait name").Lexeme
	generics := p.parseGenerics()
	t := &ast.TraitDecl{Base: ast.Base{Tok: tok}, Name: name, Generics: generics, Pub: pub}
	if p.match(token.COLON) {
		t.SuperTraits = append(t.SuperTraits, p.parseType())
		for p.match(token.PLUS) {
			t.SuperTraits = append(t.SuperTraits, p.parseType())
		}
	}
	p.expect(token.LBRACE, "{")
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		if p.check(token.TYPE_KW) {
			p.advance()
			t.AssocTypes = append(t.AssocTypes, p.expect(token.IDENT, "associated type name").Lexeme)
			p.expect(token.SEMI, ";")
			continue
		}
		fn := p.parseFunctionDeclBody(false)
		t.Methods = append(t.Methods, fn)
	}
	p.expect(token.RBRACE, "}")
	return t
}

func (p *Parser) parseImplDecl() ast.Item {
	tok := p.advance() // 'impl'
	generics := p.parseGenerics()
	first := p.parseType()
	impl := &ast.ImplDecl{Base: ast.Base{Tok: tok}, Generics: generics, AssocType: map[string]ast.TypeExpr{}}
	if p.match(token.FOR) {
		impl.Trait = first
		impl.SelfType = p.parseType()
	} else {
		impl.SelfType = first
	}
	p.expect(token.LBRACE, "{")
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		if p.check(token.TYPE_KW) {
			p.advance()
			name := p.expect(token.IDENT, "associated type name").Lexeme
			p.expect(token.ASSIGN, "=")
			impl.AssocType[name] = p.parseType()
			p.expect(token.SEMI, ";")
			continue
		}
		fn := p.parseFunctionDeclBody(false)
		impl.Methods = append(impl.Methods, fn)
	}
	p.expect(token.RBRACE, "}")
	return impl
}

func (p *Parser) parseFunctionDecl(pub bool) ast.Item {
	return p.parseFunctionDeclBody(pub)
}

func (p *Parser) parseFunctionDeclBody(pub bool) *ast.FunctionDecl {
	isAsync := p.check(token.IDENT) && p.cur().Lexeme == "async"
	if isAsync {
		p.advance()
	}
	tok := p.expect(token.FN, "fn")
	name := p.expect(token.IDENT, "function name").Lexeme
	generics := p.parseGenerics()
	params := p.parseParams()
	var ret ast.TypeExpr
	if p.match(token.ARROW) {
		ret = p.parseType()
	}
	if p.match(token.WHERE) {
		for !p.check(token.LBRACE) && !p.check(token.SEMI) && !p.check(token.EOF) {
			p.advance()
		}
	}
	fn := &ast.FunctionDecl{Base: ast.Base{Tok: tok}, Name: name, Generics: generics, Params: params, RetType: ret, Pub: pub, IsAsync: isAsync}
	if p.match(token.SEMI) {
		return fn // trait method with no default body
	}
	fn.Body = p.parseBlock()
	return fn
}

func (p *Parser) parseConstDecl(pub bool) ast.Item {
	tok := p.advance() // 'const'
	name := p.expect(token.IDENT, "const name").Lexeme
	p.expect(token.COLON, ":")
	typ := p.parseType()
	p.expect(token.ASSIGN, "=")
	val := p.parseExpr(precLowest)
	p.expect(token.SEMI, ";")
	return &ast.ConstDecl{Base: ast.Base{Tok: tok}, Name: name, Type: typ, Value: val, Pub: pub}
}

func (p *Parser) parseStaticDecl(pub bool) ast.Item {
	tok := p.advance() // 'static'
	mut := p.match(token.MUT)
	name := p.expect(token.IDENT, "static name").Lexeme
	p.expect(token.COLON, ":")
	typ := p.parseType()
	p.expect(token.ASSIGN, "=")
	val := p.parseExpr(precLowest)
	p.expect(token.SEMI, ";")
	return &ast.StaticDecl{Base: ast.Base{Tok: tok}, Name: name, Type: typ, Value: val, Mut: mut, Pub: pub}
}

func (p *Parser) parseTypeAliasDecl(pub bool) ast.Item {
	tok := p.advance() // 'type'
	name := p.expect(token.IDENT, "type alias name").Lexeme
	generics := p.parseGenerics()
	p.expect(token.ASSIGN, "=")
	target := p.parseType()
	p.expect(token.SEMI, ";")
	return &ast.TypeAliasDecl{Base: ast.Base{Tok: tok}, Name: name, Generics: generics, Target: target, Pub: pub}
}

// parseMacroRulesDecl parses `macro_rules! name { (pat) => { tmpl }; ... }`.
// Pattern and template bodies are captured as raw token spans (brace/paren
// matched) rather than parsed, since macro_rules grammar is not expressible
// in this recursive-descent grammar; internal/macroexp matches against the
// raw tokens at expansion time.
func (p *Parser) parseMacroRulesDecl() ast.Item {
	tok := p.advance() // 'macro_rules'
	p.expect(token.BANG, "!")
	name := p.expect(token.IDENT, "macro name").Lexeme
	m := &ast.MacroRulesDecl{Base: ast.Base{Tok: tok}, Name: name}
	p.expect(token.LBRACE, "{")
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		patTokens := p.captureDelimited()
		p.expect(token.FATARROW, "=>")
		tmplTokens := p.captureDelimited()
		m.Rules = append(m.Rules, ast.MacroRule{PatternTokens: patTokens, TemplateTokens: tmplTokens})
		p.match(token.SEMI)
	}
	p.expect(token.RBRACE, "}")
	return m
}

// captureDelimited consumes one ()/[]/{}-delimited group and returns the
// tokens strictly inside it (not including the delimiters themselves).
func (p *Parser) captureDelimited() []token.Token {
	open := p.cur().Type
	var close_ token.Type
	switch open {
	case token.LPAREN:
		close_ = token.RPAREN
	case token.LBRACKET:
		close_ = token.RBRACKET
	case token.LBRACE:
		close_ = token.RBRACE
	default:
		p.errorf("expected a delimited group, found %q", p.cur().Lexeme)
		return nil
	}
	p.advance()
	depth := 1
	var out []token.Token
	for depth > 0 && !p.check(token.EOF) {
		if p.cur().Type == open {
			depth++
		} else if p.cur().Type == close_ {
			depth--
			if depth == 0 {
				p.advance()
				break
			}
		}
		out = append(out, p.advance())
	}
	return out
}
