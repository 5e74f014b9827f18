package parser

import (
	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/token"
)

// isBlockLikeStart reports whether a token starts a block-like expression.
// Such expressions end in `}` and, in statement position, don't require a
// trailing `;` to separate them from the next statement (matching Rust's
// "expression with block" grammar).
func isBlockLikeStart(t token.Type) bool {
	switch t {
	case token.LBRACE, token.IF, token.MATCH, token.WHILE, token.FOR, token.LOOP:
		return true
	}
	return false
}

func (p *Parser) parseBlock() *ast.BlockExpr {
	tok := p.expect(token.LBRACE, "{")
	b := &ast.BlockExpr{Base: ast.Base{Tok: tok}}
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		before := p.pos
		if p.check(token.SEMI) {
			p.advance()
			continue
		}
		stmt, tailExpr := p.parseBlockMember()
		if tailExpr != nil {
			b.Tail = tailExpr
			break
		}
		if stmt != nil {
			b.Stmts = append(b.Stmts, stmt)
		}
		if p.pos == before {
			p.advance()
		}
	}
	p.expect(token.RBRACE, "}")
	return b
}

// parseBlockMember parses one block member. If the member is the block's
// tail expression (no trailing semicolon, and we're at the closing brace),
// it is returned as tailExpr instead of stmt.
func (p *Parser) parseBlockMember() (ast.Statement, ast.Expression) {
	switch p.cur().Type {
	case token.LET:
		return p.parseLetStmt(), nil
	case token.FN, token.STRUCT, token.ENUM, token.TRAIT, token.IMPL, token.USE,
		token.CONST, token.STATIC, token.MOD, token.TYPE_KW, token.MACRO_RULES, token.PUB:
		item := p.parseItem()
		if item == nil {
			return nil, nil
		}
		return &ast.ItemStmt{Base: ast.Base{Tok: item.Token()}, Item: item}, nil
	default:
		tok := p.cur()
		expr := p.parseExpr(precLowest)
		if expr == nil {
			return nil, nil
		}
		if p.match(token.SEMI) {
			return &ast.ExprStmt{Base: ast.Base{Tok: tok}, Expr: expr}, nil
		}
		if p.check(token.RBRACE) {
			return nil, expr
		}
		// A block-like expression (if/match/while/...) used as a statement
		// doesn't need a semicolon even mid-block.
		if isBlockLikeStart(tok.Type) {
			return &ast.ExprStmt{Base: ast.Base{Tok: tok}, Expr: expr}, nil
		}
		p.errorf("expected ';' after expression")
		return &ast.ExprStmt{Base: ast.Base{Tok: tok}, Expr: expr}, nil
	}
}

func (p *Parser) parseLetStmt() ast.Statement {
	tok := p.advance() // 'let'
	pat := p.parsePattern()
	var typ ast.TypeExpr
	if p.match(token.COLON) {
		typ = p.parseType()
	}
	stmt := &ast.LetStmt{Base: ast.Base{Tok: tok}, Pattern: pat, Type: typ}
	if p.match(token.ASSIGN) {
		stmt.Value = p.parseExpr(precLowest)
	}
	if p.match(token.ELSE) {
		stmt.ElseBlock = p.parseBlock()
	}
	p.expect(token.SEMI, ";")
	return stmt
}

// parseExpr is the Pratt-style entry point: parse a prefix/primary
// expression, then repeatedly fold in infix/postfix operators whose
// precedence is >= minPrec.
func (p *Parser) parseExpr(minPrec int) ast.Expression {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}
	for {
		left = p.parsePostfix(left)
		opTok := p.cur()
		prec, ok := binPrec[opTok.Type]
		if !ok || prec < minPrec {
			return left
		}
		p.advance()
		if opTok.Type == token.DOTDOT || opTok.Type == token.DOTDOTEQ {
			var end ast.Expression
			if !p.check(token.RBRACE) && !p.check(token.RPAREN) && !p.check(token.RBRACKET) &&
				!p.check(token.SEMI) && !p.check(token.COMMA) && !p.check(token.EOF) {
				end = p.parseExpr(prec + 1)
			}
			left = &ast.RangeExpr{Base: ast.Base{Tok: opTok}, Start: left, End: end, Inclusive: opTok.Type == token.DOTDOTEQ}
			continue
		}
		if opTok.Type == token.ASSIGN {
			right := p.parseExpr(prec) // right-associative
			left = &ast.AssignExpr{Base: ast.Base{Tok: opTok}, Op: opTok.Type, Target: left, Value: right}
			continue
		}
		right := p.parseExpr(prec + 1)
		left = &ast.BinaryExpr{Base: ast.Base{Tok: opTok}, Op: opTok.Type, Left: left, Right: right}
	}
}

func (p *Parser) parsePrefix() ast.Expression {
	tok := p.cur()
	switch tok.Type {
	case token.MINUS, token.BANG:
		p.advance()
		operand := p.parseExpr(precUnary)
		return &ast.UnaryExpr{Base: ast.Base{Tok: tok}, Op: tok.Type, Operand: operand}
	case token.AMP:
		p.advance()
		mut := p.match(token.MUT)
		operand := p.parseExpr(precUnary)
		return &ast.RefExpr{Base: ast.Base{Tok: tok}, Mut: mut, Operand: operand}
	case token.DOTDOT, token.DOTDOTEQ:
		p.advance()
		end := p.parseExpr(precRange + 1)
		return &ast.RangeExpr{Base: ast.Base{Tok: tok}, End: end, Inclusive: tok.Type == token.DOTDOTEQ}
	case token.INT:
		p.advance()
		return &ast.IntegerLiteral{Base: ast.Base{Tok: tok}, Value: tok.Lexeme}
	case token.FLOAT:
		p.advance()
		return &ast.FloatLiteral{Base: ast.Base{Tok: tok}, Value: tok.Lexeme}
	case token.STRING:
		p.advance()
		return &ast.StringLiteral{Base: ast.Base{Tok: tok}, Value: tok.Lexeme}
	case token.CHAR:
		p.advance()
		return &ast.CharLiteral{Base: ast.Base{Tok: tok}, Value: tok.Lexeme}
	case token.TRUE, token.FALSE:
		p.advance()
		return &ast.BoolLiteral{Base: ast.Base{Tok: tok}, Value: tok.Type == token.TRUE}
	case token.LPAREN:
		return p.parseParenOrTuple()
	case token.LBRACKET:
		return p.parseArrayExpr()
	case token.LBRACE:
		return p.parseBlock()
	case token.IF:
		return p.parseIfExpr()
	case token.MATCH:
		return p.parseMatchExpr()
	case token.WHILE:
		return p.parseWhileExpr()
	case token.FOR:
		return p.parseForExpr()
	case token.LOOP:
		p.advance()
		body := p.parseBlock()
		return &ast.LoopExpr{Base: ast.Base{Tok: tok}, Body: body}
	case token.RETURN:
		p.advance()
		var val ast.Expression
		if !p.check(token.SEMI) && !p.check(token.RBRACE) {
			val = p.parseExpr(precLowest)
		}
		return &ast.ReturnExpr{Base: ast.Base{Tok: tok}, Value: val}
	case token.BREAK:
		p.advance()
		brk := &ast.BreakExpr{Base: ast.Base{Tok: tok}}
		if !p.check(token.SEMI) && !p.check(token.RBRACE) && !p.check(token.COMMA) {
			brk.Value = p.parseExpr(precLowest)
		}
		return brk
	case token.CONTINUE:
		p.advance()
		return &ast.ContinueExpr{Base: ast.Base{Tok: tok}}
	case token.PIPE, token.PIPEPIPE:
		return p.parseClosure(false)
	case token.IDENT:
		if tok.Lexeme == "move" && (p.peek().Type == token.PIPE || p.peek().Type == token.PIPEPIPE) {
			p.advance()
			return p.parseClosure(true)
		}
		return p.parsePathOrStructLiteral()
	case token.SELF_VALUE, token.SELF_TYPE, token.SUPER, token.CRATE, token.COLONCOLON:
		return p.parsePathOrStructLiteral()
	default:
		p.errorf("unexpected token %q in expression", tok.Lexeme)
		p.advance()
		return &ast.Identifier{Base: ast.Base{Tok: tok}, Name: tok.Lexeme}
	}
}

func (p *Parser) parseParenOrTuple() ast.Expression {
	tok := p.advance() // '('
	if p.match(token.RPAREN) {
		return &ast.TupleExpr{Base: ast.Base{Tok: tok}} // unit `()`
	}
	first := p.parseExpr(precLowest)
	if p.match(token.COMMA) {
		elems := []ast.Expression{first}
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			elems = append(elems, p.parseExpr(precLowest))
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN, ")")
		return &ast.TupleExpr{Base: ast.Base{Tok: tok}, Elems: elems}
	}
	p.expect(token.RPAREN, ")")
	return first
}

func (p *Parser) parseArrayExpr() ast.Expression {
	tok := p.advance() // '['
	arr := &ast.ArrayExpr{Base: ast.Base{Tok: tok}}
	if p.match(token.RBRACKET) {
		return arr
	}
	first := p.parseExpr(precLowest)
	if p.match(token.SEMI) {
		arr.Elems = []ast.Expression{first}
		arr.RepeatN = p.parseExpr(precLowest)
		p.expect(token.RBRACKET, "]")
		return arr
	}
	arr.Elems = append(arr.Elems, first)
	for p.match(token.COMMA) {
		if p.check(token.RBRACKET) {
			break
		}
		arr.Elems = append(arr.Elems, p.parseExpr(precLowest))
	}
	p.expect(token.RBRACKET, "]")
	return arr
}

func (p *Parser) parseClosure(move bool) ast.Expression {
	tok := p.cur()
	var params []ast.Param
	if p.match(token.PIPEPIPE) {
		// no params
	} else {
		p.expect(token.PIPE, "|")
		for !p.check(token.PIPE) && !p.check(token.EOF) {
			pt := p.cur()
			pat := p.parsePattern()
			var typ ast.TypeExpr
			if p.match(token.COLON) {
				typ = p.parseType()
			}
			params = append(params, ast.Param{Base: ast.Base{Tok: pt}, Pattern: pat, Type: typ})
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.PIPE, "|")
	}
	var body ast.Expression
	if p.match(token.ARROW) {
		p.parseType() // explicit return type, informational only for a closure
		body = p.parseBlock()
	} else {
		body = p.parseExpr(precAssign)
	}
	return &ast.ClosureExpr{Base: ast.Base{Tok: tok}, Params: params, Body: body, Move: move}
}

// parsePathOrStructLiteral parses a `::`-separated path and, if followed by
// `{`, folds it into a struct literal. While p.noStructLiterals > 0
// (condition position, such as `if COND {`) the `{` is left alone and a
// plain path expression is returned.
func (p *Parser) parsePathOrStructLiteral() ast.Expression {
	tok := p.cur()
	segs := p.parsePathSegments()
	var generics []ast.TypeExpr
	if p.check(token.COLONCOLON) && p.peek().Type == token.LT {
		p.advance()
		generics = p.parseTurbofish()
	}
	if len(segs) == 1 && !p.check(token.LBRACE) {
		return &ast.Identifier{Base: ast.Base{Tok: tok}, Name: segs[0]}
	}
	if p.noStructLiterals == 0 && p.check(token.LBRACE) {
		return p.parseStructLiteralTail(tok, segs)
	}
	return &ast.PathExpr{Base: ast.Base{Tok: tok}, Segments: segs, Generics: generics}
}

func (p *Parser) parsePathSegments() []string {
	var segs []string
	for {
		switch p.cur().Type {
		case token.SELF_VALUE:
			segs = append(segs, "self")
			p.advance()
		case token.SELF_TYPE:
			segs = append(segs, "Self")
			p.advance()
		case token.SUPER:
			segs = append(segs, "super")
			p.advance()
		case token.CRATE:
			segs = append(segs, "crate")
			p.advance()
		default:
			segs = append(segs, p.expect(token.IDENT, "path segment").Lexeme)
		}
		if !p.match(token.COLONCOLON) {
			return segs
		}
	}
}

func (p *Parser) parseTurbofish() []ast.TypeExpr {
	var gens []ast.TypeExpr
	p.expect(token.LT, "<")
	for !p.check(token.GT) && !p.check(token.EOF) {
		gens = append(gens, p.parseType())
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.GT, ">")
	return gens
}

func (p *Parser) parseStructLiteralTail(tok token.Token, segs []string) ast.Expression {
	p.expect(token.LBRACE, "{")
	lit := &ast.StructLiteralExpr{Base: ast.Base{Tok: tok}, Path: segs}
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		if p.match(token.DOTDOT) {
			lit.Rest = p.parseExpr(precLowest)
			break
		}
		name := p.expect(token.IDENT, "field name").Lexeme
		var val ast.Expression
		if p.match(token.COLON) {
			val = p.parseExpr(precLowest)
		}
		lit.Fields = append(lit.Fields, ast.StructFieldInit{Name: name, Value: val})
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACE, "}")
	return lit
}

func (p *Parser) withNoStructLiterals(fn func() ast.Expression) ast.Expression {
	p.noStructLiterals++
	defer func() { p.noStructLiterals-- }()
	return fn()
}

func (p *Parser) parseIfExpr() ast.Expression {
	tok := p.advance() // 'if'
	if p.match(token.LET) {
		pat := p.parsePattern()
		p.expect(token.ASSIGN, "=")
		scrut := p.withNoStructLiterals(func() ast.Expression { return p.parseExpr(precLowest) })
		then := p.parseBlock()
		var elseE ast.Expression
		if p.match(token.ELSE) {
			elseE = p.parseElseTail()
		}
		return &ast.IfLetExpr{Base: ast.Base{Tok: tok}, Pattern: pat, Scrutinee: scrut, Then: then, Else: elseE}
	}
	cond := p.withNoStructLiterals(func() ast.Expression { return p.parseExpr(precLowest) })
	then := p.parseBlock()
	var elseE ast.Expression
	if p.match(token.ELSE) {
		elseE = p.parseElseTail()
	}
	return &ast.IfExpr{Base: ast.Base{Tok: tok}, Cond: cond, Then: then, Else: elseE}
}

func (p *Parser) parseElseTail() ast.Expression {
	if p.check(token.IF) {
		return p.parseIfExpr()
	}
	return p.parseBlock()
}

func (p *Parser) parseMatchExpr() ast.Expression {
	tok := p.advance() // 'match'
	scrut := p.withNoStructLiterals(func() ast.Expression { return p.parseExpr(precLowest) })
	m := &ast.MatchExpr{Base: ast.Base{Tok: tok}, Scrutinee: scrut}
	p.expect(token.LBRACE, "{")
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		pat := p.parsePattern()
		for p.match(token.PIPE) {
			p.parsePattern() // additional or-pattern alternatives; first is kept as primary
		}
		var guard ast.Expression
		if p.match(token.IF) {
			guard = p.parseExpr(precLowest)
		}
		p.expect(token.FATARROW, "=>")
		body := p.parseExpr(precLowest)
		m.Arms = append(m.Arms, ast.MatchArm{Pattern: pat, Guard: guard, Body: body})
		p.match(token.COMMA)
	}
	p.expect(token.RBRACE, "}")
	return m
}

func (p *Parser) parseWhileExpr() ast.Expression {
	tok := p.advance() // 'while'
	if p.match(token.LET) {
		pat := p.parsePattern()
		p.expect(token.ASSIGN, "=")
		scrut := p.withNoStructLiterals(func() ast.Expression { return p.parseExpr(precLowest) })
		body := p.parseBlock()
		return &ast.WhileLetExpr{Base: ast.Base{Tok: tok}, Pattern: pat, Scrutinee: scrut, Body: body}
	}
	cond := p.withNoStructLiterals(func() ast.Expression { return p.parseExpr(precLowest) })
	body := p.parseBlock()
	return &ast.WhileExpr{Base: ast.Base{Tok: tok}, Cond: cond, Body: body}
}

func (p *Parser) parseForExpr() ast.Expression {
	tok := p.advance() // 'for'
	pat := p.parsePattern()
	p.expect(token.IN, "in")
	iter := p.withNoStructLiterals(func() ast.Expression { return p.parseExpr(precLowest) })
	body := p.parseBlock()
	return &ast.ForExpr{Base: ast.Base{Tok: tok}, Pattern: pat, Iter: iter, Body: body}
}

// parsePostfix folds in left-associative postfix operators: calls, method
// calls, field access, indexing, and the `?` operator.
func (p *Parser) parsePostfix(left ast.Expression) ast.Expression {
	for {
		switch p.cur().Type {
		case token.LPAREN:
			tok := p.advance()
			var args []ast.Expression
			for !p.check(token.RPAREN) && !p.check(token.EOF) {
				args = append(args, p.parseExpr(precLowest))
				if !p.match(token.COMMA) {
					break
				}
			}
			p.expect(token.RPAREN, ")")
			left = &ast.CallExpr{Base: ast.Base{Tok: tok}, Callee: left, Args: args}
		case token.LBRACKET:
			tok := p.advance()
			idx := p.parseExpr(precLowest)
			p.expect(token.RBRACKET, "]")
			left = &ast.IndexExpr{Base: ast.Base{Tok: tok}, Receiver: left, Index: idx}
		case token.DOT:
			tok := p.advance()
			if p.check(token.INT) {
				field := p.advance().Lexeme
				left = &ast.FieldExpr{Base: ast.Base{Tok: tok}, Receiver: left, Field: field}
				continue
			}
			name := p.expect(token.IDENT, "field or method name").Lexeme
			var generics []ast.TypeExpr
			if p.check(token.COLONCOLON) && p.peek().Type == token.LT {
				p.advance()
				generics = p.parseTurbofish()
			}
			if p.check(token.LPAREN) {
				p.advance()
				var args []ast.Expression
				for !p.check(token.RPAREN) && !p.check(token.EOF) {
					args = append(args, p.parseExpr(precLowest))
					if !p.match(token.COMMA) {
						break
					}
				}
				p.expect(token.RPAREN, ")")
				left = &ast.MethodCallExpr{Base: ast.Base{Tok: tok}, Receiver: left, Method: name, Generics: generics, Args: args}
			} else {
				left = &ast.FieldExpr{Base: ast.Base{Tok: tok}, Receiver: left, Field: name}
			}
		case token.QUESTION:
			tok := p.advance()
			left = &ast.TryExpr{Base: ast.Base{Tok: tok}, Operand: left}
		default:
			return left
		}
	}
}
