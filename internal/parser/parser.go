// Package parser implements a hand-written recursive-descent and
// Pratt-style expression parser that turns a token stream into an
// internal/ast.Program. It is error-tolerant: on a malformed construct it
// records a ParseError and skips forward to a recovery point rather than
// aborting, so editors can still get a tree for a file with in-progress
// edits.
package parser

import (
	"fmt"

	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/lexer"
	"github.com/funvibe/funxy/internal/token"
)

// ParseError is one recovered syntax error, with enough position
// information for a diagnostic to point at.
type ParseError struct {
	Message string
	Line    int
	Column  int
	Offset  int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// precedence levels, lowest to highest.
const (
	precLowest = iota
	precAssign
	precRange
	precOr
	precAnd
	precEquality
	precComparison
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
)

var binPrec = map[token.Type]int{
	token.ASSIGN:   precAssign,
	token.DOTDOT:   precRange,
	token.DOTDOTEQ: precRange,
	token.PIPEPIPE: precOr,
	token.AMPAMP:   precAnd,
	token.EQ:       precEquality,
	token.NEQ:      precEquality,
	token.LT:       precComparison,
	token.LTE:      precComparison,
	token.GT:       precComparison,
	token.GTE:      precComparison,
	token.PLUS:     precAdditive,
	token.MINUS:    precAdditive,
	token.STAR:     precMultiplicative,
	token.SLASH:    precMultiplicative,
	token.PERCENT:  precMultiplicative,
}

// Parser consumes a token stream and builds an ast.Program. Build one with
// New; it is not safe for concurrent use.
type Parser struct {
	tokens []token.Token
	pos    int
	errors []ParseError

	// noStructLiterals is a depth counter: >0 while parsing a condition
	// position (if/while/for/match scrutinee) where a bare `{` must start a
	// block rather than be read as a struct literal.
	noStructLiterals int
}

// New creates a Parser over already-lexed tokens, typically the output of
// lexer.Tokenize.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse lexes text and parses it into a Program in one call.
func Parse(text string) (*ast.Program, []ParseError) {
	p := New(lexer.Tokenize(text))
	return p.ParseProgram(), p.errors
}

func (p *Parser) cur() token.Token  { return p.tokens[p.pos] }
func (p *Parser) peek() token.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) check(t token.Type) bool { return p.cur().Type == t }

func (p *Parser) match(t token.Type) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(t token.Type, what string) token.Token {
	if p.check(t) {
		return p.advance()
	}
	p.errorf("expected %s, found %q", what, p.cur().Lexeme)
	return p.cur()
}

func (p *Parser) errorf(format string, args ...any) {
	tok := p.cur()
	p.errors = append(p.errors, ParseError{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
		Offset:  tok.Offset,
	})
}

// syncToItemStart skips tokens until one that plausibly starts a new item,
// so one malformed item doesn't poison the rest of the file.
func (p *Parser) syncToItemStart() {
	for !p.check(token.EOF) {
		switch p.cur().Type {
		case token.FN, token.STRUCT, token.ENUM, token.TRAIT, token.IMPL,
			token.MOD, token.USE, token.CONST, token.STATIC, token.PUB,
			token.MACRO_RULES, token.TYPE_KW, token.SEMI, token.RBRACE:
			return
		}
		p.advance()
	}
}

// ParseProgram parses the whole token stream as a sequence of items.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.check(token.EOF) {
		before := p.pos
		item := p.parseItem()
		if item != nil {
			prog.Items = append(prog.Items, item)
		}
		if p.pos == before {
			p.advance() // guarantee forward progress on unrecognized tokens
		}
	}
	return prog
}

func (p *Parser) parseAttributes() []ast.Attribute {
	var attrs []ast.Attribute
	for p.check(token.HASH) {
		p.advance()
		p.expect(token.LBRACKET, "[")
		name := p.expect(token.IDENT, "attribute name").Lexeme
		var args []string
		if p.match(token.LPAREN) {
			for !p.check(token.RPAREN) && !p.check(token.EOF) {
				args = append(args, p.advance().Lexeme)
				p.match(token.COMMA)
			}
			p.expect(token.RPAREN, ")")
		} else if p.match(token.ASSIGN) {
			args = append(args, p.advance().Lexeme)
		}
		p.expect(token.RBRACKET, "]")
		attrs = append(attrs, ast.Attribute{Name: name, Args: args})
	}
	return attrs
}

func (p *Parser) parseItem() ast.Item {
	attrs := p.parseAttributes()
	pub := p.match(token.PUB)

	switch p.cur().Type {
	case token.MOD:
		return p.parseModDecl(attrs, pub)
	case token.USE:
		return p.parseUseDecl(pub)
	case token.STRUCT:
		return p.parseStructDecl(pub)
	case token.ENUM:
		return p.parseEnumDecl(pub)
	case token.TRAIT:
		return p.parseTraitDecl(pub)
	case token.IMPL:
		return p.parseImplDecl()
	case token.FN:
		return p.parseFunctionDecl(pub)
	case token.CONST:
		return p.parseConstDecl(pub)
	case token.STATIC:
		return p.parseStaticDecl(pub)
	case token.TYPE_KW:
		return p.parseTypeAliasDecl(pub)
	case token.MACRO_RULES:
		return p.parseMacroRulesDecl()
	default:
		p.errorf("expected item, found %q", p.cur().Lexeme)
		p.syncToItemStart()
		return nil
	}
}

func (p *Parser) parseGenerics() []ast.GenericParam {
	if !p.match(token.LT) {
		return nil
	}
	var params []ast.GenericParam
	for !p.check(token.GT) && !p.check(token.EOF) {
		tok := p.cur()
		name := p.expect(token.IDENT, "generic parameter").Lexeme
		var bounds []ast.TypeExpr
		if p.match(token.COLON) {
			bounds = append(bounds, p.parseType())
			for p.match(token.PLUS) {
				bounds = append(bounds, p.parseType())
			}
		}
		params = append(params, ast.GenericParam{Name: name, Bounds: bounds, Base: ast.Base{Tok: tok}})
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.GT, ">")
	return params
}
