package macroexp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/token"
)

func tok(ty token.Type, lexeme string) token.Token {
	return token.Token{Type: ty, Lexeme: lexeme}
}

func TestExpandSimpleCapture(t *testing.T) {
	decl := &ast.MacroRulesDecl{
		Name: "square",
		Rules: []ast.MacroRule{
			{
				PatternTokens: []token.Token{tok(token.DOLLAR, "$"), tok(token.IDENT, "x")},
				TemplateTokens: []token.Token{
					tok(token.DOLLAR, "$"), tok(token.IDENT, "x"),
					tok(token.STAR, "*"),
					tok(token.DOLLAR, "$"), tok(token.IDENT, "x"),
				},
			},
		},
	}
	call := []token.Token{tok(token.INT, "5")}

	out, ok := Expand(decl, call)
	require.True(t, ok)
	require.Equal(t, []token.Token{tok(token.INT, "5"), tok(token.STAR, "*"), tok(token.INT, "5")}, out)
}

func TestExpandNoMatchingRule(t *testing.T) {
	decl := &ast.MacroRulesDecl{
		Name: "only_ints",
		Rules: []ast.MacroRule{
			{
				PatternTokens:  []token.Token{tok(token.LPAREN, "("), tok(token.RPAREN, ")")},
				TemplateTokens: []token.Token{tok(token.INT, "0")},
			},
		},
	}
	_, ok := Expand(decl, []token.Token{tok(token.IDENT, "x")})
	require.False(t, ok)
}

func TestExpandRepetitionWithSeparator(t *testing.T) {
	// macro_rules! list { ($($x:expr),*) => { [$($x),*] } }
	pattern := []token.Token{
		tok(token.DOLLAR, "$"), tok(token.LPAREN, "("),
		tok(token.DOLLAR, "$"), tok(token.IDENT, "x"),
		tok(token.COLON, ":"), tok(token.IDENT, "expr"),
		tok(token.RPAREN, ")"), tok(token.COMMA, ","), tok(token.STAR, "*"),
	}
	template := []token.Token{
		tok(token.LBRACKET, "["),
		tok(token.DOLLAR, "$"), tok(token.LPAREN, "("),
		tok(token.DOLLAR, "$"), tok(token.IDENT, "x"),
		tok(token.RPAREN, ")"), tok(token.COMMA, ","), tok(token.STAR, "*"),
		tok(token.RBRACKET, "]"),
	}
	decl := &ast.MacroRulesDecl{
		Name:  "list",
		Rules: []ast.MacroRule{{PatternTokens: pattern, TemplateTokens: template}},
	}
	call := []token.Token{
		tok(token.INT, "1"), tok(token.COMMA, ","),
		tok(token.INT, "2"), tok(token.COMMA, ","),
		tok(token.INT, "3"),
	}

	out, ok := Expand(decl, call)
	require.True(t, ok)
	require.Equal(t, []token.Token{
		tok(token.LBRACKET, "["),
		tok(token.INT, "1"), tok(token.COMMA, ","),
		tok(token.INT, "2"), tok(token.COMMA, ","),
		tok(token.INT, "3"),
		tok(token.RBRACKET, "]"),
	}, out)
}
