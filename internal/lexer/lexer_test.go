package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/funxy/internal/token"
)

func TestTokenizeKeywordsAndIdents(t *testing.T) {
	toks := Tokenize("fn foo(x: i32) -> i32 { x }")
	var types []token.Type
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	require.Equal(t, []token.Type{
		token.FN, token.IDENT, token.LPAREN, token.IDENT, token.COLON, token.IDENT,
		token.RPAREN, token.ARROW, token.IDENT, token.LBRACE, token.IDENT, token.RBRACE,
		token.EOF,
	}, types)
}

func TestTokenizeOperatorsDisambiguatesMultiChar(t *testing.T) {
	toks := Tokenize("a::b -> c => d == e != f <= g >= h && i || j .. k ..= l")
	got := map[token.Type]bool{}
	for _, tok := range toks {
		got[tok.Type] = true
	}
	for _, want := range []token.Type{
		token.COLONCOLON, token.ARROW, token.FATARROW, token.EQ, token.NEQ,
		token.LTE, token.GTE, token.AMPAMP, token.PIPEPIPE, token.DOTDOT, token.DOTDOTEQ,
	} {
		require.True(t, got[want], "expected token type %v in stream", want)
	}
}

func TestTokenizeStringAndCharEscapes(t *testing.T) {
	toks := Tokenize(`"hi\n" 'a' '\n'`)
	require.Equal(t, token.STRING, toks[0].Type)
	require.Equal(t, "hi\n", toks[0].Lexeme)
	require.Equal(t, token.CHAR, toks[1].Type)
	require.Equal(t, "a", toks[1].Lexeme)
	require.Equal(t, token.CHAR, toks[2].Type)
	require.Equal(t, "\n", toks[2].Lexeme)
}

func TestTokenizeNumericLiterals(t *testing.T) {
	toks := Tokenize("1_000 3.14 2e10")
	require.Equal(t, token.INT, toks[0].Type)
	require.Equal(t, "1000", toks[0].Lexeme)
	require.Equal(t, token.FLOAT, toks[1].Type)
	require.Equal(t, "3.14", toks[1].Lexeme)
	require.Equal(t, token.FLOAT, toks[2].Type)
}

func TestTokenizeSkipsLineAndBlockComments(t *testing.T) {
	toks := Tokenize("a // comment\nb /* block \n comment */ c")
	var lexemes []string
	for _, tok := range toks {
		if tok.Type != token.EOF {
			lexemes = append(lexemes, tok.Lexeme)
		}
	}
	require.Equal(t, []string{"a", "b", "c"}, lexemes)
}

func TestTokenizeTracksLineNumbers(t *testing.T) {
	toks := Tokenize("a\nb")
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, 2, toks[1].Line)
}
