// Package syntax is the thin wrapper around internal/parser that the query
// engine (component B) actually depends on: it exposes parsing as a pure
// `text -> (Program, []SyntaxError)` function with byte-range positions, so
// a parse query can be memoized on file text alone.
package syntax

import (
	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/parser"
	"github.com/funvibe/funxy/internal/token"
)

// TextRange is a half-open [Start, End) byte range into one file's text.
type TextRange struct {
	Start int
	End   int
}

func (r TextRange) Contains(offset int) bool { return offset >= r.Start && offset < r.End }

// RangeOf computes the TextRange covering a single token. Multi-token node
// ranges are computed by callers that walk children (internal/astid,
// internal/ide) since the concrete AST doesn't store an end position per
// node.
func RangeOf(tok token.Token) TextRange {
	return TextRange{Start: tok.Offset, End: tok.End()}
}

// SyntaxError is a parse error with a byte-range position, suitable for
// direct translation into an editor diagnostic.
type SyntaxError struct {
	Message string
	Range   TextRange
}

// Tree is the result of parsing one file: its AST root plus any recovered
// syntax errors.
type Tree struct {
	Program *ast.Program
	Errors  []SyntaxError
}

// Parse lexes and parses source text into a Tree. It never fails outright;
// malformed input yields a partial Program plus recorded errors, matching
// the parser's error-recovery design.
func Parse(text string) *Tree {
	prog, errs := parser.Parse(text)
	out := &Tree{Program: prog}
	for _, e := range errs {
		out.Errors = append(out.Errors, SyntaxError{
			Message: e.Message,
			Range:   TextRange{Start: e.Offset, End: e.Offset + 1},
		})
	}
	return out
}
