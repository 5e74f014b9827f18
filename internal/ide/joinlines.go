package ide

import (
	"strings"

	"github.com/funvibe/funxy/internal/syntax"
)

// JoinLines computes the edit for joining the line at offset with the one
// below it: find the line boundary, strip a trailing comma before it when
// joining would otherwise land next to a closing `)`/`]`, collapse a block
// that holds nothing but `{ <expr> }` onto one line, and otherwise replace
// the newline and its surrounding indentation with a single space. This is
// a pure text operation — it runs directly against a file's source text,
// no query.Context/Engine involved.
func JoinLines(text string, offset int) (TextEdit, bool) {
	rest := text[offset:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return TextEdit{}, false
	}
	nlPos := offset + nl

	trimStart := nlPos
	for trimStart > 0 && (text[trimStart-1] == ' ' || text[trimStart-1] == '\t') {
		trimStart--
	}
	afterWs := nlPos + 1
	for afterWs < len(text) && (text[afterWs] == ' ' || text[afterWs] == '\t') {
		afterWs++
	}

	if trimStart > 0 && text[trimStart-1] == ',' {
		var next byte
		if afterWs < len(text) {
			next = text[afterWs]
		}
		if next == ')' || next == ']' {
			return TextEdit{
				Range:   syntax.TextRange{Start: trimStart - 1, End: afterWs},
				NewText: "",
			}, true
		}
	}

	if trimStart > 0 && text[trimStart-1] == '{' {
		if closeIdx, ok := singleExprBlockClose(text, afterWs); ok {
			inner := strings.TrimSpace(text[afterWs:closeIdx])
			if inner != "" {
				return TextEdit{
					Range:   syntax.TextRange{Start: trimStart - 1, End: closeIdx + 1},
					NewText: "{ " + inner + " }",
				}, true
			}
		}
	}

	return TextEdit{
		Range:   syntax.TextRange{Start: trimStart, End: afterWs},
		NewText: " ",
	}, true
}

// singleExprBlockClose reports the offset of a `}` that closes a block
// whose only content, starting at bodyStart, is a single line — the case
// join_lines collapses into `{ <expr> }`. Anything with more than one
// inner line is left alone.
func singleExprBlockClose(text string, bodyStart int) (int, bool) {
	lineEnd := strings.IndexByte(text[bodyStart:], '\n')
	if lineEnd < 0 {
		return 0, false
	}
	lineEnd += bodyStart

	i := lineEnd + 1
	for i < len(text) && (text[i] == ' ' || text[i] == '\t' || text[i] == '\n') {
		i++
	}
	if i < len(text) && text[i] == '}' {
		return i, true
	}
	return 0, false
}
