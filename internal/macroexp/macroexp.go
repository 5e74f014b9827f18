// Package macroexp expands `macro_rules!`-style declarative macros by
// matching a call site's token tree against each rule's pattern in
// declaration order and substituting the first match's captures into its
// template, the same token-tree algorithm `macro_rules!` itself uses:
// match, don't parse, and treat `$name` captures and `$(...)sep*`
// repetitions as tree-shaped rather than grammar-shaped.
package macroexp

import (
	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/config"
	"github.com/funvibe/funxy/internal/token"
)

// bindings maps a captured metavariable name to the token sequence it
// matched. A repetition capture instead lives in reps, one slice of
// bindings per iteration, so the transcriber can walk $(...)* in step with
// however many times the matcher actually repeated.
type bindings struct {
	single map[string][]token.Token
	reps   map[string][]bindings
}

func newBindings() bindings {
	return bindings{single: map[string][]token.Token{}, reps: map[string][]bindings{}}
}

// Expand tries each rule of decl against call, in source order, returning
// the first rule's transcribed template. ok is false if no rule matches,
// mirroring an unresolved macro invocation.
func Expand(decl *ast.MacroRulesDecl, call []token.Token) ([]token.Token, bool) {
	for _, rule := range decl.Rules {
		b := newBindings()
		if rest, ok := matchSeq(rule.PatternTokens, call, b); ok && len(rest) == 0 {
			return transcribe(rule.TemplateTokens, b), true
		}
	}
	return nil, false
}

// matchSeq walks pattern against input left to right, consuming a $name
// capture as a single token-tree (one token, or a balanced delimiter group)
// and a $(...)sep* / $(...)sep+ / $(...)? group by repeatedly matching its
// inner pattern until it stops matching or the optional separator isn't
// next, recording one bindings snapshot per repetition under every
// metavariable the inner pattern captures.
func matchSeq(pattern, input []token.Token, b bindings) ([]token.Token, bool) {
	pi := 0
	for pi < len(pattern) {
		tok := pattern[pi]

		if tok.Type == token.DOLLAR && pi+1 < len(pattern) && pattern[pi+1].Type == token.LPAREN {
			inner, sep, kind, next, ok := parseRepetition(pattern, pi)
			if !ok {
				return nil, false
			}
			pi = next
			var count int
			for {
				if kind == '?' && count == 1 {
					break
				}
				iterBindings := newBindings()
				rest, ok := matchSeq(inner, input, iterBindings)
				if !ok {
					break
				}
				input = rest
				mergeRepetition(b, inner, iterBindings)
				count++
				if sep != nil {
					if len(input) == 0 || !tokenEq(input[0], *sep) {
						break
					}
					input = input[1:]
				}
			}
			if kind == '+' && count == 0 {
				return nil, false
			}
			continue
		}

		if tok.Type == token.DOLLAR && pi+1 < len(pattern) {
			name := pattern[pi+1].Lexeme
			captured, rest, ok := captureOne(input)
			if !ok {
				return nil, false
			}
			b.single[name] = captured
			input = rest
			pi += 2
			if pi < len(pattern) && pattern[pi].Type == token.COLON {
				pi += 2 // skip fragment-specifier (`:expr`, `:ident`, ...); untyped match
			}
			continue
		}

		if len(input) == 0 || !tokenEq(input[0], tok) {
			return nil, false
		}
		input = input[1:]
		pi++
	}
	return input, true
}

// parseRepetition reads a `$( ... )sep*` / `+` / `?` group starting at
// pattern[at] (the `$`), returning the inner pattern tokens, the optional
// separator token, the repetition kind, and the index just past the group.
func parseRepetition(pattern []token.Token, at int) (inner []token.Token, sep *token.Token, kind byte, next int, ok bool) {
	i := at + 2 // past `$` `(`
	depth := 1
	start := i
	for i < len(pattern) && depth > 0 {
		switch pattern[i].Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				inner = pattern[start:i]
			}
		}
		i++
	}
	if depth != 0 {
		return nil, nil, 0, 0, false
	}
	if i < len(pattern) {
		switch pattern[i].Type {
		case token.STAR:
			kind = '*'
			i++
		case token.PLUS:
			kind = '+'
			i++
		case token.QUESTION:
			kind = '?'
			i++
		default:
			sep = &pattern[i]
			i++
			if i < len(pattern) {
				switch pattern[i].Type {
				case token.STAR:
					kind = '*'
				case token.PLUS:
					kind = '+'
				case token.QUESTION:
					kind = '?'
				default:
					return nil, nil, 0, 0, false
				}
				i++
			}
		}
	}
	return inner, sep, kind, i, true
}

// captureOne consumes one token-tree from the front of input: a single
// non-delimiter token, or a delimiter token plus everything up to its
// matching close delimiter.
func captureOne(input []token.Token) ([]token.Token, []token.Token, bool) {
	if len(input) == 0 {
		return nil, nil, false
	}
	open := input[0].Type
	closeTy, isOpen := matchingClose(open)
	if !isOpen {
		return input[:1], input[1:], true
	}
	depth := 1
	i := 1
	for i < len(input) && depth > 0 {
		if input[i].Type == open {
			depth++
		} else if input[i].Type == closeTy {
			depth--
		}
		i++
	}
	if depth != 0 {
		return nil, nil, false
	}
	return input[:i], input[i:], true
}

func matchingClose(t token.Type) (token.Type, bool) {
	switch t {
	case token.LPAREN:
		return token.RPAREN, true
	case token.LBRACE:
		return token.RBRACE, true
	case token.LBRACKET:
		return token.RBRACKET, true
	default:
		return token.ILLEGAL, false
	}
}

func tokenEq(a, b token.Token) bool {
	return a.Type == b.Type && a.Lexeme == b.Lexeme
}

// mergeRepetition folds one repetition iteration's captures into b: every
// metavariable inner actually references gets appended to b.reps so the
// transcriber can zip them back up per-iteration.
func mergeRepetition(b bindings, inner []token.Token, iter bindings) {
	for name, toks := range iter.single {
		b.reps[name] = append(b.reps[name], bindings{single: map[string][]token.Token{name: toks}})
	}
	for name, reps := range iter.reps {
		b.reps[name] = append(b.reps[name], reps...)
	}
}

// transcribe substitutes template against b, expanding $(...)sep* groups by
// re-running the template body once per recorded repetition.
func transcribe(template []token.Token, b bindings) []token.Token {
	var out []token.Token
	i := 0
	for i < len(template) {
		tok := template[i]
		if tok.Type == token.DOLLAR && i+1 < len(template) && template[i+1].Type == token.LPAREN {
			inner, sep, _, next, ok := parseRepetition(template, i)
			if !ok {
				out = append(out, tok)
				i++
				continue
			}
			name := firstMetavar(inner)
			iters := b.reps[name]
			for n, it := range iters {
				if n > 0 && sep != nil {
					out = append(out, *sep)
				}
				out = append(out, transcribe(inner, it)...)
			}
			i = next
			continue
		}
		if tok.Type == token.DOLLAR && i+1 < len(template) {
			name := template[i+1].Lexeme
			if toks, ok := b.single[name]; ok {
				out = append(out, toks...)
				i += 2
				continue
			}
		}
		out = append(out, tok)
		i++
	}
	return out
}

func firstMetavar(inner []token.Token) string {
	for i, t := range inner {
		if t.Type == token.DOLLAR && i+1 < len(inner) {
			return inner[i+1].Lexeme
		}
	}
	return ""
}

// MaxDepth equals config.DefaultMacroExpansionDepth. Expand performs a
// single expansion and does not consult it; nothing in this package
// re-expands a macro's output.
const MaxDepth = config.DefaultMacroExpansionDepth
