package ide

import (
	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/astid"
	"github.com/funvibe/funxy/internal/db"
	"github.com/funvibe/funxy/internal/hir"
	"github.com/funvibe/funxy/internal/nameres"
	"github.com/funvibe/funxy/internal/query"
	"github.com/funvibe/funxy/internal/queries"
	"github.com/funvibe/funxy/internal/syntax"
)

// Severity mirrors the handful of levels an editor actually distinguishes.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Diagnostic is one problem found in a file, independent of any wire
// protocol — cmd/lsp maps Range/Message/Severity onto its own Diagnostic
// type at the transport boundary.
type Diagnostic struct {
	Range    syntax.TextRange
	Message  string
	Severity Severity
}

// Location names a byte range in a specific file, the unit goto-definition
// and find-references both return.
type Location struct {
	File  db.FileId
	Range syntax.TextRange
}

// HoverInfo is the result of a hover request: the text to show plus the
// range of source it describes, so an editor can underline exactly what
// the hover applies to.
type HoverInfo struct {
	Range syntax.TextRange
	Text  string
}

// CompletionKind roughly mirrors LSP's CompletionItemKind, kept independent
// of it so this package has no wire-protocol dependency.
type CompletionKind int

const (
	CompletionFunction CompletionKind = iota
	CompletionStruct
	CompletionField
	CompletionVariable
	CompletionModule
	CompletionKeyword
)

// CompletionItem is one completion candidate.
type CompletionItem struct {
	Label  string
	Kind   CompletionKind
	Detail string
}

// TextEdit is one replacement within a file, the unit rename returns,
// keyed per-file by the caller.
type TextEdit struct {
	Range   syntax.TextRange
	NewText string
}

var keywordCompletions = []string{
	"fn", "let", "mut", "const", "static", "struct", "enum", "trait", "impl",
	"mod", "use", "pub", "if", "else", "match", "for", "while", "loop",
	"break", "continue", "return", "true", "false", "as", "in", "where",
	"self", "super", "crate", "type",
}

// Diagnostics runs syntax and inference over file, reporting parse errors
// and type-inference problems for every function/const/static item.
func Diagnostics(ctx *query.Context, eng *queries.Engine, file db.FileId) []Diagnostic {
	var out []Diagnostic

	tree := eng.Parse.Get(ctx, file)
	for _, e := range tree.Errors {
		out = append(out, Diagnostic{Range: e.Range, Message: e.Message, Severity: SeverityError})
	}

	ids := eng.AstIds.Get(ctx, file)
	for _, entry := range ids.All() {
		if !isInferable(entry.Item) {
			continue
		}
		key := queries.ItemKey{File: file, Item: entry.ID}
		body := eng.Body.Get(ctx, key)
		result := eng.Infer.Get(ctx, key)
		for _, d := range result.Diagnostics {
			rng, ok := exprRange(body, d.Expr)
			if !ok {
				continue
			}
			out = append(out, Diagnostic{Range: rng, Message: d.Message, Severity: SeverityError})
		}
	}
	return out
}

func isInferable(item ast.Item) bool {
	switch item.(type) {
	case *ast.FunctionDecl, *ast.ConstDecl, *ast.StaticDecl:
		return true
	default:
		return false
	}
}

func exprRange(body *hir.Body, id hir.ExprId) (syntax.TextRange, bool) {
	src, ok := body.ExprSource[id]
	if !ok {
		return syntax.TextRange{}, false
	}
	return syntax.RangeOf(src.Token()), true
}

func patRange(body *hir.Body, id hir.PatId) (syntax.TextRange, bool) {
	src, ok := body.PatSource[id]
	if !ok {
		return syntax.TextRange{}, false
	}
	return syntax.RangeOf(src.Token()), true
}

// itemCovering finds the item whose declaration token is the closest one
// at or before offset, the same single-token-position approximation
// internal/syntax documents for the rest of this layer (the concrete AST
// stores no end position per node).
func itemCovering(ids *astid.AstIdMap, offset int) (ast.Item, astid.ErasedFileAstId, bool) {
	var best ast.Item
	var bestID astid.ErasedFileAstId
	found := false
	for _, entry := range ids.All() {
		if entry.Item.Token().Offset > offset {
			continue
		}
		if !found || entry.Item.Token().Offset >= best.Token().Offset {
			best, bestID, found = entry.Item, entry.ID, true
		}
	}
	return best, bestID, found
}

// Hover reports the inferred type of whichever expression or pattern in
// file covers offset, by finding the innermost item at that position,
// inferring its body, and matching the source map's single-token ranges
// against offset.
func Hover(ctx *query.Context, eng *queries.Engine, file db.FileId, offset int) (HoverInfo, bool) {
	ids := eng.AstIds.Get(ctx, file)
	item, id, ok := itemCovering(ids, offset)
	if !ok || !isInferable(item) {
		return HoverInfo{}, false
	}
	key := queries.ItemKey{File: file, Item: id}
	body := eng.Body.Get(ctx, key)
	result := eng.Infer.Get(ctx, key)

	for exprID, src := range body.ExprSource {
		rng := syntax.RangeOf(src.Token())
		if rng.Contains(offset) {
			if t, ok := result.ExprTypes[exprID]; ok {
				return HoverInfo{Range: rng, Text: t.Apply(result.Subst).String()}, true
			}
		}
	}
	for patID, src := range body.PatSource {
		rng := syntax.RangeOf(src.Token())
		if rng.Contains(offset) {
			if t, ok := result.PatTypes[patID]; ok {
				return HoverInfo{Range: rng, Text: t.Apply(result.Subst).String()}, true
			}
		}
	}
	return HoverInfo{}, false
}

// pathAt returns the dotted/`::`-joined path text of the EPath expression
// covering offset in body, if any.
func pathAt(body *hir.Body, offset int) (string, bool) {
	for i, e := range body.Exprs {
		if e.Kind != hir.EPath {
			continue
		}
		src, ok := body.ExprSource[hir.ExprId(i)]
		if !ok {
			continue
		}
		if syntax.RangeOf(src.Token()).Contains(offset) {
			return e.Text, true
		}
	}
	return "", false
}

// Definition resolves the name at offset (a path expression, or a
// function/type reference) to the item that declares it, returning the
// defining file and its declaration token's range.
func Definition(ctx *query.Context, eng *queries.Engine, file db.FileId, offset int) (Location, bool) {
	ids := eng.AstIds.Get(ctx, file)
	item, id, ok := itemCovering(ids, offset)
	if !ok || !isInferable(item) {
		return Location{}, false
	}
	body := eng.Body.Get(ctx, queries.ItemKey{File: file, Item: id})
	name, ok := pathAt(body, offset)
	if !ok {
		return Location{}, false
	}

	rootFile := eng.CrateRootOf(file)
	defMap := eng.DefMap.Get(ctx, rootFile)
	segs := splitPathText(name)
	for _, scope := range defMap.Modules {
		if def, ok := defMap.ResolveValue(scope.Path, segs); ok {
			if loc, ok := locationOf(eng, ctx, def); ok {
				return loc, true
			}
		}
		if def, ok := defMap.ResolveType(scope.Path, segs); ok {
			if loc, ok := locationOf(eng, ctx, def); ok {
				return loc, true
			}
		}
	}
	return Location{}, false
}

func locationOf(eng *queries.Engine, ctx *query.Context, def nameres.DefId) (Location, bool) {
	targetFile := queries.FromFileRef(def.File)
	ids := eng.AstIds.Get(ctx, targetFile)
	item, ok := ids.ItemAt(def.Item)
	if !ok {
		return Location{}, false
	}
	return Location{File: targetFile, Range: syntax.RangeOf(item.Token())}, true
}

func splitPathText(path string) []string {
	var segs []string
	start := 0
	for i := 0; i+1 < len(path); i++ {
		if path[i] == ':' && path[i+1] == ':' {
			segs = append(segs, path[start:i])
			i++
			start = i + 1
		}
	}
	segs = append(segs, path[start:])
	return segs
}

// Completions lists every value and type name visible from file's crate
// root, plus the fixed keyword set, ignoring scoping precision in favor of
// always offering every name the crate declares — good enough for a
// starting completion list, refined later by filtering on prefix text at
// the transport layer.
func Completions(ctx *query.Context, eng *queries.Engine, file db.FileId, offset int) []CompletionItem {
	var out []CompletionItem
	rootFile := eng.CrateRootOf(file)
	defMap := eng.DefMap.Get(ctx, rootFile)

	for _, scope := range defMap.Modules {
		for name := range scope.Declarations.Values {
			out = append(out, CompletionItem{Label: name, Kind: CompletionVariable})
		}
		for name := range scope.Declarations.Types {
			out = append(out, CompletionItem{Label: name, Kind: CompletionStruct})
		}
	}
	for _, kw := range keywordCompletions {
		out = append(out, CompletionItem{Label: kw, Kind: CompletionKeyword})
	}
	return out
}
