package ide

import (
	"github.com/funvibe/funxy/internal/db"
	"github.com/funvibe/funxy/internal/hir"
	"github.com/funvibe/funxy/internal/nameres"
	"github.com/funvibe/funxy/internal/query"
	"github.com/funvibe/funxy/internal/queries"
	"github.com/funvibe/funxy/internal/syntax"
)

// Highlight finds every occurrence, within the single item covering
// offset, of whatever name is bound or referenced there — the scope rename
// and find-references both widen out from, but cheap enough to run on every
// cursor move for the "highlight all reads/writes of this local" case.
func Highlight(ctx *query.Context, eng *queries.Engine, file db.FileId, offset int) []syntax.TextRange {
	ids := eng.AstIds.Get(ctx, file)
	item, id, ok := itemCovering(ids, offset)
	if !ok || !isInferable(item) {
		return nil
	}
	body := eng.Body.Get(ctx, queries.ItemKey{File: file, Item: id})

	name, ok := nameAtOffset(body, offset)
	if !ok {
		return nil
	}

	var out []syntax.TextRange
	for i, p := range body.Pats {
		if p.Name != name {
			continue
		}
		if rng, ok := patRange(body, hir.PatId(i)); ok {
			out = append(out, rng)
		}
	}
	for i, e := range body.Exprs {
		if e.Kind != hir.EPath || e.Text != name {
			continue
		}
		if rng, ok := exprRange(body, hir.ExprId(i)); ok {
			out = append(out, rng)
		}
	}
	return out
}

// nameAtOffset returns whichever binding or path name's source range
// contains offset, preferring a pattern binding over a path expression
// since a binding's own declaration site is also a valid path-shaped token.
func nameAtOffset(body *hir.Body, offset int) (string, bool) {
	for i, p := range body.Pats {
		if p.Name == "" {
			continue
		}
		src, ok := body.PatSource[hir.PatId(i)]
		if !ok {
			continue
		}
		if syntax.RangeOf(src.Token()).Contains(offset) {
			return p.Name, true
		}
	}
	if name, ok := pathAt(body, offset); ok {
		return name, true
	}
	return "", false
}

// FindReferences resolves the name at offset to its declaring item via
// Definition, then scans every file in file's source root for path
// expressions whose own name resolution reaches that same declaration.
func FindReferences(ctx *query.Context, eng *queries.Engine, file db.FileId, offset int) []Location {
	def, ok := resolveAtOffset(ctx, eng, file, offset)
	if !ok {
		return nil
	}

	var out []Location
	for _, candidate := range filesInRootOf(ctx, eng, file) {
		ids := eng.AstIds.Get(ctx, candidate)
		rootFile := eng.CrateRootOf(candidate)
		defMap := eng.DefMap.Get(ctx, rootFile)
		for _, entry := range ids.All() {
			if !isInferable(entry.Item) {
				continue
			}
			body := eng.Body.Get(ctx, queries.ItemKey{File: candidate, Item: entry.ID})
			for i, e := range body.Exprs {
				if e.Kind != hir.EPath {
					continue
				}
				segs := splitPathText(e.Text)
				found := false
				for _, scope := range defMap.Modules {
					if resolved, ok := defMap.ResolveValue(scope.Path, segs); ok && resolved == def {
						found = true
						break
					}
					if resolved, ok := defMap.ResolveType(scope.Path, segs); ok && resolved == def {
						found = true
						break
					}
				}
				if !found {
					continue
				}
				if rng, ok := exprRange(body, hir.ExprId(i)); ok {
					out = append(out, Location{File: candidate, Range: rng})
				}
			}
		}
	}
	if loc, ok := locationOf(eng, ctx, def); ok {
		out = append(out, loc)
	}
	return out
}

// resolveAtOffset is Definition's lookup step, exposed separately so
// FindReferences/Rename can compare every candidate path expression's own
// resolution against the same DefId rather than re-deriving a Location.
func resolveAtOffset(ctx *query.Context, eng *queries.Engine, file db.FileId, offset int) (nameres.DefId, bool) {
	ids := eng.AstIds.Get(ctx, file)
	item, id, ok := itemCovering(ids, offset)
	if !ok || !isInferable(item) {
		return nameres.DefId{}, false
	}
	body := eng.Body.Get(ctx, queries.ItemKey{File: file, Item: id})
	name, ok := pathAt(body, offset)
	if !ok {
		return nameres.DefId{}, false
	}
	rootFile := eng.CrateRootOf(file)
	defMap := eng.DefMap.Get(ctx, rootFile)
	segs := splitPathText(name)
	for _, scope := range defMap.Modules {
		if def, ok := defMap.ResolveValue(scope.Path, segs); ok {
			return def, true
		}
		if def, ok := defMap.ResolveType(scope.Path, segs); ok {
			return def, true
		}
	}
	return nameres.DefId{}, false
}

func filesInRootOf(ctx *query.Context, eng *queries.Engine, file db.FileId) []db.FileId {
	snap := ctx.Snapshot()
	rootId, ok := snap.RootOf(file)
	if !ok {
		return []db.FileId{file}
	}
	root, ok := snap.SourceRoot(rootId)
	if !ok {
		return []db.FileId{file}
	}
	var out []db.FileId
	for _, p := range root.Files() {
		if id, ok := root.ResolveFromDir(".", p); ok {
			out = append(out, id)
		}
	}
	return out
}

// Rename renames every occurrence of the binding/item at offset to
// newName, as a set of per-file text edits. Local bindings are renamed
// within their own body only; crate-level items are renamed everywhere
// FindReferences can see a use.
func Rename(ctx *query.Context, eng *queries.Engine, file db.FileId, offset int, newName string) map[db.FileId][]TextEdit {
	out := map[db.FileId][]TextEdit{}

	ids := eng.AstIds.Get(ctx, file)
	item, id, ok := itemCovering(ids, offset)
	if !ok || !isInferable(item) {
		return out
	}
	body := eng.Body.Get(ctx, queries.ItemKey{File: file, Item: id})
	if name, ok := nameAtOffset(body, offset); ok {
		if _, isLocal := localBindingNamed(body, name); isLocal {
			for i, p := range body.Pats {
				if p.Name != name {
					continue
				}
				if rng, ok := patRange(body, hir.PatId(i)); ok {
					out[file] = append(out[file], TextEdit{Range: rng, NewText: newName})
				}
			}
			for i, e := range body.Exprs {
				if e.Kind != hir.EPath || e.Text != name {
					continue
				}
				if rng, ok := exprRange(body, hir.ExprId(i)); ok {
					out[file] = append(out[file], TextEdit{Range: rng, NewText: newName})
				}
			}
			return out
		}
	}

	for _, loc := range FindReferences(ctx, eng, file, offset) {
		out[loc.File] = append(out[loc.File], TextEdit{Range: loc.Range, NewText: newName})
	}
	return out
}

// localBindingNamed reports whether name is bound by some pattern in body
// (a function parameter or a `let`), as opposed to resolving to a crate-
// level item.
func localBindingNamed(body *hir.Body, name string) (hir.PatId, bool) {
	for i, p := range body.Pats {
		if p.Kind == "bind" && p.Name == name {
			return hir.PatId(i), true
		}
	}
	return 0, false
}
