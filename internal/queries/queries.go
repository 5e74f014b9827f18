// Package queries wires the whole analysis pipeline — parsing, item
// numbering, module/import resolution, body lowering, and type inference —
// into a single internal/query.Engine, so a caller (internal/ide) gets
// automatic memoization and invalidation across every layer just by
// calling Engine.Infer.Get(ctx, key) instead of hand-chaining the pieces.
package queries

import (
	"path/filepath"

	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/astid"
	"github.com/funvibe/funxy/internal/config"
	"github.com/funvibe/funxy/internal/db"
	"github.com/funvibe/funxy/internal/hir"
	"github.com/funvibe/funxy/internal/infer"
	"github.com/funvibe/funxy/internal/nameres"
	"github.com/funvibe/funxy/internal/query"
	"github.com/funvibe/funxy/internal/symbols"
	"github.com/funvibe/funxy/internal/syntax"
	"github.com/funvibe/funxy/internal/typesystem"
)

// ItemKey names one function-like item: the file it's declared in plus its
// stable in-file id.
type ItemKey struct {
	File db.FileId
	Item astid.ErasedFileAstId
}

// Engine owns every registered query plus the shared global symbol table
// (trait/instance registrations accumulate there the way internal/symbols
// already models scoping independent of any one query).
type Engine struct {
	root    *db.SourceRoot
	symbols *symbols.SymbolTable

	Parse  *query.Query[db.FileId, *syntax.Tree]
	AstIds *query.Query[db.FileId, *astid.AstIdMap]
	DefMap *query.Query[db.FileId, *nameres.CrateDefMap]
	Body   *query.Query[ItemKey, *hir.Body]
	Infer  *query.Query[ItemKey, *infer.Result]
}

// New builds an Engine backed by qe, resolving `mod x;` file search against
// root.
func New(qe *query.Engine, root *db.SourceRoot) *Engine {
	e := &Engine{root: root, symbols: symbols.NewEmptySymbolTable()}

	e.Parse = query.NewQuery(qe, "parse", func(ctx *query.Context, file db.FileId) *syntax.Tree {
		text, _, _ := ctx.ReadInput(file)
		return syntax.Parse(text)
	})

	e.AstIds = query.NewQuery(qe, "astIds", func(ctx *query.Context, file db.FileId) *astid.AstIdMap {
		tree := e.Parse.Get(ctx, file)
		return astid.Build(tree.Program)
	})

	e.DefMap = query.NewQuery(qe, "defMap", func(ctx *query.Context, rootFile db.FileId) *nameres.CrateDefMap {
		r := &resolverAdapter{ctx: ctx, e: e}
		return nameres.Build(r, toRef(rootFile))
	})

	e.Body = query.NewQuery(qe, "body", func(ctx *query.Context, key ItemKey) *hir.Body {
		ids := e.AstIds.Get(ctx, key.File)
		item, ok := ids.ItemAt(key.Item)
		if !ok {
			return &hir.Body{Tail: hir.NoExpr}
		}
		return lowerItem(item)
	})

	e.Infer = query.NewQuery(qe, "infer", func(ctx *query.Context, key ItemKey) *infer.Result {
		body := e.Body.Get(ctx, key)
		rootFile := e.CrateRootOf(key.File)
		defMap := e.DefMap.Get(ctx, rootFile)
		resolver := newSigResolver(e, ctx, defMap)

		var paramTypes []typesystem.Type
		ids := e.AstIds.Get(ctx, key.File)
		if item, ok := ids.ItemAt(key.Item); ok {
			if fn, ok := item.(*ast.FunctionDecl); ok {
				conv := &typeConv{}
				for _, p := range fn.Params {
					if p.IsSelf {
						paramTypes = append(paramTypes, nil)
						continue
					}
					paramTypes = append(paramTypes, conv.convert(p.Type))
				}
			}
		}
		return infer.Infer(body, paramTypes, resolver)
	})

	return e
}

// Symbols exposes the shared trait/instance registry for internal/ide to
// register prelude traits into before running diagnostics.
func (e *Engine) Symbols() *symbols.SymbolTable { return e.symbols }

// CrateRootOf finds the file that should anchor a DefMap covering file:
// the workspace's `lib.rsx` or `main.rsx`, falling back to file itself for
// a single standalone file with no declared crate root.
func (e *Engine) CrateRootOf(file db.FileId) db.FileId {
	for _, p := range e.root.Files() {
		base := filepath.Base(p)
		if base == "lib"+config.SourceFileExt || base == "main"+config.SourceFileExt {
			if filepath.Dir(p) == "." {
				if id, ok := e.root.ResolveFromDir(".", base); ok {
					return id
				}
			}
		}
	}
	return file
}

func toRef(f db.FileId) nameres.FileRef   { return nameres.FileRef(f) }
func fromRef(r nameres.FileRef) db.FileId { return db.FileId(r) }

// ToFileRef and FromFileRef expose the FileId<->FileRef conversion for
// internal/ide, which needs to turn a nameres.DefId's File back into a
// db.FileId to look up the defining item's own parse/AstIds.
func ToFileRef(f db.FileId) nameres.FileRef   { return toRef(f) }
func FromFileRef(r nameres.FileRef) db.FileId { return fromRef(r) }

func lowerItem(item ast.Item) *hir.Body {
	switch it := item.(type) {
	case *ast.FunctionDecl:
		return hir.LowerFunction(it)
	case *ast.ConstDecl:
		return hir.LowerConstExpr(it.Value)
	case *ast.StaticDecl:
		return hir.LowerConstExpr(it.Value)
	default:
		return &hir.Body{Tail: hir.NoExpr}
	}
}

// resolverAdapter bridges internal/nameres's pure Resolver interface to
// live queries and db.SourceRoot-based module file search.
type resolverAdapter struct {
	ctx *query.Context
	e   *Engine
}

func (r *resolverAdapter) Program(file nameres.FileRef) *ast.Program {
	return r.e.Parse.Get(r.ctx, fromRef(file)).Program
}

func (r *resolverAdapter) AstIds(file nameres.FileRef) *astid.AstIdMap {
	return r.e.AstIds.Get(r.ctx, fromRef(file))
}

func (r *resolverAdapter) ResolveModFile(fromFile nameres.FileRef, name string, pathOverride string) (nameres.FileRef, bool) {
	snap := r.ctx.Snapshot()
	rootId, ok := snap.RootOf(fromRef(fromFile))
	if !ok {
		return 0, false
	}
	root, ok := snap.SourceRoot(rootId)
	if !ok {
		return 0, false
	}
	path, ok := root.PathOf(fromRef(fromFile))
	if !ok {
		return 0, false
	}
	dir := filepath.ToSlash(filepath.Dir(path))
	if pathOverride != "" {
		if id, ok := root.ResolveFromDir(dir, pathOverride); ok {
			return toRef(id), true
		}
		return 0, false
	}
	candidates := []string{name + config.SourceFileExt, name + "/mod" + config.SourceFileExt}
	for _, c := range candidates {
		if id, ok := root.ResolveFromDir(dir, c); ok {
			return toRef(id), true
		}
	}
	return 0, false
}
