package nameres

import (
	"strings"

	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/astid"
)

// ModulePath is a `::`-joined sequence of module segments; "" names the
// crate root.
type ModulePath string

func (p ModulePath) Child(name string) ModulePath {
	if p == "" {
		return ModulePath(name)
	}
	return ModulePath(string(p) + "::" + name)
}

func (p ModulePath) Segments() []string {
	if p == "" {
		return nil
	}
	return strings.Split(string(p), "::")
}

// ModuleScope is one module's declared names, its resolved imports, and its
// child modules.
type ModuleScope struct {
	Path         ModulePath
	File         FileRef // the file this module's items physically live in
	Declarations PerNs
	Imports      PerNs // result of resolving this module's `use` items
	Children     map[string]ModulePath
	unresolved   []importDirective
}

type importDirective struct {
	segments []string // absolute or self/super/crate-relative path
	rename   string   // "" if no `as`
	glob     bool
}

// Resolver is the file-system boundary nameres needs: turning a parsed
// file's AST into a flat view, and turning `mod x;` into the child file it
// names. internal/queries supplies the real implementation backed by
// db.SourceRoot and the parse query; tests supply an in-memory fake.
type Resolver interface {
	Program(file FileRef) *ast.Program
	AstIds(file FileRef) *astid.AstIdMap
	// ResolveModFile finds the file `mod name;` refers to, honoring an
	// explicit #[path] override when non-empty.
	ResolveModFile(fromFile FileRef, name string, pathOverride string) (FileRef, bool)
}

// CrateDefMap is the fully-resolved module tree for one crate (one source
// root), rooted at the file passed to Build.
type CrateDefMap struct {
	Root    ModulePath
	Modules map[ModulePath]*ModuleScope
}

// ResolveType looks up a type-namespace path starting from module `from`.
// A leading `crate`, `self` or single `super` picks the starting module;
// each middle segment steps into a child module, and the last segment is
// looked up in that module's declarations, then its imports. Visibility
// and privacy are not modeled.
func (m *CrateDefMap) ResolveType(from ModulePath, segments []string) (DefId, bool) {
	return m.resolve(from, segments, func(ns PerNs) map[string]DefId { return ns.Types })
}

func (m *CrateDefMap) ResolveValue(from ModulePath, segments []string) (DefId, bool) {
	return m.resolve(from, segments, func(ns PerNs) map[string]DefId { return ns.Values })
}

func (m *CrateDefMap) resolve(from ModulePath, segments []string, pick func(PerNs) map[string]DefId) (DefId, bool) {
	if len(segments) == 0 {
		return DefId{}, false
	}
	cur := from
	rest := segments
	switch segments[0] {
	case "crate":
		cur = m.Root
		rest = segments[1:]
	case "self":
		rest = segments[1:]
	case "super":
		parent, ok := parentOf(cur)
		if !ok {
			return DefId{}, false
		}
		cur = parent
		rest = segments[1:]
	}
	for len(rest) > 1 {
		scope, ok := m.Modules[cur]
		if !ok {
			return DefId{}, false
		}
		child, ok := scope.Children[rest[0]]
		if !ok {
			return DefId{}, false
		}
		cur = child
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return DefId{}, false
	}
	scope, ok := m.Modules[cur]
	if !ok {
		return DefId{}, false
	}
	if id, ok := pick(scope.Declarations)[rest[0]]; ok {
		return id, true
	}
	if id, ok := pick(scope.Imports)[rest[0]]; ok {
		return id, true
	}
	return DefId{}, false
}

func parentOf(p ModulePath) (ModulePath, bool) {
	segs := p.Segments()
	if len(segs) == 0 {
		return "", false
	}
	return ModulePath(strings.Join(segs[:len(segs)-1], "::")), true
}

// Build walks from rootFile's Program, registering every item into its
// module's PerNs, descending into both inline `mod x { ... }` blocks and
// file-backed `mod x;` declarations (resolved via r), then resolves every
// `use` directive to a fixed point: repeatedly re-attempts unresolved
// imports until a pass makes no further progress, which terminates because
// each pass either resolves at least one import or the set is unchanged.
func Build(r Resolver, rootFile FileRef) *CrateDefMap {
	m := &CrateDefMap{Root: "", Modules: map[ModulePath]*ModuleScope{}}
	collectModule(r, m, "", rootFile)

	for {
		progressed := false
		for _, scope := range m.Modules {
			remaining := scope.unresolved[:0]
			for _, imp := range scope.unresolved {
				if resolveImport(m, scope, imp) {
					progressed = true
					continue
				}
				remaining = append(remaining, imp)
			}
			scope.unresolved = remaining
		}
		if !progressed {
			break
		}
	}
	return m
}

func resolveImport(m *CrateDefMap, scope *ModuleScope, imp importDirective) bool {
	if imp.glob {
		target, ok := resolveModulePath(m, scope.Path, imp.segments)
		if !ok {
			return false
		}
		src, ok := m.Modules[target]
		if !ok {
			return false
		}
		changed := scope.Imports.mergeFrom(src.Declarations, false)
		changed = scope.Imports.mergeFrom(src.Imports, false) || changed
		return changed
	}
	if len(imp.segments) == 0 {
		return true
	}
	leaf := imp.segments[len(imp.segments)-1]
	name := leaf
	if imp.rename != "" {
		name = imp.rename
	}
	parentSegs := imp.segments[:len(imp.segments)-1]
	targetMod, ok := resolveModulePath(m, scope.Path, parentSegs)
	if !ok {
		return false
	}
	src, ok := m.Modules[targetMod]
	if !ok {
		return false
	}
	found := false
	if id, ok := src.Declarations.Types[leaf]; ok {
		scope.Imports.Types[name] = id
		found = true
	} else if id, ok := src.Imports.Types[leaf]; ok {
		scope.Imports.Types[name] = id
		found = true
	}
	if id, ok := src.Declarations.Values[leaf]; ok {
		scope.Imports.Values[name] = id
		found = true
	} else if id, ok := src.Imports.Values[leaf]; ok {
		scope.Imports.Values[name] = id
		found = true
	}
	if child, ok := src.Children[leaf]; ok {
		scope.Children[name] = child
		found = true
	}
	return found
}

func resolveModulePath(m *CrateDefMap, from ModulePath, segments []string) (ModulePath, bool) {
	if len(segments) == 0 {
		return from, true
	}
	cur := from
	rest := segments
	switch segments[0] {
	case "crate":
		cur, rest = m.Root, segments[1:]
	case "self":
		rest = segments[1:]
	case "super":
		parent, ok := parentOf(cur)
		if !ok {
			return "", false
		}
		cur, rest = parent, segments[1:]
	}
	for _, seg := range rest {
		scope, ok := m.Modules[cur]
		if !ok {
			return "", false
		}
		child, ok := scope.Children[seg]
		if !ok {
			return "", false
		}
		cur = child
	}
	return cur, true
}

func collectModule(r Resolver, m *CrateDefMap, path ModulePath, file FileRef) {
	scope := &ModuleScope{
		Path:         path,
		File:         file,
		Declarations: newPerNs(),
		Imports:      newPerNs(),
		Children:     map[string]ModulePath{},
	}
	m.Modules[path] = scope

	prog := r.Program(file)
	ids := r.AstIds(file)
	collectItems(r, m, scope, ids, prog.Items)
}

func collectItems(r Resolver, m *CrateDefMap, scope *ModuleScope, ids *astid.AstIdMap, items []ast.Item) {
	for _, item := range items {
		id, _ := astid.IdOfNode(ids, item)
		def := DefId{File: scope.File, Item: id.Raw()}
		switch it := item.(type) {
		case *ast.StructDecl:
			scope.Declarations.Types[it.Name] = def
		case *ast.EnumDecl:
			scope.Declarations.Types[it.Name] = def
			for _, v := range it.Variants {
				scope.Declarations.Values[v.Name] = def
			}
		case *ast.TraitDecl:
			scope.Declarations.Types[it.Name] = def
		case *ast.TypeAliasDecl:
			scope.Declarations.Types[it.Name] = def
		case *ast.FunctionDecl:
			scope.Declarations.Values[it.Name] = def
		case *ast.ConstDecl:
			scope.Declarations.Values[it.Name] = def
		case *ast.StaticDecl:
			scope.Declarations.Values[it.Name] = def
		case *ast.MacroRulesDecl:
			scope.Declarations.Macros[it.Name] = def
		case *ast.UseDecl:
			collectUseTree(scope, it.Tree, nil)
		case *ast.ImplDecl:
			// Impls don't introduce module-level names; trait/inherent
			// method resolution happens in internal/traitsolver.
		case *ast.ModDecl:
			childPath := scope.Path.Child(it.Name)
			scope.Children[it.Name] = childPath
			scope.Declarations.Types[it.Name] = DefId{File: scope.File, Item: id.Raw()}
			if it.Items != nil {
				childScope := &ModuleScope{
					Path:         childPath,
					File:         scope.File,
					Declarations: newPerNs(),
					Imports:      newPerNs(),
					Children:     map[string]ModulePath{},
				}
				m.Modules[childPath] = childScope
				collectItems(r, m, childScope, ids, it.Items)
			} else if childFile, ok := r.ResolveModFile(scope.File, it.Name, it.PathOverride); ok {
				collectModule(r, m, childPath, childFile)
			}
		}
	}
}

func collectUseTree(scope *ModuleScope, tree *ast.UseTree, prefix []string) {
	if tree == nil {
		return
	}
	segs := append(append([]string{}, prefix...), tree.Segments...)
	if len(tree.Group) > 0 {
		for _, child := range tree.Group {
			collectUseTree(scope, child, segs)
		}
		return
	}
	if tree.Glob {
		scope.unresolved = append(scope.unresolved, importDirective{segments: segs, glob: true})
		return
	}
	scope.unresolved = append(scope.unresolved, importDirective{segments: segs, rename: tree.Alias})
}
