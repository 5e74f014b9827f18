// Package astid assigns each item-level AST node in a file a stable,
// serializable id — a FileAstId — so that derived data (definitions, HIR
// bodies, diagnostics) can refer to "the third function in this file"
// without holding onto a pointer from a specific parse. A fresh AstIdMap is
// built on every reparse; ids are stable across edits that don't change
// item order or count, matching the incremental story of internal/query:
// an edit inside a function body changes that function's FileAstId map
// entry not at all, so queries keyed by FileAstId for unrelated items keep
// validating instead of recomputing.
package astid

import "github.com/funvibe/funxy/internal/ast"

// ErasedFileAstId is the untyped numeric id. Ids are assigned in a
// breadth-first walk over item declarations: all of a file's top-level
// items first, then the items nested in each inline `mod { ... }` block,
// in source order.
type ErasedFileAstId uint32

// FileAstId is a type-tagged id naming a specific kind of item, so call
// sites don't have to re-check the dynamic type after a map lookup.
type FileAstId[T ast.Item] struct {
	raw ErasedFileAstId
}

// Raw exposes the untyped id, e.g. for use as a query key.
func (id FileAstId[T]) Raw() ErasedFileAstId { return id.raw }

// AstIdMap is a file's complete item-id assignment.
type AstIdMap struct {
	arena   []ast.Item
	idOfPtr map[ast.Item]ErasedFileAstId
}

// Build walks prog and assigns ids to every item, recursing into inline
// `mod` blocks (file-backed `mod x;` declarations have no Items to recurse
// into here; internal/nameres resolves those to a different file's own
// AstIdMap).
func Build(prog *ast.Program) *AstIdMap {
	m := &AstIdMap{idOfPtr: make(map[ast.Item]ErasedFileAstId)}
	queue := append([]ast.Item{}, prog.Items...)
	for i := 0; i < len(queue); i++ {
		item := queue[i]
		m.assign(item)
		if mod, ok := item.(*ast.ModDecl); ok && mod.Items != nil {
			queue = append(queue, mod.Items...)
		}
	}
	return m
}

func (m *AstIdMap) assign(item ast.Item) ErasedFileAstId {
	if id, ok := m.idOfPtr[item]; ok {
		return id
	}
	id := ErasedFileAstId(len(m.arena))
	m.arena = append(m.arena, item)
	m.idOfPtr[item] = id
	return id
}

// ItemAt dereferences an untyped id back to its AST node.
func (m *AstIdMap) ItemAt(id ErasedFileAstId) (ast.Item, bool) {
	if int(id) < 0 || int(id) >= len(m.arena) {
		return nil, false
	}
	return m.arena[id], true
}

// IdOfNode looks up the id previously assigned to a node produced by the
// same Build call. Nodes from a different parse never match, by design:
// pointer identity is only meaningful within one AstIdMap's lifetime.
func IdOfNode[T ast.Item](m *AstIdMap, node T) (FileAstId[T], bool) {
	raw, ok := m.idOfPtr[ast.Item(node)]
	return FileAstId[T]{raw: raw}, ok
}

// Get resolves a typed id back to its concrete node. It returns T's zero
// value if the id is out of range or names a node whose dynamic type isn't
// T (a stale id reused against the wrong AstIdMap); it does not panic.
func Get[T ast.Item](m *AstIdMap, id FileAstId[T]) T {
	item, ok := m.ItemAt(id.raw)
	if !ok {
		var zero T
		return zero
	}
	typed, ok := item.(T)
	if !ok {
		var zero T
		return zero
	}
	return typed
}

// Len reports how many items this map assigned ids to.
func (m *AstIdMap) Len() int { return len(m.arena) }

// All returns every (id, item) pair in assignment order.
func (m *AstIdMap) All() []struct {
	ID   ErasedFileAstId
	Item ast.Item
} {
	out := make([]struct {
		ID   ErasedFileAstId
		Item ast.Item
	}, len(m.arena))
	for i, item := range m.arena {
		out[i] = struct {
			ID   ErasedFileAstId
			Item ast.Item
		}{ID: ErasedFileAstId(i), Item: item}
	}
	return out
}
