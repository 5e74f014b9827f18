// Package nameres builds each crate's module tree and resolves `use`
// imports to a fixed point, the per-module namespace rust-analyzer calls a
// DefMap. It depends only on internal/ast and internal/astid — it never
// touches internal/query directly, so it can be unit tested against an
// in-memory Resolver and reused unchanged from inside a memoizing query in
// internal/queries.
package nameres

import "github.com/funvibe/funxy/internal/astid"

// DefId names one item inside one file: the file it was declared in plus
// the stable id internal/astid assigned it during that file's parse.
type DefId struct {
	File FileRef
	Item astid.ErasedFileAstId
}

// FileRef is deliberately its own type (rather than reusing db.FileId
// directly) so this package has zero import-time dependency on
// internal/db; internal/queries converts at the boundary.
type FileRef uint32

// PerNs is the three independent namespaces a single name can occupy at
// once in Rust: a struct named `Foo` and a const named `Foo` don't
// collide because one lives in the type namespace and the other in the
// value namespace. Lookup in one namespace never sees entries in another.
type PerNs struct {
	Types  map[string]DefId
	Values map[string]DefId
	Macros map[string]DefId
}

func newPerNs() PerNs {
	return PerNs{Types: map[string]DefId{}, Values: map[string]DefId{}, Macros: map[string]DefId{}}
}

// mergeFrom copies entries from other into p and reports whether p changed.
// With overwrite false an existing entry is kept — first declaration (or
// first resolved import) wins; with overwrite true other's entry replaces
// it.
func (p PerNs) mergeFrom(other PerNs, overwrite bool) bool {
	changed := false
	merge := func(dst, src map[string]DefId) {
		for k, v := range src {
			if _, exists := dst[k]; exists && !overwrite {
				continue
			}
			if cur, exists := dst[k]; !exists || cur != v {
				dst[k] = v
				changed = true
			}
		}
	}
	merge(p.Types, other.Types)
	merge(p.Values, other.Values)
	merge(p.Macros, other.Macros)
	return changed
}
