// Package query implements the demand-driven, memoizing incremental
// computation graph described in spec.md §4.B (component B). Every derived
// fact in the rest of the engine — parse trees, def maps, inferred types —
// is the result of calling Get on a *Query[K, V] registered here.
//
// Concurrency follows spec.md §5: concurrent Get calls for the same
// (query, key) coalesce behind one producer via golang.org/x/sync/singleflight;
// calls for distinct keys proceed independently; a snapshot write cancels
// in-flight reads, which unwind via panic/recover rather than deadlocking or
// corrupting the memo table with partial entries.
package query

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/funvibe/funxy/internal/db"
)

// ErrCycle is returned when a query transitively calls itself and has no
// OnCycle recovery function (OnCycle receives only the key).
var ErrCycle = errors.New("query: dependency cycle detected")

// ErrCancelled is returned when a read unwound because a write occurred
// concurrently. It is not a real error per spec.md §7: "Cancellation — not
// an error; unwinds the current query stack without publishing results."
var ErrCancelled = errors.New("query: snapshot cancelled")

// DependencyKind distinguishes a dependency on another query's result from
// a direct read of an input file, per spec.md §4.B.1.
type DependencyKind uint8

const (
	DepQuery DependencyKind = iota
	DepInput
)

// Dependency is one edge recorded automatically while a query executes.
type Dependency struct {
	Kind      DependencyKind
	Query     string // query name, for DepQuery
	Key       string // serialized key, for DepQuery
	InputFile db.FileId
}

// Context is the sole channel through which a running query may read
// inputs or call other queries — spec.md §9's "ambient context object".
// Implementations must not read global state outside of it.
type Context struct {
	engine *Engine
	snap   *db.Snapshot
	revision db.Revision

	mu       sync.Mutex
	deps     []Dependency
	active   map[string]bool // (query,key) currently on this call stack, for cycle detection
}

// Snapshot exposes the underlying database snapshot, for queries that need
// to read file text (the base input query) or source-root structure.
func (c *Context) Snapshot() *db.Snapshot { return c.snap }

// Revision is the revision this Context's enclosing top-level query call is
// pinned to.
func (c *Context) Revision() db.Revision { return c.revision }

// CheckCancelled unwinds the current query stack if a write has occurred
// since this context's snapshot was taken. Queries should call this before
// starting an expensive sub-computation (spec.md §5: "well-defined yield
// points").
func (c *Context) CheckCancelled() {
	if c.snap.Cancelled() {
		panic(cancelSignal{})
	}
}

type cancelSignal struct{}

type cycleSignal struct {
	query string
	key   string
}

func (c *Context) recordDep(dep Dependency) {
	c.mu.Lock()
	c.deps = append(c.deps, dep)
	c.mu.Unlock()
}

// ReadInput records a dependency on file's text and returns it. Any query
// that reads source text directly (rather than through another query)
// must go through here so invalidation is tracked.
func (c *Context) ReadInput(file db.FileId) (string, db.Durability, bool) {
	c.recordDep(Dependency{Kind: DepInput, InputFile: file})
	return c.snap.FileText(file)
}

type entry struct {
	value      interface{}
	computed   db.Revision // revision at which the value last actually changed
	verified   db.Revision // revision at which this entry was last confirmed valid
	deps       []Dependency
	durability db.Durability
}

type table struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
}

// Engine owns every query's memo table plus the process-wide registry of
// live query tables. One Engine is typically paired with one db.Database.
type Engine struct {
	mu     sync.Mutex
	tables map[string]*table
}

// NewEngine creates an empty Engine.
func NewEngine() *Engine {
	return &Engine{tables: make(map[string]*table)}
}

func (e *Engine) tableFor(name string) *table {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[name]
	if !ok {
		t = &table{entries: make(map[string]*entry)}
		e.tables[name] = t
	}
	return t
}

// NewContext starts a fresh top-level query context against snap. Callers
// (editor-facing operations in internal/ide) create one Context per
// logical request and pass it through every Get call.
func (e *Engine) NewContext(snap *db.Snapshot) *Context {
	return &Context{
		engine:   e,
		snap:     snap,
		revision: snap.Revision(),
		active:   make(map[string]bool),
	}
}

// Stats reports the number of live memo entries per query, for diagnostics
// and tests asserting incrementality.
func (e *Engine) Stats() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]int, len(e.tables))
	for name, t := range e.tables {
		t.mu.Lock()
		out[name] = len(t.entries)
		t.mu.Unlock()
	}
	return out
}

// EntryStatus reports whether a given (query, key) is cached and, if so,
// its computed/verified revisions — used by tests asserting the "validated,
// not recomputed" early-exit path (spec.md §8 scenario 1).
type EntryStatus struct {
	Cached   bool
	Computed db.Revision
	Verified db.Revision
}

func (e *Engine) entryStatus(name, keyStr string) EntryStatus {
	e.mu.Lock()
	t, ok := e.tables[name]
	e.mu.Unlock()
	if !ok {
		return EntryStatus{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	en, ok := t.entries[keyStr]
	if !ok {
		return EntryStatus{}
	}
	return EntryStatus{Cached: true, Computed: en.computed, Verified: en.verified}
}

// Query[K,V] is a single memoizing query, keyed by K, producing V.
type Query[K comparable, V any] struct {
	Name    string
	Compute func(ctx *Context, key K) V

	// OnCycle, if set, supplies a recovery value instead of surfacing
	// ErrCycle when this query is (transitively) called reentrantly
	// (spec.md §4.B.4).
	OnCycle func(key K) V

	// Eq overrides the structural-equality check used for the "early exit"
	// short-circuit described in spec.md §4.B.2. Defaults to
	// reflect.DeepEqual.
	Eq func(a, b V) bool

	engine *Engine
	table  *table
}

// NewQuery registers a new query with engine. name must be unique across
// all queries registered on engine.
func NewQuery[K comparable, V any](engine *Engine, name string, compute func(ctx *Context, key K) V) *Query[K, V] {
	q := &Query[K, V]{Name: name, Compute: compute, engine: engine}
	q.table = engine.tableFor(name)
	return q
}

func (q *Query[K, V]) equalValues(a, b interface{}) bool {
	av, aok := a.(V)
	bv, bok := b.(V)
	if !aok || !bok {
		return false
	}
	if q.Eq != nil {
		return q.Eq(av, bv)
	}
	return reflect.DeepEqual(av, bv)
}

func keyString[K any](key K) string {
	return fmt.Sprintf("%#v", key)
}

// Get resolves key against the current revision, either by early-exiting a
// still-valid cache entry, validating a possibly-stale one, or recomputing
// from scratch — spec.md §4.B.2's three-way decision. It registers a
// dependency of the calling Context on (q.Name, key).
func (q *Query[K, V]) Get(ctx *Context, key K) V {
	ctx.CheckCancelled()
	keyStr := keyString(key)
	active := q.Name + "\x00" + keyStr

	ctx.mu.Lock()
	if ctx.active[active] {
		ctx.mu.Unlock()
		if q.OnCycle != nil {
			return q.OnCycle(key)
		}
		panic(cycleSignal{query: q.Name, key: keyStr})
	}
	ctx.mu.Unlock()

	val, err := q.resolve(ctx, key, keyStr, active)
	if err != nil {
		// Only reachable if a cycle propagated without a recovery value;
		// re-panic so the caller's recover (or the top-level entry point)
		// can decide what to do, per spec.md §4.B.4.
		panic(cycleSignal{query: q.Name, key: keyStr})
	}
	ctx.recordDep(Dependency{Kind: DepQuery, Query: q.Name, Key: keyStr})
	return val
}

func (q *Query[K, V]) resolve(ctx *Context, key K, keyStr string, activeMark string) (V, error) {
	var zero V
	R := ctx.revision

	q.table.mu.Lock()
	en, ok := q.table.entries[keyStr]
	q.table.mu.Unlock()

	if ok && en.verified == R {
		return en.value.(V), nil
	}

	if ok {
		if fresh, stillValid := q.validate(ctx, en, R); stillValid {
			q.table.mu.Lock()
			fresh.verified = R
			q.table.entries[keyStr] = fresh
			q.table.mu.Unlock()
			return fresh.value.(V), nil
		}
	}

	// Recompute, coalescing concurrent identical computations behind one
	// producer (spec.md §5: "the second reader awaits the first's result
	// instead of duplicating work").
	iface, err, _ := q.table.group.Do(keyStr, func() (interface{}, error) {
		return q.recompute(ctx, key, keyStr, activeMark, en, R)
	})
	if err != nil {
		return zero, err
	}
	return iface.(V), nil
}

// validate walks en's recorded dependencies and decides whether they have
// changed since en.verified, per spec.md §4.B.2's "early exit" path. It does
// NOT mutate the shared entry; callers publish verified=R themselves.
func (q *Query[K, V]) validate(ctx *Context, en *entry, R db.Revision) (*entry, bool) {
	if th, found := ctx.snap.DurabilitySinceThreshold(en.verified); found && en.durability <= th {
		return nil, false
	}
	for _, dep := range en.deps {
		switch dep.Kind {
		case DepInput:
			changedAt, _, ok := ctx.snap.ChangedAt(dep.InputFile)
			if ok && changedAt > en.verified {
				return nil, false
			}
		case DepQuery:
			subStatus := ctx.engine.entryStatus(dep.Query, dep.Key)
			if !subStatus.Cached {
				// Dependency was never materialized under this revision;
				// conservatively treat as changed.
				return nil, false
			}
			if subStatus.Computed > en.verified {
				return nil, false
			}
		}
	}
	clone := *en
	return &clone, true
}

func (q *Query[K, V]) recompute(parent *Context, key K, keyStr string, activeMark string, old *entry, R db.Revision) (interface{}, error) {
	sub := &Context{
		engine:   parent.engine,
		snap:     parent.snap,
		revision: parent.revision,
		active:   make(map[string]bool, len(parent.active)+1),
	}
	for k := range parent.active {
		sub.active[k] = true
	}
	sub.active[activeMark] = true

	var result V
	var panicked interface{}
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = r
			}
		}()
		result = q.Compute(sub, key)
	}()

	if panicked != nil {
		switch p := panicked.(type) {
		case cycleSignal:
			if p.query == q.Name && p.key == keyStr && q.OnCycle != nil {
				// The cycle closed back on this very (query, key); use the
				// recovery value as this call's result so dependents still
				// get a concrete (if degraded) answer instead of the panic
				// propagating further up the call stack.
				result = q.OnCycle(key)
				break
			}
			if p.query == q.Name && p.key == keyStr {
				return nil, ErrCycle
			}
			// Cycle closed on a different (query, key) further down the
			// stack; this frame isn't the one that can recover it, so keep
			// unwinding.
			panic(p)
		case cancelSignal:
			panic(p)
		default:
			panic(p)
		}
	}

	durability := db.High
	for _, d := range sub.deps {
		switch d.Kind {
		case DepInput:
			_, dur, ok := parent.snap.ChangedAt(d.InputFile)
			if ok {
				durability = db.Min(durability, dur)
			}
		case DepQuery:
			// A sub-query's recorded durability already folds in
			// everything it read; a missing entry counts as Low.
			st := parent.engine.tableFor(d.Query)
			st.mu.Lock()
			subEn, ok := st.entries[d.Key]
			st.mu.Unlock()
			if ok {
				durability = db.Min(durability, subEn.durability)
			} else {
				durability = db.Low
			}
		}
	}

	computed := R
	if old != nil && q.equalValues(old.value, result) {
		// Fingerprint-equality short-circuit (spec.md §4.B.2): value
		// didn't change, so dependents can still early-exit even though
		// WE had to recompute.
		computed = old.computed
	}

	newEntry := &entry{
		value:      result,
		computed:   computed,
		verified:   R,
		deps:       sub.deps,
		durability: durability,
	}
	q.table.mu.Lock()
	q.table.entries[keyStr] = newEntry
	q.table.mu.Unlock()
	return result, nil
}

// RunCatchingCancellation runs fn, converting a propagated cancellation
// panic into ErrCancelled rather than letting it escape the goroutine.
// cmd/lsp wraps every internal/ide call a request handler makes this way,
// since a concurrent edit can cancel the snapshot an in-flight request is
// reading from.
func RunCatchingCancellation(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(cancelSignal); ok {
				err = ErrCancelled
				return
			}
			if cs, ok := r.(cycleSignal); ok {
				err = fmt.Errorf("%w: %s(%s)", ErrCycle, cs.query, cs.key)
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}
