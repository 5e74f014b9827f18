// Package db holds the revision counter and mutable source-text inputs that
// feed the rest of the semantic engine (spec component A). Everything above
// this package reads source text only through a Snapshot, never through the
// Database directly, so that a long-running read always observes one
// consistent revision even while writes continue on other goroutines.
package db

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Revision is a monotonically increasing counter labelling a point in the
// input store's history. Revision 0 is never issued; it means "never
// computed".
type Revision uint64

// Durability controls how widely an edit to this input invalidates
// memoized values derived from it. Large, rarely changing inputs (library
// sources) are marked HIGH so derived values survive edits to user code
// marked LOW.
type Durability uint8

const (
	Low Durability = iota
	Medium
	High
)

// Min returns the lower of two durabilities, per spec.md §4.A: "A derived
// value's durability is the minimum durability of all inputs it
// transitively read."
func Min(a, b Durability) Durability {
	if a < b {
		return a
	}
	return b
}

func (d Durability) String() string {
	switch d {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

// FileId is an opaque handle naming a file's contents across revisions.
type FileId uint32

// SourceRootId groups a set of files that resolve relative paths against
// each other (spec.md §3 "source root").
type SourceRootId uint32

type fileState struct {
	text       string
	durability Durability
	changedAt  Revision
}

// SourceRoot groups files and resolves a (referring file, relative path)
// pair to a FileId, the contract spec.md §6 names for the module resolver.
// Path conventions are forward-slash internally; Resolve and ResolveFromDir
// normalize platform separators before matching.
type SourceRoot struct {
	ID SourceRootId

	mu       sync.RWMutex
	pathToID map[string]FileId // normalized relative path -> FileId
	idToPath map[FileId]string
}

func newSourceRoot(id SourceRootId) *SourceRoot {
	return &SourceRoot{
		ID:       id,
		pathToID: make(map[string]FileId),
		idToPath: make(map[FileId]string),
	}
}

func normalizePath(p string) string {
	return filepath.ToSlash(p)
}

// register associates a relative path with a FileId within this root.
func (r *SourceRoot) register(relPath string, id FileId) {
	relPath = normalizePath(relPath)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pathToID[relPath] = id
	r.idToPath[id] = relPath
}

// PathOf returns the root-relative path of a file, if known.
func (r *SourceRoot) PathOf(id FileId) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.idToPath[id]
	return p, ok
}

// Resolve converts a (referring file, relative path) pair to a FileId. The
// relative path is resolved against the directory of fromPath.
func (r *SourceRoot) Resolve(fromID FileId, relPath string) (FileId, bool) {
	r.mu.RLock()
	fromPath, ok := r.idToPath[fromID]
	r.mu.RUnlock()
	if !ok {
		return 0, false
	}
	dir := filepath.ToSlash(filepath.Dir(fromPath))
	joined := normalizePath(filepath.Join(dir, relPath))
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.pathToID[joined]
	return id, ok
}

// ResolveFromDir resolves relPath against a root-relative directory, rather
// than a file (used when walking `mod x;` candidates: x.rs vs x/mod.rs).
func (r *SourceRoot) ResolveFromDir(dir string, relPath string) (FileId, bool) {
	joined := normalizePath(filepath.Join(dir, relPath))
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.pathToID[joined]
	return id, ok
}

// Files returns a snapshot copy of all known root-relative paths, sorted
// for deterministic iteration.
func (r *SourceRoot) Files() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.pathToID))
	for p := range r.pathToID {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type durabilityEvent struct {
	revision  Revision
	threshold Durability // synthetic_write invalidates entries with durability <= threshold
}

// Database is the single mutable owner of revisioned source text. One
// editor session owns one Database and derives arbitrarily many cheap
// Snapshots from it (spec.md §5).
type Database struct {
	mu       sync.Mutex
	cond     *sync.Cond
	revision Revision

	files       map[FileId]*fileState
	nextFileID  uint32
	sourceRoots map[SourceRootId]*SourceRoot
	fileRoot    map[FileId]SourceRootId
	nextRootID  uint32

	live              map[string]*Snapshot
	durabilityEvents  []durabilityEvent
}

// New creates an empty Database at revision 0 (before any input has been
// recorded). The first write bumps it to revision 1.
func New() *Database {
	d := &Database{
		files:       make(map[FileId]*fileState),
		sourceRoots: make(map[SourceRootId]*SourceRoot),
		fileRoot:    make(map[FileId]SourceRootId),
		live:        make(map[string]*Snapshot),
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// NewSourceRoot allocates a new, empty source root.
func (d *Database) NewSourceRoot() *SourceRoot {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextRootID++
	id := SourceRootId(d.nextRootID)
	root := newSourceRoot(id)
	d.sourceRoots[id] = root
	return root
}

// SourceRoot looks up a previously created source root.
func (d *Database) SourceRoot(id SourceRootId) (*SourceRoot, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.sourceRoots[id]
	return r, ok
}

// RootOf returns the source root a file belongs to.
func (d *Database) RootOf(file FileId) (SourceRootId, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.fileRoot[file]
	return r, ok
}

// AllocFile reserves a new FileId for the given root-relative path inside
// root, without yet giving it any text. SetFileText must follow.
func (d *Database) AllocFile(root *SourceRoot, relPath string) FileId {
	d.mu.Lock()
	d.nextFileID++
	id := FileId(d.nextFileID)
	d.fileRoot[id] = root.ID
	d.mu.Unlock()
	root.register(relPath, id)
	return id
}

// SetFileText records a new text for file, bumping the global revision.
// Blocks until every outstanding Snapshot has either finished or observed
// cancellation and called Close, matching spec.md §5's single-writer rule:
// "writes are serialized and block until all outstanding snapshots complete
// (or are cancelled)".
func (d *Database) SetFileText(file FileId, text string, durability Durability) Revision {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.signalAndDrainLocked()

	d.revision++
	r := d.revision
	st, ok := d.files[file]
	if !ok {
		st = &fileState{}
		d.files[file] = st
	}
	st.text = text
	st.durability = durability
	st.changedAt = r
	return r
}

// SyntheticWrite bumps the revision without changing any data, invalidating
// only memo entries whose computed durability is <= durability. Used to
// measure incremental cost (spec.md §4.A).
func (d *Database) SyntheticWrite(durability Durability) Revision {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.signalAndDrainLocked()

	d.revision++
	r := d.revision
	d.durabilityEvents = append(d.durabilityEvents, durabilityEvent{revision: r, threshold: durability})
	return r
}

// signalAndDrainLocked must be called with d.mu held. It signals every live
// snapshot to cancel and blocks until the registry is empty.
func (d *Database) signalAndDrainLocked() {
	for _, s := range d.live {
		s.cancel()
	}
	for len(d.live) > 0 {
		d.cond.Wait()
	}
}

// Revision returns the current global revision.
func (d *Database) Revision() Revision {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.revision
}

// ChangedAt returns the revision at which file's text last actually changed,
// and its current durability. Used by the query engine to validate direct
// input-read dependencies without needing to go through a Snapshot.
func (d *Database) ChangedAt(file FileId) (Revision, Durability, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.files[file]
	if !ok {
		return 0, Low, false
	}
	return st.changedAt, st.durability, true
}

// DurabilitySinceThreshold returns the minimum synthetic-write threshold
// among events recorded strictly after `since`, i.e. the most aggressive
// invalidation that should apply to an entry last verified at `since`.
func (d *Database) DurabilitySinceThreshold(since Revision) (Durability, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	found := false
	min := High
	for _, ev := range d.durabilityEvents {
		if ev.revision > since {
			found = true
			if ev.threshold < min {
				min = ev.threshold
			}
		}
	}
	return min, found
}

// Snapshot returns a read-only view at the current revision. Queries
// executed against a snapshot observe a consistent point-in-time view even
// as new writes occur; a concurrent write signals this snapshot to cancel.
func (d *Database) Snapshot() *Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := &Snapshot{
		id:  uuid.NewString(),
		db:  d,
		rev: d.revision,
	}
	d.live[s.id] = s
	return s
}

// Snapshot is a read-only, point-in-time view of a Database. Reads against
// it never observe a mixture of revisions (spec.md §5).
type Snapshot struct {
	id         string
	db         *Database
	rev        Revision
	cancelled  boolFlag
	closeOnce  sync.Once
}

// boolFlag is a tiny mutex-guarded flag; kept as its own type so zero-value
// Snapshot{} (used in tests) is race-free without extra init.
type boolFlag struct {
	mu sync.Mutex
	v  bool
}

func (f *boolFlag) set() {
	f.mu.Lock()
	f.v = true
	f.mu.Unlock()
}

func (f *boolFlag) get() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.v
}

func (s *Snapshot) cancel() { s.cancelled.set() }

// Cancelled reports whether a write has occurred since this snapshot was
// taken, meaning the snapshot should unwind at the next opportunity.
func (s *Snapshot) Cancelled() bool { return s.cancelled.get() }

// Revision returns the revision this snapshot is pinned to.
func (s *Snapshot) Revision() Revision { return s.rev }

// FileText reads a file's text as of this snapshot's revision. Because the
// Database only overwrites fileState in place under its own lock and a
// write always drains snapshots first, by the time a write mutates a file
// this snapshot has already been cancelled and (by convention) the caller
// has stopped reading from it; FileText after cancellation may therefore
// return a newer value than the pinned revision and callers MUST check
// Cancelled()/the query engine's cancellation propagation rather than rely
// on FileText alone for consistency.
func (s *Snapshot) FileText(file FileId) (string, Durability, bool) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	st, ok := s.db.files[file]
	if !ok {
		return "", Low, false
	}
	return st.text, st.durability, true
}

// ChangedAt delegates to the owning Database.
func (s *Snapshot) ChangedAt(file FileId) (Revision, Durability, bool) {
	return s.db.ChangedAt(file)
}

// DurabilitySinceThreshold delegates to the owning Database.
func (s *Snapshot) DurabilitySinceThreshold(since Revision) (Durability, bool) {
	return s.db.DurabilitySinceThreshold(since)
}

// SourceRoot delegates to the owning Database.
func (s *Snapshot) SourceRoot(id SourceRootId) (*SourceRoot, bool) {
	return s.db.SourceRoot(id)
}

// RootOf delegates to the owning Database.
func (s *Snapshot) RootOf(file FileId) (SourceRootId, bool) {
	return s.db.RootOf(file)
}

// Close releases the snapshot, allowing a blocked writer to proceed. Callers
// must always Close a snapshot, typically via defer.
func (s *Snapshot) Close() {
	s.closeOnce.Do(func() {
		s.db.mu.Lock()
		delete(s.db.live, s.id)
		s.db.cond.Broadcast()
		s.db.mu.Unlock()
	})
}

// PathFromURI strips a file:// scheme, for editors that pass LSP-style URIs
// down into FileId lookups at the boundary.
func PathFromURI(uri string) string {
	const prefix = "file://"
	if strings.HasPrefix(uri, prefix) {
		return uri[len(prefix):]
	}
	return uri
}
