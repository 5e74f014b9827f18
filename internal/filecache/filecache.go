// Package filecache is a small bounded LRU cache sitting in front of the
// parse query, for workloads (batch analysis) that walk
// many files without an internal/query Engine's revision tracking — the
// Engine's memo tables already subsume this for the steady-state editor
// case, but a plain LRU is cheaper to stand up for one-shot tools.
package filecache

import (
	"container/list"
	"sync"

	"github.com/funvibe/funxy/internal/config"
	"github.com/funvibe/funxy/internal/db"
	"github.com/funvibe/funxy/internal/syntax"
)

type entry struct {
	file db.FileId
	tree *syntax.Tree
}

// Cache is a fixed-capacity, thread-safe LRU keyed by db.FileId.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	index    map[db.FileId]*list.Element
}

// New creates a Cache bounded at capacity entries. capacity <= 0 uses
// config.DefaultFileCacheCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = config.DefaultFileCacheCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		index:    make(map[db.FileId]*list.Element),
	}
}

// Get returns the cached tree for file, promoting it to most-recently-used.
func (c *Cache) Get(file db.FileId) (*syntax.Tree, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[file]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).tree, true
}

// Put inserts or replaces the cached tree for file, evicting the
// least-recently-used entry if the cache is now over capacity.
func (c *Cache) Put(file db.FileId, tree *syntax.Tree) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[file]; ok {
		el.Value.(*entry).tree = tree
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&entry{file: file, tree: tree})
	c.index[file] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.index, oldest.Value.(*entry).file)
		}
	}
}

// Invalidate drops file's cached entry, if any, e.g. after an edit.
func (c *Cache) Invalidate(file db.FileId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[file]; ok {
		c.ll.Remove(el)
		delete(c.index, file)
	}
}

// Len reports how many entries are currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
