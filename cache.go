package symcore

import (
	"container/list"
	"context"
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// CacheEntry is a memoized simplification. Input is kept so that hash
// collisions can be detected.
type CacheEntry struct {
	Input  Expr
	Output Expr
	Guard  Guard
}

// Cache memoizes simplified subtrees keyed by structural hash.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key uint64) (CacheEntry, bool)
	Put(ctx context.Context, key uint64, entry CacheEntry)
	Len() int
	Reset()
}

// ============================================================
// Structural hashing
// ============================================================

// hashExpr hashes the canonical serialization of e together with salt
// (the engine configuration fingerprint).
func hashExpr(e Expr, salt uint64) uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], salt)
	_, _ = d.Write(buf[:])
	writeExpr(d, e)
	return d.Sum64()
}

// HashExpr returns the structural hash used as cache key for e.
func HashExpr(e Expr) uint64 { return hashExpr(e, 0) }

func writeExpr(d *xxhash.Digest, e Expr) {
	_, _ = d.WriteString(e.exprType())
	switch x := e.(type) {
	case *Num:
		_, _ = d.WriteString(":" + x.val.kind.String() + ":" + x.val.String())
		if p := x.val.Precision(); p > 0 {
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], uint32(p))
			_, _ = d.Write(buf[:])
		}
	case *Sym:
		_, _ = d.WriteString(":" + x.name)
	case *Const:
		_, _ = d.WriteString(":" + x.name)
	case *Func:
		_, _ = d.WriteString(":" + x.name)
	}
	_, _ = d.WriteString("(")
	for _, c := range e.Children() {
		writeExpr(d, c)
		_, _ = d.WriteString(",")
	}
	_, _ = d.WriteString(")")
}

// ============================================================
// In-memory LRU
// ============================================================

// CacheStats are cumulative counters of an LRUCache.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// LRUCache is a bounded in-memory cache. A recency list keeps eviction O(1);
// every access takes the mutex since a hit moves its entry to the front.
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[uint64]*list.Element
	recency  *list.List

	hits, misses, evictions atomic.Uint64
}

type lruEntry struct {
	key   uint64
	entry CacheEntry
}

// NewLRUCache returns a cache holding at most capacity entries (minimum 1).
func NewLRUCache(capacity int) *LRUCache {
	if capacity < 1 {
		capacity = 1
	}
	return &LRUCache{
		capacity: capacity,
		entries:  make(map[uint64]*list.Element, capacity),
		recency:  list.New(),
	}
}

func (c *LRUCache) Get(_ context.Context, key uint64) (CacheEntry, bool) {
	c.mu.Lock()
	el, ok := c.entries[key]
	var entry CacheEntry
	if ok {
		c.recency.MoveToFront(el)
		entry = el.Value.(*lruEntry).entry
	}
	c.mu.Unlock()
	if !ok {
		c.misses.Add(1)
		return CacheEntry{}, false
	}
	c.hits.Add(1)
	return entry, true
}

func (c *LRUCache) Put(_ context.Context, key uint64, entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*lruEntry).entry = entry
		c.recency.MoveToFront(el)
		return
	}
	if len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	c.entries[key] = c.recency.PushFront(&lruEntry{key: key, entry: entry})
}

// evictOldest must be called with the mutex held.
func (c *LRUCache) evictOldest() {
	el := c.recency.Back()
	if el == nil {
		return
	}
	c.recency.Remove(el)
	delete(c.entries, el.Value.(*lruEntry).key)
	c.evictions.Add(1)
}

func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LRUCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*list.Element, c.capacity)
	c.recency.Init()
}

func (c *LRUCache) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Evictions: c.evictions.Load()}
}

// ============================================================
// Tiered cache
// ============================================================

type tieredCache struct {
	l1, l2 Cache
}

// NewTieredCache reads l1 then l2, back-filling l1 on an l2 hit. Writes go
// to both tiers.
func NewTieredCache(l1, l2 Cache) Cache { return &tieredCache{l1: l1, l2: l2} }

func (t *tieredCache) Get(ctx context.Context, key uint64) (CacheEntry, bool) {
	if e, ok := t.l1.Get(ctx, key); ok {
		return e, true
	}
	e, ok := t.l2.Get(ctx, key)
	if ok {
		t.l1.Put(ctx, key, e)
	}
	return e, ok
}

func (t *tieredCache) Put(ctx context.Context, key uint64, entry CacheEntry) {
	t.l1.Put(ctx, key, entry)
	t.l2.Put(ctx, key, entry)
}

func (t *tieredCache) Len() int { return t.l1.Len() }

func (t *tieredCache) Reset() {
	t.l1.Reset()
	t.l2.Reset()
}
