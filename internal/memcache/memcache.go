// Package memcache implements the L1 cache: a per-namespace ordered map
// with O(1) LRU touch/evict and TTL expiry, built on
// hashicorp/golang-lru/v2 with each entry's store time kept beside its
// value for TTL checks, and a periodic sweeper.
package memcache

import (
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/dictcore/dictcore/internal/coreconfig"
)

// Stats is an immutable counters snapshot. Updates are functional (a new
// Stats is swapped in) so reads never take the namespace mutex.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type entry struct {
	value     any
	storedAt  time.Time
}

// namespaceCache is one partition's private state: its own mutex, its
// own LRU, its own stats pointer. No cross-namespace lock is ever held.
type namespaceCache struct {
	mu    sync.Mutex
	lru   *lru.LRU[string, entry]
	ttl   time.Duration
	stats atomic.Pointer[Stats]
}

func newNamespaceCache(limit int, ttl time.Duration) *namespaceCache {
	if limit < 1 {
		limit = 1
	}
	nc := &namespaceCache{ttl: ttl}
	// Eviction counting is explicit (Add's evicted result, TTL expiry
	// paths) rather than via an onEvict callback, so Delete and Clear do
	// not inflate the eviction counter.
	l, _ := lru.NewLRU[string, entry](limit, nil)
	nc.lru = l
	nc.stats.Store(&Stats{})
	return nc
}

func (nc *namespaceCache) bumpEvictions() {
	prev := nc.stats.Load()
	nc.stats.Store(&Stats{Hits: prev.Hits, Misses: prev.Misses, Evictions: prev.Evictions + 1})
}

func (nc *namespaceCache) bumpHits() {
	prev := nc.stats.Load()
	nc.stats.Store(&Stats{Hits: prev.Hits + 1, Misses: prev.Misses, Evictions: prev.Evictions})
}

func (nc *namespaceCache) bumpMisses() {
	prev := nc.stats.Load()
	nc.stats.Store(&Stats{Hits: prev.Hits, Misses: prev.Misses + 1, Evictions: prev.Evictions})
}

// Get returns the cached value, nil+false on miss or TTL expiry. On
// expiry the entry is removed and counted as an eviction.
func (nc *namespaceCache) Get(key string) (any, bool) {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	e, ok := nc.lru.Get(key)
	if !ok {
		nc.bumpMisses()
		return nil, false
	}
	if nc.ttl > 0 && time.Since(e.storedAt) > nc.ttl {
		nc.lru.Remove(key)
		nc.bumpEvictions()
		return nil, false
	}
	nc.bumpHits()
	return e.value, true
}

// Set inserts or replaces a value, evicting the oldest-touched entry when
// the namespace is at its memory_limit.
func (nc *namespaceCache) Set(key string, value any) {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	if evicted := nc.lru.Add(key, entry{value: value, storedAt: time.Now()}); evicted {
		nc.bumpEvictions()
	}
}

func (nc *namespaceCache) Delete(key string) bool {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.lru.Remove(key)
}

func (nc *namespaceCache) Clear() {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	nc.lru.Purge()
}

func (nc *namespaceCache) Len() int {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.lru.Len()
}

// sweepExpired removes every TTL-expired entry and returns the count
// removed, used by both the periodic sweeper and cleanup_expired_entries.
func (nc *namespaceCache) sweepExpired() int {
	if nc.ttl <= 0 {
		return 0
	}
	nc.mu.Lock()
	defer nc.mu.Unlock()

	removed := 0
	for _, key := range nc.lru.Keys() {
		e, ok := nc.lru.Peek(key)
		if !ok {
			continue
		}
		if time.Since(e.storedAt) > nc.ttl {
			nc.lru.Remove(key)
			removed++
		}
	}
	if removed > 0 {
		prev := nc.stats.Load()
		nc.stats.Store(&Stats{Hits: prev.Hits, Misses: prev.Misses, Evictions: prev.Evictions + uint64(removed)})
	}
	return removed
}

func (nc *namespaceCache) snapshot() Stats {
	return *nc.stats.Load()
}

// L1 is the full per-namespace table.
type L1 struct {
	mu         sync.RWMutex
	namespaces map[coreconfig.Namespace]*namespaceCache
	table      map[coreconfig.Namespace]coreconfig.NamespaceConfig
}

// New builds an L1 cache, one namespaceCache per entry in the namespace
// table.
func New(table map[coreconfig.Namespace]coreconfig.NamespaceConfig) *L1 {
	l1 := &L1{
		namespaces: make(map[coreconfig.Namespace]*namespaceCache, len(table)),
		table:      table,
	}
	for ns, cfg := range table {
		var ttl time.Duration
		if cfg.MemoryTTL != nil {
			ttl = *cfg.MemoryTTL
		}
		l1.namespaces[ns] = newNamespaceCache(cfg.MemoryLimit, ttl)
	}
	return l1
}

func (l1 *L1) forNamespace(ns coreconfig.Namespace) (*namespaceCache, bool) {
	l1.mu.RLock()
	defer l1.mu.RUnlock()
	nc, ok := l1.namespaces[ns]
	return nc, ok
}

func (l1 *L1) Get(ns coreconfig.Namespace, key string) (any, bool) {
	nc, ok := l1.forNamespace(ns)
	if !ok {
		return nil, false
	}
	return nc.Get(key)
}

func (l1 *L1) Set(ns coreconfig.Namespace, key string, value any) {
	nc, ok := l1.forNamespace(ns)
	if !ok {
		return
	}
	nc.Set(key, value)
}

func (l1 *L1) Delete(ns coreconfig.Namespace, key string) bool {
	nc, ok := l1.forNamespace(ns)
	if !ok {
		return false
	}
	return nc.Delete(key)
}

func (l1 *L1) ClearNamespace(ns coreconfig.Namespace) {
	if nc, ok := l1.forNamespace(ns); ok {
		nc.Clear()
	}
}

func (l1 *L1) ClearAll() {
	l1.mu.RLock()
	defer l1.mu.RUnlock()
	for _, nc := range l1.namespaces {
		nc.Clear()
	}
}

// CleanupExpiredEntries scans every namespace and evicts TTL-expired
// entries, returning the total evicted.
func (l1 *L1) CleanupExpiredEntries() int {
	l1.mu.RLock()
	defer l1.mu.RUnlock()
	total := 0
	for _, nc := range l1.namespaces {
		total += nc.sweepExpired()
	}
	return total
}

// Stats returns the stats snapshot for one namespace, or the zero Stats if
// unknown.
func (l1 *L1) Stats(ns coreconfig.Namespace) Stats {
	nc, ok := l1.forNamespace(ns)
	if !ok {
		return Stats{}
	}
	return nc.snapshot()
}

// Len reports the number of live entries in a namespace (used by tests and
// by cache.Stats aggregation).
func (l1 *L1) Len(ns coreconfig.Namespace) int {
	nc, ok := l1.forNamespace(ns)
	if !ok {
		return 0
	}
	return nc.Len()
}
