package memcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dictcore/dictcore/internal/coreconfig"
)

func smallTable(limit int, ttl time.Duration) map[coreconfig.Namespace]coreconfig.NamespaceConfig {
	cfg := coreconfig.NamespaceConfig{MemoryLimit: limit, Compression: coreconfig.CompressionNone}
	if ttl > 0 {
		cfg.MemoryTTL = &ttl
	}
	return map[coreconfig.Namespace]coreconfig.NamespaceConfig{
		coreconfig.NamespaceDefault: cfg,
	}
}

func TestSetThenGetReturnsValue(t *testing.T) {
	l1 := New(smallTable(10, 0))

	l1.Set(coreconfig.NamespaceDefault, "k", map[string]any{"v": 1})
	got, ok := l1.Get(coreconfig.NamespaceDefault, "k")
	require.True(t, ok)
	require.Equal(t, map[string]any{"v": 1}, got)

	require.True(t, l1.Delete(coreconfig.NamespaceDefault, "k"))
	_, ok = l1.Get(coreconfig.NamespaceDefault, "k")
	require.False(t, ok)
}

func TestLRUEvictsOldestTouchedKey(t *testing.T) {
	l1 := New(smallTable(3, 0))
	ns := coreconfig.NamespaceDefault

	l1.Set(ns, "a", 1)
	l1.Set(ns, "b", 2)
	l1.Set(ns, "c", 3)

	// Touch "a" so "b" becomes the oldest.
	_, ok := l1.Get(ns, "a")
	require.True(t, ok)

	l1.Set(ns, "d", 4)
	require.Equal(t, 3, l1.Len(ns))

	_, ok = l1.Get(ns, "b")
	require.False(t, ok)
	_, ok = l1.Get(ns, "a")
	require.True(t, ok)
	require.Equal(t, uint64(1), l1.Stats(ns).Evictions)
}

func TestTTLExpiryCountsEviction(t *testing.T) {
	l1 := New(smallTable(10, 30*time.Millisecond))
	ns := coreconfig.NamespaceDefault

	l1.Set(ns, "k", "v")
	time.Sleep(60 * time.Millisecond)

	_, ok := l1.Get(ns, "k")
	require.False(t, ok)
	require.Equal(t, uint64(1), l1.Stats(ns).Evictions)
	require.Equal(t, 0, l1.Len(ns))
}

func TestCleanupExpiredEntriesSweepsAll(t *testing.T) {
	l1 := New(smallTable(20, 30*time.Millisecond))
	ns := coreconfig.NamespaceDefault

	for i := 0; i < 10; i++ {
		l1.Set(ns, string(rune('a'+i)), i)
	}
	time.Sleep(60 * time.Millisecond)

	evicted := l1.CleanupExpiredEntries()
	require.Equal(t, 10, evicted)
	require.Equal(t, 0, l1.Len(ns))
	require.Equal(t, uint64(10), l1.Stats(ns).Evictions)
}

func TestStatsCountsHitsAndMisses(t *testing.T) {
	l1 := New(smallTable(10, 0))
	ns := coreconfig.NamespaceDefault

	l1.Set(ns, "k", "v")
	l1.Get(ns, "k")
	l1.Get(ns, "k")
	l1.Get(ns, "missing")

	stats := l1.Stats(ns)
	require.Equal(t, uint64(2), stats.Hits)
	require.Equal(t, uint64(1), stats.Misses)
}

func TestClearNamespaceIsIsolated(t *testing.T) {
	table := smallTable(10, 0)
	table[coreconfig.NamespaceTrie] = coreconfig.NamespaceConfig{MemoryLimit: 10, Compression: coreconfig.CompressionLZ4}
	l1 := New(table)

	l1.Set(coreconfig.NamespaceDefault, "k", 1)
	l1.Set(coreconfig.NamespaceTrie, "k", 2)

	l1.ClearNamespace(coreconfig.NamespaceDefault)
	_, ok := l1.Get(coreconfig.NamespaceDefault, "k")
	require.False(t, ok)
	got, ok := l1.Get(coreconfig.NamespaceTrie, "k")
	require.True(t, ok)
	require.Equal(t, 2, got)
}
