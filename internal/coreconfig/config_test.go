package coreconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultTableCoversAllNamespaces(t *testing.T) {
	table := DefaultNamespaceTable()
	for _, ns := range AllNamespaces {
		cfg, ok := table[ns]
		require.True(t, ok, "namespace %s missing from default table", ns)
		require.Positive(t, cfg.MemoryLimit)
	}
}

func TestDefaultTableKnownEntries(t *testing.T) {
	table := DefaultNamespaceTable()

	dict := table[NamespaceDictionary]
	require.Equal(t, 500, dict.MemoryLimit)
	require.Equal(t, 24*time.Hour, *dict.MemoryTTL)
	require.Equal(t, 7*24*time.Hour, *dict.DiskTTL)
	require.Equal(t, CompressionNone, dict.Compression)

	trie := table[NamespaceTrie]
	require.Equal(t, CompressionLZ4, trie.Compression)

	semantic := table[NamespaceSemantic]
	require.Equal(t, 5, semantic.MemoryLimit)
	require.Equal(t, CompressionZstd, semantic.Compression)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultDeltaConfig(), cfg.Delta)
	require.Equal(t, int64(10*giB), cfg.Disk.SizeLimitBytes)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("delta:\n  snapshot_interval: 5\n  max_chain_length: 25\n  enabled: true\ndisk:\n  size_limit_bytes: 1024\n  eviction: lru\n  tag_index: true\n  path: override.db\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Delta.SnapshotInterval)
	require.Equal(t, 25, cfg.Delta.MaxChainLength)
	require.Equal(t, int64(1024), cfg.Disk.SizeLimitBytes)
	require.Equal(t, "override.db", cfg.Disk.Path)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("DICTCORE_DISK_SIZE_LIMIT_BYTES", "2048")
	t.Setenv("DICTCORE_DELTA_MAX_CHAIN_LENGTH", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, int64(2048), cfg.Disk.SizeLimitBytes)
	require.Equal(t, 7, cfg.Delta.MaxChainLength)
}

func TestNamespaceConfigForUnknown(t *testing.T) {
	cfg := Default()
	_, ok := cfg.NamespaceConfigFor(Namespace("bogus"))
	require.False(t, ok)
}
