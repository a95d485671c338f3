package lifecycle

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dictcore/dictcore/internal/cache"
	"github.com/dictcore/dictcore/internal/coreconfig"
	"github.com/dictcore/dictcore/internal/corelog"
	"github.com/dictcore/dictcore/internal/corework"
	"github.com/dictcore/dictcore/internal/corpus"
	"github.com/dictcore/dictcore/internal/delta"
	"github.com/dictcore/dictcore/internal/diskstore"
	"github.com/dictcore/dictcore/internal/memcache"
	"github.com/dictcore/dictcore/internal/registry"
	"github.com/dictcore/dictcore/internal/version"
)

func newVersionManager(t *testing.T) (*version.Manager, func()) {
	t.Helper()
	table := coreconfig.DefaultNamespaceTable()
	l1 := memcache.New(table)
	l2, err := diskstore.Open(context.Background(), t.TempDir(), "test.db", 0, corework.New(4))
	require.NoError(t, err)

	encode := func(v any) ([]byte, error) { return json.Marshal(v) }
	decode := func(data []byte) (any, error) {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	tc := cache.New(l1, l2, table, corelog.Nop(), encode, decode)
	return version.New(tc, delta.DefaultPolicy(), corelog.Nop()), func() { _ = l2.Close() }
}

func TestTrieBuilderPersistsAndReloads(t *testing.T) {
	versions, cleanup := newVersionManager(t)
	defer cleanup()
	ctx := context.Background()

	c := corpus.Create(corpus.Options{Vocabulary: []string{"café", "cafe", "test"}})
	b := &TrieBuilder{Versions: versions}
	require.NoError(t, b.Build(ctx, c.CorpusUUID, c))

	idx, err := b.Get(ctx, c.CorpusUUID, c)
	require.NoError(t, err)
	require.NotNil(t, idx)

	word, ok := idx.Exact("cafe")
	require.True(t, ok)
	require.Equal(t, "café", word)
}

func TestTrieBuilderGetDetectsStaleHash(t *testing.T) {
	versions, cleanup := newVersionManager(t)
	defer cleanup()
	ctx := context.Background()

	c := corpus.Create(corpus.Options{Vocabulary: []string{"run"}})
	b := &TrieBuilder{Versions: versions}
	require.NoError(t, b.Build(ctx, c.CorpusUUID, c))

	c.AddWords([]string{"jog"}, nil)

	idx, err := b.Get(ctx, c.CorpusUUID, c)
	require.NoError(t, err)
	require.Nil(t, idx)
}

func TestSearchBuilderPersistsDescriptor(t *testing.T) {
	versions, cleanup := newVersionManager(t)
	defer cleanup()
	ctx := context.Background()

	c := corpus.Create(corpus.Options{Vocabulary: []string{"run"}})
	b := &SearchBuilder{Versions: versions}
	require.NoError(t, b.Build(ctx, c.CorpusUUID, c))

	desc, err := b.Get(ctx, c.CorpusUUID)
	require.NoError(t, err)
	require.NotNil(t, desc)
	require.Equal(t, c.CorpusUUID, desc.CorpusUUID)
	require.Equal(t, c.VocabularyHash, desc.VocabularyHash)
	require.True(t, desc.HasTrie)
	require.True(t, desc.HasFuzzy)
	require.False(t, desc.HasSemantic)
}

func TestDeleteCorpusCascades(t *testing.T) {
	versions, cleanup := newVersionManager(t)
	defer cleanup()
	ctx := context.Background()

	c := corpus.Create(corpus.Options{Vocabulary: []string{"café", "cafe", "test"}})
	trie := &TrieBuilder{Versions: versions}
	search := &SearchBuilder{Versions: versions}
	m := New(map[registry.ResourceKind]Builder{
		registry.KindTrie:   trie,
		registry.KindSearch: search,
	})
	require.NoError(t, m.EnsureFresh(ctx, c.CorpusUUID, c))

	cfg := coreconfig.DefaultVersionConfig()
	_, err := versions.Save(ctx, c.CorpusUUID, registry.KindCorpus, map[string]any{"vocabulary": []any{"cafe", "test"}}, cfg, nil, nil)
	require.NoError(t, err)

	require.NoError(t, DeleteCorpus(ctx, m, versions, c.CorpusUUID))

	idx, err := trie.Get(ctx, c.CorpusUUID, nil)
	require.NoError(t, err)
	require.Nil(t, idx)

	desc, err := search.Get(ctx, c.CorpusUUID)
	require.NoError(t, err)
	require.Nil(t, desc)

	_, err = versions.GetLatest(ctx, c.CorpusUUID, registry.KindCorpus)
	require.Error(t, err)
}
