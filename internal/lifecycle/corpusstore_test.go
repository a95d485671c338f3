package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dictcore/dictcore/internal/corpus"
	"github.com/dictcore/dictcore/internal/registry"
)

func TestCorpusStoreSaveAndGetByUUID(t *testing.T) {
	versions, cleanup := newVersionManager(t)
	defer cleanup()
	ctx := context.Background()
	store := &CorpusStore{Versions: versions}

	c := corpus.Create(corpus.Options{Name: "demo", Vocabulary: []string{"café", "cafe", "run"}, Language: "fr"})
	_, err := store.Save(ctx, c)
	require.NoError(t, err)

	got, err := store.Get(ctx, c.CorpusUUID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, c.CorpusUUID, got.CorpusUUID)
	require.Equal(t, c.Vocabulary, got.Vocabulary)
	require.Equal(t, c.VocabularyHash, got.VocabularyHash)

	// Diacritic preference survives the round trip.
	idx, ok := got.VocabularyToIndex["cafe"]
	require.True(t, ok)
	require.Equal(t, "café", got.GetOriginalWordByIndex(idx))
}

func TestCorpusStoreGetByName(t *testing.T) {
	versions, cleanup := newVersionManager(t)
	defer cleanup()
	ctx := context.Background()
	store := &CorpusStore{Versions: versions}

	c := corpus.Create(corpus.Options{Name: "named", Vocabulary: []string{"run"}})
	_, err := store.Save(ctx, c)
	require.NoError(t, err)

	got, err := store.Get(ctx, "named")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, c.CorpusUUID, got.CorpusUUID)
}

func TestCorpusStoreGetMissing(t *testing.T) {
	versions, cleanup := newVersionManager(t)
	defer cleanup()
	store := &CorpusStore{Versions: versions}

	got, err := store.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestCorpusStoreGetManyByIDsSkipsMissing(t *testing.T) {
	versions, cleanup := newVersionManager(t)
	defer cleanup()
	ctx := context.Background()
	store := &CorpusStore{Versions: versions}

	a := corpus.Create(corpus.Options{Name: "a", Vocabulary: []string{"run"}})
	b := corpus.Create(corpus.Options{Name: "b", Vocabulary: []string{"jog"}})
	_, err := store.Save(ctx, a)
	require.NoError(t, err)
	_, err = store.Save(ctx, b)
	require.NoError(t, err)

	got, err := store.GetManyByIDs(ctx, []string{a.CorpusUUID, "missing", b.CorpusUUID})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestCorpusStoreDeleteCascadesDependents(t *testing.T) {
	versions, cleanup := newVersionManager(t)
	defer cleanup()
	ctx := context.Background()
	store := &CorpusStore{Versions: versions}

	c := corpus.Create(corpus.Options{Name: "doomed", Vocabulary: []string{"café", "cafe", "test"}})
	_, err := store.Save(ctx, c)
	require.NoError(t, err)

	trie := &TrieBuilder{Versions: versions}
	search := &SearchBuilder{Versions: versions}
	m := New(map[registry.ResourceKind]Builder{
		registry.KindTrie:   trie,
		registry.KindSearch: search,
	})
	require.NoError(t, m.EnsureFresh(ctx, c.CorpusUUID, c))

	require.NoError(t, store.Delete(ctx, m, "doomed"))

	got, err := store.Get(ctx, c.CorpusUUID)
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = store.Get(ctx, "doomed")
	require.NoError(t, err)
	require.Nil(t, got)

	idx, err := trie.Get(ctx, c.CorpusUUID, nil)
	require.NoError(t, err)
	require.Nil(t, idx)

	desc, err := search.Get(ctx, c.CorpusUUID)
	require.NoError(t, err)
	require.Nil(t, desc)
}
