package trieindex

import (
	"testing"

	"github.com/dictcore/dictcore/internal/corpus"
	"github.com/stretchr/testify/require"
)

func buildTestIndex(t *testing.T) *Index {
	t.Helper()
	c := corpus.Create(corpus.Options{Vocabulary: []string{"run", "running", "runner", "jog", "Café"}})
	c.WordFrequencies = map[string]int{"run": 5, "running": 10, "runner": 1}
	return BuildFromCorpus("corpus-1", c)
}

func TestExactMatch(t *testing.T) {
	idx := buildTestIndex(t)

	word, ok := idx.Exact("run")
	require.True(t, ok)
	require.Equal(t, "run", word)
}

func TestExactMatchPrefersDiacriticOriginal(t *testing.T) {
	idx := buildTestIndex(t)

	word, ok := idx.Exact("cafe")
	require.True(t, ok)
	require.Equal(t, "Café", word)
}

func TestExactMiss(t *testing.T) {
	idx := buildTestIndex(t)
	_, ok := idx.Exact("sprint")
	require.False(t, ok)
}

func TestPrefixRankedByFrequency(t *testing.T) {
	idx := buildTestIndex(t)

	got := idx.Prefix("run", 10)
	require.Equal(t, []string{"running", "run", "runner"}, got)
}

func TestPrefixRespectsMaxResults(t *testing.T) {
	idx := buildTestIndex(t)

	got := idx.Prefix("run", 1)
	require.Len(t, got, 1)
	require.Equal(t, "running", got[0])
}

func TestPrefixNoMatch(t *testing.T) {
	idx := buildTestIndex(t)
	require.Empty(t, idx.Prefix("zzz", 10))
}

func TestStaleDetectsVocabularyChange(t *testing.T) {
	c := corpus.Create(corpus.Options{Vocabulary: []string{"run"}})
	idx := BuildFromCorpus("corpus-1", c)
	require.False(t, idx.Stale(c))

	c.AddWords([]string{"jog"}, nil)
	require.True(t, idx.Stale(c))
}

func TestSnapshotRoundTrip(t *testing.T) {
	idx := buildTestIndex(t)
	snap := idx.ToSnapshot()
	restored := FromSnapshot(snap)

	word, ok := restored.Exact("run")
	require.True(t, ok)
	require.Equal(t, "run", word)
	require.Equal(t, idx.Prefix("run", 10), restored.Prefix("run", 10))
}
