package searchfacade

import (
	"context"
	"testing"

	"github.com/dictcore/dictcore/internal/corpus"
	"github.com/dictcore/dictcore/internal/trieindex"
	"github.com/stretchr/testify/require"
)

func buildFacade(t *testing.T) *Facade {
	t.Helper()
	c := corpus.Create(corpus.Options{Vocabulary: []string{"run", "running", "runner", "jog"}})
	c.WordFrequencies = map[string]int{"run": 10, "running": 1, "runner": 1}
	trie := trieindex.BuildFromCorpus("corpus-1", c)
	return New(c, trie, nil, nil)
}

func TestSmartCascadeEarlyExitsOnExact(t *testing.T) {
	f := buildFacade(t)

	results := f.Search(context.Background(), "run", ModeSmart, 10)
	require.Len(t, results, 1)
	require.Equal(t, MethodExact, results[0].Method)
	require.Equal(t, 1.0, results[0].Score)
}

func TestSmartCascadeFallsBackToFuzzy(t *testing.T) {
	f := buildFacade(t)

	results := f.Search(context.Background(), "runing", ModeSmart, 10)
	require.NotEmpty(t, results)
	for _, r := range results {
		require.Equal(t, MethodFuzzy, r.Method)
	}
}

func TestModeExactOnly(t *testing.T) {
	f := buildFacade(t)

	results := f.Search(context.Background(), "jog", ModeExact, 10)
	require.Len(t, results, 1)
	require.Equal(t, "jog", results[0].Word)
}

func TestModeExactMissReturnsEmpty(t *testing.T) {
	f := buildFacade(t)
	require.Empty(t, f.Search(context.Background(), "sprint", ModeExact, 10))
}

func TestSearchEmptyQuery(t *testing.T) {
	f := buildFacade(t)
	require.Empty(t, f.Search(context.Background(), "  ", ModeSmart, 10))
}

func TestDedupePrefersExactOverFuzzy(t *testing.T) {
	results := []Result{
		{Word: "Run", Score: 0.8, Method: MethodFuzzy},
		{Word: "run", Score: 0.9, Method: MethodExact},
	}
	deduped := dedupe(results, 0)
	require.Len(t, deduped, 1)
	require.Equal(t, MethodExact, deduped[0].Method)
}

func TestDedupeDropsBelowMinScore(t *testing.T) {
	results := []Result{{Word: "run", Score: 0.3, Method: MethodFuzzy}}
	require.Empty(t, dedupe(results, 0.6))
}
