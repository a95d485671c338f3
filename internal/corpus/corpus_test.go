package corpus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateDedupesAndSortsVocabulary(t *testing.T) {
	c := Create(Options{Name: "test", Vocabulary: []string{"Run", "run", "Café", "cafe", "jog"}})

	require.Equal(t, []string{"cafe", "jog", "run"}, c.Vocabulary)
	require.Len(t, c.NormalizedToOriginalIndices, 3)
}

func TestOriginalWordPrefersDiacriticForm(t *testing.T) {
	c := Create(Options{Vocabulary: []string{"cafe", "Café"}})

	idx, ok := c.VocabularyToIndex["cafe"]
	require.True(t, ok)
	require.Equal(t, "Café", c.GetOriginalWordByIndex(idx))
}

func TestAddWordsGrowsVocabularyAndFrequencies(t *testing.T) {
	c := Create(Options{Vocabulary: []string{"run"}})

	added := c.AddWords([]string{"jog", "jog", "sprint"}, nil)
	require.Equal(t, 2, added)
	require.Contains(t, c.Vocabulary, "jog")
	require.Contains(t, c.Vocabulary, "sprint")
	require.Equal(t, 2, c.WordFrequencies["jog"])
}

func TestRemoveWordsShrinksVocabulary(t *testing.T) {
	c := Create(Options{Vocabulary: []string{"run", "jog", "sprint"}})

	removed := c.RemoveWords([]string{"jog"})
	require.Equal(t, 1, removed)
	require.NotContains(t, c.Vocabulary, "jog")
	require.Contains(t, c.Vocabulary, "run")
}

func TestGetCandidatesDirectHit(t *testing.T) {
	c := Create(Options{Vocabulary: []string{"run", "running", "jog"}})

	got := c.GetCandidates("run", DefaultCandidateOptions())
	require.NotEmpty(t, got)
	require.Equal(t, "run", c.GetWordByIndex(got[0]))
}

func TestGetCandidatesFallsBackToSignatureAndLength(t *testing.T) {
	c := Create(Options{Vocabulary: []string{"phone", "fone", "xyzzy"}})

	got := c.GetCandidates("foan", DefaultCandidateOptions())
	words := c.GetWordsByIndices(got)
	require.Contains(t, words, "fone")
}

func TestGetCandidatesEmptyQuery(t *testing.T) {
	c := Create(Options{Vocabulary: []string{"run"}})
	require.Empty(t, c.GetCandidates("   ", DefaultCandidateOptions()))
}

func TestVocabularyHashStableForSameVocabulary(t *testing.T) {
	v := []string{"a", "b", "c"}
	h1 := VocabularyHash(v, "model-x")
	h2 := VocabularyHash(append([]string(nil), v...), "model-x")
	require.Equal(t, h1, h2)
	require.Len(t, h1, 16)
}

func TestVocabularyHashChangesWithModel(t *testing.T) {
	v := []string{"a", "b", "c"}
	require.NotEqual(t, VocabularyHash(v, "model-x"), VocabularyHash(v, "model-y"))
}

func TestVocabularyHashIgnoresMiddleOfLargeVocabulary(t *testing.T) {
	big := make([]string, 40)
	for i := range big {
		big[i] = string(rune('a' + i%26))
	}
	changed := append([]string(nil), big...)
	changed[20] = "zzz-different-middle-entry"

	require.Equal(t, VocabularyHash(big, ""), VocabularyHash(changed, ""))
}

func TestDefaultLemmatizerStripsCommonSuffixes(t *testing.T) {
	out := DefaultLemmatizer([]string{"running", "cats", "tried"})
	require.Equal(t, "runn", out[0])
	require.Equal(t, "cat", out[1])
	require.Equal(t, "try", out[2])
}

func TestSignatureGroupsSimilarSoundingWords(t *testing.T) {
	require.Equal(t, Signature("phone"), Signature("fone"))
}
