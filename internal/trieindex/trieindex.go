// Package trieindex implements the trie index: exact and prefix lookup
// over a corpus's vocabulary with frequency-ranked enumeration. The
// runtime structure is a sorted string slice searched with binary
// search, which gives the same exact/prefix membership behavior as a
// trie over sorted keys.
package trieindex

import (
	"sort"
	"strings"

	"github.com/dictcore/dictcore/internal/corpus"
)

// Index is the runtime, queryable trie structure built from a Corpus's
// vocabulary's TrieIndex data model.
type Index struct {
	CorpusID       string
	VocabularyHash string
	WordCount      int

	words              []string
	normalizedToOrig   map[string]string
	wordFrequencies    map[string]int
}

// BuildFromCorpus constructs an Index from c's current vocabulary. The
// index is tied to c.VocabularyHash so callers can detect staleness and
// trigger a rebuild.
func BuildFromCorpus(corpusID string, c *corpus.Corpus) *Index {
	words := append([]string(nil), c.Vocabulary...)
	sort.Strings(words)

	origByWord := make(map[string]string, len(words))
	for i, w := range c.Vocabulary {
		origByWord[w] = c.GetOriginalWordByIndex(i)
	}

	return &Index{
		CorpusID:         corpusID,
		VocabularyHash:   c.VocabularyHash,
		WordCount:        len(words),
		words:            words,
		normalizedToOrig: origByWord,
		wordFrequencies:  c.WordFrequencies,
	}
}

// Stale reports whether idx was built from a different vocabulary
// snapshot than the one currently on c
func (idx *Index) Stale(c *corpus.Corpus) bool {
	return idx == nil || idx.VocabularyHash != c.VocabularyHash
}

// Exact reports the canonical (diacritic-preferred) original spelling
// for query if it is present in the vocabulary.
func (idx *Index) Exact(query string) (string, bool) {
	if idx == nil || query == "" {
		return "", false
	}
	normalized := corpus.Normalize(query)
	if normalized == "" {
		return "", false
	}
	if !idx.contains(normalized) {
		return "", false
	}
	if orig, ok := idx.normalizedToOrig[normalized]; ok {
		return orig, true
	}
	return normalized, true
}

// Prefix returns every vocabulary word starting with prefix, ranked by
// descending word frequency (ties broken lexicographically), truncated to
// maxResults
func (idx *Index) Prefix(prefix string, maxResults int) []string {
	if idx == nil || prefix == "" {
		return nil
	}
	normalized := corpus.Normalize(prefix)
	if normalized == "" {
		return nil
	}
	if maxResults <= 0 {
		maxResults = 20
	}

	lo := sort.SearchStrings(idx.words, normalized)
	matches := make([]string, 0, maxResults)
	for i := lo; i < len(idx.words) && strings.HasPrefix(idx.words[i], normalized); i++ {
		matches = append(matches, idx.words[i])
	}

	sort.SliceStable(matches, func(i, j int) bool {
		fi, fj := idx.wordFrequencies[matches[i]], idx.wordFrequencies[matches[j]]
		if fi != fj {
			return fi > fj
		}
		return matches[i] < matches[j]
	})

	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	out := make([]string, len(matches))
	for i, w := range matches {
		if orig, ok := idx.normalizedToOrig[w]; ok {
			out[i] = orig
		} else {
			out[i] = w
		}
	}
	return out
}

func (idx *Index) contains(word string) bool {
	i := sort.SearchStrings(idx.words, word)
	return i < len(idx.words) && idx.words[i] == word
}

// Snapshot is the serializable form of an Index's TrieIndex
// persisted fields.
type Snapshot struct {
	CorpusID         string            `json:"corpus_id"`
	VocabularyHash   string            `json:"vocabulary_hash"`
	WordCount        int               `json:"word_count"`
	Words            []string          `json:"trie_data"`
	NormalizedToOrig map[string]string `json:"normalized_to_original"`
	WordFrequencies  map[string]int    `json:"word_frequencies,omitempty"`
}

// ToSnapshot converts idx to its serializable form for version-manager
// persistence.
func (idx *Index) ToSnapshot() Snapshot {
	return Snapshot{
		CorpusID:         idx.CorpusID,
		VocabularyHash:   idx.VocabularyHash,
		WordCount:        idx.WordCount,
		Words:            idx.words,
		NormalizedToOrig: idx.normalizedToOrig,
		WordFrequencies:  idx.wordFrequencies,
	}
}

// FromSnapshot rebuilds a queryable Index from its persisted form.
func FromSnapshot(s Snapshot) *Index {
	words := append([]string(nil), s.Words...)
	sort.Strings(words)
	return &Index{
		CorpusID:         s.CorpusID,
		VocabularyHash:   s.VocabularyHash,
		WordCount:        s.WordCount,
		words:            words,
		normalizedToOrig: s.NormalizedToOrig,
		wordFrequencies:  s.WordFrequencies,
	}
}
