// Package searchfacade implements the search facade: a smart cascade
// over exact (trieindex), fuzzy (fuzzyindex), and semantic
// (semanticindex) search, with result dedup/ranking and explicit mode
// routing. Exact hits terminate the cascade early; semantic search runs
// on a budget adapted to fuzzy quality.
package searchfacade

import (
	"context"
	"sort"
	"strings"

	"github.com/dictcore/dictcore/internal/corpus"
	"github.com/dictcore/dictcore/internal/fuzzyindex"
	"github.com/dictcore/dictcore/internal/semanticindex"
	"github.com/dictcore/dictcore/internal/trieindex"
)

// Method identifies which search strategy produced a Result.
type Method string

const (
	MethodExact    Method = "exact"
	MethodFuzzy    Method = "fuzzy"
	MethodSemantic Method = "semantic"
)

// methodPriority: exact beats semantic beats fuzzy when deduplicating
// results by word.
var methodPriority = map[Method]int{
	MethodExact:    3,
	MethodSemantic: 2,
	MethodFuzzy:    1,
}

// Mode selects which strategies Search runs
type Mode string

const (
	ModeSmart    Mode = "smart"
	ModeExact    Mode = "exact"
	ModeFuzzy    Mode = "fuzzy"
	ModeSemantic Mode = "semantic"
)

// Result is one ranked search hit.
type Result struct {
	Word   string
	Score  float64
	Method Method
}

// Embedder produces a single query embedding for semantic search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Facade cascades exact, fuzzy, and semantic search over one corpus.
type Facade struct {
	Corpus   *corpus.Corpus
	Trie     *trieindex.Index
	Semantic *semanticindex.Index
	Embedder Embedder

	MinScore   float64
	FuzzyOpts  fuzzyindex.Options
}

// New builds a Facade from already-built component indices.
func New(c *corpus.Corpus, trie *trieindex.Index, semantic *semanticindex.Index, embedder Embedder) *Facade {
	return &Facade{
		Corpus:    c,
		Trie:      trie,
		Semantic:  semantic,
		Embedder:  embedder,
		MinScore:  0.6,
		FuzzyOpts: fuzzyindex.DefaultOptions(),
	}
}

// Search runs query under mode (defaulting to Smart), returning at most
// maxResults ranked results
func (f *Facade) Search(ctx context.Context, query string, mode Mode, maxResults int) []Result {
	if maxResults <= 0 {
		maxResults = 20
	}
	normalized := corpus.Normalize(query)
	if normalized == "" {
		return nil
	}

	switch mode {
	case ModeExact:
		return f.searchExact(normalized)
	case ModeFuzzy:
		return f.searchFuzzy(normalized, maxResults)
	case ModeSemantic:
		return f.searchSemantic(ctx, normalized, maxResults)
	default:
		return f.smartCascade(ctx, normalized, maxResults)
	}
}

// smartCascade runs exact→fuzzy→semantic: an exact hit returns
// immediately, otherwise fuzzy and (budget-adjusted) semantic results
// are merged, deduplicated by method priority, and ranked.
func (f *Facade) smartCascade(ctx context.Context, normalizedQuery string, maxResults int) []Result {
	exact := f.searchExact(normalizedQuery)
	if len(exact) > 0 {
		return exact
	}

	fuzzy := f.searchFuzzy(normalizedQuery, maxResults)

	semanticLimit := maxResults
	if len(fuzzy) >= maxResults/2 {
		semanticLimit = maxResults / 2
	}
	var semantic []Result
	if f.Semantic != nil && f.Embedder != nil {
		semantic = f.searchSemantic(ctx, normalizedQuery, semanticLimit)
	}

	all := make([]Result, 0, len(exact)+len(fuzzy)+len(semantic))
	all = append(all, exact...)
	all = append(all, fuzzy...)
	all = append(all, semantic...)

	deduped := dedupe(all, f.MinScore)
	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].Score != deduped[j].Score {
			return deduped[i].Score > deduped[j].Score
		}
		return deduped[i].Word < deduped[j].Word
	})
	if len(deduped) > maxResults {
		deduped = deduped[:maxResults]
	}
	return deduped
}

func (f *Facade) searchExact(normalizedQuery string) []Result {
	if f.Trie == nil {
		return nil
	}
	word, ok := f.Trie.Exact(normalizedQuery)
	if !ok {
		return nil
	}
	return []Result{{Word: word, Score: 1.0, Method: MethodExact}}
}

func (f *Facade) searchFuzzy(normalizedQuery string, maxResults int) []Result {
	if f.Corpus == nil {
		return nil
	}
	opts := f.FuzzyOpts
	opts.MaxResults = maxResults
	matches := fuzzyindex.Search(f.Corpus, normalizedQuery, opts)
	out := make([]Result, len(matches))
	for i, m := range matches {
		out[i] = Result{Word: m.Word, Score: m.Score, Method: MethodFuzzy}
	}
	return out
}

func (f *Facade) searchSemantic(ctx context.Context, normalizedQuery string, maxResults int) []Result {
	if f.Semantic == nil || f.Embedder == nil {
		return nil
	}
	vec, err := f.Embedder.Embed(ctx, normalizedQuery)
	if err != nil {
		return nil
	}
	hits, err := f.Semantic.Search(vec, maxResults)
	if err != nil {
		return nil
	}
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		word := h.Word
		if f.Corpus != nil {
			if idx, ok := f.Corpus.VocabularyToIndex[h.Word]; ok {
				word = f.Corpus.GetOriginalWordByIndex(idx)
			}
		}
		out = append(out, Result{Word: word, Score: float64(h.Score), Method: MethodSemantic})
	}
	return out
}

// dedupe keeps the highest-priority (then highest-scoring) result per
// word, dropping anything below minScore.
func dedupe(results []Result, minScore float64) []Result {
	best := make(map[string]Result, len(results))
	order := make([]string, 0, len(results))
	for _, r := range results {
		if r.Score < minScore {
			continue
		}
		key := strings.ToLower(r.Word)
		existing, ok := best[key]
		if !ok {
			best[key] = r
			order = append(order, key)
			continue
		}
		if methodPriority[r.Method] > methodPriority[existing.Method] ||
			(methodPriority[r.Method] == methodPriority[existing.Method] && r.Score > existing.Score) {
			best[key] = r
		}
	}
	out := make([]Result, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}
