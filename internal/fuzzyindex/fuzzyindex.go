// Package fuzzyindex implements fuzzy candidate scoring over a corpus's
// candidate sets: a primary weighted-ratio scorer built on edit distance,
// and a secondary token-set scorer whose match multiplies the primary
// score by a boost (1.2× by default), capped at 1.0.
package fuzzyindex

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/dictcore/dictcore/internal/corpus"
	"github.com/sahilm/fuzzy"
)

// Match is one scored fuzzy result.
type Match struct {
	Word  string
	Index int
	Score float64
}

// Options configures Search.
type Options struct {
	MaxResults      int
	MinScore        float64
	CandidateOpts   corpus.CandidateOptions
	TokenSetBoost   float64
}

// DefaultOptions uses the default weighted-ratio threshold and the 1.2x
// token-set boost capped at 1.0.
func DefaultOptions() Options {
	return Options{MaxResults: 20, MinScore: 0.6, CandidateOpts: corpus.DefaultCandidateOptions(), TokenSetBoost: 1.2}
}

// Search scores query against c's candidate set using the weighted-ratio
// primary scorer, then applies the token-set secondary scorer as a
// bounded boost.
func Search(c *corpus.Corpus, query string, opts Options) []Match {
	normalizedQuery := corpus.Normalize(query)
	if normalizedQuery == "" {
		return nil
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 20
	}
	if opts.TokenSetBoost <= 0 {
		opts.TokenSetBoost = 1.2
	}

	candidateIndices := c.GetCandidates(normalizedQuery, opts.CandidateOpts)
	if len(candidateIndices) == 0 {
		return nil
	}
	candidateWords := c.GetWordsByIndices(candidateIndices)

	weighted := make(map[string]float64, len(candidateWords))
	for _, word := range candidateWords {
		weighted[word] = weightedRatio(normalizedQuery, word)
	}

	tokenSetScores := tokenSetScores(normalizedQuery, candidateWords)

	matches := make([]Match, 0, len(candidateIndices))
	for pos, idx := range candidateIndices {
		word := candidateWords[pos]
		score := weighted[word]
		if boost, ok := tokenSetScores[word]; ok && boost > 0 {
			boosted := score * opts.TokenSetBoost
			if boosted > 1.0 {
				boosted = 1.0
			}
			if boosted > score {
				score = boosted
			}
		}
		if score < opts.MinScore {
			continue
		}
		matches = append(matches, Match{Word: c.GetOriginalWordByIndex(idx), Index: idx, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Word < matches[j].Word
	})

	if len(matches) > opts.MaxResults {
		matches = matches[:opts.MaxResults]
	}
	return matches
}

// weightedRatio converts Levenshtein edit distance into a 0-1 similarity
// ratio: 1 - distance/max(len(a), len(b)).
func weightedRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1
	}
	ratio := 1 - float64(dist)/float64(maxLen)
	if ratio < 0 {
		return 0
	}
	return ratio
}

// tokenSetScores runs the secondary subsequence scorer over candidates'
// token forms, normalizing sahilm/fuzzy's integer score onto 0-1 so it can
// be combined with the weighted-ratio primary score.
func tokenSetScores(query string, candidates []string) map[string]float64 {
	if len(candidates) == 0 {
		return nil
	}
	results := fuzzy.Find(query, candidates)
	if len(results) == 0 {
		return nil
	}

	maxScore := 0
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	if maxScore == 0 {
		maxScore = 1
	}

	out := make(map[string]float64, len(results))
	for _, r := range results {
		out[strings.TrimSpace(candidates[r.Index])] = float64(r.Score) / float64(maxScore)
	}
	return out
}
