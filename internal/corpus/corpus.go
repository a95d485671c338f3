package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CorpusType is the closed set of corpus kinds.
type CorpusType string

const (
	TypeLexicon    CorpusType = "lexicon"
	TypeLiterature CorpusType = "literature"
	TypeLanguage   CorpusType = "language"
	TypeWordlist   CorpusType = "wordlist"
	TypeCustom     CorpusType = "custom"
)

// Lemmatizer is the external lemmatization contract the corpus core
// consumes but never implements itself. It must be a pure,
// deterministic function of its input.
type Lemmatizer func(normalizedWords []string) []string

// DefaultLemmatizer is a minimal rule-based fallback (suffix stripping)
// used when no richer lemmatizer (e.g. an NLP-backed one) is wired in.
func DefaultLemmatizer(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = lemmatizeBasic(w)
	}
	return out
}

var suffixRules = []struct{ suffix, replacement string }{
	{"ies", "y"},
	{"ied", "y"},
	{"ying", "y"},
	{"ing", ""},
	{"ies", "y"},
	{"es", ""},
	{"ed", ""},
	{"s", ""},
}

func lemmatizeBasic(word string) string {
	if len(word) < 3 {
		return word
	}
	best := word
	bestLen := -1
	for _, rule := range suffixRules {
		if strings.HasSuffix(word, rule.suffix) && len(word) > len(rule.suffix)+1 {
			if len(rule.suffix) > bestLen {
				stem := strings.TrimSuffix(word, rule.suffix) + rule.replacement
				if len(stem) >= 2 {
					best = stem
					bestLen = len(rule.suffix)
				}
			}
		}
	}
	return best
}

// Corpus is the vocabulary entity: identity, attributes, and the
// full set of derived lookup structures (normalized/original mapping,
// lemma mapping, signature/length buckets).
type Corpus struct {
	CorpusUUID    string
	CorpusName    string
	CorpusType    CorpusType
	Language      string
	ParentCorpusID string
	ChildCorpusIDs []string
	IsMaster      bool

	Vocabulary                  []string
	OriginalVocabulary           []string
	NormalizedToOriginalIndices map[int][]int
	VocabularyToIndex           map[string]int

	LemmatizedVocabulary []string
	WordToLemmaIndices   map[int]int
	LemmaToWordIndices   map[int][]int

	SignatureBuckets map[string][]int
	LengthBuckets    map[int][]int

	WordFrequencies map[string]int

	VocabularyHash string
	ModelContext   string

	CreatedAt time.Time
	UpdatedAt time.Time

	lemmatize Lemmatizer
}

// Options configures Corpus.Create.
type Options struct {
	Name       string
	Vocabulary []string
	Language   string
	ModelName  string
	Lemmatizer Lemmatizer
}

// Create builds a new Corpus: normalizes, sorts/dedupes, builds
// the original-index mapping (diacritic-preferred), lemmatizes, builds
// signature/length buckets, and computes vocabulary_hash.
func Create(opts Options) *Corpus {
	lemmatizer := opts.Lemmatizer
	if lemmatizer == nil {
		lemmatizer = DefaultLemmatizer
	}

	name := opts.Name
	if name == "" {
		name = uuid.NewString()[:8]
	}

	c := &Corpus{
		CorpusUUID:   uuid.NewString(),
		CorpusName:   name,
		CorpusType:   TypeLexicon,
		Language:     opts.Language,
		ModelContext: opts.ModelName,
		CreatedAt:    time.Now(),
		lemmatize:    lemmatizer,
	}
	c.OriginalVocabulary = append([]string(nil), opts.Vocabulary...)
	c.rebuild()
	return c
}

// rebuild recomputes every derived structure from Vocabulary/
// OriginalVocabulary/remove contract ("rebuild derived
// structures"). It is the single source of truth for index consistency.
func (c *Corpus) rebuild() {
	normalized := NormalizeAll(c.OriginalVocabulary)

	seen := make(map[string]struct{})
	for _, w := range normalized {
		if w == "" {
			continue
		}
		seen[w] = struct{}{}
	}
	vocab := make([]string, 0, len(seen))
	for w := range seen {
		vocab = append(vocab, w)
	}
	sort.Strings(vocab)
	c.Vocabulary = vocab

	c.VocabularyToIndex = make(map[string]int, len(vocab))
	for i, w := range vocab {
		c.VocabularyToIndex[w] = i
	}

	c.NormalizedToOriginalIndices = make(map[int][]int)
	for origIdx, norm := range normalized {
		if norm == "" {
			continue
		}
		idx, ok := c.VocabularyToIndex[norm]
		if !ok {
			continue
		}
		c.NormalizedToOriginalIndices[idx] = append(c.NormalizedToOriginalIndices[idx], origIdx)
	}
	for idx, origIndices := range c.NormalizedToOriginalIndices {
		origIndices := origIndices
		sort.SliceStable(origIndices, func(i, j int) bool {
			iHas := HasDiacritics(c.OriginalVocabulary[origIndices[i]])
			jHas := HasDiacritics(c.OriginalVocabulary[origIndices[j]])
			if iHas != jHas {
				return iHas
			}
			return origIndices[i] < origIndices[j]
		})
		c.NormalizedToOriginalIndices[idx] = origIndices
	}

	c.rebuildLemmas()
	c.rebuildBuckets()
	c.VocabularyHash = VocabularyHash(c.Vocabulary, c.ModelContext)
	c.UpdatedAt = time.Now()
}

func (c *Corpus) rebuildLemmas() {
	lemmas := c.lemmatize(c.Vocabulary)

	seen := make(map[string]int)
	c.LemmatizedVocabulary = nil
	c.WordToLemmaIndices = make(map[int]int, len(c.Vocabulary))
	c.LemmaToWordIndices = make(map[int][]int)

	for wordIdx, lemma := range lemmas {
		lemmaIdx, ok := seen[lemma]
		if !ok {
			lemmaIdx = len(c.LemmatizedVocabulary)
			c.LemmatizedVocabulary = append(c.LemmatizedVocabulary, lemma)
			seen[lemma] = lemmaIdx
		}
		c.WordToLemmaIndices[wordIdx] = lemmaIdx
		c.LemmaToWordIndices[lemmaIdx] = append(c.LemmaToWordIndices[lemmaIdx], wordIdx)
	}
}

func (c *Corpus) rebuildBuckets() {
	c.SignatureBuckets = make(map[string][]int)
	c.LengthBuckets = make(map[int][]int)
	for idx, word := range c.Vocabulary {
		sig := Signature(word)
		c.SignatureBuckets[sig] = append(c.SignatureBuckets[sig], idx)
		length := len([]rune(word))
		c.LengthBuckets[length] = append(c.LengthBuckets[length], idx)
	}
	for sig := range c.SignatureBuckets {
		sort.Ints(c.SignatureBuckets[sig])
	}
	for length := range c.LengthBuckets {
		sort.Ints(c.LengthBuckets[length])
	}
}

// AddWords merges new words into the vocabulary, normalizing and
// rebuilding every derived structure Returns the number of net
// new unique vocabulary entries.
func (c *Corpus) AddWords(words []string, counts map[string]int) int {
	if len(words) == 0 {
		return 0
	}
	before := len(c.Vocabulary)
	c.OriginalVocabulary = append(c.OriginalVocabulary, words...)
	c.rebuild()

	if c.WordFrequencies == nil {
		c.WordFrequencies = make(map[string]int)
	}
	for _, norm := range NormalizeAll(words) {
		if norm == "" {
			continue
		}
		inc := 1
		if counts != nil {
			if n, ok := counts[norm]; ok {
				inc = n
			}
		}
		c.WordFrequencies[norm] += inc
	}
	return len(c.Vocabulary) - before
}

// RemoveWords subtracts words from the vocabulary and rebuilds every
// derived structure Returns the number of unique vocabulary
// entries removed.
func (c *Corpus) RemoveWords(words []string) int {
	if len(words) == 0 {
		return 0
	}
	before := len(c.Vocabulary)
	remove := make(map[string]struct{}, len(words))
	for _, w := range NormalizeAll(words) {
		if w != "" {
			remove[w] = struct{}{}
		}
	}

	keptOriginal := c.OriginalVocabulary[:0:0]
	for _, orig := range c.OriginalVocabulary {
		if _, drop := remove[Normalize(orig)]; drop {
			continue
		}
		keptOriginal = append(keptOriginal, orig)
	}
	c.OriginalVocabulary = keptOriginal
	c.rebuild()

	for w := range remove {
		delete(c.WordFrequencies, w)
	}
	return before - len(c.Vocabulary)
}

// GetWordByIndex returns the normalized vocabulary entry at index, or ""
// if out of range.
func (c *Corpus) GetWordByIndex(index int) string {
	if index < 0 || index >= len(c.Vocabulary) {
		return ""
	}
	return c.Vocabulary[index]
}

// GetOriginalWordByIndex returns the preferred original form (the
// diacritic-bearing spelling where one exists) for a normalized
// vocabulary index. Falls back to the normalized word itself.
func (c *Corpus) GetOriginalWordByIndex(index int) string {
	if origIndices, ok := c.NormalizedToOriginalIndices[index]; ok && len(origIndices) > 0 {
		return c.OriginalVocabulary[origIndices[0]]
	}
	return c.GetWordByIndex(index)
}

// GetWordsByIndices maps GetWordByIndex over indices, skipping any that
// are out of range.
func (c *Corpus) GetWordsByIndices(indices []int) []string {
	out := make([]string, 0, len(indices))
	for _, idx := range indices {
		if w := c.GetWordByIndex(idx); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// GetOriginalWordsByIndices maps GetOriginalWordByIndex over indices.
func (c *Corpus) GetOriginalWordsByIndices(indices []int) []string {
	out := make([]string, 0, len(indices))
	for _, idx := range indices {
		if w := c.GetOriginalWordByIndex(idx); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// CandidateOptions configures GetCandidates.
type CandidateOptions struct {
	MaxResults      int
	UseLemmas       bool
	UseSignatures   bool
	LengthTolerance int
}

// DefaultCandidateOptions are the fuzzy-search defaults.
func DefaultCandidateOptions() CandidateOptions {
	return CandidateOptions{MaxResults: 50, UseLemmas: true, UseSignatures: true, LengthTolerance: 2}
}

// GetCandidates returns candidate vocabulary indices for query, unioning
// direct lookup, lemma-class siblings, signature-bucket members, and
// length-window members, in that priority order, truncated to MaxResults.
func (c *Corpus) GetCandidates(query string, opts CandidateOptions) []int {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 50
	}

	candidates := make(map[int]struct{})
	order := make([]int, 0, opts.MaxResults)
	add := func(idx int) bool {
		if _, ok := candidates[idx]; ok {
			return len(order) >= opts.MaxResults
		}
		candidates[idx] = struct{}{}
		order = append(order, idx)
		return len(order) >= opts.MaxResults
	}

	normalizedQuery := Normalize(query)
	if normalizedQuery == "" {
		return nil
	}

	if idx, ok := c.VocabularyToIndex[normalizedQuery]; ok {
		if add(idx) {
			return order
		}
	}

	if opts.UseLemmas && len(c.LemmatizedVocabulary) > 0 {
		queryLemma := c.lemmatize([]string{normalizedQuery})[0]
		for lemmaIdx, lemma := range c.LemmatizedVocabulary {
			if lemma != queryLemma {
				continue
			}
			for _, wordIdx := range c.LemmaToWordIndices[lemmaIdx] {
				if add(wordIdx) {
					return order
				}
			}
		}
	}

	if opts.UseSignatures {
		sig := Signature(normalizedQuery)
		for _, wordIdx := range c.SignatureBuckets[sig] {
			if add(wordIdx) {
				return order
			}
		}
	}

	queryLen := len([]rune(normalizedQuery))
	for diff := 0; diff <= opts.LengthTolerance; diff++ {
		for _, length := range []int{queryLen - diff, queryLen + diff} {
			if length <= 0 {
				continue
			}
			for _, wordIdx := range c.LengthBuckets[length] {
				if add(wordIdx) {
					return order
				}
			}
		}
	}

	return order
}

// VocabularyHash is a stable short digest of a vocabulary: sha256(model_prefix ||
// len || "|".join(sample)).hexdigest()[:16], sample being the full sorted
// vocabulary when N≤20, else its first 10 and last 10 entries.
func VocabularyHash(sortedVocabulary []string, modelName string) string {
	n := len(sortedVocabulary)
	var sample []string
	if n <= 20 {
		sample = sortedVocabulary
	} else {
		sample = make([]string, 0, 20)
		sample = append(sample, sortedVocabulary[:10]...)
		sample = append(sample, sortedVocabulary[n-10:]...)
	}

	prefix := ""
	if modelName != "" {
		prefix = modelName + ":"
	}
	content := prefix + strconv.Itoa(n) + strings.Join(sample, "|")

	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}
