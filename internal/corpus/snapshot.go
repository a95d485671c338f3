package corpus

import "time"

// Snapshot is the persisted form of a Corpus: identity, attributes, and
// the raw original vocabulary. Derived structures (indices, lemma maps,
// buckets) are rebuilt on load so a reloaded corpus always satisfies the
// same invariants as a freshly created one.
type Snapshot struct {
	CorpusUUID         string         `json:"corpus_uuid"`
	CorpusName         string         `json:"corpus_name"`
	CorpusType         CorpusType     `json:"corpus_type"`
	Language           string         `json:"language"`
	ParentCorpusID     string         `json:"parent_corpus_id,omitempty"`
	ChildCorpusIDs     []string       `json:"child_corpus_ids,omitempty"`
	IsMaster           bool           `json:"is_master"`
	OriginalVocabulary []string       `json:"original_vocabulary"`
	WordFrequencies    map[string]int `json:"word_frequencies,omitempty"`
	ModelContext       string         `json:"model_context,omitempty"`
	VocabularyHash     string         `json:"vocabulary_hash"`
	CreatedAt          time.Time      `json:"created_at"`
}

// Snapshot captures c's persistable state.
func (c *Corpus) Snapshot() Snapshot {
	return Snapshot{
		CorpusUUID:         c.CorpusUUID,
		CorpusName:         c.CorpusName,
		CorpusType:         c.CorpusType,
		Language:           c.Language,
		ParentCorpusID:     c.ParentCorpusID,
		ChildCorpusIDs:     c.ChildCorpusIDs,
		IsMaster:           c.IsMaster,
		OriginalVocabulary: c.OriginalVocabulary,
		WordFrequencies:    c.WordFrequencies,
		ModelContext:       c.ModelContext,
		VocabularyHash:     c.VocabularyHash,
		CreatedAt:          c.CreatedAt,
	}
}

// FromSnapshot rebuilds a full Corpus from its persisted form, recomputing
// every derived structure. lemmatizer may be nil to use the default.
func FromSnapshot(s Snapshot, lemmatizer Lemmatizer) *Corpus {
	if lemmatizer == nil {
		lemmatizer = DefaultLemmatizer
	}
	c := &Corpus{
		CorpusUUID:     s.CorpusUUID,
		CorpusName:     s.CorpusName,
		CorpusType:     s.CorpusType,
		Language:       s.Language,
		ParentCorpusID: s.ParentCorpusID,
		ChildCorpusIDs: s.ChildCorpusIDs,
		IsMaster:       s.IsMaster,
		ModelContext:   s.ModelContext,
		CreatedAt:      s.CreatedAt,
		lemmatize:      lemmatizer,
	}
	c.OriginalVocabulary = append([]string(nil), s.OriginalVocabulary...)
	c.WordFrequencies = s.WordFrequencies
	c.rebuild()
	return c
}
