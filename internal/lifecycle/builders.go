package lifecycle

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dictcore/dictcore/internal/coreconfig"
	"github.com/dictcore/dictcore/internal/coreerrors"
	"github.com/dictcore/dictcore/internal/corpus"
	"github.com/dictcore/dictcore/internal/registry"
	"github.com/dictcore/dictcore/internal/semanticindex"
	"github.com/dictcore/dictcore/internal/trieindex"
	"github.com/dictcore/dictcore/internal/version"
)

// TrieBuilder persists trie indices as versioned resources under
// KindTrie, keyed by the corpus UUID.
type TrieBuilder struct {
	Versions *version.Manager
}

func (b *TrieBuilder) Build(ctx context.Context, corpusID string, c *corpus.Corpus) error {
	idx := trieindex.BuildFromCorpus(corpusID, c)
	content, err := toContentMap(idx.ToSnapshot())
	if err != nil {
		return err
	}
	meta := map[string]string{"corpus_uuid": corpusID, "vocabulary_hash": c.VocabularyHash}
	cfg := coreconfig.DefaultVersionConfig()
	cfg.ForceRebuild = true
	_, err = b.Versions.Save(ctx, corpusID, registry.KindTrie, content, cfg, meta, nil)
	return err
}

func (b *TrieBuilder) Delete(ctx context.Context, corpusID string) error {
	return deleteAllVersions(ctx, b.Versions, corpusID, registry.KindTrie)
}

// Get loads the persisted trie index for corpusID, or nil if none
// exists or the stored snapshot no longer matches c's vocabulary hash.
func (b *TrieBuilder) Get(ctx context.Context, corpusID string, c *corpus.Corpus) (*trieindex.Index, error) {
	rec, err := b.Versions.GetLatest(ctx, corpusID, registry.KindTrie)
	if err != nil {
		if errors.Is(err, coreerrors.VersionNotFound("", "")) {
			return nil, nil
		}
		return nil, err
	}
	var snap trieindex.Snapshot
	if err := fromContentMap(rec.ContentInline, &snap); err != nil {
		return nil, err
	}
	if c != nil && snap.VocabularyHash != c.VocabularyHash {
		return nil, nil
	}
	return trieindex.FromSnapshot(snap), nil
}

// SearchDescriptor is the persisted search-index record tying a corpus
// to its component indices.
type SearchDescriptor struct {
	CorpusUUID      string  `json:"corpus_uuid"`
	VocabularyHash  string  `json:"vocabulary_hash"`
	MinScore        float64 `json:"min_score"`
	SemanticEnabled bool    `json:"semantic_enabled"`
	SemanticModel   string  `json:"semantic_model,omitempty"`
	HasTrie         bool    `json:"has_trie"`
	HasFuzzy        bool    `json:"has_fuzzy"`
	HasSemantic     bool    `json:"has_semantic"`
}

// SearchBuilder persists the search-index descriptor under KindSearch.
type SearchBuilder struct {
	Versions      *version.Manager
	MinScore      float64
	SemanticModel string
}

func (b *SearchBuilder) Build(ctx context.Context, corpusID string, c *corpus.Corpus) error {
	minScore := b.MinScore
	if minScore <= 0 {
		minScore = 0.6
	}
	desc := SearchDescriptor{
		CorpusUUID:      corpusID,
		VocabularyHash:  c.VocabularyHash,
		MinScore:        minScore,
		SemanticEnabled: b.SemanticModel != "",
		SemanticModel:   b.SemanticModel,
		HasTrie:         true,
		HasFuzzy:        true,
		HasSemantic:     b.SemanticModel != "",
	}
	content, err := toContentMap(desc)
	if err != nil {
		return err
	}
	meta := map[string]string{"corpus_uuid": corpusID, "vocabulary_hash": c.VocabularyHash}
	cfg := coreconfig.DefaultVersionConfig()
	cfg.ForceRebuild = true
	_, err = b.Versions.Save(ctx, corpusID, registry.KindSearch, content, cfg, meta, nil)
	return err
}

func (b *SearchBuilder) Delete(ctx context.Context, corpusID string) error {
	return deleteAllVersions(ctx, b.Versions, corpusID, registry.KindSearch)
}

// Get loads the persisted descriptor for corpusID, or nil if none exists.
func (b *SearchBuilder) Get(ctx context.Context, corpusID string) (*SearchDescriptor, error) {
	rec, err := b.Versions.GetLatest(ctx, corpusID, registry.KindSearch)
	if err != nil {
		if errors.Is(err, coreerrors.VersionNotFound("", "")) {
			return nil, nil
		}
		return nil, err
	}
	var desc SearchDescriptor
	if err := fromContentMap(rec.ContentInline, &desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

// SemanticBuilder builds and persists the semantic index descriptor
// under KindSemantic. The embedding vectors themselves are persisted by
// semanticindex.Index.Save to IndexDir; the versioned record carries the
// descriptor and file reference so reloads never re-embed.
type SemanticBuilder struct {
	Versions *version.Manager
	Embedder semanticindex.Embedder
	IndexDir string
	Model    string

	built map[string]*semanticindex.Index
}

func (b *SemanticBuilder) Build(ctx context.Context, corpusID string, c *corpus.Corpus) error {
	if b.Embedder == nil {
		return nil
	}
	vectors, err := b.Embedder.Embed(ctx, c.LemmatizedVocabulary)
	if err != nil {
		return err
	}
	idx := semanticindex.New(len(c.LemmatizedVocabulary), b.Embedder.Dimensions())
	if err := idx.Add(c.LemmatizedVocabulary, vectors); err != nil {
		return err
	}
	if b.IndexDir != "" {
		if err := idx.Save(b.indexPath(corpusID)); err != nil {
			return err
		}
	}
	if b.built == nil {
		b.built = make(map[string]*semanticindex.Index)
	}
	b.built[corpusID] = idx

	content, err := toContentMap(map[string]any{
		"corpus_uuid":         corpusID,
		"vocabulary_hash":     c.VocabularyHash,
		"model_name":          b.Model,
		"embedding_dimension": b.Embedder.Dimensions(),
		"num_embeddings":      len(c.LemmatizedVocabulary),
		"index_path":          b.indexPath(corpusID),
	})
	if err != nil {
		return err
	}
	meta := map[string]string{"corpus_uuid": corpusID, "vocabulary_hash": c.VocabularyHash, "model_name": b.Model}
	cfg := coreconfig.DefaultVersionConfig()
	cfg.ForceRebuild = true
	_, err = b.Versions.Save(ctx, corpusID, registry.KindSemantic, content, cfg, meta, nil)
	return err
}

func (b *SemanticBuilder) Delete(ctx context.Context, corpusID string) error {
	delete(b.built, corpusID)
	return deleteAllVersions(ctx, b.Versions, corpusID, registry.KindSemantic)
}

// Get returns the in-process index for corpusID if one was built this
// run, else reloads it from the persisted index file.
func (b *SemanticBuilder) Get(ctx context.Context, corpusID string) (*semanticindex.Index, error) {
	if idx, ok := b.built[corpusID]; ok {
		return idx, nil
	}
	rec, err := b.Versions.GetLatest(ctx, corpusID, registry.KindSemantic)
	if err != nil {
		if errors.Is(err, coreerrors.VersionNotFound("", "")) {
			return nil, nil
		}
		return nil, err
	}
	path, _ := rec.ContentInline["index_path"].(string)
	if path == "" {
		return nil, nil
	}
	return semanticindex.Load(path)
}

func (b *SemanticBuilder) indexPath(corpusID string) string {
	if b.IndexDir == "" {
		return ""
	}
	return b.IndexDir + "/" + corpusID + ".hnsw"
}

// DeleteCorpus removes a corpus and every dependent index: dependents
// first through m.Delete (failures aggregate into PartialDelete without
// blocking the corpus removal), then the corpus chain itself.
func DeleteCorpus(ctx context.Context, m *Manager, versions *version.Manager, corpusID string) error {
	depErr := m.Delete(ctx, corpusID)
	if err := deleteAllVersions(ctx, versions, corpusID, registry.KindCorpus); err != nil {
		return err
	}
	return depErr
}

func deleteAllVersions(ctx context.Context, versions *version.Manager, resourceID string, kind registry.ResourceKind) error {
	summaries, err := versions.ListVersions(ctx, resourceID, kind)
	if err != nil {
		return err
	}
	for _, s := range summaries {
		if _, err := versions.DeleteVersion(ctx, resourceID, kind, s.Version); err != nil {
			return err
		}
	}
	return nil
}

// toContentMap round-trips v through JSON into the map[string]any shape
// the version manager stores.
func toContentMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, coreerrors.EncodeError("index-record")
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, coreerrors.DecodeError("index-record", "")
	}
	return m, nil
}

func fromContentMap(m map[string]any, out any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return coreerrors.EncodeError("index-record")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return coreerrors.DecodeError("index-record", "")
	}
	return nil
}
