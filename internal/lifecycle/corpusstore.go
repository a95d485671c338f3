package lifecycle

import (
	"context"
	"errors"

	"github.com/dictcore/dictcore/internal/coreconfig"
	"github.com/dictcore/dictcore/internal/coreerrors"
	"github.com/dictcore/dictcore/internal/corpus"
	"github.com/dictcore/dictcore/internal/registry"
	"github.com/dictcore/dictcore/internal/version"
)

// CorpusStore persists corpora as versioned resources under KindCorpus,
// keyed by corpus UUID, with a name→uuid alias record so callers can
// resolve a corpus by its human name.
type CorpusStore struct {
	Versions   *version.Manager
	Lemmatizer corpus.Lemmatizer
}

func aliasKey(name string) string {
	return "name::" + name
}

// Save writes c's snapshot as a new version and refreshes the name alias.
func (s *CorpusStore) Save(ctx context.Context, c *corpus.Corpus) (*version.VersionedRecord, error) {
	content, err := toContentMap(c.Snapshot())
	if err != nil {
		return nil, err
	}
	meta := map[string]string{
		"corpus_uuid":     c.CorpusUUID,
		"corpus_type":     string(c.CorpusType),
		"language":        c.Language,
		"vocabulary_hash": c.VocabularyHash,
	}
	cfg := coreconfig.DefaultVersionConfig()
	rec, err := s.Versions.Save(ctx, c.CorpusUUID, registry.KindCorpus, content, cfg, meta, nil)
	if err != nil {
		return nil, err
	}

	if c.CorpusName != "" {
		alias := map[string]any{"corpus_uuid": c.CorpusUUID}
		if _, err := s.Versions.Save(ctx, aliasKey(c.CorpusName), registry.KindCorpus, alias, cfg, nil, nil); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// Get resolves idOrName (UUID first, then name alias) to its latest
// persisted corpus, or nil if neither resolves.
func (s *CorpusStore) Get(ctx context.Context, idOrName string) (*corpus.Corpus, error) {
	c, err := s.getByID(ctx, idOrName)
	if err != nil || c != nil {
		return c, err
	}

	rec, err := s.Versions.GetLatest(ctx, aliasKey(idOrName), registry.KindCorpus)
	if err != nil {
		if errors.Is(err, coreerrors.VersionNotFound("", "")) {
			return nil, nil
		}
		return nil, err
	}
	uuid, _ := rec.ContentInline["corpus_uuid"].(string)
	if uuid == "" {
		return nil, nil
	}
	return s.getByID(ctx, uuid)
}

func (s *CorpusStore) getByID(ctx context.Context, id string) (*corpus.Corpus, error) {
	rec, err := s.Versions.GetLatest(ctx, id, registry.KindCorpus)
	if err != nil {
		if errors.Is(err, coreerrors.VersionNotFound("", "")) {
			return nil, nil
		}
		return nil, err
	}
	// Alias records are not corpora; they carry no original_vocabulary.
	if _, ok := rec.ContentInline["original_vocabulary"]; !ok {
		return nil, nil
	}
	var snap corpus.Snapshot
	if err := fromContentMap(rec.ContentInline, &snap); err != nil {
		return nil, err
	}
	return corpus.FromSnapshot(snap, s.Lemmatizer), nil
}

// GetManyByIDs resolves each id, skipping any that do not exist.
func (s *CorpusStore) GetManyByIDs(ctx context.Context, ids []string) ([]*corpus.Corpus, error) {
	out := make([]*corpus.Corpus, 0, len(ids))
	for _, id := range ids {
		c, err := s.getByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

// Delete removes the corpus, its name alias, and every dependent index
// through the cascade. A PartialDelete from the dependent cascade is
// returned after the corpus itself is removed.
func (s *CorpusStore) Delete(ctx context.Context, m *Manager, idOrName string) error {
	c, err := s.Get(ctx, idOrName)
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}
	if c.CorpusName != "" {
		if err := deleteAllVersions(ctx, s.Versions, aliasKey(c.CorpusName), registry.KindCorpus); err != nil {
			return err
		}
	}
	return DeleteCorpus(ctx, m, s.Versions, c.CorpusUUID)
}
