// Package lifecycle implements the cascading derived-index lifecycle:
// the Corpus → SearchIndex → {TrieIndex, SemanticIndex} dependency
// graph, rebuild on vocabulary-hash change, and referential-integrity
// checks with cascading delete.
package lifecycle

import (
	"context"
	"sort"

	"github.com/dictcore/dictcore/internal/coreerrors"
	"github.com/dictcore/dictcore/internal/corpus"
	"github.com/dictcore/dictcore/internal/registry"
)

// Builder builds or deletes one dependent index kind for a corpus.
// Implementations wrap trieindex/semanticindex/searchfacade construction
// and the version-manager save/delete calls that persist them.
type Builder interface {
	Build(ctx context.Context, corpusID string, c *corpus.Corpus) error
	Delete(ctx context.Context, corpusID string) error
}

// Manager tracks which vocabulary snapshot each corpus's dependent
// indices were last built from, and drives rebuild/delete cascades.
type Manager struct {
	builders map[registry.ResourceKind]Builder

	knownHashes map[string]string
}

// New builds a Manager over the dependent-kind builders (Trie, Search,
// Semantic), keyed by registry.DependentKinds.
func New(builders map[registry.ResourceKind]Builder) *Manager {
	return &Manager{builders: builders, knownHashes: make(map[string]string)}
}

// EnsureFresh implements get_or_create semantics for the dependency
// graph: if c's vocabulary_hash differs from what this corpus's
// dependents were last built from (or they were never built), every
// dependent kind is rebuilt in registry.DependentKinds order's
// invalidation contract.
func (m *Manager) EnsureFresh(ctx context.Context, corpusID string, c *corpus.Corpus) error {
	if m.knownHashes[corpusID] == c.VocabularyHash {
		return nil
	}

	for _, kind := range registry.DependentKinds {
		builder, ok := m.builders[kind]
		if !ok {
			continue
		}
		if err := builder.Build(ctx, corpusID, c); err != nil {
			return coreerrors.IntegrityError(corpusID, "dependent index rebuild failed: "+string(kind)).WithDetail("cause", err.Error())
		}
	}

	m.knownHashes[corpusID] = c.VocabularyHash
	return nil
}

// Invalidate forgets the last-known vocabulary hash for corpusID, forcing
// the next EnsureFresh call to rebuild every dependent regardless of
// whether the hash actually changed.
func (m *Manager) Invalidate(corpusID string) {
	delete(m.knownHashes, corpusID)
}

// Delete cascades deletion across every dependent kind for corpusID. It
// attempts every builder even after a failure and returns a
// PartialDelete error collecting every sub-deletion that failed, or nil
// if all succeeded.
func (m *Manager) Delete(ctx context.Context, corpusID string) error {
	var failures []string
	for _, kind := range registry.DependentKinds {
		builder, ok := m.builders[kind]
		if !ok {
			continue
		}
		if err := builder.Delete(ctx, corpusID); err != nil {
			failures = append(failures, string(kind)+": "+err.Error())
		}
	}
	delete(m.knownHashes, corpusID)

	if len(failures) > 0 {
		return coreerrors.PartialDelete(corpusID, failures)
	}
	return nil
}

// DependentSnapshot names one dependent index's observed membership, used
// by CheckConsistency to detect orphans and gaps.
type DependentSnapshot struct {
	Kind  registry.ResourceKind
	Words []string
}

// Inconsistency is one detected cross-index integrity gap, with the
// corpus vocabulary as the source of truth.
type Inconsistency struct {
	Kind registry.ResourceKind
	Word string
	// Orphan is true when Word appears in Kind's index but not in the
	// corpus vocabulary; false when Word is in the corpus vocabulary but
	// missing from Kind's index.
	Orphan bool
}

// CheckConsistency compares each dependent's word set against c's
// vocabulary (the source of truth), reporting orphans (present in a
// dependent index but absent from the corpus) and gaps (present in the
// corpus but absent from a dependent index)
func CheckConsistency(c *corpus.Corpus, dependents []DependentSnapshot) []Inconsistency {
	vocabSet := make(map[string]struct{}, len(c.Vocabulary))
	for _, w := range c.Vocabulary {
		vocabSet[w] = struct{}{}
	}

	var issues []Inconsistency
	for _, dep := range dependents {
		depSet := make(map[string]struct{}, len(dep.Words))
		for _, w := range dep.Words {
			depSet[w] = struct{}{}
			if _, ok := vocabSet[w]; !ok {
				issues = append(issues, Inconsistency{Kind: dep.Kind, Word: w, Orphan: true})
			}
		}
		for w := range vocabSet {
			if _, ok := depSet[w]; !ok {
				issues = append(issues, Inconsistency{Kind: dep.Kind, Word: w, Orphan: false})
			}
		}
	}

	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Kind != issues[j].Kind {
			return issues[i].Kind < issues[j].Kind
		}
		return issues[i].Word < issues[j].Word
	})
	return issues
}
