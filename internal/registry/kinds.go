// Package registry implements the resource-kind table: a closed
// enumeration of logical resource kinds mapped to their storage
// namespace and metadata schema. A plain Go map — no reflection, no
// inheritance hierarchy.
package registry

import (
	"github.com/dictcore/dictcore/internal/coreconfig"
	"github.com/dictcore/dictcore/internal/coreerrors"
)

// ResourceKind is the closed set of versionable resource kinds.
type ResourceKind string

const (
	KindDictionary ResourceKind = "dictionary"
	KindCorpus     ResourceKind = "corpus"
	KindLanguage   ResourceKind = "language"
	KindSemantic   ResourceKind = "semantic"
	KindLiterature ResourceKind = "literature"
	KindTrie       ResourceKind = "trie"
	KindSearch     ResourceKind = "search"
)

// KindInfo describes the fixed namespace and dependency role of a
// ResourceKind. MetadataKeys lists the keys a VersionedRecord.Metadata
// map is expected to carry for this kind, enforced only by convention.
type KindInfo struct {
	Namespace    coreconfig.Namespace
	MetadataKeys []string
}

// table is the closed kind→namespace map.
var table = map[ResourceKind]KindInfo{
	KindDictionary: {Namespace: coreconfig.NamespaceDictionary, MetadataKeys: []string{"language", "headword"}},
	KindCorpus:     {Namespace: coreconfig.NamespaceCorpus, MetadataKeys: []string{"corpus_uuid", "corpus_type", "language"}},
	KindLanguage:   {Namespace: coreconfig.NamespaceLanguage, MetadataKeys: []string{"language_code"}},
	KindSemantic:   {Namespace: coreconfig.NamespaceSemantic, MetadataKeys: []string{"corpus_uuid", "model_name", "vocabulary_hash"}},
	KindLiterature: {Namespace: coreconfig.NamespaceLiterature, MetadataKeys: []string{"corpus_uuid", "title"}},
	KindTrie:       {Namespace: coreconfig.NamespaceTrie, MetadataKeys: []string{"corpus_uuid", "vocabulary_hash"}},
	KindSearch:     {Namespace: coreconfig.NamespaceSearch, MetadataKeys: []string{"corpus_uuid", "vocabulary_hash"}},
}

// Lookup resolves a ResourceKind to its KindInfo, returning
// coreerrors.UnknownKind when the kind is not one of the closed set.
func Lookup(kind ResourceKind) (KindInfo, error) {
	info, ok := table[kind]
	if !ok {
		return KindInfo{}, coreerrors.UnknownKind(string(kind))
	}
	return info, nil
}

// NamespaceFor is a convenience wrapper over Lookup for callers that only
// need the namespace.
func NamespaceFor(kind ResourceKind) (coreconfig.Namespace, error) {
	info, err := Lookup(kind)
	if err != nil {
		return "", err
	}
	return info.Namespace, nil
}

// DependentKinds enumerates the kinds that depend on a corpus, forming
// the Corpus → SearchIndex → {TrieIndex, SemanticIndex} dependency
// graph. SearchIndex is the direct dependent; Trie/Semantic depend
// transitively through SearchIndex but are looked up directly by
// corpus_uuid (see internal/lifecycle).
var DependentKinds = []ResourceKind{KindSearch, KindTrie, KindSemantic}
