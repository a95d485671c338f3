// Package coreconfig holds the immutable configuration tables consulted by
// every core subsystem: the per-namespace cache policy, the delta/snapshot
// policy, and the disk-backend policy. Configuration is layered: defaults,
// then an optional YAML file, then environment variables.
package coreconfig

import "time"

// Namespace is the closed set of cache partitions.
type Namespace string

const (
	NamespaceDefault    Namespace = "default"
	NamespaceDictionary Namespace = "dictionary"
	NamespaceSearch     Namespace = "search"
	NamespaceCorpus     Namespace = "corpus"
	NamespaceLanguage   Namespace = "language"
	NamespaceSemantic   Namespace = "semantic"
	NamespaceTrie       Namespace = "trie"
	NamespaceLiterature Namespace = "literature"
	NamespaceLexicon    Namespace = "lexicon"
	NamespaceAPI        Namespace = "api"
	NamespaceOpenAI     Namespace = "openai"
	NamespaceScraping   Namespace = "scraping"
	NamespaceWOTD       Namespace = "wotd"
)

// AllNamespaces enumerates the closed namespace set in a fixed order.
var AllNamespaces = []Namespace{
	NamespaceDefault, NamespaceDictionary, NamespaceSearch, NamespaceCorpus,
	NamespaceLanguage, NamespaceSemantic, NamespaceTrie, NamespaceLiterature,
	NamespaceLexicon, NamespaceAPI, NamespaceOpenAI, NamespaceScraping, NamespaceWOTD,
}

// Compression identifies one of the pluggable per-namespace codecs.
type Compression string

const (
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
	CompressionGzip Compression = "gzip"
	CompressionNone Compression = "none"
)

// NamespaceConfig is immutable once registered.
type NamespaceConfig struct {
	MemoryLimit int             `yaml:"memory_limit" json:"memory_limit"`
	MemoryTTL   *time.Duration  `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL     *time.Duration  `yaml:"disk_ttl" json:"disk_ttl"`
	Compression Compression     `yaml:"compression" json:"compression"`
}

func dur(d time.Duration) *time.Duration { return &d }

// DefaultNamespaceTable returns the built-in per-namespace cache policy.
func DefaultNamespaceTable() map[Namespace]NamespaceConfig {
	day := 24 * time.Hour
	return map[Namespace]NamespaceConfig{
		NamespaceDefault:    {MemoryLimit: 200, MemoryTTL: dur(1 * time.Hour), DiskTTL: dur(7 * day), Compression: CompressionNone},
		NamespaceDictionary: {MemoryLimit: 500, MemoryTTL: dur(day), DiskTTL: dur(7 * day), Compression: CompressionNone},
		NamespaceSearch:     {MemoryLimit: 200, MemoryTTL: dur(6 * time.Hour), DiskTTL: dur(30 * day), Compression: CompressionZstd},
		NamespaceCorpus:     {MemoryLimit: 100, MemoryTTL: dur(30 * day), DiskTTL: dur(90 * day), Compression: CompressionZstd},
		NamespaceLanguage:   {MemoryLimit: 50, MemoryTTL: dur(30 * day), DiskTTL: dur(180 * day), Compression: CompressionZstd},
		NamespaceSemantic:   {MemoryLimit: 5, MemoryTTL: dur(7 * day), DiskTTL: dur(30 * day), Compression: CompressionZstd},
		NamespaceTrie:       {MemoryLimit: 50, MemoryTTL: dur(7 * day), DiskTTL: dur(30 * day), Compression: CompressionLZ4},
		NamespaceLiterature: {MemoryLimit: 50, MemoryTTL: dur(30 * day), DiskTTL: dur(90 * day), Compression: CompressionGzip},
		NamespaceLexicon:    {MemoryLimit: 200, MemoryTTL: dur(30 * day), DiskTTL: dur(180 * day), Compression: CompressionZstd},
		NamespaceAPI:        {MemoryLimit: 500, MemoryTTL: dur(5 * time.Minute), DiskTTL: nil, Compression: CompressionNone},
		NamespaceOpenAI:     {MemoryLimit: 200, MemoryTTL: dur(1 * time.Hour), DiskTTL: dur(7 * day), Compression: CompressionZstd},
		NamespaceScraping:   {MemoryLimit: 100, MemoryTTL: dur(1 * time.Hour), DiskTTL: dur(3 * day), Compression: CompressionGzip},
		NamespaceWOTD:       {MemoryLimit: 31, MemoryTTL: dur(day), DiskTTL: dur(365 * day), Compression: CompressionNone},
	}
}
