// Package semanticindex implements the semantic index: a dense-vector
// ANN store over corpus word embeddings, with size-tiered parameter
// selection. Embedding generation is out of scope here; the package
// consumes embeddings through the injectable Embedder contract.
package semanticindex

import (
	"bufio"
	"context"
	"encoding/gob"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/coder/hnsw"
	"github.com/dictcore/dictcore/internal/coreerrors"
)

// Embedder is the external embedding contract the semantic index consumes
// but never implements.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Result is one semantic search hit
type Result struct {
	Word     string
	Distance float32
	Score    float32
}

// Config captures the index's ANN parameters, filled from the size-tiered
// profile selection in Select.
type Config struct {
	Dimensions     int
	Metric         string
	M              int
	EfConstruction int
	EfSearch       int
	Profile        Profile
}

// Index is a size-tiered dense-vector store over vocabulary words.
type Index struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config Config

	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64

	closed bool
}

// New builds an Index for the given vocabulary size, selecting a
// parameter profile via Select
func New(vocabularySize int, dimensions int) *Index {
	profile := Select(vocabularySize)
	cfg := Config{
		Dimensions:     dimensions,
		Metric:         "cos",
		M:              profile.M,
		EfConstruction: profile.EfConstruction,
		EfSearch:       profile.EfSearch,
		Profile:        profile,
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &Index{
		graph:  graph,
		config: cfg,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
	}
}

// Config returns the index's active parameter configuration.
func (idx *Index) Config() Config {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.config
}

// Add inserts or replaces the embedding vectors for words. Re-adding an
// existing word orphans its prior graph node rather than deleting it,
// working around coder/hnsw's last-node-delete bug.
func (idx *Index) Add(words []string, vectors [][]float32) error {
	if len(words) == 0 {
		return nil
	}
	if len(words) != len(vectors) {
		return coreerrors.New(coreerrors.ErrCodeEncode, "words and vectors length mismatch", nil).
			WithDetail("words", strconv.Itoa(len(words))).WithDetail("vectors", strconv.Itoa(len(vectors)))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return coreerrors.New(coreerrors.ErrCodeBackend, "semantic index is closed", nil)
	}

	for _, v := range vectors {
		if len(v) != idx.config.Dimensions {
			return coreerrors.New(coreerrors.ErrCodeEncode, "vector dimension mismatch", nil).
				WithDetail("expected", strconv.Itoa(idx.config.Dimensions)).WithDetail("got", strconv.Itoa(len(v)))
		}
	}

	for i, word := range words {
		if existingKey, exists := idx.idMap[word]; exists {
			delete(idx.keyMap, existingKey)
			delete(idx.idMap, word)
		}

		key := idx.nextKey
		idx.nextKey++

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		normalizeVectorInPlace(vec)

		idx.graph.Add(hnsw.MakeNode(key, vec))
		idx.idMap[word] = key
		idx.keyMap[key] = word
	}
	return nil
}

// Search returns the k nearest vocabulary words to query
func (idx *Index) Search(query []float32, k int) ([]Result, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, coreerrors.New(coreerrors.ErrCodeBackend, "semantic index is closed", nil)
	}
	if len(query) != idx.config.Dimensions {
		return nil, coreerrors.New(coreerrors.ErrCodeEncode, "query dimension mismatch", nil).
			WithDetail("expected", strconv.Itoa(idx.config.Dimensions)).WithDetail("got", strconv.Itoa(len(query)))
	}
	if idx.graph.Len() == 0 {
		return nil, nil
	}

	normalized := make([]float32, len(query))
	copy(normalized, query)
	normalizeVectorInPlace(normalized)

	nodes := idx.graph.Search(normalized, k)
	results := make([]Result, 0, len(nodes))
	for _, node := range nodes {
		word, ok := idx.keyMap[node.Key]
		if !ok {
			continue
		}
		distance := idx.graph.Distance(normalized, node.Value)
		results = append(results, Result{Word: word, Distance: distance, Score: distanceToScore(distance)})
	}
	return results, nil
}

// Delete lazily removes words' mappings; orphaned graph nodes stay
// behind and are dropped on the next full rebuild.
func (idx *Index) Delete(words []string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, w := range words {
		if key, exists := idx.idMap[w]; exists {
			delete(idx.keyMap, key)
			delete(idx.idMap, w)
		}
	}
}

// Contains reports whether word has an embedding in the index.
func (idx *Index) Contains(word string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.idMap[word]
	return ok
}

// Count returns the number of live (non-orphaned) embeddings.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.idMap)
}

// AllWords returns every word with a live embedding, for cross-index
// consistency checking.
func (idx *Index) AllWords() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	words := make([]string, 0, len(idx.idMap))
	for w := range idx.idMap {
		words = append(words, w)
	}
	return words
}

type persistedMeta struct {
	IDMap   map[string]uint64
	NextKey uint64
	Config  Config
}

// Save persists the index to path (graph) and path+".meta" (ID mappings)
// via a temp-file-then-rename so a crash never leaves a torn file.
func (idx *Index) Save(path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return coreerrors.New(coreerrors.ErrCodeBackend, "semantic index is closed", nil)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return coreerrors.New(coreerrors.ErrCodeBackend, "create semantic index directory", err)
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return coreerrors.New(coreerrors.ErrCodeBackend, "create semantic index file", err)
	}
	if err := idx.graph.Export(file); err != nil {
		file.Close()
		os.Remove(tmp)
		return coreerrors.New(coreerrors.ErrCodeEncode, "export semantic graph", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return coreerrors.New(coreerrors.ErrCodeBackend, "close semantic index file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return coreerrors.New(coreerrors.ErrCodeBackend, "rename semantic index file", err)
	}

	return idx.saveMeta(path + ".meta")
}

func (idx *Index) saveMeta(path string) error {
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return coreerrors.New(coreerrors.ErrCodeBackend, "create semantic index metadata", err)
	}
	meta := persistedMeta{IDMap: idx.idMap, NextKey: idx.nextKey, Config: idx.config}
	if err := gob.NewEncoder(file).Encode(meta); err != nil {
		file.Close()
		os.Remove(tmp)
		return coreerrors.New(coreerrors.ErrCodeEncode, "encode semantic index metadata", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return coreerrors.New(coreerrors.ErrCodeBackend, "close semantic index metadata", err)
	}
	return os.Rename(tmp, path)
}

// Load restores an Index previously written by Save.
func Load(path string) (*Index, error) {
	metaFile, err := os.Open(path + ".meta")
	if err != nil {
		return nil, coreerrors.New(coreerrors.ErrCodeBackend, "open semantic index metadata", err)
	}
	defer metaFile.Close()

	var meta persistedMeta
	if err := gob.NewDecoder(metaFile).Decode(&meta); err != nil {
		return nil, coreerrors.New(coreerrors.ErrCodeDecode, "decode semantic index metadata", err)
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = meta.Config.M
	graph.EfSearch = meta.Config.EfSearch
	graph.Ml = 0.25

	file, err := os.Open(path)
	if err != nil {
		return nil, coreerrors.New(coreerrors.ErrCodeBackend, "open semantic index file", err)
	}
	defer file.Close()
	if err := graph.Import(bufio.NewReader(file)); err != nil {
		return nil, coreerrors.New(coreerrors.ErrCodeDecode, "import semantic graph", err)
	}

	idx := &Index{
		graph:   graph,
		config:  meta.Config,
		idMap:   meta.IDMap,
		keyMap:  make(map[uint64]string, len(meta.IDMap)),
		nextKey: meta.NextKey,
	}
	for word, key := range idx.idMap {
		idx.keyMap[key] = word
	}
	return idx, nil
}

// Close releases the index's resources.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	idx.graph = nil
	return nil
}

func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	invMagnitude := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= invMagnitude
	}
}

// distanceToScore converts cosine distance (0-2) into a 0-1 similarity
// score.
func distanceToScore(distance float32) float32 {
	return 1.0 - distance/2.0
}
