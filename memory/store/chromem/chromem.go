// Package chromem implements the memory store on chromem-go, a pure Go
// embedded vector database. One chromem collection per namespace gives
// hard isolation between namespaces; a parallel value map provides
// exact-key lookup, which chromem does not offer natively.
package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/getdrafty/drafty-go-sdk/memory"
)

// ChromemStore is the volatile, process-local Store implementation.
type ChromemStore struct {
	db       *chromem.DB
	embedder memory.Embedder
	cache    *memory.CachedEmbedder
	config   *memory.Config

	// writeMu serializes puts so a record's value and its vector
	// document never diverge under concurrent writes to one key.
	writeMu sync.Mutex

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
	values      map[string]map[string]storedValue
	nextSeq     uint64
}

// storedValue keeps the original payload plus its first-insert sequence
// number, which breaks search ties (earlier insert wins).
type storedValue struct {
	value interface{}
	seq   uint64
}

// New creates a chromem-backed store. Embeddings are computed with the
// given embedder at write and query time; query embeddings go through a
// ristretto cache when the config enables one.
func New(embedder memory.Embedder, config *memory.Config) (*ChromemStore, error) {
	if config == nil {
		config = memory.DefaultConfig
	}

	s := &ChromemStore{
		db:          chromem.NewDB(),
		embedder:    embedder,
		config:      config,
		collections: make(map[string]*chromem.Collection),
		values:      make(map[string]map[string]storedValue),
	}

	if config.QueryCacheEntries > 0 {
		cached, err := memory.NewCachedEmbedder(embedder, config.QueryCacheEntries)
		if err != nil {
			return nil, err
		}
		s.cache = cached
		s.embedder = cached
	}

	return s, nil
}

// getOrCreateCollection returns the chromem collection for a namespace.
func (s *ChromemStore) getOrCreateCollection(ns memory.Namespace) (*chromem.Collection, error) {
	name := ns.String()

	s.mu.RLock()
	col, exists := s.collections[name]
	s.mu.RUnlock()
	if exists {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring the write lock.
	if col, exists := s.collections[name]; exists {
		return col, nil
	}

	col, err := s.db.CreateCollection(
		name,
		nil, // no collection metadata
		nil, // embeddings are provided, not computed by chromem
	)
	if err != nil {
		return nil, fmt.Errorf("create collection %q: %w", name, err)
	}

	s.collections[name] = col
	s.values[name] = make(map[string]storedValue)
	return col, nil
}

// Put upserts a record. Last write wins; the record keeps its original
// insertion sequence across overwrites.
func (s *ChromemStore) Put(ctx context.Context, ns memory.Namespace, key string, value interface{}) error {
	text, err := embedText(value)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", ns, key, err)
	}

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("put %s/%s: embed value: %w", ns, key, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	col, err := s.getOrCreateCollection(ns)
	if err != nil {
		return err
	}

	// AddDocument with an existing ID replaces the document in place.
	err = col.AddDocument(ctx, chromem.Document{
		ID:        key,
		Content:   text,
		Embedding: embedding,
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: add document: %w", ns, key, err)
	}

	s.mu.Lock()
	existing, exists := s.values[ns.String()][key]
	seq := existing.seq
	if !exists {
		s.nextSeq++
		seq = s.nextSeq
	}
	s.values[ns.String()][key] = storedValue{value: value, seq: seq}
	s.mu.Unlock()

	return nil
}

// Get returns the value under key, or memory.ErrNotFound.
func (s *ChromemStore) Get(ctx context.Context, ns memory.Namespace, key string) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nsValues, ok := s.values[ns.String()]
	if !ok {
		return nil, memory.ErrNotFound
	}
	stored, ok := nsValues[key]
	if !ok {
		return nil, memory.ErrNotFound
	}
	return stored.value, nil
}

// Search returns up to limit records ranked by similarity to query,
// ties broken by insertion order. Empty namespaces and queries clearing
// no record past the relevance floor yield a nil slice, not an error.
func (s *ChromemStore) Search(ctx context.Context, ns memory.Namespace, query string, limit int) ([]memory.Record, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	col, exists := s.collections[ns.String()]
	s.mu.RUnlock()
	if !exists {
		return nil, nil
	}

	// Query the whole collection: truncating to limit happens after the
	// local sort, so the insertion-order tie-break, not chromem's
	// internal ordering, decides which tied records survive the cutoff.
	n := col.Count()
	if n == 0 {
		return nil, nil
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %s: embed query: %w", ns, err)
	}

	results, err := col.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", ns, err)
	}

	s.mu.RLock()
	nsValues := s.values[ns.String()]
	type ranked struct {
		rec memory.Record
		seq uint64
	}
	var hits []ranked
	for _, result := range results {
		if float64(result.Similarity) < s.config.MinSimilarity {
			continue
		}
		stored, ok := nsValues[result.ID]
		if !ok {
			// Document without a value entry should not happen; skip.
			log.Printf("[CHROMEM] Skipping orphaned document %s in %s", result.ID, ns)
			continue
		}
		hits = append(hits, ranked{
			rec: memory.Record{
				Namespace:  ns,
				Key:        result.ID,
				Value:      stored.value,
				Embedding:  result.Embedding,
				Similarity: result.Similarity,
			},
			seq: stored.seq,
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].rec.Similarity != hits[j].rec.Similarity {
			return hits[i].rec.Similarity > hits[j].rec.Similarity
		}
		return hits[i].seq < hits[j].seq
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}

	records := make([]memory.Record, 0, len(hits))
	for _, h := range hits {
		records = append(records, h.rec)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records, nil
}

// Close releases the embedding cache. chromem keeps everything in
// memory, so there is nothing else to release.
func (s *ChromemStore) Close() error {
	if s.cache != nil {
		s.cache.Close()
	}
	return nil
}

// embedText projects a record value into the text that gets embedded
// and stored as document content.
func embedText(value interface{}) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(b), nil
}
