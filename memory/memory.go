package memory

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when no record exists under the
// requested namespace and key.
var ErrNotFound = errors.New("memory: record not found")

// Namespace is an ordered tuple of string segments partitioning all
// stored records. Reads and searches never cross namespaces.
type Namespace []string

// String joins the namespace segments for use as a backend identifier.
func (n Namespace) String() string {
	return strings.Join(n, "/")
}

// Record is one stored memory entry. Value is an arbitrary structured
// payload; Embedding is populated by the store at write time.
type Record struct {
	Namespace Namespace
	Key       string
	Value     interface{}
	Embedding []float32

	// Similarity is set on records returned by Search.
	Similarity float32
}

// Store is the namespaced key-value store with approximate-similarity
// search. It is the only shared mutable resource in the system and must
// be safe for concurrent callers: puts to the same (namespace, key) are
// serialized last-write-wins, and writes are immediately visible to
// subsequent gets and searches (read-your-writes).
//
// Implementations: ChromemStore (embedded vector backend, volatile).
type Store interface {
	// Put upserts a record. Idempotent; last write wins.
	Put(ctx context.Context, ns Namespace, key string, value interface{}) error

	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, ns Namespace, key string) (interface{}, error)

	// Search returns up to limit records in the namespace ranked by
	// similarity of query to record content. Ties break by insertion
	// order, earlier first. An empty namespace or a query clearing no
	// record past the relevance floor yields an empty result, not an
	// error.
	Search(ctx context.Context, ns Namespace, query string, limit int) ([]Record, error)

	// Close releases backend resources.
	Close() error
}

// Embedder converts text to vector embeddings.
// Implementations: mock (deterministic, testing/local), onnx (local
// all-MiniLM-L6-v2 behind the onnx build tag).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Config holds store tuning knobs.
type Config struct {
	// MinSimilarity is the relevance floor for Search results [0.0-1.0].
	// Records scoring below it are dropped rather than returned.
	MinSimilarity float64

	// QueryCacheEntries caps the ristretto cache of query embeddings.
	// Zero disables the cache.
	QueryCacheEntries int64
}

// DefaultConfig returns sensible defaults for the embedded store.
var DefaultConfig = &Config{
	MinSimilarity:     0.25,
	QueryCacheEntries: 4096,
}
