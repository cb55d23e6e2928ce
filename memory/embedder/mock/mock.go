// Package mock provides a deterministic embedder for tests and local
// runs without model files. It does not produce real semantic
// similarity; identical texts map to identical vectors, which is enough
// to exercise store plumbing end to end.
package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// Embedder generates hash-derived unit vectors.
type Embedder struct {
	dimensions int
}

// New creates a mock embedder matching all-MiniLM-L6-v2 dimensions.
func New() *Embedder {
	return &Embedder{dimensions: 384}
}

// Embed derives a deterministic embedding from the text's hash.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))

	// LCG seeded by the hash fills the vector.
	seed := h.Sum64()
	embedding := make([]float32, m.dimensions)
	for i := range embedding {
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}

	return normalize(embedding), nil
}

// Dimensions returns the embedding size.
func (m *Embedder) Dimensions() int {
	return m.dimensions
}

func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}

	norm = float32(math.Sqrt(float64(norm)))
	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = v / norm
	}
	return normalized
}
