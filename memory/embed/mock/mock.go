// Package mock provides a deterministic hash-based embedder for tests
// and examples that must not depend on the feature layout or a model.
package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// DefaultDimensions matches the feature vectorizer's vector length.
const DefaultDimensions = 128

// Embedder generates deterministic pseudo-random unit vectors from a
// hash of the input text. Identical texts always map to identical
// vectors; distinct texts map to near-orthogonal ones.
type Embedder struct {
	dims int
}

// New creates a mock embedder with the given dimensions; n <= 0 picks
// DefaultDimensions.
func New(n int) *Embedder {
	if n <= 0 {
		n = DefaultDimensions
	}
	return &Embedder{dims: n}
}

// Embed derives a unit vector from the FNV hash of text, expanded with
// a linear congruential generator.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, e.dims)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}

	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	if sum > 0 {
		norm := float32(math.Sqrt(sum))
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// Dimensions returns the embedding size.
func (e *Embedder) Dimensions() int {
	return e.dims
}
