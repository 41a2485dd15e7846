// Package feature implements a deterministic, cache-backed text
// vectorizer. It is a placeholder for a trained embedding model: the
// vectors are not semantically meaningful the way model embeddings
// are, but they satisfy the same contract (fixed length, unit norm,
// cosine-comparable), so a real model drops in behind memory.Embedder
// without touching any caller.
package feature

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/dgraph-io/ristretto"
)

// DefaultDimensions is the vector length used when none is configured.
const DefaultDimensions = 128

var wordPattern = regexp.MustCompile(`\w+`)

// keywordCategories are crude topic/sentiment signals. Each category
// owns one vector slot holding the fraction of the text's words that
// belong to the category. Order is part of the vector layout.
var keywordCategories = [][]string{
	{"good", "great", "excellent", "happy", "success"},   // positive sentiment
	{"bad", "fail", "struggle", "difficult", "hard"},     // negative sentiment
	{"gym", "workout", "exercise", "run", "train"},       // workout
	{"work", "task", "complete", "finish", "productive"}, // productivity
}

// Vectorizer maps text to fixed-length unit vectors. It is a pure
// function of its input plus a process-wide memoization cache keyed by
// the exact input text. The cache is content-addressed and never
// stores user IDs, so sharing it across users' requests is safe.
type Vectorizer struct {
	dims  int
	cache *ristretto.Cache
}

// Option configures a Vectorizer.
type Option func(*Vectorizer)

// WithDimensions overrides the vector length. All entries embedded by
// one configuration must share it; changing it requires re-embedding
// stored data.
func WithDimensions(n int) Option {
	return func(v *Vectorizer) {
		v.dims = n
	}
}

// WithCache injects a shared embedding cache. Without it the
// vectorizer creates its own bounded cache.
func WithCache(c *ristretto.Cache) Option {
	return func(v *Vectorizer) {
		v.cache = c
	}
}

// New creates a Vectorizer. The default cache admits roughly 64k texts
// and evicts by ristretto's TinyLFU policy, so memory stays bounded in
// a long-running process. Correctness never depends on retention: a
// miss just recomputes.
func New(opts ...Option) (*Vectorizer, error) {
	v := &Vectorizer{dims: DefaultDimensions}
	for _, opt := range opts {
		opt(v)
	}
	if v.dims/2+2+len(keywordCategories) > v.dims {
		return nil, fmt.Errorf("dimensions %d too small for feature layout", v.dims)
	}
	if v.cache == nil {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 1 << 16,
			MaxCost:     32 << 20, // 32 MiB of vectors
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("create embedding cache: %w", err)
		}
		v.cache = cache
	}
	return v, nil
}

// Embed converts text to a unit-normalized feature vector. The same
// text always yields the same vector, within a process and across
// processes. Embed never fails; the error return exists to satisfy
// memory.Embedder.
func (v *Vectorizer) Embed(_ context.Context, text string) ([]float32, error) {
	if cached, ok := v.cache.Get(text); ok {
		return cached.([]float32), nil
	}

	vec := v.compute(text)
	v.cache.Set(text, vec, int64(len(vec)*4))
	return vec, nil
}

// Dimensions returns the vector length.
func (v *Vectorizer) Dimensions() int {
	return v.dims
}

// compute builds the raw feature vector and normalizes it.
//
// Layout for N dimensions:
//
//	[0, N/2)    per-character codes of the text, each /255
//	N/2         word count /100
//	N/2+1       character count /1000
//	N/2+2+c     fraction of words in keyword category c
func (v *Vectorizer) compute(text string) []float32 {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	vec := make([]float32, v.dims)

	half := v.dims / 2
	for i := 0; i < len(text) && i < half; i++ {
		vec[i] = float32(text[i]) / 255
	}

	vec[half] = float32(len(words)) / 100
	vec[half+1] = float32(len(text)) / 1000

	if len(words) > 0 {
		for c, category := range keywordCategories {
			matches := 0
			for _, w := range words {
				for _, kw := range category {
					if w == kw {
						matches++
						break
					}
				}
			}
			vec[half+2+c] = float32(matches) / float32(len(words))
		}
	}

	return normalize(vec)
}

// normalize divides every slot by the vector's Euclidean norm. An
// all-zero vector is returned unchanged rather than divided by zero.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return vec
	}

	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
