package memory

import (
	"fmt"
	"math"
)

// Cosine returns the cosine similarity of two equal-length vectors:
// their dot product divided by the product of their magnitudes. If
// either magnitude is exactly zero the result is 0, never NaN.
//
// Unequal lengths mean the embedder's output size changed without a
// data migration. That is an invariant violation, not a recoverable
// condition, so Cosine panics rather than returning a wrong score.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("memory: embedding dimension mismatch: %d vs %d", len(a), len(b)))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
