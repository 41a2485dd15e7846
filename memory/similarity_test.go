package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aetherlabs/aether-go/memory"
)

func TestCosineIdenticalUnitVectors(t *testing.T) {
	v := []float32{0.6, 0.8, 0}
	assert.InDelta(t, 1.0, memory.Cosine(v, v), 1e-6)
}

func TestCosineOrthogonal(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}
	assert.InDelta(t, 0.0, memory.Cosine(a, b), 1e-9)
}

func TestCosineSymmetry(t *testing.T) {
	a := []float32{0.2, -0.5, 0.7, 0.1}
	b := []float32{-0.3, 0.4, 0.2, 0.9}
	assert.Equal(t, memory.Cosine(a, b), memory.Cosine(b, a))
}

func TestCosineZeroVectorIsZeroNotNaN(t *testing.T) {
	zero := []float32{0, 0, 0}
	v := []float32{0.3, 0.4, 0.5}

	assert.Zero(t, memory.Cosine(zero, v))
	assert.Zero(t, memory.Cosine(v, zero))
	assert.Zero(t, memory.Cosine(zero, zero))
}

func TestCosineMagnitudeIndependent(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{2, 4, 6}
	assert.InDelta(t, 1.0, memory.Cosine(a, b), 1e-6)
}

func TestCosineDimensionMismatchPanics(t *testing.T) {
	require.Panics(t, func() {
		memory.Cosine([]float32{1, 2}, []float32{1, 2, 3})
	})
}
