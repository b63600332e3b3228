// Package vectormath provides similarity math over embedding vectors.
package vectormath

import (
	"math"
)

// CosineSimilarity returns the cosine similarity between a and b in [-1, 1].
// A nil vector, an empty vector, a length mismatch, or a zero-magnitude vector
// yields 0 (neutral "no signal"), never an error: items without a stored
// embedding are a normal state, not a failure.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, sumA, sumB float64

	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		sumA += av * av
		sumB += bv * bv
	}

	if sumA == 0 || sumB == 0 {
		return 0
	}

	return dot / (math.Sqrt(sumA) * math.Sqrt(sumB))
}

// NormalizeL2 scales vector in-place to unit length. Zero vectors are left unchanged.
func NormalizeL2(vector []float32) {
	var sumSquares float64

	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}

	if sumSquares == 0 {
		return
	}

	magnitude := math.Sqrt(sumSquares)

	for i := range vector {
		vector[i] = float32(float64(vector[i]) / magnitude)
	}
}
