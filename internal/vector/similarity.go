// Package vector provides similarity helpers for embedding vectors.
package vector

import "math"

// CosineSimilarity returns the cosine similarity of a and b in [-1, 1].
//
// Vectors of different lengths are compared position by position up to the
// shorter length; trailing elements of the longer vector only contribute to
// its magnitude. If either magnitude is zero (including empty vectors) the
// result is 0.
func CosineSimilarity(a, b []float32) float64 {
	magA := L2Norm(a)
	magB := L2Norm(b)
	if magA == 0 || magB == 0 {
		return 0
	}
	return InnerProduct(a, b) / (magA * magB)
}

// InnerProduct returns the dot product of a and b over their common length.
func InnerProduct(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
