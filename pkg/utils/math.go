package utils

import "math"

// NormalizeL2 normalizes the slice in place to unit L2 norm.
// If the norm is zero, the slice is unchanged.
func NormalizeL2(x []float32) {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := 1.0 / math.Sqrt(sum)
	for i := range x {
		x[i] = float32(float64(x[i]) * norm)
	}
}

// MeanPool averages the rows of a [seq, dim] matrix stored row-major in hidden,
// counting only rows whose mask entry is non-zero. Returns a zero vector when
// the mask selects no rows.
func MeanPool(hidden []float32, mask []int64, dim int) []float32 {
	out := make([]float32, dim)
	if dim <= 0 {
		return out
	}
	var count float32
	for row := 0; row < len(mask) && (row+1)*dim <= len(hidden); row++ {
		if mask[row] == 0 {
			continue
		}
		base := row * dim
		for j := 0; j < dim; j++ {
			out[j] += hidden[base+j]
		}
		count++
	}
	if count == 0 {
		return out
	}
	for j := range out {
		out[j] /= count
	}
	return out
}
