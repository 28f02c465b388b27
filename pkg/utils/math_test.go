package utils

import (
	"math"
	"testing"
)

func TestNormalizeL2(t *testing.T) {
	x := []float32{3, 4}
	NormalizeL2(x)
	if math.Abs(float64(x[0])-0.6) > 1e-6 || math.Abs(float64(x[1])-0.8) > 1e-6 {
		t.Errorf("got %v, want [0.6 0.8]", x)
	}

	zero := []float32{0, 0, 0}
	NormalizeL2(zero)
	for _, v := range zero {
		if v != 0 {
			t.Fatalf("zero vector changed: %v", zero)
		}
	}
}

func TestMeanPool(t *testing.T) {
	hidden := []float32{
		1, 2,
		3, 4,
		100, 100, // masked out
	}
	got := MeanPool(hidden, []int64{1, 1, 0}, 2)
	if got[0] != 2 || got[1] != 3 {
		t.Errorf("MeanPool = %v, want [2 3]", got)
	}

	empty := MeanPool(hidden, []int64{0, 0, 0}, 2)
	if empty[0] != 0 || empty[1] != 0 {
		t.Errorf("all-masked MeanPool = %v, want zeros", empty)
	}
}
