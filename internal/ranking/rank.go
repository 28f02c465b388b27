package ranking

import (
	"math"
	"sort"

	"github.com/hyperjump/qsim/internal/models"
)

// Rank returns a copy of items sorted by descending score and truncated to k.
// Items with equal scores keep their relative input order. A k of zero or less
// keeps every item. NaN scores sort after every real score. Rank fields are
// set 1-based on the returned slice.
func Rank(items []models.ScoredItem, k int) []models.ScoredItem {
	out := make([]models.ScoredItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return scoreBefore(out[i].Score, out[j].Score) })
	if k > 0 && k < len(out) {
		out = out[:k]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// scoreBefore orders scores descending with NaN last, keeping a strict weak
// order for the stable sort.
func scoreBefore(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	return math.IsNaN(b) || a > b
}
