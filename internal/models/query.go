package models

import (
	"fmt"
	"strings"
)

// MaxTopK bounds the number of ranked items a single query may request.
const MaxTopK = 1000

// RankQuery represents a ranking request.
type RankQuery struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// AllResults is the TopK value that keeps every scored record.
const AllResults = -1

// Validate ensures the query is non-empty and normalizes TopK.
// A TopK of zero is replaced by defaultTopK, any negative TopK becomes
// AllResults, and values above MaxTopK are clamped.
func (q *RankQuery) Validate(defaultTopK int) error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	switch {
	case q.TopK < 0:
		q.TopK = AllResults
		return nil
	case q.TopK == 0:
		q.TopK = defaultTopK
	}
	if q.TopK > MaxTopK {
		q.TopK = MaxTopK
	}
	return nil
}
