package models

// ScoredItem is one record scored against the query vector.
type ScoredItem struct {
	Rank  int     `json:"rank"`
	ID    string  `json:"id"`
	Text  string  `json:"text"`  // display text (the question)
	Score float64 `json:"score"` // cosine similarity in [-1, 1]
	Group string  `json:"group"`
	Label string  `json:"label"` // auxiliary label (the topic)
}

// Duplicate is a record whose duplicate key had already been seen earlier in the run.
type Duplicate struct {
	ID       string `json:"id"`
	Group    string `json:"group"`
	Topic    string `json:"topic"`
	Question string `json:"question"`
}

// Report is the outcome of one ranking run.
type Report struct {
	RunID string       `json:"run_id"`
	Query string       `json:"query"`
	TopK  int          `json:"top_k"`
	Items []ScoredItem `json:"items"`
	// Duplicates maps group label to the duplicates found in it. Not truncated.
	Duplicates map[string][]Duplicate `json:"duplicates"`
	// DuplicateGroups lists the keys of Duplicates in the order they were first flagged.
	DuplicateGroups []string `json:"duplicate_groups"`
	Processed       int      `json:"processed"` // records scored
	Skipped         int      `json:"skipped"`   // records dropped because embedding failed
	QueryTime       int64    `json:"query_time_ms"`
	// QueryVector is a preview of the query embedding, populated only on request.
	QueryVector []float32 `json:"query_vector,omitempty"`
}

// TotalDuplicates returns the number of duplicates across all groups.
func (r *Report) TotalDuplicates() int {
	n := 0
	for _, d := range r.Duplicates {
		n += len(d)
	}
	return n
}
