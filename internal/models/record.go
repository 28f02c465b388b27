// Package models defines core data structures for records, queries, and ranking reports.
package models

// Fields are the labelled values extracted from one source record.
type Fields struct {
	Topic    string `json:"topic"`
	Question string `json:"question"`
}

// Complete reports whether both fields are non-empty.
func (f Fields) Complete() bool {
	return f.Topic != "" && f.Question != ""
}

// Record is one candidate produced by a dataset source.
type Record struct {
	ID       string `json:"id"`    // file name, or file#rowN for spreadsheet rows
	Group    string `json:"group"` // dataset folder name
	Topic    string `json:"topic"`
	Question string `json:"question"`
	Path     string `json:"path,omitempty"`
	// Vector is an optional precomputed embedding of Question.
	Vector []float32 `json:"-"`
}

// Fields returns the record's topic and question.
func (r *Record) Fields() Fields {
	return Fields{Topic: r.Topic, Question: r.Question}
}
