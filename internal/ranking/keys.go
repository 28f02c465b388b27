package ranking

import (
	"fmt"

	"github.com/hyperjump/qsim/internal/models"
)

// KeyFunc builds the duplicate key of a record.
type KeyFunc func(rec models.Record) string

// Names accepted by ParseKeyFunc.
const (
	KeyNameTopicQuestion = "topic_question"
	KeyNameQuestion      = "question"
)

// KeyTopicQuestion keys a record on its topic and question together.
func KeyTopicQuestion(rec models.Record) string {
	return "Topic: " + rec.Topic + " | Question: " + rec.Question
}

// KeyQuestion keys a record on its question text only.
func KeyQuestion(rec models.Record) string {
	return rec.Question
}

// ParseKeyFunc returns the KeyFunc registered under name. Empty selects KeyTopicQuestion.
func ParseKeyFunc(name string) (KeyFunc, error) {
	switch name {
	case "", KeyNameTopicQuestion:
		return KeyTopicQuestion, nil
	case KeyNameQuestion:
		return KeyQuestion, nil
	default:
		return nil, fmt.Errorf("unknown dedup key %q (use %s or %s)", name, KeyNameTopicQuestion, KeyNameQuestion)
	}
}

// SeenKeys is the set of duplicate keys observed during one run.
type SeenKeys struct {
	keys map[string]struct{}
}

// NewSeenKeys returns an empty set.
func NewSeenKeys() *SeenKeys {
	return &SeenKeys{keys: make(map[string]struct{})}
}

// Add inserts key and reports whether it was new.
func (s *SeenKeys) Add(key string) bool {
	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

// Contains reports whether key has been added.
func (s *SeenKeys) Contains(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Len returns the number of distinct keys.
func (s *SeenKeys) Len() int {
	return len(s.keys)
}
