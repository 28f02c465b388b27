// Package dataset reads candidate records (topic + question) from dataset folders.
package dataset

import (
	"regexp"
	"strings"

	"github.com/hyperjump/qsim/internal/models"
)

var (
	topicLine    = regexp.MustCompile(`^Topic:\s*(.*)`)
	questionLine = regexp.MustCompile(`^Question:\s*(.*)`)
)

// ExtractFields finds the first "Topic:" and "Question:" lines in text.
// Lines are trimmed before matching. The first occurrence of each label wins,
// even when its value is empty. Returns false unless both values are non-empty.
func ExtractFields(text string) (models.Fields, bool) {
	var f models.Fields
	var haveTopic, haveQuestion bool
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)
		if !haveTopic {
			if m := topicLine.FindStringSubmatch(line); m != nil {
				f.Topic = strings.TrimSpace(m[1])
				haveTopic = true
			}
		}
		if !haveQuestion {
			if m := questionLine.FindStringSubmatch(line); m != nil {
				f.Question = strings.TrimSpace(m[1])
				haveQuestion = true
			}
		}
		if f.Complete() {
			return f, true
		}
	}
	return f, false
}
