// Package e2e provides end-to-end tests over a question bank written to disk in several formats.
package e2e

import "fmt"

// Question is one entry of the E2E question bank.
type Question struct {
	Folder   string
	File     string
	Topic    string
	Question string
}

// QueryTestCase is a query and the record that must rank first for it.
type QueryTestCase struct {
	Query       string
	Expected    string // Folder + "/" + File
	Description string
}

// Corpus holds the question bank plus the duplicates planted in it.
type Corpus struct {
	Questions []Question
	TestCases []QueryTestCase
	// Duplicates maps folder to the files that repeat an earlier topic and question.
	Duplicates map[string][]string
}

// Folders are scanned in this order.
var Folders = []string{"typescript_dataset", "python_dataset", "sql_dataset"}

var bank = map[string][]struct{ topic, question string }{
	"typescript_dataset": {
		{"Types", "what does the unknown type protect against"},
		{"Generics", "how do generic constraints narrow a type parameter"},
		{"Errors", "why does the compiler report property does not exist on type"},
		{"Modules", "how are default exports different from named exports"},
		{"Async", "what happens when an awaited promise rejects"},
	},
	"python_dataset": {
		{"Errors", "how to fix an indentation error in a nested block"},
		{"Iterators", "what makes an object iterable in a for statement"},
		{"Decorators", "how does a decorator wrap the original function"},
		{"Async", "what happens when an awaited promise rejects"},
		{"Packaging", "why does pip install into the wrong interpreter"},
	},
	"sql_dataset": {
		{"Joins", "when does a left join produce null columns"},
		{"Indexes", "why is a covering index faster for this query"},
		{"Errors", "how to fix an indentation error in a nested block"},
		{"Transactions", "what isolation level prevents phantom reads"},
		{"Errors", "how to fix an indentation error in a nested block"},
	},
}

// BuildCorpus returns the question bank. File names are zero-padded so lexical
// order matches bank order.
func BuildCorpus() *Corpus {
	c := &Corpus{Duplicates: make(map[string][]string)}
	seen := make(map[string]bool)
	for _, folder := range Folders {
		for i, q := range bank[folder] {
			entry := Question{
				Folder:   folder,
				File:     fmt.Sprintf("q%02d", i+1),
				Topic:    q.topic,
				Question: q.question,
			}
			c.Questions = append(c.Questions, entry)
			key := q.topic + "|" + q.question
			if seen[key] {
				c.Duplicates[folder] = append(c.Duplicates[folder], entry.File)
				continue
			}
			seen[key] = true
			c.TestCases = append(c.TestCases, QueryTestCase{
				Query:       q.question,
				Expected:    folder + "/" + entry.File,
				Description: folder + " " + q.topic,
			})
		}
	}
	return c
}
