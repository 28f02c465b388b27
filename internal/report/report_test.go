package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/qsim/internal/models"
)

func sampleReport() *models.Report {
	return &models.Report{
		RunID: "run-1",
		Query: "How to fix common programming errors?",
		TopK:  10,
		Items: []models.ScoredItem{
			{Rank: 1, ID: "q1.txt", Text: "Why does my loop never end?", Score: 0.81234, Group: "python_dataset", Label: "Loops"},
			{Rank: 2, ID: "q7.txt", Text: "What is a NULL join?", Score: 0.5, Group: "sql_dataset", Label: "Joins"},
		},
		Duplicates: map[string][]models.Duplicate{
			"sql_dataset": {{ID: "q9.txt", Group: "sql_dataset", Topic: "Joins", Question: "What is the difference between inner and outer joins?"}},
		},
		DuplicateGroups: []string{"sql_dataset"},
		Processed:       3,
		QueryTime:       12,
	}
}

func TestWrite_text(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleReport(), Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("expected plain output for a non-terminal writer:\n%s", out)
	}
	wantLines := []string{
		"--- 📊 Top Matching Study Questions Across All Datasets ---",
		"Search Query: How to fix common programming errors?",
		"  • Dataset: python_dataset     | File: q1.txt          | Similarity: 0.8123",
		"    Topic: Loops",
		"    Question: Why does my loop never end?",
		"  • Dataset: sql_dataset        | File: q7.txt          | Similarity: 0.5000",
		"Dataset: sql_dataset        | Total Duplicates Found: 1",
		"  Example 1: File: q9.txt | Topic: 'Joins' | Question: 'What is the difference between...'",
		strings.Repeat("-", 70),
	}
	for _, want := range wantLines {
		if !containsLine(out, want) {
			t.Errorf("missing line %q in:\n%s", want, out)
		}
	}
	if strings.Index(out, "q1.txt") > strings.Index(out, "q7.txt") {
		t.Error("ranked items out of order")
	}
	if strings.Contains(out, "Sample Vector") {
		t.Error("vector preview printed without a query vector")
	}
}

func containsLine(out, want string) bool {
	for _, line := range strings.Split(out, "\n") {
		if line == want {
			return true
		}
	}
	return false
}

func TestWrite_textEmpty(t *testing.T) {
	var buf bytes.Buffer
	r := &models.Report{Query: "q", Duplicates: map[string][]models.Duplicate{}}
	if err := Write(&buf, r, Options{Format: FormatText}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !containsLine(out, "No similarity results processed (check file content or folder structure).") {
		t.Errorf("missing empty notice:\n%s", out)
	}
	if strings.Contains(out, "Summary of Duplicate") {
		t.Error("duplicate summary printed with no duplicates")
	}
}

func TestWrite_textDuplicateOverflow(t *testing.T) {
	var dups []models.Duplicate
	for i := 0; i < 8; i++ {
		dups = append(dups, models.Duplicate{ID: "f.txt", Group: "g", Topic: "T", Question: "Q"})
	}
	r := &models.Report{
		Query:           "q",
		Duplicates:      map[string][]models.Duplicate{"g": dups, "h": dups[:1]},
		DuplicateGroups: []string{"h", "g"},
	}
	var buf bytes.Buffer
	if err := Write(&buf, r, Options{MaxDuplicateExamples: 5}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if n := strings.Count(out, "  Example "); n != 6 {
		t.Errorf("got %d example lines, want 6 (1 + 5)", n)
	}
	if !containsLine(out, "  ... 3 more duplicates omitted for brevity.") {
		t.Errorf("missing overflow line:\n%s", out)
	}
	if !containsLine(out, "  Example 1: File: f.txt | Topic: 'T' | Question: 'Q...'") {
		t.Errorf("short question should still end with ellipsis:\n%s", out)
	}
	if strings.Index(out, "Dataset: h ") > strings.Index(out, "Dataset: g ") {
		t.Error("duplicate groups not in first-flagged order")
	}
}

func TestWrite_textVectorPreview(t *testing.T) {
	r := &models.Report{Query: "q", QueryVector: []float32{0.5, -0.25}}
	var buf bytes.Buffer
	if err := Write(&buf, r, Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "first 2 values of query embedding") {
		t.Errorf("missing preview header:\n%s", out)
	}
	if !containsLine(out, "[0.50000000 -0.25000000]") {
		t.Errorf("missing preview values:\n%s", out)
	}
}

func TestWrite_compact(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleReport(), Options{Format: FormatCompact}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %q", len(lines), lines)
	}
	if lines[0] != "1\t0.8123\tpython_dataset/q1.txt\tWhy does my loop never end?" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[2] != "# 1 duplicates" {
		t.Errorf("line 2 = %q", lines[2])
	}
}

func TestWrite_compactLongText(t *testing.T) {
	r := &models.Report{Items: []models.ScoredItem{{
		Rank: 1, ID: "q.txt", Group: "g", Score: 0.5,
		Text: "line one\n" + strings.Repeat("x", 100),
	}}}
	var buf bytes.Buffer
	if err := Write(&buf, r, Options{Format: FormatCompact}); err != nil {
		t.Fatal(err)
	}
	fields := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\t")
	text := fields[len(fields)-1]
	if strings.Contains(text, "\n") {
		t.Errorf("newline kept: %q", text)
	}
	if want := "line one " + strings.Repeat("x", 71) + "..."; text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := sampleReport()
	if err := Write(&buf, r, Options{Format: FormatJSON}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var decoded models.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Query != r.Query || len(decoded.Items) != 2 || decoded.QueryTime != 12 {
		t.Errorf("decoded = %+v", decoded)
	}
	if len(decoded.Duplicates["sql_dataset"]) != 1 {
		t.Errorf("duplicates = %+v", decoded.Duplicates)
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"": FormatText, "TEXT": FormatText, "compact": FormatCompact, " json ": FormatJSON}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWrite_writeError(t *testing.T) {
	if err := Write(failingWriter{}, sampleReport(), Options{}); err == nil {
		t.Error("expected write error")
	}
}
