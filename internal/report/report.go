// Package report renders ranking reports for terminals, scripts and APIs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hyperjump/qsim/internal/models"
	"github.com/hyperjump/qsim/pkg/utils"
)

// Format is the output format of a report.
type Format string

const (
	// FormatText is the human-readable report (default).
	FormatText Format = "text"
	// FormatCompact prints one line per ranked item.
	FormatCompact Format = "compact"
	// FormatJSON is the full report as indented JSON.
	FormatJSON Format = "json"
)

// ParseFormat maps a flag value to a Format. Empty selects FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatCompact, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text, compact or json)", s)
	}
}

// Options control text rendering.
type Options struct {
	Format Format
	// MaxDuplicateExamples caps example lines per group. Zero means 5.
	MaxDuplicateExamples int
	// QuestionPreview is how many runes of a duplicate's question are shown. Zero means 30.
	QuestionPreview int
}

func (o Options) withDefaults() Options {
	if o.MaxDuplicateExamples <= 0 {
		o.MaxDuplicateExamples = 5
	}
	if o.QuestionPreview <= 0 {
		o.QuestionPreview = 30
	}
	return o
}

const ruleWidth = 70

var rule = strings.Repeat("-", ruleWidth)

// Write renders r to w in opts.Format.
func Write(w io.Writer, r *models.Report, opts Options) error {
	opts = opts.withDefaults()
	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatCompact:
		return writeCompact(w, r)
	default:
		return writeText(w, r, opts)
	}
}

// compactTextWidth caps the question column of compact output, in runes.
const compactTextWidth = 80

func writeCompact(w io.Writer, r *models.Report) error {
	ew := &errWriter{w: w}
	for _, item := range r.Items {
		text := utils.Truncate(strings.Join(strings.Fields(item.Text), " "), compactTextWidth)
		ew.printf("%d\t%.4f\t%s/%s\t%s\n", item.Rank, item.Score, item.Group, item.ID, text)
	}
	if n := r.TotalDuplicates(); n > 0 {
		ew.printf("# %d duplicates\n", n)
	}
	return ew.err
}

func writeText(w io.Writer, r *models.Report, opts Options) error {
	// Renderer bound to w: styled on a terminal, plain text otherwise.
	re := lipgloss.NewRenderer(w)
	heading := re.NewStyle().Bold(true)
	warn := re.NewStyle().Bold(true).Foreground(lipgloss.Color("#E3B341"))
	score := re.NewStyle().Foreground(lipgloss.Color("#9567E3"))

	ew := &errWriter{w: w}
	ew.printf("\n%s\n", heading.Render("--- 📊 Top Matching Study Questions Across All Datasets ---"))
	ew.printf("Search Query: %s\n", r.Query)
	ew.println(rule)

	if len(r.Items) == 0 {
		ew.println("No similarity results processed (check file content or folder structure).")
	}
	for _, item := range r.Items {
		ew.printf("  • Dataset: %-18s | File: %-15s | Similarity: %s\n",
			item.Group, item.ID, score.Render(fmt.Sprintf("%.4f", item.Score)))
		ew.printf("    Topic: %s\n", item.Label)
		ew.printf("    Question: %s\n", item.Text)
		ew.println(rule)
	}

	if len(r.DuplicateGroups) > 0 {
		ew.printf("\n%s\n", warn.Render("--- ⚠️ Summary of Duplicate Question Content (Unique Topic + Question) ⚠️ ---"))
		for _, group := range r.DuplicateGroups {
			dups := r.Duplicates[group]
			ew.printf("Dataset: %-18s | Total Duplicates Found: %d\n", group, len(dups))
			for i, d := range dups {
				if i == opts.MaxDuplicateExamples {
					break
				}
				ew.printf("  Example %d: File: %s | Topic: '%s' | Question: '%s...'\n",
					i+1, d.ID, d.Topic, utils.Prefix(d.Question, opts.QuestionPreview))
			}
			if extra := len(dups) - opts.MaxDuplicateExamples; extra > 0 {
				ew.printf("  ... %d more duplicates omitted for brevity.\n", extra)
			}
		}
		ew.println(rule)
	}

	if len(r.QueryVector) > 0 {
		ew.printf("\n🧠 Sample Vector Representation (first %d values of query embedding):\n", len(r.QueryVector))
		ew.println(formatVector(r.QueryVector))
	}
	return ew.err
}

func formatVector(v []float32) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.8f", x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// errWriter keeps the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *errWriter) println(s string) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintln(e.w, s)
}
