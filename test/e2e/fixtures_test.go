package e2e

import (
	"testing"

	"github.com/hyperjump/qsim/internal/dataset"
)

func TestQuestionFile_AllExtensionsExtractable(t *testing.T) {
	e := dataset.NewExtractor()
	for _, ext := range FileExtensions {
		t.Run(ext, func(t *testing.T) {
			content, err := QuestionFile(ext, "Closures", "what does a closure capture")
			if err != nil {
				t.Fatalf("QuestionFile: %v", err)
			}
			text, err := e.ExtractBytes(content, ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			fields, ok := dataset.ExtractFields(text)
			if !ok {
				t.Fatalf("no fields in %q", text)
			}
			if fields.Topic != "Closures" || fields.Question != "what does a closure capture" {
				t.Errorf("fields = %+v", fields)
			}
		})
	}
}

func TestQuestionFile_unsupported(t *testing.T) {
	if _, err := QuestionFile(".pptx", "t", "q"); err == nil {
		t.Error("expected error")
	}
}
