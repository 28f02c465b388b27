package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extractor reads dataset files into plain text.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
// .odt and .rtf are read by path; other formats are decoded from the file bytes.
// Spreadsheets are not handled here (see Scanner).
func (e *Extractor) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".odt" || ext == ".rtf" {
		return extractOffice(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on ext (with leading dot).
// Unknown extensions are treated as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	default:
		return extractPlain(content)
	}
}

func isSpreadsheet(ext string) bool {
	return ext == ".xlsx"
}
