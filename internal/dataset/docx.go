package dataset

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const docxDocumentPath = "word/document.xml"

var (
	// docxParagraph matches one <w:p ...>...</w:p> element, attributes included.
	docxParagraph = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	// docxText matches <w:t>text</w:t> with any attributes.
	docxText = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
)

// extractDOCX returns one line per paragraph of word/document.xml so that
// "Topic:" and "Question:" paragraphs stay on their own lines.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	var docXML []byte
	for _, f := range zr.File {
		if f.Name != docxDocumentPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: open %s: %w", f.Name, err)
		}
		docXML, err = io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: read %s: %w", f.Name, err)
		}
		break
	}
	if docXML == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", docxDocumentPath)
	}

	var b strings.Builder
	for _, para := range docxParagraph.FindAll(docXML, -1) {
		for _, m := range docxText.FindAllSubmatch(para, -1) {
			b.Write(m[1])
		}
		b.WriteByte('\n')
	}
	return unescapeXML(b.String()), nil
}

var xmlEntities = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")

func unescapeXML(s string) string {
	return xmlEntities.Replace(s)
}
