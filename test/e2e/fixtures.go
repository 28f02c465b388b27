package e2e

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// FileExtensions are the single-record formats the E2E corpus is written in, by rotation.
var FileExtensions = []string{".txt", ".md", ".docx"}

// QuestionFile returns the bytes of a file holding one topic and question in the given format.
func QuestionFile(ext, topic, question string) ([]byte, error) {
	text := "Topic: " + topic + "\nQuestion: " + question + "\nAnswer: see notes\n"
	switch ext {
	case ".txt", ".md":
		return []byte(text), nil
	case ".docx":
		return minimalDocx([]string{"Topic: " + topic, "Question: " + question, "Answer: see notes"})
	default:
		return nil, fmt.Errorf("unsupported fixture extension %q", ext)
	}
}

func minimalDocx(paragraphs []string) ([]byte, error) {
	var body bytes.Buffer
	for _, p := range paragraphs {
		body.WriteString(`<w:p w:rsidR="00AB12CD"><w:r><w:t xml:space="preserve">` + p + `</w:t></w:r></w:p>`)
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.Create("word/document.xml")
	if err != nil {
		return nil, err
	}
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body.String() + `</w:body></w:document>`
	if _, err := fw.Write([]byte(doc)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
