package dataset

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// extractPlain decodes text honoring a UTF-8 or UTF-16 byte order mark,
// replaces invalid UTF-8 with the replacement character and returns NFC text.
func extractPlain(content []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, content)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	s := string(out)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	return norm.NFC.String(s), nil
}
