// Package textkey provides deterministic cache keys for embedded text.
package textkey

import (
	"crypto/sha256"
	"encoding/hex"
)

const prefix = "emb:"

// Key returns a stable key for text embedded by the model identified by modelID.
// The same model and text always yield the same key.
func Key(modelID, text string) string {
	h := sha256.New()
	h.Write([]byte(modelID))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return prefix + hex.EncodeToString(h.Sum(nil))
}
