package embedding

import (
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// HFTokenizer wraps a HuggingFace tokenizer.json (WordPiece for MiniLM/BERT models).
type HFTokenizer struct {
	tk *tokenizer.Tokenizer
}

// NewHFTokenizer loads the tokenizer definition at path.
func NewHFTokenizer(path string) (*HFTokenizer, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", path, err)
	}
	return &HFTokenizer{tk: tk}, nil
}

// Tokenize encodes text with special tokens and pads or truncates to maxTokens.
func (h *HFTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64, err error) {
	if maxTokens <= 2 {
		maxTokens = 256
	}
	en, err := h.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode: %w", err)
	}
	inputIDs = padIDs(en.Ids, maxTokens)
	tokenTypeIDs = padIDs(en.TypeIds, maxTokens)
	attentionMask = make([]int64, maxTokens)
	for i := 0; i < len(en.Ids) && i < maxTokens; i++ {
		attentionMask[i] = 1
	}
	return inputIDs, attentionMask, tokenTypeIDs, nil
}
