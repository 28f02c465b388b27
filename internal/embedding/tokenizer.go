package embedding

import "strings"

// BERT special token IDs used by SimpleTokenizer.
const (
	clsTokenID = 101
	sepTokenID = 102
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
// All three slices have length maxTokens, zero-padded.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64, err error)
}

// SimpleTokenizer is a word-split tokenizer with hash-based token IDs (for testing or fallback).
type SimpleTokenizer struct{}

// Tokenize splits text into words and produces padded token IDs up to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64, err error) {
	words := SplitWords(text)
	if maxTokens <= 2 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = clsTokenID
	attentionMask[0] = 1

	pos := 1
	for _, word := range words {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = int64(HashString(strings.ToLower(word))%30000) + 1000
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = sepTokenID
	attentionMask[pos] = 1
	return inputIDs, attentionMask, tokenTypeIDs, nil
}

// SplitWords splits text on whitespace and returns non-empty words.
func SplitWords(text string) []string {
	return strings.Fields(text)
}

// HashString returns a deterministic non-negative hash for use as a simple token ID.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	if h < 0 { // math.MinInt
		h = 0
	}
	return h
}

// padIDs copies ids into a zero-padded int64 slice of length maxTokens. When ids
// is longer, it keeps the first maxTokens-1 ids and the final id so a trailing
// separator token survives truncation.
func padIDs(ids []int, maxTokens int) []int64 {
	out := make([]int64, maxTokens)
	if len(ids) <= maxTokens {
		for i, id := range ids {
			out[i] = int64(id)
		}
		return out
	}
	for i := 0; i < maxTokens-1; i++ {
		out[i] = int64(ids[i])
	}
	out[maxTokens-1] = int64(ids[len(ids)-1])
	return out
}
