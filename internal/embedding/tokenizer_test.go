package embedding

import (
	"path/filepath"
	"testing"
)

func TestSimpleTokenizer_Tokenize(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, types, err := tok.Tokenize("hello world", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 10 || len(attn) != 10 || len(types) != 10 {
		t.Fatalf("lengths: ids=%d attn=%d types=%d", len(ids), len(attn), len(types))
	}
	if ids[0] != clsTokenID {
		t.Errorf("expected CLS %d, got %d", clsTokenID, ids[0])
	}
	if ids[3] != sepTokenID {
		t.Errorf("expected SEP at 3, got %d", ids[3])
	}
	for i, want := range []int64{1, 1, 1, 1, 0, 0} {
		if attn[i] != want {
			t.Errorf("attention[%d] = %d, want %d", i, attn[i], want)
		}
	}
}

func TestSimpleTokenizer_truncates(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, _, _ := tok.Tokenize("a b c d e f g h", 5)
	if ids[4] != sepTokenID {
		t.Errorf("last token should be SEP, got %d", ids[4])
	}
	for i := range attn {
		if attn[i] != 1 {
			t.Errorf("attention[%d] = %d, want 1", i, attn[i])
		}
	}
}

func TestSplitWords(t *testing.T) {
	words := SplitWords("  a  b \n c  ")
	if len(words) != 3 {
		t.Errorf("expected 3 words, got %v", words)
	}
	if len(SplitWords("")) != 0 {
		t.Error("empty string should return no words")
	}
}

func TestHashString(t *testing.T) {
	h := HashString("abc")
	if h == 0 {
		t.Error("hash should be non-zero")
	}
	if HashString("abc") != HashString("abc") {
		t.Error("hash should be deterministic")
	}
	if HashString("a much longer string that overflows the accumulator many times") < 0 {
		t.Error("hash should be non-negative")
	}
}

func TestPadIDs(t *testing.T) {
	got := padIDs([]int{101, 7, 102}, 5)
	want := []int64{101, 7, 102, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("padIDs = %v, want %v", got, want)
		}
	}
	got = padIDs([]int{101, 1, 2, 3, 102}, 3)
	want = []int64{101, 1, 102}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("truncated padIDs = %v, want %v", got, want)
		}
	}
}

func TestNewHFTokenizer_missingFile(t *testing.T) {
	if _, err := NewHFTokenizer(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing tokenizer file")
	}
}
