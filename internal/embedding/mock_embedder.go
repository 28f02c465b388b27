package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/hyperjump/qsim/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests and offline runs. Each
// lower-cased word is hashed into one signed dimension, so texts sharing
// words get a positive cosine similarity and identical texts get 1.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a unit-length bag-of-words embedding. Text without words embeds to the zero vector.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New64a()
		h.Write([]byte(word))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dimensions))
		if sum&(1<<63) != 0 {
			emb[idx] -= 1
		} else {
			emb[idx] += 1
		}
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, texts, e.Embed)
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelID returns an identifier that includes the dimension.
func (e *MockEmbedder) ModelID() string {
	return fmt.Sprintf("mock-%d", e.dimensions)
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
