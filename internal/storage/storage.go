// Package storage persists computed embeddings so repeated runs skip the model.
package storage

import "context"

// Storage defines embedding cache persistence operations.
type Storage interface {
	GetEmbedding(ctx context.Context, key string) ([]float32, bool, error)
	PutEmbedding(ctx context.Context, key, model string, vec []float32) error
	CountEmbeddings(ctx context.Context) (int64, error)
	CountByModel(ctx context.Context) (map[string]int64, error)
	Clear(ctx context.Context) (int64, error)
	Close() error
}
