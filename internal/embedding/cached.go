package embedding

import (
	"context"

	"github.com/hyperjump/qsim/internal/textkey"
	"go.uber.org/zap"
)

// Store persists embeddings across runs.
type Store interface {
	GetEmbedding(ctx context.Context, key string) ([]float32, bool, error)
	PutEmbedding(ctx context.Context, key, model string, vec []float32) error
}

// CachedEmbedder wraps an Embedder with an in-memory LRU and an optional persistent Store.
// Failed embeddings are never cached. Store errors are logged and treated as misses.
type CachedEmbedder struct {
	inner  Embedder
	cache  *EmbeddingCache
	store  Store
	logger *zap.Logger
}

// CacheOption configures a CachedEmbedder.
type CacheOption func(*CachedEmbedder)

// WithStore adds a persistent store behind the in-memory cache.
func WithStore(s Store) CacheOption {
	return func(c *CachedEmbedder) { c.store = s }
}

// WithLogger sets a logger for store failures.
func WithLogger(l *zap.Logger) CacheOption {
	return func(c *CachedEmbedder) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCachedEmbedder wraps inner with an LRU of the given capacity.
func NewCachedEmbedder(inner Embedder, capacity int, opts ...CacheOption) *CachedEmbedder {
	c := &CachedEmbedder{
		inner:  inner,
		cache:  NewEmbeddingCache(capacity),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Embed returns the embedding for text from memory, the store, or the wrapped embedder, in that order.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := textkey.Key(c.inner.ModelID(), text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}
	if c.store != nil {
		vec, ok, err := c.store.GetEmbedding(ctx, key)
		if err != nil {
			c.logger.Warn("embedding store read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			c.cache.Set(key, vec)
			return vec, nil
		}
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, vec)
	if c.store != nil {
		if err := c.store.PutEmbedding(ctx, key, c.inner.ModelID(), vec); err != nil {
			c.logger.Warn("embedding store write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return vec, nil
}

// EmbedBatch calls Embed for each text.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, texts, c.Embed)
}

// Dimensions returns the wrapped embedder's dimension.
func (c *CachedEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// ModelID returns the wrapped embedder's model identifier.
func (c *CachedEmbedder) ModelID() string {
	return c.inner.ModelID()
}

// Close closes the wrapped embedder. The store is owned by the caller.
func (c *CachedEmbedder) Close() error {
	return c.inner.Close()
}
