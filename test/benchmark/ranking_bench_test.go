package benchmark

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/hyperjump/qsim/internal/embedding"
	"github.com/hyperjump/qsim/internal/models"
	"github.com/hyperjump/qsim/internal/ranking"
	"github.com/hyperjump/qsim/internal/vector"
)

func BenchmarkCosineSimilarity384(b *testing.B) {
	x := make([]float32, 384)
	y := make([]float32, 384)
	for i := range x {
		x[i] = float32(i%7) - 3
		y[i] = float32(i%5) - 2
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = vector.CosineSimilarity(x, y)
	}
}

func BenchmarkRank1000(b *testing.B) {
	items := make([]models.ScoredItem, 1000)
	for i := range items {
		items[i] = models.ScoredItem{ID: fmt.Sprint(i), Score: float64((i*7919)%1000) / 1000}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ranking.Rank(items, 10)
	}
}

func benchRecords(n int) []models.Record {
	recs := make([]models.Record, n)
	for i := range recs {
		recs[i] = models.Record{
			ID:       fmt.Sprintf("q%04d.txt", i),
			Group:    "bench",
			Topic:    fmt.Sprintf("topic %d", i%20),
			Question: fmt.Sprintf("how do I fix error number %d in module %d", i, i%50),
		}
	}
	return recs
}

func benchmarkPipeline(b *testing.B, concurrency int) {
	ctx := context.Background()
	embedder := embedding.NewMockEmbedder(384)
	query, _ := embedder.Embed(ctx, "how to fix common programming errors")
	recs := benchRecords(500)
	p := ranking.NewPipeline(embedder, ranking.WithConcurrency(concurrency))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Run(ctx, query, slices.Values(recs)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPipelineRun_Sequential(b *testing.B) { benchmarkPipeline(b, 1) }

func BenchmarkPipelineRun_Parallel(b *testing.B) { benchmarkPipeline(b, 8) }

func BenchmarkMockEmbedder_Embed(b *testing.B) {
	e := embedding.NewMockEmbedder(384)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "benchmark query text for embedding")
	}
}

func BenchmarkCachedEmbedder_Hit(b *testing.B) {
	e := embedding.NewCachedEmbedder(embedding.NewMockEmbedder(384), 1000)
	ctx := context.Background()
	_, _ = e.Embed(ctx, "benchmark query text for embedding")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "benchmark query text for embedding")
	}
}
