// Package scan runs a full ranking pass: embed the query, stream dataset
// records through the ranking pipeline and assemble a report.
package scan

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/qsim/internal/config"
	"github.com/hyperjump/qsim/internal/embedding"
	"github.com/hyperjump/qsim/internal/models"
	"github.com/hyperjump/qsim/internal/ranking"
	"go.uber.org/zap"
)

// RecordSource yields candidate records. Each call to Records starts a fresh pass.
type RecordSource interface {
	Records(ctx context.Context) iter.Seq[models.Record]
}

// Engine ranks dataset records against queries.
type Engine struct {
	source   RecordSource
	embedder embedding.Embedder
	config   *config.Config
	keyFunc  ranking.KeyFunc
	logger   *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for run summaries and skipped records.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine. cfg must have been validated (see config.Validate).
func NewEngine(source RecordSource, embedder embedding.Embedder, cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	keyFunc, err := ranking.ParseKeyFunc(cfg.Ranking.DedupKey)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		source:   source,
		embedder: embedder,
		config:   cfg,
		keyFunc:  keyFunc,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run ranks all records against query. topK of zero uses the configured default;
// a negative value keeps every scored record. Failing to embed the query is an error;
// failing to embed a record only skips that record.
func (e *Engine) Run(ctx context.Context, query string, topK int) (*models.Report, error) {
	start := time.Now()
	q := models.RankQuery{Query: query, TopK: topK}
	if err := q.Validate(e.config.Ranking.TopK); err != nil {
		return nil, err
	}

	queryVec, err := e.embedder.Embed(ctx, q.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	pipeline := ranking.NewPipeline(e.embedder,
		ranking.WithTopK(q.TopK),
		ranking.WithKeyFunc(e.keyFunc),
		ranking.WithConcurrency(e.config.Ranking.Concurrency),
		ranking.WithLogger(e.logger),
	)
	result, err := pipeline.Run(ctx, queryVec, e.source.Records(ctx))
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		RunID:           uuid.New().String(),
		Query:           q.Query,
		TopK:            q.TopK,
		Items:           result.Items,
		Duplicates:      result.Duplicates,
		DuplicateGroups: result.DuplicateGroups,
		Processed:       result.Processed,
		Skipped:         result.Skipped,
		QueryTime:       time.Since(start).Milliseconds(),
	}
	if n := e.config.Report.VectorPreview; n > 0 {
		report.QueryVector = slices.Clone(queryVec[:min(n, len(queryVec))])
	}
	e.logger.Info("ranking run finished",
		zap.String("run_id", report.RunID),
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("duplicates", report.TotalDuplicates()),
		zap.Int64("query_time_ms", report.QueryTime))
	return report, nil
}
