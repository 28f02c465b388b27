// Package ranking scores records against a query vector, keeps the top-K by
// cosine similarity, and flags records whose duplicate key was already seen.
package ranking

import (
	"context"
	"iter"

	"github.com/hyperjump/qsim/internal/models"
	"github.com/hyperjump/qsim/internal/vector"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultTopK is used when no WithTopK option is given.
const DefaultTopK = 10

// Embedder turns text into a vector. It may fail for individual inputs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Pipeline ranks records against a query and tracks duplicates.
// A Pipeline holds no per-run state and may be reused.
type Pipeline struct {
	embedder    Embedder
	topK        int
	keyFunc     KeyFunc
	concurrency int
	logger      *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTopK sets how many ranked items are returned. Zero or less returns all.
func WithTopK(k int) Option {
	return func(p *Pipeline) { p.topK = k }
}

// WithKeyFunc sets the duplicate key builder.
func WithKeyFunc(fn KeyFunc) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.keyFunc = fn
		}
	}
}

// WithConcurrency sets how many embedding calls may run at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) { p.concurrency = n }
}

// WithLogger sets a logger for skipped records.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline creates a pipeline embedding records with embedder.
// embedder may be nil when every record carries a precomputed Vector.
func NewPipeline(embedder Embedder, opts ...Option) *Pipeline {
	p := &Pipeline{
		embedder:    embedder,
		topK:        DefaultTopK,
		keyFunc:     KeyTopicQuestion,
		concurrency: 1,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is the outcome of one Run.
type Result struct {
	Items []models.ScoredItem
	// Duplicates maps group to records flagged in that group, in input order.
	Duplicates map[string][]models.Duplicate
	// DuplicateGroups lists Duplicates keys in first-flagged order.
	DuplicateGroups []string
	Processed       int
	Skipped         int
}

func (r *Result) addDuplicate(rec models.Record) {
	if _, ok := r.Duplicates[rec.Group]; !ok {
		r.DuplicateGroups = append(r.DuplicateGroups, rec.Group)
	}
	r.Duplicates[rec.Group] = append(r.Duplicates[rec.Group], models.Duplicate{
		ID:       rec.ID,
		Group:    rec.Group,
		Topic:    rec.Topic,
		Question: rec.Question,
	})
}

// run is the state of a single Run call.
type run struct {
	p      *Pipeline
	query  []float32
	seen   *SeenKeys
	scored []models.ScoredItem
	result *Result
}

// accept applies the skip policy, duplicate tracking and scoring to one record
// whose embedding has been resolved.
func (r *run) accept(rec models.Record, vec []float32, err error) {
	if err != nil {
		r.result.Skipped++
		r.p.logger.Warn("skipping record: embedding failed",
			zap.String("group", rec.Group),
			zap.String("id", rec.ID),
			zap.Error(err))
		return
	}
	if !r.seen.Add(r.p.keyFunc(rec)) {
		r.result.addDuplicate(rec)
	}
	r.scored = append(r.scored, models.ScoredItem{
		ID:    rec.ID,
		Text:  rec.Question,
		Score: vector.CosineSimilarity(r.query, vec),
		Group: rec.Group,
		Label: rec.Topic,
	})
}

// Run consumes records once, in order. Records missing a topic or question
// are ignored. A record whose embedding fails is skipped and does not take
// part in duplicate tracking. The query vector is never modified.
//
// Run returns an error only when ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, query []float32, records iter.Seq[models.Record]) (*Result, error) {
	r := &run{
		p:      p,
		query:  query,
		seen:   NewSeenKeys(),
		result: &Result{Duplicates: make(map[string][]models.Duplicate)},
	}
	if p.concurrency > 1 {
		if err := p.runParallel(ctx, r, records); err != nil {
			return nil, err
		}
	} else {
		for rec := range records {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !rec.Fields().Complete() {
				continue
			}
			vec, err := p.vectorFor(ctx, rec)
			r.accept(rec, vec, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.result.Processed = len(r.scored)
	r.result.Items = Rank(r.scored, p.topK)
	return r.result, nil
}

// runParallel embeds all records concurrently, then replays them in
// submission order so the outcome matches a sequential run.
func (p *Pipeline) runParallel(ctx context.Context, r *run, records iter.Seq[models.Record]) error {
	var batch []models.Record
	for rec := range records {
		if rec.Fields().Complete() {
			batch = append(batch, rec)
		}
	}
	vecs := make([][]float32, len(batch))
	errs := make([]error, len(batch))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i := range batch {
		g.Go(func() error {
			vecs[i], errs[i] = p.vectorFor(ctx, batch[i])
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	for i, rec := range batch {
		r.accept(rec, vecs[i], errs[i])
	}
	return nil
}

func (p *Pipeline) vectorFor(ctx context.Context, rec models.Record) ([]float32, error) {
	if rec.Vector != nil {
		return rec.Vector, nil
	}
	if p.embedder == nil {
		return nil, errNoEmbedder
	}
	return p.embedder.Embed(ctx, rec.Question)
}
