// Package search runs the query pipeline: understanding, fusion, retrieval and
// re-ranking, either once or fanned out over query rewrites.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/catalog"
	"github.com/kailas-cloud/threadress/internal/domain/hit"
	"github.com/kailas-cloud/threadress/internal/domain/vector"
	"github.com/kailas-cloud/threadress/internal/logger"
	"github.com/kailas-cloud/threadress/internal/metrics"
	"github.com/kailas-cloud/threadress/internal/usecase/rerank"
	"github.com/kailas-cloud/threadress/internal/usecase/understanding"
)

// Search modes, used as the metrics label.
const (
	ModeSingle = "single"
	ModeMulti  = "multi"
)

// Query is one shopper request. Space defaults to combined.
type Query struct {
	Text     string
	ImageRef string
	K        int
	Space    domain.Space
}

// Result is the ranked hit list plus what the pipeline understood.
// Explainability fields are empty for a short-circuited query.
type Result struct {
	Hits           []hit.Scored
	EnhancedQuery  string
	StyleContext   *understanding.StyleContext
	VisualAnalysis *understanding.VisualAnalysis
	Rewrites       []string
}

// FusionWeights blend the query vectors into the combined space.
type FusionWeights struct {
	Text    float64
	Image   float64
	Context float64
}

// Options tunes the pipeline. Zero values fall back to the defaults.
type Options struct {
	DefaultK    int
	MaxK        int
	Candidates  int // retrieval limit before re-ranking
	CombinedDim int // zero means the longest query vector
	Fusion      FusionWeights
	Rerank      rerank.Weights
	MaxRewrites int
}

func (o *Options) applyDefaults() {
	if o.DefaultK <= 0 {
		o.DefaultK = 20
	}
	if o.MaxK <= 0 {
		o.MaxK = 100
	}
	if o.Candidates <= 0 {
		o.Candidates = o.MaxK
	}
	if o.Fusion == (FusionWeights{}) {
		o.Fusion = FusionWeights{Text: 0.6, Image: 0.4, Context: 0.2}
	}
	if o.Rerank == (rerank.Weights{}) {
		o.Rerank = rerank.DefaultWeights()
	}
	if o.MaxRewrites <= 0 {
		o.MaxRewrites = rerank.DefaultMaxRewrites
	}
}

// Service is the search pipeline.
type Service struct {
	analyzer  Analyzer
	retriever Retriever
	enhancer  Enhancer
	opts      Options
	logger    *zap.Logger
}

// New creates a search service.
func New(analyzer Analyzer, retriever Retriever, enhancer Enhancer, opts Options, logger *zap.Logger) *Service {
	opts.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{analyzer: analyzer, retriever: retriever, enhancer: enhancer, opts: opts, logger: logger}
}

// Search runs the pipeline once.
func (s *Service) Search(ctx context.Context, q Query) (res Result, err error) {
	start := time.Now()
	defer func() { s.observe(ModeSingle, start, len(res.Hits), err) }()

	q, err = s.normalize(q)
	if err != nil {
		return Result{}, err
	}
	if q.Text == "" && q.ImageRef == "" {
		return Result{Hits: []hit.Scored{}}, nil
	}

	hits, a, err := s.run(ctx, q, q.Text)
	if err != nil {
		return Result{}, err
	}
	return explain(hits, a), nil
}

// MultiQuerySearch runs the pipeline per synonym rewrite of the text
// concurrently and keeps, per item, the best final score across rewrites.
func (s *Service) MultiQuerySearch(ctx context.Context, q Query) (res Result, err error) {
	start := time.Now()
	defer func() { s.observe(ModeMulti, start, len(res.Hits), err) }()

	q, err = s.normalize(q)
	if err != nil {
		return Result{}, err
	}
	if q.Text == "" && q.ImageRef == "" {
		return Result{Hits: []hit.Scored{}}, nil
	}

	rewrites := rerank.Rewrites(q.Text, s.opts.MaxRewrites)
	if len(rewrites) == 0 {
		rewrites = []string{""} // image-only
	}

	lists := make([][]hit.Scored, len(rewrites))
	analyses := make([]understanding.Analysis, len(rewrites))

	g, gctx := errgroup.WithContext(ctx)
	for i, text := range rewrites {
		g.Go(func() error {
			hits, a, err := s.run(gctx, q, text)
			if err != nil {
				return fmt.Errorf("rewrite %q: %w", text, err)
			}
			lists[i], analyses[i] = hits, a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	merged := hit.Truncate(hit.MergeMax(lists...), q.K)
	logger.OrContext(ctx, s.logger).Debug("Multi-query merged",
		zap.Strings("rewrites", rewrites),
		zap.Int("hits", len(merged)),
	)

	out := explain(merged, analyses[0])
	if q.Text != "" {
		out.Rewrites = rewrites
	}
	return out, nil
}

// run is one understanding, fusion, retrieval, re-ranking pass for text.
func (s *Service) run(ctx context.Context, q Query, text string) ([]hit.Scored, understanding.Analysis, error) {
	a, err := s.analyzer.Analyze(ctx, text, q.ImageRef)
	if err != nil {
		return nil, understanding.Analysis{}, err
	}

	raws, err := s.retriever.Retrieve(ctx, s.queryVector(a, q.Space), q.Space, s.opts.Candidates)
	if err != nil {
		return nil, understanding.Analysis{}, fmt.Errorf("retrieve: %w", err)
	}

	// lexical signals look at the words as typed, not the context expansion
	return s.enhancer.Enhance(text, q.ImageRef, raws, s.opts.Rerank, q.K), a, nil
}

func (s *Service) queryVector(a understanding.Analysis, space domain.Space) []float32 {
	w := s.opts.Fusion
	switch space {
	case domain.SpaceText:
		return vector.Combine(vector.Of(a.TextVector, w.Text), vector.Of(a.ContextVector, w.Context))
	case domain.SpaceImage:
		return vector.Normalize(a.ImageVector)
	}

	inputs := []vector.Weighted{
		vector.Of(a.TextVector, w.Text),
		vector.Of(a.ImageVector, w.Image),
		vector.Of(a.ContextVector, w.Context),
	}
	if s.opts.CombinedDim > 0 {
		return vector.CombineTo(s.opts.CombinedDim, inputs...)
	}
	return vector.Combine(inputs...)
}

func (s *Service) normalize(q Query) (Query, error) {
	q.Text = strings.TrimSpace(q.Text)
	q.ImageRef = strings.TrimSpace(q.ImageRef)

	switch {
	case q.K == 0:
		q.K = s.opts.DefaultK
	case q.K < 0 || q.K > s.opts.MaxK:
		return Query{}, domain.NewValidationError("k", fmt.Sprintf("must be between 1 and %d", s.opts.MaxK))
	}
	if q.ImageRef != "" && !catalog.ValidImageURL(q.ImageRef) {
		return Query{}, domain.NewValidationError("imageRef", "must be an absolute http(s) URL")
	}
	if q.Space == "" {
		q.Space = domain.SpaceCombined
	}
	if !q.Space.Valid() {
		return Query{}, domain.NewValidationError("space", fmt.Sprintf("unknown vector space %q", q.Space))
	}
	return q, nil
}

func (s *Service) observe(mode string, start time.Time, hits int, err error) {
	metrics.SearchRequestsTotal.WithLabelValues(mode, metrics.Status(err)).Inc()
	metrics.SearchDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err == nil {
		metrics.SearchHits.Observe(float64(hits))
	}
}

func explain(hits []hit.Scored, a understanding.Analysis) Result {
	sc := a.StyleContext
	return Result{
		Hits:           hits,
		EnhancedQuery:  a.EnhancedQuery,
		StyleContext:   &sc,
		VisualAnalysis: a.VisualAnalysis,
	}
}
