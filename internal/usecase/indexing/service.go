// Package indexing embeds catalog items and writes them to the vector index in
// throttled batches. Failures are counted per item, never returned per batch.
package indexing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/batch"
	"github.com/kailas-cloud/threadress/internal/domain/catalog"
	"github.com/kailas-cloud/threadress/internal/domain/vector"
	"github.com/kailas-cloud/threadress/internal/metrics"
	"github.com/kailas-cloud/threadress/internal/repository/inventory"
	"github.com/kailas-cloud/threadress/internal/usecase/embedding"
)

const (
	DefaultBatchSize  = 48
	DefaultBatchDelay = 100 * time.Millisecond
)

// Weights blend item vectors into the combined space. Context stays zero at
// index time: items have no query context.
type Weights struct {
	Text    float64
	Image   float64
	Context float64
}

// Options tunes the write path.
type Options struct {
	BatchSize   int
	BatchDelay  time.Duration // negative disables throttling
	CombinedDim int
	Weights     Weights
}

// Service is the batch indexing path.
type Service struct {
	embed  Embedder
	index  Index
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// New creates an indexing service.
func New(embed Embedder, index Index, opts Options, logger *zap.Logger) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchDelay == 0 {
		opts.BatchDelay = DefaultBatchDelay
	}
	if opts.Weights == (Weights{}) {
		opts.Weights = Weights{Text: 0.6, Image: 0.4}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{embed: embed, index: index, opts: opts, logger: logger, now: time.Now}
}

// IndexBatch writes items in sequential batches. Items with an invalid ID,
// a zero combined vector, or in a batch whose embedding or upsert failed are
// counted in Report.Errors and processing moves on. The returned error is set
// only when the index could not be prepared or ctx was canceled; the report
// then covers what was done so far.
func (s *Service) IndexBatch(ctx context.Context, items []catalog.Item) (batch.Report, error) {
	report := batch.Report{Total: len(items)}
	if len(items) == 0 {
		return report, nil
	}

	valid := make([]catalog.Item, 0, len(items))
	for _, it := range items {
		id, err := catalog.ParseID(it.ID)
		if err != nil {
			report.Fail(it.ID, 0, err)
			metrics.IndexItemsTotal.WithLabelValues("error").Inc()
			continue
		}
		it.ID = id
		valid = append(valid, it)
	}
	if len(valid) == 0 {
		return report, nil
	}

	if err := s.index.EnsureIndex(ctx); err != nil {
		return report, fmt.Errorf("ensure index: %w", err)
	}

	var limiter *rate.Limiter
	if s.opts.BatchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.opts.BatchDelay), 1)
	}

	for start, n := 0, 1; start < len(valid); start, n = start+s.opts.BatchSize, n+1 {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return report, fmt.Errorf("batch %d: %w", n, err)
			}
		}
		end := min(start+s.opts.BatchSize, len(valid))
		s.indexOne(ctx, n, valid[start:end], &report)
	}

	s.logger.Info("Indexing finished",
		zap.Int("total", report.Total),
		zap.Int("upserted", report.Upserted),
		zap.Int("errors", report.Errors),
	)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// indexOne embeds and upserts one batch.
func (s *Service) indexOne(ctx context.Context, n int, items []catalog.Item, report *batch.Report) {
	start := time.Now()
	defer func() { metrics.IndexBatchDuration.Observe(time.Since(start).Seconds()) }()

	texts := make([]string, len(items))
	refs := make([]string, len(items))
	for i := range items {
		texts[i] = items[i].SearchText()
		refs[i] = primaryImage(&items[i])
	}

	var tb, ib embedding.Batch
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tb = s.embed.EmbedTextBatch(gctx, texts)
		return nil
	})
	g.Go(func() error {
		ib = s.embed.EmbedImageBatch(gctx, refs)
		return nil
	})
	_ = g.Wait()

	if tb.Err != nil || ib.Err != nil {
		s.failAll(n, items, report, fmt.Errorf("%w: embedding: %w", domain.ErrPartialBatchFailure, firstErr(tb.Err, ib.Err)))
		return
	}

	zeroContext := vector.Zero(s.embed.TextDim())
	w := s.opts.Weights
	syncedAt := s.now().UTC()

	points := make([]inventory.Point, 0, len(items))
	for i, it := range items {
		combined := s.combine(
			vector.Of(tb.Vectors[i], w.Text),
			vector.Of(ib.Vectors[i], w.Image),
			vector.Of(zeroContext, w.Context),
		)
		if vector.IsZero(combined) {
			report.Fail(it.ID, n, fmt.Errorf("%w: zero combined vector", domain.ErrPartialBatchFailure))
			metrics.IndexItemsTotal.WithLabelValues("error").Inc()
			continue
		}
		if it.SyncedAt.IsZero() {
			it.SyncedAt = syncedAt
		}
		points = append(points, inventory.Point{
			Item: it,
			Vectors: map[domain.Space][]float32{
				domain.SpaceText:     tb.Vectors[i],
				domain.SpaceImage:    ib.Vectors[i],
				domain.SpaceCombined: combined,
			},
		})
	}
	if len(points) == 0 {
		return
	}

	if err := s.index.Upsert(ctx, points); err != nil {
		written := make([]catalog.Item, len(points))
		for i := range points {
			written[i] = points[i].Item
		}
		s.failAll(n, written, report, fmt.Errorf("%w: upsert: %w", domain.ErrPartialBatchFailure, err))
		return
	}

	report.Upsert(len(points))
	metrics.IndexItemsTotal.WithLabelValues("upserted").Add(float64(len(points)))
	s.logger.Debug("Batch indexed",
		zap.Int("batch", n),
		zap.Int("upserted", len(points)),
		zap.Int("text_degraded", tb.DegradedCount()),
		zap.Int("image_degraded", ib.DegradedCount()),
	)
}

func (s *Service) failAll(n int, items []catalog.Item, report *batch.Report, err error) {
	for _, it := range items {
		report.Fail(it.ID, n, err)
	}
	metrics.IndexItemsTotal.WithLabelValues("error").Add(float64(len(items)))
	s.logger.Error("Indexing batch failed",
		zap.Int("batch", n),
		zap.Int("items", len(items)),
		zap.Error(err),
	)
}

// combine targets CombinedDim, or the longest input when it is unset.
func (s *Service) combine(inputs ...vector.Weighted) []float32 {
	if s.opts.CombinedDim > 0 {
		return vector.CombineTo(s.opts.CombinedDim, inputs...)
	}
	return vector.Combine(inputs...)
}

// primaryImage is the item's own image when valid, else the best display image.
func primaryImage(it *catalog.Item) string {
	if catalog.ValidImageURL(it.ImageURL) {
		return it.ImageURL
	}
	if best := it.BestImageURL(); best != "" {
		return best
	}
	return it.ImageURL
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
