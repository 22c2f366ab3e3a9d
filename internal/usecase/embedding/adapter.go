// Package embedding turns text and image references into fixed-length vectors
// and owns the degrade policy: a backend failure never fails the caller, it
// yields zero vectors of the declared length instead.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/vector"
	"github.com/kailas-cloud/threadress/internal/metrics"
)

// Modality labels for logs and metrics.
const (
	ModalityText  = "text"
	ModalityImage = "image"
)

// Batch is the adapter output. Vectors and Degraded always match the input
// length. Err is set (wrapping domain.ErrBackendDegraded) only when the whole
// batch failed.
type Batch struct {
	Vectors  [][]float32
	Degraded []bool
	Err      error
}

// DegradedCount returns how many items fell back to a zero vector.
func (b Batch) DegradedCount() int {
	n := 0
	for _, d := range b.Degraded {
		if d {
			n++
		}
	}
	return n
}

// Options configures the adapter.
type Options struct {
	TextDim      int
	ImageDim     int
	TextTimeout  time.Duration
	ImageTimeout time.Duration
}

// Adapter wraps one text and one image backend.
type Adapter struct {
	text   domain.Embedder
	image  domain.ImageEmbedder
	opts   Options
	logger *zap.Logger
}

// NewAdapter creates an embedding adapter. image may be nil, in which case
// every image embedding degrades.
func NewAdapter(text domain.Embedder, image domain.ImageEmbedder, opts Options, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{text: text, image: image, opts: opts, logger: logger}
}

// TextDim is the declared text dimensionality.
func (a *Adapter) TextDim() int { return a.opts.TextDim }

// ImageDim is the declared image dimensionality.
func (a *Adapter) ImageDim() int { return a.opts.ImageDim }

// EmbedTextBatch embeds texts in one backend call. Order and length are preserved.
// When the backend rejects the batch content, items are retried one by one.
func (a *Adapter) EmbedTextBatch(ctx context.Context, texts []string) Batch {
	if len(texts) == 0 {
		return Batch{}
	}
	if a.text == nil {
		return a.degradeAll(ctx, ModalityText, len(texts), a.opts.TextDim, fmt.Errorf("no text backend configured"))
	}

	ctx, cancel := withTimeout(ctx, a.opts.TextTimeout)
	defer cancel()

	var (
		res domain.BatchEmbeddingResult
		err error
	)
	if be, ok := a.text.(domain.BatchEmbedder); ok {
		res, err = be.BatchEmbed(ctx, texts)
		if err != nil && len(texts) > 1 && domain.RejectsInput(err) {
			a.logRetry(ModalityText, len(texts), err)
			res, err = domain.BatchFallback(ctx, a.text, texts)
		}
	} else {
		res, err = domain.BatchFallback(ctx, a.text, texts)
	}
	return a.collect(ctx, ModalityText, len(texts), a.opts.TextDim, res, err)
}

// EmbedImageBatch embeds image refs in one backend call. Order and length are preserved.
func (a *Adapter) EmbedImageBatch(ctx context.Context, refs []string) Batch {
	if len(refs) == 0 {
		return Batch{}
	}
	if a.image == nil {
		return a.degradeAll(ctx, ModalityImage, len(refs), a.opts.ImageDim, fmt.Errorf("no image backend configured"))
	}

	ctx, cancel := withTimeout(ctx, a.opts.ImageTimeout)
	defer cancel()

	var (
		res domain.BatchEmbeddingResult
		err error
	)
	if be, ok := a.image.(domain.BatchImageEmbedder); ok {
		res, err = be.BatchEmbedImages(ctx, refs)
		if err != nil && len(refs) > 1 && domain.RejectsInput(err) {
			a.logRetry(ModalityImage, len(refs), err)
			res, err = domain.ImageBatchFallback(ctx, a.image, refs)
		}
	} else {
		res, err = domain.ImageBatchFallback(ctx, a.image, refs)
	}
	return a.collect(ctx, ModalityImage, len(refs), a.opts.ImageDim, res, err)
}

// EmbedTextSingle is a batch of one. degraded reports a zero-vector fallback.
func (a *Adapter) EmbedTextSingle(ctx context.Context, text string) (vec []float32, degraded bool) {
	b := a.EmbedTextBatch(ctx, []string{text})
	return b.Vectors[0], b.Degraded[0]
}

// EmbedImageSingle is a batch of one. degraded reports a zero-vector fallback.
func (a *Adapter) EmbedImageSingle(ctx context.Context, ref string) (vec []float32, degraded bool) {
	b := a.EmbedImageBatch(ctx, []string{ref})
	return b.Vectors[0], b.Degraded[0]
}

// collect applies the degrade policy to a backend reply.
func (a *Adapter) collect(
	ctx context.Context, modality string, n, dim int, res domain.BatchEmbeddingResult, err error,
) Batch {
	if err != nil {
		return a.degradeAll(ctx, modality, n, dim, err)
	}
	if len(res.Embeddings) != n {
		return a.degradeAll(ctx, modality, n, dim,
			fmt.Errorf("backend returned %d vectors for %d inputs", len(res.Embeddings), n))
	}

	out := Batch{Vectors: make([][]float32, n), Degraded: make([]bool, n)}
	for i, v := range res.Embeddings {
		if v == nil || (dim > 0 && len(v) != dim) {
			out.Vectors[i] = vector.Zero(dim)
			out.Degraded[i] = true
			continue
		}
		out.Vectors[i] = v
	}

	if d := out.DegradedCount(); d > 0 {
		metrics.EmbeddingDegradedTotal.WithLabelValues(modality).Add(float64(d))
		a.logger.Warn("Embedding items degraded to zero vectors",
			zap.String("modality", modality),
			zap.Int("degraded", d),
			zap.Int("batch_size", n),
		)
	}
	return out
}

func (a *Adapter) degradeAll(ctx context.Context, modality string, n, dim int, cause error) Batch {
	out := Batch{
		Vectors:  make([][]float32, n),
		Degraded: make([]bool, n),
		Err:      fmt.Errorf("%s embedding: %w: %w", modality, domain.ErrBackendDegraded, cause),
	}
	for i := range out.Vectors {
		out.Vectors[i] = vector.Zero(dim)
		out.Degraded[i] = true
	}

	metrics.EmbeddingDegradedTotal.WithLabelValues(modality).Add(float64(n))
	a.logger.Warn("Embedding backend degraded",
		zap.String("modality", modality),
		zap.Int("batch_size", n),
		zap.Bool("timeout", ctx.Err() != nil),
		zap.Error(cause),
	)
	return out
}

// logRetry: бэкенд отверг содержимое батча, повторяем по одному, чтобы деградировал только виновный.
func (a *Adapter) logRetry(modality string, n int, cause error) {
	a.logger.Info("Embedding batch rejected, retrying per item",
		zap.String("modality", modality),
		zap.Int("batch_size", n),
		zap.Error(cause),
	)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
