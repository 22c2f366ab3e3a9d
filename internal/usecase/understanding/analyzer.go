// Package understanding turns a raw shopper query into an enhanced query, a
// detected style context and the text, image and context vectors used for
// retrieval. It never touches the vector index.
package understanding

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/threadress/internal/domain/vector"
)

// Embedder is the slice of the embedding adapter the analyzer needs.
// Implementations never fail: a backend problem yields a zero vector.
type Embedder interface {
	EmbedTextSingle(ctx context.Context, text string) (vec []float32, degraded bool)
	EmbedImageSingle(ctx context.Context, ref string) (vec []float32, degraded bool)
	TextDim() int
	ImageDim() int
}

// Analysis is the output of Analyze.
type Analysis struct {
	Query          string
	EnhancedQuery  string
	StyleContext   StyleContext
	VisualAnalysis *VisualAnalysis // nil without an image
	TextVector     []float32
	ImageVector    []float32
	ContextVector  []float32
	Degraded       []string // modalities that fell back to zero vectors
}

// Analyzer is stateless apart from its embedder and safe for concurrent use.
type Analyzer struct {
	embed  Embedder
	logger *zap.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(embed Embedder, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{embed: embed, logger: logger}
}

// Analyze enhances the query and embeds text, image and context concurrently.
// The only error is cancellation of ctx.
func (a *Analyzer) Analyze(ctx context.Context, query, imageRef string) (Analysis, error) {
	query = strings.TrimSpace(query)
	imageRef = strings.TrimSpace(imageRef)

	corrected := CorrectTypos(query)
	sc := ExtractStyle(corrected)
	words := sc.Words()

	enhanced := corrected
	if len(words) > 0 && corrected != "" {
		enhanced = corrected + " " + strings.Join(words, " ")
	}

	out := Analysis{
		Query:         query,
		EnhancedQuery: enhanced,
		StyleContext:  sc,
		TextVector:    vector.Zero(a.embed.TextDim()),
		ImageVector:   vector.Zero(a.embed.ImageDim()),
		ContextVector: vector.Zero(a.embed.TextDim()),
	}
	if imageRef != "" {
		va := AnalyzeVisual(enhanced, imageRef, sc)
		out.VisualAnalysis = &va
	}

	var textDeg, imageDeg, ctxDeg bool
	g, gctx := errgroup.WithContext(ctx)
	if enhanced != "" {
		g.Go(func() error {
			out.TextVector, textDeg = a.embed.EmbedTextSingle(gctx, enhanced)
			return nil
		})
	}
	if imageRef != "" {
		g.Go(func() error {
			out.ImageVector, imageDeg = a.embed.EmbedImageSingle(gctx, imageRef)
			return nil
		})
	}
	if len(words) > 0 {
		g.Go(func() error {
			out.ContextVector, ctxDeg = a.embed.EmbedTextSingle(gctx, strings.Join(words, " "))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Analysis{}, fmt.Errorf("analyze query: %w", err)
	}

	if textDeg {
		out.Degraded = append(out.Degraded, "text")
	}
	if imageDeg {
		out.Degraded = append(out.Degraded, "image")
	}
	if ctxDeg {
		out.Degraded = append(out.Degraded, "context")
	}
	if len(out.Degraded) > 0 {
		a.logger.Debug("Query analysis degraded",
			zap.String("enhanced_query", enhanced),
			zap.Strings("degraded", out.Degraded),
		)
	}
	return out, nil
}
