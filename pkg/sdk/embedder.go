package threadress

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/threadress/internal/domain"
)

// Embedder converts text to vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// ImageEmbedder converts an absolute image URL to a vector.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, imageURL string) (EmbeddingResult, error)
}

// HealthChecker is optional: embedders that implement it are included in
// Client.Health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// textAdapter wraps a public Embedder to satisfy domain.Embedder.
type textAdapter struct {
	inner Embedder
}

func (a *textAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// imageAdapter wraps a public ImageEmbedder to satisfy domain.ImageEmbedder.
type imageAdapter struct {
	inner ImageEmbedder
}

func (a *imageAdapter) EmbedImage(ctx context.Context, imageURL string) (domain.EmbeddingResult, error) {
	r, err := a.inner.EmbedImage(ctx, imageURL)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed image: %w", err)
	}
	return domain.EmbeddingResult{Embedding: r.Embedding, TotalTokens: r.TotalTokens}, nil
}

// healthOf returns v as a health checker, or nil.
func healthOf(v any) domain.HealthChecker {
	if hc, ok := v.(HealthChecker); ok {
		return hc
	}
	return nil
}
