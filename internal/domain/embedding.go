package domain

import (
	"context"
	"fmt"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single backend call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// ImageEmbedder vectorizes an image given by absolute URL.
// Implementations: CLIP service, URL-keyword heuristic, local hash.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, imageURL string) (EmbeddingResult, error)
}

// BatchImageEmbedder vectorizes multiple image URLs in a single backend call.
type BatchImageEmbedder interface {
	BatchEmbedImages(ctx context.Context, imageURLs []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding backend availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries one vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries vectors in input order plus aggregate usage.
// A nil entry in Embeddings marks a per-item failure reported by the backend.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// BatchFallback вызывает Embed по одному для каждого текста.
// Ошибка одного элемента не роняет батч: на его месте остаётся nil.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	failed := 0
	var lastErr error

	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			failed++
			lastErr = err
			continue
		}
		out.Embeddings[i] = res.Embedding
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}

	if len(texts) > 0 && failed == len(texts) {
		return BatchEmbeddingResult{}, fmt.Errorf("fallback embed: all %d items failed: %w", failed, lastErr)
	}
	return out, nil
}

// ImageBatchFallback is BatchFallback for image backends without a native batch call.
func ImageBatchFallback(ctx context.Context, e ImageEmbedder, urls []string) (BatchEmbeddingResult, error) {
	return BatchFallback(ctx, imageAsText{e}, urls)
}

type imageAsText struct{ inner ImageEmbedder }

func (a imageAsText) Embed(ctx context.Context, url string) (EmbeddingResult, error) {
	res, err := a.inner.EmbedImage(ctx, url)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("embed image: %w", err)
	}
	return res, nil
}
