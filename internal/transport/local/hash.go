// Package local is the offline embedding backend: a deterministic word-hash
// embedding that needs no model and no network. Similar strings do not get
// similar vectors; it exists so the pipeline runs end to end in dev and tests.
package local

import (
	"context"
	"math"
	"strings"
	"unicode/utf16"

	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/vector"
)

// DefaultDimensions matches the MiniLM-class text space.
const DefaultDimensions = 384

// HashEmbedder implements the text and image embedder contracts.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a hash embedder with the given output length.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

// Dimensions is the declared output length.
func (h *HashEmbedder) Dimensions() int { return h.dims }

// Embed implements domain.Embedder.
func (h *HashEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err //nolint:wrapcheck // context error as is
	}
	return domain.EmbeddingResult{Embedding: Hash(text, h.dims)}, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (h *HashEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	if err := ctx.Err(); err != nil {
		return domain.BatchEmbeddingResult{}, err //nolint:wrapcheck // context error as is
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		out.Embeddings[i] = Hash(t, h.dims)
	}
	return out, nil
}

// EmbedImage hashes the URL itself.
func (h *HashEmbedder) EmbedImage(ctx context.Context, imageURL string) (domain.EmbeddingResult, error) {
	return h.Embed(ctx, imageURL)
}

// BatchEmbedImages hashes each URL.
func (h *HashEmbedder) BatchEmbedImages(ctx context.Context, imageURLs []string) (domain.BatchEmbeddingResult, error) {
	return h.BatchEmbed(ctx, imageURLs)
}

// HealthCheck always succeeds.
func (h *HashEmbedder) HealthCheck(context.Context) error { return nil }

// Hash folds every non-space UTF-16 unit of the lowercased text into one
// int32 rolling hash h = h*31 + c, then fills v[i] = sin(h+i)*cos((h+i)*1.1)*0.1
// and L2-normalizes.
func Hash(text string, dims int) []float32 {
	var h int32
	for _, word := range strings.Fields(strings.ToLower(text)) {
		for _, cu := range utf16.Encode([]rune(word)) {
			h = (h << 5) - h + int32(cu)
		}
	}

	v := make([]float32, dims)
	for i := range v {
		seed := float64(h) + float64(i)
		v[i] = float32(math.Sin(seed) * math.Cos(seed*1.1) * 0.1)
	}
	return vector.Normalize(v)
}
