// Package clip is an HTTP client for the CLIP embedding service.
//
// Endpoints: POST /embed/text/batch {texts}, POST /embed/image/batch {image_urls},
// GET /health. Batch replies are {ok, embeddings, count, dimension}. The service
// answers a failed item with an all-zero vector; the client reports it as nil.
package clip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/metrics"
)

const backend = "clip"

// Config holds the CLIP service settings.
type Config struct {
	BaseURL    string
	Dimensions int // 512 for ViT-B/32
	Model      string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client embeds texts and image URLs into one shared CLIP space.
type Client struct {
	baseURL string
	dims    int
	model   string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a CLIP client.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	model := cfg.Model
	if model == "" {
		model = "ViT-B/32"
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		dims:    cfg.Dimensions,
		model:   model,
		http:    hc,
		logger:  logger,
	}
}

// Dimensions is the declared output length.
func (c *Client) Dimensions() int { return c.dims }

type textBatchReq struct {
	Texts []string `json:"texts"`
}

type imageBatchReq struct {
	ImageURLs []string `json:"image_urls"`
}

type batchResp struct {
	OK         bool        `json:"ok"`
	Embeddings [][]float32 `json:"embeddings"`
	Count      int         `json:"count"`
	Dimension  int         `json:"dimension"`
	Detail     string      `json:"detail"`
}

// Embed implements domain.Embedder.
func (c *Client) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return c.single(ctx, "/embed/text/batch", textBatchReq{Texts: []string{text}})
}

// BatchEmbed implements domain.BatchEmbedder.
func (c *Client) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	return c.batch(ctx, "/embed/text/batch", textBatchReq{Texts: texts}, len(texts))
}

// EmbedImage implements domain.ImageEmbedder.
func (c *Client) EmbedImage(ctx context.Context, imageURL string) (domain.EmbeddingResult, error) {
	return c.single(ctx, "/embed/image/batch", imageBatchReq{ImageURLs: []string{imageURL}})
}

// BatchEmbedImages implements domain.BatchImageEmbedder.
func (c *Client) BatchEmbedImages(ctx context.Context, imageURLs []string) (domain.BatchEmbeddingResult, error) {
	if len(imageURLs) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	return c.batch(ctx, "/embed/image/batch", imageBatchReq{ImageURLs: imageURLs}, len(imageURLs))
}

// HealthCheck calls GET /health.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("clip health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("clip health: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) single(ctx context.Context, path string, body any) (domain.EmbeddingResult, error) {
	res, err := c.batch(ctx, path, body, 1)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	if res.Embeddings[0] == nil {
		return domain.EmbeddingResult{}, fmt.Errorf("clip: item failed: %w", domain.ErrEmbeddingProviderError)
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0]}, nil
}

func (c *Client) batch(ctx context.Context, path string, body any, n int) (domain.BatchEmbeddingResult, error) {
	start := time.Now()
	out, errType, err := c.post(ctx, path, body, n)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(backend, c.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(backend, c.model, errType).Inc()
		return domain.BatchEmbeddingResult{}, err
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(backend, c.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(backend, c.model).Observe(time.Since(start).Seconds())
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, body any, n int) (domain.BatchEmbeddingResult, string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return domain.BatchEmbeddingResult{}, "marshal", fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return domain.BatchEmbeddingResult{}, "request", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.BatchEmbeddingResult{}, "unreachable",
			fmt.Errorf("clip %s: %w: %w", path, domain.ErrEmbeddingProviderError, err)
	}
	defer resp.Body.Close()

	var parsed batchResp
	decodeErr := json.NewDecoder(resp.Body).Decode(&parsed)

	if resp.StatusCode != http.StatusOK {
		detail := parsed.Detail
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return domain.BatchEmbeddingResult{}, "api_error", &domain.ProviderError{
			Status: resp.StatusCode,
			Msg:    fmt.Sprintf("clip %s: status %d: %s", path, resp.StatusCode, detail),
		}
	}
	if decodeErr != nil {
		return domain.BatchEmbeddingResult{}, "malformed",
			fmt.Errorf("clip %s: decode: %w: %w", path, domain.ErrEmbeddingProviderError, decodeErr)
	}
	if !parsed.OK || len(parsed.Embeddings) != n {
		return domain.BatchEmbeddingResult{}, "malformed", fmt.Errorf(
			"clip %s: got %d embeddings for %d inputs: %w", path, len(parsed.Embeddings), n, domain.ErrEmbeddingProviderError,
		)
	}

	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, n)}
	for i, v := range parsed.Embeddings {
		switch {
		case len(v) == 0, isZero(v):
			c.logger.Debug("CLIP item failed", zap.String("path", path), zap.Int("index", i))
		case c.dims > 0 && len(v) != c.dims:
			metrics.EmbeddingErrorsTotal.WithLabelValues(backend, c.model, "dimension_mismatch").Inc()
			c.logger.Warn("CLIP dimension mismatch",
				zap.Int("index", i), zap.Int("expected", c.dims), zap.Int("got", len(v)))
		default:
			out.Embeddings[i] = v
		}
	}
	return out, "", nil
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

