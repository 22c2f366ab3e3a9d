package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/threadress/internal/config"
	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/metrics"
	"github.com/kailas-cloud/threadress/internal/repository/embcache"
	"github.com/kailas-cloud/threadress/internal/transport/clip"
	"github.com/kailas-cloud/threadress/internal/transport/local"
	openaiEmb "github.com/kailas-cloud/threadress/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/threadress/internal/usecase/embedding"
)

// textBackend is what every text transport provides.
type textBackend interface {
	domain.Embedder
	domain.BatchEmbedder
	domain.HealthChecker
}

// cacheStore is the slice of the database the embedding cache needs.
type cacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Embedders is the assembled pair of backends. Health checkers are nil when
// a backend has nothing remote to check.
type Embedders struct {
	Text        domain.Embedder
	Image       domain.ImageEmbedder
	TextHealth  domain.HealthChecker
	ImageHealth domain.HealthChecker
}

// BuildEmbedders assembles the decorator chain per modality:
// backend -> cache (optional) -> instrumented. kv may be nil to disable caching.
func BuildEmbedders(cfg config.EmbeddingConfig, kv cacheStore, logger *zap.Logger) (Embedders, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := cfg.Text

	var base textBackend
	switch t.Backend {
	case config.BackendOpenAI:
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     t.APIKey,
			BaseURL:    t.BaseURL,
			Model:      t.Model,
			Dimensions: t.Dimensions,
			Logger:     logger,
		})
	case config.BackendCLIP:
		baseURL := t.BaseURL
		if baseURL == "" {
			baseURL = cfg.Image.BaseURL
		}
		base = newCLIP(baseURL, t.Dimensions, t.Model, logger)
	case config.BackendLocal:
		base = local.NewHashEmbedder(t.Dimensions)
	default:
		return Embedders{}, fmt.Errorf("unknown text backend %q", t.Backend)
	}

	var text domain.Embedder = base
	if kv != nil && t.Cache.Enabled && t.Backend != config.BackendLocal {
		text = embcache.New(base, kv, embcache.Options{
			KeyPrefix: t.Cache.KeyPrefix,
			Namespace: fmt.Sprintf("%s:%s:%d", t.Backend, t.Model, t.Dimensions),
			TTL:       t.Cache.TTL(),
		}, metrics.EmbeddingCacheTotal, logger)
	}
	model := t.Model
	if model == "" {
		model = t.Backend
	}
	text = embeddinguc.NewInstrumentedEmbedder(text, t.Backend, model, logger)

	out := Embedders{Text: text, TextHealth: base}
	if t.Backend == config.BackendLocal {
		out.TextHealth = nil
	}

	img := cfg.Image
	switch img.Backend {
	case config.BackendCLIP:
		c := newCLIP(img.BaseURL, img.Dimensions, "", logger)
		out.Image, out.ImageHealth = c, c
	case config.BackendHeuristic:
		out.Image = embeddinguc.NewHeuristicImageEmbedder(text, img.Dimensions)
	case config.BackendLocal:
		out.Image = local.NewHashEmbedder(img.Dimensions)
	default:
		return Embedders{}, fmt.Errorf("unknown image backend %q", img.Backend)
	}
	return out, nil
}

func newCLIP(baseURL string, dims int, model string, logger *zap.Logger) *clip.Client {
	return clip.New(clip.Config{
		BaseURL:    baseURL,
		Dimensions: dims,
		Model:      model,
		HTTPClient: &http.Client{},
		Logger:     logger,
	})
}
