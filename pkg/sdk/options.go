package threadress

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/threadress/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey" or "redis"
	addrs    []string
	password string

	text         Embedder
	textDim      int
	image        ImageEmbedder
	imageDim     int
	indexName    string
	keyPrefix    string
	hnswM        int
	hnswEF       int
	batchSize    int
	batchDelay   time.Duration
	storeAliases []config.StoreAlias
	readiness    time.Duration
	logger       *slog.Logger
	metricsReg   prometheus.Registerer
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithEmbedder sets the text embedding model and its output dimension.
func WithEmbedder(e Embedder, dims int) Option {
	return optionFunc(func(c *clientConfig) {
		c.text = e
		c.textDim = dims
	})
}

// WithImageEmbedder sets the image embedding model and its output dimension.
// Without it images are embedded from URL keywords through the text model.
func WithImageEmbedder(e ImageEmbedder, dims int) Option {
	return optionFunc(func(c *clientConfig) {
		c.image = e
		c.imageDim = dims
	})
}

// WithIndex overrides the search index name and item key prefix.
// Useful to keep several catalogs in one database.
func WithIndex(name, keyPrefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexName = name
		c.keyPrefix = keyPrefix
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEF = efConstruct
	})
}

// WithBatching sets the indexing batch size and the pause between batches.
// Defaults: 48 items, 100ms.
func WithBatching(size int, delay time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = size
		c.batchDelay = delay
	})
}

// WithStoreAlias teaches store canonicalization one more spelling.
func WithStoreAlias(alias, canonical string) Option {
	return optionFunc(func(c *clientConfig) {
		c.storeAliases = append(c.storeAliases, config.StoreAlias{Alias: alias, Canonical: canonical})
	})
}

// WithReadinessTimeout bounds the wait for the database in New. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readiness = d
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// appConfig maps the options onto the service configuration, defaults applied.
func (c *clientConfig) appConfig() config.Config {
	cfg := config.Config{
		Database: config.DatabaseConfig{
			Driver:   c.driver,
			Addrs:    c.addrs,
			Password: c.password,
		},
		Index: config.IndexConfig{
			Name:            c.indexName,
			KeyPrefix:       c.keyPrefix,
			HNSWM:           c.hnswM,
			HNSWEFConstruct: c.hnswEF,
		},
		Embedding: config.EmbeddingConfig{
			Text:  config.TextEmbeddingConfig{Backend: config.BackendLocal, Dimensions: c.textDim},
			Image: config.ImageEmbeddingConfig{Backend: config.BackendHeuristic, Dimensions: c.imageDim},
		},
		Indexing: config.IndexingConfig{
			BatchSize:    c.batchSize,
			BatchDelayMS: int(c.batchDelay / time.Millisecond),
		},
		Stores: config.StoresConfig{Aliases: c.storeAliases},
	}
	cfg.ApplyDefaults()
	return cfg
}
