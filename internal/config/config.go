package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted in embedding.text.backend / embedding.image.backend.
const (
	BackendOpenAI    = "openai"
	BackendCLIP      = "clip"
	BackendLocal     = "local"
	BackendHeuristic = "heuristic"
)

// Config holds the threadress configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Indexing  IndexingConfig  `yaml:"indexing"`
	Stores    StoresConfig    `yaml:"stores"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig describes the multi-vector inventory index.
type IndexConfig struct {
	Name            string `yaml:"name"`
	KeyPrefix       string `yaml:"key_prefix"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
	TimeoutMS       int    `yaml:"timeout_ms"`
}

// Timeout is the per-call bound for index operations.
func (c IndexConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// EmbeddingConfig holds one backend section per modality.
type EmbeddingConfig struct {
	Text  TextEmbeddingConfig  `yaml:"text"`
	Image ImageEmbeddingConfig `yaml:"image"`
}

// TextEmbeddingConfig configures the text embedder.
type TextEmbeddingConfig struct {
	Backend    string      `yaml:"backend"` // openai, clip, local
	APIKey     string      `yaml:"api_key"`
	BaseURL    string      `yaml:"base_url"`
	Model      string      `yaml:"model"`
	Dimensions int         `yaml:"dimensions"`
	TimeoutMS  int         `yaml:"timeout_ms"`
	Cache      CacheConfig `yaml:"cache"`
}

// Timeout is the per-call bound for text embedding.
func (c TextEmbeddingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// CacheConfig controls the Redis embedding cache.
type CacheConfig struct {
	Enabled   bool   `yaml:"enabled"`
	KeyPrefix string `yaml:"key_prefix"`
	TTLHours  int    `yaml:"ttl_hours"` // 0 = no expiry
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// ImageEmbeddingConfig configures the image embedder.
type ImageEmbeddingConfig struct {
	Backend    string `yaml:"backend"` // clip, heuristic, local
	BaseURL    string `yaml:"base_url"`
	Dimensions int    `yaml:"dimensions"`
	TimeoutMS  int    `yaml:"timeout_ms"`
}

// Timeout is the per-call bound for image embedding.
func (c ImageEmbeddingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// FusionWeights are the per-source weights for the combined vector.
type FusionWeights struct {
	Text    float64 `yaml:"text"`
	Image   float64 `yaml:"image"`
	Context float64 `yaml:"context"`
}

// RerankWeights are the signal weights for re-ranking.
type RerankWeights struct {
	Price      float64 `yaml:"price"`
	Season     float64 `yaml:"season"`
	Brand      float64 `yaml:"brand"`
	Popularity float64 `yaml:"popularity"`
	Attribute  float64 `yaml:"attribute"`
	Keyword    float64 `yaml:"keyword"`
}

// SearchConfig holds query-time knobs.
type SearchConfig struct {
	MaxLimit      int           `yaml:"max_limit"`
	DefaultK      int           `yaml:"default_k"`
	ScoreFloor    float64       `yaml:"score_floor"`
	FinalFloor    float64       `yaml:"final_floor"`
	MaxRewrites   int           `yaml:"max_rewrites"`
	QueryWeights  FusionWeights `yaml:"query_weights"`
	RerankWeights RerankWeights `yaml:"rerank_weights"`
}

// IndexingConfig holds write-path knobs.
type IndexingConfig struct {
	BatchSize    int           `yaml:"batch_size"`
	BatchDelayMS int           `yaml:"batch_delay_ms"`
	Weights      FusionWeights `yaml:"weights"`
}

// BatchDelay is the pause between consecutive batches.
func (c IndexingConfig) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMS) * time.Millisecond
}

// StoresConfig extends the built-in store alias table.
type StoresConfig struct {
	Aliases []StoreAlias `yaml:"aliases"`
}

// StoreAlias maps one alias spelling to a canonical store name.
type StoreAlias struct {
	Alias     string `yaml:"alias"`
	Canonical string `yaml:"canonical"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes, expands env vars, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
//
// Fusion and rerank weights are only defaulted when the whole group is zero,
// so an explicit 0 for one source stays 0.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	c.applyIndexDefaults()
	c.applyEmbeddingDefaults()
	c.applySearchDefaults()

	if c.Indexing.BatchSize <= 0 {
		c.Indexing.BatchSize = 48
	}
	if c.Indexing.BatchDelayMS <= 0 {
		c.Indexing.BatchDelayMS = 100
	}
	if c.Indexing.Weights == (FusionWeights{}) {
		c.Indexing.Weights = FusionWeights{Text: 0.6, Image: 0.4}
	}
}

func (c *Config) applyIndexDefaults() {
	if c.Index.Name == "" {
		c.Index.Name = "threadress:inventory"
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "threadress:item:"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Index.TimeoutMS <= 0 {
		c.Index.TimeoutMS = 2000
	}
}

func (c *Config) applyEmbeddingDefaults() {
	t := &c.Embedding.Text
	if t.Backend == "" {
		t.Backend = BackendLocal
	}
	if t.Dimensions <= 0 {
		t.Dimensions = 384
	}
	if t.TimeoutMS <= 0 {
		t.TimeoutMS = 10000
	}
	if t.Cache.KeyPrefix == "" {
		t.Cache.KeyPrefix = "threadress:emb:"
	}

	img := &c.Embedding.Image
	if img.Backend == "" {
		img.Backend = BackendHeuristic
	}
	if img.Dimensions <= 0 {
		img.Dimensions = 512
	}
	if img.TimeoutMS <= 0 {
		img.TimeoutMS = 15000
	}
}

func (c *Config) applySearchDefaults() {
	s := &c.Search
	if s.MaxLimit <= 0 {
		s.MaxLimit = 100
	}
	if s.DefaultK <= 0 {
		s.DefaultK = 20
	}
	if s.ScoreFloor <= 0 {
		s.ScoreFloor = 0.05
	}
	if s.FinalFloor <= 0 {
		s.FinalFloor = 0.1
	}
	if s.MaxRewrites <= 0 {
		s.MaxRewrites = 3
	}
	if s.QueryWeights == (FusionWeights{}) {
		s.QueryWeights = FusionWeights{Text: 0.6, Image: 0.4, Context: 0.2}
	}
	if s.RerankWeights == (RerankWeights{}) {
		s.RerankWeights = RerankWeights{
			Price:      0.1,
			Season:     0.1,
			Brand:      0.1,
			Popularity: 0.05,
			Attribute:  0.2,
			Keyword:    0.25,
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Database.Driver {
	case "valkey", "redis":
	default:
		return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}

	switch c.Embedding.Text.Backend {
	case BackendOpenAI, BackendCLIP, BackendLocal:
	default:
		return fmt.Errorf("embedding.text.backend: unknown backend %q", c.Embedding.Text.Backend)
	}
	switch c.Embedding.Image.Backend {
	case BackendCLIP, BackendHeuristic, BackendLocal:
	default:
		return fmt.Errorf("embedding.image.backend: unknown backend %q", c.Embedding.Image.Backend)
	}
	if c.Embedding.Text.Dimensions <= 0 {
		return fmt.Errorf("embedding.text.dimensions must be positive, got %d", c.Embedding.Text.Dimensions)
	}
	if c.Embedding.Image.Dimensions <= 0 {
		return fmt.Errorf("embedding.image.dimensions must be positive, got %d", c.Embedding.Image.Dimensions)
	}
	if c.Embedding.Text.Backend == BackendCLIP || c.Embedding.Image.Backend == BackendCLIP {
		if c.Embedding.Image.BaseURL == "" {
			return fmt.Errorf("embedding.image.base_url is required for the clip backend")
		}
	}

	if err := validateFusion("search.query_weights", c.Search.QueryWeights); err != nil {
		return err
	}
	if err := validateFusion("indexing.weights", c.Indexing.Weights); err != nil {
		return err
	}
	w := c.Search.RerankWeights
	for name, v := range map[string]float64{
		"price": w.Price, "season": w.Season, "brand": w.Brand,
		"popularity": w.Popularity, "attribute": w.Attribute, "keyword": w.Keyword,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("search.rerank_weights.%s must be in [0,1], got %g", name, v)
		}
	}

	for i, a := range c.Stores.Aliases {
		if strings.TrimSpace(a.Alias) == "" || strings.TrimSpace(a.Canonical) == "" {
			return fmt.Errorf("stores.aliases[%d]: alias and canonical are required", i)
		}
	}
	return nil
}

func validateFusion(path string, w FusionWeights) error {
	for name, v := range map[string]float64{"text": w.Text, "image": w.Image, "context": w.Context} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s.%s must be in [0,1], got %g", path, name, v)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
