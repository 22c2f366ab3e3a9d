package threadress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/threadress/internal/app"
	"github.com/kailas-cloud/threadress/internal/db"
	dbRedis "github.com/kailas-cloud/threadress/internal/db/redis"
	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/batch"
	"github.com/kailas-cloud/threadress/internal/domain/catalog"
	"github.com/kailas-cloud/threadress/internal/transport/local"
	embeddinguc "github.com/kailas-cloud/threadress/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/threadress/internal/usecase/health"
	searchuc "github.com/kailas-cloud/threadress/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	maxPageSize             = 100
)

// Внутренние интерфейсы для подмены в тестах.
type searchUseCase interface {
	Search(ctx context.Context, q searchuc.Query) (searchuc.Result, error)
	MultiQuerySearch(ctx context.Context, q searchuc.Query) (searchuc.Result, error)
}

type indexUseCase interface {
	IndexBatch(ctx context.Context, items []catalog.Item) (batch.Report, error)
}

type inventoryUseCase interface {
	Scroll(ctx context.Context, offset, limit int) ([]catalog.Item, int, error)
	Get(ctx context.Context, id string) (catalog.Item, error)
	SetPayload(ctx context.Context, id string, fields map[string]string) error
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the threadress SDK entry point. Safe for concurrent use.
type Client struct {
	store     db.Store
	search    searchUseCase
	index     indexUseCase
	inventory inventoryUseCase
	health    healthUseCase
	obs       *observer
}

// New creates a Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{readiness: defaultReadinessTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("threadress: database address required (use WithValkey or WithRedis)")
	}
	if (cfg.text != nil && cfg.textDim <= 0) || (cfg.image != nil && cfg.imageDim <= 0) {
		return nil, errors.New("threadress: embedder dimensions must be positive")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, cfg.readiness); err != nil {
		store.Close()
		return nil, fmt.Errorf("threadress: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("threadress: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("threadress: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	conf := cfg.appConfig()
	a := app.Wire(conf, store, embeddersFor(cfg, conf.Embedding.Text.Dimensions, conf.Embedding.Image.Dimensions), zap.NewNop())
	return &Client{
		store:     store,
		search:    a.Search,
		index:     a.Indexing,
		inventory: a.Inventory,
		health:    a.Health,
		obs:       obs,
	}
}

// embeddersFor plugs user models in, or the offline fallbacks.
func embeddersFor(cfg *clientConfig, textDim, imageDim int) app.Embedders {
	var emb app.Embedders
	if cfg.text != nil {
		emb.Text = &textAdapter{inner: cfg.text}
		emb.TextHealth = healthOf(cfg.text)
	} else {
		emb.Text = local.NewHashEmbedder(textDim)
	}
	if cfg.image != nil {
		emb.Image = &imageAdapter{inner: cfg.image}
		emb.ImageHealth = healthOf(cfg.image)
	} else {
		emb.Image = embeddinguc.NewHeuristicImageEmbedder(emb.Text, imageDim)
	}
	return emb
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search runs one query through understanding, retrieval and re-ranking.
// An empty query returns no hits and no error.
func (c *Client) Search(ctx context.Context, q Query) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	r, err := c.search.Search(ctx, toInternalQuery(q))
	if err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}
	return fromInternalResult(&r), nil
}

// MultiSearch fans the query out over its rewrites and merges the hits.
func (c *Client) MultiSearch(ctx context.Context, q Query) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("multi_search", start, err) }()

	r, err := c.search.MultiQuerySearch(ctx, toInternalQuery(q))
	if err != nil {
		return Result{}, fmt.Errorf("multi search: %w", err)
	}
	return fromInternalResult(&r), nil
}

// Sync validates and indexes items. Invalid items are reported in the
// returned report, not as an error; the error is set only when indexing could
// not run at all.
func (c *Client) Sync(ctx context.Context, items []Item) (rep SyncReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("sync", start, err) }()

	var report batch.Report
	valid := make([]catalog.Item, 0, len(items))
	for i := range items {
		it := toInternalItem(&items[i])
		id, perr := catalog.ParseID(it.ID)
		if perr == nil {
			it.ID = id
			perr = it.Validate()
		}
		if perr != nil {
			report.Total++
			report.Fail(items[i].ID, 0, perr)
			continue
		}
		valid = append(valid, it)
	}

	if len(valid) > 0 {
		r, ierr := c.index.IndexBatch(ctx, valid)
		report.Add(r)
		if ierr != nil {
			return fromInternalReport(&report), fmt.Errorf("sync: %w", ierr)
		}
	}
	return fromInternalReport(&report), nil
}

// Items returns one page of indexed items. limit is capped at 100.
func (c *Client) Items(ctx context.Context, offset, limit int) (page ItemPage, err error) {
	start := time.Now()
	defer func() { c.obs.observe("items", start, err) }()

	if offset < 0 {
		return ItemPage{}, domain.NewValidationError("offset", "must be non-negative")
	}
	if limit <= 0 || limit > maxPageSize {
		return ItemPage{}, domain.NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", maxPageSize))
	}

	items, total, err := c.inventory.Scroll(ctx, offset, limit)
	if err != nil {
		return ItemPage{}, fmt.Errorf("list items: %w", err)
	}
	page = ItemPage{Items: make([]Item, len(items)), Total: total, NextOffset: -1}
	for i := range items {
		page.Items[i] = fromInternalItem(&items[i])
	}
	if next := offset + len(items); len(items) > 0 && next < total {
		page.NextOffset = next
	}
	return page, nil
}

// Item returns one indexed item. Unknown ids yield ErrNotFound.
func (c *Client) Item(ctx context.Context, id string) (it Item, err error) {
	start := time.Now()
	defer func() { c.obs.observe("item", start, err) }()

	canonical, err := catalog.ParseID(id)
	if err != nil {
		return Item{}, err
	}
	got, err := c.inventory.Get(ctx, canonical)
	if err != nil {
		return Item{}, fmt.Errorf("get item %s: %w", canonical, err)
	}
	return fromInternalItem(&got), nil
}

// SetFields overwrites stored payload fields of an item, e.g. "price" or
// "season". Vectors and the id are not writable; unknown ids yield ErrNotFound.
func (c *Client) SetFields(ctx context.Context, id string, fields map[string]string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("set_fields", start, err) }()

	canonical, err := catalog.ParseID(id)
	if err != nil {
		return err
	}
	if err := c.inventory.SetPayload(ctx, canonical, fields); err != nil {
		return fmt.Errorf("set fields of %s: %w", canonical, err)
	}
	return nil
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

// Health checks the database and every embedder that supports it.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}
