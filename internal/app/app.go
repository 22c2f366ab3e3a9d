// Package app is the composition root shared by the API server and threadctl:
// it turns one config.Config into wired services.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/threadress/internal/config"
	"github.com/kailas-cloud/threadress/internal/db"
	dbRedis "github.com/kailas-cloud/threadress/internal/db/redis"
	"github.com/kailas-cloud/threadress/internal/domain/catalog"
	"github.com/kailas-cloud/threadress/internal/repository/inventory"
	embeddinguc "github.com/kailas-cloud/threadress/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/threadress/internal/usecase/health"
	"github.com/kailas-cloud/threadress/internal/usecase/indexing"
	"github.com/kailas-cloud/threadress/internal/usecase/rerank"
	"github.com/kailas-cloud/threadress/internal/usecase/retrieval"
	searchuc "github.com/kailas-cloud/threadress/internal/usecase/search"
	"github.com/kailas-cloud/threadress/internal/usecase/understanding"
)

// App holds the wired services.
type App struct {
	Store     db.Store
	Inventory *inventory.Repo
	Search    *searchuc.Service
	Indexing  *indexing.Service
	Health    *healthuc.Service
	Stores    *catalog.StoreTable
}

// New connects to the database, waits for it and wires every service.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// valkey и redis говорят на одном протоколе, клиент общий
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	emb, err := BuildEmbedders(cfg.Embedding, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	a := Wire(cfg, store, emb, logger)
	logger.Info("Services wired",
		zap.String("text_backend", cfg.Embedding.Text.Backend),
		zap.String("image_backend", cfg.Embedding.Image.Backend),
		zap.Int("text_dims", cfg.Embedding.Text.Dimensions),
		zap.Int("image_dims", cfg.Embedding.Image.Dimensions),
		zap.String("index", cfg.Index.Name),
	)
	return a, nil
}

// Wire builds the services over an existing store and embedders.
func Wire(cfg config.Config, store db.Store, emb Embedders, logger *zap.Logger) *App {
	textDim, imageDim := cfg.Embedding.Text.Dimensions, cfg.Embedding.Image.Dimensions
	combinedDim := max(textDim, imageDim)

	inv := inventory.New(store, inventory.Config{
		IndexName:   cfg.Index.Name,
		KeyPrefix:   cfg.Index.KeyPrefix,
		TextDim:     textDim,
		ImageDim:    imageDim,
		CombinedDim: combinedDim,
		HNSWM:       cfg.Index.HNSWM,
		HNSWEF:      cfg.Index.HNSWEFConstruct,
		Timeout:     cfg.Index.Timeout(),
	})

	adapter := embeddinguc.NewAdapter(emb.Text, emb.Image, embeddinguc.Options{
		TextDim:      textDim,
		ImageDim:     imageDim,
		TextTimeout:  cfg.Embedding.Text.Timeout(),
		ImageTimeout: cfg.Embedding.Image.Timeout(),
	}, logger)

	stores := StoreTable(cfg.Stores)

	searchSvc := searchuc.New(
		understanding.NewAnalyzer(adapter, logger),
		retrieval.New(inv, retrieval.Options{
			MaxLimit: cfg.Search.MaxLimit,
			Floor:    cfg.Search.ScoreFloor,
			Timeout:  cfg.Index.Timeout(),
		}, logger),
		rerank.NewEnhancer(stores, cfg.Search.FinalFloor),
		searchuc.Options{
			DefaultK:    cfg.Search.DefaultK,
			MaxK:        cfg.Search.MaxLimit,
			CombinedDim: combinedDim,
			Fusion:      searchuc.FusionWeights(cfg.Search.QueryWeights),
			Rerank:      rerank.Weights(cfg.Search.RerankWeights),
			MaxRewrites: cfg.Search.MaxRewrites,
		},
		logger,
	)

	indexSvc := indexing.New(adapter, inv, indexing.Options{
		BatchSize:   cfg.Indexing.BatchSize,
		BatchDelay:  cfg.Indexing.BatchDelay(),
		CombinedDim: combinedDim,
		Weights:     indexing.Weights(cfg.Indexing.Weights),
	}, logger)

	return &App{
		Store:     store,
		Inventory: inv,
		Search:    searchSvc,
		Indexing:  indexSvc,
		Health:    healthuc.New(store, emb.TextHealth, emb.ImageHealth, 0, logger),
		Stores:    stores,
	}
}

// StoreTable extends the built-in store aliases with configured ones.
func StoreTable(cfg config.StoresConfig) *catalog.StoreTable {
	extra := make([]catalog.StoreAlias, 0, len(cfg.Aliases))
	for _, a := range cfg.Aliases {
		extra = append(extra, catalog.StoreAlias{Alias: a.Alias, Canonical: a.Canonical})
	}
	return catalog.NewStoreTable(extra...)
}

// Close releases the database connection.
func (a *App) Close() {
	a.Store.Close()
}
