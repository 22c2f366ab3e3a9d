package chi

import (
	"context"

	"github.com/kailas-cloud/threadress/internal/domain/batch"
	"github.com/kailas-cloud/threadress/internal/domain/catalog"
	healthuc "github.com/kailas-cloud/threadress/internal/usecase/health"
	searchuc "github.com/kailas-cloud/threadress/internal/usecase/search"
)

// Searcher runs the query pipeline.
type Searcher interface {
	Search(ctx context.Context, q searchuc.Query) (searchuc.Result, error)
	MultiQuerySearch(ctx context.Context, q searchuc.Query) (searchuc.Result, error)
}

// Indexer writes catalog items to the vector index.
type Indexer interface {
	IndexBatch(ctx context.Context, items []catalog.Item) (batch.Report, error)
}

// Inventory reads stored items back.
type Inventory interface {
	Scroll(ctx context.Context, offset, limit int) ([]catalog.Item, int, error)
	Get(ctx context.Context, id string) (catalog.Item, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
