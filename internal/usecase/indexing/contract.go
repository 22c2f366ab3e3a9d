package indexing

import (
	"context"

	"github.com/kailas-cloud/threadress/internal/repository/inventory"
	"github.com/kailas-cloud/threadress/internal/usecase/embedding"
)

// Embedder is the batch side of the embedding adapter.
type Embedder interface {
	EmbedTextBatch(ctx context.Context, texts []string) embedding.Batch
	EmbedImageBatch(ctx context.Context, refs []string) embedding.Batch
	TextDim() int
}

// Index is the write side of the inventory repository.
type Index interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, points []inventory.Point) error
}
