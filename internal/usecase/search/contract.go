package search

import (
	"context"

	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/hit"
	"github.com/kailas-cloud/threadress/internal/usecase/rerank"
	"github.com/kailas-cloud/threadress/internal/usecase/understanding"
)

// Analyzer turns raw input into an enhanced query and vectors.
type Analyzer interface {
	Analyze(ctx context.Context, query, imageRef string) (understanding.Analysis, error)
}

// Retriever queries the vector index.
type Retriever interface {
	Retrieve(ctx context.Context, vec []float32, space domain.Space, limit int) ([]hit.Raw, error)
}

// Enhancer re-ranks raw hits.
type Enhancer interface {
	Enhance(query, imageRef string, raws []hit.Raw, w rerank.Weights, k int) []hit.Scored
}
