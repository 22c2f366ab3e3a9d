package threadress

import "github.com/kailas-cloud/threadress/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrValidation             = domain.ErrValidation
	ErrRetrievalUnavailable   = domain.ErrRetrievalUnavailable
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrBackendDegraded        = domain.ErrBackendDegraded
	ErrPartialBatchFailure    = domain.ErrPartialBatchFailure
)
