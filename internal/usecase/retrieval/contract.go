package retrieval

import (
	"context"

	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/hit"
)

// Index is the read side of the inventory repository.
type Index interface {
	Search(ctx context.Context, space domain.Space, vector []float32, limit int) ([]hit.Raw, error)
}
