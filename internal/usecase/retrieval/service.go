// Package retrieval runs one nearest-neighbour query against the inventory index.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/hit"
	"github.com/kailas-cloud/threadress/internal/domain/vector"
)

const (
	DefaultMaxLimit = 100
	DefaultFloor    = 0.05
)

// Options bounds retrieval. Zero values fall back to the defaults.
type Options struct {
	MaxLimit int
	Floor    float64
	Timeout  time.Duration
}

// Service retrieves raw hits for a query vector.
type Service struct {
	index  Index
	opts   Options
	logger *zap.Logger
}

// New creates a retrieval service.
func New(index Index, opts Options, logger *zap.Logger) *Service {
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = DefaultMaxLimit
	}
	if opts.Floor <= 0 {
		opts.Floor = DefaultFloor
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{index: index, opts: opts, logger: logger}
}

// Retrieve returns hits scoring at least the floor, best first, ties by ID.
// The result is not truncated to the caller's k: re-ranking needs the slack.
// Index failures come back wrapped in domain.ErrRetrievalUnavailable.
func (s *Service) Retrieve(ctx context.Context, vec []float32, space domain.Space, limit int) ([]hit.Raw, error) {
	if !space.Valid() {
		return nil, domain.NewValidationError("space", fmt.Sprintf("unknown vector space %q", space))
	}
	limit = min(max(limit, 1), s.opts.MaxLimit)

	// cosine against a zero vector is undefined, nothing can match
	if vector.IsZero(vec) {
		s.logger.Warn("Zero query vector, skipping index call", zap.String("space", string(space)))
		return []hit.Raw{}, nil
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	raws, err := s.index.Search(ctx, space, vec, limit)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		s.logger.Error("Vector index unavailable",
			zap.String("space", string(space)),
			zap.Int("limit", limit),
			zap.Error(err),
		)
		return nil, domain.RetrievalUnavailable(err)
	}

	out := make([]hit.Raw, 0, len(raws))
	for _, r := range raws {
		if r.Score >= s.opts.Floor {
			out = append(out, r)
		}
	}
	hit.SortRaw(out)
	return out, nil
}
