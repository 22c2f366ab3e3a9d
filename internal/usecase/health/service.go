// Package health aggregates liveness of the vector store and the embedding
// backends. A dead store makes search impossible; a dead embedder only
// degrades it to zero vectors.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status represents the aggregated health status.
type Status string

const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded"
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Component names as reported in Report.Checks.
const (
	ComponentDatabase = "database"
	ComponentText     = "text_embedding"
	ComponentImage    = "image_embedding"
)

// DefaultTimeout bounds each individual check.
const DefaultTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	db      DBPinger
	text    Checker
	image   Checker
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Service. text and image can be nil, e.g. for the heuristic
// image backend which has nothing remote to check.
func New(db DBPinger, text, image Checker, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, text: text, image: image, timeout: timeout, logger: logger}
}

// Check runs all checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]func(context.Context) error{
		ComponentDatabase: s.db.Ping,
	}
	if s.text != nil {
		checks[ComponentText] = s.text.HealthCheck
	}
	if s.image != nil {
		checks[ComponentImage] = s.image.HealthCheck
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]CheckResult, len(checks))
	)
	for name, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			res := CheckOK
			if err := check(cctx); err != nil {
				s.logger.Warn("Health check failed", zap.String("component", name), zap.Error(err))
				res = CheckError
			}
			mu.Lock()
			out[name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	status := Healthy
	for name, v := range out {
		if v != CheckError {
			continue
		}
		if name == ComponentDatabase {
			status = Unhealthy
			break
		}
		status = Degraded
	}
	return Report{Status: status, Checks: out}
}
