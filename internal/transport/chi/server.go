// Package chi exposes search, inventory sync and health over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/batch"
	"github.com/kailas-cloud/threadress/internal/domain/catalog"
	"github.com/kailas-cloud/threadress/internal/logger"
	"github.com/kailas-cloud/threadress/internal/metrics"
	healthuc "github.com/kailas-cloud/threadress/internal/usecase/health"
	searchuc "github.com/kailas-cloud/threadress/internal/usecase/search"
)

const (
	defaultMaxSyncItems = 10000
	defaultScrollLimit  = 20
	maxScrollLimit      = 100
	maxReportedFailures = 100
	maxRequestBodyBytes = 32 << 20
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Options tunes request handling.
type Options struct {
	RowDefaults  catalog.RowDefaults
	Stores       *catalog.StoreTable
	MaxSyncItems int
}

// Server holds the HTTP handlers.
type Server struct {
	search        Searcher
	indexer       Indexer
	inventory     Inventory
	health        HealthChecker
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	indexer Indexer,
	inventory Inventory,
	health HealthChecker,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.Stores == nil {
		opts.Stores = catalog.NewStoreTable()
	}
	if opts.MaxSyncItems <= 0 {
		opts.MaxSyncItems = defaultMaxSyncItems
	}
	if opts.RowDefaults == (catalog.RowDefaults{}) {
		opts.RowDefaults = catalog.DefaultRowDefaults()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:    search,
		indexer:   indexer,
		inventory: inventory,
		health:    health,
		opts:      opts,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrRetrievalUnavailable, http.StatusServiceUnavailable, CodeRetrievalUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProvider),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout),
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.Search)
		r.Post("/search", s.Search)
		r.Get("/search/multi", s.MultiSearch)
		r.Post("/search/multi", s.MultiSearch)
		r.Post("/inventory/sync", s.SyncInventory)
		r.Get("/inventory", s.ListInventory)
		r.Get("/inventory/{id}", s.GetItem)
	})
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
}

// Search handles GET|POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	s.runSearch(w, r, s.search.Search)
}

// MultiSearch handles GET|POST /api/v1/search/multi.
func (s *Server) MultiSearch(w http.ResponseWriter, r *http.Request) {
	s.runSearch(w, r, s.search.MultiQuerySearch)
}

func (s *Server) runSearch(
	w http.ResponseWriter,
	r *http.Request,
	fn func(context.Context, searchuc.Query) (searchuc.Result, error),
) {
	req, err := searchRequestFrom(w, r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := fn(r.Context(), searchuc.Query{
		Text:     req.Text,
		ImageRef: req.ImageRef,
		K:        req.K,
		Space:    domain.Space(strings.ToLower(req.Space)),
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	hits := make([]HitResponse, 0, len(res.Hits))
	for i := range res.Hits {
		hits = append(hits, hitToResponse(&res.Hits[i]))
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Hits:           hits,
		Count:          len(hits),
		EnhancedQuery:  res.EnhancedQuery,
		StyleContext:   res.StyleContext,
		VisualAnalysis: res.VisualAnalysis,
		Rewrites:       res.Rewrites,
	})
}

// searchRequestFrom reads query parameters on GET and a JSON body otherwise.
func searchRequestFrom(w http.ResponseWriter, r *http.Request) (SearchRequest, error) {
	if r.Method != http.MethodGet {
		var req SearchRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return SearchRequest{}, err
		}
		return req, nil
	}

	q := r.URL.Query()
	req := SearchRequest{
		Text:     q.Get("text"),
		ImageRef: q.Get("imageRef"),
		Space:    q.Get("space"),
	}
	if req.Text == "" {
		req.Text = q.Get("q")
	}
	if raw := q.Get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil {
			return SearchRequest{}, domain.NewValidationError("k", "must be an integer")
		}
		req.K = k
	}
	return req, nil
}

// SyncInventory handles POST /api/v1/inventory/sync.
func (s *Server) SyncInventory(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	n := len(req.Items) + len(req.Rows)
	if n == 0 {
		s.handleDomainError(w, r, domain.NewValidationError("items", "must not be empty"))
		return
	}
	if n > s.opts.MaxSyncItems {
		s.handleDomainError(w, r, domain.NewValidationError("items",
			fmt.Sprintf("at most %d items per request", s.opts.MaxSyncItems)))
		return
	}

	var report batch.Report
	items := make([]catalog.Item, 0, n)
	for i := range req.Items {
		it := req.Items[i].toItem()
		if err := it.Validate(); err != nil {
			report.Total++
			report.Fail(it.ID, 0, err)
			continue
		}
		items = append(items, it)
	}
	for _, row := range req.Rows {
		it, err := catalog.FromRow(row, s.opts.RowDefaults)
		if err != nil {
			report.Total++
			report.Fail(it.ID, 0, err)
			continue
		}
		items = append(items, it)
	}

	if len(items) > 0 {
		indexed, err := s.indexer.IndexBatch(r.Context(), items)
		report.Add(indexed)
		if err != nil {
			if r.Context().Err() == nil {
				err = domain.RetrievalUnavailable(err)
			}
			s.handleDomainError(w, r, err)
			return
		}
	}

	logger.OrContext(r.Context(), s.logger).Info("Inventory synced",
		zap.Int("total", report.Total),
		zap.Int("upserted", report.Upserted),
		zap.Int("errors", report.Errors),
	)
	writeJSON(w, http.StatusOK, SyncResponse{
		Upserted: report.Upserted,
		Errors:   report.Errors,
		Total:    report.Total,
		Failures: failuresToResponse(report.Failures, maxReportedFailures),
	})
}

// ListInventory handles GET /api/v1/inventory?limit=&offset=.
func (s *Server) ListInventory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultScrollLimit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if limit <= 0 || limit > maxScrollLimit {
		s.handleDomainError(w, r, domain.NewValidationError("limit",
			fmt.Sprintf("must be between 1 and %d", maxScrollLimit)))
		return
	}
	if offset < 0 {
		s.handleDomainError(w, r, domain.NewValidationError("offset", "must not be negative"))
		return
	}

	items, total, err := s.inventory.Scroll(r.Context(), offset, limit)
	if err != nil {
		s.handleDomainError(w, r, domain.RetrievalUnavailable(err))
		return
	}

	resp := InventoryResponse{
		Items:  make([]ItemResponse, 0, len(items)),
		Total:  total,
		Offset: offset,
	}
	for i := range items {
		resp.Items = append(resp.Items, s.itemResponse(&items[i]))
	}
	if next := offset + len(items); len(items) > 0 && next < total {
		resp.NextOffset = &next
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetItem handles GET /api/v1/inventory/{id}.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	it, err := s.inventory.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			err = domain.RetrievalUnavailable(err)
		}
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.itemResponse(&it))
}

// HealthCheck handles GET /health. Degraded embedding still serves search,
// so only an unreachable store answers 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) itemResponse(it *catalog.Item) ItemResponse {
	return itemToResponse(it, s.opts.Stores.Canonical(it.DisplayStore()), it.BestImageURL())
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	return v, nil
}

// errBadJSON is answered with 400 bad_request.
var errBadJSON = errors.New("invalid JSON body")

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadJSON, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message without exposing internals.
func safeDomainMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	sentinels := []error{
		errBadJSON,
		domain.ErrNotFound,
		domain.ErrRetrievalUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrPartialBatchFailure,
		domain.ErrBackendDegraded,
		domain.ErrValidation,
		context.DeadlineExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler answers 400 and names the offending field.
func validationHandler(w http.ResponseWriter, err error, msg string) bool {
	if errors.Is(err, errBadJSON) {
		writeError(w, http.StatusBadRequest, CodeBadRequest, msg)
		return true
	}
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	resp := ErrorResponse{Code: CodeValidationFailed, Message: msg}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}
	writeJSON(w, http.StatusBadRequest, resp)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.OrContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}
