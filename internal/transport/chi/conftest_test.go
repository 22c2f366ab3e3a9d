package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/batch"
	"github.com/kailas-cloud/threadress/internal/domain/catalog"
	healthuc "github.com/kailas-cloud/threadress/internal/usecase/health"
	searchuc "github.com/kailas-cloud/threadress/internal/usecase/search"
)

type mockSearcher struct {
	lastQuery searchuc.Query
	lastMode  string
	result    searchuc.Result
	err       error
}

func (m *mockSearcher) Search(_ context.Context, q searchuc.Query) (searchuc.Result, error) {
	m.lastQuery, m.lastMode = q, searchuc.ModeSingle
	return m.result, m.err
}

func (m *mockSearcher) MultiQuerySearch(_ context.Context, q searchuc.Query) (searchuc.Result, error) {
	m.lastQuery, m.lastMode = q, searchuc.ModeMulti
	return m.result, m.err
}

type mockIndexer struct {
	got []catalog.Item
	err error
}

func (m *mockIndexer) IndexBatch(_ context.Context, items []catalog.Item) (batch.Report, error) {
	m.got = items
	if m.err != nil {
		return batch.Report{Total: len(items)}, m.err
	}
	return batch.Report{Upserted: len(items), Total: len(items)}, nil
}

type mockInventory struct {
	items      map[string]catalog.Item
	page       []catalog.Item
	total      int
	err        error
	lastOffset int
	lastLimit  int
}

func (m *mockInventory) Scroll(_ context.Context, offset, limit int) ([]catalog.Item, int, error) {
	m.lastOffset, m.lastLimit = offset, limit
	return m.page, m.total, m.err
}

func (m *mockInventory) Get(_ context.Context, id string) (catalog.Item, error) {
	if m.err != nil {
		return catalog.Item{}, m.err
	}
	it, ok := m.items[id]
	if !ok {
		return catalog.Item{}, domain.ErrNotFound
	}
	return it, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type testEnv struct {
	search    *mockSearcher
	indexer   *mockIndexer
	inventory *mockInventory
	health    *mockHealth
	router    chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		search:    &mockSearcher{},
		indexer:   &mockIndexer{},
		inventory: &mockInventory{},
		health:    &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}},
	}
	srv := NewServer(env.search, env.indexer, env.inventory, env.health, Options{}, nil)
	env.router = chi.NewRouter()
	srv.Routes(env.router)
	return env
}

func (e *testEnv) do(method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, target, &buf)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}
