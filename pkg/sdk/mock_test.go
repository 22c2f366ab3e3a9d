package threadress

import (
	"context"

	"github.com/kailas-cloud/threadress/internal/domain/batch"
	"github.com/kailas-cloud/threadress/internal/domain/catalog"
	healthuc "github.com/kailas-cloud/threadress/internal/usecase/health"
	searchuc "github.com/kailas-cloud/threadress/internal/usecase/search"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, q searchuc.Query) (searchuc.Result, error)
	multiFn  func(ctx context.Context, q searchuc.Query) (searchuc.Result, error)
}

func (m *mockSearchUC) Search(ctx context.Context, q searchuc.Query) (searchuc.Result, error) {
	return m.searchFn(ctx, q)
}

func (m *mockSearchUC) MultiQuerySearch(ctx context.Context, q searchuc.Query) (searchuc.Result, error) {
	return m.multiFn(ctx, q)
}

// --- indexUseCase mock ---

type mockIndexUC struct {
	indexFn func(ctx context.Context, items []catalog.Item) (batch.Report, error)
}

func (m *mockIndexUC) IndexBatch(ctx context.Context, items []catalog.Item) (batch.Report, error) {
	return m.indexFn(ctx, items)
}

// --- inventoryUseCase mock ---

type mockInventoryUC struct {
	scrollFn func(ctx context.Context, offset, limit int) ([]catalog.Item, int, error)
	getFn    func(ctx context.Context, id string) (catalog.Item, error)
	setFn    func(ctx context.Context, id string, fields map[string]string) error
}

func (m *mockInventoryUC) Scroll(ctx context.Context, offset, limit int) ([]catalog.Item, int, error) {
	return m.scrollFn(ctx, offset, limit)
}

func (m *mockInventoryUC) Get(ctx context.Context, id string) (catalog.Item, error) {
	return m.getFn(ctx, id)
}

func (m *mockInventoryUC) SetPayload(ctx context.Context, id string, fields map[string]string) error {
	return m.setFn(ctx, id, fields)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- embedder mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockImageEmbedder struct {
	healthErr error
}

func (m *mockImageEmbedder) EmbedImage(context.Context, string) (EmbeddingResult, error) {
	return EmbeddingResult{Embedding: []float32{0, 1}}, nil
}

func (m *mockImageEmbedder) HealthCheck(context.Context) error { return m.healthErr }

// --- helpers ---

func testClient(
	search searchUseCase,
	index indexUseCase,
	inventory inventoryUseCase,
	health healthUseCase,
) *Client {
	return &Client{
		search:    search,
		index:     index,
		inventory: inventory,
		health:    health,
	}
}
