package inventory

import (
	"context"
	"time"

	"github.com/kailas-cloud/threadress/internal/db"
	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/catalog"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn        func(ctx context.Context, key string, fields map[string]string) error
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	hgetAllFn     func(ctx context.Context, key string) (map[string]string, error)
	existsFn      func(ctx context.Context, key string) (bool, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchListFn  func(
		ctx context.Context, index, query string, offset, limit int, fields []string,
	) (*db.SearchResult, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchList(
	ctx context.Context, index, query string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, index, query, offset, limit, fields)
	}
	return &db.SearchResult{}, nil
}

var testConfig = Config{
	IndexName:   "threadress:inventory",
	KeyPrefix:   "threadress:item:",
	TextDim:     3,
	ImageDim:    4,
	CombinedDim: 4,
	HNSWM:       16,
	HNSWEF:      200,
}

func newTestRepo() (*Repo, *mockStore) {
	ms := &mockStore{}
	return New(ms, testConfig), ms
}

func testItem() catalog.Item {
	return catalog.Item{
		ID:           "42",
		Title:        "Silk Slip Dress",
		Description:  "Bias cut midi slip in black silk",
		Brand:        "Maniere de Voir",
		Category:     "Dresses",
		Color:        "Black",
		Material:     "Silk",
		Tags:         []string{"evening", "bestseller"},
		StoreName:    "Maniere de Voir",
		StoreID:      1,
		Lat:          40.7258074,
		Lng:          -73.9952559,
		Price:        89.5,
		Currency:     "USD",
		ImageURL:     "https://cdn.example.com/slip.jpg",
		MainImageURL: "https://cdn.example.com/slip-main.jpg",
		ProductURL:   "https://shop.example.com/slip",
		SyncedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func testPoint() Point {
	return Point{
		Item: testItem(),
		Vectors: map[domain.Space][]float32{
			domain.SpaceText:     {1, 0, 0},
			domain.SpaceImage:    {0, 1, 0, 0},
			domain.SpaceCombined: {0.6, 0.8, 0, 0},
		},
	}
}
