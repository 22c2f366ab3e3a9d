package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kailas-cloud/threadress/internal/domain/batch"
	"github.com/kailas-cloud/threadress/internal/domain/catalog"
)

// mockIndexer records every batch and upserts everything unless err is set.
type mockIndexer struct {
	mu    sync.Mutex
	calls [][]catalog.Item
	err   error
}

func (m *mockIndexer) IndexBatch(_ context.Context, items []catalog.Item) (batch.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, items)
	if m.err != nil {
		return batch.Report{Total: len(items)}, m.err
	}
	return batch.Report{Upserted: len(items), Total: len(items)}, nil
}

func (m *mockIndexer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

var errIndexDown = errors.New("index down")

const rowsJSON = `[
  {"id": "007", "title": "Black Silk Slip Dress", "image_url": "https://cdn.example.com/a.jpg", "price": 120},
  {"id": 8, "title": "Cream Linen Shirt", "image_url": "https://cdn.example.com/b.jpg", "tags": ["linen", "summer"]},
  {"id": "9", "title": "", "image_url": "https://cdn.example.com/c.jpg"}
]`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
