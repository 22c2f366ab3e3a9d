package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/vector"
	"github.com/kailas-cloud/threadress/internal/transport/openai"
)

func newTestAdapter(text domain.Embedder, image domain.ImageEmbedder) *Adapter {
	return NewAdapter(text, image, Options{
		TextDim:      4,
		ImageDim:     6,
		TextTimeout:  time.Second,
		ImageTimeout: time.Second,
	}, zap.NewNop())
}

func TestEmbedImageBatch_PerItemFailurePreservesOrder(t *testing.T) {
	img := &mockImageEmbedder{vecFor: func(url string) ([]float32, error) {
		switch url {
		case "https://img/1.jpg":
			return vec(6, 1), nil
		case "https://img/2.jpg":
			return nil, errors.New("404 fetching image")
		case "https://img/3.jpg":
			return vec(4, 0), nil // wrong dims
		}
		return vec(6, 5), nil
	}}
	a := newTestAdapter(&mockEmbedder{}, img)

	refs := []string{"https://img/1.jpg", "https://img/2.jpg", "https://img/3.jpg", "https://img/4.jpg"}
	b := a.EmbedImageBatch(context.Background(), refs)

	if b.Err != nil {
		t.Fatalf("per-item failures must not fail the batch: %v", b.Err)
	}
	if len(b.Vectors) != len(refs) || len(b.Degraded) != len(refs) {
		t.Fatalf("length not preserved: %d vectors, %d flags", len(b.Vectors), len(b.Degraded))
	}
	wantDegraded := []bool{false, true, true, false}
	for i, want := range wantDegraded {
		if b.Degraded[i] != want {
			t.Errorf("item %d degraded = %v, want %v", i, b.Degraded[i], want)
		}
		if len(b.Vectors[i]) != 6 {
			t.Errorf("item %d has %d dims, want 6", i, len(b.Vectors[i]))
		}
	}
	if b.Vectors[0][1] != 1 || b.Vectors[3][5] != 1 {
		t.Error("successful items out of order")
	}
	if !vector.IsZero(b.Vectors[1]) || !vector.IsZero(b.Vectors[2]) {
		t.Error("failed items must be zero vectors")
	}
	if b.DegradedCount() != 2 {
		t.Errorf("DegradedCount = %d, want 2", b.DegradedCount())
	}
}

func TestEmbedTextBatch_NilEntryDegrades(t *testing.T) {
	text := &mockEmbedder{batchResult: domain.BatchEmbeddingResult{
		Embeddings: [][]float32{vec(4, 0), nil, vec(4, 2)},
	}}
	b := newTestAdapter(text, nil).EmbedTextBatch(context.Background(), []string{"a", "b", "c"})

	if b.Err != nil {
		t.Fatalf("unexpected batch error: %v", b.Err)
	}
	if !b.Degraded[1] || b.Degraded[0] || b.Degraded[2] {
		t.Errorf("unexpected degraded flags: %v", b.Degraded)
	}
	if len(b.Vectors[1]) != 4 {
		t.Errorf("degraded vector must have declared length, got %d", len(b.Vectors[1]))
	}
}

func TestEmbedTextBatch_BackendDown(t *testing.T) {
	text := &mockEmbedder{batchErr: errors.New("401 missing api key")}
	b := newTestAdapter(text, nil).EmbedTextBatch(context.Background(), []string{"a", "b"})

	if !errors.Is(b.Err, domain.ErrBackendDegraded) {
		t.Fatalf("expected ErrBackendDegraded, got %v", b.Err)
	}
	if len(b.Vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(b.Vectors))
	}
	for i, v := range b.Vectors {
		if len(v) != 4 || !vector.IsZero(v) || !b.Degraded[i] {
			t.Errorf("item %d should be a degraded zero vector of length 4: %v", i, v)
		}
	}
}

func TestEmbedTextBatch_LengthMismatchDegradesAll(t *testing.T) {
	text := &mockEmbedder{batchResult: domain.BatchEmbeddingResult{Embeddings: [][]float32{vec(4, 0)}}}
	b := newTestAdapter(text, nil).EmbedTextBatch(context.Background(), []string{"a", "b"})

	if !errors.Is(b.Err, domain.ErrBackendDegraded) {
		t.Fatalf("expected ErrBackendDegraded, got %v", b.Err)
	}
}

func TestEmbedTextBatch_Timeout(t *testing.T) {
	text := &mockEmbedder{block: true}
	a := NewAdapter(text, nil, Options{TextDim: 4, TextTimeout: 20 * time.Millisecond}, zap.NewNop())

	start := time.Now()
	b := a.EmbedTextBatch(context.Background(), []string{"a"})

	if time.Since(start) > time.Second {
		t.Fatal("timeout not applied")
	}
	if !errors.Is(b.Err, domain.ErrBackendDegraded) || !errors.Is(b.Err, context.DeadlineExceeded) {
		t.Fatalf("expected degraded deadline error, got %v", b.Err)
	}
}

func TestEmbedBatch_EmptyInputNoCall(t *testing.T) {
	text := &mockEmbedder{}
	img := &mockImageEmbedder{vecFor: func(string) ([]float32, error) { return nil, nil }}
	a := newTestAdapter(text, img)

	if b := a.EmbedTextBatch(context.Background(), nil); len(b.Vectors) != 0 || b.Err != nil {
		t.Errorf("expected empty batch, got %+v", b)
	}
	if b := a.EmbedImageBatch(context.Background(), []string{}); len(b.Vectors) != 0 || b.Err != nil {
		t.Errorf("expected empty batch, got %+v", b)
	}
	if text.batchCalls != 0 || img.calls != 0 {
		t.Error("empty input must not reach the backend")
	}
}

func TestEmbedSingle(t *testing.T) {
	text := &mockEmbedder{result: domain.EmbeddingResult{Embedding: vec(4, 3)}}
	a := newTestAdapter(text, nil)

	v, degraded := a.EmbedTextSingle(context.Background(), "red dress")
	if degraded || v[3] != 1 {
		t.Errorf("unexpected single result: %v degraded=%v", v, degraded)
	}
	if text.batchSizes[0] != 1 {
		t.Errorf("single must be a batch of one, got %d", text.batchSizes[0])
	}

	// нет image бэкенда: деградация, не паника
	iv, degraded := a.EmbedImageSingle(context.Background(), "https://img/x.jpg")
	if !degraded || len(iv) != 6 || !vector.IsZero(iv) {
		t.Errorf("expected degraded zero image vector, got %v", iv)
	}
}

// rejectingServer is an OpenAI-compatible /embeddings endpoint that answers
// 400 for any request whose input contains "b".
func rejectingServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if slices.Contains(req.Input, "b") {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"input b is invalid","type":"invalid_request_error"}}`))
			return
		}
		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		for i := range req.Input {
			data[i] = item{Object: "embedding", Embedding: vec(4, i+1), Index: i}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "m",
			"data":   data,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestEmbedTextBatch_RejectedInputDegradesOnlyThatItem(t *testing.T) {
	srv, requests := rejectingServer(t)
	text := openai.NewEmbedder(&openai.Config{APIKey: "k", BaseURL: srv.URL, Model: "m", Dimensions: 4})

	b := newTestAdapter(text, nil).EmbedTextBatch(context.Background(), []string{"a", "b", "c"})

	if b.Err != nil {
		t.Fatalf("one rejected input must not fail the batch: %v", b.Err)
	}
	want := []bool{false, true, false}
	for i := range want {
		if b.Degraded[i] != want[i] {
			t.Errorf("item %d degraded = %v, want %v", i, b.Degraded[i], want[i])
		}
		if len(b.Vectors[i]) != 4 {
			t.Errorf("item %d has %d dims, want 4", i, len(b.Vectors[i]))
		}
	}
	if !vector.IsZero(b.Vectors[1]) || vector.IsZero(b.Vectors[0]) || vector.IsZero(b.Vectors[2]) {
		t.Errorf("unexpected vectors: %v", b.Vectors)
	}
	// один батч и по запросу на элемент
	if got := requests.Load(); got != 4 {
		t.Errorf("expected 4 backend requests, got %d", got)
	}
}

func TestEmbedTextBatch_AuthFailureNotRetried(t *testing.T) {
	text := &mockEmbedder{batchErr: &domain.ProviderError{Status: http.StatusUnauthorized, Msg: "bad key"}}
	b := newTestAdapter(text, nil).EmbedTextBatch(context.Background(), []string{"a", "b"})

	if !errors.Is(b.Err, domain.ErrBackendDegraded) || !errors.Is(b.Err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected degraded provider error, got %v", b.Err)
	}
	if b.DegradedCount() != 2 {
		t.Errorf("expected both items degraded, got %d", b.DegradedCount())
	}
	if text.batchCalls != 1 {
		t.Errorf("auth failure must not be retried, got %d batch calls", text.batchCalls)
	}
}

// batchImageEmbedder rejects any batch containing a bad ref, the way a CLIP
// server answers 422 for one unreadable image.
type batchImageEmbedder struct {
	mockImageEmbedder
	bad        string
	batchCalls int
}

func (m *batchImageEmbedder) BatchEmbedImages(_ context.Context, refs []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	if slices.Contains(refs, m.bad) {
		return domain.BatchEmbeddingResult{}, &domain.ProviderError{Status: http.StatusUnprocessableEntity, Msg: "unreadable image"}
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(refs))}
	for i := range refs {
		out.Embeddings[i] = vec(6, i)
	}
	return out, nil
}

func TestEmbedImageBatch_RejectedRefRetriedPerItem(t *testing.T) {
	img := &batchImageEmbedder{bad: "https://img/broken.jpg"}
	img.vecFor = func(url string) ([]float32, error) {
		if url == img.bad {
			return nil, &domain.ProviderError{Status: http.StatusUnprocessableEntity, Msg: "unreadable image"}
		}
		return vec(6, 2), nil
	}

	b := newTestAdapter(&mockEmbedder{}, img).EmbedImageBatch(context.Background(),
		[]string{"https://img/1.jpg", "https://img/broken.jpg"})

	if b.Err != nil {
		t.Fatalf("unexpected batch error: %v", b.Err)
	}
	if b.Degraded[0] || !b.Degraded[1] {
		t.Errorf("degraded = %v, want [false true]", b.Degraded)
	}
	if img.batchCalls != 1 || img.calls != 2 {
		t.Errorf("expected 1 batch call and 2 single calls, got %d and %d", img.batchCalls, img.calls)
	}
}
