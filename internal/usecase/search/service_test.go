package search

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/hit"
	"github.com/kailas-cloud/threadress/internal/domain/vector"
	"github.com/kailas-cloud/threadress/internal/usecase/rerank"
)

func newService(a *mockAnalyzer, r *mockRetriever, e Enhancer) *Service {
	if e == nil {
		e = rerank.NewEnhancer(nil, 0)
	}
	return New(a, r, e, Options{CombinedDim: 4}, nil)
}

func TestSearch_EmptyQueryShortCircuits(t *testing.T) {
	a, r := newMockAnalyzer(), &mockRetriever{hits: []hit.Raw{raw("1", 0.9)}}
	svc := newService(a, r, nil)

	for _, q := range []Query{{}, {Text: "   "}, {Text: "\t", ImageRef: " "}} {
		res, err := svc.Search(context.Background(), q)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Hits == nil || len(res.Hits) != 0 {
			t.Errorf("expected empty non-nil hits, got %v", res.Hits)
		}
	}
	if r.callCount() != 0 {
		t.Errorf("expected zero index calls, got %d", r.callCount())
	}
	if len(a.queries()) != 0 {
		t.Errorf("expected zero analyzer calls, got %d", len(a.queries()))
	}

	res, err := svc.MultiQuerySearch(context.Background(), Query{})
	if err != nil || len(res.Hits) != 0 || r.callCount() != 0 {
		t.Errorf("multi: expected short-circuit, got %v hits, err=%v, calls=%d", len(res.Hits), err, r.callCount())
	}
}

func TestSearch_Validation(t *testing.T) {
	tests := []struct {
		name  string
		q     Query
		field string
	}{
		{"negative k", Query{Text: "dress", K: -1}, "k"},
		{"k over max", Query{Text: "dress", K: 101}, "k"},
		{"relative image ref", Query{ImageRef: "/img/a.jpg"}, "imageRef"},
		{"data uri", Query{ImageRef: "data:image/png;base64,AAAA"}, "imageRef"},
		{"unknown space", Query{Text: "dress", Space: "audio"}, "space"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &mockRetriever{}
			svc := newService(newMockAnalyzer(), r, nil)

			_, err := svc.Search(context.Background(), tt.q)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
			if r.callCount() != 0 {
				t.Error("index must not be called on invalid input")
			}
		})
	}
}

func TestSearch_Pipeline(t *testing.T) {
	a := newMockAnalyzer()
	r := &mockRetriever{hits: []hit.Raw{raw("2", 0.5), raw("1", 0.6)}}
	svc := newService(a, r, nil)

	res, err := svc.Search(context.Background(), Query{Text: "item 2", K: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Hits) != 2 || res.Hits[0].Item.ID != "2" {
		t.Fatalf("keyword match should lift item 2 first, got %+v", res.Hits)
	}
	if res.EnhancedQuery != "item 2 enhanced" {
		t.Errorf("enhanced query = %q", res.EnhancedQuery)
	}
	if res.StyleContext == nil {
		t.Error("expected style context")
	}
	if res.VisualAnalysis != nil {
		t.Error("no image, no visual analysis")
	}

	call := r.calls[0]
	if call.space != domain.SpaceCombined {
		t.Errorf("space = %q, want combined", call.space)
	}
	if call.limit != 100 {
		t.Errorf("retrieval limit = %d, want candidates 100", call.limit)
	}
	if len(call.vec) != 4 || math.Abs(vector.Norm(call.vec)-1) > 1e-6 {
		t.Errorf("expected unit query vector of combined dim, got %v", call.vec)
	}
}

func TestSearch_DefaultK(t *testing.T) {
	e := &mockEnhancer{}
	svc := newService(newMockAnalyzer(), &mockRetriever{}, e)

	if _, err := svc.Search(context.Background(), Query{Text: "dress"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.lastK != 20 {
		t.Errorf("expected default k 20, got %d", e.lastK)
	}
}

func TestSearch_ImageOnly(t *testing.T) {
	a := newMockAnalyzer()
	r := &mockRetriever{hits: []hit.Raw{raw("1", 0.5)}}
	svc := newService(a, r, nil)

	res, err := svc.Search(context.Background(), Query{ImageRef: "https://cdn.example.com/black-dress.jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.VisualAnalysis == nil {
		t.Fatal("expected visual analysis for an image query")
	}
	if r.calls[0].vec[3] == 0 {
		t.Error("image vector should reach the fused query")
	}
}

func TestSearch_ImageRefReachesEnhancer(t *testing.T) {
	e := &mockEnhancer{scores: map[string]map[string]float64{"dress": {"1": 0.9}}}
	svc := newService(newMockAnalyzer(), &mockRetriever{hits: []hit.Raw{raw("1", 0.5)}}, e)

	ref := "https://cdn.example.com/black-dress.jpg"
	if _, err := svc.Search(context.Background(), Query{Text: "dress", ImageRef: ref}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.lastRef != ref {
		t.Errorf("enhancer got image ref %q, want %q", e.lastRef, ref)
	}
}

func TestSearch_SpaceSelection(t *testing.T) {
	r := &mockRetriever{}
	svc := newService(newMockAnalyzer(), r, nil)

	if _, err := svc.Search(context.Background(), Query{Text: "dress", Space: domain.SpaceText}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.calls[0].space != domain.SpaceText || len(r.calls[0].vec) != 3 {
		t.Errorf("expected text space with text dim, got %q/%d", r.calls[0].space, len(r.calls[0].vec))
	}
}

func TestSearch_RetrievalUnavailable(t *testing.T) {
	r := &mockRetriever{err: domain.RetrievalUnavailable(errors.New("dial tcp: refused"))}
	svc := newService(newMockAnalyzer(), r, nil)

	res, err := svc.Search(context.Background(), Query{Text: "dress"})
	if !errors.Is(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
	if res.Hits != nil {
		t.Error("an index failure must not look like an empty success")
	}
}

func TestMultiQuerySearch_MergeTakesMax(t *testing.T) {
	a := newMockAnalyzer()
	r := &mockRetriever{hits: []hit.Raw{raw("x", 0.5), raw("y", 0.5)}}
	e := &mockEnhancer{scores: map[string]map[string]float64{
		"black dress": {"x": 0.7, "y": 0.8},
		"black gown":  {"x": 0.9, "y": 0.2},
		"black frock": {"x": 0.1, "y": 0.3},
	}}
	svc := newService(a, r, e)

	res, err := svc.MultiQuerySearch(context.Background(), Query{Text: "black dress", K: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Hits) != 2 {
		t.Fatalf("expected 2 merged hits, got %d", len(res.Hits))
	}
	if res.Hits[0].Item.ID != "x" || res.Hits[0].FinalScore != 0.9 {
		t.Errorf("expected x with max 0.9 first, got %s %.2f", res.Hits[0].Item.ID, res.Hits[0].FinalScore)
	}
	if res.Hits[1].Item.ID != "y" || res.Hits[1].FinalScore != 0.8 {
		t.Errorf("expected y with max 0.8, got %s %.2f", res.Hits[1].Item.ID, res.Hits[1].FinalScore)
	}
	if len(res.Rewrites) != 3 || res.Rewrites[0] != "black dress" {
		t.Errorf("unexpected rewrites: %v", res.Rewrites)
	}
	if r.callCount() != 3 {
		t.Errorf("expected one retrieval per rewrite, got %d", r.callCount())
	}
	if res.EnhancedQuery != "black dress enhanced" {
		t.Errorf("explainability should come from the base query, got %q", res.EnhancedQuery)
	}
}

func TestMultiQuerySearch_TruncatesToK(t *testing.T) {
	r := &mockRetriever{hits: []hit.Raw{raw("a", 0.9), raw("b", 0.8), raw("c", 0.7)}}
	svc := newService(newMockAnalyzer(), r, &mockEnhancer{})

	res, err := svc.MultiQuerySearch(context.Background(), Query{Text: "black dress", K: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Hits) != 2 || res.Hits[0].Item.ID != "a" || res.Hits[1].Item.ID != "b" {
		t.Errorf("unexpected hits: %+v", res.Hits)
	}
}

func TestMultiQuerySearch_FailurePropagates(t *testing.T) {
	r := &mockRetriever{err: domain.RetrievalUnavailable(errors.New("timeout"))}
	svc := newService(newMockAnalyzer(), r, &mockEnhancer{})

	_, err := svc.MultiQuerySearch(context.Background(), Query{Text: "black dress"})
	if !errors.Is(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
}

func TestMultiQuerySearch_ImageOnly(t *testing.T) {
	a := newMockAnalyzer()
	r := &mockRetriever{hits: []hit.Raw{raw("1", 0.5)}}
	svc := newService(a, r, &mockEnhancer{})

	res, err := svc.MultiQuerySearch(context.Background(), Query{ImageRef: "https://cdn.example.com/a.jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Hits) != 1 || r.callCount() != 1 {
		t.Errorf("expected a single image pass, got %d hits / %d calls", len(res.Hits), r.callCount())
	}
	if res.Rewrites != nil {
		t.Errorf("image-only search has no rewrites, got %v", res.Rewrites)
	}
}

func TestSearch_AnalyzerErrorPropagates(t *testing.T) {
	a := newMockAnalyzer()
	a.err = context.Canceled
	r := &mockRetriever{}
	svc := newService(a, r, nil)

	_, err := svc.Search(context.Background(), Query{Text: "dress"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if r.callCount() != 0 {
		t.Error("retrieval must not run after a failed analysis")
	}
}
