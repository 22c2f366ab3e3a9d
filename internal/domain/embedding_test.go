package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type stubEmbedder struct {
	fail map[string]bool
	got  []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = append(s.got, text)
	if s.fail[text] {
		return EmbeddingResult{}, errors.New("provider down")
	}
	return EmbeddingResult{Embedding: []float32{float32(len(text))}, TotalTokens: 1}, nil
}

type stubImageEmbedder struct{ err error }

func (s *stubImageEmbedder) EmbedImage(_ context.Context, _ string) (EmbeddingResult, error) {
	if s.err != nil {
		return EmbeddingResult{}, s.err
	}
	return EmbeddingResult{Embedding: []float32{1, 0}}, nil
}

func TestBatchFallback_KeepsOrder(t *testing.T) {
	inner := &stubEmbedder{}
	res, err := BatchFallback(context.Background(), inner, []string{"a", "bbb", "cc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float32{1, 3, 2}
	for i, w := range want {
		if res.Embeddings[i][0] != w {
			t.Errorf("embedding[%d] = %v, want %v", i, res.Embeddings[i][0], w)
		}
	}
	if res.TotalTokens != 3 {
		t.Errorf("expected 3 total tokens, got %d", res.TotalTokens)
	}
}

func TestBatchFallback_PartialFailureLeavesNil(t *testing.T) {
	inner := &stubEmbedder{fail: map[string]bool{"bad": true}}
	res, err := BatchFallback(context.Background(), inner, []string{"ok", "bad", "fine"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(res.Embeddings))
	}
	if res.Embeddings[1] != nil {
		t.Errorf("expected nil for failed item, got %v", res.Embeddings[1])
	}
	if res.Embeddings[0] == nil || res.Embeddings[2] == nil {
		t.Error("expected surviving items to keep their vectors")
	}
}

func TestBatchFallback_AllFailed(t *testing.T) {
	inner := &stubEmbedder{fail: map[string]bool{"x": true, "y": true}}
	if _, err := BatchFallback(context.Background(), inner, []string{"x", "y"}); err == nil {
		t.Fatal("expected error when every item fails")
	}
}

func TestImageBatchFallback(t *testing.T) {
	res, err := ImageBatchFallback(context.Background(), &stubImageEmbedder{}, []string{"https://a/1.jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 1 || len(res.Embeddings[0]) != 2 {
		t.Errorf("unexpected result %+v", res)
	}

	_, err = ImageBatchFallback(context.Background(), &stubImageEmbedder{err: errors.New("boom")}, []string{"u"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	err := NewValidationError("k", "must be positive")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if err.Error() != "validation failed: k: must be positive" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestRetrievalUnavailable_KeepsCause(t *testing.T) {
	cause := context.DeadlineExceeded
	err := RetrievalUnavailable(cause)
	if !errors.Is(err, ErrRetrievalUnavailable) {
		t.Error("expected ErrRetrievalUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
}

func TestRejectsInput(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"bad request", &ProviderError{Status: 400, Msg: "input b is invalid"}, true},
		{"unprocessable wrapped", fmt.Errorf("batch embed: %w", &ProviderError{Status: 422}), true},
		{"unauthorized", &ProviderError{Status: 401}, false},
		{"forbidden", &ProviderError{Status: 403}, false},
		{"rate limited", &ProviderError{Status: 429}, false},
		{"server error", &ProviderError{Status: 503}, false},
		{"transport", fmt.Errorf("dial: %w", ErrEmbeddingProviderError), false},
		{"deadline", context.DeadlineExceeded, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RejectsInput(tt.err); got != tt.want {
				t.Errorf("RejectsInput(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestProviderError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("embed: %w", &ProviderError{Status: 400, Msg: "embedding API error 400: bad"})
	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Error("expected ErrEmbeddingProviderError")
	}
	if got := err.Error(); got != "embed: embedding API error 400: bad: embedding provider error" {
		t.Errorf("unexpected message %q", got)
	}
}
