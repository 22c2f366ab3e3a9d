package rerank

import (
	"reflect"
	"testing"
)

func TestRewrites(t *testing.T) {
	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"empty", " ", 3, nil},
		{"no synonyms", "linen set", 3, []string{"linen set"}},
		{"capped", "black dress", 3, []string{"black dress", "black gown", "black frock"}},
		{"case-insensitive", "Elegant DRESS", 5, []string{
			"Elegant DRESS", "Elegant gown", "Elegant frock", "Elegant outfit", "sophisticated DRESS",
		}},
		{"all occurrences", "dress over dress", 2, []string{"dress over dress", "gown over gown"}},
		{"default limit", "sexy top", 0, []string{"sexy top", "sexy shirt", "sexy blouse"}},
		{"limit one", "black dress", 1, []string{"black dress"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rewrites(tt.query, tt.limit); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Rewrites(%q, %d) = %q, want %q", tt.query, tt.limit, got, tt.want)
			}
		})
	}
}
