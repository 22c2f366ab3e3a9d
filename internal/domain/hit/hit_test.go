package hit

import (
	"testing"

	"github.com/kailas-cloud/threadress/internal/domain/catalog"
)

func scored(id string, final, base float64) Scored {
	return Scored{Item: catalog.Item{ID: id}, FinalScore: final, BaseScore: base}
}

func ids(hits []Scored) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Item.ID
	}
	return out
}

func TestSortScored_TieBreaks(t *testing.T) {
	hits := []Scored{
		scored("3", 0.8, 0.5),
		scored("2", 0.8, 0.7),
		scored("1", 0.8, 0.5),
		scored("4", 0.9, 0.1),
	}
	SortScored(hits)
	want := []string{"4", "2", "1", "3"}
	for i, id := range ids(hits) {
		if id != want[i] {
			t.Fatalf("order = %v, want %v", ids(hits), want)
		}
	}
}

func TestSortRaw(t *testing.T) {
	hits := []Raw{
		{Item: catalog.Item{ID: "b"}, Score: 0.4},
		{Item: catalog.Item{ID: "a"}, Score: 0.4},
		{Item: catalog.Item{ID: "c"}, Score: 0.9},
	}
	SortRaw(hits)
	if hits[0].Item.ID != "c" || hits[1].Item.ID != "a" || hits[2].Item.ID != "b" {
		t.Errorf("unexpected order %+v", hits)
	}
}

func TestMergeMax(t *testing.T) {
	q1 := []Scored{scored("1", 0.8, 0.6), scored("2", 0.5, 0.5)}
	q2 := []Scored{scored("1", 0.7, 0.6), scored("2", 0.9, 0.5), scored("3", 0.2, 0.2)}

	got := MergeMax(q1, q2)
	if len(got) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(got))
	}
	want := map[string]float64{"1": 0.8, "2": 0.9, "3": 0.2}
	for _, h := range got {
		if h.FinalScore != want[h.Item.ID] {
			t.Errorf("item %s: score %v, want %v", h.Item.ID, h.FinalScore, want[h.Item.ID])
		}
	}
	if got[0].Item.ID != "2" {
		t.Errorf("expected item 2 first, got %v", ids(got))
	}
}

func TestTruncate(t *testing.T) {
	hits := []Scored{scored("1", 1, 1), scored("2", 1, 1)}
	if len(Truncate(hits, 1)) != 1 || len(Truncate(hits, 5)) != 2 {
		t.Error("unexpected truncate result")
	}
}
