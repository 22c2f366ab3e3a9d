// Package hit holds per-query retrieval results.
package hit

import (
	"sort"

	"github.com/kailas-cloud/threadress/internal/domain/catalog"
)

// Signal names used in Scored.Signals.
const (
	SignalKeyword    = "keyword"
	SignalAttribute  = "attribute"
	SignalPrice      = "price"
	SignalSeason     = "season"
	SignalBrand      = "brand"
	SignalPopularity = "popularity"
)

// Raw is an index hit before re-ranking. Score is cosine similarity in [0,1].
type Raw struct {
	Item  catalog.Item
	Score float64
}

// Scored is a re-ranked hit. Built per query, never persisted.
type Scored struct {
	Item       catalog.Item
	BaseScore  float64
	FinalScore float64
	Signals    map[string]float64
	Store      string // canonical store name
	ImageURL   string // validated display image, may be empty
}

// SortRaw orders raw hits by score desc, then item ID asc.
func SortRaw(hits []Raw) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Item.ID < hits[j].Item.ID
	})
}

// SortScored orders by final score desc, then base score desc, then item ID asc.
func SortScored(hits []Scored) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if a.BaseScore != b.BaseScore {
			return a.BaseScore > b.BaseScore
		}
		return a.Item.ID < b.Item.ID
	})
}

// MergeMax keeps, per item ID, the hit with the highest final score,
// then sorts the survivors with SortScored.
func MergeMax(lists ...[]Scored) []Scored {
	best := make(map[string]int)
	var out []Scored
	for _, list := range lists {
		for _, h := range list {
			idx, ok := best[h.Item.ID]
			if !ok {
				best[h.Item.ID] = len(out)
				out = append(out, h)
				continue
			}
			if h.FinalScore > out[idx].FinalScore {
				out[idx] = h
			}
		}
	}
	SortScored(out)
	return out
}

// Truncate returns at most k hits.
func Truncate(hits []Scored, k int) []Scored {
	if k >= 0 && len(hits) > k {
		return hits[:k]
	}
	return hits
}
