// Package rerank blends raw vector similarity with deterministic lexical and
// attribute signals. Every sub-score is kept on the hit for explainability.
package rerank

import (
	"strings"

	"github.com/kailas-cloud/threadress/internal/domain/catalog"
	"github.com/kailas-cloud/threadress/internal/domain/hit"
	"github.com/kailas-cloud/threadress/internal/usecase/understanding"
)

// DefaultFinalFloor is the minimum final score a hit needs to be returned.
const DefaultFinalFloor = 0.1

// Weights are additive: finalScore = baseScore + Σ weight·signal.
type Weights struct {
	Price      float64
	Season     float64
	Brand      float64
	Popularity float64
	Attribute  float64
	Keyword    float64
}

// DefaultWeights returns the stock signal weights.
func DefaultWeights() Weights {
	return Weights{
		Price:      0.1,
		Season:     0.1,
		Brand:      0.1,
		Popularity: 0.05,
		Attribute:  0.2,
		Keyword:    0.25,
	}
}

// Enhancer re-ranks raw hits.
type Enhancer struct {
	stores     *catalog.StoreTable
	finalFloor float64
}

// NewEnhancer creates an Enhancer. A nil store table means the built-in aliases.
func NewEnhancer(stores *catalog.StoreTable, finalFloor float64) *Enhancer {
	if stores == nil {
		stores = catalog.NewStoreTable()
	}
	if finalFloor <= 0 {
		finalFloor = DefaultFinalFloor
	}
	return &Enhancer{stores: stores, finalFloor: finalFloor}
}

// Enhance scores every raw hit, drops those under the final floor, orders by
// final score, base score, then ID, and keeps at most k. k <= 0 keeps all.
// imageRef is part of the query but no signal reads it yet.
func (e *Enhancer) Enhance(query, _ string, raws []hit.Raw, w Weights, k int) []hit.Scored {
	season := understanding.ExtractStyle(query).Season

	out := make([]hit.Scored, 0, len(raws))
	for _, r := range raws {
		s := e.score(query, season, r, w)
		if s.FinalScore < e.finalFloor {
			continue
		}
		out = append(out, s)
	}

	hit.SortScored(out)
	if k > 0 {
		out = hit.Truncate(out, k)
	}
	return out
}

// Canonical exposes the store table used for display names.
func (e *Enhancer) Canonical(raw string) string {
	return e.stores.Canonical(raw)
}

func (e *Enhancer) score(query, season string, r hit.Raw, w Weights) hit.Scored {
	it := r.Item
	store := e.stores.Canonical(it.DisplayStore())
	if strings.TrimSpace(it.Brand) != "" {
		it.Brand = e.stores.Canonical(it.Brand)
	}
	if strings.TrimSpace(it.StoreName) != "" {
		it.StoreName = e.stores.Canonical(it.StoreName)
	}

	signals := map[string]float64{
		hit.SignalKeyword:    KeywordMatch(query, &r.Item),
		hit.SignalAttribute:  AttributeMatch(query, &r.Item),
		hit.SignalPrice:      PriceRelevance(query, it.Price),
		hit.SignalSeason:     SeasonRelevance(season, &r.Item),
		hit.SignalBrand:      BrandAffinity(query, r.Item.Brand, store),
		hit.SignalPopularity: Popularity(&r.Item),
	}

	final := r.Score +
		w.Keyword*signals[hit.SignalKeyword] +
		w.Attribute*signals[hit.SignalAttribute] +
		w.Price*signals[hit.SignalPrice] +
		w.Season*signals[hit.SignalSeason] +
		w.Brand*signals[hit.SignalBrand] +
		w.Popularity*signals[hit.SignalPopularity]

	return hit.Scored{
		Item:       it,
		BaseScore:  r.Score,
		FinalScore: final,
		Signals:    signals,
		Store:      store,
		ImageURL:   it.BestImageURL(),
	}
}
