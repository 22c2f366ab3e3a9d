package threadress

import (
	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/batch"
	"github.com/kailas-cloud/threadress/internal/domain/catalog"
	"github.com/kailas-cloud/threadress/internal/domain/hit"
	searchuc "github.com/kailas-cloud/threadress/internal/usecase/search"
)

func toInternalQuery(q Query) searchuc.Query {
	return searchuc.Query{
		Text:     q.Text,
		ImageRef: q.ImageRef,
		K:        q.K,
		Space:    domain.Space(q.Space),
	}
}

func toInternalItem(it *Item) catalog.Item {
	return catalog.Item{
		ID:            it.ID,
		Title:         it.Title,
		Description:   it.Description,
		Brand:         it.Brand,
		Category:      it.Category,
		Color:         it.Color,
		Material:      it.Material,
		Size:          it.Size,
		Style:         it.Style,
		Occasion:      it.Occasion,
		Season:        it.Season,
		Tags:          it.Tags,
		StoreName:     it.StoreName,
		StoreID:       it.StoreID,
		Address:       it.Address,
		Lat:           it.Lat,
		Lng:           it.Lng,
		Price:         it.Price,
		Currency:      it.Currency,
		ImageURL:      it.ImageURL,
		MainImageURL:  it.MainImageURL,
		HoverImageURL: it.HoverImageURL,
		ProductURL:    it.ProductURL,
	}
}

func fromInternalItem(it *catalog.Item) Item {
	return Item{
		ID:            it.ID,
		Title:         it.Title,
		Description:   it.Description,
		Brand:         it.Brand,
		Category:      it.Category,
		Color:         it.Color,
		Material:      it.Material,
		Size:          it.Size,
		Style:         it.Style,
		Occasion:      it.Occasion,
		Season:        it.Season,
		Tags:          it.Tags,
		StoreName:     it.StoreName,
		StoreID:       it.StoreID,
		Address:       it.Address,
		Lat:           it.Lat,
		Lng:           it.Lng,
		Price:         it.Price,
		Currency:      it.Currency,
		ImageURL:      it.ImageURL,
		MainImageURL:  it.MainImageURL,
		HoverImageURL: it.HoverImageURL,
		ProductURL:    it.ProductURL,
		SyncedAt:      it.SyncedAt,
	}
}

func fromInternalHits(hits []hit.Scored) []Hit {
	out := make([]Hit, len(hits))
	for i := range hits {
		h := &hits[i]
		out[i] = Hit{
			Item:      fromInternalItem(&h.Item),
			Store:     h.Store,
			ImageURL:  h.ImageURL,
			Score:     h.FinalScore,
			BaseScore: h.BaseScore,
			Signals:   h.Signals,
		}
	}
	return out
}

func fromInternalResult(r *searchuc.Result) Result {
	out := Result{
		Hits:          fromInternalHits(r.Hits),
		EnhancedQuery: r.EnhancedQuery,
		Rewrites:      r.Rewrites,
	}
	if sc := r.StyleContext; sc != nil {
		out.StyleContext = &StyleContext{
			Occasion: sc.Occasion,
			Mood:     sc.Mood,
			Fit:      sc.Fit,
			Color:    sc.Color,
			Material: sc.Material,
			Style:    sc.Style,
			Season:   sc.Season,
			Vibe:     sc.Vibe,
		}
	}
	if va := r.VisualAnalysis; va != nil {
		out.VisualAnalysis = &VisualAnalysis{
			DominantColors: va.DominantColors,
			Style:          va.Style,
			Occasion:       va.Occasion,
			Mood:           va.Mood,
		}
	}
	return out
}

func fromInternalReport(r *batch.Report) SyncReport {
	out := SyncReport{Upserted: r.Upserted, Errors: r.Errors, Total: r.Total}
	if len(r.Failures) > 0 {
		out.Failures = make([]SyncFailure, len(r.Failures))
		for i, f := range r.Failures {
			out.Failures[i] = SyncFailure{ID: f.ID, Batch: f.Batch, Err: f.Err}
		}
	}
	return out
}
