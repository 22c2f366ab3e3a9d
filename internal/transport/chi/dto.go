package chi

import (
	"bytes"
	"encoding/json"

	"github.com/kailas-cloud/threadress/internal/domain/batch"
	"github.com/kailas-cloud/threadress/internal/domain/catalog"
	"github.com/kailas-cloud/threadress/internal/domain/hit"
	"github.com/kailas-cloud/threadress/internal/usecase/understanding"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest           = "bad_request"
	CodeUnauthorized         = "unauthorized"
	CodeValidationFailed     = "validation_failed"
	CodeNotFound             = "not_found"
	CodeRetrievalUnavailable = "retrieval_unavailable"
	CodeEmbeddingProvider    = "embedding_provider_error"
	CodeTimeout              = "timeout"
	CodeInternal             = "internal_error"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// SearchRequest is the POST body of both search endpoints. GET uses the same
// names as query parameters.
type SearchRequest struct {
	Text     string `json:"text"`
	ImageRef string `json:"imageRef"`
	K        int    `json:"k"`
	Space    string `json:"space,omitempty"`
}

// SearchResponse carries ranked hits and what the query was understood as.
type SearchResponse struct {
	Hits           []HitResponse                 `json:"hits"`
	Count          int                           `json:"count"`
	EnhancedQuery  string                        `json:"enhancedQuery,omitempty"`
	StyleContext   *understanding.StyleContext   `json:"styleContext,omitempty"`
	VisualAnalysis *understanding.VisualAnalysis `json:"visualAnalysis,omitempty"`
	Rewrites       []string                      `json:"rewrites,omitempty"`
}

// ItemResponse is the serialized form of a stored item.
type ItemResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Brand       string   `json:"brand,omitempty"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price"`
	Currency    string   `json:"currency,omitempty"`
	Store       string   `json:"store"`
	Color       string   `json:"color,omitempty"`
	Material    string   `json:"material,omitempty"`
	Size        string   `json:"size,omitempty"`
	Style       string   `json:"style,omitempty"`
	Occasion    string   `json:"occasion,omitempty"`
	Season      string   `json:"season,omitempty"`
	Tags        []string `json:"tags"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	ProductURL  string   `json:"productUrl,omitempty"`
	Lat         float64  `json:"lat,omitempty"`
	Lng         float64  `json:"lng,omitempty"`
}

// HitResponse is one ranked hit. Score is the final score.
type HitResponse struct {
	ItemResponse
	Score     float64            `json:"score"`
	BaseScore float64            `json:"baseScore"`
	Signals   map[string]float64 `json:"signals"`
}

// ItemPayload is one item posted to the sync endpoint.
type ItemPayload struct {
	ID            flexID   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Brand         string   `json:"brand"`
	Category      string   `json:"category"`
	Color         string   `json:"color"`
	Material      string   `json:"material"`
	Size          string   `json:"size"`
	Style         string   `json:"style"`
	Occasion      string   `json:"occasion"`
	Season        string   `json:"season"`
	Tags          []string `json:"tags"`
	StoreName     string   `json:"storeName"`
	StoreID       int64    `json:"storeId"`
	Address       string   `json:"address"`
	Lat           float64  `json:"lat"`
	Lng           float64  `json:"lng"`
	Price         float64  `json:"price"`
	Currency      string   `json:"currency"`
	ImageURL      string   `json:"imageUrl"`
	MainImageURL  string   `json:"mainImageUrl"`
	HoverImageURL string   `json:"hoverImageUrl"`
	ProductURL    string   `json:"productUrl"`
}

// SyncRequest posts structured items, sheet-style rows, or both.
type SyncRequest struct {
	Items []ItemPayload `json:"items"`
	Rows  []catalog.Row `json:"rows"`
}

// SyncResponse reports the indexing outcome. Failures is capped.
type SyncResponse struct {
	Upserted int               `json:"upserted"`
	Errors   int               `json:"errors"`
	Total    int               `json:"total"`
	Failures []FailureResponse `json:"failures,omitempty"`
}

// FailureResponse names one item that was not written.
type FailureResponse struct {
	ID     string `json:"id"`
	Batch  int    `json:"batch,omitempty"`
	Reason string `json:"reason"`
}

// InventoryResponse is one scroll page.
type InventoryResponse struct {
	Items      []ItemResponse `json:"items"`
	Total      int            `json:"total"`
	Offset     int            `json:"offset"`
	NextOffset *int           `json:"nextOffset"`
}

// flexID accepts both "42" and 42.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (p *ItemPayload) toItem() catalog.Item {
	return catalog.Item{
		ID:            string(p.ID),
		Title:         p.Title,
		Description:   p.Description,
		Brand:         p.Brand,
		Category:      p.Category,
		Color:         p.Color,
		Material:      p.Material,
		Size:          p.Size,
		Style:         p.Style,
		Occasion:      p.Occasion,
		Season:        p.Season,
		Tags:          p.Tags,
		StoreName:     p.StoreName,
		StoreID:       p.StoreID,
		Address:       p.Address,
		Lat:           p.Lat,
		Lng:           p.Lng,
		Price:         p.Price,
		Currency:      p.Currency,
		ImageURL:      p.ImageURL,
		MainImageURL:  p.MainImageURL,
		HoverImageURL: p.HoverImageURL,
		ProductURL:    p.ProductURL,
	}
}

func itemToResponse(it *catalog.Item, store, imageURL string) ItemResponse {
	var price *float64
	if it.Price > 0 {
		p := it.Price
		price = &p
	}
	tags := it.Tags
	if tags == nil {
		tags = []string{}
	}
	return ItemResponse{
		ID:          it.ID,
		Title:       it.Title,
		Brand:       it.Brand,
		Category:    it.Category,
		Description: it.Description,
		Price:       price,
		Currency:    it.Currency,
		Store:       store,
		Color:       it.Color,
		Material:    it.Material,
		Size:        it.Size,
		Style:       it.Style,
		Occasion:    it.Occasion,
		Season:      it.Season,
		Tags:        tags,
		ImageURL:    imageURL,
		ProductURL:  it.ProductURL,
		Lat:         it.Lat,
		Lng:         it.Lng,
	}
}

func hitToResponse(h *hit.Scored) HitResponse {
	signals := h.Signals
	if signals == nil {
		signals = map[string]float64{}
	}
	return HitResponse{
		ItemResponse: itemToResponse(&h.Item, h.Store, h.ImageURL),
		Score:        h.FinalScore,
		BaseScore:    h.BaseScore,
		Signals:      signals,
	}
}

func failuresToResponse(fs []batch.Failure, limit int) []FailureResponse {
	if len(fs) > limit {
		fs = fs[:limit]
	}
	out := make([]FailureResponse, 0, len(fs))
	for _, f := range fs {
		out = append(out, FailureResponse{ID: f.ID, Batch: f.Batch, Reason: safeDomainMessage(f.Err)})
	}
	return out
}
