// Package catalog holds the inventory item model and the pure helpers around it:
// ID parsing, searchable text, image URL selection, store canonicalization.
package catalog

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kailas-cloud/threadress/internal/domain"
)

const (
	// MaxDescriptionRunes bounds the description part of the searchable text.
	MaxDescriptionRunes = 1500
	// PreviewRunes is the length of the stored text preview.
	PreviewRunes = 240
)

// Item is one sellable product as indexed and retrieved.
type Item struct {
	ID          string
	Title       string
	Description string
	Brand       string
	Category    string
	Color       string
	Material    string
	Size        string
	Style       string
	Occasion    string
	Season      string
	Tags        []string

	StoreName string
	StoreID   int64
	Address   string
	Lat       float64
	Lng       float64

	Price    float64 // <= 0 means unknown
	Currency string

	ImageURL      string
	MainImageURL  string
	HoverImageURL string
	ProductURL    string

	SyncedAt time.Time
}

// Validate checks the ingestion predicate: descriptive text and a primary image.
func (it *Item) Validate() error {
	if strings.TrimSpace(it.Title) == "" && strings.TrimSpace(it.Description) == "" {
		return domain.NewValidationError("title", "item needs a title or description")
	}
	if strings.TrimSpace(it.ImageURL) == "" {
		return domain.NewValidationError("image_url", "item needs a primary image")
	}
	return nil
}

// SearchText joins the descriptive fields into the text that gets embedded.
// Description defaults to the title and is whitespace-collapsed and capped.
func (it *Item) SearchText() string {
	desc := it.Description
	if strings.TrimSpace(desc) == "" {
		desc = it.Title
	}
	desc = truncateRunes(strings.Join(strings.Fields(desc), " "), MaxDescriptionRunes)

	parts := []string{
		it.Title, it.Brand, it.Category, desc,
		it.Color, it.Material, it.Size, it.Style, it.Occasion, it.Season,
		strings.Join(it.Tags, ", "),
	}
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " | ")
}

// Preview is the head of SearchText stored alongside the vectors.
func (it *Item) Preview() string {
	return truncateRunes(it.SearchText(), PreviewRunes)
}

// DisplayStore is the raw store label shown to users before canonicalization.
func (it *Item) DisplayStore() string {
	if s := strings.TrimSpace(it.StoreName); s != "" {
		return s
	}
	return strings.TrimSpace(it.Brand)
}

// ImageCandidates lists the item's own image fields in display priority order.
func (it *Item) ImageCandidates() []string {
	return []string{it.MainImageURL, it.HoverImageURL, it.ImageURL}
}

// HasTag reports whether any tag equals one of the given values, case-insensitively.
func (it *Item) HasTag(values ...string) bool {
	for _, t := range it.Tags {
		for _, v := range values {
			if strings.EqualFold(strings.TrimSpace(t), v) {
				return true
			}
		}
	}
	return false
}

// ParseTags splits a comma or pipe separated tag string.
func ParseTags(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '|' || r == ';' })
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			tags = append(tags, f)
		}
	}
	return tags
}

// FormatPrice renders a price for storage; unknown prices become empty.
func FormatPrice(p float64) string {
	if p <= 0 {
		return ""
	}
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
