package catalog

import (
	"strconv"
	"strings"
)

// RowDefaults fills gaps in sheet-style catalog rows.
type RowDefaults struct {
	Brand    string  `yaml:"brand"`
	Currency string  `yaml:"currency"`
	StoreID  int64   `yaml:"store_id"`
	Address  string  `yaml:"address"`
	Lat      float64 `yaml:"lat"`
	Lng      float64 `yaml:"lng"`
}

// DefaultRowDefaults matches the flagship store export.
func DefaultRowDefaults() RowDefaults {
	return RowDefaults{
		Brand:    "Maniere de Voir",
		Currency: "USD",
		StoreID:  1,
		Address:  "521 Broadway, Soho, NYC",
		Lat:      40.7258074,
		Lng:      -73.9952559,
	}
}

// Row is one raw catalog record keyed by column header.
type Row map[string]string

// first returns the first non-blank value among keys.
func (r Row) first(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

var (
	titleKeys   = []string{"text-unset", "text", "title", "Title"}
	brandKeys   = []string{"text-unset 2", "brand", "Brand"}
	imageKeys   = []string{"main-product-image src", "image_url", "url", "Url", "URL"}
	productKeys = []string{"main-product-inner href", "product_url", "Product_URL"}
	priceKeys   = []string{"actual-price1", "price", "Price"}
)

// Valid reports whether the row carries a title and a primary image.
func (r Row) Valid() bool {
	return r.first(titleKeys...) != "" && r.first(imageKeys...) != ""
}

// FromRow maps a sheet row (store export or legacy layout) to an Item.
// Rows without an explicit id get StableID of their most stable field.
// The returned item is validated.
func FromRow(r Row, d RowDefaults) (Item, error) {
	title := r.first(titleKeys...)
	imageURL := r.first(imageKeys...)
	productURL := r.first(productKeys...)

	id := r.first("id", "product_id", "ID")
	if id == "" {
		id = strconv.FormatUint(StableID(IDSeed(productURL, imageURL, title)), 10)
	}
	canonicalID, err := ParseID(id)
	if err != nil {
		return Item{}, err
	}

	rawPrice := r.first(priceKeys...)
	price, currency := ParsePrice(rawPrice)
	if currency == "" {
		currency = r.first("currency", "Currency")
	}
	if currency == "" {
		currency = d.Currency
	}

	item := Item{
		ID:            canonicalID,
		Title:         title,
		Description:   orDefault(r.first("description", "Description"), title),
		Brand:         orDefault(r.first(brandKeys...), d.Brand),
		Category:      r.first("category", "Category"),
		Color:         r.first("color", "Color"),
		Material:      r.first("material", "Material"),
		Size:          r.first("size", "Size", "size-sold"),
		Style:         r.first("style", "Style"),
		Occasion:      r.first("occasion", "Occasion"),
		Season:        r.first("season", "Season"),
		Tags:          ParseTags(r.first("tags", "Tags")),
		StoreName:     orDefault(r.first("store_name", "storeName", "StoreName"), d.Brand),
		StoreID:       parseInt(r.first("store_id", "Store", "StoreID"), d.StoreID),
		Address:       orDefault(r.first("address", "Address"), d.Address),
		Lat:           parseFloat(r.first("lat", "Lat"), d.Lat),
		Lng:           parseFloat(r.first("lng", "Lng"), d.Lng),
		Price:         price,
		Currency:      currency,
		ImageURL:      imageURL,
		MainImageURL:  r.first("Main_Image_URL", "main_image_url", "Main Image URL"),
		HoverImageURL: r.first("Hover_Image_URL", "hover_image_url", "Hover Image URL"),
		ProductURL:    productURL,
	}
	if err := item.Validate(); err != nil {
		return Item{}, err
	}
	return item, nil
}

// ParsePrice strips currency symbols and thousands separators.
// The currency is inferred from the symbol, "" when none is present.
func ParsePrice(raw string) (float64, string) {
	currency := ""
	switch {
	case strings.Contains(raw, "£"):
		currency = "GBP"
	case strings.Contains(raw, "€"):
		currency = "EUR"
	case strings.Contains(raw, "$"):
		currency = "USD"
	}
	cleaned := strings.NewReplacer("£", "", "€", "", "$", "", ",", "", " ", "").Replace(raw)
	p, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || p < 0 {
		return 0, currency
	}
	return p, currency
}

func orDefault(v, d string) string {
	if v != "" {
		return v
	}
	return d
}

func parseInt(s string, d int64) int64 {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n != 0 {
		return n
	}
	return d
}

func parseFloat(s string, d float64) float64 {
	if f, err := strconv.ParseFloat(s, 64); err == nil && f != 0 {
		return f
	}
	return d
}
