package inventory

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/catalog"
)

// Hash field names. Vector fields hold FLOAT32 little-endian blobs.
const (
	fieldID            = "id"
	fieldTitle         = "title"
	fieldDescription   = "description"
	fieldBrand         = "brand"
	fieldCategory      = "category"
	fieldColor         = "color"
	fieldMaterial      = "material"
	fieldSize          = "size"
	fieldStyle         = "style"
	fieldOccasion      = "occasion"
	fieldSeason        = "season"
	fieldTags          = "tags"
	fieldStoreName     = "store_name"
	fieldStoreID       = "store_id"
	fieldAddress       = "address"
	fieldLat           = "lat"
	fieldLng           = "lng"
	fieldPrice         = "price"
	fieldCurrency      = "currency"
	fieldImageURL      = "url"
	fieldMainImageURL  = "main_image_url"
	fieldHoverImageURL = "hover_image_url"
	fieldProductURL    = "product_url"
	fieldPreview       = "text_preview"
	fieldSyncedAt      = "synced_at"
)

// payloadFields is what KNN and scroll return. Vectors are never read back.
var payloadFields = []string{
	fieldID, fieldTitle, fieldDescription, fieldBrand, fieldCategory,
	fieldColor, fieldMaterial, fieldSize, fieldStyle, fieldOccasion, fieldSeason, fieldTags,
	fieldStoreName, fieldStoreID, fieldAddress, fieldLat, fieldLng,
	fieldPrice, fieldCurrency,
	fieldImageURL, fieldMainImageURL, fieldHoverImageURL, fieldProductURL,
	fieldPreview, fieldSyncedAt,
}

// vectorField maps a space to its hash field.
func vectorField(s domain.Space) string {
	return string(s) + "_vector"
}

func isVectorField(name string) bool {
	for _, s := range domain.Spaces() {
		if name == vectorField(s) {
			return true
		}
	}
	return false
}

// isNumericField reports fields indexed or parsed as numbers.
func isNumericField(name string) bool {
	switch name {
	case fieldPrice, fieldStoreID, fieldLat, fieldLng:
		return true
	}
	return false
}

// buildHashFields flattens an item into hash fields. Empty values are skipped
// so that HGETALL round-trips leave zero values.
func buildHashFields(it *catalog.Item) map[string]string {
	m := make(map[string]string, len(payloadFields)+3)
	put := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			m[k] = v
		}
	}

	put(fieldID, it.ID)
	put(fieldTitle, it.Title)
	put(fieldDescription, it.Description)
	put(fieldBrand, it.Brand)
	put(fieldCategory, it.Category)
	put(fieldColor, it.Color)
	put(fieldMaterial, it.Material)
	put(fieldSize, it.Size)
	put(fieldStyle, it.Style)
	put(fieldOccasion, it.Occasion)
	put(fieldSeason, it.Season)
	put(fieldTags, strings.Join(it.Tags, ","))
	put(fieldStoreName, it.StoreName)
	if it.StoreID != 0 {
		m[fieldStoreID] = strconv.FormatInt(it.StoreID, 10)
	}
	put(fieldAddress, it.Address)
	if it.Lat != 0 || it.Lng != 0 {
		m[fieldLat] = strconv.FormatFloat(it.Lat, 'f', -1, 64)
		m[fieldLng] = strconv.FormatFloat(it.Lng, 'f', -1, 64)
	}
	put(fieldPrice, catalog.FormatPrice(it.Price))
	put(fieldCurrency, it.Currency)
	put(fieldImageURL, it.ImageURL)
	put(fieldMainImageURL, it.MainImageURL)
	put(fieldHoverImageURL, it.HoverImageURL)
	put(fieldProductURL, it.ProductURL)
	put(fieldPreview, it.Preview())
	if !it.SyncedAt.IsZero() {
		m[fieldSyncedAt] = it.SyncedAt.UTC().Format(time.RFC3339)
	}
	return m
}

// parseHashFields rebuilds an item from payload fields. Unparseable numerics
// are left at zero; id falls back to the key suffix.
func parseHashFields(id string, m map[string]string) catalog.Item {
	it := catalog.Item{
		ID:            id,
		Title:         m[fieldTitle],
		Description:   m[fieldDescription],
		Brand:         m[fieldBrand],
		Category:      m[fieldCategory],
		Color:         m[fieldColor],
		Material:      m[fieldMaterial],
		Size:          m[fieldSize],
		Style:         m[fieldStyle],
		Occasion:      m[fieldOccasion],
		Season:        m[fieldSeason],
		Tags:          catalog.ParseTags(m[fieldTags]),
		StoreName:     m[fieldStoreName],
		Address:       m[fieldAddress],
		Currency:      m[fieldCurrency],
		ImageURL:      m[fieldImageURL],
		MainImageURL:  m[fieldMainImageURL],
		HoverImageURL: m[fieldHoverImageURL],
		ProductURL:    m[fieldProductURL],
	}
	if v := m[fieldID]; v != "" {
		it.ID = v
	}
	if v, err := strconv.ParseInt(m[fieldStoreID], 10, 64); err == nil {
		it.StoreID = v
	}
	if v, err := strconv.ParseFloat(m[fieldLat], 64); err == nil {
		it.Lat = v
	}
	if v, err := strconv.ParseFloat(m[fieldLng], 64); err == nil {
		it.Lng = v
	}
	if v, err := strconv.ParseFloat(m[fieldPrice], 64); err == nil {
		it.Price = v
	}
	if v, err := time.Parse(time.RFC3339, m[fieldSyncedAt]); err == nil {
		it.SyncedAt = v
	}
	return it
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
