package catalog

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/google/uuid"

	"github.com/kailas-cloud/threadress/internal/domain"
)

const stableIDModulus = 2147483647

// ParseID validates an item identifier and returns its canonical form.
// Accepted: an unsigned decimal integer or a UUID.
func ParseID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", domain.NewValidationError("id", "id is required")
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return strconv.FormatUint(n, 10), nil
	}
	if u, err := uuid.Parse(s); err == nil {
		return u.String(), nil
	}
	return "", domain.NewValidationError("id", "must be an unsigned integer or UUID")
}

// StableID derives a 31-bit numeric identifier from a seed string.
// It mirrors the 32-bit "hash*31 + code unit" string hash so that IDs stay
// stable across re-syncs of the same catalog row.
func StableID(seed string) uint64 {
	var h int32
	for _, cu := range utf16.Encode([]rune(seed)) {
		h = (h << 5) - h + int32(cu)
	}
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	return uint64(abs % stableIDModulus)
}

// IDSeed picks the most stable identifying value: product URL, then image URL, then title.
func IDSeed(productURL, imageURL, title string) string {
	for _, s := range []string{productURL, imageURL, title} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
