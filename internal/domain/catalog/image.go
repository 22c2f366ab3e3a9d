package catalog

import (
	"net/url"
	"strings"
)

const minImageURLLen = 8

// ImageFieldPriority is the display priority of image fields found in raw catalog payloads.
var ImageFieldPriority = []string{
	"Main_Image_URL", "main_image_url", "Main Image URL",
	"Hover_Image_URL", "hover_image_url", "Hover Image URL",
	"url", "image_url", "imageUrl", "Image_URL", "ImageUrl",
	"image", "Image",
	"Product Image", "main-product-image src", "main-product-image-src",
}

// ValidImageURL reports whether s is an absolute http(s) image URL and not inline data.
func ValidImageURL(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < minImageURLLen {
		return false
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "data:") || strings.Contains(lower, "data:image") || strings.Contains(lower, ";base64,") {
		return false
	}
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Host != ""
}

// ImageURLs filters candidates down to valid URLs, deduplicated case-insensitively,
// keeping the first occurrence order.
func ImageURLs(candidates ...string) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !ValidImageURL(c) {
			continue
		}
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// PickImageURL returns the best display image from a raw field map, or "".
func PickImageURL(fields map[string]string) string {
	candidates := make([]string, 0, len(ImageFieldPriority))
	for _, k := range ImageFieldPriority {
		candidates = append(candidates, fields[k])
	}
	if urls := ImageURLs(candidates...); len(urls) > 0 {
		return urls[0]
	}
	return ""
}

// BestImageURL returns the best display image for an item, or "".
func (it *Item) BestImageURL() string {
	if urls := ImageURLs(it.ImageCandidates()...); len(urls) > 0 {
		return urls[0]
	}
	return ""
}
