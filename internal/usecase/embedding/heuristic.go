package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/threadress/internal/domain"
	"github.com/kailas-cloud/threadress/internal/domain/vector"
)

const baseImageDescription = "fashion clothing item"

// garmentDescriptions is checked in order; the first keyword found in the URL wins.
var garmentDescriptions = []struct {
	keywords    []string
	description string
}{
	{[]string{"cardigan"}, "knit cardigan sweater warm cozy casual elegant clothing outerwear"},
	{[]string{"dress"}, "dress elegant feminine formal evening party clothing fashion"},
	{[]string{"shirt"}, "shirt top blouse formal casual work office clothing fashion"},
	{[]string{"top"}, "top shirt blouse casual elegant clothing fashion"},
	{[]string{"jacket"}, "jacket outerwear coat blazer formal casual clothing fashion"},
	{[]string{"pants", "trousers"}, "pants trousers bottoms formal casual work clothing fashion"},
	{[]string{"skirt"}, "skirt feminine elegant casual formal clothing fashion"},
	{[]string{"sweater"}, "sweater knit warm cozy casual elegant clothing fashion"},
	{[]string{"blouse"}, "blouse shirt top feminine elegant formal casual clothing"},
	{[]string{"bodysuit"}, "bodysuit fitted elegant formal work office clothing fashion"},
}

// imageSuffixes are all appended when their keyword appears in the URL.
var imageSuffixes = []struct {
	keyword string
	suffix  string
}{
	{"black", "black dark elegant"},
	{"white", "white clean crisp"},
	{"blue", "blue navy professional"},
	{"red", "red bold vibrant"},
	{"green", "green natural fresh"},
	{"brown", "brown earthy warm"},
	{"beige", "beige neutral elegant"},
	{"yellow", "yellow bright cheerful"},
	{"linen", "linen natural breathable summer"},
	{"silk", "silk luxurious elegant smooth"},
	{"cotton", "cotton comfortable natural soft"},
	{"wool", "wool warm cozy winter"},
	{"satin", "satin smooth shiny elegant"},
	{"knit", "knit textured cozy warm"},
	{"jersey", "jersey stretchy comfortable casual"},
}

// DescribeImage builds a text description of an image from keywords in its URL.
func DescribeImage(imageURL string) string {
	url := strings.ToLower(imageURL)

	desc := baseImageDescription
garments:
	for _, g := range garmentDescriptions {
		for _, kw := range g.keywords {
			if strings.Contains(url, kw) {
				desc = g.description
				break garments
			}
		}
	}

	var b strings.Builder
	b.WriteString(desc)
	for _, s := range imageSuffixes {
		if strings.Contains(url, s.keyword) {
			b.WriteByte(' ')
			b.WriteString(s.suffix)
		}
	}
	return b.String()
}

// HeuristicImageEmbedder embeds the URL description with the text backend and
// zero-pads the result to the image dimensionality.
type HeuristicImageEmbedder struct {
	text domain.Embedder
	dims int
}

// NewHeuristicImageEmbedder routes image refs through a text embedder.
func NewHeuristicImageEmbedder(text domain.Embedder, dims int) *HeuristicImageEmbedder {
	return &HeuristicImageEmbedder{text: text, dims: dims}
}

// EmbedImage implements domain.ImageEmbedder.
func (h *HeuristicImageEmbedder) EmbedImage(ctx context.Context, imageURL string) (domain.EmbeddingResult, error) {
	res, err := h.text.Embed(ctx, DescribeImage(imageURL))
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed image description: %w", err)
	}
	res.Embedding = h.fit(res.Embedding)
	return res, nil
}

// BatchEmbedImages implements domain.BatchImageEmbedder.
func (h *HeuristicImageEmbedder) BatchEmbedImages(
	ctx context.Context, imageURLs []string,
) (domain.BatchEmbeddingResult, error) {
	if len(imageURLs) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	descs := make([]string, len(imageURLs))
	for i, u := range imageURLs {
		descs[i] = DescribeImage(u)
	}

	var (
		res domain.BatchEmbeddingResult
		err error
	)
	if be, ok := h.text.(domain.BatchEmbedder); ok {
		res, err = be.BatchEmbed(ctx, descs)
	} else {
		res, err = domain.BatchFallback(ctx, h.text, descs)
	}
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed image descriptions: %w", err)
	}

	for i, v := range res.Embeddings {
		if v != nil {
			res.Embeddings[i] = h.fit(v)
		}
	}
	return res, nil
}

func (h *HeuristicImageEmbedder) fit(v []float32) []float32 {
	if h.dims <= 0 {
		return v
	}
	return vector.Fit(v, h.dims)
}
