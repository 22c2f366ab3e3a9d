package understanding

import (
	"slices"
	"strings"
)

// VisualAnalysis summarizes what an image query is about. It is inferred from
// the query text, the style context and the image URL, not from pixels.
type VisualAnalysis struct {
	DominantColors []string `json:"dominantColors"`
	Style          string   `json:"style"`
	Occasion       string   `json:"occasion"`
	Mood           string   `json:"mood"`
}

var dominantColorKeys = []string{
	"black", "white", "red", "blue", "green", "brown", "beige",
	"navy", "pink", "purple", "yellow", "orange", "gray", "grey",
}

var (
	visualStyles    = []keyword{{"elegant", "Elegant"}, {"casual", "Casual"}, {"formal", "Formal"}, {"edgy", "Edgy"}}
	visualOccasions = []keyword{
		{"work", "Work"}, {"party", "Party"}, {"date", "Date Night"},
		{"halloween", "Halloween"}, {"wedding", "Wedding"}, {"casual", "Casual"},
	}
	visualMoods = []keyword{
		{"sexy", "Sexy"}, {"comfortable", "Comfortable"}, {"elegant", "Elegant"}, {"playful", "Playful"},
	}
)

// AnalyzeVisual builds the visual summary for an image query.
func AnalyzeVisual(query, imageRef string, sc StyleContext) VisualAnalysis {
	q := strings.ToLower(query)
	color := strings.ToLower(sc.Color)
	ref := strings.ToLower(imageRef)

	colors := make([]string, 0, 2)
	for _, c := range dominantColorKeys {
		if !strings.Contains(q, c) && !strings.Contains(color, c) && !strings.Contains(ref, c) {
			continue
		}
		label := strings.ToUpper(c[:1]) + c[1:]
		if !slices.Contains(colors, label) {
			colors = append(colors, label)
		}
	}

	return VisualAnalysis{
		DominantColors: colors,
		Style:          firstNonEmpty(sc.Style, firstMatch(q, visualStyles), "Classic"),
		Occasion:       firstNonEmpty(sc.Occasion, firstMatch(q, visualOccasions), "General"),
		Mood:           firstNonEmpty(sc.Mood, firstMatch(q, visualMoods), "Sophisticated"),
	}
}
