package understanding

import "strings"

// DefaultVibe is reported when the query names no mood, style or occasion.
const DefaultVibe = "Elegant"

// StyleContext holds the attributes detected in a query. Empty means not detected.
type StyleContext struct {
	Occasion string `json:"occasion,omitempty"`
	Mood     string `json:"mood,omitempty"`
	Fit      string `json:"fit,omitempty"`
	Color    string `json:"color,omitempty"`
	Material string `json:"material,omitempty"`
	Style    string `json:"style,omitempty"`
	Season   string `json:"season,omitempty"`
	Vibe     string `json:"vibe"`
}

type keyword struct {
	key, label string
}

// Tables are scanned in order; the first key contained in the query wins.
var (
	occasionKeywords = []keyword{
		{"halloween", "Halloween"}, {"party", "Party"}, {"night out", "Night Out"},
		{"date night", "Date Night"}, {"work", "Work"}, {"office", "Office"},
		{"casual", "Casual"}, {"formal", "Formal"}, {"wedding", "Wedding"},
		{"cocktail", "Cocktail"}, {"dinner", "Dinner"}, {"vacation", "Vacation"},
		{"resort", "Resort"}, {"gym", "Gym"}, {"workout", "Workout"},
		{"beach", "Beach"}, {"summer", "Summer"}, {"winter", "Winter"},
		{"fall", "Fall"}, {"spring", "Spring"},
	}
	moodKeywords = []keyword{
		{"sexy", "Sexy"}, {"elegant", "Elegant"}, {"edgy", "Edgy"},
		{"romantic", "Romantic"}, {"playful", "Playful"}, {"sophisticated", "Sophisticated"},
		{"minimalist", "Minimalist"}, {"bohemian", "Bohemian"}, {"vintage", "Vintage"},
		{"modern", "Modern"}, {"classic", "Classic"}, {"trendy", "Trendy"},
		{"chic", "Chic"}, {"glamorous", "Glamorous"}, {"casual", "Casual"},
		{"comfortable", "Comfortable"},
	}
	fitKeywords = []keyword{
		{"tight", "Tight"}, {"fitted", "Fitted"}, {"loose", "Loose"},
		{"oversized", "Oversized"}, {"cropped", "Cropped"}, {"long", "Long"},
		{"short", "Short"}, {"high-waisted", "High-Waisted"}, {"low-waisted", "Low-Waisted"},
		{"cinched", "Cinched"}, {"belted", "Belted"}, {"flowy", "Flowy"},
		{"structured", "Structured"}, {"relaxed", "Relaxed"}, {"bodycon", "Bodycon"},
		{"a-line", "A-Line"}, {"wrap", "Wrap"}, {"asymmetric", "Asymmetric"},
	}
	colorKeywords = []keyword{
		{"black", "Black"}, {"white", "White"}, {"red", "Red"}, {"blue", "Blue"},
		{"green", "Green"}, {"yellow", "Yellow"}, {"pink", "Pink"}, {"purple", "Purple"},
		{"orange", "Orange"}, {"brown", "Brown"}, {"beige", "Beige"}, {"navy", "Navy"},
		{"burgundy", "Burgundy"}, {"maroon", "Maroon"}, {"cream", "Cream"}, {"ivory", "Ivory"},
		{"gray", "Gray"}, {"grey", "Grey"}, {"silver", "Silver"}, {"gold", "Gold"},
		{"metallic", "Metallic"}, {"neutral", "Neutral"}, {"dark", "Dark"}, {"light", "Light"},
		{"bright", "Bright"}, {"pastel", "Pastel"},
	}
	materialKeywords = []keyword{
		{"silk", "Silk"}, {"satin", "Satin"}, {"velvet", "Velvet"}, {"leather", "Leather"},
		{"denim", "Denim"}, {"cotton", "Cotton"}, {"linen", "Linen"}, {"wool", "Wool"},
		{"cashmere", "Cashmere"}, {"jersey", "Jersey"}, {"knit", "Knit"}, {"lace", "Lace"},
		{"sequin", "Sequin"}, {"metallic", "Metallic"}, {"sheer", "Sheer"}, {"mesh", "Mesh"},
		{"organza", "Organza"}, {"chiffon", "Chiffon"}, {"tulle", "Tulle"},
		{"faux fur", "Faux Fur"}, {"suede", "Suede"}, {"polyester", "Polyester"},
		{"viscose", "Viscose"}, {"rayon", "Rayon"},
	}
	styleKeywords = []keyword{
		{"minimalist", "Minimalist"}, {"bohemian", "Bohemian"}, {"boho", "Bohemian"},
		{"vintage", "Vintage"}, {"retro", "Retro"}, {"modern", "Modern"},
		{"classic", "Classic"}, {"contemporary", "Contemporary"}, {"edgy", "Edgy"},
		{"romantic", "Romantic"}, {"preppy", "Preppy"}, {"streetwear", "Streetwear"},
		{"athleisure", "Athleisure"}, {"gothic", "Gothic"}, {"punk", "Punk"},
		{"grunge", "Grunge"},
	}
	seasonKeywords = []keyword{
		{"summer", "Summer"}, {"winter", "Winter"}, {"fall", "Fall"},
		{"autumn", "Fall"}, {"spring", "Spring"},
	}
)

// ExtractStyle detects style attributes by substring match on the lowercased query.
func ExtractStyle(query string) StyleContext {
	q := strings.ToLower(query)
	sc := StyleContext{
		Occasion: firstMatch(q, occasionKeywords),
		Mood:     firstMatch(q, moodKeywords),
		Fit:      firstMatch(q, fitKeywords),
		Color:    firstMatch(q, colorKeywords),
		Material: firstMatch(q, materialKeywords),
		Style:    firstMatch(q, styleKeywords),
		Season:   firstMatch(q, seasonKeywords),
	}
	sc.Vibe = firstNonEmpty(sc.Mood, sc.Style, sc.Occasion, DefaultVibe)
	return sc
}

// Detected reports whether any attribute was found. The default vibe does not count.
func (sc StyleContext) Detected() bool {
	return len(sc.Words()) > 0
}

// Words lists the detected attributes in enhancement order without repeats.
// Season is left out: it feeds re-ranking, not the embedding text.
func (sc StyleContext) Words() []string {
	vibe := sc.Vibe
	if sc.Mood == "" && sc.Style == "" && sc.Occasion == "" {
		vibe = ""
	}
	candidates := []string{vibe, sc.Mood, sc.Occasion, sc.Style, sc.Fit, sc.Color, sc.Material}

	out := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func firstMatch(q string, table []keyword) string {
	for _, kw := range table {
		if strings.Contains(q, kw.key) {
			return kw.label
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
