package rerank

import (
	"math"
	"strings"
	"unicode"

	"github.com/kailas-cloud/threadress/internal/domain/catalog"
)

// Neutral is the score of a signal the query says nothing about.
const Neutral = 0.5

var stopWords = toSet(
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "has", "in",
	"is", "it", "its", "of", "on", "or", "that", "the", "this", "to", "was", "with",
	"me", "my", "i", "some", "something", "looking", "want", "need",
)

// Word lists a query can assert attributes with.
var (
	colorWords = toSet(
		"red", "blue", "green", "yellow", "black", "white", "pink", "purple", "orange",
		"brown", "gray", "grey", "navy", "beige", "tan", "cream", "ivory", "maroon",
		"burgundy", "teal", "turquoise", "coral", "salmon", "mint", "lavender", "rose",
		"gold", "silver", "bronze",
	)
	materialWords = toSet(
		"cotton", "linen", "silk", "wool", "cashmere", "polyester", "nylon", "spandex",
		"leather", "suede", "denim", "jersey", "satin", "velvet", "chiffon", "organza",
		"tulle", "mesh", "lace", "knit",
	)
	occasionWords = toSet(
		"wedding", "party", "work", "office", "formal", "casual", "date", "evening",
		"beach", "vacation", "travel", "gym", "dinner", "brunch", "cocktail", "interview",
	)
	categoryWords = toSet(
		"dress", "top", "shirt", "blouse", "pants", "trousers", "jeans", "skirt", "jacket",
		"coat", "blazer", "cardigan", "sweater", "jumper", "shorts", "jumpsuit", "romper",
		"suit", "bag", "shoes", "heels", "sneakers", "boots", "sandals", "earrings",
		"necklace", "bracelet",
	)
	popularTags = []string{"trending", "popular", "bestseller", "new", "featured"}
)

type priceBand struct {
	words    []string
	min, max float64
}

// Checked in order; the first band with a word in the query wins.
var priceBands = []priceBand{
	{[]string{"budget", "affordable", "cheap"}, 0, 50},
	{[]string{"mid-range", "moderate"}, 50, 150},
	{[]string{"luxury", "designer", "premium"}, 150, 1000},
	{[]string{"expensive", "high-end"}, 200, 1000},
}

// Tokenize splits s into lowercase words on anything that is not a letter or digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// queryTerms is the token set of the query without stop words.
func queryTerms(query string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range Tokenize(query) {
		if _, stop := stopWords[t]; stop {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// KeywordMatch is the share of query terms found among the item's title,
// description and tag words. Literal word containment, no fuzzing.
func KeywordMatch(query string, it *catalog.Item) float64 {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return 0
	}
	words := toSet(Tokenize(it.Title + " " + it.Description + " " + strings.Join(it.Tags, " "))...)

	found := 0
	for _, t := range terms {
		if _, ok := words[t]; ok {
			found++
		}
	}
	return float64(found) / float64(len(terms))
}

// AttributeMatch averages color, material, occasion and category agreement over
// the attributes the query asserts. Neutral when it asserts none.
func AttributeMatch(query string, it *catalog.Item) float64 {
	tokens := Tokenize(query)
	text := strings.ToLower(it.Title + " " + it.Description)

	checks := []struct {
		words  map[string]struct{}
		values []string
	}{
		{colorWords, []string{orText(it.Color, text)}},
		{materialWords, []string{orText(it.Material, text)}},
		{occasionWords, []string{orText(it.Occasion, text)}},
		{categoryWords, []string{strings.ToLower(it.Category), strings.ToLower(it.Title)}},
	}

	asserted, matched := 0, 0
	for _, c := range checks {
		want := firstIn(tokens, c.words)
		if want == "" {
			continue
		}
		asserted++
		for _, v := range c.values {
			if strings.Contains(v, want) {
				matched++
				break
			}
		}
	}
	if asserted == 0 {
		return Neutral
	}
	return float64(matched) / float64(asserted)
}

// PriceRelevance scores the item price against the band the query implies.
func PriceRelevance(query string, price float64) float64 {
	band, ok := impliedBand(strings.ToLower(query))
	if !ok || price <= 0 {
		return Neutral
	}
	if price >= band.min && price <= band.max {
		return 1
	}
	if price < band.min*0.5 || price > band.max*1.5 {
		return 0
	}
	d := min(math.Abs(price-band.min), math.Abs(price-band.max))
	score := Neutral * (1 - d/(band.max-band.min))
	return min(max(score, 0), Neutral)
}

// SeasonRelevance is 1 when the season named by the query appears in the
// item's season or tags. The clock is never consulted.
func SeasonRelevance(season string, it *catalog.Item) float64 {
	s := strings.ToLower(season)
	if s == "" {
		return Neutral
	}
	if strings.Contains(strings.ToLower(it.Season), s) {
		return 1
	}
	for _, t := range it.Tags {
		if strings.Contains(strings.ToLower(t), s) {
			return 1
		}
	}
	return Neutral
}

// BrandAffinity is 1 when the query names the item's brand or canonical store.
func BrandAffinity(query, brand, store string) float64 {
	q := strings.ToLower(query)
	for _, name := range []string{brand, store} {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || name == strings.ToLower(catalog.UnknownStore) {
			continue
		}
		if strings.Contains(q, name) {
			return 1
		}
	}
	return Neutral
}

// Popularity is 1 for items tagged as trending, popular, bestseller, new or featured.
func Popularity(it *catalog.Item) float64 {
	for _, t := range it.Tags {
		t = strings.ToLower(t)
		for _, p := range popularTags {
			if strings.Contains(t, p) {
				return 1
			}
		}
	}
	return Neutral
}

func impliedBand(q string) (priceBand, bool) {
	for _, b := range priceBands {
		for _, w := range b.words {
			if strings.Contains(q, w) {
				return b, true
			}
		}
	}
	return priceBand{}, false
}

func firstIn(tokens []string, set map[string]struct{}) string {
	for _, t := range tokens {
		if _, ok := set[t]; ok {
			return t
		}
	}
	return ""
}

func orText(v, text string) string {
	if v = strings.TrimSpace(v); v != "" {
		return strings.ToLower(v)
	}
	return text
}

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
