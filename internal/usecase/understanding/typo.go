package understanding

import (
	"slices"
	"strings"
)

// typoThreshold is the minimum similarity for a word to count as a misspelling.
const typoThreshold = 0.7

type fashionTerm struct {
	correct    string
	variations []string
}

// fashionTerms is ordered: corrections are appended in this order.
var fashionTerms = []fashionTerm{
	{"dress", []string{"dres", "dreses", "dresess", "dresz", "drss"}},
	{"cardigan", []string{"cardign", "cardgan", "cardigan"}},
	{"sweater", []string{"sweater", "sweeter", "sweter", "swaeter"}},
	{"jacket", []string{"jacket", "jackett", "jaket", "jakcet"}},
	{"shirt", []string{"shirt", "shrit", "shrt"}},
	{"pants", []string{"pants", "pant", "pnts", "pantz"}},
	{"jeans", []string{"jeans", "jean", "jeens", "jens"}},
	{"blouse", []string{"blouse", "blouce", "bluse", "blouze"}},
	{"skirt", []string{"skirt", "skrt", "skrit"}},
	{"top", []string{"top", "tp", "topp"}},
	{"black", []string{"black", "blak", "blck", "blac"}},
	{"white", []string{"white", "whit", "whte"}},
	{"red", []string{"red", "re", "rd"}},
	{"blue", []string{"blue", "blu", "bleu"}},
	{"elegant", []string{"elegant", "elegnt", "elgant", "elegan"}},
	{"casual", []string{"casual", "casul", "casula"}},
	{"formal", []string{"formal", "forml", "forma"}},
	{"sexy", []string{"sexy", "secy", "sex"}},
	{"vintage", []string{"vintage", "vintag", "vintge"}},
	{"silk", []string{"silk", "sil", "slik"}},
	{"cotton", []string{"cotton", "coton", "cotn", "cottn"}},
	{"leather", []string{"leather", "lether", "leathr", "leathe"}},
}

// CorrectTypos lowercases the query and appends the canonical spelling of every
// fashion term a word resembles. Duplicate words are dropped, first one wins.
//
//	"elegnt blak dres" -> "elegnt blak dres elegant black dress"
func CorrectTypos(query string) string {
	lower := strings.ToLower(strings.TrimSpace(query))
	if lower == "" {
		return ""
	}

	words := strings.Fields(lower)
	expanded := make([]string, 0, len(words)*2)
	for _, w := range words {
		expanded = append(expanded, w)
		for _, term := range fashionTerms {
			if matchesTerm(w, term) && !slices.Contains(expanded, term.correct) {
				expanded = append(expanded, term.correct)
			}
		}
	}

	out := lower
	if joined := strings.Join(expanded, " "); joined != lower {
		out = lower + " " + joined
	}
	return dedupeWords(out)
}

func matchesTerm(word string, term fashionTerm) bool {
	for _, v := range term.variations {
		if Similarity(word, v) > typoThreshold {
			return true
		}
	}
	return word != term.correct && Similarity(word, term.correct) > typoThreshold
}

// Similarity is 1 - levenshtein/maxLen. Two empty strings are identical.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// Levenshtein returns the edit distance between a and b, counted in runes.
func Levenshtein(a, b string) int {
	return levenshtein([]rune(a), []rune(b))
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func dedupeWords(s string) string {
	words := strings.Fields(s)
	seen := make(map[string]struct{}, len(words))
	out := words[:0]
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}
