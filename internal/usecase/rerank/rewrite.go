package rerank

import (
	"regexp"
	"slices"
	"strings"
)

// DefaultMaxRewrites caps Rewrites, the original query included.
const DefaultMaxRewrites = 3

type synonym struct {
	term     string
	re       *regexp.Regexp
	variants []string
}

func syn(term string, variants ...string) synonym {
	return synonym{term: term, re: regexp.MustCompile("(?i)" + regexp.QuoteMeta(term)), variants: variants}
}

// Scanned in order, so the rewrites are deterministic.
var synonyms = []synonym{
	syn("dress", "gown", "frock", "outfit"),
	syn("top", "shirt", "blouse", "tee"),
	syn("pants", "trousers", "slacks"),
	syn("jacket", "blazer", "coat"),
	syn("shoes", "footwear", "sneakers", "heels"),
	syn("bag", "purse", "handbag", "tote"),
	syn("elegant", "sophisticated", "refined", "classy"),
	syn("casual", "relaxed", "comfortable", "everyday"),
	syn("sexy", "alluring", "seductive"),
	syn("comfortable", "cozy", "soft", "relaxed"),
}

// Rewrites returns the query followed by synonym substitutions, at most limit
// entries. Every occurrence of a term is replaced, case-insensitively.
//
//	Rewrites("black dress", 3) -> ["black dress", "black gown", "black frock"]
func Rewrites(query string, limit int) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultMaxRewrites
	}

	out := []string{query}
	lower := strings.ToLower(query)
	for _, s := range synonyms {
		if !strings.Contains(lower, s.term) {
			continue
		}
		for _, v := range s.variants {
			if len(out) >= limit {
				return out
			}
			rw := s.re.ReplaceAllLiteralString(query, v)
			if rw != query && !slices.Contains(out, rw) {
				out = append(out, rw)
			}
		}
	}
	return out
}
