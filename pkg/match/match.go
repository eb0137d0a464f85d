// Package match reconciles item names read from a PDF with the names of a
// product catalog. Names are compared after Unicode compatibility folding, so
// full-width and half-width spellings agree, and names cut short by the form
// layout are retried with progressively fewer trailing runes.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxTruncation is the largest number of trailing runes dropped from a name
// before it is reported as unmatched
const maxTruncation = 3

// CatalogItem is one product in the catalog being matched against
type CatalogItem struct {
	Name      string
	PackCount string
}

// Result is the outcome of matching one extracted name
type Result struct {
	RawName     string
	MatchedName string
	PackCount   string
	Matched     bool
	// Index is the position of the matched item in the catalog, -1 when
	// nothing matched
	Index int
}

// Normalize folds s with NFKC and removes every whitespace rune. It is
// idempotent.
func Normalize(s string) string {
	for {
		next := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, norm.NFKC.String(s))
		if next == s {
			return next
		}
		s = next
	}
}

// Match looks up every name in the catalog and returns one result per name,
// in input order. The first catalog item whose normalized name starts with
// the normalized extracted name wins; failing that, the first one containing
// it. When neither rule hits, the name is shortened by one, two and then
// three runes and both rules are retried at each length.
func Match(names []string, catalog []CatalogItem) []Result {
	normalized := make([]string, len(catalog))
	for i, item := range catalog {
		normalized[i] = Normalize(item.Name)
	}

	results := make([]Result, 0, len(names))
	for _, name := range names {
		results = append(results, matchOne(name, catalog, normalized))
	}
	return results
}

func matchOne(name string, catalog []CatalogItem, normalized []string) Result {
	raw := strings.TrimSpace(name)
	unmatched := Result{RawName: raw, Index: -1}

	key := []rune(Normalize(raw))
	if len(key) == 0 {
		return unmatched
	}

	if i := lookup(string(key), normalized); i >= 0 {
		return matched(raw, catalog, i)
	}

	for n := 1; n <= maxTruncation && len(key) > n; n++ {
		if i := lookup(string(key[:len(key)-n]), normalized); i >= 0 {
			return matched(raw, catalog, i)
		}
	}

	return unmatched
}

func lookup(key string, normalized []string) int {
	for i, candidate := range normalized {
		if candidate != "" && strings.HasPrefix(candidate, key) {
			return i
		}
	}
	for i, candidate := range normalized {
		if candidate != "" && strings.Contains(candidate, key) {
			return i
		}
	}
	return -1
}

func matched(raw string, catalog []CatalogItem, i int) Result {
	return Result{
		RawName:     raw,
		MatchedName: catalog[i].Name,
		PackCount:   catalog[i].PackCount,
		Matched:     true,
		Index:       i,
	}
}
