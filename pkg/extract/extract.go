// Package extract derives the three views of a meal-count sheet from a PDF:
// the paste grid of the first page, the ruled bento order table and the
// per-client meal counts.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Markers found on the meal-count sheet layout
const (
	GardenMarker    = "園名"
	EndMarker       = "10001"
	RedRiceMarker   = "赤"
	NoRiceMarker    = "飯なし"
	SnackMarker     = "おやつ"
	WithRiceMarker  = "飯あり"
	CharacterMarker = "キャラ弁"
)

// Warning describes a page on which an extraction found nothing usable
type Warning struct {
	Page    int
	Message string
}

var digitsPattern = regexp.MustCompile(`^\d+$`)

// parseCount reports whether the cell holds a plain non-negative integer,
// after width folding so that full-width digits count too
func parseCount(cell string) (int, bool) {
	s := strings.TrimSpace(norm.NFKC.String(cell))
	if !digitsPattern.MatchString(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isInteger(cell string) bool {
	_, ok := parseCount(cell)
	return ok
}

// rowContains matches marker against the concatenated cells, so a marker
// split across adjacent cells is still found
func rowContains(row []string, marker string) bool {
	return strings.Contains(strings.Join(row, ""), marker)
}

func rowBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
