package layout

import (
	"math"
	"sort"

	"github.com/pyhub-apps/kazudashi-golang/pkg/pdf"
)

// GroupRows clusters words into text rows. Words are visited top to bottom
// and join the current row while their top is within tolerance of the top
// of the row's first word. The anchor never moves, so a gently sloping line
// of words may stay in one row even when its ends are further apart than
// tolerance. Each row is ordered left to right.
func GroupRows(words []pdf.Word, tolerance float64) [][]pdf.Word {
	if len(words) == 0 {
		return nil
	}

	sorted := make([]pdf.Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Top() < sorted[j].Top()
	})

	var groups [][]pdf.Word
	current := []pdf.Word{sorted[0]}
	anchor := sorted[0].Top()

	for _, w := range sorted[1:] {
		if math.Abs(w.Top()-anchor) <= tolerance {
			current = append(current, w)
			continue
		}
		groups = append(groups, current)
		current = []pdf.Word{w}
		anchor = w.Top()
	}
	groups = append(groups, current)

	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool {
			return g[i].X0 < g[j].X0
		})
	}

	return groups
}
