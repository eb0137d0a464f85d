package layout

import (
	"math"
	"sort"

	"github.com/pyhub-apps/kazudashi-golang/pkg/pdf"
)

// ColumnBoundaries estimates the x-coordinates that delimit the columns of a
// page. Candidates are the midpoints of near-vertical lines (|x0-x1| below
// tolerance) and the left and right extents of the words, all rounded to
// 0.1pt. Candidates closer than 2*tolerance to the previous kept boundary are
// dropped, except that the word extents always replace the candidate they
// collide with, so both extents survive the merge.
//
// The result is strictly ascending. With no words it holds only the line
// midpoints.
func ColumnBoundaries(lines []pdf.LineObject, words []pdf.Word, tolerance float64) []float64 {
	var xs []float64
	for _, line := range lines {
		if line.IsVertical(tolerance) {
			xs = append(xs, round1((line.X0+line.X1)/2))
		}
	}

	if len(words) == 0 {
		return uniqueSorted(xs)
	}

	left, right := words[0].X0, words[0].X1
	for _, w := range words[1:] {
		left = math.Min(left, w.X0)
		right = math.Max(right, w.X1)
	}
	left, right = round1(left), round1(right)

	candidates := uniqueSorted(append(xs, left, right))

	merged := []float64{candidates[0]}
	for _, b := range candidates[1:] {
		last := merged[len(merged)-1]
		switch {
		case b-last > tolerance*2:
			merged = append(merged, b)
		case b == right && last == left:
			merged = append(merged, b)
		case b == left || b == right:
			merged[len(merged)-1] = b
		}
	}

	return merged
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func uniqueSorted(xs []float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	out := sorted[:1]
	for _, x := range sorted[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
