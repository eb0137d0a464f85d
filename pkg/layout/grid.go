package layout

import (
	"strings"

	"github.com/pyhub-apps/kazudashi-golang/pkg/pdf"
)

// TotalMarker marks a subtotal cell whose column header overlaps the row above
const TotalMarker = "合計"

// Grid is a table of cell strings, row major
type Grid [][]string

// Clone returns a deep copy of the grid
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Width returns the length of the longest row
func (g Grid) Width() int {
	width := 0
	for _, row := range g {
		width = max(width, len(row))
	}
	return width
}

// Cell returns the cell at row r, column c, or "" when out of range
func (g Grid) Cell(r, c int) string {
	if r < 0 || r >= len(g) || c < 0 || c >= len(g[r]) {
		return ""
	}
	return g[r][c]
}

// Assembler rebuilds a row/column grid from the positioned words of a page
type Assembler struct {
	boundaryTolerance float64
	rowTolerance      float64
	wordXTolerance    float64
	wordYTolerance    float64
}

// Option configures an Assembler
type Option func(*Assembler)

// WithBoundaryTolerance sets the vertical-line detection tolerance; column
// boundaries closer than twice this value are merged
func WithBoundaryTolerance(tolerance float64) Option {
	return func(a *Assembler) {
		a.boundaryTolerance = tolerance
	}
}

// WithRowTolerance sets how far a word's top may sit from its row anchor
func WithRowTolerance(tolerance float64) Option {
	return func(a *Assembler) {
		a.rowTolerance = tolerance
	}
}

// WithWordTolerance sets the character grouping tolerances used to build words
func WithWordTolerance(x, y float64) Option {
	return func(a *Assembler) {
		a.wordXTolerance = x
		a.wordYTolerance = y
	}
}

// NewAssembler creates an assembler with the default tolerances: boundary 2,
// row 1.5 and word 3/3
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		boundaryTolerance: 2,
		rowTolerance:      1.5,
		wordXTolerance:    3,
		wordYTolerance:    3,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the normalized grid of a page: raw rows, the cell above
// each total blanked, all-blank columns removed and rows padded to equal
// length. It returns nil when the page yields no rows.
func (a *Assembler) Assemble(page pdf.Page) Grid {
	rows := a.Rows(page)
	if len(rows) == 0 {
		return nil
	}

	grid := RemoveEmptyColumns(BlankAboveTotals(rows))
	if grid.Width() == 0 {
		return nil
	}
	return Pad(grid)
}

// Rows splits the page into rows of cells without any cleanup beyond
// dropping blank rows. When fewer than two column boundaries can be found
// each text line becomes a single-cell row.
func (a *Assembler) Rows(page pdf.Page) Grid {
	textOpts := []pdf.TextExtractionOption{
		pdf.WithXTolerance(a.wordXTolerance),
		pdf.WithYTolerance(a.wordYTolerance),
	}

	words := page.ExtractWords(textOpts...)
	if len(words) == 0 {
		return nil
	}

	boundaries := ColumnBoundaries(page.GetObjects().Lines, words, a.boundaryTolerance)
	if len(boundaries) < 2 {
		var grid Grid
		for _, line := range strings.Split(page.ExtractText(textOpts...), "\n") {
			if strings.TrimSpace(line) != "" {
				grid = append(grid, []string{line})
			}
		}
		return grid
	}

	var grid Grid
	for _, group := range GroupRows(words, a.rowTolerance) {
		row := SplitRow(group, boundaries)
		if !isBlank(row) {
			grid = append(grid, row)
		}
	}
	return grid
}

// SplitRow places each word of a left-to-right ordered row into the band
// [boundaries[i], boundaries[i+1]) holding its horizontal center. Words
// sharing a band are joined with a space. Words outside every band are
// dropped.
func SplitRow(words []pdf.Word, boundaries []float64) []string {
	if len(boundaries) < 2 {
		return nil
	}

	cells := make([]string, len(boundaries)-1)
	for _, w := range words {
		center := w.CenterX()
		for i := 0; i < len(boundaries)-1; i++ {
			if boundaries[i] <= center && center < boundaries[i+1] {
				if cells[i] != "" {
					cells[i] += " "
				}
				cells[i] += w.Text
				break
			}
		}
	}
	return cells
}

// BlankAboveTotals returns a copy of the grid in which, for every cell
// containing TotalMarker, the cell in the same column one row above is
// emptied. The input grid is not modified.
func BlankAboveTotals(g Grid) Grid {
	out := g.Clone()
	for i := 1; i < len(g); i++ {
		for j, cell := range g[i] {
			if strings.Contains(cell, TotalMarker) && j < len(out[i-1]) {
				out[i-1][j] = ""
			}
		}
	}
	return out
}

// RemoveEmptyColumns drops the columns that are blank in every row
func RemoveEmptyColumns(g Grid) Grid {
	width := g.Width()
	if width == 0 {
		return g.Clone()
	}

	keep := make([]bool, width)
	for _, row := range g {
		for j, cell := range row {
			if strings.TrimSpace(cell) != "" {
				keep[j] = true
			}
		}
	}

	out := make(Grid, len(g))
	for i := range g {
		newRow := []string{}
		for j := 0; j < width; j++ {
			if keep[j] {
				newRow = append(newRow, g.Cell(i, j))
			}
		}
		out[i] = newRow
	}
	return out
}

// Pad right-pads every row with empty strings to the grid width
func Pad(g Grid) Grid {
	width := g.Width()
	out := make(Grid, len(g))
	for i, row := range g {
		padded := make([]string, width)
		copy(padded, row)
		out[i] = padded
	}
	return out
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
