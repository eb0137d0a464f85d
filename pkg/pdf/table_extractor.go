package pdf

import (
	"sort"
)

// tableExtractor finds ruled tables using the lines strategy: drawn
// segments are snapped and joined into edges, edge crossings become
// intersections, the smallest rectangles closed by connected intersections
// become cells, and cells sharing corners form a table.
type tableExtractor struct {
	page                  Page
	snapTolerance         float64
	joinTolerance         float64
	edgeMinLength         float64
	intersectionTolerance float64
}

// newTableExtractor creates a new table extractor with default settings
func newTableExtractor(page Page, opts ...TableExtractionOption) *tableExtractor {
	config := &tableExtractionConfig{
		SnapTolerance:         3.0,
		JoinTolerance:         3.0,
		EdgeMinLength:         3.0,
		IntersectionTolerance: 3.0,
	}

	for _, opt := range opts {
		opt(config)
	}

	return &tableExtractor{
		page:                  page,
		snapTolerance:         config.SnapTolerance,
		joinTolerance:         config.JoinTolerance,
		edgeMinLength:         config.EdgeMinLength,
		intersectionTolerance: config.IntersectionTolerance,
	}
}

// edge is an axis-aligned segment. Pos is the y of a horizontal edge or
// the x of a vertical one; From and To span the other axis.
type edge struct {
	Horizontal bool
	Pos        float64
	From       float64
	To         float64
}

func (e edge) length() float64 {
	return e.To - e.From
}

type point struct {
	X, Y float64
}

// intersection records which edges cross at a point
type intersection struct {
	hEdges map[int]bool
	vEdges map[int]bool
}

// ExtractTables extracts tables from the page, ordered top to bottom then
// left to right
func (te *tableExtractor) ExtractTables() []Table {
	edges := te.collectEdges(RulingLines(te.page))
	edges = te.snapEdges(edges)
	edges = te.joinEdges(edges)

	kept := edges[:0]
	for _, e := range edges {
		if e.length() >= te.edgeMinLength {
			kept = append(kept, e)
		}
	}
	edges = kept

	intersections := te.findIntersections(edges)
	cells := te.findCells(intersections)
	groups := groupCellsIntoTables(cells)

	chars := te.page.GetObjects().Chars
	tables := make([]Table, 0, len(groups))
	for _, group := range groups {
		tables = append(tables, te.extractTableFromCells(group, chars))
	}

	sort.SliceStable(tables, func(i, j int) bool {
		if tables[i].BBox.Y0 != tables[j].BBox.Y0 {
			return tables[i].BBox.Y0 < tables[j].BBox.Y0
		}
		return tables[i].BBox.X0 < tables[j].BBox.X0
	})

	return tables
}

// collectEdges separates lines into horizontal and vertical edges
func (te *tableExtractor) collectEdges(lines []LineObject) []edge {
	var edges []edge

	for _, line := range lines {
		bbox := line.GetBBox()
		if line.IsHorizontal(te.snapTolerance) {
			edges = append(edges, edge{
				Horizontal: true,
				Pos:        (line.Y0 + line.Y1) / 2,
				From:       bbox.X0,
				To:         bbox.X1,
			})
		} else if line.IsVertical(te.snapTolerance) {
			edges = append(edges, edge{
				Horizontal: false,
				Pos:        (line.X0 + line.X1) / 2,
				From:       bbox.Y0,
				To:         bbox.Y1,
			})
		}
	}

	return edges
}

// snapEdges moves parallel edges whose positions chain within the snap
// tolerance onto the mean position of their cluster
func (te *tableExtractor) snapEdges(edges []edge) []edge {
	var horizontal, vertical []edge
	for _, e := range edges {
		if e.Horizontal {
			horizontal = append(horizontal, e)
		} else {
			vertical = append(vertical, e)
		}
	}

	snap := func(group []edge) []edge {
		if len(group) == 0 {
			return group
		}
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Pos < group[j].Pos
		})

		start := 0
		for i := 1; i <= len(group); i++ {
			if i < len(group) && group[i].Pos-group[i-1].Pos <= te.snapTolerance {
				continue
			}
			sum := 0.0
			for _, e := range group[start:i] {
				sum += e.Pos
			}
			mean := sum / float64(i-start)
			for k := start; k < i; k++ {
				group[k].Pos = mean
			}
			start = i
		}
		return group
	}

	return append(snap(horizontal), snap(vertical)...)
}

// joinEdges merges collinear edges whose gap is within the join tolerance
func (te *tableExtractor) joinEdges(edges []edge) []edge {
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Horizontal != edges[j].Horizontal {
			return edges[i].Horizontal
		}
		if edges[i].Pos != edges[j].Pos {
			return edges[i].Pos < edges[j].Pos
		}
		return edges[i].From < edges[j].From
	})

	var result []edge
	for _, e := range edges {
		if n := len(result); n > 0 {
			last := &result[n-1]
			if last.Horizontal == e.Horizontal && last.Pos == e.Pos && e.From <= last.To+te.joinTolerance {
				last.To = max(last.To, e.To)
				continue
			}
		}
		result = append(result, e)
	}

	return result
}

// findIntersections returns every point where a vertical edge crosses a
// horizontal one, with the edges meeting there
func (te *tableExtractor) findIntersections(edges []edge) map[point]*intersection {
	tol := te.intersectionTolerance
	result := make(map[point]*intersection)

	for vi, v := range edges {
		if v.Horizontal {
			continue
		}
		for hi, h := range edges {
			if !h.Horizontal {
				continue
			}
			if v.From <= h.Pos+tol && v.To >= h.Pos-tol &&
				v.Pos >= h.From-tol && v.Pos <= h.To+tol {
				pt := point{X: v.Pos, Y: h.Pos}
				in, ok := result[pt]
				if !ok {
					in = &intersection{hEdges: map[int]bool{}, vEdges: map[int]bool{}}
					result[pt] = in
				}
				in.vEdges[vi] = true
				in.hEdges[hi] = true
			}
		}
	}

	return result
}

// findCells returns, for each intersection, the smallest rectangle whose
// corners are all intersections joined by common edges
func (te *tableExtractor) findCells(intersections map[point]*intersection) []BoundingBox {
	points := make([]point, 0, len(intersections))
	for pt := range intersections {
		points = append(points, pt)
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].X != points[j].X {
			return points[i].X < points[j].X
		}
		return points[i].Y < points[j].Y
	})

	connects := func(a, b point) bool {
		ia, ib := intersections[a], intersections[b]
		shared := func(x, y map[int]bool) bool {
			for id := range x {
				if y[id] {
					return true
				}
			}
			return false
		}
		if a.X == b.X {
			return shared(ia.vEdges, ib.vEdges)
		}
		if a.Y == b.Y {
			return shared(ia.hEdges, ib.hEdges)
		}
		return false
	}

	var cells []BoundingBox
	for i, pt := range points {
		var below, right []point
		for _, other := range points[i+1:] {
			if other.X == pt.X {
				below = append(below, other)
			}
			if other.Y == pt.Y {
				right = append(right, other)
			}
		}
		sort.Slice(right, func(a, b int) bool { return right[a].X < right[b].X })

	search:
		for _, b := range below {
			if !connects(pt, b) {
				continue
			}
			for _, r := range right {
				if !connects(pt, r) {
					continue
				}
				corner := point{X: r.X, Y: b.Y}
				if _, ok := intersections[corner]; ok && connects(corner, r) && connects(corner, b) {
					cells = append(cells, BoundingBox{X0: pt.X, Y0: pt.Y, X1: corner.X, Y1: corner.Y})
					break search
				}
			}
		}
	}

	return cells
}

// groupCellsIntoTables joins cells that share a corner. Groups holding a
// single cell are not tables.
func groupCellsIntoTables(cells []BoundingBox) [][]BoundingBox {
	parent := make([]int, len(cells))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	owner := make(map[point]int)
	for i, c := range cells {
		for _, corner := range []point{{c.X0, c.Y0}, {c.X1, c.Y0}, {c.X0, c.Y1}, {c.X1, c.Y1}} {
			if j, ok := owner[corner]; ok {
				parent[find(i)] = find(j)
			} else {
				owner[corner] = i
			}
		}
	}

	byRoot := make(map[int][]BoundingBox)
	var roots []int
	for i, c := range cells {
		r := find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], c)
	}

	var groups [][]BoundingBox
	for _, r := range roots {
		if len(byRoot[r]) > 1 {
			groups = append(groups, byRoot[r])
		}
	}
	return groups
}

// extractTableFromCells lays cells out on the grid of distinct cell tops
// and lefts; positions covered by a merged cell stay empty
func (te *tableExtractor) extractTableFromCells(cells []BoundingBox, chars []CharObject) Table {
	var xs, ys []float64
	seenX, seenY := map[float64]bool{}, map[float64]bool{}
	bbox := cells[0]
	for _, c := range cells {
		if !seenX[c.X0] {
			seenX[c.X0] = true
			xs = append(xs, c.X0)
		}
		if !seenY[c.Y0] {
			seenY[c.Y0] = true
			ys = append(ys, c.Y0)
		}
		bbox = bbox.Union(c)
	}
	sort.Float64s(xs)
	sort.Float64s(ys)

	col := make(map[float64]int, len(xs))
	for i, x := range xs {
		col[x] = i
	}
	row := make(map[float64]int, len(ys))
	for i, y := range ys {
		row[y] = i
	}

	rows := make([][]string, len(ys))
	for i := range rows {
		rows[i] = make([]string, len(xs))
	}
	for _, c := range cells {
		rows[row[c.Y0]][col[c.X0]] = te.extractCellText(c, chars)
	}

	return Table{Rows: rows, BBox: bbox}
}

// extractCellText extracts the text of characters whose center lies in the cell
func (te *tableExtractor) extractCellText(cell BoundingBox, chars []CharObject) string {
	var cellChars []CharObject
	for _, char := range chars {
		centerX := (char.X0 + char.X1) / 2
		centerY := (char.Y0 + char.Y1) / 2
		if centerX >= cell.X0 && centerX < cell.X1 && centerY >= cell.Y0 && centerY < cell.Y1 {
			cellChars = append(cellChars, char)
		}
	}
	if len(cellChars) == 0 {
		return ""
	}

	return NewPage(te.page.GetPageNumber(), cell, Objects{Chars: cellChars}).ExtractText()
}
