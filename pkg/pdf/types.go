package pdf

import "math"

// BoundingBox represents a rectangular area with coordinates.
// Coordinates are page-relative with the origin at the top-left corner.
type BoundingBox struct {
	X0 float64 // Left
	Y0 float64 // Top
	X1 float64 // Right
	Y1 float64 // Bottom
}

// Width returns the width of the bounding box
func (b BoundingBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the height of the bounding box
func (b BoundingBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Contains checks if a point is within the bounding box
func (b BoundingBox) Contains(x, y float64) bool {
	return x >= b.X0 && x <= b.X1 && y >= b.Y0 && y <= b.Y1
}

// Intersects checks if two bounding boxes intersect
func (b BoundingBox) Intersects(other BoundingBox) bool {
	return !(b.X1 < other.X0 || b.X0 > other.X1 || b.Y1 < other.Y0 || b.Y0 > other.Y1)
}

// Union returns the smallest box covering both boxes
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	return BoundingBox{
		X0: min(b.X0, other.X0),
		Y0: min(b.Y0, other.Y0),
		X1: max(b.X1, other.X1),
		Y1: max(b.Y1, other.Y1),
	}
}

// Objects represents the geometric objects found on a page
type Objects struct {
	Chars []CharObject
	Lines []LineObject
	Rects []RectObject
}

// CharObject represents a single glyph in the PDF
type CharObject struct {
	Text     string
	Font     string
	FontSize float64
	X0       float64
	Y0       float64
	X1       float64
	Y1       float64
}

// GetBBox returns the character's bounding box
func (c CharObject) GetBBox() BoundingBox {
	return BoundingBox{X0: c.X0, Y0: c.Y0, X1: c.X1, Y1: c.Y1}
}

// Width returns the advance width of the character
func (c CharObject) Width() float64 {
	return c.X1 - c.X0
}

// LineObject represents a drawn line segment in the PDF.
// Y0 and Y1 are the endpoints' vertical positions measured from the top.
type LineObject struct {
	X0    float64
	Y0    float64
	X1    float64
	Y1    float64
	Width float64
}

// GetBBox returns the line's bounding box
func (l LineObject) GetBBox() BoundingBox {
	return BoundingBox{
		X0: min(l.X0, l.X1),
		Y0: min(l.Y0, l.Y1),
		X1: max(l.X0, l.X1),
		Y1: max(l.Y0, l.Y1),
	}
}

// IsVertical reports whether the segment is vertical within tolerance
func (l LineObject) IsVertical(tolerance float64) bool {
	return math.Abs(l.X0-l.X1) < tolerance
}

// IsHorizontal reports whether the segment is horizontal within tolerance
func (l LineObject) IsHorizontal(tolerance float64) bool {
	return math.Abs(l.Y0-l.Y1) < tolerance
}

// Length returns the euclidean length of the segment
func (l LineObject) Length() float64 {
	return math.Hypot(l.X1-l.X0, l.Y1-l.Y0)
}

// RectObject represents a rectangle in the PDF
type RectObject struct {
	X0          float64
	Y0          float64
	X1          float64
	Y1          float64
	Width       float64
	NonStroking bool
}

// GetBBox returns the rectangle's bounding box
func (r RectObject) GetBBox() BoundingBox {
	return BoundingBox{X0: r.X0, Y0: r.Y0, X1: r.X1, Y1: r.Y1}
}

// Edges returns the four sides of the rectangle as line segments
func (r RectObject) Edges() []LineObject {
	return []LineObject{
		{X0: r.X0, Y0: r.Y0, X1: r.X1, Y1: r.Y0, Width: r.Width},
		{X0: r.X0, Y0: r.Y1, X1: r.X1, Y1: r.Y1, Width: r.Width},
		{X0: r.X0, Y0: r.Y0, X1: r.X0, Y1: r.Y1, Width: r.Width},
		{X0: r.X1, Y0: r.Y0, X1: r.X1, Y1: r.Y1, Width: r.Width},
	}
}

// Word is a run of characters on one text line with no gap wider than the
// horizontal tolerance between them.
type Word struct {
	Text string
	X0   float64
	Y0   float64 // Top
	X1   float64
	Y1   float64 // Bottom
}

// Top returns the vertical position of the word's upper edge
func (w Word) Top() float64 {
	return w.Y0
}

// CenterX returns the horizontal center of the word
func (w Word) CenterX() float64 {
	return (w.X0 + w.X1) / 2
}

// Table represents an extracted ruled table.
// Cells spanned by a merged cell are reported as empty strings.
type Table struct {
	Rows [][]string
	BBox BoundingBox
}

// CellCount returns the number of cells in the table
func (t Table) CellCount() int {
	n := 0
	for _, row := range t.Rows {
		n += len(row)
	}
	return n
}

// TextExtractionOption is a function that modifies text extraction behavior
type TextExtractionOption func(*textExtractionConfig)

type textExtractionConfig struct {
	XTolerance float64
	YTolerance float64
}

// WithXTolerance sets the horizontal tolerance for text grouping
func WithXTolerance(tolerance float64) TextExtractionOption {
	return func(c *textExtractionConfig) {
		c.XTolerance = tolerance
	}
}

// WithYTolerance sets the vertical tolerance for text grouping
func WithYTolerance(tolerance float64) TextExtractionOption {
	return func(c *textExtractionConfig) {
		c.YTolerance = tolerance
	}
}

func newTextExtractionConfig(opts []TextExtractionOption) *textExtractionConfig {
	config := &textExtractionConfig{
		XTolerance: 3.0,
		YTolerance: 3.0,
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// TableExtractionOption is a function that modifies table extraction behavior
type TableExtractionOption func(*tableExtractionConfig)

type tableExtractionConfig struct {
	SnapTolerance         float64
	JoinTolerance         float64
	EdgeMinLength         float64
	IntersectionTolerance float64
}

// WithSnapTolerance sets the distance within which parallel edges are
// aligned to a common coordinate
func WithSnapTolerance(tolerance float64) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.SnapTolerance = tolerance
	}
}

// WithJoinTolerance sets the gap across which collinear edges are merged
func WithJoinTolerance(tolerance float64) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.JoinTolerance = tolerance
	}
}

// WithEdgeMinLength discards merged edges shorter than length
func WithEdgeMinLength(length float64) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.EdgeMinLength = length
	}
}

// WithIntersectionTolerance sets how far apart a horizontal and a vertical
// edge may be and still count as crossing
func WithIntersectionTolerance(tolerance float64) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.IntersectionTolerance = tolerance
	}
}
