package pdf

import (
	"sort"
	"strings"
	"unicode"
)

// PDFPage is a page reduced to its geometry: characters, ruling lines and
// rectangles in top-left page coordinates.
type PDFPage struct {
	pageNumber int
	bbox       BoundingBox
	objects    Objects
}

// NewPage creates a page from already-positioned objects
func NewPage(pageNumber int, bbox BoundingBox, objects Objects) *PDFPage {
	return &PDFPage{
		pageNumber: pageNumber,
		bbox:       bbox,
		objects:    objects,
	}
}

// GetPageNumber returns the page number (1-based)
func (p *PDFPage) GetPageNumber() int {
	return p.pageNumber
}

// GetWidth returns the page width
func (p *PDFPage) GetWidth() float64 {
	return p.bbox.Width()
}

// GetHeight returns the page height
func (p *PDFPage) GetHeight() float64 {
	return p.bbox.Height()
}

// GetBBox returns the page bounding box
func (p *PDFPage) GetBBox() BoundingBox {
	return p.bbox
}

// GetObjects returns all objects on the page
func (p *PDFPage) GetObjects() Objects {
	return p.objects
}

// ExtractText extracts text from the page. Words sharing a text line are
// joined with a single space and lines are separated by newlines.
func (p *PDFPage) ExtractText(opts ...TextExtractionOption) string {
	config := newTextExtractionConfig(opts)

	var lines []string
	for _, line := range clusterWordLines(p.ExtractWords(opts...), config.YTolerance) {
		parts := make([]string, len(line))
		for i, w := range line {
			parts[i] = w.Text
		}
		lines = append(lines, strings.Join(parts, " "))
	}

	return strings.Join(lines, "\n")
}

// ExtractWords extracts individual words from the page. Characters are
// clustered into text lines by their top edge, then split into words
// wherever the horizontal gap exceeds the x tolerance or a whitespace
// character occurs.
func (p *PDFPage) ExtractWords(opts ...TextExtractionOption) []Word {
	config := newTextExtractionConfig(opts)

	if len(p.objects.Chars) == 0 {
		return nil
	}

	chars := make([]CharObject, len(p.objects.Chars))
	copy(chars, p.objects.Chars)
	sort.SliceStable(chars, func(i, j int) bool {
		return chars[i].Y0 < chars[j].Y0
	})

	var words []Word
	for _, line := range clusterChars(chars, config.YTolerance) {
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].X0 < line[j].X0
		})
		words = append(words, extractWordsFromLine(line, config.XTolerance)...)
	}

	return words
}

// clusterChars splits top-sorted chars into lines; consecutive chars whose
// tops differ by at most tolerance share a line.
func clusterChars(sorted []CharObject, tolerance float64) [][]CharObject {
	var lines [][]CharObject
	var current []CharObject

	for i, char := range sorted {
		if i > 0 && char.Y0-sorted[i-1].Y0 > tolerance {
			lines = append(lines, current)
			current = nil
		}
		current = append(current, char)
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}

	return lines
}

// extractWordsFromLine extracts words from a single x-sorted line of characters
func extractWordsFromLine(lineChars []CharObject, xTolerance float64) []Word {
	var words []Word
	var currentWord []CharObject

	flush := func() {
		if len(currentWord) > 0 {
			words = append(words, createWord(currentWord))
			currentWord = nil
		}
	}

	for _, char := range lineChars {
		if strings.TrimFunc(char.Text, unicode.IsSpace) == "" {
			flush()
			continue
		}
		if len(currentWord) > 0 {
			last := currentWord[len(currentWord)-1]
			if char.X0-last.X1 > xTolerance {
				flush()
			}
		}
		currentWord = append(currentWord, char)
	}
	flush()

	return words
}

// createWord creates a Word from a group of characters
func createWord(chars []CharObject) Word {
	var text strings.Builder
	bbox := chars[0].GetBBox()

	for _, char := range chars {
		text.WriteString(char.Text)
		bbox = bbox.Union(char.GetBBox())
	}

	return Word{
		Text: text.String(),
		X0:   bbox.X0,
		Y0:   bbox.Y0,
		X1:   bbox.X1,
		Y1:   bbox.Y1,
	}
}

// clusterWordLines groups words into text lines ordered top to bottom, each
// line ordered left to right.
func clusterWordLines(words []Word, tolerance float64) [][]Word {
	sorted := make([]Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y0 < sorted[j].Y0
	})

	var lines [][]Word
	var current []Word
	for i, w := range sorted {
		if i > 0 && w.Y0-sorted[i-1].Y0 > tolerance {
			lines = append(lines, current)
			current = nil
		}
		current = append(current, w)
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}

	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].X0 < line[j].X0
		})
	}

	return lines
}

// ExtractTables extracts ruled tables from the page
func (p *PDFPage) ExtractTables(opts ...TableExtractionOption) []Table {
	extractor := newTableExtractor(p, opts...)
	return extractor.ExtractTables()
}

// Crop returns a new page holding only the objects that intersect bbox.
// Lines and rectangles are clipped to the crop box.
func (p *PDFPage) Crop(bbox BoundingBox) Page {
	return &PDFPage{
		pageNumber: p.pageNumber,
		bbox:       bbox,
		objects:    p.WithinBBox(bbox),
	}
}

// WithinBBox filters objects within a bounding box
func (p *PDFPage) WithinBBox(bbox BoundingBox) Objects {
	filtered := Objects{}

	for _, char := range p.objects.Chars {
		if bbox.Intersects(char.GetBBox()) {
			filtered.Chars = append(filtered.Chars, char)
		}
	}

	for _, line := range p.objects.Lines {
		if bbox.Intersects(line.GetBBox()) {
			filtered.Lines = append(filtered.Lines, clipLine(line, bbox))
		}
	}

	for _, rect := range p.objects.Rects {
		if bbox.Intersects(rect.GetBBox()) {
			rect.X0, rect.X1 = clamp(rect.X0, bbox.X0, bbox.X1), clamp(rect.X1, bbox.X0, bbox.X1)
			rect.Y0, rect.Y1 = clamp(rect.Y0, bbox.Y0, bbox.Y1), clamp(rect.Y1, bbox.Y0, bbox.Y1)
			filtered.Rects = append(filtered.Rects, rect)
		}
	}

	return filtered
}

func clipLine(line LineObject, bbox BoundingBox) LineObject {
	line.X0 = clamp(line.X0, bbox.X0, bbox.X1)
	line.X1 = clamp(line.X1, bbox.X0, bbox.X1)
	line.Y0 = clamp(line.Y0, bbox.Y0, bbox.Y1)
	line.Y1 = clamp(line.Y1, bbox.Y0, bbox.Y1)
	return line
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

// RulingLines returns every drawn line on the page, including the edges of
// rectangles, as individual segments.
func RulingLines(p Page) []LineObject {
	objects := p.GetObjects()
	lines := make([]LineObject, 0, len(objects.Lines)+4*len(objects.Rects))
	lines = append(lines, objects.Lines...)
	for _, rect := range objects.Rects {
		lines = append(lines, rect.Edges()...)
	}
	return lines
}

// LinesBBox returns the bounding box of the page's line segments and false
// when the page has none. Rectangles do not contribute.
func LinesBBox(p Page) (BoundingBox, bool) {
	lines := p.GetObjects().Lines
	if len(lines) == 0 {
		return BoundingBox{}, false
	}

	bbox := lines[0].GetBBox()
	for _, line := range lines[1:] {
		bbox = bbox.Union(line.GetBBox())
	}
	return bbox, true
}
