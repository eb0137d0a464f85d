package pdf

import (
	"bytes"
	"strconv"
)

// thinRectLimit is the largest extent a filled rectangle may have on one
// axis and still be treated as a ruling line.
const thinRectLimit = 1.0

// GraphicsParser parses PDF content streams and collects the drawn lines and
// rectangles. Text operators are ignored; glyph positions come from the text
// sources.
type GraphicsParser struct {
	objects Objects

	graphicsState *GraphicsState
	stateStack    []GraphicsState

	currentPath []PathElement

	// page box in default user space
	originX float64
	topY    float64
}

// GraphicsState represents the subset of the PDF graphics state that affects
// path geometry
type GraphicsState struct {
	CTM       Matrix // Current transformation matrix
	LineWidth float64
}

// Matrix represents a 2D transformation matrix
type Matrix struct {
	A, B, C, D, E, F float64
}

// PathElement represents an element in a path
type PathElement struct {
	Type   string // moveto, lineto, curveto, close
	Points []PDFPoint
}

// PDFPoint represents a point in user space
type PDFPoint struct {
	X, Y float64
}

// NewGraphicsParser creates a parser for a page whose media box has its
// left edge at llx and its top edge at ury in default user space
func NewGraphicsParser(llx, ury float64) *GraphicsParser {
	return &GraphicsParser{
		graphicsState: &GraphicsState{
			CTM:       IdentityMatrix(),
			LineWidth: 1.0,
		},
		originX: llx,
		topY:    ury,
	}
}

// Parse parses a content stream and returns the lines and rectangles it
// draws, in top-left page coordinates
func (p *GraphicsParser) Parse(content []byte) Objects {
	tokens := tokenize(content)

	operands := []string{}
	for _, token := range tokens {
		if isOperator(token) {
			p.processOperator(token, operands)
			operands = operands[:0]
		} else {
			operands = append(operands, token)
		}
	}

	p.objects.Lines = DeduplicateLines(p.objects.Lines)
	p.objects.Rects = DeduplicateRectangles(p.objects.Rects)
	return p.objects
}

// tokenize splits content stream into tokens
func tokenize(content []byte) []string {
	var tokens []string
	reader := bytes.NewReader(content)

	for reader.Len() > 0 {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}

		if isWhitespace(b) {
			continue
		}

		switch b {
		case '(':
			tokens = append(tokens, "("+readStringLiteral(reader)+")")

		case '<':
			next, _ := reader.ReadByte()
			if next == '<' {
				tokens = append(tokens, "<<")
			} else {
				reader.UnreadByte()
				tokens = append(tokens, "<"+readHexString(reader)+">")
			}

		case '>':
			next, _ := reader.ReadByte()
			if next == '>' {
				tokens = append(tokens, ">>")
			} else {
				reader.UnreadByte()
			}

		case '[':
			tokens = append(tokens, "[")

		case ']':
			tokens = append(tokens, "]")

		case '/':
			tokens = append(tokens, "/"+readToken(reader))

		case '%':
			skipComment(reader)

		default:
			reader.UnreadByte()
			if token := readToken(reader); token != "" {
				tokens = append(tokens, token)
			} else {
				// stray delimiter such as ')' or '{'
				reader.ReadByte()
			}
		}
	}

	return tokens
}

// readStringLiteral reads a string literal up to its balancing parenthesis
func readStringLiteral(reader *bytes.Reader) string {
	var result []byte
	depth := 1

	for reader.Len() > 0 {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}

		if b == '\\' {
			next, _ := reader.ReadByte()
			result = append(result, '\\', next)
		} else if b == '(' {
			depth++
			result = append(result, b)
		} else if b == ')' {
			depth--
			if depth == 0 {
				break
			}
			result = append(result, b)
		} else {
			result = append(result, b)
		}
	}

	return string(result)
}

// readHexString reads a hex string from the reader
func readHexString(reader *bytes.Reader) string {
	var result []byte

	for reader.Len() > 0 {
		b, err := reader.ReadByte()
		if err != nil || b == '>' {
			break
		}
		if !isWhitespace(b) {
			result = append(result, b)
		}
	}

	return string(result)
}

// readToken reads a name, number or operator from the reader
func readToken(reader *bytes.Reader) string {
	var result []byte

	for reader.Len() > 0 {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}

		if isDelimiter(b) || isWhitespace(b) {
			reader.UnreadByte()
			break
		}

		result = append(result, b)
	}

	return string(result)
}

// skipComment skips a comment line
func skipComment(reader *bytes.Reader) {
	for reader.Len() > 0 {
		b, _ := reader.ReadByte()
		if b == '\n' || b == '\r' {
			break
		}
	}
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}

var operators = map[string]bool{
	// Text
	"BT": true, "ET": true, "Td": true, "TD": true, "Tm": true, "T*": true, "Tj": true, "TJ": true,
	"'": true, "\"": true, "Tc": true, "Tw": true, "Tz": true, "TL": true, "Tf": true, "Tr": true, "Ts": true,
	// Graphics state
	"q": true, "Q": true, "cm": true, "w": true, "J": true, "j": true, "M": true, "d": true,
	"ri": true, "i": true, "gs": true,
	// Path construction
	"m": true, "l": true, "c": true, "v": true, "y": true, "h": true, "re": true,
	// Path painting
	"S": true, "s": true, "f": true, "F": true, "f*": true, "B": true, "B*": true, "b": true, "b*": true, "n": true,
	// Color
	"CS": true, "cs": true, "SC": true, "SCN": true, "sc": true, "scn": true,
	"G": true, "g": true, "RG": true, "rg": true, "K": true, "k": true,
	// Other
	"W": true, "W*": true, "BX": true, "EX": true, "Do": true, "MP": true, "DP": true,
	"BMC": true, "BDC": true, "EMC": true, "BI": true, "ID": true, "EI": true, "sh": true,
	"d0": true, "d1": true,
}

// isOperator checks if a token is a PDF operator
func isOperator(token string) bool {
	return operators[token]
}

// processOperator processes a PDF operator with its operands
func (p *GraphicsParser) processOperator(operator string, operands []string) {
	switch operator {
	case "q":
		p.stateStack = append(p.stateStack, *p.graphicsState)
	case "Q":
		if n := len(p.stateStack); n > 0 {
			state := p.stateStack[n-1]
			p.graphicsState = &state
			p.stateStack = p.stateStack[:n-1]
		}
	case "cm":
		if len(operands) >= 6 {
			m := Matrix{
				A: parseFloat(operands[len(operands)-6]),
				B: parseFloat(operands[len(operands)-5]),
				C: parseFloat(operands[len(operands)-4]),
				D: parseFloat(operands[len(operands)-3]),
				E: parseFloat(operands[len(operands)-2]),
				F: parseFloat(operands[len(operands)-1]),
			}
			p.graphicsState.CTM = MultiplyMatrix(m, p.graphicsState.CTM)
		}
	case "w":
		if len(operands) >= 1 {
			p.graphicsState.LineWidth = parseFloat(operands[len(operands)-1])
		}

	case "m":
		p.addPathElement("moveto", operands, 2)
	case "l":
		p.addPathElement("lineto", operands, 2)
	case "c":
		p.addPathElement("curveto", operands, 6)
	case "v", "y":
		p.addPathElement("curveto", operands, 4)
	case "h":
		p.currentPath = append(p.currentPath, PathElement{Type: "close"})
	case "re":
		p.rectangle(operands)

	case "S", "s":
		if operator == "s" {
			p.currentPath = append(p.currentPath, PathElement{Type: "close"})
		}
		p.createLinesFromPath()
		p.currentPath = nil
	case "f", "F", "f*":
		p.createFilledPath()
		p.currentPath = nil
	case "B", "B*", "b", "b*":
		p.createFilledPath()
		p.createLinesFromPath()
		p.currentPath = nil
	case "n":
		p.currentPath = nil
	}
}

func (p *GraphicsParser) addPathElement(kind string, operands []string, arity int) {
	if len(operands) < arity {
		return
	}
	operands = operands[len(operands)-arity:]

	var points []PDFPoint
	for i := 0; i+1 < len(operands); i += 2 {
		points = append(points, PDFPoint{X: parseFloat(operands[i]), Y: parseFloat(operands[i+1])})
	}
	p.currentPath = append(p.currentPath, PathElement{Type: kind, Points: points})
}

func (p *GraphicsParser) rectangle(operands []string) {
	if len(operands) < 4 {
		return
	}
	operands = operands[len(operands)-4:]

	x := parseFloat(operands[0])
	y := parseFloat(operands[1])
	width := parseFloat(operands[2])
	height := parseFloat(operands[3])

	p.currentPath = append(p.currentPath,
		PathElement{Type: "moveto", Points: []PDFPoint{{X: x, Y: y}}},
		PathElement{Type: "lineto", Points: []PDFPoint{{X: x + width, Y: y}}},
		PathElement{Type: "lineto", Points: []PDFPoint{{X: x + width, Y: y + height}}},
		PathElement{Type: "lineto", Points: []PDFPoint{{X: x, Y: y + height}}},
		PathElement{Type: "close"},
	)
}

// createLinesFromPath emits one line per straight path segment
func (p *GraphicsParser) createLinesFromPath() {
	var currentX, currentY float64
	var startX, startY float64

	emit := func(x0, y0, x1, y1 float64) {
		ax, ay := p.toPage(x0, y0)
		bx, by := p.toPage(x1, y1)
		p.objects.Lines = append(p.objects.Lines, LineObject{
			X0: ax, Y0: ay, X1: bx, Y1: by,
			Width: p.graphicsState.LineWidth,
		})
	}

	for _, elem := range p.currentPath {
		switch elem.Type {
		case "moveto":
			currentX, currentY = elem.Points[0].X, elem.Points[0].Y
			startX, startY = currentX, currentY
		case "lineto":
			end := elem.Points[0]
			emit(currentX, currentY, end.X, end.Y)
			currentX, currentY = end.X, end.Y
		case "curveto":
			end := elem.Points[len(elem.Points)-1]
			currentX, currentY = end.X, end.Y
		case "close":
			if currentX != startX || currentY != startY {
				emit(currentX, currentY, startX, startY)
			}
			currentX, currentY = startX, startY
		}
	}
}

// createFilledPath records filled rectangles. A rectangle thinner than
// thinRectLimit on one axis is a ruling line drawn as a fill and is
// recorded as a line through its middle.
func (p *GraphicsParser) createFilledPath() {
	if !p.isRectanglePath() {
		return
	}

	var rect RectObject
	first := true
	for _, elem := range p.currentPath {
		for _, pt := range elem.Points {
			x, y := p.toPage(pt.X, pt.Y)
			if first {
				rect = RectObject{X0: x, Y0: y, X1: x, Y1: y, NonStroking: true}
				first = false
				continue
			}
			rect.X0, rect.X1 = min(rect.X0, x), max(rect.X1, x)
			rect.Y0, rect.Y1 = min(rect.Y0, y), max(rect.Y1, y)
		}
	}

	switch {
	case rect.Y1-rect.Y0 < thinRectLimit && rect.X1-rect.X0 >= thinRectLimit:
		mid := (rect.Y0 + rect.Y1) / 2
		p.objects.Lines = append(p.objects.Lines, LineObject{X0: rect.X0, Y0: mid, X1: rect.X1, Y1: mid, Width: rect.Y1 - rect.Y0})
	case rect.X1-rect.X0 < thinRectLimit && rect.Y1-rect.Y0 >= thinRectLimit:
		mid := (rect.X0 + rect.X1) / 2
		p.objects.Lines = append(p.objects.Lines, LineObject{X0: mid, Y0: rect.Y0, X1: mid, Y1: rect.Y1, Width: rect.X1 - rect.X0})
	default:
		p.objects.Rects = append(p.objects.Rects, rect)
	}
}

// isRectanglePath checks if the current path is a single axis-aligned
// four-sided subpath
func (p *GraphicsParser) isRectanglePath() bool {
	lineCount := 0
	hasClose := false
	moves := 0

	for _, elem := range p.currentPath {
		switch elem.Type {
		case "moveto":
			moves++
		case "lineto":
			lineCount++
		case "close":
			hasClose = true
		case "curveto":
			return false
		}
	}

	if moves != 1 || !((lineCount == 3 && hasClose) || lineCount == 4) {
		return false
	}

	// every side must be axis-aligned after transformation
	var pts [][2]float64
	for _, elem := range p.currentPath {
		for _, pt := range elem.Points {
			x, y := p.toPage(pt.X, pt.Y)
			pts = append(pts, [2]float64{x, y})
		}
	}
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		if abs(a[0]-b[0]) > FloatTolerance && abs(a[1]-b[1]) > FloatTolerance {
			return false
		}
	}
	return true
}

// transformPoint applies the current transformation matrix to a point
func (p *GraphicsParser) transformPoint(x, y float64) (float64, float64) {
	return applyMatrix(p.graphicsState.CTM, x, y)
}

// toPage maps a user-space point to top-left page coordinates
func (p *GraphicsParser) toPage(x, y float64) (float64, float64) {
	tx, ty := p.transformPoint(x, y)
	return tx - p.originX, p.topY - ty
}

func applyMatrix(m Matrix, x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.E, m.B*x + m.D*y + m.F
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// IdentityMatrix returns the identity transform
func IdentityMatrix() Matrix {
	return Matrix{A: 1, B: 0, C: 0, D: 1, E: 0, F: 0}
}

// MultiplyMatrix returns m1 followed by m2
func MultiplyMatrix(m1, m2 Matrix) Matrix {
	return Matrix{
		A: m1.A*m2.A + m1.B*m2.C,
		B: m1.A*m2.B + m1.B*m2.D,
		C: m1.C*m2.A + m1.D*m2.C,
		D: m1.C*m2.B + m1.D*m2.D,
		E: m1.E*m2.A + m1.F*m2.C + m2.E,
		F: m1.E*m2.B + m1.F*m2.D + m2.F,
	}
}
