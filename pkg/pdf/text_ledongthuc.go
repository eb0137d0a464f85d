package pdf

import (
	"bytes"
	"fmt"

	lpdf "github.com/ledongthuc/pdf"
)

// baselineRatio is the share of the font size that lies above the baseline
const baselineRatio = 0.8

// textRun is one positioned string reported by a text backend, in PDF user
// space with its baseline at Y
type textRun struct {
	Font     string
	FontSize float64
	X        float64
	Y        float64
	W        float64
	S        string
}

// textSource yields the positioned text of each page
type textSource interface {
	Name() string
	NumPage() int
	PageRuns(pageNumber int) ([]textRun, error)
}

// ledongthucSource reads text with the ledongthuc/pdf library
type ledongthucSource struct {
	reader *lpdf.Reader
}

func newLedongthucSource(data []byte) (textSource, error) {
	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with ledongthuc: %w", err)
	}
	return &ledongthucSource{reader: r}, nil
}

func (s *ledongthucSource) Name() string {
	return "ledongthuc"
}

func (s *ledongthucSource) NumPage() int {
	return s.reader.NumPage()
}

// PageRuns returns the text runs of a page. The library panics on some
// malformed content streams; that is reported as an error.
func (s *ledongthucSource) PageRuns(pageNumber int) (runs []textRun, err error) {
	if pageNumber < 1 || pageNumber > s.reader.NumPage() {
		return nil, fmt.Errorf("invalid page number: %d", pageNumber)
	}

	defer func() {
		if r := recover(); r != nil {
			runs = nil
			err = fmt.Errorf("ledongthuc failed on page %d: %v", pageNumber, r)
		}
	}()

	page := s.reader.Page(pageNumber)
	if page.V.IsNull() {
		return nil, nil
	}

	for _, text := range page.Content().Text {
		runs = append(runs, textRun{
			Font:     text.Font,
			FontSize: text.FontSize,
			X:        text.X,
			Y:        text.Y,
			W:        text.W,
			S:        text.S,
		})
	}
	return runs, nil
}

// charsFromRuns converts text runs into per-rune characters in top-left page
// coordinates. A run holding several runes is split into equal advances.
func charsFromRuns(runs []textRun, originX, topY float64) []CharObject {
	var chars []CharObject

	for _, run := range runs {
		runes := []rune(run.S)
		if len(runes) == 0 {
			continue
		}

		fontHeight := run.FontSize
		top := topY - (run.Y + fontHeight*baselineRatio)
		charWidth := run.W / float64(len(runes))
		x := run.X - originX

		for _, ch := range runes {
			chars = append(chars, CharObject{
				Text:     string(ch),
				Font:     run.Font,
				FontSize: run.FontSize,
				X0:       x,
				Y0:       top,
				X1:       x + charWidth,
				Y1:       top + fontHeight,
			})
			x += charWidth
		}
	}

	return chars
}
