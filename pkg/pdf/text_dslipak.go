package pdf

import (
	"bytes"
	"fmt"

	gopdf "github.com/dslipak/pdf"
)

// dslipakSource reads text with the dslipak/pdf library. It is used when
// ledongthuc cannot open a document or fails on one of its pages.
type dslipakSource struct {
	reader *gopdf.Reader
}

func newDslipakSource(data []byte) (textSource, error) {
	r, err := gopdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with dslipak: %w", err)
	}
	return &dslipakSource{reader: r}, nil
}

func (s *dslipakSource) Name() string {
	return "dslipak"
}

func (s *dslipakSource) NumPage() int {
	return s.reader.NumPage()
}

func (s *dslipakSource) PageRuns(pageNumber int) (runs []textRun, err error) {
	if pageNumber < 1 || pageNumber > s.reader.NumPage() {
		return nil, fmt.Errorf("invalid page number: %d", pageNumber)
	}

	defer func() {
		if r := recover(); r != nil {
			runs = nil
			err = fmt.Errorf("dslipak failed on page %d: %v", pageNumber, r)
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
