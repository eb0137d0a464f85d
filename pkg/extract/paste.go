package extract

import (
	"fmt"

	"github.com/pyhub-apps/kazudashi-golang/pkg/layout"
	"github.com/pyhub-apps/kazudashi-golang/pkg/pdf"
)

// PasteGridBuilder produces the normalized grid of the first page, written
// verbatim into the paste sheet
type PasteGridBuilder struct {
	assembler *layout.Assembler
}

// NewPasteGridBuilder creates a builder using the given assembler
func NewPasteGridBuilder(assembler *layout.Assembler) *PasteGridBuilder {
	if assembler == nil {
		assembler = layout.NewAssembler()
	}
	return &PasteGridBuilder{assembler: assembler}
}

// Build returns the grid of page 1. A page without words yields a nil grid
// and a warning rather than an error.
func (b *PasteGridBuilder) Build(doc pdf.Document) (layout.Grid, []Warning, error) {
	if doc.PageCount() == 0 {
		return nil, nil, pdf.ErrNoPages
	}

	page, err := doc.GetPage(0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get first page: %w", err)
	}

	grid := b.assembler.Assemble(page)
	if len(grid) == 0 {
		return nil, []Warning{{Page: page.GetPageNumber(), Message: "no text rows found on the first page"}}, nil
	}
	return grid, nil, nil
}
