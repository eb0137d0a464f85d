package workbook

import (
	"fmt"
)

// Content is what a conversion writes into one workbook. Nil tables leave
// their sheet untouched.
type Content struct {
	Paste     [][]string
	Bento     [][]any
	Clients   [][]any
	Customers [][]string
}

// Projector writes Content into the named sheets of a workbook
type Projector struct {
	startRow int
}

// NewProjector creates a projector writing the derived tables from startRow
func NewProjector(startRow int) *Projector {
	if startRow < 1 {
		startRow = 1
	}
	return &Projector{startRow: startRow}
}

// Project writes every non-nil table of c. The paste grid goes to the paste
// sheet from A1; the bento, client and customer tables replace the previous
// contents of their sheets from the projector's start row.
func (p *Projector) Project(w *Workbook, c Content) error {
	if c.Paste != nil {
		if err := w.WriteGrid(SheetPaste, c.Paste); err != nil {
			return fmt.Errorf("failed to write paste grid: %w", err)
		}
	}

	if c.Bento != nil {
		if err := w.ReplaceRows(SheetBento, p.startRow, c.Bento); err != nil {
			return fmt.Errorf("failed to write bento table: %w", err)
		}
	}

	if c.Clients != nil {
		if err := w.ReplaceRows(SheetClient, p.startRow, c.Clients); err != nil {
			return fmt.Errorf("failed to write client table: %w", err)
		}
	}

	if c.Customers != nil {
		rows := make([][]any, len(c.Customers))
		for i, row := range c.Customers {
			rows[i] = anyRow(row)
		}
		if err := w.ReplaceRows(SheetCustomer, p.startRow, rows); err != nil {
			return fmt.Errorf("failed to write customer master: %w", err)
		}
	}

	return nil
}

func anyRow(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
