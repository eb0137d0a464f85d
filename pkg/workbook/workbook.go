// Package workbook writes conversion results into spreadsheet templates.
// Templates are opened from disk, filled sheet by sheet and saved under a
// new name; the template itself is never modified.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when a template lacks a sheet that must be written
var ErrSheetNotFound = errors.New("sheet not found")

// Sheet names shared by the templates
const (
	SheetPaste    = "貼り付け用"
	SheetBento    = "注文弁当の抽出"
	SheetClient   = "クライアント抽出"
	SheetCustomer = "得意先マスタ"
)

// Workbook is an open spreadsheet
type Workbook struct {
	file *excelize.File
}

// Open opens the workbook at path
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &Workbook{file: f}, nil
}

// OpenReader opens a workbook from r
func OpenReader(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return &Workbook{file: f}, nil
}

// Close releases the workbook
func (w *Workbook) Close() error {
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

// Sheets lists the sheet names in order
func (w *Workbook) Sheets() []string {
	return w.file.GetSheetList()
}

// HasSheet reports whether the workbook has the named sheet
func (w *Workbook) HasSheet(name string) bool {
	idx, err := w.file.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// Rows returns the non-empty extent of a sheet as strings
func (w *Workbook) Rows(sheet string) ([][]string, error) {
	if err := w.require(sheet); err != nil {
		return nil, err
	}
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// WriteGrid writes rows cell by cell starting at A1. Cells outside the grid
// keep their current contents.
func (w *Workbook) WriteGrid(sheet string, rows [][]string) error {
	if err := w.require(sheet); err != nil {
		return err
	}
	for i, row := range rows {
		if err := w.setRow(sheet, i+1, anyRow(row)); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceRows empties columns A through one past the widest new row, from
// startRow to one past the last used row, and then writes rows from column A
// of startRow
func (w *Workbook) ReplaceRows(sheet string, startRow int, rows [][]any) error {
	if err := w.require(sheet); err != nil {
		return err
	}
	if startRow < 1 {
		return fmt.Errorf("invalid start row %d", startRow)
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	existing, err := w.file.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	for r := startRow; r <= len(existing)+1; r++ {
		for c := 1; c <= width+1; c++ {
			cell, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return err
			}
			if err := w.file.SetCellStr(sheet, cell, ""); err != nil {
				return fmt.Errorf("failed to clear %s!%s: %w", sheet, cell, err)
			}
		}
	}

	for i, row := range rows {
		if err := w.setRow(sheet, startRow+i, row); err != nil {
			return err
		}
	}
	return nil
}

// SaveAs writes the workbook to path. The extension selects the file type.
func (w *Workbook) SaveAs(path string) error {
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// WriteTo writes the workbook to out
func (w *Workbook) WriteTo(out io.Writer) (int64, error) {
	return w.file.WriteTo(out)
}

func (w *Workbook) require(sheet string) error {
	if !w.HasSheet(sheet) {
		return fmt.Errorf("%w: %s (sheets: %s)", ErrSheetNotFound, sheet, strings.Join(w.Sheets(), ", "))
	}
	return nil
}

func (w *Workbook) setRow(sheet string, row int, values []any) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
	}
	return nil
}
