package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/pflag"

	"github.com/pyhub-apps/kazudashi-golang/internal/config"
	"github.com/pyhub-apps/kazudashi-golang/pkg/pdf"
)

// maxCellWidth caps a column in display cells
const maxCellWidth = 30

// runPreview prints what the extractors see on each page of a PDF
func runPreview(args []string, w io.Writer) error {
	flags := pflag.NewFlagSet("preview", pflag.ContinueOnError)
	pageNum := flags.Int("page", 0, "Page to print, 1-based (0 for all pages)")
	mode := flags.String("mode", "grid", "What to print: grid, tables, words or text")
	loader := config.NewLoader(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}
	cfg, err := loader.Load(envFile)
	if err != nil {
		return err
	}

	if flags.NArg() != 1 {
		return errors.New("preview: exactly one PDF file must be given")
	}

	doc, err := pdf.Open(flags.Arg(0))
	if err != nil {
		return err
	}
	defer doc.Close()

	for _, msg := range doc.Warnings() {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}

	pages := doc.GetPages()
	if *pageNum > 0 {
		page, err := doc.GetPage(*pageNum - 1)
		if err != nil {
			return err
		}
		pages = []pdf.Page{page}
	}

	assembler := newAssembler(cfg)
	for _, page := range pages {
		fmt.Fprintf(w, "=== Page %d (%.0f x %.0f) ===\n", page.GetPageNumber(), page.GetWidth(), page.GetHeight())

		switch *mode {
		case "grid":
			grid := assembler.Assemble(page)
			if len(grid) == 0 {
				fmt.Fprintln(w, "  (no rows)")
				continue
			}
			renderTable(w, grid)
		case "tables":
			tables := page.ExtractTables()
			if len(tables) == 0 {
				fmt.Fprintln(w, "  (no ruled tables)")
				continue
			}
			for i, table := range tables {
				fmt.Fprintf(w, "  Table %d: %d rows, %d cells, bbox (%.1f, %.1f)-(%.1f, %.1f)\n",
					i+1, len(table.Rows), table.CellCount(),
					table.BBox.X0, table.BBox.Y0, table.BBox.X1, table.BBox.Y1)
				renderTable(w, table.Rows)
			}
		case "words":
			for _, word := range page.ExtractWords() {
				fmt.Fprintf(w, "  %-20s x0=%7.2f top=%7.2f x1=%7.2f\n",
					runewidth.FillRight(word.Text, 20), word.X0, word.Top(), word.X1)
			}
		case "text":
			fmt.Fprintln(w, page.ExtractText())
		default:
			return fmt.Errorf("unknown preview mode %q", *mode)
		}
	}
	return nil
}

// renderTable prints rows as a boxed table, aligning columns by display
// width so that full-width characters line up
func renderTable(w io.Writer, rows [][]string) {
	widths := columnWidths(rows)
	if len(widths) == 0 {
		return
	}

	separator(w, widths)
	for _, row := range rows {
		var b strings.Builder
		b.WriteString("  |")
		for j, width := range widths {
			cell := ""
			if j < len(row) {
				cell = strings.TrimSpace(row[j])
			}
			cell = runewidth.Truncate(cell, width, "...")
			b.WriteString(" ")
			b.WriteString(runewidth.FillRight(cell, width))
			b.WriteString(" |")
		}
		fmt.Fprintln(w, b.String())
	}
	separator(w, widths)
}

func columnWidths(rows [][]string) []int {
	var widths []int
	for _, row := range rows {
		for j, cell := range row {
			for len(widths) <= j {
				widths = append(widths, 1)
			}
			n := runewidth.StringWidth(strings.TrimSpace(cell))
			if n > widths[j] {
				widths[j] = min(n, maxCellWidth)
			}
		}
	}
	return widths
}

func separator(w io.Writer, widths []int) {
	var b strings.Builder
	b.WriteString("  +")
	for _, width := range widths {
		b.WriteString(strings.Repeat("-", width+2))
		b.WriteString("+")
	}
	fmt.Fprintln(w, b.String())
}
